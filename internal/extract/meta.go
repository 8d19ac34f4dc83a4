package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// robotsMetaNames are the <meta name=...> values that carry crawler directives
var robotsMetaNames = map[string]bool{
	"robots":          true,
	"googlebot":       true,
	"google-extended": true,
	"gptbot":          true,
	"claudebot":       true,
	"perplexitybot":   true,
}

// MetaRobots returns the distinct lower-cased directives found in robots meta tags,
// e.g. "noindex", "noai"
func MetaRobots(htmlContent string) ([]string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var directives []string
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			name := ""
			content := ""
			for _, attr := range n.Attr {
				switch strings.ToLower(attr.Key) {
				case "name":
					name = strings.ToLower(strings.TrimSpace(attr.Val))
				case "content":
					content = attr.Val
				}
			}

			if robotsMetaNames[name] {
				for _, d := range strings.Split(content, ",") {
					d = strings.ToLower(strings.TrimSpace(d))
					if d != "" && !seen[d] {
						seen[d] = true
						directives = append(directives, d)
					}
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return directives, nil
}

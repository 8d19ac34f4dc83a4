// Package audit checks whether AI crawlers may read a project's site.
package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/aivis/internal/extract"
	"github.com/ppiankov/aivis/internal/model"
	"github.com/ppiankov/aivis/internal/util"
)

// Auditor runs the robots.txt and meta robots checks for a domain
type Auditor struct {
	robots  *RobotsChecker
	fetcher *Fetcher
	now     func() time.Time
}

// NewAuditor builds an auditor from the outbound HTTP settings
func NewAuditor(cfg model.HTTPConfig) *Auditor {
	client := util.NewHTTPClient(cfg.Timeout, cfg.HTTPProxy, cfg.HTTPSProxy)
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}
	return &Auditor{
		robots:  NewRobotsChecker(client, cfg.UserAgent),
		fetcher: NewFetcher(client, cfg.UserAgent, maxBytes),
		now:     time.Now,
	}
}

// SiteURL is the landing page audited for a domain. A value that already
// carries a scheme is used as is.
func SiteURL(domain string) string {
	domain = strings.TrimSpace(domain)
	if strings.Contains(domain, "://") {
		return strings.TrimRight(domain, "/") + "/"
	}
	return "https://" + strings.Trim(domain, "/") + "/"
}

// Audit checks the domain. Network failures are reported as signals; only an
// empty domain is an error.
func (a *Auditor) Audit(ctx context.Context, domain string) (*model.AuditReport, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, &model.InputError{Field: "domain", Reason: "required"}
	}
	site := SiteURL(domain)

	report := &model.AuditReport{
		Domain:    domain,
		CheckedAt: a.now().UTC(),
		Crawlers:  []model.CrawlerRule{},
		Signals:   []model.Signal{},
	}

	rules, err := a.robots.Rules(ctx, site)
	if err != nil {
		report.Signals = append(report.Signals, unreachable("robots.txt", err))
	} else {
		report.Crawlers = rules
		for _, rule := range rules {
			if !rule.Allowed {
				report.Signals = append(report.Signals, model.Signal{
					Type:        model.SignalCrawlerBlocked,
					Severity:    model.SeverityCritical,
					Description: fmt.Sprintf("robots.txt blocks %s (%s)", rule.UserAgent, rule.Engine),
					Data: map[string]interface{}{
						"engine":     rule.Engine.String(),
						"user_agent": rule.UserAgent,
					},
				})
			}
		}
	}

	page, err := a.fetcher.FetchWithRetry(ctx, site)
	if err != nil {
		report.Error = err.Error()
		report.Signals = append(report.Signals, unreachable("landing page", err))
		return report, nil
	}

	directives, err := extract.MetaRobots(page.HTML)
	if err != nil {
		report.Error = fmt.Sprintf("parse landing page: %v", err)
		return report, nil
	}
	report.MetaTags = directives
	report.Signals = append(report.Signals, metaSignals(directives)...)

	return report, nil
}

func metaSignals(directives []string) []model.Signal {
	var signals []model.Signal
	for _, d := range directives {
		switch d {
		case "noai", "noimageai":
			signals = append(signals, model.Signal{
				Type:        model.SignalMetaNoAI,
				Severity:    model.SeverityWarning,
				Description: fmt.Sprintf("Landing page opts out of AI use (%s)", d),
				Data:        map[string]interface{}{"directive": d},
			})
		case "noindex", "none":
			signals = append(signals, model.Signal{
				Type:        model.SignalMetaNoIndex,
				Severity:    model.SeverityCritical,
				Description: fmt.Sprintf("Landing page is not indexable (%s)", d),
				Data:        map[string]interface{}{"directive": d},
			})
		}
	}
	return signals
}

func unreachable(what string, err error) model.Signal {
	return model.Signal{
		Type:        model.SignalUnreachable,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Could not fetch %s", what),
		Data:        map[string]interface{}{"error": err.Error()},
	}
}

package audit

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"

	"github.com/ppiankov/aivis/internal/model"
)

// Crawler is the user agent an engine crawls the web with
type Crawler struct {
	Engine    model.Engine
	UserAgent string
}

// AICrawlers are checked against every audited robots.txt, in roster order
var AICrawlers = []Crawler{
	{Engine: model.EngineChatGPT, UserAgent: "GPTBot"},
	{Engine: model.EngineGemini, UserAgent: "Google-Extended"},
	{Engine: model.EngineClaude, UserAgent: "ClaudeBot"},
	{Engine: model.EnginePerplexity, UserAgent: "PerplexityBot"},
}

// RobotsChecker fetches and caches robots.txt per host
type RobotsChecker struct {
	cache      map[string]*robotstxt.RobotsData
	mu         sync.RWMutex
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a new robots.txt checker
func NewRobotsChecker(client *http.Client, userAgent string) *RobotsChecker {
	return &RobotsChecker{
		cache:      make(map[string]*robotstxt.RobotsData),
		httpClient: client,
		userAgent:  userAgent,
	}
}

// Rules evaluates every AI crawler against the robots.txt of siteURL's host
// for siteURL's path
func (r *RobotsChecker) Rules(ctx context.Context, siteURL string) ([]model.CrawlerRule, error) {
	parsed, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}

	data, err := r.robotsData(ctx, parsed)
	if err != nil {
		return nil, err
	}

	path := parsed.Path
	if path == "" {
		path = "/"
	}

	rules := make([]model.CrawlerRule, 0, len(AICrawlers))
	for _, c := range AICrawlers {
		rules = append(rules, model.CrawlerRule{
			Engine:    c.Engine,
			UserAgent: c.UserAgent,
			Allowed:   data.TestAgent(path, c.UserAgent),
		})
	}
	return rules, nil
}

func (r *RobotsChecker) robotsData(ctx context.Context, site *url.URL) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, exists := r.cache[site.Host]
	r.mu.RUnlock()
	if exists {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", site.Scheme, site.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// 4xx allows everything, 5xx disallows everything
	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.cache[site.Host] = data
	r.mu.Unlock()
	return data, nil
}

// Clear clears the robots.txt cache
func (r *RobotsChecker) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*robotstxt.RobotsData)
}

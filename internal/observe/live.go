package observe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/aivis/internal/extract"
	"github.com/ppiankov/aivis/internal/llm"
	"github.com/ppiankov/aivis/internal/model"
)

// MaxSnippetRunes bounds the stored answer snippet
const MaxSnippetRunes = 280

// LiveProber asks real answer engines and records whether the brand shows up
type LiveProber struct {
	providers map[model.Engine]llm.Provider
}

// NewLiveProber creates a prober with one provider per engine
func NewLiveProber(providers map[model.Engine]llm.Provider) *LiveProber {
	return &LiveProber{providers: providers}
}

// Probe asks the engine the keyword as a user question
func (p *LiveProber) Probe(ctx context.Context, target Target, task Task, ts time.Time) (model.Check, error) {
	provider, ok := p.providers[task.Engine]
	if !ok || provider == nil {
		return model.Check{}, fmt.Errorf("no provider configured for engine %s", task.Engine)
	}

	resp, err := provider.Ask(ctx, llm.AskRequest{Question: llm.BuildQuestion(task.Keyword)})
	if err != nil {
		return model.Check{}, fmt.Errorf("probe %s for %q: %w", task.Engine, task.Keyword, err)
	}

	return Observe(target, task, ts, resp.Answer), nil
}

// Observe turns an engine answer into a check.
// Position is the 1-based sentence of the first brand or domain mention, capped at 10;
// citations count every mention.
func Observe(target Target, task Task, ts time.Time, answer string) model.Check {
	check := model.Check{
		ID:        uuid.NewString(),
		ProjectID: target.ProjectID,
		Engine:    task.Engine,
		Keyword:   task.Keyword,
		Timestamp: ts,

		ObservedURLs: []string{},
	}

	mention := extract.Mentions(answer, mentionTerms(target)...)
	if !mention.Found() {
		return check
	}

	position := min(mention.Sentence, model.MaxPosition)
	snippet := extract.Truncate(extract.PlainText(mention.Text), MaxSnippetRunes)

	check.Presence = true
	check.Position = &position
	check.CitationsCount = mention.Count
	check.AnswerSnippet = &snippet
	check.ObservedURLs = extract.URLs(answer)
	return check
}

// mentionTerms returns brand and domain, dropping a term that contains another
// so "acme.io" is not counted twice when the brand is "Acme".
// A domain given as a URL is reduced to its host.
func mentionTerms(target Target) []string {
	domain := strings.TrimSpace(target.Domain)
	if strings.Contains(domain, "://") {
		domain = extract.HostOf(domain)
	}
	var terms []string
	for _, t := range []string{target.Brand, strings.TrimPrefix(strings.ToLower(domain), "www.")} {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) == 2 && (terms[0] == terms[1] || strings.Contains(terms[1], terms[0])) {
		return terms[:1]
	}
	if len(terms) == 2 && strings.Contains(terms[0], terms[1]) {
		return terms[1:]
	}
	return terms
}

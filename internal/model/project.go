package model

import "time"

// Project is a tracked brand/domain with its keyword list
type Project struct {
	ID          string    `json:"id"`
	Domain      string    `json:"domain"`
	Brand       string    `json:"brand"`
	Competitors []string  `json:"competitors"`
	Keywords    []string  `json:"keywords"`
	CreatedAt   time.Time `json:"created_at"`
}

// CanonicalURL is the URL observed for the project when the brand is cited
func (p Project) CanonicalURL() string {
	if p.Domain != "" {
		return "https://" + p.Domain
	}
	return "https://" + p.ID
}

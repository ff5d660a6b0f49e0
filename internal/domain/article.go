package domain

import "time"

// Article is the canonical unit of exchange between pipeline stages.
// Instances are immutable after normalization; ID is the sole dedup key.
type Article struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Authors         []string  `json:"authors"`
	PrimaryCategory string    `json:"primary_category"`
	Published       time.Time `json:"published"`
	Link            string    `json:"link"`
	Abstract        string    `json:"abstract"`
	Source          string    `json:"-"`
}

// RawRecord carries one source-native entry before normalization.
// Exactly one of AuthorNames or AuthorText is expected to be populated:
// the literature index yields a name list, feeds yield a comma-joined string.
type RawRecord struct {
	NativeID    string
	Title       string
	Summary     string
	AuthorNames []string
	AuthorText  string
	Category    string
	Published   time.Time
	Link        string
	DOI         string
	Source      string
}

// Window is the fetch interval for one run, in local time.
type Window struct {
	Since time.Time
	Now   time.Time
}

// Contains reports whether ts lies within [Since, Now].
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.Since) && !ts.After(w.Now)
}

// QueryBlock is one relevance rule: Any matches when at least one keyword is
// a substring of the article text, All only when every keyword is.
type QueryBlock struct {
	Any []string `yaml:"any,omitempty"`
	All []string `yaml:"all,omitempty"`
}

// DigestMode selects the prompt template used for report generation.
type DigestMode string

const (
	ModeConcise DigestMode = "concise"
	ModeDeep    DigestMode = "deep"
)

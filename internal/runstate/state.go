package runstate

import (
	"sync"
	"time"
)

// maxErrors bounds the trailing error log kept for status inspection.
const maxErrors = 20

// ErrorEntry is one recorded pipeline failure.
type ErrorEntry struct {
	Time    time.Time
	Message string
}

// State holds the process-wide run bookkeeping. It is owned by the
// orchestrator; everyone else reads it through Snapshot.
type State struct {
	mu           sync.Mutex
	startTime    time.Time
	lastFetch    time.Time
	lastReport   time.Time
	totalReports int
	totalPapers  int
	errors       []ErrorEntry
}

// Snapshot is a read-only copy of the state at one instant.
type Snapshot struct {
	StartTime    time.Time
	LastFetch    time.Time
	LastReport   time.Time
	TotalReports int
	TotalPapers  int
	Errors       []ErrorEntry
}

// New initializes state for a freshly started process.
func New() *State {
	return &State{startTime: time.Now()}
}

// RecordFetch notes a completed fetch stage and its article count.
func (s *State) RecordFetch(at time.Time, papers int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFetch = at
	s.totalPapers += papers
}

// RecordReport notes a successfully delivered report.
func (s *State) RecordReport(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReport = at
	s.totalReports++
}

// RecordError appends to the bounded error log, evicting the oldest entry.
func (s *State) RecordError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, ErrorEntry{Time: time.Now(), Message: message})
	if len(s.errors) > maxErrors {
		s.errors = s.errors[len(s.errors)-maxErrors:]
	}
}

// Snapshot returns a copy safe to read outside the orchestrator.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := make([]ErrorEntry, len(s.errors))
	copy(errs, s.errors)
	return Snapshot{
		StartTime:    s.startTime,
		LastFetch:    s.lastFetch,
		LastReport:   s.lastReport,
		TotalReports: s.totalReports,
		TotalPapers:  s.totalPapers,
		Errors:       errs,
	}
}

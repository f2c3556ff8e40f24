package compare

import (
	"fmt"
	"sync"

	"github.com/zjrosen/goldcheck/internal/log"
)

// Session accumulates violations across all comparison components for
// one validation run. Every check funnels through Report rather than
// returning errors, so one mismatch never hides another. Safe for
// concurrent use; it is the only shared mutable state when sibling
// datasets validate in parallel.
type Session struct {
	mu         sync.Mutex
	violations []Violation
	datasets   int
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{}
}

// Report records a hard violation and logs it at error severity.
func (s *Session) Report(path string, kind Kind, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Error(log.CatCompare, "violation", "path", path, "kind", string(kind), "detail", msg)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.violations = append(s.violations, Violation{Path: path, Kind: kind, Message: msg})
}

// ReportSoft records a logged-only difference that never fails the run.
func (s *Session) ReportSoft(path string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Warn(log.CatCompare, "soft mismatch", "path", path, "detail", msg)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.violations = append(s.violations, Violation{Path: path, Kind: KindSoft, Message: msg})
}

// DatasetDone bumps the compared-dataset counter.
func (s *Session) DatasetDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets++
}

// DatasetsCompared returns how many datasets were validated.
func (s *Session) DatasetsCompared() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.datasets
}

// Violations returns a copy of everything recorded so far.
func (s *Session) Violations() []Violation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Violation, len(s.violations))
	copy(out, s.violations)
	return out
}

// HardCount returns the number of verdict-affecting violations.
func (s *Session) HardCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.violations {
		if v.Hard() {
			n++
		}
	}
	return n
}

// Passed reports the verdict: true iff no hard violation was recorded.
func (s *Session) Passed() bool {
	return s.HardCount() == 0
}

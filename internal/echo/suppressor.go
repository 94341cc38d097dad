// Package echo filters self-originated message reflections out of the inbound
// stream. Every successful outbound send is recorded; an inbound event that
// matches a recent record is an echo of our own send, not new input.
package echo

import (
	"sync"
	"time"
)

// Window is how long a sent message can still be matched as an echo.
const Window = 30 * time.Second

// maxRecords bounds the suppressor; oldest entries drop first.
const maxRecords = 256

// Record is one outbound send awaiting its reflection.
type Record struct {
	To     string
	Text   string
	ID     string
	SentAt time.Time
}

// Suppressor keeps a time-ordered window of recent outbound sends.
type Suppressor struct {
	mu      sync.Mutex
	records []Record
}

func NewSuppressor() *Suppressor {
	return &Suppressor{}
}

// Record notes a successful outbound send. id may be empty when the transport
// assigned none.
func (s *Suppressor) Record(to, text, id string) {
	s.recordAt(to, text, id, time.Now())
}

func (s *Suppressor) recordAt(to, text, id string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, Record{To: to, Text: text, ID: id, SentAt: now})
	if len(s.records) > maxRecords {
		s.records = s.records[len(s.records)-maxRecords:]
	}
}

// Prune drops records older than the window. Runs before every read.
func (s *Suppressor) Prune(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
}

func (s *Suppressor) pruneLocked(now time.Time) {
	cutoff := now.Add(-Window)
	keep := s.records[:0]
	for _, r := range s.records {
		if r.SentAt.After(cutoff) {
			keep = append(keep, r)
		}
	}
	s.records = keep
}

// IsEcho reports whether an inbound event matches a recent outbound record for
// the same destination, either by transport-assigned id (checked first, when
// both sides carry one) or by exact text. The text match covers transports
// that assign no send id.
func (s *Suppressor) IsEcho(remoteID, to, content string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
	for _, r := range s.records {
		if r.To != to {
			continue
		}
		if remoteID != "" && r.ID != "" && r.ID == remoteID {
			return true
		}
		if r.Text == content {
			return true
		}
	}
	return false
}

// Len reports the current record count. Used by tests and health reporting.
func (s *Suppressor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

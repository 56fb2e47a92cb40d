// Package filter holds the interactive alert filter: a free-text needle and a
// set of active severity codes. The visible subset is always recomputed from
// the full collection, never patched incrementally.
package filter

import (
	"sort"
	"strings"
	"sync"

	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/severity"
)

// TimelinePreview is how many events the collapsed timeline shows.
const TimelinePreview = 4

// Criteria is an immutable copy of the filter state.
type Criteria struct {
	ActiveSeverities []int  `json:"activeSeverities"`
	Text             string `json:"text"`
}

// State is the mutable filter of one view. It is safe for concurrent use.
type State struct {
	mu     sync.RWMutex
	active map[int]struct{}
	text   string
}

// NewState returns a filter with every known severity active and no text.
func NewState() *State {
	s := &State{}
	s.SetActiveSeverities(severity.Codes)
	return s
}

// SetActiveSeverities replaces the active set. An empty set hides everything.
func (s *State) SetActiveSeverities(codes []int) {
	active := make(map[int]struct{}, len(codes))
	for _, c := range codes {
		active[c] = struct{}{}
	}
	s.mu.Lock()
	s.active = active
	s.mu.Unlock()
}

// Toggle flips one severity and reports whether it is now active.
func (s *State) Toggle(code int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		s.active = map[int]struct{}{}
	}
	if _, ok := s.active[code]; ok {
		delete(s.active, code)
		return false
	}
	s.active[code] = struct{}{}
	return true
}

// SetTextFilter sets the case-insensitive substring needle.
func (s *State) SetTextFilter(text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
}

// Text returns the current needle.
func (s *State) Text() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.text
}

// ActiveSeverities returns the active codes, most severe first.
func (s *State) ActiveSeverities() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedCodes(s.active)
}

// Criteria snapshots the state.
func (s *State) Criteria() Criteria {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Criteria{ActiveSeverities: sortedCodes(s.active), Text: s.text}
}

// Visible projects alerts through the current state.
func (s *State) Visible(alerts []model.Alert) []model.Alert {
	return Apply(alerts, s.Criteria())
}

// Apply returns {a in alerts : a.Severity in active and a matches text}, in input order.
func Apply(alerts []model.Alert, c Criteria) []model.Alert {
	out := []model.Alert{}
	if len(c.ActiveSeverities) == 0 {
		return out
	}
	active := make(map[int]struct{}, len(c.ActiveSeverities))
	for _, code := range c.ActiveSeverities {
		active[code] = struct{}{}
	}
	needle := strings.ToLower(strings.TrimSpace(c.Text))
	for _, a := range alerts {
		if _, ok := active[a.Severity]; !ok {
			continue
		}
		if !MatchesText(a, needle) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// MatchesText reports whether the lower-cased needle occurs in the alert
// description or one of its host names. An empty needle matches everything.
func MatchesText(a model.Alert, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(a.Description), needle) {
		return true
	}
	for _, h := range a.Hosts {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// FilterEvents applies the text needle to the event timeline.
func FilterEvents(events []model.EventLogEntry, text string) []model.EventLogEntry {
	out := []model.EventLogEntry{}
	needle := strings.ToLower(strings.TrimSpace(text))
	for _, e := range events {
		if needle == "" ||
			strings.Contains(strings.ToLower(e.Description), needle) ||
			strings.Contains(strings.ToLower(e.Host), needle) {
			out = append(out, e)
		}
	}
	return out
}

// Timeline returns the events to display and how many are hidden.
func Timeline(events []model.EventLogEntry, expanded bool) ([]model.EventLogEntry, int) {
	if expanded || len(events) <= TimelinePreview {
		return events, 0
	}
	return events[:TimelinePreview], len(events) - TimelinePreview
}

func sortedCodes(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

package model

import (
	"fmt"
	"strings"
	"time"
)

// Period is the time window token accepted by the backend history endpoints.
type Period string

const (
	Period24h Period = "24h"
	Period7d  Period = "7d"
	Period30d Period = "30d"
)

// ParsePeriod validates a period token. An empty token defaults to 24h.
func ParsePeriod(s string) (Period, error) {
	switch Period(strings.TrimSpace(s)) {
	case "", Period24h:
		return Period24h, nil
	case Period7d:
		return Period7d, nil
	case Period30d:
		return Period30d, nil
	default:
		return "", fmt.Errorf("invalid period %q, want 24h|7d|30d", s)
	}
}

// Duration returns the window length of the period.
func (p Period) Duration() time.Duration {
	switch p {
	case Period7d:
		return 7 * 24 * time.Hour
	case Period30d:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Label is the human readable period name used in prompts.
func (p Period) Label() string {
	switch p {
	case Period7d:
		return "last 7 days"
	case Period30d:
		return "last 30 days"
	default:
		return "last 24 hours"
	}
}

// Scope parameterizes what a view polls for: a company, an optional host and
// an optional time window (period token or explicit from/till).
type Scope struct {
	CompanyID string `json:"companyId"`
	HostID    string `json:"hostId,omitempty"`
	Period    Period `json:"period,omitempty"`
	From      int64  `json:"from,omitempty"`
	Till      int64  `json:"till,omitempty"`
}

// IsZero reports whether the scope selects nothing. A scope without a company
// never starts polling.
func (s Scope) IsZero() bool { return strings.TrimSpace(s.CompanyID) == "" }

// Key returns a stable identity for the scope.
func (s Scope) Key() string {
	if s.IsZero() {
		return ""
	}
	var b strings.Builder
	b.WriteString("company:")
	b.WriteString(s.CompanyID)
	if s.HostID != "" {
		b.WriteString("/host:")
		b.WriteString(s.HostID)
	}
	if s.From > 0 || s.Till > 0 {
		fmt.Fprintf(&b, "/range:%d-%d", s.From, s.Till)
	} else if s.Period != "" {
		b.WriteString("/period:")
		b.WriteString(string(s.Period))
	}
	return b.String()
}

// Range resolves the scope window to unix seconds. Explicit bounds win over the period.
func (s Scope) Range(now time.Time) (from, till int64) {
	till = s.Till
	if till <= 0 {
		till = now.Unix()
	}
	from = s.From
	if from <= 0 {
		p := s.Period
		if p == "" {
			p = Period24h
		}
		from = till - int64(p.Duration()/time.Second)
	}
	return from, till
}

// WithHost returns a copy of the scope narrowed to a host.
func (s Scope) WithHost(hostID string) Scope {
	s.HostID = hostID
	return s
}

// Company returns a copy of the scope without host selection.
func (s Scope) Company() Scope {
	s.HostID = ""
	return s
}

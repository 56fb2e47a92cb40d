package model

import (
	"encoding/json"
	"strings"
)

// EventStatus is the lifecycle state of an event-log entry. There is no third state.
type EventStatus string

const (
	StatusProblem  EventStatus = "PROBLEM"
	StatusResolved EventStatus = "RESOLVED"
)

// ParseEventStatus maps backend spellings onto the two lifecycle states.
// Only an explicit problem marker yields StatusProblem.
func ParseEventStatus(s string) EventStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PROBLEM", "PROBLEMA", "1":
		return StatusProblem
	default:
		return StatusResolved
	}
}

// EventLogEntry is one row of the event timeline. Time is pre-formatted upstream.
type EventLogEntry struct {
	ID          string      `json:"id"`
	Time        string      `json:"time"`
	Description string      `json:"description"`
	Severity    int         `json:"severity"`
	Host        string      `json:"host"`
	Status      EventStatus `json:"status"`
}

// UnmarshalJSON accepts the backend shape ({"eventid","priority","status":"PROBLEMA"})
// as well as the shape this package marshals to.
func (e *EventLogEntry) UnmarshalJSON(data []byte) error {
	type rawEvent struct {
		ID          interface{} `json:"id"`
		EventID     interface{} `json:"eventid"`
		Time        string      `json:"time"`
		Description string      `json:"description"`
		Severity    interface{} `json:"severity"`
		Priority    interface{} `json:"priority"`
		Host        string      `json:"host"`
		Status      string      `json:"status"`
	}
	var r rawEvent
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	e.ID = firstNonEmpty(flexibleString(r.ID), flexibleString(r.EventID))
	e.Time = r.Time
	e.Description = r.Description
	e.Severity = SeverityUnknown
	if r.Severity != nil {
		e.Severity = ParseSeverity(r.Severity)
	} else if r.Priority != nil {
		e.Severity = ParseSeverity(r.Priority)
	}
	e.Host = r.Host
	e.Status = ParseEventStatus(r.Status)
	return nil
}

// Consumer is a host ranked by resource usage.
type Consumer struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// TopConsumers holds the top CPU and memory consumers of a company.
type TopConsumers struct {
	CPU    []Consumer `json:"top_cpu"`
	Memory []Consumer `json:"top_memory"`
}

package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// SeverityUnknown marks a priority that could not be parsed.
const SeverityUnknown = -1

// Alert is a Zabbix trigger that is firing or recently changed state.
type Alert struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Severity    int      `json:"severity"`
	Hosts       []string `json:"hosts"`
	LastChange  int64    `json:"lastChange"` // unix seconds
	Resolved    bool     `json:"resolved,omitempty"`
}

// HostName returns the first associated host or an empty string.
func (a Alert) HostName() string {
	if len(a.Hosts) == 0 {
		return ""
	}
	return a.Hosts[0]
}

// LastChangeTime converts LastChange to a time.Time in UTC.
func (a Alert) LastChangeTime() time.Time {
	return time.Unix(a.LastChange, 0).UTC()
}

// UnmarshalJSON accepts both the backend trigger shape
// ({"triggerid","priority":"5","hosts":[{"name":..}],"lastchange":"1700000000","value":"1"})
// and the shape this package marshals to.
func (a *Alert) UnmarshalJSON(data []byte) error {
	type rawAlert struct {
		ID          interface{}     `json:"id"`
		TriggerID   interface{}     `json:"triggerid"`
		Description string          `json:"description"`
		Severity    interface{}     `json:"severity"`
		Priority    interface{}     `json:"priority"`
		Hosts       json.RawMessage `json:"hosts"`
		LastChange  interface{}     `json:"lastChange"`
		Lastchange  interface{}     `json:"lastchange"`
		Resolved    *bool           `json:"resolved"`
		Value       interface{}     `json:"value"`
	}
	var r rawAlert
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	a.ID = firstNonEmpty(flexibleString(r.ID), flexibleString(r.TriggerID))
	a.Description = r.Description
	a.Severity = SeverityUnknown
	if r.Severity != nil {
		a.Severity = ParseSeverity(r.Severity)
	} else if r.Priority != nil {
		a.Severity = ParseSeverity(r.Priority)
	}
	a.Hosts = parseHosts(r.Hosts)
	if r.LastChange != nil {
		a.LastChange = flexibleInt(r.LastChange)
	} else {
		a.LastChange = flexibleInt(r.Lastchange)
	}
	switch {
	case r.Resolved != nil:
		a.Resolved = *r.Resolved
	case r.Value != nil:
		// trigger value: 1 = problem, 0 = ok
		a.Resolved = flexibleString(r.Value) == "0"
	default:
		a.Resolved = false
	}
	return nil
}

// ParseSeverity reads a Zabbix priority delivered as a number or a numeric string.
// Anything unparsable yields SeverityUnknown.
func ParseSeverity(v interface{}) int {
	switch t := v.(type) {
	case float64:
		if t != float64(int(t)) {
			return SeverityUnknown
		}
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return SeverityUnknown
		}
		return int(n)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return SeverityUnknown
		}
		return n
	default:
		return SeverityUnknown
	}
}

// parseHosts supports ["a","b"] and [{"name":"a"},{"name":"b"}].
func parseHosts(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	var names []string
	if json.Unmarshal(raw, &names) == nil {
		for _, n := range names {
			if n != "" {
				out = append(out, n)
			}
		}
		return out
	}
	var objs []struct {
		Name string `json:"name"`
	}
	if json.Unmarshal(raw, &objs) == nil {
		for _, o := range objs {
			if o.Name != "" {
				out = append(out, o.Name)
			}
		}
	}
	return out
}

func flexibleString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func flexibleInt(v interface{}) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return int64(f)
		}
		return 0
	default:
		return 0
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

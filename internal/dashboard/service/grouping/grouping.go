// Package grouping partitions alerts into the four severity display buckets.
package grouping

import (
	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/severity"
)

// Buckets is a partition of a collection of alerts. Every alert of the input
// is in exactly one bucket, in input order. Buckets are rebuilt on every refresh.
type Buckets struct {
	Critical []model.Alert `json:"critical"`
	Warning  []model.Alert `json:"warning"`
	Info     []model.Alert `json:"info"`
	OK       []model.Alert `json:"ok"`
}

// Counts is the number of alerts per bucket.
type Counts struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
	OK       int `json:"ok"`
}

// Group assigns each alert to its bucket. Resolved triggers go to OK whatever
// their priority; unknown priorities go to OK as well. Duplicates pass through.
func Group(alerts []model.Alert) Buckets {
	b := Buckets{
		Critical: []model.Alert{},
		Warning:  []model.Alert{},
		Info:     []model.Alert{},
		OK:       []model.Alert{},
	}
	for _, a := range alerts {
		switch BucketOf(a) {
		case severity.BucketCritical:
			b.Critical = append(b.Critical, a)
		case severity.BucketWarning:
			b.Warning = append(b.Warning, a)
		case severity.BucketInfo:
			b.Info = append(b.Info, a)
		default:
			b.OK = append(b.OK, a)
		}
	}
	return b
}

// BucketOf returns the bucket a single alert belongs to.
func BucketOf(a model.Alert) severity.Bucket {
	if a.Resolved {
		return severity.BucketOK
	}
	return severity.BucketOf(severity.Classify(a.Severity).Tier)
}

// Len is the total number of alerts across buckets.
func (b Buckets) Len() int {
	return len(b.Critical) + len(b.Warning) + len(b.Info) + len(b.OK)
}

// Counts returns the per-bucket sizes.
func (b Buckets) Counts() Counts {
	return Counts{
		Critical: len(b.Critical),
		Warning:  len(b.Warning),
		Info:     len(b.Info),
		OK:       len(b.OK),
	}
}

// Get returns the alerts of one bucket.
func (b Buckets) Get(name severity.Bucket) []model.Alert {
	switch name {
	case severity.BucketCritical:
		return b.Critical
	case severity.BucketWarning:
		return b.Warning
	case severity.BucketInfo:
		return b.Info
	case severity.BucketOK:
		return b.OK
	default:
		return nil
	}
}

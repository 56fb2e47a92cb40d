// Package severity maps Zabbix priority codes and event states to display categories.
package severity

import "github.com/qiniu/zabbixboard/internal/dashboard/model"

// Zabbix priority codes.
const (
	NotClassified = 0
	Information   = 1
	Warning       = 2
	Average       = 3
	High          = 4
	Disaster      = 5
)

// Codes lists every known priority, most severe first.
var Codes = []int{Disaster, High, Average, Warning, Information, NotClassified}

// Tier is the coarse severity category of a priority code.
type Tier string

const (
	TierCritical     Tier = "critical"
	TierHigh         Tier = "high"
	TierWarning      Tier = "warning"
	TierInfo         Tier = "info"
	TierUnclassified Tier = "unclassified"
)

// Bucket is one of the four display groups.
type Bucket string

const (
	BucketCritical Bucket = "critical"
	BucketWarning  Bucket = "warning"
	BucketInfo     Bucket = "info"
	BucketOK       Bucket = "ok"
)

// Classification is the display category of a priority code.
type Classification struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
	Tier  Tier   `json:"tier"`
	Color string `json:"color"`
}

var table = map[int]Classification{
	Disaster:      {Code: Disaster, Label: "Disaster", Tier: TierCritical, Color: "purple"},
	High:          {Code: High, Label: "High", Tier: TierHigh, Color: "red"},
	Average:       {Code: Average, Label: "Average", Tier: TierWarning, Color: "orange"},
	Warning:       {Code: Warning, Label: "Warning", Tier: TierWarning, Color: "yellow"},
	Information:   {Code: Information, Label: "Information", Tier: TierInfo, Color: "blue"},
	NotClassified: {Code: NotClassified, Label: "Not classified", Tier: TierInfo, Color: "gray"},
}

// Classify never fails: codes outside 0..5 fall into TierUnclassified.
func Classify(code int) Classification {
	if c, ok := table[code]; ok {
		return c
	}
	return Classification{Code: code, Label: "Unknown", Tier: TierUnclassified, Color: "gray"}
}

// Known reports whether code is a valid Zabbix priority.
func Known(code int) bool {
	_, ok := table[code]
	return ok
}

// BucketOf maps a tier onto its display bucket.
func BucketOf(t Tier) Bucket {
	switch t {
	case TierCritical, TierHigh:
		return BucketCritical
	case TierWarning:
		return BucketWarning
	case TierInfo:
		return BucketInfo
	default:
		return BucketOK
	}
}

// DisplayProps is the visual treatment of an event status.
type DisplayProps struct {
	Icon         string `json:"icon"`
	BgColor      string `json:"bgColor"`
	IconColor    string `json:"iconColor"`
	TagBgColor   string `json:"tagBgColor"`
	TagTextColor string `json:"tagTextColor"`
	Text         string `json:"text"`
}

// ClassifyStatus returns the display props for a PROBLEM/RESOLVED event.
func ClassifyStatus(status model.EventStatus) DisplayProps {
	if status == model.StatusProblem {
		return DisplayProps{
			Icon:         "alert-triangle",
			BgColor:      "red-100",
			IconColor:    "red-600",
			TagBgColor:   "yellow-500",
			TagTextColor: "white",
			Text:         string(model.StatusProblem),
		}
	}
	return DisplayProps{
		Icon:         "check-circle",
		BgColor:      "green-100",
		IconColor:    "green-600",
		TagBgColor:   "blue-500",
		TagTextColor: "white",
		Text:         string(model.StatusResolved),
	}
}

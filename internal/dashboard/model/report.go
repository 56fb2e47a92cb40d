package model

import (
	"encoding/json"
	"fmt"
)

// ReportRequest asks the backend for an AI-written report about one host.
type ReportRequest struct {
	HostID    string `json:"host_id"`
	CompanyID int    `json:"empresa_id"`
	UserQuery string `json:"user_query"`
	Period    Period `json:"period"`
}

// Report is the generated report plus the data it was written from.
// Content is displayed as is.
type Report struct {
	Content     string                 `json:"report_content"`
	HostInfo    map[string]interface{} `json:"host_info"`
	Metrics     map[string]interface{} `json:"metrics"`
	Triggers    map[string]interface{} `json:"triggers"`
	GeneratedAt string                 `json:"generated_at"`
}

// TrendPoint is one hour of the company's average cpu and memory usage.
type TrendPoint struct {
	Time      string     `json:"time"`
	CPU       float64    `json:"cpu"`
	Memory    float64    `json:"memory"`
	TopCPU    []Consumer `json:"top_cpu"`
	TopMemory []Consumer `json:"top_memory"`
}

// InventoryHost is a host of the company inventory.
type InventoryHost struct {
	ID             string            `json:"hostid"`
	Host           string            `json:"host"`
	Name           string            `json:"name"`
	Status         string            `json:"status"`
	Available      string            `json:"available"`
	Groups         []string          `json:"groups"`
	Templates      []string          `json:"templates"`
	Tags           []string          `json:"tags"`
	ItemCount      int64             `json:"item_count"`
	ActiveProblems int64             `json:"active_problems"`
	Inventory      map[string]string `json:"inventory"`
}

// UnmarshalJSON accepts counts as numbers or numeric strings and an empty
// inventory sent as [].
func (h *InventoryHost) UnmarshalJSON(data []byte) error {
	var r struct {
		ID             interface{}     `json:"hostid"`
		Host           string          `json:"host"`
		Name           string          `json:"name"`
		Status         interface{}     `json:"status"`
		Available      interface{}     `json:"available"`
		Groups         []string        `json:"groups"`
		Templates      []string        `json:"templates"`
		Tags           []string        `json:"tags"`
		ItemCount      interface{}     `json:"item_count"`
		ActiveProblems interface{}     `json:"active_problems"`
		Inventory      json.RawMessage `json:"inventory"`
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	h.ID = flexibleString(r.ID)
	h.Host = r.Host
	h.Name = r.Name
	h.Status = flexibleString(r.Status)
	h.Available = flexibleString(r.Available)
	h.Groups = nonNilStrings(r.Groups)
	h.Templates = nonNilStrings(r.Templates)
	h.Tags = nonNilStrings(r.Tags)
	h.ItemCount = flexibleInt(r.ItemCount)
	h.ActiveProblems = flexibleInt(r.ActiveProblems)
	h.Inventory = map[string]string{}
	var fields map[string]interface{}
	if len(r.Inventory) > 0 && json.Unmarshal(r.Inventory, &fields) == nil {
		for k, v := range fields {
			if v == nil {
				continue
			}
			if s := fmt.Sprint(v); s != "" {
				h.Inventory[k] = s
			}
		}
	}
	return nil
}

// ProfileUpdate changes the caller's own profile. Nil fields are left as is.
type ProfileUpdate struct {
	Name       *string `json:"nome,omitempty"`
	Phone      *string `json:"telefone,omitempty"`
	Title      *string `json:"cargo,omitempty"`
	AILanguage *string `json:"idioma_ia,omitempty"`
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

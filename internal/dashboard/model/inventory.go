package model

// Company is a tenant registered with Zabbix credentials.
type Company struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
}

// CompanyCreate is the payload for registering a company.
type CompanyCreate struct {
	Name        string `json:"nome"`
	ZabbixURL   string `json:"url_zabbix"`
	ZabbixToken string `json:"token_zabbix"`
}

// Host is a Zabbix host of a company.
type Host struct {
	ID   string `json:"hostid"`
	Name string `json:"name"`
}

// KeyMetric is one of the fast-moving host gauges (cpu, memory, disk_*, network_*).
type KeyMetric struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Partition string `json:"partition,omitempty"`
	Label     string `json:"label,omitempty"`
}

// SystemInfo describes a host's identity and operating system.
type SystemInfo struct {
	Host struct {
		Name string `json:"name,omitempty"`
		IP   string `json:"ip,omitempty"`
		DNS  string `json:"dns,omitempty"`
	} `json:"host"`
	System struct {
		OS       string `json:"os,omitempty"`
		Arch     string `json:"arch,omitempty"`
		CPUCores string `json:"cpu_cores,omitempty"`
		Uptime   string `json:"uptime,omitempty"`
	} `json:"system"`
}

// GroupedTriggers is the shape of the backend host-trigger endpoint.
type GroupedTriggers struct {
	Critical []Alert `json:"critical"`
	Warning  []Alert `json:"warning"`
	Info     []Alert `json:"info"`
	OK       []Alert `json:"ok"`
}

// Flatten returns every trigger in backend order; triggers of the ok group are
// marked resolved so regrouping keeps them there.
func (g GroupedTriggers) Flatten() []Alert {
	out := make([]Alert, 0, len(g.Critical)+len(g.Warning)+len(g.Info)+len(g.OK))
	out = append(out, g.Critical...)
	out = append(out, g.Warning...)
	out = append(out, g.Info...)
	for _, a := range g.OK {
		a.Resolved = true
		out = append(out, a)
	}
	return out
}

// User is an account of the backend.
type User struct {
	ID         int       `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"nome,omitempty"`
	Role       string    `json:"role"`
	Phone      string    `json:"telefone,omitempty"`
	Title      string    `json:"cargo,omitempty"`
	AILanguage string    `json:"idioma_ia,omitempty"`
	Companies  []Company `json:"empresas,omitempty"`
}

// ChatRequest is sent to the opaque AI endpoint.
type ChatRequest struct {
	Question  string `json:"question"`
	CompanyID int    `json:"empresa_id"`
}

// ChatResponse carries the AI text; it is displayed, never parsed.
type ChatResponse struct {
	Response string `json:"response"`
}

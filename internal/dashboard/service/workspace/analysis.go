package workspace

import (
	"fmt"
	"strings"

	"github.com/qiniu/zabbixboard/internal/dashboard/model"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/severity"
)

// analysisAlertLimit bounds how many alerts are summarized in a prompt.
const analysisAlertLimit = 10

// Analysis is the AI panel of the dashboard.
type Analysis struct {
	Loading  bool               `json:"loading"`
	Subject  string             `json:"subject,omitempty"`
	Response string             `json:"response,omitempty"`
	Error    *model.ErrorDetail `json:"error,omitempty"`
}

// DashboardPrompt asks for a health assessment of the selected company.
func DashboardPrompt(period model.Period, hostCount int, alerts []model.Alert) string {
	if len(alerts) > analysisAlertLimit {
		alerts = alerts[:analysisAlertLimit]
	}
	var summary strings.Builder
	for _, a := range alerts {
		host := a.HostName()
		if host == "" {
			host = "N/A"
		}
		fmt.Fprintf(&summary, "- %s (Host: %s)\n", a.Description, host)
	}
	if summary.Len() == 0 {
		summary.WriteString("No problems found.\n")
	}

	var b strings.Builder
	b.WriteString("As a senior SRE, give an in-depth analysis of the health of this Zabbix environment. Be technical, precise and proactive.\n\n")
	b.WriteString("AVAILABLE DATA:\n")
	fmt.Fprintf(&b, "- Period: %s\n", period.Label())
	fmt.Fprintf(&b, "- Monitored hosts: %d\n", hostCount)
	b.WriteString("- Current and recent problems:\n")
	b.WriteString(summary.String())
	b.WriteString("\nSTRUCTURE:\n")
	b.WriteString("1. Overall diagnosis: stable, under observation or requires attention, based on the problems found.\n")
	b.WriteString("2. Points of attention: the most worrying risks. With no problems, say whether triggers may be too permissive.\n")
	b.WriteString("3. Recommendations: clear and practical actions to fix the problems or improve monitoring.\n")
	return b.String()
}

// AlertPrompt asks for causes and an action plan for one alert.
func AlertPrompt(a model.Alert) string {
	host := a.HostName()
	if host == "" {
		host = "N/A"
	}
	return fmt.Sprintf("As an SRE, analyze the following alert:\n- Host: %s\n- Alert: %s\n- Severity: %s\nGive possible causes and an action plan.",
		host, a.Description, severity.Classify(a.Severity).Label)
}

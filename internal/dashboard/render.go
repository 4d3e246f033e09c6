package dashboard

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosuri/uitable"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/registry"
)

const (
	maxColWidth = 40
	timeLayout  = "2006-01-02 15:04:05"

	alertText = "Garbage bin is overflowing! Fill level has exceeded 80%. Please schedule a pickup immediately."
)

// Render writes s as a status card, an optional overflow alert, the
// reading history and the registry.
func Render(w io.Writer, s Snapshot) error {
	var b strings.Builder

	fmt.Fprintf(&b, "SmartWaste  |  last updated %s\n\n", s.FetchedAt.Local().Format(time.TimeOnly))

	if s.Alert() {
		fmt.Fprintf(&b, "!! CRITICAL ALERT: %s\n\n", alertText)
	}

	b.WriteString(statusCard(s.Status))
	b.WriteString("\nHistory\n")
	b.WriteString(historyTable(s))
	b.WriteString("\nRegistry\n")
	b.WriteString(registryTable(s.Devices))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func statusCard(st BinStatus) string {
	t := uitable.New()
	t.MaxColWidth = maxColWidth
	t.AddRow("Device:", st.DeviceID)
	t.AddRow("Fill:", fmt.Sprintf("%.1f%% %s", st.FillPercentage, gauge(st.FillPercentage)))
	t.AddRow("Status:", st.Status)
	if st.HasData() {
		t.AddRow("Reported:", st.CreatedAt.Local().Format(timeLayout))
	} else {
		t.AddRow("Reported:", st.Message)
	}
	return t.String() + "\n"
}

func historyTable(s Snapshot) string {
	if len(s.History) == 0 {
		return "  (no readings)\n"
	}
	t := uitable.New()
	t.MaxColWidth = maxColWidth
	t.AddRow("TIME", "DEVICE", "FILL", "STATUS")
	for _, r := range s.History {
		t.AddRow(r.CreatedAt.Local().Format(timeLayout), r.DeviceID, fmt.Sprintf("%.1f%%", r.FillPercentage), r.Status)
	}
	return t.String() + "\n"
}

// RenderRegistry writes the registry as a table.
func RenderRegistry(w io.Writer, entries []registry.Entry) error {
	_, err := io.WriteString(w, registryTable(entries))
	return err
}

func registryTable(entries []registry.Entry) string {
	if len(entries) == 0 {
		return "  (no devices)\n"
	}
	t := uitable.New()
	t.MaxColWidth = maxColWidth
	t.AddRow("ID", "DEVICE", "NAME", "DETAILS", "REGISTERED")
	for _, e := range entries {
		registered := "yes"
		if e.IsUnregistered {
			registered = "no"
		}
		t.AddRow(e.ID, e.DeviceID, e.Name, e.Details, registered)
	}
	return t.String() + "\n"
}

// gauge draws a ten-cell bar, capped at full for readings over 100%.
func gauge(fill float64) string {
	cells := int(fill / 10)
	cells = max(0, min(cells, 10))
	return "[" + strings.Repeat("#", cells) + strings.Repeat(".", 10-cells) + "]"
}

// Package report writes the analytic reports as terminal tables or JSON and packs them
// into the compressed snapshot kept in the run log.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const nullCell = "-"

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorBorder  = lipgloss.Color("#16858E")
	colorWarning = lipgloss.Color("#F4D03F")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).MarginTop(1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	numberStyle  = cellStyle.Align(lipgloss.Right)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
)

// Write renders r in the given format ("text" or "json").
func Write(w io.Writer, r *models.Reports, format string) error {
	switch format {
	case "json":
		return WriteJSON(w, r)
	case "text", "":
		return WriteText(w, r)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteJSON encodes r as indented JSON.
func WriteJSON(w io.Writer, r *models.Reports) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText renders the four reports as tables followed by the orphan warnings.
func WriteText(w io.Writer, r *models.Reports) error {
	var b strings.Builder

	section(&b, "Customer loyalty", loyaltyTable(r.Loyalty), len(r.Loyalty))
	section(&b, "Monthly performance", monthlyTable(r.Monthly), len(r.Monthly))
	section(&b, "Regional performance", regionalTable(r.Regional), len(r.Regional))

	recentTitle := fmt.Sprintf("Recent customer value (%d days", r.Recent.WindowDays)
	if r.Recent.From != "" {
		recentTitle += fmt.Sprintf(", %s to %s", r.Recent.From, r.Recent.To)
	}
	recentTitle += ")"
	section(&b, recentTitle, recentTable(r.Recent.Rows), len(r.Recent.Rows))

	b.WriteString(titleStyle.Render(fmt.Sprintf("Warnings (%d)", len(r.Warnings))))
	b.WriteString("\n")
	if len(r.Warnings) == 0 {
		b.WriteString(mutedStyle.Render("none"))
		b.WriteString("\n")
	}
	for _, warn := range r.Warnings {
		b.WriteString(warningStyle.Render("! " + warn.String()))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, title string, t *table.Table, rows int) {
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	if rows == 0 {
		b.WriteString(mutedStyle.Render("no data"))
		b.WriteString("\n")
		return
	}
	b.WriteString(t.String())
	b.WriteString("\n")
}

// newTable builds a bordered table; numeric columns are right aligned.
func newTable(headers []string, numeric map[int]bool) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if numeric[col] {
				return numberStyle
			}
			return cellStyle
		})
}

func loyaltyTable(rows []models.LoyaltyRow) *table.Table {
	t := newTable([]string{"#", "Customer", "Name", "Orders", "Last order", "Total spend"},
		map[int]bool{0: true, 3: true, 5: true})
	for _, r := range rows {
		t.Row(itoa(r.Rank), r.CustomerID, r.Name, itoa(r.OrderCount), r.LastOrderDate, r.TotalSpend.String())
	}
	return t
}

func monthlyTable(rows []models.MonthlyRow) *table.Table {
	t := newTable([]string{"Month", "Orders", "Customers", "Revenue", "Change", "Change %"},
		map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true})
	for _, r := range rows {
		change, pct := nullCell, nullCell
		if r.Change != nil {
			change = r.Change.String()
		}
		if r.ChangePct != nil {
			pct = r.ChangePct.StringFixed(2) + "%"
		}
		t.Row(r.Month, itoa(r.OrderCount), itoa(r.CustomerCount), r.Revenue.String(), change, pct)
	}
	return t
}

func regionalTable(rows []models.RegionRow) *table.Table {
	t := newTable([]string{"#", "Region", "Orders", "Customers", "Revenue", "Avg order"},
		map[int]bool{0: true, 2: true, 3: true, 4: true, 5: true})
	for _, r := range rows {
		t.Row(itoa(r.Rank), r.Region, itoa(r.OrderCount), itoa(r.CustomerCount),
			r.Revenue.String(), r.AvgOrderValue.String())
	}
	return t
}

func recentTable(rows []models.RecentRow) *table.Table {
	t := newTable([]string{"#", "Customer", "Name", "Region", "Orders", "Total spend"},
		map[int]bool{0: true, 4: true, 5: true})
	for _, r := range rows {
		t.Row(itoa(r.Rank), r.CustomerID, r.Name, r.Region, itoa(r.OrderCount), r.TotalSpend.String())
	}
	return t
}

func itoa(n int) string { return strconv.Itoa(n) }

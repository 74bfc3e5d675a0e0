// Package dashboard holds the admin views over the order collection:
// search and status filtering, summary statistics and report generation.
// All functions are pure over an order slice; the collection store stays
// the single owner of the data.
package dashboard

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"tailor-orders/internal/errs"
	"tailor-orders/internal/models"
)

// StatusAll disables status filtering.
const StatusAll = "all"

// Filter returns the orders matching a case-insensitive substring query
// over name, phone, id and address, narrowed by status. An empty query
// matches everything.
func Filter(orders []models.Order, query, statusFilter string) []models.Order {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if statusFilter != "" && statusFilter != StatusAll && string(o.Status) != statusFilter {
			continue
		}
		if query != "" && !matchesQuery(o, query) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func matchesQuery(o models.Order, query string) bool {
	for _, field := range []string{o.CustomerName, o.PhoneNumber, o.ID, o.Address} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Stats is the dashboard summary card data.
type Stats struct {
	TotalOrders      int
	PendingOrders    int
	InProgressOrders int
	CompletedOrders  int
	TotalCustomers   int
	TotalRevenue     float64
}

// ComputeStats tallies the collection. Customers are distinct phone
// numbers; revenue is the sum of order totals.
func ComputeStats(orders []models.Order) Stats {
	stats := Stats{TotalOrders: len(orders)}
	customers := make(map[string]struct{})
	for _, o := range orders {
		switch o.Status {
		case models.StatusPending:
			stats.PendingOrders++
		case models.StatusInProgress:
			stats.InProgressOrders++
		case models.StatusCompleted:
			stats.CompletedOrders++
		}
		if o.PhoneNumber != "" {
			customers[o.PhoneNumber] = struct{}{}
		}
		stats.TotalRevenue += o.TotalAmount
	}
	stats.TotalCustomers = len(customers)
	return stats
}

// RecentOrders returns up to n orders, newest first. The input is not
// mutated.
func RecentOrders(orders []models.Order, n int) []models.Order {
	sorted := append([]models.Order(nil), orders...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// DateRange selects the report window relative to the generation time.
type DateRange string

const (
	RangeAll   DateRange = "all"
	RangeToday DateRange = "today"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
)

// ReportFilters narrows a report. Status uses the same semantics as
// Filter; IncludeDetails adds measurements and notes columns.
type ReportFilters struct {
	DateRange      DateRange
	Status         string
	IncludeDetails bool
}

// FilterForReport applies the report window and status filter. The window
// is inclusive of its start: today means since local midnight, week the
// last 7 days, month the last 30.
func FilterForReport(orders []models.Order, filters ReportFilters, now time.Time) []models.Order {
	var cutoff time.Time
	switch filters.DateRange {
	case RangeToday:
		cutoff = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case RangeWeek:
		cutoff = now.AddDate(0, 0, -7)
	case RangeMonth:
		cutoff = now.AddDate(0, 0, -30)
	}

	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if !cutoff.IsZero() && o.CreatedAt.Before(cutoff) {
			continue
		}
		if filters.Status != "" && filters.Status != StatusAll && string(o.Status) != filters.Status {
			continue
		}
		out = append(out, o)
	}
	return out
}

// WriteCSV renders the report rows. Detail columns are appended only when
// requested.
func WriteCSV(w io.Writer, orders []models.Order, includeDetails bool) error {
	cw := csv.NewWriter(w)

	header := []string{"Order ID", "Customer", "Phone", "Address", "Status", "Total", "Delivery Date", "Created"}
	if includeDetails {
		header = append(header, "Measurements", "Special Notes")
	}
	if err := cw.Write(header); err != nil {
		return errs.Wrap(errs.KindUnknown, "failed to write report header", err)
	}

	for _, o := range orders {
		row := []string{
			o.ID,
			o.CustomerName,
			o.PhoneNumber,
			o.Address,
			string(o.Status),
			strconv.FormatFloat(o.TotalAmount, 'f', 2, 64),
			formatDate(o.DeliveryDate),
			o.CreatedAt.Format("2006-01-02"),
		}
		if includeDetails {
			row = append(row, formatMeasurements(o.Measurements), o.SpecialNotes)
		}
		if err := cw.Write(row); err != nil {
			return errs.Wrap(errs.KindUnknown, "failed to write report row", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// formatMeasurements flattens the non-empty fields into one cell.
func formatMeasurements(m models.MeasurementFields) string {
	pairs := []struct {
		label, value string
	}{
		{"Length", m.Length},
		{"Body", m.Body},
		{"Waist", m.Waist},
		{"Hip", m.Hip},
		{"Leg", m.Leg},
		{"Arm Length", m.ArmLength},
		{"Arm Width", m.ArmWidth},
		{"Bottom Round", m.BottomRound},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value != "" {
			parts = append(parts, p.label+": "+p.value)
		}
	}
	return strings.Join(parts, "; ")
}

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Orders Report</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
h1 { font-size: 1.4rem; }
.meta { color: #555; margin-bottom: 1rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: left; font-size: 0.9rem; }
th { background: #f3f3f3; }
</style>
</head>
<body>
<h1>Orders Report</h1>
<div class="meta">Generated {{.GeneratedAt.Format "2006-01-02 15:04"}} &middot; {{len .Orders}} orders &middot; total {{printf "%.2f" .TotalRevenue}}</div>
<table>
<tr>
<th>Order ID</th><th>Customer</th><th>Phone</th><th>Status</th><th>Total</th><th>Delivery Date</th><th>Created</th>
{{- if .IncludeDetails}}<th>Measurements</th><th>Special Notes</th>{{end}}
</tr>
{{- range .Orders}}
<tr>
<td>{{.ID}}</td>
<td>{{.CustomerName}}</td>
<td>{{.PhoneNumber}}</td>
<td>{{.Status}}</td>
<td>{{printf "%.2f" .TotalAmount}}</td>
<td>{{formatDate .DeliveryDate}}</td>
<td>{{.CreatedAt.Format "2006-01-02"}}</td>
{{- if $.IncludeDetails}}
<td>{{formatMeasurements .Measurements}}</td>
<td>{{.SpecialNotes}}</td>
{{- end}}
</tr>
{{- end}}
</table>
</body>
</html>
`

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"formatDate":         formatDate,
	"formatMeasurements": formatMeasurements,
}).Parse(reportTemplate))

type reportData struct {
	GeneratedAt    time.Time
	Orders         []models.Order
	TotalRevenue   float64
	IncludeDetails bool
}

// WriteHTMLReport renders the printable report page.
func WriteHTMLReport(w io.Writer, orders []models.Order, includeDetails bool, now time.Time) error {
	var revenue float64
	for _, o := range orders {
		revenue += o.TotalAmount
	}
	data := reportData{
		GeneratedAt:    now,
		Orders:         orders,
		TotalRevenue:   revenue,
		IncludeDetails: includeDetails,
	}
	if err := reportTmpl.Execute(w, data); err != nil {
		return errs.Wrap(errs.KindUnknown, "failed to render report", err)
	}
	return nil
}

// ReportFileName builds the suggested download name, e.g.
// orders-report-2026-08-27.csv.
func ReportFileName(ext string, now time.Time) string {
	return fmt.Sprintf("orders-report-%s.%s", now.Format("2006-01-02"), ext)
}

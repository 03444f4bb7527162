package businessflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/dimpinis9/estately/app/dto"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the dashboard workbook
const (
	SheetSummary = "Summary"
	SheetWindow  = "Window"
)

// RenderDashboardWorkbook writes the metrics into a two sheet XLSX workbook:
// one row per figure on Summary and the calendar boundaries on Window.
func RenderDashboardWorkbook(metrics *dto.DashboardMetrics) ([]byte, error) {
	if metrics == nil {
		return nil, fmt.Errorf("render dashboard workbook: nil metrics")
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), SheetSummary); err != nil {
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	if _, err := xl.NewSheet(SheetWindow); err != nil {
		return nil, fmt.Errorf("create window sheet: %w", err)
	}

	header := []any{"section", "metric", "value"}
	if err := xl.SetSheetRow(SheetSummary, "A1", &header); err != nil {
		return nil, err
	}

	for i, row := range summaryRows(metrics) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := xl.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return nil, err
		}
	}

	w := metrics.Window
	windowRows := [][]any{
		{"boundary", "value"},
		{"now", w.Now.Format(time.RFC3339)},
		{"start_of_month", w.StartOfMonth.Format(time.RFC3339)},
		{"start_of_year", w.StartOfYear.Format(time.RFC3339)},
		{"rolling_start", w.RollingStart.Format(time.RFC3339)},
		{"generated_at", metrics.GeneratedAt.UTC().Format(time.RFC3339)},
		{"degraded_sections", strings.Join(metrics.DegradedSections, ",")},
	}
	for i, row := range windowRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := xl.SetSheetRow(SheetWindow, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func summaryRows(m *dto.DashboardMetrics) [][]any {
	return [][]any{
		{dto.SectionLeads, "total", m.Leads.Total},
		{dto.SectionLeads, "new_this_month", m.Leads.NewThisMonth},
		{dto.SectionLeads, "new_last_30_days", m.Leads.NewLast30Days},
		{dto.SectionLeads, "active", m.Leads.Active},
		{dto.SectionLeads, "converted_count", m.Leads.ConvertedCount},
		{dto.SectionLeads, "conversion_rate", m.Leads.ConversionRate},
		{dto.SectionProperties, "total", m.Properties.Total},
		{dto.SectionProperties, "new_this_month", m.Properties.NewThisMonth},
		{dto.SectionProperties, "available", m.Properties.Available},
		{dto.SectionProperties, "pending", m.Properties.Pending},
		{dto.SectionProperties, "sold", m.Properties.Sold},
		{dto.SectionAppointments, "this_month", m.Appointments.ThisMonth},
		{dto.SectionAppointments, "upcoming", m.Appointments.Upcoming},
		{dto.SectionAppointments, "completed_estimate", m.Appointments.CompletedEstimate},
		{dto.SectionAppointments, "completion_rate_estimate", m.Appointments.CompletionRateEstimate},
		{dto.SectionRevenue, "estimated_mtd", m.Revenue.EstimatedMTD},
		{dto.SectionRevenue, "estimated_ytd", m.Revenue.EstimatedYTD},
		{dto.SectionRevenue, "average_deal_value", m.Revenue.AverageDealValue},
	}
}

package dto

import "time"

// MetricsWindow holds the calendar boundaries used for one metrics evaluation
type MetricsWindow struct {
	Now          time.Time `json:"now"`
	StartOfMonth time.Time `json:"start_of_month"`
	StartOfYear  time.Time `json:"start_of_year"`
	RollingStart time.Time `json:"rolling_start"`
}

// LeadMetrics summarises the lead pipeline
type LeadMetrics struct {
	Total          int64   `json:"total"`
	NewThisMonth   int64   `json:"new_this_month"`
	NewLast30Days  int64   `json:"new_last_30_days"`
	Active         int64   `json:"active"`
	ConvertedCount int64   `json:"converted_count"`
	ConversionRate float64 `json:"conversion_rate"`
}

// PropertyMetrics summarises the listing inventory
type PropertyMetrics struct {
	Total        int64 `json:"total"`
	NewThisMonth int64 `json:"new_this_month"`
	Available    int64 `json:"available"`
	Pending      int64 `json:"pending"`
	Sold         int64 `json:"sold"`
}

// AppointmentMetrics summarises the calendar
type AppointmentMetrics struct {
	ThisMonth              int64   `json:"this_month"`
	Upcoming               int64   `json:"upcoming"`
	CompletedEstimate      int64   `json:"completed_estimate"`
	CompletionRateEstimate float64 `json:"completion_rate_estimate"`
}

// RevenueMetrics are proxies derived from closed leads, never booked revenue.
// EstimatedMTD counts closed leads created since the start of the month and
// EstimatedYTD those created since the start of the year, each priced at
// AverageDealValue. Closing dates are not tracked, so a lead closed this month
// but created earlier only shows up in the year figure.
type RevenueMetrics struct {
	EstimatedMTD     float64 `json:"estimated_mtd"`
	EstimatedYTD     float64 `json:"estimated_ytd"`
	AverageDealValue float64 `json:"average_deal_value"`
	IsEstimate       bool    `json:"is_estimate"`
}

// Dashboard section names, used in DegradedSections
const (
	SectionLeads        = "leads"
	SectionProperties   = "properties"
	SectionAppointments = "appointments"
	SectionRevenue      = "revenue"
)

// DashboardMetrics is the full dashboard read model for one owner at one instant
type DashboardMetrics struct {
	OwnerID          uint               `json:"owner_id"`
	Leads            LeadMetrics        `json:"leads"`
	Properties       PropertyMetrics    `json:"properties"`
	Appointments     AppointmentMetrics `json:"appointments"`
	Revenue          RevenueMetrics     `json:"revenue"`
	Window           MetricsWindow      `json:"window"`
	DegradedSections []string           `json:"degraded_sections"`
	GeneratedAt      time.Time          `json:"generated_at"`
}

// IsDegraded reports whether any section was zeroed because its read failed
func (m *DashboardMetrics) IsDegraded() bool {
	return len(m.DegradedSections) > 0
}

// DashboardMetricsRequest selects the evaluation instant as RFC3339; empty means now
type DashboardMetricsRequest struct {
	At string `query:"at"`
}

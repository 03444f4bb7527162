package businessflow

import (
	"context"
	"time"

	"github.com/dimpinis9/estately/app/dto"
	"github.com/dimpinis9/estately/config"
	"github.com/dimpinis9/estately/models"
	"github.com/dimpinis9/estately/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DashboardMetricsFlow aggregates an owner's leads, properties and appointments into dashboard figures
type DashboardMetricsFlow interface {
	GetDashboardMetrics(ctx context.Context, ownerID uint, at time.Time) (*dto.DashboardMetrics, error)
	ExportDashboardMetrics(ctx context.Context, ownerID uint, at time.Time) (string, []byte, error)
}

// DashboardMetricsFlowImpl implements DashboardMetricsFlow
type DashboardMetricsFlowImpl struct {
	store        EntityStore
	appointments AppointmentReader
	cache        DashboardCache
	cfg          config.DashboardConfig
	logger       *zap.Logger
	now          func() time.Time
}

// NewDashboardMetricsFlow creates a new dashboard metrics flow. cache may be nil.
func NewDashboardMetricsFlow(
	store EntityStore,
	appointments AppointmentReader,
	cache DashboardCache,
	cfg config.DashboardConfig,
	logger *zap.Logger,
) DashboardMetricsFlow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardMetricsFlowImpl{
		store:        store,
		appointments: appointments,
		cache:        cache,
		cfg:          cfg,
		logger:       logger.Named("dashboard_metrics"),
		now:          utils.UTCNow,
	}
}

// activeLeadStatuses includes proposal even though no lead can reach it
var activeLeadStatuses = map[string]struct{}{
	models.LeadStatusNew.String():       {},
	models.LeadStatusContacted.String(): {},
	models.LeadStatusQualified.String(): {},
	models.LeadStatusProposal.String():  {},
}

// GetDashboardMetrics computes the dashboard for the owner as of at. A zero at means now,
// in the configured dashboard timezone.
func (f *DashboardMetricsFlowImpl) GetDashboardMetrics(ctx context.Context, ownerID uint, at time.Time) (*dto.DashboardMetrics, error) {
	if ownerID == 0 {
		return nil, ErrOwnerContextMissing
	}
	if at.IsZero() {
		at = utils.InLocation(f.now(), f.cfg.Timezone)
	}

	window := NewMetricsWindow(at)

	if f.cache != nil {
		// A hit is served as computed, with its own window, so every figure
		// matches the instant it reports. Entries from another month are stale.
		if cached, ok := f.cache.Get(ctx, ownerID, at); ok && cached.Window.StartOfMonth.Equal(window.StartOfMonth) {
			dashboardCacheTotal.WithLabelValues("hit").Inc()
			return cached, nil
		}
		dashboardCacheTotal.WithLabelValues("miss").Inc()
	}

	started := time.Now()
	metrics := f.aggregate(ctx, ownerID, window)
	dashboardAggregationDuration.Observe(time.Since(started).Seconds())

	if f.cache != nil && !metrics.IsDegraded() {
		f.cache.Set(ctx, ownerID, at, metrics)
	}

	return metrics, nil
}

func (f *DashboardMetricsFlowImpl) aggregate(ctx context.Context, ownerID uint, window dto.MetricsWindow) *dto.DashboardMetrics {
	readCtx := ctx
	if f.cfg.ReadTimeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, f.cfg.ReadTimeout)
		defer cancel()
	}

	var (
		leads, properties                 []*models.Entity
		appointments                      []*models.Appointment
		leadsErr, propertiesErr, apptsErr error
	)

	// Each read reports its own error; none of them cancels the others.
	var g errgroup.Group
	g.Go(func() error {
		leads, leadsErr = f.store.ListOwned(readCtx, ownerID, models.EntityKindLead)
		return nil
	})
	g.Go(func() error {
		properties, propertiesErr = f.store.ListOwned(readCtx, ownerID, models.EntityKindProperty)
		return nil
	})
	g.Go(func() error {
		appointments, apptsErr = f.appointments.ListOwnedAppointments(readCtx, ownerID)
		return nil
	})
	_ = g.Wait()

	metrics := &dto.DashboardMetrics{
		OwnerID:          ownerID,
		Window:           window,
		DegradedSections: []string{},
		GeneratedAt:      f.now(),
		Revenue: dto.RevenueMetrics{
			AverageDealValue: f.cfg.AverageDealValue,
			IsEstimate:       true,
		},
	}

	if leadsErr != nil {
		f.degrade(metrics, ownerID, leadsErr, dto.SectionLeads, dto.SectionRevenue)
	} else {
		metrics.Leads = computeLeadMetrics(leads, window)
		metrics.Revenue = computeRevenueMetrics(leads, window, f.cfg.AverageDealValue)
	}

	if propertiesErr != nil {
		f.degrade(metrics, ownerID, propertiesErr, dto.SectionProperties)
	} else {
		metrics.Properties = computePropertyMetrics(properties, window)
	}

	if apptsErr != nil {
		f.degrade(metrics, ownerID, apptsErr, dto.SectionAppointments)
	} else {
		metrics.Appointments = computeAppointmentMetrics(appointments, window)
	}

	return metrics
}

func (f *DashboardMetricsFlowImpl) degrade(metrics *dto.DashboardMetrics, ownerID uint, err error, sections ...string) {
	for _, section := range sections {
		metrics.DegradedSections = append(metrics.DegradedSections, section)
		dashboardDegradedTotal.WithLabelValues(section).Inc()
	}
	f.logger.Error("dashboard section read failed",
		zap.String("error_kind", "store_error"),
		zap.Uint("owner_id", ownerID),
		zap.Strings("sections", sections),
		zap.Error(err),
	)
}

func computeLeadMetrics(leads []*models.Entity, w dto.MetricsWindow) dto.LeadMetrics {
	var m dto.LeadMetrics
	for _, l := range leads {
		m.Total++
		if !l.CreatedAt.Before(w.StartOfMonth) {
			m.NewThisMonth++
		}
		if !l.CreatedAt.Before(w.RollingStart) {
			m.NewLast30Days++
		}
		if _, ok := activeLeadStatuses[l.Status]; ok {
			m.Active++
		}
		if l.Status == models.LeadStatusClosed.String() {
			m.ConvertedCount++
		}
	}
	m.ConversionRate = utils.Percentage(m.ConvertedCount, m.Total)
	return m
}

func computePropertyMetrics(properties []*models.Entity, w dto.MetricsWindow) dto.PropertyMetrics {
	var m dto.PropertyMetrics
	for _, p := range properties {
		m.Total++
		if !p.CreatedAt.Before(w.StartOfMonth) {
			m.NewThisMonth++
		}
		switch models.PropertyStatus(p.Status) {
		case models.PropertyStatusAvailable:
			m.Available++
		case models.PropertyStatusPending:
			m.Pending++
		case models.PropertyStatusSold:
			m.Sold++
		}
	}
	return m
}

func computeAppointmentMetrics(appointments []*models.Appointment, w dto.MetricsWindow) dto.AppointmentMetrics {
	var m dto.AppointmentMetrics
	for _, a := range appointments {
		if a.StartTime.After(w.Now) {
			m.Upcoming++
		}
		if a.CreatedAt.Before(w.StartOfMonth) {
			continue
		}
		m.ThisMonth++
		if !a.StartTime.After(w.Now) {
			m.CompletedEstimate++
		}
	}
	m.CompletionRateEstimate = utils.Percentage(m.CompletedEstimate, m.ThisMonth)
	return m
}

// computeRevenueMetrics prices closed leads at a flat average; it is an estimate only
func computeRevenueMetrics(leads []*models.Entity, w dto.MetricsWindow, averageDealValue float64) dto.RevenueMetrics {
	var mtd, ytd int64
	for _, l := range leads {
		if l.Status != models.LeadStatusClosed.String() {
			continue
		}
		if !l.CreatedAt.Before(w.StartOfYear) {
			ytd++
		}
		if !l.CreatedAt.Before(w.StartOfMonth) {
			mtd++
		}
	}
	return dto.RevenueMetrics{
		EstimatedMTD:     utils.Round2(float64(mtd) * averageDealValue),
		EstimatedYTD:     utils.Round2(float64(ytd) * averageDealValue),
		AverageDealValue: averageDealValue,
		IsEstimate:       true,
	}
}

// ExportDashboardMetrics renders the dashboard as an XLSX workbook
func (f *DashboardMetricsFlowImpl) ExportDashboardMetrics(ctx context.Context, ownerID uint, at time.Time) (string, []byte, error) {
	metrics, err := f.GetDashboardMetrics(ctx, ownerID, at)
	if err != nil {
		return "", nil, err
	}

	data, err := RenderDashboardWorkbook(metrics)
	if err != nil {
		f.logger.Error("failed to render dashboard workbook", zap.Uint("owner_id", ownerID), zap.Error(err))
		return "", nil, NewBusinessError(ErrCodeMetricsExportFailure, "Failed to export dashboard metrics", ErrExportFailed)
	}

	filename := "dashboard_" + metrics.Window.Now.Format("2006-01-02") + ".xlsx"
	return filename, data, nil
}

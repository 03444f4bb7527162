package businessflow

import (
	"time"

	"github.com/dimpinis9/estately/app/dto"
	"github.com/dimpinis9/estately/utils"
)

// NewMetricsWindow derives the calendar boundaries from the evaluation instant.
// Boundaries use the instant's own location, so callers pick the calendar by
// choosing the location of at.
func NewMetricsWindow(at time.Time) dto.MetricsWindow {
	return dto.MetricsWindow{
		Now:          at,
		StartOfMonth: utils.StartOfMonth(at),
		StartOfYear:  utils.StartOfYear(at),
		RollingStart: at.Add(-utils.RollingWindow),
	}
}

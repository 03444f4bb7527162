package utils

import (
	"time"
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Bulk operation defaults
const (
	DefaultBulkWorkers      = 8
	DefaultBulkMaxBatchSize = 500
	DefaultBulkMaxNoteLen   = 2000
)

// Dashboard defaults
const (
	// DefaultAverageDealValue feeds the revenue proxy estimate, not real ledger data
	DefaultAverageDealValue = 5000.0

	// RollingWindow is the lookback used by rolling dashboard counters
	RollingWindow = 30 * 24 * time.Hour

	DefaultMetricsCacheTTL = time.Minute
)

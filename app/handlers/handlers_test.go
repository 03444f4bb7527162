package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dimpinis9/estately/app/dto"
	"github.com/dimpinis9/estately/app/middleware"
	businessflow "github.com/dimpinis9/estately/business_flow"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBulkFlow struct {
	gotOwner uint
	gotReq   *dto.BulkOperationRequest
	result   *dto.BulkOperationResult
	err      error
}

func (s *stubBulkFlow) Execute(_ context.Context, ownerID uint, req *dto.BulkOperationRequest, _ *businessflow.ClientMetadata) (*dto.BulkOperationResult, error) {
	s.gotOwner, s.gotReq = ownerID, req
	return s.result, s.err
}

type stubDashboardFlow struct {
	gotAt   time.Time
	metrics *dto.DashboardMetrics
	err     error
}

func (s *stubDashboardFlow) GetDashboardMetrics(_ context.Context, _ uint, at time.Time) (*dto.DashboardMetrics, error) {
	s.gotAt = at
	return s.metrics, s.err
}

func (s *stubDashboardFlow) ExportDashboardMetrics(_ context.Context, _ uint, at time.Time) (string, []byte, error) {
	s.gotAt = at
	return "dashboard.xlsx", []byte("xlsx"), s.err
}

// withOwner stands in for the auth middleware
func withOwner(ownerID uint) fiber.Handler {
	return func(c fiber.Ctx) error {
		if ownerID != 0 {
			c.Locals(middleware.LocalOwnerID, ownerID)
		}
		return c.Next()
	}
}

func decode(t *testing.T, resp *http.Response) dto.APIResponse {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out dto.APIResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func errorCode(t *testing.T, r dto.APIResponse) string {
	t.Helper()
	detail, ok := r.Error.(map[string]any)
	require.True(t, ok)
	code, _ := detail["code"].(string)
	return code
}

func bulkApp(flow *stubBulkFlow, ownerID uint) *fiber.App {
	app := fiber.New()
	app.Post("/bulk", withOwner(ownerID), NewBulkOperationHandler(flow, nil).Execute)
	return app
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestBulkOperationHandler(t *testing.T) {
	body := `{"action":"update_status","kind":"lead","entity_ids":["a","b"],"payload":{"target_status":"contacted"}}`

	t.Run("Success", func(t *testing.T) {
		flow := &stubBulkFlow{result: &dto.BulkOperationResult{Action: dto.BulkActionUpdateStatus, Kind: "lead", TotalCount: 2, SuccessCount: 2}}
		resp, err := bulkApp(flow, 42).Test(postJSON("/bulk", body))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.True(t, decode(t, resp).Success)
		assert.Equal(t, uint(42), flow.gotOwner)
		assert.Equal(t, []string{"a", "b"}, flow.gotReq.EntityIDs)
		assert.Equal(t, "contacted", flow.gotReq.Payload.TargetStatus)
	})

	t.Run("MissingOwner", func(t *testing.T) {
		flow := &stubBulkFlow{}
		resp, err := bulkApp(flow, 0).Test(postJSON("/bulk", body))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Nil(t, flow.gotReq)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		resp, err := bulkApp(&stubBulkFlow{}, 42).Test(postJSON("/bulk", `{"action":`))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("MissingFields", func(t *testing.T) {
		resp, err := bulkApp(&stubBulkFlow{}, 42).Test(postJSON("/bulk", `{"kind":"lead"}`))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, businessflow.ErrCodeValidation, errorCode(t, decode(t, resp)))
	})

	t.Run("FlowValidationError", func(t *testing.T) {
		flow := &stubBulkFlow{err: businessflow.NewBusinessError(businessflow.ErrCodeValidation, "invalid bulk operation request", businessflow.ErrUnknownBulkAction)}
		resp, err := bulkApp(flow, 42).Test(postJSON("/bulk", body))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, businessflow.ErrCodeValidation, errorCode(t, decode(t, resp)))
	})
}

func dashboardApp(flow *stubDashboardFlow, ownerID uint) *fiber.App {
	app := fiber.New()
	h := NewDashboardHandler(flow, nil)
	app.Get("/metrics", withOwner(ownerID), h.GetMetrics)
	app.Get("/metrics/export", withOwner(ownerID), h.ExportMetrics)
	return app
}

func TestDashboardHandler(t *testing.T) {
	t.Run("ParsesAt", func(t *testing.T) {
		flow := &stubDashboardFlow{metrics: &dto.DashboardMetrics{OwnerID: 42, DegradedSections: []string{}}}
		resp, err := dashboardApp(flow, 42).Test(httptest.NewRequest(http.MethodGet, "/metrics?at=2025-03-14T09:30:00Z", nil))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.True(t, flow.gotAt.Equal(time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)))
	})

	t.Run("AbsentAtMeansNow", func(t *testing.T) {
		flow := &stubDashboardFlow{metrics: &dto.DashboardMetrics{DegradedSections: []string{}}}
		resp, err := dashboardApp(flow, 42).Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.True(t, flow.gotAt.IsZero())
	})

	t.Run("DegradedIsStill200", func(t *testing.T) {
		flow := &stubDashboardFlow{metrics: &dto.DashboardMetrics{DegradedSections: []string{dto.SectionLeads}}}
		resp, err := dashboardApp(flow, 42).Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "Dashboard metrics partially available", decode(t, resp).Message)
	})

	t.Run("BadAt", func(t *testing.T) {
		resp, err := dashboardApp(&stubDashboardFlow{}, 42).Test(httptest.NewRequest(http.MethodGet, "/metrics?at=yesterday", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("MissingOwner", func(t *testing.T) {
		resp, err := dashboardApp(&stubDashboardFlow{}, 0).Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Export", func(t *testing.T) {
		resp, err := dashboardApp(&stubDashboardFlow{}, 42).Test(httptest.NewRequest(http.MethodGet, "/metrics/export", nil))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "dashboard.xlsx")
	})

	t.Run("ExportOwnerMissingIs401", func(t *testing.T) {
		flow := &stubDashboardFlow{err: businessflow.ErrOwnerContextMissing}
		resp, err := dashboardApp(flow, 42).Test(httptest.NewRequest(http.MethodGet, "/metrics/export", nil))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, businessflow.ErrCodeOwnerContextMissing, errorCode(t, decode(t, resp)))
	})

	t.Run("ExportFailureIs500", func(t *testing.T) {
		flow := &stubDashboardFlow{err: businessflow.NewBusinessError(businessflow.ErrCodeMetricsExportFailure, "Failed to export dashboard metrics", businessflow.ErrExportFailed)}
		resp, err := dashboardApp(flow, 42).Test(httptest.NewRequest(http.MethodGet, "/metrics/export", nil))
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, businessflow.ErrCodeMetricsExportFailure, errorCode(t, decode(t, resp)))
	})
}

func TestStatusTransitionHandler(t *testing.T) {
	app := fiber.New()
	h := NewStatusTransitionHandler()
	app.Get("/transitions", h.AllowedTransitions)
	app.Post("/transitions/validate", h.ValidateTransition)

	t.Run("Allowed", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/transitions?kind=lead&from=new", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		data, ok := decode(t, resp).Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, []any{"contacted", "qualified"}, data["allowed"])
	})

	t.Run("UnknownKindRejected", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/transitions?kind=contract&from=new", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("ValidateDenied", func(t *testing.T) {
		resp, err := app.Test(postJSON("/transitions/validate", `{"kind":"lead","from":"closed","to":"new"}`))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		data, ok := decode(t, resp).Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, false, data["allowed"])
		assert.Equal(t, "TRANSITION_NOT_ALLOWED", data["reason"])
	})

	t.Run("ValidateNoOp", func(t *testing.T) {
		resp, err := app.Test(postJSON("/transitions/validate", `{"kind":"property","from":"sold","to":"sold"}`))
		require.NoError(t, err)

		data, ok := decode(t, resp).Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "NO_OP", data["reason"])
	})
}

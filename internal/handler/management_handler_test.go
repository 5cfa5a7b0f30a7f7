// internal/handler/management_handler_test.go
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"print-service/internal/printer"
	"print-service/internal/queue"
	"print-service/internal/registry"
	"print-service/internal/service"
	"print-service/internal/utils"
)

func newManagementEnv(t *testing.T) (*gin.Engine, *service.PrintService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := registry.NewRegistry(zap.NewNop())
	q := queue.NewQueue(reg, printer.Formatters(printer.Branding{Name: "BABYLON"}), queue.DefaultConfig(), zap.NewNop())
	svc := service.NewPrintService(q, reg, nil, nil, utils.NewServiceLogger(zap.NewNop(), "test"))

	router := gin.New()
	api := router.Group("/api/v1")
	NewManagementHandler(svc, zap.NewNop()).RegisterRoutes(api)

	return router, svc
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitJobEndpoint(t *testing.T) {
	router, _ := newManagementEnv(t)

	w := postJSON(t, router, "/api/v1/print-jobs", map[string]any{
		"printer_mac": testPrinterMAC,
		"receipt": map[string]any{
			"order_number": "2001",
		},
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Regexp(t, `^job_\d+_[0-9a-f]{8}$`, data["job_id"])
}

func TestSubmitJobValidation(t *testing.T) {
	router, _ := newManagementEnv(t)

	cases := []map[string]any{
		{},
		{"printer_mac": testPrinterMAC},
		{"printer_mac": "zz!!", "receipt": map[string]any{"order_number": "2002"}},
	}

	for _, body := range cases {
		w := postJSON(t, router, "/api/v1/print-jobs", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %v", body)
	}
}

func TestSubmitJobMissingOrderNumber(t *testing.T) {
	router, _ := newManagementEnv(t)

	w := postJSON(t, router, "/api/v1/print-jobs", map[string]any{
		"printer_mac": testPrinterMAC,
		"receipt":     map[string]any{},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	fieldErrors, ok := data["validation_errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, fieldErrors, "receipt.order_number")
}

func TestSubmitTestJobEndpoint(t *testing.T) {
	router, _ := newManagementEnv(t)

	w := postJSON(t, router, "/api/v1/print-jobs/test", map[string]any{
		"printer_mac":  testPrinterMAC,
		"printer_type": "escpos",
	})

	require.Equal(t, http.StatusCreated, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	router, _ := newManagementEnv(t)

	postJSON(t, router, "/api/v1/print-jobs", map[string]any{
		"printer_mac": testPrinterMAC,
		"receipt":     map[string]any{"order_number": "2003"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/print-jobs/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)

	queueStats, ok := data["queue"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, queueStats["pending"])
}

func TestPrinterEndpoints(t *testing.T) {
	router, svc := newManagementEnv(t)

	// The printer becomes visible after its first poll
	_, err := svc.Poll(context.Background(), testPrinterMAC, nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/printers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	printers, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, printers, 1)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/printers/"+testPrinterMAC, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/printers/aa-bb-cc-dd-ee-ff", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

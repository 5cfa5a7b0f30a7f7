// internal/handler/cloudprnt_handler_test.go
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"print-service/internal/model"
	"print-service/internal/printer"
	"print-service/internal/queue"
	"print-service/internal/registry"
	"print-service/internal/service"
	"print-service/internal/utils"
)

const testPrinterMAC = "66-11-22-33-44-55"
const testPrinterID = "66:11:22:33:44:55"

type testEnv struct {
	router *gin.Engine
	svc    *service.PrintService
	queue  *queue.Queue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := registry.NewRegistry(zap.NewNop())
	brand := printer.Branding{
		Name:    "BABYLON",
		Tagline: "RAVINTOLA",
		Address: "Vapaudenkatu 12, Jyväskylä",
		Phone:   "+358 40 123 4567",
	}
	q := queue.NewQueue(reg, printer.Formatters(brand), queue.DefaultConfig(), zap.NewNop())
	svc := service.NewPrintService(q, reg, nil, nil, utils.NewServiceLogger(zap.NewNop(), "test"))

	router := gin.New()
	NewCloudPRNTHandler(svc, zap.NewNop()).RegisterRoutes(router)

	return &testEnv{router: router, svc: svc, queue: q}
}

func (env *testEnv) submitJob(t *testing.T, orderNumber string) string {
	t.Helper()
	jobID, err := env.svc.SubmitJob(context.Background(), &service.SubmitJobRequest{
		PrinterMAC: testPrinterMAC,
		Receipt: model.ReceiptModel{
			OrderNumber:   orderNumber,
			OrderType:     model.OrderTypePickup,
			PaymentMethod: model.PaymentCard,
			CreatedAt:     time.Now(),
			Items: []model.ReceiptItem{
				{Name: "Kebab", Quantity: 1, LineTotal: decimal.NewFromFloat(11.00)},
			},
			Total: decimal.NewFromFloat(11.00),
		},
	})
	require.NoError(t, err)
	return jobID
}

func (env *testEnv) poll(t *testing.T, path string, body any) (*httptest.ResponseRecorder, model.PollResponse) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	var resp model.PollResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestPollWithPathMAC(t *testing.T) {
	env := newTestEnv(t)
	env.submitJob(t, "1042")

	w, resp := env.poll(t, "/cloudprnt/"+testPrinterMAC, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.JobReady)
	assert.Regexp(t, `^job_\d+_[0-9a-f]{8}$`, resp.JobToken)
	assert.Equal(t, "DELETE", resp.DeleteMethod)
	assert.Contains(t, resp.MediaTypes, model.MediaStarPRNT)
	assert.Contains(t, resp.MediaTypes, model.MediaStarLine)
}

func TestPollWithBodyMAC(t *testing.T) {
	env := newTestEnv(t)
	env.submitJob(t, "1043")

	for _, body := range []map[string]string{
		{"mac": testPrinterMAC},
		{"macAddress": "66:11:22:33:44:55"},
		{"printerMAC": "6611.2233.4455"},
	} {
		w, resp := env.poll(t, "/cloudprnt", body)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.JobReady, "body %v", body)
	}
}

func TestPollNoJobs(t *testing.T) {
	env := newTestEnv(t)

	w, resp := env.poll(t, "/cloudprnt/"+testPrinterMAC, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, resp.JobReady)
	assert.Empty(t, resp.JobToken)
}

func TestPollMissingMAC(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.poll(t, "/cloudprnt", map[string]string{"status": "online"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFetchJobBytes(t *testing.T) {
	env := newTestEnv(t)
	env.submitJob(t, "1044")

	_, resp := env.poll(t, "/cloudprnt/"+testPrinterMAC, nil)
	require.True(t, resp.JobReady)

	req := httptest.NewRequest(http.MethodGet, "/cloudprnt?token="+resp.JobToken, nil)
	req.Header.Set("Accept", model.MediaStarPRNT)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.MediaStarPRNT, w.Header().Get("Content-Type"))
	body := w.Body.Bytes()
	assert.True(t, bytes.HasPrefix(body, []byte{0x1B, 0x40}), "starts with initialize")
	assert.Contains(t, string(body), "1044")
}

func TestFetchDefaultContentType(t *testing.T) {
	env := newTestEnv(t)
	env.submitJob(t, "1045")

	_, resp := env.poll(t, "/cloudprnt/"+testPrinterMAC, nil)

	req := httptest.NewRequest(http.MethodGet, "/cloudprnt?token="+resp.JobToken, nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.MediaStarLine, w.Header().Get("Content-Type"))
}

func TestFetchMissingToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/cloudprnt", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFetchUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/cloudprnt?token=job_1_deadbeef", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfirmSuccessLifecycle(t *testing.T) {
	env := newTestEnv(t)
	jobID := env.submitJob(t, "1046")

	_, resp := env.poll(t, "/cloudprnt/"+testPrinterMAC, nil)
	require.Equal(t, jobID, resp.JobToken)

	fetch := httptest.NewRequest(http.MethodGet, "/cloudprnt?token="+resp.JobToken, nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, fetch)
	require.Equal(t, http.StatusOK, w.Code)

	del := httptest.NewRequest(http.MethodDelete, "/cloudprnt?token="+resp.JobToken+"&code=success", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, del)
	assert.Equal(t, http.StatusNoContent, w.Code)

	job, ok := env.queue.Get(jobID)
	require.True(t, ok)
	assert.Equal(t, model.JobStateCompleted, job.State)

	// Completed jobs leave the poll rotation immediately
	_, resp = env.poll(t, "/cloudprnt/"+testPrinterMAC, nil)
	assert.False(t, resp.JobReady)

	// The sweeper reclaims the terminal job once it is old enough
	env.queue.Sweep(time.Now().Add(2 * time.Hour))
	get := httptest.NewRequest(http.MethodGet, "/cloudprnt?token="+jobID, nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, get)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfirmFailureCode(t *testing.T) {
	env := newTestEnv(t)
	jobID := env.submitJob(t, "1047")

	_, resp := env.poll(t, "/cloudprnt/"+testPrinterMAC, nil)

	del := httptest.NewRequest(http.MethodDelete, "/cloudprnt?token="+resp.JobToken+"&code=error%2022", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, del)
	assert.Equal(t, http.StatusNoContent, w.Code)

	job, ok := env.queue.Get(jobID)
	require.True(t, ok)
	assert.Equal(t, model.JobStateFailed, job.State)
}

func TestConfirmUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	del := httptest.NewRequest(http.MethodDelete, "/cloudprnt?token=job_1_deadbeef&code=success", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, del)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAcceptedMediaTypes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		accept string
		query  string
		want   []string
	}{
		{accept: "application/vnd.star.starprnt, application/vnd.star.line;q=0.9",
			want: []string{"application/vnd.star.starprnt", "application/vnd.star.line"}},
		{accept: "", want: nil},
		{query: "application/vnd.star.line", accept: "application/vnd.star.starprnt",
			want: []string{"application/vnd.star.line"}},
	}

	for _, tc := range cases {
		target := "/cloudprnt"
		if tc.query != "" {
			target += "?type=" + tc.query
		}
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if tc.accept != "" {
			req.Header.Set("Accept", tc.accept)
		}
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = req

		got := acceptedMediaTypes(c)
		assert.Equal(t, tc.want, got, "accept %q query %q", tc.accept, tc.query)
	}
}

func TestPollRegistersPrinter(t *testing.T) {
	env := newTestEnv(t)

	_, _ = env.poll(t, "/cloudprnt", map[string]string{"mac": strings.ToLower(testPrinterMAC), "statusCode": "200 OK"})

	printers := env.svc.ListPrinters(context.Background())
	require.Len(t, printers, 1)
	assert.Equal(t, testPrinterID, printers[0].ID)
}

func TestPollCapturesPrinterMetadata(t *testing.T) {
	env := newTestEnv(t)

	w, _ := env.poll(t, "/cloudprnt", map[string]any{
		"printerMAC":   testPrinterMAC,
		"printerModel": "TSP143IV",
		"mediaTypes":   []string{model.MediaStarLine, model.MediaStarPRNT},
		"statusCode":   "200 OK",
	})
	require.Equal(t, http.StatusOK, w.Code)

	printers := env.svc.ListPrinters(context.Background())
	require.Len(t, printers, 1)
	assert.Equal(t, "TSP143IV", printers[0].Model)
	assert.Equal(t, []string{model.MediaStarLine, model.MediaStarPRNT}, printers[0].Capabilities)

	// Later polls without the descriptive fields keep them; "model" is the
	// alternate firmware key for the same field
	_, _ = env.poll(t, "/cloudprnt", map[string]string{"mac": testPrinterMAC})
	printers = env.svc.ListPrinters(context.Background())
	assert.Equal(t, "TSP143IV", printers[0].Model)
	assert.Equal(t, []string{model.MediaStarLine, model.MediaStarPRNT}, printers[0].Capabilities)

	_, _ = env.poll(t, "/cloudprnt", map[string]any{"mac": testPrinterMAC, "model": "mC-Print3"})
	printers = env.svc.ListPrinters(context.Background())
	assert.Equal(t, "mC-Print3", printers[0].Model)
}

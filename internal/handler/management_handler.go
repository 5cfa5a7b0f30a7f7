// internal/handler/management_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"print-service/internal/service"
	"print-service/internal/utils"
)

// ManagementHandler handles the restaurant backend's job submission and
// monitoring requests
type ManagementHandler struct {
	printService *service.PrintService
	logger       *utils.ServiceLogger
}

// NewManagementHandler creates a new management handler
func NewManagementHandler(printService *service.PrintService, logger *zap.Logger) *ManagementHandler {
	return &ManagementHandler{
		printService: printService,
		logger:       utils.NewServiceLogger(logger, "management-handler"),
	}
}

// RegisterRoutes registers management API routes
func (h *ManagementHandler) RegisterRoutes(router *gin.RouterGroup) {
	jobs := router.Group("/print-jobs")
	{
		jobs.POST("", h.SubmitJob)
		jobs.GET("/stats", h.GetStats)
		jobs.POST("/test", h.SubmitTestJob)
	}

	printers := router.Group("/printers")
	{
		printers.GET("", h.ListPrinters)
		printers.GET("/:mac", h.GetPrinter)
	}
}

// SubmitJob queues a receipt print job
// @Summary Submit a print job
// @Description Queue a receipt for the next poll of the target printer
// @Tags PrintJobs
// @Accept json
// @Produce json
// @Param request body service.SubmitJobRequest true "Print job submission"
// @Success 201 {object} utils.APIResponse{data=object{job_id=string}} "Job queued"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Router /print-jobs [post]
func (h *ManagementHandler) SubmitJob(c *gin.Context) {
	var req service.SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.LogAPIRequest(c.Request.Method, c.Request.URL.Path, c.Request.UserAgent(), c.ClientIP(), 400, 0)
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if fieldErrors := validateSubmitJob(&req); len(fieldErrors) > 0 {
		h.logger.LogAPIRequest(c.Request.Method, c.Request.URL.Path, c.Request.UserAgent(), c.ClientIP(), 400, 0)
		utils.ValidationErrorResponse(c, fieldErrors)
		return
	}

	jobID, err := h.printService.SubmitJob(c.Request.Context(), &req)
	if err != nil {
		h.logger.LogAPIRequest(c.Request.Method, c.Request.URL.Path, c.Request.UserAgent(), c.ClientIP(), 400, 0)
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to queue print job", err)
		return
	}

	h.logger.LogAPIRequest(c.Request.Method, c.Request.URL.Path, c.Request.UserAgent(), c.ClientIP(), 201, 0)
	utils.SuccessResponse(c, http.StatusCreated, "Print job queued", gin.H{"job_id": jobID})
}

// validateSubmitJob checks the fields binding tags cannot express
func validateSubmitJob(req *service.SubmitJobRequest) map[string]string {
	fieldErrors := make(map[string]string)
	if req.Receipt.OrderNumber == "" {
		fieldErrors["receipt.order_number"] = "order number is required"
	}
	return fieldErrors
}

// GetStats reports queue and printer statistics
// @Summary Print job statistics
// @Description Get job counts by state and the printer directory
// @Tags PrintJobs
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=service.StatsReport} "Statistics"
// @Router /print-jobs/stats [get]
func (h *ManagementHandler) GetStats(c *gin.Context) {
	stats := h.printService.Stats(c.Request.Context())
	utils.SuccessResponse(c, http.StatusOK, "Print job statistics", stats)
}

// SubmitTestJob queues a canned test receipt
// @Summary Submit a test print job
// @Description Queue a test receipt to verify a printer end to end
// @Tags PrintJobs
// @Accept json
// @Produce json
// @Param request body handler.TestJobRequest true "Test job target"
// @Success 201 {object} utils.APIResponse{data=object{job_id=string}} "Test job queued"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Router /print-jobs/test [post]
func (h *ManagementHandler) SubmitTestJob(c *gin.Context) {
	var req TestJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	jobID, err := h.printService.SubmitTestJob(c.Request.Context(), req.PrinterMAC, req.PrinterType)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Failed to queue test job", err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Test job queued", gin.H{"job_id": jobID})
}

// ListPrinters lists every printer seen by the service
// @Summary List printers
// @Description List printers that have polled the service, with pending job counts
// @Tags Printers
// @Accept json
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]model.PrinterSummary} "Printers"
// @Router /printers [get]
func (h *ManagementHandler) ListPrinters(c *gin.Context) {
	printers := h.printService.ListPrinters(c.Request.Context())
	utils.SuccessResponse(c, http.StatusOK, "Printers", printers)
}

// GetPrinter looks up a single printer
// @Summary Get a printer
// @Description Get one printer by MAC with its pending job count
// @Tags Printers
// @Accept json
// @Produce json
// @Param mac path string true "Printer MAC"
// @Success 200 {object} utils.APIResponse{data=model.PrinterSummary} "Printer"
// @Failure 404 {object} utils.APIResponse "Printer not found"
// @Router /printers/{mac} [get]
func (h *ManagementHandler) GetPrinter(c *gin.Context) {
	printer, err := h.printService.GetPrinter(c.Request.Context(), c.Param("mac"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Printer not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Printer", printer)
}

// TestJobRequest identifies the printer for a test receipt
type TestJobRequest struct {
	PrinterMAC  string `json:"printer_mac" binding:"required"`
	PrinterType string `json:"printer_type"`
}

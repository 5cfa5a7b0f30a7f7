// internal/handler/cloudprnt_handler.go
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"print-service/internal/model"
	"print-service/internal/queue"
	"print-service/internal/registry"
	"print-service/internal/service"
	"print-service/internal/utils"
)

// CloudPRNTHandler serves the poll/fetch/confirm cycle spoken by the printers.
// Responses here are raw CloudPRNT wire shapes, not the management API envelope.
type CloudPRNTHandler struct {
	printService *service.PrintService
	logger       *zap.Logger
}

// NewCloudPRNTHandler creates a new CloudPRNT handler
func NewCloudPRNTHandler(printService *service.PrintService, logger *zap.Logger) *CloudPRNTHandler {
	return &CloudPRNTHandler{
		printService: printService,
		logger:       logger,
	}
}

// RegisterRoutes registers CloudPRNT routes
func (h *CloudPRNTHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/cloudprnt", h.Poll)
	router.GET("/cloudprnt", h.Fetch)
	router.DELETE("/cloudprnt", h.Confirm)

	// Some printers are provisioned with the MAC in the URL instead of the body
	router.POST("/cloudprnt/:mac", h.Poll)
	router.GET("/cloudprnt/:mac", h.Fetch)
	router.DELETE("/cloudprnt/:mac", h.Confirm)
}

// Poll handles the printer's periodic status POST and answers whether a job
// is ready. The MAC comes from the URL path when present, otherwise from the
// first of the mac, macAddress or printerMAC body fields.
func (h *CloudPRNTHandler) Poll(c *gin.Context) {
	var req model.PollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Some firmware revisions poll with an empty body
		req = model.PollRequest{}
	}

	mac := c.Param("mac")
	if mac == "" {
		mac = req.Identifier()
	}

	resp, err := h.printService.Poll(c.Request.Context(), mac, &req)
	if err != nil {
		if errors.Is(err, registry.ErrInvalidIdentifier) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid printer MAC"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "poll failed"})
		return
	}

	utils.NewPrinterLogger(h.logger, mac).LogPoll(resp.JobReady, resp.JobToken)
	c.JSON(http.StatusOK, resp)
}

// Fetch streams the rendered job bytes named by the token query parameter.
// The response content type is negotiated against the printer's Accept header.
func (h *CloudPRNTHandler) Fetch(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}

	printerLog := utils.NewPrinterLogger(h.logger, c.Param("mac"))

	data, contentType, err := h.printService.FetchJob(c.Request.Context(), token, acceptedMediaTypes(c))
	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		printerLog.LogDelivery(token, "", 0, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "job render failed"})
		return
	}

	printerLog.LogDelivery(token, contentType, len(data), nil)
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, contentType, data)
}

// Confirm records the delivery outcome the printer reports after printing.
// Unknown tokens are ignored so printer retries stay harmless.
func (h *CloudPRNTHandler) Confirm(c *gin.Context) {
	token := c.Query("token")
	code := c.Query("code")

	if token != "" {
		h.printService.Confirm(c.Request.Context(), token, code)
	}

	c.Status(http.StatusNoContent)
}

// acceptedMediaTypes splits the Accept header into bare media types,
// dropping quality parameters. The type query parameter, used by older
// firmware, takes priority when present.
func acceptedMediaTypes(c *gin.Context) []string {
	if t := c.Query("type"); t != "" {
		return []string{t}
	}

	header := c.GetHeader("Accept")
	if header == "" {
		return nil
	}

	var accepted []string
	for _, part := range strings.Split(header, ",") {
		mediaType := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if mediaType != "" {
			accepted = append(accepted, mediaType)
		}
	}
	return accepted
}

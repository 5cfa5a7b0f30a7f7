// internal/service/print_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"print-service/internal/model"
	"print-service/internal/queue"
	"print-service/internal/registry"
	"print-service/internal/repository"
	"print-service/internal/utils"
)

// persistTimeout bounds the best-effort audit writes
const persistTimeout = 5 * time.Second

// EventSink receives job lifecycle events for fan-out to subscribers
type EventSink interface {
	PublishJobEvent(event string, job *model.PrintJob)
}

// SubmitJobRequest is the management API payload for queueing a receipt
type SubmitJobRequest struct {
	PrinterMAC  string             `json:"printer_mac" binding:"required"`
	PrinterType string             `json:"printer_type"`
	Receipt     model.ReceiptModel `json:"receipt"`
}

// StatsReport combines queue counts with the printer directory. History is
// the audit trail's lifetime counts and is omitted without a database.
type StatsReport struct {
	Queue    model.QueueStats       `json:"queue"`
	Printers []model.PrinterSummary `json:"printers"`
	History  map[model.JobState]int `json:"history,omitempty"`
}

// PrintService orchestrates the job queue, the printer registry and the
// audit persistence. The queue is authoritative; database writes are
// asynchronous and never fail a request.
type PrintService struct {
	queue       *queue.Queue
	registry    *registry.Registry
	printerRepo repository.PrinterRepository
	jobLogRepo  repository.JobLogRepository
	logger      *utils.ServiceLogger
	eventSink   EventSink
}

// NewPrintService creates the print orchestration service. Both repositories
// may be nil when the service runs without a database.
func NewPrintService(
	q *queue.Queue,
	reg *registry.Registry,
	printerRepo repository.PrinterRepository,
	jobLogRepo repository.JobLogRepository,
	logger *utils.ServiceLogger,
) *PrintService {
	s := &PrintService{
		queue:       q,
		registry:    reg,
		printerRepo: printerRepo,
		jobLogRepo:  jobLogRepo,
		logger:      logger,
	}
	q.SetEventHandler(s.handleJobEvent)
	return s
}

// SetEventSink wires the WebSocket fan-out
func (s *PrintService) SetEventSink(sink EventSink) {
	s.eventSink = sink
}

// handleJobEvent forwards queue events to subscribers and the audit trail
func (s *PrintService) handleJobEvent(event string, job *model.PrintJob) {
	if s.eventSink != nil {
		s.eventSink.PublishJobEvent(event, job)
	}
	if s.jobLogRepo == nil || event == queue.EventJobQueued {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.jobLogRepo.UpdateState(ctx, job.ID, job.State); err != nil {
			s.logger.Warn("Job audit update failed", zap.String("job_id", job.ID), zap.Error(err))
		}
	}()
}

// SubmitJob validates and queues a receipt print job
func (s *PrintService) SubmitJob(ctx context.Context, req *SubmitJobRequest) (string, error) {
	family := resolveFamily(req.PrinterType)

	receipt := req.Receipt
	if receipt.OrderNumber == "" {
		return "", fmt.Errorf("receipt order number is required")
	}
	if receipt.CreatedAt.IsZero() {
		receipt.CreatedAt = time.Now()
	}

	jobID, err := s.queue.Enqueue(req.PrinterMAC, family, &receipt)
	if err != nil {
		return "", err
	}

	if s.jobLogRepo != nil {
		if job, ok := s.queue.Get(jobID); ok {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
				defer cancel()
				if err := s.jobLogRepo.Record(ctx, job, receipt.OrderNumber); err != nil {
					s.logger.Warn("Job audit record failed", zap.String("job_id", jobID), zap.Error(err))
				}
			}()
		}
	}

	return jobID, nil
}

// resolveFamily maps the requested printer type to a command family. Star is
// the house default; only an explicit ESC/POS request switches families.
func resolveFamily(printerType string) model.CommandFamily {
	switch strings.ToLower(strings.TrimSpace(printerType)) {
	case "escpos", "esc/pos", "epson":
		return model.FamilyEscPos
	default:
		return model.FamilyStar
	}
}

// Poll handles one CloudPRNT poll cycle
func (s *PrintService) Poll(ctx context.Context, rawMAC string, req *model.PollRequest) (*model.PollResponse, error) {
	info := model.PrinterInfo{}
	if req != nil {
		info.Model = req.DeclaredModel()
		info.Capabilities = req.MediaTypes
		info.StatusCode = req.StatusCode
		if info.StatusCode == "" {
			info.StatusCode = req.Status
		}
	}

	resp, err := s.queue.Poll(rawMAC, info)
	if err != nil {
		return nil, err
	}

	s.persistPrinterSighting(rawMAC)
	return resp, nil
}

// persistPrinterSighting mirrors the in-memory registry into the database
func (s *PrintService) persistPrinterSighting(rawMAC string) {
	if s.printerRepo == nil {
		return
	}
	printer, ok := s.registry.Get(rawMAC)
	if !ok {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := s.printerRepo.Upsert(ctx, printer); err != nil {
			s.logger.Warn("Printer persistence failed", zap.String("printer_id", printer.ID), zap.Error(err))
		}
	}()
}

// FetchJob returns the rendered bytes and negotiated content type for a job
func (s *PrintService) FetchJob(ctx context.Context, token string, accepted []string) ([]byte, string, error) {
	return s.queue.FetchBytes(token, accepted)
}

// Confirm records a delivery result reported by the printer. Anything other
// than the success marker fails the job.
func (s *PrintService) Confirm(ctx context.Context, token, code string) {
	s.queue.Confirm(token, isSuccessCode(code))
}

func isSuccessCode(code string) bool {
	return strings.EqualFold(code, "success")
}

// Stats reports queue counts and the printer directory
func (s *PrintService) Stats(ctx context.Context) *StatsReport {
	report := &StatsReport{
		Queue:    s.queue.Stats(),
		Printers: s.ListPrinters(ctx),
	}

	if s.jobLogRepo != nil {
		history, err := s.jobLogRepo.CountByState(ctx)
		if err != nil {
			s.logger.Warn("Job audit counts unavailable", zap.Error(err))
		} else {
			report.History = history
		}
	}

	return report
}

// ListPrinters returns all known printers with their pending job counts.
// Printers only present in the database, seen before the last restart but
// not since, are included with zero pending jobs.
func (s *PrintService) ListPrinters(ctx context.Context) []model.PrinterSummary {
	printers := s.registry.List()
	seen := make(map[string]bool, len(printers))
	out := make([]model.PrinterSummary, 0, len(printers))
	for _, p := range printers {
		seen[p.ID] = true
		out = append(out, model.PrinterSummary{
			ID:           p.ID,
			Model:        p.Model,
			Capabilities: p.Capabilities,
			LastPollAt:   p.LastPollAt,
			PendingJobs:  s.queue.PendingCount(p.ID),
		})
	}

	if s.printerRepo != nil {
		stored, err := s.printerRepo.List(ctx)
		if err != nil {
			s.logger.Warn("Printer directory unavailable", zap.Error(err))
			return out
		}
		for _, p := range stored {
			if seen[p.ID] {
				continue
			}
			out = append(out, model.PrinterSummary{
				ID:         p.ID,
				Model:      p.Model,
				LastPollAt: p.LastPollAt,
			})
		}
	}

	return out
}

// GetPrinter looks up one printer, falling back to the database for
// printers not seen since the last restart
func (s *PrintService) GetPrinter(ctx context.Context, rawMAC string) (*model.PrinterSummary, error) {
	id, err := registry.Normalize(rawMAC)
	if err != nil {
		return nil, err
	}

	if p, ok := s.registry.Get(id); ok {
		return &model.PrinterSummary{
			ID:           p.ID,
			Model:        p.Model,
			Capabilities: p.Capabilities,
			LastPollAt:   p.LastPollAt,
			PendingJobs:  s.queue.PendingCount(p.ID),
		}, nil
	}

	if s.printerRepo != nil {
		p, err := s.printerRepo.GetByMAC(ctx, id)
		if err != nil {
			return nil, err
		}
		return &model.PrinterSummary{
			ID:         p.ID,
			Model:      p.Model,
			LastPollAt: p.LastPollAt,
		}, nil
	}

	return nil, fmt.Errorf("printer %s not found", id)
}

// SubmitTestJob queues a canned receipt so installers can verify a printer
func (s *PrintService) SubmitTestJob(ctx context.Context, rawMAC, printerType string) (string, error) {
	return s.SubmitJob(ctx, &SubmitJobRequest{
		PrinterMAC:  rawMAC,
		PrinterType: printerType,
		Receipt:     testReceipt(),
	})
}

func testReceipt() model.ReceiptModel {
	price := decimal.NewFromFloat(12.50)
	return model.ReceiptModel{
		OrderNumber:   "TEST-" + time.Now().Format("150405"),
		CreatedAt:     time.Now(),
		OrderType:     model.OrderTypePickup,
		PaymentMethod: model.PaymentCard,
		Items: []model.ReceiptItem{
			{
				Name:      "Testitilaus",
				Quantity:  1,
				UnitPrice: price,
				LineTotal: price,
				Toppings: []model.Topping{
					{Name: "ääkköset ok: äöåÄÖÅ", Price: decimal.Zero},
				},
			},
		},
		Subtotal: price,
		Total:    price,
	}
}

// internal/repository/interfaces.go
package repository

import (
	"context"

	"print-service/internal/model"
)

// PrinterRepository persists the printer directory
type PrinterRepository interface {
	Upsert(ctx context.Context, printer *model.Printer) error
	GetByMAC(ctx context.Context, mac string) (*model.Printer, error)
	List(ctx context.Context) ([]*model.Printer, error)
}

// JobLogRepository records the print job audit trail
type JobLogRepository interface {
	Record(ctx context.Context, job *model.PrintJob, orderNumber string) error
	UpdateState(ctx context.Context, jobID string, state model.JobState) error
	CountByState(ctx context.Context) (map[model.JobState]int, error)
}

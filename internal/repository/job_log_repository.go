// internal/repository/job_log_repository.go
package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"print-service/internal/database"
	"print-service/internal/model"
	"print-service/internal/utils"
)

// jobLogRepository implements JobLogRepository interface
type jobLogRepository struct {
	db     *database.DB
	logger *utils.ServiceLogger
}

// NewJobLogRepository creates a new job log repository
func NewJobLogRepository(db *database.DB, logger *zap.Logger) JobLogRepository {
	return &jobLogRepository{
		db:     db,
		logger: utils.NewServiceLogger(logger, "job-log-repository"),
	}
}

// Record writes the audit row for a freshly queued job
func (r *jobLogRepository) Record(ctx context.Context, job *model.PrintJob, orderNumber string) error {
	query := `
		INSERT INTO print_job_log (id, printer_mac, family, state, order_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	args := []interface{}{
		job.ID, job.PrinterID, job.Family, job.State, orderNumber,
		job.CreatedAt, job.UpdatedAt,
	}

	start := time.Now()
	_, err := r.db.ExecContext(ctx, query, args...)
	r.logger.LogDatabaseQuery(query, args, time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to record print job: %w", err)
	}

	return nil
}

// UpdateState moves the audit row to the job's latest state
func (r *jobLogRepository) UpdateState(ctx context.Context, jobID string, state model.JobState) error {
	query := `UPDATE print_job_log SET state = $1, updated_at = $2 WHERE id = $3`
	args := []interface{}{state, time.Now(), jobID}

	start := time.Now()
	_, err := r.db.ExecContext(ctx, query, args...)
	r.logger.LogDatabaseQuery(query, args, time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to update print job state: %w", err)
	}

	return nil
}

// CountByState aggregates the audit trail by job state
func (r *jobLogRepository) CountByState(ctx context.Context) (map[model.JobState]int, error) {
	query := `SELECT state, COUNT(*) FROM print_job_log GROUP BY state`

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query)
	r.logger.LogDatabaseQuery(query, nil, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to count print jobs: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.JobState]int)
	for rows.Next() {
		var state model.JobState
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan job count: %w", err)
		}
		counts[state] = count
	}

	return counts, rows.Err()
}

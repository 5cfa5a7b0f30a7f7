// internal/repository/printer_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"print-service/internal/database"
	"print-service/internal/model"
	"print-service/internal/utils"
)

// printerRepository implements PrinterRepository interface
type printerRepository struct {
	db     *database.DB
	logger *utils.ServiceLogger
}

// NewPrinterRepository creates a new printer repository
func NewPrinterRepository(db *database.DB, logger *zap.Logger) PrinterRepository {
	return &printerRepository{
		db:     db,
		logger: utils.NewServiceLogger(logger, "printer-repository"),
	}
}

// Upsert records a printer sighting, creating the row on first contact
func (r *printerRepository) Upsert(ctx context.Context, printer *model.Printer) error {
	query := `
		INSERT INTO printers (mac, model, firmware, status_code, first_seen, last_poll_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (mac) DO UPDATE SET
			model = CASE WHEN EXCLUDED.model <> '' THEN EXCLUDED.model ELSE printers.model END,
			firmware = CASE WHEN EXCLUDED.firmware <> '' THEN EXCLUDED.firmware ELSE printers.firmware END,
			status_code = EXCLUDED.status_code,
			last_poll_at = EXCLUDED.last_poll_at
	`
	args := []interface{}{
		printer.ID, printer.Model, printer.Firmware, printer.StatusCode,
		printer.FirstSeen, printer.LastPollAt,
	}

	start := time.Now()
	_, err := r.db.ExecContext(ctx, query, args...)
	r.logger.LogDatabaseQuery(query, args, time.Since(start), err)

	if err != nil {
		return fmt.Errorf("failed to upsert printer: %w", err)
	}

	return nil
}

// GetByMAC retrieves a printer by its normalized MAC
func (r *printerRepository) GetByMAC(ctx context.Context, mac string) (*model.Printer, error) {
	query := `
		SELECT mac, model, firmware, status_code, first_seen, last_poll_at
		FROM printers WHERE mac = $1
	`

	printer := &model.Printer{}
	start := time.Now()
	err := r.db.QueryRowContext(ctx, query, mac).Scan(
		&printer.ID, &printer.Model, &printer.Firmware,
		&printer.StatusCode, &printer.FirstSeen, &printer.LastPollAt,
	)
	r.logger.LogDatabaseQuery(query, []interface{}{mac}, time.Since(start), err)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("printer not found with mac: %s", mac)
		}
		return nil, fmt.Errorf("failed to get printer: %w", err)
	}

	return printer, nil
}

// List retrieves all known printers ordered by most recent poll
func (r *printerRepository) List(ctx context.Context) ([]*model.Printer, error) {
	query := `
		SELECT mac, model, firmware, status_code, first_seen, last_poll_at
		FROM printers ORDER BY last_poll_at DESC
	`

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query)
	r.logger.LogDatabaseQuery(query, nil, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}
	defer rows.Close()

	var printers []*model.Printer
	for rows.Next() {
		printer := &model.Printer{}
		if err := rows.Scan(
			&printer.ID, &printer.Model, &printer.Firmware,
			&printer.StatusCode, &printer.FirstSeen, &printer.LastPollAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan printer: %w", err)
		}
		printers = append(printers, printer)
	}

	return printers, rows.Err()
}

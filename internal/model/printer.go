package model

import "time"

// Printer is a CloudPRNT device known to the service. Printers register
// themselves implicitly by polling; the descriptive fields hold whatever the
// firmware reported most recently.
type Printer struct {
	ID           string    `json:"id" db:"mac"`
	Model        string    `json:"model,omitempty" db:"model"`
	Firmware     string    `json:"firmware,omitempty" db:"firmware"`
	StatusCode   string    `json:"status_code,omitempty" db:"status_code"`
	Capabilities []string  `json:"capabilities,omitempty" db:"-"`
	FirstSeen    time.Time `json:"first_seen" db:"first_seen"`
	LastPollAt   time.Time `json:"last_poll_at" db:"last_poll_at"`
}

// PrinterInfo carries the optional descriptive fields of a poll payload
type PrinterInfo struct {
	Model        string   `json:"printerModel,omitempty"`
	Firmware     string   `json:"firmwareVersion,omitempty"`
	StatusCode   string   `json:"statusCode,omitempty"`
	Capabilities []string `json:"mediaTypes,omitempty"`
}

// PrinterSummary is the management API view of a printer
type PrinterSummary struct {
	ID           string    `json:"id"`
	Model        string    `json:"model,omitempty"`
	Capabilities []string  `json:"capabilities,omitempty"`
	LastPollAt   time.Time `json:"last_poll_at"`
	PendingJobs  int       `json:"pending_jobs"`
}

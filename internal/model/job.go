package model

import "time"

// CommandFamily selects the printer command set a job is rendered with
type CommandFamily string

const (
	FamilyStar   CommandFamily = "star"
	FamilyEscPos CommandFamily = "escpos"
)

// IsValid checks if the command family is recognized
func (f CommandFamily) IsValid() bool {
	return f == FamilyStar || f == FamilyEscPos
}

// JobState represents the lifecycle state of a print job
type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStatePrinting  JobState = "printing"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// IsTerminal reports whether no further state transition is allowed
func (s JobState) IsTerminal() bool {
	return s == JobStateCompleted || s == JobStateFailed
}

// CloudPRNT media types served to polling printers
const (
	MediaStarPRNT = "application/vnd.star.starprnt"
	MediaStarLine = "application/vnd.star.line"
)

// MediaTypesFor lists the content types a job of the given family can be
// delivered as, in preference order.
func MediaTypesFor(family CommandFamily) []string {
	if family == FamilyStar {
		return []string{MediaStarPRNT, MediaStarLine}
	}
	return []string{MediaStarLine}
}

// PrintJob is a queued receipt waiting to be pulled by a printer
type PrintJob struct {
	ID        string        `json:"id" db:"id"`
	PrinterID string        `json:"printer_id" db:"printer_mac"`
	Family    CommandFamily `json:"family" db:"family"`
	State     JobState      `json:"state" db:"state"`
	Receipt   *ReceiptModel `json:"receipt,omitempty" db:"-"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// QueueStats summarizes jobs by state
type QueueStats struct {
	Pending   int `json:"pending"`
	Printing  int `json:"printing"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// PollResponse is the CloudPRNT poll reply body
type PollResponse struct {
	JobReady     bool     `json:"jobReady"`
	MediaTypes   []string `json:"mediaTypes,omitempty"`
	JobToken     string   `json:"jobToken,omitempty"`
	DeleteMethod string   `json:"deleteMethod,omitempty"`
}

// PollRequest is the status payload a CloudPRNT printer posts while polling.
// The MAC can arrive in the URL path or under several body keys depending on
// printer firmware.
type PollRequest struct {
	MAC                string   `json:"mac"`
	MACAddress         string   `json:"macAddress"`
	PrinterMAC         string   `json:"printerMAC"`
	PrinterModel       string   `json:"printerModel"`
	Model              string   `json:"model"`
	MediaTypes         []string `json:"mediaTypes"`
	StatusCode         string   `json:"statusCode"`
	Status             string   `json:"status"`
	PrintingInProgress bool     `json:"printingInProgress"`
	ClientAction       any      `json:"clientAction,omitempty"`
}

// Identifier returns the first MAC field the printer supplied
func (r *PollRequest) Identifier() string {
	switch {
	case r.MAC != "":
		return r.MAC
	case r.MACAddress != "":
		return r.MACAddress
	default:
		return r.PrinterMAC
	}
}

// DeclaredModel returns the model name the printer reported, under whichever
// key its firmware uses
func (r *PollRequest) DeclaredModel() string {
	if r.PrinterModel != "" {
		return r.PrinterModel
	}
	return r.Model
}

// Package registry tracks CloudPRNT printers by normalized MAC address.
// Printers are never provisioned ahead of time; each poll upserts the sender.
package registry

import (
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"print-service/internal/model"
)

// ErrInvalidIdentifier means a printer identifier contained no hex digits
var ErrInvalidIdentifier = errors.New("printer identifier contains no hex digits")

// Normalize canonicalizes a printer MAC address. Every non-hex character is
// stripped, the surviving digits are grouped two at a time with colons and
// uppercased. Firmware variants sending "66:11:22:33:44:55", "6611.2233.4455"
// or "66-11-22-33-44-55" all normalize to the same key. A trailing odd digit
// keeps its own group rather than failing.
func Normalize(raw string) (string, error) {
	var hex []byte
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= '0' && c <= '9':
			hex = append(hex, c)
		case c >= 'a' && c <= 'f':
			hex = append(hex, c-'a'+'A')
		case c >= 'A' && c <= 'F':
			hex = append(hex, c)
		}
	}
	if len(hex) == 0 {
		return "", ErrInvalidIdentifier
	}

	var b strings.Builder
	b.Grow(len(hex) + len(hex)/2)
	for i := 0; i < len(hex); i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		end := i + 2
		if end > len(hex) {
			end = len(hex)
		}
		b.Write(hex[i:end])
	}
	return b.String(), nil
}

// Registry is a thread-safe in-memory printer directory
type Registry struct {
	mu       sync.RWMutex
	printers map[string]*model.Printer
	logger   *zap.Logger
	now      func() time.Time
}

// NewRegistry creates an empty printer registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		printers: make(map[string]*model.Printer),
		logger:   logger,
		now:      time.Now,
	}
}

// Upsert registers or refreshes a printer and returns its normalized id.
// Descriptive fields are overwritten only when the printer reported them.
func (r *Registry) Upsert(raw string, info model.PrinterInfo) (string, error) {
	id, err := Normalize(raw)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	p, ok := r.printers[id]
	if !ok {
		p = &model.Printer{ID: id, FirstSeen: now}
		r.printers[id] = p
		r.logger.Info("Printer registered", zap.String("printer_id", id), zap.String("model", info.Model))
	}
	if info.Model != "" {
		p.Model = info.Model
	}
	if info.Firmware != "" {
		p.Firmware = info.Firmware
	}
	if info.StatusCode != "" {
		p.StatusCode = info.StatusCode
	}
	if len(info.Capabilities) > 0 {
		p.Capabilities = append([]string(nil), info.Capabilities...)
	}
	p.LastPollAt = now
	return id, nil
}

// Get returns a copy of the printer with the given raw or normalized id
func (r *Registry) Get(raw string) (*model.Printer, bool) {
	id, err := Normalize(raw)
	if err != nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.printers[id]
	if !ok {
		return nil, false
	}
	return copyPrinter(p), true
}

// List returns copies of all known printers
func (r *Registry) List() []*model.Printer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Printer, 0, len(r.printers))
	for _, p := range r.printers {
		out = append(out, copyPrinter(p))
	}
	return out
}

func copyPrinter(p *model.Printer) *model.Printer {
	cp := *p
	if p.Capabilities != nil {
		cp.Capabilities = append([]string(nil), p.Capabilities...)
	}
	return &cp
}

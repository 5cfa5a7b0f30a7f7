// Package printer renders receipt models into raw thermal printer bytes.
// Two command families are supported, Star line mode and generic ESC/POS,
// sharing one layout routine driven by per-family command tables.
package printer

import (
	"errors"
	"fmt"

	"print-service/internal/model"
)

// ErrMalformedReceipt means the receipt model cannot be rendered
var ErrMalformedReceipt = errors.New("malformed receipt")

// Formatter renders receipts for one command family
type Formatter interface {
	Family() model.CommandFamily
	Render(m *model.ReceiptModel) ([]byte, error)
}

type formatter struct {
	family  model.CommandFamily
	cmds    *commandSet
	charset *Charset
	brand   Branding
}

// NewFormatter builds a formatter for the given family
func NewFormatter(family model.CommandFamily, brand Branding) (Formatter, error) {
	switch family {
	case model.FamilyStar:
		return &formatter{family: family, cmds: &STAR_COMMANDS, charset: StarCharset, brand: brand}, nil
	case model.FamilyEscPos:
		return &formatter{family: family, cmds: &ESC_POS_COMMANDS, charset: EscPosCharset, brand: brand}, nil
	default:
		return nil, fmt.Errorf("unknown command family %q", family)
	}
}

// Formatters builds the full family set sharing one branding
func Formatters(brand Branding) map[model.CommandFamily]Formatter {
	star, _ := NewFormatter(model.FamilyStar, brand)
	escpos, _ := NewFormatter(model.FamilyEscPos, brand)
	return map[model.CommandFamily]Formatter{
		model.FamilyStar:   star,
		model.FamilyEscPos: escpos,
	}
}

func (f *formatter) Family() model.CommandFamily {
	return f.family
}

// Render produces the raw command bytes for one receipt. Rendering is
// deterministic: the same model yields the same bytes.
func (f *formatter) Render(m *model.ReceiptModel) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil model", ErrMalformedReceipt)
	}
	if m.OrderNumber == "" {
		return nil, fmt.Errorf("%w: missing order number", ErrMalformedReceipt)
	}
	b := newBuilder(f.cmds, f.charset)
	renderReceipt(b, f.brand, m)
	return b.bytes(), nil
}

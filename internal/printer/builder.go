package printer

import (
	"bytes"
	"strings"
)

// paperWidth is the column count of an 80mm roll in font A. Double and
// triple sized rows divide it accordingly.
const paperWidth = 48

type alignment int

const (
	alignLeft alignment = iota
	alignCenter
	alignRight
)

// colTruncMarker replaces the tail of an over-long left column
const colTruncMarker = ".."

// builder accumulates raw printer bytes for one receipt
type builder struct {
	buf     bytes.Buffer
	cmds    *commandSet
	charset *Charset
	width   int // current effective width, tracks character size
}

func newBuilder(cmds *commandSet, charset *Charset) *builder {
	b := &builder{cmds: cmds, charset: charset, width: paperWidth}
	b.raw(cmds.INITIALIZE)
	b.raw(cmds.SELECT_CHARSET_PC850)
	b.raw(cmds.ALIGN_LEFT)
	b.size(1, 1)
	return b
}

func (b *builder) raw(cmd []byte) {
	b.buf.Write(cmd)
}

func (b *builder) align(a alignment) {
	switch a {
	case alignCenter:
		b.raw(b.cmds.ALIGN_CENTER)
	case alignRight:
		b.raw(b.cmds.ALIGN_RIGHT)
	default:
		b.raw(b.cmds.ALIGN_LEFT)
	}
}

func (b *builder) bold(on bool) {
	if on {
		b.raw(b.cmds.TEXT_BOLD_ON)
	} else {
		b.raw(b.cmds.TEXT_BOLD_OFF)
	}
}

func (b *builder) underline(on bool) {
	if on {
		b.raw(b.cmds.TEXT_UNDERLINE_ON)
	} else {
		b.raw(b.cmds.TEXT_UNDERLINE_OFF)
	}
}

func (b *builder) size(width, height int) {
	b.raw(b.cmds.TEXT_SIZE)
	b.buf.WriteByte(sizeByte(width, height))
	b.width = paperWidth / clampSize(width)
}

func (b *builder) text(s string) {
	b.buf.Write(b.charset.Encode(s))
}

func (b *builder) line(s string) {
	b.text(s)
	b.feed(1)
}

func (b *builder) feed(n int) {
	for i := 0; i < n; i++ {
		b.raw(b.cmds.LINE_FEED)
	}
}

func (b *builder) separator(ch string) {
	b.line(strings.Repeat(ch, b.width))
}

// twoColumn prints left and right on one row, right-aligned to the current
// width. The left text is truncated with ".." when both cannot fit.
func (b *builder) twoColumn(left, right string) {
	width := b.width
	leftMax := width - len([]rune(right))
	lr := []rune(left)
	if len(lr) > leftMax {
		if leftMax > len(colTruncMarker) {
			left = string(lr[:leftMax-len(colTruncMarker)]) + colTruncMarker
		} else {
			left = ""
		}
		lr = []rune(left)
	}
	pad := width - len(lr) - len([]rune(right))
	if pad < 0 {
		pad = 0
	}
	b.line(left + strings.Repeat(" ", pad) + right)
}

// wrapped prints text word-wrapped to the current width
func (b *builder) wrapped(text string) {
	for _, row := range wrapWords(text, b.width) {
		b.line(row)
	}
}

// qr emits a QR code for the given payload when the family supports it.
// Model 2, module size 8, error correction level L.
func (b *builder) qr(payload string) bool {
	if !b.cmds.QRSupported {
		return false
	}
	data := b.charset.Encode(payload)
	total := len(data) + 3
	pL := byte(total % 256)
	pH := byte(total / 256)

	b.raw([]byte{0x1D, 0x28, 0x6B, 0x04, 0x00, 0x31, 0x41, 0x32, 0x00}) // model 2
	b.raw([]byte{0x1D, 0x28, 0x6B, 0x03, 0x00, 0x31, 0x43, 0x08})       // module size
	b.raw([]byte{0x1D, 0x28, 0x6B, 0x03, 0x00, 0x31, 0x45, 0x30})       // ECC level L
	b.raw([]byte{0x1D, 0x28, 0x6B, pL, pH, 0x31, 0x50, 0x30})           // store
	b.buf.Write(data)
	b.raw([]byte{0x1D, 0x28, 0x6B, 0x03, 0x00, 0x31, 0x51, 0x30}) // print
	return true
}

func (b *builder) cut() {
	b.raw(b.cmds.CUT_PAPER)
}

func (b *builder) bytes() []byte {
	return b.buf.Bytes()
}

// wrapWords breaks text into rows no wider than width, splitting on spaces
// and hard-breaking words longer than a full row.
func wrapWords(text string, width int) []string {
	var rows []string
	var row string
	for _, word := range strings.Fields(text) {
		for len([]rune(word)) > width {
			if row != "" {
				rows = append(rows, row)
				row = ""
			}
			wr := []rune(word)
			rows = append(rows, string(wr[:width]))
			word = string(wr[width:])
		}
		switch {
		case row == "":
			row = word
		case len([]rune(row))+1+len([]rune(word)) <= width:
			row += " " + word
		default:
			rows = append(rows, row)
			row = word
		}
	}
	if row != "" {
		rows = append(rows, row)
	}
	return rows
}

package printer

// commandSet holds the raw command sequences for one printer family. The
// receipt layout is family-agnostic and emits everything through a table, so
// adding a family means adding a table, not a formatter.
type commandSet struct {
	// Basic commands
	INITIALIZE           []byte
	SELECT_CHARSET_PC850 []byte

	// Text formatting
	TEXT_BOLD_ON       []byte
	TEXT_BOLD_OFF      []byte
	TEXT_UNDERLINE_ON  []byte
	TEXT_UNDERLINE_OFF []byte

	// Text alignment
	ALIGN_LEFT   []byte
	ALIGN_CENTER []byte
	ALIGN_RIGHT  []byte

	// Paper handling
	LINE_FEED []byte
	CUT_PAPER []byte

	// GS ! prefix; the size byte is computed per call
	TEXT_SIZE []byte

	// QRSupported gates the GS ( k sequences
	QRSupported bool
}

// sizeByte encodes a GS ! character size: width in the high nibble, height in
// the low nibble, both zero-based.
func sizeByte(width, height int) byte {
	w := clampSize(width) - 1
	h := clampSize(height) - 1
	return byte(w<<4 | h)
}

func clampSize(n int) int {
	if n < 1 {
		return 1
	}
	if n > 8 {
		return 8
	}
	return n
}

// STAR_COMMANDS drives modern Star printers (TSP100IV family) in line mode
var STAR_COMMANDS = commandSet{
	// Basic commands
	INITIALIZE:           []byte{0x1B, 0x40},       // ESC @
	SELECT_CHARSET_PC850: []byte{0x1B, 0x74, 0x02}, // ESC t 2

	// Text formatting
	TEXT_BOLD_ON:       []byte{0x1B, 0x45, 0x01}, // ESC E 1
	TEXT_BOLD_OFF:      []byte{0x1B, 0x45, 0x00}, // ESC E 0
	TEXT_UNDERLINE_ON:  []byte{0x1B, 0x2D, 0x01}, // ESC - 1
	TEXT_UNDERLINE_OFF: []byte{0x1B, 0x2D, 0x00}, // ESC - 0

	// Text alignment
	ALIGN_LEFT:   []byte{0x1B, 0x61, 0x00}, // ESC a 0
	ALIGN_CENTER: []byte{0x1B, 0x61, 0x01}, // ESC a 1
	ALIGN_RIGHT:  []byte{0x1B, 0x61, 0x02}, // ESC a 2

	// Paper handling
	LINE_FEED: []byte{0x0A},             // LF
	CUT_PAPER: []byte{0x1D, 0x56, 0x00}, // GS V 0

	TEXT_SIZE: []byte{0x1D, 0x21}, // GS ! + n

	QRSupported: true,
}

// ESC_POS_COMMANDS drives generic ESC/POS thermal printers
var ESC_POS_COMMANDS = commandSet{
	// Basic commands
	INITIALIZE:           []byte{0x1B, 0x40},       // ESC @
	SELECT_CHARSET_PC850: []byte{0x1B, 0x74, 0x02}, // ESC t 2

	// Text formatting
	TEXT_BOLD_ON:       []byte{0x1B, 0x45, 0x01}, // ESC E 1
	TEXT_BOLD_OFF:      []byte{0x1B, 0x45, 0x00}, // ESC E 0
	TEXT_UNDERLINE_ON:  []byte{0x1B, 0x2D, 0x01}, // ESC - 1
	TEXT_UNDERLINE_OFF: []byte{0x1B, 0x2D, 0x00}, // ESC - 0

	// Text alignment
	ALIGN_LEFT:   []byte{0x1B, 0x61, 0x00}, // ESC a 0
	ALIGN_CENTER: []byte{0x1B, 0x61, 0x01}, // ESC a 1
	ALIGN_RIGHT:  []byte{0x1B, 0x61, 0x02}, // ESC a 2

	// Paper handling
	LINE_FEED: []byte{0x0A},             // LF
	CUT_PAPER: []byte{0x1D, 0x56, 0x01}, // GS V 1

	TEXT_SIZE: []byte{0x1D, 0x21}, // GS ! + n

	QRSupported: false,
}

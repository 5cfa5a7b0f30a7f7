package printer

// Charset translates receipt text into single-byte printer output. Both
// command families target code page 850, but their glyph coverage differs,
// so each family carries its own table.
type Charset struct {
	overrides map[rune]byte
	dropped   map[rune]bool
}

// Encode converts text to printer bytes. Mapped runes use their CP850 byte,
// plain ASCII passes through, dropped runes vanish and everything else
// becomes '?'.
func (c *Charset) Encode(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		if c.dropped[r] {
			continue
		}
		if b, ok := c.overrides[r]; ok {
			out = append(out, b)
			continue
		}
		if r < 0x80 {
			out = append(out, byte(r))
			continue
		}
		out = append(out, 0x3F)
	}
	return out
}

// finnishOverrides are the CP850 positions shared by both families
func finnishOverrides() map[rune]byte {
	return map[rune]byte{
		'ä': 0x84,
		'Ä': 0x8E,
		'ö': 0x94,
		'Ö': 0x99,
		'å': 0x86,
		'Å': 0x8F,
		'é': 0x82,
		'•': 0x07,
	}
}

// StarCharset renders the euro sign at its CP850 position 0xEE.
var StarCharset = func() *Charset {
	o := finnishOverrides()
	o['€'] = 0xEE
	return &Charset{overrides: o}
}()

// EscPosCharset drops the euro sign; the deployed ESC/POS firmware has no
// usable glyph for it.
var EscPosCharset = &Charset{
	overrides: finnishOverrides(),
	dropped:   map[rune]bool{'€': true},
}

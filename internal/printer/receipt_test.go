package printer

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"print-service/internal/model"
)

var testBrand = Branding{
	Name:    "BABYLON",
	Tagline: "RAVINTOLA",
	Address: "Vapaudenkatu 28, 15140 Lahti",
	Phone:   "+358-3781-2222",
	Website: "ravintolababylon.fi",
	QRLink:  "https://ravintolababylon.fi",
}

func sampleReceipt() *model.ReceiptModel {
	return &model.ReceiptModel{
		OrderNumber:   "1042",
		CreatedAt:     time.Date(2026, 8, 29, 18, 30, 0, 0, time.UTC),
		OrderType:     model.OrderTypeDelivery,
		PaymentMethod: model.PaymentCard,
		CustomerName:  "Matti Meikäläinen",
		CustomerPhone: "+358 40 123 4567",
		DeliveryAddress: "Esimerkkikatu 1\n15140 Lahti",
		Items: []model.ReceiptItem{
			{
				Name:      "Pizza Special (family)",
				Quantity:  1,
				UnitPrice: decimal.NewFromFloat(15.90),
				LineTotal: decimal.NewFromFloat(15.90),
				Toppings: []model.Topping{
					{Name: "juusto"},
					{Name: "salami", Price: decimal.NewFromFloat(1.00)},
					{Name: "aurajuusto", Price: decimal.NewFromFloat(1.50)},
				},
				Pricing: model.PricingRule{FreeToppingAllowance: 1},
				Notes:   "size: family; toppings: salami; ilman sipulia",
			},
		},
		Subtotal:    decimal.NewFromFloat(15.90),
		DeliveryFee: decimal.NewFromFloat(3.50),
		Total:       decimal.NewFromFloat(19.40),
	}
}

func render(t *testing.T, family model.CommandFamily, m *model.ReceiptModel) []byte {
	t.Helper()
	f, err := NewFormatter(family, testBrand)
	require.NoError(t, err)
	out, err := f.Render(m)
	require.NoError(t, err)
	return out
}

func TestRenderDeterministic(t *testing.T) {
	for _, family := range []model.CommandFamily{model.FamilyStar, model.FamilyEscPos} {
		a := render(t, family, sampleReceipt())
		b := render(t, family, sampleReceipt())
		assert.Equal(t, a, b, "family %s", family)
	}
}

func TestRenderStructure(t *testing.T) {
	out := render(t, model.FamilyStar, sampleReceipt())

	assert.True(t, bytes.HasPrefix(out, []byte{0x1B, 0x40}), "must start with initialize")
	assert.True(t, bytes.Contains(out, []byte{0x1B, 0x74, 0x02}), "must select CP850")
	assert.True(t, bytes.HasSuffix(out, []byte{0x1D, 0x56, 0x00}), "must end with cut")

	for _, label := range []string{"#1042", "KOTIINKULJETUS", "ASIAKASTIEDOT", "TUOTTEET", "YHTEENVETO", "Kiitos tilauksestasi!"} {
		assert.True(t, bytes.Contains(out, StarCharset.Encode(label)), "missing %q", label)
	}
}

func TestRenderFreeToppingMarker(t *testing.T) {
	out := render(t, model.FamilyStar, sampleReceipt())
	assert.True(t, bytes.Contains(out, []byte("ILMAINEN")), "first paid topping should print as free")
	// Second paid topping is family sized: 1.50 doubles to 3.00.
	assert.True(t, bytes.Contains(out, StarCharset.Encode("+3.00€")))
}

func TestRenderNotesCleaned(t *testing.T) {
	out := render(t, model.FamilyStar, sampleReceipt())
	assert.True(t, bytes.Contains(out, StarCharset.Encode("Huom: ilman sipulia")))
	assert.False(t, bytes.Contains(out, []byte("toppings:")))
}

func TestRenderFamiliesDiffer(t *testing.T) {
	star := render(t, model.FamilyStar, sampleReceipt())
	escpos := render(t, model.FamilyEscPos, sampleReceipt())

	assert.NotEqual(t, star, escpos)
	assert.True(t, bytes.HasSuffix(escpos, []byte{0x1D, 0x56, 0x01}), "escpos uses partial cut")
	assert.True(t, bytes.Contains(star, []byte{0x1D, 0x28, 0x6B}), "star carries QR sequences")
	assert.False(t, bytes.Contains(escpos, []byte{0x1D, 0x28, 0x6B}), "escpos has no QR support")
}

func TestRenderMalformed(t *testing.T) {
	f, err := NewFormatter(model.FamilyStar, testBrand)
	require.NoError(t, err)

	_, err = f.Render(nil)
	assert.ErrorIs(t, err, ErrMalformedReceipt)

	_, err = f.Render(&model.ReceiptModel{})
	assert.ErrorIs(t, err, ErrMalformedReceipt)
}

func TestNewFormatterUnknownFamily(t *testing.T) {
	_, err := NewFormatter("dotmatrix", testBrand)
	assert.Error(t, err)
}

func TestTwoColumnTruncation(t *testing.T) {
	b := newBuilder(&STAR_COMMANDS, StarCharset)
	b.twoColumn(strings.Repeat("A", 60), "12.50€")
	out := b.bytes()

	row := StarCharset.Encode(strings.Repeat("A", 40) + ".." + "12.50€")
	assert.True(t, bytes.Contains(out, row), "left column must truncate with ..")
}

func TestTwoColumnPadding(t *testing.T) {
	b := newBuilder(&STAR_COMMANDS, StarCharset)
	b.twoColumn("Välisumma:", "15.90€")
	out := b.bytes()

	assert.True(t, bytes.Contains(out, StarCharset.Encode("Välisumma:"+strings.Repeat(" ", 48-10-6)+"15.90€")))
}

func TestTwoColumnTracksCharacterSize(t *testing.T) {
	b := newBuilder(&STAR_COMMANDS, StarCharset)
	b.size(2, 2)
	b.twoColumn(strings.Repeat("B", 30), "9.90€")
	out := b.bytes()

	// Effective width halves at double size, so the left side truncates to fit 24 columns.
	row := StarCharset.Encode(strings.Repeat("B", 24-5-2) + ".." + "9.90€")
	assert.True(t, bytes.Contains(out, row))
}

func TestWrapWords(t *testing.T) {
	rows := wrapWords("ei sipulia ja tuplajuusto kiitos", 12)
	for _, row := range rows {
		assert.LessOrEqual(t, len([]rune(row)), 12)
	}
	assert.Equal(t, "ei sipulia", rows[0])

	rows = wrapWords(strings.Repeat("x", 30), 10)
	assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 10)}, rows)
}

func TestResolveItemSize(t *testing.T) {
	tests := []struct {
		name     string
		item     model.ReceiptItem
		wantName string
		wantSize string
	}{
		{"size in name", model.ReceiptItem{Name: "Pizza Special (family)"}, "Pizza Special (family)", "family"},
		{"size in notes", model.ReceiptItem{Name: "Kebab", Notes: "size: iso; extra"}, "Kebab (iso)", "iso"},
		{"normal size hidden", model.ReceiptItem{Name: "Kebab", Notes: "size: normal"}, "Kebab", "normal"},
		{"no size", model.ReceiptItem{Name: "Coca-Cola"}, "Coca-Cola", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, size := resolveItemSize(tt.item)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantSize, size)
		})
	}
}

func TestCleanItemNotes(t *testing.T) {
	assert.Equal(t, "ilman sipulia; hyvin paistettu",
		cleanItemNotes("size: family; toppings: salami, juusto; ilman sipulia; hyvin paistettu"))
	assert.Equal(t, "", cleanItemNotes("size: large"))
	assert.Equal(t, "", cleanItemNotes(""))
}

package printer

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"print-service/internal/model"
	"print-service/internal/pricing"
)

// Branding holds the restaurant identity printed on every receipt
type Branding struct {
	Name    string
	Tagline string
	Address string
	Phone   string
	Website string
	QRLink  string
}

// instructionsWrapWidth leaves room for the two-space indent
const instructionsWrapWidth = 46

// renderReceipt writes the full receipt layout through the builder. The
// layout is identical for every command family; the builder's table decides
// the bytes.
func renderReceipt(b *builder, brand Branding, m *model.ReceiptModel) {
	renderHeader(b, brand)
	renderOrderHead(b, m)
	renderCustomer(b, m)
	renderItems(b, m)
	renderInstructions(b, m)
	renderTotals(b, m)
	renderFooter(b, brand)
}

func renderHeader(b *builder, brand Branding) {
	b.align(alignCenter)
	b.feed(2)
	b.bold(true)
	b.size(3, 3)
	b.line(brand.Name)
	if brand.Tagline != "" {
		b.size(2, 2)
		b.line(brand.Tagline)
	}
	b.bold(false)
	b.size(1, 1)
	b.feed(1)
	if brand.Address != "" {
		b.line(brand.Address)
	}
	if brand.Phone != "" {
		b.line(brand.Phone)
	}
	b.feed(1)
	b.separator("-")
	b.feed(1)
}

func renderOrderHead(b *builder, m *model.ReceiptModel) {
	b.bold(true)
	b.size(3, 3)
	b.line("#" + m.OrderNumber)
	b.bold(false)
	b.size(1, 1)
	b.feed(1)

	b.line(m.CreatedAt.Format("02.01.2006") + " klo " + m.CreatedAt.Format("15.04"))
	b.feed(1)

	b.bold(true)
	b.size(2, 2)
	if m.OrderType == model.OrderTypeDelivery {
		b.line("KOTIINKULJETUS")
	} else {
		b.line("NOUTO")
	}
	b.size(1, 1)
	b.bold(false)
	b.feed(1)

	if m.PaymentMethod != "" {
		b.line("Maksutapa: " + model.TranslatePaymentMethod(m.PaymentMethod))
	}
	if m.TableNumber != "" {
		b.line("Pöytä: " + m.TableNumber)
	}

	b.feed(1)
	b.separator("-")
	b.feed(1)
}

func renderCustomer(b *builder, m *model.ReceiptModel) {
	if m.CustomerName == "" && m.CustomerPhone == "" && m.DeliveryAddress == "" {
		return
	}
	b.bold(true)
	b.underline(true)
	b.line("ASIAKASTIEDOT")
	b.underline(false)
	b.bold(false)
	b.feed(1)
	b.align(alignLeft)

	if m.CustomerName != "" {
		b.bold(true)
		b.text("Nimi: ")
		b.bold(false)
		b.line(m.CustomerName)
	}
	if m.CustomerPhone != "" {
		b.bold(true)
		b.text("Puh: ")
		b.bold(false)
		b.line(m.CustomerPhone)
	}
	if m.DeliveryAddress != "" {
		b.bold(true)
		b.line("Osoite:")
		b.bold(false)
		for _, row := range strings.Split(m.DeliveryAddress, "\n") {
			b.line("  " + strings.TrimSpace(row))
		}
	}

	b.feed(1)
	b.align(alignCenter)
	b.separator("-")
	b.feed(1)
}

func renderItems(b *builder, m *model.ReceiptModel) {
	b.align(alignCenter)
	b.bold(true)
	b.underline(true)
	b.line("TUOTTEET")
	b.underline(false)
	b.bold(false)
	b.separator("=")
	b.feed(1)

	b.align(alignLeft)
	for _, item := range m.Items {
		renderItem(b, item)
	}
}

func renderItem(b *builder, item model.ReceiptItem) {
	name, size := resolveItemSize(item)

	b.bold(true)
	b.size(2, 2)
	b.twoColumn(itemQuantityLabel(item.Quantity)+name, item.LineTotal.StringFixed(2)+"€")
	b.size(1, 1)
	b.bold(false)

	if len(item.Toppings) > 0 {
		b.line("  Lisätäytteet:")
		for _, t := range pricing.Adjust(item.Toppings, item.Pricing, size) {
			label := "    + " + t.Name
			switch {
			case t.Free:
				b.twoColumn(label, "ILMAINEN")
			case t.Price.GreaterThan(decimal.Zero):
				b.twoColumn(label, "+"+t.Price.StringFixed(2)+"€")
			default:
				b.line(label)
			}
		}
		b.feed(1)
	}

	if notes := cleanItemNotes(item.Notes); notes != "" {
		b.line("  Huom: " + notes)
	}

	b.line(strings.TrimRight(strings.Repeat("- ", b.width/2), " "))
}

func itemQuantityLabel(q int) string {
	if q < 1 {
		q = 1
	}
	return strconv.Itoa(q) + "x "
}

func renderInstructions(b *builder, m *model.ReceiptModel) {
	if m.SpecialInstructions == "" {
		return
	}
	b.feed(1)
	b.align(alignCenter)
	b.bold(true)
	b.line("ERIKOISOHJEET")
	b.bold(false)
	b.align(alignLeft)
	b.feed(1)

	for _, row := range wrapWords(m.SpecialInstructions, instructionsWrapWidth) {
		b.line("  " + row)
	}

	b.feed(1)
}

func renderTotals(b *builder, m *model.ReceiptModel) {
	b.align(alignCenter)
	b.separator("=")
	b.bold(true)
	b.underline(true)
	b.line("YHTEENVETO")
	b.underline(false)
	b.bold(false)
	b.separator("=")
	b.feed(1)

	b.align(alignLeft)
	b.size(2, 2)
	if !m.Subtotal.IsZero() {
		b.twoColumn("Välisumma:", m.Subtotal.StringFixed(2)+"€")
	}
	if m.DeliveryFee.GreaterThan(decimal.Zero) {
		b.twoColumn("Toimitusmaksu:", m.DeliveryFee.StringFixed(2)+"€")
	}
	if m.SmallOrderFee.GreaterThan(decimal.Zero) {
		b.twoColumn("Pientilauslisa:", m.SmallOrderFee.StringFixed(2)+"€")
	}
	if m.Discount.GreaterThan(decimal.Zero) {
		b.twoColumn("Alennus:", "-"+m.Discount.StringFixed(2)+"€")
	}
	b.size(1, 1)
	b.feed(1)

	b.bold(true)
	b.size(3, 3)
	b.twoColumn("YHTEENSÄ:", m.Total.StringFixed(2)+"€")
	b.size(1, 1)
	b.bold(false)
}

func renderFooter(b *builder, brand Branding) {
	b.feed(2)
	b.align(alignCenter)
	b.separator("=")
	b.feed(1)

	b.line("Kiitos tilauksestasi!")
	b.line("Tervetuloa uudelleen!")
	b.feed(2)

	if brand.QRLink != "" && b.qr(brand.QRLink) {
		b.feed(2)
	}
	if brand.Website != "" {
		b.line(brand.Website)
	}
	b.feed(3)
	b.cut()
}

// resolveItemSize finds the item's size for pricing. A parenthesized suffix
// on the name wins, then a "size:" segment in the notes. The returned name
// keeps the size visible unless it is the plain one.
func resolveItemSize(item model.ReceiptItem) (name, size string) {
	name = strings.TrimSpace(item.Name)
	if open := strings.LastIndex(name, " ("); open > 0 && strings.HasSuffix(name, ")") {
		size = strings.TrimSpace(name[open+2 : len(name)-1])
		base := strings.TrimSpace(name[:open])
		if size != "" {
			return base + " (" + size + ")", size
		}
		return base, ""
	}
	if size = sizeFromNotes(item.Notes); size != "" {
		if low := strings.ToLower(size); low != "normal" && low != "regular" {
			return name + " (" + size + ")", size
		}
	}
	return name, size
}

func sizeFromNotes(notes string) string {
	for _, part := range strings.Split(notes, ";") {
		part = strings.TrimSpace(part)
		if len(part) > 5 && strings.EqualFold(part[:5], "size:") {
			return strings.TrimSpace(part[5:])
		}
	}
	return ""
}

// cleanItemNotes strips the machine-written "size:" and "toppings:" segments
// and rejoins the rest for the Huom line.
func cleanItemNotes(notes string) string {
	if notes == "" {
		return ""
	}
	var kept []string
	for _, part := range strings.Split(notes, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		low := strings.ToLower(part)
		if strings.Contains(low, "size:") || strings.Contains(low, "toppings:") {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "; ")
}

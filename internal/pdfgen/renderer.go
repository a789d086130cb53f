// Package pdfgen renders estimate documents as PDFs. Two variants exist:
// the internal copy shows per-line detail and the subtotal, the customer
// copy hides both and presents only descriptions and amounts.
package pdfgen

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-pdf/fpdf"

	"mowquote/internal/config"
	"mowquote/internal/pricing"
	"mowquote/internal/types"
)

// Variant selects which estimate rendering to produce.
type Variant string

const (
	// VariantInternal includes rate details and the subtotal line.
	VariantInternal Variant = "internal"
	// VariantCustomer is the copy sent to the customer.
	VariantCustomer Variant = "customer"
)

// ParseVariant maps a query-string value to a Variant. Empty defaults to the
// customer copy.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "", string(VariantCustomer):
		return VariantCustomer, nil
	case string(VariantInternal):
		return VariantInternal, nil
	default:
		return "", types.NewAppError(
			types.ErrCodeValidationFailed,
			fmt.Sprintf("unknown pdf variant %q", s),
			nil,
		)
	}
}

// EstimateDoc carries everything a rendered estimate shows.
type EstimateDoc struct {
	Customer types.Customer
	Services types.ServiceSelection
	AreaSqFt int64
	Rate     float64
	Quote    pricing.Quote
	Date     time.Time
}

// Renderer produces estimate PDFs branded with the company info.
type Renderer struct {
	company config.CompanyConfig
}

func NewRenderer(company config.CompanyConfig) *Renderer {
	return &Renderer{company: company}
}

// Brand colors carried over from the estimate form.
var (
	brandGreen = [3]int{39, 174, 96}
	textDark   = [3]int{44, 62, 80}
	textMuted  = [3]int{127, 140, 141}
)

// Render produces the PDF bytes for the given document and variant.
func (r *Renderer) Render(doc EstimateDoc, variant Variant) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	r.renderHeader(pdf)
	r.renderPaymentInfo(pdf)
	r.renderBillTo(pdf, doc)
	r.renderServiceTable(pdf, doc, variant)
	r.renderTotals(pdf, doc, variant)
	r.renderNotes(pdf, doc)
	r.renderFooter(pdf, doc)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalRender, "failed to render estimate pdf", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) renderHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(brandGreen[0], brandGreen[1], brandGreen[2])
	pdf.CellFormat(0, 14, r.company.Name, "", 1, "C", false, 0, "")

	pdf.SetDrawColor(brandGreen[0], brandGreen[1], brandGreen[2])
	pdf.SetLineWidth(0.8)
	pdf.Line(10, pdf.GetY()+2, 200, pdf.GetY()+2)
	pdf.Ln(8)
}

func (r *Renderer) renderPaymentInfo(pdf *fpdf.Fpdf) {
	pdf.SetFillColor(248, 250, 255)
	pdf.SetDrawColor(209, 217, 230)
	pdf.SetLineWidth(0.2)
	pdf.Rect(10, pdf.GetY(), 190, 16, "FD")

	pdf.SetXY(14, pdf.GetY()+3)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(61, 149, 206)
	pdf.CellFormat(0, 5, "Venmo Payment Info:", "", 1, "L", false, 0, "")

	pdf.SetX(14)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(textDark[0], textDark[1], textDark[2])
	pdf.CellFormat(0, 5, "User: "+r.company.PaymentHandle, "", 1, "L", false, 0, "")
	pdf.Ln(8)
}

func (r *Renderer) renderBillTo(pdf *fpdf.Fpdf, doc EstimateDoc) {
	top := pdf.GetY()

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(textMuted[0], textMuted[1], textMuted[2])
	pdf.CellFormat(95, 4, "BILL TO:", "", 1, "L", false, 0, "")

	name := doc.Customer.Name
	if name == "" {
		name = "Valued Customer"
	}
	address := doc.Customer.Address
	if address == "" {
		address = "Service Address"
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(textDark[0], textDark[1], textDark[2])
	pdf.CellFormat(95, 6, name, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(95, 5, address, "", 1, "L", false, 0, "")
	if doc.Customer.Email != "" {
		pdf.CellFormat(95, 5, doc.Customer.Email, "", 1, "L", false, 0, "")
	}
	if doc.Customer.Phone != "" {
		pdf.CellFormat(95, 5, doc.Customer.Phone, "", 1, "L", false, 0, "")
	}

	// Right column: estimate date.
	pdf.SetXY(105, top)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(textMuted[0], textMuted[1], textMuted[2])
	pdf.CellFormat(95, 4, "ESTIMATE DETAILS:", "", 1, "R", false, 0, "")
	pdf.SetX(105)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(textDark[0], textDark[1], textDark[2])
	date := doc.Date
	if date.IsZero() {
		date = time.Now()
	}
	pdf.CellFormat(95, 5, "Date: "+date.Format("01/02/2006"), "", 1, "R", false, 0, "")

	pdf.SetY(top + 28)
}

// tableRow is one billed service line.
type tableRow struct {
	description string
	details     string
	amount      float64
}

func (r *Renderer) serviceRows(doc EstimateDoc) []tableRow {
	var rows []tableRow

	if doc.Services.Mowing {
		details := fmt.Sprintf("%s sq ft @ $%v/sq ft", humanize.Comma(doc.AreaSqFt), doc.Rate)
		if doc.Quote.MinimumApplied {
			details = "Min. Charge"
		}
		rows = append(rows, tableRow{
			description: "Lawn Mowing & Maintenance",
			details:     details,
			amount:      doc.Quote.AreaCost,
		})
	}
	if doc.Services.Shrubs {
		rows = append(rows, tableRow{
			description: "Shrub Trimming",
			details:     "Flat Fee",
			amount:      doc.Services.ShrubPrice,
		})
	}
	if doc.Services.Cleanup {
		rows = append(rows, tableRow{
			description: "Lawn Clean-up",
			details:     "Flat Fee",
			amount:      doc.Services.CleanupPrice,
		})
	}
	return rows
}

func (r *Renderer) renderServiceTable(pdf *fpdf.Fpdf, doc EstimateDoc, variant Variant) {
	showDetails := variant == VariantInternal

	descW, detailsW, amountW := 90.0, 60.0, 40.0
	if !showDetails {
		descW, detailsW, amountW = 150.0, 0.0, 40.0
	}

	pdf.SetFillColor(248, 249, 250)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(textDark[0], textDark[1], textDark[2])
	pdf.CellFormat(descW, 8, "Description", "B", 0, "L", true, 0, "")
	if showDetails {
		pdf.CellFormat(detailsW, 8, "Details", "B", 0, "R", true, 0, "")
	}
	pdf.CellFormat(amountW, 8, "Amount", "B", 1, "R", true, 0, "")

	for _, row := range r.serviceRows(doc) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(descW, 8, row.description, "B", 0, "L", false, 0, "")
		if showDetails {
			pdf.SetFont("Helvetica", "", 10)
			pdf.CellFormat(detailsW, 8, row.details, "B", 0, "R", false, 0, "")
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(amountW, 8, fmt.Sprintf("$%.2f", pricing.RoundCurrency(row.amount)), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(10)
}

func (r *Renderer) renderTotals(pdf *fpdf.Fpdf, doc EstimateDoc, variant Variant) {
	boxW := 70.0
	left := 200 - boxW
	total := pricing.RoundCurrency(doc.Quote.Total)

	pdf.SetX(left)
	if variant == VariantInternal {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(textDark[0], textDark[1], textDark[2])
		pdf.CellFormat(boxW/2, 6, "Subtotal:", "", 0, "L", false, 0, "")
		pdf.CellFormat(boxW/2, 6, fmt.Sprintf("$%.2f", total), "", 1, "R", false, 0, "")
		pdf.SetX(left)
	}

	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(brandGreen[0], brandGreen[1], brandGreen[2])
	pdf.CellFormat(boxW/2, 8, "Total:", "T", 0, "L", false, 0, "")
	pdf.CellFormat(boxW/2, 8, fmt.Sprintf("$%.2f", total), "T", 1, "R", false, 0, "")
	pdf.Ln(6)
}

func (r *Renderer) renderNotes(pdf *fpdf.Fpdf, doc EstimateDoc) {
	if doc.Customer.Notes == "" {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(brandGreen[0], brandGreen[1], brandGreen[2])
	pdf.CellFormat(0, 5, "NOTES:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(textDark[0], textDark[1], textDark[2])
	pdf.MultiCell(0, 5, doc.Customer.Notes, "", "L", false)
	pdf.Ln(6)
}

func (r *Renderer) renderFooter(pdf *fpdf.Fpdf, doc EstimateDoc) {
	pdf.SetDrawColor(brandGreen[0], brandGreen[1], brandGreen[2])
	pdf.SetLineWidth(0.6)
	pdf.Line(10, pdf.GetY(), 200, pdf.GetY())
	pdf.Ln(4)

	top := pdf.GetY()

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(brandGreen[0], brandGreen[1], brandGreen[2])
	pdf.CellFormat(63, 4, "CONTACT US", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetTextColor(textDark[0], textDark[1], textDark[2])
	pdf.CellFormat(63, 6, r.company.Phone, "", 1, "L", false, 0, "")

	pdf.SetXY(73, top)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(brandGreen[0], brandGreen[1], brandGreen[2])
	pdf.CellFormat(63, 4, "SERVICE LOCATION", "", 1, "C", false, 0, "")
	pdf.SetX(73)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(textDark[0], textDark[1], textDark[2])
	address := doc.Customer.Address
	if address == "" {
		address = "Property Address"
	}
	pdf.CellFormat(63, 6, address, "", 1, "C", false, 0, "")

	pdf.SetXY(137, top)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(brandGreen[0], brandGreen[1], brandGreen[2])
	pdf.CellFormat(63, 4, "NEXT STEPS", "", 1, "R", false, 0, "")
	pdf.SetX(137)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(textDark[0], textDark[1], textDark[2])
	pdf.CellFormat(63, 5, "Call or text to schedule your service.", "", 1, "R", false, 0, "")
	pdf.SetX(137)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(231, 76, 60)
	pdf.CellFormat(63, 5, fmt.Sprintf("This estimate is valid for %d days.", r.company.EstimateValidDays), "", 1, "R", false, 0, "")
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SafeFileName collapses a customer name into filename-safe characters.
// Empty names fall back to "Customer".
func SafeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Customer"
	}
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// FileName builds the download filename for a rendered estimate.
func FileName(customerName string, variant Variant) string {
	if variant == VariantInternal {
		return "Sharp_Internal_" + SafeFileName(customerName) + ".pdf"
	}
	return "Estimate_" + SafeFileName(customerName) + ".pdf"
}

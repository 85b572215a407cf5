// Package report renders the downloadable revenue leak report.
package report

import (
	"bytes"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// DefaultShopName is used when the shop has no name.
const DefaultShopName = "Your Store"

const (
	headerHeight = 120.0
	marginLeft   = 50.0
	title        = "Revenue Leak Report"
)

// brandGreen is #008060.
var brandGreen = [3]int{0, 128, 96}

// Document is a rendered PDF report.
type Document struct {
	Filename string
	Content  []byte
}

// ContentDisposition returns the inline disposition header for the document.
func (d *Document) ContentDisposition() string {
	if v := mime.FormatMediaType("inline", map[string]string{"filename": d.Filename}); v != "" {
		return v
	}
	return "inline"
}

// RenderShopReport renders the one-page report header for a shop. Only the
// shop identity is printed; scan results are not part of the document.
func RenderShopReport(shopName string, generatedAt time.Time) (*Document, error) {
	shopName = strings.TrimSpace(shopName)
	if shopName == "" {
		shopName = DefaultShopName
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(marginLeft, marginLeft, marginLeft)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetSubject(shopName, true)
	pdf.SetCreationDate(generatedAt)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := pdf.GetPageSize()

	pdf.SetFillColor(brandGreen[0], brandGreen[1], brandGreen[2])
	pdf.Rect(0, 0, pageWidth, headerHeight, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.SetXY(marginLeft, 45)
	pdf.CellFormat(0, 28, title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 14)
	pdf.SetXY(marginLeft, 85)
	pdf.CellFormat(0, 14, tr(shopName), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	return &Document{
		Filename: shopName + "-revenue-leak-report.pdf",
		Content:  buf.Bytes(),
	}, nil
}

// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/siemens/ipreport/types"
)

// DefaultTitle is the title banner of rendered documents.
const DefaultTitle = "Advance IP Scanner Report"

// Page layout in millimeters.
const (
	pageBreakMargin = 15
	headerHeight    = 10
	lineHeight      = 8
	labelWidth      = 40
)

// Artifact is a rendered document.
type Artifact struct {
	Name  string // suggested file name
	Data  []byte
	Pages int
}

// Renderer renders result sets into PDF documents.
type Renderer struct {
	title    string
	compress bool
}

// RendererOption can be passed to NewRenderer.
type RendererOption func(*Renderer)

// NewRenderer returns a new Renderer, optionally configured using
// [WithTitle] and [WithoutCompression].
func NewRenderer(options ...RendererOption) *Renderer {
	r := &Renderer{
		title:    DefaultTitle,
		compress: true,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// WithTitle sets the title banner.
func WithTitle(title string) RendererOption {
	return func(r *Renderer) {
		r.title = title
	}
}

// WithoutCompression leaves the page content streams uncompressed, so that
// the rendered text can be inspected.
func WithoutCompression() RendererOption {
	return func(r *Renderer) {
		r.compress = false
	}
}

// Render the results into a PDF document, stamped with the specified time.
// Each record gets its own block with one line per attribute; blocks might
// span page breaks.
func (r *Renderer) Render(results types.ResultSet, ts time.Time) (Artifact, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetCreationDate(ts)
	pdf.SetModificationDate(ts)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(r.title, true)
	pdf.SetAutoPageBreak(true, pageBreakMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, headerHeight, tr(r.title), "", 1, "C", false, 0, "")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, headerHeight,
		"Report generated on: "+ts.Format("2006-01-02 15:04:05"), "", 1, "", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetFillColor(200, 220, 255)
	for idx, rec := range results {
		pdf.CellFormat(0, headerHeight,
			fmt.Sprintf("IP %d: %s", idx+1, tr(rec.Address)), "", 1, "L", true, 0, "")
		pdf.Ln(3)
		for _, field := range rec.Fields() {
			pdf.CellFormat(labelWidth, lineHeight, Label(field.Name)+":", "", 0, "", false, 0, "")
			pdf.CellFormat(0, lineHeight, tr(field.Value.String()), "", 1, "", false, 0, "")
		}
		pdf.Ln(5)
	}

	var buff bytes.Buffer
	if err := pdf.Output(&buff); err != nil {
		return Artifact{}, fmt.Errorf("cannot render report, reason: %w", err)
	}
	return Artifact{
		Name:  ArtifactName(ts),
		Data:  buff.Bytes(),
		Pages: pdf.PageCount(),
	}, nil
}

// ArtifactName returns the document name for the specified time, in the form
// of “ip_report_YYYYMMDD_HHMMSS.pdf”.
func ArtifactName(ts time.Time) string {
	return "ip_report_" + ts.Format("20060102_150405") + ".pdf"
}

// Label returns the display label of a record field name: underscores become
// spaces, the first letter gets upper-cased and the rest lower-cased.
func Label(name string) string {
	if name == "" {
		return ""
	}
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ToUpper(name[:1]) + strings.ToLower(name[1:])
}

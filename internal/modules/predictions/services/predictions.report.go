package services

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"sofimed-core/internal/modules/predictions/dto"

	"github.com/jung-kurt/gofpdf"
)

//go:embed templates/report.html.tmpl
var templatesFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html.tmpl").
		Funcs(template.FuncMap{"percent": formatPercent, "signed": formatSigned}).
		ParseFS(templatesFS, "templates/report.html.tmpl"),
)

func formatPercent(p float64) string {
	return fmt.Sprintf("%.1f %%", p*100)
}

func formatSigned(v float64) string {
	return fmt.Sprintf("%+.2f", v)
}

// RenderHTML rapport HTML, toutes les valeurs échappées par html/template
func RenderHTML(report dto.Report) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return "", fmt.Errorf("rendu du rapport: %w", err)
	}
	return buf.String(), nil
}

// RenderPDF version imprimable; police standard, texte converti en cp1252
func RenderPDF(report dto.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Analyse prédictive "+report.DevisReference, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr("Analyse prédictive du devis "+report.DevisReference))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		"Client : " + report.ClientNom,
		"Montant : " + report.Montant,
		fmt.Sprintf("Probabilité d'acceptation : %s (niveau %s)", formatPercent(report.Probabilite), report.Niveau),
		fmt.Sprintf("Négociation : %d tour(s), tendance %s", report.Tours, report.Momentum),
	}
	for _, line := range lines {
		pdf.Cell(0, 7, tr(line))
		pdf.Ln(7)
	}

	if len(report.Facteurs) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(70, 7, tr("Facteur"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, "Impact", "1", 0, "R", false, 0, "")
		pdf.CellFormat(95, 7, tr("Détail"), "1", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		for _, f := range report.Facteurs {
			pdf.CellFormat(70, 6, tr(trim(f.Nom, 40)), "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 6, formatSigned(f.Impact), "1", 0, "R", false, 0, "")
			pdf.CellFormat(95, 6, tr(trim(f.Description, 55)), "1", 1, "L", false, 0, "")
		}
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 5, tr("Généré le "+report.CreatedAt.Format("02/01/2006 15:04")))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendu PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func trim(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

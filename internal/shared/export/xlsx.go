package export

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet une feuille: en-têtes puis lignes
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
	Widths  map[string]float64 // colonne ("A") -> largeur
}

// BuildWorkbook produit un classeur xlsx, une feuille par entrée, dans l'ordre
func BuildWorkbook(sheets []Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("classeur sans feuille")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E79"}},
	})
	if err != nil {
		return nil, fmt.Errorf("style en-tête: %w", err)
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return nil, fmt.Errorf("renommage feuille %s: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, fmt.Errorf("création feuille %s: %w", sheet.Name, err)
		}

		if err := writeSheet(f, sheet, headerStyle); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("écriture classeur: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet Sheet, headerStyle int) error {
	if len(sheet.Headers) > 0 {
		if err := f.SetSheetRow(sheet.Name, "A1", &sheet.Headers); err != nil {
			return fmt.Errorf("en-têtes %s: %w", sheet.Name, err)
		}
		last, err := excelize.CoordinatesToCellName(len(sheet.Headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet.Name, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("style en-têtes %s: %w", sheet.Name, err)
		}
	}

	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
			return fmt.Errorf("ligne %d de %s: %w", i+2, sheet.Name, err)
		}
	}

	for col, width := range sheet.Widths {
		if err := f.SetColWidth(sheet.Name, col, col, width); err != nil {
			return fmt.Errorf("largeur colonne %s: %w", col, err)
		}
	}
	return nil
}

// SendXLSX envoie le classeur en pièce jointe, nom suffixé par la date du jour
func SendXLSX(c *gin.Context, prefix string, content []byte) {
	filename := fmt.Sprintf("%s_%s.xlsx", prefix, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, XLSXContentType, content)
}

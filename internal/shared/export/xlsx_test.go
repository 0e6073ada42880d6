package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestBuildWorkbook(t *testing.T) {
	content, err := BuildWorkbook([]Sheet{
		{Name: "Devis", Headers: []string{"Référence", "Montant"}, Rows: [][]interface{}{
			{"DEV-001", 1234.5},
			{"DEV-002", 99},
		}, Widths: map[string]float64{"A": 18}},
		{Name: "Synthèse", Headers: []string{"Total"}, Rows: [][]interface{}{{2}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("workbook must be readable: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Devis" || sheets[1] != "Synthèse" {
		t.Fatalf("unexpected sheets: %v", sheets)
	}

	rows, err := f.GetRows("Devis")
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "Référence" || rows[2][0] != "DEV-002" {
		t.Fatalf("unexpected rows: %v", rows)
	}
}

func TestBuildWorkbookRequiresSheets(t *testing.T) {
	if _, err := BuildWorkbook(nil); err == nil {
		t.Fatalf("expected an error for an empty workbook")
	}
}

package services

import (
	"context"
	"testing"
	"time"

	"editais-platform/models"
)

type fakeLister struct {
	editais []models.Edital
}

func (f *fakeLister) ListAll(ctx context.Context) ([]models.Edital, error) {
	return f.editais, nil
}

func str(s string) *string   { return &s }
func num(v float64) *float64 { return &v }
func boolean(v bool) *bool   { return &v }

func TestBuildWorkbook(t *testing.T) {
	lister := &fakeLister{editais: []models.Edital{
		{
			ID:               "uuid-1",
			Link:             "https://cnpq.br/edital.pdf",
			Origem:           "CNPq",
			ExtractionStatus: models.ExtractionStatusCompleted,
			CreatedAt:        time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
			ConsolidatedVariables: &models.Variables{
				ApelidoEdital: str("Chamada CNPq 10/2026"),
				Financiador1:  str("CNPq"),
				ValorMax:      num(500000),
				Custeio:       boolean(true),
			},
		},
		{
			ID:               "uuid-2",
			Link:             "https://fapesq.br/edital.pdf",
			Origem:           "FAPESQ",
			ExtractionStatus: models.ExtractionStatusPending,
			CreatedAt:        time.Date(2026, 8, 2, 10, 0, 0, 0, time.UTC),
		},
	}}

	es := NewExportService(lister)
	f, count, err := es.BuildWorkbook(context.Background())
	if err != nil {
		t.Fatalf("BuildWorkbook: %v", err)
	}
	defer f.Close()

	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	header, err := f.GetCellValue("Editais", "B1")
	if err != nil || header != "apelido_edital" {
		t.Errorf("B1 = %q (%v), want apelido_edital", header, err)
	}

	apelido, _ := f.GetCellValue("Editais", "B2")
	if apelido != "Chamada CNPq 10/2026" {
		t.Errorf("B2 = %q", apelido)
	}

	// Edital without consolidated variables still exports its
	// bookkeeping fields.
	link, _ := f.GetCellValue("Editais", "X3")
	if link != "https://fapesq.br/edital.pdf" {
		t.Errorf("X3 = %q", link)
	}
	status, _ := f.GetCellValue("Editais", "Z3")
	if status != models.ExtractionStatusPending {
		t.Errorf("Z3 = %q", status)
	}
}

func TestEditalRowMatchesColumns(t *testing.T) {
	row := editalRow(models.Edital{ID: "x"})
	if len(row) != len(editalColumns) {
		t.Fatalf("row has %d values for %d columns", len(row), len(editalColumns))
	}
}

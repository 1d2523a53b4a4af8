package scrapers

import (
	"fmt"
	"testing"
	"time"
)

func fapesqFixture(description string) []byte {
	return []byte(fmt.Sprintf(`
<html><body>
<article class="tileItem">
  <a class="summary url" href="https://fapesq.rpp.br/editais/edital-01-2025/view">Edital 01/2025 - Apoio a Startups</a>
  <span class="description">Submissões %s. Recursos de contrapartida estadual.</span>
  <span class="summary-view-icon">10/01/2025</span>
</article>
<article class="tileItem">
  <a class="summary url" href="/editais/edital-02-2025/view">Edital 02/2025 - Bolsas</a>
  <span class="description">Fluxo contínuo, sem data de encerramento.</span>
</article>
</body></html>`, description))
}

func TestFAPESQParseListing(t *testing.T) {
	s := &FAPESQScraper{}

	rows, err := s.parseListing(fapesqFixture("até 30/12/2099"), Options{})
	if err != nil {
		t.Fatalf("parseListing: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	first := rows[0]
	if first.Title != "Edital 01/2025 - Apoio a Startups" {
		t.Errorf("title = %q", first.Title)
	}
	if first.PDFURL != "https://fapesq.rpp.br/editais/edital-01-2025" {
		t.Errorf("pdf url = %q, /view suffix should be stripped", first.PDFURL)
	}
	if first.Deadline == nil || first.Deadline.Format("2006-01-02") != "2099-12-30" {
		t.Errorf("deadline = %v", first.Deadline)
	}

	// Relative href resolved against the listing origin
	if rows[1].PDFURL != "https://fapesq.rpp.br/editais/edital-02-2025" {
		t.Errorf("relative pdf url = %q", rows[1].PDFURL)
	}
	if rows[1].Deadline != nil {
		t.Errorf("continuous-flow call should have nil deadline, got %v", rows[1].Deadline)
	}
}

func TestFAPESQDateFilter(t *testing.T) {
	s := &FAPESQScraper{}

	past := time.Now().AddDate(0, -2, 0).Format("02/01/2006")
	rows, err := s.parseListing(fapesqFixture("até "+past), Options{FilterByDate: true})
	if err != nil {
		t.Fatalf("parseListing: %v", err)
	}

	// The expired call drops, the one without a parseable date stays
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Title != "Edital 02/2025 - Bolsas" {
		t.Errorf("surviving row = %q", rows[0].Title)
	}
}

func TestFAPESQRangeTakesClosingDate(t *testing.T) {
	s := &FAPESQScraper{}

	rows, err := s.parseListing(fapesqFixture("12/03/2099 a 31/03/2099"), Options{})
	if err != nil {
		t.Fatalf("parseListing: %v", err)
	}
	if rows[0].Deadline == nil || rows[0].Deadline.Format("2006-01-02") != "2099-03-31" {
		t.Errorf("deadline = %v, want closing date of the range", rows[0].Deadline)
	}
}

package scrapers

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Publicado em 09/06/2025", "2025-06-09", true},
		{"Publicado em 09.06.2025", "2025-06-09", true},
		{"em 09/06/25", "2025-06-09", true},
		{"data: 31/02/2025", "", false},
		{"sem data nenhuma", "", false},
		{"mês 13: 01/13/2025", "", false},
	}

	for _, tt := range tests {
		got, ok := parseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("parseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got.Format("2006-01-02") != tt.want {
			t.Errorf("parseDate(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
		}
	}
}

func TestParseDateRejectsImpossibleDay(t *testing.T) {
	if _, ok := parseDate("32/01/2025"); ok {
		t.Error("day 32 accepted")
	}
}

func TestLastDate(t *testing.T) {
	got, ok := lastDate("Inscrições de 01/02/2025 até 30/04/2025")
	if !ok {
		t.Fatal("expected a date")
	}
	if got.Format("2006-01-02") != "2025-04-30" {
		t.Errorf("lastDate = %s, want 2025-04-30", got.Format("2006-01-02"))
	}
}

func TestDeadlineFromText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"ate form", "Submissões até 30/12/2025", "2025-12-30", true},
		{"range takes closing date", "Inscrições 12/03/2025 a 31/03/2025", "2025-03-31", true},
		{"de N a date", "de 12 a 31/03/2025", "2025-03-31", true},
		{"no deadline phrasing", "Edital de fluxo contínuo", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := deadlineFromText(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got.Format("2006-01-02") != tt.want {
				t.Errorf("deadline = %s, want %s", got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestFirstYear(t *testing.T) {
	if got := firstYear("Chamadas públicas 2026 - abertas"); got != 2026 {
		t.Errorf("firstYear = %d, want 2026", got)
	}
	if got := firstYear("sem ano aqui"); got != 0 {
		t.Errorf("firstYear = %d, want 0", got)
	}
}

func TestAdmit(t *testing.T) {
	past := time.Now().AddDate(0, -1, 0)
	future := time.Now().AddDate(0, 1, 0)

	if admit(Options{FilterByDate: true}, &past) {
		t.Error("past deadline admitted under filter")
	}
	if !admit(Options{FilterByDate: true}, &future) {
		t.Error("future deadline rejected under filter")
	}
	if !admit(Options{FilterByDate: true}, nil) {
		t.Error("unknown deadline must be admitted under filter")
	}
	if !admit(Options{FilterByDate: false}, &past) {
		t.Error("past deadline rejected without filter")
	}
}

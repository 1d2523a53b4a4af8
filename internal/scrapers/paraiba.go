package scrapers

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"editais-platform/internal/fetcher"
)

const paraibaListingURL = "https://paraiba.pb.gov.br/diretas/secretaria-da-ciencia-tecnologia-inovacao-e-ensino-superior/edital"

// ParaibaScraper collects the PDF links published directly on the
// state science secretariat page.
type ParaibaScraper struct {
	fetch *fetcher.Fetcher
}

func NewParaiba(f *fetcher.Fetcher) *ParaibaScraper {
	return &ParaibaScraper{fetch: f}
}

func (s *ParaibaScraper) Name() string   { return "paraiba_gov" }
func (s *ParaibaScraper) Origin() string { return "Governo da Paraíba" }

func (s *ParaibaScraper) Scrape(ctx context.Context, opts Options) ([]ScrapedEdital, error) {
	body, err := s.fetch.FetchListing(ctx, paraibaListingURL)
	if err != nil {
		return nil, fmt.Errorf("paraiba listing: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("paraiba parse: %w", err)
	}

	var rows []ScrapedEdital

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href := link.AttrOr("href", "")
		if !strings.HasSuffix(strings.ToLower(strings.TrimSpace(href)), ".pdf") {
			return
		}

		absolute := CleanURL(AbsoluteURL(paraibaListingURL, href))
		title := pdfLinkTitle(link, absolute)

		// Dates here are publication dates ("em 09/06/25"), often with
		// two-digit years; the filter keeps current-year publications.
		year := 0
		if d, ok := parseDate(link.Parent().Text()); ok {
			year = d.Year()
		}
		if !admitYear(opts, year) {
			return
		}

		rows = append(rows, ScrapedEdital{
			Title:   title,
			PDFURL:  absolute,
			PageURL: paraibaListingURL,
		})
	})

	return dedupe(rows), nil
}

// pdfLinkTitle tries the link text, then the parent text, then a
// titleized filename.
func pdfLinkTitle(link *goquery.Selection, absolute string) string {
	if t := strings.TrimSpace(link.Text()); len(t) > 3 {
		return t
	}
	if t := strings.TrimSpace(link.Parent().Text()); len(t) > 3 && len(t) < 200 {
		return t
	}
	return titleizeFilename(absolute)
}

func titleizeFilename(rawURL string) string {
	base := path.Base(rawURL)
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)

	words := strings.Fields(strings.ToLower(base))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

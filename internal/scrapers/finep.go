package scrapers

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"editais-platform/internal/fetcher"
	"editais-platform/internal/logger"
)

const finepListingURL = "http://www.finep.gov.br/chamadas-publicas?situacao=aberta"

var finepDetailRe = regexp.MustCompile(`/chamadas-publicas/chamadapublica/\d+`)

// FINEPScraper follows each open call's detail page to find the PDFs.
type FINEPScraper struct {
	fetch *fetcher.Fetcher
}

func NewFINEP(f *fetcher.Fetcher) *FINEPScraper {
	return &FINEPScraper{fetch: f}
}

func (s *FINEPScraper) Name() string   { return "finep" }
func (s *FINEPScraper) Origin() string { return "FINEP" }

func (s *FINEPScraper) Scrape(ctx context.Context, opts Options) ([]ScrapedEdital, error) {
	body, err := s.fetch.FetchListing(ctx, finepListingURL)
	if err != nil {
		return nil, fmt.Errorf("finep listing: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("finep parse: %w", err)
	}

	type candidate struct {
		title    string
		pageURL  string
		deadline *time.Time
	}
	var candidates []candidate
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href := link.AttrOr("href", "")
		if !finepDetailRe.MatchString(href) {
			return
		}

		title := strings.TrimSpace(link.Text())
		if len(title) < 5 {
			return
		}

		pageURL := CleanURL(AbsoluteURL(finepListingURL, href))
		if seen[pageURL] {
			return
		}
		seen[pageURL] = true

		var deadline *time.Time
		if d, ok := lastDate(link.Parent().Text()); ok {
			deadline = &d
		}
		if !admit(opts, deadline) {
			return
		}

		candidates = append(candidates, candidate{title: title, pageURL: pageURL, deadline: deadline})
	})

	var rows []ScrapedEdital
	for _, cand := range candidates {
		pdfs, err := s.detailPDFs(ctx, cand.pageURL)
		if err != nil {
			logger.Warn("FINEP detail page failed", "url", cand.pageURL, "error", err)
			continue
		}
		for _, pdfURL := range pdfs {
			rows = append(rows, ScrapedEdital{
				Title:    cand.title,
				PDFURL:   pdfURL,
				PageURL:  cand.pageURL,
				Deadline: cand.deadline,
			})
		}
	}

	return dedupe(rows), nil
}

func (s *FINEPScraper) detailPDFs(ctx context.Context, pageURL string) ([]string, error) {
	body, err := s.fetch.FetchListing(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var pdfs []string
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href := link.AttrOr("href", "")
		if strings.HasSuffix(strings.ToLower(href), ".pdf") {
			pdfs = append(pdfs, CleanURL(AbsoluteURL(pageURL, href)))
		}
	})

	return pdfs, nil
}

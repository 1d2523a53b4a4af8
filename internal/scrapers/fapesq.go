package scrapers

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"editais-platform/internal/fetcher"
)

const fapesqListingURL = "https://fapesq.rpp.br/editais/editais-abertos"

// FAPESQScraper reads the Plone tile listing of open FAPESQ-PB calls.
type FAPESQScraper struct {
	fetch *fetcher.Fetcher
}

func NewFAPESQ(f *fetcher.Fetcher) *FAPESQScraper {
	return &FAPESQScraper{fetch: f}
}

func (s *FAPESQScraper) Name() string   { return "fapesq" }
func (s *FAPESQScraper) Origin() string { return "FAPESQ" }

func (s *FAPESQScraper) Scrape(ctx context.Context, opts Options) ([]ScrapedEdital, error) {
	body, err := s.fetch.FetchListing(ctx, fapesqListingURL)
	if err != nil {
		return nil, fmt.Errorf("fapesq listing: %w", err)
	}
	return s.parseListing(body, opts)
}

func (s *FAPESQScraper) parseListing(body []byte, opts Options) ([]ScrapedEdital, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fapesq parse: %w", err)
	}

	var rows []ScrapedEdital

	doc.Find("article.tileItem").Each(func(_ int, item *goquery.Selection) {
		link := item.Find("a.summary.url").First()
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		title := strings.TrimSpace(link.Text())
		description := strings.TrimSpace(item.Find("span.description").Text())

		// Plone appends /view to document URLs; the bare URL serves the file
		pdfURL := strings.TrimSuffix(AbsoluteURL(fapesqListingURL, href), "/view")

		var deadline *time.Time
		if d, ok := deadlineFromText(description); ok {
			deadline = &d
		}
		if !admit(opts, deadline) {
			return
		}

		rows = append(rows, ScrapedEdital{
			Title:    title,
			PDFURL:   CleanURL(pdfURL),
			PageURL:  AbsoluteURL(fapesqListingURL, href),
			Deadline: deadline,
		})
	})

	return dedupe(rows), nil
}

package scrapers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"editais-platform/internal/fetcher"
	"editais-platform/internal/logger"
)

const confapListingURL = "https://confap.org.br/pt/editais/status=em-andamento"

// CONFAPScraper walks the national council listing. Each call has a
// detail page; the actual documents hide behind download links there.
type CONFAPScraper struct {
	fetch *fetcher.Fetcher
}

func NewCONFAP(f *fetcher.Fetcher) *CONFAPScraper {
	return &CONFAPScraper{fetch: f}
}

func (s *CONFAPScraper) Name() string   { return "confap" }
func (s *CONFAPScraper) Origin() string { return "CONFAP" }

func (s *CONFAPScraper) Scrape(ctx context.Context, opts Options) ([]ScrapedEdital, error) {
	body, err := s.fetch.FetchListing(ctx, confapListingURL)
	if err != nil {
		return nil, fmt.Errorf("confap listing: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("confap parse: %w", err)
	}

	type candidate struct {
		title   string
		pageURL string
	}
	var candidates []candidate

	doc.Find("a").Each(func(_ int, link *goquery.Selection) {
		if !strings.EqualFold(strings.TrimSpace(link.Text()), "ver detalhes") {
			return
		}
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		block := link.Closest("div, li, article")
		title := ""
		for _, tag := range []string{"h2", "h3", "h4"} {
			if heading := block.Find(tag).First(); heading.Length() > 0 {
				title = strings.TrimSpace(heading.Text())
				break
			}
		}

		if !admitYear(opts, firstYear(block.Text())) {
			return
		}

		candidates = append(candidates, candidate{
			title:   title,
			pageURL: CleanURL(AbsoluteURL(confapListingURL, href)),
		})
	})

	var rows []ScrapedEdital
	for _, cand := range candidates {
		pdfs, err := s.detailPDFs(ctx, cand.pageURL)
		if err != nil {
			logger.Warn("CONFAP detail page failed", "url", cand.pageURL, "error", err)
			continue
		}
		for _, pdfURL := range pdfs {
			rows = append(rows, ScrapedEdital{
				Title:   cand.title,
				PDFURL:  pdfURL,
				PageURL: cand.pageURL,
			})
		}
	}

	return dedupe(rows), nil
}

// detailPDFs prefers explicit download links, falling back to any .pdf
// anchor on the detail page.
func (s *CONFAPScraper) detailPDFs(ctx context.Context, pageURL string) ([]string, error) {
	body, err := s.fetch.FetchListing(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var downloads, pdfs []string
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href := link.AttrOr("href", "")
		lower := strings.ToLower(href)
		absolute := CleanURL(AbsoluteURL(pageURL, href))
		if strings.Contains(lower, "download") {
			downloads = append(downloads, absolute)
		} else if strings.HasSuffix(lower, ".pdf") {
			pdfs = append(pdfs, absolute)
		}
	})

	if len(downloads) > 0 {
		return downloads, nil
	}
	return pdfs, nil
}

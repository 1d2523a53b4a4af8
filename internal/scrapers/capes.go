package scrapers

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"editais-platform/internal/fetcher"
)

const (
	capesListingURL = "https://www.gov.br/capes/pt-br/acesso-a-informacao/licitacoes-e-contratos/chamadas-publicas/chamadas"
	capesBaseURL    = "https://www.gov.br"
)

var capesYearHeadingRe = regexp.MustCompile(`(?i)chamadas\s+p[úu]blicas\s+(\d{4})`)

// CAPESScraper reads the gov.br page where calls are grouped under
// per-year headings.
type CAPESScraper struct {
	fetch *fetcher.Fetcher
}

func NewCAPES(f *fetcher.Fetcher) *CAPESScraper {
	return &CAPESScraper{fetch: f}
}

func (s *CAPESScraper) Name() string   { return "capes" }
func (s *CAPESScraper) Origin() string { return "CAPES" }

func (s *CAPESScraper) Scrape(ctx context.Context, opts Options) ([]ScrapedEdital, error) {
	body, err := s.fetch.FetchListing(ctx, capesListingURL)
	if err != nil {
		return nil, fmt.Errorf("capes listing: %w", err)
	}
	return s.parseListing(body, opts)
}

func (s *CAPESScraper) parseListing(body []byte, opts Options) ([]ScrapedEdital, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("capes parse: %w", err)
	}

	var rows []ScrapedEdital

	doc.Find("h2, h3").Each(func(_ int, heading *goquery.Selection) {
		m := capesYearHeadingRe.FindStringSubmatch(heading.Text())
		if m == nil {
			return
		}
		year, _ := strconv.Atoi(m[1])
		if !admitYear(opts, year) {
			return
		}

		// Links live in the sibling container that follows the heading
		heading.NextUntil("h2, h3").Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			href := link.AttrOr("href", "")
			lower := strings.ToLower(href)
			if !strings.HasSuffix(lower, ".pdf") && !strings.Contains(lower, "-pdf") {
				return
			}

			rows = append(rows, ScrapedEdital{
				Title:   strings.TrimSpace(link.Text()),
				PDFURL:  CleanURL(AbsoluteURL(capesBaseURL, href)),
				PageURL: capesListingURL,
			})
		})
	})

	return dedupe(rows), nil
}

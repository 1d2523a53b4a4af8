package scrapers

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"editais-platform/internal/fetcher"
	"editais-platform/internal/logger"
)

const cnpqListingURL = "http://memoria2.cnpq.br/web/guest/chamadas-publicas?p_p_id=resultadosportlet_WAR_resultadoscnpqportlet_INSTANCE_0ZaM&filtro=abertas/"

// CNPqScraper reads the open calls portlet on the CNPq memoria portal.
type CNPqScraper struct {
	fetch *fetcher.Fetcher
}

func NewCNPq(f *fetcher.Fetcher) *CNPqScraper {
	return &CNPqScraper{fetch: f}
}

func (s *CNPqScraper) Name() string   { return "cnpq" }
func (s *CNPqScraper) Origin() string { return "CNPq" }

func (s *CNPqScraper) Scrape(ctx context.Context, opts Options) ([]ScrapedEdital, error) {
	body, err := s.fetch.FetchListing(ctx, cnpqListingURL)
	if err != nil {
		return nil, fmt.Errorf("cnpq listing: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cnpq parse: %w", err)
	}

	var rows []ScrapedEdital

	doc.Find("div.links-normas").Each(func(_ int, block *goquery.Selection) {
		block.Find("a.btn").Each(func(_ int, link *goquery.Selection) {
			href, ok := link.Attr("href")
			if !ok || strings.TrimSpace(href) == "" {
				return
			}

			title := strings.TrimSpace(link.AttrOr("title", ""))
			if title == "" {
				title = titleFromContainer(block)
			}
			if title == "" {
				title = strings.TrimSpace(link.Text())
			}

			deadline := containerDeadline(block)
			if !admit(opts, deadline) {
				return
			}

			rows = append(rows, ScrapedEdital{
				Title:    title,
				PDFURL:   CleanURL(AbsoluteURL(cnpqListingURL, href)),
				PageURL:  cnpqListingURL,
				Deadline: deadline,
			})
		})
	})

	// The portlet markup shifts between portal updates; fall back to
	// any anchor pointing at the results host.
	if len(rows) == 0 {
		doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
			href := link.AttrOr("href", "")
			if !strings.Contains(href, "resultado.cnpq.br") {
				return
			}
			rows = append(rows, ScrapedEdital{
				Title:   strings.TrimSpace(link.Text()),
				PDFURL:  CleanURL(AbsoluteURL(cnpqListingURL, href)),
				PageURL: cnpqListingURL,
			})
		})
		logger.Warn("CNPq primary selector matched nothing, used fallback", "links", len(rows))
	}

	return dedupe(rows), nil
}

// titleFromContainer walks up from the links block to the call title,
// which sits in a heading of the surrounding content node.
func titleFromContainer(block *goquery.Selection) string {
	parent := block.Closest("div.content, li, article")
	if parent.Length() == 0 {
		parent = block.Parent()
	}
	for _, tag := range []string{"h4", "h3", "h2"} {
		if heading := parent.Find(tag).First(); heading.Length() > 0 {
			if t := strings.TrimSpace(heading.Text()); t != "" {
				return t
			}
		}
	}
	return ""
}

func containerDeadline(block *goquery.Selection) *time.Time {
	parent := block.Closest("div.content, li, article")
	if parent.Length() == 0 {
		parent = block.Parent()
	}
	if d, ok := lastDate(parent.Text()); ok {
		return &d
	}
	return nil
}

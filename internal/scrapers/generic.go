package scrapers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"editais-platform/internal/fetcher"
	"editais-platform/internal/logger"
)

// completionClient is the slice of the AI client this adapter needs.
type completionClient interface {
	Complete(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error)
}

var (
	positiveKeywords = []string{"edital", "chamada", "seleção pública", "selecao publica", "chamadas públicas", "chamadas publicas", "portaria"}
	negativeKeywords = []string{"resultado", "homologação", "homologacao", "errata", "retificação", "retificacao", "encerrado"}
)

// minStaticAnchors is the threshold below which the page is assumed to
// be JS-rendered and handed to a headless browser.
const minStaticAnchors = 5

const linkValidationSystem = "Você é um assistente que identifica links de editais e chamadas públicas de fomento à pesquisa. " +
	"Responda APENAS com um array JSON de números, sem texto adicional."

// GenericScraper is an LLM-assisted adapter for sources without stable
// markup. It scores anchors by keyword, optionally renders the page in
// a headless browser, and asks the model to confirm candidates.
type GenericScraper struct {
	fetch      *fetcher.Fetcher
	llm        completionClient
	name       string
	origin     string
	listingURL string
}

// NewCNPqAI targets the CNPq portal through the generic pipeline,
// useful when the portlet markup drifts faster than the fixed adapter.
func NewCNPqAI(f *fetcher.Fetcher, llm completionClient) *GenericScraper {
	return &GenericScraper{
		fetch:      f,
		llm:        llm,
		name:       "cnpq_ai",
		origin:     "CNPq",
		listingURL: cnpqListingURL,
	}
}

func (s *GenericScraper) Name() string   { return s.name }
func (s *GenericScraper) Origin() string { return s.origin }

type candidateLink struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	URL   string `json:"url"`
}

func (s *GenericScraper) Scrape(ctx context.Context, opts Options) ([]ScrapedEdital, error) {
	body, err := s.fetch.FetchListing(ctx, s.listingURL)
	if err != nil {
		return nil, fmt.Errorf("%s listing: %w", s.name, err)
	}

	candidates, anchorCount, err := s.extractCandidates(body)
	if err != nil {
		return nil, err
	}

	if anchorCount < minStaticAnchors {
		logger.Info("Few static anchors, rendering with headless browser",
			"source", s.name, "anchors", anchorCount)
		if html, renderErr := s.renderedHTML(ctx); renderErr == nil {
			if rendered, n, parseErr := s.extractCandidates([]byte(html)); parseErr == nil && n > anchorCount {
				candidates = rendered
			}
		} else {
			logger.Warn("Headless render failed, keeping static result",
				"source", s.name, "error", renderErr)
		}
	}

	candidates = s.validateWithLLM(ctx, candidates)

	var rows []ScrapedEdital
	for _, cand := range candidates {
		if fetcher.IsPDF(cand.URL, "", nil) {
			rows = append(rows, ScrapedEdital{
				Title:   cand.Text,
				PDFURL:  cand.URL,
				PageURL: s.listingURL,
			})
			continue
		}

		pdfs, err := s.pagePDFs(ctx, cand.URL)
		if err != nil {
			logger.Warn("Candidate page failed", "source", s.name, "url", cand.URL, "error", err)
			continue
		}
		for _, pdfURL := range pdfs {
			rows = append(rows, ScrapedEdital{
				Title:   cand.Text,
				PDFURL:  pdfURL,
				PageURL: cand.URL,
			})
		}
	}

	return dedupe(rows), nil
}

// extractCandidates scores every anchor on the page; positive keyword
// hits add, negative hits subtract double. Only net-positive anchors
// survive.
func (s *GenericScraper) extractCandidates(body []byte) ([]candidateLink, int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("%s parse: %w", s.name, err)
	}

	var candidates []candidateLink
	seen := make(map[string]bool)
	anchorCount := 0

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		anchorCount++
		href := strings.TrimSpace(link.AttrOr("href", ""))
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}

		text := strings.TrimSpace(link.Text())
		if scoreCandidate(text, href) <= 0 {
			return
		}

		cleaned := CleanURL(AbsoluteURL(s.listingURL, href))
		if seen[cleaned] {
			return
		}
		seen[cleaned] = true

		candidates = append(candidates, candidateLink{
			Index: len(candidates),
			Text:  text,
			URL:   cleaned,
		})
	})

	return candidates, anchorCount, nil
}

func scoreCandidate(text, href string) int {
	haystack := strings.ToLower(text + " " + href)
	score := 0
	for _, kw := range positiveKeywords {
		if strings.Contains(haystack, kw) {
			score++
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(haystack, kw) {
			score -= 2
		}
	}
	return score
}

// validateWithLLM asks the model which candidates really point at a
// funding call. On any failure the heuristic result stands.
func (s *GenericScraper) validateWithLLM(ctx context.Context, candidates []candidateLink) []candidateLink {
	if len(candidates) == 0 || s.llm == nil {
		return candidates
	}

	payload, err := json.Marshal(candidates)
	if err != nil {
		return candidates
	}

	user := fmt.Sprintf("Dos links abaixo, quais apontam para um edital ou chamada pública aberta "+
		"(não resultados, erratas ou retificações)? Responda com um array JSON dos campos \"index\" válidos.\n\n%s", payload)

	reply, err := s.llm.Complete(ctx, linkValidationSystem, user, 0, 500)
	if err != nil {
		logger.Warn("LLM link validation failed, keeping heuristic candidates",
			"source", s.name, "error", err)
		return candidates
	}

	var indices []int
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &indices); err != nil {
		logger.Warn("LLM link validation returned unparsable reply", "source", s.name)
		return candidates
	}

	valid := make(map[int]bool, len(indices))
	for _, idx := range indices {
		valid[idx] = true
	}

	var filtered []candidateLink
	for _, cand := range candidates {
		if valid[cand.Index] {
			filtered = append(filtered, cand)
		}
	}
	if len(filtered) == 0 {
		return candidates
	}
	return filtered
}

func (s *GenericScraper) pagePDFs(ctx context.Context, pageURL string) ([]string, error) {
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
		lower := strings.ToLower(href)
		if strings.HasSuffix(lower, ".pdf") || strings.Contains(lower, "download") {
			pdfs = append(pdfs, CleanURL(AbsoluteURL(pageURL, href)))
		}
	})

	return pdfs, nil
}

func (s *GenericScraper) renderedHTML(ctx context.Context) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, 60*time.Second)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(s.listingURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	return html, err
}

// stripCodeFence removes a surrounding ```json fence when present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

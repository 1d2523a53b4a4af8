package scrapers

import (
	"context"
	"sort"
	"sync"
	"time"
)

// ScrapedEdital is one funding call discovered on a listing page.
// Deadline stays nil when the listing does not expose a parseable date.
type ScrapedEdital struct {
	Title    string
	PDFURL   string
	PageURL  string
	Deadline *time.Time
}

// Options controls a scrape run.
type Options struct {
	// FilterByDate drops calls whose deadline is known and already past.
	// Calls without a parseable date are always admitted.
	FilterByDate bool
}

// Scraper discovers open funding calls for one source.
type Scraper interface {
	// Name is the registry tag used in job names and API routes.
	Name() string
	// Origin is the display name stored on editais from this source.
	Origin() string
	Scrape(ctx context.Context, opts Options) ([]ScrapedEdital, error)
}

// Registry holds the configured scrapers keyed by tag.
type Registry struct {
	mu       sync.RWMutex
	scrapers map[string]Scraper
}

func NewRegistry() *Registry {
	return &Registry{scrapers: make(map[string]Scraper)}
}

func (r *Registry) Register(s Scraper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrapers[s.Name()] = s
}

func (r *Registry) Get(name string) (Scraper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scrapers[name]
	return s, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.scrapers))
	for name := range r.scrapers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// admit applies the shared date filter rule: unknown deadlines pass,
// known deadlines must not be in the past.
func admit(opts Options, deadline *time.Time) bool {
	if !opts.FilterByDate || deadline == nil {
		return true
	}
	today := time.Now().Truncate(24 * time.Hour)
	return !deadline.Before(today)
}

// admitYear is the variant for sources that only expose a year: the
// call stays in while the year is current or future.
func admitYear(opts Options, year int) bool {
	if !opts.FilterByDate || year == 0 {
		return true
	}
	return year >= time.Now().Year()
}

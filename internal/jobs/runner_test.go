package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"editais-platform/internal/scrapers"
	"editais-platform/models"
)

type fakeScraper struct {
	name   string
	origin string
	items  []scrapers.ScrapedEdital
	err    error
}

func (f *fakeScraper) Name() string   { return f.name }
func (f *fakeScraper) Origin() string { return f.origin }
func (f *fakeScraper) Scrape(ctx context.Context, opts scrapers.Options) ([]scrapers.ScrapedEdital, error) {
	return f.items, f.err
}

type fakeFetcher struct {
	failFor map[string]error
}

func (f *fakeFetcher) FetchPDF(ctx context.Context, url string) ([]byte, string, error) {
	if err, ok := f.failFor[url]; ok {
		return nil, "", err
	}
	return []byte("%PDF-1.4 conteudo"), "application/pdf", nil
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(ctx context.Context, content []byte) (string, error) {
	return "texto extraído", nil
}

type fakeProcessor struct {
	mu      sync.Mutex
	calls   []string
	release chan struct{} // non-nil blocks each call until closed
}

func (f *fakeProcessor) ProcessDocument(ctx context.Context, editalID, pdfURL, text string) (map[string]interface{}, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, pdfURL)
	f.mu.Unlock()
	return map[string]interface{}{"uuid": editalID, "link": pdfURL}, nil
}

func (f *fakeProcessor) processed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type memEditalWriter struct {
	mu       sync.Mutex
	metadata map[string]map[string]interface{}
	failed   []string
}

func (m *memEditalWriter) Upsert(ctx context.Context, link, origem string) (string, error) {
	return "edital-" + link, nil
}

func (m *memEditalWriter) SetSourceMetadata(ctx context.Context, editalID string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.metadata == nil {
		m.metadata = make(map[string]map[string]interface{})
	}
	m.metadata[editalID] = fields
	return nil
}

func (m *memEditalWriter) MarkFailed(ctx context.Context, editalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed = append(m.failed, editalID)
	return nil
}

type memJobWriter struct {
	mu   sync.Mutex
	jobs map[string]models.JobExecution
}

func newMemJobWriter() *memJobWriter {
	return &memJobWriter{jobs: make(map[string]models.JobExecution)}
}

func (m *memJobWriter) Create(ctx context.Context, job *models.JobExecution) error {
	return m.Save(ctx, job)
}

func (m *memJobWriter) Save(ctx context.Context, job *models.JobExecution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memJobWriter) GetByID(ctx context.Context, id string) (*models.JobExecution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &job, nil
}

func newTestRunner(scraper scrapers.Scraper, fetch pdfFetcher, jobs *memJobWriter, editais *memEditalWriter, proc *fakeProcessor) *Runner {
	registry := scrapers.NewRegistry()
	registry.Register(scraper)
	return NewRunner(registry, fetch, fakeExtractor{}, proc, editais, jobs, 0)
}

func waitFinished(t *testing.T, jobs *memJobWriter, id string) *models.JobExecution {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jobs.GetByID(context.Background(), id)
		if err == nil && job.Finished() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return nil
}

func TestRunJobCompletes(t *testing.T) {
	scraper := &fakeScraper{name: "cnpq", origin: "CNPq", items: []scrapers.ScrapedEdital{
		{Title: "Chamada 1", PDFURL: "https://x.br/1.pdf"},
		{Title: "Chamada 2", PDFURL: "https://x.br/2.pdf"},
	}}
	jobs := newMemJobWriter()
	proc := &fakeProcessor{}
	runner := newTestRunner(scraper, &fakeFetcher{}, jobs, &memEditalWriter{}, proc)

	job, err := runner.StartJob(context.Background(), "cnpq", scrapers.Options{}, TriggerManual)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	final := waitFinished(t, jobs, job.ID)
	if final.Status != models.JobStatusCompleted {
		t.Fatalf("status = %s, want completed (%s)", final.Status, final.ResultSummary)
	}
	if final.Processed != 2 || final.Total != 2 || final.Progress != 100 {
		t.Errorf("processed=%d total=%d progress=%.0f", final.Processed, final.Total, final.Progress)
	}
	if final.JobName != "cnpq_scraping_manual" {
		t.Errorf("job name = %q, want the trigger suffix", final.JobName)
	}
	if got := proc.processed(); len(got) != 2 {
		t.Errorf("processor calls = %v", got)
	}
}

func TestJobNameCarriesTrigger(t *testing.T) {
	scraper := &fakeScraper{name: "cnpq", origin: "CNPq"}
	jobs := newMemJobWriter()
	runner := newTestRunner(scraper, &fakeFetcher{}, jobs, &memEditalWriter{}, &fakeProcessor{})

	job, err := runner.StartJob(context.Background(), "cnpq", scrapers.Options{}, TriggerScheduled)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	if job.JobName != "cnpq_scraping_scheduled" {
		t.Errorf("scheduled job name = %q", job.JobName)
	}
	waitFinished(t, jobs, job.ID)

	job, err = runner.StartJob(context.Background(), "cnpq", scrapers.Options{}, "")
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	if job.JobName != "cnpq_scraping_manual" {
		t.Errorf("default job name = %q", job.JobName)
	}
	waitFinished(t, jobs, job.ID)
}

func TestStartJobRejectsConcurrentSameSource(t *testing.T) {
	scraper := &fakeScraper{name: "finep", origin: "FINEP", items: []scrapers.ScrapedEdital{
		{PDFURL: "https://x.br/1.pdf"},
	}}
	jobs := newMemJobWriter()
	proc := &fakeProcessor{release: make(chan struct{})}
	runner := newTestRunner(scraper, &fakeFetcher{}, jobs, &memEditalWriter{}, proc)

	job, err := runner.StartJob(context.Background(), "finep", scrapers.Options{}, TriggerManual)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	if _, err := runner.StartJob(context.Background(), "finep", scrapers.Options{}, TriggerManual); !errors.Is(err, ErrSourceBusy) {
		t.Errorf("second start: got %v, want ErrSourceBusy", err)
	}

	close(proc.release)
	waitFinished(t, jobs, job.ID)

	// Source frees up once the job finishes.
	again, err := runner.StartJob(context.Background(), "finep", scrapers.Options{}, TriggerManual)
	if err != nil {
		t.Fatalf("restart after finish: %v", err)
	}
	waitFinished(t, jobs, again.ID)
}

func TestStartJobUnknownSource(t *testing.T) {
	runner := newTestRunner(&fakeScraper{name: "capes", origin: "CAPES"}, &fakeFetcher{}, newMemJobWriter(), &memEditalWriter{}, &fakeProcessor{})
	if _, err := runner.StartJob(context.Background(), "nope", scrapers.Options{}, TriggerManual); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("got %v, want ErrUnknownSource", err)
	}
}

func TestListingFailureFailsJob(t *testing.T) {
	scraper := &fakeScraper{name: "confap", origin: "CONFAP", err: errors.New("timeout na listagem")}
	jobs := newMemJobWriter()
	runner := newTestRunner(scraper, &fakeFetcher{}, jobs, &memEditalWriter{}, &fakeProcessor{})

	job, err := runner.StartJob(context.Background(), "confap", scrapers.Options{}, TriggerManual)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	final := waitFinished(t, jobs, job.ID)
	if final.Status != models.JobStatusFailed {
		t.Errorf("status = %s, want failed", final.Status)
	}
}

func TestPerPDFFailureContinuesRun(t *testing.T) {
	scraper := &fakeScraper{name: "cnpq", origin: "CNPq", items: []scrapers.ScrapedEdital{
		{PDFURL: "https://x.br/quebrado.pdf"},
		{PDFURL: "https://x.br/ok.pdf"},
	}}
	jobs := newMemJobWriter()
	proc := &fakeProcessor{}
	fetch := &fakeFetcher{failFor: map[string]error{
		"https://x.br/quebrado.pdf": errors.New("503"),
	}}
	runner := newTestRunner(scraper, fetch, jobs, &memEditalWriter{}, proc)

	job, err := runner.StartJob(context.Background(), "cnpq", scrapers.Options{}, TriggerManual)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	final := waitFinished(t, jobs, job.ID)
	if final.Status != models.JobStatusCompleted {
		t.Fatalf("status = %s, want completed", final.Status)
	}
	if final.FailedCount != 1 || len(final.Errors) != 1 {
		t.Fatalf("failed=%d errors=%v", final.FailedCount, final.Errors)
	}
	if final.Errors[0].URL != "https://x.br/quebrado.pdf" {
		t.Errorf("error url = %s", final.Errors[0].URL)
	}
	if got := proc.processed(); len(got) != 1 || got[0] != "https://x.br/ok.pdf" {
		t.Errorf("processor calls = %v", got)
	}
}

func TestCancelStopsBetweenPDFs(t *testing.T) {
	scraper := &fakeScraper{name: "paraiba", origin: "Governo PB", items: []scrapers.ScrapedEdital{
		{PDFURL: "https://x.br/1.pdf"},
		{PDFURL: "https://x.br/2.pdf"},
		{PDFURL: "https://x.br/3.pdf"},
	}}
	jobs := newMemJobWriter()
	proc := &fakeProcessor{release: make(chan struct{})}
	runner := newTestRunner(scraper, &fakeFetcher{}, jobs, &memEditalWriter{}, proc)

	job, err := runner.StartJob(context.Background(), "paraiba", scrapers.Options{}, TriggerManual)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}

	// Wait until the job is actually running, then cancel while the
	// first PDF is blocked inside the processor.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, _ := jobs.GetByID(context.Background(), job.ID)
		if j != nil && j.Status == models.JobStatusRunning {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := runner.Cancel(job.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	final := waitFinished(t, jobs, job.ID)
	if final.Status != models.JobStatusCancelled {
		t.Errorf("status = %s, want cancelled", final.Status)
	}
	if got := proc.processed(); len(got) == 3 {
		t.Error("all PDFs processed despite cancellation")
	}

	if err := runner.Cancel(job.ID); !errors.Is(err, ErrNotRunning) {
		t.Errorf("cancel after finish: got %v, want ErrNotRunning", err)
	}
}

func TestSourceMetadataOverrideAfterExtraction(t *testing.T) {
	deadline := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	scraper := &fakeScraper{name: "fapesq", origin: "FAPESQ", items: []scrapers.ScrapedEdital{
		{Title: "Edital 05/2026 Apoio à Inovação", PDFURL: "https://fapesq.br/e.pdf", Deadline: &deadline},
	}}
	jobs := newMemJobWriter()
	editais := &memEditalWriter{}
	runner := newTestRunner(scraper, &fakeFetcher{}, jobs, editais, &fakeProcessor{})

	job, err := runner.StartJob(context.Background(), "fapesq", scrapers.Options{}, TriggerManual)
	if err != nil {
		t.Fatalf("StartJob: %v", err)
	}
	waitFinished(t, jobs, job.ID)

	fields := editais.metadata["edital-https://fapesq.br/e.pdf"]
	if fields == nil {
		t.Fatal("source metadata not written")
	}
	if fields["financiador_1"] != "FAPESQ-PB" || fields["origem"] != "FAPESQ" {
		t.Errorf("funder fields = %v", fields)
	}
	if fields["apelido_edital"] != "Edital 05/2026 Apoio à Inovação" {
		t.Errorf("apelido = %v", fields["apelido_edital"])
	}
	if fields["data_final_submissao"] != "2026-03-31" {
		t.Errorf("deadline = %v", fields["data_final_submissao"])
	}
}

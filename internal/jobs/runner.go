package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"editais-platform/internal/fetcher"
	"editais-platform/internal/logger"
	"editais-platform/internal/scrapers"
	"editais-platform/models"

	"github.com/google/uuid"
)

var (
	ErrUnknownSource = errors.New("unknown scraping source")
	ErrSourceBusy    = errors.New("a job for this source is already running")
	ErrNotRunning    = errors.New("job is not running")
)

// Trigger labels recorded in the job name, so "cnpq_scraping_manual"
// and "cnpq_scraping_scheduled" are distinguishable in the history.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

type pdfFetcher interface {
	FetchPDF(ctx context.Context, url string) ([]byte, string, error)
}

type textExtractor interface {
	Extract(ctx context.Context, content []byte) (string, error)
}

type documentProcessor interface {
	ProcessDocument(ctx context.Context, editalID, pdfURL, text string) (map[string]interface{}, error)
}

type editalWriter interface {
	Upsert(ctx context.Context, link, origem string) (string, error)
	SetSourceMetadata(ctx context.Context, editalID string, fields map[string]interface{}) error
	MarkFailed(ctx context.Context, editalID string) error
}

type jobWriter interface {
	Create(ctx context.Context, job *models.JobExecution) error
	Save(ctx context.Context, job *models.JobExecution) error
	GetByID(ctx context.Context, id string) (*models.JobExecution, error)
}

// Runner executes scraping jobs: one listing pass per source, then
// download, text extraction and variable extraction per PDF. At most
// one job per source runs at a time; different sources run freely in
// parallel.
type Runner struct {
	registry  *scrapers.Registry
	fetch     pdfFetcher
	pdfText   textExtractor
	processor documentProcessor
	editais   editalWriter
	jobs      jobWriter
	pdfDelay  time.Duration

	mu          sync.Mutex
	sourceLocks map[string]*sync.Mutex
	running     map[string]context.CancelFunc
}

func NewRunner(registry *scrapers.Registry, fetch pdfFetcher, pdfText textExtractor, processor documentProcessor, editais editalWriter, jobs jobWriter, pdfDelayMs int) *Runner {
	return &Runner{
		registry:    registry,
		fetch:       fetch,
		pdfText:     pdfText,
		processor:   processor,
		editais:     editais,
		jobs:        jobs,
		pdfDelay:    time.Duration(pdfDelayMs) * time.Millisecond,
		sourceLocks: make(map[string]*sync.Mutex),
		running:     make(map[string]context.CancelFunc),
	}
}

func (r *Runner) lockFor(source string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.sourceLocks[source]
	if !ok {
		lock = &sync.Mutex{}
		r.sourceLocks[source] = lock
	}
	return lock
}

// StartJob creates a job execution for the source and runs it in the
// background. Returns ErrSourceBusy while a previous job for the same
// source has not finished.
func (r *Runner) StartJob(ctx context.Context, source string, opts scrapers.Options, trigger string) (*models.JobExecution, error) {
	scraper, ok := r.registry.Get(source)
	if !ok {
		return nil, ErrUnknownSource
	}
	if trigger == "" {
		trigger = TriggerManual
	}

	lock := r.lockFor(source)
	if !lock.TryLock() {
		return nil, ErrSourceBusy
	}

	job := &models.JobExecution{
		ID:        uuid.NewString(),
		JobName:   source + "_scraping_" + trigger,
		Status:    models.JobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.jobs.Create(ctx, job); err != nil {
		lock.Unlock()
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.running[job.ID] = cancel
	r.mu.Unlock()

	go r.run(runCtx, lock, scraper, job, opts)

	logger.Info("Scraping job started", "job_id", job.ID, "source", source, "filter_by_date", opts.FilterByDate)
	return job, nil
}

// Cancel requests a cooperative stop. The running job notices between
// PDFs and finishes as cancelled.
func (r *Runner) Cancel(jobID string) error {
	r.mu.Lock()
	cancel, ok := r.running[jobID]
	r.mu.Unlock()
	if !ok {
		return ErrNotRunning
	}
	cancel()
	logger.Info("Job cancellation requested", "job_id", jobID)
	return nil
}

// RunScheduled executes a source synchronously. Used by the cron
// scheduler, which already runs on its own goroutine.
func (r *Runner) RunScheduled(source string) {
	job, err := r.StartJob(context.Background(), source, scrapers.Options{FilterByDate: true}, TriggerScheduled)
	if err != nil {
		logger.Error("Scheduled job not started", "source", source, "error", err)
		return
	}
	logger.Info("Scheduled job dispatched", "source", source, "job_id", job.ID)
}

func (r *Runner) run(ctx context.Context, lock *sync.Mutex, scraper scrapers.Scraper, job *models.JobExecution, opts scrapers.Options) {
	defer func() {
		r.mu.Lock()
		delete(r.running, job.ID)
		r.mu.Unlock()
		lock.Unlock()
	}()

	// Job bookkeeping must outlive cancellation, so persistence never
	// uses the run context.
	dbCtx := context.Background()

	job.Start()
	r.save(dbCtx, job)

	items, err := scraper.Scrape(ctx, opts)
	if err != nil {
		job.Fail(fmt.Sprintf("listagem falhou: %v", err))
		r.save(dbCtx, job)
		logger.Error("Listing scrape failed", "job_id", job.ID, "source", scraper.Name(), "error", err)
		return
	}

	job.Total = len(items)
	job.UpdateProgress(0)
	r.save(dbCtx, job)
	logger.Info("Listing scraped", "job_id", job.ID, "source", scraper.Name(), "editais", len(items))

	for i, item := range items {
		if ctx.Err() != nil {
			break
		}

		r.processOne(ctx, dbCtx, scraper, job, item)

		job.UpdateProgress(i + 1)
		r.save(dbCtx, job)

		select {
		case <-ctx.Done():
		case <-time.After(r.pdfDelay):
		}
	}

	if ctx.Err() != nil {
		job.Cancel()
	} else {
		job.Complete(fmt.Sprintf("%d/%d editais processados, %d falhas", job.Processed, job.Total, job.FailedCount))
	}
	r.save(dbCtx, job)
	logger.Info("Job finished", "job_id", job.ID, "status", job.Status,
		"processed", job.Processed, "total", job.Total, "failed", job.FailedCount)
}

func (r *Runner) processOne(ctx, dbCtx context.Context, scraper scrapers.Scraper, job *models.JobExecution, item scrapers.ScrapedEdital) {
	url := item.PDFURL
	if url == "" {
		url = item.PageURL
	}

	editalID, err := r.editais.Upsert(dbCtx, url, scraper.Origin())
	if err != nil {
		job.AddError(url, fmt.Sprintf("registro do edital falhou: %v", err), 0)
		return
	}

	body, contentType, err := r.fetch.FetchPDF(ctx, url)
	if err != nil {
		job.AddError(url, fmt.Sprintf("download falhou: %v", err), fetchRetries(err))
		return
	}
	if !fetcher.IsPDF(url, contentType, body) {
		job.AddError(url, "conteúdo baixado não é um PDF", 0)
		return
	}

	text, err := r.pdfText.Extract(ctx, body)
	if err != nil {
		job.AddError(url, fmt.Sprintf("extração de texto falhou: %v", err), 0)
		if markErr := r.editais.MarkFailed(dbCtx, editalID); markErr != nil {
			logger.Error("Edital status update failed", "edital_id", editalID, "error", markErr)
		}
		return
	}

	if _, err := r.processor.ProcessDocument(ctx, editalID, url, text); err != nil {
		if ctx.Err() != nil {
			return
		}
		job.AddError(url, fmt.Sprintf("extração de variáveis falhou: %v", err), 0)
		if markErr := r.editais.MarkFailed(dbCtx, editalID); markErr != nil {
			logger.Error("Edital status update failed", "edital_id", editalID, "error", markErr)
		}
		return
	}

	// FAPESQ publishes on behalf of a fixed funder; the listing page is
	// more reliable than the document text for these fields.
	if scraper.Origin() == "FAPESQ" {
		fields := map[string]interface{}{
			"financiador_1": "FAPESQ-PB",
			"origem":        "FAPESQ",
		}
		if item.Title != "" {
			fields["apelido_edital"] = item.Title
		}
		if item.Deadline != nil {
			fields["data_final_submissao"] = item.Deadline.Format("2006-01-02")
		}
		if err := r.editais.SetSourceMetadata(dbCtx, editalID, fields); err != nil {
			logger.Error("Source metadata update failed", "edital_id", editalID, "error", err)
		}
	}
}

func (r *Runner) save(ctx context.Context, job *models.JobExecution) {
	if err := r.jobs.Save(ctx, job); err != nil {
		logger.Error("Job persistence failed", "job_id", job.ID, "error", err)
	}
}

// fetchRetries reports how many retries the fetcher spent before
// giving up, for the job error record.
func fetchRetries(err error) int {
	var fe *fetcher.FetchError
	if !errors.As(err, &fe) {
		return 0
	}
	switch {
	case fe.Kind == fetcher.KindTimeout, fe.Kind == fetcher.KindProtocol:
		return 2
	case fe.Kind == fetcher.KindHTTPStatus && fe.Status >= 500:
		return 2
	}
	return 0
}

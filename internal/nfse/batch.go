package nfse

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fiscampos/internal/logger"
	"fiscampos/pkg/models"
)

// Processing status of a single item
const (
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusError   = "error"
)

// ItemResult is the outcome of one XML payload: a standalone file or an archive entry.
type ItemResult struct {
	Source   string // file name, or "archive.zip/entry.xml" for archive entries
	Record   *models.InvoiceRecord
	Warnings []string
	Error    error
	Status   string // "success", "warning", "error"
	Index    int    // Original order index
}

// Failure describes an input that produced no record.
type Failure struct {
	Source string
	Err    error
}

// BatchResult holds every item of an import in input order.
type BatchResult struct {
	BatchID string
	Items   []ItemResult
}

// Records returns the produced records in input order.
func (r *BatchResult) Records() []models.InvoiceRecord {
	records := make([]models.InvoiceRecord, 0, len(r.Items))
	for _, item := range r.Items {
		if item.Record != nil {
			records = append(records, *item.Record)
		}
	}
	return records
}

// Failures returns the inputs that produced no record, in input order.
func (r *BatchResult) Failures() []Failure {
	var failures []Failure
	for _, item := range r.Items {
		if item.Error != nil {
			failures = append(failures, Failure{Source: item.Source, Err: item.Error})
		}
	}
	return failures
}

// Count returns the number of items with the given status.
func (r *BatchResult) Count(status string) int {
	n := 0
	for _, item := range r.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

// ProgressFunc is called once per settled item. Calls are serialised.
type ProgressFunc func(done, total int, item ItemResult)

// workerJob is one XML payload waiting to be parsed
type workerJob struct {
	Index  int
	Source string
	Load   func() ([]byte, error)
	Err    error // set when the input failed before parsing
}

// Importer reads XML and ZIP inputs concurrently and turns them into records.
type Importer struct {
	parser     *Parser
	validation *AmountValidation
	numWorkers int
	onProgress ProgressFunc
}

// NewImporter creates an importer with numWorkers parallel workers (at least 1).
func NewImporter(homeMunicipalityCode string, numWorkers int) *Importer {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Importer{
		parser:     NewParser(homeMunicipalityCode),
		validation: NewAmountValidation(),
		numWorkers: numWorkers,
	}
}

// OnProgress registers a callback invoked after each item settles.
func (imp *Importer) OnProgress(fn ProgressFunc) {
	imp.onProgress = fn
}

// Import processes the given file paths. A failing input never aborts the
// batch: it is reported in the result and the remaining inputs continue.
// Cancelling ctx stops dispatching; items not yet started fail with ctx.Err().
func (imp *Importer) Import(ctx context.Context, paths []string) *BatchResult {
	batchID := uuid.NewString()
	log := logger.WithBatchID("nfse-importer", batchID)

	jobs := imp.expand(log, paths)

	log.Info().
		Int("inputs", len(paths)).
		Int("documents", len(jobs)).
		Int("workers", imp.numWorkers).
		Msg("Starting import")

	result := &BatchResult{
		BatchID: batchID,
		Items:   imp.processInParallel(ctx, log, jobs),
	}

	log.Info().
		Int("success", result.Count(StatusSuccess)).
		Int("warning", result.Count(StatusWarning)).
		Int("error", result.Count(StatusError)).
		Msg("Import completed")

	return result
}

// expand flattens inputs into one job per XML payload, keeping input order and
// archive order within each container.
func (imp *Importer) expand(log zerolog.Logger, paths []string) []workerJob {
	var jobs []workerJob
	add := func(job workerJob) {
		job.Index = len(jobs)
		jobs = append(jobs, job)
	}

	for _, p := range paths {
		name := filepath.Base(p)

		switch {
		case IsXMLName(p):
			path := p
			add(workerJob{Source: name, Load: func() ([]byte, error) { return readInput(path, MaxDocumentSizeBytes) }})

		case IsZipName(p):
			data, err := readInput(p, MaxArchiveSizeBytes)
			if err != nil {
				add(workerJob{Source: name, Err: err})
				continue
			}
			entries, err := UnpackArchive(data, name)
			if err != nil {
				add(workerJob{Source: name, Err: err})
				continue
			}
			if len(entries) == 0 {
				log.Warn().Str("file", name).Msg("Archive contains no XML documents")
			}
			for _, entry := range entries {
				add(workerJob{Source: name + "/" + entry.Name, Load: entry.Open})
			}

		default:
			add(workerJob{Source: name, Err: NewImportError("Import", name, ErrUnsupportedFormat, "expected .xml or .zip")})
		}
	}

	return jobs
}

func (imp *Importer) processInParallel(ctx context.Context, log zerolog.Logger, jobs []workerJob) []ItemResult {
	queue := make(chan workerJob, len(jobs))
	results := make([]ItemResult, len(jobs))

	var processedCount int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for w := 0; w < imp.numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for job := range queue {
				log.Debug().
					Int("worker", workerID).
					Str("file", job.Source).
					Int("index", job.Index+1).
					Msg("Worker processing document")

				result := imp.processSingle(ctx, log, job)
				result.Index = job.Index
				result.Source = job.Source

				results[job.Index] = result

				mu.Lock()
				processedCount++
				if imp.onProgress != nil {
					imp.onProgress(processedCount, len(jobs), result)
				}
				mu.Unlock()
			}
		}(w)
	}

	for _, job := range jobs {
		queue <- job
	}
	close(queue)

	wg.Wait()

	return results
}

func (imp *Importer) processSingle(ctx context.Context, log zerolog.Logger, job workerJob) ItemResult {
	if job.Err != nil {
		log.Warn().Err(job.Err).Str("file", job.Source).Msg("Skipping input")
		return ItemResult{Error: job.Err, Status: StatusError}
	}
	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Str("file", job.Source).Msg("Import canceled before document was read")
		return ItemResult{Error: err, Status: StatusError}
	}

	data, err := job.Load()
	if err != nil {
		log.Warn().Err(err).Str("file", job.Source).Msg("Failed to read document")
		return ItemResult{Error: err, Status: StatusError}
	}

	record, err := imp.parser.Parse(data, job.Source)
	if err != nil {
		log.Warn().Err(err).Str("file", job.Source).Msg("Failed to parse document")
		return ItemResult{Error: err, Status: StatusError}
	}

	status := StatusSuccess
	warnings := imp.validation.CheckAmounts(record)
	if len(warnings) > 0 {
		status = StatusWarning
	}

	return ItemResult{Record: &record, Warnings: warnings, Status: status}
}

// readInput reads a file, refusing anything larger than limit.
func readInput(path string, limit int64) ([]byte, error) {
	const op = "ReadFile"
	name := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, NewImportError(op, name, ErrUnreadableFile, err.Error())
	}
	if info.IsDir() {
		return nil, NewImportError(op, name, ErrUnreadableFile, "is a directory")
	}
	if info.Size() > limit {
		return nil, NewImportError(op, name, ErrDocumentTooLarge, fmt.Sprintf("%d bytes", info.Size()))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewImportError(op, name, ErrUnreadableFile, err.Error())
	}
	return data, nil
}

package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
)

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(records []models.Record) error
	Close() error
	Validate() error
}

// Pipeline validates records and writes them in batches, preserving order.
// It is not safe for concurrent use; the crawl is single threaded.
type Pipeline struct {
	writer    OutputWriter
	batch     []models.Record
	batchSize int

	processed int64
	invalid   map[string]int

	closed bool
	err    error
}

// NewPipeline builds a pipeline flushing every batchSize records.
func NewPipeline(writer OutputWriter, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = 64
	}
	return &Pipeline{
		writer:    writer,
		batch:     make([]models.Record, 0, batchSize),
		batchSize: batchSize,
		invalid:   make(map[string]int),
	}
}

// Process queues records for writing. The first write error is sticky.
func (p *Pipeline) Process(records ...models.Record) error {
	if p.err != nil {
		return p.err
	}
	if p.closed {
		return ErrPipelineClosed
	}

	for _, record := range records {
		if err := record.Valid(); err != nil {
			p.invalid["invalid_record"]++
			slog.Warn("dropping invalid record", slog.Any("error", err))
			continue
		}
		p.batch = append(p.batch, record)
		p.processed++
		if len(p.batch) >= p.batchSize {
			if err := p.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close flushes pending records and prevents more submissions.
// It does not close the underlying writer.
func (p *Pipeline) Close() error {
	if p.closed {
		return p.err
	}
	p.closed = true
	if p.err != nil {
		return p.err
	}
	return p.flush()
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	validation := make(map[string]int, len(p.invalid))
	for k, v := range p.invalid {
		validation[k] = v
	}
	return map[string]interface{}{
		"processed_records": p.processed,
		"validation_errors": validation,
	}
}

func (p *Pipeline) flush() error {
	if len(p.batch) == 0 {
		return nil
	}
	if err := p.writer.Write(p.batch); err != nil {
		p.err = fmt.Errorf("write batch: %w", err)
		return p.err
	}
	p.batch = p.batch[:0]
	return nil
}

// Persist writes every record through a fresh pipeline and flushes it.
func Persist(writer OutputWriter, records []models.Record, batchSize int) error {
	p := NewPipeline(writer, batchSize)
	if err := p.Process(records...); err != nil {
		return err
	}
	if err := p.Close(); err != nil {
		return err
	}
	metrics := p.GetMetrics()
	slog.Debug("records persisted",
		slog.Any("processed", metrics["processed_records"]),
		slog.Any("rejected", metrics["validation_errors"]),
	)
	return nil
}

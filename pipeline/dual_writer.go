package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

// DualWriter writes the CSV file and a JSONL sibling in one pass.
type DualWriter struct {
	csvWriter  *CSVWriter
	jsonWriter *JSONWriter
}

// JSONSibling derives the JSONL path written next to a CSV file.
func JSONSibling(csvFilename string) string {
	return strings.TrimSuffix(csvFilename, ".csv") + ".jsonl"
}

// NewDualWriter creates a writer for both CSV and JSONL output.
func NewDualWriter(csvFilename, jsonFilename string) (*DualWriter, error) {
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("create csv writer: %w", err)
	}

	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		csvWriter.Close()
		return nil, fmt.Errorf("create json writer: %w", err)
	}

	return &DualWriter{
		csvWriter:  csvWriter,
		jsonWriter: jsonWriter,
	}, nil
}

// Write sends records to the CSV file first, then the JSONL file.
func (dw *DualWriter) Write(records []models.Record) error {
	if err := dw.csvWriter.Write(records); err != nil {
		return fmt.Errorf("csv: %w", err)
	}
	if err := dw.jsonWriter.Write(records); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	return nil
}

// Close closes both files and joins their errors.
func (dw *DualWriter) Close() error {
	var errs []error
	if err := dw.csvWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close csv: %w", err))
	}
	if err := dw.jsonWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close json: %w", err))
	}
	return errors.Join(errs...)
}

// Validate checks both outputs.
func (dw *DualWriter) Validate() error {
	return errors.Join(dw.csvWriter.Validate(), dw.jsonWriter.Validate())
}

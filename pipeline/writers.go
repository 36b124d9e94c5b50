package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aluiziolira/go-scrape-catalog/models"
)

// CSVHeader is the fixed column layout of the CSV output.
var CSVHeader = []string{"Title", "Price", "Availability", "Rating"}

// fileSink is an output file created together with its parent directory.
type fileSink struct {
	path string
	file *os.File
}

func createSink(filename string) (fileSink, error) {
	if err := ensureParentDir(filename); err != nil {
		return fileSink{}, err
	}
	f, err := os.Create(filename)
	if err != nil {
		return fileSink{}, fmt.Errorf("create %s: %w", filename, err)
	}
	return fileSink{path: filename, file: f}, nil
}

func ensureParentDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}

func (s fileSink) size() (int64, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", s.path, err)
	}
	return info.Size(), nil
}

// CSVWriter writes records as CSV rows under CSVHeader.
type CSVWriter struct {
	fileSink
	rows *csv.Writer
}

// NewCSVWriter creates filename and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	sink, err := createSink(filename)
	if err != nil {
		return nil, err
	}
	cw := &CSVWriter{fileSink: sink, rows: csv.NewWriter(sink.file)}
	if err := cw.writeRows(CSVHeader); err != nil {
		sink.file.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return cw, nil
}

// Write appends one row per record and flushes.
func (cw *CSVWriter) Write(records []models.Record) error {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, csvRow(record))
	}
	if err := cw.writeRows(rows...); err != nil {
		return fmt.Errorf("write csv records: %w", err)
	}
	return nil
}

func (cw *CSVWriter) writeRows(rows ...[]string) error {
	for _, row := range rows {
		if err := cw.rows.Write(row); err != nil {
			return err
		}
	}
	cw.rows.Flush()
	return cw.rows.Error()
}

// csvRow renders missing values as empty cells.
func csvRow(record models.Record) []string {
	price := ""
	if record.Price != nil {
		price = strconv.FormatFloat(*record.Price, 'f', -1, 64)
	}
	rating := ""
	if record.Rating != nil {
		rating = strconv.Itoa(*record.Rating)
	}
	return []string{record.Title, price, string(record.Availability), rating}
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.rows.Flush()
	if err := cw.rows.Error(); err != nil {
		cw.file.Close()
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures at least the header made it to disk.
func (cw *CSVWriter) Validate() error {
	n, err := cw.size()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("csv file %s is empty", cw.path)
	}
	return nil
}

// JSONWriter writes one JSON object per line.
type JSONWriter struct {
	fileSink
	buf *bufio.Writer
	enc *json.Encoder
}

// NewJSONWriter creates filename for JSONL output.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	sink, err := createSink(filename)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(sink.file)
	return &JSONWriter{fileSink: sink, buf: buf, enc: json.NewEncoder(buf)}, nil
}

// Write encodes each record on its own line and flushes.
func (jw *JSONWriter) Write(records []models.Record) error {
	for _, record := range records {
		if err := jw.enc.Encode(record); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}
	if err := jw.buf.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	if err := jw.buf.Flush(); err != nil {
		jw.file.Close()
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate only checks the file exists; a run without records leaves it empty.
func (jw *JSONWriter) Validate() error {
	_, err := jw.size()
	return err
}

package pipeline

import "fmt"

// NewWriter returns the OutputWriter for format ("csv", "json", "dual", "sqlite").
func NewWriter(format, filename string) (OutputWriter, error) {
	switch format {
	case "csv":
		return NewCSVWriter(filename)
	case "json":
		return NewJSONWriter(filename)
	case "dual":
		return NewDualWriter(filename, JSONSibling(filename))
	case "sqlite":
		return NewSQLiteWriter(filename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

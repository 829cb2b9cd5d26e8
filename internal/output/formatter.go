package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Edbro78/investeringsprognose/internal/domain"
)

// ErrUnsupportedFormat is returned for format names no formatter answers to.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Formatter defines a pluggable output formatter that returns a byte slice.
// Implementations should be pure (no side effects besides deterministic formatting).
type Formatter interface {
	Format(report *domain.Report) ([]byte, error)
	// Name returns a short identifier for logging / debugging.
	Name() string
	// Extension is the file extension used when the output is written to disk.
	Extension() string
}

// FormatterFunc adapter to allow ordinary functions to act as a Formatter.
type FormatterFunc struct {
	ID  string
	Ext string
	F   func(*domain.Report) ([]byte, error)
}

func (ff FormatterFunc) Format(r *domain.Report) ([]byte, error) { return ff.F(r) }
func (ff FormatterFunc) Name() string                            { return ff.ID }
func (ff FormatterFunc) Extension() string                       { return ff.Ext }

// WriteFormatted runs a formatter and writes the output to a file in dir named
// after the formatter and the report's generation time.
func WriteFormatted(f Formatter, report *domain.Report, dir string) (string, error) {
	data, err := f.Format(report)
	if err != nil {
		return "", err
	}
	filename := filepath.Join(dir, fmt.Sprintf("prognose_%s_%s.%s", f.Name(), report.GeneratedAt.Format("20060102_150405"), f.Extension()))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return filename, nil
}

// Write formats report with the named formatter and writes it to w.
func Write(w io.Writer, format string, report *domain.Report) error {
	f, err := Lookup(format)
	if err != nil {
		return err
	}
	data, err := f.Format(report)
	if err != nil {
		return fmt.Errorf("%s formatter: %w", f.Name(), err)
	}
	_, err = w.Write(data)
	return err
}

// builtInFormatters stores available formatters.
var builtInFormatters = []Formatter{
	ConsoleFormatter{},
	CSVExporter{},
	CSVDetailedExporter{},
	JSONFormatter{},
	YAMLFormatter{},
	MonteCarloCSVFormatter{},
}

// GetFormatterByName fetches a registered formatter.
func GetFormatterByName(name string) Formatter {
	n := NormalizeFormatName(name)
	for _, f := range builtInFormatters {
		if f.Name() == n {
			return f
		}
	}
	return nil
}

// Lookup is GetFormatterByName with an error listing the valid choices.
func Lookup(name string) (Formatter, error) {
	if f := GetFormatterByName(name); f != nil {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q. Try one of: %s (aliases: %s)", ErrUnsupportedFormat, name, strings.Join(AvailableFormatterNames(), ", "), strings.Join(AvailableFormatAliases(), ", "))
}

// aliasMap provides user-friendly synonyms for format names.
var aliasMap = map[string]string{
	"table":        "console",
	"text":         "console",
	"csv-detailed": "detailed-csv",
	"yml":          "yaml",
	"mc-csv":       "montecarlo-csv",
	"json-pretty":  "json",
}

// NormalizeFormatName lowers and resolves aliases.
func NormalizeFormatName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if mapped, ok := aliasMap[n]; ok {
		return mapped
	}
	return n
}

// AvailableFormatterNames returns the canonical formatter names.
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(builtInFormatters))
	for _, f := range builtInFormatters {
		names = append(names, f.Name())
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases returns the supported alias keys.
func AvailableFormatAliases() []string {
	keys := make([]string, 0, len(aliasMap))
	for k := range aliasMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

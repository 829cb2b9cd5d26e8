package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/Edbro78/investeringsprognose/internal/domain"
	"gopkg.in/yaml.v3"
)

// GenerateReport writes report to a file in dir for every requested format.
// "all" writes console, csv and detailed-csv, plus montecarlo-csv when the report
// has Monte Carlo results. It returns the files written.
func GenerateReport(report *domain.Report, format, dir string) ([]string, error) {
	var formats []string
	if strings.EqualFold(strings.TrimSpace(format), "all") {
		formats = []string{"console", "csv", "detailed-csv"}
		if report.MonteCarlo != nil {
			formats = append(formats, "montecarlo-csv")
		}
	} else {
		formats = []string{format}
	}

	files := make([]string, 0, len(formats))
	for _, name := range formats {
		f, err := Lookup(name)
		if err != nil {
			return files, err
		}
		file, err := WriteFormatted(f, report, dir)
		if err != nil {
			return files, fmt.Errorf("%s report: %w", f.Name(), err)
		}
		files = append(files, file)
	}
	return files, nil
}

// SaveParameters writes params as a YAML parameter file that LoadFromFile reads back.
func SaveParameters(params *domain.SimulationParameters, filename string) error {
	b, err := yaml.Marshal(params)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0644)
}

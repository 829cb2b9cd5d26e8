package output

import (
	"encoding/json"

	"github.com/Edbro78/investeringsprognose/internal/domain"
	"gopkg.in/yaml.v3"
)

// JSONFormatter serializes the report as pretty-printed JSON.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string      { return "json" }
func (j JSONFormatter) Extension() string { return "json" }

func (j JSONFormatter) Format(report *domain.Report) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// YAMLFormatter serializes the report as YAML, the same shape parameter files use.
type YAMLFormatter struct{}

func (y YAMLFormatter) Name() string      { return "yaml" }
func (y YAMLFormatter) Extension() string { return "yaml" }

func (y YAMLFormatter) Format(report *domain.Report) ([]byte, error) {
	return yaml.Marshal(report)
}

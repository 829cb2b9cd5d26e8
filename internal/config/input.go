package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/Edbro78/investeringsprognose/internal/domain"
	"gopkg.in/yaml.v3"
)

// ErrValidation marks parameter sets that parse but cannot be projected.
var ErrValidation = errors.New("invalid parameters")

// InputParser handles parsing of parameter files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a plan from a YAML or JSON file. Keys that are absent keep
// their value from domain.DefaultParameters.
func (ip *InputParser) LoadFromFile(filename string) (*domain.SimulationParameters, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes a plan from YAML (JSON is a subset) on top of the defaults,
// normalizes it and validates it.
func (ip *InputParser) Parse(data []byte) (*domain.SimulationParameters, error) {
	params := domain.DefaultParameters()
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	params = params.Normalize()

	if err := ip.ValidateParameters(&params); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &params, nil
}

// ValidateParameters validates the loaded plan
func (ip *InputParser) ValidateParameters(params *domain.SimulationParameters) error {
	if params == nil {
		return fmt.Errorf("%w: no parameters provided", ErrValidation)
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if params.StartYear < 1900 || params.StartYear > 2200 {
		return fmt.Errorf("%w: start year %d is out of range", ErrValidation, params.StartYear)
	}
	return nil
}

// CreateExampleParameters returns a documented example plan: a private investor
// with two portfolios and a liquidity fund, saving for ten years and drawing an
// income for fifteen.
func (ip *InputParser) CreateExampleParameters() *domain.SimulationParameters {
	p := domain.DefaultParameters()
	p.Portfolio1 = 6_000_000
	p.Portfolio1StockAllocation = 80
	p.Portfolio2 = 3_000_000
	p.Portfolio2StockAllocation = 40
	p.LiquidityFund = 1_000_000
	p.InvestedCapital = 7_500_000
	p.InvestmentYears = 10
	p.PayoutYears = 15
	p.AnnualSavings = 200_000
	p.KPIRate = 2.0
	p.AdvisoryFeeRate = 0.5
	p.DesiredConsumptionPayout = 600_000
	p.DesiredWealthTaxPayout = 50_000
	p.Events = []domain.Event{
		{Amount: 2_000_000, StartYear: 2030, EndYear: 2030, AffectsInvestedCapital: true, Label: "Inheritance"},
		{Amount: -500_000, StartYear: 2033, EndYear: 2034, Label: "Cabin"},
	}
	return &p
}

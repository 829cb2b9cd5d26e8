package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Edbro78/investeringsprognose/internal/config"
	"github.com/Edbro78/investeringsprognose/internal/domain"
)

const payoutPlan = `portfolio1: 1000000
portfolio1_stock_allocation: 50
investment_years: 10
payout_years: 10
desired_consumption_payout: 500000
`

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestProjectCommand(t *testing.T) {
	t.Run("console", func(t *testing.T) {
		out, _, err := run(t, "project")
		require.NoError(t, err)
		assert.Contains(t, out, "INVESTMENT PROJECTION")
		assert.Contains(t, out, "Terminal value:")
	})
	t.Run("csv", func(t *testing.T) {
		out, _, err := run(t, "project", "--format", "csv")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		assert.Len(t, lines, 12, "header plus start row plus ten years")
	})
	t.Run("seeded paths repeat", func(t *testing.T) {
		a, _, err := run(t, "project", "--seed", "42", "--format", "csv")
		require.NoError(t, err)
		b, _, err := run(t, "project", "--seed", "42", "--format", "csv")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
	t.Run("all needs output dir", func(t *testing.T) {
		_, _, err := run(t, "project", "--format", "all")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--output-dir")
	})
	t.Run("all into directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "reports")
		out, _, err := run(t, "project", "--format", "all", "--output-dir", dir)
		require.NoError(t, err)
		assert.Len(t, strings.Fields(out), 3)
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})
	t.Run("unknown format", func(t *testing.T) {
		_, _, err := run(t, "project", "--format", "pdf")
		require.Error(t, err)
	})
	t.Run("invalid plan", func(t *testing.T) {
		_, _, err := run(t, "project", "--config", writePlan(t, "portfolio1_stock_allocation: 120\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrValidation)
	})
}

func TestGoalSeekCommand(t *testing.T) {
	t.Run("solves and saves", func(t *testing.T) {
		saved := filepath.Join(t.TempDir(), "solved.yaml")
		out, _, err := run(t, "goalseek", "savings", "--config", writePlan(t, payoutPlan), "--save", saved)
		require.NoError(t, err)
		assert.Contains(t, out, "GOAL SEEK")

		params, err := config.NewInputParser().LoadFromFile(saved)
		require.NoError(t, err)
		assert.Positive(t, params.AnnualSavings)
	})
	t.Run("nothing to solve", func(t *testing.T) {
		out, _, err := run(t, "goalseek", "payout")
		require.NoError(t, err)
		assert.Contains(t, out, "No payout years")
	})
	t.Run("unknown target", func(t *testing.T) {
		_, _, err := run(t, "goalseek", "pension")
		require.Error(t, err)
	})
}

func TestMonteCarloCommand(t *testing.T) {
	plan := writePlan(t, payoutPlan)

	out, _, err := run(t, "montecarlo", "portfolio", "--config", plan,
		"--trials", "20", "--seed", "3", "--format", "montecarlo-csv")
	require.NoError(t, err)
	assert.Contains(t, out, "Number of Simulations,20,")
	assert.Contains(t, out, "Seed,3,")

	again, _, err := run(t, "montecarlo", "portfolio", "--config", plan,
		"--trials", "20", "--seed", "3", "--workers", "1", "--format", "montecarlo-csv")
	require.NoError(t, err)
	assert.Equal(t, stripRunID(out), stripRunID(again), "worker count does not change the samples")

	_, _, err = run(t, "montecarlo", "pension")
	require.Error(t, err)
}

// stripRunID drops the lines that differ between otherwise identical runs.
func stripRunID(csv string) string {
	var kept []string
	for _, line := range strings.Split(csv, "\n") {
		if strings.HasPrefix(line, "Run ID,") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func TestExportImportCommands(t *testing.T) {
	dir := t.TempDir()
	textFile := filepath.Join(dir, "plan.txt")
	yamlFile := filepath.Join(dir, "plan.yaml")

	_, _, err := run(t, "export", "--config", writePlan(t, payoutPlan), "--out", textFile)
	require.NoError(t, err)
	text, err := os.ReadFile(textFile)
	require.NoError(t, err)
	assert.Contains(t, string(text), "1 Portefølje I : 1 000 000")

	_, _, err = run(t, "import", textFile, "--out", yamlFile)
	require.NoError(t, err)
	params, err := config.NewInputParser().LoadFromFile(yamlFile)
	require.NoError(t, err)
	assert.Equal(t, 1_000_000.0, params.Portfolio1)
	assert.Equal(t, 10, params.PayoutYears)
	assert.Equal(t, 500_000.0, params.DesiredConsumptionPayout)

	_, _, err = run(t, "import", filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
}

func TestExampleCommand(t *testing.T) {
	out, _, err := run(t, "example")
	require.NoError(t, err)

	var params domain.SimulationParameters
	require.NoError(t, yaml.Unmarshal([]byte(out), &params))
	assert.Len(t, params.Events, 2)
	assert.NoError(t, config.NewInputParser().ValidateParameters(&params))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "info", "json")
	require.NoError(t, err)
	logger.Info("hello", "years", 10)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])

	_, err = NewLogger(&buf, "loud", "text")
	assert.Error(t, err)
	_, err = NewLogger(&buf, "info", "xml")
	assert.Error(t, err)

	_, _, err = run(t, "project", "--log-level", "loud")
	assert.Error(t, err)
}

func TestProjectCommand_ReplaysRecordedReturns(t *testing.T) {
	returns := filepath.Join(t.TempDir(), "returns.csv")
	require.NoError(t, os.WriteFile(returns, []byte("year,stock,bond\n2001,10,10\n2002,10,10\n"), 0o600))
	plan := writePlan(t, "portfolio1: 1000000\ninvestment_years: 2\ntax_calculation_enabled: false\n")

	out, _, err := run(t, "project", "--config", plan, "--returns", returns, "--format", "json")
	require.NoError(t, err)

	var report domain.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, int64(1_210_000), report.Projection.Final().EndValue)
	assert.Len(t, report.Accumulated, 3)

	_, _, err = run(t, "project", "--returns", returns, "--from-year", "1990")
	require.Error(t, err)
	_, _, err = run(t, "project", "--returns", returns, "--seed", "4")
	require.Error(t, err)
}

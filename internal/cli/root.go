// Package cli implements the prognose command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Edbro78/investeringsprognose/internal/calculation"
	"github.com/Edbro78/investeringsprognose/internal/config"
	"github.com/Edbro78/investeringsprognose/internal/domain"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configFile string
	logLevel   string
	logFormat  string
}

// NewRootCommand builds the prognose command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "prognose",
		Short: "Investment projection, goal seek and Monte Carlo for NOK portfolios",
		Long: `prognose projects a plan of up to three portfolios year by year through an
investment phase and a payout phase, with Norwegian shielding and deferred tax
rules. Plans are YAML files; fields left out keep their default value.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "plan file (YAML or JSON); defaults are used when empty")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		newProjectCommand(opts),
		newGoalSeekCommand(opts),
		newMonteCarloCommand(opts),
		newExportCommand(opts),
		newImportCommand(opts),
		newExampleCommand(),
		newServeCommand(opts),
	)
	return root
}

// loadParams reads the plan named by --config, or the default plan.
func (o *options) loadParams() (domain.SimulationParameters, error) {
	if o.configFile == "" {
		return domain.DefaultParameters(), nil
	}
	params, err := config.NewInputParser().LoadFromFile(o.configFile)
	if err != nil {
		return domain.SimulationParameters{}, err
	}
	return *params, nil
}

// newEngine returns an engine logging through a slog handler on w.
func (o *options) newEngine(w io.Writer) (*calculation.CalculationEngine, *slog.Logger, error) {
	logger, err := NewLogger(w, o.logLevel, o.logFormat)
	if err != nil {
		return nil, nil, err
	}
	engine := calculation.NewCalculationEngine()
	engine.SetLogger(calculation.NewSlogLogger(logger))
	return engine, logger, nil
}

// NewLogger creates a slog logger writing to w. format is text or json.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: must be text or json", format)
	}
}

// writeTo returns the file named path, or stdout when path is empty or "-".
func writeTo(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, f.Close, nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Edbro78/investeringsprognose/internal/calculation"
	"github.com/Edbro78/investeringsprognose/internal/config"
	"github.com/Edbro78/investeringsprognose/internal/domain"
	"github.com/Edbro78/investeringsprognose/internal/output"
	"github.com/Edbro78/investeringsprognose/internal/paramtext"
	"github.com/Edbro78/investeringsprognose/internal/server"
)

// reportFlags selects how a finished report is written.
type reportFlags struct {
	format    string
	outputDir string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "console", "output format (console, csv, detailed-csv, json, yaml, montecarlo-csv, all)")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "write report files to this directory instead of stdout")
}

func (f *reportFlags) write(cmd *cobra.Command, report *domain.Report) error {
	if f.outputDir == "" {
		if f.format == "all" {
			return fmt.Errorf("format all needs --output-dir")
		}
		return output.Write(cmd.OutOrStdout(), f.format, report)
	}
	if err := os.MkdirAll(f.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	files, err := output.GenerateReport(report, f.format, f.outputDir)
	for _, file := range files {
		fmt.Fprintln(cmd.OutOrStdout(), file)
	}
	return err
}

func newProjectCommand(opts *options) *cobra.Command {
	var (
		rf          reportFlags
		simulate    bool
		seed        int64
		returnsFile string
		fromYear    int
	)
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project the plan year by year",
		Long: `Project the plan using the expected return rates, or with --simulate one sampled
return path. --seed fixes the sampled path; it implies --simulate. --returns replays
recorded yearly returns from a year,stock,bond CSV file starting at --from-year.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := opts.loadParams()
			if err != nil {
				return err
			}
			engine, _, err := opts.newEngine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			var report *domain.Report
			switch {
			case returnsFile != "":
				ds, err := calculation.LoadHistoricalReturns(returnsFile)
				if err != nil {
					return err
				}
				report, err = engine.RunHistoricalProjection(params, ds, fromYear)
				if err != nil {
					return err
				}
			case simulate || seed != 0:
				report, err = engine.RunSimulatedProjection(params, seed)
			default:
				report, err = engine.RunProjection(params, nil)
			}
			if err != nil {
				return err
			}
			return rf.write(cmd, report)
		},
	}
	rf.register(cmd)
	cmd.Flags().BoolVar(&simulate, "simulate", false, "project one sampled return path")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for the sampled return path")
	cmd.Flags().StringVar(&returnsFile, "returns", "", "CSV of recorded yearly returns (year,stock,bond in percent)")
	cmd.Flags().IntVar(&fromYear, "from-year", 0, "first recorded year to replay (default first year in the file)")
	cmd.MarkFlagsMutuallyExclusive("returns", "simulate")
	cmd.MarkFlagsMutuallyExclusive("returns", "seed")
	return cmd
}

var goalSeekFields = map[string]domain.GoalSeekField{
	"savings":    domain.GoalSeekAnnualSavings,
	"payout":     domain.GoalSeekConsumptionPayout,
	"portfolio1": domain.GoalSeekPortfolio1,
}

func newGoalSeekCommand(opts *options) *cobra.Command {
	var (
		rf   reportFlags
		save string
	)
	cmd := &cobra.Command{
		Use:       "goalseek <savings|payout|portfolio1>",
		Short:     "Solve for the value that leaves nothing after the last payout year",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"savings", "payout", "portfolio1"},
		RunE: func(cmd *cobra.Command, args []string) error {
			field, ok := goalSeekFields[args[0]]
			if !ok {
				return fmt.Errorf("unknown goal seek target %q: use savings, payout or portfolio1", args[0])
			}
			params, err := opts.loadParams()
			if err != nil {
				return err
			}
			engine, _, err := opts.newEngine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			res, updated, solved, err := engine.GoalSeek(params, field)
			if err != nil {
				return err
			}
			if !solved {
				fmt.Fprintln(cmd.OutOrStdout(), "No payout years in the plan; nothing to solve.")
				return nil
			}

			report, err := engine.RunProjection(updated, nil)
			if err != nil {
				return err
			}
			report.GoalSeek = res
			if err := rf.write(cmd, report); err != nil {
				return err
			}
			if save != "" {
				if err := output.SaveParameters(&updated, save); err != nil {
					return fmt.Errorf("failed to save plan: %w", err)
				}
			}
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&save, "save", "", "write the solved plan to this YAML file")
	return cmd
}

func newMonteCarloCommand(opts *options) *cobra.Command {
	var (
		rf      reportFlags
		trials  int
		workers int
		seed    int64
	)
	cmd := &cobra.Command{
		Use:       "montecarlo <payout|portfolio>",
		Short:     "Sample the payout or terminal-portfolio distribution",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"payout", "portfolio"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := domain.MonteCarloKind(args[0])
			params, err := opts.loadParams()
			if err != nil {
				return err
			}
			engine, _, err := opts.newEngine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			engine.MonteCarlo = calculation.MonteCarloConfig{Trials: trials, Workers: workers, Seed: seed}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mc, err := engine.RunMonteCarlo(ctx, params, kind)
			if err != nil {
				return err
			}
			report, err := engine.RunProjection(params, nil)
			if err != nil {
				return err
			}
			report.MonteCarlo = mc
			return rf.write(cmd, report)
		},
	}
	rf.register(cmd)
	cmd.Flags().IntVarP(&trials, "trials", "n", calculation.DefaultTrials, "number of sampled return paths")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 uses GOMAXPROCS)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "master seed; 0 draws one")
	return cmd
}

func newExportCommand(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the plan as numbered text lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := opts.loadParams()
			if err != nil {
				return err
			}
			w, closeFn, err := writeTo(cmd, out)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(w, paramtext.Export(params.Normalize())+"\n"); err != nil {
				closeFn()
				return err
			}
			return closeFn()
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCommand(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Read numbered text lines into a YAML plan",
		Long: `Read numbered text lines over the plan given by --config (or the defaults) and
write the result as YAML. Lines that are missing keep the base value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file %s: %w", args[0], err)
			}
			base, err := opts.loadParams()
			if err != nil {
				return err
			}
			params, err := paramtext.Import(string(text), base)
			if err != nil {
				return err
			}
			if err := config.NewInputParser().ValidateParameters(&params); err != nil {
				return err
			}

			if out != "" && out != "-" {
				return output.SaveParameters(&params, out)
			}
			b, err := yaml.Marshal(params)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "YAML output file (default stdout)")
	return cmd
}

func newExampleCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "example",
		Short: "Write an example plan with events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params := config.NewInputParser().CreateExampleParameters()
			if out != "" && out != "-" {
				return output.SaveParameters(params, out)
			}
			b, err := yaml.Marshal(params)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "YAML output file (default stdout)")
	return cmd
}

func newServeCommand(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP API. Settings come from PROGNOSE_* environment variables;
--addr overrides PROGNOSE_ADDR.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			level, format := cfg.LogLevel, cfg.LogFormat
			if cmd.Flags().Changed("log-level") {
				level = opts.logLevel
			}
			if cmd.Flags().Changed("log-format") {
				format = opts.logFormat
			}
			logger, err := NewLogger(cmd.ErrOrStderr(), level, format)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address")
	return cmd
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

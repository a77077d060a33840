package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"SignalFusion/internal/di"
	"SignalFusion/internal/domain/models"
	"SignalFusion/internal/usecase"
	"SignalFusion/pkg/config"
	"SignalFusion/pkg/util"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "fusionctl",
		Short:        "Run signal fusion analyses and inspect the trade ledger",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (defaults only when empty)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(analyzeCmd(opts))
	root.AddCommand(patternsCmd(opts))
	root.AddCommand(outcomeCmd(opts))
	root.AddCommand(statsCmd(opts))
	return root
}

// engine loads config and assembles the pipeline against the configured
// ledger backend. Kafka is never used from the CLI.
func (o *rootOptions) engine(cmd *cobra.Command) (*usecase.FusionUseCase, func(), error) {
	cfg, err := config.LoadWithEnv(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg.Log.Output = "stderr"
	cfg.Log.Level = o.logLevel
	cfg.Metrics.Enabled = false
	cfg.Kafka.Brokers = nil

	uc, cleanup, err := di.InitializeEngine(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := uc.Start(cmd.Context()); err != nil {
		cleanup()
		return nil, nil, err
	}
	return uc, cleanup, nil
}

func analyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		file   string
		query  string
		record bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a sensor snapshot read from a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readSnapshot(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			uc, cleanup, err := opts.engine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			out, err := uc.Analyze(cmd.Context(), query, data, record)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "snapshot file, - for stdin")
	cmd.Flags().StringVarP(&query, "query", "q", "analyze", "query text echoed in the report")
	cmd.Flags().BoolVar(&record, "record", false, "record the lead signal in the ledger")
	return cmd
}

func patternsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List the pattern library with its track record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc, cleanup, err := opts.engine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return printJSON(cmd.OutOrStdout(), uc.Patterns())
		},
	}
}

func outcomeCmd(opts *rootOptions) *cobra.Command {
	var (
		result string
		exit   float64
		notes  string
	)
	cmd := &cobra.Command{
		Use:   "outcome <entry-id>",
		Short: "Close an open ledger entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc, cleanup, err := opts.engine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			entry, err := uc.ReportOutcome(cmd.Context(), args[0], models.Outcome(result), exit, notes)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entry)
		},
	}
	cmd.Flags().StringVar(&result, "result", "", "win, loss or breakeven")
	cmd.Flags().Float64Var(&exit, "exit", 0, "exit price")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("result")
	_ = cmd.MarkFlagRequired("exit")
	return cmd
}

func statsCmd(opts *rootOptions) *cobra.Command {
	var (
		asset  string
		market string
		since  string
		until  string
		byType bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print closed-trade performance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, to, field, ok := util.ParseRange(since, until)
			if !ok {
				return fmt.Errorf("invalid %s", field)
			}
			uc, cleanup, err := opts.engine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			f := models.EntryFilter{Asset: asset, MarketType: models.MarketType(market), Since: from, Until: to}
			if byType {
				return printJSON(cmd.OutOrStdout(), uc.SignalTypeStats(f))
			}
			return printJSON(cmd.OutOrStdout(), uc.Stats(f))
		},
	}
	cmd.Flags().StringVar(&asset, "asset", "", "filter by asset")
	cmd.Flags().StringVar(&market, "market", "", "filter by market type")
	cmd.Flags().StringVar(&since, "since", "", "RFC3339 lower bound")
	cmd.Flags().StringVar(&until, "until", "", "RFC3339 upper bound")
	cmd.Flags().BoolVar(&byType, "by-type", false, "break down by signal type")
	return cmd
}

func readSnapshot(stdin io.Reader, file string) (*models.SensorData, error) {
	r := stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("open snapshot: %w", err)
		}
		defer f.Close()
		r = f
	}
	var data models.SensorData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &data, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
	"github.com/aayeshatech/SYMBOLASTRO/internal/services/astro"
	"github.com/aayeshatech/SYMBOLASTRO/internal/usecase"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/config"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/util"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "astroctl",
		Short:         "Transit scoring and price simulation from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	var configPath string
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path (defaults are used when empty)")

	loadConfig := func() (*config.Config, error) {
		if configPath == "" {
			return config.Default(), nil
		}
		return config.Load(configPath)
	}

	root.AddCommand(analyzeCmd(out, loadConfig))
	root.AddCommand(symbolsCmd(out, loadConfig))
	return root
}

func newUseCase(cfg *config.Config) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(usecase.AnalysisDeps{
		Analyzer: astro.NewEngine(),
		Symbols:  cfg.Analysis.Symbols,
	})
}

func analyzeCmd(out io.Writer, loadConfig func() (*config.Config, error)) *cobra.Command {
	var (
		format string
		asOf   string
	)
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL [TIMEFRAME]",
		Short: "Run one analysis and print it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			timeframe := ""
			if len(args) == 2 {
				timeframe = args[1]
			}
			var anchor time.Time
			if asOf != "" {
				t, ok := util.ParseTime(asOf)
				if !ok {
					return fmt.Errorf("invalid --as-of %q", asOf)
				}
				anchor = t
			}

			res, err := newUseCase(cfg).ComputeAsOf(cmd.Context(), args[0], timeframe, anchor)
			if err != nil {
				return err
			}

			switch strings.ToLower(format) {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			case "table", "":
				return renderTable(out, res)
			default:
				return fmt.Errorf("unknown format %q (table|json)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table or json")
	cmd.Flags().StringVar(&asOf, "as-of", "", "anchor time (RFC3339, YYYY-MM-DD or unix seconds)")
	return cmd
}

func symbolsCmd(out io.Writer, loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "symbols",
		Short: "List the configured symbols",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			for _, s := range newUseCase(cfg).Symbols() {
				fmt.Fprintln(out, s)
			}
			return nil
		},
	}
}

func renderTable(out io.Writer, res *models.AnalysisResult) error {
	rec := res.CurrentRecommendation
	fmt.Fprintf(out, "%s %s  generated for %s\n", res.Symbol, res.Timeframe, res.GeneratedFor.Format(util.DateLayout))
	fmt.Fprintf(out, "Recommendation: %s (confidence %s, bullish %s, bearish %s)\n\n",
		rec.Label, rec.Confidence, rec.BullishProbability, rec.BearishProbability)

	periods := tablewriter.NewWriter(out)
	periods.Header("Period", "Bullish", "Bearish", "Transits")
	for _, p := range res.Probabilities {
		if err := periods.Append(
			p.Period.Format(time.RFC3339),
			fmt.Sprintf("%.1f%%", p.BullishProbability*100),
			fmt.Sprintf("%.1f%%", p.BearishProbability*100),
			fmt.Sprintf("%d", len(p.Transits)),
		); err != nil {
			return err
		}
	}
	if err := periods.Render(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	transits := tablewriter.NewWriter(out)
	transits.Header("Period", "Body", "Sign", "Aspect", "Orb", "R", "Influence")
	for _, t := range res.Transits {
		retro := ""
		if t.Retrograde {
			retro = "R"
		}
		if err := transits.Append(
			t.Period.Format(time.RFC3339),
			string(t.Body),
			string(t.Sign),
			string(t.Aspect),
			fmt.Sprintf("%.2f", t.Orb),
			retro,
			t.Influence,
		); err != nil {
			return err
		}
	}
	if err := transits.Render(); err != nil {
		return err
	}

	if n := len(res.PriceData); n > 0 {
		first, last := res.PriceData[0], res.PriceData[n-1]
		fmt.Fprintf(out, "\nSimulated price: %.2f -> %.2f over %d points\n", first.Price, last.Price, n)
	}
	return nil
}

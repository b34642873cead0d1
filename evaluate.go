package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AMeenalosini/StressTesting/config"
	"github.com/AMeenalosini/StressTesting/domain"
	"github.com/AMeenalosini/StressTesting/repository"
	"github.com/AMeenalosini/StressTesting/service"
)

// evaluateFlags holds the parsed flags for the evaluate command. Nil shocks
// were not given on the command line.
type evaluateFlags struct {
	unemploymentShock   *float64
	gdpShock            *float64
	profilePath         string
	format              string
	failOnBreach        bool
	currentUnemployment bool
	explain             bool
}

// evaluateOutput is the JSON shape printed by evaluate --format json.
type evaluateOutput struct {
	domain.StressResult
	Explanation string `json:"explanation,omitempty"`
}

func newEvaluateCmd() *cobra.Command {
	var (
		flags        evaluateFlags
		unemployment float64
		gdp          float64
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one stress scenario and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("unemployment-shock") {
				flags.unemploymentShock = &unemployment
			}
			if cmd.Flags().Changed("gdp-shock") {
				flags.gdpShock = &gdp
			}
			return runEvaluate(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&unemployment, "unemployment-shock", service.DefaultUnemploymentShock, "Unemployment shock in percentage points")
	f.Float64Var(&gdp, "gdp-shock", service.DefaultGDPShock, "GDP shock in percentage points")
	f.StringVar(&flags.profilePath, "profile", "", "YAML bank profile (defaults to the demo bank)")
	f.StringVar(&flags.format, "format", "text", "Output format: text or json")
	f.BoolVar(&flags.failOnBreach, "fail-on-breach", false, "Exit 1 when the scenario fails the Basel minimum")
	f.BoolVar(&flags.currentUnemployment, "include-current-unemployment", false, "Add the latest FRED unemployment rate to the unemployment shock (needs FRED_API_KEY)")
	f.BoolVar(&flags.explain, "explain", false, "Append a short summary (uses OPENAI_API_KEY when set, a template otherwise)")
	return cmd
}

func runEvaluate(ctx context.Context, out io.Writer, flags evaluateFlags) error {
	if flags.format != "text" && flags.format != "json" {
		return codeError(exitInput, "unknown format %q: use text or json", flags.format)
	}

	profile := domain.DefaultBankProfile()
	if flags.profilePath != "" {
		p, err := config.LoadProfile(flags.profilePath)
		if err != nil {
			return codeError(exitConfig, "%s", err)
		}
		profile = p
	}
	if err := profile.Validate(); err != nil {
		return codeError(exitConfig, "%s", err)
	}

	scenario, err := service.ResolveScenario(flags.unemploymentShock, flags.gdpShock)
	if err != nil {
		return codeError(exitInput, "%s", err)
	}

	if flags.currentUnemployment {
		rate, err := currentUnemploymentRate(ctx)
		if err != nil {
			return codeError(exitRuntime, "fetch unemployment rate: %s", err)
		}
		scenario.UnemploymentShock += rate
	}

	result, err := service.Evaluate(profile, scenario)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return codeError(exitInput, "%s", err)
		}
		return codeError(exitConfig, "%s", err)
	}

	var explanation string
	if flags.explain {
		explanation = explainResult(ctx, profile, result)
	}

	if flags.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(evaluateOutput{StressResult: result, Explanation: explanation}); err != nil {
			return codeError(exitRuntime, "encode result: %s", err)
		}
	} else {
		writeTextResult(out, profile, result)
		if explanation != "" {
			fmt.Fprintf(out, "\n%s\n", explanation)
		}
	}

	if flags.failOnBreach && result.Result == domain.VerdictFail {
		return codeError(exitBreach, "CAR %s%% is below the Basel minimum of %v%%", result.CapitalAdequacyRatio, result.BaselMinimum)
	}
	return nil
}

func currentUnemploymentRate(ctx context.Context) (float64, error) {
	cfg, err := config.Load()
	if err != nil {
		return 0, err
	}
	svc := service.NewUnemploymentService(service.UnemploymentConfig{
		APIKey:   cfg.FREDAPIKey,
		BaseURL:  cfg.FREDBaseURL,
		SeriesID: cfg.FREDSeriesID,
		Timeout:  cfg.FREDTimeout,
	}, repository.NewMockCache(), zap.NewNop())

	ctx, cancel := context.WithTimeout(ctx, cfg.FREDTimeout+time.Second)
	defer cancel()
	return svc.CurrentRate(ctx)
}

func explainResult(ctx context.Context, profile domain.BankProfile, result domain.StressResult) string {
	cfg, err := config.Load()
	if err != nil {
		return service.FallbackExplanation(profile, result)
	}
	svc := service.NewExplanationService(service.ExplanationConfig{
		APIKey: cfg.OpenAIAPIKey,
		APIURL: cfg.OpenAIAPIURL,
		Model:  cfg.OpenAIModel,
	}, zap.NewNop())
	return svc.Explain(ctx, profile, result)
}

func writeTextResult(out io.Writer, profile domain.BankProfile, r domain.StressResult) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Bank:\t%s\n", profile.Name)
	fmt.Fprintf(tw, "Scenario:\t%s\n", r.Scenario)
	fmt.Fprintf(tw, "Unemployment shock:\t%v pp\n", r.Inputs.UnemploymentShock)
	fmt.Fprintf(tw, "GDP shock:\t%v pp\n", r.Inputs.GDPShock)
	fmt.Fprintf(tw, "Credit loss:\t%s\n", humanize.Comma(r.Losses.CreditLoss))
	fmt.Fprintf(tw, "Market loss:\t%s\n", humanize.Comma(r.Losses.MarketLoss))
	fmt.Fprintf(tw, "Total loss:\t%s\n", humanize.Comma(r.Losses.TotalLoss))
	fmt.Fprintf(tw, "Capital before stress:\t%s\n", humanize.Comma(r.Capital.BeforeStress))
	fmt.Fprintf(tw, "Capital after stress:\t%s\n", humanize.Comma(r.Capital.AfterStress))
	fmt.Fprintf(tw, "Capital adequacy ratio:\t%s%%\n", r.CapitalAdequacyRatio)
	fmt.Fprintf(tw, "Basel minimum:\t%v%%\n", r.BaselMinimum)
	fmt.Fprintf(tw, "Result:\t%s\n", r.Result)
	tw.Flush()
}

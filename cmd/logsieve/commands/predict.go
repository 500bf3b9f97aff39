package commands

import (
	"fmt"
	"time"

	"github.com/moolen/logsieve/internal/config"
	"github.com/moolen/logsieve/internal/ingest"
	"github.com/moolen/logsieve/internal/logging"
	"github.com/moolen/logsieve/internal/prediction"
	"github.com/spf13/cobra"
)

var (
	predictConfigPath string
	predictNow        string
)

var predictCmd = &cobra.Command{
	Use:   "predict <history.json>",
	Short: "Forecast recurring issues from a history file",
	Long: `Reads a JSON object mapping issue categories to past occurrences
({"network": [{"timestamp": ..., "severity": ..., "accounts_affected": ...}]})
and prints the next expected occurrence of every category with enough history,
plus preventive action codes for forecasts above the risk threshold.`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().StringVar(&predictConfigPath, "config", "", "Path to the analysis config YAML (defaults are used when empty)")
	predictCmd.Flags().StringVar(&predictNow, "now", "", "Reference time for forecasts (defaults to the current time)")
}

type predictOutput struct {
	Predictions     []prediction.Prediction     `json:"predictions" yaml:"predictions"`
	Recommendations []prediction.Recommendation `json:"recommendations" yaml:"recommendations"`
}

func runPredict(cmd *cobra.Command, args []string) error {
	logger := logging.GetLogger("predict")

	cfg, err := config.LoadOrDefault(predictConfigPath)
	if err != nil {
		return err
	}
	now, err := referenceTime(predictNow)
	if err != nil {
		return err
	}

	history, err := ingest.ReadHistoryFile(args[0])
	if err != nil {
		return err
	}
	logger.Info("Loaded history for %d categories from %s", len(history), args[0])

	predictions := prediction.Predict(history, now, prediction.Options{
		MinSamples:   cfg.MinPredictionSamples,
		OverdueBoost: cfg.OverdueProbabilityBoost,
	})
	return writeOutput(cmd.OutOrStdout(), outputFormat, predictOutput{
		Predictions:     predictions,
		Recommendations: prediction.Recommend(predictions, nil, cfg.RiskThreshold),
	})
}

// referenceTime parses a --now value, falling back to the wall clock.
func referenceTime(value string) (time.Time, error) {
	if value == "" {
		return time.Now().UTC(), nil
	}
	t, err := ingest.ParseTimestamp(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now value: %w", err)
	}
	return t, nil
}

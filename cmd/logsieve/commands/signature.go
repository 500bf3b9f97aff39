package commands

import (
	"strings"

	"github.com/moolen/logsieve/internal/logprocessing"
	"github.com/moolen/logsieve/internal/models"
	"github.com/spf13/cobra"
)

var signatureCmd = &cobra.Command{
	Use:   "signature <message>",
	Short: "Show the category and normalized signature of a log message",
	Long: `Categorizes a single message and prints its pattern signature: the
masked template, extracted variables, exception name, top stack frames and
the template hash used to cluster equivalent messages.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSignature,
}

type signatureOutput struct {
	Category  models.ErrorCategory           `json:"category" yaml:"category"`
	Signature logprocessing.PatternSignature `json:"signature" yaml:"signature"`
}

func runSignature(cmd *cobra.Command, args []string) error {
	message := strings.Join(args, " ")
	category := logprocessing.CategorizeMessage(message)
	return writeOutput(cmd.OutOrStdout(), outputFormat, signatureOutput{
		Category:  category,
		Signature: logprocessing.ExtractSignature(message, category),
	})
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"adaptive-quiz-service/internal/cognitive"
	"adaptive-quiz-service/internal/domain"
)

// NewAnalyzeCmd rebuilds a cognitive profile from a saved performance summary.
func NewAnalyzeCmd() *cobra.Command {
	var textOnly bool
	cmd := &cobra.Command{
		Use:   "analyze <summary.json|->",
		Short: "Print the cognitive profile for a saved performance summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			summary, err := readSummary(in)
			if err != nil {
				return err
			}
			profile := cognitive.Analyze(summary)
			if textOnly {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), profile.ProfessionalSummary)
				return err
			}
			return writeIndented(cmd.OutOrStdout(), profile)
		},
	}
	cmd.Flags().BoolVar(&textOnly, "text", false, "print only the professional summary")
	return cmd
}

// readSummary accepts either a bare summary or a stored result / simulate report that wraps
// one under "summary".
func readSummary(r io.Reader) (domain.PerformanceSummary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.PerformanceSummary{}, err
	}
	var wrapped struct {
		Summary *domain.PerformanceSummary `json:"summary"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return domain.PerformanceSummary{}, fmt.Errorf("decode summary: %w", err)
	}
	if wrapped.Summary != nil {
		return *wrapped.Summary, nil
	}
	var summary domain.PerformanceSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return domain.PerformanceSummary{}, fmt.Errorf("decode summary: %w", err)
	}
	return summary, nil
}

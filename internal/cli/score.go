package cli

import (
	"fmt"
	"strings"

	"github.com/Domenick1991/tablebot/internal/service/confidence"
	"github.com/spf13/cobra"
)

func NewScoreCmd() *cobra.Command {
	var threshold float64
	c := &cobra.Command{
		Use:   "score <user text> <response>",
		Short: "Print the confidence analysis of a reply",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := confidence.NewScorer(confidence.DefaultLexicon(), threshold).Score(args[0], args[1])
			reasons := "-"
			if len(a.Reasons) > 0 {
				reasons = strings.Join(a.Reasons, ", ")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "score: %.2f\nescalate: %t\nreasons: %s\n", a.Score, a.Escalate, reasons)
			return nil
		},
	}
	c.Flags().Float64Var(&threshold, "threshold", confidence.DefaultThreshold, "escalate at or below this score")
	return c
}

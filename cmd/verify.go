package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panenka-league/results-cli/internal/verify"
)

var (
	verifyFormat string
	verifyStrict bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check imported results for internal consistency",
	Long:  "Recomputes participant totals from per-question deltas and checks fight structure (question counts and the result cross product). Read-only.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "verify"))

		st, err := openStore(ctx, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		v := &verify.Verifier{
			Store:             st,
			ExpectedQuestions: cfg.Import.ExpectedQuestions,
		}

		report, verifyErr := v.Verify(ctx)
		if verifyErr != nil {
			return verifyErr
		}
		log.Info("verification finished",
			zap.Int("fights_checked", report.FightsChecked),
			zap.Int("participants_checked", report.ParticipantsChecked),
			zap.Int("total_mismatches", len(report.ParticipantTotalMismatches)),
			zap.Int("structure_issues", len(report.FightStructureIssues)))

		if err := renderOutput(cmd.OutOrStdout(), verifyFormat, report); err != nil {
			return err
		}

		if verifyStrict && !report.IsSuccessful {
			_, err := v.AssertValid(ctx)
			return err
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyFormat, "format", "json", "Output format: json or yaml")
	verifyCmd.Flags().BoolVar(&verifyStrict, "strict", false, "Exit non-zero when inconsistencies are found")
	rootCmd.AddCommand(verifyCmd)
}

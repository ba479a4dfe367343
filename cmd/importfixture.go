package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panenka-league/results-cli/internal/importer"
)

var importFixtureCmd = &cobra.Command{
	Use:   "import-fixture <fixture.json> [more.json...]",
	Short: "Import hand-curated season fixtures",
	Long:  "Imports JSON season fixtures (seasons without CSV snapshots) with the same replace-by-fight-code semantics as a season import.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "import-fixture"))

		st, err := openStore(ctx, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		for _, path := range args {
			fixture, err := importer.LoadFixture(path)
			if err != nil {
				return err
			}
			summary, err := importer.ImportFixture(ctx, st, fixture, path)
			if err != nil {
				return eris.Wrapf(err, "import fixture %s", path)
			}
			log.Info("fixture imported",
				append([]zap.Field{
					zap.String("path", path),
					zap.Int("season", fixture.SeasonNumber),
				}, summary.ZapFields()...)...)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importFixtureCmd)
}

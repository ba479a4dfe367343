package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panenka-league/results-cli/internal/importer"
	"github.com/panenka-league/results-cli/internal/names"
	"github.com/panenka-league/results-cli/internal/roster"
)

var importTours []int

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import tour result snapshots into the results database",
	Long:  "Parses the downloaded tour CSV snapshots listed in the manifest, resolves fight rosters, and writes fights, participants, questions and results in one transaction.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "import"))

		st, err := openStore(ctx, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		rosters, err := roster.Resolve(cfg.Import.RosterPath, cfg.Import.ManifestPath, cfg.Import.ClashesPath)
		if err != nil {
			return err
		}
		log.Info("rosters resolved", zap.Int("fights", len(rosters)))

		imp := &importer.Importer{
			Store:        st,
			DataRoot:     cfg.Import.DataRoot,
			ManifestPath: cfg.Import.ManifestPath,
			SeasonNumber: cfg.Import.SeasonNumber,
			Source:       cfg.Import.Source,
			Rosters:      rosters,
			Resolver:     rosterResolver(rosters),
		}

		var tours []int
		if cmd.Flags().Changed("tours") {
			tours = importTours
		}

		summary, err := imp.ImportSeason(ctx, tours)
		if err != nil {
			return err
		}
		log.Info("season import finished", summary.ZapFields()...)

		return renderOutput(cmd.OutOrStdout(), "json", summary)
	},
}

// rosterResolver builds the identity resolver from every spelling the
// rosters mention.
func rosterResolver(rosters roster.Rosters) *names.Resolver {
	var corpus []string
	for _, key := range rosters.Keys() {
		players, _ := rosters.Players(key.Tour, key.Fight)
		corpus = append(corpus, players...)
	}
	resolver := names.NewResolver()
	resolver.Build(corpus)
	return resolver
}

func init() {
	importCmd.Flags().IntSliceVar(&importTours, "tours", nil, "Restrict the import to these tour numbers")
	rootCmd.AddCommand(importCmd)
}

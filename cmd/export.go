package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panenka-league/results-cli/internal/histdata"
	"github.com/panenka-league/results-cli/internal/names"
)

var (
	exportFormat   string
	exportOutput   string
	exportFixtures []string
)

// exportDocument is the envelope of an export run.
type exportDocument struct {
	GeneratedAt string                 `json:"generated_at" yaml:"generated_at"`
	Seasons     []int                  `json:"seasons" yaml:"seasons"`
	Fights      []histdata.FightRecord `json:"fights" yaml:"fights"`
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the historical fights dataset",
	Long:  "Builds the cross-season historical dataset from the configured sources and emits it with canonicalized participant names.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "export"))

		loader := &histdata.Loader{Sources: histdata.Sources{
			DataRoot:     cfg.Import.DataRoot,
			ManifestPath: cfg.Import.ManifestPath,
			SeasonNumber: cfg.Import.SeasonNumber,
			RosterPath:   cfg.Import.RosterPath,
			ClashesPath:  cfg.Import.ClashesPath,
			FixturePaths: exportFixtures,
		}}

		dataset, err := loader.Load(ctx)
		if err != nil {
			return err
		}

		resolver := names.NewResolver()
		resolver.Build(dataset.RawNames)
		canonicalized := 0
		for i := range dataset.Fights {
			for j := range dataset.Fights[i].Participants {
				participant := &dataset.Fights[i].Participants[j]
				display, ok := resolver.Canonicalize(participant.Display)
				if !ok {
					continue
				}
				if display != participant.Display {
					canonicalized++
				}
				participant.Display = display
				participant.Normalized = names.Normalize(display)
			}
		}
		log.Info("dataset exported",
			zap.Int("fights", len(dataset.Fights)),
			zap.Int("names_canonicalized", canonicalized))

		doc := exportDocument{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Seasons:     dataset.Seasons,
			Fights:      dataset.Fights,
		}

		out := cmd.OutOrStdout()
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return eris.Wrapf(err, "export: create %s", exportOutput)
			}
			defer f.Close()
			out = f
		}
		return renderOutput(out, exportFormat, doc)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json or yaml")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Write to a file instead of stdout")
	exportCmd.Flags().StringSliceVar(&exportFixtures, "fixtures", nil, "Additional season fixture JSON files to include")
	rootCmd.AddCommand(exportCmd)
}

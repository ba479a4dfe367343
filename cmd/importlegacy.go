package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panenka-league/results-cli/internal/importer"
	"github.com/panenka-league/results-cli/internal/names"
	"github.com/panenka-league/results-cli/internal/sheet"
	"github.com/panenka-league/results-cli/pkg/gsheets"
)

var importLegacySnapshot string

var importLegacyCmd = &cobra.Command{
	Use:   "import-legacy",
	Short: "Import a legacy coded results sheet",
	Long:  "Parses a legacy results sheet whose fight blocks are addressed by S..E..F.. header codes, either from a saved htmlview snapshot file or fetched live, and imports the fights.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "import-legacy"))

		var (
			grids      []sheet.Grid
			sourcePath string
			err        error
		)
		if importLegacySnapshot != "" {
			f, openErr := os.Open(importLegacySnapshot)
			if openErr != nil {
				return eris.Wrapf(openErr, "open snapshot %s", importLegacySnapshot)
			}
			grids, err = sheet.ParseWaffle(f)
			f.Close()
			sourcePath = importLegacySnapshot
		} else {
			client := gsheets.New(gsheets.Options{
				UserAgent:  cfg.Sheets.UserAgent,
				Timeout:    time.Duration(cfg.Sheets.TimeoutSecs) * time.Second,
				RatePerSec: cfg.Sheets.RatePerSec,
			})
			grids, err = client.FetchWaffle(ctx, cfg.Sheets.SpreadsheetID)
			sourcePath = "htmlview:" + cfg.Sheets.SpreadsheetID
		}
		if err != nil {
			return err
		}

		var fights []sheet.CodedFight
		for _, grid := range grids {
			fights = append(fights, sheet.ParseCodedSheet(grid)...)
		}
		log.Info("coded sheet parsed",
			zap.Int("tables", len(grids)),
			zap.Int("fights", len(fights)))

		st, err := openStore(ctx, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		resolver := names.NewResolver()
		resolver.Build(importer.CodedNames(fights))

		summary, err := importer.ImportCoded(ctx, st, fights, resolver, sourcePath)
		if err != nil {
			return err
		}
		log.Info("legacy import finished", summary.ZapFields()...)

		return renderOutput(cmd.OutOrStdout(), "json", summary)
	},
}

func init() {
	importLegacyCmd.Flags().StringVar(&importLegacySnapshot, "snapshot", "", "Saved htmlview snapshot file (fetches live when empty)")
	rootCmd.AddCommand(importLegacyCmd)
}

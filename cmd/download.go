package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panenka-league/results-cli/pkg/gsheets"
)

var downloadDestination string

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the spreadsheet tabs as CSV snapshots",
	Long:  "Fetches the worksheet catalog of the configured spreadsheet and saves every tab as a CSV file, writing a manifest.json the importer reads.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "download"))

		client := gsheets.New(gsheets.Options{
			UserAgent:  cfg.Sheets.UserAgent,
			Timeout:    time.Duration(cfg.Sheets.TimeoutSecs) * time.Second,
			RatePerSec: cfg.Sheets.RatePerSec,
		})

		manifest, err := client.DownloadAll(ctx, cfg.Sheets.SpreadsheetID, downloadDestination)
		if err != nil {
			return err
		}
		log.Info("snapshot download finished",
			zap.String("destination", downloadDestination),
			zap.Int("worksheets", len(manifest)))
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadDestination, "destination", "data/raw/season02", "Directory for CSV files and manifest.json")
	rootCmd.AddCommand(downloadCmd)
}

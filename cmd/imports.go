package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/panenka-league/results-cli/internal/store"
)

var importsLimit int

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "Show the import audit trail",
	Long:  "Lists recorded import runs with their source, season, status and timing, newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		records, err := st.ListImports(ctx, importsLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			zap.L().Info("no import records found, run 'import' first")
			return nil
		}

		formatImportRecords(cmd.OutOrStdout(), records)
		return nil
	},
}

func formatImportRecords(out io.Writer, records []store.ImportRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tSEASON\tSTATUS\tSTARTED\tDURATION\tMESSAGE")
	_, _ = fmt.Fprintln(w, "--\t------\t------\t------\t-------\t--------\t-------")

	for _, record := range records {
		started := time.Unix(int64(record.StartedAt), 0).UTC()
		duration := "-"
		if record.FinishedAt != nil {
			d := time.Duration((*record.FinishedAt - record.StartedAt) * float64(time.Second))
			duration = d.Round(time.Millisecond).String()
		}
		message := ""
		if record.Message != nil {
			message = truncate(*record.Message, 60)
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\t%s\n",
			record.ID,
			record.Source,
			record.SeasonNumber,
			record.Status,
			started.Format("2006-01-02 15:04:05"),
			duration,
			message,
		)
	}
	_ = w.Flush()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

func init() {
	importsCmd.Flags().IntVar(&importsLimit, "limit", 20, "Maximum number of records to show (0 = all)")
	rootCmd.AddCommand(importsCmd)
}

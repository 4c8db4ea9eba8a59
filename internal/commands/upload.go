package commands

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sathvik-zluri/moneytrack/internal/config"
	"github.com/sathvik-zluri/moneytrack/internal/models"
	"github.com/sathvik-zluri/moneytrack/internal/repository"
	"github.com/sathvik-zluri/moneytrack/internal/services/upload"
)

func newUploadCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Upload a CSV file of transactions",
		Long:  "Upload sends a .csv file to the backend. Refused rows are written to transaction_errors.csv in the output directory.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			file := models.UploadCandidateFile{
				Name:      filepath.Base(path),
				MediaType: mime.TypeByExtension(filepath.Ext(path)),
				Data:      data,
			}
			a.page.OpenUpload()
			d := a.page.Surface().Change(cmd.Context(), []models.UploadCandidateFile{file})
			if err := a.done(); err != nil {
				return err
			}
			// The modal stays open when the upload failed without a message
			// for the user; the log has the details.
			if d == upload.Accepted && a.page.State().ShowUploadModal {
				return errors.New("upload did not complete")
			}
			return nil
		},
	}
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent uploads from the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.LoadEnv()
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("no database configured (set MONEYTRACK_DATABASE_URL)")
			}
			db, err := config.InitDB(cfg.DatabaseURL)
			if err != nil {
				return err
			}

			batches, err := repository.NewUploadBatchRepository(db).List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list uploads: %w", err)
			}
			printBatches(cmd, batches)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of uploads to show")
	return cmd
}

func printBatches(cmd *cobra.Command, batches []models.UploadBatch) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tOUTCOME\tSAVED\tDUPLICATES\tSCHEMA ERRORS\tSTARTED")
	for _, b := range batches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			b.ID, b.Filename, b.Outcome, b.TransactionsSaved, b.DuplicateCount, b.SchemaErrorCount,
			b.StartedAt.Format("2006-01-02 15:04:05"))
	}
	tw.Flush()
}

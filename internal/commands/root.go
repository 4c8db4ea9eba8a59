package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sathvik-zluri/moneytrack/internal/config"
	"github.com/sathvik-zluri/moneytrack/internal/download"
	"github.com/sathvik-zluri/moneytrack/internal/logger"
	"github.com/sathvik-zluri/moneytrack/internal/notify"
	"github.com/sathvik-zluri/moneytrack/internal/services/transactions"
	"github.com/sathvik-zluri/moneytrack/internal/txnapi"
)

var errReported = errors.New("errors were reported")

type rootOptions struct {
	configPath string
	outDir     string
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "moneytrack",
		Short: "Manage transactions on a MoneyTrack backend",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("MONEYTRACK_CONFIG"), "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVarP(&opts.outDir, "out", "o", ".", "directory for downloaded CSV files")

	rootCmd.AddCommand(
		newListCommand(opts),
		newAddCommand(opts),
		newUpdateCommand(opts),
		newDeleteCommand(opts),
		newUploadCommand(opts),
		newExportCommand(opts),
		newHistoryCommand(opts),
	)

	return rootCmd
}

// app is what one CLI invocation works with.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	printer *notify.Printer
	page    *transactions.Page
}

func (o *rootOptions) newApp(cmd *cobra.Command) (*app, error) {
	config.LoadEnv()
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	log := logger.NewWithWriter(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339}).
		Level(logger.ParseLevel(cfg.LogLevel))
	printer := notify.NewPrinter(cmd.OutOrStdout())

	page := transactions.NewPage(transactions.Deps{
		API:       txnapi.New(cfg.BackendURL, cfg.BackendTimeout, log),
		Notifier:  printer,
		Sink:      download.DirSink{Dir: o.outDir, Out: cmd.OutOrStdout()},
		Log:       log,
		Limit:     cfg.PageLimit,
		Frequency: cfg.Frequency,
	})

	return &app{cfg: cfg, log: log, printer: printer, page: page}, nil
}

// done turns error notifications into a failing exit status.
func (a *app) done() error {
	if n := a.printer.Count(notify.Error); n > 0 {
		return fmt.Errorf("%w: %d", errReported, n)
	}
	return nil
}

type filterFlags struct {
	page      int
	limit     int
	frequency string
	start     string
	end       string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", transactions.DefaultPage, "page number")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "page size (default from config)")
	cmd.Flags().StringVar(&f.frequency, "frequency", "", "look-back window: 7, 30, 365 or custom")
	cmd.Flags().StringVar(&f.start, "start", "", "custom range start, yyyy-mm-dd")
	cmd.Flags().StringVar(&f.end, "end", "", "custom range end, yyyy-mm-dd")
}

func (f *filterFlags) apply(p *transactions.Page) error {
	p.SetPage(f.page)
	if f.limit > 0 {
		p.SetLimit(f.limit)
	}
	if f.start != "" || f.end != "" {
		if f.frequency == "" {
			f.frequency = txnapi.FrequencyCustom
		}
		var rng txnapi.DateRange
		var err error
		if f.start != "" {
			if rng.Start, err = parseFormDate(f.start); err != nil {
				return err
			}
		}
		if f.end != "" {
			if rng.End, err = parseFormDate(f.end); err != nil {
				return err
			}
		}
		p.SetDateRange(&rng)
	}
	if f.frequency != "" {
		return p.SetFrequency(f.frequency)
	}
	return nil
}

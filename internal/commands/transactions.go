package commands

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/sathvik-zluri/moneytrack/internal/models"
)

func parseFormDate(s string) (models.Date, error) {
	t, err := time.Parse(models.FormDateLayout, s)
	if err != nil {
		return models.Date{}, fmt.Errorf("invalid date %q, expected yyyy-mm-dd", s)
	}
	return models.NewDate(t.Year(), t.Month(), t.Day()), nil
}

func printTransactions(w io.Writer, txs []models.Transaction, total int) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tDESCRIPTION\tAMOUNT\tCURRENCY")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", tx.ID, tx.Date.Display(), tx.Description, tx.Amount.String(), tx.Currency)
	}
	tw.Flush()
	fmt.Fprintf(w, "%d of %d transactions\n", len(txs), total)
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a page of transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			if err := filters.apply(a.page); err != nil {
				return err
			}
			if err := a.page.Fetch(cmd.Context()); err != nil {
				return a.done()
			}
			st := a.page.State()
			printTransactions(cmd.OutOrStdout(), st.Transactions, st.TotalCount)
			return a.done()
		},
	}
	filters.register(cmd)
	return cmd
}

type inputFlags struct {
	date        string
	description string
	amount      string
	currency    string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "transaction date, yyyy-mm-dd")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().StringVar(&f.amount, "amount", "", "amount")
	cmd.Flags().StringVar(&f.currency, "currency", "", "currency code")
}

func (f *inputFlags) input() (models.TransactionInput, error) {
	in := models.TransactionInput{Date: f.date, Description: f.description, Currency: f.currency}
	if f.amount != "" {
		amt, err := decimal.NewFromString(f.amount)
		if err != nil {
			return in, fmt.Errorf("invalid amount %q: %w", f.amount, err)
		}
		in.Amount = amt
	}
	return in, nil
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	var flags inputFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := flags.input()
			if err != nil {
				return err
			}
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			a.page.OpenAdd()
			_ = a.page.Submit(cmd.Context(), in)
			return a.done()
		},
	}
	flags.register(cmd)
	return cmd
}

func newUpdateCommand(opts *rootOptions) *cobra.Command {
	var (
		flags   inputFlags
		filters filterFlags
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a transaction on the selected page",
		Long:  "Update loads the page selected by the filter flags and edits a transaction from it. Fields left unset keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid transaction ID %q", args[0])
			}
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			if err := filters.apply(a.page); err != nil {
				return err
			}
			if err := a.page.Fetch(cmd.Context()); err != nil {
				return a.done()
			}
			if err := a.page.OpenEdit(id); err != nil {
				return fmt.Errorf("transaction %d: %w", id, err)
			}

			current := a.page.FormValues()
			in, err := flags.input()
			if err != nil {
				return err
			}
			if in.Date == "" {
				in.Date = current.Date
			}
			if in.Description == "" {
				in.Description = current.Description
			}
			if flags.amount == "" {
				in.Amount = current.Amount
			}
			if in.Currency == "" {
				in.Currency = current.Currency
			}

			_ = a.page.Submit(cmd.Context(), in)
			return a.done()
		},
	}
	flags.register(cmd)
	filters.register(cmd)
	return cmd
}

func newDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more transactions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, 0, len(args))
			for _, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid transaction ID %q", arg)
				}
				ids = append(ids, id)
			}
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			_ = a.page.Delete(cmd.Context(), ids...)
			return a.done()
		},
	}
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var filters filterFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the selected page to transactions.csv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}
			if err := filters.apply(a.page); err != nil {
				return err
			}
			if err := a.page.Fetch(cmd.Context()); err != nil {
				return a.done()
			}
			if err := a.page.Export(cmd.Context()); err != nil {
				return err
			}
			return a.done()
		},
	}
	filters.register(cmd)
	return cmd
}

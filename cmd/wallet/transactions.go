package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"secondbrain/internal/cli"
	"secondbrain/internal/core"
	"secondbrain/internal/wallet"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Record and browse transactions",
	}
	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())
	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var (
		account, category string
		from, to          string
		limit             int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := wallet.TransactionFilter{AccountID: account, CategoryID: category, Limit: limit}
			var err error
			if from != "" {
				if filter.From, err = core.ParseDate(from); err != nil {
					return fmt.Errorf("invalid --from: %w", err)
				}
			}
			if to != "" {
				if filter.To, err = core.ParseDate(to); err != nil {
					return fmt.Errorf("invalid --to: %w", err)
				}
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			txs := s.Ledger.ListTransactions(filter)
			if len(txs) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No transactions"))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("Date"),
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Description"),
				cli.HeaderStyle.Render("Account"),
				cli.HeaderStyle.Render("Category"),
				cli.HeaderStyle.Render("Amount"))
			for _, tx := range txs {
				// Stored amounts are positive for money leaving the account.
				shown := tx.Amount.Neg()
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					tx.Date.UTC().Format(time.DateOnly),
					tx.ID,
					truncate(tx.Description, 40),
					tx.AccountID,
					tx.CategoryID,
					cli.AmountStyle(shown.Cents).Render(s.money.Format(shown)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "only this account")
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows, 0 for all")
	return cmd
}

func addTransactionCmd() *cobra.Command {
	var (
		description, amount string
		account, category   string
		date                string
		income, yes         bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense or, with --income, an income",
		RunE: func(cmd *cobra.Command, _ []string) error {
			money, err := parseAmount(amount)
			if err != nil {
				return err
			}
			day, err := parseDay(date, time.Now())
			if err != nil {
				return err
			}
			kind := core.KindExpense
			if income {
				kind = core.KindIncome
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			tx, err := s.Ledger.RecordTransaction(cmd.Context(), wallet.RecordTransactionParams{
				Description: description,
				Amount:      money,
				AccountID:   account,
				CategoryID:  category,
				Date:        day,
				Kind:        kind,
				Confirmed:   yes,
			})
			if errors.Is(err, core.ErrConfirmationRequired) {
				fmt.Println(cli.WarningStyle.Render("This expense takes the account below zero. Run again with --yes to record it."))
				return err
			}
			if err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Recorded %s (%s)", tx.ID, s.money.Format(tx.Amount.Abs()))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "what it was for")
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "positive amount, e.g. 12.50")
	cmd.Flags().StringVar(&account, "account", "", "account id")
	cmd.Flags().StringVar(&category, "category", core.CategoryOther, "category id")
	cmd.Flags().StringVar(&date, "date", "", "YYYY-MM-DD, defaults to today")
	cmd.Flags().BoolVar(&income, "income", false, "record money coming in")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "allow taking a budgeted account below zero")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a transaction and revert its effect",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Ledger.DeleteTransaction(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render("Deleted transaction " + args[0]))
			return nil
		},
	}
}

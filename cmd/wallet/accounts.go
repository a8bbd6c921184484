package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"secondbrain/internal/cli"
	"secondbrain/internal/core"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
	}
	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(addAccountCmd())
	cmd.AddCommand(toggleAccountCmd())
	cmd.AddCommand(deleteAccountCmd())
	return cmd
}

func listAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts and balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Name"),
				cli.HeaderStyle.Render("Balance"),
				cli.HeaderStyle.Render("Budgeted"))
			for _, a := range s.Ledger.Accounts() {
				budgeted := "yes"
				if !a.IncludeInBudget {
					budgeted = cli.SubtleStyle.Render("no")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Name, s.money.Format(a.Balance), budgeted)
			}
			return nil
		},
	}
}

func addAccountCmd() *cobra.Command {
	var balance string
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opening := core.Money{}
			if balance != "" {
				cents, err := core.ParseSignedDecimalToCents(balance)
				if err != nil {
					return fmt.Errorf("invalid balance %q: %w", balance, err)
				}
				opening = core.Cents(cents)
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			acc, err := s.Ledger.CreateAccount(cmd.Context(), args[0], opening)
			if err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Created account %s (%s) with %s", acc.Name, acc.ID, s.money.Format(acc.Balance))))
			return nil
		},
	}
	cmd.Flags().StringVar(&balance, "balance", "", "opening balance, may be negative")
	return cmd
}

func toggleAccountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Include or exclude an account from the spendable total",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			acc, err := s.Ledger.ToggleIncludeInBudget(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			state := "excluded from"
			if acc.IncludeInBudget {
				state = "included in"
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("%s is now %s the budget", acc.Name, state)))
			return nil
		},
	}
}

func deleteAccountCmd() *cobra.Command {
	var reassignTo string
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an account, moving its transactions to another one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Ledger.DeleteAccount(cmd.Context(), args[0], reassignTo); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render("Deleted account " + args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&reassignTo, "reassign-to", "", "account receiving the transactions (required)")
	_ = cmd.MarkFlagRequired("reassign-to")
	return cmd
}

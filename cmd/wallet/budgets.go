package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"secondbrain/internal/cli"
	"secondbrain/internal/core"
	"secondbrain/internal/wallet"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "budgets",
		Aliases: []string{"goals"},
		Short:   "Manage savings goals",
	}
	cmd.AddCommand(listBudgetsCmd())
	cmd.AddCommand(addBudgetCmd())
	cmd.AddCommand(moveFundsCmd("allocate", "Move money from an account into a goal"))
	cmd.AddCommand(moveFundsCmd("withdraw", "Move money from a goal back to an account"))
	cmd.AddCommand(deleteBudgetCmd())
	return cmd
}

func listBudgetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List goals and their progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.HeaderStyle.Render("ID"),
				cli.HeaderStyle.Render("Name"),
				cli.HeaderStyle.Render("Saved"),
				cli.HeaderStyle.Render("Target"),
				cli.HeaderStyle.Render("Progress"))
			for _, b := range s.Ledger.Budgets() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\n",
					b.ID, b.Name, s.money.Format(b.SavedAmount), s.money.Format(b.TargetAmount), b.Progress()*100)
			}
			return nil
		},
	}
}

func addBudgetCmd() *cobra.Command {
	var target, date, image string
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a savings goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			money, err := parseAmount(target)
			if err != nil {
				return err
			}
			params := wallet.BudgetParams{Name: args[0], TargetAmount: money, ImageURL: image}
			if date != "" {
				d, err := core.ParseDate(date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				params.TargetDate = &d
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			b, err := s.Ledger.CreateBudget(cmd.Context(), params)
			if err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Created goal %s (%s), target %s", b.Name, b.ID, s.money.Format(b.TargetAmount))))
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "target amount")
	cmd.Flags().StringVar(&date, "date", "", "target date, YYYY-MM-DD")
	cmd.Flags().StringVar(&image, "image", "", "image URL")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

// moveFundsCmd builds allocate and withdraw, which only differ in direction.
func moveFundsCmd(use, short string) *cobra.Command {
	var amount, account string
	cmd := &cobra.Command{
		Use:   use + " GOAL_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			money, err := parseAmount(amount)
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			var c wallet.Command = wallet.AllocateCmd{BudgetID: args[0], Amount: money, SourceAccountID: account}
			if use == "withdraw" {
				c = wallet.WithdrawCmd{BudgetID: args[0], Amount: money, DestAccountID: account}
			}
			if _, err := s.Ledger.Dispatch(cmd.Context(), c); err != nil {
				return err
			}

			b, err := s.Ledger.Budget(args[0])
			if err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("%s now holds %s", b.Name, s.money.Format(b.SavedAmount))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&amount, "amount", "a", "", "amount to move")
	cmd.Flags().StringVar(&account, "account", "", "account id")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func deleteBudgetCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "delete GOAL_ID",
		Short: "Delete a goal, returning what it holds to an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Ledger.DeleteBudget(cmd.Context(), args[0], to); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render("Deleted goal " + args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "account receiving the saved amount")
	return cmd
}

package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"secondbrain/internal/cli"
	"secondbrain/internal/core"
	"secondbrain/internal/crm"
)

func totalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Show funds, savings and what is left to spend",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			t := s.Ledger.Totals()
			var b strings.Builder
			b.WriteString(cli.TitleStyle.Render("Wallet") + "\n")
			fmt.Fprintf(&b, "Total funds:        %s\n", s.money.Format(t.TotalFunds))
			fmt.Fprintf(&b, "Saved in goals:     %s\n", s.money.Format(t.TotalSaved))
			fmt.Fprintf(&b, "Available to spend: %s",
				cli.AmountStyle(t.AvailableToSpend.Cents).Render(s.money.Format(t.AvailableToSpend)))
			fmt.Println(cli.BoxStyle.Render(b.String()))
			return nil
		},
	}
}

func reportCmd() *cobra.Command {
	var start, end string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize work completed in a date range",
		Long:  "Summarize tasks completed between --start and --end, both inclusive. Defaults to the current month.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, to := monthBounds(time.Now())
			var err error
			if start != "" {
				if from, err = core.ParseDate(start); err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
			}
			if end != "" {
				if to, err = core.ParseDate(end); err != nil {
					return fmt.Errorf("invalid --end: %w", err)
				}
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.Tracker.Report(from, to)
			if err != nil {
				return err
			}
			printReport(report, s)
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD")
	return cmd
}

func printReport(r crm.Report, s *session) {
	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Work report %s to %s", r.StartDate, r.EndDate)))
	if len(r.Projects) == 0 {
		fmt.Println(cli.SubtleStyle.Render("Nothing completed in this range"))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		cli.HeaderStyle.Render("Project"),
		cli.HeaderStyle.Render("Company"),
		cli.HeaderStyle.Render("Tasks"),
		cli.HeaderStyle.Render("Time"),
		cli.HeaderStyle.Render("Value"))
	for _, p := range r.Projects {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			p.Project.Name, p.Project.CompanyName, len(p.CompletedTasks),
			formatDuration(p.Time), s.money.Format(p.TotalValue))
	}
	w.Flush()

	fmt.Println()
	for _, c := range r.CompanyBreakdown {
		fmt.Printf("  %-30s %s\n", c.CompanyName, s.money.Format(c.TotalValue))
	}
	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("Total %s in %s", s.money.Format(r.TotalValue), formatDuration(r.TotalTime))))
}

func formatDuration(d crm.Duration) string {
	return fmt.Sprintf("%dh%02dm", d.Hours, d.Minutes)
}

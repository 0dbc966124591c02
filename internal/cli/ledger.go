package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/carsound-ops/api/internal/export"
	"github.com/carsound-ops/api/internal/incentive"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// DatesCmd lists days that still have unpaid incentives.
func DatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dates",
		Short: "List days with unpaid incentives, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				days, err := a.reports.AvailableDays(ctx)
				if err != nil {
					return fmt.Errorf("failed to list days: %w", err)
				}
				out := cmd.OutOrStdout()
				if len(days) == 0 {
					fmt.Fprintln(out, "No unpaid incentives.")
					return nil
				}
				for _, d := range days {
					fmt.Fprintln(out, d)
				}
				return nil
			})
		},
	}
}

// ReportCmd prints the daily report.
func ReportCmd() *cobra.Command {
	var day, view string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the daily incentive report",
		Long: `Print the standard and additional sections of a day's report with totals.

Examples:
  opsctl report                              # newest open day
  opsctl report --date 2024-03-01 --view signature`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				report, err := a.reports.Daily(ctx, day, view)
				if err != nil {
					return fmt.Errorf("failed to build report: %w", err)
				}
				printReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&day, "date", "", "Day as YYYY-MM-DD (default: newest open day)")
	cmd.Flags().StringVar(&view, "view", "sale", "Grouping: sale or signature")
	return cmd
}

// ExportCmd writes the daily report workbook to a file.
func ExportCmd() *cobra.Command {
	var day, view, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the daily report as an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				report, err := a.reports.Daily(ctx, day, view)
				if err != nil {
					return fmt.Errorf("failed to build report: %w", err)
				}
				if output == "" {
					output = fmt.Sprintf("incentives-%s.xlsx", report.Day)
				}
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()

				if err := export.DailyReport(f, report, export.Options{RightToLeft: a.cfg.ExportRTL}); err != nil {
					return fmt.Errorf("failed to write workbook: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&day, "date", "", "Day as YYYY-MM-DD (default: newest open day)")
	cmd.Flags().StringVar(&view, "view", "sale", "Grouping: sale or signature")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: incentives-<date>.xlsx)")
	return cmd
}

// CheckCmd runs the ledger consistency check. It exits non-zero when issues
// are found.
func CheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report sales and ledger rows that disagree with each other",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				issues, err := a.reports.Consistency(ctx)
				if err != nil {
					return fmt.Errorf("failed to run consistency check: %w", err)
				}
				printIssues(cmd.OutOrStdout(), issues)
				if len(issues) > 0 {
					return fmt.Errorf("%d consistency issue(s) found", len(issues))
				}
				return nil
			})
		},
	}
}

func printReport(out io.Writer, r incentive.Report) {
	fmt.Fprintf(out, "Report for %s (%s view)\n\n", color.New(color.Bold).Sprint(r.Day), r.View)

	printSection(out, "Standard", r.Standard, func(g incentive.Group) int64 { return g.FlatRate })
	printSection(out, "Additional", r.Additional, func(g incentive.Group) int64 { return g.AdditionalAmount })

	fmt.Fprintf(out, "Standard:   %d sale(s)  %d\n", r.Totals.StandardCount, r.Totals.StandardTotal)
	fmt.Fprintf(out, "Additional: %d sale(s)  %d\n", r.Totals.AdditionalCount, r.Totals.AdditionalTotal)
	fmt.Fprintf(out, "Total:      %s\n", color.New(color.FgGreen, color.Bold).Sprint(r.Totals.GrandTotal))

	if len(r.Warnings) > 0 {
		fmt.Fprintln(out)
		printIssues(out, r.Warnings)
	}
}

func printSection(out io.Writer, title string, groups []incentive.Group, amount func(incentive.Group) int64) {
	fmt.Fprintf(out, "%s (%d)\n", title, len(groups))
	if len(groups) == 0 {
		fmt.Fprintln(out, "  (none)")
		fmt.Fprintln(out)
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  CAR\tDETAILS\tRECEIVED\tINCENTIVE\tTECHNICIANS")
	for _, g := range groups {
		fmt.Fprintf(w, "  %s\t%s\t%d\t%d\t%s\n",
			g.CarType, g.Details, g.AmountTotal, amount(g), incentive.JoinNames(g.Technicians))
	}
	w.Flush()
	fmt.Fprintln(out)
}

func printIssues(out io.Writer, issues []incentive.Issue) {
	if len(issues) == 0 {
		fmt.Fprintf(out, "%s ledger is consistent\n", color.New(color.FgGreen).Sprint("✓"))
		return
	}
	for _, is := range issues {
		fmt.Fprintf(out, "%s %s: %s\n", color.New(color.FgYellow).Sprint("!"), is.Kind, is.Message)
	}
}

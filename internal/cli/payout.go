package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/carsound-ops/api/internal/export"
	"github.com/carsound-ops/api/internal/incentive"
	"github.com/carsound-ops/api/internal/service"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// PayoutCmd prints, and optionally exports, a day's payout sheet.
func PayoutCmd() *cobra.Command {
	var (
		day         string
		supervisors int
		techs       []string
		staff       []string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "payout",
		Short: "Compute the payout sheet for a day",
		Long: `Compute technician, prep, sales and supervisor payouts for a day.

Technician overrides are keyed by name, staff payouts by directory id.

Examples:
  opsctl payout --date 2024-03-01
  opsctl payout --date 2024-03-01 --supervisors 2 --tech Ali=3000 --staff <id>=1500
  opsctl payout --date 2024-03-01 -o payout.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			techPayouts, err := parseAssignments(techs)
			if err != nil {
				return fmt.Errorf("invalid --tech: %w", err)
			}
			staffPayouts, err := parseAssignments(staff)
			if err != nil {
				return fmt.Errorf("invalid --staff: %w", err)
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				sheet, err := a.payouts.Compute(ctx, service.PayoutRequest{
					Day:               day,
					Supervisors:       supervisors,
					TechnicianPayouts: techPayouts,
					StaffPayouts:      staffPayouts,
				})
				if err != nil {
					return fmt.Errorf("failed to compute payout: %w", err)
				}
				printPayout(cmd.OutOrStdout(), sheet)

				if output == "" {
					return nil
				}
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				if err := export.PayoutSheet(f, sheet, export.Options{RightToLeft: a.cfg.ExportRTL}); err != nil {
					return fmt.Errorf("failed to write workbook: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nWrote %s\n", output)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&day, "date", "", "Day as YYYY-MM-DD (default: newest open day)")
	cmd.Flags().IntVar(&supervisors, "supervisors", 0, "Number of supervisors (default: configured value)")
	cmd.Flags().StringArrayVar(&techs, "tech", nil, "Technician override as name=amount (repeatable)")
	cmd.Flags().StringArrayVar(&staff, "staff", nil, "Prep or sales payout as id=amount (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also write the sheet to this xlsx file")
	return cmd
}

// CloseCmd marks a day paid after an interactive confirmation.
func CloseCmd() *cobra.Command {
	var (
		day string
		yes bool
		by  string
	)

	cmd := &cobra.Command{
		Use:   "close",
		Short: "Mark every unpaid incentive of a day as paid",
		Long: `Close a day. This cannot be undone: closed incentives disappear from
reports and payouts. Closing a day twice closes nothing the second time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if day == "" {
				return fmt.Errorf("--date is required")
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				if !yes {
					report, err := a.reports.Daily(ctx, day, "")
					if err != nil {
						return fmt.Errorf("failed to build report: %w", err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Closing %s: %d standard, %d additional, total %d\n",
						day, report.Totals.StandardCount, report.Totals.AdditionalCount, report.Totals.GrandTotal)
					if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Mark these incentives as paid?") {
						fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
						return nil
					}
				}

				result, err := a.closing.Close(ctx, day, by)
				if err != nil {
					return fmt.Errorf("failed to close %s: %w", day, err)
				}
				if result.RowsClosed == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s was already closed\n", day)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s closed %d incentive(s), total %d\n",
					color.New(color.FgGreen).Sprint("✓"), result.RowsClosed, result.Totals.GrandTotal)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&day, "date", "", "Day as YYYY-MM-DD")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().StringVar(&by, "by", os.Getenv("USER"), "Name recorded in the closing notification")
	return cmd
}

// parseAssignments turns key=value flags into a map. Later keys win.
func parseAssignments(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%q: expected key=amount", p)
		}
		out[key] = strings.TrimSpace(value)
	}
	return out, nil
}

func confirm(in io.Reader, out io.Writer, msg string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", msg)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func printPayout(out io.Writer, p incentive.PayoutSheet) {
	fmt.Fprintf(out, "Payout for %s\n", color.New(color.Bold).Sprint(p.Day))
	fmt.Fprintf(out, "Pool: %d (standard %d + additional %d)\n\n", p.Pool, p.Totals.StandardTotal, p.Totals.AdditionalTotal)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TECHNICIAN\tCARS\tSUGGESTED\tPAYOUT")
	for _, t := range p.Technicians {
		marker := ""
		if t.Overridden {
			marker = color.New(color.FgCyan).Sprint(" *")
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d%s\n", t.Name, t.Cars, t.Suggested, t.Payout, marker)
	}
	w.Flush()

	for _, group := range []struct {
		title string
		lines []incentive.StaffLine
	}{{"Prep", p.Prep}, {"Sales", p.Sales}} {
		for _, s := range group.lines {
			fmt.Fprintf(out, "%s %s: %d\n", group.title, s.Name, s.Payout)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Technicians: %d  Prep: %d  Sales: %d\n", p.TechnicianTotal, p.PrepTotal, p.SalesTotal)
	surplus := fmt.Sprint(p.Surplus)
	if p.Surplus < 0 {
		surplus = color.New(color.FgRed).Sprint(p.Surplus)
	}
	fmt.Fprintf(out, "Surplus: %s  Supervisors: %d  Each: %d  Remainder: %d\n",
		surplus, p.Supervisors, p.PerSupervisor, p.Remainder)
	for _, warning := range p.Warnings {
		fmt.Fprintf(out, "%s %s\n", color.New(color.FgYellow).Sprint("!"), warning)
	}
}

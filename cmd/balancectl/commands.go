package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/custbalance/internal/domain"
	"github.com/iho/custbalance/internal/usecase"
)

func (c *cli) services(ctx context.Context) (*services, error) {
	return c.open(ctx, c.cfg, c.logger)
}

func newRecalculateCmd(c *cli) *cobra.Command {
	var (
		customer        string
		outstandingOnly bool
		workers         int
		force           bool
	)

	cmd := &cobra.Command{
		Use:   "recalculate",
		Short: "Regenerate open balance allocation for customers",
		Long: `Links posted entries missing from the open balance and reallocates credits
against debits for every selected customer. Run it with BALANCE_RULES_ENABLED=false
so postings do not recalculate concurrently, or pass --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.BalanceRulesEnabled && !force {
				return fmt.Errorf("%w: set BALANCE_RULES_ENABLED=false or pass --force", domain.ErrBalanceRulesActive)
			}
			if cmd.Flags().Changed("workers") {
				if workers <= 0 {
					return fmt.Errorf("--workers must be positive, got %d", workers)
				}
				c.cfg.BatchWorkers = workers
			}

			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			report, err := svc.batch.Run(cmd.Context(), usecase.BatchInput{
				NamePattern:     customer,
				OnlyOutstanding: outstandingOnly,
			})
			if report != nil {
				printReport(cmd, report)
			}
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return fmt.Errorf("recalculation interrupted: %w", err)
				}
				return err
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&customer, "customer", "", `Customer name filter; "*" matches any run of characters`)
	cmd.Flags().BoolVar(&outstandingOnly, "outstanding-only", false, "Only process customers with open entries")
	cmd.Flags().IntVar(&workers, "workers", 0, "Customers processed concurrently; overrides BATCH_WORKERS")
	cmd.Flags().BoolVar(&force, "force", false, "Run even though balance rules are enabled")

	return cmd
}

func printReport(cmd *cobra.Command, report *usecase.BatchReport) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "customers\t%d\n", report.Customers)
	fmt.Fprintf(w, "processed\t%d\n", report.Processed)
	fmt.Fprintf(w, "succeeded\t%d\n", report.Succeeded)
	fmt.Fprintf(w, "failed\t%d\n", report.Failed)
	fmt.Fprintf(w, "entries examined\t%d\n", report.Examined)
	fmt.Fprintf(w, "entries updated\t%d\n", report.Updated)
	fmt.Fprintf(w, "entries linked\t%d\n", report.Linked)
	fmt.Fprintf(w, "duration\t%s\n", report.Duration.Round(time.Millisecond))
	_ = w.Flush()
}

func newOutstandingCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "outstanding",
		Short: "List customers with open balance entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			ids, err := svc.balances.CustomersWithOpenEntries(cmd.Context())
			if err != nil {
				return err
			}

			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func newBalanceCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "balance CUSTOMER_ID",
		Short: "Show a customer's open balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.services(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.close()

			b, err := svc.balances.GetBalance(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "customer\t%s\n", b.CustomerID)
			fmt.Fprintf(w, "outstanding\t%s\n", b.Outstanding.StringFixed(2))
			fmt.Fprintf(w, "unallocated debits\t%s\n", b.UnallocatedDebits.StringFixed(2))
			fmt.Fprintf(w, "unallocated credits\t%s\n", b.UnallocatedCredits.StringFixed(2))
			fmt.Fprintf(w, "open entries\t%d\n", b.OpenEntries)
			return w.Flush()
		},
	}
}

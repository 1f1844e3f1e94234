// Package sync holds the one-shot job commands for running any pipeline
// stage from the command line.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vossync/internal/interfaces/cli"
)

var (
	env        string
	instanceID uint
	account    string
	days       int
	timeout    time.Duration
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one pipeline stage and exit",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "default", "Environment")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 6*time.Hour, "Job deadline")

	cmd.AddCommand(
		newStageCommand("customers", "Pull customers from every enabled instance", func(ctx context.Context, app *cli.App) error {
			return app.Sync.SyncAllCustomers(ctx)
		}),
		newStageCommand("phones", "Reconcile online phone state", func(ctx context.Context, app *cli.App) error {
			return app.Sync.SyncAllPhones(ctx)
		}),
		newStageCommand("reference", "Pull gateways, fee rate groups and suites", func(ctx context.Context, app *cli.App) error {
			return app.Sync.SyncReferenceData(ctx)
		}),
		newCdrCommand(),
		newBackfillCommand(),
		newStageCommand("reports", "Pull account detail reports", func(ctx context.Context, app *cli.App) error {
			return app.Reports.SyncAllReports(ctx)
		}),
		newStageCommand("stats", "Roll up yesterday's statistics", func(ctx context.Context, app *cli.App) error {
			return app.Stats.RollupAll(ctx)
		}),
		newStageCommand("health", "Probe every enabled instance once", func(ctx context.Context, app *cli.App) error {
			return app.Health.CheckAll(ctx)
		}),
	)

	return cmd
}

func newStageCommand(use, short string, fn func(ctx context.Context, app *cli.App) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(fn)
		},
	}
}

func newCdrCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cdr",
		Short: "Pull call detail records",
		Long:  `Pull call detail records for every enabled instance, or for one account on one instance when --instance and --account are given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, app *cli.App) error {
				if instanceID != 0 && account != "" {
					n, err := app.Sync.SyncCustomerCDRs(ctx, instanceID, account, days)
					if err != nil {
						return err
					}
					fmt.Printf("synced %d records\n", n)
					return nil
				}
				if instanceID != 0 || account != "" {
					return fmt.Errorf("--instance and --account must be given together")
				}
				return app.Sync.SyncAllCDRs(ctx)
			})
		},
	}

	cmd.Flags().UintVar(&instanceID, "instance", 0, "Instance ID")
	cmd.Flags().StringVar(&account, "account", "", "Customer account")
	cmd.Flags().IntVar(&days, "days", 1, "How many days back to pull")

	return cmd
}

func newBackfillCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Backfill one instance: customers first, then the last week of records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if instanceID == 0 {
				return fmt.Errorf("--instance is required")
			}
			return withApp(func(ctx context.Context, app *cli.App) error {
				return app.Sync.BackfillInstance(ctx, instanceID)
			})
		},
	}

	cmd.Flags().UintVar(&instanceID, "instance", 0, "Instance ID")

	return cmd
}

func withApp(fn func(ctx context.Context, app *cli.App) error) error {
	app, err := cli.Bootstrap(env)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := fn(ctx, app); err != nil {
		return err
	}
	app.Sync.Pool().Wait()
	return nil
}

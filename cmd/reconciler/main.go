package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-timesheet/internal/app"
	"go-timesheet/internal/clock"
	"go-timesheet/internal/leave"
	"go-timesheet/internal/recon"
	"go-timesheet/internal/shared/apperror"
	"go-timesheet/internal/shared/connection"
	"go-timesheet/internal/timesheet"
	"go-timesheet/internal/week"
)

const dateLayout = "2006-01-02"

// buildReconciler wires a Reconciler against the configured database. A
// connection failure here is the only fatal outcome of a maintenance run;
// per-record errors inside a batch are counted and reported instead.
func buildReconciler() (*recon.Reconciler, func(), error) {
	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, err
	}

	loc, err := app.CompanyLocation()
	if err != nil {
		sqlDB.Close()
		return nil, nil, err
	}

	timesheetRepo := timesheet.NewRepository(gormDB)
	clockRepo := clock.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)

	leaveSource := leave.NewTimesheetSource(leaveRepo, loc)
	timesheetService := timesheet.NewService(sqlDB, timesheetRepo, leaveSource, loc)
	clockService := clock.NewService(sqlDB, clockRepo, timesheetService, loc)

	r := recon.New(sqlDB, timesheetRepo, timesheetService, clockRepo, clockService, loc)
	return r, func() { sqlDB.Close() }, nil
}

func printResult(name string, result recon.Result) {
	fmt.Printf("%s: %s\n", name, result)
	for _, re := range result.Errors {
		fmt.Printf("  error record=%s: %s\n", re.RecordID, re.Message)
	}
}

func main() {
	_ = godotenv.Load()
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	root := &cobra.Command{
		Use:   "reconciler",
		Short: "Timesheet maintenance batches",
		Long: "Runs the out-of-band reconciliation batches: replaying closed clock " +
			"sessions, collapsing duplicate timesheets, correcting week windows, " +
			"migrating misplaced day columns and seeding the current week.",
		SilenceUsage: true,
	}

	var batchSize int
	backfillCmd := &cobra.Command{
		Use:   "backfill",
		Short: "Replay unreconciled clock sessions into timesheets",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := buildReconciler()
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := r.Backfill(cmd.Context(), batchSize)
			if err != nil {
				return err
			}
			printResult("backfill", result)
			return nil
		},
	}
	backfillCmd.Flags().IntVar(&batchSize, "batch-size", 500, "sessions fetched per page")

	dedupCmd := &cobra.Command{
		Use:   "dedup",
		Short: "Collapse duplicate timesheets per (user, week)",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := buildReconciler()
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := r.MergeDuplicateTimesheets(cmd.Context())
			if err != nil {
				return err
			}
			printResult("dedup", result)
			return nil
		},
	}

	fixWeeksCmd := &cobra.Command{
		Use:   "fix-weeks",
		Short: "Recompute canonical week windows for every timesheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := buildReconciler()
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := r.FixTimesheetWeeks(cmd.Context())
			if err != nil {
				return err
			}
			printResult("fix-weeks", result)
			return nil
		},
	}

	var (
		moveUser string
		moveFrom string
		moveTo   string
		moveDay  string
	)
	moveDayCmd := &cobra.Command{
		Use:   "move-day",
		Short: "Move one misplaced day column between two weeks",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(moveUser)
			if err != nil {
				return fmt.Errorf("invalid --user: %w", err)
			}
			day, ok := week.ParseDay(moveDay)
			if !ok {
				return fmt.Errorf("invalid --day %q (want mon..sun)", moveDay)
			}

			r, closeFn, err := buildReconciler()
			if err != nil {
				return err
			}
			defer closeFn()

			loc, err := app.CompanyLocation()
			if err != nil {
				return err
			}
			fromDate, err := time.ParseInLocation(dateLayout, moveFrom, loc)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			toDate, err := time.ParseInLocation(dateLayout, moveTo, loc)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}

			result, err := r.MoveDayHours(cmd.Context(), userID, fromDate, toDate, day)
			if err != nil {
				return err
			}
			printResult("move-day", result)
			return nil
		},
	}
	moveDayCmd.Flags().StringVar(&moveUser, "user", "", "user id (uuid)")
	moveDayCmd.Flags().StringVar(&moveFrom, "from", "", "any date inside the wrong week (YYYY-MM-DD)")
	moveDayCmd.Flags().StringVar(&moveTo, "to", "", "any date inside the correct week (YYYY-MM-DD)")
	moveDayCmd.Flags().StringVar(&moveDay, "day", "", "day column to move (mon..sun)")
	moveDayCmd.MarkFlagRequired("user")
	moveDayCmd.MarkFlagRequired("from")
	moveDayCmd.MarkFlagRequired("to")
	moveDayCmd.MarkFlagRequired("day")

	ensureWeekCmd := &cobra.Command{
		Use:   "ensure-week",
		Short: "Seed the current week from last week's recurring entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := buildReconciler()
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := r.EnsureCurrentWeek(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			printResult("ensure-week", result)
			return nil
		},
	}

	allCmd := &cobra.Command{
		Use:   "all",
		Short: "Run backfill, dedup, fix-weeks and ensure-week in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, closeFn, err := buildReconciler()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			steps := []struct {
				name string
				run  func(context.Context) (recon.Result, error)
			}{
				{"backfill", func(ctx context.Context) (recon.Result, error) { return r.Backfill(ctx, batchSize) }},
				{"dedup", r.MergeDuplicateTimesheets},
				{"fix-weeks", r.FixTimesheetWeeks},
				{"ensure-week", func(ctx context.Context) (recon.Result, error) { return r.EnsureCurrentWeek(ctx, time.Now()) }},
			}
			for _, step := range steps {
				result, err := step.run(ctx)
				if err != nil {
					return fmt.Errorf("%s: %w", step.name, err)
				}
				printResult(step.name, result)
			}
			return nil
		},
	}
	allCmd.Flags().IntVar(&batchSize, "batch-size", 500, "sessions fetched per backfill page")

	root.AddCommand(backfillCmd, dedupCmd, fixWeeksCmd, moveDayCmd, ensureWeekCmd, allCmd)

	if err := root.Execute(); err != nil {
		logger.Error("reconciler run failed", zap.Error(err))
		os.Exit(1)
	}
}

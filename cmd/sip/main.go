package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sip-go/internal/app"
	"sip-go/internal/config"
	"sip-go/internal/database"
	"sip-go/internal/database/sqlc"
	"sip-go/internal/sip"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by the defaults.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a SipApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "LogIntake", "SweepAll").
func newApp(operation string) (*app.SipApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewSipApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// closeApp closes a and reports a close failure unless the command already failed.
func closeApp(a *app.SipApp, err *error) {
	if cerr := a.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

// applyFactors raises base by the day-condition flags. Without any flag base is
// returned as is, so zero still means the user's default goal.
func applyFactors(cmd *cobra.Command, base int64) int64 {
	hot, _ := cmd.Flags().GetBool("hot")
	active, _ := cmd.Flags().GetBool("active")
	recovery, _ := cmd.Flags().GetBool("recovery")
	if !hot && !active && !recovery {
		return base
	}
	return sip.DailyTarget(base, sip.GoalFactors{HotWeather: hot, Active: active, Recovery: recovery})
}

func goalFromFlags(cmd *cobra.Command) int64 {
	goal, _ := cmd.Flags().GetInt64("goal")
	return applyFactors(cmd, goal)
}

func printEvents(events []*sqlc.IntakeEvent) {
	for _, e := range events {
		fmt.Printf("#%-6d %s  %5d ml\n", e.ID, e.LoggedAt.Local().Format("15:04"), e.AmountMl)
	}
}

var rootCmd = &cobra.Command{
	Use:          "sip",
	Short:        "Daily water intake ledger",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and the local ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		instanceID := uuid.New().String()
		userID := uuid.New().String()
		cfg := config.NewConfig(instanceID, userID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if err := database.InitDatabase(cfg.Database, instanceID); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("User ID:     %s\n", userID)
		fmt.Printf("Base Dir:    %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Instance ID:  %s\n", cfg.InstanceID)
		fmt.Printf("User ID:      %s\n", cfg.UserID)
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("Default Goal: %d ml\n", cfg.DefaultGoal)
		fmt.Printf("Database:     %s\n", cfg.Database.Type)
		fmt.Printf("Coach:        %s\n", cfg.Feedback.Type)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:        %s (%s)\n", v.Name, v.Type)
		}
		return nil
	},
}

// log command
var logCmd = &cobra.Command{
	Use:   "log AMOUNT_ML",
	Short: "Log an intake",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		amount, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[0])
		}
		date, _ := cmd.Flags().GetString("date")
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp("LogIntake")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		result, err := a.LogIntake(sip.LogIntakeRequest{
			UserID:   user,
			AmountMl: amount,
			Goal:     goalFromFlags(cmd),
			Date:     date,
		})
		if err != nil {
			return err
		}

		snap := result.Snapshot
		fmt.Printf("Logged %d ml on %s (#%d)\n", amount, result.ResolvedDate, result.EventID)
		fmt.Printf("Total: %d / %d ml", result.TotalForDate, snap.GoalForDay)
		if snap.GoalMet {
			fmt.Print("  goal met")
		}
		fmt.Println()
		return nil
	},
}

// delete command
var deleteCmd = &cobra.Command{
	Use:   "delete EVENT_ID",
	Short: "Delete a logged intake",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid event id %q", args[0])
		}
		date, _ := cmd.Flags().GetString("date")
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp("DeleteIntake")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		result, err := a.DeleteIntake(id, user, date)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d ml from %s\n", result.DeletedAmount, result.LogicalDate)
		fmt.Printf("Total: %d ml\n", result.TotalForDate)
		return nil
	},
}

// goal command
var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage goals",
}

var goalSetCmd = &cobra.Command{
	Use:   "set GOAL_ML",
	Short: "Set the goal of a day (today by default)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		base, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid goal %q", args[0])
		}
		date, _ := cmd.Flags().GetString("date")
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp("SetGoal")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		snap, err := a.SetGoal(user, date, applyFactors(cmd, base))
		if err != nil {
			return err
		}
		fmt.Printf("Goal for %s: %d ml (total %d ml, met: %v)\n", snap.Date, snap.GoalForDay, snap.TotalIntake, snap.GoalMet)
		return nil
	},
}

var goalDefaultCmd = &cobra.Command{
	Use:   "default GOAL_ML",
	Short: "Set the goal used when none is given",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		goal, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid goal %q", args[0])
		}
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp("SetDefaultGoal")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if err := a.SetDefaultGoal(user, goal); err != nil {
			return err
		}
		fmt.Printf("Default goal: %d ml\n", goal)
		return nil
	},
}

var goalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the goal in force on a day",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		date, _ := cmd.Flags().GetString("date")
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp("GetHistory")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		history, err := a.GetHistory(user, date)
		if err != nil {
			return err
		}
		fmt.Printf("Goal for %s: %d ml\n", history.Date, history.ResolvedGoal)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show one day of intake",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		date, _ := cmd.Flags().GetString("date")
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp("GetHistory")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		history, err := a.GetHistory(user, date)
		if err != nil {
			return err
		}

		fmt.Printf("%s  %d / %d ml\n", history.Date, history.Total, history.ResolvedGoal)
		if len(history.Events) == 0 {
			fmt.Println("No intake logged.")
			return nil
		}
		printEvents(history.Events)
		return nil
	},
}

// stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recent totals and the current streak",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		days, _ := cmd.Flags().GetInt("days")
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp("GetStats")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		stats, err := a.GetStats(sip.StatsRequest{UserID: user, WindowDays: days, Goal: goalFromFlags(cmd)})
		if err != nil {
			return err
		}

		fmt.Printf("Streak:      %d day(s)\n", stats.Streak)
		fmt.Printf("Week:        %d ml (avg %d ml/day)\n", stats.WeekTotal, stats.WeekAverage)
		fmt.Printf("Month:       %d ml\n", stats.MonthTotal)
		fmt.Println()
		for _, d := range stats.Daily {
			fmt.Printf("%s  %6d ml\n", d.Date, d.Total)
		}
		return nil
	},
}

// import command
var importCmd = &cobra.Command{
	Use:   "import [FILE]",
	Short: "Import a CSV intake export, or watch a directory for them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		user, _ := cmd.Flags().GetString("user")
		watch, _ := cmd.Flags().GetString("watch")
		if watch == "" && len(args) == 0 {
			return fmt.Errorf("a FILE or --watch DIR is required")
		}

		a, err := newApp("BulkImport")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if watch != "" {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Watch(ctx, watch, user, goalFromFlags(cmd))
		}

		result, err := a.ImportFile(user, args[0], goalFromFlags(cmd))
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d, duplicates %d, skipped %d\n", result.Imported, result.Duplicates, len(result.Skipped))
		for _, s := range result.Skipped {
			fmt.Printf("  row %d: %s\n", s.Index+1, s.Reason)
		}
		for _, d := range result.FailedDates {
			fmt.Printf("  snapshot for %s not updated; run `sip backfill`\n", d)
		}
		return nil
	},
}

// claim command
var claimCmd = &cobra.Command{
	Use:   "claim GUEST_ID",
	Short: "Move a guest's intake and snapshots to your user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp("ClaimGuestData")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		result, err := a.ClaimGuestData(args[0], user, goalFromFlags(cmd))
		if err != nil {
			return err
		}
		fmt.Printf("Moved %d log(s) and %d snapshot(s) across %d day(s)\n",
			result.LogsTransferred, result.SnapshotsTransferred, len(result.DatesAffected))
		for _, d := range result.FailedDates {
			fmt.Printf("  snapshot for %s not updated; run `sip backfill`\n", d)
		}
		return nil
	},
}

// backfill command
var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Write missing daily snapshots",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		all, _ := cmd.Flags().GetBool("all")
		days, _ := cmd.Flags().GetInt("days")
		user, _ := cmd.Flags().GetString("user")

		op := "Backfill"
		if all {
			op = "SweepAll"
		}
		a, err := newApp(op)
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if all {
			report, err := a.SweepAll()
			if report != nil {
				fmt.Printf("Users: %d, locked: %d, backfilled: %d, failed: %d\n",
					report.Users, report.Locked, report.Backfilled, report.Failed)
			}
			return err
		}

		written, err := a.Backfill(user, days)
		if err != nil {
			return err
		}
		fmt.Printf("Backfilled %d snapshot(s)\n", written)
		return nil
	},
}

// repair-goals command
var repairGoalsCmd = &cobra.Command{
	Use:   "repair-goals",
	Short: "Find and fix corrupt snapshot goals",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		live, _ := cmd.Flags().GetBool("live")

		a, err := newApp("RepairGoals")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		report, err := a.RepairGoals(live)
		if err != nil {
			return err
		}

		for _, r := range report.Repairs {
			fmt.Printf("%s  %s  %d -> %d\n", r.UserID, r.Date, r.OldGoal, r.NewGoal)
		}
		fmt.Printf("Checked %d snapshot(s), %d corrupt", report.Checked, len(report.Repairs))
		if report.DryRun {
			fmt.Println(" (dry run; pass --live to apply)")
		} else {
			fmt.Printf(", %d repaired\n", report.Applied)
		}
		return nil
	},
}

// coach command
var coachCmd = &cobra.Command{
	Use:   "coach",
	Short: "Ask the hydration coach about today",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		date, _ := cmd.Flags().GetString("date")
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp("Feedback")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		msg, err := a.Feedback(ctx, user, goalFromFlags(cmd), date)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the nightly sweep",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("Serve")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.Serve(ctx)
	},
}

// ops command
var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "View recent ledger-changing operations",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("Operations")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		ops, err := a.Operations(limit)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				duration = op.FinishedAt.Time.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-15s  %s  %-8s  %-8s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

// archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive the ledger to a vault",
}

var archivePushCmd = &cobra.Command{
	Use:   "push",
	Short: "Encrypt and upload the ledger",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("ArchivePush")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if err := a.PushArchive(); err != nil {
			return err
		}
		fmt.Println("Ledger archived.")
		return nil
	},
}

var archivePullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Replace the local ledger with the archived one",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		version, err := app.PullArchive(cfg, passphrase)
		if err != nil {
			return err
		}
		fmt.Printf("Ledger restored at version %d\n", version)
		return nil
	},
}

var archiveKeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Create the archive key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		passphrase, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := app.Keygen(cfg, passphrase); err != nil {
			return err
		}
		fmt.Printf("Keys written to %s and %s\n", cfg.Encryption.PublicKeyPath, cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// guest command
var guestCmd = &cobra.Command{
	Use:   "guest",
	Short: "Manage guest users",
}

var guestNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a guest user",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("NewGuest")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		id, err := a.NewGuest()
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

func addUserFlag(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().StringP("user", "u", "", "User ID (default: user_id from config)")
	}
}

func addDateFlag(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().StringP("date", "d", "", "Logical date YYYY-MM-DD (default: today)")
	}
}

func addFactorFlags(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().Bool("hot", false, "Hot weather: raise the goal by 500 ml")
		c.Flags().Bool("active", false, "Active day: raise the goal by 750 ml")
		c.Flags().Bool("recovery", false, "Recovery day: raise the goal by 1000 ml")
	}
}

func addGoalFlags(cmds ...*cobra.Command) {
	for _, c := range cmds {
		c.Flags().Int64P("goal", "g", 0, "Goal in ml (default: the user's default goal)")
	}
	addFactorFlags(cmds...)
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// goal subcommands
	goalCmd.AddCommand(goalSetCmd)
	goalCmd.AddCommand(goalDefaultCmd)
	goalCmd.AddCommand(goalShowCmd)

	// archive subcommands
	archiveCmd.AddCommand(archivePushCmd)
	archiveCmd.AddCommand(archivePullCmd)
	archiveCmd.AddCommand(archiveKeygenCmd)

	guestCmd.AddCommand(guestNewCmd)

	addUserFlag(logCmd, deleteCmd, goalSetCmd, goalDefaultCmd, goalShowCmd, historyCmd,
		statsCmd, importCmd, claimCmd, backfillCmd, coachCmd)
	addDateFlag(logCmd, deleteCmd, goalSetCmd, goalShowCmd, historyCmd, coachCmd)
	addGoalFlags(logCmd, statsCmd, importCmd, claimCmd, coachCmd)
	addFactorFlags(goalSetCmd)

	statsCmd.Flags().Int("days", sip.DefaultStatsDays, "Number of days to show")
	importCmd.Flags().String("watch", "", "Watch a directory and import CSV files dropped into it")
	backfillCmd.Flags().Bool("all", false, "Lock and backfill every user")
	backfillCmd.Flags().Int("days", sip.MaxStreakDays, "Days to look back")
	repairGoalsCmd.Flags().Bool("live", false, "Apply repairs (default: dry run)")
	opsCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(goalCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(repairGoalsCmd)
	rootCmd.AddCommand(coachCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(opsCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(guestCmd)
}

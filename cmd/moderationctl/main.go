package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/thelibrary/moderation-backend/internal/config"
	"github.com/thelibrary/moderation-backend/internal/database"
	"github.com/thelibrary/moderation-backend/internal/lock"
	"github.com/thelibrary/moderation-backend/internal/logging"
	"github.com/thelibrary/moderation-backend/internal/models"
	"github.com/thelibrary/moderation-backend/internal/services"
	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	if err := newApp().Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "moderationctl",
		Usage: "Operator tooling for the moderation store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "store", Usage: "store driver (postgres, sqlite, mongo); defaults to STORE_DRIVER"},
			&cli.StringFlag{Name: "sqlite-path", Usage: "SQLite database path; defaults to SQLITE_PATH"},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			reconcileCommand(),
			reportsCommand(),
			alertsCommand(),
			strikesCommand(),
		},
	}
}

// env bundles what every command needs from the configured store.
type env struct {
	conn       *database.Conn
	moderation *services.ModerationService
	close      func()
}

func openEnv(ctx context.Context, c *cli.Command) (*env, error) {
	cfg := config.Load()
	if v := c.String("store"); v != "" {
		cfg.StoreDriver = v
	}
	if v := c.String("sqlite-path"); v != "" {
		cfg.SQLitePath = v
	}
	logging.Setup(logging.LevelFor(cfg.AppEnv))

	conn, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	locker, closeLocker, err := lock.Open(ctx, cfg.RedisURL, cfg.LockTTL)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}

	return &env{
		conn: conn,
		moderation: services.NewModerationService(conn.Store, locker,
			services.WithRules(services.RulesFromConfig(cfg)),
		),
		close: func() {
			_ = closeLocker()
			_ = conn.Close(context.Background())
		},
	}, nil
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create tables and indexes, including the one-open-alert-per-book index",
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := openEnv(ctx, c)
			if err != nil {
				return err
			}
			defer e.close()

			if err := database.Migrate(ctx, e.conn); err != nil {
				return err
			}
			fmt.Printf("migrated %s store\n", e.conn.Driver())
			return nil
		},
	}
}

func reconcileCommand() *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "Repair book alerts and rename flags lost to failed escalations",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "report what would change without writing"},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := openEnv(ctx, c)
			if err != nil {
				return err
			}
			defer e.close()

			out, err := e.moderation.Reconcile(ctx, c.Bool("dry-run"))
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(out)
			}
			printReconcile(out)
			return nil
		},
	}
}

func reportsCommand() *cli.Command {
	return &cli.Command{
		Name:  "reports",
		Usage: "List reports, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "target", Usage: "only reports against this target id"},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := openEnv(ctx, c)
			if err != nil {
				return err
			}
			defer e.close()

			var reports []models.Report
			if target := c.String("target"); target != "" {
				reports, err = e.moderation.ListReportsByTarget(ctx, target)
			} else {
				reports, err = e.moderation.ListReports(ctx)
			}
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(reports)
			}
			printReports(reports)
			return nil
		},
	}
}

func alertsCommand() *cli.Command {
	return &cli.Command{
		Name:  "alerts",
		Usage: "List book alerts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "book", Usage: "only alerts on this book id"},
			&cli.StringFlag{Name: "status", Usage: "alert, removed or restored"},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := openEnv(ctx, c)
			if err != nil {
				return err
			}
			defer e.close()

			var alerts []models.ReportAlert
			if book := c.String("book"); book != "" {
				alerts, err = e.moderation.ListAlertsByBook(ctx, book)
			} else {
				alerts, err = e.moderation.ListAlertsByStatus(ctx, c.String("status"))
			}
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(alerts)
			}
			printAlerts(alerts)
			return nil
		},
	}
}

func strikesCommand() *cli.Command {
	return &cli.Command{
		Name:  "strikes",
		Usage: "List strikes recorded against a user",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true, Usage: "user id"},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			e, err := openEnv(ctx, c)
			if err != nil {
				return err
			}
			defer e.close()

			strikes, err := e.moderation.ListStrikesByUser(ctx, c.String("user"))
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(strikes)
			}
			printStrikes(strikes)
			return nil
		},
	}
}

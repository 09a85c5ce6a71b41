package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"traybrief/internal/autostart"
	"traybrief/internal/caldav"
	"traybrief/internal/calendar"
	"traybrief/internal/config"
	"traybrief/internal/engine"
	"traybrief/internal/gcal"
	"traybrief/internal/github"
	"traybrief/internal/linear"
	"traybrief/internal/models"
	"traybrief/internal/todoist"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "traybrief",
		Usage: "Aggregate tasks, issues, notifications and calendar events into one daily snapshot.",
		Commands: []*cli.Command{
			authCommand(),
			runCommand(),
			snapshotCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate a Google account for calendar feeds of kind 'google'.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			oauthCfg, err := gcal.OAuthConfigForAuthFlow(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := gcal.TokenFromWeb(oauthCfg, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			fmt.Print("Enter a name for this account (e.g., 'personal', 'work'): ")
			accountName, _ := reader.ReadString('\n')
			accountName = strings.TrimSpace(accountName)

			if err := gcal.SaveToken(accountName, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "account", accountName)
			if accounts, err := gcal.TokenAccounts(); err == nil {
				logger.Info("Authenticated accounts available for google feeds.", "accounts", strings.Join(accounts, ", "))
			}
			return nil
		},
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the refresh engine until interrupted.",
		Action: func(c *cli.Context) error {
			logLevel := os.Getenv("LOG_LEVEL")
			if logLevel == "" {
				logLevel = "info"
			}
			logger := setupLogger(logLevel)

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			eng, cfg, err := buildEngine(ctx, logger, &consoleObserver{log: logger})
			if err != nil {
				return err
			}

			if cfg.Autostart {
				if mgr, err := autostart.New(); err != nil {
					logger.Warn("Autostart unavailable", "error", err)
				} else if !mgr.Enabled() {
					if err := mgr.Enable(); err != nil {
						logger.Warn("Failed to enable autostart", "error", err)
					}
				}
			}

			logger.Info("Starting refresh engine.", "interval", cfg.RefreshInterval)
			eng.Run(ctx)
			logger.Info("Shutting down.")
			return nil
		},
	}
}

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "Refresh once and print the aggregated snapshot.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("warn")

			eng, _, err := buildEngine(c.Context, logger, nil)
			if err != nil {
				return err
			}
			if err := eng.Refresh(c.Context); err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}

			return writeSnapshot(os.Stdout, eng.State())
		},
	}
}

// buildEngine loads the config and wires every configured source into a
// ready engine.
func buildEngine(ctx context.Context, logger *slog.Logger, obs engine.Observer) (*engine.Engine, *config.Config, error) {
	cfg, err := config.Load(config.Dir())
	if err != nil {
		return nil, nil, err
	}
	loc := cfg.Location()

	opts := engine.Options{
		Tasks:        todoist.NewClient(cfg.TodoistAPIToken, loc),
		SnoozeLabels: cfg.SnoozeDurations,
		Interval:     cfg.RefreshInterval,
		Observer:     obs,
		Logger:       logger,
	}

	if cfg.LinearAPIToken != "" {
		opts.Issues = linear.NewClient(cfg.LinearAPIToken, loc)
	}

	for _, acct := range cfg.GithubAccounts {
		opts.Notifications = append(opts.Notifications, github.NewClient(acct.Name, acct.Token, loc))
	}

	for _, feed := range cfg.CalendarFeeds {
		source, err := buildFeed(ctx, feed, loc)
		if err != nil {
			return nil, nil, fmt.Errorf("calendar feed %q: %w", feed.Name, err)
		}
		opts.Calendars = append(opts.Calendars, source)
	}

	if mgr, err := autostart.New(); err == nil {
		opts.Autostart = mgr
	} else {
		logger.Warn("Autostart unavailable", "error", err)
	}

	eng, err := engine.New(opts)
	if err != nil {
		return nil, nil, err
	}
	return eng, cfg, nil
}

func buildFeed(ctx context.Context, feed config.CalendarFeed, loc *time.Location) (engine.EventSource, error) {
	switch feed.Kind {
	case config.FeedKindICal:
		return calendar.NewClient(feed.Name, feed.URL, loc), nil
	case config.FeedKindGoogle:
		return gcal.NewClient(ctx, os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"),
			feed.Account, feed.Name, feed.CalendarID, loc)
	case config.FeedKindCalDAV:
		return caldav.NewClient(ctx, feed.Name, feed.URL, feed.Username, feed.Password, feed.Calendar, loc)
	default:
		return nil, fmt.Errorf("unknown kind %q", feed.Kind)
	}
}

// consoleObserver logs state transitions for headless runs. A graphical
// shell would implement engine.Observer instead.
type consoleObserver struct {
	log *slog.Logger
}

func (o *consoleObserver) OnStateChanged(state models.AppState) {
	o.log.Info("State updated.",
		"overdue", state.OverdueCount,
		"today", state.TodayCount,
		"tomorrow", state.TomorrowCount,
		"in_progress", state.InProgressCount,
		"notifications", state.NotificationCount,
		"events", state.EventCount,
		"error", state.ErrorMessage,
	)
}

func (o *consoleObserver) OnTaskCompleted(taskName string) {
	o.log.Info("Task completed.", "task", taskName)
}

func (o *consoleObserver) OnError(message string) {
	o.log.Error("Refresh failed.", "error", message)
}

// writeSnapshot renders the aggregated state as indented JSON.
func writeSnapshot(w io.Writer, state models.AppState) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(state); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

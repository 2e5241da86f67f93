// Command etapprover scans the thesis repository for pending submissions and
// notifies the webadmin, the supervisors and the author.
//
// Modes:
//
//	etapprover                      # process submissions, send everything
//	etapprover -cron                # unattended, log attached to the email
//	etapprover -interactive         # ask before every notification
//	etapprover -mode lookup         # resolve names typed on stdin
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/etp-webadmin/etapprover/internal/config"
	"github.com/etp-webadmin/etapprover/internal/email"
	"github.com/etp-webadmin/etapprover/internal/mattermost"
	"github.com/etp-webadmin/etapprover/internal/models"
	"github.com/etp-webadmin/etapprover/internal/notify"
	"github.com/etp-webadmin/etapprover/internal/repository"
	"github.com/etp-webadmin/etapprover/internal/resolve"
	"github.com/etp-webadmin/etapprover/internal/runlog"
	"github.com/etp-webadmin/etapprover/internal/username"
	"github.com/etp-webadmin/etapprover/pkg/logging"
)

func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "path to the configuration file")
		cron        = flag.Bool("cron", false, "unattended run, attach the captured log to the summary email")
		interactive = flag.Bool("interactive", false, "ask for confirmation before sending each notification")
		dryRun      = flag.Bool("dry-run", false, "preview notifications without sending (implies -interactive)")
		captureLog  = flag.Bool("log", false, "capture the log even outside -cron")
		mode        = flag.String("mode", "scrape", "run mode: scrape or lookup")
	)
	flag.Parse()

	if *dryRun {
		*interactive = true
	}

	var capture *runlog.Capture
	if *cron || *captureLog {
		capture = runlog.NewCapture()
		logging.SetupWithCapture(capture)
	} else {
		logging.Setup()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	switch *mode {
	case "scrape":
		if err := runScrape(ctx, cfg, capture, *interactive); err != nil {
			slog.Error("run aborted", "error", err)
			os.Exit(1)
		}
	case "lookup":
		if err := runLookup(ctx, cfg); err != nil {
			slog.Error("lookup failed", "error", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q (want scrape or lookup)\n", *mode)
		os.Exit(2)
	}
}

// runScrape is the main path: fetch pending submissions, notify, summarize.
// Only repository access failures abort the run.
func runScrape(ctx context.Context, cfg *config.Config, capture *runlog.Capture, interactive bool) error {
	start := time.Now()
	if capture != nil {
		slog.Info("run started", "run_id", capture.RunID(), "interactive", interactive)
	} else {
		slog.Info("run started", "interactive", interactive)
	}

	repo, err := repository.NewClient(cfg.Repository.BaseURL, cfg.Mattermost.InsecureSkipVerify)
	if err != nil {
		return fmt.Errorf("repository client: %w", err)
	}
	if err := repo.Login(ctx, cfg.Repository.Email, cfg.Repository.Password); err != nil {
		return err
	}
	subs, err := repo.FetchPending(ctx)
	if err != nil {
		return err
	}

	messenger, directory := connectMattermost(ctx, cfg.Mattermost)

	resolver := resolve.New(resolve.NewOverrides(cfg.Notify.Overrides), directory)
	mailer := email.NewMailer(cfg.SMTP)

	var confirmer notify.Confirmer = notify.AutoConfirmer{}
	if interactive {
		confirmer = notify.NewPromptConfirmer(os.Stdin, os.Stdout)
	}

	dispatcher := notify.NewDispatcher(cfg.Notify, resolver, messenger, mailer, confirmer)
	dispatcher.Run(ctx, subs)

	// The summary goes out whenever there is something to report: pending
	// submissions, or a captured log the webadmin expects from cron.
	if len(subs) > 0 || capture != nil {
		var attachment *email.Attachment
		if capture != nil {
			attachment = &email.Attachment{
				Filename: capture.Filename(time.Now()),
				Content:  capture.Bytes(),
			}
		}
		if err := dispatcher.SendSummary(ctx, cfg.SMTP.To, subs, attachment); err != nil {
			slog.Error("summary email failed", "to", cfg.SMTP.To, "error", err)
		}
	}

	slog.Info("run completed",
		"submissions", len(subs), "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// connectMattermost returns the messaging and directory capabilities, or
// nils when Mattermost is unconfigured or unreachable. A missing messaging
// platform only disables that path; the email path still runs.
func connectMattermost(ctx context.Context, cfg config.MattermostConfig) (notify.Messenger, resolve.Directory) {
	if !cfg.Enabled() {
		slog.Info("mattermost not configured, messaging notifications disabled")
		return nil, nil
	}
	client := mattermost.NewClient(cfg.APIURL, cfg.Token, cfg.InsecureSkipVerify)
	if _, err := client.Connect(ctx); err != nil {
		slog.Warn("mattermost connection failed, messaging notifications disabled", "error", err)
		return nil, nil
	}
	return client, client
}

// runLookup resolves names read from stdin, one per line, and prints the
// mapping. Useful for filling the override table.
func runLookup(ctx context.Context, cfg *config.Config) error {
	_, directory := connectMattermost(ctx, cfg.Mattermost)
	resolver := resolve.New(resolve.NewOverrides(cfg.Notify.Overrides), directory)

	fmt.Println("Enter names (\"Lastname, Firstname\"), one per line; empty line or EOF ends input:")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			break
		}
		name := models.ParsePersonName(line)
		res := resolver.Resolve(ctx, name)
		if res.Resolved() {
			fmt.Printf("  %s -> @%s\n", name.String(), res.Username)
		} else {
			fmt.Printf("  %s -> not found (tried: %s)\n",
				name.String(), strings.Join(username.Values(res.Attempted), ", "))
		}
	}
	return scanner.Err()
}

// Package notify routes thesis-submission notifications to supervisors, the
// author and the webadmin, with optional interactive confirmation before
// every send.
package notify

import (
	"context"
	"log/slog"

	"github.com/etp-webadmin/etapprover/internal/config"
	"github.com/etp-webadmin/etapprover/internal/email"
	"github.com/etp-webadmin/etapprover/internal/models"
	"github.com/etp-webadmin/etapprover/internal/resolve"
	"github.com/etp-webadmin/etapprover/internal/username"
)

// Messenger is the message-send capability of the messaging platform.
type Messenger interface {
	SendDirect(ctx context.Context, name, message string) error
	SendGroup(ctx context.Context, names []string, message string) error
}

// Mailer is the email-send capability used for the administrative summary.
type Mailer interface {
	Send(ctx context.Context, msg email.Message) error
}

// Dispatcher processes submissions strictly in order. For every eligible
// submission it sends the supervisor notification first and the author
// permission request second. A failed or skipped notification never stops
// the remaining ones.
type Dispatcher struct {
	cfg       config.NotifyConfig
	resolver  *resolve.Resolver
	messenger Messenger
	mailer    Mailer
	confirmer Confirmer
}

// NewDispatcher wires a dispatcher. messenger may be nil when the messaging
// platform is not configured; only the email path runs then.
func NewDispatcher(cfg config.NotifyConfig, resolver *resolve.Resolver,
	messenger Messenger, mailer Mailer, confirmer Confirmer) *Dispatcher {
	return &Dispatcher{
		cfg:       cfg,
		resolver:  resolver,
		messenger: messenger,
		mailer:    mailer,
		confirmer: confirmer,
	}
}

// Run processes all submissions. Per-submission failures are logged and the
// loop continues; nothing here is fatal.
func (d *Dispatcher) Run(ctx context.Context, subs []models.Submission) {
	for i, sub := range subs {
		slog.Info("processing submission",
			"index", i+1, "total", len(subs), "id", sub.ID, "title", sub.Title)

		// The eligibility gate comes before any resolution work so an
		// ineligible submission costs zero directory lookups.
		if !d.cfg.Eligible(sub.Level) {
			slog.Info("submission not eligible for messaging notifications, email path only",
				"id", sub.ID, "level", sub.Level)
			continue
		}
		if d.messenger == nil {
			slog.Info("messaging platform not configured, email path only", "id", sub.ID)
			continue
		}

		d.notifySupervisors(ctx, sub)
		d.notifyAuthor(ctx, sub)
	}
}

func (d *Dispatcher) notifySupervisors(ctx context.Context, sub models.Submission) {
	results := d.resolver.ResolveAll(ctx, sub.Supervisors)

	resolved := make([]string, 0, len(results))
	for _, res := range results {
		if !res.Resolved() {
			// One unknown supervisor invalidates the whole conversation:
			// better no notification than one with the wrong people in it.
			slog.Warn("supervisor could not be resolved, skipping supervisor notification",
				"id", sub.ID, "name", res.Input.String(),
				"attempted", username.Values(res.Attempted))
			return
		}
		resolved = append(resolved, res.Username)
	}

	recipients := BuildRecipients(d.cfg.Webadmin, resolved...)
	d.confirmAndDeliver(ctx, "supervisor notification", recipients,
		SupervisorMessage(sub, d.cfg.Webadmin))
}

func (d *Dispatcher) notifyAuthor(ctx context.Context, sub models.Submission) {
	if sub.Author.IsZero() {
		slog.Info("submission has no author name, skipping permission request", "id", sub.ID)
		return
	}
	res := d.resolver.Resolve(ctx, sub.Author)
	if !res.Resolved() {
		// Authors frequently have no account yet; this is expected.
		slog.Info("author could not be resolved, skipping permission request",
			"id", sub.ID, "name", sub.Author.String(),
			"attempted", username.Values(res.Attempted))
		return
	}

	recipients := BuildRecipients(d.cfg.Webadmin, res.Username)
	d.confirmAndDeliver(ctx, "author permission request", recipients, AuthorMessage(sub))
}

func (d *Dispatcher) confirmAndDeliver(ctx context.Context, kind string, recipients []string, body string) {
	decision, err := d.confirmer.Confirm(Preview{Kind: kind, Recipients: recipients, Body: body})
	if err != nil {
		slog.Warn("confirmation unavailable, notification cancelled", "kind", kind, "error", err)
		return
	}
	switch decision {
	case Skip:
		slog.Info("notification skipped", "kind", kind, "recipients", recipients)
		return
	case Cancel:
		slog.Info("notification cancelled", "kind", kind, "recipients", recipients)
		return
	}

	switch transport := SelectTransport(recipients); transport {
	case TransportNone:
		slog.Warn("no recipients, dispatch skipped", "kind", kind)
	case TransportDirect:
		d.report(kind, recipients, transport,
			d.messenger.SendDirect(ctx, recipients[0], body))
	case TransportGroup:
		d.report(kind, recipients, transport,
			d.messenger.SendGroup(ctx, recipients, body))
	}
}

// report logs a send outcome; delivery failures are reported, never raised.
func (d *Dispatcher) report(kind string, recipients []string, transport Transport, err error) {
	if err != nil {
		slog.Error("notification delivery failed",
			"kind", kind, "transport", transport.String(), "recipients", recipients, "error", err)
		return
	}
	slog.Info("notification sent",
		"kind", kind, "transport", transport.String(), "recipients", recipients)
}

// SendSummary mails the administrative summary to the webadmin address,
// optionally with the captured execution log attached. In interactive runs
// the confirmer is asked first.
func (d *Dispatcher) SendSummary(ctx context.Context, to string,
	subs []models.Submission, attachment *email.Attachment) error {
	body := SummaryBody(subs, attachment != nil)

	decision, err := d.confirmer.Confirm(Preview{
		Kind:       "summary email",
		Recipients: []string{to},
		Body:       body,
	})
	if err != nil {
		return err
	}
	if decision != Send {
		slog.Info("summary email not sent", "decision", decision.String())
		return nil
	}

	return d.mailer.Send(ctx, email.Message{
		To:         to,
		Subject:    SummarySubject(len(subs)),
		Body:       body,
		Attachment: attachment,
	})
}

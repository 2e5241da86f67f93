package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/etp-webadmin/etapprover/internal/config"
	"github.com/etp-webadmin/etapprover/internal/email"
	"github.com/etp-webadmin/etapprover/internal/models"
	"github.com/etp-webadmin/etapprover/internal/resolve"
)

type fakeDirectory struct {
	known   map[string]bool
	lookups int
}

func (d *fakeDirectory) LookupUser(_ context.Context, name string) (bool, error) {
	d.lookups++
	return d.known[name], nil
}

type sentMessage struct {
	recipients []string
	body       string
}

type fakeMessenger struct {
	directs []sentMessage
	groups  []sentMessage
	fail    bool
}

func (m *fakeMessenger) SendDirect(_ context.Context, name, body string) error {
	if m.fail {
		return errors.New("channel creation failed")
	}
	m.directs = append(m.directs, sentMessage{recipients: []string{name}, body: body})
	return nil
}

func (m *fakeMessenger) SendGroup(_ context.Context, names []string, body string) error {
	if m.fail {
		return errors.New("channel creation failed")
	}
	m.groups = append(m.groups, sentMessage{recipients: names, body: body})
	return nil
}

type fakeMailer struct {
	sent []email.Message
}

func (m *fakeMailer) Send(_ context.Context, msg email.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

// scriptConfirmer replays a fixed decision sequence and records previews.
type scriptConfirmer struct {
	decisions []Decision
	previews  []Preview
}

func (c *scriptConfirmer) Confirm(p Preview) (Decision, error) {
	c.previews = append(c.previews, p)
	if len(c.decisions) == 0 {
		return Send, nil
	}
	d := c.decisions[0]
	c.decisions = c.decisions[1:]
	return d, nil
}

func notifyConfig() config.NotifyConfig {
	return config.NotifyConfig{
		Webadmin:       "jhornung",
		EligibleLevels: []string{"bachelor", "master"},
	}
}

func bachelorSubmission() models.Submission {
	return models.Submission{
		ID:    "42",
		Title: "Search for Dark Matter",
		Author: models.PersonName{
			Lastname: "Müller", Firstname: "Stefan",
		},
		Supervisors: []models.PersonName{
			{Lastname: "Hornung", Firstname: "Johannes"},
			{Lastname: "Gaisdörfer", Firstname: "Marcel"},
		},
		Level:         "Bachelor Thesis",
		ApprovalState: models.ApprovalPending,
	}
}

func TestRunSendsSupervisorThenAuthor(t *testing.T) {
	dir := &fakeDirectory{known: map[string]bool{
		"jhornung": true, "gaisdoerfer": true, "smueller": true,
	}}
	msgr := &fakeMessenger{}
	conf := &scriptConfirmer{}
	d := NewDispatcher(notifyConfig(), resolve.New(nil, dir), msgr, &fakeMailer{}, conf)

	d.Run(context.Background(), []models.Submission{bachelorSubmission()})

	if len(msgr.groups) != 2 {
		t.Fatalf("got %d group messages, want supervisor + author: %+v", len(msgr.groups), msgr)
	}
	supervisor, author := msgr.groups[0], msgr.groups[1]

	if supervisor.recipients[0] != "jhornung" {
		t.Errorf("webadmin missing from supervisor recipients: %v", supervisor.recipients)
	}
	if !strings.Contains(supervisor.body, "Search for Dark Matter") {
		t.Errorf("supervisor body = %q", supervisor.body)
	}
	if author.recipients[len(author.recipients)-1] != "smueller" {
		t.Errorf("author recipients = %v, want author last", author.recipients)
	}
	if !strings.Contains(author.body, "Hi Stefan,") {
		t.Errorf("author body = %q", author.body)
	}
	// Supervisor preview must come first.
	if conf.previews[0].Kind != "supervisor notification" ||
		conf.previews[1].Kind != "author permission request" {
		t.Errorf("preview order = %v", conf.previews)
	}
}

func TestRunIneligibleSubmissionDoesNoResolutionWork(t *testing.T) {
	dir := &fakeDirectory{known: map[string]bool{}}
	msgr := &fakeMessenger{}
	d := NewDispatcher(notifyConfig(), resolve.New(nil, dir), msgr, &fakeMailer{}, AutoConfirmer{})

	sub := bachelorSubmission()
	sub.Level = "PhD Thesis"
	d.Run(context.Background(), []models.Submission{sub})

	if dir.lookups != 0 {
		t.Errorf("ineligible submission caused %d directory lookups, want 0", dir.lookups)
	}
	if len(msgr.directs)+len(msgr.groups) != 0 {
		t.Errorf("ineligible submission caused sends: %+v", msgr)
	}
}

func TestRunUnresolvedSupervisorSkipsOnlySupervisorMessage(t *testing.T) {
	// Author resolves, second supervisor does not.
	dir := &fakeDirectory{known: map[string]bool{"jhornung": true, "smueller": true}}
	msgr := &fakeMessenger{}
	d := NewDispatcher(notifyConfig(), resolve.New(nil, dir), msgr, &fakeMailer{}, AutoConfirmer{})

	d.Run(context.Background(), []models.Submission{bachelorSubmission()})

	if len(msgr.groups) != 1 {
		t.Fatalf("got %d group messages, want author message only: %+v", len(msgr.groups), msgr)
	}
	if !strings.Contains(msgr.groups[0].body, "permission to publish") {
		t.Errorf("surviving message is not the author request: %q", msgr.groups[0].body)
	}
}

func TestRunUnresolvedAuthorSkipsPermissionRequest(t *testing.T) {
	dir := &fakeDirectory{known: map[string]bool{"jhornung": true, "gaisdoerfer": true}}
	msgr := &fakeMessenger{}
	d := NewDispatcher(notifyConfig(), resolve.New(nil, dir), msgr, &fakeMailer{}, AutoConfirmer{})

	d.Run(context.Background(), []models.Submission{bachelorSubmission()})

	if len(msgr.groups) != 1 {
		t.Fatalf("got %d group messages, want supervisor message only: %+v", len(msgr.groups), msgr)
	}
	if !strings.Contains(msgr.groups[0].body, "open access rights?") {
		t.Errorf("surviving message is not the supervisor notification: %q", msgr.groups[0].body)
	}
}

func TestRunSkipSupervisorSendAuthor(t *testing.T) {
	dir := &fakeDirectory{known: map[string]bool{
		"jhornung": true, "gaisdoerfer": true, "smueller": true,
	}}
	msgr := &fakeMessenger{}
	conf := &scriptConfirmer{decisions: []Decision{Skip, Send}}
	d := NewDispatcher(notifyConfig(), resolve.New(nil, dir), msgr, &fakeMailer{}, conf)

	d.Run(context.Background(), []models.Submission{bachelorSubmission()})

	if len(msgr.groups) != 1 {
		t.Fatalf("got %d group messages, want author only after skip: %+v", len(msgr.groups), msgr)
	}
	if !strings.Contains(msgr.groups[0].body, "permission to publish") {
		t.Errorf("sent message = %q, want author request", msgr.groups[0].body)
	}
}

func TestRunCancelDropsOnlyThatNotification(t *testing.T) {
	dir := &fakeDirectory{known: map[string]bool{
		"jhornung": true, "gaisdoerfer": true, "smueller": true,
	}}
	msgr := &fakeMessenger{}
	conf := &scriptConfirmer{decisions: []Decision{Cancel, Send}}
	d := NewDispatcher(notifyConfig(), resolve.New(nil, dir), msgr, &fakeMailer{}, conf)

	d.Run(context.Background(), []models.Submission{bachelorSubmission()})

	if len(msgr.groups) != 1 {
		t.Errorf("got %d group messages, want author message to survive the cancel", len(msgr.groups))
	}
}

func TestRunDeliveryFailureDoesNotStopProcessing(t *testing.T) {
	dir := &fakeDirectory{known: map[string]bool{
		"jhornung": true, "gaisdoerfer": true, "smueller": true,
	}}
	msgr := &fakeMessenger{fail: true}
	conf := &scriptConfirmer{}
	d := NewDispatcher(notifyConfig(), resolve.New(nil, dir), msgr, &fakeMailer{}, conf)

	// Two submissions; every send fails but both must still be attempted.
	d.Run(context.Background(), []models.Submission{bachelorSubmission(), bachelorSubmission()})

	if len(conf.previews) != 4 {
		t.Errorf("got %d confirmation previews, want 4 (2 per submission)", len(conf.previews))
	}
}

func TestRunSingleRecipientUsesDirectMessage(t *testing.T) {
	// The author is the webadmin: dedup leaves one recipient.
	dir := &fakeDirectory{known: map[string]bool{"jhornung": true}}
	msgr := &fakeMessenger{}
	d := NewDispatcher(notifyConfig(), resolve.New(nil, dir), msgr, &fakeMailer{}, AutoConfirmer{})

	sub := bachelorSubmission()
	sub.Supervisors = nil
	sub.Author = models.PersonName{Lastname: "Hornung", Firstname: "Johannes"}
	d.Run(context.Background(), []models.Submission{sub})

	// Supervisor message (admin only) and author message (admin==author).
	if len(msgr.directs) != 2 || len(msgr.groups) != 0 {
		t.Errorf("messages = %+v, want two direct messages", msgr)
	}
	for _, dm := range msgr.directs {
		if dm.recipients[0] != "jhornung" {
			t.Errorf("direct message recipient = %v", dm.recipients)
		}
	}
}

func TestSendSummary(t *testing.T) {
	mailer := &fakeMailer{}
	d := NewDispatcher(notifyConfig(), resolve.New(nil, nil), nil, mailer, AutoConfirmer{})

	att := &email.Attachment{Filename: "etapprover_log.txt", Content: []byte("log")}
	err := d.SendSummary(context.Background(), "webadmin@example.edu",
		[]models.Submission{bachelorSubmission()}, att)
	if err != nil {
		t.Fatalf("SendSummary failed: %v", err)
	}

	if len(mailer.sent) != 1 {
		t.Fatalf("sent %d mails, want 1", len(mailer.sent))
	}
	msg := mailer.sent[0]
	if msg.To != "webadmin@example.edu" {
		t.Errorf("To = %q", msg.To)
	}
	if msg.Subject != "New Pending Thesis Submissions - 1 item(s)" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Search for Dark Matter") ||
		!strings.Contains(msg.Body, "attached log file") {
		t.Errorf("Body = %q", msg.Body)
	}
	if msg.Attachment != att {
		t.Error("attachment not passed through")
	}
}

func TestSendSummaryCancelled(t *testing.T) {
	mailer := &fakeMailer{}
	conf := &scriptConfirmer{decisions: []Decision{Cancel}}
	d := NewDispatcher(notifyConfig(), resolve.New(nil, nil), nil, mailer, conf)

	if err := d.SendSummary(context.Background(), "webadmin@example.edu", nil, nil); err != nil {
		t.Fatalf("SendSummary failed: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("cancelled summary was still sent: %+v", mailer.sent)
	}
}

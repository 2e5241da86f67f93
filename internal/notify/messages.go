package notify

import (
	"fmt"
	"strings"

	"github.com/etp-webadmin/etapprover/internal/models"
)

const signature = "Cheers,\nETaPprover Bot for the Webadmin"

// SupervisorMessage renders the notification asking the supervisors whether
// the thesis may go out with open access rights.
func SupervisorMessage(sub models.Submission, admin string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi,\n%s has submitted their thesis into publish.\n\n", sub.Author.Display())
	fmt.Fprintf(&b, "**Title**: %s\n", sub.Title)
	fmt.Fprintf(&b, "**Author**: %s\n", sub.Author.String())
	fmt.Fprintf(&b, "**Type**: %s\n\n", sub.Level)
	b.WriteString("Can this be uploaded to publish with open access rights?\n")
	b.WriteString("If this isn't possible, please contact the author directly to clarify.\n")
	fmt.Fprintf(&b, "Also, if some supervisors are missing from this notification, please inform @%s.\n\n", admin)
	b.WriteString(signature)
	return b.String()
}

// AuthorMessage renders the permission request sent to the thesis author.
func AuthorMessage(sub models.Submission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", authorGreeting(sub.Author))
	fmt.Fprintf(&b, "Your thesis **%q** has been submitted to our repository. "+
		"Congratulations for handing in :partyparrot:\n\n", sub.Title)
	b.WriteString("We would like to confirm: Do you give permission to publish this thesis " +
		"with **open access rights**? This means your thesis will be publicly accessible online.\n\n")
	b.WriteString("Please reply with your confirmation.\n\n")
	b.WriteString(signature)
	return b.String()
}

// authorGreeting picks the author's first given name, falling back to
// whatever the name has.
func authorGreeting(name models.PersonName) string {
	if fields := strings.Fields(name.Firstname); len(fields) > 0 {
		return fields[0]
	}
	if fields := strings.Fields(name.Display()); len(fields) > 0 {
		return fields[0]
	}
	return "there"
}

// SummarySubject is the subject line of the administrative summary mail.
func SummarySubject(count int) string {
	if count == 0 {
		return "ETaPprover - No Pending Submissions"
	}
	return fmt.Sprintf("New Pending Thesis Submissions - %d item(s)", count)
}

// SummaryBody renders the administrative summary of all pending submissions.
func SummaryBody(subs []models.Submission, withLog bool) string {
	if len(subs) == 0 {
		body := "No pending thesis submissions found.\n"
		if withLog {
			body += "\nSee attached log for details.\n"
		}
		return body
	}

	var b strings.Builder
	b.WriteString("Hello,\n\n")
	fmt.Fprintf(&b, "There are %d new thesis submission(s) pending approval:\n\n", len(subs))
	for i, sub := range subs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, sub.Title)
		fmt.Fprintf(&b, "   Author: %s\n", sub.Author.String())
		fmt.Fprintf(&b, "   Supervisors: %s\n", joinNames(sub.Supervisors))
		fmt.Fprintf(&b, "   Type: %s\n\n", sub.Level)
	}
	b.WriteString("Please review and approve these submissions.\n\n")
	if withLog {
		b.WriteString("See attached log file for detailed execution information.\n\n")
	}
	b.WriteString("Best regards,\nETaPprover")
	return b.String()
}

func joinNames(names []models.PersonName) string {
	if len(names) == 0 {
		return "N/A"
	}
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}

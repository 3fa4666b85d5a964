package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/pkg/mailer"
)

// EmailComposer renders notification email subjects and HTML bodies.
type EmailComposer struct {
	appBaseURL string
}

// NewEmailComposer creates an email composer. appBaseURL is the front-end
// URL used for registration links in invitation mail.
func NewEmailComposer(appBaseURL string) *EmailComposer {
	return &EmailComposer{appBaseURL: appBaseURL}
}

type emailContext struct {
	Title       string
	Description string
	Date        string
	Place       string
	OwnerName   string
	RegisterURL string
}

var invitationTmpl = template.Must(template.New("invitation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #007bff;">EventMate</h1>
  <h2>You have been invited to an event!</h2>
  <p><strong>{{.OwnerName}}</strong> has invited you to an event. Register on EventMate to manage your invitation.</p>
  <div style="background: #f8f9fa; padding: 20px; border-left: 4px solid #007bff;">
    <h3>Event details</h3>
    <p><strong>Title:</strong> {{.Title}}</p>
    <p><strong>Description:</strong> {{.Description}}</p>
    <p><strong>Date:</strong> {{.Date}}</p>
    <p><strong>Place:</strong> {{.Place}}</p>
  </div>
  <p><a href="{{.RegisterURL}}" style="display: inline-block; background: #007bff; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px;">Register now</a></p>
  <p style="color: #666; font-size: 14px;">Once you register you will be added to the event automatically.</p>
</body>
</html>`))

var eventUpdatedTmpl = template.Must(template.New("event-updated").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #007bff;">EventMate</h1>
  <h2>An event you are invited to has been updated</h2>
  <div style="background: #f8f9fa; padding: 20px; border-left: 4px solid #007bff;">
    <p><strong>Title:</strong> {{.Title}}</p>
    <p><strong>Description:</strong> {{.Description}}</p>
    <p><strong>Date:</strong> {{.Date}}</p>
    <p><strong>Place:</strong> {{.Place}}</p>
    <p><strong>Organizer:</strong> {{.OwnerName}}</p>
  </div>
  <p>Check the event page for the latest details.</p>
</body>
</html>`))

var eventCancelledTmpl = template.Must(template.New("event-cancelled").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #dc3545;">EventMate</h1>
  <h2>An event you were invited to has been cancelled</h2>
  <div style="background: #f8f9fa; padding: 20px; border-left: 4px solid #dc3545;">
    <p><strong>Title:</strong> {{.Title}}</p>
    <p><strong>Date:</strong> {{.Date}}</p>
    <p><strong>Place:</strong> {{.Place}}</p>
    <p><strong>Organizer:</strong> {{.OwnerName}}</p>
  </div>
  <p>We are sorry for the inconvenience.</p>
</body>
</html>`))

func (c *EmailComposer) context(event *models.EventDoc) emailContext {
	return emailContext{
		Title:       event.Title,
		Description: event.Description,
		Date:        FormatEventDate(event.Date.Time),
		Place:       event.Place,
		OwnerName:   event.OwnerName,
		RegisterURL: c.appBaseURL + "/register",
	}
}

// FormatEventDate renders an event date for email bodies.
func FormatEventDate(t time.Time) string {
	if t.IsZero() {
		return "to be announced"
	}
	return t.Format("Monday, 2 January 2006 at 15:04")
}

// Invitation renders the registration-invitation email for an address
// without an account.
func (c *EmailComposer) Invitation(to string, event *models.EventDoc) (mailer.Message, error) {
	var buf bytes.Buffer
	if err := invitationTmpl.Execute(&buf, c.context(event)); err != nil {
		return mailer.Message{}, fmt.Errorf("render invitation: %w", err)
	}
	return mailer.Message{
		To:      to,
		Subject: fmt.Sprintf("You're invited to %q", event.Title),
		HTML:    buf.String(),
	}, nil
}

// EventChange renders the notification email for an updated or cancelled
// event.
func (c *EmailComposer) EventChange(to string, event *models.EventDoc, change string) (mailer.Message, error) {
	tmpl := eventUpdatedTmpl
	subject := fmt.Sprintf("Event updated: %s", event.Title)
	if change == "cancelled" {
		tmpl = eventCancelledTmpl
		subject = fmt.Sprintf("Event cancelled: %s", event.Title)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, c.context(event)); err != nil {
		return mailer.Message{}, fmt.Errorf("render event change: %w", err)
	}
	return mailer.Message{To: to, Subject: subject, HTML: buf.String()}, nil
}

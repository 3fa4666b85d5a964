package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/events"
	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/pkg/mailer"
	"github.com/eventmate/backend/pkg/push"
)

// TokenSource collects device tokens for a set of emails. Implemented by
// Resolver.
type TokenSource interface {
	DeviceTokens(ctx context.Context, emails []string) []string
}

// DeliveryLog records the outcome of each email attempt. Implemented by
// emaillog.Repository; recording failures are swallowed so telemetry never
// blocks delivery.
type DeliveryLog interface {
	Record(ctx context.Context, entry *models.EmailLog) error
}

// Dispatcher fans an event change out to the resolved audience: one email
// per recipient plus one multicast push to registered devices. All sends
// for a change are launched concurrently and joined with an all-settle
// barrier; a single recipient's failure never aborts the others, and
// Dispatch never reports an error to its caller.
type Dispatcher struct {
	mailer      mailer.Sender
	pusher      push.Sender
	tokens      TokenSource
	composer    *EmailComposer
	deliveryLog DeliveryLog
	logger      *zap.Logger
}

// NewDispatcher creates a notification dispatcher. deliveryLog may be nil.
func NewDispatcher(m mailer.Sender, p push.Sender, tokens TokenSource, composer *EmailComposer, deliveryLog DeliveryLog, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		mailer:      m,
		pusher:      p,
		tokens:      tokens,
		composer:    composer,
		deliveryLog: deliveryLog,
		logger:      logger,
	}
}

// Dispatch sends change notifications to every member of the audience.
// It blocks until every attempt has settled.
func (d *Dispatcher) Dispatch(ctx context.Context, change events.Change, event *models.EventDoc, audience Audience) {
	if change == events.ChangeNone || audience.Empty() {
		return
	}

	emailType := models.EmailTypeEventUpdated
	if change == events.ChangeCancelled {
		emailType = models.EmailTypeEventCancelled
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	sent, failed := 0, 0

	sendEmail := func(to string) {
		defer wg.Done()
		err := d.sendChangeEmail(ctx, to, event, change, emailType)
		mu.Lock()
		if err != nil {
			failed++
		} else {
			sent++
		}
		mu.Unlock()
	}

	for _, user := range audience.Registered {
		wg.Add(1)
		go sendEmail(user.Email)
	}
	for _, email := range audience.Unregistered {
		wg.Add(1)
		go sendEmail(email)
	}

	if len(audience.Registered) > 0 {
		emails := make([]string, len(audience.Registered))
		for i, user := range audience.Registered {
			emails[i] = user.Email
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens := d.tokens.DeviceTokens(ctx, emails)
			d.sendChangePush(ctx, change, event, tokens)
		}()
	}

	wg.Wait()

	d.logger.Info("event change notifications completed",
		zap.String("event_id", event.ID),
		zap.String("change", string(change)),
		zap.Int("emails_sent", sent),
		zap.Int("emails_failed", failed),
	)
}

func (d *Dispatcher) sendChangeEmail(ctx context.Context, to string, event *models.EventDoc, change events.Change, emailType string) error {
	msg, err := d.composer.EventChange(to, event, string(change))
	if err == nil {
		err = d.mailer.Send(ctx, msg)
	}
	if err != nil {
		d.logger.Error("send event change email",
			zap.Error(err),
			zap.String("to", to),
			zap.String("event_id", event.ID),
		)
	}
	d.record(ctx, event.ID, emailType, to, msg.Subject, err)
	return err
}

func (d *Dispatcher) sendChangePush(ctx context.Context, change events.Change, event *models.EventDoc, tokens []string) {
	if len(tokens) == 0 {
		return
	}
	data := map[string]string{
		"type":       "event_updated",
		"title":      "\U0001F4C5 Event Updated",
		"body":       `The event "` + event.Title + `" has been updated`,
		"eventId":    event.ID,
		"eventTitle": event.Title,
	}
	if change == events.ChangeCancelled {
		data["type"] = "event_cancelled"
		data["title"] = "❌ Event Cancelled"
		data["body"] = `The event "` + event.Title + `" has been cancelled`
	}
	result, err := d.pusher.SendMulticast(ctx, tokens, data)
	if err != nil {
		d.logger.Error("send event change push", zap.Error(err), zap.String("event_id", event.ID))
		return
	}
	d.logger.Info("event change push sent",
		zap.String("event_id", event.ID),
		zap.Int("success_count", result.SuccessCount),
		zap.Int("failure_count", result.FailureCount),
	)
}

// NotifyInvited sends a best-effort event_invitation push to an invitee's
// devices. Failures only log; the invitation itself already succeeded.
func (d *Dispatcher) NotifyInvited(ctx context.Context, event *models.EventDoc, email string) {
	tokens := d.tokens.DeviceTokens(ctx, []string{email})
	if len(tokens) == 0 {
		return
	}
	data := map[string]string{
		"type":       "event_invitation",
		"title":      "\U0001F4E9 New Event Invitation",
		"body":       `You have been invited to "` + event.Title + `"`,
		"eventId":    event.ID,
		"eventTitle": event.Title,
	}
	if _, err := d.pusher.SendMulticast(ctx, tokens, data); err != nil {
		d.logger.Warn("send invitation push", zap.Error(err), zap.String("email", email), zap.String("event_id", event.ID))
	}
}

// SendInvitationEmail sends the registration-invitation email for an
// address without an account, recording the outcome.
func (d *Dispatcher) SendInvitationEmail(ctx context.Context, event *models.EventDoc, to string) error {
	msg, err := d.composer.Invitation(to, event)
	if err == nil {
		err = d.mailer.Send(ctx, msg)
	}
	if err != nil {
		d.logger.Error("send invitation email", zap.Error(err), zap.String("to", to), zap.String("event_id", event.ID))
	}
	d.record(ctx, event.ID, models.EmailTypeInvitation, to, msg.Subject, err)
	return err
}

func (d *Dispatcher) record(ctx context.Context, eventID, emailType, recipient, subject string, sendErr error) {
	if d.deliveryLog == nil {
		return
	}
	entry := &models.EmailLog{
		EmailType:      emailType,
		RecipientEmail: recipient,
		Subject:        subject,
		Status:         models.EmailLogStatusSent,
	}
	if id, err := uuid.Parse(eventID); err == nil {
		entry.EventID = &id
	}
	if sendErr != nil {
		entry.Status = models.EmailLogStatusFailed
		entry.ErrorMessage = sendErr.Error()
	} else {
		now := time.Now()
		entry.SentAt = &now
	}
	if err := d.deliveryLog.Record(ctx, entry); err != nil {
		d.logger.Warn("record email log", zap.Error(err), zap.String("recipient", recipient))
	}
}

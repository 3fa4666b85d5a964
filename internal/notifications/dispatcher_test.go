package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eventmate/backend/internal/events"
	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/pkg/mailer"
	"github.com/eventmate/backend/pkg/push"
)

type fakeMailer struct {
	mu      sync.Mutex
	sent    []mailer.Message
	failFor map[string]bool
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[msg.To] {
		return errors.New("smtp: mailbox unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakePush struct {
	mu    sync.Mutex
	calls []pushCall
	err   error
}

type pushCall struct {
	tokens []string
	data   map[string]string
}

func (f *fakePush) SendMulticast(_ context.Context, tokens []string, data map[string]string) (push.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return push.Result{}, f.err
	}
	f.calls = append(f.calls, pushCall{tokens: tokens, data: data})
	return push.Result{SuccessCount: len(tokens)}, nil
}

type fakeTokenSource struct {
	tokens map[string]string
}

func (f *fakeTokenSource) DeviceTokens(_ context.Context, emails []string) []string {
	var out []string
	for _, e := range emails {
		if tok, ok := f.tokens[e]; ok {
			out = append(out, tok)
		}
	}
	return out
}

type fakeDeliveryLog struct {
	mu      sync.Mutex
	entries []models.EmailLog
}

func (f *fakeDeliveryLog) Record(_ context.Context, entry *models.EmailLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeDeliveryLog) byStatus(status string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

func eventDoc() *models.EventDoc {
	return &models.EventDoc{
		ID:        "2a3c6f74-8c2e-4c0d-9f3a-1b5e7d9c0a21",
		Title:     "Team offsite",
		Date:      models.NewInstant(time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)),
		OwnerName: "Ada",
		Place:     "Berlin",
	}
}

func testAudience() Audience {
	registered := make([]models.UserConfiguration, 0, 3)
	for _, email := range []string{"r1@example.com", "r2@example.com", "r3@example.com"} {
		registered = append(registered, models.UserConfiguration{Email: email, NotificationsEnabled: true})
	}
	return Audience{
		Registered:   registered,
		Unregistered: []string{"u1@example.com", "u2@example.com"},
	}
}

func TestDispatchSettlesAllDespiteFailures(t *testing.T) {
	m := &fakeMailer{failFor: map[string]bool{
		"r2@example.com": true,
		"r3@example.com": true,
	}}
	p := &fakePush{}
	tokens := &fakeTokenSource{tokens: map[string]string{
		"r1@example.com": "token-r1-0123456789abc",
		"r3@example.com": "token-r3-0123456789abc",
	}}
	logs := &fakeDeliveryLog{}
	d := NewDispatcher(m, p, tokens, NewEmailComposer("https://app.example.com"), logs, nil)

	d.Dispatch(context.Background(), events.ChangeUpdated, eventDoc(), testAudience())

	// Two of the three registered sends fail; the remaining registered and
	// both unregistered emails still go out.
	assert.Len(t, m.sent, 3)
	for _, msg := range m.sent {
		assert.NotEqual(t, "r2@example.com", msg.To)
		assert.NotEqual(t, "r3@example.com", msg.To)
	}
	assert.Equal(t, 3, logs.byStatus(models.EmailLogStatusSent))
	assert.Equal(t, 2, logs.byStatus(models.EmailLogStatusFailed))

	// One multicast to the registered devices only.
	assert.Len(t, p.calls, 1)
	assert.ElementsMatch(t, []string{"token-r1-0123456789abc", "token-r3-0123456789abc"}, p.calls[0].tokens)
	assert.Equal(t, "event_updated", p.calls[0].data["type"])
	assert.Equal(t, eventDoc().ID, p.calls[0].data["eventId"])
}

func TestDispatchCancelledPayload(t *testing.T) {
	m := &fakeMailer{}
	p := &fakePush{}
	tokens := &fakeTokenSource{tokens: map[string]string{"r1@example.com": "token-r1-0123456789abc"}}
	d := NewDispatcher(m, p, tokens, NewEmailComposer("https://app.example.com"), nil, nil)

	audience := Audience{
		Registered: []models.UserConfiguration{{Email: "r1@example.com", NotificationsEnabled: true}},
	}
	d.Dispatch(context.Background(), events.ChangeCancelled, eventDoc(), audience)

	assert.Len(t, p.calls, 1)
	assert.Equal(t, "event_cancelled", p.calls[0].data["type"])
	assert.Contains(t, m.sent[0].Subject, "cancelled")
}

func TestDispatchNoChangeOrEmptyAudienceIsNoop(t *testing.T) {
	m := &fakeMailer{}
	p := &fakePush{}
	d := NewDispatcher(m, p, &fakeTokenSource{}, NewEmailComposer(""), nil, nil)

	d.Dispatch(context.Background(), events.ChangeNone, eventDoc(), testAudience())
	d.Dispatch(context.Background(), events.ChangeUpdated, eventDoc(), Audience{})

	assert.Empty(t, m.sent)
	assert.Empty(t, p.calls)
}

func TestDispatchPushFailureDoesNotAffectEmail(t *testing.T) {
	m := &fakeMailer{}
	p := &fakePush{err: errors.New("provider unreachable")}
	tokens := &fakeTokenSource{tokens: map[string]string{"r1@example.com": "token-r1-0123456789abc"}}
	d := NewDispatcher(m, p, tokens, NewEmailComposer(""), nil, nil)

	audience := Audience{
		Registered: []models.UserConfiguration{{Email: "r1@example.com", NotificationsEnabled: true}},
	}
	d.Dispatch(context.Background(), events.ChangeUpdated, eventDoc(), audience)

	assert.Len(t, m.sent, 1)
}

func TestSendInvitationEmailRecordsOutcome(t *testing.T) {
	m := &fakeMailer{}
	logs := &fakeDeliveryLog{}
	d := NewDispatcher(m, &fakePush{}, &fakeTokenSource{}, NewEmailComposer("https://app.example.com"), logs, nil)

	err := d.SendInvitationEmail(context.Background(), eventDoc(), "new@example.com")
	assert.NoError(t, err)
	assert.Len(t, m.sent, 1)
	assert.Contains(t, m.sent[0].Subject, "invited")
	assert.Equal(t, 1, logs.byStatus(models.EmailLogStatusSent))
	assert.Equal(t, models.EmailTypeInvitation, logs.entries[0].EmailType)
}

func TestNotifyInvitedSkipsWithoutTokens(t *testing.T) {
	p := &fakePush{}
	d := NewDispatcher(&fakeMailer{}, p, &fakeTokenSource{}, NewEmailComposer(""), nil, nil)

	d.NotifyInvited(context.Background(), eventDoc(), "nobody@example.com")
	assert.Empty(t, p.calls)
}

func TestNotifyInvitedSendsInvitationPush(t *testing.T) {
	p := &fakePush{}
	tokens := &fakeTokenSource{tokens: map[string]string{"new@example.com": "token-new-0123456789abc"}}
	d := NewDispatcher(&fakeMailer{}, p, tokens, NewEmailComposer(""), nil, nil)

	d.NotifyInvited(context.Background(), eventDoc(), "new@example.com")
	assert.Len(t, p.calls, 1)
	assert.Equal(t, "event_invitation", p.calls[0].data["type"])
	assert.Equal(t, "Team offsite", p.calls[0].data["eventTitle"])
}

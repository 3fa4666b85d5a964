package invitations

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/events"
	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/internal/userconfig"
	"github.com/eventmate/backend/pkg/queue"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EventStore provides the event reads and the atomic invitee addition the
// workflow needs. Implemented by events.Repository.
type EventStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	AddInvitee(ctx context.Context, id uuid.UUID, email string) (*models.Event, bool, error)
}

// AccountStore answers whether an email belongs to a registered account.
// Implemented by userconfig.Repository.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*models.UserConfiguration, error)
}

// Notifier delivers the two invitation notifications: a push for existing
// accounts and a registration email for unknown addresses. Implemented by
// notifications.Dispatcher.
type Notifier interface {
	NotifyInvited(ctx context.Context, event *models.EventDoc, email string)
	SendInvitationEmail(ctx context.Context, event *models.EventDoc, to string) error
}

// ChangePublisher enqueues before/after snapshots after the invitee list
// changes. Implemented by queue.Queue.
type ChangePublisher interface {
	EnqueueEventChange(ctx context.Context, payload queue.EventChangePayload) error
}

// Result describes the branch the invitation took.
type Result struct {
	UserExists bool   `json:"userExists"`
	Action     string `json:"action"`
	Message    string `json:"message"`
}

// Workflow actions.
const (
	ActionAddedAsInvitee      = "added_as_invitee"
	ActionInvitationEmailSent = "invitation_email_sent"
)

// Service runs the invitation workflow: validate, authorize, branch on
// whether the invitee has an account, and either add them to the event or
// send a registration email.
type Service struct {
	eventStore EventStore
	accounts   AccountStore
	notifier   Notifier
	publisher  ChangePublisher
	logger     *zap.Logger
}

// NewService creates an invitation service. publisher may be nil when no
// queue is configured.
func NewService(eventStore EventStore, accounts AccountStore, notifier Notifier, publisher ChangePublisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		eventStore: eventStore,
		accounts:   accounts,
		notifier:   notifier,
		publisher:  publisher,
		logger:     logger,
	}
}

// Invite invites rawEmail to the event on behalf of callerUID. The caller
// must own the event; an email already on the invitee list is rejected.
// Failures are reported through the package sentinels.
func (s *Service) Invite(ctx context.Context, eventID, rawEmail string, callerUID uuid.UUID) (*Result, error) {
	email := models.NormalizeEmail(rawEmail)
	if eventID == "" || email == "" || !emailPattern.MatchString(email) {
		return nil, ErrInvalidArgument
	}

	id, err := uuid.Parse(eventID)
	if err != nil {
		return nil, ErrEventNotFound
	}

	event, err := s.eventStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if event.OwnerID != callerUID {
		return nil, ErrPermissionDenied
	}
	for _, invited := range event.Invitees {
		if invited == email {
			return nil, ErrAlreadyInvited
		}
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, userconfig.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if account != nil {
		return s.addInvitee(ctx, event, email)
	}
	return s.sendRegistrationInvite(ctx, event, email)
}

// addInvitee appends the email to the invitee list with set-union
// semantics. If a concurrent invitation got there first the store reports
// nothing was added and the caller is told the user is already invited.
func (s *Service) addInvitee(ctx context.Context, event *models.Event, email string) (*Result, error) {
	after, added, err := s.eventStore.AddInvitee(ctx, event.ID, email)
	if err != nil {
		if errors.Is(err, events.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if !added {
		return nil, ErrAlreadyInvited
	}

	s.publishChange(ctx, event, after)
	s.notifier.NotifyInvited(ctx, after.Doc(), email)

	s.logger.Info("invitee added",
		zap.String("event_id", event.ID.String()),
		zap.String("email", email),
	)
	return &Result{
		UserExists: true,
		Action:     ActionAddedAsInvitee,
		Message:    "User added to the event",
	}, nil
}

func (s *Service) sendRegistrationInvite(ctx context.Context, event *models.Event, email string) (*Result, error) {
	if err := s.notifier.SendInvitationEmail(ctx, event.Doc(), email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	s.logger.Info("invitation email sent",
		zap.String("event_id", event.ID.String()),
		zap.String("email", email),
	)
	return &Result{
		UserExists: false,
		Action:     ActionInvitationEmailSent,
		Message:    "Invitation email sent",
	}, nil
}

func (s *Service) publishChange(ctx context.Context, before *models.Event, after *models.Event) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.EnqueueEventChange(ctx, queue.EventChangePayload{
		EventID: before.ID.String(),
		Before:  before.Doc(),
		After:   after.Doc(),
	})
	if err != nil {
		s.logger.Error("enqueue event change", zap.Error(err), zap.String("event_id", before.ID.String()))
	}
}

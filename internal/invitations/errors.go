package invitations

import "errors"

// Invitation failures map one-to-one onto HTTP statuses at the handler.
var (
	ErrUnauthenticated  = errors.New("authentication required")
	ErrInvalidArgument  = errors.New("event id and a valid email are required")
	ErrEventNotFound    = errors.New("event not found")
	ErrPermissionDenied = errors.New("only the event owner can invite users")
	ErrAlreadyInvited   = errors.New("user is already invited to this event")
	ErrInternal         = errors.New("failed to process invitation")
)

package notifications

import (
	"context"

	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/models"
)

// ConfigStore looks up notification profiles by email. Implemented by
// userconfig.Repository; tests substitute an in-memory fake.
type ConfigStore interface {
	GetByEmails(ctx context.Context, emails []string) ([]models.UserConfiguration, error)
}

// Audience partitions an event's invitees for notification routing. The
// two sets are disjoint: every resolved input email lands in exactly one.
type Audience struct {
	// Registered holds profiles of accounts with notifications enabled;
	// they receive email and are candidates for push.
	Registered []models.UserConfiguration
	// Unregistered holds addresses without a usable profile (no account,
	// or notifications disabled); they receive plain email only.
	Unregistered []string
}

// Empty reports whether nobody is left to notify.
func (a Audience) Empty() bool {
	return len(a.Registered) == 0 && len(a.Unregistered) == 0
}

// Resolver partitions invitee emails into registered and unregistered
// recipients and collects device tokens for push delivery.
type Resolver struct {
	store  ConfigStore
	logger *zap.Logger
}

// NewResolver creates an audience resolver.
func NewResolver(store ConfigStore, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{store: store, logger: logger}
}

// Resolve partitions the given emails. Duplicates are resolved once. On a
// systemic lookup failure it logs and returns an empty audience rather
// than failing the caller; the fan-out pipeline is best-effort.
func (r *Resolver) Resolve(ctx context.Context, emails []string) Audience {
	unique := dedupe(emails)
	if len(unique) == 0 {
		return Audience{}
	}

	configs, err := r.store.GetByEmails(ctx, unique)
	if err != nil {
		r.logger.Error("resolve audience", zap.Error(err), zap.Int("email_count", len(unique)))
		return Audience{}
	}

	registered := make(map[string]models.UserConfiguration, len(configs))
	for _, cfg := range configs {
		if cfg.NotificationsEnabled {
			registered[cfg.Email] = cfg
		}
	}

	var audience Audience
	for _, email := range unique {
		if cfg, ok := registered[email]; ok {
			audience.Registered = append(audience.Registered, cfg)
		} else {
			audience.Unregistered = append(audience.Unregistered, email)
		}
	}

	r.logger.Info("audience resolved",
		zap.Int("requested", len(unique)),
		zap.Int("registered", len(audience.Registered)),
		zap.Int("unregistered", len(audience.Unregistered)),
	)
	return audience
}

// DeviceTokens collects valid push tokens for the given emails: the
// profile must have notifications enabled and a token of usable length.
// Lookup failures yield an empty slice, never an error.
func (r *Resolver) DeviceTokens(ctx context.Context, emails []string) []string {
	unique := dedupe(emails)
	if len(unique) == 0 {
		return nil
	}

	configs, err := r.store.GetByEmails(ctx, unique)
	if err != nil {
		r.logger.Error("collect device tokens", zap.Error(err), zap.Int("email_count", len(unique)))
		return nil
	}

	var tokens []string
	for _, cfg := range configs {
		if cfg.NotificationsEnabled && cfg.HasValidDeviceToken() {
			tokens = append(tokens, cfg.DeviceToken)
		}
	}

	r.logger.Info("collected device tokens",
		zap.Int("requested", len(unique)),
		zap.Int("found", len(tokens)),
	)
	return tokens
}

func dedupe(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		n := models.NormalizeEmail(e)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

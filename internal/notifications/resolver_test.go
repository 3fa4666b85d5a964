package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eventmate/backend/internal/models"
)

type fakeConfigStore struct {
	configs map[string]models.UserConfiguration
	err     error
	calls   int
}

func (f *fakeConfigStore) GetByEmails(_ context.Context, emails []string) ([]models.UserConfiguration, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.UserConfiguration
	for _, e := range emails {
		if cfg, ok := f.configs[e]; ok {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func configFor(email string, enabled bool, token string) models.UserConfiguration {
	return models.UserConfiguration{
		Email:                email,
		NotificationsEnabled: enabled,
		DeviceToken:          token,
	}
}

func TestResolvePartitionsAudience(t *testing.T) {
	store := &fakeConfigStore{configs: map[string]models.UserConfiguration{
		"alice@example.com": configFor("alice@example.com", true, "token-alice-0123456789"),
		"bob@example.com":   configFor("bob@example.com", false, ""),
	}}
	r := NewResolver(store, nil)

	audience := r.Resolve(context.Background(), []string{
		"alice@example.com",
		"bob@example.com",
		"carol@example.com",
	})

	assert.Len(t, audience.Registered, 1)
	assert.Equal(t, "alice@example.com", audience.Registered[0].Email)
	// bob has an account but notifications disabled; he still gets email.
	assert.ElementsMatch(t, []string{"bob@example.com", "carol@example.com"}, audience.Unregistered)
}

func TestResolveEveryEmailInExactlyOnePartition(t *testing.T) {
	store := &fakeConfigStore{configs: map[string]models.UserConfiguration{
		"a@example.com": configFor("a@example.com", true, ""),
		"b@example.com": configFor("b@example.com", false, ""),
	}}
	r := NewResolver(store, nil)

	input := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"}
	audience := r.Resolve(context.Background(), input)

	seen := make(map[string]int)
	for _, cfg := range audience.Registered {
		seen[cfg.Email]++
	}
	for _, email := range audience.Unregistered {
		seen[email]++
	}
	for _, email := range input {
		assert.Equal(t, 1, seen[email], "email %s should be in exactly one partition", email)
	}
}

func TestResolveDeduplicatesAndNormalizes(t *testing.T) {
	store := &fakeConfigStore{configs: map[string]models.UserConfiguration{}}
	r := NewResolver(store, nil)

	audience := r.Resolve(context.Background(), []string{
		"Alice@Example.com",
		"alice@example.com",
		" alice@example.com ",
		"",
	})

	assert.Empty(t, audience.Registered)
	assert.Equal(t, []string{"alice@example.com"}, audience.Unregistered)
}

func TestResolveLookupFailureYieldsEmptyAudience(t *testing.T) {
	store := &fakeConfigStore{err: errors.New("connection refused")}
	r := NewResolver(store, nil)

	audience := r.Resolve(context.Background(), []string{"a@example.com"})
	assert.True(t, audience.Empty())
}

func TestResolveEmptyInput(t *testing.T) {
	store := &fakeConfigStore{}
	r := NewResolver(store, nil)

	assert.True(t, r.Resolve(context.Background(), nil).Empty())
	assert.Zero(t, store.calls)
}

func TestDeviceTokens(t *testing.T) {
	store := &fakeConfigStore{configs: map[string]models.UserConfiguration{
		"alice@example.com": configFor("alice@example.com", true, "token-alice-0123456789"),
		"bob@example.com":   configFor("bob@example.com", true, "short"),
		"carol@example.com": configFor("carol@example.com", false, "token-carol-0123456789"),
		"dave@example.com":  configFor("dave@example.com", true, ""),
	}}
	r := NewResolver(store, nil)

	tokens := r.DeviceTokens(context.Background(), []string{
		"alice@example.com", "bob@example.com", "carol@example.com", "dave@example.com",
	})
	assert.Equal(t, []string{"token-alice-0123456789"}, tokens)
}

func TestDeviceTokensLookupFailure(t *testing.T) {
	store := &fakeConfigStore{err: errors.New("connection refused")}
	r := NewResolver(store, nil)

	assert.Nil(t, r.DeviceTokens(context.Background(), []string{"a@example.com"}))
}

package invitations

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/eventmate/backend/internal/models"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewHandler(svc)
	router.POST("/events/invite", h.InviteDirect)
	return router
}

func inviteDirect(router *gin.Engine, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/events/invite", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestInviteDirectStatusMapping(t *testing.T) {
	owner := uuid.New()
	event := &models.Event{
		ID:       uuid.New(),
		Title:    "Team offsite",
		OwnerID:  owner,
		Invitees: []string{"taken@example.com"},
	}
	store := &fakeEventStore{event: event, afterAdd: withInvitee(event, "new@example.com")}
	svc := NewService(store, &fakeAccounts{existing: map[string]bool{"new@example.com": true}}, &fakeNotifier{}, &fakePublisher{}, nil)
	router := newTestRouter(svc)

	body := func(eventID, email, ownerUID string) string {
		return `{"eventId":"` + eventID + `","email":"` + email + `","ownerUid":"` + ownerUID + `"}`
	}

	tests := []struct {
		name     string
		token    string
		body     string
		expected int
	}{
		{
			name:     "missing bearer token",
			token:    "",
			body:     body(event.ID.String(), "new@example.com", owner.String()),
			expected: http.StatusUnauthorized,
		},
		{
			name:     "invalid ownerUid",
			token:    "some-token",
			body:     body(event.ID.String(), "new@example.com", "not-a-uuid"),
			expected: http.StatusBadRequest,
		},
		{
			name:     "invalid email",
			token:    "some-token",
			body:     body(event.ID.String(), "not-an-email", owner.String()),
			expected: http.StatusBadRequest,
		},
		{
			name:     "event not found",
			token:    "some-token",
			body:     body(uuid.New().String(), "new@example.com", owner.String()),
			expected: http.StatusNotFound,
		},
		{
			name:     "caller is not the owner",
			token:    "some-token",
			body:     body(event.ID.String(), "new@example.com", uuid.New().String()),
			expected: http.StatusForbidden,
		},
		{
			name:     "already invited",
			token:    "some-token",
			body:     body(event.ID.String(), "taken@example.com", owner.String()),
			expected: http.StatusConflict,
		},
		{
			name:     "success",
			token:    "some-token",
			body:     body(event.ID.String(), "new@example.com", owner.String()),
			expected: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := inviteDirect(router, tt.token, tt.body)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestInviteDirectInternalFailure(t *testing.T) {
	owner := uuid.New()
	event := &models.Event{ID: uuid.New(), Title: "Team offsite", OwnerID: owner}
	svc := NewService(
		&fakeEventStore{event: event},
		&fakeAccounts{},
		&fakeNotifier{emailErr: assert.AnError},
		nil, nil,
	)
	router := newTestRouter(svc)

	w := inviteDirect(router, "some-token",
		`{"eventId":"`+event.ID.String()+`","email":"new@example.com","ownerUid":"`+owner.String()+`"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

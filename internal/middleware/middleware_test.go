package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/event-platform-api/internal/auth"
	"github.com/yukikurage/event-platform-api/internal/authz"
	"github.com/yukikurage/event-platform-api/internal/constants"
	"github.com/yukikurage/event-platform-api/internal/models"
	"github.com/yukikurage/event-platform-api/internal/services"
	"go.uber.org/zap"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) ResolveCaller(_ context.Context, externalID string) (*models.User, error) {
	if u, ok := f[externalID]; ok {
		return u, nil
	}
	return nil, services.ErrUserNotFound
}

type fakeEvents map[string]*models.Event

func (f fakeEvents) GetEvent(_ context.Context, id string) (*models.Event, error) {
	if e, ok := f[id]; ok {
		return e, nil
	}
	return nil, services.ErrEventNotFound
}

var (
	tokens = auth.NewTokenManager("middleware-secret", time.Hour)
	users  = fakeUsers{
		"ext-admin-a": {ID: "a", Role: models.RoleAdmin},
		"ext-admin-b": {ID: "b", Role: models.RoleAdmin},
		"ext-user":    {ID: "u", Role: models.RoleUser},
	}
	events = fakeEvents{
		"e1": {ID: "e1", CreatedBy: "a"},
	}
)

func init() {
	gin.SetMode(gin.TestMode)
}

func bearer(t *testing.T, externalID string) string {
	t.Helper()
	token, err := tokens.Issue(externalID, "")
	require.NoError(t, err)
	return "Bearer " + token
}

func perform(r http.Handler, method, path, authorization string) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func okHandler(c *gin.Context) {
	resp := gin.H{"externalId": GetExternalID(c)}
	if user, ok := GetUser(c); ok {
		resp["userId"] = user.ID
	}
	if event, ok := GetEvent(c); ok {
		resp["eventId"] = event.ID
	}
	c.JSON(http.StatusOK, resp)
}

func TestAuthenticate(t *testing.T) {
	r := gin.New()
	r.GET("/me", Authenticate(tokens), okHandler)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
		wantCode   string
	}{
		{"no token", "", http.StatusUnauthorized, "Access denied, no token provided.", "UNAUTHORIZED"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Access denied, no token provided.", "UNAUTHORIZED"},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, "Invalid or expired token.", "INVALID_TOKEN"},
		{"valid token", bearer(t, "ext-user"), http.StatusOK, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := perform(r, http.MethodGet, "/me", tt.header)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body["msg"])
				assert.Equal(t, tt.wantCode, body["code"])
			} else {
				assert.Equal(t, "ext-user", body["externalId"])
			}
		})
	}
}

func TestAuthenticate_SessionFallback(t *testing.T) {
	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("session-secret"))))
	r.POST("/login", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(constants.SessionKeyExternalID, "ext-user")
		require.NoError(t, session.Save())
		c.Status(http.StatusOK)
	})
	r.GET("/me", Authenticate(tokens), okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ext-user")
}

func TestRequireUser(t *testing.T) {
	r := gin.New()
	r.GET("/me", Authenticate(tokens), RequireUser(users), okHandler)

	w, body := perform(r, http.MethodGet, "/me", bearer(t, "ext-user"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u", body["userId"])

	w, body = perform(r, http.MethodGet, "/me", bearer(t, "ext-unknown"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "User not found", body["msg"])
}

func TestRequireAdmin(t *testing.T) {
	r := gin.New()
	r.GET("/admin", Authenticate(tokens), RequireAdmin(users, authz.ActionListUsers), okHandler)

	w, _ := perform(r, http.MethodGet, "/admin", bearer(t, "ext-admin-a"))
	assert.Equal(t, http.StatusOK, w.Code)

	for _, who := range []string{"ext-user", "ext-unknown"} {
		w, body := perform(r, http.MethodGet, "/admin", bearer(t, who))
		assert.Equal(t, http.StatusForbidden, w.Code, who)
		assert.Equal(t, authz.ReasonAdminsOnly, body["msg"], who)
	}
}

func TestRequireEventCreatorAdmin(t *testing.T) {
	r := gin.New()
	r.PUT("/events/:id", Authenticate(tokens), RequireEventCreatorAdmin(users, events, authz.ActionUpdateEvent), okHandler)

	tests := []struct {
		name       string
		who        string
		eventID    string
		wantStatus int
		wantMsg    string
	}{
		{"creator", "ext-admin-a", "e1", http.StatusOK, ""},
		{"other admin", "ext-admin-b", "e1", http.StatusForbidden, authz.ReasonNotCreator},
		{"plain user", "ext-user", "e1", http.StatusForbidden, authz.ReasonAdminsOnly},
		{"missing event", "ext-admin-a", "nope", http.StatusNotFound, "Event or user not found"},
		{"missing user", "ext-unknown", "e1", http.StatusNotFound, "Event or user not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := perform(r, http.MethodPut, "/events/"+tt.eventID, bearer(t, tt.who))
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, body["msg"])
			} else {
				assert.Equal(t, "a", body["userId"])
				assert.Equal(t, "e1", body["eventId"])
			}
		})
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173"}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w, body := perform(r, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body["msg"])
}

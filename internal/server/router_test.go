package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/event-platform-api/internal/auth"
	"github.com/yukikurage/event-platform-api/internal/config"
	"github.com/yukikurage/event-platform-api/internal/dto"
	"github.com/yukikurage/event-platform-api/internal/models"
	"github.com/yukikurage/event-platform-api/internal/repository"
	"github.com/yukikurage/event-platform-api/internal/server"
	"github.com/yukikurage/event-platform-api/internal/testutil"
	"github.com/yukikurage/event-platform-api/internal/utils"
	"gorm.io/gorm"
)

type RouterTestSuite struct {
	suite.Suite
	db     *gorm.DB
	tokens *auth.TokenManager
	router *gin.Engine
	admin  *models.User
	admin2 *models.User
	user   *models.User
}

func (suite *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	publicDir := suite.T().TempDir()
	suite.Require().NoError(os.WriteFile(filepath.Join(publicDir, "hello.txt"), []byte("hello"), 0o644))

	cfg := &config.Config{
		SessionSecret:      "router-test-session",
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		PublicDir:          publicDir,
	}

	sessionStore, err := server.NewSessionStore(cfg)
	suite.Require().NoError(err)

	suite.db = testutil.NewDB(suite.T())
	suite.tokens = auth.NewTokenManager("router-test-secret", time.Hour)
	suite.router = server.NewRouter(cfg, server.Dependencies{
		Store:    repository.NewGormStore(suite.db),
		Tokens:   suite.tokens,
		Sessions: sessionStore,
	})

	suite.admin = testutil.CreateUser(suite.T(), suite.db, "admin_a", models.RoleAdmin)
	suite.admin2 = testutil.CreateUser(suite.T(), suite.db, "admin_b", models.RoleAdmin)
	suite.user = testutil.CreateUser(suite.T(), suite.db, "member", models.RoleUser)
}

func (suite *RouterTestSuite) bearer(user *models.User) string {
	token, err := suite.tokens.Issue(user.ExternalIdentity(), user.Email)
	suite.Require().NoError(err)
	return "Bearer " + token
}

func (suite *RouterTestSuite) do(method, path, authorization string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		suite.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *RouterTestSuite) decode(w *httptest.ResponseRecorder, v interface{}) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (suite *RouterTestSuite) msg(w *httptest.ResponseRecorder) string {
	var body struct {
		Message string `json:"msg"`
	}
	suite.decode(w, &body)
	return body.Message
}

func eventPayload(title string, category models.Category, date time.Time) map[string]interface{} {
	return map[string]interface{}{
		"title":           title,
		"description":     title + " description",
		"date":            date.Format(time.RFC3339),
		"location":        "Manchester",
		"maxParticipants": 2,
		"category":        string(category),
		"organizerContact": map[string]string{
			"email": "organizer@example.com",
			"phone": "07123456789",
		},
	}
}

func (suite *RouterTestSuite) createEvent(by *models.User, title string, category models.Category, date time.Time) dto.EventDTO {
	w := suite.do(http.MethodPost, "/api/events", suite.bearer(by), eventPayload(title, category, date))
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var event dto.EventDTO
	suite.decode(w, &event)
	return event
}

var baseDate = time.Date(2030, time.March, 1, 18, 0, 0, 0, time.UTC)

func (suite *RouterTestSuite) TestCreateEvent_AdminOnly() {
	w := suite.do(http.MethodPost, "/api/events", suite.bearer(suite.admin), eventPayload("Jazz Night", models.CategoryMusic, baseDate))
	suite.Require().Equal(http.StatusCreated, w.Code)

	var created dto.EventDTO
	suite.decode(w, &created)
	suite.NotEmpty(created.ID)
	suite.Equal("Jazz Night", created.Title)
	suite.Equal(suite.admin.ID, created.CreatedBy.ID)
	suite.Equal(models.EventStatusActive, created.Status)
	suite.Empty(created.Participants)

	w = suite.do(http.MethodPost, "/api/events", suite.bearer(suite.user), eventPayload("Jazz Night", models.CategoryMusic, baseDate))
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Regexp(`(?i)access denied`, suite.msg(w))

	w = suite.do(http.MethodPost, "/api/events", "", eventPayload("Jazz Night", models.CategoryMusic, baseDate))
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal("Access denied, no token provided.", suite.msg(w))
}

func (suite *RouterTestSuite) TestCreateEvent_InvalidData() {
	payload := eventPayload("Jazz Night", models.CategoryMusic, baseDate)
	delete(payload, "location")
	w := suite.do(http.MethodPost, "/api/events", suite.bearer(suite.admin), payload)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Bad request, invalid data.", suite.msg(w))

	payload = eventPayload("Jazz Night", models.CategoryMusic, baseDate)
	payload["maxParticipants"] = "lots"
	w = suite.do(http.MethodPost, "/api/events", suite.bearer(suite.admin), payload)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Bad request, invalid data.", suite.msg(w))
}

func (suite *RouterTestSuite) TestEventRoundTrip() {
	created := suite.createEvent(suite.admin, "Pottery Class", models.CategoryArts, baseDate)

	w := suite.do(http.MethodGet, "/api/events/"+created.ID, "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var fetched dto.EventDTO
	suite.decode(w, &fetched)
	suite.Equal(created.Title, fetched.Title)
	suite.Equal(created.Description, fetched.Description)
	suite.Equal(created.Location, fetched.Location)
	suite.Equal("admin_a", fetched.CreatedBy.Username)

	w = suite.do(http.MethodGet, "/api/events/does-not-exist", "", nil)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("Event not found", suite.msg(w))
}

func (suite *RouterTestSuite) TestOwnershipBoundary() {
	created := suite.createEvent(suite.admin, "Book Club", models.CategorySocial, baseDate)
	path := "/api/events/" + created.ID

	w := suite.do(http.MethodPut, path, suite.bearer(suite.admin2), map[string]string{"title": "Hijacked"})
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Regexp(`(?i)only the admin who created`, suite.msg(w))

	w = suite.do(http.MethodDelete, path, suite.bearer(suite.admin2), nil)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Regexp(`(?i)only the admin who created`, suite.msg(w))

	w = suite.do(http.MethodPut, path, suite.bearer(suite.user), map[string]string{"title": "Hijacked"})
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Regexp(`(?i)access denied`, suite.msg(w))

	w = suite.do(http.MethodPut, path, suite.bearer(suite.admin), map[string]string{"title": "Book Club Deluxe"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated dto.EventDTO
	suite.decode(w, &updated)
	suite.Equal("Book Club Deluxe", updated.Title)
	suite.Equal(created.Description, updated.Description)

	w = suite.do(http.MethodPut, path, suite.bearer(suite.admin), map[string]string{"category": "Sports"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Error updating event", suite.msg(w))

	w = suite.do(http.MethodDelete, path, suite.bearer(suite.admin), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("Event deleted", suite.msg(w))

	w = suite.do(http.MethodDelete, path, suite.bearer(suite.admin), nil)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("Event or user not found", suite.msg(w))
}

func (suite *RouterTestSuite) TestListEvents() {
	suite.createEvent(suite.admin, "Late Gig", models.CategoryMusic, baseDate.Add(72*time.Hour))
	suite.createEvent(suite.admin, "Early Gig", models.CategoryMusic, baseDate)
	suite.createEvent(suite.admin, "Gallery Tour", models.CategoryArts, baseDate.Add(24*time.Hour))
	suite.createEvent(suite.admin2, "Yoga", models.CategoryHealth, baseDate.Add(48*time.Hour))

	w := suite.do(http.MethodGet, "/api/events", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var all dto.EventListResponse
	suite.decode(w, &all)
	suite.Equal(int64(4), all.TotalEvents)
	suite.Equal(1, all.TotalPages)
	suite.Equal(1, all.CurrentPage)
	for i := 1; i < len(all.Events); i++ {
		suite.False(all.Events[i].Date.Before(all.Events[i-1].Date))
	}

	w = suite.do(http.MethodGet, "/api/events?category=Music", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var music dto.EventListResponse
	suite.decode(w, &music)
	suite.Require().Len(music.Events, 2)
	for _, e := range music.Events {
		suite.Equal(models.CategoryMusic, e.Category)
	}
	suite.Equal("Early Gig", music.Events[0].Title)

	w = suite.do(http.MethodGet, "/api/events?sortBy=title&sortOrder=desc&limit=2&page=2", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var page dto.EventListResponse
	suite.decode(w, &page)
	suite.Equal(2, page.TotalPages)
	suite.Equal(2, page.CurrentPage)
	suite.Require().Len(page.Events, 2)
	suite.Equal("Gallery Tour", page.Events[0].Title)
	suite.Equal("Early Gig", page.Events[1].Title)

	w = suite.do(http.MethodGet, "/api/events?category=Sports", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var none dto.EventListResponse
	suite.decode(w, &none)
	suite.Empty(none.Events)
	suite.Equal(int64(0), none.TotalEvents)
}

func (suite *RouterTestSuite) TestSignUpLifecycle() {
	created := suite.createEvent(suite.admin, "Cooking Workshop", models.CategoryFoodDrink, baseDate)
	signup := "/api/events/" + created.ID + "/signup"
	unsignup := "/api/events/" + created.ID + "/unsignup"
	token := suite.bearer(suite.user)

	w := suite.do(http.MethodPost, unsignup, token, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Regexp(`(?i)not signed up`, suite.msg(w))

	w = suite.do(http.MethodPost, signup, token, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var confirmation dto.ParticipationResponse
	suite.decode(w, &confirmation)
	suite.Equal("Successfully signed up for event", confirmation.Message)
	suite.Equal(created.ID, confirmation.Event.ID)
	suite.Equal("Cooking Workshop", confirmation.Event.Title)

	w = suite.do(http.MethodPost, signup, token, nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Regexp(`(?i)already signed up`, suite.msg(w))

	w = suite.do(http.MethodGet, "/api/users/me", token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var profile dto.ProfileDTO
	suite.decode(w, &profile)
	suite.Require().Len(profile.EventsSignedUp, 1)
	suite.Equal(created.ID, profile.EventsSignedUp[0].ID)

	w = suite.do(http.MethodPost, unsignup, token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("Successfully removed from event", suite.msg(w))

	w = suite.do(http.MethodGet, "/api/users/me", token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	profile = dto.ProfileDTO{}
	suite.decode(w, &profile)
	suite.Empty(profile.EventsSignedUp)
}

func (suite *RouterTestSuite) TestSignUp_Rejections() {
	created := suite.createEvent(suite.admin, "Tiny Gig", models.CategoryMusic, baseDate)
	signup := "/api/events/" + created.ID + "/signup"

	w := suite.do(http.MethodPost, signup, suite.bearer(suite.admin2), nil)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal("Admins cannot sign up for events", suite.msg(w))

	w = suite.do(http.MethodPost, "/api/events/missing/signup", suite.bearer(suite.user), nil)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("Event not found", suite.msg(w))

	for i := 0; i < 2; i++ {
		u := testutil.CreateUser(suite.T(), suite.db, fmt.Sprintf("fan_%d", i), models.RoleUser)
		w = suite.do(http.MethodPost, signup, suite.bearer(u), nil)
		suite.Require().Equal(http.StatusOK, w.Code)
	}

	w = suite.do(http.MethodPost, signup, suite.bearer(suite.user), nil)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Event is full", suite.msg(w))

	stranger := testutil.CreateUser(suite.T(), suite.db, "stranger", models.RoleUser)
	token := suite.bearer(stranger)
	suite.Require().NoError(suite.db.Delete(stranger).Error)
	w = suite.do(http.MethodPost, signup, token, nil)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("User not found", suite.msg(w))
}

func (suite *RouterTestSuite) TestRegister() {
	payload := map[string]string{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"username":  "ada",
		"email":     "Ada@Example.com",
		"password":  "analytical1!",
	}

	w := suite.do(http.MethodPost, "/api/users/register", "", payload)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Message string      `json:"msg"`
		Token   string      `json:"token"`
		User    dto.UserDTO `json:"user"`
	}
	suite.decode(w, &resp)
	suite.NotEmpty(resp.Token)
	suite.Equal(models.RoleUser, resp.User.Role)
	suite.Equal("ada@example.com", resp.User.Email)
	suite.NotContains(w.Body.String(), "password")

	w = suite.do(http.MethodGet, "/api/users/me", "Bearer "+resp.Token, nil)
	suite.Equal(http.StatusOK, w.Code)

	payload["username"] = "ada2"
	w = suite.do(http.MethodPost, "/api/users/register", "", payload)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Regexp(`(?i)already exists`, suite.msg(w))

	payload["email"] = "countess@example.com"
	payload["password"] = "password"
	w = suite.do(http.MethodPost, "/api/users/register", "", payload)
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal(utils.PasswordPolicyMessage, suite.msg(w))

	w = suite.do(http.MethodPost, "/api/users/register", "", map[string]string{"email": "x@example.com"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Validation error", suite.msg(w))
}

func (suite *RouterTestSuite) TestLoginSessionLogout() {
	w := suite.do(http.MethodPost, "/api/users/register", "", map[string]string{
		"firstName": "Grace",
		"lastName":  "Hopper",
		"username":  "grace",
		"email":     "grace@example.com",
		"password":  "cobol1959!",
	})
	suite.Require().Equal(http.StatusCreated, w.Code)

	w = suite.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": "grace@example.com", "password": "wrong1!"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Invalid credentials", suite.msg(w))

	w = suite.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": "grace@example.com", "password": "cobol1959!"})
	suite.Require().Equal(http.StatusOK, w.Code)
	var login dto.AuthResponse
	suite.decode(w, &login)
	suite.NotEmpty(login.Token)
	cookies := w.Result().Cookies()
	suite.Require().NotEmpty(cookies)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Require().Equal(http.StatusOK, w.Code)
	var profile dto.ProfileDTO
	suite.decode(w, &profile)
	suite.Equal("grace", profile.Username)
	suite.NotNil(profile.LastLogin)

	req = httptest.NewRequest(http.MethodPost, "/api/users/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	suite.Equal(http.StatusOK, w.Code)
}

func (suite *RouterTestSuite) TestProfile() {
	created := suite.createEvent(suite.admin, "Hackathon", models.CategoryEducation, baseDate)

	w := suite.do(http.MethodGet, "/api/users/me", suite.bearer(suite.admin), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var profile dto.ProfileDTO
	suite.decode(w, &profile)
	suite.Require().Len(profile.EventsManaged, 1)
	suite.Equal(created.ID, profile.EventsManaged[0].ID)

	w = suite.do(http.MethodPut, "/api/users/me", suite.bearer(suite.user), map[string]interface{}{
		"bio":  "Loves events",
		"role": "admin",
	})
	suite.Require().Equal(http.StatusOK, w.Code)
	var updated dto.UserMessageResponse
	suite.decode(w, &updated)
	suite.Equal("Profile updated", updated.Message)
	suite.Equal("Loves events", updated.User.Bio)
	suite.Equal(models.RoleUser, updated.User.Role)

	w = suite.do(http.MethodPut, "/api/users/me", suite.bearer(suite.user), map[string]string{"username": "admin_a"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Username already taken", suite.msg(w))

	w = suite.do(http.MethodPut, "/api/users/me", suite.bearer(suite.user), map[string]string{"email": "admin_a@example.com"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Email already in use", suite.msg(w))

	w = suite.do(http.MethodPut, "/api/users/me", suite.bearer(suite.user), map[string]string{"email": "nope"})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("Validation error", suite.msg(w))

	token := suite.bearer(suite.user)
	w = suite.do(http.MethodDelete, "/api/users/me", token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal("User deleted", suite.msg(w))

	w = suite.do(http.MethodGet, "/api/users/me", token, nil)
	suite.Equal(http.StatusNotFound, w.Code)
	suite.Equal("User not found", suite.msg(w))
}

func (suite *RouterTestSuite) TestListUsers() {
	w := suite.do(http.MethodGet, "/api/users?role=admin", suite.bearer(suite.admin), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var admins []dto.UserDTO
	suite.decode(w, &admins)
	suite.Len(admins, 2)
	for _, u := range admins {
		suite.Equal(models.RoleAdmin, u.Role)
	}

	w = suite.do(http.MethodGet, "/api/users", suite.bearer(suite.user), nil)
	suite.Equal(http.StatusForbidden, w.Code)
	suite.Equal("Access denied: Admins only", suite.msg(w))
}

func (suite *RouterTestSuite) TestSync() {
	token, err := suite.tokens.Issue("idp|0042abcdef", "newcomer@example.com")
	suite.Require().NoError(err)

	w := suite.do(http.MethodPost, "/api/users/sync", "Bearer "+token, map[string]string{"firstName": "New"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var first dto.UserMessageResponse
	suite.decode(w, &first)
	suite.Equal("User synced", first.Message)
	suite.Equal("idp|0042abcdef", first.User.ExternalID)
	suite.Equal("newcomer@example.com", first.User.Email)
	suite.Equal("New", first.User.FirstName)

	w = suite.do(http.MethodPost, "/api/users/sync", "Bearer "+token, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var second dto.UserMessageResponse
	suite.decode(w, &second)
	suite.Equal(first.User.ID, second.User.ID)

	w = suite.do(http.MethodPost, "/api/users/sync", "Bearer broken", nil)
	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Equal("Invalid or expired token.", suite.msg(w))
}

func (suite *RouterTestSuite) TestInfrastructureRoutes() {
	w := suite.do(http.MethodGet, "/health", "", nil)
	suite.Equal(http.StatusOK, w.Code)

	w = suite.do(http.MethodGet, "/api/endpoints", "", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Contains(w.Body.String(), `"/api/events/:id/signup"`)

	w = suite.do(http.MethodGet, "/public/hello.txt", "", nil)
	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("hello", w.Body.String())

	for _, path := range []string{"/nope", "/api/unknown", "/api/events/1/explode"} {
		w = suite.do(http.MethodGet, path, "", nil)
		suite.Equal(http.StatusNotFound, w.Code, path)
		suite.JSONEq(`{"msg":"Path not found"}`, w.Body.String(), path)
	}
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

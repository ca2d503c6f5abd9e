package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/event-platform-api/internal/auth"
	"github.com/yukikurage/event-platform-api/internal/authz"
	"github.com/yukikurage/event-platform-api/internal/constants"
	apierrors "github.com/yukikurage/event-platform-api/internal/errors"
	"github.com/yukikurage/event-platform-api/internal/models"
	"github.com/yukikurage/event-platform-api/internal/services"
	"go.uber.org/zap"
)

const (
	msgNoToken         = "Access denied, no token provided."
	msgInvalidToken    = "Invalid or expired token."
	msgUserNotFound    = "User not found"
	msgEventOrUserGone = "Event or user not found"
)

// CallerResolver maps an external identity to the local user.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, externalID string) (*models.User, error)
}

// EventFinder loads an event by id.
type EventFinder interface {
	GetEvent(ctx context.Context, id string) (*models.Event, error)
}

// Authenticate establishes the caller's external identity from the bearer
// token, falling back to the session cookie.
func Authenticate(resolver auth.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			claims, err := resolver.Resolve(token)
			if err != nil {
				apierrors.InvalidToken(c, msgInvalidToken)
				return
			}

			c.Set(constants.ContextKeyExternalID, claims.ExternalID())
			c.Set(constants.ContextKeyClaims, claims)
			c.Next()
			return
		}

		if externalID := sessionExternalID(c); externalID != "" {
			c.Set(constants.ContextKeyExternalID, externalID)
			c.Next()
			return
		}

		apierrors.Unauthorized(c, msgNoToken)
	}
}

// RequireUser attaches the local user for the authenticated caller.
func RequireUser(users CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := resolveCaller(c, users)
		if !ok {
			return
		}
		if user == nil {
			apierrors.NotFound(c, msgUserNotFound)
			return
		}

		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

// RequireAdmin allows an admin-only action that has no target event.
func RequireAdmin(users CallerResolver, action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := resolveCaller(c, users)
		if !ok {
			return
		}
		if d := authz.Can(user, action, nil); !d.Allowed {
			apierrors.Forbidden(c, d.Reason)
			return
		}

		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

// RequireEventCreatorAdmin allows only the admin who created the event named
// by the :id path parameter. The user and the event are attached on success.
func RequireEventCreatorAdmin(users CallerResolver, events EventFinder, action authz.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := resolveCaller(c, users)
		if !ok {
			return
		}

		event, err := events.GetEvent(c.Request.Context(), c.Param("id"))
		if err != nil && !errors.Is(err, services.ErrEventNotFound) {
			zap.L().Error("failed to load event", zap.String("event_id", c.Param("id")), zap.Error(err))
			apierrors.InternalError(c, "")
			return
		}

		if user == nil || event == nil {
			apierrors.NotFound(c, msgEventOrUserGone)
			return
		}

		if d := authz.Can(user, action, event); !d.Allowed {
			apierrors.Forbidden(c, d.Reason)
			return
		}

		c.Set(constants.ContextKeyUser, user)
		c.Set(constants.ContextKeyEvent, event)
		c.Next()
	}
}

// resolveCaller returns the caller's user, or nil when no local record exists.
// ok is false when the request has already been aborted.
func resolveCaller(c *gin.Context, users CallerResolver) (*models.User, bool) {
	externalID := GetExternalID(c)
	if externalID == "" {
		apierrors.Unauthorized(c, msgNoToken)
		return nil, false
	}

	user, err := users.ResolveCaller(c.Request.Context(), externalID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return nil, true
		}
		zap.L().Error("failed to resolve caller", zap.Error(err))
		apierrors.InternalError(c, "")
		return nil, false
	}
	return user, true
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func sessionExternalID(c *gin.Context) string {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	value, _ := sessions.Default(c).Get(constants.SessionKeyExternalID).(string)
	return value
}

// GetExternalID retrieves the caller's external identity from context
func GetExternalID(c *gin.Context) string {
	return c.GetString(constants.ContextKeyExternalID)
}

// GetClaims retrieves the verified token claims, if the caller used a token
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	value, exists := c.Get(constants.ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok
}

// GetUser retrieves the user attached by RequireUser, RequireAdmin or RequireEventCreatorAdmin
func GetUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

// GetEvent retrieves the event attached by RequireEventCreatorAdmin
func GetEvent(c *gin.Context) (*models.Event, bool) {
	value, exists := c.Get(constants.ContextKeyEvent)
	if !exists {
		return nil, false
	}
	event, ok := value.(*models.Event)
	return event, ok && event != nil
}

// Package server assembles the HTTP router and its dependencies.
package server

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/event-platform-api/internal/auth"
	"github.com/yukikurage/event-platform-api/internal/authz"
	"github.com/yukikurage/event-platform-api/internal/config"
	"github.com/yukikurage/event-platform-api/internal/constants"
	"github.com/yukikurage/event-platform-api/internal/handlers"
	"github.com/yukikurage/event-platform-api/internal/middleware"
	"github.com/yukikurage/event-platform-api/internal/repository"
	"github.com/yukikurage/event-platform-api/internal/services"
	"go.uber.org/zap"
)

// Tokens verifies incoming credentials and issues local ones.
type Tokens interface {
	auth.IdentityResolver
	auth.TokenIssuer
}

// Dependencies are the collaborators the router is built from.
type Dependencies struct {
	Store    repository.Store
	Tokens   Tokens
	Sessions sessions.Store // optional
	Keywords services.KeywordSuggester
	Logger   *zap.Logger
}

// NewRouter wires services, handlers and middleware into a gin engine.
func NewRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	eventService := services.NewEventService(deps.Store.Events)
	userService := services.NewUserService(deps.Store.Users, deps.Store.Events, deps.Tokens)

	eventHandler := handlers.NewEventHandler(eventService, deps.Keywords)
	userHandler := handlers.NewUserHandler(userService)

	r := gin.New()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	if deps.Sessions != nil {
		r.Use(sessions.Sessions(constants.SessionCookieName, deps.Sessions))
	}

	authenticate := middleware.Authenticate(deps.Tokens)
	requireUser := middleware.RequireUser(userService)

	if cfg.PublicDir != "" {
		r.Static("/public", cfg.PublicDir)
	}

	r.GET("/health", handlers.Health)

	api := r.Group("/api")
	{
		api.GET("/endpoints", handlers.Endpoints(r))

		events := api.Group("/events")
		{
			events.GET("", eventHandler.ListEvents)
			events.GET("/:id", eventHandler.GetEvent)
			events.POST("", authenticate, middleware.RequireAdmin(userService, authz.ActionCreateEvent), eventHandler.CreateEvent)
			events.POST("/keywords", authenticate, middleware.RequireAdmin(userService, authz.ActionSuggestKeywords), eventHandler.SuggestKeywords)
			events.PUT("/:id", authenticate, middleware.RequireEventCreatorAdmin(userService, eventService, authz.ActionUpdateEvent), eventHandler.UpdateEvent)
			events.DELETE("/:id", authenticate, middleware.RequireEventCreatorAdmin(userService, eventService, authz.ActionDeleteEvent), eventHandler.DeleteEvent)
			events.POST("/:id/signup", authenticate, requireUser, eventHandler.SignUp)
			events.POST("/:id/unsignup", authenticate, requireUser, eventHandler.UnSignUp)
		}

		users := api.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
			users.POST("/logout", userHandler.Logout)
			users.POST("/sync", authenticate, userHandler.Sync)
			users.GET("", authenticate, middleware.RequireAdmin(userService, authz.ActionListUsers), userHandler.ListUsers)

			me := users.Group("/me")
			me.Use(authenticate, requireUser)
			{
				me.GET("", userHandler.GetOwnProfile)
				me.PUT("", userHandler.UpdateOwnProfile)
				me.DELETE("", userHandler.DeleteOwnProfile)
			}
		}
	}

	r.NoRoute(handlers.PathNotFound)

	return r
}

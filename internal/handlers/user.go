package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/event-platform-api/internal/constants"
	"github.com/yukikurage/event-platform-api/internal/dto"
	apierrors "github.com/yukikurage/event-platform-api/internal/errors"
	"github.com/yukikurage/event-platform-api/internal/middleware"
	"github.com/yukikurage/event-platform-api/internal/services"
	"go.uber.org/zap"
)

// UserHandler serves the account and profile routes.
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// ListUsers returns all users. Query: role
func (h *UserHandler) ListUsers(c *gin.Context) {
	caller, _ := middleware.GetUser(c)

	users, err := h.userService.ListUsers(c.Request.Context(), caller, c.Query("role"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTOs(users))
}

// GetOwnProfile returns the caller's profile with signed up and managed events.
func (h *UserHandler) GetOwnProfile(c *gin.Context) {
	caller, _ := middleware.GetUser(c)

	profile, err := h.userService.GetOwnProfile(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := dto.ProfileDTO{
		UserDTO:        dto.ToUserDTO(profile.User),
		EventsSignedUp: dto.ToEventSummaryDTOs(profile.EventsSignedUp),
	}
	if profile.User.IsAdmin() {
		resp.EventsManaged = dto.ToEventSummaryDTOs(profile.EventsManaged)
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateOwnProfile applies a partial update to the caller's profile.
func (h *UserHandler) UpdateOwnProfile(c *gin.Context) {
	type UpdateProfileRequest struct {
		FirstName    *string           `json:"firstName"`
		LastName     *string           `json:"lastName"`
		Username     *string           `json:"username"`
		Email        *string           `json:"email" binding:"omitempty,email"`
		Phone        *string           `json:"phone"`
		Bio          *string           `json:"bio"`
		Location     *string           `json:"location"`
		SocialLinks  map[string]string `json:"socialLinks"`
		DateOfBirth  *time.Time        `json:"dateOfBirth"`
		ProfileImage *string           `json:"profileImage"`
	}

	caller, _ := middleware.GetUser(c)

	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateOwnProfile(c.Request.Context(), caller, services.UpdateProfileInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		Bio:          req.Bio,
		Location:     req.Location,
		SocialLinks:  req.SocialLinks,
		DateOfBirth:  req.DateOfBirth,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserMessageResponse{
		Message: "Profile updated",
		User:    dto.ToUserDTO(*user),
	})
}

// DeleteOwnProfile removes the caller's account and signups.
func (h *UserHandler) DeleteOwnProfile(c *gin.Context) {
	caller, _ := middleware.GetUser(c)

	if err := h.userService.DeleteOwnProfile(c.Request.Context(), caller); err != nil {
		respondError(c, err)
		return
	}

	clearSession(c)
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "User deleted"})
}

// Register creates a local account and returns a token.
func (h *UserHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		FirstName string `json:"firstName" binding:"required"`
		LastName  string `json:"lastName" binding:"required"`
		Username  string `json:"username" binding:"required"`
		Email     string `json:"email" binding:"required,email"`
		Password  string `json:"password" binding:"required"`
	}

	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, token, err := h.userService.Register(c.Request.Context(), services.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.AuthResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    dto.ToUserDTO(*user),
	})
}

// Login verifies credentials, returns a token and initializes the session.
func (h *UserHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, services.ErrInvalidCredentials)
		return
	}

	user, token, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	if session, ok := defaultSession(c); ok {
		session.Set(constants.SessionKeyExternalID, user.ExternalIdentity())
		if err := session.Save(); err != nil {
			apierrors.InternalError(c, "Failed to save session")
			return
		}
	}

	c.JSON(http.StatusOK, dto.AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    dto.ToLoginUserDTO(*user),
	})
}

// Logout removes the session. Bearer tokens stay valid until they expire.
func (h *UserHandler) Logout(c *gin.Context) {
	if !clearSession(c) {
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Logged out successfully"})
}

// Sync links the verified external identity to a local user, creating one when needed.
func (h *UserHandler) Sync(c *gin.Context) {
	type SyncRequest struct {
		Email     string `json:"email" binding:"omitempty,email"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}

	var req SyncRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	input := services.SyncInput{
		ExternalID: middleware.GetExternalID(c),
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
	}
	if claims, ok := middleware.GetClaims(c); ok {
		if input.Email == "" {
			input.Email = claims.Email
		}
		if input.FirstName == "" {
			input.FirstName = claims.FirstName
		}
		if input.LastName == "" {
			input.LastName = claims.LastName
		}
	}

	user, err := h.userService.SyncExternalIdentity(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserMessageResponse{
		Message: "User synced",
		User:    dto.ToUserDTO(*user),
	})
}

// defaultSession returns the request session when the sessions middleware is installed.
func defaultSession(c *gin.Context) (sessions.Session, bool) {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil, false
	}
	return sessions.Default(c), true
}

func clearSession(c *gin.Context) bool {
	session, ok := defaultSession(c)
	if !ok {
		return true
	}
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		zap.L().Warn("failed to clear session", zap.Error(err))
		return false
	}
	return true
}

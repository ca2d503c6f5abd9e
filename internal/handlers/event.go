package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/event-platform-api/internal/dto"
	apierrors "github.com/yukikurage/event-platform-api/internal/errors"
	"github.com/yukikurage/event-platform-api/internal/middleware"
	"github.com/yukikurage/event-platform-api/internal/services"
	"github.com/yukikurage/event-platform-api/internal/utils"
)

// EventHandler serves the event routes.
type EventHandler struct {
	eventService *services.EventService
	keywords     services.KeywordSuggester
}

// NewEventHandler creates a new EventHandler. keywords may be nil.
func NewEventHandler(eventService *services.EventService, keywords services.KeywordSuggester) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		keywords:     keywords,
	}
}

type organizerContactRequest struct {
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

type eventRequest struct {
	Title            *string                  `json:"title"`
	Description      *string                  `json:"description"`
	Date             *time.Time               `json:"date"`
	Location         *string                  `json:"location"`
	MaxParticipants  *int                     `json:"maxParticipants"`
	Category         *string                  `json:"category"`
	Keywords         *[]string                `json:"keywords"`
	Tags             *[]string                `json:"tags"`
	Image            *string                  `json:"image"`
	EventURL         *string                  `json:"eventURL"`
	Status           *string                  `json:"status"`
	OrganizerContact *organizerContactRequest `json:"organizerContact"`
}

// ListEvents returns a page of events.
// Query: page, limit, category, sortBy, sortOrder
func (h *EventHandler) ListEvents(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	result, err := h.eventService.ListEvents(c.Request.Context(), services.ListEventsInput{
		Page:      params.Page,
		Limit:     params.Limit,
		Category:  c.Query("category"),
		SortBy:    c.DefaultQuery("sortBy", "date"),
		SortOrder: c.DefaultQuery("sortOrder", "asc"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.EventListResponse{
		Events:      dto.ToEventDTOs(result.Events),
		TotalEvents: result.TotalEvents,
		TotalPages:  result.TotalPages,
		CurrentPage: result.CurrentPage,
	})
}

// GetEvent returns a single event.
func (h *EventHandler) GetEvent(c *gin.Context) {
	event, err := h.eventService.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEventDTO(*event))
}

// CreateEvent creates an event owned by the calling admin.
func (h *EventHandler) CreateEvent(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, msgInvalidEventData)
		return
	}

	input := services.CreateEventInput{
		Title:           deref(req.Title),
		Description:     deref(req.Description),
		Date:            req.Date,
		Location:        deref(req.Location),
		MaxParticipants: derefInt(req.MaxParticipants),
		Category:        deref(req.Category),
		Image:           deref(req.Image),
		EventURL:        deref(req.EventURL),
		Status:          deref(req.Status),
	}
	if req.Keywords != nil {
		input.Keywords = *req.Keywords
	}
	if req.Tags != nil {
		input.Tags = *req.Tags
	}
	if req.OrganizerContact != nil {
		input.OrganizerEmail = deref(req.OrganizerContact.Email)
		input.OrganizerPhone = deref(req.OrganizerContact.Phone)
	}

	event, err := h.eventService.CreateEvent(c.Request.Context(), user, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToEventDTO(*event))
}

// UpdateEvent applies a partial update to the event loaded by RequireEventCreatorAdmin.
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	event, ok := middleware.GetEvent(c)
	if !ok {
		apierrors.NotFound(c, "Event not found")
		return
	}

	var req eventRequest
	if !bindJSON(c, &req) {
		return
	}

	input := services.UpdateEventInput{
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date,
		Location:        req.Location,
		MaxParticipants: req.MaxParticipants,
		Category:        req.Category,
		Keywords:        req.Keywords,
		Tags:            req.Tags,
		Image:           req.Image,
		EventURL:        req.EventURL,
		Status:          req.Status,
	}
	if req.OrganizerContact != nil {
		input.OrganizerEmail = req.OrganizerContact.Email
		input.OrganizerPhone = req.OrganizerContact.Phone
	}

	updated, err := h.eventService.UpdateEvent(c.Request.Context(), event, input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEventDTO(*updated))
}

// DeleteEvent removes an event and its signups.
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	if err := h.eventService.DeleteEvent(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Event deleted"})
}

// SignUp adds the caller to the event's participants.
func (h *EventHandler) SignUp(c *gin.Context) {
	user, _ := middleware.GetUser(c)

	event, err := h.eventService.SignUp(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ParticipationResponse{
		Message: "Successfully signed up for event",
		Event:   dto.ToEventSummaryDTO(*event),
	})
}

// UnSignUp removes the caller from the event's participants.
func (h *EventHandler) UnSignUp(c *gin.Context) {
	user, _ := middleware.GetUser(c)

	event, err := h.eventService.UnSignUp(c.Request.Context(), c.Param("id"), user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ParticipationResponse{
		Message: "Successfully removed from event",
		Event:   dto.ToEventSummaryDTO(*event),
	})
}

// SuggestKeywords proposes keywords for a draft event.
func (h *EventHandler) SuggestKeywords(c *gin.Context) {
	type SuggestRequest struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
	}

	var req SuggestRequest
	if !bindJSON(c, &req) {
		return
	}

	if h.keywords == nil {
		respondError(c, services.ErrKeywordsUnavailable)
		return
	}

	keywords, err := h.keywords.SuggestKeywords(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

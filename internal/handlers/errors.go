package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/yukikurage/event-platform-api/internal/errors"
	"github.com/yukikurage/event-platform-api/internal/services"
	"github.com/yukikurage/event-platform-api/internal/utils"
	"go.uber.org/zap"
)

const (
	msgInvalidBody      = "Invalid request body"
	msgInvalidEventData = "Bad request, invalid data."
)

func init() {
	// report JSON field names in validation errors
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return field.Name
			}
			return name
		})
	}
}

// bindJSON binds the request body into obj, responding with a 400 on failure.
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func respondBindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	var typeErr *json.UnmarshalTypeError
	var timeErr *time.ParseError

	switch {
	case errors.As(err, &validationErrs):
		fields := make([]apierrors.FieldError, 0, len(validationErrs))
		for _, fe := range validationErrs {
			fields = append(fields, apierrors.FieldError{
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
		apierrors.ValidationFailed(c, fields)
	case errors.As(err, &typeErr):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", typeErr.Field, typeErr.Value))
	case errors.As(err, &timeErr):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidInput, fmt.Sprintf("Invalid date: %s", strings.Trim(timeErr.Value, `"`)))
	default:
		apierrors.BadRequest(c, msgInvalidBody)
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

// respondError maps service errors to HTTP responses.
func respondError(c *gin.Context, err error) {
	var denied *services.DeniedError

	switch {
	case errors.As(err, &denied):
		apierrors.Forbidden(c, denied.Reason)

	case errors.Is(err, services.ErrEventNotFound):
		apierrors.NotFound(c, "Event not found")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")

	case errors.Is(err, services.ErrInvalidEventData):
		apierrors.BadRequest(c, msgInvalidEventData)
	case errors.Is(err, services.ErrInvalidEventUpdate):
		apierrors.BadRequest(c, "Error updating event")
	case errors.Is(err, services.ErrAlreadySignedUp):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidOperation, "You are already signed up for this event")
	case errors.Is(err, services.ErrNotSignedUp):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidOperation, "You are not signed up for this event")
	case errors.Is(err, services.ErrEventFull):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidOperation, "Event is full")

	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeAlreadyExists, "Username already taken")
	case errors.Is(err, services.ErrEmailInUse):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeAlreadyExists, "Email already in use")
	case errors.Is(err, services.ErrEmailExists):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeAlreadyExists, "User with this email already exists")
	case errors.Is(err, services.ErrWeakPassword):
		apierrors.BadRequest(c, utils.PasswordPolicyMessage)
	case errors.Is(err, services.ErrMissingFields):
		apierrors.BadRequest(c, "All fields are required")
	case errors.Is(err, services.ErrInvalidProfile):
		apierrors.BadRequest(c, "Invalid profile data")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidCredentials, "Invalid credentials")
	case errors.Is(err, services.ErrMissingIdentity):
		apierrors.BadRequest(c, "externalId and email are required")

	case errors.Is(err, services.ErrKeywordsUnavailable):
		apierrors.ServiceUnavailable(c, "Keyword suggestion is not available")

	default:
		zap.L().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		apierrors.InternalError(c, "")
	}
}

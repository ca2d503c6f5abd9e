// Package authz decides whether a caller may perform an action. Decisions are
// pure functions of the caller's role and the event's creator.
package authz

import "github.com/yukikurage/event-platform-api/internal/models"

type Action string

const (
	ActionCreateEvent     Action = "event:create"
	ActionUpdateEvent     Action = "event:update"
	ActionDeleteEvent     Action = "event:delete"
	ActionSuggestKeywords Action = "event:suggest-keywords"
	ActionSignUp          Action = "event:signup"
	ActionUnSignUp        Action = "event:unsignup"
	ActionListUsers       Action = "user:list"
)

// Denial reasons returned to the caller.
const (
	ReasonAdminsOnly    = "Access denied: Admins only"
	ReasonNotCreator    = "Only the admin who created this event can modify it"
	ReasonAdminSignUp   = "Admins cannot sign up for events"
	ReasonUnknownCaller = "User not found"
	ReasonUnknownEvent  = "Event not found"
	ReasonUnknownAction = "Access denied"
)

// Decision is the outcome of Can. Reason is empty when Allowed.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Can reports whether caller may perform action on event. event is only
// consulted for actions on an existing event and may be nil otherwise.
func Can(caller *models.User, action Action, event *models.Event) Decision {
	switch action {
	case ActionCreateEvent, ActionSuggestKeywords, ActionListUsers:
		if !caller.IsAdmin() {
			return deny(ReasonAdminsOnly)
		}
		return allow()

	case ActionUpdateEvent, ActionDeleteEvent:
		if !caller.IsAdmin() {
			return deny(ReasonAdminsOnly)
		}
		if event == nil {
			return deny(ReasonUnknownEvent)
		}
		if event.CreatedBy != caller.ID {
			return deny(ReasonNotCreator)
		}
		return allow()

	case ActionSignUp, ActionUnSignUp:
		if caller == nil {
			return deny(ReasonUnknownCaller)
		}
		if caller.IsAdmin() {
			return deny(ReasonAdminSignUp)
		}
		if event == nil {
			return deny(ReasonUnknownEvent)
		}
		return allow()
	}

	return deny(ReasonUnknownAction)
}

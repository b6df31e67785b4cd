package domain

// UserAction enumerates administrative actions on an account.
type UserAction string

const (
	UserActionActivate   UserAction = "activate"
	UserActionDeactivate UserAction = "deactivate"
	UserActionDelete     UserAction = "delete"
)

// ParseUserAction maps a path segment onto the closed action set.
func ParseUserAction(s string) (UserAction, bool) {
	switch UserAction(s) {
	case UserActionActivate:
		return UserActionActivate, true
	case UserActionDeactivate:
		return UserActionDeactivate, true
	case UserActionDelete:
		return UserActionDelete, true
	default:
		return "", false
	}
}

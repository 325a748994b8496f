// Package session holds the authentication state of the client and the
// pure reducer that transitions it.
package session

// Status is the authentication phase.
type Status string

const (
	StatusChecking         Status = "checking"
	StatusAuthenticated    Status = "authenticated"
	StatusNotAuthenticated Status = "not-authenticated"
)

// User identifies the signed-in account. The zero value means nobody.
type User struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// IsZero reports whether u is the empty user.
func (u User) IsZero() bool { return u.UID == "" && u.Name == "" }

// State is the session slice of the store.
//
// Status is StatusAuthenticated exactly when User.UID is set, and
// ErrorMessage is only ever non-empty outside StatusAuthenticated.
type State struct {
	Status       Status
	User         User
	ErrorMessage string
}

// InitialState is the state before the stored token has been checked.
func InitialState() State {
	return State{Status: StatusChecking}
}

// Action is a session transition. The set is closed.
type Action interface{ sessionAction() }

// OnChecking marks an authentication round-trip in progress.
type OnChecking struct{}

// OnLogin records a confirmed sign-in.
type OnLogin struct{ User User }

// OnLogout drops the user, optionally explaining why.
type OnLogout struct{ ErrorMessage string }

// ClearErrorMessage forgets the last failure message.
type ClearErrorMessage struct{}

func (OnChecking) sessionAction()        {}
func (OnLogin) sessionAction()           {}
func (OnLogout) sessionAction()          {}
func (ClearErrorMessage) sessionAction() {}

// Reduce applies a to s. It is total and performs no I/O.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case OnChecking:
		return State{Status: StatusChecking}
	case OnLogin:
		if act.User.UID == "" {
			return State{Status: StatusNotAuthenticated}
		}
		return State{Status: StatusAuthenticated, User: act.User}
	case OnLogout:
		return State{Status: StatusNotAuthenticated, ErrorMessage: act.ErrorMessage}
	case ClearErrorMessage:
		s.ErrorMessage = ""
		return s
	default:
		return s
	}
}

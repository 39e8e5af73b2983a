package model

import (
	"fmt"
	"time"
)

type SessionState string

const (
	StateLoading       SessionState = "loading"
	StateAuthenticated SessionState = "authenticated"
	StateAnonymous     SessionState = "anonymous"
)

// User is the backend account as seen by the storefront.
type User struct {
	ID               int        `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	Confirmed        bool       `json:"confirmed"`
	Blocked          bool       `json:"blocked"`
	CreatedAt        time.Time  `json:"created_at"`
	PurchasedClasses []ClassRef `json:"purchased_classes"`
}

// Session holds the identity and purchase entitlements for one request.
// A zero Session is in the loading state.
type Session struct {
	state SessionState
	token string
	user  *User
}

func NewSession() *Session {
	return &Session{state: StateLoading}
}

func (s *Session) State() SessionState {
	if s == nil || s.state == "" {
		return StateLoading
	}
	return s.state
}

func (s *Session) Authenticated() bool {
	return s != nil && s.state == StateAuthenticated && s.user != nil
}

func (s *Session) Token() string {
	if !s.Authenticated() {
		return ""
	}
	return s.token
}

func (s *Session) User() *User {
	if !s.Authenticated() {
		return nil
	}
	return s.user
}

func (s *Session) Purchases() []ClassRef {
	if !s.Authenticated() {
		return nil
	}
	return s.user.PurchasedClasses
}

// Authenticate moves the session from loading or anonymous to authenticated.
func (s *Session) Authenticate(token string, user *User) error {
	if user == nil || token == "" {
		return fmt.Errorf("%w: missing token or user", ErrInvalidTransition)
	}

	switch s.State() {
	case StateLoading, StateAnonymous:
		s.state = StateAuthenticated
		s.token = token
		s.user = user
		return nil
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State(), StateAuthenticated)
	}
}

// Anonymize moves the session from loading or authenticated to anonymous,
// dropping the token and user.
func (s *Session) Anonymize() error {
	switch s.State() {
	case StateLoading, StateAuthenticated:
		s.state = StateAnonymous
		s.token = ""
		s.user = nil
		return nil
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.State(), StateAnonymous)
	}
}

type SessionView struct {
	State     SessionState `json:"state"`
	UserID    int          `json:"user_id,omitempty"`
	Username  string       `json:"username,omitempty"`
	Email     string       `json:"email,omitempty"`
	Purchases []ClassRef   `json:"purchases,omitempty"`
}

func (s *Session) View() SessionView {
	view := SessionView{State: s.State()}
	if u := s.User(); u != nil {
		view.UserID = u.ID
		view.Username = u.Username
		view.Email = u.Email
		view.Purchases = u.PurchasedClasses
	}
	return view
}

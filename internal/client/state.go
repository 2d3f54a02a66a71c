package client

import (
	"sync"

	"github.com/erazemk/najdeno/internal/model"
)

// Session is a signed-in user and the bearer token issued to them.
type Session struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// State is everything a front end renders from.
type State struct {
	Session *Session
	Loading bool
	Err     error
	Items   []model.Item
}

// ActionKind names a state transition.
type ActionKind int

const (
	ActionRequest ActionKind = iota
	ActionFailure
	ActionLogin
	ActionLogout
	ActionReport
	ActionSearch
	ActionListAdmin
	ActionListUser
	ActionUpdateStatus
)

var actionNames = [...]string{
	ActionRequest:      "request",
	ActionFailure:      "failure",
	ActionLogin:        "login",
	ActionLogout:       "logout",
	ActionReport:       "report",
	ActionSearch:       "search",
	ActionListAdmin:    "listAdmin",
	ActionListUser:     "listUser",
	ActionUpdateStatus: "updateStatus",
}

func (k ActionKind) String() string {
	if int(k) < len(actionNames) {
		return actionNames[k]
	}
	return "unknown"
}

// Action is one input to Reduce. Only the fields its Kind reads are set.
type Action struct {
	Kind    ActionKind
	Session *Session
	Item    *model.Item
	Items   []model.Item
	Err     error
}

// Reduce returns the state after applying a. It never mutates s.
func Reduce(s State, a Action) State {
	switch a.Kind {
	case ActionRequest:
		s.Loading = true
		s.Err = nil
	case ActionFailure:
		s.Loading = false
		s.Err = a.Err
	case ActionLogin:
		s.Session = a.Session
		s.Loading = false
		s.Err = nil
	case ActionLogout:
		return State{}
	case ActionReport:
		s.Loading = false
		s.Err = nil
		if a.Item != nil {
			items := make([]model.Item, 0, len(s.Items)+1)
			items = append(items, *a.Item)
			s.Items = append(items, s.Items...)
		}
	case ActionSearch, ActionListAdmin, ActionListUser:
		s.Loading = false
		s.Err = nil
		s.Items = append([]model.Item(nil), a.Items...)
	case ActionUpdateStatus:
		s.Loading = false
		s.Err = nil
		if a.Item != nil {
			items := append([]model.Item(nil), s.Items...)
			for i := range items {
				if items[i].ID == a.Item.ID {
					items[i].Status = a.Item.Status
				}
			}
			s.Items = items
		}
	}
	return s
}

// Store holds a State and applies actions to it.
type Store struct {
	mu    sync.Mutex
	state State
}

// Dispatch applies a and returns the resulting state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
	return s.state
}

// State returns the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

package client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/model"
)

// ExpiryCheckInterval is how often WatchExpiry looks at the session token.
const ExpiryCheckInterval = 60 * time.Second

// ErrNoSession is returned by operations that need a signed-in user.
var ErrNoSession = errors.New("not logged in")

// App runs user operations against the API and records their outcome in
// a Store. The expiry checks only tidy up local state; the server decides
// whether a token is valid.
type App struct {
	api    *Client
	store  Store
	logger *slog.Logger
	now    func() time.Time

	// OnExpired runs after an expired session has been cleared.
	OnExpired func()
}

// NewApp returns an App with an empty state.
func NewApp(api *Client, logger *slog.Logger) *App {
	return &App{api: api, logger: logger, now: time.Now}
}

// State returns the current application state.
func (a *App) State() State {
	return a.store.State()
}

// Restore adopts a previously saved session. It reports false, and
// leaves the state signed out, when the token has already expired.
func (a *App) Restore(s *Session) bool {
	if s == nil || s.Token == "" {
		return false
	}
	if auth.Expired(s.Token, a.now()) {
		a.expire()
		return false
	}
	a.store.Dispatch(Action{Kind: ActionLogin, Session: s})
	return true
}

// CheckExpiry clears the session when its token has expired and reports
// whether it did.
func (a *App) CheckExpiry() bool {
	s := a.store.State().Session
	if s == nil || !auth.Expired(s.Token, a.now()) {
		return false
	}
	a.expire()
	return true
}

// WatchExpiry calls CheckExpiry every interval until ctx is done. It is
// meant for long-lived front ends; one-shot callers rely on Restore.
func (a *App) WatchExpiry(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.CheckExpiry()
		}
	}
}

func (a *App) expire() {
	a.logger.Info("session expired")
	a.store.Dispatch(Action{Kind: ActionLogout})
	if a.OnExpired != nil {
		a.OnExpired()
	}
}

func (a *App) token() string {
	if s := a.store.State().Session; s != nil {
		return s.Token
	}
	return ""
}

// run dispatches a request, then either the action built by fn or a
// failure carrying its error.
func (a *App) run(fn func() (Action, error)) error {
	a.store.Dispatch(Action{Kind: ActionRequest})
	action, err := fn()
	if err != nil {
		a.store.Dispatch(Action{Kind: ActionFailure, Err: err})
		return err
	}
	a.store.Dispatch(action)
	return nil
}

// Signup registers an account and signs it in.
func (a *App) Signup(ctx context.Context, name, email, password string) error {
	return a.run(func() (Action, error) {
		s, err := a.api.Signup(ctx, name, email, password)
		return Action{Kind: ActionLogin, Session: s}, err
	})
}

// Login signs in with email and password.
func (a *App) Login(ctx context.Context, email, password string) error {
	return a.run(func() (Action, error) {
		s, err := a.api.Login(ctx, email, password)
		return Action{Kind: ActionLogin, Session: s}, err
	})
}

// Logout forgets the session. The token itself stays valid until it
// expires.
func (a *App) Logout() {
	a.store.Dispatch(Action{Kind: ActionLogout})
}

// Search replaces the item list with the matches for q.
func (a *App) Search(ctx context.Context, q Query) error {
	return a.run(func() (Action, error) {
		items, err := a.api.Search(ctx, q)
		return Action{Kind: ActionSearch, Items: items}, err
	})
}

// Report files r, anonymously when signed out, and prepends the new item
// to the list.
func (a *App) Report(ctx context.Context, r Report) (*model.Item, error) {
	var item *model.Item
	err := a.run(func() (Action, error) {
		var err error
		item, err = a.api.Report(ctx, a.token(), r)
		return Action{Kind: ActionReport, Item: item}, err
	})
	return item, err
}

// ListUser replaces the item list with the signed-in user's reports.
func (a *App) ListUser(ctx context.Context) error {
	return a.run(func() (Action, error) {
		items, err := a.api.ListUser(ctx, a.token())
		return Action{Kind: ActionListUser, Items: items}, err
	})
}

// ListAdmin replaces the item list with every item.
func (a *App) ListAdmin(ctx context.Context) error {
	return a.run(func() (Action, error) {
		items, err := a.api.ListAdmin(ctx, a.token())
		return Action{Kind: ActionListAdmin, Items: items}, err
	})
}

// UpdateStatus changes the status of an item and patches it in the list.
func (a *App) UpdateStatus(ctx context.Context, itemID, status string) error {
	return a.run(func() (Action, error) {
		item, err := a.api.UpdateStatus(ctx, a.token(), itemID, status)
		return Action{Kind: ActionUpdateStatus, Item: item}, err
	})
}

// History returns the status changes of an item. It does not touch the
// item list.
func (a *App) History(ctx context.Context, itemID string) ([]model.StatusChange, error) {
	changes, err := a.api.History(ctx, a.token(), itemID)
	if err != nil {
		a.store.Dispatch(Action{Kind: ActionFailure, Err: err})
		return nil, err
	}
	return changes, nil
}

// WhoAmI asks the server who the session belongs to. A token the server
// rejects clears the session.
func (a *App) WhoAmI(ctx context.Context) (*model.User, error) {
	token := a.token()
	if token == "" {
		return nil, ErrNoSession
	}
	user, err := a.api.Me(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		a.expire()
		return nil, ErrNoSession
	}
	return user, nil
}

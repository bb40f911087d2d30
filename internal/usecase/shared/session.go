package shared

import (
	"context"
	"fmt"

	"github.com/runoshun/taskflow/internal/domain"
)

// CurrentSession returns the stored session and domain.ErrNotLoggedIn if there is none.
// This centralizes the common pattern of:
//
//	var s domain.Session
//	ok, err := kv.Get(domain.SessionKey, &s)
//	if err != nil { return fmt.Errorf("load session: %w", err) }
//	if !ok { return domain.ErrNotLoggedIn }
func CurrentSession(kv domain.KeyValueStore) (*domain.Session, error) {
	var s domain.Session
	ok, err := kv.Get(domain.SessionKey, &s)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok || s.Token == "" {
		return nil, domain.ErrNotLoggedIn
	}
	return &s, nil
}

// CurrentUser returns the user of the stored session.
func CurrentUser(kv domain.KeyValueStore) (domain.User, error) {
	s, err := CurrentSession(kv)
	if err != nil {
		return domain.User{}, err
	}
	return s.User, nil
}

// ResolveAssignee looks up the user ID of an assignee name in the directory.
func ResolveAssignee(ctx context.Context, users domain.UserDirectory, name string) (int, error) {
	list, err := users.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	u, ok := domain.FindUserByName(list, name)
	if !ok {
		return 0, fmt.Errorf("%q: %w", name, domain.ErrUserNotFound)
	}
	return u.ID, nil
}

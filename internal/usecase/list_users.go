package usecase

import (
	"context"
	"fmt"

	"github.com/runoshun/taskflow/internal/domain"
)

// ListUsersInput is empty.
type ListUsersInput struct{}

// ListUsersOutput contains the user directory.
type ListUsersOutput struct {
	Users []domain.User
}

// ListUsers is the use case for listing assignable users.
type ListUsers struct {
	users domain.UserDirectory
}

// NewListUsers creates a new ListUsers use case.
func NewListUsers(users domain.UserDirectory) *ListUsers {
	return &ListUsers{users: users}
}

// Execute returns the user directory.
func (uc *ListUsers) Execute(ctx context.Context, _ ListUsersInput) (*ListUsersOutput, error) {
	users, err := uc.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &ListUsersOutput{Users: users}, nil
}

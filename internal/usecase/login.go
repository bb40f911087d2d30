package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/runoshun/taskflow/internal/domain"
)

// LoginInput contains the credentials.
type LoginInput struct {
	Email    string
	Password string
}

// LoginOutput contains the logged-in user.
type LoginOutput struct {
	User domain.User
}

// Login is the use case for authenticating and storing the session.
type Login struct {
	auth   domain.Authenticator
	kv     domain.KeyValueStore
	logger domain.Logger
}

// NewLogin creates a new Login use case.
func NewLogin(auth domain.Authenticator, kv domain.KeyValueStore, logger domain.Logger) *Login {
	return &Login{
		auth:   auth,
		kv:     kv,
		logger: logger,
	}
}

// Execute exchanges the credentials for a session and stores it.
func (uc *Login) Execute(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, &domain.ValidationError{Field: "email", Message: "Email is required"}
	}
	if in.Password == "" {
		return nil, &domain.ValidationError{Field: "password", Message: "Password is required"}
	}

	session, err := uc.auth.Login(ctx, in.Email, in.Password)
	if err != nil {
		uc.logger.Warn(0, "auth", fmt.Sprintf("login failed for %s: %v", in.Email, err))
		return nil, fmt.Errorf("login: %w", err)
	}
	if err := uc.kv.Put(domain.SessionKey, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	uc.logger.Info(0, "auth", fmt.Sprintf("logged in as %s", session.User.Name))
	return &LoginOutput{User: session.User}, nil
}

// SignupInput contains the registration details.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// Signup is the use case for registering a user and storing its session.
type Signup struct {
	auth   domain.Authenticator
	kv     domain.KeyValueStore
	logger domain.Logger
}

// NewSignup creates a new Signup use case.
func NewSignup(auth domain.Authenticator, kv domain.KeyValueStore, logger domain.Logger) *Signup {
	return &Signup{
		auth:   auth,
		kv:     kv,
		logger: logger,
	}
}

// Execute registers the user and logs it in.
func (uc *Signup) Execute(ctx context.Context, in SignupInput) (*LoginOutput, error) {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, &domain.ValidationError{Field: "name", Message: "Name is required"}
	case !strings.Contains(in.Email, "@"):
		return nil, &domain.ValidationError{Field: "email", Message: "A valid email is required"}
	case len(in.Password) < minPasswordLength:
		return nil, &domain.ValidationError{Field: "password", Message: fmt.Sprintf("Password must be at least %d characters", minPasswordLength)}
	}

	session, err := uc.auth.Signup(ctx, strings.TrimSpace(in.Name), strings.TrimSpace(in.Email), in.Password)
	if err != nil {
		uc.logger.Warn(0, "auth", fmt.Sprintf("signup failed for %s: %v", in.Email, err))
		return nil, fmt.Errorf("signup: %w", err)
	}
	if err := uc.kv.Put(domain.SessionKey, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	uc.logger.Info(0, "auth", fmt.Sprintf("signed up as %s", session.User.Name))
	return &LoginOutput{User: session.User}, nil
}

const minPasswordLength = 8

// LogoutInput is empty.
type LogoutInput struct{}

// LogoutOutput is empty.
type LogoutOutput struct{}

// Logout is the use case for clearing the stored session.
type Logout struct {
	kv domain.KeyValueStore
}

// NewLogout creates a new Logout use case.
func NewLogout(kv domain.KeyValueStore) *Logout {
	return &Logout{kv: kv}
}

// Execute removes the session. Logging out twice is not an error.
func (uc *Logout) Execute(_ context.Context, _ LogoutInput) (*LogoutOutput, error) {
	if err := uc.kv.Delete(domain.SessionKey); err != nil {
		return nil, fmt.Errorf("clear session: %w", err)
	}
	return &LogoutOutput{}, nil
}

package auth

import (
	"context"

	"github.com/georgemunganga/shopfront-api/internal/modules/user"
)

// Service defines the interface for authentication-related business logic.
type Service interface {
	Register(ctx context.Context, req user.RegisterRequest) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	ChangePassword(ctx context.Context, u *user.User, current, next string) error
	Roles(ctx context.Context) ([]user.Role, error)
}

// Session is an authenticated user together with a freshly issued token.
type Session struct {
	User  *user.User `json:"user"`
	Token string     `json:"token"`
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/georgemunganga/shopfront-api/internal/apperr"
	"github.com/georgemunganga/shopfront-api/internal/modules/user"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthenticated, "invalid_credentials", "invalid credentials")
	ErrWrongPassword      = apperr.New(apperr.KindValidation, "wrong_password", "current password is incorrect")
)

type service struct {
	users    user.Service
	userRepo user.Repository
	hasher   *user.Hasher
	tokens   *TokenIssuer
}

// NewService creates a new auth service.
func NewService(users user.Service, userRepo user.Repository, hasher *user.Hasher, tokens *TokenIssuer) Service {
	return &service{users: users, userRepo: userRepo, hasher: hasher, tokens: tokens}
}

func (s *service) Register(ctx context.Context, req user.RegisterRequest) (*Session, error) {
	u, err := s.users.RegisterUser(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and PasswoRDkey are required")
	}
	u, err := s.userRepo.GetUserByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		s.hasher.RejectUnknown(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.hasher.CheckPassword(u, password) {
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

func (s *service) ChangePassword(ctx context.Context, u *user.User, current, next string) error {
	if current == "" || next == "" {
		return apperr.Validation("current_password and new_password are required")
	}
	if !s.hasher.CheckPassword(u, current) {
		return ErrWrongPassword
	}
	updated := *u
	if err := s.hasher.SetPassword(&updated, next); err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return apperr.Validation("password must be at most 72 bytes")
		}
		return fmt.Errorf("hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, u.ID, updated.PasswordHash)
}

func (s *service) Roles(ctx context.Context) ([]user.Role, error) {
	return s.users.ListRoles(ctx)
}

func (s *service) session(u *user.User) (*Session, error) {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token}, nil
}

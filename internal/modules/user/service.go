package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/georgemunganga/shopfront-api/internal/apperr"
	"golang.org/x/crypto/bcrypt"
)

// Service defines the interface for user-related business logic.
type Service interface {
	RegisterUser(ctx context.Context, req RegisterRequest) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	UpdateProfile(ctx context.Context, id int64, req UpdateProfileRequest) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	// SearchUsers returns at most searchLimit users whose name or email contains q.
	// A blank q matches nobody.
	SearchUsers(ctx context.Context, q string) ([]*User, error)
	ListRoles(ctx context.Context) ([]Role, error)
	UpdateRoles(ctx context.Context, id int64, roleIDs []int64) (*User, error)
	// DeleteUser removes id on behalf of actorID. Self-deletion and users owning sales are refused.
	DeleteUser(ctx context.Context, actorID, id int64) error
	Stats(ctx context.Context) (*Stats, error)
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name     string `json:"UserName"`
	Email    string `json:"Email"`
	Password string `json:"PasswoRDkey"`
	CityID   *int64 `json:"iD_City,omitempty"`
}

// UpdateProfileRequest carries optional profile changes; nil fields are left alone.
type UpdateProfileRequest struct {
	Name   *string `json:"UserName"`
	Email  *string `json:"Email"`
	CityID *int64  `json:"iD_City"`
}

var (
	ErrSelfDelete = apperr.BusinessRule("self_delete", "you cannot delete your own account")
	ErrHasSales   = apperr.BusinessRule("user_has_sales", "cannot delete a user with associated sales")
)

const searchLimit = 20

type service struct {
	repo        Repository
	hasher      *Hasher
	defaultRole string
}

// NewService creates a new user service. defaultRole is attached to every new
// account when a role with that name exists.
func NewService(repo Repository, hasher *Hasher, defaultRole string) Service {
	return &service{repo: repo, hasher: hasher, defaultRole: defaultRole}
}

func (s *service) RegisterUser(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	switch {
	case req.Name == "":
		return nil, apperr.Validation("UserName is required")
	case req.Email == "":
		return nil, apperr.Validation("Email is required")
	case req.Password == "":
		return nil, apperr.Validation("PasswoRDkey is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, apperr.Validation("Email is not a valid address")
	}

	taken, err := s.repo.EmailInUse(ctx, req.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	u := &User{Name: req.Name, Email: req.Email, CityID: req.CityID}
	if err := s.setPassword(u, req.Password); err != nil {
		return nil, err
	}
	if err := s.repo.CreateUser(ctx, u, s.defaultRole); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id int64, req UpdateProfileRequest) (*User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("UserName cannot be empty")
		}
		u.Name = name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperr.Validation("Email is not a valid address")
		}
		if email != u.Email {
			taken, err := s.repo.EmailInUse(ctx, email, u.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrEmailTaken
			}
			u.Email = email
		}
	}
	if req.CityID != nil {
		u.CityID = req.CityID
	}
	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *service) SearchUsers(ctx context.Context, q string) ([]*User, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []*User{}, nil
	}
	return s.repo.SearchUsers(ctx, q, searchLimit)
}

func (s *service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

func (s *service) UpdateRoles(ctx context.Context, id int64, roleIDs []int64) (*User, error) {
	if roleIDs == nil {
		return nil, apperr.Validation("role_ids is required")
	}
	if _, err := s.repo.GetUserByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceRoles(ctx, id, roleIDs); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) DeleteUser(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return ErrSelfDelete
	}
	if _, err := s.repo.GetUserByID(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountSales(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrHasSales
	}
	return s.repo.DeleteUser(ctx, id)
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

func (s *service) setPassword(u *User, plaintext string) error {
	if err := s.hasher.SetPassword(u, plaintext); err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return apperr.Validation("password must be at most 72 bytes")
		}
		return fmt.Errorf("hash password: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

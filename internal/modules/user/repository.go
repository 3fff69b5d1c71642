package user

import (
	"context"

	"github.com/georgemunganga/shopfront-api/internal/apperr"
)

var (
	ErrNotFound   = apperr.NotFound("user not found")
	ErrEmailTaken = apperr.New(apperr.KindConflict, "email_taken", "email is already registered")

	errUnknownCity = apperr.New(apperr.KindNotFound, "city_not_found", "city not found")
)

// Repository defines the interface for user and role data storage.
type Repository interface {
	// CreateUser inserts u and links the role named defaultRole when it exists.
	CreateUser(ctx context.Context, u *User, defaultRole string) error
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	EmailInUse(ctx context.Context, email string, exceptID int64) (bool, error)
	UpdateProfile(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	ListUsers(ctx context.Context) ([]*User, error)
	// SearchUsers matches q as a case-insensitive substring of name or email.
	SearchUsers(ctx context.Context, q string, limit int) ([]*User, error)
	DeleteUser(ctx context.Context, id int64) error
	CountSales(ctx context.Context, id int64) (int, error)

	ListRoles(ctx context.Context) ([]Role, error)
	// ReplaceRoles swaps the user's role set; ids that match no role are ignored.
	ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error

	Stats(ctx context.Context) (*Stats, error)
}

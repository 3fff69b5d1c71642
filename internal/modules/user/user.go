package user

import (
	"context"
	"time"
)

// User represents a registered account.
// @Description User information
// @Description with iD_User, UserName, Email, iD_City, city and roles
type User struct {
	ID           int64     `json:"iD_User"`
	Name         string    `json:"UserName"`
	Email        string    `json:"Email"`
	PasswordHash string    `json:"-"`
	CityID       *int64    `json:"iD_City"`
	City         *City     `json:"city"`
	Roles        []Role    `json:"roles,omitempty"`
	CreatedAt    time.Time `json:"-"`
}

// Role is a named permission tier such as "Administrator" or "Customer".
type Role struct {
	ID   int64  `json:"iDRole"`
	Name string `json:"TypeRole"`
}

// City is the location summary embedded in a user.
type City struct {
	ID      int64  `json:"iD_City"`
	Name    string `json:"CityName"`
	StateID int64  `json:"iD_States"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// HasRole reports whether the user holds a role with exactly this name.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying the authenticated user.
func NewContext(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the authenticated user stored by NewContext.
func FromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*User)
	return u, ok && u != nil
}

// RoleCount is one row of the role distribution in Stats.
type RoleCount struct {
	Role      Role `json:"role"`
	UserCount int  `json:"user_count"`
}

// Buyer is a user together with the number of sales they own.
type Buyer struct {
	User
	SalesCount int `json:"sales_count"`
}

// Stats summarises the user base for administrators.
type Stats struct {
	TotalUsers        int         `json:"total_users"`
	RolesDistribution []RoleCount `json:"roles_distribution"`
	TopBuyers         []Buyer     `json:"top_buyers"`
}

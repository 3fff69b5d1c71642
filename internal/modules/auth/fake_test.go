package auth

import (
	"context"

	"github.com/georgemunganga/shopfront-api/internal/modules/user"
)

// fakeUsers is an in-memory user.Repository.
type fakeUsers struct {
	users  map[int64]*user.User
	nextID int64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[int64]*user.User{}}
}

func (f *fakeUsers) add(u *user.User) *user.User {
	f.nextID++
	u.ID = f.nextID
	f.users[u.ID] = u
	return u
}

func (f *fakeUsers) CreateUser(_ context.Context, u *user.User, defaultRole string) error {
	u.Roles = []user.Role{{ID: 2, Name: defaultRole}}
	cp := *u
	f.add(&cp)
	u.ID = cp.ID
	return nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id int64) (*user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, user.ErrNotFound
}

func (f *fakeUsers) EmailInUse(_ context.Context, email string, exceptID int64) (bool, error) {
	for _, u := range f.users {
		if u.Email == email && u.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) UpdateProfile(context.Context, *user.User) error { return nil }

func (f *fakeUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	u, ok := f.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsers) ListUsers(context.Context) ([]*user.User, error)                { return nil, nil }
func (f *fakeUsers) SearchUsers(context.Context, string, int) ([]*user.User, error) { return nil, nil }
func (f *fakeUsers) DeleteUser(context.Context, int64) error                        { return nil }
func (f *fakeUsers) CountSales(context.Context, int64) (int, error)                 { return 0, nil }
func (f *fakeUsers) ReplaceRoles(context.Context, int64, []int64) error             { return nil }
func (f *fakeUsers) Stats(context.Context) (*user.Stats, error)                     { return &user.Stats{}, nil }

func (f *fakeUsers) ListRoles(context.Context) ([]user.Role, error) {
	return []user.Role{{ID: 1, Name: "Administrator"}, {ID: 2, Name: "Customer"}}, nil
}

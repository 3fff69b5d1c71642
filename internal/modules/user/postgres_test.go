package user

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{
	"id", "name", "email", "password_hash", "city_id", "created_at",
	"city_id", "city_name", "state_id", "state_name", "country_name",
}

func TestCreateUserLinksDefaultRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (name, email, password_hash, city_id)`)).
		WithArgs("Ana", "ana@x.com", "hash", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM roles WHERE name = $1`)).
		WithArgs("Customer").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(2, "Customer"))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`)).
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u := &User{Name: "Ana", Email: "ana@x.com", PasswordHash: "hash"}
	require.NoError(t, repo.CreateUser(context.Background(), u, "Customer"))

	assert.Equal(t, int64(1), u.ID)
	assert.True(t, u.HasRole("Customer"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserWithoutMatchingRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(4, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name FROM roles WHERE name = $1`)).
		WithArgs("Customer").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))
	mock.ExpectCommit()

	u := &User{Name: "Ana", Email: "ana@x.com", PasswordHash: "hash"}
	require.NoError(t, repo.CreateUser(context.Background(), u, "Customer"))
	assert.Empty(t, u.Roles)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmailRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err = repo.CreateUser(context.Background(), &User{Name: "Ana", Email: "ana@x.com"}, "Customer")
	assert.ErrorIs(t, err, ErrEmailTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByIDLoadsRolesAndCity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE u.id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(7, "Ana", "ana@x.com", "hash", 3, time.Now(), 3, "Quito", 2, "Pichincha", "Ecuador"))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE ur.user_id = $1`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Administrator"))

	u, err := repo.GetUserByID(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, "Ana", u.Name)
	require.NotNil(t, u.City)
	assert.Equal(t, "Quito", u.City.Name)
	assert.Equal(t, "Ecuador", u.City.Country)
	assert.True(t, u.HasRole("Administrator"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE u.id = $1`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err = repo.GetUserByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceRolesRunsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_roles WHERE user_id = $1`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_roles (user_id, role_id)`)).
		WithArgs(int64(5), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.ReplaceRoles(context.Background(), 5, []int64{1, 2}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchUsersAttachesRoles(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE u.name ILIKE $1 OR u.email ILIKE $1`)).
		WithArgs("%lopez%", 20).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(3, "Ana Lopez", "ana@x.com", "hash", nil, time.Now(), nil, nil, nil, nil, nil).
			AddRow(5, "Bo", "bo@lopez.org", "hash", nil, time.Now(), nil, nil, nil, nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE ur.user_id = ANY($1)`)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "id", "name"}).
			AddRow(3, 1, "Administrator").
			AddRow(5, 2, "Customer"))

	users, err := repo.SearchUsers(context.Background(), "lopez", 20)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.True(t, users[0].HasRole("Administrator"))
	assert.True(t, users[1].HasRole("Customer"))
	assert.Nil(t, users[1].City)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchUsersNoMatchSkipsRoleQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`ILIKE`)).
		WithArgs("%zz%", 20).
		WillReturnRows(sqlmock.NewRows(userColumns))

	users, err := repo.SearchUsers(context.Background(), "zz", 20)
	require.NoError(t, err)
	assert.Empty(t, users)
	require.NoError(t, mock.ExpectationsWereMet())
}

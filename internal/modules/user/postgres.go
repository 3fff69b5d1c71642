package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/georgemunganga/shopfront-api/internal/database"
	"github.com/lib/pq"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

const selectUser = `
	SELECT u.id, u.name, u.email, u.password_hash, u.city_id, u.created_at,
	       c.id, c.name, c.state_id, s.name, co.name
	FROM users u
	LEFT JOIN cities c ON c.id = u.city_id
	LEFT JOIN states s ON s.id = c.state_id
	LEFT JOIN countries co ON co.id = s.country_id`

func (r *postgresRepository) CreateUser(ctx context.Context, u *User, defaultRole string) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (name, email, password_hash, city_id)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			u.Name, u.Email, u.PasswordHash, u.CityID,
		).Scan(&u.ID, &u.CreatedAt)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return ErrEmailTaken
			}
			if database.IsForeignKeyViolation(err) {
				return errUnknownCity
			}
			return fmt.Errorf("insert user: %w", err)
		}

		if defaultRole == "" {
			return nil
		}
		var role Role
		err = tx.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE name = $1`, defaultRole).
			Scan(&role.ID, &role.Name)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("lookup role %q: %w", defaultRole, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)`, u.ID, role.ID); err != nil {
			return fmt.Errorf("assign role: %w", err)
		}
		u.Roles = []Role{role}
		return nil
	})
}

func (r *postgresRepository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE u.id = $1`, id))
	if err != nil {
		return nil, err
	}
	u.Roles, err = r.rolesOf(ctx, u.ID)
	return u, err
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE u.email = $1`, email))
	if err != nil {
		return nil, err
	}
	u.Roles, err = r.rolesOf(ctx, u.ID)
	return u, err
}

func (r *postgresRepository) EmailInUse(ctx context.Context, email string, exceptID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`, email, exceptID).
		Scan(&exists)
	return exists, err
}

func (r *postgresRepository) UpdateProfile(ctx context.Context, u *User) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = $1, email = $2, city_id = $3 WHERE id = $4`,
		u.Name, u.Email, u.CityID, u.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: iD_City %d", errUnknownCity, *u.CityID)
		}
		return err
	}
	return expectOne(res)
}

func (r *postgresRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *postgresRepository) ListUsers(ctx context.Context) ([]*User, error) {
	return r.queryUsers(ctx, selectUser+` ORDER BY u.id`)
}

func (r *postgresRepository) SearchUsers(ctx context.Context, q string, limit int) ([]*User, error) {
	return r.queryUsers(ctx, selectUser+`
		WHERE u.name ILIKE $1 OR u.email ILIKE $1
		ORDER BY u.id
		LIMIT $2`, "%"+q+"%", limit)
}

func (r *postgresRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *postgresRepository) CountSales(ctx context.Context, id int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales WHERE user_id = $1`, id).Scan(&n)
	return n, err
}

func (r *postgresRepository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []Role{}
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *postgresRepository) ReplaceRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear roles: %w", err)
		}
		if len(roleIDs) == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			SELECT $1, id FROM roles WHERE id = ANY($2)`,
			userID, pq.Array(roleIDs)); err != nil {
			return fmt.Errorf("assign roles: %w", err)
		}
		return nil
	})
}

func (r *postgresRepository) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{RolesDistribution: []RoleCount{}, TopBuyers: []Buyer{}}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&st.TotalUsers); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.name, COUNT(ur.user_id)
		FROM roles r
		LEFT JOIN user_roles ur ON ur.role_id = r.id
		GROUP BY r.id, r.name
		ORDER BY r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rc RoleCount
		if err := rows.Scan(&rc.Role.ID, &rc.Role.Name, &rc.UserCount); err != nil {
			return nil, err
		}
		st.RolesDistribution = append(st.RolesDistribution, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	buyers, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.email, u.city_id, COUNT(s.id) AS sales_count
		FROM users u
		JOIN sales s ON s.user_id = u.id
		GROUP BY u.id, u.name, u.email, u.city_id
		ORDER BY sales_count DESC, u.id
		LIMIT 5`)
	if err != nil {
		return nil, err
	}
	defer buyers.Close()
	for buyers.Next() {
		var b Buyer
		var cityID sql.NullInt64
		if err := buyers.Scan(&b.ID, &b.Name, &b.Email, &cityID, &b.SalesCount); err != nil {
			return nil, err
		}
		if cityID.Valid {
			b.CityID = &cityID.Int64
		}
		st.TopBuyers = append(st.TopBuyers, b)
	}
	return st, buyers.Err()
}

// ── helpers ──────────────────────────────────────────────────────────────────

// queryUsers runs a selectUser query and attaches every user's roles with one more query.
func (r *postgresRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	byID := map[int64]*User{}
	ids := []int64{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return users, nil
	}

	roleRows, err := r.db.QueryContext(ctx, `
		SELECT ur.user_id, r.id, r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = ANY($1)
		ORDER BY ur.user_id, r.id`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer roleRows.Close()
	for roleRows.Next() {
		var userID int64
		var role Role
		if err := roleRows.Scan(&userID, &role.ID, &role.Name); err != nil {
			return nil, err
		}
		if u, ok := byID[userID]; ok {
			u.Roles = append(u.Roles, role)
		}
	}
	return users, roleRows.Err()
}

func (r *postgresRepository) rolesOf(ctx context.Context, userID int64) ([]Role, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.name
		FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = $1
		ORDER BY r.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*User, error) {
	u := &User{}
	var (
		cityID                      sql.NullInt64
		cID, stateID                sql.NullInt64
		cityName, stateName, ctName sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &cityID, &u.CreatedAt,
		&cID, &cityName, &stateID, &stateName, &ctName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if cityID.Valid {
		u.CityID = &cityID.Int64
	}
	if cID.Valid {
		u.City = &City{
			ID:      cID.Int64,
			Name:    cityName.String,
			StateID: stateID.Int64,
			State:   stateName.String,
			Country: ctName.String,
		}
	}
	return u, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

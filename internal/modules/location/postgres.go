package location

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/georgemunganga/shopfront-api/internal/database"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL location repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const (
	selectState = `
		SELECT s.id, s.name, s.country_id, co.name
		FROM states s
		JOIN countries co ON co.id = s.country_id`

	selectCity = `
		SELECT c.id, c.name, c.state_id, s.name, co.name
		FROM cities c
		JOIN states s ON s.id = c.state_id
		JOIN countries co ON co.id = s.country_id`
)

func (r *postgresRepo) ListCountries(ctx context.Context) ([]Country, error) {
	return r.queryCountries(ctx, `SELECT id, name FROM countries ORDER BY name`)
}

func (r *postgresRepo) GetCountry(ctx context.Context, id int64) (*Country, error) {
	c := &Country{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM countries WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCountryNotFound
	}
	return c, err
}

func (r *postgresRepo) CreateCountry(ctx context.Context, c *Country) error {
	err := r.db.QueryRowContext(ctx, `INSERT INTO countries (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	if database.IsUniqueViolation(err) {
		return ErrCountryExists
	}
	return err
}

func (r *postgresRepo) ListStates(ctx context.Context, countryID int64) ([]State, error) {
	if countryID > 0 {
		return r.queryStates(ctx, selectState+` WHERE s.country_id = $1 ORDER BY s.name`, countryID)
	}
	return r.queryStates(ctx, selectState+` ORDER BY s.name`)
}

func (r *postgresRepo) GetState(ctx context.Context, id int64) (*State, error) {
	states, err := r.queryStates(ctx, selectState+` WHERE s.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, ErrStateNotFound
	}
	return &states[0], nil
}

func (r *postgresRepo) CreateState(ctx context.Context, s *State) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO states (name, country_id) VALUES ($1, $2) RETURNING id`, s.Name, s.CountryID).Scan(&s.ID)
	switch {
	case database.IsUniqueViolation(err):
		return ErrStateExists
	case database.IsForeignKeyViolation(err):
		return ErrCountryNotFound
	}
	return err
}

func (r *postgresRepo) ListCities(ctx context.Context, f CityFilter) ([]City, error) {
	switch {
	case f.StateID > 0:
		return r.queryCities(ctx, selectCity+` WHERE c.state_id = $1 ORDER BY c.name`, f.StateID)
	case f.CountryID > 0:
		return r.queryCities(ctx, selectCity+` WHERE s.country_id = $1 ORDER BY c.name`, f.CountryID)
	}
	return r.queryCities(ctx, selectCity+` ORDER BY c.name`)
}

func (r *postgresRepo) GetCity(ctx context.Context, id int64) (*City, error) {
	cities, err := r.queryCities(ctx, selectCity+` WHERE c.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(cities) == 0 {
		return nil, ErrCityNotFound
	}
	return &cities[0], nil
}

func (r *postgresRepo) CreateCity(ctx context.Context, c *City) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO cities (name, state_id) VALUES ($1, $2) RETURNING id`, c.Name, c.StateID).Scan(&c.ID)
	switch {
	case database.IsUniqueViolation(err):
		return ErrCityExists
	case database.IsForeignKeyViolation(err):
		return ErrStateNotFound
	}
	return err
}

func (r *postgresRepo) SearchCountries(ctx context.Context, q string, limit int) ([]Country, error) {
	return r.queryCountries(ctx,
		`SELECT id, name FROM countries WHERE name ILIKE $1 ORDER BY name LIMIT $2`, like(q), limit)
}

func (r *postgresRepo) SearchStates(ctx context.Context, q string, limit int) ([]State, error) {
	return r.queryStates(ctx, selectState+` WHERE s.name ILIKE $1 ORDER BY s.name LIMIT $2`, like(q), limit)
}

func (r *postgresRepo) SearchCities(ctx context.Context, q string, limit int) ([]City, error) {
	return r.queryCities(ctx, selectCity+` WHERE c.name ILIKE $1 ORDER BY c.name LIMIT $2`, like(q), limit)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func like(q string) string { return "%" + q + "%" }

func (r *postgresRepo) queryCountries(ctx context.Context, query string, args ...interface{}) ([]Country, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	defer rows.Close()

	countries := []Country{}
	for rows.Next() {
		var c Country
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

func (r *postgresRepo) queryStates(ctx context.Context, query string, args ...interface{}) ([]State, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query states: %w", err)
	}
	defer rows.Close()

	states := []State{}
	for rows.Next() {
		var s State
		if err := rows.Scan(&s.ID, &s.Name, &s.CountryID, &s.Country); err != nil {
			return nil, err
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

func (r *postgresRepo) queryCities(ctx context.Context, query string, args ...interface{}) ([]City, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	cities := []City{}
	for rows.Next() {
		var c City
		if err := rows.Scan(&c.ID, &c.Name, &c.StateID, &c.State, &c.Country); err != nil {
			return nil, err
		}
		cities = append(cities, c)
	}
	return cities, rows.Err()
}

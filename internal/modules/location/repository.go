package location

import (
	"context"

	"github.com/georgemunganga/shopfront-api/internal/apperr"
)

var (
	ErrCountryNotFound = apperr.New(apperr.KindNotFound, "country_not_found", "country not found")
	ErrStateNotFound   = apperr.New(apperr.KindNotFound, "state_not_found", "state not found")
	ErrCityNotFound    = apperr.New(apperr.KindNotFound, "city_not_found", "city not found")
	ErrCountryExists   = apperr.New(apperr.KindConflict, "country_exists", "country already exists")
	ErrStateExists     = apperr.New(apperr.KindConflict, "state_exists", "state already exists in this country")
	ErrCityExists      = apperr.New(apperr.KindConflict, "city_exists", "city already exists in this state")
)

// Repository defines the interface for location storage.
type Repository interface {
	ListCountries(ctx context.Context) ([]Country, error)
	GetCountry(ctx context.Context, id int64) (*Country, error)
	CreateCountry(ctx context.Context, c *Country) error

	// ListStates lists every state, or only those of countryID when it is non-zero.
	ListStates(ctx context.Context, countryID int64) ([]State, error)
	GetState(ctx context.Context, id int64) (*State, error)
	CreateState(ctx context.Context, s *State) error

	ListCities(ctx context.Context, f CityFilter) ([]City, error)
	GetCity(ctx context.Context, id int64) (*City, error)
	CreateCity(ctx context.Context, c *City) error

	SearchCountries(ctx context.Context, q string, limit int) ([]Country, error)
	SearchStates(ctx context.Context, q string, limit int) ([]State, error)
	SearchCities(ctx context.Context, q string, limit int) ([]City, error)
}

package location

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/georgemunganga/shopfront-api/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory Repository.
type memRepo struct {
	countries []Country
	states    []State
	cities    []City
	nextID    int64
}

func (m *memRepo) id() int64 { m.nextID++; return m.nextID }

func (m *memRepo) ListCountries(context.Context) ([]Country, error) {
	return append([]Country{}, m.countries...), nil
}

func (m *memRepo) GetCountry(_ context.Context, id int64) (*Country, error) {
	for _, c := range m.countries {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, ErrCountryNotFound
}

func (m *memRepo) CreateCountry(_ context.Context, c *Country) error {
	for _, existing := range m.countries {
		if existing.Name == c.Name {
			return ErrCountryExists
		}
	}
	c.ID = m.id()
	m.countries = append(m.countries, *c)
	return nil
}

func (m *memRepo) ListStates(_ context.Context, countryID int64) ([]State, error) {
	out := []State{}
	for _, s := range m.states {
		if countryID == 0 || s.CountryID == countryID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memRepo) GetState(_ context.Context, id int64) (*State, error) {
	for _, s := range m.states {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, ErrStateNotFound
}

func (m *memRepo) CreateState(_ context.Context, s *State) error {
	for _, existing := range m.states {
		if existing.Name == s.Name && existing.CountryID == s.CountryID {
			return ErrStateExists
		}
	}
	s.ID = m.id()
	m.states = append(m.states, *s)
	return nil
}

func (m *memRepo) ListCities(_ context.Context, f CityFilter) ([]City, error) {
	out := []City{}
	for _, c := range m.cities {
		if f.StateID != 0 && c.StateID != f.StateID {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memRepo) GetCity(_ context.Context, id int64) (*City, error) {
	for _, c := range m.cities {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, ErrCityNotFound
}

func (m *memRepo) CreateCity(_ context.Context, c *City) error {
	for _, existing := range m.cities {
		if existing.Name == c.Name && existing.StateID == c.StateID {
			return ErrCityExists
		}
	}
	c.ID = m.id()
	m.cities = append(m.cities, *c)
	return nil
}

func (m *memRepo) SearchCountries(_ context.Context, q string, limit int) ([]Country, error) {
	var out []Country
	for _, c := range m.countries {
		if strings.Contains(c.Name, q) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepo) SearchStates(_ context.Context, q string, limit int) ([]State, error) {
	var out []State
	for _, s := range m.states {
		if strings.Contains(s.Name, q) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memRepo) SearchCities(_ context.Context, q string, limit int) ([]City, error) {
	var out []City
	for _, c := range m.cities {
		if strings.Contains(c.Name, q) {
			out = append(out, c)
		}
	}
	return out, nil
}

func seeded(t *testing.T) (Service, *Country, *State) {
	t.Helper()
	svc := NewService(&memRepo{})
	ctx := context.Background()
	ec, err := svc.CreateCountry(ctx, "Ecuador")
	require.NoError(t, err)
	pi, err := svc.CreateState(ctx, "Pichincha", ec.ID)
	require.NoError(t, err)
	_, err = svc.CreateCity(ctx, "Quito", pi.ID)
	require.NoError(t, err)
	return svc, ec, pi
}

func TestCreateRequiresExistingParent(t *testing.T) {
	svc, _, _ := seeded(t)
	ctx := context.Background()

	_, err := svc.CreateState(ctx, "Lima", 404)
	assert.ErrorIs(t, err, ErrCountryNotFound)
	assert.Equal(t, http.StatusNotFound, apperr.Status(err))

	_, err = svc.CreateCity(ctx, "Lima", 404)
	assert.ErrorIs(t, err, ErrStateNotFound)

	_, err = svc.CreateCity(ctx, "", 1)
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
}

func TestCreateDuplicatesConflict(t *testing.T) {
	svc, ec, pi := seeded(t)
	ctx := context.Background()

	_, err := svc.CreateCountry(ctx, "Ecuador")
	assert.Equal(t, http.StatusConflict, apperr.Status(err))
	_, err = svc.CreateState(ctx, "Pichincha", ec.ID)
	assert.ErrorIs(t, err, ErrStateExists)
	_, err = svc.CreateCity(ctx, "Quito", pi.ID)
	assert.ErrorIs(t, err, ErrCityExists)
}

func TestCreateCityFillsParentNames(t *testing.T) {
	svc, _, pi := seeded(t)

	c, err := svc.CreateCity(context.Background(), "Cayambe", pi.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pichincha", c.State)
	assert.Equal(t, "Ecuador", c.Country)
}

func TestHierarchy(t *testing.T) {
	svc, _, _ := seeded(t)
	ctx := context.Background()
	_, err := svc.CreateCountry(ctx, "Peru")
	require.NoError(t, err)

	tree, err := svc.Hierarchy(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)

	require.Len(t, tree[0].States, 1)
	require.Len(t, tree[0].States[0].Cities, 1)
	assert.Equal(t, "Quito", tree[0].States[0].Cities[0].Name)
	assert.NotNil(t, tree[1].States)
	assert.Empty(t, tree[1].States)
}

func TestGetCountryWithStates(t *testing.T) {
	svc, ec, _ := seeded(t)

	c, err := svc.GetCountry(context.Background(), ec.ID, true)
	require.NoError(t, err)
	require.Len(t, c.States, 1)

	c, err = svc.GetCountry(context.Background(), ec.ID, false)
	require.NoError(t, err)
	assert.Empty(t, c.States)
}

func TestSearch(t *testing.T) {
	svc, _, _ := seeded(t)
	ctx := context.Background()

	results, err := svc.Search(ctx, "Qui", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, KindCity, results[0].Type)

	results, err = svc.Search(ctx, "Qui", KindCountry)
	require.NoError(t, err)
	assert.Empty(t, results)

	_, err = svc.Search(ctx, "x", "planet")
	assert.Equal(t, http.StatusBadRequest, apperr.Status(err))
}

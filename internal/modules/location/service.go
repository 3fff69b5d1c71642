package location

import (
	"context"
	"strings"

	"github.com/georgemunganga/shopfront-api/internal/apperr"
)

// Service defines location business logic.
type Service interface {
	ListCountries(ctx context.Context) ([]Country, error)
	// GetCountry returns the country, with its states when withStates is set.
	GetCountry(ctx context.Context, id int64, withStates bool) (*Country, error)
	CreateCountry(ctx context.Context, name string) (*Country, error)

	ListStates(ctx context.Context, countryID int64) ([]State, error)
	GetState(ctx context.Context, id int64, withCities bool) (*State, error)
	CreateState(ctx context.Context, name string, countryID int64) (*State, error)

	ListCities(ctx context.Context, f CityFilter) ([]City, error)
	GetCity(ctx context.Context, id int64) (*City, error)
	CreateCity(ctx context.Context, name string, stateID int64) (*City, error)

	Hierarchy(ctx context.Context) ([]Country, error)
	Search(ctx context.Context, q, kind string) ([]SearchResult, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) ListCountries(ctx context.Context) ([]Country, error) {
	return s.repo.ListCountries(ctx)
}

func (s *service) GetCountry(ctx context.Context, id int64, withStates bool) (*Country, error) {
	c, err := s.repo.GetCountry(ctx, id)
	if err != nil || !withStates {
		return c, err
	}
	if c.States, err = s.repo.ListStates(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) CreateCountry(ctx context.Context, name string) (*Country, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("CountryName is required")
	}
	c := &Country{Name: name}
	if err := s.repo.CreateCountry(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) ListStates(ctx context.Context, countryID int64) ([]State, error) {
	if countryID > 0 {
		if _, err := s.repo.GetCountry(ctx, countryID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListStates(ctx, countryID)
}

func (s *service) GetState(ctx context.Context, id int64, withCities bool) (*State, error) {
	st, err := s.repo.GetState(ctx, id)
	if err != nil || !withCities {
		return st, err
	}
	if st.Cities, err = s.repo.ListCities(ctx, CityFilter{StateID: id}); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) CreateState(ctx context.Context, name string, countryID int64) (*State, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, apperr.Validation("StatesName is required")
	case countryID <= 0:
		return nil, apperr.Validation("iD_Country is required")
	}
	country, err := s.repo.GetCountry(ctx, countryID)
	if err != nil {
		return nil, err
	}
	st := &State{Name: name, CountryID: countryID, Country: country.Name}
	if err := s.repo.CreateState(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) ListCities(ctx context.Context, f CityFilter) ([]City, error) {
	switch {
	case f.StateID > 0:
		if _, err := s.repo.GetState(ctx, f.StateID); err != nil {
			return nil, err
		}
	case f.CountryID > 0:
		if _, err := s.repo.GetCountry(ctx, f.CountryID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListCities(ctx, f)
}

func (s *service) GetCity(ctx context.Context, id int64) (*City, error) {
	return s.repo.GetCity(ctx, id)
}

func (s *service) CreateCity(ctx context.Context, name string, stateID int64) (*City, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return nil, apperr.Validation("CityName is required")
	case stateID <= 0:
		return nil, apperr.Validation("iD_States is required")
	}
	st, err := s.repo.GetState(ctx, stateID)
	if err != nil {
		return nil, err
	}
	c := &City{Name: name, StateID: stateID, State: st.Name, Country: st.Country}
	if err := s.repo.CreateCity(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Hierarchy returns every country with its states and their cities, built from three
// flat listings.
func (s *service) Hierarchy(ctx context.Context) ([]Country, error) {
	countries, err := s.repo.ListCountries(ctx)
	if err != nil {
		return nil, err
	}
	states, err := s.repo.ListStates(ctx, 0)
	if err != nil {
		return nil, err
	}
	cities, err := s.repo.ListCities(ctx, CityFilter{})
	if err != nil {
		return nil, err
	}

	citiesByState := make(map[int64][]City)
	for _, c := range cities {
		citiesByState[c.StateID] = append(citiesByState[c.StateID], c)
	}
	statesByCountry := make(map[int64][]State)
	for _, st := range states {
		st.Cities = citiesByState[st.ID]
		if st.Cities == nil {
			st.Cities = []City{}
		}
		statesByCountry[st.CountryID] = append(statesByCountry[st.CountryID], st)
	}
	for i := range countries {
		countries[i].States = statesByCountry[countries[i].ID]
		if countries[i].States == nil {
			countries[i].States = []State{}
		}
	}
	return countries, nil
}

func (s *service) Search(ctx context.Context, q, kind string) ([]SearchResult, error) {
	q = strings.TrimSpace(q)
	if kind == "" {
		kind = KindAll
	}
	switch kind {
	case KindAll, KindCountry, KindState, KindCity:
	default:
		return nil, apperr.Validation("type must be one of all, country, state, city")
	}
	results := []SearchResult{}
	if q == "" {
		return results, nil
	}

	if kind == KindAll || kind == KindCountry {
		countries, err := s.repo.SearchCountries(ctx, q, searchLimit)
		if err != nil {
			return nil, err
		}
		for _, c := range countries {
			results = append(results, SearchResult{Type: KindCountry, Data: c})
		}
	}
	if kind == KindAll || kind == KindState {
		states, err := s.repo.SearchStates(ctx, q, searchLimit)
		if err != nil {
			return nil, err
		}
		for _, st := range states {
			results = append(results, SearchResult{Type: KindState, Data: st})
		}
	}
	if kind == KindAll || kind == KindCity {
		cities, err := s.repo.SearchCities(ctx, q, searchLimit)
		if err != nil {
			return nil, err
		}
		for _, c := range cities {
			results = append(results, SearchResult{Type: KindCity, Data: c})
		}
	}
	return results, nil
}

// Package location manages the country, state and city hierarchy users are filed under.
package location

// Country is the top of the hierarchy.
type Country struct {
	ID     int64   `json:"iD_Country"`
	Name   string  `json:"CountryName"`
	States []State `json:"states,omitempty"`
}

// State belongs to one country. Names are unique within a country.
type State struct {
	ID        int64  `json:"iD_States"`
	Name      string `json:"StatesName"`
	CountryID int64  `json:"iD_Country"`
	Country   string `json:"country"`
	Cities    []City `json:"cities,omitempty"`
}

// City belongs to one state. Names are unique within a state.
type City struct {
	ID      int64  `json:"iD_City"`
	Name    string `json:"CityName"`
	StateID int64  `json:"iD_States"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// CityFilter restricts a city listing to one state or one country.
type CityFilter struct {
	StateID   int64
	CountryID int64
}

// Kinds accepted by Search.
const (
	KindAll     = "all"
	KindCountry = "country"
	KindState   = "state"
	KindCity    = "city"
)

// SearchResult is one name match from Search.
type SearchResult struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const searchLimit = 10

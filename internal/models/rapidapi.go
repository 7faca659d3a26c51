package models

// UpstreamSearchResponse is the payload returned for an `s=` query.
type UpstreamSearchResponse struct {
	Response     string         `json:"Response"`
	Error        string         `json:"Error,omitempty"`
	TotalResults string         `json:"totalResults,omitempty"`
	Search       []UpstreamItem `json:"Search"`
}

type UpstreamItem struct {
	ImdbID string `json:"imdbID"`
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	Type   string `json:"Type,omitempty"`
	Poster string `json:"Poster"`
}

// UpstreamMovie is the payload returned for an `i=` lookup.
type UpstreamMovie struct {
	Response   string `json:"Response"`
	Error      string `json:"Error,omitempty"`
	ImdbID     string `json:"imdbID"`
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Runtime    string `json:"Runtime,omitempty"`
	Poster     string `json:"Poster"`
	Plot       string `json:"Plot"`
	Genre      string `json:"Genre,omitempty"`
	Director   string `json:"Director,omitempty"`
	Actors     string `json:"Actors,omitempty"`
	ImdbRating string `json:"imdbRating,omitempty"`
}

// Found reports whether the provider flagged a positive result.
func (r UpstreamSearchResponse) Found() bool {
	return r.Response != "False"
}

func (m UpstreamMovie) Found() bool {
	return m.Response != "False"
}

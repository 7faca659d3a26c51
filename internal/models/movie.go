package models

type SearchResult struct {
	ImdbID    string `json:"imdbID"`
	Title     string `json:"title"`
	Year      string `json:"year"`
	PosterURL string `json:"posterUrl"`
}

type MovieDetail struct {
	ImdbID    string `json:"imdbID"`
	Title     string `json:"title"`
	Year      string `json:"year"`
	Runtime   string `json:"runtime,omitempty"`
	PosterURL string `json:"posterUrl"`
	Plot      string `json:"plot"`
}

// ErrorResponse is the single body shape of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewSearchResults maps upstream hits one to one, keeping their order.
// The result is never nil so it encodes as an empty array.
func NewSearchResults(items []UpstreamItem) []SearchResult {
	results := make([]SearchResult, 0, len(items))
	for _, item := range items {
		results = append(results, SearchResult{
			ImdbID:    item.ImdbID,
			Title:     item.Title,
			Year:      item.Year,
			PosterURL: item.Poster,
		})
	}
	return results
}

func NewMovieDetail(m UpstreamMovie) MovieDetail {
	return MovieDetail{
		ImdbID:    m.ImdbID,
		Title:     m.Title,
		Year:      m.Year,
		Runtime:   m.Runtime,
		PosterURL: m.Poster,
		Plot:      m.Plot,
	}
}

package models

// Bookmark is one saved movie. Title and Year are copies taken when the
// bookmark was made and are not refreshed from upstream afterwards.
type Bookmark struct {
	ImdbID  string `json:"imdbID"`
	Title   string `json:"title"`
	Year    string `json:"year"`
	Watched bool   `json:"watched"`
}

// Record is everything stored for one identifier. A nil field means the
// matching key was never written and must not be created on import.
type Record struct {
	Bookmarked *bool   `json:"bookmarked,omitempty"`
	Title      *string `json:"title,omitempty"`
	Year       *string `json:"year,omitempty"`
	Watched    *bool   `json:"watched,omitempty"`
	Review     *string `json:"review,omitempty"`
}

// Library is the indexed form of the store: one mapping from imdbID to
// record, used for export and import.
type Library struct {
	Version int               `json:"version"`
	Records map[string]Record `json:"records"`
}

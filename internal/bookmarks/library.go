package bookmarks

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"moviemark/internal/models"
)

// Export collects every prefixed record into a single mapping keyed by
// imdbID. Keys outside the known layout are ignored.
func (s *Store) Export(ctx context.Context) (*models.Library, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.storage.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	library := &models.Library{Version: libraryVersion, Records: map[string]models.Record{}}
	for _, key := range keys {
		prefix, imdbID, ok := splitKey(key)
		if !ok {
			continue
		}

		value, _, err := s.storage.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}

		record := library.Records[imdbID]
		switch prefix {
		case bookmarkPrefix:
			record.Bookmarked = boolPtr(value == bookmarkedValue)
		case titlePrefix:
			record.Title = &value
		case yearPrefix:
			record.Year = &value
		case watchedPrefix:
			record.Watched = boolPtr(value == "true")
		case reviewPrefix:
			record.Review = &value
		}
		library.Records[imdbID] = record
	}
	return library, nil
}

// Import writes every record back in the prefixed layout and rebuilds the
// aggregate. Existing keys for other identifiers are left alone.
func (s *Store) Import(ctx context.Context, library *models.Library) error {
	if library == nil {
		return nil
	}
	if library.Version != libraryVersion {
		return fmt.Errorf("%w: %d", ErrLibraryVersion, library.Version)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for imdbID, record := range library.Records {
		if err := validID(imdbID); err != nil {
			return err
		}
		if err := s.importRecord(ctx, imdbID, record); err != nil {
			return err
		}
	}

	if err := s.rebuildIndex(ctx); err != nil {
		return err
	}
	s.logger.WithField("records", len(library.Records)).Info("Library imported")
	return nil
}

// importRecord writes only the keys the record carries, so a review-only
// identifier does not gain bookmark or watched keys.
func (s *Store) importRecord(ctx context.Context, imdbID string, record models.Record) error {
	writes := map[string]string{}
	if record.Bookmarked != nil {
		writes[bookmarkPrefix] = clearedValue
		if *record.Bookmarked {
			writes[bookmarkPrefix] = bookmarkedValue
		}
	}
	if record.Title != nil {
		writes[titlePrefix] = *record.Title
	}
	if record.Year != nil {
		writes[yearPrefix] = *record.Year
	}
	if record.Watched != nil {
		writes[watchedPrefix] = strconv.FormatBool(*record.Watched)
	}
	if record.Review != nil {
		writes[reviewPrefix] = *record.Review
	}

	for prefix, value := range writes {
		if err := s.storage.Set(ctx, prefix+imdbID, value); err != nil {
			return fmt.Errorf("failed to write %s%s: %w", prefix, imdbID, err)
		}
	}
	return nil
}

func boolPtr(v bool) *bool { return &v }

func splitKey(key string) (string, string, bool) {
	for _, prefix := range []string{bookmarkPrefix, titlePrefix, yearPrefix, watchedPrefix, reviewPrefix} {
		if imdbID, ok := strings.CutPrefix(key, prefix); ok && imdbID != "" {
			return prefix, imdbID, true
		}
	}
	return "", "", false
}

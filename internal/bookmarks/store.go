// Package bookmarks implements the bookmark, watched-flag and review
// records on top of a storage.Storage.
//
// The key layout is shared with data written by earlier versions of the
// application and must not change:
//
//	bookmark_<imdbID>  "1" or "0"
//	title_<imdbID>     title copied when bookmarked
//	year_<imdbID>      year copied when bookmarked
//	watched_<imdbID>   "true" or "false"
//	review_<imdbID>    free text, last write wins
//	bookmarks          JSON array of every bookmark, derived from the keys above
package bookmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"moviemark/internal/models"
	"moviemark/internal/storage"

	"github.com/sirupsen/logrus"
)

const (
	bookmarkPrefix = "bookmark_"
	titlePrefix    = "title_"
	yearPrefix     = "year_"
	watchedPrefix  = "watched_"
	reviewPrefix   = "review_"
	aggregateKey   = "bookmarks"

	bookmarkedValue = "1"
	clearedValue    = "0"

	libraryVersion = 1
)

var (
	ErrInvalidID      = errors.New("imdbID cannot be empty")
	ErrLibraryVersion = errors.New("unsupported library version")
)

// Store serializes read-modify-write sequences so the prefixed keys and the
// aggregate never interleave between goroutines.
type Store struct {
	mu      sync.Mutex
	storage storage.Storage
	logger  *logrus.Logger
}

func New(s storage.Storage, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{storage: s, logger: logger}
}

func (s *Store) IsBookmarked(ctx context.Context, imdbID string) (bool, error) {
	if err := validID(imdbID); err != nil {
		return false, err
	}
	value, _, err := s.storage.Get(ctx, bookmarkPrefix+imdbID)
	if err != nil {
		return false, fmt.Errorf("failed to read bookmark: %w", err)
	}
	return value == bookmarkedValue, nil
}

// Toggle flips the bookmark flag for imdbID and returns the new state.
// Turning a bookmark on refreshes the stored title and year; turning it
// off leaves them in place.
func (s *Store) Toggle(ctx context.Context, imdbID, title, year string) (bool, error) {
	if err := validID(imdbID); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, _, err := s.storage.Get(ctx, bookmarkPrefix+imdbID)
	if err != nil {
		return false, fmt.Errorf("failed to read bookmark: %w", err)
	}

	on := current != bookmarkedValue
	next := clearedValue
	if on {
		next = bookmarkedValue
	}

	if err := s.storage.Set(ctx, bookmarkPrefix+imdbID, next); err != nil {
		return false, fmt.Errorf("failed to write bookmark: %w", err)
	}
	if on {
		if err := s.storage.Set(ctx, titlePrefix+imdbID, title); err != nil {
			return false, fmt.Errorf("failed to write title: %w", err)
		}
		if err := s.storage.Set(ctx, yearPrefix+imdbID, year); err != nil {
			return false, fmt.Errorf("failed to write year: %w", err)
		}
	}

	if err := s.rebuildIndex(ctx); err != nil {
		return false, err
	}

	s.logger.WithFields(logrus.Fields{
		"imdb_id":    imdbID,
		"bookmarked": on,
	}).Info("Bookmark toggled")
	return on, nil
}

// Remove deletes the bookmark and its title/year copies. The watched flag
// and review for the same identifier are kept; use Purge to erase them too.
// Removing an absent bookmark is a no-op.
func (s *Store) Remove(ctx context.Context, imdbID string) error {
	if err := validID(imdbID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deleteKeys(ctx, imdbID, bookmarkPrefix, titlePrefix, yearPrefix); err != nil {
		return err
	}
	if err := s.rebuildIndex(ctx); err != nil {
		return err
	}

	s.logger.WithField("imdb_id", imdbID).Info("Bookmark removed")
	return nil
}

// Purge erases every record held for imdbID.
func (s *Store) Purge(ctx context.Context, imdbID string) error {
	if err := validID(imdbID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.deleteKeys(ctx, imdbID, bookmarkPrefix, titlePrefix, yearPrefix, watchedPrefix, reviewPrefix)
	if err != nil {
		return err
	}
	if err := s.rebuildIndex(ctx); err != nil {
		return err
	}

	s.logger.WithField("imdb_id", imdbID).Info("All records purged")
	return nil
}

// List scans the stored keys for active bookmarks and joins their
// companion records, ordered by key.
func (s *Store) List(ctx context.Context) ([]models.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(ctx)
}

// Index returns the aggregate stored under "bookmarks". It is a cache of
// List and may be stale if another writer touched the prefixed keys.
func (s *Store) Index(ctx context.Context) ([]models.Bookmark, error) {
	raw, ok, err := s.storage.Get(ctx, aggregateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmark index: %w", err)
	}
	if !ok || raw == "" {
		return []models.Bookmark{}, nil
	}

	var index []models.Bookmark
	if err := json.Unmarshal([]byte(raw), &index); err != nil {
		return nil, fmt.Errorf("failed to decode bookmark index: %w", err)
	}
	return index, nil
}

// RebuildIndex rewrites the aggregate from the prefixed keys.
func (s *Store) RebuildIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuildIndex(ctx)
}

func (s *Store) Watched(ctx context.Context, imdbID string) (bool, error) {
	if err := validID(imdbID); err != nil {
		return false, err
	}
	value, _, err := s.storage.Get(ctx, watchedPrefix+imdbID)
	if err != nil {
		return false, fmt.Errorf("failed to read watched flag: %w", err)
	}
	return value == "true", nil
}

func (s *Store) SetWatched(ctx context.Context, imdbID string, watched bool) error {
	if err := validID(imdbID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setWatched(ctx, imdbID, watched)
}

// ToggleWatched flips the watched flag and returns the new value.
func (s *Store) ToggleWatched(ctx context.Context, imdbID string) (bool, error) {
	if err := validID(imdbID); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value, _, err := s.storage.Get(ctx, watchedPrefix+imdbID)
	if err != nil {
		return false, fmt.Errorf("failed to read watched flag: %w", err)
	}
	watched := value != "true"
	return watched, s.setWatched(ctx, imdbID, watched)
}

// Review returns the stored review, or "" when there is none.
func (s *Store) Review(ctx context.Context, imdbID string) (string, error) {
	if err := validID(imdbID); err != nil {
		return "", err
	}
	value, _, err := s.storage.Get(ctx, reviewPrefix+imdbID)
	if err != nil {
		return "", fmt.Errorf("failed to read review: %w", err)
	}
	return value, nil
}

// SetReview overwrites the review. There is no history.
func (s *Store) SetReview(ctx context.Context, imdbID, text string) error {
	if err := validID(imdbID); err != nil {
		return err
	}
	if err := s.storage.Set(ctx, reviewPrefix+imdbID, text); err != nil {
		return fmt.Errorf("failed to write review: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"imdb_id": imdbID,
		"length":  len(text),
	}).Debug("Review saved")
	return nil
}

// Reset clears the whole store.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Clear(ctx); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	s.logger.Warn("Bookmark store reset")
	return nil
}

func (s *Store) setWatched(ctx context.Context, imdbID string, watched bool) error {
	value := "false"
	if watched {
		value = "true"
	}
	if err := s.storage.Set(ctx, watchedPrefix+imdbID, value); err != nil {
		return fmt.Errorf("failed to write watched flag: %w", err)
	}
	return s.rebuildIndex(ctx)
}

func (s *Store) list(ctx context.Context) ([]models.Bookmark, error) {
	keys, err := s.storage.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	bookmarks := []models.Bookmark{}
	for _, key := range keys {
		if !strings.HasPrefix(key, bookmarkPrefix) {
			continue
		}
		_, imdbID, _ := strings.Cut(key, "_")
		if imdbID == "" {
			continue
		}

		flag, _, err := s.storage.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if flag != bookmarkedValue {
			continue
		}

		bookmark, err := s.companions(ctx, imdbID)
		if err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, bookmark)
	}
	return bookmarks, nil
}

func (s *Store) companions(ctx context.Context, imdbID string) (models.Bookmark, error) {
	bookmark := models.Bookmark{ImdbID: imdbID}

	var err error
	if bookmark.Title, _, err = s.storage.Get(ctx, titlePrefix+imdbID); err != nil {
		return bookmark, fmt.Errorf("failed to read title: %w", err)
	}
	if bookmark.Year, _, err = s.storage.Get(ctx, yearPrefix+imdbID); err != nil {
		return bookmark, fmt.Errorf("failed to read year: %w", err)
	}
	watched, _, err := s.storage.Get(ctx, watchedPrefix+imdbID)
	if err != nil {
		return bookmark, fmt.Errorf("failed to read watched flag: %w", err)
	}
	bookmark.Watched = watched == "true"
	return bookmark, nil
}

func (s *Store) rebuildIndex(ctx context.Context) error {
	bookmarks, err := s.list(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(bookmarks)
	if err != nil {
		return fmt.Errorf("failed to encode bookmark index: %w", err)
	}
	if err := s.storage.Set(ctx, aggregateKey, string(payload)); err != nil {
		return fmt.Errorf("failed to write bookmark index: %w", err)
	}
	return nil
}

func (s *Store) deleteKeys(ctx context.Context, imdbID string, prefixes ...string) error {
	for _, prefix := range prefixes {
		if err := s.storage.Delete(ctx, prefix+imdbID); err != nil {
			return fmt.Errorf("failed to delete %s%s: %w", prefix, imdbID, err)
		}
	}
	return nil
}

func validID(imdbID string) error {
	if strings.TrimSpace(imdbID) == "" {
		return ErrInvalidID
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"moviemark/internal/bookmarks"
	"moviemark/internal/config"
	"moviemark/internal/models"
	"moviemark/internal/server"

	"github.com/sahilm/fuzzy"
	"github.com/urfave/cli/v3"
)

var errMissingID = errors.New("an imdbID argument is required")

func (r *Runner) App() *cli.Command {
	return &cli.Command{
		Name:      "moviemark",
		Usage:     "Search movies, keep bookmarks and write reviews",
		Version:   "0.1.0",
		Writer:    r.out,
		ErrWriter: r.out,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the movie search proxy",
				Action: r.Serve,
			},
			{
				Name:      "search",
				Usage:     "Search movies by title",
				ArgsUsage: "<query>",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Print raw JSON"}},
				Action:    r.Search,
			},
			{
				Name:      "show",
				Usage:     "Show movie details with your bookmark state and review",
				ArgsUsage: "<imdbID>",
				Action:    r.withStore(r.Show),
			},
			{
				Name:      "bookmark",
				Usage:     "Toggle the bookmark for a movie",
				ArgsUsage: "<imdbID>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Title to store instead of fetching it"},
					&cli.StringFlag{Name: "year", Usage: "Year to store instead of fetching it"},
				},
				Action: r.withStore(r.Bookmark),
			},
			{
				Name:  "bookmarks",
				Usage: "Manage saved movies",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List bookmarks",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "filter", Aliases: []string{"f"}, Usage: "Fuzzy match on title"},
							&cli.BoolFlag{Name: "json", Usage: "Print raw JSON"},
						},
						Action: r.withStore(r.ListBookmarks),
					},
					{
						Name:      "remove",
						Usage:     "Remove a bookmark (keeps watched flag and review)",
						ArgsUsage: "<imdbID>",
						Action:    r.withStore(r.RemoveBookmark),
					},
					{
						Name:      "purge",
						Usage:     "Erase every record for a movie",
						ArgsUsage: "<imdbID>",
						Action:    r.withStore(r.PurgeBookmark),
					},
					{
						Name:   "reindex",
						Usage:  "Rebuild the aggregate bookmark list",
						Action: r.withStore(r.Reindex),
					},
				},
			},
			{
				Name:      "watched",
				Usage:     "Toggle or set the watched flag",
				ArgsUsage: "<imdbID>",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "set", Usage: "true or false"}},
				Action:    r.withStore(r.Watched),
			},
			{
				Name:      "review",
				Usage:     "Print or overwrite a review",
				ArgsUsage: "<imdbID> [text...]",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "clear", Usage: "Replace the review with an empty one"}},
				Action:    r.withStore(r.Review),
			},
			{
				Name:   "export",
				Usage:  "Write every record as one JSON library",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "File to write, stdout when empty"}},
				Action: r.withStore(r.Export),
			},
			{
				Name:      "import",
				Usage:     "Load a JSON library written by export",
				ArgsUsage: "<file>",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: "replace", Usage: "Clear the store first"}},
				Action:    r.withStore(r.Import),
			},
			{
				Name:   "reset",
				Usage:  "Delete everything in the store",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "yes", Usage: "Confirm the reset"}},
				Action: r.withStore(r.Reset),
			},
		},
	}
}

func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	c, err := r.openProxy(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	return server.New(c.MovieService, config.ServerConfig(), r.logger).Run(ctx)
}

func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("a search query is required")
	}

	results, err := r.api.Search(ctx, query)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(results)
	}
	if len(results) == 0 {
		r.printf("No movies found\n")
		return nil
	}

	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "IMDB ID\tTITLE\tYEAR")
	for _, result := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\n", result.ImdbID, result.Title, result.Year)
	}
	return w.Flush()
}

func (r *Runner) Show(ctx context.Context, cmd *cli.Command, store *bookmarks.Store) error {
	imdbID := cmd.Args().First()
	if imdbID == "" {
		return errMissingID
	}

	movie, err := r.api.Movie(ctx, imdbID)
	if err != nil {
		return err
	}

	bookmarked, err := store.IsBookmarked(ctx, movie.ImdbID)
	if err != nil {
		return err
	}
	watched, err := store.Watched(ctx, movie.ImdbID)
	if err != nil {
		return err
	}
	review, err := store.Review(ctx, movie.ImdbID)
	if err != nil {
		return err
	}

	r.printf("%s (%s)\n", movie.Title, movie.Year)
	r.printf("https://www.imdb.com/title/%s\n", movie.ImdbID)
	if movie.Runtime != "" {
		r.printf("Runtime: %s\n", movie.Runtime)
	}
	r.printf("Plot: %s\n", movie.Plot)
	r.printf("Bookmarked: %t  Watched: %t\n", bookmarked, watched)
	if review != "" {
		r.printf("Review: %s\n", review)
	}
	return nil
}

func (r *Runner) Bookmark(ctx context.Context, cmd *cli.Command, store *bookmarks.Store) error {
	imdbID := cmd.Args().First()
	if imdbID == "" {
		return errMissingID
	}

	bookmarked, err := store.IsBookmarked(ctx, imdbID)
	if err != nil {
		return err
	}

	// title and year are only stored when turning on, so unbookmarking
	// never needs the proxy
	title, year := cmd.String("title"), cmd.String("year")
	if !bookmarked && title == "" {
		movie, err := r.api.Movie(ctx, imdbID)
		if err != nil {
			return err
		}
		title = movie.Title
		if year == "" {
			year = movie.Year
		}
	}

	on, err := store.Toggle(ctx, imdbID, title, year)
	if err != nil {
		return err
	}

	if on {
		r.printf("Bookmarked %s (%s)\n", title, imdbID)
	} else {
		r.printf("Unbookmarked %s\n", imdbID)
	}
	return nil
}

func (r *Runner) ListBookmarks(ctx context.Context, cmd *cli.Command, store *bookmarks.Store) error {
	list, err := store.List(ctx)
	if err != nil {
		return err
	}
	list = filterBookmarks(list, cmd.String("filter"))

	if cmd.Bool("json") {
		return r.writeJSON(list)
	}
	if len(list) == 0 {
		r.printf("No bookmarks added\n")
		return nil
	}

	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "IMDB ID\tTITLE\tYEAR\tWATCHED")
	for _, b := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", b.ImdbID, b.Title, b.Year, b.Watched)
	}
	return w.Flush()
}

// filterBookmarks keeps fuzzy title matches, best match first.
func filterBookmarks(list []models.Bookmark, pattern string) []models.Bookmark {
	if strings.TrimSpace(pattern) == "" {
		return list
	}

	titles := make([]string, len(list))
	for i, b := range list {
		titles[i] = b.Title
	}

	matches := fuzzy.Find(pattern, titles)
	filtered := make([]models.Bookmark, 0, len(matches))
	for _, match := range matches {
		filtered = append(filtered, list[match.Index])
	}
	return filtered
}

func (r *Runner) RemoveBookmark(ctx context.Context, cmd *cli.Command, store *bookmarks.Store) error {
	imdbID := cmd.Args().First()
	if imdbID == "" {
		return errMissingID
	}
	if err := store.Remove(ctx, imdbID); err != nil {
		return err
	}
	r.printf("Removed %s from bookmarks\n", imdbID)
	return nil
}

func (r *Runner) PurgeBookmark(ctx context.Context, cmd *cli.Command, store *bookmarks.Store) error {
	imdbID := cmd.Args().First()
	if imdbID == "" {
		return errMissingID
	}
	if err := store.Purge(ctx, imdbID); err != nil {
		return err
	}
	r.printf("Erased all records for %s\n", imdbID)
	return nil
}

func (r *Runner) Reindex(ctx context.Context, cmd *cli.Command, store *bookmarks.Store) error {
	if err := store.RebuildIndex(ctx); err != nil {
		return err
	}
	index, err := store.Index(ctx)
	if err != nil {
		return err
	}
	r.printf("Indexed %d bookmarks\n", len(index))
	return nil
}

func (r *Runner) Watched(ctx context.Context, cmd *cli.Command, store *bookmarks.Store) error {
	imdbID := cmd.Args().First()
	if imdbID == "" {
		return errMissingID
	}

	var watched bool
	if set := cmd.String("set"); set != "" {
		value, err := strconv.ParseBool(set)
		if err != nil {
			return fmt.Errorf("invalid --set value %q: %w", set, err)
		}
		if err := store.SetWatched(ctx, imdbID, value); err != nil {
			return err
		}
		watched = value
	} else {
		value, err := store.ToggleWatched(ctx, imdbID)
		if err != nil {
			return err
		}
		watched = value
	}

	r.printf("%s watched: %t\n", imdbID, watched)
	return nil
}

func (r *Runner) Review(ctx context.Context, cmd *cli.Command, store *bookmarks.Store) error {
	args := cmd.Args().Slice()
	if len(args) == 0 || args[0] == "" {
		return errMissingID
	}
	imdbID := args[0]
	text := strings.Join(args[1:], " ")

	if text == "" && !cmd.Bool("clear") {
		review, err := store.Review(ctx, imdbID)
		if err != nil {
			return err
		}
		if review == "" {
			r.printf("No review for %s\n", imdbID)
			return nil
		}
		r.printf("%s\n", review)
		return nil
	}

	if err := store.SetReview(ctx, imdbID, text); err != nil {
		return err
	}
	r.printf("Saved review for %s\n", imdbID)
	return nil
}

func (r *Runner) Export(ctx context.Context, cmd *cli.Command, store *bookmarks.Store) error {
	library, err := store.Export(ctx)
	if err != nil {
		return err
	}

	path := cmd.String("out")
	if path == "" {
		return r.writeJSON(library)
	}

	payload, err := json.MarshalIndent(library, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode library: %w", err)
	}
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	r.printf("Exported %d records to %s\n", len(library.Records), path)
	return nil
}

func (r *Runner) Import(ctx context.Context, cmd *cli.Command, store *bookmarks.Store) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("a library file is required")
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var library models.Library
	if err := json.Unmarshal(payload, &library); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if cmd.Bool("replace") {
		if err := store.Reset(ctx); err != nil {
			return err
		}
	}
	if err := store.Import(ctx, &library); err != nil {
		return err
	}
	r.printf("Imported %d records\n", len(library.Records))
	return nil
}

func (r *Runner) Reset(ctx context.Context, cmd *cli.Command, store *bookmarks.Store) error {
	if !cmd.Bool("yes") {
		return errors.New("refusing to reset without --yes")
	}
	if err := store.Reset(ctx); err != nil {
		return err
	}
	r.printf("Store cleared\n")
	return nil
}

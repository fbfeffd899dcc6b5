package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
)

// Loader reads tabular food/place candidate sources and normalizes them
// into models.Table values. Rows without a parseable rating are filtered
// out, not reported as errors.
type Loader struct {
	logger *zap.Logger
}

func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// headerAliases maps localized or free-form column headers to canonical
// field names. Matching is case-insensitive on the trimmed header.
var headerAliases = map[string]string{
	"id": "id", "no": "id", "index": "id",
	"name": "name", "title": "name", "place_name": "name", "restaurant": "name",
	"location": "location", "province": "location", "city": "location", "area": "location",
	"description": "description", "detail": "description", "details": "description", "about": "description",
	"rating": "rating", "score": "rating", "stars": "rating",
	"image": "image_ref", "img": "image_ref", "image_ref": "image_ref", "picture": "image_ref",
	"keyword": "keywords", "keywords": "keywords", "tags": "keywords",
	"price": "price", "cost": "price",
	"address": "address", "addr": "address",
	"phone": "phone", "tel": "phone", "telephone": "phone",
	"link": "link", "url": "link", "website": "link",
	"time": "timeslot", "timeslot": "timeslot", "hours": "timeslot", "open": "timeslot",
}

// ratingPattern extracts the first decimal number from a locale-formatted
// rating cell; both "4.5" and "4,5 dari 5" parse to 4.5.
var ratingPattern = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)?`)

// Load reads both candidate sources concurrently and returns the
// normalized food and place tables.
func (l *Loader) Load(ctx context.Context, foodSource, placeSource string) (models.Table, models.Table, error) {
	var food, place models.Table

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := l.LoadTable(gctx, foodSource, models.CandidateFood)
		if err != nil {
			return err
		}
		food = t
		return nil
	})
	g.Go(func() error {
		t, err := l.LoadTable(gctx, placeSource, models.CandidatePlace)
		if err != nil {
			return err
		}
		place = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.Table{}, models.Table{}, err
	}

	return food, place, nil
}

// LoadTable reads a single candidate source from disk. A canceled
// context short-circuits before the file is touched, so a failed
// sibling load stops the pair early.
func (l *Loader) LoadTable(ctx context.Context, path string, kind models.CandidateKind) (models.Table, error) {
	if err := ctx.Err(); err != nil {
		return models.Table{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		l.logger.Error("Failed to open candidate source", zap.String("path", path), zap.Error(err))
		return models.Table{}, fmt.Errorf("open %s: %w", path, models.ErrDataSource)
	}
	defer f.Close()

	return l.ParseTable(f, kind, path)
}

// ParseTable normalizes a tabular candidate source. Filtering out every
// row still yields a valid empty table; only an absent or completely
// empty source is an error.
func (l *Loader) ParseTable(r io.Reader, kind models.CandidateKind, name string) (models.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		l.logger.Error("Candidate source has no header row", zap.String("source", name), zap.Error(err))
		return models.Table{}, fmt.Errorf("read header of %s: %w", name, models.ErrDataSource)
	}

	columns := canonicalizeHeader(header)

	table := models.Table{Kind: kind}
	dropped := 0
	rowIndex := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed line: filter it like any other unusable row.
			dropped++
			continue
		}
		rowIndex++

		candidate, ok := buildCandidate(columns, record, rowIndex)
		if !ok {
			dropped++
			continue
		}
		table.Rows = append(table.Rows, candidate)
	}

	l.logger.Info("Candidate source loaded",
		zap.String("source", name),
		zap.String("kind", string(kind)),
		zap.Int("rows", len(table.Rows)),
		zap.Int("dropped", dropped),
	)

	return table, nil
}

// Fingerprint derives a cache key component from the source file identity.
// Identical files fingerprint identically, so cached loads reproduce the
// per-request reload behavior byte for byte.
func Fingerprint(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return path
	}
	return fmt.Sprintf("%s:%d:%d", path, info.Size(), info.ModTime().UnixNano())
}

func canonicalizeHeader(header []string) []string {
	columns := make([]string, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canonical, ok := headerAliases[key]; ok {
			columns[i] = canonical
		}
		// Unknown headers keep an empty column name and are ignored.
	}
	return columns
}

func buildCandidate(columns, record []string, rowIndex int) (models.Candidate, bool) {
	c := models.Candidate{ID: rowIndex}

	empty := true
	hasRating := false
	for i, col := range columns {
		if i >= len(record) || col == "" {
			continue
		}
		value := strings.TrimSpace(record[i])
		if value == "" {
			continue
		}
		empty = false

		switch col {
		case "id":
			if n, err := strconv.Atoi(value); err == nil {
				c.ID = n
			}
		case "name":
			c.Name = value
		case "location":
			c.Location = value
		case "description":
			c.Description = value
		case "rating":
			if rating, ok := parseRating(value); ok {
				c.Rating = rating
				hasRating = true
			}
		case "image_ref":
			c.ImageRef = value
		case "keywords":
			c.Keywords = value
		case "price":
			c.Price = value
		case "address":
			c.Address = value
		case "phone":
			c.Phone = value
		case "link":
			c.Link = value
		case "timeslot":
			c.Timeslot = value
		}
	}

	if empty || !hasRating {
		return models.Candidate{}, false
	}
	return c, true
}

func parseRating(value string) (float64, bool) {
	match := ratingPattern.FindString(value)
	if match == "" {
		return 0, false
	}
	rating, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return rating, true
}

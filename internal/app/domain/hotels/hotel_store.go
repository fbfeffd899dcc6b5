package hotels

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
)

var csvHeader = []string{
	"name", "province", "price", "hotel_class", "location_rating",
	"description", "link", "image", "nearby_place",
}

// Store is the flat CSV hotel collaborator. Records are keyed by name,
// matched case- and diacritic-insensitively. Writes rewrite the whole
// file atomically under a single lock.
type Store struct {
	mu     sync.RWMutex
	path   string
	logger *zap.Logger
}

func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// normalizer strips diacritics so "Hôtel" and "Hotel" key identically.
var normalizer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName produces the natural-key form of a hotel name.
func NormalizeName(name string) string {
	folded, _, err := transform.String(normalizer, name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// List returns hotels filtered by province and/or nearby-place substring.
// Empty filters match everything.
func (s *Store) List(provinceFilter, nearbyFilter string) ([]models.HotelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	province := strings.ToLower(strings.TrimSpace(provinceFilter))
	nearby := strings.ToLower(strings.TrimSpace(nearbyFilter))

	var out []models.HotelRecord
	for _, rec := range records {
		if province != "" && !strings.Contains(strings.ToLower(rec.Province), province) {
			continue
		}
		if nearby != "" && !strings.Contains(strings.ToLower(rec.NearbyPlace), nearby) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get resolves one hotel by its normalized name.
func (s *Store) Get(name string) (models.HotelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.readAll()
	if err != nil {
		return models.HotelRecord{}, err
	}

	key := NormalizeName(name)
	for _, rec := range records {
		if NormalizeName(rec.Name) == key {
			return rec, nil
		}
	}
	return models.HotelRecord{}, fmt.Errorf("hotel %q: %w", name, models.ErrNotFound)
}

// Create appends a new hotel record. The normalized name must be unique.
func (s *Store) Create(rec models.HotelRecord) error {
	if strings.TrimSpace(rec.Name) == "" {
		return fmt.Errorf("hotel name is required: %w", models.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return err
	}

	key := NormalizeName(rec.Name)
	for _, existing := range records {
		if NormalizeName(existing.Name) == key {
			return fmt.Errorf("hotel %q: %w", rec.Name, models.ErrConflict)
		}
	}

	return s.writeAll(append(records, rec))
}

// UpdateByName merges non-empty fields of the update onto the stored
// record. Absent fields keep their current values.
func (s *Store) UpdateByName(name string, upd models.HotelUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return err
	}

	key := NormalizeName(name)
	found := false
	for i := range records {
		if NormalizeName(records[i].Name) != key {
			continue
		}
		found = true
		merge(&records[i], upd)
		break
	}
	if !found {
		return fmt.Errorf("hotel %q: %w", name, models.ErrNotFound)
	}

	return s.writeAll(records)
}

// DeleteByName removes one hotel record.
func (s *Store) DeleteByName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return err
	}

	key := NormalizeName(name)
	kept := records[:0]
	found := false
	for _, rec := range records {
		if NormalizeName(rec.Name) == key {
			found = true
			continue
		}
		kept = append(kept, rec)
	}
	if !found {
		return fmt.Errorf("hotel %q: %w", name, models.ErrNotFound)
	}

	return s.writeAll(kept)
}

// TopByRating returns the n best hotels by location rating, for the
// homepage query. Ties keep file order.
func (s *Store) TopByRating(n int) ([]models.HotelRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].LocationRating > records[j].LocationRating
	})
	if len(records) > n {
		records = records[:n]
	}
	return records, nil
}

func (s *Store) readAll() ([]models.HotelRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		s.logger.Error("Failed to open hotel store", zap.String("path", s.path), zap.Error(err))
		return nil, fmt.Errorf("open hotel store: %w", models.ErrDataSource)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	rows, err := cr.ReadAll()
	if err != nil {
		s.logger.Error("Failed to read hotel store", zap.Error(err))
		return nil, fmt.Errorf("read hotel store: %w", models.ErrDataSource)
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	records := make([]models.HotelRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, fromRow(row))
	}
	return records, nil
}

// writeAll rewrites the store through a temp file and rename so a crash
// mid-write never leaves a torn file.
func (s *Store) writeAll(records []models.HotelRecord) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "hotels-*.csv")
	if err != nil {
		return fmt.Errorf("create temp hotel store: %w", models.ErrPersistence)
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write hotel header: %w", models.ErrPersistence)
	}
	for _, rec := range records {
		if err := cw.Write(toRow(rec)); err != nil {
			tmp.Close()
			return fmt.Errorf("write hotel row: %w", models.ErrPersistence)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush hotel store: %w", models.ErrPersistence)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp hotel store: %w", models.ErrPersistence)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace hotel store: %w", models.ErrPersistence)
	}
	return nil
}

func merge(rec *models.HotelRecord, upd models.HotelUpdate) {
	if upd.Province != nil && *upd.Province != "" {
		rec.Province = *upd.Province
	}
	if upd.Price != nil {
		rec.Price = *upd.Price
	}
	if upd.HotelClass != nil {
		rec.HotelClass = *upd.HotelClass
	}
	if upd.LocationRating != nil {
		rec.LocationRating = *upd.LocationRating
	}
	if upd.Description != nil && *upd.Description != "" {
		rec.Description = *upd.Description
	}
	if upd.Link != nil && *upd.Link != "" {
		rec.Link = *upd.Link
	}
	if upd.ImageRef != nil && *upd.ImageRef != "" {
		rec.ImageRef = *upd.ImageRef
	}
	if upd.NearbyPlace != nil && *upd.NearbyPlace != "" {
		rec.NearbyPlace = *upd.NearbyPlace
	}
}

func fromRow(row []string) models.HotelRecord {
	get := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	parse := func(i int) float64 {
		v, _ := strconv.ParseFloat(strings.ReplaceAll(get(i), ",", "."), 64)
		return v
	}
	return models.HotelRecord{
		Name:           get(0),
		Province:       get(1),
		Price:          parse(2),
		HotelClass:     parse(3),
		LocationRating: parse(4),
		Description:    get(5),
		Link:           get(6),
		ImageRef:       get(7),
		NearbyPlace:    get(8),
	}
}

func toRow(rec models.HotelRecord) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		rec.Name, rec.Province, f(rec.Price), f(rec.HotelClass), f(rec.LocationRating),
		rec.Description, rec.Link, rec.ImageRef, rec.NearbyPlace,
	}
}

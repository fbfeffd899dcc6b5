package planner

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
)

const (
	// MaxTripDays caps the inclusive trip span.
	MaxTripDays = 30

	// TopFoodCount and TopPlaceCount size the trip-wide recommendation
	// pool. The day-by-day assembly draws from the full ranked lists.
	TopFoodCount  = 3
	TopPlaceCount = 2

	dateLayout = "2006-01-02"
)

// Planner assembles a deterministic day-by-day plan from ranked candidate
// tables. Identical inputs always produce identical output.
type Planner struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewPlanner(logger *zap.Logger) *Planner {
	return &Planner{logger: logger, now: time.Now}
}

// NewPlannerWithClock injects the wall clock for the defensive date check.
func NewPlannerWithClock(logger *zap.Logger, clock func() time.Time) *Planner {
	return &Planner{logger: logger, now: clock}
}

// ValidateDateRange enforces the caller-facing date precondition: both
// dates on or after today, start before or equal to end, inclusive span
// at most MaxTripDays.
func ValidateDateRange(start, end, today time.Time) error {
	start = truncateToDay(start)
	end = truncateToDay(end)
	today = truncateToDay(today)

	if start.Before(today) || end.Before(today) {
		return fmt.Errorf("trip dates must not be in the past: %w", models.ErrInvalidDateRange)
	}
	if start.After(end) {
		return fmt.Errorf("trip start must not be after trip end: %w", models.ErrInvalidDateRange)
	}
	if spanDays(start, end) > MaxTripDays {
		return fmt.Errorf("trip span exceeds %d days: %w", MaxTripDays, models.ErrInvalidDateRange)
	}
	return nil
}

// BuildPlan filters, ranks and deduplicates both candidate tables for the
// location, then assembles one day per calendar date in [start, end].
// When the location matches nothing on either side the result carries a
// NoMatches signal instead of failing.
func (p *Planner) BuildPlan(start, end time.Time, location string, food, place models.Table) (models.PlanResult, error) {
	if err := ValidateDateRange(start, end, p.now()); err != nil {
		return models.PlanResult{}, err
	}

	foodRanked := filterAndRank(food.Rows, location)
	placeRanked := filterAndRank(place.Rows, location)

	result := models.PlanResult{Province: location}

	if len(foodRanked) == 0 || len(placeRanked) == 0 {
		result.NoMatches = fmt.Sprintf("no food or place candidates match location %q", location)
		p.logger.Info("Plan produced no matches",
			zap.String("location", location),
			zap.Int("food_matches", len(foodRanked)),
			zap.Int("place_matches", len(placeRanked)),
		)
		return result, nil
	}

	result.TopFood = head(foodRanked, TopFoodCount)
	result.TopPlaces = head(placeRanked, TopPlaceCount)
	result.Days = p.assembleDays(start, end, foodRanked, placeRanked)

	return result, nil
}

// assembleDays enumerates each date of the inclusive range and pulls the
// next unused food and place candidate, round-robin with no repeats.
// Exhausted pools leave the remaining days with an empty item list; the
// planner never cycles back through used candidates.
func (p *Planner) assembleDays(start, end time.Time, food, place []models.Candidate) []models.Day {
	start = truncateToDay(start)
	end = truncateToDay(end)

	total := spanDays(start, end)
	days := make([]models.Day, 0, total)

	foodIdx, placeIdx := 0, 0
	for i := 0; i < total; i++ {
		date := start.AddDate(0, 0, i)
		day := models.Day{
			ID:       uuid.New(),
			DayIndex: i,
			Date:     date.Format(dateLayout),
		}

		item := models.ItineraryItem{
			ID:    uuid.New(),
			DayID: day.ID,
			Order: 0,
		}
		if foodIdx < len(food) {
			c := food[foodIdx]
			foodIdx++
			item.Food = &models.FoodEntry{
				Title:   c.Name,
				Rating:  c.Rating,
				Price:   c.Price,
				Address: c.Address,
				Phone:   c.Phone,
				Link:    c.Link,
				Image:   c.ImageRef,
				Time:    c.Timeslot,
			}
			item.Timeslot = c.Timeslot
		}
		if placeIdx < len(place) {
			c := place[placeIdx]
			placeIdx++
			item.Place = &models.PlaceEntry{
				Title:       c.Name,
				Rating:      c.Rating,
				Description: c.Description,
				Address:     c.Address,
				Image:       c.ImageRef,
				Link:        c.Link,
				Time:        c.Timeslot,
			}
			if item.Timeslot == "" {
				item.Timeslot = c.Timeslot
			}
		}

		// Items with neither half are dropped silently.
		if item.Food != nil || item.Place != nil {
			day.Items = append(day.Items, item)
		}

		days = append(days, day)
	}

	return days
}

// filterAndRank keeps rows whose location contains the region as a
// case-insensitive substring, stable-sorts by rating descending and
// deduplicates by name keeping the first (highest-rated) occurrence.
func filterAndRank(rows []models.Candidate, location string) []models.Candidate {
	needle := strings.ToLower(strings.TrimSpace(location))

	var filtered []models.Candidate
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.Location), needle) {
			filtered = append(filtered, row)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Rating > filtered[j].Rating
	})

	seen := make(map[string]struct{}, len(filtered))
	deduped := filtered[:0]
	for _, row := range filtered {
		key := strings.ToLower(strings.TrimSpace(row.Name))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, row)
	}

	return deduped
}

func head(rows []models.Candidate, n int) []models.Candidate {
	if len(rows) < n {
		n = len(rows)
	}
	return append([]models.Candidate(nil), rows[:n]...)
}

// truncateToDay normalizes to a UTC calendar date so day arithmetic is
// immune to DST transitions.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// spanDays is the inclusive day count of [start, end].
func spanDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

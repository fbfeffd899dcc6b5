package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
)

var plannerNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return plannerNow }

func testPlanner() *Planner {
	return NewPlannerWithClock(zap.NewNop(), fixedClock)
}

func day(offset int) time.Time { return plannerNow.AddDate(0, 0, offset) }

func foodTable(names ...string) models.Table {
	table := models.Table{Kind: models.CandidateFood}
	for i, name := range names {
		table.Rows = append(table.Rows, models.Candidate{
			ID:       i + 1,
			Name:     name,
			Location: "Bali",
			Rating:   5.0 - float64(i)*0.1,
		})
	}
	return table
}

func placeTable(names ...string) models.Table {
	table := foodTable(names...)
	table.Kind = models.CandidatePlace
	return table
}

func TestValidateDateRange(t *testing.T) {
	today := truncateToDay(plannerNow)

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{"same day trip", today, today, false},
		{"future range", day(1), day(5), false},
		{"max span", today, day(29), false},
		{"start in past", day(-1), day(3), true},
		{"end in past", day(-5), day(-1), true},
		{"reversed range", day(5), day(1), true},
		{"span too long", today, day(30), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDateRange(tc.start, tc.end, plannerNow)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, models.ErrInvalidDateRange)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildPlanDayCountAndOrdering(t *testing.T) {
	food := foodTable("Warung A", "Warung B", "Warung C", "Warung D", "Warung E")
	place := placeTable("Beach A", "Beach B", "Beach C", "Beach D", "Beach E")

	plan, err := testPlanner().BuildPlan(day(1), day(5), "Bali", food, place)
	require.NoError(t, err)
	require.Empty(t, plan.NoMatches)
	require.Len(t, plan.Days, 5)

	for i, d := range plan.Days {
		assert.Equal(t, i, d.DayIndex)
		assert.Equal(t, day(1+i).Format(dateLayout), d.Date)
		if i > 0 {
			assert.LessOrEqual(t, plan.Days[i-1].Date, d.Date)
		}
	}
}

func TestBuildPlanNeverRepeatsCandidates(t *testing.T) {
	food := foodTable("Warung A", "Warung B", "Warung C", "Warung A", "Warung B")
	place := placeTable("Beach A", "Beach B", "Beach A")

	plan, err := testPlanner().BuildPlan(day(1), day(6), "Bali", food, place)
	require.NoError(t, err)
	require.Len(t, plan.Days, 6)

	seenFood := map[string]bool{}
	seenPlace := map[string]bool{}
	for _, d := range plan.Days {
		for _, item := range d.Items {
			if item.Food != nil {
				assert.False(t, seenFood[item.Food.Title], "food %q repeated", item.Food.Title)
				seenFood[item.Food.Title] = true
			}
			if item.Place != nil {
				assert.False(t, seenPlace[item.Place.Title], "place %q repeated", item.Place.Title)
				seenPlace[item.Place.Title] = true
			}
		}
	}

	// Duplicate source names collapse to one use each.
	assert.Len(t, seenFood, 3)
	assert.Len(t, seenPlace, 2)
}

func TestBuildPlanExhaustedPoolsLeaveEmptyDays(t *testing.T) {
	food := foodTable("Warung A")
	place := placeTable("Beach A")

	plan, err := testPlanner().BuildPlan(day(1), day(3), "Bali", food, place)
	require.NoError(t, err)
	require.Len(t, plan.Days, 3)

	assert.NotEmpty(t, plan.Days[0].Items)
	assert.Empty(t, plan.Days[1].Items)
	assert.Empty(t, plan.Days[2].Items)
}

func TestBuildPlanTopPools(t *testing.T) {
	food := foodTable("F1", "F2", "F3", "F4", "F5")
	place := placeTable("P1", "P2", "P3")

	plan, err := testPlanner().BuildPlan(day(1), day(2), "Bali", food, place)
	require.NoError(t, err)

	require.Len(t, plan.TopFood, TopFoodCount)
	require.Len(t, plan.TopPlaces, TopPlaceCount)
	// Highest rated first.
	assert.Equal(t, "F1", plan.TopFood[0].Name)
	assert.Equal(t, "P1", plan.TopPlaces[0].Name)
}

func TestBuildPlanUnknownLocationSignalsNoMatches(t *testing.T) {
	food := foodTable("Warung A")
	place := placeTable("Beach A")

	plan, err := testPlanner().BuildPlan(day(1), day(2), "Atlantis", food, place)
	require.NoError(t, err)
	assert.NotEmpty(t, plan.NoMatches)
	assert.Empty(t, plan.Days)
	assert.Empty(t, plan.TopFood)
}

func TestBuildPlanLocationMatchIsCaseInsensitiveSubstring(t *testing.T) {
	food := foodTable("Warung A")
	food.Rows[0].Location = "North Bali Coast"
	place := placeTable("Beach A")
	place.Rows[0].Location = "BALI"

	plan, err := testPlanner().BuildPlan(day(1), day(1), "bali", food, place)
	require.NoError(t, err)
	assert.Empty(t, plan.NoMatches)
	require.Len(t, plan.Days, 1)
}

func TestBuildPlanIsDeterministic(t *testing.T) {
	food := foodTable("Warung A", "Warung B", "Warung C")
	place := placeTable("Beach A", "Beach B")

	first, err := testPlanner().BuildPlan(day(1), day(3), "Bali", food, place)
	require.NoError(t, err)
	second, err := testPlanner().BuildPlan(day(1), day(3), "Bali", food, place)
	require.NoError(t, err)

	require.Len(t, second.Days, len(first.Days))
	for i := range first.Days {
		assert.Equal(t, first.Days[i].Date, second.Days[i].Date)
		require.Len(t, second.Days[i].Items, len(first.Days[i].Items))
		for j := range first.Days[i].Items {
			a, b := first.Days[i].Items[j], second.Days[i].Items[j]
			if a.Food != nil {
				require.NotNil(t, b.Food)
				assert.Equal(t, a.Food.Title, b.Food.Title)
			}
			if a.Place != nil {
				require.NotNil(t, b.Place)
				assert.Equal(t, a.Place.Title, b.Place.Title)
			}
		}
	}
}

func TestBuildPlanRejectsInvalidRangeWithoutAssembly(t *testing.T) {
	food := foodTable("Warung A")
	place := placeTable("Beach A")

	_, err := testPlanner().BuildPlan(day(-2), day(2), "Bali", food, place)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidDateRange)
}

package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
)

func TestParseTableNormalizesHeadersAndRatings(t *testing.T) {
	input := strings.Join([]string{
		"No,Title,Province,Score,Cost",
		"1,Warung Sari,Bali,\"4,5 dari 5\",cheap",
		"2,Kopi Kita,Bandung,4.8,moderate",
	}, "\n")

	loader := NewLoader(zap.NewNop())
	table, err := loader.ParseTable(strings.NewReader(input), models.CandidateFood, "food.csv")
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)

	first := table.Rows[0]
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "Warung Sari", first.Name)
	assert.Equal(t, "Bali", first.Location)
	assert.InDelta(t, 4.5, first.Rating, 1e-9)
	assert.Equal(t, "cheap", first.Price)

	assert.InDelta(t, 4.8, table.Rows[1].Rating, 1e-9)
}

func TestParseTableDropsRowsWithoutRating(t *testing.T) {
	input := strings.Join([]string{
		"name,location,rating",
		"Good Spot,Bali,4.2",
		"No Rating,Bali,",
		"Word Rating,Bali,excellent",
	}, "\n")

	loader := NewLoader(zap.NewNop())
	table, err := loader.ParseTable(strings.NewReader(input), models.CandidatePlace, "places.csv")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Good Spot", table.Rows[0].Name)
}

func TestParseTableEmptyAfterFilteringIsValid(t *testing.T) {
	input := "name,location,rating\nNo Rating,Bali,n/a\n"

	loader := NewLoader(zap.NewNop())
	table, err := loader.ParseTable(strings.NewReader(input), models.CandidateFood, "food.csv")
	require.NoError(t, err)
	assert.True(t, table.Empty())
}

func TestParseTableMissingHeaderIsDataSourceError(t *testing.T) {
	loader := NewLoader(zap.NewNop())
	_, err := loader.ParseTable(strings.NewReader(""), models.CandidateFood, "food.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDataSource)
}

func TestLoadTableMissingFileIsDataSourceError(t *testing.T) {
	loader := NewLoader(zap.NewNop())
	_, err := loader.LoadTable(context.Background(), filepath.Join(t.TempDir(), "absent.csv"), models.CandidateFood)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrDataSource)
}

func TestLoadStopsOnCanceledContext(t *testing.T) {
	dir := t.TempDir()
	foodPath := filepath.Join(dir, "food.csv")
	placePath := filepath.Join(dir, "places.csv")
	require.NoError(t, os.WriteFile(foodPath, []byte("name,location,rating\nWarung,Bali,4.0\n"), 0o644))
	require.NoError(t, os.WriteFile(placePath, []byte("name,location,rating\nBeach,Bali,4.6\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := NewLoader(zap.NewNop())
	_, _, err := loader.Load(ctx, foodPath, placePath)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadReadsBothSources(t *testing.T) {
	dir := t.TempDir()
	foodPath := filepath.Join(dir, "food.csv")
	placePath := filepath.Join(dir, "places.csv")
	require.NoError(t, os.WriteFile(foodPath, []byte("name,location,rating\nWarung,Bali,4.0\n"), 0o644))
	require.NoError(t, os.WriteFile(placePath, []byte("name,location,rating\nBeach,Bali,4.6\n"), 0o644))

	loader := NewLoader(zap.NewNop())
	food, place, err := loader.Load(context.Background(), foodPath, placePath)
	require.NoError(t, err)

	assert.Equal(t, models.CandidateFood, food.Kind)
	assert.Equal(t, models.CandidatePlace, place.Kind)
	require.Len(t, food.Rows, 1)
	require.Len(t, place.Rows, 1)
}

func TestFingerprintChangesWithContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "food.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,rating\nA,4\n"), 0o644))
	first := Fingerprint(path)

	require.NoError(t, os.WriteFile(path, []byte("name,rating\nA,4\nB,5\n"), 0o644))
	second := Fingerprint(path)

	assert.NotEqual(t, first, second)
}

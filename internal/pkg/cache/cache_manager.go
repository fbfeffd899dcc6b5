package cache

import (
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/app/models"
)

// CacheManager holds all application caches.
type CacheManager struct {
	// Loaded candidate tables, keyed by source fingerprint. Identical
	// source files always yield the identical parsed table.
	FoodTables  *UnifiedCache[models.Table]
	PlaceTables *UnifiedCache[models.Table]

	// Ranked tables keyed by (source fingerprint, cluster config).
	Ranked *UnifiedCache[models.RankedTable]

	// Assembled plans keyed by (province, date range, source fingerprint).
	Plans *UnifiedCache[models.PlanResult]
}

// NewCacheManager creates a new cache manager with default TTLs.
func NewCacheManager(logger *zap.Logger) *CacheManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheManager{
		// Parsed tables change only when the source files do (10 minutes)
		FoodTables:  NewUnifiedCache[models.Table](10*time.Minute, "food_tables", logger),
		PlaceTables: NewUnifiedCache[models.Table](10*time.Minute, "place_tables", logger),

		// Ranked view is cheap to rebuild, shorter TTL (5 minutes)
		Ranked: NewUnifiedCache[models.RankedTable](5*time.Minute, "ranked", logger),

		Plans: NewUnifiedCache[models.PlanResult](5*time.Minute, "plans", logger),
	}
}

// GetAllMetrics returns metrics for all caches.
func (cm *CacheManager) GetAllMetrics() map[string]CacheMetrics {
	return map[string]CacheMetrics{
		"food_tables":  cm.FoodTables.GetMetrics(),
		"place_tables": cm.PlaceTables.GetMetrics(),
		"ranked":       cm.Ranked.GetMetrics(),
		"plans":        cm.Plans.GetMetrics(),
	}
}

// ClearAll clears all caches.
func (cm *CacheManager) ClearAll() {
	cm.FoodTables.Clear()
	cm.PlaceTables.Clear()
	cm.Ranked.Clear()
	cm.Plans.Clear()
}

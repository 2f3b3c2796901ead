package stats

import (
	"fmt"
	"math"

	"github.com/rm-hull/api-pgd-client/internal/models"
)

func Derive(counts []models.OutboxCount, bucketSize int) *models.OutboxStatistics {
	if bucketSize <= 0 {
		bucketSize = 3
	}
	stats := &models.OutboxStatistics{
		ByStatus:            make(map[string]int),
		ByKind:              make(map[string]map[string]int),
		AttemptDistribution: make(map[string]int),
		AverageAttempts:     make(map[string]float64),
		MaxAttempts:         make(map[string]int),
	}

	kindEntries := make(map[string]int)
	kindAttempts := make(map[string]int)

	for _, c := range counts {
		if c.Count <= 0 {
			continue
		}
		kind := string(c.Kind)
		status := string(c.Status)

		stats.Total += c.Count
		stats.ByStatus[status] += c.Count

		if stats.ByKind[kind] == nil {
			stats.ByKind[kind] = make(map[string]int)
		}
		stats.ByKind[kind][status] += c.Count

		kindEntries[kind] += c.Count
		kindAttempts[kind] += c.Attempts * c.Count
		if c.Attempts > stats.MaxAttempts[kind] {
			stats.MaxAttempts[kind] = c.Attempts
		}

		bucketStart := (c.Attempts / bucketSize) * bucketSize
		bucketEnd := bucketStart + bucketSize - 1
		bucketKey := fmt.Sprintf("%d-%d", bucketStart, bucketEnd)
		stats.AttemptDistribution[bucketKey] += c.Count
	}

	for kind, entries := range kindEntries {
		avg := float64(kindAttempts[kind]) / float64(entries)
		stats.AverageAttempts[kind] = math.Round(avg*10) / 10
	}

	return stats
}

package cache

import "github.com/google/uuid"

func BookingKey(id uuid.UUID) string {
	return "booking:" + id.String()
}

func ArtisanStatsKey(id uuid.UUID) string {
	return "artisan-stats:" + id.String()
}

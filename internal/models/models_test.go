package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name string
		sum  int64
		n    int64
		want float64
	}{
		{name: "no votes", sum: 0, n: 0, want: 0},
		{name: "single vote", sum: 4, n: 1, want: 4},
		{name: "five four five", sum: 14, n: 3, want: 4.7},
		{name: "half rounds up", sum: 9, n: 2, want: 4.5},
		{name: "two thirds", sum: 5, n: 3, want: 1.7},
		{name: "one third", sum: 13, n: 3, want: 4.3},
		{name: "half of a tenth", sum: 1025, n: 1000, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AverageRating(tt.sum, tt.n), 1e-9)
		})
	}
}

func TestProductSeries_RatingIsDerived(t *testing.T) {
	p := ProductSeries{RatingSum: 14, NumRatings: 3}
	assert.InDelta(t, 4.7, p.Rating(), 1e-9)

	p.NumRatings = 0
	assert.Zero(t, p.Rating())
}

func TestValidStars(t *testing.T) {
	for v := MinStars; v <= MaxStars; v++ {
		assert.True(t, ValidStars(v), v)
	}
	assert.False(t, ValidStars(0))
	assert.False(t, ValidStars(6))
	assert.False(t, ValidStars(-3))
}

func TestMeta_StampKeepsExisting(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	var m Meta
	m.Stamp(now)
	assert.Len(t, m.ID, 36)
	assert.Equal(t, now, m.CreatedAt)

	id := m.ID
	m.Stamp(now.Add(time.Hour))
	assert.Equal(t, id, m.RecordID())
	assert.Equal(t, now, m.CreatedAt)
}

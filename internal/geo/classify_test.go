package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeadTechMaster/API/internal/model"
)

func TestRatingColor(t *testing.T) {
	tests := []struct {
		name   string
		rating *float64
		want   string
	}{
		{"perfect", model.Float(5), ColorGreen},
		{"green boundary", model.Float(4.5), ColorGreen},
		{"just below green", model.Float(4.49), ColorYellow},
		{"yellow boundary", model.Float(4.0), ColorYellow},
		{"orange boundary", model.Float(3.5), ColorOrange},
		{"just below orange", model.Float(3.49), ColorRed},
		{"zero", model.Float(0), ColorRed},
		{"unrated", nil, ColorRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RatingColor(tt.rating))
		})
	}
}

func TestReviewSize(t *testing.T) {
	assert.Equal(t, SizeLarge, ReviewSize(model.Int(1000)))
	assert.Equal(t, SizeMedium, ReviewSize(model.Int(999)))
	assert.Equal(t, SizeMedium, ReviewSize(model.Int(500)))
	assert.Equal(t, SizeSmall, ReviewSize(model.Int(499)))
	assert.Equal(t, SizeSmall, ReviewSize(nil))
}

func TestInterestBuckets(t *testing.T) {
	assert.Equal(t, ColorGreen, InterestColor(80))
	assert.Equal(t, ColorYellow, InterestColor(60))
	assert.Equal(t, ColorOrange, InterestColor(40))
	assert.Equal(t, ColorRed, InterestColor(39))

	assert.Equal(t, SizeLarge, InterestSize(80))
	assert.Equal(t, SizeMedium, InterestSize(79))
	assert.Equal(t, SizeSmall, InterestSize(59))
}

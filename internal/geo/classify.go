// Package geo turns persisted business listings, keyword metrics and
// regional interest into map layers: points, a weighted heatmap, density by
// area, proximity clusters and a regional interest map.
package geo

// Marker colors.
const (
	ColorGreen  = "#10b981"
	ColorYellow = "#f59e0b"
	ColorOrange = "#f97316"
	ColorRed    = "#ef4444"
)

// Marker sizes.
const (
	SizeLarge  = "large"
	SizeMedium = "medium"
	SizeSmall  = "small"
)

// RatingColor buckets a rating: [4.5,5] green, [4.0,4.5) yellow,
// [3.5,4.0) orange, anything else (including no rating) red.
func RatingColor(rating *float64) string {
	if rating == nil {
		return ColorRed
	}
	switch r := *rating; {
	case r >= 4.5:
		return ColorGreen
	case r >= 4.0:
		return ColorYellow
	case r >= 3.5:
		return ColorOrange
	default:
		return ColorRed
	}
}

// ReviewSize buckets a review count: >=1000 large, >=500 medium, else small.
func ReviewSize(reviews *int) string {
	n := 0
	if reviews != nil {
		n = *reviews
	}
	switch {
	case n >= 1000:
		return SizeLarge
	case n >= 500:
		return SizeMedium
	default:
		return SizeSmall
	}
}

// InterestColor buckets a 0-100 interest value.
func InterestColor(interest int) string {
	switch {
	case interest >= 80:
		return ColorGreen
	case interest >= 60:
		return ColorYellow
	case interest >= 40:
		return ColorOrange
	default:
		return ColorRed
	}
}

// InterestSize buckets a 0-100 interest value.
func InterestSize(interest int) string {
	switch {
	case interest >= 80:
		return SizeLarge
	case interest >= 60:
		return SizeMedium
	default:
		return SizeSmall
	}
}

package source

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	tests := []struct {
		in   string
		want text
	}{
		{`"Open 24 hours"`, "Open 24 hours"},
		{`42`, "42"},
		{`{"monday":"9-5"}`, ""},
		{`["a"]`, ""},
		{`null`, ""},
	}
	for _, tt := range tests {
		var got text
		require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		valid bool
	}{
		{`4.5`, 4.5, true},
		{`"$12.99"`, 12.99, true},
		{`"1,204"`, 1204, true},
		{`"N/A"`, 0, false},
		{`null`, 0, false},
		{`{"value": 3}`, 0, false},
		{`true`, 0, false},
		{`"NaN"`, 0, false},
		{`"Inf"`, 0, false},
		{`"-Infinity"`, 0, false},
		{`"1e400"`, 0, false},
	}
	for _, tt := range tests {
		var n number
		require.NoError(t, json.Unmarshal([]byte(tt.in), &n))
		assert.Equal(t, tt.valid, n.valid, tt.in)
		if tt.valid {
			assert.InDelta(t, tt.want, *n.floatPtr(), 0.0001, tt.in)
		} else {
			assert.Nil(t, n.floatPtr(), tt.in)
		}
	}
}

func TestList_SkipsBadElementsAndShapes(t *testing.T) {
	var l list[struct {
		Title string `json:"title"`
	}]
	require.NoError(t, json.Unmarshal([]byte(`[{"title":"a"}, 7, {"title":"b"}]`), &l))
	require.Len(t, l, 2)
	assert.Equal(t, "b", l[1].Title)

	require.NoError(t, json.Unmarshal([]byte(`{"places": []}`), &l))
	assert.Empty(t, l)
}

func TestOpt(t *testing.T) {
	type box struct {
		Title text `json:"title"`
	}
	var o opt[box]
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x"}`), &o))
	assert.True(t, o.Set)
	assert.Equal(t, text("x"), o.V.Title)

	require.NoError(t, json.Unmarshal([]byte(`null`), &o))
	assert.False(t, o.Set)

	require.NoError(t, json.Unmarshal([]byte(`"oops"`), &o))
	assert.False(t, o.Set)
}

func TestPositionFallsBackToIndex(t *testing.T) {
	assert.Equal(t, 3, position(number{}, 2))
	assert.Equal(t, 7, position(number{v: 7, valid: true}, 0))
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "yelp.com", domainOf("https://www.yelp.com/biz/acme"))
	assert.Equal(t, "", domainOf("not a url"))
}

func TestPartial(t *testing.T) {
	assert.Equal(t, "moving companies mia", partial("moving companies miami"))
	assert.Equal(t, "fl", partial("fl"))
	assert.Equal(t, "", partial(""))
}

func TestStatsOf(t *testing.T) {
	assert.Nil(t, statsOf(nil))

	s := statsOf([]float64{40, 60, 80})
	require.NotNil(t, s)
	assert.InDelta(t, 60, s.Avg, 0.001)
	assert.Equal(t, 80.0, s.Max)
	assert.Equal(t, 40.0, s.Min)
	assert.Equal(t, 80.0, s.Current)
	assert.Equal(t, "rising", s.Trend)
	assert.Equal(t, 40.0, s.Volatility)

	assert.Equal(t, "falling", statsOf([]float64{50}).Trend)
	assert.Equal(t, "falling", statsOf([]float64{50, 50}).Trend)
}

func TestComparePeriods(t *testing.T) {
	periods := []VolumePeriod{
		{Stats: &VolumeStats{Avg: 60}},
		{Stats: &VolumeStats{Avg: 40}},
	}
	c := comparePeriods(periods)
	require.NotNil(t, c)
	assert.InDelta(t, 50, c.ChangePercent, 0.001)
	assert.Equal(t, "up", c.Direction)

	periods[1].Stats.Avg = 0
	assert.Nil(t, comparePeriods(periods), "no baseline")
	assert.Nil(t, comparePeriods(periods[:1]))
}

func TestDifficultyScore(t *testing.T) {
	tests := []struct {
		name string
		m    DifficultyMetrics
		want int
	}{
		{"empty", DifficultyMetrics{}, 0},
		{"ads only", DifficultyMetrics{Ads: 3}, 15},
		{"all signals", DifficultyMetrics{Ads: 2, FeaturedSnippet: true, KnowledgeGraph: true, HighAuthorityTop10: 1}, 52},
		{"capped", DifficultyMetrics{Ads: 10, FeaturedSnippet: true, KnowledgeGraph: true, HighAuthorityTop10: 10}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.Score())
		})
	}
}

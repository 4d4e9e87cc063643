package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityWeight(t *testing.T) {
	tests := []struct {
		name string
		race RacePerformance
		want float64
	}{
		{
			name: "plain standard distance",
			race: RacePerformance{Name: "Morning Run", DistanceMeters: 5000, TimeSeconds: 1200},
			want: 1.1,
		},
		{
			name: "official race at standard distance",
			race: RacePerformance{Name: "City 10K Race", DistanceMeters: 10000, TimeSeconds: 2400},
			want: 1.2 * 1.1,
		},
		{
			name: "parkrun",
			race: RacePerformance{Name: "Parkrun #312", DistanceMeters: 5000, TimeSeconds: 1200},
			want: 1.1 * 1.1,
		},
		{
			name: "race tag counts as official",
			race: RacePerformance{Name: "Sunday", Tags: []string{"Race"}, DistanceMeters: 7000, TimeSeconds: 2100},
			want: 1.2,
		},
		{
			name: "time trial and race stack",
			race: RacePerformance{Name: "Racing time trial", DistanceMeters: 5000, TimeSeconds: 1200},
			want: 1.2 * 1.1 * 1.1,
		},
		{
			name: "race as part of another word is not official",
			race: RacePerformance{Name: "Racecourse loop", DistanceMeters: 7000, TimeSeconds: 2100},
			want: 1.0,
		},
		{
			name: "implausibly fast pace",
			race: RacePerformance{Name: "GPS glitch", DistanceMeters: 5000, TimeSeconds: 300},
			want: 0.5 * 1.1,
		},
		{
			name: "implausibly slow pace",
			race: RacePerformance{Name: "walk", DistanceMeters: 3000, TimeSeconds: 3000},
			want: 0.5,
		},
		{
			name: "zero distance",
			race: RacePerformance{Name: "treadmill", DistanceMeters: 0, TimeSeconds: 1200},
			want: 0.5,
		},
		{
			name: "half marathon within 1%",
			race: RacePerformance{Name: "long", DistanceMeters: 21200, TimeSeconds: 6000},
			want: 1.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QualityWeight(tt.race)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.LessOrEqual(t, got, 1.5)
			assert.GreaterOrEqual(t, got, 0.0)
		})
	}
}

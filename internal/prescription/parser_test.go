package prescription

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleMedicine(t *testing.T) {
	p := NewParser()

	meds := p.Parse("Tab Metformin 500mg twice daily - 1 month")
	require.Len(t, meds, 1)

	assert.Equal(t, "Metformin", meds[0].Name)
	assert.Equal(t, "500mg", meds[0].Dosage)
	assert.Equal(t, []string{"08:00", "20:00"}, meds[0].Times)
	assert.Equal(t, 30, meds[0].DurationDays)
}

func TestParseMultipleMedicines(t *testing.T) {
	p := NewParser()

	text := "Aspirin 75mg at night\nParacetamol 500 mg thrice daily for 5 days"
	meds := p.Parse(text)
	require.Len(t, meds, 2)

	assert.Equal(t, "Aspirin", meds[0].Name)
	assert.Equal(t, "75mg", meds[0].Dosage)
	assert.Equal(t, []string{"21:00"}, meds[0].Times)
	assert.Equal(t, 7, meds[0].DurationDays)

	assert.Equal(t, "Paracetamol", meds[1].Name)
	assert.Equal(t, "500 mg", meds[1].Dosage)
	assert.Equal(t, []string{"08:00", "14:00", "20:00"}, meds[1].Times)
	assert.Equal(t, 5, meds[1].DurationDays)
}

func TestParseDefaults(t *testing.T) {
	p := NewParser()

	meds := p.Parse("Cetirizine as needed")
	require.Len(t, meds, 1)
	assert.Equal(t, "1 tablet", meds[0].Dosage)
	assert.Equal(t, []string{"08:00"}, meds[0].Times)
	assert.Equal(t, 7, meds[0].DurationDays)
}

func TestParseTimingKeywords(t *testing.T) {
	p := NewParser()

	tests := []struct {
		line string
		want []string
	}{
		{"Omeprazole 20mg before breakfast", []string{"08:00"}},
		{"Metformin 500mg with dinner", []string{"19:30"}},
		{"Levothyroxine 50mg in the morning", []string{"08:00"}},
		{"Warfarin 5mg at bedtime", []string{"21:30"}},
		// Later keywords override earlier ones within a line.
		{"Insulin morning and evening", []string{"18:00"}},
		{"Amlodipine twice daily (morning, evening)", []string{"08:00", "20:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			meds := p.Parse(tt.line)
			require.Len(t, meds, 1)
			assert.Equal(t, tt.want, meds[0].Times)
		})
	}
}

func TestParseDurationUnits(t *testing.T) {
	p := NewParser()

	tests := []struct {
		line string
		want int
	}{
		{"Amoxicillin 250mg for 10 days", 10},
		{"Amoxicillin 250mg for 2 weeks", 14},
		{"Atorvastatin 10mg for 3 months", 90},
	}

	for _, tt := range tests {
		meds := p.Parse(tt.line)
		require.Len(t, meds, 1)
		assert.Equal(t, tt.want, meds[0].DurationDays, tt.line)
	}
}

func TestParseDurationOnLaterLine(t *testing.T) {
	p := NewParser()

	meds := p.Parse("Doxycycline 100mg twice daily\ncontinue for 14 days")
	require.Len(t, meds, 1)
	assert.Equal(t, 14, meds[0].DurationDays)
}

func TestParseFallbackExtraction(t *testing.T) {
	p := NewParser()

	meds := p.Parse("Take Brufen 400mg after food")
	require.Len(t, meds, 1)
	assert.Equal(t, "Brufen", meds[0].Name)
	assert.Equal(t, "400mg", meds[0].Dosage)
	assert.Equal(t, []string{"08:00"}, meds[0].Times)
}

func TestParseFallbackSkipsShortAndTrailingWords(t *testing.T) {
	p := NewParser()

	// "food" is lowercase, "Enzoflam" is the last word of its line.
	meds := p.Parse("take with food Enzoflam")
	assert.Empty(t, meds)
}

func TestParseFallbackCap(t *testing.T) {
	p := NewParser()

	var lines []string
	for i := 0; i < 8; i++ {
		lines = append(lines, fmt.Sprintf("Unknownmed%d 10mg daily", i))
	}
	meds := p.Parse(strings.Join(lines, "\n"))
	assert.Len(t, meds, 5)
}

func TestParseCapsAtTen(t *testing.T) {
	p := NewParser()

	var lines []string
	for i := 0; i < 15; i++ {
		lines = append(lines, "Aspirin 75mg daily")
	}
	meds := p.Parse(strings.Join(lines, "\n"))
	assert.Len(t, meds, 10)
}

func TestParseEmptyText(t *testing.T) {
	p := NewParser()

	assert.Empty(t, p.Parse(""))
	assert.Empty(t, p.Parse("\n\n  \n"))
}

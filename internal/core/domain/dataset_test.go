package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDataset() Dataset {
	return Dataset{
		Name:         "sla",
		Namespace:    "ocean",
		Earliest:     NewDate(1993, time.January, 1),
		FileTemplate: "sla_{date}.nc",
		Windows: []TemporalWindow{
			{SourceID: "A", Start: NewDate(1993, time.January, 1), End: NewDate(2022, time.December, 31)},
			{SourceID: "B", Start: NewDate(2021, time.October, 1)},
		},
		Overlap: &OverlapPolicy{
			Start:         NewDate(2021, time.October, 1),
			End:           NewDate(2022, time.December, 31),
			PrimarySource: "A",
		},
	}
}

func TestDataset_Validate(t *testing.T) {
	require.NoError(t, validDataset().Validate())

	tests := []struct {
		name   string
		mutate func(*Dataset)
	}{
		{"empty name", func(d *Dataset) { d.Name = "" }},
		{"no earliest", func(d *Dataset) { d.Earliest = Date{} }},
		{"no file template", func(d *Dataset) { d.FileTemplate = "" }},
		{"no windows", func(d *Dataset) { d.Windows = nil }},
		{"window without source", func(d *Dataset) { d.Windows[0].SourceID = "" }},
		{"window without start", func(d *Dataset) { d.Windows[0].Start = Date{} }},
		{"inverted window", func(d *Dataset) { d.Windows[0].End = NewDate(1992, time.January, 1) }},
		{"overlap without primary", func(d *Dataset) { d.Overlap.PrimarySource = "" }},
		{"unbounded overlap", func(d *Dataset) { d.Overlap.End = Date{} }},
		{"inverted overlap", func(d *Dataset) { d.Overlap.End = NewDate(2020, time.January, 1) }},
		{"overlap primary unknown", func(d *Dataset) { d.Overlap.PrimarySource = "C" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := validDataset()
			overlap := *ds.Overlap
			ds.Overlap = &overlap
			tt.mutate(&ds)
			assert.ErrorIs(t, ds.Validate(), ErrInvalidConfig)
		})
	}
}

func TestTemporalWindow_Contains(t *testing.T) {
	today := NewDate(2024, time.June, 1)

	closed := TemporalWindow{SourceID: "A", Start: NewDate(2020, time.January, 1), End: NewDate(2020, time.December, 31)}
	assert.True(t, closed.Contains(NewDate(2020, time.January, 1), today))
	assert.True(t, closed.Contains(NewDate(2020, time.December, 31), today))
	assert.False(t, closed.Contains(NewDate(2019, time.December, 31), today))
	assert.False(t, closed.Contains(NewDate(2021, time.January, 1), today))

	open := TemporalWindow{SourceID: "B", Start: NewDate(2021, time.October, 1)}
	assert.True(t, open.Open())
	assert.True(t, open.Contains(today, today))
	assert.False(t, open.Contains(today.Next(), today), "open window never reaches past today")
}

func TestOverlapPolicy_Contains(t *testing.T) {
	p := OverlapPolicy{
		Start:         NewDate(2021, time.October, 1),
		End:           NewDate(2022, time.December, 31),
		PrimarySource: "A",
	}

	assert.True(t, p.Contains(NewDate(2021, time.October, 1)))
	assert.True(t, p.Contains(NewDate(2022, time.December, 31)))
	assert.False(t, p.Contains(NewDate(2021, time.September, 30)))
	assert.False(t, p.Contains(NewDate(2023, time.January, 1)))
}

func TestDataset_ArtifactFile(t *testing.T) {
	ds := validDataset()
	ds.FileTemplate = "sla_{date}_{yyyy}{mm}.nc"
	assert.Equal(t, "sla_2021-10-05_202110.nc", ds.ArtifactFile(NewDate(2021, time.October, 5)))
}

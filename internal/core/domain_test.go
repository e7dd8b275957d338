package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "valid", input: "2023-01-10", want: "2023-01-10"},
		{name: "trims whitespace", input: " 2023-02-01 ", want: "2023-02-01"},
		{name: "rejects garbage", input: "not-a-date", wantErr: true},
		{name: "rejects empty", input: "", wantErr: true},
		{name: "rejects wrong layout", input: "10/01/2023", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDate(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDateDaysUntil(t *testing.T) {
	first := NewDate(2023, 1, 10)
	last := NewDate(2023, 2, 1)

	assert.Equal(t, 22, first.DaysUntil(last))
	assert.Equal(t, -22, last.DaysUntil(first))
	assert.Equal(t, 0, first.DaysUntil(first))
}

func TestDateMonthKey(t *testing.T) {
	assert.Equal(t, "2023-01", NewDate(2023, 1, 31).MonthKey())
	assert.Equal(t, "2023-12", NewDate(2023, 12, 1).MonthKey())
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2024, 3, 5)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-05"`, string(out))

	var zero Date
	out, err = json.Marshal(zero)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	var back Date
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-05"`), &back))
	assert.Equal(t, d.String(), back.String())

	require.NoError(t, json.Unmarshal([]byte("null"), &back))
	assert.True(t, back.IsEmpty())
}

func TestAnimalAgeMonths(t *testing.T) {
	today := NewDate(2024, 1, 1)

	birth := NewDate(2023, 1, 1)
	a := Animal{EarTag: "T001", Farm: "Green Pastures", BirthDate: &birth}
	months, ok := a.AgeMonths(today)
	require.True(t, ok)
	assert.Equal(t, 12, months) // 365 days / 30

	noBirth := Animal{EarTag: "T002", Farm: "Green Pastures"}
	_, ok = noBirth.AgeMonths(today)
	assert.False(t, ok)

	future := NewDate(2025, 1, 1)
	unborn := Animal{EarTag: "T003", Farm: "Green Pastures", BirthDate: &future}
	_, ok = unborn.AgeMonths(today)
	assert.False(t, ok)
}

func TestAnimalValidate(t *testing.T) {
	assert.ErrorIs(t, Animal{Farm: "f"}.Validate(), ErrEmptyEarTag)
	assert.ErrorIs(t, Animal{EarTag: "t", Farm: "  "}.Validate(), ErrEmptyFarm)
	assert.NoError(t, Animal{EarTag: "t", Farm: "f"}.Validate())
}

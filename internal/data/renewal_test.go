package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRenewalDate(t *testing.T) {
	today := Date(2024, time.January, 5)

	tests := []struct {
		name    string
		date    time.Time
		wantErr string
	}{
		{"today", today, ""},
		{"within range", Date(2024, time.January, 10), ""},
		{"exactly four weeks", Date(2024, time.February, 2), ""},
		{"yesterday", Date(2024, time.January, 4), MsgRenewalInPast},
		{"long ago", Date(2023, time.March, 1), MsgRenewalInPast},
		{"four weeks and a day", Date(2024, time.February, 3), MsgRenewalTooLate},
		{"today late in the day", today.Add(23 * time.Hour), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateRenewalDate(tt.date, today)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.date, got)
				return
			}

			var dateErr *InvalidDateError
			require.ErrorAs(t, err, &dateErr)
			assert.Equal(t, tt.wantErr, dateErr.Error())
		})
	}
}

func TestValidateRenewalDate_Bounds(t *testing.T) {
	today := Date(2024, time.February, 20)

	for offset := -40; offset <= 40; offset++ {
		d := today.AddDate(0, 0, offset)
		_, err := ValidateRenewalDate(d, today)

		switch {
		case offset < 0:
			assert.EqualError(t, err, MsgRenewalInPast, "offset %d", offset)
		case offset > MaxRenewalDays:
			assert.EqualError(t, err, MsgRenewalTooLate, "offset %d", offset)
		default:
			assert.NoError(t, err, "offset %d", offset)
		}
	}
}

func TestValidateRenewalDate_IgnoresTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	today := time.Date(2024, time.January, 5, 22, 30, 0, 0, loc)

	_, err := ValidateRenewalDate(Date(2024, time.January, 5), today)
	assert.NoError(t, err)
}

func TestProposedRenewalDate(t *testing.T) {
	today := time.Date(2024, time.January, 5, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, Date(2024, time.January, 26), ProposedRenewalDate(today))

	_, err := ValidateRenewalDate(ProposedRenewalDate(today), today)
	assert.NoError(t, err)
}

package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-huddle/modules/event/entity"
)

func TestVocabulary_HalfHourLabels(t *testing.T) {
	v := entity.Vocabulary()

	require.Len(t, v, 48)
	assert.Equal(t, entity.TimeLabel("12:00 AM"), v[0])
	assert.Equal(t, entity.TimeLabel("12:30 AM"), v[1])
	assert.Equal(t, entity.TimeLabel("09:00 AM"), v[18])
	assert.Equal(t, entity.TimeLabel("12:00 PM"), v[24])
	assert.Equal(t, entity.TimeLabel("11:30 PM"), v[47])
}

func TestVocabulary_ReturnsCopy(t *testing.T) {
	v := entity.Vocabulary()
	v[0] = "garbage"

	assert.Equal(t, entity.TimeLabel("12:00 AM"), entity.Vocabulary()[0])
}

func TestTimeLabel_OrderedByIndexNotLexically(t *testing.T) {
	// "01:00 PM" sorts before "11:00 AM" as a string but comes later in the day.
	assert.Greater(t, entity.TimeLabel("01:00 PM").Index(), entity.TimeLabel("11:00 AM").Index())
	assert.Equal(t, -1, entity.TimeLabel("13:00").Index())
	assert.Equal(t, 600, entity.TimeLabel("10:00 AM").Minutes())
}

func TestLabelAt_FloorsToHalfHour(t *testing.T) {
	cases := []struct {
		hour, minute int
		want         entity.TimeLabel
	}{
		{0, 0, "12:00 AM"},
		{9, 15, "09:00 AM"},
		{9, 45, "09:30 AM"},
		{12, 29, "12:00 PM"},
		{23, 59, "11:30 PM"},
	}
	for _, tc := range cases {
		got, ok := entity.LabelAt(tc.hour, tc.minute)
		require.True(t, ok)
		assert.Equal(t, tc.want, got)
	}

	_, ok := entity.LabelAt(24, 0)
	assert.False(t, ok)
}

func TestGetTimesInRange_Inclusive(t *testing.T) {
	got := entity.GetTimesInRange("09:00 AM", "10:30 AM")

	assert.Equal(t, []entity.TimeLabel{"09:00 AM", "09:30 AM", "10:00 AM", "10:30 AM"}, got)
}

func TestGetTimesInRange_UnknownLabelFallsBackToFullVocabulary(t *testing.T) {
	assert.Len(t, entity.GetTimesInRange("9am", "10:30 AM"), 48)
	assert.Len(t, entity.GetTimesInRange("09:00 AM", ""), 48)
}

func TestGetTimesInRange_InvertedFallsBackToFullVocabulary(t *testing.T) {
	assert.Equal(t, entity.Vocabulary(), entity.GetTimesInRange("05:00 PM", "09:00 AM"))
}

func TestTimeRange_Validate(t *testing.T) {
	require.NoError(t, entity.TimeRange{Start: "09:00 AM", End: "09:30 AM"}.Validate())

	err := entity.TimeRange{Start: "09:30 AM", End: "09:00 AM"}.Validate()
	assert.ErrorIs(t, err, entity.ErrInvalidTimeRange)

	err = entity.TimeRange{Start: "09:00 AM", End: "09:00 AM"}.Validate()
	assert.ErrorIs(t, err, entity.ErrInvalidTimeRange)

	err = entity.TimeRange{Start: "nine", End: "09:00 AM"}.Validate()
	assert.ErrorIs(t, err, entity.ErrInvalidTimeRange)
}

func TestGetDatesInRange_InclusiveBothEnds(t *testing.T) {
	got, err := entity.GetDatesInRange("2024-05-01", "2024-05-03")

	require.NoError(t, err)
	assert.Equal(t, []entity.DateKey{"2024-05-01", "2024-05-02", "2024-05-03"}, got)
}

func TestGetDatesInRange_CrossesMonthAndDST(t *testing.T) {
	got, err := entity.GetDatesInRange("2024-03-30", "2024-04-01")

	require.NoError(t, err)
	assert.Equal(t, []entity.DateKey{"2024-03-30", "2024-03-31", "2024-04-01"}, got)
}

func TestGetDatesInRange_LeapDay(t *testing.T) {
	got, err := entity.GetDatesInRange("2024-02-28", "2024-03-01")

	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, entity.DateKey("2024-02-29"), got[1])
}

func TestGetDatesInRange_SingleDay(t *testing.T) {
	got, err := entity.GetDatesInRange("2024-05-01", "2024-05-01")

	require.NoError(t, err)
	assert.Equal(t, []entity.DateKey{"2024-05-01"}, got)
}

func TestGetDatesInRange_Errors(t *testing.T) {
	_, err := entity.GetDatesInRange("2024-05-03", "2024-05-01")
	assert.ErrorIs(t, err, entity.ErrInvalidDateRange)

	_, err = entity.GetDatesInRange("05/01/2024", "2024-05-03")
	assert.ErrorIs(t, err, entity.ErrInvalidDateRange)

	_, err = entity.GetDatesInRange("2024-01-01", "2024-12-31")
	assert.ErrorIs(t, err, entity.ErrInvalidDateRange)
}

func TestDateRange_Contains(t *testing.T) {
	r := entity.DateRange{Start: "2024-05-01", End: "2024-05-03"}

	assert.True(t, r.Contains("2024-05-01"))
	assert.True(t, r.Contains("2024-05-03"))
	assert.False(t, r.Contains("2024-05-04"))
}

package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maheshrc27/postflow-sync/internal/models"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestWindowIsThirtyConsecutiveDays(t *testing.T) {
	viewers := []string{"UTC", "America/New_York", "Europe/London", "Asia/Kolkata", "Pacific/Auckland"}
	businessZones := []string{"Australia/Brisbane", "Australia/Sydney"}
	instants := []time.Time{
		time.Date(2025, 3, 8, 23, 30, 0, 0, time.UTC),  // eve of US DST start
		time.Date(2025, 4, 5, 15, 30, 0, 0, time.UTC),  // Sydney DST ends next morning
		time.Date(2025, 10, 4, 14, 0, 0, 0, time.UTC),  // Sydney DST starts next morning
		time.Date(2024, 12, 31, 13, 59, 0, 0, time.UTC), // year boundary in Brisbane
	}

	for _, bz := range businessZones {
		loc := mustLoad(t, bz)
		for _, viewer := range viewers {
			for _, instant := range instants {
				now := instant.In(mustLoad(t, viewer))
				days := Window(now, loc)

				require.Len(t, days, WindowDays)
				assert.Equal(t, DateOf(instant, loc), days[0], "%s/%s", bz, viewer)
				for i := 1; i < len(days); i++ {
					assert.Equal(t, days[i-1].AddDays(1), days[i], "%s/%s day %d", bz, viewer, i)
				}
			}
		}
	}
}

func TestWindowDoesNotDependOnViewerZone(t *testing.T) {
	loc := mustLoad(t, DefaultTimezone)
	instant := time.Date(2025, 6, 30, 15, 0, 0, 0, time.UTC) // already 1 July in Brisbane

	fromLA := Window(instant.In(mustLoad(t, "America/Los_Angeles")), loc)
	fromTokyo := Window(instant.In(mustLoad(t, "Asia/Tokyo")), loc)

	assert.Equal(t, fromLA, fromTokyo)
	assert.Equal(t, "2025-07-01", fromLA[0].String())
}

func TestAssignSkipsUnscheduledPosts(t *testing.T) {
	loc := mustLoad(t, DefaultTimezone)
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, loc)

	buckets := Build(now, loc, []models.Post{{ID: 1, ScheduledFor: nil}})

	for _, b := range buckets {
		assert.Empty(t, b.Posts)
	}
}

func TestAssignGroupsByBusinessDate(t *testing.T) {
	loc := mustLoad(t, DefaultTimezone)
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, loc)

	// Both fall on 2 May in Brisbane but on different UTC dates.
	early := time.Date(2025, 5, 1, 14, 30, 0, 0, time.UTC) // 00:30 on 2 May AEST
	late := time.Date(2025, 5, 2, 13, 0, 0, 0, time.UTC)   // 23:00 on 2 May AEST
	outside := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	buckets := Build(now, loc, []models.Post{
		{ID: 2, ScheduledFor: &late},
		{ID: 1, ScheduledFor: &early},
		{ID: 3, ScheduledFor: &outside},
	})

	require.Len(t, buckets, WindowDays)
	assert.Equal(t, "2025-05-02", buckets[1].Date.String())
	require.Len(t, buckets[1].Posts, 2)
	assert.Equal(t, int64(1), buckets[1].Posts[0].ID)
	assert.Equal(t, int64(2), buckets[1].Posts[1].ID)

	total := 0
	for _, b := range buckets {
		total += len(b.Posts)
	}
	assert.Equal(t, 2, total)
}

func TestBuildIsRestartable(t *testing.T) {
	loc := mustLoad(t, DefaultTimezone)
	now := time.Date(2025, 9, 9, 9, 0, 0, 0, loc)
	at := now.Add(26 * time.Hour)
	posts := []models.Post{{ID: 5, ScheduledFor: &at}}

	assert.Equal(t, Build(now, loc, posts), Build(now, loc, posts))
}

func TestDateHelpers(t *testing.T) {
	d := Date{Year: 2024, Month: time.February, Day: 28}
	assert.Equal(t, Date{Year: 2024, Month: time.February, Day: 29}, d.AddDays(1))
	assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 1}, d.AddDays(2))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.AddDays(1).Before(d))

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2024-02-28", string(text))

	loc := mustLoad(t, "Australia/Sydney")
	assert.Equal(t, 0, d.In(loc).Hour())
}

func TestLoadLocation(t *testing.T) {
	loc, err := LoadLocation("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimezone, loc.String())

	_, err = LoadLocation("Mars/Olympus")
	assert.Error(t, err)
}

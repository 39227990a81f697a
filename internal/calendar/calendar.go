// Package calendar lays posts out on a fixed 30-day grid. Day boundaries
// come from a single business timezone so every viewer sees the same days
// whatever their own locale.
package calendar

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/maheshrc27/postflow-sync/internal/models"
)

const (
	DefaultTimezone = "Australia/Brisbane"
	WindowDays      = 30
)

// Date is a civil calendar date with no time or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays moves d by n calendar days. Noon is used as the anchor so a DST
// jump can never push the result across a date boundary.
func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 12, 0, 0, 0, time.UTC), time.UTC)
}

func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// DateOf is the civil date of t as seen in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

// LoadLocation resolves name, falling back to the business default.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown business timezone %q: %w", name, err)
	}
	return loc, nil
}

// Window returns WindowDays consecutive dates starting with today in loc.
// Each date is rebuilt from today's fields in loc rather than by adding
// durations, so nothing drifts across DST changes.
func Window(now time.Time, loc *time.Location) []Date {
	today := now.In(loc)
	y, m, d := today.Date()

	days := make([]Date, 0, WindowDays)
	for i := 0; i < WindowDays; i++ {
		days = append(days, DateOf(time.Date(y, m, d+i, 12, 0, 0, 0, loc), loc))
	}
	return days
}

type Bucket struct {
	Date  Date          `json:"date"`
	Posts []models.Post `json:"posts"`
}

// Assign groups posts under the day they are scheduled for in loc. Posts
// without a schedule, or outside days, land in no bucket. Order within a
// bucket follows scheduled time.
func Assign(posts []models.Post, days []Date, loc *time.Location) []Bucket {
	buckets := make([]Bucket, len(days))
	index := make(map[Date]int, len(days))
	for i, d := range days {
		buckets[i] = Bucket{Date: d, Posts: []models.Post{}}
		index[d] = i
	}

	for _, p := range posts {
		if p.ScheduledFor == nil {
			continue
		}
		i, ok := index[DateOf(*p.ScheduledFor, loc)]
		if !ok {
			continue
		}
		buckets[i].Posts = insertByTime(buckets[i].Posts, p)
	}
	return buckets
}

func insertByTime(posts []models.Post, p models.Post) []models.Post {
	at := len(posts)
	for i, existing := range posts {
		if p.ScheduledFor.Before(*existing.ScheduledFor) {
			at = i
			break
		}
	}
	posts = append(posts, models.Post{})
	copy(posts[at+1:], posts[at:])
	posts[at] = p
	return posts
}

// Build is Window followed by Assign.
func Build(now time.Time, loc *time.Location, posts []models.Post) []Bucket {
	return Assign(posts, Window(now, loc), loc)
}

package views

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRelativeAge(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "0 mins ago"},
		{5 * time.Minute, "5 mins ago"},
		{59*time.Minute + 59*time.Second, "59 mins ago"},
		{time.Hour, "1 hrs ago"},
		{23 * time.Hour, "23 hrs ago"},
		{25 * time.Hour, "1 day ago"},
		{3 * 24 * time.Hour, "3 days ago"},
		{7 * 24 * time.Hour, "7 days ago"},
		{8 * 24 * time.Hour, "May 2, 2024"},
		{-time.Hour, "0 mins ago"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeAge(now.Add(-tt.ago), now))
		})
	}
}

func TestClock(t *testing.T) {
	assert.Equal(t, "09:05", Clock(time.Date(2024, 5, 10, 9, 5, 0, 0, time.UTC)))
}

func TestExcerpt(t *testing.T) {
	short := strings.Repeat("a", 80)
	assert.Equal(t, short, Excerpt(short))

	long := strings.Repeat("a", 81)
	assert.Equal(t, strings.Repeat("a", 80)+"...", Excerpt(long))

	multi := "l1\nl2\nl3\nl4" + strings.Repeat("x", 80)
	assert.Equal(t, "l1\nl2\nl3...", Excerpt(multi))

	runes := strings.Repeat("é", 90)
	assert.Equal(t, strings.Repeat("é", 80)+"...", Excerpt(runes))
}

func TestNeedsShowMore(t *testing.T) {
	assert.True(t, NeedsShowMore("a\nb\nc\nd"))
	assert.False(t, NeedsShowMore("a\nb\nc"))
	assert.True(t, NeedsShowMore(strings.Repeat("a", 101)))
	assert.False(t, NeedsShowMore(strings.Repeat("a", 100)))
}

func TestAvatar(t *testing.T) {
	assert.True(t, IsDefaultAvatar("http://192.168.0.27:3008/uploads/profile-image.jpg"))
	assert.True(t, IsDefaultAvatar(""))
	assert.False(t, IsDefaultAvatar("https://cdn.ziogram.com/u/7.jpg"))

	assert.Equal(t, "AL", Initials("ada", "lovelace"))
	assert.Equal(t, "A", Initials("Ada", ""))
	assert.Equal(t, "", Initials("", ""))
}

package views

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const (
	excerptChars   = 80
	excerptLines   = 3
	showMoreChars  = 100
	defaultAvatar  = "/uploads/profile-image.jpg"
	absoluteLayout = "January 2, 2006"
	clockLayout    = "15:04"
)

// RelativeAge renders how long ago created was, relative to now.
func RelativeAge(created, now time.Time) string {
	d := now.Sub(created)
	if d < 0 {
		d = 0
	}
	mins := int(d / time.Minute)
	hours := int(d / time.Hour)
	days := int(d / (24 * time.Hour))

	switch {
	case days > 7:
		return created.Format(absoluteLayout)
	case mins < 60:
		return fmt.Sprintf("%d mins ago", mins)
	case hours < 24:
		return fmt.Sprintf("%d hrs ago", hours)
	case days == 1:
		return "1 day ago"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}

// Clock renders the 24h time of day.
func Clock(t time.Time) string {
	return t.Format(clockLayout)
}

// Excerpt shortens descriptions longer than 80 characters to their first 80 characters,
// at most three lines, followed by "...".
func Excerpt(desc string) string {
	if utf8.RuneCountInString(desc) <= excerptChars {
		return desc
	}
	head := string([]rune(desc)[:excerptChars])
	lines := strings.Split(head, "\n")
	if len(lines) > excerptLines {
		lines = lines[:excerptLines]
	}
	return strings.Join(lines, "\n") + "..."
}

// NeedsShowMore reports whether the description warrants a show-more toggle.
func NeedsShowMore(desc string) bool {
	return strings.Count(desc, "\n")+1 > excerptLines || utf8.RuneCountInString(desc) > showMoreChars
}

// IsDefaultAvatar reports whether pic is empty or the platform's placeholder image.
func IsDefaultAvatar(pic string) bool {
	return strings.TrimSpace(pic) == "" || strings.HasSuffix(pic, defaultAvatar)
}

// Initials returns the first letter of each name.
func Initials(first, last string) string {
	var b strings.Builder
	for _, s := range []string{first, last} {
		if r, _ := utf8.DecodeRuneInString(strings.TrimSpace(s)); r != utf8.RuneError {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

package utils

import (
	"mime"
	"regexp"
	"strings"
	"time"
	"unicode"
)

var watchURLPattern = regexp.MustCompile(`^(https?://)?(www\.)?youtube\.com/watch\?v=([A-Za-z0-9_-]+)(&.*)?$`)

func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

// IsValidYouTubeURL reports whether s is a canonical youtube.com/watch?v=<id> URL.
// Short links, playlist-only links and other hosts are rejected.
func IsValidYouTubeURL(s string) bool {
	return watchURLPattern.MatchString(s)
}

// YouTubeVideoID returns the v parameter of a canonical watch URL.
func YouTubeVideoID(s string) (string, bool) {
	m := watchURLPattern.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[3], true
}

// AttachmentDisposition builds a Content-Disposition value for name.
// Control characters are dropped, quotes and backslashes are escaped and
// non-ASCII names are sent in RFC 2231 form.
func AttachmentDisposition(name string) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	clean = strings.TrimSpace(clean)
	if strings.Trim(clean, ".") == "" {
		clean = "video"
	}
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": clean}); v != "" {
		return v
	}
	return `attachment; filename="video"`
}

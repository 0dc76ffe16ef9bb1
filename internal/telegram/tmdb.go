package telegram

import (
	"regexp"
	"strconv"
)

var tmdbURLPattern = regexp.MustCompile(
	`(?i)https?://(?:www\.)?(?:themoviedb\.org|tmdb\.org)/(movie|tv)/(\d+)(?:-[^\s/]+)?/?`)

// extractTMDBInfo pulls the media type and TMDB id out of the first TMDB URL
// in text, if any.
func extractTMDBInfo(text string) (mediaType string, tmdbID int, ok bool) {
	match := tmdbURLPattern.FindStringSubmatch(text)
	if match == nil {
		return "", 0, false
	}
	id, err := strconv.Atoi(match[2])
	if err != nil {
		return "", 0, false
	}
	return match[1], id, true
}

package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/jellyrequest/jellyrequest/internal/jellyseerr"
)

const tmdbImageBaseURL = "https://image.tmdb.org/t/p/w500"

// formatMediaItem renders one search/discover result as an HTML caption plus
// an optional poster URL.
func formatMediaItem(item jellyseerr.MediaResult, index, total int) (string, string) {
	title := item.Title
	if title == "" {
		title = item.Name
	}
	if title == "" {
		title = "Unknown Title"
	}
	date := item.ReleaseDate
	if date == "" {
		date = item.FirstAirDate
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s (%s)</b>\n", html.EscapeString(title), yearOf(date))
	fmt.Fprintf(&sb, "<i>%s</i>\n\n", capitalize(item.MediaType))
	overview := item.Overview
	if overview == "" {
		overview = "No overview available."
	}
	sb.WriteString(html.EscapeString(overview))
	fmt.Fprintf(&sb, "\n\nResult %d of %d", index+1, total)

	return sb.String(), posterURL(item.PosterPath)
}

// formatRequestItem renders one media request with its current status. Title
// and poster come from a detail lookup on the requested item.
func (b *Bot) formatRequestItem(ctx context.Context, req jellyseerr.Request, index, total int) (string, string) {
	var (
		info jellyseerr.MediaResult
		err  error
	)
	if req.Media.MediaType == "tv" {
		info, err = b.requests.GetTV(ctx, req.Media.TmdbID)
	} else {
		info, err = b.requests.GetMovie(ctx, req.Media.TmdbID)
	}
	if err != nil {
		return "<b>Error</b>: could not fetch details for this request.", ""
	}

	title := info.Title
	date := info.ReleaseDate
	if req.Media.MediaType == "tv" {
		title = info.Name
		date = info.FirstAirDate
	}
	if title == "" {
		title = "Unknown Title"
	}
	requestedOn, _, _ := strings.Cut(req.CreatedAt, "T")

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s (%s)</b>\n\n", html.EscapeString(title), yearOf(date))
	fmt.Fprintf(&sb, "<b>Status:</b> %s\n", statusLabel(req.Status))
	fmt.Fprintf(&sb, "<b>Type:</b> %s\n", capitalize(req.Media.MediaType))
	fmt.Fprintf(&sb, "<b>Requested on:</b> %s\n\n", requestedOn)
	fmt.Fprintf(&sb, "Request %d of %d", index+1, total)

	return sb.String(), posterURL(info.PosterPath)
}

func statusLabel(status int) string {
	switch status {
	case jellyseerr.StatusPending:
		return "Pending"
	case jellyseerr.StatusApproved:
		return "Approved"
	case jellyseerr.StatusProcessing:
		return "Processing"
	case jellyseerr.StatusPartiallyAvailable:
		return "Partially Available"
	case jellyseerr.StatusAvailable:
		return "Available"
	default:
		return "Unknown"
	}
}

func posterURL(path string) string {
	if path == "" {
		return ""
	}
	return tmdbImageBaseURL + path
}

func yearOf(date string) string {
	year, _, _ := strings.Cut(date, "-")
	if year == "" {
		return "N/A"
	}
	return year
}

func capitalize(s string) string {
	if s == "" {
		return "N/A"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package jellyseerr

// User is a Jellyseerr account. JellyfinUserID links it back to the media
// server account it was imported from.
type User struct {
	ID             int    `json:"id"`
	JellyfinUserID string `json:"jellyfinUserId"`
	Username       string `json:"username"`
	Email          string `json:"email"`
}

type userListResponse struct {
	Results []User `json:"results"`
}

// MediaResult is one search/discover/lookup result. Movies carry Title and
// ReleaseDate; TV shows carry Name and FirstAirDate.
type MediaResult struct {
	ID           int    `json:"id"`
	MediaType    string `json:"mediaType"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"releaseDate"`
	FirstAirDate string `json:"firstAirDate"`
	Overview     string `json:"overview"`
	PosterPath   string `json:"posterPath"`
}

type mediaListResponse struct {
	Results []MediaResult `json:"results"`
}

// Request statuses as reported by /api/v1/request.
const (
	StatusPending            = 1
	StatusApproved           = 2
	StatusProcessing         = 3
	StatusPartiallyAvailable = 4
	StatusAvailable          = 5
)

// RequestMedia identifies the media a request is for.
type RequestMedia struct {
	TmdbID    int    `json:"tmdbId"`
	MediaType string `json:"mediaType"`
}

// Request is one media request made by a user.
type Request struct {
	ID        int          `json:"id"`
	Status    int          `json:"status"`
	CreatedAt string       `json:"createdAt"`
	Media     RequestMedia `json:"media"`
}

type requestListResponse struct {
	Results []Request `json:"results"`
}

type importRequest struct {
	JellyfinUserIDs []string `json:"jellyfinUserIds"`
}

type createRequestPayload struct {
	MediaType string `json:"mediaType"`
	MediaID   int    `json:"mediaId"`
	UserID    int    `json:"userId"`
	Seasons   string `json:"seasons,omitempty"`
}

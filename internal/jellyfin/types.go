package jellyfin

// Policy is the subset of the Jellyfin user policy the bot manages. New
// accounts are created non-admin with media playback enabled and live TV
// disabled.
type Policy struct {
	IsAdministrator            bool `json:"IsAdministrator"`
	EnableUserPreferenceAccess bool `json:"EnableUserPreferenceAccess"`
	EnableMediaPlayback        bool `json:"EnableMediaPlayback"`
	EnableLiveTvAccess         bool `json:"EnableLiveTvAccess"`
	EnableLiveTvManagement     bool `json:"EnableLiveTvManagement"`
}

// User is a Jellyfin account as returned by /Users.
type User struct {
	ID     string `json:"Id"`
	Name   string `json:"Name"`
	Policy Policy `json:"Policy"`
}

type createUserRequest struct {
	Name     string `json:"Name"`
	Password string `json:"Password"`
	Policy   Policy `json:"Policy"`
}

type authenticateRequest struct {
	Username string `json:"Username"`
	Password string `json:"Pw"`
}

type authenticateResponse struct {
	User User `json:"User"`
}

// ItemUserData carries per-user playback state for a library item.
type ItemUserData struct {
	LastPlayedDate string `json:"LastPlayedDate"`
}

// Item is a played library item (movie or episode) from /Users/{id}/Items.
type Item struct {
	Name         string        `json:"Name"`
	Type         string        `json:"Type"`
	SeriesName   string        `json:"SeriesName"`
	RunTimeTicks int64         `json:"RunTimeTicks"`
	UserData     *ItemUserData `json:"UserData"`
}

type itemsResponse struct {
	Items []Item `json:"Items"`
}

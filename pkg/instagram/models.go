package instagram

// ProfileResponse represents the top-level response from the profile
// metadata endpoint
type ProfileResponse struct {
	RequiresToLogin bool   `json:"requires_to_login"`
	Data            Data   `json:"data"`
	Status          string `json:"status"`
}

// Data wraps the user information in the response
type Data struct {
	User User `json:"user"`
}

// User represents an Instagram user profile
type User struct {
	ID                       string                   `json:"id"`
	EdgeOwnerToTimelineMedia EdgeOwnerToTimelineMedia `json:"edge_owner_to_timeline_media"`
}

// EdgeOwnerToTimelineMedia contains the posts embedded in the profile response
type EdgeOwnerToTimelineMedia struct {
	Count int    `json:"count"`
	Edges []Edge `json:"edges"`
}

// Edge wraps a single media node
type Edge struct {
	Node Node `json:"node"`
}

// Node represents a single media item embedded in the profile response
type Node struct {
	ID         string `json:"id"`
	Shortcode  string `json:"shortcode"`
	DisplayURL string `json:"display_url"`
	IsVideo    bool   `json:"is_video"`
}

// FeedResponse represents the response from the dedicated feed endpoint
type FeedResponse struct {
	Items  []FeedItem `json:"items"`
	Status string     `json:"status"`
}

// FeedItem represents a single post returned by the feed endpoint
type FeedItem struct {
	Code           string         `json:"code"`
	ImageVersions2 ImageVersions2 `json:"image_versions2"`
}

// ImageVersions2 holds the image renditions for a feed item, best first
type ImageVersions2 struct {
	Candidates []ImageCandidate `json:"candidates"`
}

// ImageCandidate is a single image rendition
type ImageCandidate struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// BestImageURL returns the URL of the first (highest quality) rendition,
// or an empty string if the item has none
func (i *FeedItem) BestImageURL() string {
	if len(i.ImageVersions2.Candidates) == 0 {
		return ""
	}
	return i.ImageVersions2.Candidates[0].URL
}

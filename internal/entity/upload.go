package entity

// Upload describes a stored image and its thumbnail.
type Upload struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Size         int64  `json:"size"`
	ContentType  string `json:"content_type"`
}

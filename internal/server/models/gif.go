package models

// GifRecord is a provider-neutral GIF search result. ID is namespaced with
// the provider letter ("gt-..." for tenor) so a stored reference can be
// resolved back to the right provider later.
type GifRecord struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	PreviewURL string `json:"previewUrl"`
}

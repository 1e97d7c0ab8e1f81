// Package lightroom is the authenticated client for the Adobe Lightroom
// partner API: bearer-token injection, the single 401 refresh-and-retry,
// links.next pagination, and mapping of provider JSON into domain records.
package lightroom

import (
	"net/http"
	"time"
)

// Album is a read-only projection of a Lightroom album resource.
type Album struct {
	ID           string
	Name         string
	PhotoCount   int
	CoverAssetID string
}

// Photo is a read-only projection of a Lightroom album asset. The URLs point
// at our rendition proxy rather than the provider, since provider rendition
// endpoints require auth headers a browser cannot send.
type Photo struct {
	ID           string
	AlbumID      string
	Filename     string
	ThumbnailURL string
	FullURL      string
	CaptureTime  time.Time
}

// Response is a raw provider response: status, body, headers.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// AllowedRenditions are the rendition sizes the proxy will request.
var AllowedRenditions = map[string]bool{
	"thumbnail":   true,
	"thumbnail2x": true,
	"640":         true,
	"1280":        true,
	"1920":        true,
	"2048":        true,
	"2560":        true,
}

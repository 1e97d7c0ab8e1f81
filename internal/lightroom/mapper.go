package lightroom

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// Lightroom prepends while(1){} to JSON bodies to mitigate abuse; it must be
// stripped before decoding. Pattern per the Adobe documentation.
var abusePrefix = regexp.MustCompile(`^while\s*\(\s*1\s*\)\s*\{\s*\}\s*`)

func stripAbusePrefix(body []byte) []byte {
	if loc := abusePrefix.FindIndex(body); loc != nil {
		return body[loc[1]:]
	}
	return body
}

func decodeJSON(body []byte, v interface{}) error {
	if err := json.Unmarshal(stripAbusePrefix(body), v); err != nil {
		return &MalformedResponseError{Err: err}
	}
	return nil
}

// resourcePage is the envelope Lightroom wraps every collection response in.
// Pagination follows links.next.href resolved against base.
type resourcePage struct {
	Base      string                     `json:"base"`
	Resources []json.RawMessage          `json:"resources"`
	Links     map[string]json.RawMessage `json:"links"`
}

type pageLink struct {
	Href string `json:"href"`
}

func (p *resourcePage) link(name string) string {
	raw, ok := p.Links[name]
	if !ok {
		return ""
	}
	var l pageLink
	if err := json.Unmarshal(raw, &l); err != nil {
		return ""
	}
	return l.Href
}

// MapAlbum converts one album resource into an Album. Identity fields are
// required; display fields fall back to placeholder values.
func MapAlbum(raw json.RawMessage) (Album, error) {
	var res struct {
		ID      *string `json:"id"`
		Payload struct {
			Name       string `json:"name"`
			AssetCount int    `json:"assetCount"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return Album{}, &MalformedResponseError{Field: "album", Err: err}
	}
	if res.ID == nil || *res.ID == "" {
		return Album{}, &MalformedResponseError{Field: "id"}
	}

	name := res.Payload.Name
	if name == "" {
		name = "Untitled Album"
	}

	return Album{
		ID:         *res.ID,
		Name:       name,
		PhotoCount: res.Payload.AssetCount,
	}, nil
}

// MapPhoto converts one album asset resource into a Photo bound to albumID.
func MapPhoto(raw json.RawMessage, albumID string) (Photo, error) {
	var res struct {
		Asset struct {
			ID      *string `json:"id"`
			Payload struct {
				CaptureDate  string `json:"captureDate"`
				ImportSource struct {
					FileName string `json:"fileName"`
				} `json:"importSource"`
			} `json:"payload"`
		} `json:"asset"`
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return Photo{}, &MalformedResponseError{Field: "asset", Err: err}
	}
	if res.Asset.ID == nil || *res.Asset.ID == "" {
		return Photo{}, &MalformedResponseError{Field: "asset.id"}
	}

	filename := res.Asset.Payload.ImportSource.FileName
	if filename == "" {
		filename = "Photo"
	}

	id := *res.Asset.ID
	return Photo{
		ID:           id,
		AlbumID:      albumID,
		Filename:     filename,
		ThumbnailURL: fmt.Sprintf("/thumbnail/%s?type=thumbnail2x", id),
		FullURL:      fmt.Sprintf("/thumbnail/%s?type=2048", id),
		CaptureTime:  parseCaptureDate(res.Asset.Payload.CaptureDate),
	}, nil
}

// parseCaptureDate tolerates the placeholder value Lightroom emits for assets
// without capture metadata.
func parseCaptureDate(s string) time.Time {
	if s == "" || s == "0000-00-00T00:00:00" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

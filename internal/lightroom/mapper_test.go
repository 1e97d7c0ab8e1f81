package lightroom

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripAbusePrefix(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"canonical", `while (1) {}{"id":"x"}`, `{"id":"x"}`},
		{"compact", `while(1){}{"id":"x"}`, `{"id":"x"}`},
		{"spaced with newline", "while ( 1 ) { }\n{\"id\":\"x\"}", `{"id":"x"}`},
		{"no prefix", `{"id":"x"}`, `{"id":"x"}`},
		{"prefix mid-body untouched", `{"note":"while(1){}"}`, `{"note":"while(1){}"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(stripAbusePrefix([]byte(tt.body))))
		})
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	var v map[string]interface{}
	err := decodeJSON([]byte(`while(1){}not json`), &v)
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
}

func TestResourcePageLinks(t *testing.T) {
	var page resourcePage
	require.NoError(t, json.Unmarshal([]byte(`{
		"base": "https://lr.adobe.io/v2/",
		"resources": [],
		"links": {
			"next": {"href": "catalogs/c/albums?name_after=Zoo"},
			"self": "not an object"
		}
	}`), &page))

	assert.Equal(t, "catalogs/c/albums?name_after=Zoo", page.link("next"))
	assert.Equal(t, "", page.link("self"), "unparsable links degrade to absent")
	assert.Equal(t, "", page.link("prev"))
}

func TestMapAlbum(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Album
		wantErr bool
	}{
		{
			name: "full resource",
			raw:  `{"id":"al-1","payload":{"name":"Iceland","assetCount":124}}`,
			want: Album{ID: "al-1", Name: "Iceland", PhotoCount: 124},
		},
		{
			name: "missing name defaults",
			raw:  `{"id":"al-2","payload":{"assetCount":3}}`,
			want: Album{ID: "al-2", Name: "Untitled Album", PhotoCount: 3},
		},
		{
			name:    "missing id",
			raw:     `{"payload":{"name":"No Identity"}}`,
			wantErr: true,
		},
		{
			name:    "empty id",
			raw:     `{"id":"","payload":{"name":"Blank"}}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			raw:     `[1,2,3]`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MapAlbum(json.RawMessage(tt.raw))
			if tt.wantErr {
				var malformed *MalformedResponseError
				require.ErrorAs(t, err, &malformed)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("album mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMapPhoto(t *testing.T) {
	raw := `{
		"asset": {
			"id": "as-1",
			"payload": {
				"captureDate": "2024-03-09T14:22:05Z",
				"importSource": {"fileName": "IMG_4411.jpg"}
			}
		}
	}`

	got, err := MapPhoto(json.RawMessage(raw), "al-1")
	require.NoError(t, err)

	want := Photo{
		ID:           "as-1",
		AlbumID:      "al-1",
		Filename:     "IMG_4411.jpg",
		ThumbnailURL: "/thumbnail/as-1?type=thumbnail2x",
		FullURL:      "/thumbnail/as-1?type=2048",
		CaptureTime:  time.Date(2024, 3, 9, 14, 22, 5, 0, time.UTC),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("photo mismatch (-want +got):\n%s", diff)
	}
}

func TestMapPhotoDefaults(t *testing.T) {
	got, err := MapPhoto(json.RawMessage(`{"asset":{"id":"as-2","payload":{}}}`), "al-1")
	require.NoError(t, err)
	assert.Equal(t, "Photo", got.Filename)
	assert.True(t, got.CaptureTime.IsZero())
}

func TestMapPhotoMissingID(t *testing.T) {
	_, err := MapPhoto(json.RawMessage(`{"asset":{"payload":{}}}`), "al-1")
	var malformed *MalformedResponseError
	require.ErrorAs(t, err, &malformed)
}

func TestParseCaptureDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-09T14:22:05Z", time.Date(2024, 3, 9, 14, 22, 5, 0, time.UTC)},
		{"2024-03-09T14:22:05", time.Date(2024, 3, 9, 14, 22, 5, 0, time.UTC)},
		{"0000-00-00T00:00:00", time.Time{}},
		{"", time.Time{}},
		{"garbage", time.Time{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCaptureDate(tt.in), "input %q", tt.in)
	}
}

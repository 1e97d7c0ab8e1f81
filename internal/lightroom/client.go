package lightroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lumina-photos/lumina/internal/auth"
	"github.com/lumina-photos/lumina/internal/config"
	"github.com/lumina-photos/lumina/internal/logger"
	"github.com/lumina-photos/lumina/internal/session"
	"go.uber.org/zap"
)

// listLimit is the page size used when aggregating a full listing.
const listLimit = 100

// Client makes authenticated calls against the Lightroom API. It injects the
// bearer token and x-api-key headers, proactively refreshes tokens inside the
// configured skew window, and retries exactly once on 401.
type Client struct {
	cfg        *config.AdobeConfig
	flow       *auth.Flow
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a Lightroom API client.
func NewClient(cfg *config.AdobeConfig, flow *auth.Flow) *Client {
	return &Client{
		cfg:  cfg,
		flow: flow,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		now: time.Now,
	}
}

// Call performs one authenticated request. endpoint is either a path under
// the API base or an absolute URL (as pagination links are). A 401 despite a
// fresh-looking token triggers exactly one refresh-and-retry; a second 401
// clears the session's tokens and surfaces AuthExpiredError. Other non-2xx
// statuses become ProviderError, network failures TransportError.
func (c *Client) Call(ctx context.Context, sess *session.Session, method, endpoint string, query url.Values) (*Response, error) {
	tp := sess.Tokens()
	if tp == nil {
		return nil, &auth.AuthExpiredError{}
	}

	if tp.NeedsRefresh(c.now(), c.cfg.RefreshSkew) {
		refreshed, err := c.flow.Refresh(ctx, sess)
		if err != nil {
			return nil, c.refreshFailure(sess, err)
		}
		tp = &refreshed
	}

	resp, err := c.do(ctx, method, endpoint, query, tp.AccessToken)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		logger.Warn("received 401 from lightroom api, refreshing once",
			zap.String("session", sess.ID),
			zap.String("endpoint", endpoint),
		)
		refreshed, err := c.flow.Refresh(ctx, sess)
		if err != nil {
			return nil, c.refreshFailure(sess, err)
		}
		resp, err = c.do(ctx, method, endpoint, query, refreshed.AccessToken)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			sess.Expire()
			return nil, &auth.AuthExpiredError{}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, providerErrorFrom(resp)
	}
	return resp, nil
}

// refreshFailure classifies a failed refresh during Call. A provider
// rejection means the refresh token is no longer good: the session's tokens
// are cleared and the user must log in again. Transport failures pass
// through without touching session state.
func (c *Client) refreshFailure(sess *session.Session, err error) error {
	var te *auth.TokenExchangeError
	if errors.As(err, &te) {
		sess.Expire()
		return &auth.AuthExpiredError{Err: err}
	}
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, accessToken string) (*Response, error) {
	u, err := c.requestURL(endpoint, query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("x-api-key", c.cfg.ClientID)
	req.Header.Set("Accept", "application/json")

	logger.Debug("lightroom api request", zap.String("method", method), zap.String("url", u))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &auth.TransportError{Op: method + " " + u, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Error("failed to close response body", zap.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &auth.TransportError{Op: method + " " + u, Err: err}
	}

	logger.Debug("lightroom api response",
		zap.Int("status", resp.StatusCode),
		zap.String("url", u),
		zap.Int("body_bytes", len(body)),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
	}, nil
}

func (c *Client) requestURL(endpoint string, query url.Values) (string, error) {
	raw := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		raw = c.cfg.APIBaseURL + endpoint
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func providerErrorFrom(resp *Response) error {
	var payload struct {
		Code             json.RawMessage `json:"code"`
		Description      string          `json:"description"`
		ErrorCode        string          `json:"error"`
		ErrorDescription string          `json:"error_description"`
	}
	_ = json.Unmarshal(stripAbusePrefix(resp.Body), &payload)

	code := strings.Trim(string(payload.Code), `"`)
	if code == "" {
		code = payload.ErrorCode
	}
	message := payload.Description
	if message == "" {
		message = payload.ErrorDescription
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &ProviderError{Status: resp.StatusCode, Code: code, Message: message}
}

func (c *Client) getJSON(ctx context.Context, sess *session.Session, endpoint string, query url.Values, v interface{}) error {
	resp, err := c.Call(ctx, sess, http.MethodGet, endpoint, query)
	if err != nil {
		return err
	}
	return decodeJSON(resp.Body, v)
}

// Catalog returns the user's catalog id, fetching it once and caching it on
// the session afterwards.
func (c *Client) Catalog(ctx context.Context, sess *session.Session) (string, error) {
	if id := sess.CatalogID(); id != "" {
		return id, nil
	}

	var cat struct {
		ID string `json:"id"`
	}
	if err := c.getJSON(ctx, sess, "/catalog", nil, &cat); err != nil {
		return "", err
	}
	if cat.ID == "" {
		return "", &MalformedResponseError{Field: "catalog.id"}
	}

	sess.SetCatalogID(cat.ID)
	return cat.ID, nil
}

// ListAlbums returns every album in the user's catalog, following pagination
// links until the provider stops supplying one and preserving provider order.
// The first page error aborts the aggregation.
func (c *Client) ListAlbums(ctx context.Context, sess *session.Session) ([]Album, error) {
	cid, err := c.Catalog(ctx, sess)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/catalogs/%s/albums", cid)
	query := url.Values{"limit": {fmt.Sprint(listLimit)}}

	var albums []Album
	for endpoint != "" {
		var page resourcePage
		if err := c.getJSON(ctx, sess, endpoint, query, &page); err != nil {
			return nil, err
		}
		for _, raw := range page.Resources {
			album, err := MapAlbum(raw)
			if err != nil {
				return nil, err
			}
			albums = append(albums, album)
		}
		endpoint = c.resolveLink(page.Base, page.link("next"))
		query = nil
	}
	return albums, nil
}

// AlbumsPage returns one page of albums plus the cursor for the next page
// (empty when no further page exists). nameAfter is the provider's
// cursor: the album name to start after.
func (c *Client) AlbumsPage(ctx context.Context, sess *session.Session, limit int, nameAfter string) ([]Album, string, error) {
	cid, err := c.Catalog(ctx, sess)
	if err != nil {
		return nil, "", err
	}

	query := url.Values{"limit": {fmt.Sprint(limit)}}
	if nameAfter != "" {
		query.Set("name_after", nameAfter)
	}

	var page resourcePage
	if err := c.getJSON(ctx, sess, fmt.Sprintf("/catalogs/%s/albums", cid), query, &page); err != nil {
		return nil, "", err
	}

	albums := make([]Album, 0, len(page.Resources))
	for _, raw := range page.Resources {
		album, err := MapAlbum(raw)
		if err != nil {
			return nil, "", err
		}
		albums = append(albums, album)
	}

	return albums, c.nextNameAfter(&page), nil
}

// nextNameAfter pulls the name_after cursor out of the page's next link.
func (c *Client) nextNameAfter(page *resourcePage) string {
	next := c.resolveLink(page.Base, page.link("next"))
	if next == "" {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil {
		return ""
	}
	return u.Query().Get("name_after")
}

// GetAlbum fetches one album's metadata. An unknown id yields NotFoundError.
func (c *Client) GetAlbum(ctx context.Context, sess *session.Session, albumID string) (Album, error) {
	cid, err := c.Catalog(ctx, sess)
	if err != nil {
		return Album{}, err
	}

	resp, err := c.Call(ctx, sess, http.MethodGet, fmt.Sprintf("/catalogs/%s/albums/%s", cid, albumID), nil)
	if err != nil {
		return Album{}, notFound(err, "album", albumID)
	}
	return MapAlbum(stripAbusePrefix(resp.Body))
}

// ListPhotos returns every asset in the album, in provider order, following
// pagination until no next link remains. An unknown album id yields
// NotFoundError.
func (c *Client) ListPhotos(ctx context.Context, sess *session.Session, albumID string) ([]Photo, error) {
	cid, err := c.Catalog(ctx, sess)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/catalogs/%s/albums/%s/assets", cid, albumID)
	query := url.Values{"limit": {fmt.Sprint(listLimit)}}

	var photos []Photo
	for endpoint != "" {
		var page resourcePage
		if err := c.getJSON(ctx, sess, endpoint, query, &page); err != nil {
			return nil, notFound(err, "album", albumID)
		}
		for _, raw := range page.Resources {
			photo, err := MapPhoto(raw, albumID)
			if err != nil {
				return nil, err
			}
			photos = append(photos, photo)
		}
		endpoint = c.resolveLink(page.Base, page.link("next"))
		query = nil
	}
	return photos, nil
}

// PhotosPage returns one page of album assets plus absolute next/prev page
// URLs when the provider supplies them. pageURL, when non-empty, is an
// absolute URL from a previous page's links.
func (c *Client) PhotosPage(ctx context.Context, sess *session.Session, albumID string, limit int, pageURL string) ([]Photo, string, string, error) {
	cid, err := c.Catalog(ctx, sess)
	if err != nil {
		return nil, "", "", err
	}

	endpoint := pageURL
	var query url.Values
	if endpoint == "" {
		endpoint = fmt.Sprintf("/catalogs/%s/albums/%s/assets", cid, albumID)
		query = url.Values{"limit": {fmt.Sprint(limit)}}
	}

	var page resourcePage
	if err := c.getJSON(ctx, sess, endpoint, query, &page); err != nil {
		return nil, "", "", notFound(err, "album", albumID)
	}

	photos := make([]Photo, 0, len(page.Resources))
	for _, raw := range page.Resources {
		photo, err := MapPhoto(raw, albumID)
		if err != nil {
			return nil, "", "", err
		}
		photos = append(photos, photo)
	}

	next := c.resolveLink(page.Base, page.link("next"))
	prev := c.resolveLink(page.Base, page.link("prev"))
	return photos, next, prev, nil
}

// FirstAssetID probes for an album's first asset, used for cover thumbnails.
// Failures degrade to an empty id so a bad album cannot break the listing.
func (c *Client) FirstAssetID(ctx context.Context, sess *session.Session, albumID string) string {
	cid, err := c.Catalog(ctx, sess)
	if err != nil {
		logger.Warn("failed to resolve catalog for cover probe", zap.String("album", albumID), zap.Error(err))
		return ""
	}

	endpoint := fmt.Sprintf("/catalogs/%s/albums/%s/assets", cid, albumID)
	var page resourcePage
	if err := c.getJSON(ctx, sess, endpoint, url.Values{"limit": {"1"}}, &page); err != nil {
		logger.Warn("failed to fetch first asset", zap.String("album", albumID), zap.Error(err))
		return ""
	}
	if len(page.Resources) == 0 {
		return ""
	}

	photo, err := MapPhoto(page.Resources[0], albumID)
	if err != nil {
		logger.Warn("failed to map first asset", zap.String("album", albumID), zap.Error(err))
		return ""
	}
	return photo.ID
}

// Rendition fetches the binary rendition of an asset in the given size.
// Returns the image bytes and content type.
func (c *Client) Rendition(ctx context.Context, sess *session.Session, assetID, size string) ([]byte, string, error) {
	if !AllowedRenditions[size] {
		return nil, "", fmt.Errorf("unsupported rendition type %q", size)
	}

	cid, err := c.Catalog(ctx, sess)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.Call(ctx, sess, http.MethodGet, fmt.Sprintf("/catalogs/%s/assets/%s/renditions/%s", cid, assetID, size), nil)
	if err != nil {
		return nil, "", notFound(err, "asset", assetID)
	}

	contentType := resp.Headers.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return resp.Body, contentType, nil
}

// resolveLink resolves a pagination href against the page's base URL, per the
// Adobe links-and-pagination contract.
func (c *Client) resolveLink(base, href string) string {
	if href == "" {
		return ""
	}
	if base == "" {
		base = c.cfg.APIBaseURL + "/"
	}
	bu, err := url.Parse(base)
	if err != nil {
		return ""
	}
	hu, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return bu.ResolveReference(hu).String()
}

func notFound(err error, resource, id string) error {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Status == http.StatusNotFound {
		return &NotFoundError{Resource: resource, ID: id}
	}
	return err
}

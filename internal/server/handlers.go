// Package server is the web front end: a thin consumer of the session gate,
// the authorization flow and the Lightroom client. All provider-facing errors
// arrive here already translated into the typed taxonomy.
package server

import (
	"errors"
	"net/http"

	"github.com/lumina-photos/lumina/internal/auth"
	"github.com/lumina-photos/lumina/internal/config"
	"github.com/lumina-photos/lumina/internal/lightroom"
	"github.com/lumina-photos/lumina/internal/logger"
	"github.com/lumina-photos/lumina/internal/session"
	"github.com/lumina-photos/lumina/internal/utils"
	"go.uber.org/zap"
)

// Handler carries the HTTP handlers and their collaborators.
type Handler struct {
	gate    *session.Gate
	flow    *auth.Flow
	client  *lightroom.Client
	gallery *config.GalleryConfig
}

// NewHandler creates the web handler set.
func NewHandler(gate *session.Gate, flow *auth.Flow, client *lightroom.Client, gallery *config.GalleryConfig) *Handler {
	return &Handler{gate: gate, flow: flow, client: client, gallery: gallery}
}

// Routes builds the route table.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /login", h.handleLogin)
	mux.HandleFunc("GET /oauth/start", h.handleOAuthStart)
	mux.HandleFunc("GET /callback", h.handleCallback)
	mux.HandleFunc("GET /albums", h.handleAlbums)
	mux.HandleFunc("GET /api/albums", h.handleAlbumsAPI)
	mux.HandleFunc("GET /album/{album_id}", h.handleAlbum)
	mux.HandleFunc("GET /api/album/{album_id}/photos", h.handleAlbumPhotosAPI)
	mux.HandleFunc("GET /thumbnail/{asset_id}", h.handleThumbnail)
	mux.HandleFunc("GET /logout", h.handleLogout)
	return mux
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := h.gate.SessionFor(w, r)
	if ok, redirect := h.gate.RequireAuthenticated(sess); !ok {
		http.Redirect(w, r, redirect, http.StatusFound)
		return
	}
	http.Redirect(w, r, "/albums", http.StatusFound)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := h.gate.SessionFor(w, r)
	if ok, _ := h.gate.RequireAuthenticated(sess); ok {
		http.Redirect(w, r, "/albums", http.StatusFound)
		return
	}
	h.render(w, http.StatusOK, "login", nil)
}

func (h *Handler) handleOAuthStart(w http.ResponseWriter, r *http.Request) {
	sess := h.gate.SessionFor(w, r)
	if ok, _ := h.gate.RequireAuthenticated(sess); ok {
		http.Redirect(w, r, "/albums", http.StatusFound)
		return
	}

	authURL, err := h.flow.BuildAuthorizationURL(sess)
	if err != nil {
		logger.Error("failed to build authorization url", zap.Error(err))
		h.render(w, http.StatusInternalServerError, "error", "Could not start the login flow.")
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	sess := h.gate.SessionFor(w, r)

	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		desc := q.Get("error_description")
		if desc == "" {
			desc = errParam
		}
		logger.Warn("provider returned an authorization error", zap.String("error", errParam))
		sess.Reset()
		h.render(w, http.StatusBadRequest, "error", "Authentication error: "+desc)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.render(w, http.StatusBadRequest, "error", "No authorization code provided.")
		return
	}

	if _, err := h.flow.HandleCallback(r.Context(), sess, q.Get("state"), code); err != nil {
		var csrf *auth.CSRFError
		if errors.As(err, &csrf) {
			logger.Warn("callback rejected", zap.String("session", sess.ID), zap.Error(err))
			h.render(w, http.StatusForbidden, "error", "The login attempt could not be verified. Please try again.")
			return
		}
		h.render(w, http.StatusBadGateway, "error", "Authentication failed, please try again.")
		return
	}

	http.Redirect(w, r, "/albums", http.StatusFound)
}

func (h *Handler) handleAlbums(w http.ResponseWriter, r *http.Request) {
	sess := h.gate.SessionFor(w, r)
	if ok, redirect := h.gate.RequireAuthenticated(sess); !ok {
		http.Redirect(w, r, redirect, http.StatusFound)
		return
	}

	albums, next, err := h.client.AlbumsPage(r.Context(), sess, h.gallery.AlbumsPerPage, "")
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	for i := range albums {
		albums[i].CoverAssetID = h.client.FirstAssetID(r.Context(), sess, albums[i].ID)
	}

	h.render(w, http.StatusOK, "albums", map[string]interface{}{
		"Albums":        albums,
		"NextNameAfter": next,
	})
}

func (h *Handler) handleAlbumsAPI(w http.ResponseWriter, r *http.Request) {
	sess := h.gate.SessionFor(w, r)
	if ok, _ := h.gate.RequireAuthenticated(sess); !ok {
		utils.WriteError(w, "unauthorized", "Authentication required", http.StatusUnauthorized)
		return
	}

	nameAfter := r.URL.Query().Get("name_after")
	if nameAfter == "" {
		utils.WriteError(w, "invalid_request", "name_after parameter required", http.StatusBadRequest)
		return
	}

	albums, next, err := h.client.AlbumsPage(r.Context(), sess, h.gallery.AlbumsPerPage, nameAfter)
	if err != nil {
		h.writeAPIFailure(w, err)
		return
	}

	payload := make([]map[string]interface{}, 0, len(albums))
	for _, album := range albums {
		payload = append(payload, map[string]interface{}{
			"id":             album.ID,
			"name":           album.Name,
			"photo_count":    album.PhotoCount,
			"cover_asset_id": h.client.FirstAssetID(r.Context(), sess, album.ID),
		})
	}

	utils.WriteJSON(w, map[string]interface{}{
		"albums":          payload,
		"next_name_after": next,
	})
}

func (h *Handler) handleAlbum(w http.ResponseWriter, r *http.Request) {
	sess := h.gate.SessionFor(w, r)
	if ok, redirect := h.gate.RequireAuthenticated(sess); !ok {
		http.Redirect(w, r, redirect, http.StatusFound)
		return
	}

	albumID := r.PathValue("album_id")
	album, err := h.client.GetAlbum(r.Context(), sess, albumID)
	if err != nil {
		var nf *lightroom.NotFoundError
		if errors.As(err, &nf) {
			// Unknown album renders as an empty gallery, no session mutation
			h.render(w, http.StatusNotFound, "gallery", map[string]interface{}{
				"Album":  lightroom.Album{ID: albumID, Name: "Album not found"},
				"Photos": []lightroom.Photo{},
			})
			return
		}
		h.renderFailure(w, r, err)
		return
	}

	photos, next, prev, err := h.client.PhotosPage(r.Context(), sess, albumID, h.gallery.PhotosPerPage, r.URL.Query().Get("page_url"))
	if err != nil {
		h.renderFailure(w, r, err)
		return
	}

	h.render(w, http.StatusOK, "gallery", map[string]interface{}{
		"Album":   album,
		"Photos":  photos,
		"NextURL": next,
		"PrevURL": prev,
	})
}

func (h *Handler) handleAlbumPhotosAPI(w http.ResponseWriter, r *http.Request) {
	sess := h.gate.SessionFor(w, r)
	if ok, _ := h.gate.RequireAuthenticated(sess); !ok {
		utils.WriteError(w, "unauthorized", "Authentication required", http.StatusUnauthorized)
		return
	}

	pageURL := r.URL.Query().Get("page_url")
	if pageURL == "" {
		utils.WriteError(w, "invalid_request", "page_url parameter required", http.StatusBadRequest)
		return
	}

	albumID := r.PathValue("album_id")
	photos, next, _, err := h.client.PhotosPage(r.Context(), sess, albumID, h.gallery.PhotosPerPage, pageURL)
	if err != nil {
		h.writeAPIFailure(w, err)
		return
	}

	payload := make([]map[string]interface{}, 0, len(photos))
	for _, photo := range photos {
		payload = append(payload, map[string]interface{}{
			"asset_id":      photo.ID,
			"filename":      photo.Filename,
			"thumbnail_url": photo.ThumbnailURL,
		})
	}

	utils.WriteJSON(w, map[string]interface{}{
		"photos":   payload,
		"next_url": next,
	})
}

func (h *Handler) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	sess := h.gate.SessionFor(w, r)
	if ok, _ := h.gate.RequireAuthenticated(sess); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	size := r.URL.Query().Get("type")
	if size == "" {
		size = "thumbnail2x"
	}
	if !lightroom.AllowedRenditions[size] {
		http.Error(w, "Invalid rendition type", http.StatusBadRequest)
		return
	}

	data, contentType, err := h.client.Rendition(r.Context(), sess, r.PathValue("asset_id"), size)
	if err != nil {
		var nf *lightroom.NotFoundError
		if errors.As(err, &nf) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		logger.Error("failed to fetch rendition", zap.Error(err))
		http.Error(w, "Error fetching image", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(data); err != nil {
		logger.Error("failed to write rendition response", zap.Error(err))
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := h.gate.SessionFor(w, r)
	h.gate.Logout(w, sess)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// renderFailure maps the typed error taxonomy to the HTML views. Raw
// transport and JSON failures never reach this point untyped.
func (h *Handler) renderFailure(w http.ResponseWriter, r *http.Request, err error) {
	var (
		expired   *auth.AuthExpiredError
		transport *auth.TransportError
		provider  *lightroom.ProviderError
		malformed *lightroom.MalformedResponseError
		exchange  *auth.TokenExchangeError
	)
	switch {
	case errors.As(err, &expired):
		http.Redirect(w, r, "/login", http.StatusFound)
	case errors.As(err, &transport):
		logger.Warn("transient provider failure", zap.Error(err))
		h.render(w, http.StatusServiceUnavailable, "error", "The photo service is temporarily unreachable. Please try again.")
	case errors.As(err, &exchange):
		h.render(w, http.StatusBadGateway, "error", "Authentication failed, please try again.")
	case errors.As(err, &provider):
		logger.Error("provider error", zap.Int("status", provider.Status), zap.String("code", provider.Code))
		h.render(w, http.StatusBadGateway, "error", "The photo service returned an error.")
	case errors.As(err, &malformed):
		logger.Error("malformed provider response", zap.Error(err))
		h.render(w, http.StatusBadGateway, "error", "The photo service returned an unexpected response.")
	default:
		logger.Error("unexpected failure", zap.Error(err))
		h.render(w, http.StatusInternalServerError, "error", "Unexpected error.")
	}
}

func (h *Handler) writeAPIFailure(w http.ResponseWriter, err error) {
	var (
		expired   *auth.AuthExpiredError
		transport *auth.TransportError
		notFound  *lightroom.NotFoundError
	)
	switch {
	case errors.As(err, &expired):
		utils.WriteError(w, "auth_expired", "Authentication expired, login required", http.StatusUnauthorized)
	case errors.As(err, &notFound):
		utils.WriteError(w, "not_found", err.Error(), http.StatusNotFound)
	case errors.As(err, &transport):
		utils.WriteError(w, "unavailable", "Provider temporarily unreachable", http.StatusServiceUnavailable)
	default:
		logger.Error("api failure", zap.Error(err))
		utils.WriteError(w, "provider_error", "Service error", http.StatusBadGateway)
	}
}

func (h *Handler) render(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := views.ExecuteTemplate(w, name, data); err != nil {
		logger.Error("failed to render view", zap.String("view", name), zap.Error(err))
	}
}

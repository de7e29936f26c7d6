package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"AriaVault/cache"
	"AriaVault/config"
	"AriaVault/core/catalog"
	"AriaVault/core/gate"
	"AriaVault/core/identity"
	"AriaVault/logger"
	"AriaVault/storage"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	cfg      *config.Config
	store    storage.CatalogStore
	gate     *gate.Gate
	resolver *catalog.Resolver
	ids      *identity.Resolver
	listings *cache.ListingCache
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	cfg *config.Config,
	store storage.CatalogStore,
	g *gate.Gate,
	resolver *catalog.Resolver,
	ids *identity.Resolver,
	listings *cache.ListingCache,
) *APIHandler {
	return &APIHandler{
		cfg:      cfg,
		store:    store,
		gate:     g,
		resolver: resolver,
		ids:      ids,
		listings: listings,
	}
}

// uploadRequest is the POST /upload body.
type uploadRequest struct {
	FileName string `json:"fileName"`
	Playlist string `json:"playlist"`
	File     string `json:"file"` // base64-encoded payload
}

// UploadHandler admits an audio file into the caller's scoped playlist
// prefix. The stored key is built from the resolved identity, never from a
// caller-supplied absolute path.
func (h *APIHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	ident, err := IdentityFromContext(r.Context())
	if err != nil {
		respondClientError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondClientError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FileName == "" || req.Playlist == "" {
		respondClientError(w, http.StatusBadRequest, "fileName and playlist are required")
		return
	}

	payload, err := base64.StdEncoding.DecodeString(req.File)
	if err != nil {
		respondClientError(w, http.StatusBadRequest, "file must be base64-encoded")
		return
	}

	key := catalog.PlaylistPrefix(ident, req.Playlist) + req.FileName
	track, err := h.gate.Admit(r.Context(), key, req.FileName, payload)
	if err != nil {
		var vErr *gate.ValidationError
		if errors.As(err, &vErr) {
			respondClientError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		respondUpstreamError(w, r, "Failed to store track", err)
		return
	}

	// The scope gained a possibly-new playlist folder. The admin root view
	// lists this subject's folder too, so its cached listing goes as well.
	scope := catalog.ScopePrefix(ident)
	h.listings.Invalidate(r.Context(), scope)
	if scope != catalog.RootPrefix {
		h.listings.Invalidate(r.Context(), catalog.RootPrefix)
	}

	logger.Info("Track uploaded",
		logger.String("subject", ident.SubjectID),
		logger.String("playlist", req.Playlist),
		logger.String("key", track.Key),
		logger.String("format", string(track.Format)),
	)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Track uploaded successfully",
	})
}

// PlaylistsHandler serves GET /playlists. Without a query parameter it
// lists the playlist names visible to the caller; with ?playlist={name} it
// lists that playlist's tracks with signed playback URLs.
func (h *APIHandler) PlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	ident, err := IdentityFromContext(r.Context())
	if err != nil {
		respondClientError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	name := r.URL.Query().Get("playlist")
	if name == "" {
		playlists, err := h.resolver.ListPlaylists(r.Context(), ident)
		if err != nil {
			respondUpstreamError(w, r, "Failed to list playlists", err)
			return
		}
		logger.Debug("Listed playlists",
			logger.String("subject", ident.SubjectID),
			logger.String("role", string(ident.Role)),
			logger.Int("count", len(playlists)),
		)
		respondJSON(w, http.StatusOK, map[string]interface{}{"playlists": playlists})
		return
	}

	songs, err := h.resolver.ListTracks(r.Context(), ident, name)
	if err != nil {
		respondUpstreamError(w, r, "Failed to list tracks", err)
		return
	}
	logger.Debug("Listed tracks",
		logger.String("subject", ident.SubjectID),
		logger.String("playlist", name),
		logger.Int("count", len(songs)),
	)
	respondJSON(w, http.StatusOK, map[string]interface{}{"songs": songs})
}

// HealthHandler reports store and cache reachability.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"store": "ok", "cache": "ok"}
	code := http.StatusOK

	if err := h.store.Ping(r.Context()); err != nil {
		status["store"] = "unreachable"
		code = http.StatusServiceUnavailable
	}
	if err := h.listings.Ping(r.Context()); err != nil {
		// cache is best-effort, degraded but serving
		status["cache"] = "unreachable"
	}

	respondJSON(w, code, status)
}

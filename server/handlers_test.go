package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"AriaVault/cache"
	"AriaVault/config"
	"AriaVault/core/catalog"
	"AriaVault/core/gate"
	"AriaVault/core/identity"
	"AriaVault/model"
	"AriaVault/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

// memStore is an in-memory CatalogStore over a flat key list.
type memStore struct {
	keys []string
}

func (m *memStore) ListFolders(_ context.Context, prefix string) ([]string, error) {
	seen := map[string]bool{}
	var names []string
	for _, key := range m.keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		idx := strings.Index(rest, "/")
		if idx <= 0 {
			continue
		}
		if name := rest[:idx]; !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

func (m *memStore) ListObjects(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var objects []storage.ObjectInfo
	for _, key := range m.keys {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, storage.ObjectInfo{Key: key})
		}
	}
	return objects, nil
}

func (m *memStore) PutObject(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if _, err := io.ReadAll(r); err != nil {
		return err
	}
	m.keys = append(m.keys, key)
	return nil
}

func (m *memStore) Ping(context.Context) error { return nil }

// stubSigner mints recognizable URLs without touching crypto.
type stubSigner struct{}

func (stubSigner) Sign(_ context.Context, objectKey string) (model.SignedURL, error) {
	return model.SignedURL{URL: "https://cdn.test/" + objectKey + "?Signature=stub"}, nil
}

func newTestHandler(store *memStore) *APIHandler {
	return newTestHandlerWithCache(store, cache.NewListingCache(nil))
}

func newTestHandlerWithCache(store *memStore, listings *cache.ListingCache) *APIHandler {
	cfg := &config.Config{
		JWTSecret:  testJWTSecret,
		AdminGroup: "catalog-admins",
	}
	resolver := catalog.NewResolver(store, stubSigner{}, listings)
	return NewAPIHandler(cfg, store, gate.New(store), resolver, identity.NewResolver(cfg.AdminGroup), listings)
}

func makeToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return token
}

func doRequest(h *APIHandler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func authedRequest(t *testing.T, method, target string, body []byte, claims jwt.MapClaims) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+makeToken(t, claims))
	return req
}

var clientClaims = jwt.MapClaims{"sub": "u1", "groups": []string{"listeners"}}

func TestUploadThenListRoundTrip(t *testing.T) {
	store := &memStore{}
	h := newTestHandler(store)

	body, err := json.Marshal(map[string]string{
		"fileName": "track1.mp3",
		"playlist": "party",
		"file":     base64.StdEncoding.EncodeToString([]byte("frames")),
	})
	require.NoError(t, err)

	rec := doRequest(h, authedRequest(t, http.MethodPost, "/upload", body, clientClaims))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, store.keys, "playlists/u1/party/track1.mp3")

	rec = doRequest(h, authedRequest(t, http.MethodGet, "/playlists", nil, clientClaims))
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Playlists []string `json:"playlists"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listResp))
	assert.Equal(t, []string{"party"}, listResp.Playlists)

	rec = doRequest(h, authedRequest(t, http.MethodGet, "/playlists?playlist=party", nil, clientClaims))
	require.Equal(t, http.StatusOK, rec.Code)
	var songsResp struct {
		Songs []model.SongEntry `json:"songs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &songsResp))
	require.Len(t, songsResp.Songs, 1)
	assert.Equal(t, "track1.mp3", songsResp.Songs[0].Name)
	assert.NotEmpty(t, songsResp.Songs[0].URL)
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	store := &memStore{}
	h := newTestHandler(store)

	body, _ := json.Marshal(map[string]string{
		"fileName": "notes.txt",
		"playlist": "party",
		"file":     base64.StdEncoding.EncodeToString([]byte("plain text")),
	})

	rec := doRequest(h, authedRequest(t, http.MethodPost, "/upload", body, clientClaims))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.keys, "rejected upload must not store anything")
}

func TestUploadRejectsBadBase64(t *testing.T) {
	h := newTestHandler(&memStore{})

	body, _ := json.Marshal(map[string]string{
		"fileName": "track1.mp3",
		"playlist": "party",
		"file":     "%%% not base64 %%%",
	})

	rec := doRequest(h, authedRequest(t, http.MethodPost, "/upload", body, clientClaims))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestsWithoutTokenRejected(t *testing.T) {
	h := newTestHandler(&memStore{})

	req := httptest.NewRequest(http.MethodGet, "/playlists", nil)
	rec := doRequest(h, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenWithoutSubjectRejected(t *testing.T) {
	h := newTestHandler(&memStore{})

	req := authedRequest(t, http.MethodGet, "/playlists", nil, jwt.MapClaims{"groups": []string{"listeners"}})
	rec := doRequest(h, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenWithWrongSignatureRejected(t *testing.T) {
	h := newTestHandler(&memStore{})

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, clientClaims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/playlists", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := doRequest(h, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(&memStore{})

	req := authedRequest(t, http.MethodPut, "/playlists", nil, clientClaims)
	rec := doRequest(h, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestClientCannotSeeOtherSubjects(t *testing.T) {
	store := &memStore{keys: []string{
		"playlists/u2/secret/hidden.mp3",
		"playlists/shared/anthem.aac",
	}}
	h := newTestHandler(store)

	rec := doRequest(h, authedRequest(t, http.MethodGet, "/playlists", nil, clientClaims))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Playlists []string `json:"playlists"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Playlists)
}

func TestAdminSeesTopLevelNamespace(t *testing.T) {
	store := &memStore{keys: []string{
		"playlists/u1/party/track1.mp3",
		"playlists/u2/secret/hidden.mp3",
		"playlists/shared/anthem.aac",
	}}
	h := newTestHandler(store)

	adminClaims := jwt.MapClaims{"sub": "ops-1", "groups": []string{"catalog-admins"}}
	rec := doRequest(h, authedRequest(t, http.MethodGet, "/playlists", nil, adminClaims))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Playlists []string `json:"playlists"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []string{"u1", "u2", "shared"}, resp.Playlists)
}

func TestEmptyPlaylistIsEmptyNotError(t *testing.T) {
	h := newTestHandler(&memStore{keys: []string{"playlists/u1/party/track1.mp3"}})

	rec := doRequest(h, authedRequest(t, http.MethodGet, "/playlists?playlist=othersPlaylist", nil, clientClaims))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Songs []model.SongEntry `json:"songs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Songs)
}

func TestUploadInvalidatesListingCaches(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	listings := cache.NewListingCache(client)
	h := newTestHandlerWithCache(&memStore{}, listings)
	ctx := context.Background()

	listings.Put(ctx, "playlists/u1/", []string{"stale"})
	listings.Put(ctx, "playlists/", []string{"stale-root"})

	body, err := json.Marshal(map[string]string{
		"fileName": "track1.mp3",
		"playlist": "party",
		"file":     base64.StdEncoding.EncodeToString([]byte("frames")),
	})
	require.NoError(t, err)

	rec := doRequest(h, authedRequest(t, http.MethodPost, "/upload", body, clientClaims))
	require.Equal(t, http.StatusOK, rec.Code)

	_, ok := listings.Get(ctx, "playlists/u1/")
	assert.False(t, ok, "uploader scope listing must be dropped")
	_, ok = listings.Get(ctx, "playlists/")
	assert.False(t, ok, "admin root listing must be dropped too")
}

func TestHealthz(t *testing.T) {
	t.Run("cache configured", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		h := newTestHandlerWithCache(&memStore{}, cache.NewListingCache(client))

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := doRequest(h, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp["store"])
		assert.Equal(t, "ok", resp["cache"])
	})

	t.Run("cache missing is degraded not down", func(t *testing.T) {
		h := newTestHandler(&memStore{})

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := doRequest(h, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp["store"])
		assert.Equal(t, "unreachable", resp["cache"])
	})
}

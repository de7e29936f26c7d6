package model

import "time"

// Role 表示调用者的访问角色
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Identity is the caller's resolved identity. It is derived once per request
// from upstream-verified claims and must not be re-derived from raw headers
// anywhere below the HTTP boundary.
type Identity struct {
	SubjectID string `json:"subjectId"`
	Role      Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// AudioFormat 表示音频文件格式
type AudioFormat string

const (
	FormatWAV AudioFormat = "wav"
	FormatMP3 AudioFormat = "mp3"
	FormatAAC AudioFormat = "aac"
)

// SharedRootScope marks a playlist living at the top level of the key
// space rather than under a subject's folder.
const SharedRootScope = "shared-root"

// PlaylistRef identifies a playlist as a derived view over the storage key
// space. Playlists are never stored as records; one exists exactly when at
// least one track sits under its prefix.
type PlaylistRef struct {
	Scope string `json:"scope"` // subject id, or SharedRootScope for top-level playlists
	Name  string `json:"name"`
}

// Track 表示目录中的一个音轨
type Track struct {
	Key      string      `json:"key"`      // full storage path
	FileName string      `json:"fileName"` // last path segment
	Format   AudioFormat `json:"format"`
}

// SignedURL is a time-bounded playback URL. Generated per request, per
// track, and discarded after the response is sent - never persisted.
type SignedURL struct {
	URL       string    `json:"url"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SongEntry 是播放列表响应中的一个条目
type SongEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

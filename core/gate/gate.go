package gate

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"AriaVault/model"
	"AriaVault/storage"
)

// ValidationError rejects an upload whose extension is not an allowed audio
// format. Maps to a client-visible 400.
type ValidationError struct {
	FileName string
	Ext      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("unsupported audio format %q for file %q (allowed: wav, mp3, aac)", e.Ext, e.FileName)
}

// contentTypes maps an admitted format to its MIME type.
var contentTypes = map[model.AudioFormat]string{
	model.FormatWAV: "audio/wav",
	model.FormatMP3: "audio/mpeg",
	model.FormatAAC: "audio/aac",
}

// Format derives the audio format from a file name's extension,
// case-insensitively. Reports false for any extension outside the allowed
// set, or when there is no extension at all.
func Format(fileName string) (model.AudioFormat, bool) {
	idx := strings.LastIndex(fileName, ".")
	if idx < 0 || idx == len(fileName)-1 {
		return "", false
	}
	ext := strings.ToLower(fileName[idx+1:])
	switch f := model.AudioFormat(ext); f {
	case model.FormatWAV, model.FormatMP3, model.FormatAAC:
		return f, true
	}
	return "", false
}

// ContentType returns the deterministic MIME type for a format. The generic
// fallback cannot occur for formats that passed Format, but keeps the
// mapping total.
func ContentType(f model.AudioFormat) string {
	if ct, ok := contentTypes[f]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Gate 在音轨进入目录存储前进行格式校验
type Gate struct {
	store storage.CatalogStore
}

// New 创建一个上传校验门
func New(store storage.CatalogStore) *Gate {
	return &Gate{store: store}
}

// Admit validates fileName's extension and, on acceptance, writes the
// payload to the catalog store under key unchanged. Path sanitation is an
// explicit upstream responsibility, not this gate's.
func (g *Gate) Admit(ctx context.Context, key, fileName string, payload []byte) (*model.Track, error) {
	format, ok := Format(fileName)
	if !ok {
		ext := ""
		if idx := strings.LastIndex(fileName, "."); idx >= 0 {
			ext = strings.ToLower(fileName[idx+1:])
		}
		return nil, &ValidationError{FileName: fileName, Ext: ext}
	}

	contentType := ContentType(format)
	if err := g.store.PutObject(ctx, key, bytes.NewReader(payload), int64(len(payload)), contentType); err != nil {
		return nil, fmt.Errorf("failed to store track %s: %w", key, err)
	}

	return &model.Track{
		Key:      key,
		FileName: fileName,
		Format:   format,
	}, nil
}

package api

import (
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/samcharles93/ktxload/internal/transcode"
)

type textureRecord struct {
	ID           string
	Digest       string
	Capabilities string
	Texture      *transcode.Texture
	CreatedAt    time.Time
}

// TextureStore keeps decoded textures in memory. Uploads are keyed by the
// blake3 digest of the container plus the capability set, so a repeated
// upload returns the stored texture instead of transcoding again.
type TextureStore struct {
	mu       sync.Mutex
	textures map[string]*textureRecord
	byKey    map[string]string
}

func NewTextureStore() *TextureStore {
	return &TextureStore{
		textures: make(map[string]*textureRecord),
		byKey:    make(map[string]string),
	}
}

// Digest returns the hex blake3-256 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func storeKey(digest string, caps transcode.Capabilities) string {
	return digest + "/" + caps.String()
}

func (s *TextureStore) Lookup(digest string, caps transcode.Capabilities) (*textureRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byKey[storeKey(digest, caps)]
	if !ok {
		return nil, false
	}
	rec, ok := s.textures[id]
	return rec, ok
}

// Save stores tex unless an identical upload raced it, in which case the
// earlier record is returned.
func (s *TextureStore) Save(digest string, caps transcode.Capabilities, tex *transcode.Texture, now time.Time) *textureRecord {
	key := storeKey(digest, caps)
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byKey[key]; ok {
		if rec, ok := s.textures[id]; ok {
			return rec
		}
	}
	rec := &textureRecord{
		ID:           newTextureID(),
		Digest:       digest,
		Capabilities: caps.String(),
		Texture:      tex,
		CreatedAt:    now,
	}
	s.textures[rec.ID] = rec
	s.byKey[key] = rec.ID
	return rec
}

func (s *TextureStore) Get(id string) (*textureRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.textures[id]
	return rec, ok
}

func (s *TextureStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.textures[id]
	if !ok {
		return false
	}
	delete(s.textures, id)
	for key, other := range s.byKey {
		if other == rec.ID {
			delete(s.byKey, key)
		}
	}
	return true
}

func (s *TextureStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.textures)
}

func newTextureID() string {
	return "tex_" + uuid.NewString()
}

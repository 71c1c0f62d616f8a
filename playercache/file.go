package playercache

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ytget/ytstream/types"
)

// FileCache is a durable Cache, one JSON file per player version. Writes go
// through a temp file and rename so readers never observe partial entries.
type FileCache struct {
	rootDir string
	ttl     time.Duration
}

// NewFileCache creates a file-backed cache under rootDir, creating the
// directory if needed. ttl<=0 uses DefaultTTL.
func NewFileCache(rootDir string, ttl time.Duration) (*FileCache, error) {
	if rootDir == "" {
		return nil, errors.New("rootDir is required")
	}
	if err := os.MkdirAll(rootDir, 0o755); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FileCache{rootDir: rootDir, ttl: ttl}, nil
}

func (c *FileCache) filenameForVersion(version string) string {
	sum := sha256.Sum256([]byte(version))
	name := fmt.Sprintf("%x.json", sum[:])
	return filepath.Join(c.rootDir, name)
}

type fileEntry struct {
	Set       types.PlayerFunctionSet `json:"set"`
	ExpiresAt time.Time               `json:"expiresAt"`
}

func (c *FileCache) Get(version string) (types.PlayerFunctionSet, bool) {
	fn := c.filenameForVersion(version)
	b, err := os.ReadFile(fn)
	if err != nil {
		return types.PlayerFunctionSet{}, false
	}
	var e fileEntry
	if err := json.Unmarshal(b, &e); err != nil {
		_ = os.Remove(fn)
		return types.PlayerFunctionSet{}, false
	}
	if time.Until(e.ExpiresAt) <= 0 {
		_ = os.Remove(fn)
		return types.PlayerFunctionSet{}, false
	}
	return e.Set, true
}

func (c *FileCache) Put(version string, set types.PlayerFunctionSet) {
	fn := c.filenameForVersion(version)
	tmp := fn + ".tmp"
	e := fileEntry{Set: set, ExpiresAt: time.Now().Add(c.ttl)}
	b, _ := json.Marshal(e)
	_ = os.WriteFile(tmp, b, fs.FileMode(0o644))
	_ = os.Rename(tmp, fn)
}

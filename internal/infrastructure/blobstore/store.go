// Package blobstore persists serialized coverage results for merge mode.
// Each invocation writes one blob named <provider>-<uuid>.json.
package blobstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/coverkit/internal/pathutil"
)

// BlobExt is the extension of every blob file.
const BlobExt = ".json"

// ErrNoBlobs is returned when the inputs expand to no blob files.
var ErrNoBlobs = errors.New("no coverage blobs found")

// FileStore stores blobs in a single directory.
type FileStore struct {
	Dir string
}

// Note: fileLock and acquireLock/release are defined in platform-specific files:
// - lock_unix.go for Unix systems (Linux, macOS, BSD)
// - lock_windows.go for Windows

// Save writes data as a new blob and returns its path. The blob appears
// atomically so that concurrent shards writing to a shared directory never
// observe partial files.
func (s FileStore) Save(provider string, data []byte) (string, error) {
	if s.Dir == "" {
		return "", errors.New("blob directory not set")
	}
	if provider == "" || strings.ContainsAny(provider, `/\`) {
		return "", fmt.Errorf("invalid provider name %q", provider)
	}
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return "", err
	}

	lock, err := s.acquireLock()
	if err != nil {
		return "", fmt.Errorf("lock blob directory: %w", err)
	}
	defer func() { _ = lock.release() }()

	path := filepath.Join(s.Dir, provider+"-"+uuid.NewString()+BlobExt)
	tmp, err := os.CreateTemp(s.Dir, ".blob-*")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return path, nil
}

// Load reads one blob.
func (s FileStore) Load(path string) ([]byte, error) {
	clean, err := pathutil.ValidatePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid blob path: %w", err)
	}
	// #nosec G304 - path is validated above
	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return data, nil
}

// Expand turns files and directories into a sorted, de-duplicated list of
// blob paths. Directories contribute their *.json files, not recursively.
func (s FileStore) Expand(paths []string) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("blob input %s: %w", p, err)
		}
		if !info.IsDir() {
			add(filepath.Clean(p))
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != BlobExt || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			add(filepath.Join(p, e.Name()))
		}
	}
	if len(out) == 0 {
		return nil, ErrNoBlobs
	}
	sort.Strings(out)
	return out, nil
}

package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"recordcore/internal/blob/core"
)

// Store persists blobs on the local filesystem. Each object is written
// as a data file plus a sidecar <key>.meta JSON file holding its Info.
type Store struct {
	root string
}

const metaSuffix = ".meta"

func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("filesystem blob root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverFilesystem }

// sanitizeKey rejects keys that would escape the root directory.
func sanitizeKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("blob key required")
	}
	clean := filepath.ToSlash(filepath.Clean("/" + key))
	clean = strings.TrimPrefix(clean, "/")
	if clean == "" || clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	if strings.HasSuffix(clean, metaSuffix) {
		return "", fmt.Errorf("blob key %q uses reserved suffix", key)
	}
	return clean, nil
}

func (s *Store) paths(key string) (dataPath, metaPath string, err error) {
	clean, err := sanitizeKey(key)
	if err != nil {
		return "", "", err
	}
	dataPath = filepath.Join(s.root, filepath.FromSlash(clean))
	return dataPath, dataPath + metaSuffix, nil
}

func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, err
	}
	if _, err := os.Stat(dataPath); err == nil {
		return core.Info{}, fmt.Errorf("blob %s already exists", key)
	}
	if err := os.MkdirAll(filepath.Dir(dataPath), 0o755); err != nil {
		return core.Info{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dataPath), ".put-*")
	if err != nil {
		return core.Info{}, err
	}
	defer os.Remove(tmp.Name())
	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), r)
	if err != nil {
		tmp.Close()
		return core.Info{}, err
	}
	if err := tmp.Close(); err != nil {
		return core.Info{}, err
	}
	info := core.Info{
		Key:          key,
		Size:         size,
		ContentType:  opts.ContentType,
		ETag:         hex.EncodeToString(hasher.Sum(nil)),
		Metadata:     opts.Metadata,
		LastModified: time.Now().UTC(),
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return core.Info{}, err
	}
	if err := os.WriteFile(metaPath, meta, 0o644); err != nil {
		return core.Info{}, err
	}
	if err := os.Rename(tmp.Name(), dataPath); err != nil {
		os.Remove(metaPath)
		return core.Info{}, err
	}
	return info, nil
}

func (s *Store) readMeta(metaPath string) (core.Info, error) {
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		return core.Info{}, err
	}
	var info core.Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return core.Info{}, fmt.Errorf("decode blob metadata: %w", err)
	}
	return info, nil
}

func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, nil, err
	}
	info, err := s.readMeta(metaPath)
	if err != nil {
		return core.Info{}, nil, fmt.Errorf("blob %s not found", key)
	}
	f, err := os.Open(dataPath)
	if err != nil {
		return core.Info{}, nil, fmt.Errorf("blob %s not found", key)
	}
	return info, f, nil
}

func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	_, metaPath, err := s.paths(key)
	if err != nil {
		return core.Info{}, err
	}
	info, err := s.readMeta(metaPath)
	if err != nil {
		return core.Info{}, fmt.Errorf("blob %s not found", key)
	}
	return info, nil
}

func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return false, err
	}
	_, statErr := os.Stat(dataPath)
	existed := statErr == nil
	if err := os.Remove(dataPath); err != nil && !os.IsNotExist(err) {
		return false, err
	}
	if err := os.Remove(metaPath); err != nil && !os.IsNotExist(err) {
		return existed, err
	}
	return existed, nil
}

func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	var infos []core.Info
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, metaSuffix) {
			return nil
		}
		info, err := s.readMeta(path)
		if err != nil {
			return err
		}
		if prefix == "" || strings.HasPrefix(info.Key, prefix) {
			infos = append(infos, info)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *Store) PresignURL(context.Context, string, core.SignedURLOptions) (string, error) {
	return "", core.ErrUnsupported
}

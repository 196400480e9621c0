package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// schemaVersion is bumped whenever a new namespace is introduced. Version 1
// carried only the session namespace; version 2 added settings.
const schemaVersion = 2

const versionFile = "schema_version"

var namespaces = []string{"settings", "session"}

// Store is a file-backed namespaced key-value store: one file per key under
// <base>/<namespace>/. Writes go through a temp file and rename so a crash
// mid-write never leaves a torn value behind.
type Store struct {
	basePath string
}

func New(basePath string) (*Store, error) {
	if basePath == "" {
		basePath = "./data/kv"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	s := &Store{basePath: basePath}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// migrate creates missing namespace directories idempotently and records the
// schema version. Re-running against an up-to-date store is a no-op.
func (s *Store) migrate() error {
	current := 0
	raw, err := os.ReadFile(filepath.Join(s.basePath, versionFile))
	if err == nil {
		current, _ = strconv.Atoi(strings.TrimSpace(string(raw)))
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, namespace := range namespaces {
		if err := os.MkdirAll(filepath.Join(s.basePath, namespace), 0o755); err != nil {
			return fmt.Errorf("create namespace %s: %w", namespace, err)
		}
	}

	if current != schemaVersion {
		version := []byte(strconv.Itoa(schemaVersion) + "\n")
		if err := os.WriteFile(filepath.Join(s.basePath, versionFile), version, 0o644); err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
	}
	return nil
}

func (s *Store) Get(_ context.Context, namespace, key string) ([]byte, bool, error) {
	path, err := s.entryPath(namespace, key)
	if err != nil {
		return nil, false, err
	}
	value, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s/%s: %w", namespace, key, err)
	}
	return value, true, nil
}

func (s *Store) Put(_ context.Context, namespace, key string, value []byte) error {
	path, err := s.entryPath(namespace, key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), key+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s/%s: %w", namespace, key, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s/%s: %w", namespace, key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("sync %s/%s: %w", namespace, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s/%s: %w", namespace, key, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("commit %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, namespace, key string) error {
	path, err := s.entryPath(namespace, key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *Store) entryPath(namespace, key string) (string, error) {
	if !validComponent(namespace) || !validComponent(key) {
		return "", fmt.Errorf("invalid store reference %q/%q", namespace, key)
	}
	return filepath.Join(s.basePath, namespace, key), nil
}

func validComponent(name string) bool {
	if name == "" || name == versionFile {
		return false
	}
	return !strings.ContainsAny(name, "/\\") && name != "." && name != ".."
}

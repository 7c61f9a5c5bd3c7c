// Package mirror maintains a denormalized JSON snapshot file per bot,
// kept in sync with the record store by the bot service. The mirror is a
// derived cache: it is rebuildable from the store and never authoritative.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/intellibotic/bot-api/internal/config"
	"go.uber.org/zap"
)

// Store defines the interface for bot mirror file operations
type Store interface {
	// Write serializes config as pretty-printed JSON under the derived
	// filename, overwriting any existing file.
	Write(ctx context.Context, id uuid.UUID, name string, config json.RawMessage) error
	// Delete removes the mirror file for (id, name); absent files are a no-op.
	Delete(ctx context.Context, id uuid.UUID, name string) error
	// List returns the mirror filenames currently present (reconcile support).
	List(ctx context.Context) ([]string, error)
	// Remove deletes a mirror file by its raw filename; absent files are a no-op.
	Remove(ctx context.Context, filename string) error
}

// NewStore creates a mirror store based on configuration.
// Local mode keeps files on the filesystem; cloud/azure mode keeps them in
// an Azure Blob container.
func NewStore(cfg *config.MirrorConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Mode {
	case "local":
		return NewLocalStore(cfg.LocalBasePath)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure mirror")
		}
		return NewAzureBlobStore(cfg.CloudConnectionString, cfg.CloudContainer, logger)
	default:
		return nil, fmt.Errorf("unsupported mirror mode: %s", cfg.Mode)
	}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeFilename strips every character outside [A-Za-z0-9_-] and
// lowercases the result. Two distinct (id, name) pairs can collide after
// sanitization; that risk is documented and deliberately not resolved here.
func SanitizeFilename(s string) string {
	return strings.ToLower(unsafeChars.ReplaceAllString(s, ""))
}

// Filename derives the mirror filename for a bot from its id and name.
// Renames therefore move the mirror file to a new derived name.
func Filename(id uuid.UUID, name string) string {
	return SanitizeFilename(fmt.Sprintf("%s_%s", id, name)) + ".json"
}

// LocalStore implements Store on the local filesystem
type LocalStore struct {
	basePath string
}

// NewLocalStore creates a local mirror store, creating the root directory
// if it does not exist
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create mirror directory: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// Path returns the full path of the mirror file for (id, name)
func (s *LocalStore) Path(id uuid.UUID, name string) string {
	return filepath.Join(s.basePath, Filename(id, name))
}

func (s *LocalStore) Write(ctx context.Context, id uuid.UUID, name string, config json.RawMessage) error {
	data, err := prettyJSON(config)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create mirror directory: %w", err)
	}

	if err := os.WriteFile(s.Path(id, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write mirror file: %w", err)
	}
	return nil
}

func (s *LocalStore) Delete(ctx context.Context, id uuid.UUID, name string) error {
	if err := os.Remove(s.Path(id, name)); err != nil {
		if os.IsNotExist(err) {
			return nil // already absent
		}
		return fmt.Errorf("failed to delete mirror file: %w", err)
	}
	return nil
}

func (s *LocalStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read mirror directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Remove deletes a mirror file by its raw filename (reconcile support)
func (s *LocalStore) Remove(ctx context.Context, filename string) error {
	if err := os.Remove(filepath.Join(s.basePath, filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove mirror file: %w", err)
	}
	return nil
}

// prettyJSON re-indents the opaque config payload without interpreting it
func prettyJSON(config json.RawMessage) ([]byte, error) {
	if len(config) == 0 {
		config = json.RawMessage("null")
	}
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}
	return data, nil
}

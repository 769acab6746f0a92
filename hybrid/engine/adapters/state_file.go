package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	ports "github.com/furiousofnight/hybrid-ide/hybrid/engine/ports"
)

// stateSchema constrains the persisted state file. Files failing validation
// are treated like unreadable ones.
const stateSchema = `{
	"type": "object",
	"properties": {
		"user_preferences": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"additionalProperties": {"type": "string"}
			}
		},
		"project_context": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		},
		"last_save": {"type": "string"}
	},
	"required": ["user_preferences"]
}`

// FileStateStore persists state as JSON with crash-safe replacement: write
// to a temp file, rotate the previous file to .bak, rename into place. Load
// falls back to the backup and then to defaults.
type FileStateStore struct {
	path   string
	schema *gojsonschema.Schema
	logger zerolog.Logger
}

func NewFileStateStore(path string, logger zerolog.Logger) (*FileStateStore, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(stateSchema))
	if err != nil {
		return nil, fmt.Errorf("compile state schema: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStateStore{path: path, schema: schema, logger: logger}, nil
}

// Load reads the main file, then the backup, then returns defaults. Never
// returns an error for missing or corrupt files; those are logged.
func (s *FileStateStore) Load() (*ports.PersistedState, error) {
	if state, err := s.loadFile(s.path); err == nil {
		return state, nil
	} else if !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("state file unreadable, trying backup")
	}

	if state, err := s.loadFile(s.path + ".bak"); err == nil {
		s.logger.Info().Msg("state restored from backup")
		return state, nil
	}

	return ports.DefaultPersistedState(), nil
}

func (s *FileStateStore) loadFile(path string) (*ports.PersistedState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate state: %w", err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("state file %s does not match schema", path)
	}

	var state ports.PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return &state, nil
}

// Save writes atomically: temp file + fsync, rotate current to .bak, rename.
func (s *FileStateStore) Save(state *ports.PersistedState) error {
	if state.LastSave.IsZero() {
		state.LastSave = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open temp state: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write temp state: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("sync temp state: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close temp state: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		if err := os.Rename(s.path, s.path+".bak"); err != nil {
			return fmt.Errorf("rotate state backup: %w", err)
		}
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// Watch reloads the state file when it changes on disk (settings edited
// outside the process) and hands the result to onChange. Runs until ctx is
// done.
func (s *FileStateStore) Watch(ctx context.Context, onChange func(*ports.PersistedState)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: the atomic rename replaces the file inode.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch state dir: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				state, err := s.Load()
				if err != nil {
					s.logger.Warn().Err(err).Msg("state reload failed")
					continue
				}
				onChange(state)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn().Err(err).Msg("state watcher error")
			}
		}
	}()
	return nil
}

var _ ports.StateStore = (*FileStateStore)(nil)

// Package config holds the on-disk stride configuration and the
// process-wide Settings singleton. A single registration writer (the
// register command) and many readers (every other command) share the
// same in-memory Settings value for the lifetime of one process.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/google/uuid"
)

// Settings is the full set of process-wide knobs, loaded from config.json
// and overridden per-invocation by CLI flags.
type Settings struct {
	ServerURL    string     `json:"server_url"`
	SolverBin    string     `json:"solver_bin,omitempty"`
	RunLogDir    string     `json:"run_log_dir"`
	SolverUUID   *uuid.UUID `json:"solver_uuid,omitempty"`
	Timeout      uint64     `json:"timeout"`
	Grace        uint64     `json:"grace"`
	ParallelJobs int        `json:"parallel_jobs"`
}

const DefaultServerURL = "https://domset.algorithm.engineering"

// Default returns the built-in defaults, used before any config.json has
// been loaded from disk.
func Default() Settings {
	return Settings{
		ServerURL:    DefaultServerURL,
		RunLogDir:    "stride-logs",
		Timeout:      300,
		Grace:        5,
		ParallelJobs: runtime.NumCPU(),
	}
}

// LoadFromPath reads a config.json from disk.
func LoadFromPath(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	s := Default()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return s, nil
}

// StoreToPath writes s to path as indented JSON.
func StoreToPath(path string, s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}

var (
	global     Settings
	globalOnce sync.Once
	globalMu   sync.RWMutex
)

// InitGlobal sets the process-wide Settings exactly once. Subsequent calls
// are no-ops; use StoreGlobal for the rare in-process writer (register).
func InitGlobal(s Settings) {
	globalOnce.Do(func() {
		globalMu.Lock()
		defer globalMu.Unlock()
		global = s
	})
}

// Global returns a copy of the current process-wide Settings.
func Global() Settings {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// StoreGlobal overwrites the process-wide Settings. Used only by the
// register command, which is the sole writer after initialization.
func StoreGlobal(s Settings) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = s
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// projectManifest is an optional ramc.toml discovered by walking up from
// the program's directory. Explicit flags always win over its values.
type projectManifest struct {
	Path   string
	Config projectConfig
}

type projectConfig struct {
	Package packageConfig `toml:"package"`
	Run     runConfig     `toml:"run"`
}

type packageConfig struct {
	Name string `toml:"name"`
}

type runConfig struct {
	Input    string `toml:"input"`
	Memory   string `toml:"memory"`
	MaxSteps uint64 `toml:"max-steps"`
}

func findRamcToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "ramc.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// loadProjectManifest finds and parses the nearest ramc.toml. A missing
// manifest is not an error; the second return value reports presence.
func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findRamcToml(startDir)
	if err != nil || !ok {
		return nil, false, err
	}
	var config projectConfig
	if _, err := toml.DecodeFile(manifestPath, &config); err != nil {
		return nil, false, fmt.Errorf("failed to parse %q: %w", manifestPath, err)
	}
	return &projectManifest{Path: manifestPath, Config: config}, true, nil
}

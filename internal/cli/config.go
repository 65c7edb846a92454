package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/pagedseq/pkg/pagedseq"
)

// Config holds all configuration options.
type Config struct {
	// From config files (serialized)
	PageSize    int    `json:"page_size,omitempty"`
	TempDir     string `json:"temp_dir,omitempty"`
	Format      string `json:"format,omitempty"`
	AtomicPages bool   `json:"atomic_pages,omitempty"`

	// Resolved (computed, not serialized)
	EffectiveCwd string `json:"-"` // Absolute working directory (from -C flag or os.Getwd)
	TempDirAbs   string `json:"-"` // Absolute parent for backing directories; empty means OS default

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`

	// atomicPagesSet records that the file set atomic_pages, so an explicit
	// false can override an earlier true.
	atomicPagesSet bool
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		PageSize: pagedseq.DefaultPageSize,
		Format:   pagedseq.FormatGob.String(),
	}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".pseq.json"

// globalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/pseq/config.json if set, otherwise ~/.config/pseq/config.json.
// Returns empty string if home directory cannot be determined.
func globalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, "pseq", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "pseq", "config.json")
	}

	return ""
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride  string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath       string            // -c/--config flag value
	PageSizeOverride int               // --page-size flag value; 0 means no override
	Env              map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Global user config (~/.config/pseq/config.json or $XDG_CONFIG_HOME/pseq/config.json)
// 3. Project config file at default location (.pseq.json, if exists)
// 4. Explicit config file via ConfigPath (if non-empty), replacing 3
// 5. CLI overrides.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	workDir, err := filepath.Abs(workDir)
	if err != nil {
		return Config{}, fmt.Errorf("cannot resolve working directory: %w", err)
	}

	cfg := DefaultConfig()

	if path := globalConfigPath(input.Env); path != "" {
		globalCfg, loaded, loadErr := loadConfigFile(path, false)
		if loadErr != nil {
			return Config{}, loadErr
		}

		if loaded {
			cfg = mergeConfig(cfg, globalCfg)
			cfg.Sources.Global = path
		}
	}

	projectPath, mustExist := filepath.Join(workDir, ConfigFileName), false
	if input.ConfigPath != "" {
		projectPath, mustExist = input.ConfigPath, true
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(workDir, projectPath)
		}
	}

	projectCfg, loaded, err := loadConfigFile(projectPath, mustExist)
	if err != nil {
		return Config{}, err
	}

	if loaded {
		cfg = mergeConfig(cfg, projectCfg)
		cfg.Sources.Project = projectPath
	}

	if input.PageSizeOverride != 0 {
		cfg.PageSize = input.PageSizeOverride
	}

	err = validateConfig(cfg)
	if err != nil {
		return Config{}, err
	}

	cfg.EffectiveCwd = workDir

	if cfg.TempDir != "" {
		cfg.TempDirAbs = cfg.TempDir
		if !filepath.IsAbs(cfg.TempDirAbs) {
			cfg.TempDirAbs = filepath.Join(workDir, cfg.TempDirAbs)
		}
	}

	return cfg, nil
}

// SequenceOptions converts the config into options for a new sequence.
func (c Config) SequenceOptions() (pagedseq.Options, error) {
	format, err := pagedseq.ParseFormat(c.Format)
	if err != nil {
		return pagedseq.Options{}, err
	}

	return pagedseq.Options{
		PageSize:    c.PageSize,
		Dir:         c.TempDirAbs,
		Prefix:      "pseq-",
		Format:      format,
		AtomicPages: c.AtomicPages,
	}, nil
}

// loadConfigFile loads a config file. If mustExist is false, a missing file
// returns a zero config and loaded=false.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
			}

			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("%w: %s: %w", ErrConfigFileRead, path, err)
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	err = json.Unmarshal(standardized, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	// omitempty hides explicit zero values; reject them here so a config
	// saying "page_size": 0 or "format": "" is an error, not a silent default.
	var raw map[string]any

	_ = json.Unmarshal(standardized, &raw)

	if val, exists := raw["page_size"]; exists {
		if n, ok := val.(float64); ok && n <= 0 {
			return Config{}, ErrPageSizeInvalid
		}
	}

	_, cfg.atomicPagesSet = raw["atomic_pages"]

	if val, exists := raw["format"]; exists {
		if s, ok := val.(string); ok && s == "" {
			return Config{}, ErrFormatInvalid
		}
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.PageSize != 0 {
		base.PageSize = overlay.PageSize
	}

	if overlay.TempDir != "" {
		base.TempDir = overlay.TempDir
	}

	if overlay.Format != "" {
		base.Format = overlay.Format
	}

	if overlay.atomicPagesSet {
		base.AtomicPages = overlay.AtomicPages
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.PageSize <= 0 {
		return ErrPageSizeInvalid
	}

	_, err := pagedseq.ParseFormat(cfg.Format)
	if err != nil {
		return ErrFormatInvalid
	}

	return nil
}

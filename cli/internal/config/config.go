// Package config provides revise configuration with a defined load order:
// CLI flags > environment variables > repo config > global config > defaults.
//
// Paths:
//   - Repo: revise.toml (relative to repo root)
//   - Global: XDG config dir, e.g. ~/.config/revise/revise.toml (see os.UserConfigDir)
//
// Environment variables (override config files when set):
//   - REVISE_AI_PROVIDER (gemini, ollama or openai), REVISE_AI_MODEL, REVISE_AI_BASE_URL,
//   - REVISE_AI_TIMEOUT (Go duration string or integer seconds),
//   - REVISE_API_KEY (REVISE_GEMINI_KEY is read when REVISE_API_KEY is unset),
//   - REVISE_MAX_INPUT_BYTES (non-negative integer; 0 = no cap).
package config

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"revise/cli/internal/erruser"
)

// Provider names accepted in [ai].provider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// ErrMissingAPIKey is wrapped when an AI mode is used with a provider that
// needs a key and none is configured.
var ErrMissingAPIKey = errors.New("missing API key")

// CommitType is one entry of the commit type list: Key is written into the
// message, Value is the description shown next to it.
type CommitType struct {
	Key   string `toml:"key"`
	Value string `toml:"value"`
}

// AI configures the candidate generator backend.
type AI struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	// MaxInputBytes caps the diff or text sent to the model (0 = no cap).
	MaxInputBytes int
	ContextLimit  int
	WarnThreshold float64
	// PromptFile replaces the built-in persona prompt; relative paths are resolved against the repo root.
	PromptFile string
	// Minify collapses whitespace in Go and Rust diff lines before sending.
	Minify bool
}

// Hooks holds shell commands run around staging and committing.
type Hooks struct {
	PreAdd     []string
	PostAdd    []string
	PreCommit  []string
	PostCommit []string
}

// Config holds all revise configuration. It is a read-only value once loaded
// and is passed explicitly to the components that need it.
type Config struct {
	Types   []CommitType
	Scopes  []string
	Exclude []string
	AI      AI
	Hooks   Hooks
}

// Overrides represents optional CLI flag overrides. Non-nil pointer means
// "override with this value".
type Overrides struct {
	Provider *string
	Model    *string
	BaseURL  *string
	Timeout  *time.Duration
}

// LoadOptions configures Load. All fields are optional.
type LoadOptions struct {
	// RepoRoot is the repository root; if set, repo config is RepoRoot/revise.toml.
	RepoRoot string
	// GlobalConfigPath is the global config file path; if empty, XDG path is used.
	GlobalConfigPath string
	// Env is the environment key=value slice; if nil, os.Environ() is used.
	Env []string
	// Overrides are applied last (highest precedence).
	Overrides *Overrides
}

// RepoFileName is the config file name looked up at the repository root.
const RepoFileName = "revise.toml"

const (
	_defaultProvider      = ProviderGemini
	_defaultTimeout       = 30 * time.Second
	_defaultContextLimit  = 32768
	_defaultWarnThreshold = 0.9
)

var defaultModels = map[string]string{
	ProviderGemini: "gemini-1.5-pro-latest",
	ProviderOllama: "qwen2.5-coder:7b",
	ProviderOpenAI: "gpt-4o-mini",
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// NeedsAPIKey reports whether provider requires an API key.
func NeedsAPIKey(provider string) bool {
	return provider != ProviderOllama
}

// validateProvider normalizes s (trim, lowercase) and returns it if valid; otherwise returns an error.
func validateProvider(s string) (string, error) {
	norm := strings.TrimSpace(strings.ToLower(s))
	if _, ok := defaultModels[norm]; !ok {
		return "", erruser.WithHint("Invalid AI provider.", "Use gemini, ollama or openai.", fmt.Errorf("provider %q", s))
	}
	return norm, nil
}

// errIntOverflow is returned when an int64 value does not fit in int (e.g. on 32-bit or huge TOML/env values).
var errIntOverflow = errors.New("value out of range for int")

// int64ToInt converts n to int. It returns an error if n is outside the range of int (e.g. overflow on 32-bit).
func int64ToInt(n int64) (int, error) {
	if n < int64(math.MinInt) || n > int64(math.MaxInt) {
		return 0, errIntOverflow
	}
	return int(n), nil
}

// DefaultTypes returns the built-in commit type list.
func DefaultTypes() []CommitType {
	return []CommitType{
		{Key: "feat", Value: "A new feature"},
		{Key: "fix", Value: "A bug fix"},
		{Key: "docs", Value: "Documentation only changes"},
		{Key: "style", Value: "Changes that do not affect the meaning of the code"},
		{Key: "refactor", Value: "A code change that neither fixes a bug nor adds a feature"},
		{Key: "perf", Value: "A code change that improves performance"},
		{Key: "test", Value: "Adding missing tests or correcting existing tests"},
		{Key: "build", Value: "Changes that affect the build system or external dependencies"},
		{Key: "ci", Value: "Changes to our CI configuration files and scripts"},
		{Key: "chore", Value: "Other changes that don't modify src or test files"},
		{Key: "revert", Value: "Reverts a previous commit"},
	}
}

// DefaultConfig returns the default configuration (no I/O).
func DefaultConfig() Config {
	return Config{
		Types: DefaultTypes(),
		AI: AI{
			Provider:      _defaultProvider,
			Timeout:       _defaultTimeout,
			ContextLimit:  _defaultContextLimit,
			WarnThreshold: _defaultWarnThreshold,
		},
	}
}

// EffectiveModel returns the configured model or the provider default.
func (a AI) EffectiveModel() string {
	if a.Model != "" {
		return a.Model
	}
	return DefaultModel(a.Provider)
}

// Load loads configuration with precedence: defaults < global file < repo file < env < overrides.
// Missing config files are ignored. Invalid TOML or invalid env values return an error.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	if opts.Env == nil {
		opts.Env = os.Environ()
	}
	cfg := DefaultConfig()

	globalPath := opts.GlobalConfigPath
	if globalPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, erruser.New("Could not determine config directory.", err)
		}
		globalPath = filepath.Join(dir, "revise", RepoFileName)
	}
	if err := mergeFile(&cfg, globalPath); err != nil {
		return nil, err
	}

	if opts.RepoRoot != "" {
		repoPath := filepath.Join(opts.RepoRoot, RepoFileName)
		if err := mergeFile(&cfg, repoPath); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(&cfg, opts.Env); err != nil {
		return nil, err
	}

	if err := applyOverrides(&cfg, opts.Overrides); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeFile reads path and merges into cfg. Scalars overwrite only when present and
// non-empty; lists replace the previous list when present (an explicit empty list clears it).
// Missing file is skipped (no error).
func mergeFile(cfg *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return erruser.New("Invalid configuration file.", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return erruser.New("Could not read configuration file.", err)
	}
	var file struct {
		Types   *[]CommitType `toml:"types"`
		Scopes  *[]string     `toml:"scopes"`
		Exclude *[]string     `toml:"exclude"`
		AI      *struct {
			Provider      *string  `toml:"provider"`
			Model         *string  `toml:"model"`
			BaseURL       *string  `toml:"base_url"`
			APIKey        *string  `toml:"api_key"`
			Timeout       *string  `toml:"timeout"`
			MaxInputBytes *int64   `toml:"max_input_bytes"`
			ContextLimit  *int64   `toml:"context_limit"`
			WarnThreshold *float64 `toml:"warn_threshold"`
			PromptFile    *string  `toml:"prompt_file"`
			Minify        *bool    `toml:"minify"`
		} `toml:"ai"`
		Hooks *struct {
			PreAdd     *[]string `toml:"pre_add"`
			PostAdd    *[]string `toml:"post_add"`
			PreCommit  *[]string `toml:"pre_commit"`
			PostCommit *[]string `toml:"post_commit"`
		} `toml:"hooks"`
	}
	if _, err := toml.Decode(string(data), &file); err != nil {
		return erruser.WithHint("Invalid configuration in "+filepath.Base(path)+".", "Check the file with a TOML validator.", err)
	}
	if file.Types != nil {
		for i, t := range *file.Types {
			if strings.TrimSpace(t.Key) == "" {
				return erruser.New("Configuration types entry has an empty key.", fmt.Errorf("types[%d]", i))
			}
		}
		cfg.Types = *file.Types
	}
	if file.Scopes != nil {
		cfg.Scopes = *file.Scopes
	}
	if file.Exclude != nil {
		cfg.Exclude = *file.Exclude
	}
	if ai := file.AI; ai != nil {
		if ai.Provider != nil && *ai.Provider != "" {
			norm, err := validateProvider(*ai.Provider)
			if err != nil {
				return err
			}
			cfg.AI.Provider = norm
		}
		if ai.Model != nil && *ai.Model != "" {
			cfg.AI.Model = *ai.Model
		}
		if ai.BaseURL != nil && *ai.BaseURL != "" {
			cfg.AI.BaseURL = *ai.BaseURL
		}
		if ai.APIKey != nil && *ai.APIKey != "" {
			cfg.AI.APIKey = *ai.APIKey
		}
		if ai.Timeout != nil && *ai.Timeout != "" {
			d, err := parseDuration(*ai.Timeout)
			if err != nil {
				return erruser.New("Configuration ai.timeout is invalid.", err)
			}
			cfg.AI.Timeout = d
		}
		if ai.MaxInputBytes != nil && *ai.MaxInputBytes >= 0 {
			v, err := int64ToInt(*ai.MaxInputBytes)
			if err != nil {
				return erruser.New("Configuration ai.max_input_bytes value out of range.", err)
			}
			cfg.AI.MaxInputBytes = v
		}
		if ai.ContextLimit != nil && *ai.ContextLimit > 0 {
			v, err := int64ToInt(*ai.ContextLimit)
			if err != nil {
				return erruser.New("Configuration ai.context_limit value out of range.", err)
			}
			cfg.AI.ContextLimit = v
		}
		if ai.WarnThreshold != nil && *ai.WarnThreshold >= 0 {
			cfg.AI.WarnThreshold = *ai.WarnThreshold
		}
		if ai.PromptFile != nil {
			cfg.AI.PromptFile = *ai.PromptFile
		}
		if ai.Minify != nil {
			cfg.AI.Minify = *ai.Minify
		}
	}
	if h := file.Hooks; h != nil {
		if h.PreAdd != nil {
			cfg.Hooks.PreAdd = *h.PreAdd
		}
		if h.PostAdd != nil {
			cfg.Hooks.PostAdd = *h.PostAdd
		}
		if h.PreCommit != nil {
			cfg.Hooks.PreCommit = *h.PreCommit
		}
		if h.PostCommit != nil {
			cfg.Hooks.PostCommit = *h.PostCommit
		}
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	// Try Go duration first (e.g. "5m", "30s")
	d, err := time.ParseDuration(s)
	if err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("duration %q must be positive", s)
		}
		return d, nil
	}
	// Try integer seconds
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return time.Duration(n) * time.Second, nil
}

// env key names for config
const (
	envProvider      = "REVISE_AI_PROVIDER"
	envModel         = "REVISE_AI_MODEL"
	envBaseURL       = "REVISE_AI_BASE_URL"
	envTimeout       = "REVISE_AI_TIMEOUT"
	envAPIKey        = "REVISE_API_KEY"
	envGeminiKey     = "REVISE_GEMINI_KEY"
	envMaxInputBytes = "REVISE_MAX_INPUT_BYTES"
)

func applyEnv(cfg *Config, env []string) error {
	vals := make(map[string]string)
	for _, e := range env {
		idx := strings.Index(e, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(e[:idx])
		val := strings.TrimSpace(e[idx+1:])
		vals[key] = val
	}
	if v, ok := vals[envProvider]; ok && v != "" {
		norm, err := validateProvider(v)
		if err != nil {
			return err
		}
		cfg.AI.Provider = norm
	}
	if v, ok := vals[envModel]; ok && v != "" {
		cfg.AI.Model = v
	}
	if v, ok := vals[envBaseURL]; ok && v != "" {
		cfg.AI.BaseURL = v
	}
	if v, ok := vals[envTimeout]; ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return erruser.New("REVISE_AI_TIMEOUT must be a valid duration.", err)
		}
		cfg.AI.Timeout = d
	}
	if v, ok := vals[envAPIKey]; ok && v != "" {
		cfg.AI.APIKey = v
	} else if v, ok := vals[envGeminiKey]; ok && v != "" {
		cfg.AI.APIKey = v
	}
	if v, ok := vals[envMaxInputBytes]; ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return erruser.New("REVISE_MAX_INPUT_BYTES must be a valid number.", err)
		}
		if n < 0 {
			return erruser.New("REVISE_MAX_INPUT_BYTES must be non-negative.", nil)
		}
		cfg.AI.MaxInputBytes, err = int64ToInt(n)
		if err != nil {
			return erruser.New("REVISE_MAX_INPUT_BYTES value out of range.", err)
		}
	}
	return nil
}

func applyOverrides(cfg *Config, o *Overrides) error {
	if o == nil {
		return nil
	}
	if o.Provider != nil && *o.Provider != "" {
		norm, err := validateProvider(*o.Provider)
		if err != nil {
			return err
		}
		cfg.AI.Provider = norm
	}
	if o.Model != nil {
		cfg.AI.Model = *o.Model
	}
	if o.BaseURL != nil {
		cfg.AI.BaseURL = *o.BaseURL
	}
	if o.Timeout != nil && *o.Timeout > 0 {
		cfg.AI.Timeout = *o.Timeout
	}
	return nil
}

// TypeKeys returns the keys of the configured commit types in order.
func (c Config) TypeKeys() []string {
	keys := make([]string, len(c.Types))
	for i, t := range c.Types {
		keys[i] = t.Key
	}
	return keys
}

// PromptPath returns the absolute persona prompt override path, or "" when none is configured.
func (c Config) PromptPath(repoRoot string) string {
	p := strings.TrimSpace(c.AI.PromptFile)
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) || repoRoot == "" {
		return p
	}
	return filepath.Join(repoRoot, p)
}

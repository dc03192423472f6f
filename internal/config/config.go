// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/UnderscoreTud/skript-server-wizard/internal/document"
	"github.com/UnderscoreTud/skript-server-wizard/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete wizard configuration.
type Config struct {
	Version string `toml:"version" json:"version" yaml:"version" mapstructure:"version"`

	Session SessionConfig `toml:"session" json:"session" yaml:"session" mapstructure:"session"`
	Store   StoreConfig   `toml:"store" json:"store" yaml:"store" mapstructure:"store"`
	Remote  RemoteConfig  `toml:"remote" json:"remote" yaml:"remote" mapstructure:"remote"`
	UI      UIConfig      `toml:"ui" json:"ui" yaml:"ui" mapstructure:"ui"`
	Log     LogConfig     `toml:"log" json:"log" yaml:"log" mapstructure:"log"`
	Server  ServerConfig  `toml:"server" json:"server" yaml:"server" mapstructure:"server"`
	Setup   SetupConfig   `toml:"setup" json:"setup" yaml:"setup" mapstructure:"setup"`
}

// SessionConfig controls the line session and its history.
type SessionConfig struct {
	// Prompt is printed before every line read.
	Prompt string `toml:"prompt" json:"prompt" yaml:"prompt" mapstructure:"prompt" jsonschema:"description=Prompt printed before every line"`
	// HistoryCapacity bounds the number of remembered lines.
	HistoryCapacity int `toml:"history_capacity" json:"history_capacity" yaml:"history_capacity" mapstructure:"history_capacity" jsonschema:"minimum=1"`
	// HistoryBackend is "memory", "sqlite" or "bolt".
	HistoryBackend string `toml:"history_backend" json:"history_backend" yaml:"history_backend" mapstructure:"history_backend" jsonschema:"enum=memory,enum=sqlite,enum=bolt"`
	// HistoryPath is the database file (empty = ~/.skript-wizard/history.db).
	HistoryPath string `toml:"history_path" json:"history_path" yaml:"history_path" mapstructure:"history_path"`
	// OutputQueue is the number of pending writes before flow control applies.
	OutputQueue int `toml:"output_queue" json:"output_queue" yaml:"output_queue" mapstructure:"output_queue" jsonschema:"minimum=1"`
	// WriteTimeoutMs bounds how long a write may wait on a stalled sink.
	WriteTimeoutMs int `toml:"write_timeout_ms" json:"write_timeout_ms" yaml:"write_timeout_ms" mapstructure:"write_timeout_ms" jsonschema:"minimum=1"`
	// IdleTimeoutSecs ends idle network sessions (0 = never).
	IdleTimeoutSecs int `toml:"idle_timeout_secs" json:"idle_timeout_secs" yaml:"idle_timeout_secs" mapstructure:"idle_timeout_secs" jsonschema:"minimum=0"`
}

// StoreConfig selects where saved documents live.
type StoreConfig struct {
	// Backend is "memory", "file" or "redis".
	Backend string `toml:"backend" json:"backend" yaml:"backend" mapstructure:"backend" jsonschema:"enum=memory,enum=file,enum=redis"`
	// Dir holds one JSON file per document (empty = ~/.skript-wizard/docs).
	Dir string `toml:"dir" json:"dir" yaml:"dir" mapstructure:"dir"`
	// RedisAddr is host:port of the redis server.
	RedisAddr string `toml:"redis_addr" json:"redis_addr" yaml:"redis_addr" mapstructure:"redis_addr"`
	// RedisPrefix namespaces document keys.
	RedisPrefix string `toml:"redis_prefix" json:"redis_prefix" yaml:"redis_prefix" mapstructure:"redis_prefix"`
	// TTLSecs expires redis documents (0 = keep forever).
	TTLSecs int `toml:"ttl_secs" json:"ttl_secs" yaml:"ttl_secs" mapstructure:"ttl_secs" jsonschema:"minimum=0"`
}

// RemoteConfig configures the Paper and GitHub API clients.
type RemoteConfig struct {
	PaperURL    string `toml:"paper_url" json:"paper_url" yaml:"paper_url" mapstructure:"paper_url"`
	GitHubURL   string `toml:"github_url" json:"github_url" yaml:"github_url" mapstructure:"github_url"`
	GitHubToken string `toml:"github_token" json:"github_token" yaml:"github_token" mapstructure:"github_token"`
	// RequestsPerSecond and Burst shape outgoing traffic per client.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second" jsonschema:"exclusiveMinimum=0"`
	Burst             int     `toml:"burst" json:"burst" yaml:"burst" mapstructure:"burst" jsonschema:"minimum=1"`
	TimeoutSecs       int     `toml:"timeout_secs" json:"timeout_secs" yaml:"timeout_secs" mapstructure:"timeout_secs" jsonschema:"minimum=1"`
}

// UIConfig controls rendering.
type UIConfig struct {
	// Color is "auto", "always" or "never".
	Color string `toml:"color" json:"color" yaml:"color" mapstructure:"color" jsonschema:"enum=auto,enum=always,enum=never"`
	// Indent is the number of spaces per level in rendered documents (0 = compact).
	Indent int `toml:"indent" json:"indent" yaml:"indent" mapstructure:"indent" jsonschema:"minimum=0,maximum=8"`
	// Highlight enables syntax highlighting of rendered documents.
	Highlight bool `toml:"highlight" json:"highlight" yaml:"highlight" mapstructure:"highlight"`
	// Theme is the highlighting style name.
	Theme string `toml:"theme" json:"theme" yaml:"theme" mapstructure:"theme"`
	// Markdown renders help text as markdown on terminals.
	Markdown bool `toml:"markdown" json:"markdown" yaml:"markdown" mapstructure:"markdown"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `toml:"level" json:"level" yaml:"level" mapstructure:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	// File receives logs instead of stderr when set.
	File string `toml:"file" json:"file" yaml:"file" mapstructure:"file"`
}

// ServerConfig controls `wizard serve`.
type ServerConfig struct {
	Listen      string `toml:"listen" json:"listen" yaml:"listen" mapstructure:"listen"`
	Metrics     string `toml:"metrics" json:"metrics" yaml:"metrics" mapstructure:"metrics"`
	MaxSessions int    `toml:"max_sessions" json:"max_sessions" yaml:"max_sessions" mapstructure:"max_sessions" jsonschema:"minimum=0"`
}

// SetupConfig controls the "setup" command that builds server folders.
type SetupConfig struct {
	// Dir is where server folders are created (empty = working directory).
	Dir string `toml:"dir" json:"dir" yaml:"dir" mapstructure:"dir"`
	// SkriptRepo is the owner/name of the Skript repository on GitHub.
	SkriptRepo string `toml:"skript_repo" json:"skript_repo" yaml:"skript_repo" mapstructure:"skript_repo"`
	// Memory is the -Xmx value written to the run scripts.
	Memory string `toml:"memory" json:"memory" yaml:"memory" mapstructure:"memory" jsonschema:"pattern=^[0-9]+[MG]$"`
	// DownloadTimeoutSecs bounds each jar download.
	DownloadTimeoutSecs int `toml:"download_timeout_secs" json:"download_timeout_secs" yaml:"download_timeout_secs" mapstructure:"download_timeout_secs" jsonschema:"minimum=1"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1",

		Session: SessionConfig{
			Prompt:          "wizard> ",
			HistoryCapacity: 500,
			HistoryBackend:  "sqlite",
			OutputQueue:     256,
			WriteTimeoutMs:  2000,
			IdleTimeoutSecs: 900,
		},

		Store: StoreConfig{
			Backend:     "file",
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: "wizard:doc:",
		},

		Remote: RemoteConfig{
			PaperURL:          "https://papermc.io/api/v2/projects/paper",
			GitHubURL:         "https://api.github.com",
			RequestsPerSecond: 2,
			Burst:             4,
			TimeoutSecs:       15,
		},

		UI: UIConfig{
			Color:     "auto",
			Indent:    2,
			Highlight: true,
			Theme:     "monokai",
			Markdown:  true,
		},

		Log: LogConfig{
			Level: "info",
		},

		Server: ServerConfig{
			Listen:      "127.0.0.1:7070",
			Metrics:     "127.0.0.1:9090",
			MaxSessions: 64,
		},

		Setup: SetupConfig{
			SkriptRepo:          "SkriptLang/Skript",
			Memory:              "2G",
			DownloadTimeoutSecs: 300,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the wizard configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".skript-wizard"), nil
}

func configPath(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) { return configPath("config.toml") }

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) { return configPath("config.json") }

// ConfigPathYAML returns the path to the YAML config file.
func ConfigPathYAML() (string, error) { return configPath("config.yaml") }

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions narrows a config file to 0600. The GitHub token
// may live in it.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the first config file found in the config
// directory (TOML, then JSON, then YAML), falling back to defaults.
// Environment overrides are applied last. A file that exists but cannot be
// decoded is an error.
func Load() (*Config, error) {
	if path, ok := FindConfigFile(); ok {
		return LoadFromPath(path)
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// FindConfigFile returns the config file Load would read, if any exists.
func FindConfigFile() (string, bool) {
	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON, ConfigPathYAML} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr == nil {
			return path, true
		}
	}
	return "", false
}

// LoadFromPath loads configuration from a specific file with full
// validation. The format is chosen by extension; anything unrecognized is
// read as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = LoadJSON(cfg, path)
	case ".yaml", ".yml":
		err = LoadYAML(cfg, path)
	default:
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Unknown keys are rejected.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg. The file is parsed as a document,
// so malformed JSON fails with document.ErrMalformedDocument.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	doc, err := document.Parse(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse JSON file: %w", err)
	}
	return DecodeDocument(cfg, doc)
}

// DecodeDocument decodes a Mapping document over cfg.
func DecodeDocument(cfg *Config, doc document.Value) error {
	if doc.Kind() != document.KindMapping {
		return fmt.Errorf("config document must be a mapping, got %s", doc.Kind())
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      cfg,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(document.ToGo(doc)); err != nil {
		return fmt.Errorf("failed to decode config document: %w", err)
	}
	return nil
}

// LoadYAML decodes a YAML file over cfg. Unknown keys are rejected.
func LoadYAML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return nil
}

// SetDefaults fills zero-value fields with defaults.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}

	if c.Session.Prompt == "" {
		c.Session.Prompt = d.Session.Prompt
	}
	if c.Session.HistoryCapacity == 0 {
		c.Session.HistoryCapacity = d.Session.HistoryCapacity
	}
	if c.Session.HistoryBackend == "" {
		c.Session.HistoryBackend = d.Session.HistoryBackend
	}
	if c.Session.OutputQueue == 0 {
		c.Session.OutputQueue = d.Session.OutputQueue
	}
	if c.Session.WriteTimeoutMs == 0 {
		c.Session.WriteTimeoutMs = d.Session.WriteTimeoutMs
	}

	if c.Store.Backend == "" {
		c.Store.Backend = d.Store.Backend
	}
	if c.Store.RedisPrefix == "" {
		c.Store.RedisPrefix = d.Store.RedisPrefix
	}

	if c.Remote.PaperURL == "" {
		c.Remote.PaperURL = d.Remote.PaperURL
	}
	if c.Remote.GitHubURL == "" {
		c.Remote.GitHubURL = d.Remote.GitHubURL
	}
	if c.Remote.RequestsPerSecond == 0 {
		c.Remote.RequestsPerSecond = d.Remote.RequestsPerSecond
	}
	if c.Remote.Burst == 0 {
		c.Remote.Burst = d.Remote.Burst
	}
	if c.Remote.TimeoutSecs == 0 {
		c.Remote.TimeoutSecs = d.Remote.TimeoutSecs
	}

	if c.UI.Color == "" {
		c.UI.Color = d.UI.Color
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}

	if c.Setup.SkriptRepo == "" {
		c.Setup.SkriptRepo = d.Setup.SkriptRepo
	}
	if c.Setup.Memory == "" {
		c.Setup.Memory = d.Setup.Memory
	}
	if c.Setup.DownloadTimeoutSecs == 0 {
		c.Setup.DownloadTimeoutSecs = d.Setup.DownloadTimeoutSecs
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration as TOML with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# skript-wizard configuration file\n")
	buf.WriteString("# Generated by wizard - edit with care\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return writeConfig(path, buf.Bytes())
}

// SaveJSON writes the configuration as indented JSON with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	return writeConfig(path, []byte(document.Indent(cfg.Document(), "", "  ")+"\n"))
}

// SaveYAML writes the configuration as YAML with 0600 permissions.
func SaveYAML(cfg *Config, path string) error {
	text, err := document.ToYAML(cfg.Document())
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return writeConfig(path, []byte(text))
}

func writeConfig(path string, data []byte) error {
	if err := util.AtomicWriteFileWithDir(path, data, 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return true
		}
	}
	return false
}

var memoryPattern = regexp.MustCompile(`^[0-9]+[MG]$`)

// Validate validates the configuration and returns ValidateErrors when
// anything is out of range.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// Session
	if c.Session.HistoryCapacity < 1 {
		add("session.history_capacity", "must be at least 1, got %d", c.Session.HistoryCapacity)
	}
	if !oneOf(c.Session.HistoryBackend, "memory", "sqlite", "bolt") {
		add("session.history_backend", "invalid backend '%s', must be one of: memory, sqlite, bolt", c.Session.HistoryBackend)
	}
	if c.Session.OutputQueue < 1 {
		add("session.output_queue", "must be at least 1, got %d", c.Session.OutputQueue)
	}
	if c.Session.WriteTimeoutMs < 1 {
		add("session.write_timeout_ms", "must be at least 1, got %d", c.Session.WriteTimeoutMs)
	}
	if c.Session.IdleTimeoutSecs < 0 {
		add("session.idle_timeout_secs", "cannot be negative")
	}

	// Store
	if !oneOf(c.Store.Backend, "memory", "file", "redis") {
		add("store.backend", "invalid backend '%s', must be one of: memory, file, redis", c.Store.Backend)
	}
	if strings.EqualFold(c.Store.Backend, "redis") && c.Store.RedisAddr == "" {
		add("store.redis_addr", "required when store.backend is redis")
	}
	if c.Store.TTLSecs < 0 {
		add("store.ttl_secs", "cannot be negative")
	}

	// Remote
	for field, raw := range map[string]string{"remote.paper_url": c.Remote.PaperURL, "remote.github_url": c.Remote.GitHubURL} {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add(field, "invalid URL '%s'", raw)
		}
	}
	if c.Remote.RequestsPerSecond <= 0 {
		add("remote.requests_per_second", "must be positive, got %g", c.Remote.RequestsPerSecond)
	}
	if c.Remote.Burst < 1 {
		add("remote.burst", "must be at least 1, got %d", c.Remote.Burst)
	}
	if c.Remote.TimeoutSecs < 1 {
		add("remote.timeout_secs", "must be at least 1, got %d", c.Remote.TimeoutSecs)
	}

	// UI
	if !oneOf(c.UI.Color, "auto", "always", "never") {
		add("ui.color", "invalid value '%s', must be one of: auto, always, never", c.UI.Color)
	}
	if c.UI.Indent < 0 || c.UI.Indent > 8 {
		add("ui.indent", "must be 0-8, got %d", c.UI.Indent)
	}

	// Log
	if !oneOf(c.Log.Level, "debug", "info", "warn", "warning", "error") {
		add("log.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level)
	}

	// Server
	if c.Server.MaxSessions < 0 {
		add("server.max_sessions", "cannot be negative")
	}

	// Setup
	if owner, name, ok := strings.Cut(c.Setup.SkriptRepo, "/"); !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		add("setup.skript_repo", "must be owner/name, got '%s'", c.Setup.SkriptRepo)
	}
	if !memoryPattern.MatchString(c.Setup.Memory) {
		add("setup.memory", "must look like 512M or 2G, got '%s'", c.Setup.Memory)
	}
	if c.Setup.DownloadTimeoutSecs < 1 {
		add("setup.download_timeout_secs", "must be at least 1, got %d", c.Setup.DownloadTimeoutSecs)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies WIZARD_* environment variables. GITHUB_TOKEN is
// honored when WIZARD_GITHUB_TOKEN is unset.
func (c *Config) ApplyEnvOverrides() {
	overrides := []struct {
		env string
		key string
	}{
		{"WIZARD_PROMPT", "session.prompt"},
		{"WIZARD_HISTORY_CAPACITY", "session.history_capacity"},
		{"WIZARD_HISTORY_BACKEND", "session.history_backend"},
		{"WIZARD_HISTORY_PATH", "session.history_path"},
		{"WIZARD_STORE_BACKEND", "store.backend"},
		{"WIZARD_STORE_DIR", "store.dir"},
		{"WIZARD_REDIS_ADDR", "store.redis_addr"},
		{"WIZARD_PAPER_URL", "remote.paper_url"},
		{"WIZARD_GITHUB_URL", "remote.github_url"},
		{"WIZARD_GITHUB_TOKEN", "remote.github_token"},
		{"WIZARD_COLOR", "ui.color"},
		{"WIZARD_INDENT", "ui.indent"},
		{"WIZARD_LOG_LEVEL", "log.level"},
		{"WIZARD_LOG_FILE", "log.file"},
		{"WIZARD_LISTEN", "server.listen"},
		{"WIZARD_METRICS", "server.metrics"},
		{"WIZARD_SETUP_DIR", "setup.dir"},
	}

	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		c.Remote.GitHubToken = token
	}
	for _, o := range overrides {
		if value := os.Getenv(o.env); value != "" {
			if err := c.Set(o.key, value); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: ignoring %s: %v\n", o.env, err)
			}
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// lookupField walks a dotted key ("session.prompt") through the struct tags.
func (c *Config) lookupField(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, normalizeKey(part))
		if !ok {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeKey folds kebab-case and case differences into the tag form.
func normalizeKey(part string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(part), "-", "_"))
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if tagName(t.Field(i)) == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func tagName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	return name
}

// Get retrieves a configuration value using dot notation (e.g., "ui.indent").
// Sections are returned as documents.
func (c *Config) Get(key string) (document.Value, error) {
	field, err := c.lookupField(key)
	if err != nil {
		return document.Value{}, err
	}
	return fieldDocument(field), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.indent").
// The value is converted from its string form to the field type.
func (c *Config) Set(key, value string) error {
	field, err := c.lookupField(key)
	if err != nil {
		return err
	}
	if field.Kind() == reflect.Struct {
		return fmt.Errorf("cannot set section %s", key)
	}
	return setFieldValue(field, value)
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value: %w", err)
		}
		field.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("invalid float value: %w", err)
		}
		field.SetFloat(f)
	case reflect.Bool:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "on":
			field.SetBool(true)
		case "0", "false", "no", "off":
			field.SetBool(false)
		default:
			return fmt.Errorf("invalid boolean value %q", value)
		}
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// GetAllKeys returns all configuration keys in dot notation, in declaration order.
func GetAllKeys() []string {
	var keys []string
	var walk func(t reflect.Type, prefix string)
	walk = func(t reflect.Type, prefix string) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := prefix + tagName(f)
			if f.Type.Kind() == reflect.Struct {
				walk(f.Type, name+".")
				continue
			}
			keys = append(keys, name)
		}
	}
	walk(reflect.TypeOf(Config{}), "")
	return keys
}

// =============================================================================
// DOCUMENT VIEW
// =============================================================================

// Document returns the configuration as a Mapping in declaration order.
func (c *Config) Document() document.Value {
	return fieldDocument(reflect.ValueOf(c).Elem())
}

func fieldDocument(v reflect.Value) document.Value {
	switch v.Kind() {
	case reflect.Struct:
		t := v.Type()
		members := make([]document.Member, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			members = append(members, document.Pair(tagName(t.Field(i)), fieldDocument(v.Field(i))))
		}
		return document.Mapping(members...)
	case reflect.String:
		return document.String(v.String())
	case reflect.Int, reflect.Int64:
		return document.Int(v.Int())
	case reflect.Float64:
		return document.Float(v.Float())
	case reflect.Bool:
		return document.Bool(v.Bool())
	default:
		return document.Null()
	}
}

// Clone creates a copy of the configuration. Config holds no reference
// types, so a value copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Redacted returns a copy with secrets replaced.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if safe.Remote.GitHubToken != "" {
		safe.Remote.GitHubToken = "[REDACTED]"
	}
	return safe
}

// String renders the configuration as indented JSON with secrets redacted.
func (c *Config) String() string {
	return document.Indent(c.Redacted().Document(), "", "  ")
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. A load failure falls back to defaults.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state between tests.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}

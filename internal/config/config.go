package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Secret is a string type that redacts itself when printed.
// In config JSON it can be written either as a plain string or as an
// environment reference {"$env": "VAR_NAME"}, resolved at load time.
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// UnmarshalJSON resolves {"$env": "VAR"} references immediately
func (s *Secret) UnmarshalJSON(data []byte) error {
	value, err := resolveEnvRef(data)
	if err != nil {
		return err
	}
	*s = Secret(value)
	return nil
}

// resolveEnvRef accepts either a JSON string or an {"$env": "VAR"} object
func resolveEnvRef(data []byte) (string, error) {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		return plain, nil
	}

	var ref struct {
		Env string `json:"$env"`
	}
	if err := json.Unmarshal(data, &ref); err != nil {
		return "", fmt.Errorf("expected string or {\"$env\": ...} reference: %w", err)
	}
	if ref.Env == "" {
		return "", fmt.Errorf("$env reference is missing the variable name")
	}

	value, ok := os.LookupEnv(ref.Env)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", ref.Env)
	}
	return value, nil
}

// Duration wraps time.Duration with JSON string parsing ("10s", "24h")
type Duration time.Duration

// UnmarshalJSON parses a duration string
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalJSON renders the duration as a string
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Unwrap returns the underlying time.Duration
func (d Duration) Unwrap() time.Duration {
	return time.Duration(d)
}

// StorageKind selects the session store backend
type StorageKind string

const (
	StorageKindMemory    StorageKind = "memory"
	StorageKindFirestore StorageKind = "firestore"
)

// Config is the root configuration for lyricfront
type Config struct {
	Version    string           `json:"version"`
	Server     ServerConfig     `json:"server"`
	Spotify    SpotifyConfig    `json:"spotify"`
	Musixmatch MusixmatchConfig `json:"musixmatch"`
	Sessions   SessionConfig    `json:"sessions"`
}

// ServerConfig contains the HTTP surface settings
type ServerConfig struct {
	// BaseURL is the public host URL browsers are redirected back to
	BaseURL string `json:"baseURL"`
	// Addr is the listen address, e.g. ":8080"
	Addr string `json:"addr"`
	// FailureRedirect is where the browser lands when the OAuth exchange fails
	FailureRedirect string `json:"failureRedirect,omitempty"`
	// WebRoot serves static assets when set
	WebRoot string `json:"webRoot,omitempty"`
	// AdminUsername/AdminPasswordHash guard /admin routes when both are set.
	// The hash is a bcrypt hash, never the plain password.
	AdminUsername     string `json:"adminUsername,omitempty"`
	AdminPasswordHash Secret `json:"adminPasswordHash,omitempty"`
}

// SpotifyConfig contains the OAuth client settings for Spotify
type SpotifyConfig struct {
	ClientID     string   `json:"clientId"`
	ClientSecret Secret   `json:"clientSecret"`
	CallbackURL  string   `json:"callbackURL"`
	Scopes       []string `json:"scopes,omitempty"`
	Timeout      Duration `json:"timeout,omitempty"`
}

// MusixmatchConfig contains the lyrics lookup settings
type MusixmatchConfig struct {
	APIKey  Secret   `json:"apiKey"`
	BaseURL string   `json:"baseURL,omitempty"`
	Timeout Duration `json:"timeout,omitempty"`
}

// SessionConfig contains session persistence settings
type SessionConfig struct {
	Storage    StorageKind `json:"storage"`
	SigningKey Secret      `json:"signingKey"`
	TTL        Duration    `json:"ttl,omitempty"`

	// Firestore backend settings, required when storage is "firestore"
	FirestoreProject  string `json:"firestoreProject,omitempty"`
	FirestoreDatabase string `json:"firestoreDatabase,omitempty"`
	Collection        string `json:"collection,omitempty"`

	CleanupInterval Duration `json:"cleanupInterval,omitempty"`
}

// Defaults applied when the config omits optional fields
const (
	DefaultDownstreamTimeout = 10 * time.Second
	DefaultSessionTTL        = 24 * time.Hour
	DefaultCleanupInterval   = 1 * time.Hour
	DefaultCollection        = "lyricfront_sessions"
)

// DefaultSpotifyScopes covers profile access and playback state reads
var DefaultSpotifyScopes = []string{
	"user-read-private",
	"user-read-email",
	"user-read-currently-playing",
	"user-read-playback-state",
}

// Load reads and validates the config file, resolving env references
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&config)

	if err := Validate(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.FailureRedirect == "" {
		config.Server.FailureRedirect = "/"
	}
	if len(config.Spotify.Scopes) == 0 {
		config.Spotify.Scopes = DefaultSpotifyScopes
	}
	if config.Spotify.Timeout == 0 {
		config.Spotify.Timeout = Duration(DefaultDownstreamTimeout)
	}
	if config.Musixmatch.Timeout == 0 {
		config.Musixmatch.Timeout = Duration(DefaultDownstreamTimeout)
	}
	if config.Sessions.Storage == "" {
		config.Sessions.Storage = StorageKindMemory
	}
	if config.Sessions.TTL == 0 {
		config.Sessions.TTL = Duration(DefaultSessionTTL)
	}
	if config.Sessions.CleanupInterval == 0 {
		config.Sessions.CleanupInterval = Duration(DefaultCleanupInterval)
	}
	if config.Sessions.Collection == "" {
		config.Sessions.Collection = DefaultCollection
	}
}

// Validate checks the resolved configuration
func Validate(config *Config) error {
	if config.Version == "" {
		return fmt.Errorf("config version is required")
	}
	if config.Server.BaseURL == "" {
		return fmt.Errorf("server.baseURL is required")
	}
	if config.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if (config.Server.AdminUsername == "") != (config.Server.AdminPasswordHash == "") {
		return fmt.Errorf("server.adminUsername and server.adminPasswordHash must be set together")
	}

	if config.Spotify.ClientID == "" {
		return fmt.Errorf("spotify.clientId is required")
	}
	if config.Spotify.ClientSecret == "" {
		return fmt.Errorf("spotify.clientSecret is required")
	}
	if config.Spotify.CallbackURL == "" {
		return fmt.Errorf("spotify.callbackURL is required")
	}

	if config.Musixmatch.APIKey == "" {
		return fmt.Errorf("musixmatch.apiKey is required")
	}

	if config.Sessions.SigningKey == "" {
		return fmt.Errorf("sessions.signingKey is required")
	}
	switch config.Sessions.Storage {
	case StorageKindMemory:
	case StorageKindFirestore:
		if config.Sessions.FirestoreProject == "" {
			return fmt.Errorf("sessions.firestoreProject is required for firestore storage")
		}
	default:
		return fmt.Errorf("unknown session storage kind: %s", config.Sessions.Storage)
	}

	return nil
}

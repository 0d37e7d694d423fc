package types

import (
	"errors"
	"net/url"
	"time"
)

// Config holds the connection and session parameters of a client.
type Config struct {
	APIURL string `json:"api_url" yaml:"api_url"`
	WSURL  string `json:"ws_url" yaml:"ws_url"`

	// PageSize is fixed for the lifetime of a table session.
	PageSize int `json:"page_size" yaml:"page_size"`

	// ReconnectInitial is the first reconnect delay; each further attempt
	// doubles it until ReconnectMaxAttempts is reached.
	ReconnectInitial     time.Duration `json:"reconnect_initial" yaml:"reconnect_initial"`
	ReconnectMaxAttempts int           `json:"reconnect_max_attempts" yaml:"reconnect_max_attempts"`

	// FieldCacheTTL bounds the age of cached table schemas. Zero disables
	// the cache.
	FieldCacheTTL time.Duration `json:"field_cache_ttl" yaml:"field_cache_ttl"`
	DataDir       string        `json:"data_dir" yaml:"data_dir"`

	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr"`
}

// Defaults used when a config value is unset.
const (
	DefaultAPIURL               = "http://localhost:8080/api/v1"
	DefaultWSURL                = "ws://localhost:8080/ws"
	DefaultPageSize             = 50
	DefaultReconnectInitial     = time.Second
	DefaultReconnectMaxAttempts = 5
	DefaultFieldCacheTTL        = 5 * time.Minute
)

// Config validation errors.
var (
	ErrAPIURLInvalid      = errors.New("api_url must be an absolute http(s) URL")
	ErrWSURLInvalid       = errors.New("ws_url must be an absolute ws(s) URL")
	ErrPageSizeInvalid    = errors.New("page_size must be positive")
	ErrReconnectInvalid   = errors.New("reconnect_initial must be positive")
	ErrMaxAttemptsInvalid = errors.New("reconnect_max_attempts must not be negative")
	ErrCacheTTLInvalid    = errors.New("field_cache_ttl must not be negative")
)

// DefaultConfig returns a Config pointing at a local base service.
func DefaultConfig() Config {
	return Config{
		APIURL:               DefaultAPIURL,
		WSURL:                DefaultWSURL,
		PageSize:             DefaultPageSize,
		ReconnectInitial:     DefaultReconnectInitial,
		ReconnectMaxAttempts: DefaultReconnectMaxAttempts,
		FieldCacheTTL:        DefaultFieldCacheTTL,
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if !absoluteURL(c.APIURL, "http", "https") {
		return ErrAPIURLInvalid
	}
	if !absoluteURL(c.WSURL, "ws", "wss") {
		return ErrWSURLInvalid
	}
	if c.PageSize <= 0 {
		return ErrPageSizeInvalid
	}
	if c.ReconnectInitial <= 0 {
		return ErrReconnectInvalid
	}
	if c.ReconnectMaxAttempts < 0 {
		return ErrMaxAttemptsInvalid
	}
	if c.FieldCacheTTL < 0 {
		return ErrCacheTTLInvalid
	}
	return nil
}

func absoluteURL(raw string, schemes ...string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return true
		}
	}
	return false
}

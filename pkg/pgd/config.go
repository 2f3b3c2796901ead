package pgd

import (
	"strings"
	"time"

	"github.com/allisson/go-env"
	"github.com/cockroachdb/errors"
)

const (
	DefaultBaseURL            = "https://api-pgd.dth.api.gov.br/"
	DefaultRequestTimeout     = 300 * time.Second
	DefaultSystemAboutURL     = "url não informada"
	DefaultInvalidTokenMarker = "Token inválido"
)

// Config holds everything the client needs to reach the API.
type Config struct {
	// BaseURL is the API root; a trailing slash is ignored.
	BaseURL string
	// RequestTimeout bounds every HTTP call.
	RequestTimeout time.Duration

	// SystemName, SystemVersion and SystemAboutURL identify the calling
	// system in the User-Agent header.
	SystemName     string
	SystemVersion  string
	SystemAboutURL string

	Username string
	Password string

	// OriginUnit and AuthorizerUnit are used by the organisation-scoped
	// endpoints when a call does not supply its own values.
	OriginUnit     string
	AuthorizerUnit int

	// InvalidTokenMarker is the text that identifies an expired or invalid
	// token in an error response.
	InvalidTokenMarker string
}

// LoadConfig reads the configuration from PGD_* environment variables.
func LoadConfig() Config {
	return Config{
		BaseURL:            env.GetString("PGD_API_URL", DefaultBaseURL),
		RequestTimeout:     env.GetDuration("PGD_API_REQUEST_TIMEOUT", int(DefaultRequestTimeout/time.Second), time.Second),
		SystemName:         env.GetString("PGD_SOURCE_SYSTEM_NAME", ""),
		SystemVersion:      env.GetString("PGD_SOURCE_SYSTEM_VERSION", ""),
		SystemAboutURL:     env.GetString("PGD_SOURCE_SYSTEM_ABOUT_URL", DefaultSystemAboutURL),
		Username:           env.GetString("PGD_API_USERNAME", ""),
		Password:           env.GetString("PGD_API_PASSWORD", ""),
		OriginUnit:         env.GetString("PGD_ORIGEM_UNIDADE", ""),
		AuthorizerUnit:     env.GetInt("PGD_COD_UNIDADE_AUTORIZADORA", 0),
		InvalidTokenMarker: env.GetString("PGD_TOKEN_INVALID_MARKER", DefaultInvalidTokenMarker),
	}
}

// withDefaults fills unset optional fields.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.SystemAboutURL == "" {
		c.SystemAboutURL = DefaultSystemAboutURL
	}
	if c.InvalidTokenMarker == "" {
		c.InvalidTokenMarker = DefaultInvalidTokenMarker
	}
	return c
}

// Validate reports missing required settings.
func (c Config) Validate() error {
	var missing []string
	if c.Username == "" {
		missing = append(missing, "PGD_API_USERNAME")
	}
	if c.Password == "" {
		missing = append(missing, "PGD_API_PASSWORD")
	}
	if c.SystemName == "" {
		missing = append(missing, "PGD_SOURCE_SYSTEM_NAME")
	}
	if c.SystemVersion == "" {
		missing = append(missing, "PGD_SOURCE_SYSTEM_VERSION")
	}
	if len(missing) > 0 {
		return &Error{
			Kind:    KindConfig,
			Message: "missing required configuration: " + strings.Join(missing, ", "),
			cause:   errors.Newf("%d settings missing", len(missing)),
		}
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return &Error{Kind: KindConfig, Message: "base URL must use http or https: " + c.BaseURL}
	}
	return nil
}

// Package mongo writes record chunks to a MongoDB collection.
package mongo

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/bft-labs/bulkload/internal/domain"
)

// Default connection values.
const (
	DefaultHost       = "localhost"
	DefaultPort       = 27017
	DefaultUsername   = "admin"
	DefaultPassword   = "admin123"
	DefaultDatabase   = "healthcare_db"
	DefaultCollection = "patients"
	DefaultTimeout    = 10 * time.Second
)

// Config holds the connection parameters of a MongoDB sink.
type Config struct {
	// URI overrides the host, port and credential fields when set
	URI string

	Host     string
	Port     int
	Username string
	Password string

	Database   string
	Collection string

	// Timeout bounds server selection and the connect ping
	Timeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Host:       DefaultHost,
		Port:       DefaultPort,
		Username:   DefaultUsername,
		Password:   DefaultPassword,
		Database:   DefaultDatabase,
		Collection: DefaultCollection,
		Timeout:    DefaultTimeout,
	}
}

// ConnectionURI returns the URI used to connect.
func (c Config) ConnectionURI() string {
	if c.URI != "" {
		return c.URI
	}

	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/",
	}
	if c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	return u.String()
}

// Redacted returns the connection URI with the password masked, for logs.
func (c Config) Redacted() string {
	u, err := url.Parse(c.ConnectionURI())
	if err != nil {
		return "mongodb://<invalid>"
	}
	return u.Redacted()
}

// Validate checks the config for required fields.
func (c Config) Validate() error {
	if c.URI == "" && c.Host == "" {
		return fmt.Errorf("%w: mongo host or uri is required", domain.ErrInvalidConfig)
	}
	if c.URI == "" && (c.Port <= 0 || c.Port > 65535) {
		return fmt.Errorf("%w: mongo port %d out of range", domain.ErrInvalidConfig, c.Port)
	}
	if c.Database == "" || c.Collection == "" {
		return fmt.Errorf("%w: mongo database and collection are required", domain.ErrInvalidConfig)
	}
	return nil
}

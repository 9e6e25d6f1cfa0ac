package client

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"sigs.k8s.io/yaml"
)

// Config holds the information needed to connect to the estimation pipeline
// API server.
type Config struct {
	Service Service `json:"service"`
}

// Service contains information how to connect to the pipeline API server. The
// bearer credential is not part of the persisted config; it is supplied at
// construction by the authentication collaborator.
type Service struct {
	// Server is the URL of the pipeline API server (the part before /api/v1/...).
	Server string `json:"server"`
}

func (c *Config) Equal(c2 *Config) bool {
	if c == c2 {
		return true
	}
	if c == nil || c2 == nil {
		return false
	}
	return c.Service.Server == c2.Service.Server
}

func NewDefault() *Config {
	return &Config{}
}

// NewHTTPClientFromConfig returns a new HTTP Client from the given config.
// No global timeout is set on the client itself: the push channel holds a
// single response open for the lifetime of a job, so per-call deadlines are
// the caller's business.
func NewHTTPClientFromConfig(config *Config) (*http.Client, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     false,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
	return httpClient, nil
}

// DefaultClientConfigPath returns the default path to the client config file.
func DefaultClientConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".estimator", "client.yaml")
	}
	return filepath.Join(home, ".estimator", "client.yaml")
}

func ParseConfigFile(filename string) (*Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	config := NewDefault()
	if err := yaml.Unmarshal(contents, config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Persist(filename string) error {
	contents, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filename), 0700); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.WriteFile(filename, contents, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if len(c.Service.Server) == 0 {
		return fmt.Errorf("invalid configuration: no server found")
	}
	u, err := url.Parse(c.Service.Server)
	if err != nil {
		return fmt.Errorf("invalid configuration: server %q is not a valid URL: %w", c.Service.Server, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid configuration: server %q must include scheme and host", c.Service.Server)
	}
	return nil
}

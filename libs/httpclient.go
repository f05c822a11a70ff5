package libs

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"
)

// HTTPConfig controls the shared HTTP client used for every request the
// suite sends to the service under test.
type HTTPConfig struct {
	Timeout         time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration
	TLS             TLSConfig
}

// TLSConfig holds optional TLS settings for environments with private CAs or
// mutual TLS.
type TLSConfig struct {
	Enabled            bool
	InsecureSkipVerify bool
	CACert             string
	ClientCert         string
	ClientKey          string
}

// DefaultHTTPConfig returns the client settings used unless a run overrides
// them. The timeout doubles as the per-request cancellation bound (spec'd in
// tens of seconds, not minutes).
func DefaultHTTPConfig() *HTTPConfig {
	timeout := viper.GetDuration("http_timeout")
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPConfig{
		Timeout:         timeout,
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	}
}

// NewSCIMHTTPClient creates the HTTP client all SCIM requests go through.
// Connection pooling matters here: the suite fires many short requests at
// the same host, often from parallel test workers.
func NewSCIMHTTPClient(config *HTTPConfig) (*http.Client, error) {
	if config == nil {
		return nil, fmt.Errorf("http config cannot be nil")
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConns,
		IdleConnTimeout:     config.IdleConnTimeout,
		DisableCompression:  false,
		ForceAttemptHTTP2:   true,
	}

	if config.TLS.Enabled {
		tlsConfig, err := buildTLSConfig(&config.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to build TLS config: %w", err)
		}
		transport.TLSClientConfig = tlsConfig
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}

	return client, nil
}

func buildTLSConfig(config *TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: config.InsecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}

	if config.CACert != "" {
		caCert, err := os.ReadFile(config.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate from %s: %w", config.CACert, err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate from %s", config.CACert)
		}
		tlsConfig.RootCAs = caCertPool
	}

	if config.ClientCert != "" && config.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(config.ClientCert, config.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate and key: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	} else if config.ClientCert != "" || config.ClientKey != "" {
		return nil, fmt.Errorf("both client_cert and client_key must be provided for mutual TLS")
	}

	return tlsConfig, nil
}

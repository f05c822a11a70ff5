package libs

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHTTPConfig(t *testing.T) {
	viper.Reset()
	config := DefaultHTTPConfig()
	assert.Equal(t, 30*time.Second, config.Timeout)

	viper.Set("http_timeout", "10s")
	config = DefaultHTTPConfig()
	assert.Equal(t, 10*time.Second, config.Timeout)
}

func TestNewSCIMHTTPClient(t *testing.T) {
	client, err := NewSCIMHTTPClient(DefaultHTTPConfig())

	require.NoError(t, err)
	assert.NotNil(t, client.Transport)
	assert.Equal(t, DefaultHTTPConfig().Timeout, client.Timeout)
}

func TestNewSCIMHTTPClient_NilConfig(t *testing.T) {
	_, err := NewSCIMHTTPClient(nil)
	require.Error(t, err)
}

func TestNewSCIMHTTPClient_MutualTLSNeedsBothFiles(t *testing.T) {
	config := DefaultHTTPConfig()
	config.TLS = TLSConfig{Enabled: true, ClientCert: "/tmp/client.pem"}

	_, err := NewSCIMHTTPClient(config)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "client_cert and client_key")
}

func TestNewSCIMHTTPClient_MissingCACert(t *testing.T) {
	config := DefaultHTTPConfig()
	config.TLS = TLSConfig{Enabled: true, CACert: "/nonexistent/ca.pem"}

	_, err := NewSCIMHTTPClient(config)
	require.Error(t, err)
}

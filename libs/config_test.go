package libs

import (
	"flag"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestConfig() {
	viper.Reset()
	setProfileDefaults()
	viper.SetDefault("oauth_scope", "scim")
}

func TestIsOEMValue_TruthySpellings(t *testing.T) {
	truthy := []string{
		"true", "TRUE", "True",
		"1",
		"yes", "YES", "Yes",
		"oem", "OEM", "Oem",
		"  true  ",
	}

	for _, value := range truthy {
		assert.Truef(t, IsOEMValue(value), "expected %q to select the OEM profile", value)
	}
}

func TestIsOEMValue_EverythingElseIsNonOEM(t *testing.T) {
	falsy := []string{"", "false", "0", "no", "nonoem", "truthy", "y"}

	for _, value := range falsy {
		assert.Falsef(t, IsOEMValue(value), "expected %q to select the Non-OEM profile", value)
	}
}

func TestResolveEnvironment_DefaultsToNonOEM(t *testing.T) {
	setupTestConfig()

	profile := ResolveEnvironment()

	assert.Equal(t, EnvironmentNonOEM, profile.Name)
	assert.False(t, profile.IsOEM())
	assert.Equal(t, viper.GetString("profiles.nonoem.api_base_url"), profile.APIBaseURL)
	assert.Empty(t, profile.InstitutionID)
}

func TestResolveEnvironment_OEMSelectsOEMProfile(t *testing.T) {
	setupTestConfig()
	viper.Set("oem", "Yes")

	profile := ResolveEnvironment()

	assert.Equal(t, EnvironmentOEM, profile.Name)
	assert.True(t, profile.IsOEM())
	assert.Equal(t, viper.GetString("profiles.oem.api_base_url"), profile.APIBaseURL)
	assert.NotEmpty(t, profile.InstitutionID, "OEM profile must carry an institution id")
}

func TestResolveEnvironment_EnvironmentOverrides(t *testing.T) {
	setupTestConfig()
	viper.Set("oem", "true")
	viper.Set("api_base_url", "https://override.example.com")
	viper.Set("oauth_base_url", "https://idp-override.example.com")
	viper.Set("institution_id", "102")
	viper.Set("client_id", "suite-client")
	viper.Set("client_secret", "suite-secret")
	viper.Set("db_user", "sa")
	viper.Set("db_password", "hunter2")

	profile := ResolveEnvironment()

	assert.Equal(t, "https://override.example.com", profile.APIBaseURL)
	assert.Equal(t, "https://idp-override.example.com", profile.OAuthBaseURL)
	assert.Equal(t, "102", profile.InstitutionID)
	assert.Equal(t, "suite-client", profile.OAuthClientID)
	assert.Equal(t, "suite-secret", profile.OAuthClientSecret)
	assert.Equal(t, "sa", profile.DBUser)
	assert.Equal(t, "hunter2", profile.DBPassword)
}

func TestResolveEnvironment_AlternateEnvSpellings(t *testing.T) {
	setupTestConfig()
	bindEnvironment()
	t.Setenv("OAUTH_CLIENT_ID", "alt-client")
	t.Setenv("OAUTH_CLIENT_SECRET", "alt-secret")

	profile := ResolveEnvironment()

	assert.Equal(t, "alt-client", profile.OAuthClientID)
	assert.Equal(t, "alt-secret", profile.OAuthClientSecret)
}

func TestEndpointTypeFlag_OverridesEnvironment(t *testing.T) {
	setupTestConfig()
	bindEnvironment()
	t.Setenv("ENDPOINT_TYPE", "scim")
	viper.SetDefault("endpoint_type", "scim")

	// Same wiring as InitConfiguration, on a private flag set so the test
	// runner's own flags stay out of the way.
	registerFlags()
	flags := pflag.NewFlagSet("suite", pflag.ContinueOnError)
	flags.AddGoFlagSet(flag.CommandLine)
	require.NoError(t, flags.Parse([]string{"--endpoint_type", "apiserver"}))
	require.NoError(t, viper.BindPFlags(flags))

	assert.Equal(t, "apiserver", viper.GetString("endpoint_type"),
		"the flag must beat both the environment variable and the default")
}

func TestResolveEnvironment_OEMFromEnvironmentVariable(t *testing.T) {
	setupTestConfig()
	bindEnvironment()
	t.Setenv("OEM", "oem")

	profile := ResolveEnvironment()

	require.Equal(t, EnvironmentOEM, profile.Name)
}

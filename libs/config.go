package libs

import (
	"flag"
	"log"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvironmentName identifies one of the two deployment variants the suite
// knows how to talk to.
type EnvironmentName string

const (
	EnvironmentOEM    EnvironmentName = "OEM"
	EnvironmentNonOEM EnvironmentName = "NonOEM"
)

// EnvironmentProfile carries everything a test run needs to reach one
// deployment: API and OAuth endpoints, client credentials and the database
// used for fixture setup. It is resolved once at suite start and treated as
// immutable afterwards.
type EnvironmentProfile struct {
	Name              EnvironmentName
	APIBaseURL        string
	OAuthBaseURL      string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthScope        string
	DBServer          string
	DBName            string
	DBUser            string
	DBPassword        string
	InstitutionID     string
}

// IsOEM reports whether the profile targets the multi-tenant OEM variant.
func (p EnvironmentProfile) IsOEM() bool {
	return p.Name == EnvironmentOEM
}

// registerFlags declares the suite's command line flags once. Flag names
// double as viper keys, so they must match the keys the rest of the code
// reads.
func registerFlags() {
	if flag.Lookup("config") != nil {
		return
	}
	flag.String("config", "./", "Path to config.yml")
	flag.String("endpoint_type", "", "Endpoint routing style (scim or apiserver), overrides ENDPOINT_TYPE")
	flag.Bool("enableOtel", false, "Enable OTEL (OpenTelemetry)")
}

// InitConfiguration initializes the configuration for the suite using flags,
// environment variables and an optional YAML configuration file.
func InitConfiguration() error {
	registerFlags()

	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)

	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(viper.GetString("config"))

	bindEnvironment()
	setProfileDefaults()

	viper.SetDefault("endpoint_type", "scim")
	viper.SetDefault("token_provider", "clientcredentials")
	viper.SetDefault("oauth_scope", "scim")
	viper.SetDefault("token_cache_type", "memory")
	viper.SetDefault("token_cache_expire", "55m")
	viper.SetDefault("redis_host", "localhost:6379")
	viper.SetDefault("redis_db", 0)

	viper.SetDefault("http_timeout", "30s")
	viper.SetDefault("response_time_threshold", "2s")

	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")

	err := viper.ReadInConfig()
	if err != nil {
		log.Println(err)
	}

	return nil
}

// bindEnvironment wires the environment variables consumed by the suite to
// viper keys. Where two spellings exist in the wild, both are bound and the
// first one set wins.
func bindEnvironment() {
	viper.BindEnv("oem", "OEM")
	viper.BindEnv("endpoint_type", "ENDPOINT_TYPE", "API_ENDPOINT_TYPE")
	viper.BindEnv("api_base_url", "API_BASE_URL")
	viper.BindEnv("oauth_base_url", "OAUTH_BASE_URL")
	viper.BindEnv("client_id", "CLIENT_ID", "OAUTH_CLIENT_ID")
	viper.BindEnv("client_secret", "CLIENT_SECRET", "OAUTH_CLIENT_SECRET")
	viper.BindEnv("oauth_scope", "OAUTH_SCOPE")
	viper.BindEnv("oauth_issuer", "OAUTH_ISSUER")
	viper.BindEnv("oauth_static_token", "OAUTH_STATIC_TOKEN")
	viper.BindEnv("db_server", "DB_SERVER")
	viper.BindEnv("db_name", "DB_NAME")
	viper.BindEnv("db_user", "DB_USER")
	viper.BindEnv("db_password", "DB_PASSWORD")
	viper.BindEnv("institution_id", "INSTITUTION_ID")
}

// setProfileDefaults seeds the static profile table. Every entry can be
// overridden per run through the corresponding environment variable.
func setProfileDefaults() {
	viper.SetDefault("profiles.nonoem.api_base_url", "https://scim.example.com")
	viper.SetDefault("profiles.nonoem.oauth_base_url", "https://idp.example.com")
	viper.SetDefault("profiles.nonoem.db_server", "scim-db.example.com")
	viper.SetDefault("profiles.nonoem.db_name", "OnBase")

	viper.SetDefault("profiles.oem.api_base_url", "https://scim.oem.example.com")
	viper.SetDefault("profiles.oem.oauth_base_url", "https://idp.oem.example.com")
	viper.SetDefault("profiles.oem.db_server", "scim-db.oem.example.com")
	viper.SetDefault("profiles.oem.db_name", "OnBase")
	viper.SetDefault("profiles.oem.institution_id", "101")
}

// oemValues are the OEM switch spellings accepted case-insensitively.
var oemValues = []string{"true", "1", "yes", "oem"}

// IsOEMValue reports whether the raw OEM environment value selects the OEM
// profile. Absence and every unrecognized value mean Non-OEM; there is no
// error path here.
func IsOEMValue(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	for _, ov := range oemValues {
		if v == ov {
			return true
		}
	}
	return false
}

// ResolveEnvironment selects the active profile from the process
// configuration. It must be called after InitConfiguration; callers are
// expected to log the resolved profile name once for operator visibility.
func ResolveEnvironment() EnvironmentProfile {
	name := EnvironmentNonOEM
	key := "nonoem"
	if IsOEMValue(viper.GetString("oem")) {
		name = EnvironmentOEM
		key = "oem"
	}

	profile := EnvironmentProfile{
		Name:              name,
		APIBaseURL:        viper.GetString("profiles." + key + ".api_base_url"),
		OAuthBaseURL:      viper.GetString("profiles." + key + ".oauth_base_url"),
		OAuthScope:        viper.GetString("oauth_scope"),
		OAuthClientID:     viper.GetString("client_id"),
		OAuthClientSecret: viper.GetString("client_secret"),
		DBServer:          viper.GetString("profiles." + key + ".db_server"),
		DBName:            viper.GetString("profiles." + key + ".db_name"),
		DBUser:            viper.GetString("db_user"),
		DBPassword:        viper.GetString("db_password"),
		InstitutionID:     viper.GetString("profiles." + key + ".institution_id"),
	}

	// Per-run overrides beat the static table.
	if v := viper.GetString("api_base_url"); v != "" {
		profile.APIBaseURL = v
	}
	if v := viper.GetString("oauth_base_url"); v != "" {
		profile.OAuthBaseURL = v
	}
	if v := viper.GetString("db_server"); v != "" {
		profile.DBServer = v
	}
	if v := viper.GetString("db_name"); v != "" {
		profile.DBName = v
	}
	if v := viper.GetString("institution_id"); v != "" {
		profile.InstitutionID = v
	}

	return profile
}

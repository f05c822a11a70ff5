package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/viper"

	"github.com/scimatic/scimcheck/libs"
	"github.com/scimatic/scimcheck/logger"
	"github.com/scimatic/scimcheck/provider"
	_ "github.com/scimatic/scimcheck/provider/clientcredentials"
	_ "github.com/scimatic/scimcheck/provider/static"
	"github.com/scimatic/scimcheck/scim"
)

// main is the suite's doctor: it resolves the environment, performs one
// token exchange and fetches ServiceProviderConfig, so a broken run
// configuration is diagnosed before any test-runner invocation.
func main() {
	if err := libs.InitConfiguration(); err != nil {
		panic(err)
	}

	logger.Init()

	profile := libs.ResolveEnvironment()
	slog.Info("resolved environment",
		slog.String("profile", string(profile.Name)),
		slog.String("api_base_url", profile.APIBaseURL),
	)

	endpointType, err := libs.ParseEndpointType(viper.GetString("endpoint_type"))
	if err != nil {
		slog.Error("invalid endpoint type", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("endpoint routing", slog.String("type", string(endpointType)))

	tokens, err := provider.DefaultFactory.Create(viper.GetString("token_provider"), profile)
	if err != nil {
		slog.Error("failed to build token provider", slog.Any("error", err))
		os.Exit(1)
	}
	if err := tokens.Validate(); err != nil {
		slog.Error("token provider configuration invalid", slog.Any("error", err))
		os.Exit(1)
	}

	client, err := scim.NewClient(profile, endpointType, tokens, nil)
	if err != nil {
		slog.Error("failed to build SCIM client", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("http_timeout"))
	defer cancel()

	resp, err := client.GetServiceProviderConfig(ctx)
	if err != nil {
		slog.Error("ServiceProviderConfig request failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := scim.ValidateStatus(resp, http.StatusOK); err != nil {
		slog.Error("unexpected ServiceProviderConfig response", slog.Any("error", err))
		os.Exit(1)
	}

	body, err := scim.ValidateJSONBody(resp)
	if err != nil {
		slog.Error("ServiceProviderConfig body unreadable", slog.Any("error", err))
		os.Exit(1)
	}
	if err := scim.ValidateEnvelope(body, scim.EnvelopeSingle); err != nil {
		slog.Error("ServiceProviderConfig envelope invalid", slog.Any("error", err))
		os.Exit(1)
	}

	if err := scim.ValidateResponseTime(resp.Elapsed, viper.GetDuration("response_time_threshold"), "GET ServiceProviderConfig"); err != nil {
		slog.Warn("service reachable but slow", slog.Any("warning", err))
	}

	slog.Info("environment healthy",
		slog.Duration("elapsed", resp.Elapsed),
		slog.Int("status", resp.StatusCode),
	)
}

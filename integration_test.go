package main

import (
	"context"
	"net/http"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scimatic/scimcheck/libs"
	"github.com/scimatic/scimcheck/provider"
	"github.com/scimatic/scimcheck/scim"
	"github.com/scimatic/scimcheck/scimtest"
)

// newSuite wires the full stack against the in-process service: resolved
// profile, client-credentials token provider and SCIM client, exactly as a
// real run would assemble them.
func newSuite(t *testing.T, opts scimtest.Options) (*scim.Client, *scimtest.Server, libs.EnvironmentProfile) {
	t.Helper()

	opts.ClientID = "suite-client"
	opts.ClientSecret = "suite-secret"

	srv := scimtest.New(opts)
	t.Cleanup(srv.Close)

	viper.Reset()
	viper.Set("token_cache_type", "memory")
	viper.Set("token_cache_expire", "55m")

	profile := libs.EnvironmentProfile{
		Name:              libs.EnvironmentNonOEM,
		APIBaseURL:        srv.URL(),
		OAuthBaseURL:      srv.URL(),
		OAuthClientID:     "suite-client",
		OAuthClientSecret: "suite-secret",
		OAuthScope:        "scim",
	}
	if opts.OEM {
		profile.Name = libs.EnvironmentOEM
		profile.InstitutionID = "101"
	}

	tokens, err := provider.DefaultFactory.Create("clientcredentials", profile)
	require.NoError(t, err)
	require.NoError(t, tokens.Validate())

	client, err := scim.NewClient(profile, libs.EndpointSCIM, tokens, nil)
	require.NoError(t, err)

	return client, srv, profile
}

func TestSuite_UserRoundTrip(t *testing.T) {
	client, _, _ := newSuite(t, scimtest.Options{})
	ctx := context.Background()

	userName := libs.UniqueUserName("E2E")

	resp, err := client.CreateUser(ctx, &scim.User{
		Schemas:  []string{scim.SchemaUser},
		UserName: userName,
		Active:   true,
	})
	require.NoError(t, err)
	require.NoError(t, scim.ValidateStatus(resp, http.StatusCreated))

	var created scim.User
	require.NoError(t, resp.Decode(&created))
	require.NotEmpty(t, created.ID)

	resp, err = client.GetUser(ctx, created.ID)
	require.NoError(t, err)
	require.NoError(t, scim.ValidateStatus(resp, http.StatusOK))

	var fetched scim.User
	require.NoError(t, resp.Decode(&fetched))
	assert.Equal(t, userName, fetched.UserName)

	body, err := scim.ValidateJSONBody(resp)
	require.NoError(t, err)
	require.NoError(t, scim.ValidateEnvelope(body, scim.EnvelopeSingle))
	require.NoError(t, scim.ValidateFieldTypes(body, map[string]scim.FieldKind{
		"id":       scim.KindString,
		"userName": scim.KindString,
		"active":   scim.KindBoolean,
	}))

	resp, err = client.DeleteUser(ctx, created.ID)
	require.NoError(t, err)
	require.NoError(t, scim.ValidateStatus(resp, http.StatusNoContent))

	resp, err = client.GetUser(ctx, created.ID)
	require.NoError(t, err)
	require.NoError(t, scim.ValidateStatus(resp, http.StatusNotFound))
}

func TestSuite_TokenIsExchangedOnce(t *testing.T) {
	client, srv, _ := newSuite(t, scimtest.Options{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		resp, err := client.GetServiceProviderConfig(ctx)
		require.NoError(t, err)
		require.NoError(t, scim.ValidateStatus(resp, http.StatusOK))
	}

	assert.EqualValues(t, 1, srv.ExchangeCount(), "every request after the first must reuse the cached token")
}

func TestSuite_OEMFilterScopesToInstitution(t *testing.T) {
	client, _, profile := newSuite(t, scimtest.Options{OEM: true})
	ctx := context.Background()

	userName := libs.UniqueUserName("OEM")

	resp, err := client.CreateUser(ctx, &scim.User{
		Schemas:       []string{scim.SchemaUser},
		UserName:      userName,
		Active:        true,
		InstitutionID: profile.InstitutionID,
	})
	require.NoError(t, err)
	require.NoError(t, scim.ValidateStatus(resp, http.StatusCreated))

	filter, err := libs.BuildUserFilter(userName, profile)
	require.NoError(t, err)
	assert.Contains(t, filter, `institutionid eq "101"`)

	resp, err = client.ListUsers(ctx, &scim.ListOptions{Filter: filter})
	require.NoError(t, err)
	require.NoError(t, scim.ValidateStatus(resp, http.StatusOK))

	var list scim.ListResponse
	require.NoError(t, resp.Decode(&list))
	require.Equal(t, 1, list.TotalResults)

	// The same username under another institution must not be visible
	// through the scoped filter.
	otherFilter, err := libs.BuildUserFilter(userName, libs.EnvironmentProfile{
		Name:          libs.EnvironmentOEM,
		InstitutionID: "999",
	})
	require.NoError(t, err)

	resp, err = client.ListUsers(ctx, &scim.ListOptions{Filter: otherFilter})
	require.NoError(t, err)

	require.NoError(t, resp.Decode(&list))
	assert.Zero(t, list.TotalResults)
}

func TestSuite_BadCredentialsFailTheRun(t *testing.T) {
	srv := scimtest.New(scimtest.Options{ClientID: "suite-client", ClientSecret: "suite-secret"})
	t.Cleanup(srv.Close)

	viper.Reset()
	viper.Set("token_cache_type", "memory")

	profile := libs.EnvironmentProfile{
		Name:              libs.EnvironmentNonOEM,
		APIBaseURL:        srv.URL(),
		OAuthBaseURL:      srv.URL(),
		OAuthClientID:     "suite-client",
		OAuthClientSecret: "wrong-secret",
	}

	tokens, err := provider.DefaultFactory.Create("clientcredentials", profile)
	require.NoError(t, err)

	client, err := scim.NewClient(profile, libs.EndpointSCIM, tokens, nil)
	require.NoError(t, err)

	_, err = client.GetServiceProviderConfig(context.Background())

	var authErr *provider.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
}

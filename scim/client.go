package scim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/scimatic/scimcheck/libs"
	"github.com/scimatic/scimcheck/provider"
)

// Client issues authenticated SCIM requests against the environment the
// suite resolved at startup. It is safe for concurrent use by parallel test
// workers; the token provider handles refresh under its own lock.
type Client struct {
	profile      libs.EnvironmentProfile
	endpointType libs.EndpointType
	tokens       provider.TokenProvider
	http         *http.Client
}

// NewClient wires a client from the resolved profile, the endpoint routing
// style and a token provider. A nil httpClient gets the suite default.
func NewClient(profile libs.EnvironmentProfile, endpointType libs.EndpointType, tokens provider.TokenProvider, httpClient *http.Client) (*Client, error) {
	if _, err := libs.ParseEndpointType(string(endpointType)); err != nil {
		return nil, err
	}
	if tokens == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	if httpClient == nil {
		var err error
		httpClient, err = libs.NewSCIMHTTPClient(libs.DefaultHTTPConfig())
		if err != nil {
			return nil, err
		}
	}

	return &Client{
		profile:      profile,
		endpointType: endpointType,
		tokens:       tokens,
		http:         httpClient,
	}, nil
}

// Response captures everything validators need from one HTTP exchange: the
// status, headers, the fully-read body and the observed wall-clock latency.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Elapsed    time.Duration
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v interface{}) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &MalformedResponseError{Err: err}
	}
	return nil
}

// ListOptions carries the standard SCIM list query parameters.
type ListOptions struct {
	Filter     string
	StartIndex int
	Count      int
}

func (o *ListOptions) query() url.Values {
	q := url.Values{}
	if o == nil {
		return q
	}
	if o.Filter != "" {
		q.Set("filter", o.Filter)
	}
	if o.StartIndex > 0 {
		q.Set("startIndex", strconv.Itoa(o.StartIndex))
	}
	if o.Count > 0 {
		q.Set("count", strconv.Itoa(o.Count))
	}
	return q
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (*Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	u := strings.TrimRight(c.profile.APIBaseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.Value)
	req.Header.Set("Accept", MIMEType)
	if body != nil {
		req.Header.Set("Content-Type", MIMEType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       raw,
		Elapsed:    time.Since(start),
	}, nil
}

func (c *Client) collection(resource libs.Resource) (string, error) {
	return libs.BuildPath(resource, c.endpointType)
}

func (c *Client) item(resource libs.Resource, id string) (string, error) {
	base, err := libs.BuildPath(resource, c.endpointType)
	if err != nil {
		return "", err
	}
	return base + "/" + url.PathEscape(id), nil
}

// CreateUser POSTs a new user to /Users.
func (c *Client) CreateUser(ctx context.Context, user *User) (*Response, error) {
	path, err := c.collection(libs.ResourceUsers)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, nil, user)
}

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, id string) (*Response, error) {
	path, err := c.item(libs.ResourceUsers, id)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

// ListUsers GETs /Users with optional filter and pagination.
func (c *Client) ListUsers(ctx context.Context, opts *ListOptions) (*Response, error) {
	path, err := c.collection(libs.ResourceUsers)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, path, opts.query(), nil)
}

// SearchUsers POSTs a SearchRequest to /Users/.search.
func (c *Client) SearchUsers(ctx context.Context, req *SearchRequest) (*Response, error) {
	path, err := libs.BuildSearchPath(libs.ResourceUsers, c.endpointType)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, nil, req)
}

// ReplaceUser PUTs a full user representation.
func (c *Client) ReplaceUser(ctx context.Context, id string, user *User) (*Response, error) {
	path, err := c.item(libs.ResourceUsers, id)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPut, path, nil, user)
}

// PatchUser PATCHes a user with a SCIM PatchOp.
func (c *Client) PatchUser(ctx context.Context, id string, patch *PatchOp) (*Response, error) {
	path, err := c.item(libs.ResourceUsers, id)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPatch, path, nil, patch)
}

// DeleteUser DELETEs a user by id.
func (c *Client) DeleteUser(ctx context.Context, id string) (*Response, error) {
	path, err := c.item(libs.ResourceUsers, id)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// CreateGroup POSTs a new group to /Groups.
func (c *Client) CreateGroup(ctx context.Context, group *Group) (*Response, error) {
	path, err := c.collection(libs.ResourceGroups)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, nil, group)
}

// GetGroup fetches a group by id.
func (c *Client) GetGroup(ctx context.Context, id string) (*Response, error) {
	path, err := c.item(libs.ResourceGroups, id)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

// ListGroups GETs /Groups with optional filter and pagination.
func (c *Client) ListGroups(ctx context.Context, opts *ListOptions) (*Response, error) {
	path, err := c.collection(libs.ResourceGroups)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, path, opts.query(), nil)
}

// SearchGroups POSTs a SearchRequest to /Groups/.search.
func (c *Client) SearchGroups(ctx context.Context, req *SearchRequest) (*Response, error) {
	path, err := libs.BuildSearchPath(libs.ResourceGroups, c.endpointType)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, path, nil, req)
}

// ReplaceGroup PUTs a full group representation.
func (c *Client) ReplaceGroup(ctx context.Context, id string, group *Group) (*Response, error) {
	path, err := c.item(libs.ResourceGroups, id)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPut, path, nil, group)
}

// PatchGroup PATCHes a group with a SCIM PatchOp.
func (c *Client) PatchGroup(ctx context.Context, id string, patch *PatchOp) (*Response, error) {
	path, err := c.item(libs.ResourceGroups, id)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPatch, path, nil, patch)
}

// DeleteGroup DELETEs a group by id.
func (c *Client) DeleteGroup(ctx context.Context, id string) (*Response, error) {
	path, err := c.item(libs.ResourceGroups, id)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// GetSchemas GETs the /Schemas collection.
func (c *Client) GetSchemas(ctx context.Context) (*Response, error) {
	path, err := c.collection(libs.ResourceSchemas)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

// GetSchema GETs a single schema by its URN.
func (c *Client) GetSchema(ctx context.Context, id string) (*Response, error) {
	path, err := c.item(libs.ResourceSchemas, id)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

// GetResourceTypes GETs the /ResourceTypes collection.
func (c *Client) GetResourceTypes(ctx context.Context) (*Response, error) {
	path, err := c.collection(libs.ResourceResourceTypes)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

// GetResourceType GETs a single resource type by name.
func (c *Client) GetResourceType(ctx context.Context, id string) (*Response, error) {
	path, err := c.item(libs.ResourceResourceTypes, id)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

// GetServiceProviderConfig GETs /ServiceProviderConfig.
func (c *Client) GetServiceProviderConfig(ctx context.Context) (*Response, error) {
	path, err := c.collection(libs.ResourceServiceProviderConfig)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

// Package scimtest runs an in-process SCIM 2.0 service for hermetic tests:
// Users and Groups CRUD with .search, the metadata endpoints and a
// client-credentials token endpoint. Both routing prefixes of the real
// service are mounted so either endpoint type can be exercised.
package scimtest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/scimatic/scimcheck/scim"
)

// Options configures the mock service.
type Options struct {
	ClientID     string
	ClientSecret string
	TokenTTL     time.Duration

	// OEM makes the mock behave like the multi-tenant variant: created
	// users keep their institutionid and filters may scope on it.
	OEM bool

	// EnableMetrics mounts echoprometheus and /metrics. Off by default:
	// prometheus collectors register globally, so only one metrics-enabled
	// server may exist per process.
	EnableMetrics bool
	EnableOtel    bool
}

// Server is the in-process SCIM service.
type Server struct {
	opts Options
	echo *echo.Echo
	srv  *httptest.Server

	mu     sync.Mutex
	users  map[string]*scim.User
	groups map[string]*scim.Group
	tokens map[string]time.Time

	exchanges atomic.Int64
}

var prefixes = []string{"/obscim/v2", "/ApiServer/onbase/SCIM/v2"}

// New starts the mock service on an ephemeral port.
func New(opts Options) *Server {
	if opts.ClientID == "" {
		opts.ClientID = "scimcheck-client"
	}
	if opts.ClientSecret == "" {
		opts.ClientSecret = "scimcheck-secret"
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = time.Hour
	}

	s := &Server{
		opts:   opts,
		users:  make(map[string]*scim.User),
		groups: make(map[string]*scim.Group),
		tokens: make(map[string]time.Time),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(slog.Default()))

	if opts.EnableMetrics {
		e.Use(echoprometheus.NewMiddleware("scimtest"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}
	if opts.EnableOtel {
		e.Use(otelecho.Middleware("scimtest"))
	}

	e.POST("/connect/token", s.tokenEndpoint)

	for _, prefix := range prefixes {
		g := e.Group(prefix, s.bearerAuth)

		g.POST("/Users", s.createUser)
		g.GET("/Users", s.listUsers)
		g.POST("/Users/.search", s.searchUsers)
		g.GET("/Users/:id", s.getUser)
		g.PUT("/Users/:id", s.replaceUser)
		g.PATCH("/Users/:id", s.patchUser)
		g.DELETE("/Users/:id", s.deleteUser)

		g.POST("/Groups", s.createGroup)
		g.GET("/Groups", s.listGroups)
		g.POST("/Groups/.search", s.searchGroups)
		g.GET("/Groups/:id", s.getGroup)
		g.PUT("/Groups/:id", s.replaceGroup)
		g.PATCH("/Groups/:id", s.patchGroup)
		g.DELETE("/Groups/:id", s.deleteGroup)

		g.GET("/Schemas", s.listSchemas)
		g.GET("/Schemas/:id", s.getSchema)
		g.GET("/ResourceTypes", s.listResourceTypes)
		g.GET("/ResourceTypes/:id", s.getResourceType)
		g.GET("/ServiceProviderConfig", s.serviceProviderConfig)
	}

	s.echo = e
	s.srv = httptest.NewServer(e)
	return s
}

// URL returns the base URL of the mock service. It serves both as the API
// base URL and the OAuth base URL.
func (s *Server) URL() string {
	return s.srv.URL
}

// IssueToken mints a valid bearer token directly, bypassing the exchange.
// Tests that are not about authentication use this to skip the token dance.
func (s *Server) IssueToken() string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = time.Now().Add(s.opts.TokenTTL)
	s.mu.Unlock()
	return token
}

// ExchangeCount reports how many token exchanges the mock has performed,
// for token-caching assertions.
func (s *Server) ExchangeCount() int64 {
	return s.exchanges.Load()
}

// Close shuts the mock service down.
func (s *Server) Close() {
	s.srv.Close()
}

func scimJSON(c echo.Context, code int, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Blob(code, scim.MIMEType, b)
}

func scimError(c echo.Context, code int, detail string) error {
	return scimJSON(c, code, &scim.ErrorResponse{
		Schemas: []string{scim.SchemaError},
		Detail:  detail,
		Status:  strconv.Itoa(code),
	})
}

// tokenEndpoint implements the client-credentials grant. Credentials are
// accepted in the form body or as basic auth.
func (s *Server) tokenEndpoint(c echo.Context) error {
	if err := c.Request().ParseForm(); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid_request"})
	}

	form := c.Request().PostForm
	if form.Get("grant_type") != "client_credentials" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
	}

	clientID := form.Get("client_id")
	clientSecret := form.Get("client_secret")
	if clientID == "" {
		clientID, clientSecret, _ = c.Request().BasicAuth()
	}

	if clientID != s.opts.ClientID || clientSecret != s.opts.ClientSecret {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_client"})
	}

	token := uuid.NewString()

	s.mu.Lock()
	s.tokens[token] = time.Now().Add(s.opts.TokenTTL)
	s.mu.Unlock()
	s.exchanges.Add(1)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(s.opts.TokenTTL.Seconds()),
	})
}

func (s *Server) bearerAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) {
			return scimError(c, http.StatusUnauthorized, "no bearer token provided")
		}

		token := auth[len(prefix):]

		s.mu.Lock()
		expiry, ok := s.tokens[token]
		s.mu.Unlock()

		if !ok || time.Now().After(expiry) {
			return scimError(c, http.StatusUnauthorized, "invalid or expired token")
		}

		return next(c)
	}
}

// clauseRe matches one `attr eq "value"` clause of the filter grammar the
// real service supports for the suite's queries.
var clauseRe = regexp.MustCompile(`^(\w+)\s+eq\s+"((?:[^"\\]|\\.)*)"$`)

// parseFilter parses a conjunction of equality clauses. Anything outside
// that grammar is rejected, mirroring the service's 400 on bad filters.
func parseFilter(filter string) (map[string]string, error) {
	clauses := map[string]string{}
	if strings.TrimSpace(filter) == "" {
		return clauses, nil
	}

	for _, clause := range strings.Split(filter, " and ") {
		m := clauseRe.FindStringSubmatch(strings.TrimSpace(clause))
		if m == nil {
			return nil, fmt.Errorf("unsupported filter clause: %s", clause)
		}
		value := strings.ReplaceAll(m[2], `\"`, `"`)
		value = strings.ReplaceAll(value, `\\`, `\`)
		clauses[strings.ToLower(m[1])] = value
	}

	return clauses, nil
}

func (s *Server) userMatches(u *scim.User, clauses map[string]string) bool {
	for attr, want := range clauses {
		switch attr {
		case "username":
			if !strings.EqualFold(u.UserName, want) {
				return false
			}
		case "institutionid":
			if u.InstitutionID != want {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (s *Server) groupMatches(g *scim.Group, clauses map[string]string) bool {
	for attr, want := range clauses {
		switch attr {
		case "displayname":
			if !strings.EqualFold(g.DisplayName, want) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// paginate applies 1-based startIndex and count to the already-filtered
// resource set and wraps it in a list envelope.
func paginate(resources []json.RawMessage, startIndex, count int) *scim.ListResponse {
	total := len(resources)
	if startIndex < 1 {
		startIndex = 1
	}
	if count <= 0 {
		count = 100
	}

	lo := startIndex - 1
	if lo > total {
		lo = total
	}
	hi := lo + count
	if hi > total {
		hi = total
	}

	page := resources[lo:hi]
	return &scim.ListResponse{
		Schemas:      []string{scim.SchemaListResponse},
		TotalResults: total,
		ItemsPerPage: len(page),
		StartIndex:   startIndex,
		Resources:    page,
	}
}

// listEnvelope wraps a full, unpaginated result set.
func listEnvelope[T any](items []T) *scim.ListResponse {
	resources := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			continue
		}
		resources = append(resources, raw)
	}
	return paginate(resources, 1, 0)
}

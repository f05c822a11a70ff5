package scimtest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/scimatic/scimcheck/scim"
)

func schemaCatalog() []*scim.Schema {
	return []*scim.Schema{
		{
			ID:          scim.SchemaUser,
			Name:        "User",
			Description: "User Account",
			Attributes: []scim.SchemaAttribute{
				{Name: "userName", Type: "string", Required: true},
				{Name: "displayName", Type: "string"},
				{Name: "emails", Type: "complex", MultiValued: true},
				{Name: "active", Type: "boolean"},
				{Name: "institutionid", Type: "string"},
			},
		},
		{
			ID:          scim.SchemaGroup,
			Name:        "Group",
			Description: "Group",
			Attributes: []scim.SchemaAttribute{
				{Name: "displayName", Type: "string", Required: true},
				{Name: "members", Type: "complex", MultiValued: true},
			},
		},
	}
}

func resourceTypeCatalog() []*scim.ResourceType {
	return []*scim.ResourceType{
		{
			Schemas:  []string{"urn:ietf:params:scim:schemas:core:2.0:ResourceType"},
			ID:       "User",
			Name:     "User",
			Endpoint: "/Users",
			Schema:   scim.SchemaUser,
		},
		{
			Schemas:  []string{"urn:ietf:params:scim:schemas:core:2.0:ResourceType"},
			ID:       "Group",
			Name:     "Group",
			Endpoint: "/Groups",
			Schema:   scim.SchemaGroup,
		},
	}
}

func (s *Server) listSchemas(c echo.Context) error {
	return scimJSON(c, http.StatusOK, listEnvelope(schemaCatalog()))
}

func (s *Server) getSchema(c echo.Context) error {
	for _, schema := range schemaCatalog() {
		if schema.ID == c.Param("id") {
			return scimJSON(c, http.StatusOK, schema)
		}
	}
	return scimError(c, http.StatusNotFound, "schema not found")
}

func (s *Server) listResourceTypes(c echo.Context) error {
	return scimJSON(c, http.StatusOK, listEnvelope(resourceTypeCatalog()))
}

func (s *Server) getResourceType(c echo.Context) error {
	for _, rt := range resourceTypeCatalog() {
		if rt.ID == c.Param("id") {
			return scimJSON(c, http.StatusOK, rt)
		}
	}
	return scimError(c, http.StatusNotFound, "resource type not found")
}

func (s *Server) serviceProviderConfig(c echo.Context) error {
	return scimJSON(c, http.StatusOK, &scim.ServiceProviderConfig{
		Schemas: []string{"urn:ietf:params:scim:schemas:core:2.0:ServiceProviderConfig"},
		Patch:   scim.Supported{Supported: true},
		Bulk:    scim.BulkConfig{Supported: false},
		Filter:  scim.FilterConfig{Supported: true, MaxResults: 200},
		ChangePassword: scim.Supported{
			Supported: false,
		},
		Sort: scim.Supported{Supported: false},
		Etag: scim.Supported{Supported: false},
		AuthenticationSchemes: []scim.AuthenticationScheme{
			{Type: "oauthbearertoken", Name: "OAuth Bearer Token"},
		},
	})
}

package scimtest

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/scimatic/scimcheck/scim"
)

func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (s *Server) createUser(c echo.Context) error {
	var user scim.User
	if err := json.NewDecoder(c.Request().Body).Decode(&user); err != nil {
		return scimError(c, http.StatusBadRequest, "request body is not valid JSON")
	}
	if user.UserName == "" {
		return scimError(c, http.StatusBadRequest, "userName is required")
	}
	if s.opts.OEM && user.InstitutionID == "" {
		return scimError(c, http.StatusBadRequest, "institutionid is required on this deployment")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.UserName, user.UserName) && existing.InstitutionID == user.InstitutionID {
			return scimError(c, http.StatusConflict, "userName already exists")
		}
	}

	user.ID = uuid.NewString()
	user.Schemas = []string{scim.SchemaUser}
	user.Meta = &scim.Meta{
		ResourceType: "User",
		Location:     c.Request().URL.Path + "/" + user.ID,
		Created:      nowUTC(),
		LastModified: nowUTC(),
	}

	s.users[user.ID] = &user
	return scimJSON(c, http.StatusCreated, &user)
}

func (s *Server) getUser(c echo.Context) error {
	s.mu.Lock()
	user, ok := s.users[c.Param("id")]
	s.mu.Unlock()

	if !ok {
		return scimError(c, http.StatusNotFound, "user not found")
	}
	return scimJSON(c, http.StatusOK, user)
}

// filteredUsers snapshots the matching users in stable id order.
func (s *Server) filteredUsers(clauses map[string]string) []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	resources := []json.RawMessage{}
	for _, id := range ids {
		user := s.users[id]
		if !s.userMatches(user, clauses) {
			continue
		}
		raw, err := json.Marshal(user)
		if err != nil {
			continue
		}
		resources = append(resources, raw)
	}
	return resources
}

func (s *Server) listUsers(c echo.Context) error {
	clauses, err := parseFilter(c.QueryParam("filter"))
	if err != nil {
		return scimError(c, http.StatusBadRequest, err.Error())
	}

	startIndex, _ := strconv.Atoi(c.QueryParam("startIndex"))
	count, _ := strconv.Atoi(c.QueryParam("count"))

	return scimJSON(c, http.StatusOK, paginate(s.filteredUsers(clauses), startIndex, count))
}

func (s *Server) searchUsers(c echo.Context) error {
	var req scim.SearchRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return scimError(c, http.StatusBadRequest, "request body is not valid JSON")
	}

	clauses, err := parseFilter(req.Filter)
	if err != nil {
		return scimError(c, http.StatusBadRequest, err.Error())
	}

	return scimJSON(c, http.StatusOK, paginate(s.filteredUsers(clauses), req.StartIndex, req.Count))
}

func (s *Server) replaceUser(c echo.Context) error {
	var user scim.User
	if err := json.NewDecoder(c.Request().Body).Decode(&user); err != nil {
		return scimError(c, http.StatusBadRequest, "request body is not valid JSON")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[c.Param("id")]
	if !ok {
		return scimError(c, http.StatusNotFound, "user not found")
	}

	user.ID = existing.ID
	user.Schemas = []string{scim.SchemaUser}
	user.Meta = existing.Meta
	user.Meta.LastModified = nowUTC()

	s.users[user.ID] = &user
	return scimJSON(c, http.StatusOK, &user)
}

func (s *Server) patchUser(c echo.Context) error {
	var patch scim.PatchOp
	if err := json.NewDecoder(c.Request().Body).Decode(&patch); err != nil {
		return scimError(c, http.StatusBadRequest, "request body is not valid JSON")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[c.Param("id")]
	if !ok {
		return scimError(c, http.StatusNotFound, "user not found")
	}

	for _, op := range patch.Operations {
		if !strings.EqualFold(op.Op, "replace") {
			return scimError(c, http.StatusBadRequest, "only replace operations are supported")
		}
		switch strings.ToLower(op.Path) {
		case "active":
			if v, ok := op.Value.(bool); ok {
				user.Active = v
			}
		case "displayname":
			if v, ok := op.Value.(string); ok {
				user.DisplayName = v
			}
		case "":
			if values, ok := op.Value.(map[string]interface{}); ok {
				if v, ok := values["active"].(bool); ok {
					user.Active = v
				}
				if v, ok := values["displayName"].(string); ok {
					user.DisplayName = v
				}
			}
		default:
			return scimError(c, http.StatusBadRequest, "unsupported patch path: "+op.Path)
		}
	}

	user.Meta.LastModified = nowUTC()
	return scimJSON(c, http.StatusOK, user)
}

func (s *Server) deleteUser(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.users[id]; !ok {
		return scimError(c, http.StatusNotFound, "user not found")
	}

	delete(s.users, id)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) createGroup(c echo.Context) error {
	var group scim.Group
	if err := json.NewDecoder(c.Request().Body).Decode(&group); err != nil {
		return scimError(c, http.StatusBadRequest, "request body is not valid JSON")
	}
	if group.DisplayName == "" {
		return scimError(c, http.StatusBadRequest, "displayName is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.groups {
		if strings.EqualFold(existing.DisplayName, group.DisplayName) {
			return scimError(c, http.StatusConflict, "displayName already exists")
		}
	}

	group.ID = uuid.NewString()
	group.Schemas = []string{scim.SchemaGroup}
	group.Meta = &scim.Meta{
		ResourceType: "Group",
		Location:     c.Request().URL.Path + "/" + group.ID,
		Created:      nowUTC(),
		LastModified: nowUTC(),
	}

	s.groups[group.ID] = &group
	return scimJSON(c, http.StatusCreated, &group)
}

func (s *Server) getGroup(c echo.Context) error {
	s.mu.Lock()
	group, ok := s.groups[c.Param("id")]
	s.mu.Unlock()

	if !ok {
		return scimError(c, http.StatusNotFound, "group not found")
	}
	return scimJSON(c, http.StatusOK, group)
}

func (s *Server) filteredGroups(clauses map[string]string) []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.groups))
	for id := range s.groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	resources := []json.RawMessage{}
	for _, id := range ids {
		group := s.groups[id]
		if !s.groupMatches(group, clauses) {
			continue
		}
		raw, err := json.Marshal(group)
		if err != nil {
			continue
		}
		resources = append(resources, raw)
	}
	return resources
}

func (s *Server) listGroups(c echo.Context) error {
	clauses, err := parseFilter(c.QueryParam("filter"))
	if err != nil {
		return scimError(c, http.StatusBadRequest, err.Error())
	}

	startIndex, _ := strconv.Atoi(c.QueryParam("startIndex"))
	count, _ := strconv.Atoi(c.QueryParam("count"))

	return scimJSON(c, http.StatusOK, paginate(s.filteredGroups(clauses), startIndex, count))
}

func (s *Server) searchGroups(c echo.Context) error {
	var req scim.SearchRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return scimError(c, http.StatusBadRequest, "request body is not valid JSON")
	}

	clauses, err := parseFilter(req.Filter)
	if err != nil {
		return scimError(c, http.StatusBadRequest, err.Error())
	}

	return scimJSON(c, http.StatusOK, paginate(s.filteredGroups(clauses), req.StartIndex, req.Count))
}

func (s *Server) replaceGroup(c echo.Context) error {
	var group scim.Group
	if err := json.NewDecoder(c.Request().Body).Decode(&group); err != nil {
		return scimError(c, http.StatusBadRequest, "request body is not valid JSON")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.groups[c.Param("id")]
	if !ok {
		return scimError(c, http.StatusNotFound, "group not found")
	}

	group.ID = existing.ID
	group.Schemas = []string{scim.SchemaGroup}
	group.Meta = existing.Meta
	group.Meta.LastModified = nowUTC()

	s.groups[group.ID] = &group
	return scimJSON(c, http.StatusOK, &group)
}

func (s *Server) patchGroup(c echo.Context) error {
	var patch scim.PatchOp
	if err := json.NewDecoder(c.Request().Body).Decode(&patch); err != nil {
		return scimError(c, http.StatusBadRequest, "request body is not valid JSON")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[c.Param("id")]
	if !ok {
		return scimError(c, http.StatusNotFound, "group not found")
	}

	for _, op := range patch.Operations {
		if !strings.EqualFold(op.Op, "replace") {
			return scimError(c, http.StatusBadRequest, "only replace operations are supported")
		}
		if strings.EqualFold(op.Path, "displayName") {
			if v, ok := op.Value.(string); ok {
				group.DisplayName = v
			}
		}
	}

	group.Meta.LastModified = nowUTC()
	return scimJSON(c, http.StatusOK, group)
}

func (s *Server) deleteGroup(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	if _, ok := s.groups[id]; !ok {
		return scimError(c, http.StatusNotFound, "group not found")
	}

	delete(s.groups, id)
	return c.NoContent(http.StatusNoContent)
}

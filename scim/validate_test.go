package scim

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStatus(t *testing.T) {
	resp := &Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}
	assert.NoError(t, ValidateStatus(resp, http.StatusOK))

	resp = &Response{StatusCode: http.StatusNotFound, Body: []byte(`{"detail":"no such user"}`)}
	err := ValidateStatus(resp, http.StatusOK)

	var statusErr *StatusMismatchError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusOK, statusErr.Expected)
	assert.Equal(t, http.StatusNotFound, statusErr.Actual)
	assert.Contains(t, statusErr.Body, "no such user")
}

func TestValidateJSONBody(t *testing.T) {
	body, err := ValidateJSONBody(&Response{Body: []byte(`{"id":"42"}`)})
	require.NoError(t, err)
	assert.Equal(t, "42", body["id"])
}

func TestValidateJSONBody_Malformed(t *testing.T) {
	for _, raw := range []string{"", "<html>oops</html>", `{"truncated":`} {
		_, err := ValidateJSONBody(&Response{Body: []byte(raw)})

		var malformedErr *MalformedResponseError
		require.ErrorAsf(t, err, &malformedErr, "body %q must be rejected", raw)
	}
}

func singleResourceBody() map[string]interface{} {
	return map[string]interface{}{
		"schemas":  []interface{}{SchemaUser},
		"id":       "42",
		"userName": "USER1",
	}
}

func listResponseBody() map[string]interface{} {
	return map[string]interface{}{
		"schemas":      []interface{}{SchemaListResponse},
		"totalResults": float64(1),
		"itemsPerPage": float64(1),
		"startIndex":   float64(1),
		"Resources":    []interface{}{singleResourceBody()},
	}
}

func TestValidateEnvelope_Single(t *testing.T) {
	assert.NoError(t, ValidateEnvelope(singleResourceBody(), EnvelopeSingle))
}

func TestValidateEnvelope_SingleMissingSchemas(t *testing.T) {
	body := singleResourceBody()
	delete(body, "schemas")

	var missingErr *MissingFieldError
	require.ErrorAs(t, ValidateEnvelope(body, EnvelopeSingle), &missingErr)
	assert.Equal(t, []string{"schemas"}, missingErr.Fields)
}

func TestValidateEnvelope_SingleSchemasNotArray(t *testing.T) {
	body := singleResourceBody()
	body["schemas"] = SchemaUser

	var typeErr *TypeMismatchError
	require.ErrorAs(t, ValidateEnvelope(body, EnvelopeSingle), &typeErr)
	assert.Equal(t, "schemas", typeErr.Field)
}

func TestValidateEnvelope_SingleRejectsListKeys(t *testing.T) {
	body := singleResourceBody()
	body["totalResults"] = float64(1)
	body["Resources"] = []interface{}{}

	var unexpectedErr *UnexpectedFieldError
	require.ErrorAs(t, ValidateEnvelope(body, EnvelopeSingle), &unexpectedErr)
	assert.ElementsMatch(t, []string{"totalResults", "Resources"}, unexpectedErr.Fields)
}

func TestValidateEnvelope_List(t *testing.T) {
	assert.NoError(t, ValidateEnvelope(listResponseBody(), EnvelopeList))
}

func TestValidateEnvelope_ListMissingKeys(t *testing.T) {
	body := listResponseBody()
	delete(body, "itemsPerPage")
	delete(body, "Resources")

	var missingErr *MissingFieldError
	require.ErrorAs(t, ValidateEnvelope(body, EnvelopeList), &missingErr)
	assert.ElementsMatch(t, []string{"itemsPerPage", "Resources"}, missingErr.Fields)
}

func TestValidateEnvelope_ListResourcesNotArray(t *testing.T) {
	body := listResponseBody()
	body["Resources"] = map[string]interface{}{}

	var typeErr *TypeMismatchError
	require.ErrorAs(t, ValidateEnvelope(body, EnvelopeList), &typeErr)
	assert.Equal(t, "Resources", typeErr.Field)
}

func TestValidateRequiredFields(t *testing.T) {
	body := map[string]interface{}{"id": "42", "userName": "USER1"}

	assert.NoError(t, ValidateRequiredFields(body, []string{"id", "userName"}, "user"))

	err := ValidateRequiredFields(body, []string{"id", "meta", "active"}, "user")
	var missingErr *MissingFieldError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, "user", missingErr.Context)
	assert.Equal(t, []string{"meta", "active"}, missingErr.Fields)
}

func TestValidateFieldTypes(t *testing.T) {
	body := map[string]interface{}{
		"id":       "42",
		"active":   true,
		"count":    float64(3),
		"meta":     map[string]interface{}{},
		"schemas":  []interface{}{},
		"nickName": nil,
	}

	assert.NoError(t, ValidateFieldTypes(body, map[string]FieldKind{
		"id":       KindString,
		"active":   KindBoolean,
		"count":    KindNumber,
		"meta":     KindObject,
		"schemas":  KindArray,
		"nickName": KindNull,
	}))
}

func TestValidateFieldTypes_Mismatch(t *testing.T) {
	// A server returning active as a string instead of a boolean is exactly
	// the regression this validator exists to catch.
	body := map[string]interface{}{"active": "true"}

	err := ValidateFieldTypes(body, map[string]FieldKind{"active": KindBoolean})

	var typeErr *TypeMismatchError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "active", typeErr.Field)
	assert.Equal(t, "boolean", typeErr.Expected)
	assert.Equal(t, "string", typeErr.Actual)
}

func TestValidateFieldTypes_MissingField(t *testing.T) {
	err := ValidateFieldTypes(map[string]interface{}{}, map[string]FieldKind{"id": KindString})

	var missingErr *MissingFieldError
	require.ErrorAs(t, err, &missingErr)
	assert.Equal(t, []string{"id"}, missingErr.Fields)
}

func TestValidateFieldTypes_DeterministicOrder(t *testing.T) {
	body := map[string]interface{}{"alpha": float64(1), "beta": float64(2)}
	types := map[string]FieldKind{"alpha": KindString, "beta": KindString}

	for i := 0; i < 10; i++ {
		err := ValidateFieldTypes(body, types)
		var typeErr *TypeMismatchError
		require.ErrorAs(t, err, &typeErr)
		assert.Equal(t, "alpha", typeErr.Field, "fields must be checked in name order")
	}
}

func TestValidateResponseTime(t *testing.T) {
	assert.NoError(t, ValidateResponseTime(100*time.Millisecond, 2*time.Second, "GET /Users"))

	err := ValidateResponseTime(3*time.Second, 2*time.Second, "GET /Users")

	var slowErr *SlowResponseError
	require.ErrorAs(t, err, &slowErr)
	assert.Equal(t, "GET /Users", slowErr.Operation)
	assert.Equal(t, 3*time.Second, slowErr.Elapsed)
	assert.Equal(t, 2*time.Second, slowErr.Threshold)
}

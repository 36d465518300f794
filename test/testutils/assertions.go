// Package testutils provides custom assertions and testing utilities
package testutils

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rasoiops/rasoiops/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope mirrors the API success response
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
}

// APIError mirrors the API error response
type APIError struct {
	Error struct {
		Code      string                 `json:"code"`
		Message   string                 `json:"message"`
		Details   string                 `json:"details"`
		Metadata  map[string]interface{} `json:"metadata"`
		RequestID string                 `json:"request_id"`
	} `json:"error"`
}

// HTTPAssertions provides HTTP-specific assertion methods
type HTTPAssertions struct {
	t *testing.T
}

// NewHTTPAssertions creates a new HTTP assertions helper
func NewHTTPAssertions(t *testing.T) *HTTPAssertions {
	return &HTTPAssertions{t: t}
}

// StatusCode asserts the HTTP status code
func (ha *HTTPAssertions) StatusCode(rec *httptest.ResponseRecorder, expectedCode int, msgAndArgs ...interface{}) {
	require.NotNil(ha.t, rec, "Response should not be nil")
	assert.Equal(ha.t, expectedCode, rec.Code, msgAndArgs...)
}

// Success asserts a successful envelope and decodes its data into target
func (ha *HTTPAssertions) Success(rec *httptest.ResponseRecorder, expectedCode int, target interface{}) {
	ha.StatusCode(rec, expectedCode, "body: %s", rec.Body.String())
	ha.jsonContentType(rec)

	var env Envelope
	require.NoError(ha.t, json.Unmarshal(rec.Body.Bytes(), &env), "Response should be valid JSON")
	assert.True(ha.t, env.Success, "Envelope should report success")
	if target != nil {
		require.NoError(ha.t, json.Unmarshal(env.Data, target), "Envelope data should decode")
	}
}

// ErrorCode asserts an error response with the given status and code
func (ha *HTTPAssertions) ErrorCode(rec *httptest.ResponseRecorder, expectedStatus int, expectedCode string) APIError {
	ha.StatusCode(rec, expectedStatus, "body: %s", rec.Body.String())
	ha.jsonContentType(rec)

	var apiErr APIError
	require.NoError(ha.t, json.Unmarshal(rec.Body.Bytes(), &apiErr), "Response should be valid JSON")
	assert.Equal(ha.t, expectedCode, apiErr.Error.Code)
	return apiErr
}

// Header asserts that a header exists with expected value
func (ha *HTTPAssertions) Header(rec *httptest.ResponseRecorder, headerName, expectedValue string, msgAndArgs ...interface{}) {
	assert.Equal(ha.t, expectedValue, rec.Header().Get(headerName), msgAndArgs...)
}

// HasHeader asserts that a header exists
func (ha *HTTPAssertions) HasHeader(rec *httptest.ResponseRecorder, headerName string) {
	assert.NotEmpty(ha.t, rec.Header().Get(headerName), "Response should have header %s", headerName)
}

func (ha *HTTPAssertions) jsonContentType(rec *httptest.ResponseRecorder) {
	contentType := rec.Header().Get("Content-Type")
	assert.True(ha.t, strings.Contains(contentType, "application/json"),
		"Response should have JSON content type, got: %s", contentType)
}

// ItemAssertions provides inventory-specific assertion methods
type ItemAssertions struct {
	t *testing.T
}

// NewItemAssertions creates a new item assertions helper
func NewItemAssertions(t *testing.T) *ItemAssertions {
	return &ItemAssertions{t: t}
}

// Ingested asserts the invariants of a freshly ingested item
func (ia *ItemAssertions) Ingested(item inventory.Item, addedAt time.Time) {
	assert.NotEmpty(ia.t, item.ID.String())
	assert.NotEmpty(ia.t, item.Name, "Item should have a name")
	assert.NotEmpty(ia.t, item.Quantity, "Item should have a quantity")
	assert.Contains(ia.t, inventory.Categories(), item.Category)
	assert.True(ia.t, item.AddedAt.Equal(addedAt), "AddedAt should be %s, got %s", addedAt, item.AddedAt)
}

// StatusCounts asserts how many views have each status
func (ia *ItemAssertions) StatusCounts(views []inventory.View, expected map[inventory.Status]int) {
	got := map[inventory.Status]int{}
	for _, v := range views {
		got[v.Status]++
	}
	for status, n := range expected {
		assert.Equal(ia.t, n, got[status], "count of %s", status)
	}
}

package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeStorage, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeTokenExpired, http.StatusUnauthorized},
		{ErrCodeTokenInvalid, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"UNAUTHORIZED", ErrCodeUnauthorized},
		{"FORBIDDEN", ErrCodeForbidden},
		{"STORAGE_ERROR", ErrCodeStorage},
		{"INTERNAL_ERROR", ErrCodeInternal},
		// A taken username is a validation failure, not a conflict
		{"ALREADY_EXISTS", ErrCodeValidation},
		// Every INVALID_* domain code maps to validation
		{"INVALID_INPUT", ErrCodeValidation},
		{"INVALID_USERNAME", ErrCodeValidation},
		{"INVALID_PASSWORD", ErrCodeValidation},
		{"INVALID_RISK_LEVEL", ErrCodeValidation},
		{"INVALID_STATUS", ErrCodeValidation},
		// Wire-format codes pass through untouched
		{ErrCodeNotFound, ErrCodeNotFound},
		{ErrCodeValidation, ErrCodeValidation},
		// Unknown codes pass through untouched
		{"SOMETHING_ELSE", "SOMETHING_ELSE"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestNormalizedDomainCodesAllResolveToKnownStatus(t *testing.T) {
	domainCodes := []string{
		"NOT_FOUND", "UNAUTHORIZED", "FORBIDDEN", "STORAGE_ERROR",
		"INTERNAL_ERROR", "ALREADY_EXISTS", "INVALID_INPUT",
		"INVALID_USERNAME", "INVALID_PASSWORD", "INVALID_ROLE",
		"INVALID_RISK_LEVEL", "INVALID_STATUS", "INVALID_TYPE",
		"INVALID_LOCATION", "INVALID_DESCRIPTION", "INVALID_REPORTER",
		"PASSWORD_HASH_ERROR",
	}

	for _, code := range domainCodes {
		t.Run(code, func(t *testing.T) {
			normalized := NormalizeErrorCode(code)
			_, known := ErrorCodeHTTPStatus[normalized]
			assert.True(t, known, "domain code %s normalized to unmapped %s", code, normalized)
		})
	}
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "Resource not found", "req-test-123")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "Resource not found", resp.Error.Message)
	assert.Equal(t, "req-test-123", resp.Error.RequestID)
}

func TestErrorResponseJSONShape(t *testing.T) {
	resp := NewErrorResponse(ErrCodeValidation, "Username is already taken")

	raw, err := json.Marshal(resp)
	assert.NoError(t, err)

	var decoded Response
	assert.NoError(t, json.Unmarshal(raw, &decoded))
	assert.False(t, decoded.Success)
	assert.Equal(t, ErrCodeValidation, decoded.Error.Code)
	assert.Empty(t, decoded.Error.RequestID)
}

func TestSuccessResponseOmitsError(t *testing.T) {
	resp := NewSuccessResponse(map[string]string{"id": "r1"})

	raw, err := json.Marshal(resp)
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), "error")
	assert.Contains(t, string(raw), `"success":true`)
}

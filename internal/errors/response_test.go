package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ResponseTestSuite defines the test suite for error responses
type ResponseTestSuite struct {
	suite.Suite
	traceID string
}

// SetupTest runs before each test
func (s *ResponseTestSuite) SetupTest() {
	s.traceID = "550e8400-e29b-41d4-a716-446655440000"
}

// TestResponseTestSuite runs the test suite
func TestResponseTestSuite(t *testing.T) {
	suite.Run(t, new(ResponseTestSuite))
}

func (s *ResponseTestSuite) TestNewErrorResponse_BasicUsage() {
	response := NewErrorResponse(AuthInvalidCredentials, s.traceID)

	s.Equal("AUTH_001", response.Error.Code)
	s.Equal("Invalid email or password", response.Error.Message)
	s.Equal(s.traceID, response.Error.TraceID)
	s.Empty(response.Error.Details)
}

func (s *ResponseTestSuite) TestNewErrorResponse_WithOptions() {
	response := NewErrorResponse(
		CategoryInUse,
		s.traceID,
		WithMessage("Category has 3 transactions"),
		WithDetails("transactions: 3"),
	)

	s.Equal("CATEGORY_002", response.Error.Code)
	s.Equal("Category has 3 transactions", response.Error.Message)
	s.Equal([]string{"transactions: 3"}, response.Error.Details)
}

func (s *ResponseTestSuite) TestNewValidationError_SortsFields() {
	response := NewValidationError(map[string]string{
		"name":   "is required",
		"amount": "must be greater than 0",
		"date":   "must be a valid date",
	}, s.traceID)

	s.Equal("VALIDATION_001", response.Error.Code)
	s.Equal([]string{
		"amount: must be greater than 0",
		"date: must be a valid date",
		"name: is required",
	}, response.Error.Details)
}

func (s *ResponseTestSuite) TestNewValidationError_EmptyFieldErrors() {
	response := NewValidationError(map[string]string{}, s.traceID)

	s.Equal("VALIDATION_001", response.Error.Code)
	s.Empty(response.Error.Details)
}

func (s *ResponseTestSuite) TestWrapSystemError_HidesInternalError() {
	internal := errors.New("pq: relation \"transactions\" does not exist")

	response, err := WrapSystemError(internal, s.traceID)

	s.Equal(internal, err)
	s.Equal("SYSTEM_001", response.Error.Code)
	s.NotContains(response.Error.Message, "relation")
}

func (s *ResponseTestSuite) TestWrapDatabaseError() {
	internal := errors.New("connection refused")

	response, err := WrapDatabaseError(internal, s.traceID)

	s.Equal(internal, err)
	s.Equal("SYSTEM_002", response.Error.Code)
	s.True(response.IsServerError())
}

func (s *ResponseTestSuite) TestToJSON() {
	response := NewErrorResponse(TransactionNotFound, s.traceID, WithDetails("id: 42"))

	data, err := response.ToJSON()
	s.Require().NoError(err)

	var decoded ErrorResponse
	s.Require().NoError(json.Unmarshal(data, &decoded))
	s.Equal("TRANSACTION_001", decoded.Error.Code)
	s.Equal("Transaction not found", decoded.Error.Message)
	s.Equal(s.traceID, decoded.Error.TraceID)
	s.Contains(string(data), `"trace_id"`)
}

func (s *ResponseTestSuite) TestGetHTTPStatus() {
	testCases := []struct {
		name     string
		code     ErrorCode
		expected int
	}{
		{"Validation General", ValidationGeneral, http.StatusBadRequest},
		{"Invalid Date", ValidationInvalidDate, http.StatusBadRequest},
		{"Email Exists", UserEmailExists, http.StatusBadRequest},
		{"Category In Use", CategoryInUse, http.StatusBadRequest},
		{"Category Type Locked", CategoryTypeLocked, http.StatusBadRequest},
		{"Type Mismatch", TransactionTypeMismatch, http.StatusBadRequest},
		{"Invalid Credentials", AuthInvalidCredentials, http.StatusUnauthorized},
		{"Token Revoked", AuthTokenRevoked, http.StatusUnauthorized},
		{"Account Locked", AuthAccountLocked, http.StatusForbidden},
		{"User Not Found", UserNotFound, http.StatusNotFound},
		{"Category Not Found", CategoryNotFound, http.StatusNotFound},
		{"Transaction Not Found", TransactionNotFound, http.StatusNotFound},
		{"Route Not Found", SystemRouteNotFound, http.StatusNotFound},
		{"Rate Limit", SystemRateLimitExceeded, http.StatusTooManyRequests},
		{"Service Unavailable", SystemServiceUnavailable, http.StatusServiceUnavailable},
		{"Internal", SystemInternalError, http.StatusInternalServerError},
		{"Unknown", ErrorCode("NOPE_999"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.expected, GetHTTPStatus(tc.code))
		})
	}
}

func (s *ResponseTestSuite) TestClientAndServerClassification() {
	client := NewErrorResponse(CategoryNotFound, s.traceID)
	s.True(client.IsClientError())
	s.False(client.IsServerError())

	server := NewErrorResponse(SystemDatabaseError, s.traceID)
	s.False(server.IsClientError())
	s.True(server.IsServerError())
}

func (s *ResponseTestSuite) TestString() {
	str := NewErrorResponse(CategoryNotFound, s.traceID).String()

	s.Contains(str, "CATEGORY_001")
	s.Contains(str, "Category not found")
	s.Contains(str, s.traceID)
}

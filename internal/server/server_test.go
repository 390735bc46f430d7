package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/database"
	"fintrack/internal/dto"
	"fintrack/internal/errors"
	"fintrack/internal/logging"
	"fintrack/internal/models"
	"fintrack/internal/services"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta json.RawMessage `json:"meta"`
}

// ServerTestSuite drives the full router against an in-memory SQLite database.
type ServerTestSuite struct {
	suite.Suite
	cfg    *config.Config
	server *Server
}

func (s *ServerTestSuite) SetupTest() {
	privateKey, publicKey, err := config.GenerateRSAKeyPair()
	s.Require().NoError(err)

	s.cfg = &config.Config{
		Server: config.ServerConfig{Port: "8080", Environment: "testing"},
		JWT: config.JWTConfig{
			PrivateKey:           privateKey,
			PublicKey:            publicKey,
			Issuer:               "fintrack-test",
			AccessTokenDuration:  time.Hour,
			RefreshTokenDuration: 24 * time.Hour,
		},
		Security: config.SecurityConfig{
			BCryptCost:        4,
			PasswordMinLength: 8,
			MaxFailedAttempts: 5,
			LockoutDuration:   time.Minute,
		},
		Maintenance: config.MaintenanceConfig{CleanupInterval: time.Hour, AuditRetention: time.Hour},
	}

	registry := prometheus.NewRegistry()
	s.server = New(s.cfg, Dependencies{
		DB:       database.SetupTestDB(s.T()),
		Metrics:  services.NewPrometheusMetrics(registry),
		Gatherer: registry,
		Logger:   logging.Discard(),
	})
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) do(method, target, token string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		s.Require().NoError(err)
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.server.Echo.ServeHTTP(rec, req)
	return rec
}

func (s *ServerTestSuite) decodeData(rec *httptest.ResponseRecorder, out interface{}) {
	var env envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
	s.Require().NoError(json.Unmarshal(env.Data, out))
}

func (s *ServerTestSuite) decodeError(rec *httptest.ResponseRecorder) errors.ErrorResponse {
	var resp errors.ErrorResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// signUp registers and logs in a fresh user, returning the access token.
func (s *ServerTestSuite) signUp() string {
	email := gofakeit.Email()
	password := "Secret123!"

	rec := s.do(http.MethodPost, "/users/register", "", dto.RegisterRequest{
		Name:     gofakeit.Name(),
		Email:    email,
		Password: password,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/users/login", "", dto.LoginRequest{Email: email, Password: password})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var tokens dto.TokenResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &tokens))
	s.Require().NotEmpty(tokens.AccessToken)
	return tokens.AccessToken
}

func (s *ServerTestSuite) category(token, name string) models.Category {
	rec := s.do(http.MethodGet, "/api/categories", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var categories []models.Category
	s.decodeData(rec, &categories)
	for _, c := range categories {
		if c.Name == name {
			return c
		}
	}
	s.FailNow("category not seeded", name)
	return models.Category{}
}

func (s *ServerTestSuite) balance(token string) models.Balance {
	rec := s.do(http.MethodGet, "/api/balance", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var balance models.Balance
	s.decodeData(rec, &balance)
	return balance
}

func (s *ServerTestSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "healthy")
}

func (s *ServerTestSuite) TestMetricsEndpoint() {
	rec := s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ServerTestSuite) TestAPIRequiresToken() {
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/categories"},
		{http.MethodPost, "/api/categories"},
		{http.MethodGet, "/api/transactions"},
		{http.MethodDelete, "/api/transactions/00000000-0000-0000-0000-000000000001"},
		{http.MethodGet, "/api/balance"},
		{http.MethodGet, "/api/stats/monthly"},
		{http.MethodGet, "/api/stats/categories"},
		{http.MethodGet, "/users/profile"},
	}

	for _, route := range routes {
		rec := s.do(route.method, route.path, "", nil)
		s.Equal(http.StatusUnauthorized, rec.Code, "%s %s", route.method, route.path)

		rec = s.do(route.method, route.path, "not-a-jwt", nil)
		s.Equal(http.StatusUnauthorized, rec.Code, "%s %s with garbage token", route.method, route.path)
	}
}

func (s *ServerTestSuite) TestDevRoutesHiddenOutsideDevelopment() {
	token := s.signUp()
	rec := s.do(http.MethodPost, "/api/dev/demo-data?count=5", token, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerTestSuite) TestNewUserHasZeroBalance() {
	token := s.signUp()
	balance := s.balance(token)

	s.True(balance.Income.IsZero())
	s.True(balance.Expense.IsZero())
	s.True(balance.Balance.IsZero())
}

func (s *ServerTestSuite) TestTransactionTypeMismatchIsRejected() {
	token := s.signUp()
	salary := s.category(token, "Salary")

	rec := s.do(http.MethodPost, "/api/transactions", token, dto.CreateTransactionRequest{
		CategoryID: salary.ID.String(),
		Type:       models.EntryTypeExpense,
		Amount:     "12.50",
		Date:       "2024-03-05",
	})

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(string(errors.TransactionTypeMismatch), s.decodeError(rec).Error.Code)
}

func (s *ServerTestSuite) TestForeignCategoryIsNotFound() {
	alice := s.signUp()
	bob := s.signUp()
	rent := s.category(alice, "Rent")

	rec := s.do(http.MethodPost, "/api/transactions", bob, dto.CreateTransactionRequest{
		CategoryID: rent.ID.String(),
		Amount:     "40.00",
		Date:       "2024-03-05",
	})
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/categories/"+rent.ID.String(), bob, nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ServerTestSuite) TestLedgerFlow() {
	alice := s.signUp()
	bob := s.signUp()
	rent := s.category(alice, "Rent")
	salary := s.category(alice, "Salary")

	rec := s.do(http.MethodPost, "/api/transactions", alice, dto.CreateTransactionRequest{
		CategoryID:  rent.ID.String(),
		Amount:      "25.50",
		Description: "March rent share",
		Date:        "2024-03-05",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var created dto.TransactionResponse
	s.decodeData(rec, &created)
	s.Equal(models.EntryTypeExpense, created.Type)
	s.Equal(rent.Name, created.CategoryName)

	rec = s.do(http.MethodPost, "/api/transactions", alice, dto.CreateTransactionRequest{
		CategoryID: salary.ID.String(),
		Amount:     "100",
		Date:       "2024-04-01",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	balance := s.balance(alice)
	s.True(decimal.RequireFromString("100").Equal(balance.Income))
	s.True(decimal.RequireFromString("25.50").Equal(balance.Expense))
	s.True(decimal.RequireFromString("74.50").Equal(balance.Balance))

	// a referenced category can be renamed but not deleted or retyped
	rec = s.do(http.MethodDelete, "/api/categories/"+rent.ID.String(), alice, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(s.decodeError(rec).Error.Message, "1 transaction")

	income := models.EntryTypeIncome
	rec = s.do(http.MethodPut, "/api/categories/"+rent.ID.String(), alice, dto.UpdateCategoryRequest{Type: &income})
	s.Equal(http.StatusBadRequest, rec.Code)

	name := "Housing"
	rec = s.do(http.MethodPut, "/api/categories/"+rent.ID.String(), alice, dto.UpdateCategoryRequest{Name: &name})
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/stats/monthly", alice, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var months []models.MonthlyStat
	s.decodeData(rec, &months)
	s.Require().Len(months, 2)
	s.Equal("2024-03", months[0].Month)
	s.Equal("2024-04", months[1].Month)

	// bob sees none of it
	rec = s.do(http.MethodGet, "/api/transactions/"+created.ID.String(), bob, nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.True(s.balance(bob).Balance.IsZero())

	rec = s.do(http.MethodDelete, "/api/transactions/"+created.ID.String(), alice, nil)
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodDelete, "/api/categories/"+rent.ID.String(), alice, nil)
	s.Equal(http.StatusNoContent, rec.Code)
}

func (s *ServerTestSuite) TestLogoutRevokesAccessToken() {
	token := s.signUp()

	rec := s.do(http.MethodPost, "/users/logout", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/balance", token, nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal(string(errors.AuthTokenRevoked), s.decodeError(rec).Error.Code)
}

func (s *ServerTestSuite) TestListTransactionsPaginationMeta() {
	token := s.signUp()
	food := s.category(token, "Food")

	for day := 1; day <= 3; day++ {
		rec := s.do(http.MethodPost, "/api/transactions", token, dto.CreateTransactionRequest{
			CategoryID: food.ID.String(),
			Amount:     "5",
			Date:       fmt.Sprintf("2024-05-0%d", day),
		})
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.do(http.MethodGet, "/api/transactions?limit=2", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	var env envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env))
	var meta dto.PaginationInfo
	s.Require().NoError(json.Unmarshal(env.Meta, &meta))
	s.Equal(int64(3), meta.Total)
	s.Equal(2, meta.Limit)

	var rows []dto.TransactionResponse
	s.Require().NoError(json.Unmarshal(env.Data, &rows))
	s.Require().Len(rows, 2)
	s.Equal("2024-05-03", rows[0].Date.String())
}

func (s *ServerTestSuite) TestCORSPreflight() {
	s.cfg.Server.CORSAllowOrigins = []string{"https://app.example.com"}
	srv := New(s.cfg, Dependencies{DB: database.SetupTestDB(s.T()), Logger: logging.Discard()})

	req := httptest.NewRequest(http.MethodOptions, "/api/transactions", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	srv.Echo.ServeHTTP(rec, req)

	s.Equal(http.StatusNoContent, rec.Code)
	s.Equal("https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

// assertJSONNumber checks that raw is an unquoted JSON number equal to want.
func (s *ServerTestSuite) assertJSONNumber(raw json.RawMessage, want string) {
	s.Require().NotEmpty(raw)
	s.NotEqual(byte('"'), raw[0], "expected a JSON number, got %s", raw)

	var got decimal.Decimal
	s.Require().NoError(json.Unmarshal(raw, &got))
	s.True(decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, raw)
}

func (s *ServerTestSuite) TestNumericAmountsInAndOut() {
	token := s.signUp()
	food := s.category(token, "Food")
	rent := s.category(token, "Rent")

	rec := s.do(http.MethodPost, "/api/transactions", token, map[string]interface{}{
		"categoryId": food.ID.String(),
		"amount":     150.5,
		"date":       "2024-05-01",
		"type":       models.EntryTypeExpense,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]json.RawMessage
	s.decodeData(rec, &created)
	s.assertJSONNumber(created["amount"], "150.5")

	var id string
	s.Require().NoError(json.Unmarshal(created["id"], &id))
	rec = s.do(http.MethodPut, "/api/transactions/"+id, token, map[string]interface{}{"amount": 30})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/transactions", token, map[string]interface{}{
		"categoryId": rent.ID.String(),
		"amount":     "70.00",
		"date":       "2024-05-02",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/balance", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var balance map[string]json.RawMessage
	s.decodeData(rec, &balance)
	s.assertJSONNumber(balance["income"], "0")
	s.assertJSONNumber(balance["expense"], "100")
	s.assertJSONNumber(balance["balance"], "-100")

	rec = s.do(http.MethodGet, "/api/stats/categories", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var stats []map[string]json.RawMessage
	s.decodeData(rec, &stats)
	s.Require().Len(stats, 2)
	s.assertJSONNumber(stats[0]["amount"], "70")
	s.assertJSONNumber(stats[0]["percentage"], "70")
	s.assertJSONNumber(stats[1]["percentage"], "30")
}

func (s *ServerTestSuite) TestNonNumericAmountIsRejected() {
	token := s.signUp()
	food := s.category(token, "Food")

	rec := s.do(http.MethodPost, "/api/transactions", token, map[string]interface{}{
		"categoryId": food.ID.String(),
		"amount":     true,
		"date":       "2024-05-01",
	})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerTestSuite) TestMultibyteTextWithinLimits() {
	token := s.signUp()

	rec := s.do(http.MethodPost, "/api/categories", token, dto.CreateCategoryRequest{
		Name: strings.Repeat("ğ", 60),
		Type: models.EntryTypeExpense,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var category models.Category
	s.decodeData(rec, &category)

	rec = s.do(http.MethodPost, "/api/transactions", token, dto.CreateTransactionRequest{
		CategoryID:  category.ID.String(),
		Amount:      "12",
		Description: strings.Repeat("ş", 200),
		Date:        "2024-05-01",
	})
	s.Equal(http.StatusCreated, rec.Code, rec.Body.String())
}

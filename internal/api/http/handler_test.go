package http_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apihttp "facingcourage-backend/internal/api/http"
	"facingcourage-backend/internal/domain"
	"facingcourage-backend/internal/security"
	"facingcourage-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testServer struct {
	router  http.Handler
	apps    *MockApplicationService
	auth    *MockAuthService
	tokens  security.TokenManager
	limiter *apihttp.LoginLimiter
}

func newTestServer(t *testing.T, legacy bool) *testServer {
	t.Helper()
	ts := &testServer{
		apps:    new(MockApplicationService),
		auth:    new(MockAuthService),
		tokens:  security.NewTokenManager(testSecret, time.Hour),
		limiter: apihttp.NewLoginLimiter(60, 100),
	}
	ts.router = apihttp.NewRouter(apihttp.RouterOptions{
		Handler:           apihttp.NewHandler(ts.apps, ts.auth, fakePinger{}),
		Tokens:            ts.tokens,
		LoginLimiter:      ts.limiter,
		AllowedOrigins:    []string{"http://localhost:5173"},
		LegacyStatusRoute: legacy,
		Metrics:           true,
	})
	return ts
}

func (ts *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) adminToken(t *testing.T) string {
	t.Helper()
	token, _, err := ts.tokens.GenerateAdminToken(1, "alice")
	require.NoError(t, err)
	return token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

const validSubmission = `{
	"username": "ghost",
	"discord": "ghost#0001",
	"experience": "advanced",
	"role": "sniper",
	"availability": ["nights", "weekends"],
	"motivation": "Serious milsim.",
	"whyAcceptYou": "Comms discipline."
}`

func TestSubmitApplication(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		ts := newTestServer(t, true)
		ts.apps.On("Submit", mock.Anything, mock.MatchedBy(func(a *domain.Application) bool {
			return a.Username == "ghost" && len(a.Availability) == 2 &&
				a.Availability[0] == "nights" && a.Availability[1] == "weekends" && a.PreviousGroups == nil
		})).Return(&domain.Application{
			ID:           1,
			Username:     "ghost",
			Availability: []string{"nights", "weekends"},
			Status:       domain.ApplicationStatusPending,
			SubmittedAt:  time.Now().UTC(),
		}, nil).Once()

		rec := ts.do(http.MethodPost, "/api/applications", validSubmission, "")
		require.Equal(t, http.StatusCreated, rec.Code)

		var got map[string]interface{}
		decodeBody(t, rec, &got)
		assert.Equal(t, "pending", got["status"])
		assert.Nil(t, got["reviewedBy"])
		assert.Nil(t, got["reviewedAt"])
		assert.Equal(t, []interface{}{"nights", "weekends"}, got["availability"])
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		ts.apps.AssertExpectations(t)
	})

	t.Run("EmptyAvailability", func(t *testing.T) {
		ts := newTestServer(t, true)
		body := strings.Replace(validSubmission, `["nights", "weekends"]`, `[]`, 1)

		rec := ts.do(http.MethodPost, "/api/applications", body, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var got struct {
			Message string               `json:"message"`
			Errors  []apihttp.FieldError `json:"errors"`
		}
		decodeBody(t, rec, &got)
		assert.Equal(t, "Validation error", got.Message)
		require.Len(t, got.Errors, 1)
		assert.Equal(t, "availability", got.Errors[0].Field)
		ts.apps.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("BadEnumValues", func(t *testing.T) {
		ts := newTestServer(t, true)
		body := strings.Replace(validSubmission, `"sniper"`, `"pilot"`, 1)
		body = strings.Replace(body, `"nights"`, `"mornings"`, 1)

		rec := ts.do(http.MethodPost, "/api/applications", body, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var got struct {
			Errors []apihttp.FieldError `json:"errors"`
		}
		decodeBody(t, rec, &got)
		fields := make([]string, 0, len(got.Errors))
		for _, e := range got.Errors {
			fields = append(fields, e.Field)
		}
		assert.ElementsMatch(t, []string{"role", "availability[0]"}, fields)
	})

	t.Run("MissingFields", func(t *testing.T) {
		ts := newTestServer(t, true)
		rec := ts.do(http.MethodPost, "/api/applications", `{"username":"ghost"}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		ts.apps.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		ts := newTestServer(t, true)
		rec := ts.do(http.MethodPost, "/api/applications", `{"username":`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("StoreFailureIsGeneric", func(t *testing.T) {
		ts := newTestServer(t, true)
		ts.apps.On("Submit", mock.Anything, mock.Anything).Return(nil, errors.New("pq: connection refused")).Once()

		rec := ts.do(http.MethodPost, "/api/applications", validSubmission, "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "pq:")
		assert.Contains(t, rec.Body.String(), "Failed to create application")
	})
}

func TestGetApplication(t *testing.T) {
	ts := newTestServer(t, true)
	ts.apps.On("Get", mock.Anything, int32(3)).Return(&domain.Application{ID: 3, Username: "ghost"}, nil).Twice()
	ts.apps.On("Get", mock.Anything, int32(4)).Return(nil, domain.ErrApplicationNotFound).Once()

	first := ts.do(http.MethodGet, "/api/applications/3", "", "")
	second := ts.do(http.MethodGet, "/api/applications/3", "", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	rec := ts.do(http.MethodGet, "/api/applications/4", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Application not found"}`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/applications/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListApplications(t *testing.T) {
	ts := newTestServer(t, true)
	ts.apps.On("List", mock.Anything, domain.ApplicationFilter{}).Return([]domain.Application{}, nil).Once()

	rec := ts.do(http.MethodGet, "/api/applications", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAdminLogin(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		ts := newTestServer(t, true)
		expires := time.Now().Add(24 * time.Hour).UTC()
		ts.auth.On("Login", mock.Anything, "alice", "correct-horse").Return(&service.LoginResult{
			Token:     "signed.jwt.token",
			ExpiresAt: expires,
			Admin:     &domain.Admin{ID: 1, Username: "alice", PasswordHash: "$2a$hash"},
		}, nil).Once()

		rec := ts.do(http.MethodPost, "/api/admin/login", `{"username":"alice","password":"correct-horse"}`, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var got map[string]interface{}
		decodeBody(t, rec, &got)
		assert.Equal(t, "signed.jwt.token", got["token"])
		assert.Equal(t, map[string]interface{}{"id": float64(1), "username": "alice"}, got["admin"])
		assert.NotContains(t, rec.Body.String(), "$2a$hash")
	})

	t.Run("WrongPassword", func(t *testing.T) {
		ts := newTestServer(t, true)
		ts.auth.On("Login", mock.Anything, "alice", "nope").Return(nil, service.ErrInvalidCredentials).Once()

		rec := ts.do(http.MethodPost, "/api/admin/login", `{"username":"alice","password":"nope"}`, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"message":"Invalid credentials"}`, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "token")
	})

	t.Run("MissingPassword", func(t *testing.T) {
		ts := newTestServer(t, true)
		rec := ts.do(http.MethodPost, "/api/admin/login", `{"username":"alice"}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		ts.auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAdminRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t, true)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/admin/applications"},
		{http.MethodGet, "/api/admin/applications/stats"},
		{http.MethodGet, "/api/admin/applications/export"},
		{http.MethodPatch, "/api/admin/applications/5/status"},
	} {
		rec := ts.do(tc.method, tc.path, `{"status":"approved"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)

		rec = ts.do(tc.method, tc.path, `{"status":"approved"}`, "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}

	expired := security.NewTokenManager(testSecret, time.Hour, security.WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}))
	token, _, err := expired.GenerateAdminToken(1, "alice")
	require.NoError(t, err)
	rec := ts.do(http.MethodGet, "/api/admin/applications", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ts.apps.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	ts.apps.AssertNotCalled(t, "Review", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminUpdateStatus(t *testing.T) {
	t.Run("Approve", func(t *testing.T) {
		ts := newTestServer(t, true)
		submitted := time.Now().Add(-time.Hour).UTC()
		reviewed := time.Now().UTC()
		reviewer := "alice"
		ts.apps.On("Review", mock.Anything, int32(5), domain.ApplicationStatusApproved, "alice", service.ReviewChannelAdmin).
			Return(&domain.Application{
				ID:          5,
				Status:      domain.ApplicationStatusApproved,
				ReviewedBy:  &reviewer,
				ReviewedAt:  &reviewed,
				SubmittedAt: submitted,
			}, nil).Once()

		rec := ts.do(http.MethodPatch, "/api/admin/applications/5/status", `{"status":"approved"}`, ts.adminToken(t))
		require.Equal(t, http.StatusOK, rec.Code)

		var got domain.Application
		decodeBody(t, rec, &got)
		assert.Equal(t, domain.ApplicationStatusApproved, got.Status)
		require.NotNil(t, got.ReviewedBy)
		assert.Equal(t, "alice", *got.ReviewedBy)
		require.NotNil(t, got.ReviewedAt)
		assert.NotEqual(t, got.SubmittedAt, *got.ReviewedAt)
		assert.Empty(t, rec.Header().Get("Deprecation"))
		ts.apps.AssertExpectations(t)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		ts := newTestServer(t, true)
		rec := ts.do(http.MethodPatch, "/api/admin/applications/5/status", `{"status":"archived"}`, ts.adminToken(t))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"message":"Invalid status"}`, rec.Body.String())
	})

	t.Run("NotFound", func(t *testing.T) {
		ts := newTestServer(t, true)
		ts.apps.On("Review", mock.Anything, int32(99), domain.ApplicationStatusRejected, "alice", service.ReviewChannelAdmin).
			Return(nil, domain.ErrApplicationNotFound).Once()

		rec := ts.do(http.MethodPatch, "/api/admin/applications/99/status", `{"status":"rejected"}`, ts.adminToken(t))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("AlreadyReviewed", func(t *testing.T) {
		ts := newTestServer(t, true)
		ts.apps.On("Review", mock.Anything, int32(5), domain.ApplicationStatusRejected, "alice", service.ReviewChannelAdmin).
			Return(nil, domain.ErrAlreadyReviewed).Once()

		rec := ts.do(http.MethodPatch, "/api/admin/applications/5/status", `{"status":"rejected"}`, ts.adminToken(t))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestLegacyUpdateStatus(t *testing.T) {
	t.Run("SystemReviewer", func(t *testing.T) {
		ts := newTestServer(t, true)
		reviewer := domain.SystemReviewer
		now := time.Now().UTC()
		ts.apps.On("Review", mock.Anything, int32(5), domain.ApplicationStatusRejected, "System", service.ReviewChannelLegacy).
			Return(&domain.Application{ID: 5, Status: domain.ApplicationStatusRejected, ReviewedBy: &reviewer, ReviewedAt: &now}, nil).Once()

		rec := ts.do(http.MethodPatch, "/api/applications/5/status", `{"status":"rejected"}`, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "true", rec.Header().Get("Deprecation"))
		assert.Contains(t, rec.Header().Get("Link"), "/api/admin/applications/{id}/status")

		var got domain.Application
		decodeBody(t, rec, &got)
		assert.Equal(t, "System", *got.ReviewedBy)
	})

	t.Run("UnknownID", func(t *testing.T) {
		ts := newTestServer(t, true)
		ts.apps.On("Review", mock.Anything, int32(404), domain.ApplicationStatusApproved, "System", service.ReviewChannelLegacy).
			Return(nil, domain.ErrApplicationNotFound).Once()

		rec := ts.do(http.MethodPatch, "/api/applications/404/status", `{"status":"approved"}`, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "true", rec.Header().Get("Deprecation"))
	})

	t.Run("Disabled", func(t *testing.T) {
		ts := newTestServer(t, false)
		rec := ts.do(http.MethodPatch, "/api/applications/5/status", `{"status":"approved"}`, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		ts.apps.AssertNotCalled(t, "Review", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAdminListApplications(t *testing.T) {
	ts := newTestServer(t, true)
	filter := domain.ApplicationFilter{Status: domain.ApplicationStatusPending}
	ts.apps.On("List", mock.Anything, filter).Return([]domain.Application{{ID: 1}}, nil).Once()

	rec := ts.do(http.MethodGet, "/api/admin/applications?status=pending", "", ts.adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/api/admin/applications?status=archived", "", ts.adminToken(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ts.apps.AssertExpectations(t)
}

func TestAdminStatsAndExport(t *testing.T) {
	ts := newTestServer(t, true)
	ts.apps.On("Stats", mock.Anything).Return(&domain.ApplicationStats{Pending: 2, Approved: 1, Total: 3}, nil).Once()
	ts.apps.On("Export", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		_, _ = args.Get(1).(io.Writer).Write([]byte("PK"))
	}).Return(nil).Once()

	rec := ts.do(http.MethodGet, "/api/admin/applications/stats", "", ts.adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pending":2,"approved":1,"rejected":0,"total":3}`, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/admin/applications/export", "", ts.adminToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "PK", rec.Body.String())
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, true)
	rec := ts.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	down := apihttp.NewRouter(apihttp.RouterOptions{
		Handler: apihttp.NewHandler(ts.apps, ts.auth, fakePinger{err: errors.New("down")}),
		Tokens:  ts.tokens,
	})
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, true)
	req := httptest.NewRequest(http.MethodOptions, "/api/admin/applications/5/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

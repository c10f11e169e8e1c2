package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/autoserve/internal/auth"
	"github.com/ukydev/autoserve/internal/models"
)

func tokenFor(t *testing.T, svc *auth.Service, role models.Role) string {
	t.Helper()
	token, err := svc.GenerateToken(&models.User{
		ID:    primitive.NewObjectID(),
		Name:  "Test User",
		Email: "test@example.com",
		Role:  role,
	})
	assert.NoError(t, err)
	return token
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	authService := auth.NewService("test-secret", time.Hour)
	middleware := NewAuthMiddleware(authService)

	// Test successful authentication
	t.Run("valid token", func(t *testing.T) {
		token := tokenFor(t, authService, models.RoleTechnician)

		req := httptest.NewRequest("GET", "/api/jobcards", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			claims, ok := GetUserFromContext(r.Context())
			assert.True(t, ok)
			assert.Equal(t, "test@example.com", claims.Email)
			assert.Equal(t, models.RoleTechnician, claims.Role)
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	// Test missing authorization header
	t.Run("missing authorization header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/jobcards", nil)
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"msg":"No token"}`, w.Body.String())
	})

	// Test invalid token
	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/jobcards", nil)
		req.Header.Set("Authorization", "Bearer invalid-token")
		w := httptest.NewRecorder()

		handlerCalled := false
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
		})

		middleware.Authenticate(handler).ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"msg":"Invalid token"}`, w.Body.String())
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := auth.NewService("other-secret", time.Hour)
		req := httptest.NewRequest("GET", "/api/jobcards", nil)
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, other, models.RoleAdmin))
		w := httptest.NewRecorder()

		middleware.Authenticate(http.NotFoundHandler()).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	// Every mounted path needs a token, whatever it looks like.
	t.Run("no path is exempt", func(t *testing.T) {
		for _, path := range []string{"/api/auth/login", "/health"} {
			req := httptest.NewRequest("GET", path, nil)
			w := httptest.NewRecorder()

			handlerCalled := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
			})

			middleware.Authenticate(handler).ServeHTTP(w, req)
			assert.False(t, handlerCalled, path)
			assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		}
	})
}

func TestAuthMiddleware_RequirePermission(t *testing.T) {
	authService := auth.NewService("test-secret", time.Hour)
	middleware := NewAuthMiddleware(authService)

	tests := []struct {
		name       string
		role       models.Role
		action     models.Action
		wantStatus int
		wantMsg    string
	}{
		{"manager deletes job card", models.RoleManager, models.ActionDeleteJobCard, http.StatusOK, ""},
		{"admin deletes job card", models.RoleAdmin, models.ActionDeleteJobCard, http.StatusOK, ""},
		{"technician deletes job card", models.RoleTechnician, models.ActionDeleteJobCard, http.StatusForbidden, "Only managers can delete job cards"},
		{"cashier updates payment", models.RoleCashier, models.ActionUpdatePayment, http.StatusOK, ""},
		{"technician updates payment", models.RoleTechnician, models.ActionUpdatePayment, http.StatusForbidden, "Access denied"},
		{"technician updates job card", models.RoleTechnician, models.ActionUpdateJobCard, http.StatusOK, ""},
		{"cashier creates job card", models.RoleCashier, models.ActionCreateJobCard, http.StatusForbidden, "Access denied"},
		{"advisor manages inventory", models.RoleServiceAdvisor, models.ActionManageInventory, http.StatusForbidden, "Access denied. Admin or Manager only."},
		{"cashier views inventory", models.RoleCashier, models.ActionViewInventory, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/jobcards", nil)
			req.Header.Set("Authorization", "Bearer "+tokenFor(t, authService, tt.role))
			w := httptest.NewRecorder()

			handlerCalled := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
			})

			middleware.Authenticate(middleware.RequirePermission(tt.action)(handler)).ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, handlerCalled)
			if tt.wantMsg != "" {
				assert.JSONEq(t, `{"msg":"`+tt.wantMsg+`"}`, w.Body.String())
			}
		})
	}

	t.Run("no claims in context", func(t *testing.T) {
		w := httptest.NewRecorder()
		middleware.RequirePermission(models.ActionViewJobCards)(http.NotFoundHandler()).
			ServeHTTP(w, httptest.NewRequest("GET", "/api/jobcards", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetUserFromContext(t *testing.T) {
	claims := &models.Claims{
		UserID: "test-id",
		Email:  "test@example.com",
		Role:   models.RoleAdmin,
	}

	ctx := WithUser(context.Background(), claims)

	retrievedClaims, ok := GetUserFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, claims.UserID, retrievedClaims.UserID)
	assert.Equal(t, claims.Email, retrievedClaims.Email)
	assert.Equal(t, claims.Role, retrievedClaims.Role)

	// Test with no user in context
	emptyCtx := context.Background()
	_, ok = GetUserFromContext(emptyCtx)
	assert.False(t, ok)
}

package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
)

type staticValidator map[string]access.Actor

func (v staticValidator) Validate(token string) (access.Actor, error) {
	actor, ok := v[token]
	if !ok {
		return access.Actor{}, apperror.NewUnauthorized("invalid or expired token")
	}
	return actor, nil
}

func engine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(nil))
	r.GET("/", handlers...)
	return r
}

func serve(t *testing.T, r *gin.Engine, header string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec.Code, body
}

func TestAuthAndPermission(t *testing.T) {
	validator := staticValidator{
		"seller": access.NewActor("u1", "fatou", nil, []string{access.ViewSales}),
	}
	r := engine(Auth(validator), RequirePermission(access.ViewSales), func(c *gin.Context) {
		actor, ok := access.FromContext(c.Request.Context())
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user": actor.UserName})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer seller", http.StatusOK},
		{"case-insensitive scheme", "bearer seller", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := serve(t, r, tt.header)
			assert.Equal(t, tt.status, status)
			if tt.status == http.StatusOK {
				assert.Equal(t, "fatou", body["user"])
			} else {
				assert.Equal(t, apperror.CodeUnauthorized, body["code"])
			}
		})
	}
}

func TestRequirePermission_Forbidden(t *testing.T) {
	validator := staticValidator{"seller": access.NewActor("u1", "fatou", nil, []string{access.ViewSales})}
	r := engine(Auth(validator), RequirePermission(access.CancelCredit), func(c *gin.Context) {
		t.Fatal("handler must not run")
	})

	status, body := serve(t, r, "Bearer seller")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, apperror.CodeForbidden, body["code"])
	assert.Equal(t, access.CancelCredit, body["details"].(map[string]any)["required_permission"])
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	r := engine(func(c *gin.Context) {
		_ = c.Error(errors.New("connection refused"))
	})
	status, body := serve(t, r, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.NotContains(t, body["message"], "connection refused")

	r = engine(func(c *gin.Context) {
		_ = c.Error(apperror.NewInternal(errors.New("disk full")))
	})
	status, body = serve(t, r, "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body["message"])
}

func TestErrorHandler_LogLevelFollowsStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		level  zapcore.Level
	}{
		{"client error with cause", apperror.NewValidation("quantity must be positive").WithCause(errors.New("ledger rejected")), http.StatusBadRequest, zapcore.DebugLevel},
		{"conflict", apperror.NewConflict("sale already cancelled"), http.StatusConflict, zapcore.DebugLevel},
		{"internal", apperror.NewInternal(errors.New("disk full")), http.StatusInternalServerError, zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(ErrorHandler(zap.New(core)))
			r.GET("/", func(c *gin.Context) { _ = c.Error(tt.err) })

			status, _ := serve(t, r, "")
			assert.Equal(t, tt.status, status)
			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
		})
	}
}

package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/sungauge/sungauge/pkg/storage/storagemock"
	"github.com/sungauge/sungauge/pkg/types"
)

func TestAuthBypass(t *testing.T) {
	db := new(storagemock.MockDatabase)
	db.On("GetPanelConfig", mock.Anything, "household").
		Return(types.DefaultPanelConfig(), types.CurrentPanelConfigVersion, nil)

	srv := newTestServer(db, &mockWeather{}, &mockLocator{}, nil)
	srv.bypassUserID = "household"

	rec := httptest.NewRecorder()
	srv.setupHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	db.AssertExpectations(t)
}

func TestAuthMissingCookie(t *testing.T) {
	srv := newTestServer(new(storagemock.MockDatabase), &mockWeather{}, &mockLocator{}, nil)
	srv.bypassAuth = false
	srv.oidcVerifier = func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error) {
		t.Fatal("verifier should not be called without a cookie")
		return nil, nil
	}

	rec := httptest.NewRecorder()
	srv.setupHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthInvalidToken(t *testing.T) {
	srv := newTestServer(new(storagemock.MockDatabase), &mockWeather{}, &mockLocator{}, nil)
	srv.bypassAuth = false
	srv.oidcVerifier = func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error) {
		return nil, errors.New("token expired")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	req.AddCookie(&http.Cookie{Name: authTokenCookie, Value: "stale-token"})

	rec := httptest.NewRecorder()
	srv.setupHandler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthValidTokenKeysUser(t *testing.T) {
	db := new(storagemock.MockDatabase)
	db.On("GetPanelConfig", mock.Anything, "google-subject-123").
		Return(types.DefaultPanelConfig(), types.CurrentPanelConfigVersion, nil)

	srv := newTestServer(db, &mockWeather{}, &mockLocator{}, nil)
	srv.bypassAuth = false
	srv.oidcVerifier = func(ctx context.Context, rawIDToken string) (*oidc.IDToken, error) {
		assert.Equal(t, "good-token", rawIDToken)
		return &oidc.IDToken{Subject: "google-subject-123"}, nil
	}

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	req.AddCookie(&http.Cookie{Name: authTokenCookie, Value: "good-token"})

	rec := httptest.NewRecorder()
	srv.setupHandler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	db.AssertExpectations(t)
}

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"organigrama/internal/apperror"
	"organigrama/internal/auth"
	"organigrama/internal/service"
)

type stubOrgChart struct {
	buildRootFn func(ctx context.Context, query service.RootQuery) (service.OrgNode, error)
	expandFn    func(ctx context.Context, query service.ExpandQuery) (service.Expansion, error)
}

func (s stubOrgChart) BuildRoot(ctx context.Context, query service.RootQuery) (service.OrgNode, error) {
	if s.buildRootFn == nil {
		return service.OrgNode{}, nil
	}
	return s.buildRootFn(ctx, query)
}

func (s stubOrgChart) Expand(ctx context.Context, query service.ExpandQuery) (service.Expansion, error) {
	if s.expandFn == nil {
		return service.Expansion{}, nil
	}
	return s.expandFn(ctx, query)
}

type stubAuthenticator struct {
	loginFn func(ctx context.Context, input service.LoginInput) (service.LoginResult, error)
}

func (s stubAuthenticator) Login(ctx context.Context, input service.LoginInput) (service.LoginResult, error) {
	if s.loginFn == nil {
		return service.LoginResult{}, nil
	}
	return s.loginFn(ctx, input)
}

var testTokens = auth.NewTokenIssuer("test-secret", time.Hour, "organigrama")

func newTestHandler(orgChart service.OrgChart, authenticator service.Authenticator, options Options) *Handler {
	return NewHandler(orgChart, authenticator, testTokens, zap.NewNop(), options)
}

func bearer(t *testing.T, vistas ...string) string {
	t.Helper()
	token, _, err := testTokens.Issue(auth.Identity{DNI: "44991089", Name: "Rosa Vega", Role: "gerencia", Vistas: vistas})
	require.NoError(t, err)
	return "Bearer " + token
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, handler http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	var body envelope
	if recorder.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	}
	return recorder, body
}

func TestGetRoot(t *testing.T) {
	handler := newTestHandler(stubOrgChart{
		buildRootFn: func(ctx context.Context, query service.RootQuery) (service.OrgNode, error) {
			assert.Equal(t, "QUALITY", query.Area)
			assert.Equal(t, "Activo", query.Status)
			return service.OrgNode{
				ID:         "44991089",
				Level:      service.LevelSupreme,
				Expandable: true,
				Children: []service.OrgNode{
					{ID: "76157106", Level: service.LevelAreaBoss, Expandable: true, Children: []service.OrgNode{}},
				},
			}, nil
		},
	}, stubAuthenticator{}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/organigrama?area=QUALITY&estado=Activo", nil)
	req.Header.Set("Authorization", bearer(t, "Organigrama"))
	recorder, body := serve(t, handler, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, body.Success)
	assert.NotEmpty(t, recorder.Header().Get(requestIDHeader))

	var data struct {
		Organigrama struct {
			ID       string `json:"id"`
			Level    int    `json:"level"`
			Children []struct {
				ID       string        `json:"id"`
				Level    int           `json:"level"`
				Children []interface{} `json:"children"`
			} `json:"children"`
		} `json:"organigrama"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "44991089", data.Organigrama.ID)
	assert.Equal(t, 0, data.Organigrama.Level)
	require.Len(t, data.Organigrama.Children, 1)
	assert.Equal(t, 1, data.Organigrama.Children[0].Level)
	assert.NotNil(t, data.Organigrama.Children[0].Children)
}

func TestOrgChartRequiresToken(t *testing.T) {
	handler := newTestHandler(stubOrgChart{
		buildRootFn: func(ctx context.Context, query service.RootQuery) (service.OrgNode, error) {
			t.Fatal("service must not be called without a token")
			return service.OrgNode{}, nil
		},
	}, stubAuthenticator{}, Options{})

	recorder, body := serve(t, handler, httptest.NewRequest(http.MethodGet, "/organigrama", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, body.Success)

	req := httptest.NewRequest(http.MethodGet, "/organigrama", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	recorder, _ = serve(t, handler, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestOrgChartRequiresVista(t *testing.T) {
	handler := newTestHandler(stubOrgChart{}, stubAuthenticator{}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/organigrama/expandir?dni=1", nil)
	req.Header.Set("Authorization", bearer(t, "Bonos"))
	recorder, body := serve(t, handler, req)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.False(t, body.Success)
}

func TestExpand(t *testing.T) {
	handler := newTestHandler(stubOrgChart{
		expandFn: func(ctx context.Context, query service.ExpandQuery) (service.Expansion, error) {
			assert.Equal(t, "76157106", query.ID)
			return service.Expansion{
				Employee: service.OrgNode{ID: "76157106", Level: service.LevelAreaBoss, Children: []service.OrgNode{}},
				Subordinates: []service.OrgNode{
					{ID: "SEC_CAPACITACION", Level: service.LevelCoordinator, Expandable: true, Children: []service.OrgNode{}},
					{ID: "SEC_MONITOREO", Level: service.LevelCoordinator, Expandable: true, Children: []service.OrgNode{}},
				},
			}, nil
		},
	}, stubAuthenticator{}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/organigrama/expandir?dni=76157106", nil)
	req.Header.Set("Authorization", bearer(t, "organigrama"))
	recorder, body := serve(t, handler, req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var data struct {
		Employee struct {
			ID string `json:"id"`
		} `json:"empleado"`
		Subordinates []struct {
			ID         string `json:"id"`
			Level      int    `json:"level"`
			Expandable bool   `json:"expandable"`
		} `json:"subordinados"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "76157106", data.Employee.ID)
	require.Len(t, data.Subordinates, 2)
	assert.Equal(t, "SEC_CAPACITACION", data.Subordinates[0].ID)
	assert.Equal(t, 2, data.Subordinates[0].Level)
	assert.True(t, data.Subordinates[1].Expandable)
}

func TestExpandMissingDNI(t *testing.T) {
	handler := newTestHandler(stubOrgChart{
		expandFn: func(ctx context.Context, query service.ExpandQuery) (service.Expansion, error) {
			t.Fatal("service must not be called without dni")
			return service.Expansion{}, nil
		},
	}, stubAuthenticator{}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/organigrama/expandir?dni=%20", nil)
	req.Header.Set("Authorization", bearer(t, "Organigrama"))
	recorder, body := serve(t, handler, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "dni is required", body.Message)
}

func TestExpandErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "not found", err: apperror.New(apperror.CodeNotFound, "employee 99999999 not found"), status: http.StatusNotFound, message: "employee 99999999 not found"},
		{name: "internal", err: errors.New("pq: connection refused"), status: http.StatusInternalServerError, message: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestHandler(stubOrgChart{
				expandFn: func(ctx context.Context, query service.ExpandQuery) (service.Expansion, error) {
					return service.Expansion{}, tt.err
				},
			}, stubAuthenticator{}, Options{})

			req := httptest.NewRequest(http.MethodGet, "/organigrama/expandir?dni=99999999", nil)
			req.Header.Set("Authorization", bearer(t, "Organigrama"))
			recorder, body := serve(t, handler, req)

			assert.Equal(t, tt.status, recorder.Code)
			assert.False(t, body.Success)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestLogin(t *testing.T) {
	handler := newTestHandler(stubOrgChart{}, stubAuthenticator{
		loginFn: func(ctx context.Context, input service.LoginInput) (service.LoginResult, error) {
			if input.DNI != "44991089" || input.Password != "s3creta" {
				return service.LoginResult{}, apperror.New(apperror.CodeUnauthorized, "invalid dni or password")
			}
			return service.LoginResult{
				Token: "signed",
				User:  auth.Identity{DNI: "44991089", Role: "gerencia", Vistas: []string{"Organigrama"}},
			}, nil
		},
	}, Options{})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"dni":"44991089","password":"s3creta"}`))
	recorder, body := serve(t, handler, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	var data struct {
		Token string        `json:"token"`
		User  auth.Identity `json:"usuario"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "signed", data.Token)
	assert.Equal(t, "gerencia", data.User.Role)

	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"dni":"44991089","password":"44991089"}`))
	recorder, body = serve(t, handler, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "invalid dni or password", body.Message)
}

func TestLoginRejectsBadBodies(t *testing.T) {
	handler := newTestHandler(stubOrgChart{}, stubAuthenticator{
		loginFn: func(ctx context.Context, input service.LoginInput) (service.LoginResult, error) {
			t.Fatal("service must not be called for invalid bodies")
			return service.LoginResult{}, nil
		},
	}, Options{})

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "not json", body: `dni=1`, message: "invalid JSON body"},
		{name: "unknown field", body: `{"dni":"1","password":"x","role":"admin"}`, message: "invalid JSON body"},
		{name: "missing password", body: `{"dni":"1"}`, message: "password is required"},
		{name: "dni too long", body: `{"dni":"123456789012345678901","password":"x"}`, message: "dni is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(tt.body))
			recorder, body := serve(t, handler, req)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestLoginRateLimit(t *testing.T) {
	loginLimiter, err := NewLoginLimiter("2-M")
	require.NoError(t, err)

	handler := newTestHandler(stubOrgChart{}, stubAuthenticator{}, Options{LoginLimiter: loginLimiter})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"dni":"1","password":"x"}`))
		recorder, _ := serve(t, handler, req)
		require.Equal(t, http.StatusOK, recorder.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"dni":"1","password":"x"}`))
	recorder, body := serve(t, handler, req)
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.False(t, body.Success)
}

func TestNewLoginLimiterRejectsBadRate(t *testing.T) {
	_, err := NewLoginLimiter("ten per minute")
	assert.Error(t, err)
}

func TestMe(t *testing.T) {
	handler := newTestHandler(stubOrgChart{}, stubAuthenticator{}, Options{})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", bearer(t, "Organigrama"))
	recorder, body := serve(t, handler, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	var data struct {
		User auth.Identity `json:"usuario"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "44991089", data.User.DNI)
	assert.Equal(t, "Rosa Vega", data.User.Name)
}

func TestHealthcheck(t *testing.T) {
	healthy := newTestHandler(stubOrgChart{}, stubAuthenticator{}, Options{
		Health: func(ctx context.Context) error { return nil },
	})
	recorder, _ := serve(t, healthy, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "ok", recorder.Body.String())

	unhealthy := newTestHandler(stubOrgChart{}, stubAuthenticator{}, Options{
		Health: func(ctx context.Context) error { return errors.New("ping database: connection refused") },
	})
	recorder, body := serve(t, unhealthy, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Equal(t, "database unavailable", body.Message)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	handler := newTestHandler(stubOrgChart{}, stubAuthenticator{}, Options{})

	recorder, body := serve(t, handler, httptest.NewRequest(http.MethodGet, "/departments", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "route not found", body.Message)

	recorder, body = serve(t, handler, httptest.NewRequest(http.MethodDelete, "/organigrama", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
	assert.Equal(t, "method not allowed", body.Message)
}

func TestUnmatchedRequestsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := NewHandler(stubOrgChart{}, stubAuthenticator{}, testTokens, zap.New(core), Options{})

	recorder, _ := serve(t, handler, httptest.NewRequest(http.MethodGet, "/departments", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.NotEmpty(t, recorder.Header().Get("X-Request-ID"))

	recorder, _ = serve(t, handler, httptest.NewRequest(http.MethodDelete, "/organigrama", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)

	entries := logs.FilterMessage("http request").All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusNotFound), first["status"])
	assert.Equal(t, "unmatched", first["route"])
	assert.Equal(t, "/departments", first["path"])

	second := entries[1].ContextMap()
	assert.Equal(t, int64(http.StatusMethodNotAllowed), second["status"])
	assert.Equal(t, "DELETE", second["method"])
}

package http

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Name  string `json:"name" validate:"required,oneof=a b"`
	Limit int    `json:"limit" default:"10" validate:"gte=1"`
}

type testHandler struct{}

func (testHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/echo", func(c echo.Context) error {
		req := &echoRequest{}
		if verr := ReadAndValidateRequest(c, req); verr != nil {
			return BadRequestResponse(c, verr)
		}
		return SuccessResponse(c, req)
	})
	e.GET("/missing", func(c echo.Context) error {
		return AppErrorResponse(c, NotFoundErrorf("symbol %s", "X"))
	})
	e.GET("/boom", func(echo.Context) error {
		panic("boom")
	})
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewServer(testHandler{}, WithRegistry(reg, reg), WithCORS(false))
}

func serve(s *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestReadAndValidateRequest(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := serve(s, http.MethodPost, "/echo", `{"name":"a"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var ok struct {
		Status int         `json:"status"`
		Data   echoRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ok))
	require.Equal(t, 10, ok.Data.Limit)

	rec = serve(s, http.MethodPost, "/echo", `{"name":"z"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var bad struct {
		Data []ValidationError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bad))
	require.Len(t, bad.Data, 1)
	require.Equal(t, "ERR_ONEOF", bad.Data[0].Code)
	require.Equal(t, "name", bad.Data[0].Field)
}

func TestAppErrorResponseStatus(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := serve(s, http.MethodGet, "/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "ERR_NOT_FOUND")
}

func TestServerRecoversAndExposesMetrics(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := serve(s, http.MethodGet, "/boom", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	serve(s, http.MethodGet, "/missing", "")
	rec = serve(s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/missing",status="404"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	s := NewServer(testHandler{}, WithRegistry(reg, reg))

	req := httptest.NewRequest(http.MethodOptions, "/echo", nil)
	req.Header.Set(echo.HeaderOrigin, "http://dash.local")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestStartServesAndStops(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewServer(testHandler{}, WithRegistry(reg, reg), WithPort(0))
	require.NoError(t, s.Start())

	port := s.Echo().Listener.Addr().(*net.TCPAddr).Port
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/missing", port))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, s.Stop(t.Context()))
}

func TestStartReportsBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	reg := prometheus.NewRegistry()
	s := NewServer(nil, WithRegistry(reg, reg), WithPort(ln.Addr().(*net.TCPAddr).Port))
	s.cfg.host = "127.0.0.1"
	require.Error(t, s.Start())
}

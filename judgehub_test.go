package judgehub_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/judgehub/judgehub"
)

type echoHandler struct {
	routesCalled *int32
}

func (h *echoHandler) Routes(r judgehub.Router) {
	if h.routesCalled != nil {
		atomic.AddInt32(h.routesCalled, 1)
	}
	r.GET("/", func(c judgehub.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	r.GET("/boom", func(c judgehub.Context) error {
		return c.Error(judgehub.ReasonInvalidArgument, "bad input")
	})
	r.GET("/user/{id}", func(c judgehub.Context) error {
		id := judgehub.Param[string](c, "id")
		return c.JSON(http.StatusOK, map[string]string{"id": id})
	})
}

func TestApp_RoutesRegistered(t *testing.T) {
	var count int32
	h := &echoHandler{routesCalled: &count}
	app := judgehub.New(judgehub.WithHandlers(h))

	require.EqualValues(t, 1, count)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	app.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())
}

func TestApp_RouteParam(t *testing.T) {
	app := judgehub.New(judgehub.WithHandlers(&echoHandler{}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/user/42", nil)
	app.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"id":"42"}`, w.Body.String())
}

func TestApp_ErrorHandler(t *testing.T) {
	app := judgehub.New(
		judgehub.WithHandlers(&echoHandler{}),
		judgehub.WithErrorHandler(func(c judgehub.Context, err error) error {
			he := judgehub.AsHTTPError(err)
			if he == nil {
				he = judgehub.ErrInternal(err.Error())
			}
			return c.JSON(he.StatusCode(), map[string]any{"reason": he.Reason, "code": he.Code})
		}),
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	app.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"reason":"ERR_INVALID_ARGUMENT","code":1}`, w.Body.String())
}

func TestApp_HealthChecks(t *testing.T) {
	app := judgehub.New(
		judgehub.WithHealthChecks(
			judgehub.WithReadinessCheck("ok", func(_ context.Context) error { return nil }),
		),
	)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	app.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	app.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

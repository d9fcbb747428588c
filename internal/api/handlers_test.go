package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/transfa/card-point-service/internal/app"
	"github.com/transfa/card-point-service/internal/domain"
	"github.com/transfa/card-point-service/pkg/pointclient"
)

const validCard = "1234567890123456"

type checkerStub struct {
	calls  int32
	result domain.PointResult
}

func (s *checkerStub) CheckCardPoints(ctx context.Context, query domain.CardQuery) domain.PointResult {
	atomic.AddInt32(&s.calls, 1)
	return s.result
}

// newUpstreamRouter wires the real service and client against a stubbed upstream.
func newUpstreamRouter(t *testing.T, timeout time.Duration, handler http.HandlerFunc) http.Handler {
	t.Helper()
	upstream := httptest.NewServer(handler)
	t.Cleanup(upstream.Close)

	client := pointclient.NewClient(pointclient.Config{URL: upstream.URL, AuthToken: "Bearer test", Timeout: timeout})
	svc := app.NewService(client, pointclient.DefaultPayloadTemplate(), nil)
	return PointRoutes(NewPointHandlers(svc), []string{"*"})
}

func upstreamJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func doGet(router http.Handler, card string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/check-url?kart_no="+url.QueryEscape(card), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doPost(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/check", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestValidation_RejectsBeforeCallingCore(t *testing.T) {
	stub := &checkerStub{}
	router := PointRoutes(NewPointHandlers(stub), []string{"*"})

	getCases := map[string]string{
		"missing":   "/api/check-url",
		"empty":     "/api/check-url?kart_no=",
		"too short": "/api/check-url?kart_no=12345678901234",
		"repeated":  "/api/check-url?kart_no=" + validCard + "&kart_no=" + validCard,
	}
	for name, target := range getCases {
		t.Run("GET "+name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

			require.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeBody(t, w)
			require.Equal(t, false, body["success"])
			require.Equal(t, queryValidationMessage, body["message"])
			require.Equal(t, queryValidationHint, body["tip"])
		})
	}

	postCases := map[string]string{
		"malformed json": `{"kart_no":`,
		"empty body":     ``,
		"missing field":  `{}`,
		"null":           `{"kart_no":null}`,
		"number":         `{"kart_no":1234567890123456}`,
		"array":          `{"kart_no":["1234567890123456"]}`,
		"too short":      `{"kart_no":"12345678901234"}`,
		"not an object":  `["1234567890123456"]`,
	}
	for name, payload := range postCases {
		t.Run("POST "+name, func(t *testing.T) {
			w := doPost(router, payload)

			require.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeBody(t, w)
			require.Equal(t, false, body["success"])
			require.Equal(t, bodyValidationMessage, body["message"])
		})
	}

	require.Zero(t, atomic.LoadInt32(&stub.calls))
}

func TestCheck_SuccessWithBalance(t *testing.T) {
	router := newUpstreamRouter(t, time.Second, upstreamJSON(http.StatusOK, `{"success":true,"data":{"point":{"value":150,"valueString":"1,50 TL"}}}`))

	for name, w := range map[string]*httptest.ResponseRecorder{
		"GET":  doGet(router, validCard),
		"POST": doPost(router, `{"kart_no":"`+validCard+`"}`),
	} {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, map[string]interface{}{
				"success":     true,
				"kart_no":     validCard,
				"puan_var":    true,
				"puan_miktar": "1,50 TL",
			}, decodeBody(t, w))
		})
	}
}

func TestCheck_SuccessWithoutBalance(t *testing.T) {
	router := newUpstreamRouter(t, time.Second, upstreamJSON(http.StatusOK, `{"success":true,"data":{"point":{"value":0,"valueString":"0,00 TL"}}}`))

	w := doGet(router, validCard)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	require.Equal(t, false, body["puan_var"])
	require.Equal(t, "0,00 TL", body["puan_miktar"])
}

func TestCheck_BusinessFailures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"message":"Unauthorized"}`, wantDetail: "Unauthorized"},
		{name: "success false", status: http.StatusOK, body: `{"success":false,"message":"Kart geçersiz"}`, wantDetail: "Kart geçersiz"},
		{name: "no message", status: http.StatusInternalServerError, body: `oops`, wantDetail: app.DefaultBusinessMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUpstreamRouter(t, time.Second, upstreamJSON(tt.status, tt.body))

			w := doPost(router, `{"kart_no":"`+validCard+`"}`)

			require.Equal(t, http.StatusInternalServerError, w.Code)
			body := decodeBody(t, w)
			require.Equal(t, false, body["success"])
			require.Equal(t, validCard, body["kart_no"])
			require.Equal(t, businessFailureMessage, body["hata_mesaji"])
			require.Equal(t, tt.wantDetail, body["detay"])
			require.Equal(t, float64(tt.status), body["http_status"])
		})
	}
}

func TestCheck_TimeoutAndNetworkErrorAreDistinct(t *testing.T) {
	release := make(chan struct{})
	slow := newUpstreamRouter(t, 50*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	t.Cleanup(func() { close(release) })

	closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	closedURL := closed.URL
	closed.Close()
	client := pointclient.NewClient(pointclient.Config{URL: closedURL, AuthToken: "Bearer test", Timeout: time.Second})
	refused := PointRoutes(NewPointHandlers(app.NewService(client, pointclient.DefaultPayloadTemplate(), nil)), []string{"*"})

	timeoutResp := doGet(slow, validCard)
	require.Equal(t, http.StatusInternalServerError, timeoutResp.Code)
	timeoutBody := decodeBody(t, timeoutResp)
	require.Equal(t, transportFailureMessage, timeoutBody["hata_mesaji"])
	require.Equal(t, app.DetailTimeout, timeoutBody["detay"])
	require.NotContains(t, timeoutBody, "http_status")

	refusedResp := doGet(refused, validCard)
	require.Equal(t, http.StatusInternalServerError, refusedResp.Code)
	refusedBody := decodeBody(t, refusedResp)
	require.Equal(t, transportFailureMessage, refusedBody["hata_mesaji"])
	require.Equal(t, app.DetailNetworkError, refusedBody["detay"])

	require.NotEqual(t, timeoutBody["detay"], refusedBody["detay"])
}

func TestCheck_RepeatedRequestsClassifyTheSame(t *testing.T) {
	router := newUpstreamRouter(t, time.Second, upstreamJSON(http.StatusOK, `{"success":true,"data":{"point":{"value":150,"valueString":"1,50 TL"}}}`))

	first := doGet(router, validCard)
	for i := 0; i < 3; i++ {
		again := doGet(router, validCard)
		require.Equal(t, first.Code, again.Code)
		require.JSONEq(t, first.Body.String(), again.Body.String())
	}
}

func TestInfoAndHealth(t *testing.T) {
	router := PointRoutes(NewPointHandlers(&checkerStub{}), []string{"*"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, infoText, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), "card_point_credential_expiry_seconds"))
}

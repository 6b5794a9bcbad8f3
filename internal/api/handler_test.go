package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// setupValidationRouter wires the handlers without backing services; every
// request here must be rejected before a service is touched.
func setupValidationRouter(webpushOptions *webpush.Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHandler(nil, nil, nil, nil, nil, nil, webpushOptions)

	r.POST("/api/beds/:bed_id/turnovers", h.StartTurnover)
	r.POST("/api/turnovers/:turnover_id/begin", h.BeginCleaning)
	r.POST("/api/turnovers/:turnover_id/complete", h.CompleteCleaning)
	r.POST("/api/beds/:bed_id/assignments", h.AssignNext)
	r.POST("/api/queue", h.Enqueue)
	r.GET("/api/queue", h.ListQueue)
	r.POST("/api/equipment/:equipment_id/cleaning", h.MarkEquipmentForCleaning)
	r.PUT("/api/subscriptions", h.PutSubscription)
	r.GET("/api/subscriptions", h.GetSubscription)
	r.GET("/api/vapid_public_key", h.GetVAPIDPublicKey)
	return r
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRequestValidation(t *testing.T) {
	router := setupValidationRouter(nil)

	cases := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"turnover with malformed bed id", "POST", "/api/beds/abc/turnovers", `{}`},
		{"begin cleaning without a body", "POST", "/api/turnovers/t1/begin", ""},
		{"begin cleaning without a cleaner", "POST", "/api/turnovers/t1/begin", `{}`},
		{"complete cleaning without a verdict", "POST", "/api/turnovers/t1/complete", `{"inspector_id": 11}`},
		{"assignment with malformed bed id", "POST", "/api/beds/abc/assignments", ""},
		{"enqueue without patient", "POST", "/api/queue", `{"department_id": 1}`},
		{"enqueue without department", "POST", "/api/queue", `{"patient_id": 1}`},
		{"queue list with malformed department", "GET", "/api/queue?department_id=abc", ""},
		{"equipment with malformed id", "POST", "/api/equipment/abc/cleaning", ""},
		{"subscription without a body", "PUT", "/api/subscriptions", ""},
		{"subscription without keys", "PUT", "/api/subscriptions", `{"endpoint": "https://example.com/push"}`},
		{"subscription lookup without endpoint", "GET", "/api/subscriptions", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(router, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestCompleteCleaningAcceptsExplicitFalse(t *testing.T) {
	// A false verdict must pass the required binding; only its absence is an
	// error. The request reaches the nil service, so the handler panics
	// instead of returning 400.
	router := setupValidationRouter(nil)
	assert.Panics(t, func() {
		doJSON(router, "POST", "/api/turnovers/t1/complete", `{"inspector_id": 11, "inspection_passed": false}`)
	})
}

func TestGetVAPIDPublicKey(t *testing.T) {
	t.Run("unconfigured keys are unavailable", func(t *testing.T) {
		router := setupValidationRouter(nil)
		w := doJSON(router, "GET", "/api/vapid_public_key", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("configured key is returned", func(t *testing.T) {
		router := setupValidationRouter(&webpush.Options{VAPIDPublicKey: "test-public-key"})
		w := doJSON(router, "GET", "/api/vapid_public_key", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"public_key":"test-public-key"}`, w.Body.String())
	})
}

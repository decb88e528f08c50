package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rushteam/jembertrip/config"
	"github.com/rushteam/jembertrip/core"
	"github.com/rushteam/jembertrip/corpus"
	"github.com/rushteam/jembertrip/recommend"
	"github.com/rushteam/jembertrip/server/dto"
	"github.com/rushteam/jembertrip/server/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type unitEncoder struct{}

func (unitEncoder) Name() string   { return "unit" }
func (unitEncoder) Dimension() int { return 3 }
func (unitEncoder) Encode(context.Context, string) ([]float64, error) {
	return []float64{1, 0, 0}, nil
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "jembertrip"
	cfg.App.Version = "test"
	cfg.Observability.Metrics.Enabled = true
	cfg.Observability.Metrics.Path = "/metrics"
	return cfg
}

func newTestService(t *testing.T) *recommend.Service {
	t.Helper()
	c, err := corpus.New([]*core.Destination{
		{ID: 1, Name: "a1", Category: "A", Embedding: []float64{1, 0, 0}},
		{ID: 2, Name: "a2", Category: "A", Embedding: []float64{0.8, 0.6, 0}},
		{ID: 3, Name: "b1", Category: "B", Embedding: []float64{0.6, 0.8, 0}},
		{ID: 4, Name: "b2", Category: "B", Embedding: []float64{0, 1, 0}},
		{ID: 5, Name: "c1", Category: "C", Embedding: []float64{0.7, 0, 0.7}},
	})
	if err != nil {
		t.Fatal(err)
	}
	svc, err := recommend.New(context.Background(), recommend.Options{Corpus: c, Encoder: unitEncoder{}})
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

type resultBody struct {
	Title string `json:"title"`
	Data  []struct {
		ID              int64    `json:"id"`
		Name            string   `json:"name"`
		SimilarityScore *float64 `json:"similarity_score"`
	} `json:"data"`
}

func (b resultBody) ids() []int64 {
	out := make([]int64, len(b.Data))
	for i, d := range b.Data {
		out[i] = d.ID
	}
	return out
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNotReady(t *testing.T) {
	holder := handler.NewServiceHolder()
	engine := NewRouter(testConfig(), holder, nil).Engine()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/recommendations"},
		{http.MethodGet, "/api/v1/destinations/all"},
		{http.MethodGet, "/api/v1/similar/a1"},
		{http.MethodGet, "/ready"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(t, engine, tt.method, tt.path, nil)
			if w.Code != http.StatusServiceUnavailable {
				t.Fatalf("status = %d, want 503", w.Code)
			}
		})
	}

	var errResp dto.ErrorResponse
	w := do(t, engine, http.MethodGet, "/api/v1/destinations/all", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &errResp); err != nil {
		t.Fatal(err)
	}
	if errResp.Code != core.ErrorCodeUnavailable || errResp.RequestID == "" {
		t.Errorf("unexpected error body %+v", errResp)
	}

	if w := do(t, engine, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}
}

func TestRecommendRoutes(t *testing.T) {
	holder := handler.NewServiceHolder()
	engine := NewRouter(testConfig(), holder, map[string]handler.Pinger{"redis": failingPinger{}}).Engine()
	holder.Install(newTestService(t))

	t.Run("ready with degraded dependency", func(t *testing.T) {
		w := do(t, engine, http.MethodGet, "/ready", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
		}
	})

	t.Run("search", func(t *testing.T) {
		w := do(t, engine, http.MethodPost, "/api/v1/recommendations", map[string]any{"query": "pantai", "top_k": 2})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var body resultBody
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body.Title != "Search results for 'pantai'" {
			t.Errorf("title = %q", body.Title)
		}
		if len(body.Data) != 2 || body.Data[0].ID != 1 || body.Data[0].SimilarityScore == nil || *body.Data[0].SimilarityScore != 1 {
			t.Errorf("unexpected data %+v", body.Data)
		}
	})

	t.Run("feed with mixed history ids", func(t *testing.T) {
		w := do(t, engine, http.MethodPost, "/api/v1/recommendations", map[string]any{"history_ids": []any{"1", "x"}})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var body resultBody
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body.Title != "Because you liked category 'A'" {
			t.Errorf("title = %q", body.Title)
		}
		ids := body.ids()
		if len(ids) == 0 || ids[0] != 2 {
			t.Fatalf("ids = %v, want 2 first", ids)
		}
		for _, id := range ids {
			if id == 1 {
				t.Fatal("history item must be excluded")
			}
		}
	})

	t.Run("empty body is cold start", func(t *testing.T) {
		w := do(t, engine, http.MethodPost, "/api/v1/recommendations", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var body resultBody
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body.Title != recommend.TitleColdStart || len(body.Data) != 5 {
			t.Errorf("unexpected cold start %q with %d items", body.Title, len(body.Data))
		}
		for _, d := range body.Data {
			if d.SimilarityScore != nil {
				t.Fatal("cold start items carry no score")
			}
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendations", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
	})

	t.Run("all", func(t *testing.T) {
		w := do(t, engine, http.MethodGet, "/api/v1/destinations/all", nil)
		var items []map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
			t.Fatal(err)
		}
		if len(items) != 5 {
			t.Fatalf("len = %d", len(items))
		}
		if _, ok := items[0]["similarity_score"]; ok {
			t.Error("all items carry no score")
		}
	})

	t.Run("similar", func(t *testing.T) {
		w := do(t, engine, http.MethodGet, "/api/v1/similar/a1?top_k=2", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var body resultBody
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		ids := body.ids()
		if body.Title != "Similar to a1" || len(ids) != 2 || ids[0] != 2 || ids[1] != 5 {
			t.Errorf("unexpected similar %q %v", body.Title, ids)
		}
	})

	t.Run("similar within category", func(t *testing.T) {
		w := do(t, engine, http.MethodGet, "/api/v1/similar/a1?category=B", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var body resultBody
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		ids := body.ids()
		if len(ids) != 2 || ids[0] != 3 || ids[1] != 4 {
			t.Errorf("scoped similar ids = %v, want [3 4]", ids)
		}
	})

	t.Run("similar unknown", func(t *testing.T) {
		w := do(t, engine, http.MethodGet, "/api/v1/similar/nowhere", nil)
		if w.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", w.Code)
		}
	})

	t.Run("metrics", func(t *testing.T) {
		w := do(t, engine, http.MethodGet, "/metrics", nil)
		if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("http_requests_total")) {
			t.Errorf("metrics endpoint missing request counter")
		}
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	engine := NewRouter(testConfig(), handler.NewServiceHolder(), nil).Engine()
	engine.GET("/panic", func(*gin.Context) { panic("boom") })

	w := do(t, engine, http.MethodGet, "/panic", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.HTTP.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2}
	holder := handler.NewServiceHolder()
	holder.Install(newTestService(t))
	engine := NewRouter(cfg, holder, nil).Engine()

	for i := 0; i < 2; i++ {
		if w := do(t, engine, http.MethodGet, "/api/v1/destinations/all", nil); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}
	if w := do(t, engine, http.MethodGet, "/api/v1/destinations/all", nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	// 系统端点不限流
	if w := do(t, engine, http.MethodGet, "/health", nil); w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
}

package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func newModelsServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.URL.Path != "/api/v1/models" {
			t.Errorf("Expected path /api/v1/models, got %q", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		payload := map[string]any{
			"data": []any{
				map[string]any{
					"id":             "b-model",
					"name":           "B Model",
					"context_length": 2000,
					"architecture": map[string]any{
						"input_modalities":  []string{"text"},
						"output_modalities": []string{"text"},
					},
				},
				map[string]any{
					"id":             "a-model",
					"name":           "A Model",
					"context_length": 1000,
					"pricing": map[string]any{
						"prompt":     "0.001",
						"completion": "0.002",
					},
					"architecture": map[string]any{
						"input_modalities": []string{"text", "image"},
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
}

func TestFetchModels(t *testing.T) {
	server := newModelsServer(t, nil)
	defer server.Close()

	models, err := FetchModels(context.Background(), server.URL+"/api/v1", "")
	if err != nil {
		t.Fatalf("FetchModels() error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("Expected 2 models, got %d", len(models))
	}
	if models[0].ID != "a-model" {
		t.Fatalf("Expected models sorted by ID, got %q", models[0].ID)
	}
	if models[0].Pricing["prompt"] != "0.001" {
		t.Fatalf("Expected prompt pricing, got %q", models[0].Pricing["prompt"])
	}
	if !models[0].SupportsImages() {
		t.Error("Expected a-model to accept images")
	}
	if models[1].SupportsImages() {
		t.Error("Expected b-model to be text only")
	}
}

func TestFetchModels_SendsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Expected bearer token, got %q", got)
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	if _, err := FetchModels(context.Background(), server.URL, "secret"); err != nil {
		t.Fatalf("FetchModels() error: %v", err)
	}
}

func TestFetchModels_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	if _, err := FetchModels(context.Background(), server.URL, ""); err == nil {
		t.Fatal("Expected error for 401")
	}
}

func TestSupportsImages_UnknownModalities(t *testing.T) {
	if !(ModelInfo{ID: "gpt-4o"}).SupportsImages() {
		t.Error("Expected models without modalities to be listed as image capable")
	}
}

func TestCachedModels(t *testing.T) {
	var hits int32
	server := newModelsServer(t, &hits)
	defer server.Close()

	apiURL := server.URL + "/api/v1"
	cachePath := filepath.Join(t.TempDir(), "models_cache.json")

	first, err := CachedModels(context.Background(), apiURL, "", cachePath, time.Hour)
	if err != nil {
		t.Fatalf("CachedModels() error: %v", err)
	}
	if len(first.Models) != 2 {
		t.Fatalf("Expected 2 models, got %d", len(first.Models))
	}

	if _, err := CachedModels(context.Background(), apiURL, "", cachePath, time.Hour); err != nil {
		t.Fatalf("CachedModels() error: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Expected one fetch with a fresh cache, got %d", got)
	}

	if _, err := CachedModels(context.Background(), apiURL, "", cachePath, 0); err != nil {
		t.Fatalf("CachedModels() error: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("Expected refetch with zero ttl, got %d", got)
	}
}

func TestCachedModels_StaleFallback(t *testing.T) {
	cachePath := filepath.Join(t.TempDir(), "models_cache.json")
	apiURL := "http://127.0.0.1:1/api/v1"
	stale := ModelCache{
		UpdatedAt: time.Now().Add(-48 * time.Hour),
		APIURL:    apiURL,
		Models:    []ModelInfo{{ID: "old-model"}},
	}
	if err := SaveModelCache(cachePath, stale); err != nil {
		t.Fatalf("SaveModelCache() error: %v", err)
	}

	cache, err := CachedModels(context.Background(), apiURL, "", cachePath, time.Hour)
	if err != nil {
		t.Fatalf("Expected stale cache on fetch failure, got %v", err)
	}
	if len(cache.Models) != 1 || cache.Models[0].ID != "old-model" {
		t.Fatalf("Expected stale models, got %+v", cache.Models)
	}
}

func TestModelCacheReadWrite(t *testing.T) {
	tmpDir := t.TempDir()
	cachePath := filepath.Join(tmpDir, "models_cache.json")

	expected := ModelCache{
		UpdatedAt: time.Date(2025, 1, 15, 12, 30, 0, 0, time.UTC),
		APIURL:    "https://openrouter.ai/api/v1",
		Models: []ModelInfo{
			{
				ID:            "test-model",
				Name:          "Test Model",
				ContextLength: 1234,
				Pricing: map[string]string{
					"prompt":     "0.01",
					"completion": "0.02",
				},
			},
		},
	}

	if err := SaveModelCache(cachePath, expected); err != nil {
		t.Fatalf("SaveModelCache() error: %v", err)
	}

	cache, err := LoadModelCache(cachePath)
	if err != nil {
		t.Fatalf("LoadModelCache() error: %v", err)
	}

	if cache.UpdatedAt.Format(time.RFC3339) != expected.UpdatedAt.Format(time.RFC3339) {
		t.Fatalf("UpdatedAt mismatch: %v vs %v", cache.UpdatedAt, expected.UpdatedAt)
	}
	if cache.APIURL != expected.APIURL {
		t.Fatalf("Expected api url round trip, got %q", cache.APIURL)
	}
	if len(cache.Models) != 1 {
		t.Fatalf("Expected 1 model, got %d", len(cache.Models))
	}
	if cache.Models[0].ID != "test-model" {
		t.Fatalf("Expected model ID 'test-model', got %q", cache.Models[0].ID)
	}
}

func TestBuildModelsURL(t *testing.T) {
	got, err := buildModelsURL("https://openrouter.ai/api/v1/")
	if err != nil {
		t.Fatalf("buildModelsURL() error: %v", err)
	}
	if got != "https://openrouter.ai/api/v1/models" {
		t.Errorf("Expected models URL, got %q", got)
	}
	if _, err := buildModelsURL("openrouter.ai"); err == nil {
		t.Error("Expected error without scheme")
	}
	if _, err := buildModelsURL(" "); err == nil {
		t.Error("Expected error for empty url")
	}
}

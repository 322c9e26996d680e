package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestClient_FetchUniverse_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"universe":[{"name":"BTC","szDecimals":5},{"name":"ETH","szDecimals":4}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, zap.NewNop())
	assets, err := client.FetchUniverse(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(assets) != 2 || assets[0].Name != "BTC" || assets[1].SzDecimals != 4 {
		t.Fatalf("unexpected assets: %+v", assets)
	}
}

func TestClient_FetchUniverse_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, zap.NewNop())
	_, err := client.FetchUniverse(context.Background())
	if err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestClient_FetchUniverse_DeadlineExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(`{"universe":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Millisecond, zap.NewNop())
	_, err := client.FetchUniverse(context.Background())
	if err == nil {
		t.Fatal("expected a timeout error")
	}
}

func TestClient_FetchUniverse_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, zap.NewNop())
	_, err := client.FetchUniverse(context.Background())
	if err == nil {
		t.Fatal("expected an unmarshal error")
	}
}

package healthprobe

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	hc := New()

	if hc == nil {
		t.Fatal("New() returned nil")
	}
	if time.Since(hc.startTime) > time.Second {
		t.Errorf("start time is too old: %v", hc.startTime)
	}
	if hc.ready.Load() {
		t.Error("HealthChecker should not be ready by default")
	}
}

func TestSetReady_Toggle(t *testing.T) {
	hc := New()

	hc.SetReady(true)
	if !hc.ready.Load() {
		t.Error("should be ready after SetReady(true)")
	}

	hc.SetReady(false)
	if hc.ready.Load() {
		t.Error("should not be ready after SetReady(false)")
	}
}

func doRequest(t *testing.T, handler http.HandlerFunc, path string) (*http.Response, HealthResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	handler(w, req)

	resp := w.Result()
	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	resp.Body.Close()
	return resp, body
}

func TestHealth_AlwaysReturnsOK(t *testing.T) {
	hc := New()

	for _, ready := range []bool{false, true} {
		hc.SetReady(ready)
		resp, body := doRequest(t, hc.Health(), "/health")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("health status = %d, want %d (ready=%v)", resp.StatusCode, http.StatusOK, ready)
		}
		if body.Status != "healthy" {
			t.Errorf("status = %s, want healthy", body.Status)
		}
		if body.Uptime == "" {
			t.Error("uptime is empty")
		}
	}
}

func TestReady_NotReadyInitially(t *testing.T) {
	hc := New()

	resp, body := doRequest(t, hc.Ready(), "/ready")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
	if body.Status != "not_ready" {
		t.Errorf("status = %s, want not_ready", body.Status)
	}
	if body.Message == "" {
		t.Error("message is empty for not_ready state")
	}
}

func TestReady_FollowsSetReady(t *testing.T) {
	hc := New()
	handler := hc.Ready()

	hc.SetReady(true)
	resp, body := doRequest(t, handler, "/ready")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("ready status after SetReady(true) = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if body.Status != "ready" {
		t.Errorf("status = %s, want ready", body.Status)
	}

	hc.SetReady(false)
	resp, _ = doRequest(t, handler, "/ready")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("ready status after SetReady(false) = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}
}

func TestReady_SurfacesConnectionState(t *testing.T) {
	hc := New()

	hc.SetState("reconnecting")
	_, body := doRequest(t, hc.Ready(), "/ready")
	if body.State != "reconnecting" {
		t.Errorf("state = %q, want reconnecting in not_ready body", body.State)
	}

	hc.SetReady(true)
	hc.SetState("connected")
	_, body = doRequest(t, hc.Ready(), "/ready")
	if body.State != "connected" {
		t.Errorf("state = %q, want connected in ready body", body.State)
	}
}

func TestHealthChecker_ConcurrentAccess(t *testing.T) {
	hc := New()
	handler := hc.Ready()

	done := make(chan bool)

	go func() {
		for i := 0; i < 100; i++ {
			hc.SetReady(i%2 == 0)
			hc.SetState("connecting")
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			req := httptest.NewRequest(http.MethodGet, "/ready", nil)
			w := httptest.NewRecorder()
			handler(w, req)
		}
		done <- true
	}()

	<-done
	<-done
}

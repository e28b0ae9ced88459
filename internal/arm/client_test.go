package arm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientDo(t *testing.T) {
	var gotMethod, gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.RequestURI()
		var body map[string]any
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		gotBody, _ = body["name"].(string)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"abc","properties":{"endpoint":"https://bing.example"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	resp, err := c.Do(context.Background(), http.MethodPut, "/things/x?api-version=1", map[string]any{"name": "x"})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotMethod != http.MethodPut || gotPath != "/things/x?api-version=1" {
		t.Fatalf("request was %s %s", gotMethod, gotPath)
	}
	if gotBody != "x" {
		t.Fatalf("body name = %q", gotBody)
	}
	if !resp.OK() || stringField(resp.Body, "id") != "abc" {
		t.Fatalf("response = %+v", resp)
	}
	if stringField(properties(resp.Body), "endpoint") != "https://bing.example" {
		t.Fatalf("properties not decoded: %s", resp.Raw)
	}
}

func TestClientDoHTTPErrorIsData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"code":"Conflict"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	resp, err := c.Do(context.Background(), http.MethodGet, "/things/x?api-version=1", nil)
	if err != nil {
		t.Fatalf("HTTP error should not be a Go error, got %v", err)
	}
	if resp.OK() || resp.Status != http.StatusConflict {
		t.Fatalf("status = %d", resp.Status)
	}
}

func TestClientDoTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, http.DefaultClient)
	if _, err := c.Do(context.Background(), http.MethodGet, "/x?api-version=1", nil); err == nil {
		t.Fatal("expected transport error")
	}
}

func TestClientDoNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	resp, err := c.Do(context.Background(), http.MethodGet, "/x?api-version=1", nil)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if resp.Body != nil || resp.Raw != "upstream down" {
		t.Fatalf("response = %+v", resp)
	}
}

package transport

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPost(t *testing.T) {
	var body string
	var header http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		header = r.Header
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	tr := NewFastHTTP(time.Second)
	err := tr.Post(server.URL, []byte(`{"a":1}`), map[string]string{"Authorization": "Basic eDo="})
	if err != nil {
		t.Fatal(err)
	}
	if body != `{"a":1}` {
		t.Fatalf("wrong body %v", body)
	}
	if header.Get("Content-Type") != "application/json" {
		t.Fatalf("wrong content type %v", header.Get("Content-Type"))
	}
	if header.Get("Authorization") != "Basic eDo=" {
		t.Fatalf("wrong authorization %v", header.Get("Authorization"))
	}
}

func TestPostStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	err := NewFastHTTP(time.Second).Post(server.URL, []byte(`{}`), nil)
	var statusError *StatusError
	if !errors.As(err, &statusError) {
		t.Fatalf("expected status error, got %v", err)
	}
	if statusError.Status != http.StatusUnauthorized {
		t.Fatalf("wrong status %v", statusError.Status)
	}
}

func TestPostUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := NewFastHTTP(time.Second).Post(url, []byte(`{}`), nil)
	if err == nil {
		t.Fatalf("expected an error")
	}
}

package downloader

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"imagefetch/internal/models"
)

func TestFetch(t *testing.T) {
	logger := zaptest.NewLogger(t)
	payload := []byte("fake png bytes")

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			w.Write(payload)
		case "/page.html":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte("<html></html>"))
		case "/huge.png":
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("Content-Length", "11000000")
			// Body never matters: the declared length rejects first.
		case "/missing.png":
			w.WriteHeader(http.StatusNotFound)
		case "/private.png":
			w.WriteHeader(http.StatusForbidden)
		case "/broken.png":
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer ts.Close()

	tests := []struct {
		name       string
		path       string
		wantKind   models.Kind
		wantErr    bool
		wantStatus int
	}{
		{name: "valid image", path: "/ok.png"},
		{name: "html rejected", path: "/page.html", wantErr: true, wantKind: models.KindNotAnImage},
		{name: "declared too large", path: "/huge.png", wantErr: true, wantKind: models.KindTooLarge},
		{name: "404", path: "/missing.png", wantErr: true, wantKind: models.KindHTTP, wantStatus: 404},
		{name: "403", path: "/private.png", wantErr: true, wantKind: models.KindHTTP, wantStatus: 403},
		{name: "500", path: "/broken.png", wantErr: true, wantKind: models.KindHTTP, wantStatus: 500},
	}

	d := New(5*time.Second, 10*1024*1024)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Fetch(context.Background(), ts.URL+tt.path, logger)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if err.Kind != tt.wantKind {
					t.Errorf("kind = %v, want %v", err.Kind, tt.wantKind)
				}
				if tt.wantStatus != 0 && err.HTTPStatus != tt.wantStatus {
					t.Errorf("status = %d, want %d", err.HTTPStatus, tt.wantStatus)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got.Data, payload) {
				t.Errorf("payload bytes differ from served bytes")
			}
			if got.ContentType != "image/png" {
				t.Errorf("content type = %q, want image/png", got.ContentType)
			}
		})
	}
}

func TestFetch_CapEnforcedWithoutDeclaredLength(t *testing.T) {
	logger := zaptest.NewLogger(t)

	const sizeCap = 64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		// Chunked response, no Content-Length, more bytes than the cap.
		flusher := w.(http.Flusher)
		for i := 0; i < 4; i++ {
			fmt.Fprint(w, "0123456789012345678901234567890123456789")
			flusher.Flush()
		}
	}))
	defer ts.Close()

	d := New(5*time.Second, sizeCap)
	_, err := d.Fetch(context.Background(), ts.URL, logger)
	if err == nil {
		t.Fatal("expected TooLarge, got nil")
	}
	if err.Kind != models.KindTooLarge {
		t.Errorf("kind = %v, want %v", err.Kind, models.KindTooLarge)
	}
}

func TestFetch_Timeout(t *testing.T) {
	logger := zaptest.NewLogger(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer ts.Close()

	d := New(50*time.Millisecond, 1024)
	_, err := d.Fetch(context.Background(), ts.URL, logger)
	if err == nil {
		t.Fatal("expected timeout error, got nil")
	}
	if err.Kind != models.KindTimeout {
		t.Errorf("kind = %v, want %v", err.Kind, models.KindTimeout)
	}
}

func TestFetch_ConnectionError(t *testing.T) {
	logger := zaptest.NewLogger(t)

	// Grab a port that refuses connections by closing the server first.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	d := New(time.Second, 1024)
	_, err := d.Fetch(context.Background(), url, logger)
	if err == nil {
		t.Fatal("expected connection error, got nil")
	}
	if err.Kind != models.KindConnection {
		t.Errorf("kind = %v, want %v", err.Kind, models.KindConnection)
	}
}

func TestFetch_SchemeDefaulting(t *testing.T) {
	logger := zaptest.NewLogger(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/gif")
		w.Write([]byte("gif"))
	}))
	defer ts.Close()

	d := New(time.Second, 1024)
	bare := ts.URL[len("http://"):]
	got, err := d.Fetch(context.Background(), bare, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.URL != ts.URL {
		t.Errorf("url = %q, want scheme-prefixed %q", got.URL, ts.URL)
	}
}

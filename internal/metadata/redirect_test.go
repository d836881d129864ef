package metadata

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newLoopbackExtractor blocks everything isPrivateIP blocks except loopback,
// where httptest servers listen.
func newLoopbackExtractor() *Extractor {
	e := New(Options{Timeout: 2 * time.Second}, nil)
	e.blocked = func(ip net.IP) bool { return !ip.IsLoopback() && isPrivateIP(ip) }
	return e
}

func TestExtract_RedirectToBlockedAddressFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://169.254.169.254/latest/meta-data/", http.StatusFound)
	}))
	defer srv.Close()

	got := newLoopbackExtractor().Extract(context.Background(), srv.URL)
	if got.Title != "127.0.0.1" {
		t.Errorf("title = %q, want hostname fallback %q", got.Title, "127.0.0.1")
	}
	if got.Description != "" {
		t.Errorf("description = %q, want empty", got.Description)
	}
}

func TestExtract_RedirectToAllowedAddressIsFollowed(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<title>Landed</title>`))
	}))
	defer target.Close()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL, http.StatusFound)
	}))
	defer srv.Close()

	got := newLoopbackExtractor().Extract(context.Background(), srv.URL)
	if got.Title != "Landed" {
		t.Errorf("title = %q, want %q", got.Title, "Landed")
	}
}

func TestExtract_RedirectToOtherSchemeFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "file:///etc/passwd", http.StatusFound)
	}))
	defer srv.Close()

	got := newLoopbackExtractor().Extract(context.Background(), srv.URL)
	if got.Title != "127.0.0.1" {
		t.Errorf("title = %q, want hostname fallback", got.Title)
	}
}

func TestDialControl(t *testing.T) {
	e := New(Options{}, nil)
	tests := []struct {
		address string
		blocked bool
	}{
		{"169.254.169.254:80", true},
		{"127.0.0.1:8080", true},
		{"[::1]:443", true},
		{"10.0.0.7:80", true},
		{"93.184.216.34:443", false},
	}
	for _, tt := range tests {
		err := e.dialControl("tcp", tt.address, nil)
		if got := errors.Is(err, errPrivateHost); got != tt.blocked {
			t.Errorf("dialControl(%s) = %v, want blocked=%v", tt.address, err, tt.blocked)
		}
	}

	open := New(Options{AllowPrivateHosts: true}, nil)
	if err := open.dialControl("tcp", "127.0.0.1:8080", nil); err != nil {
		t.Errorf("AllowPrivateHosts: dialControl = %v, want nil", err)
	}
}

func TestExtract_FallbackHostnameIsLowercase(t *testing.T) {
	got := New(Options{}, nil).Extract(context.Background(), "ftp://Files.Example.COM/pub")
	if got.Title != "files.example.com" {
		t.Errorf("title = %q, want %q", got.Title, "files.example.com")
	}
	if got.URL != "ftp://Files.Example.COM/pub" {
		t.Errorf("url = %q, want input unchanged", got.URL)
	}
}

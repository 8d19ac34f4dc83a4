package util

import (
	"net/http"
	"testing"
	"time"
)

func TestNewProxyFunc_ByScheme(t *testing.T) {
	proxy := NewProxyFunc("http://plain:8080", "http://secure:8443")

	tests := []struct {
		target string
		want   string
	}{
		{"https://example.com/", "http://secure:8443"},
		{"http://example.com/", "http://plain:8080"},
	}

	for _, tt := range tests {
		req, err := http.NewRequest(http.MethodGet, tt.target, nil)
		if err != nil {
			t.Fatalf("NewRequest: %v", err)
		}
		got, err := proxy(req)
		if err != nil {
			t.Fatalf("proxy(%s): %v", tt.target, err)
		}
		if got.String() != tt.want {
			t.Errorf("proxy(%s) = %s, want %s", tt.target, got, tt.want)
		}
	}
}

func TestNewProxyFunc_HTTPOnlyCoversHTTPS(t *testing.T) {
	proxy := NewProxyFunc("http://plain:8080", "")
	req, _ := http.NewRequest(http.MethodGet, "https://example.com/", nil)

	got, err := proxy(req)
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}
	if got.String() != "http://plain:8080" {
		t.Errorf("got %s, want http://plain:8080", got)
	}
}

func TestNewHTTPClient_Timeout(t *testing.T) {
	client := NewHTTPClient(3*time.Second, "", "")
	if client.Timeout != 3*time.Second {
		t.Errorf("Timeout = %v, want 3s", client.Timeout)
	}
	if _, ok := client.Transport.(*http.Transport); !ok {
		t.Errorf("Transport is %T, want *http.Transport", client.Transport)
	}
}

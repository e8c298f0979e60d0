package util

import (
	"net/http"
	"net/url"
	"testing"
)

func requestFor(t *testing.T, rawURL string) *http.Request {
	t.Helper()
	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse %s: %v", rawURL, err)
	}
	return &http.Request{URL: u}
}

func TestNewProxyFunc(t *testing.T) {
	tests := []struct {
		name       string
		httpProxy  string
		httpsProxy string
		noProxy    string
		reqURL     string
		wantProxy  string
	}{
		{
			name:      "http proxy applies",
			httpProxy: "http://proxy.internal:3128",
			reqURL:    "http://catalog.example.com/search",
			wantProxy: "http://proxy.internal:3128",
		},
		{
			name:       "https proxy preferred for https",
			httpProxy:  "http://proxy.internal:3128",
			httpsProxy: "http://secure-proxy.internal:3128",
			reqURL:     "https://catalog.example.com/search",
			wantProxy:  "http://secure-proxy.internal:3128",
		},
		{
			name:      "no-proxy exact host bypasses",
			httpProxy: "http://proxy.internal:3128",
			noProxy:   "catalog.example.com",
			reqURL:    "http://catalog.example.com/search",
			wantProxy: "",
		},
		{
			name:      "no-proxy suffix bypasses subdomains",
			httpProxy: "http://proxy.internal:3128",
			noProxy:   ".example.com",
			reqURL:    "http://tiles.example.com/scenes",
			wantProxy: "",
		},
		{
			name:      "no-proxy does not match partial labels",
			httpProxy: "http://proxy.internal:3128",
			noProxy:   "example.com",
			reqURL:    "http://notexample.com/search",
			wantProxy: "http://proxy.internal:3128",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proxyFunc := NewProxyFunc(tt.httpProxy, tt.httpsProxy, tt.noProxy)
			got, err := proxyFunc(requestFor(t, tt.reqURL))
			if err != nil {
				t.Fatalf("proxy func: %v", err)
			}
			if tt.wantProxy == "" {
				if got != nil {
					t.Errorf("expected direct connection, got proxy %s", got)
				}
				return
			}
			if got == nil || got.String() != tt.wantProxy {
				t.Errorf("expected proxy %s, got %v", tt.wantProxy, got)
			}
		})
	}
}

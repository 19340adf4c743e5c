package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaders(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	tests := []struct {
		name    string
		headers Headers
		tls     bool
		want    map[string]string
	}{
		{
			name:    "hsts over tls",
			headers: Headers{Enable: true, EnableHSTS: true, HSTSMaxAge: 600, HSTSIncludeSubdomains: true},
			tls:     true,
			want: map[string]string{
				"X-Content-Type-Options":    "nosniff",
				"X-Frame-Options":           "DENY",
				"Referrer-Policy":           "no-referrer",
				"Strict-Transport-Security": "max-age=600; includeSubDomains",
			},
		},
		{
			name:    "no hsts over plain http",
			headers: Headers{Enable: true, EnableHSTS: true},
			want: map[string]string{
				"X-Frame-Options":           "DENY",
				"Strict-Transport-Security": "",
			},
		},
		{
			name:    "disabled",
			headers: Headers{Enable: false, EnableHSTS: true},
			tls:     true,
			want: map[string]string{
				"X-Content-Type-Options":    "",
				"Strict-Transport-Security": "",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://pos.example/api/v1/items", nil)
			if tt.tls {
				req = httptest.NewRequest(http.MethodGet, "https://pos.example/api/v1/items", nil)
				req.TLS = &tls.ConnectionState{}
			}
			rr := httptest.NewRecorder()
			tt.headers.Middleware(ok).ServeHTTP(rr, req)
			require.Equal(t, http.StatusOK, rr.Code)
			for key, want := range tt.want {
				require.Equal(t, want, rr.Header().Get(key), key)
			}
		})
	}
}

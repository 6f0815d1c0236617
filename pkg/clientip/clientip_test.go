package clientip_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/medisage/pkg/clientip"
)

func TestFromRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trusted    []string
		want       string
	}{
		{
			name:       "cloudflare header first",
			headers:    map[string]string{"CF-Connecting-IP": "203.0.113.195", "X-Forwarded-For": "192.168.1.1"},
			remoteAddr: "172.16.0.1:5000",
			want:       "203.0.113.195",
		},
		{
			name:       "first valid forwarded entry",
			headers:    map[string]string{"X-Forwarded-For": "garbage, 198.51.100.178, 203.0.113.1"},
			remoteAddr: "10.0.0.1:5000",
			want:       "198.51.100.178",
		},
		{
			name:       "real ip",
			headers:    map[string]string{"X-Real-IP": " 192.168.1.1 "},
			remoteAddr: "10.0.0.1:5000",
			want:       "192.168.1.1",
		},
		{
			name:       "remote addr fallback",
			remoteAddr: "10.0.0.1:5000",
			want:       "10.0.0.1",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:443",
			want:       "2001:db8::1",
		},
		{
			name:       "ipv4 mapped ipv6 unmapped",
			headers:    map[string]string{"X-Real-IP": "::ffff:192.0.2.7"},
			remoteAddr: "10.0.0.1:5000",
			want:       "192.0.2.7",
		},
		{
			name:       "untrusted header ignored",
			headers:    map[string]string{"CF-Connecting-IP": "203.0.113.195", "X-Real-IP": "192.168.1.1"},
			remoteAddr: "10.0.0.1:5000",
			trusted:    []string{"X-Real-IP"},
			want:       "192.168.1.1",
		},
		{
			name:       "nothing parses",
			headers:    map[string]string{"X-Forwarded-For": "unknown"},
			remoteAddr: "not-an-address",
			want:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.FromRequest(r, tt.trusted...))
		})
	}
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got string
	h := clientip.Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = clientip.FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "198.51.100.10")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "198.51.100.10", got)
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := clientip.LoggerExtractor()

	_, ok := extract(context.Background())
	assert.False(t, ok)

	attr, ok := extract(clientip.WithContext(context.Background(), "192.0.2.1"))
	require.True(t, ok)
	assert.Equal(t, "client_ip", attr.Key)
	assert.Equal(t, "192.0.2.1", attr.Value.String())
}

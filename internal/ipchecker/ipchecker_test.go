package ipchecker

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New("192.168.1.0")
	assert.Error(t, err)

	checker, err := New("")
	require.NoError(t, err)
	assert.False(t, checker.Check(net.ParseIP("127.0.0.1")), "an empty subnet trusts nobody")
}

func TestTrustedOnlyBehindProxy(t *testing.T) {
	checker, err := New("192.168.1.0/24", WithTrustProxyHeaders(true))
	require.NoError(t, err)

	handler := checker.TrustedOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name         string
		remoteAddr   string
		headers      map[string]string
		expectedCode int
	}{
		{name: "remote addr inside", remoteAddr: "192.168.1.10:5000", expectedCode: http.StatusOK},
		{name: "remote addr outside", remoteAddr: "10.1.1.1:5000", expectedCode: http.StatusForbidden},
		{
			name:         "x-real-ip wins",
			remoteAddr:   "10.1.1.1:5000",
			headers:      map[string]string{"X-Real-IP": "192.168.1.20"},
			expectedCode: http.StatusOK,
		},
		{
			name:         "first forwarded address",
			remoteAddr:   "10.1.1.1:5000",
			headers:      map[string]string{"X-Forwarded-For": "192.168.1.30, 10.0.0.1"},
			expectedCode: http.StatusOK,
		},
		{
			name:         "forwarded outside",
			remoteAddr:   "192.168.1.10:5000",
			headers:      map[string]string{"X-Forwarded-For": "8.8.8.8"},
			expectedCode: http.StatusForbidden,
		},
		{name: "unparsable remote addr", remoteAddr: "garbage", expectedCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/internal/stats", nil)
			request.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				request.Header.Set(k, v)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, request)

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestTrustedOnlyIgnoresHeadersByDefault(t *testing.T) {
	checker, err := New("127.0.0.0/8")
	require.NoError(t, err)

	handler := checker.TrustedOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name         string
		remoteAddr   string
		header       string
		value        string
		expectedCode int
	}{
		{name: "spoofed x-real-ip", remoteAddr: "203.0.113.7:5000", header: "X-Real-IP", value: "127.0.0.1", expectedCode: http.StatusForbidden},
		{name: "spoofed x-forwarded-for", remoteAddr: "203.0.113.7:5000", header: "X-Forwarded-For", value: "127.0.0.1", expectedCode: http.StatusForbidden},
		{name: "header pointing outside", remoteAddr: "127.0.0.1:5000", header: "X-Real-IP", value: "203.0.113.7", expectedCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/internal/stats", nil)
			request.RemoteAddr = tt.remoteAddr
			request.Header.Set(tt.header, tt.value)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, request)

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

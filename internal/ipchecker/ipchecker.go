// Package ipchecker restricts internal endpoints to clients from a trusted subnet.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/recipes/internal/logger"
)

// IPChecker matches client addresses against a trusted CIDR.
// Without a subnet it trusts nobody.
type IPChecker struct {
	trustedSubnet     *net.IPNet
	trustProxyHeaders bool
}

type initOptions struct {
	trustProxyHeaders bool
}

// InitOption configures an IPChecker.
type InitOption func(*initOptions)

// WithTrustProxyHeaders takes the client address from X-Real-IP and
// X-Forwarded-For. Enable it only behind a reverse proxy that overwrites
// these headers, otherwise any client can claim a trusted address.
func WithTrustProxyHeaders(value bool) InitOption {
	return func(options *initOptions) {
		options.trustProxyHeaders = value
	}
}

// New parses trustedSubnet in CIDR notation. An empty string disables access.
func New(trustedSubnet string, optionsProto ...InitOption) (*IPChecker, error) {
	options := &initOptions{
		trustProxyHeaders: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	checker := &IPChecker{
		trustProxyHeaders: options.trustProxyHeaders,
	}
	if trustedSubnet == "" {
		return checker, nil
	}

	_, allowedNet, err := net.ParseCIDR(trustedSubnet)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/New(): error while `net.ParseCIDR()` calling: %w", err)
	}
	checker.trustedSubnet = allowedNet

	return checker, nil
}

// Check reports whether clientIP is inside the trusted subnet.
func (checker *IPChecker) Check(clientIP net.IP) bool {
	return checker.trustedSubnet != nil && clientIP != nil && checker.trustedSubnet.Contains(clientIP)
}

// ClientIP returns the connection's remote address. With trustProxyHeaders
// X-Real-IP, then the first X-Forwarded-For entry, take precedence.
func ClientIP(request *http.Request, trustProxyHeaders bool) (net.IP, error) {
	if trustProxyHeaders {
		if ip := net.ParseIP(strings.TrimSpace(request.Header.Get("X-Real-IP"))); ip != nil {
			return ip, nil
		}
		if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip, nil
			}
		}
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/ClientIP(): error while `net.SplitHostPort()` calling: %w", err)
	}
	return net.ParseIP(host), nil
}

// TrustedOnly answers 403 to every client outside the trusted subnet.
func (checker *IPChecker) TrustedOnly(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		clientIP, err := ClientIP(request, checker.trustProxyHeaders)
		if err != nil {
			logger.Log.Debugln("Error calling the `ClientIP()`: ", zap.Error(err))
		}
		if !checker.Check(clientIP) {
			response.WriteHeader(http.StatusForbidden)
			return
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

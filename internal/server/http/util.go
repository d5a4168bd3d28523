package http

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
)

func encodeJSONResponse[T any](w http.ResponseWriter, code int, data T) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if code == http.StatusNoContent {
		return nil
	}

	return json.NewEncoder(w).Encode(data)
}

// getClientIP prefers the peer address and falls back to proxy headers
// when RemoteAddr cannot be parsed.
func getClientIP(req *http.Request) string {
	out, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		out = forwardedFor(req)
	}

	ip := net.ParseIP(out)
	switch {
	case ip == nil:
		return "0.0.0.0"
	case ip.IsLoopback():
		return "127.0.0.1"
	case ip.To4() == nil:
		// the events table stores IPv4 only
		return "0.0.0.0"
	default:
		return ip.String()
	}
}

func forwardedFor(req *http.Request) string {
	if xoff := req.Header.Get("X-Original-Forwarded-For"); xoff != "" {
		return strings.TrimSpace(xoff)
	}
	xff := strings.Split(req.Header.Get("X-Forwarded-For"), ",")
	return strings.TrimSpace(xff[0])
}

package client

import (
	"net/http"
	"net/http/httputil"
	"os"

	"github.com/rs/zerolog"
)

// debugTransport dumps every request and response at debug level.
//
// It sits beneath the x-token transport, so dumps show the token header.
// Passwords in /auth bodies are dumped too. Enable with CALENDAR_DEBUG=true
// or DEBUG=true, or with WithDebugLogging.
//
//	CALENDAR_DEBUG=true calendarctl events list
type debugTransport struct {
	base http.RoundTripper
	log  zerolog.Logger
}

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if ev := dt.log.Debug(); ev.Enabled() {
		if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
			ev.Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", string(reqDump)).Msg("HTTP request")
		}
	}

	resp, err := dt.base.RoundTrip(req)
	if err != nil {
		dt.log.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	if ev := dt.log.Debug(); ev.Enabled() {
		if respDump, err := httputil.DumpResponse(resp, true); err == nil {
			ev.Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
		}
	}
	return resp, nil
}

// debugLoggingRequested reports whether CALENDAR_DEBUG or DEBUG is "true".
func debugLoggingRequested() bool {
	return os.Getenv("CALENDAR_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}

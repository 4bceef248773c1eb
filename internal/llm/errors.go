package llm

import (
	"errors"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrNoCredential is returned for every generation request when no model API
// credential is configured.
var ErrNoCredential = errors.New("generation unavailable: missing model API credential")

// IsRateLimit reports whether err is a quota/rate-limit class failure worth
// retrying on the same model after a backoff. Typed HTTP errors are checked
// first; the transport does not always surface those, so known quota phrases
// in the error text are accepted too.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "quota", "rate limit", "resource exhausted", "resourceexhausted"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// IsUnavailable reports whether err looks like a permanent availability
// failure for the model (retired, not found, or server-side 5xx), which calls
// for failing over to the next candidate rather than retrying.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
			return true
		}
	}
	s := strings.ToLower(err.Error())
	for _, marker := range []string{"not found", "notfound", "deprecated", "unavailable", "internal error"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

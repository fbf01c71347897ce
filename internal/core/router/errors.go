package router

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/x5geo/x5-index/internal/h3xref"
	"github.com/x5geo/x5-index/pkg/codec"
	"github.com/x5geo/x5-index/pkg/gpspack"
	"github.com/x5geo/x5-index/pkg/subdiv"
	"github.com/x5geo/x5-index/pkg/x5"
)

var (
	errNotFound      = errors.New("not found")
	errNoHotness     = errors.New("hotness tracking not enabled")
	errNoPoints      = errors.New("point store not configured")
	errParamFamilies = []error{
		errParam, gpspack.ErrDomain, gpspack.ErrToken, codec.ErrRange,
		codec.ErrMalformedName, subdiv.ErrRegion, h3xref.ErrResolution,
	}
)

// statusFor maps engine errors onto HTTP statuses: caller mistakes are 400,
// unknown names 404, missing optional features 503.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, x5.ErrNoVocabulary), errors.Is(err, errNoHotness),
		errors.Is(err, errNoPoints):
		return http.StatusServiceUnavailable
	}
	for _, target := range errParamFamilies {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= 500 {
		a.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

package router

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// errParam marks a malformed request parameter.
var errParam = errors.New("invalid parameter")

func floatParam(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, fmt.Errorf("%w: missing required parameter: %s", errParam, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not a number", errParam, name, raw)
	}
	return v, nil
}

func latLonParams(r *http.Request) (lat, lon float64, err error) {
	if lat, err = floatParam(r, "lat"); err != nil {
		return 0, 0, err
	}
	if lon, err = floatParam(r, "lon"); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

// intParam returns def when the parameter is absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not an integer", errParam, name, raw)
	}
	return v, nil
}

func requireParam(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return "", fmt.Errorf("%w: missing required parameter: %s", errParam, name)
	}
	return v, nil
}

// listParam collects repeated and comma separated values of name.
func listParam(r *http.Request, name string, max int) ([]string, error) {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: missing required parameter: %s", errParam, name)
	}
	if len(out) > max {
		return nil, fmt.Errorf("%w: at most %d values for %s", errParam, max, name)
	}
	return out, nil
}

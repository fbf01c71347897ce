package router

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/x5geo/x5-index/internal/cache/keys"
	"github.com/x5geo/x5-index/internal/core/observability"
)

const maxBatch = 100

// PointStore reads and removes ingested point records; redisstore.Client
// satisfies it.
type PointStore interface {
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	Del(ctx context.Context, keys ...string) error
}

// handleCells answers GET /v1/cells?token=a,b with a FeatureCollection of
// the hexes, in request order.
func (a *API) handleCells(w http.ResponseWriter, r *http.Request) {
	tokens, err := listParam(r, "token", maxBatch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	raws, err := a.cells.HexMany(r.Context(), tokens)
	observability.ObserveEngineOp("hex_many", err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	features := make([]json.RawMessage, len(raws))
	for i, raw := range raws {
		features[i] = raw
	}
	body, err := json.Marshal(struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}{"FeatureCollection", features})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeGeoJSON(w, body)
}

// handlePoints answers GET /v1/points?id=a,b with the stored record of each
// id; unknown ids are listed under "missing".
func (a *API) handlePoints(w http.ResponseWriter, r *http.Request) {
	if a.points == nil {
		a.writeError(w, r, errNoPoints)
		return
	}
	ids, err := listParam(r, "id", maxBatch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	ks := make([]string, len(ids))
	for i, id := range ids {
		ks[i] = keys.PointKey(id)
	}
	found, err := a.points.MGet(r.Context(), ks)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	resp := struct {
		Points  map[string]json.RawMessage `json:"points"`
		Missing []string                   `json:"missing"`
	}{Points: map[string]json.RawMessage{}, Missing: []string{}}
	for i, id := range ids {
		if v, ok := found[ks[i]]; ok {
			resp.Points[id] = v
		} else {
			resp.Missing = append(resp.Missing, id)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDeletePoint removes the record of one id. Deleting an unknown id
// succeeds.
func (a *API) handleDeletePoint(w http.ResponseWriter, r *http.Request) {
	if a.points == nil {
		a.writeError(w, r, errNoPoints)
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := a.points.Del(r.Context(), keys.PointKey(id)); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package router

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/x5geo/x5-index/internal/core/observability"
	"github.com/x5geo/x5-index/internal/hotness"
	"github.com/x5geo/x5-index/pkg/codec"
	"github.com/x5geo/x5-index/pkg/geom"
	"github.com/x5geo/x5-index/pkg/gpspack"
	"github.com/x5geo/x5-index/pkg/grid"
	"github.com/x5geo/x5-index/pkg/subdiv"
)

type cellResp struct {
	Token  string       `json:"token"`
	Cell   grid.Cell    `json:"cell"`
	Packed uint32       `json:"packed"`
	Fields codec.Fields `json:"fields"`
	Name   string       `json:"name,omitempty"`
	Lat    float64      `json:"lat"`
	Lon    float64      `json:"lon"`
}

type encodeResp struct {
	cellResp
	Region int   `json:"region"`
	Path   []int `json:"path"`
}

// describe fills the shared cell view; the name is omitted when no
// vocabulary is configured or it cannot name this cell.
func (a *API) describe(c grid.Cell) (cellResp, error) {
	packed, err := codec.PackCell(c.I, c.J)
	if err != nil {
		return cellResp{}, err
	}
	token, err := gpspack.CellToken(c)
	if err != nil {
		return cellResp{}, err
	}
	lat, lon := a.idx.Grid().CellToLatLon(c)
	out := cellResp{
		Token:  token,
		Cell:   c,
		Packed: packed,
		Fields: codec.SplitFields(packed),
		Lat:    lat,
		Lon:    lon,
	}
	if a.idx.HasVocabulary() {
		if name, err := a.idx.Name(c); err == nil {
			out.Name = name
		}
	}
	return out, nil
}

func (a *API) parseTokenParam(r *http.Request) (grid.Cell, error) {
	_, c, err := gpspack.ParseToken(chi.URLParam(r, "token"))
	return c, err
}

func (a *API) handleEncode(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := latLonParams(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	addr, err := a.idx.Locate(lat, lon)
	observability.ObserveEngineOp("encode", err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	base, err := a.describe(addr.Cell)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.touch(addr.Token)
	writeJSON(w, http.StatusOK, encodeResp{cellResp: base, Region: addr.Region.Flat(), Path: addr.Region.Path()})
}

func (a *API) handleLocate(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := latLonParams(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	addr, err := a.idx.Locate(lat, lon)
	observability.ObserveEngineOp("locate", err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	vs, err := a.idx.RegionVertices(addr.Cell, addr.Region)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.touch(addr.Token)
	writeJSON(w, http.StatusOK, struct {
		Token    string     `json:"token"`
		Region   int        `json:"region"`
		Level    int        `json:"level"`
		Path     []int      `json:"path"`
		Vertices []geom.Vec `json:"vertices"`
	}{addr.Token, addr.Region.Flat(), addr.Region.Level(), addr.Region.Path(), vs})
}

func (a *API) handleDecode(w http.ResponseWriter, r *http.Request) {
	c, err := a.parseTokenParam(r)
	observability.ObserveEngineOp("decode", err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out, err := a.describe(c)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	c, ok, err := a.idx.ParseName(name)
	observability.ObserveEngineOp("parse_name", err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if !ok {
		observability.IncNameMiss()
		a.writeError(w, r, fmt.Errorf("%w: no cell is named %q", errNotFound, name))
		return
	}
	out, err := a.describe(c)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleDistance(w http.ResponseWriter, r *http.Request) {
	ta, err := requireParam(r, "a")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	tb, err := requireParam(r, "b")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	sigma := gpspack.DefaultSigma
	if raw := strings.TrimSpace(r.URL.Query().Get("sigma")); raw != "" {
		if sigma, err = floatParam(r, "sigma"); err != nil {
			a.writeError(w, r, err)
			return
		}
	}

	enc := a.idx.Encoder()
	meters, err := enc.Distance(ta, tb)
	observability.ObserveEngineOp("distance", err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	within, err := enc.WithinTolerance(ta, tb, sigma)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		A               string  `json:"a"`
		B               string  `json:"b"`
		Meters          float64 `json:"meters"`
		Sigma           float64 `json:"sigma"`
		WithinTolerance bool    `json:"within_tolerance"`
	}{ta, tb, meters, sigma, within})
}

func (a *API) handleHex(w http.ResponseWriter, r *http.Request) {
	raw, err := a.cells.Hex(r.Context(), chi.URLParam(r, "token"))
	observability.ObserveEngineOp("hex", err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeGeoJSON(w, raw)
}

func (a *API) handleRegions(w http.ResponseWriter, r *http.Request) {
	raw, err := a.cells.Regions(r.Context(), chi.URLParam(r, "token"))
	observability.ObserveEngineOp("regions", err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeGeoJSON(w, raw)
}

func (a *API) handleRegion(w http.ResponseWriter, r *http.Request) {
	c, err := a.parseTokenParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	rawRegion := chi.URLParam(r, "region")
	flat, err := strconv.Atoi(rawRegion)
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: region %q is not an integer", errParam, rawRegion))
		return
	}
	reg := subdiv.Region(flat)
	vs, err := a.idx.RegionVertices(c, reg)
	observability.ObserveEngineOp("region_vertices", err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	token, _ := gpspack.CellToken(c)
	writeJSON(w, http.StatusOK, struct {
		Token    string     `json:"token"`
		Region   int        `json:"region"`
		Level    int        `json:"level"`
		Path     []int      `json:"path"`
		Vertices []geom.Vec `json:"vertices"`
	}{token, flat, reg.Level(), reg.Path(), vs})
}

func (a *API) handleH3(w http.ResponseWriter, r *http.Request) {
	res, err := intParam(r, "res", a.h3Res)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	ref, err := a.h3.CrossRef(chi.URLParam(r, "token"), res)
	observability.ObserveEngineOp("h3", err)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

func (a *API) handleHotness(w http.ResponseWriter, r *http.Request) {
	if a.hot == nil {
		a.writeError(w, r, errNoHotness)
		return
	}
	c, err := a.parseTokenParam(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	token, _ := gpspack.CellToken(c)
	writeJSON(w, http.StatusOK, struct {
		Token string  `json:"token"`
		Score float64 `json:"score"`
	}{token, a.hot.Score(token)})
}

func (a *API) handleTop(w http.ResponseWriter, r *http.Request) {
	if a.hot == nil {
		a.writeError(w, r, errNoHotness)
		return
	}
	n, err := intParam(r, "n", 10)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if n < 1 || n > 1000 {
		a.writeError(w, r, fmt.Errorf("%w: n must be in [1,1000]", errParam))
		return
	}
	top := a.hot.Top(n)
	if top == nil {
		top = []hotness.Entry{}
	}
	writeJSON(w, http.StatusOK, top)
}

// touch counts a lookup of token towards its hotness.
func (a *API) touch(token string) {
	if a.hot != nil {
		a.hot.Inc(token)
	}
}

func writeGeoJSON(w http.ResponseWriter, raw []byte) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

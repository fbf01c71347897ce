// Package router exposes the index over HTTP.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/x5geo/x5-index/internal/cellstore"
	"github.com/x5geo/x5-index/internal/h3xref"
	"github.com/x5geo/x5-index/internal/hotness"
	"github.com/x5geo/x5-index/pkg/x5"
)

// HotReader is the read side of the hotness scorer.
type HotReader interface {
	Inc(token string)
	Score(token string) float64
	Top(n int) []hotness.Entry
}

type Deps struct {
	Index *x5.Index
	// Cells defaults to an in-process store without a shared tier.
	Cells *cellstore.Store
	// Hot may be nil; hotness routes then answer 503.
	Hot HotReader
	// Points may be nil; point routes then answer 503.
	Points PointStore
	H3Res  int
	Logger *slog.Logger
}

type API struct {
	idx    *x5.Index
	cells  *cellstore.Store
	h3     *h3xref.Mapper
	hot    HotReader
	points PointStore
	h3Res  int
	log    *slog.Logger
}

func New(d Deps) *API {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Cells == nil {
		d.Cells = cellstore.New(d.Index, nil, cellstore.Options{})
	}
	if d.H3Res < 0 || d.H3Res > h3xref.MaxCoveringRes {
		d.H3Res = 9
	}
	return &API{
		idx:    d.Index,
		cells:  d.Cells,
		h3:     h3xref.New(d.Index),
		hot:    d.Hot,
		points: d.Points,
		h3Res:  d.H3Res,
		log:    d.Logger,
	}
}

// Mount registers the /v1 routes on r.
func (a *API) Mount(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Get("/encode", a.handleEncode)
		r.Get("/locate", a.handleLocate)
		r.Get("/distance", a.handleDistance)
		r.Get("/decode/{token}", a.handleDecode)
		r.Get("/names/{name}", a.handleName)
		r.Get("/hot", a.handleTop)
		r.Get("/cells", a.handleCells)
		r.Get("/points", a.handlePoints)
		r.Delete("/points/{id}", a.handleDeletePoint)
		r.Route("/cells/{token}", func(r chi.Router) {
			r.Get("/hex", a.handleHex)
			r.Get("/regions", a.handleRegions)
			r.Get("/regions/{region}", a.handleRegion)
			r.Get("/h3", a.handleH3)
			r.Get("/hotness", a.handleHotness)
		})
	})
}

// Handler is a standalone router carrying only the API routes.
func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	a.Mount(r)
	return r
}

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ajg/form"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"github.com/undeadops/tersemap/internal/mapper"
	"github.com/undeadops/tersemap/internal/store"
)

// Mapper is the engine surface the handlers need.
type Mapper interface {
	Insert(ctx context.Context, originalURI string) (string, error)
	Read(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) (bool, error)
	List(ctx context.Context) ([]store.Record, error)
}

var (
	errEmptyURI   = errors.New("uri is empty")
	errBadBody    = errors.New("invalid body")
	errInvalidURI = errors.New("invalid uri")
)

type Handler struct {
	mapper Mapper
	logger zerolog.Logger
}

// Router wires the handlers. metrics may be nil to leave /metrics unrouted.
func Router(m Mapper, logger zerolog.Logger, timeout time.Duration, metrics http.Handler) *chi.Mux {
	h := &Handler{
		mapper: m,
		logger: logger,
	}

	r := chi.NewRouter()

	r.Use(middleware.Heartbeat("/ping"))
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	r.Get("/", h.Insert)
	r.Post("/", h.Insert)
	r.Delete("/", h.Delete)
	r.Route("/manage", func(r chi.Router) {
		r.Get("/", h.List)
	})
	// The wildcard keeps extra path segments so they can be rejected
	// instead of falling through to a 404.
	r.Get("/*", h.Redirect)
	return r
}

type uriRequest struct {
	URI string `json:"uri" form:"uri"`
}

func (u *uriRequest) Bind(r *http.Request) error {
	if u.URI == "" {
		return errEmptyURI
	}
	return nil
}

// bindURI finds the uri parameter in the query string, or else in a JSON or
// form encoded body.
func bindURI(r *http.Request) (string, error) {
	req := &uriRequest{URI: r.URL.Query().Get("uri")}
	if req.URI != "" {
		return req.URI, nil
	}

	var err error
	switch render.GetRequestContentType(r) {
	case render.ContentTypeJSON:
		err = render.DecodeJSON(r.Body, req)
	case render.ContentTypeForm:
		d := form.NewDecoder(r.Body)
		d.IgnoreUnknownKeys(true)
		err = d.Decode(req)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errBadBody
	}
	if err := req.Bind(r); err != nil {
		return "", err
	}
	return req.URI, nil
}

type statusResponse struct {
	OK   bool   `json:"ok"`
	Desc string `json:"desc,omitempty"`
}

func (h *Handler) Insert(w http.ResponseWriter, r *http.Request) {
	uri, err := bindURI(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	token, err := h.mapper.Insert(r.Context(), uri)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.PlainText(w, r, token)
}

func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "*")

	uri, err := h.mapper.Read(r.Context(), token)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	// Location carries the stored value verbatim; http.Redirect would
	// rewrite scheme-less URIs into paths on this host.
	w.Header().Set("Location", uri)
	w.WriteHeader(http.StatusFound)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	token, err := bindURI(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	ok, err := h.mapper.Delete(r.Context(), token)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, &statusResponse{OK: ok})
}

type recordListResponse struct {
	URIs []store.Record `json:"uris"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.mapper.List(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.respondJSON(w, r, http.StatusOK, &recordListResponse{URIs: records})
}

// handleError maps engine errors onto status codes. Only storage faults and
// unexpected errors are logged; the rest are ordinary client mistakes.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errEmptyURI):
		h.respondJSON(w, r, http.StatusBadRequest, &statusResponse{Desc: errEmptyURI.Error()})
	case errors.Is(err, errBadBody):
		h.respondJSON(w, r, http.StatusBadRequest, &statusResponse{Desc: errBadBody.Error()})
	case errors.Is(err, mapper.ErrMalformedInput):
		h.respondJSON(w, r, http.StatusBadRequest, &statusResponse{Desc: errInvalidURI.Error()})
	case errors.Is(err, mapper.ErrNotFound):
		h.respondJSON(w, r, http.StatusNotFound, &statusResponse{Desc: "not found"})
	default:
		var storageErr *mapper.StorageError
		desc := "internal error"
		if errors.As(err, &storageErr) {
			desc = "storage error"
		}
		h.logger.Error().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("Handling error")
		h.respondJSON(w, r, http.StatusInternalServerError, &statusResponse{Desc: desc})
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, data)
}

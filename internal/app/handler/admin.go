package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/go-shortlinks/internal/app/service"
	"github.com/atinyakov/go-shortlinks/internal/listing"
	"github.com/atinyakov/go-shortlinks/internal/models"
	"github.com/atinyakov/go-shortlinks/internal/storage"
)

// LinkColumns are the columns of the admin link table.
var LinkColumns = []listing.Column{
	{Key: "short_code", Title: "Short Code", Sortable: true},
	{Key: "original_url", Title: "Original URL", Sortable: true},
	{Key: "short_url", Title: "Short URL"},
	{Key: "click_count", Title: "Clicks", Sortable: true},
	{Key: "created_at", Title: "Created", Sortable: true},
}

// AdminHandler serves the admin console API.
type AdminHandler struct {
	links   service.LinkStoreIface
	baseURL string
	logger  *zap.Logger
}

func NewAdmin(links service.LinkStoreIface, baseURL string, l *zap.Logger) *AdminHandler {
	return &AdminHandler{
		links:   links,
		baseURL: baseURL,
		logger:  l,
	}
}

// Create stores a new short link from a JSON body or the original_url and
// short_code form fields.
func (h *AdminHandler) Create(res http.ResponseWriter, req *http.Request) {
	var request models.CreateRequest

	if isForm(req) {
		if err := parseForm(res, req); err != nil {
			writeDecodeError(res, err, h.logger)
			return
		}
		request.OriginalURL = req.PostForm.Get("original_url")
		request.ShortCode = req.PostForm.Get("short_code")
	} else if err := decodeJSONBody(res, req, &request); err != nil {
		writeDecodeError(res, err, h.logger)
		return
	}

	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	link, err := h.links.Create(ctx, request.OriginalURL, request.ShortCode)
	if err != nil {
		h.logger.Info("Short link not created", zap.String("original_url", request.OriginalURL), zap.Error(err))
		writeServiceError(res, err, h.logger)
		return
	}

	h.logger.Info("Short link created", zap.String("code", link.ShortCode), zap.Int64("id", link.ID))
	writeJSON(res, http.StatusCreated, models.NewLinkResponse(*link, h.baseURL), h.logger)
}

// List renders one page of the link table.
func (h *AdminHandler) List(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	table, err := listing.Build(ctx, LinkColumns, listing.ParseRequest(req.URL.Query()),
		func(ctx context.Context, q storage.ListQuery) ([]models.LinkResponse, int, error) {
			links, total, err := h.links.List(ctx, q)
			if err != nil {
				return nil, 0, err
			}

			rows := make([]models.LinkResponse, 0, len(links))
			for _, l := range links {
				rows = append(rows, models.NewLinkResponse(l, h.baseURL))
			}
			return rows, total, nil
		})
	if err != nil {
		writeServiceError(res, err, h.logger)
		return
	}

	writeJSON(res, http.StatusOK, table, h.logger)
}

// Find returns the record whose short code is the {ref} URL parameter.
func (h *AdminHandler) Find(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	link, err := h.links.FindByCode(ctx, chi.URLParam(req, "ref"))
	if err != nil {
		writeServiceError(res, err, h.logger)
		return
	}

	writeJSON(res, http.StatusOK, models.NewLinkResponse(*link, h.baseURL), h.logger)
}

// DeleteBatch removes the links listed in a JSON {"ids": [...]} body or in
// shortlink_ids[] form fields.
func (h *AdminHandler) DeleteBatch(res http.ResponseWriter, req *http.Request) {
	var request models.DeleteRequest

	if isForm(req) {
		if err := parseForm(res, req); err != nil {
			writeDecodeError(res, err, h.logger)
			return
		}

		raw := req.PostForm["shortlink_ids[]"]
		if len(raw) == 0 {
			raw = req.PostForm["shortlink_ids"]
		}
		for _, v := range raw {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				writeError(res, http.StatusBadRequest, "shortlink_ids must be integers", h.logger)
				return
			}
			request.IDs = append(request.IDs, id)
		}
	} else if err := decodeJSONBody(res, req, &request); err != nil {
		writeDecodeError(res, err, h.logger)
		return
	}

	if len(request.IDs) == 0 {
		writeError(res, http.StatusBadRequest, "no ids to delete", h.logger)
		return
	}

	h.deleteIDs(res, req, request.IDs)
}

// DeleteOne removes the link named by the {ref} URL parameter: a numeric
// ref is an id, anything else a short code.
func (h *AdminHandler) DeleteOne(res http.ResponseWriter, req *http.Request) {
	ref := chi.URLParam(req, "ref")

	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
		defer cancel()

		link, err := h.links.FindByCode(ctx, ref)
		if err != nil {
			writeServiceError(res, err, h.logger)
			return
		}
		id = link.ID
	}

	h.deleteIDs(res, req, []int64{id})
}

func (h *AdminHandler) deleteIDs(res http.ResponseWriter, req *http.Request, ids []int64) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	n, err := h.links.Delete(ctx, ids)
	if err != nil {
		writeServiceError(res, err, h.logger)
		return
	}

	h.logger.Info("Short links deleted", zap.Int64s("ids", ids), zap.Int64("deleted", n))
	writeJSON(res, http.StatusOK, models.DeleteResponse{Deleted: n}, h.logger)
}

// Ping reports whether the storage backend is reachable.
func (h *AdminHandler) Ping(res http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), requestTimeout)
	defer cancel()

	if err := h.links.PingContext(ctx); err != nil {
		h.logger.Warn("Storage ping failed", zap.Error(err))
		http.Error(res, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	res.WriteHeader(http.StatusOK)
}

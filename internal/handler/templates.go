package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/menuboard/api/internal/database"
	"github.com/menuboard/api/internal/layout"
	"github.com/menuboard/api/internal/middleware"
	"github.com/menuboard/api/internal/service"
	"go.uber.org/zap"
)

const (
	defaultPageWidth  = 816
	defaultPageHeight = 1056
	maxLayoutColumns  = 6
)

// TemplateStore defines the database methods needed by template handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type TemplateStore interface {
	ListTemplatesByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.Template, error)
	GetTemplate(ctx context.Context, arg database.GetTemplateParams) (database.Template, error)
	CreateTemplate(ctx context.Context, arg database.CreateTemplateParams) (database.Template, error)
	UpdateTemplate(ctx context.Context, arg database.UpdateTemplateParams) (database.Template, error)
	DeleteTemplate(ctx context.Context, arg database.DeleteTemplateParams) (uuid.UUID, error)
	ListGlobalTemplates(ctx context.Context) ([]database.Template, error)
	ListTemplateSections(ctx context.Context, templateID uuid.UUID) ([]database.Section, error)
	ListTemplateDishes(ctx context.Context, templateID uuid.UUID) ([]database.MenuDish, error)
}

// TemplateCopier runs the multi-table template operations.
// Satisfied by *service.TemplateService.
type TemplateCopier interface {
	Duplicate(ctx context.Context, req service.DuplicateRequest) (database.Template, error)
	CopyGlobal(ctx context.Context, restaurantID, globalID, createdBy uuid.UUID) (database.Template, error)
	Publish(ctx context.Context, restaurantID, templateID uuid.UUID, name string, createdBy uuid.UUID) (database.Template, error)
	Archive(ctx context.Context, restaurantID, templateID, archivedBy uuid.UUID) (database.ArchiveTemplate, error)
	Restore(ctx context.Context, restaurantID, archiveID, restoredBy uuid.UUID) (database.Template, error)
}

// TemplateHandler handles menu templates.
type TemplateHandler struct {
	store  TemplateStore
	copier TemplateCopier
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(store TemplateStore, copier TemplateCopier) *TemplateHandler {
	return &TemplateHandler{store: store, copier: copier}
}

// RegisterRoutes registers template endpoints on the given Chi router.
// Expected to be mounted inside a restaurant-scoped subrouter: /restaurants/{rid}/templates
func (h *TemplateHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/from-global/{gid}", h.CopyGlobal)
	r.Get("/{tid}", h.Get)
	r.Put("/{tid}", h.Update)
	r.Delete("/{tid}", h.Delete)
	r.Get("/{tid}/layout", h.Layout)
	r.Post("/{tid}/duplicate", h.Duplicate)
	r.Post("/{tid}/archive", h.Archive)
}

// RegisterGlobalRoutes registers the global library on the given Chi router.
// Listing is open to any authenticated user; callers must restrict Publish
// to ADMIN.
func (h *TemplateHandler) RegisterGlobalRoutes(r chi.Router, publish func(http.Handler) http.Handler) {
	r.Get("/templates/global", h.ListGlobal)
	r.With(publish).Post("/templates/global", h.Publish)
}

// --- Request / Response types ---

type templateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PageWidth   int32  `json:"page_width"`
	PageHeight  int32  `json:"page_height"`
}

type duplicateTemplateRequest struct {
	Name string `json:"name"`
}

type publishTemplateRequest struct {
	RestaurantID string `json:"restaurant_id"`
	TemplateID   string `json:"template_id"`
	Name         string `json:"name"`
}

type templateResponse struct {
	ID           uuid.UUID  `json:"id"`
	RestaurantID *uuid.UUID `json:"restaurant_id"`
	Name         string     `json:"name"`
	Description  *string    `json:"description"`
	PageWidth    int32      `json:"page_width"`
	PageHeight   int32      `json:"page_height"`
	IsGlobal     bool       `json:"is_global"`
	CreatedBy    *uuid.UUID `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func toTemplateResponse(t database.Template) templateResponse {
	resp := templateResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: database.TextPtr(t.Description),
		PageWidth:   t.PageWidth,
		PageHeight:  t.PageHeight,
		IsGlobal:    t.IsGlobal,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.RestaurantID.Valid {
		id := uuid.UUID(t.RestaurantID.Bytes)
		resp.RestaurantID = &id
	}
	if t.CreatedBy.Valid {
		id := uuid.UUID(t.CreatedBy.Bytes)
		resp.CreatedBy = &id
	}
	return resp
}

func toTemplateResponses(ts []database.Template) []templateResponse {
	resp := make([]templateResponse, len(ts))
	for i, t := range ts {
		resp[i] = toTemplateResponse(t)
	}
	return resp
}

type layoutResponse struct {
	TemplateID uuid.UUID      `json:"template_id"`
	Options    layout.Options `json:"options"`
	Pages      []layout.Page  `json:"pages"`
}

// --- Handlers ---

// List returns the restaurant's templates.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}

	templates, err := h.store.ListTemplatesByRestaurant(r.Context(), restaurantID)
	if err != nil {
		zap.L().Error("list templates", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toTemplateResponses(templates))
}

// Get returns one template.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	templateID, ok := urlUUID(w, r, "tid", "template")
	if !ok {
		return
	}

	tpl, err := h.store.GetTemplate(r.Context(), database.GetTemplateParams{ID: templateID, RestaurantID: restaurantID})
	if err != nil {
		writeStoreError(w, err, "get template", "template not found")
		return
	}
	writeJSON(w, http.StatusOK, toTemplateResponse(tpl))
}

// Create adds an empty template. Page size defaults to US Letter at 96 dpi.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}

	req, ok := decodeTemplateRequest(w, r)
	if !ok {
		return
	}

	tpl, err := h.store.CreateTemplate(r.Context(), database.CreateTemplateParams{
		RestaurantID: database.UUID(restaurantID),
		Name:         req.Name,
		Description:  database.Text(req.Description),
		PageWidth:    req.PageWidth,
		PageHeight:   req.PageHeight,
		CreatedBy:    database.UUID(callerID(r)),
	})
	if err != nil {
		writeStoreError(w, err, "create template", "restaurant not found")
		return
	}
	writeJSON(w, http.StatusCreated, toTemplateResponse(tpl))
}

// Update modifies a template's name, description and page size.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	templateID, ok := urlUUID(w, r, "tid", "template")
	if !ok {
		return
	}

	req, ok := decodeTemplateRequest(w, r)
	if !ok {
		return
	}

	tpl, err := h.store.UpdateTemplate(r.Context(), database.UpdateTemplateParams{
		ID:           templateID,
		RestaurantID: restaurantID,
		Name:         req.Name,
		Description:  database.Text(req.Description),
		PageWidth:    req.PageWidth,
		PageHeight:   req.PageHeight,
	})
	if err != nil {
		writeStoreError(w, err, "update template", "template not found")
		return
	}
	writeJSON(w, http.StatusOK, toTemplateResponse(tpl))
}

// Delete removes a template and everything under it.
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	templateID, ok := urlUUID(w, r, "tid", "template")
	if !ok {
		return
	}

	if _, err := h.store.DeleteTemplate(r.Context(), database.DeleteTemplateParams{ID: templateID, RestaurantID: restaurantID}); err != nil {
		writeStoreError(w, err, "delete template", "template not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Layout packs the template's sections onto pages. Hidden dishes take no
// space. The column count comes from ?columns=, default 2.
func (h *TemplateHandler) Layout(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	templateID, ok := urlUUID(w, r, "tid", "template")
	if !ok {
		return
	}

	opts := layout.DefaultOptions
	if raw := r.URL.Query().Get("columns"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxLayoutColumns {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "columns must be between 1 and 6"})
			return
		}
		opts.Columns = n
	}

	tpl, err := h.store.GetTemplate(r.Context(), database.GetTemplateParams{ID: templateID, RestaurantID: restaurantID})
	if err != nil {
		writeStoreError(w, err, "layout: get template", "template not found")
		return
	}
	if tpl.PageHeight > 0 {
		opts.PageHeight = float64(tpl.PageHeight)
	}

	sections, err := h.store.ListTemplateSections(r.Context(), tpl.ID)
	if err != nil {
		zap.L().Error("layout: list sections", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	dishes, err := h.store.ListTemplateDishes(r.Context(), tpl.ID)
	if err != nil {
		zap.L().Error("layout: list dishes", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	rows := make(map[uuid.UUID]int, len(sections))
	for _, d := range dishes {
		if d.IsVisible {
			rows[d.SectionID]++
		}
	}
	blocks := make([]layout.Block, len(sections))
	for i, s := range sections {
		blocks[i] = layout.Block{ID: s.ID.String(), Title: s.Title, Rows: rows[s.ID]}
	}

	pages := layout.Paginate(blocks, opts)
	if pages == nil {
		pages = []layout.Page{}
	}
	writeJSON(w, http.StatusOK, layoutResponse{TemplateID: tpl.ID, Options: opts, Pages: pages})
}

// Duplicate copies a template with everything under it.
func (h *TemplateHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	templateID, ok := urlUUID(w, r, "tid", "template")
	if !ok {
		return
	}

	var req duplicateTemplateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	tpl, err := h.copier.Duplicate(r.Context(), service.DuplicateRequest{
		RestaurantID: restaurantID,
		TemplateID:   templateID,
		Name:         req.Name,
		CreatedBy:    callerID(r),
	})
	if err != nil {
		writeTemplateError(w, err, "duplicate template")
		return
	}
	writeJSON(w, http.StatusCreated, toTemplateResponse(tpl))
}

// CopyGlobal copies a global library template into the restaurant.
func (h *TemplateHandler) CopyGlobal(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	globalID, ok := urlUUID(w, r, "gid", "template")
	if !ok {
		return
	}

	tpl, err := h.copier.CopyGlobal(r.Context(), restaurantID, globalID, callerID(r))
	if err != nil {
		writeTemplateError(w, err, "copy global template")
		return
	}
	writeJSON(w, http.StatusCreated, toTemplateResponse(tpl))
}

// Archive moves a template into the restaurant's archive.
func (h *TemplateHandler) Archive(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	templateID, ok := urlUUID(w, r, "tid", "template")
	if !ok {
		return
	}

	archive, err := h.copier.Archive(r.Context(), restaurantID, templateID, callerID(r))
	if err != nil {
		writeTemplateError(w, err, "archive template")
		return
	}
	writeJSON(w, http.StatusCreated, toArchiveResponse(archive))
}

// ListGlobal returns the global template library.
func (h *TemplateHandler) ListGlobal(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.ListGlobalTemplates(r.Context())
	if err != nil {
		zap.L().Error("list global templates", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toTemplateResponses(templates))
}

// Publish copies a restaurant template into the global library.
func (h *TemplateHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req publishTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	restaurantID, err := uuid.Parse(req.RestaurantID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant_id"})
		return
	}
	templateID, err := uuid.Parse(req.TemplateID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid template_id"})
		return
	}

	tpl, err := h.copier.Publish(r.Context(), restaurantID, templateID, req.Name, callerID(r))
	if err != nil {
		writeTemplateError(w, err, "publish template")
		return
	}
	writeJSON(w, http.StatusCreated, toTemplateResponse(tpl))
}

// --- Helpers ---

func decodeTemplateRequest(w http.ResponseWriter, r *http.Request) (templateRequest, bool) {
	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return req, false
	}
	if req.PageWidth < 0 || req.PageHeight < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "page size must be positive"})
		return req, false
	}
	if req.PageWidth == 0 {
		req.PageWidth = defaultPageWidth
	}
	if req.PageHeight == 0 {
		req.PageHeight = defaultPageHeight
	}
	return req, true
}

func callerID(r *http.Request) uuid.UUID {
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	return uuid.Nil
}

func writeTemplateError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "template not found"})
	case errors.Is(err, service.ErrArchiveNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "archive not found"})
	case errors.Is(err, service.ErrCorruptSnapshot):
		zap.L().Error(op, zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "archive cannot be restored"})
	default:
		zap.L().Error(op, zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

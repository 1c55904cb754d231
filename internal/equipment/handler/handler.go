// Package handler exposes the equipment API over HTTP. It stays thin:
// decode, delegate to the service, encode. All transition rules live in the
// lifecycle service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"turfops/internal/audit"
	"turfops/internal/equipment/models"
	"turfops/internal/equipment/service"
	"turfops/internal/platform/middleware"
	id "turfops/pkg/domain"
	dErrors "turfops/pkg/domain-errors"
	"turfops/pkg/platform/httputil"
	"turfops/pkg/requestcontext"
)

const defaultAuditLimit = 100

// Service defines the equipment operations the handler needs.
type Service interface {
	Reserve(ctx context.Context, assetID id.AssetID, userID id.UserID) (*service.Result, error)
	CancelReservation(ctx context.Context, assetID id.AssetID, userID id.UserID) (*service.Result, error)
	CheckoutWithCode(ctx context.Context, assetID id.AssetID, userID id.UserID, code string) (*service.Result, error)
	ReturnWithCode(ctx context.Context, assetID id.AssetID, userID id.UserID, code string) (*service.Result, error)
	ForceRelease(ctx context.Context, assetID id.AssetID) (*service.Result, error)
	StartMaintenance(ctx context.Context, assetID id.AssetID) (*service.Result, error)
	EndMaintenance(ctx context.Context, assetID id.AssetID) (*service.Result, error)
	Retire(ctx context.Context, assetID id.AssetID) (*service.Result, error)
	Unretire(ctx context.Context, assetID id.AssetID) (*service.Result, error)
	HardDelete(ctx context.Context, assetID id.AssetID) error

	CreateAsset(ctx context.Context, params service.CreateAssetParams) (*models.Asset, error)
	UpdateAsset(ctx context.Context, assetID id.AssetID, params service.UpdateAssetParams) (*models.Asset, error)
	GetAsset(ctx context.Context, assetID id.AssetID) (*service.Result, error)
	ListAssets(ctx context.Context) ([]*models.Asset, error)
	History(ctx context.Context, assetID id.AssetID) ([]*models.CustodyRecord, error)
	FleetStatus(ctx context.Context) (map[string]string, error)
}

// AuditReader reads back the audit trail for the admin console.
type AuditReader interface {
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
	ListByActor(ctx context.Context, actorID id.UserID, limit int) ([]audit.Event, error)
}

// Handler handles equipment endpoints.
type Handler struct {
	logger       *slog.Logger
	equipment    Service
	auditTrail   AuditReader
	jwtValidator middleware.JWTValidator
	adminToken   string
}

// New creates a new equipment Handler.
func New(
	equipment Service,
	auditTrail AuditReader,
	jwtValidator middleware.JWTValidator,
	adminToken string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		logger:       logger,
		equipment:    equipment,
		auditTrail:   auditTrail,
		jwtValidator: jwtValidator,
		adminToken:   adminToken,
	}
}

// Register wires the equipment routes. Worker routes require a bearer token;
// operational routes require the admin token.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(worker chi.Router) {
		worker.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		worker.Get("/equipment", h.handleListAssets)
		worker.Get("/equipment/status", h.handleFleetStatus)
		worker.Get("/equipment/{assetID}", h.handleGetAsset)
		worker.Get("/equipment/{assetID}/history", h.handleHistory)

		worker.Post("/equipment/{assetID}/reserve", h.handleReserve)
		worker.Post("/equipment/{assetID}/cancel", h.handleCancelReservation)
		worker.Post("/equipment/{assetID}/checkout", h.handleCheckout)
		worker.Post("/equipment/{assetID}/return", h.handleReturn)
	})

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdminToken(h.adminToken, h.logger))

		admin.Post("/equipment", h.handleCreateAsset)
		admin.Patch("/equipment/{assetID}", h.handleUpdateAsset)
		admin.Delete("/equipment/{assetID}", h.handleHardDelete)

		admin.Post("/equipment/{assetID}/force-release", h.handleForceRelease)
		admin.Post("/equipment/{assetID}/maintenance/start", h.handleStartMaintenance)
		admin.Post("/equipment/{assetID}/maintenance/end", h.handleEndMaintenance)
		admin.Post("/equipment/{assetID}/retire", h.handleRetire)
		admin.Post("/equipment/{assetID}/unretire", h.handleUnretire)

		admin.Get("/audit/events", h.handleListAuditEvents)
	})
}

func (h *Handler) assetIDFromPath(r *http.Request) (id.AssetID, error) {
	return id.ParseAssetID(chi.URLParam(r, "assetID"))
}

// lifecycleOp runs one worker-initiated transition and writes the result.
func (h *Handler) lifecycleOp(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	op func(ctx context.Context, assetID id.AssetID, userID id.UserID) (*service.Result, error),
) {
	ctx := r.Context()
	assetID, err := h.assetIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID := requestcontext.UserID(ctx)

	result, err := op(ctx, assetID, userID)
	if err != nil {
		h.logOpFailure(ctx, name, assetID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleReserve(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, "reserve", h.equipment.Reserve)
}

func (h *Handler) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	h.lifecycleOp(w, r, "cancel_reservation", h.equipment.CancelReservation)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	h.codeGatedOp(w, r, "checkout", h.equipment.CheckoutWithCode)
}

func (h *Handler) handleReturn(w http.ResponseWriter, r *http.Request) {
	h.codeGatedOp(w, r, "return", h.equipment.ReturnWithCode)
}

// codeGatedOp runs a transition that requires the scanned QR code.
func (h *Handler) codeGatedOp(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	op func(ctx context.Context, assetID id.AssetID, userID id.UserID, code string) (*service.Result, error),
) {
	ctx := r.Context()
	assetID, err := h.assetIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	userID := requestcontext.UserID(ctx)
	result, err := op(ctx, assetID, userID, req.Code)
	if err != nil {
		h.logOpFailure(ctx, name, assetID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// adminOp runs one admin-initiated transition.
func (h *Handler) adminOp(
	w http.ResponseWriter,
	r *http.Request,
	name string,
	op func(ctx context.Context, assetID id.AssetID) (*service.Result, error),
) {
	ctx := r.Context()
	assetID, err := h.assetIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := op(ctx, assetID)
	if err != nil {
		h.logOpFailure(ctx, name, assetID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleForceRelease(w http.ResponseWriter, r *http.Request) {
	h.adminOp(w, r, "force_release", h.equipment.ForceRelease)
}

func (h *Handler) handleStartMaintenance(w http.ResponseWriter, r *http.Request) {
	h.adminOp(w, r, "start_maintenance", h.equipment.StartMaintenance)
}

func (h *Handler) handleEndMaintenance(w http.ResponseWriter, r *http.Request) {
	h.adminOp(w, r, "end_maintenance", h.equipment.EndMaintenance)
}

func (h *Handler) handleRetire(w http.ResponseWriter, r *http.Request) {
	h.adminOp(w, r, "retire", h.equipment.Retire)
}

func (h *Handler) handleUnretire(w http.ResponseWriter, r *http.Request) {
	h.adminOp(w, r, "unretire", h.equipment.Unretire)
}

func (h *Handler) handleHardDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assetID, err := h.assetIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.equipment.HardDelete(ctx, assetID); err != nil {
		h.logOpFailure(ctx, "hard_delete", assetID, err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	asset, err := h.equipment.CreateAsset(ctx, service.CreateAssetParams{
		Name:        req.Name,
		Brand:       req.Brand,
		Model:       req.Model,
		Description: req.Description,
		QRCode:      req.QRCode,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create asset failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, asset)
}

func (h *Handler) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	assetID, err := h.assetIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req updateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	asset, err := h.equipment.UpdateAsset(ctx, assetID, service.UpdateAssetParams{
		Name:        req.Name,
		Brand:       req.Brand,
		Model:       req.Model,
		Description: req.Description,
		QRCode:      req.QRCode,
	})
	if err != nil {
		h.logOpFailure(ctx, "update_asset", assetID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, asset)
}

func (h *Handler) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	assetID, err := h.assetIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.equipment.GetAsset(r.Context(), assetID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.equipment.ListAssets(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listAssetsResponse{Assets: assets})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	assetID, err := h.assetIDFromPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.equipment.History(r.Context(), assetID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, historyResponse{Records: records})
}

func (h *Handler) handleFleetStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.equipment.FleetStatus(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fleetStatusResponse{Statuses: snapshot})
}

func (h *Handler) handleListAuditEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	var (
		events []audit.Event
		err    error
	)
	if rawActor := r.URL.Query().Get("actor_id"); rawActor != "" {
		actorID, parseErr := id.ParseUserID(rawActor)
		if parseErr != nil {
			httputil.WriteError(w, parseErr)
			return
		}
		events, err = h.auditTrail.ListByActor(ctx, actorID, limit)
	} else {
		events, err = h.auditTrail.ListRecent(ctx, limit)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "list audit events failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, auditEventsResponse{Events: events})
}

func (h *Handler) logOpFailure(ctx context.Context, name string, assetID id.AssetID, err error) {
	h.logger.WarnContext(ctx, "equipment operation rejected",
		"operation", name,
		"asset_id", assetID.String(),
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}

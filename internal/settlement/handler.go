package settlement

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/phclaus/fairsplit/internal/balance"
	"github.com/phclaus/fairsplit/pkg/response"
)

var validate = validator.New()

// Handler handles HTTP requests for balance and settlement operations.
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for settlement endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/group/{groupId}/balances", h.Balances)
	r.Post("/group/{groupId}/plan", h.Plan)
	r.Post("/group/{groupId}", h.Create)
	r.Get("/group/{groupId}", h.ListByGroup)
	r.Get("/{id}", h.GetByID)
	r.Post("/{id}/members/{memberId}/complete", h.CompleteMember)
	r.Post("/{id}/members/{memberId}/reopen", h.ReopenMember)

	return r
}

// Balances handles GET /settlements/group/{groupId}/balances
// @Summary      Get a group's net balances
// @Description  Recomputes net balances from the full event history, honoring the settlement cutoff
// @Tags         settlements
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]BalanceEntry}
// @Router       /settlements/group/{groupId}/balances [get]
func (h *Handler) Balances(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "groupId")
	if !ok {
		return
	}
	entries, err := h.service.Balances(r.Context(), groupID)
	if err != nil {
		response.InternalError(w, "Failed to compute balances")
		return
	}
	response.JSON(w, http.StatusOK, entries)
}

// Plan handles POST /settlements/group/{groupId}/plan
// @Summary      Preview a settlement plan
// @Description  Computes the transaction list for a strategy without persisting it; an empty list means nothing to settle
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Param        request body PlanRequest true "Strategy selection"
// @Success      200 {object} response.APIResponse{data=PlanResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /settlements/group/{groupId}/plan [post]
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "groupId")
	if !ok {
		return
	}
	req, ok := decodePlanRequest(w, r)
	if !ok {
		return
	}

	plan, err := h.service.PreviewPlan(r.Context(), groupID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, plan)
}

// Create handles POST /settlements/group/{groupId}
// @Summary      Create a settlement
// @Description  Plans and persists a settlement batch with every transaction open; refuses when there is nothing to settle
// @Tags         settlements
// @Accept       json
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Param        request body PlanRequest true "Strategy selection"
// @Success      201 {object} response.APIResponse{data=Settlement}
// @Failure      400 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /settlements/group/{groupId} [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "groupId")
	if !ok {
		return
	}
	req, ok := decodePlanRequest(w, r)
	if !ok {
		return
	}

	settlement, err := h.service.CreateSettlement(r.Context(), groupID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, settlement)
}

// ListByGroup handles GET /settlements/group/{groupId}
// @Summary      List a group's settlements
// @Tags         settlements
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]Settlement}
// @Router       /settlements/group/{groupId} [get]
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "groupId")
	if !ok {
		return
	}
	settlements, err := h.service.ListByGroup(r.Context(), groupID)
	if err != nil {
		response.InternalError(w, "Failed to list settlements")
		return
	}
	response.JSON(w, http.StatusOK, settlements)
}

// GetByID handles GET /settlements/{id}
// @Summary      Get settlement by ID
// @Tags         settlements
// @Produce      json
// @Param        id path int true "Settlement ID"
// @Success      200 {object} response.APIResponse{data=Settlement}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	settlement, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settlement)
}

// CompleteMember handles POST /settlements/{id}/members/{memberId}/complete
// @Summary      Mark a settlement transaction as completed
// @Tags         settlements
// @Produce      json
// @Param        id path int true "Settlement ID"
// @Param        memberId path int true "Settlement member ID"
// @Success      200 {object} response.APIResponse{data=Settlement}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id}/members/{memberId}/complete [post]
func (h *Handler) CompleteMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "memberId")
	if !ok {
		return
	}
	settlement, err := h.service.CompleteMember(r.Context(), id, memberID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settlement)
}

// ReopenMember handles POST /settlements/{id}/members/{memberId}/reopen
// @Summary      Reopen a settlement transaction
// @Description  External override; reopening exposes the affected history to balance computation again
// @Tags         settlements
// @Produce      json
// @Param        id path int true "Settlement ID"
// @Param        memberId path int true "Settlement member ID"
// @Success      200 {object} response.APIResponse{data=Settlement}
// @Failure      404 {object} response.APIResponse
// @Router       /settlements/{id}/members/{memberId}/reopen [post]
func (h *Handler) ReopenMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "memberId")
	if !ok {
		return
	}
	settlement, err := h.service.ReopenMember(r.Context(), id, memberID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, settlement)
}

func decodePlanRequest(w http.ResponseWriter, r *http.Request) (*PlanRequest, bool) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return nil, false
	}
	if err := validate.Struct(&req); err != nil {
		response.UnprocessableEntity(w, err.Error())
		return nil, false
	}
	return &req, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		response.BadRequest(w, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrSettlementNotFound), errors.Is(err, ErrMemberNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrNothingToSettle):
		response.Conflict(w, err.Error())
	case errors.Is(err, balance.ErrMissingCenter),
		errors.Is(err, balance.ErrUnknownCenter),
		errors.Is(err, balance.ErrUnknownStrategy),
		errors.Is(err, ErrCenterKindMismatch):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "Unexpected error")
	}
}

package consumption

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/phclaus/fairsplit/pkg/response"
)

var validate = validator.New()

// Handler handles HTTP requests for consumption operations.
type Handler struct {
	service *Service
}

// NewHandler creates a new consumption handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for consumption endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/group/{groupId}", h.Create)
	r.Get("/group/{groupId}", h.ListByGroup)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	return r
}

// Create handles POST /consumptions/group/{groupId}
// @Summary      Record a resource consumption
// @Description  Records a consumption; unit amounts are priced via the resource's unit price and the cost is split among participants
// @Tags         consumptions
// @Accept       json
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Param        request body CreateConsumptionRequest true "Consumption"
// @Success      201 {object} response.APIResponse{data=ConsumptionResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /consumptions/group/{groupId} [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "groupId")
	if !ok {
		return
	}
	var req CreateConsumptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.UnprocessableEntity(w, err.Error())
		return
	}

	result, err := h.service.CreateConsumption(r.Context(), groupID, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, result)
}

// ListByGroup handles GET /consumptions/group/{groupId}
// @Summary      List a group's consumptions
// @Tags         consumptions
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]Consumption}
// @Router       /consumptions/group/{groupId} [get]
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "groupId")
	if !ok {
		return
	}
	consumptions, err := h.service.ListByGroup(r.Context(), groupID)
	if err != nil {
		response.InternalError(w, "Failed to list consumptions")
		return
	}
	response.JSON(w, http.StatusOK, consumptions)
}

// GetByID handles GET /consumptions/{id}
// @Summary      Get consumption by ID
// @Tags         consumptions
// @Produce      json
// @Param        id path int true "Consumption ID"
// @Success      200 {object} response.APIResponse{data=Consumption}
// @Failure      404 {object} response.APIResponse
// @Router       /consumptions/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, c)
}

// Update handles PATCH /consumptions/{id}
// @Summary      Update a consumption
// @Tags         consumptions
// @Accept       json
// @Produce      json
// @Param        id path int true "Consumption ID"
// @Param        request body UpdateConsumptionRequest true "Fields to update"
// @Success      200 {object} response.APIResponse{data=ConsumptionResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /consumptions/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateConsumptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.UnprocessableEntity(w, err.Error())
		return
	}

	result, err := h.service.UpdateConsumption(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// Delete handles DELETE /consumptions/{id}
// @Summary      Delete a consumption
// @Tags         consumptions
// @Param        id path int true "Consumption ID"
// @Success      204
// @Failure      404 {object} response.APIResponse
// @Router       /consumptions/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteConsumption(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
	case errors.Is(err, ErrConsumptionNotFound),
		errors.Is(err, ErrGroupNotFound),
		errors.Is(err, ErrResourceNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrMissingUnitPrice),
		errors.Is(err, ErrUnknownMember),
		errors.Is(err, ErrNoParticipants),
		errors.Is(err, ErrNonPositiveAmount):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "Unexpected error")
	}
}

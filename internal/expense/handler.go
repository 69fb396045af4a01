package expense

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

// Handler handles HTTP requests for expense operations.
type Handler struct {
	service *Service
}

// NewHandler creates a new expense handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for expense endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/group/{groupId}", h.Create)
	r.Get("/group/{groupId}", h.ListByGroup)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	// Share pin operations
	r.Post("/{id}/shares/{memberId}/pin", h.PinShare)
	r.Post("/{id}/shares/{memberId}/unpin", h.UnpinShare)

	return r
}

// Create handles POST /expenses/group/{groupId}
// @Summary      Create a new expense
// @Description  Create an expense; share amounts are computed by weighted redistribution, preserving manually edited shares
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Param        request body CreateExpenseRequest true "Expense creation request"
// @Success      201 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /expenses/group/{groupId} [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "groupId")
	if !ok {
		return
	}
	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.UnprocessableEntity(w, err.Error())
		return
	}

	result, err := h.service.CreateExpense(r.Context(), groupID, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, result)
}

// ListByGroup handles GET /expenses/group/{groupId}
// @Summary      List a group's expenses
// @Tags         expenses
// @Produce      json
// @Param        groupId path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]Expense}
// @Router       /expenses/group/{groupId} [get]
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "groupId")
	if !ok {
		return
	}
	expenses, err := h.service.ListByGroup(r.Context(), groupID)
	if err != nil {
		response.InternalError(w, "Failed to list expenses")
		return
	}
	response.JSON(w, http.StatusOK, expenses)
}

// GetByID handles GET /expenses/{id}
// @Summary      Get expense by ID
// @Tags         expenses
// @Produce      json
// @Param        id path int true "Expense ID"
// @Success      200 {object} response.APIResponse{data=Expense}
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	e, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, e)
}

// Update handles PATCH /expenses/{id}
// @Summary      Update an expense
// @Description  Revise an expense; unpinned shares are redistributed against the new total and participant set
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path int true "Expense ID"
// @Param        request body UpdateExpenseRequest true "Fields to update"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.UnprocessableEntity(w, err.Error())
		return
	}

	result, err := h.service.UpdateExpense(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// Delete handles DELETE /expenses/{id}
// @Summary      Delete an expense
// @Tags         expenses
// @Param        id path int true "Expense ID"
// @Success      204
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteExpense(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PinShare handles POST /expenses/{id}/shares/{memberId}/pin
// @Summary      Pin a share to its current amount
// @Description  Freezes the computed amount as a manual amount; no other share changes
// @Tags         expenses
// @Produce      json
// @Param        id path int true "Expense ID"
// @Param        memberId path int true "Member ID"
// @Success      200 {object} response.APIResponse{data=Expense}
// @Router       /expenses/{id}/shares/{memberId}/pin [post]
func (h *Handler) PinShare(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "memberId")
	if !ok {
		return
	}
	e, err := h.service.PinShare(r.Context(), id, memberID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, e)
}

// UnpinShare handles POST /expenses/{id}/shares/{memberId}/unpin
// @Summary      Return a share to automatic splitting
// @Description  Discards the manual amount and redistributes the expense
// @Tags         expenses
// @Produce      json
// @Param        id path int true "Expense ID"
// @Param        memberId path int true "Member ID"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Router       /expenses/{id}/shares/{memberId}/unpin [post]
func (h *Handler) UnpinShare(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "memberId")
	if !ok {
		return
	}
	result, err := h.service.UnpinShare(r.Context(), id, memberID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
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
	case errors.Is(err, ErrExpenseNotFound),
		errors.Is(err, ErrShareNotFound),
		errors.Is(err, ErrGroupNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrPayerNotMember),
		errors.Is(err, ErrUnknownMember),
		errors.Is(err, ErrUnknownSharingMethod),
		errors.Is(err, ErrNoParticipants),
		errors.Is(err, ErrNonPositiveAmount):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "Unexpected error")
	}
}

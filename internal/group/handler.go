package group

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

// Handler handles HTTP requests for group operations.
type Handler struct {
	service *Service
}

// NewHandler creates a new group handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for group endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	r.Post("/{id}/weight-types", h.CreateWeightType)
	r.Get("/{id}/weight-types", h.ListWeightTypes)
	r.Delete("/{id}/weight-types/{weightTypeId}", h.DeleteWeightType)

	r.Post("/{id}/members", h.AddMember)
	r.Get("/{id}/members", h.ListMembers)
	r.Get("/{id}/members/{memberId}", h.GetMember)
	r.Patch("/{id}/members/{memberId}", h.UpdateMember)
	r.Delete("/{id}/members/{memberId}", h.RemoveMember)

	r.Post("/{id}/resources", h.CreateResource)
	r.Get("/{id}/resources", h.ListResources)
	r.Get("/{id}/resources/{resourceId}", h.GetResource)
	r.Patch("/{id}/resources/{resourceId}", h.UpdateResource)
	r.Delete("/{id}/resources/{resourceId}", h.DeleteResource)

	return r
}

// Create handles POST /groups
// @Summary      Create a new group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        request body CreateGroupRequest true "Group creation request"
// @Success      201 {object} response.APIResponse{data=Group}
// @Failure      400 {object} response.APIResponse
// @Router       /groups [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.UnprocessableEntity(w, err.Error())
		return
	}

	g, err := h.service.Create(r.Context(), &req)
	if err != nil {
		response.InternalError(w, "Failed to create group")
		return
	}
	response.JSON(w, http.StatusCreated, g)
}

// List handles GET /groups
// @Summary      List all groups
// @Tags         groups
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]Group}
// @Router       /groups [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.service.List(r.Context())
	if err != nil {
		response.InternalError(w, "Failed to list groups")
		return
	}
	response.JSON(w, http.StatusOK, groups)
}

// GetByID handles GET /groups/{id}
// @Summary      Get group by ID
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=Group}
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	g, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, g)
}

// Update handles PATCH /groups/{id}
// @Summary      Update a group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        request body UpdateGroupRequest true "Fields to update"
// @Success      200 {object} response.APIResponse{data=Group}
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.UnprocessableEntity(w, err.Error())
		return
	}

	g, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, g)
}

// Delete handles DELETE /groups/{id}
// @Summary      Delete a group
// @Tags         groups
// @Param        id path int true "Group ID"
// @Success      204
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateWeightType handles POST /groups/{id}/weight-types
// @Summary      Add a weighting scheme to a group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        request body CreateWeightTypeRequest true "Weight type"
// @Success      201 {object} response.APIResponse{data=WeightType}
// @Router       /groups/{id}/weight-types [post]
func (h *Handler) CreateWeightType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req CreateWeightTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.UnprocessableEntity(w, err.Error())
		return
	}

	wt, err := h.service.CreateWeightType(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, wt)
}

// ListWeightTypes handles GET /groups/{id}/weight-types
// @Summary      List a group's weighting schemes
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]WeightType}
// @Router       /groups/{id}/weight-types [get]
func (h *Handler) ListWeightTypes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	types, err := h.service.ListWeightTypes(r.Context(), id)
	if err != nil {
		response.InternalError(w, "Failed to list weight types")
		return
	}
	response.JSON(w, http.StatusOK, types)
}

// DeleteWeightType handles DELETE /groups/{id}/weight-types/{weightTypeId}
// @Summary      Delete a weighting scheme
// @Tags         groups
// @Param        id path int true "Group ID"
// @Param        weightTypeId path int true "Weight type ID"
// @Success      204
// @Router       /groups/{id}/weight-types/{weightTypeId} [delete]
func (h *Handler) DeleteWeightType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	weightTypeID, ok := pathID(w, r, "weightTypeId")
	if !ok {
		return
	}
	if err := h.service.DeleteWeightType(r.Context(), id, weightTypeID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddMember handles POST /groups/{id}/members
// @Summary      Add a member to a group
// @Description  Adds a member and re-redistributes shares of split-all expenses
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        request body CreateMemberRequest true "Member"
// @Success      201 {object} response.APIResponse{data=Member}
// @Router       /groups/{id}/members [post]
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.UnprocessableEntity(w, err.Error())
		return
	}

	m, err := h.service.AddMember(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, m)
}

// ListMembers handles GET /groups/{id}/members
// @Summary      List group members
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]Member}
// @Router       /groups/{id}/members [get]
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	members, err := h.service.ListMembers(r.Context(), id)
	if err != nil {
		response.InternalError(w, "Failed to list members")
		return
	}
	response.JSON(w, http.StatusOK, members)
}

// GetMember handles GET /groups/{id}/members/{memberId}
// @Summary      Get one group member
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        memberId path int true "Member ID"
// @Success      200 {object} response.APIResponse{data=Member}
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/members/{memberId} [get]
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "memberId")
	if !ok {
		return
	}
	m, err := h.service.GetMember(r.Context(), id, memberID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, m)
}

// UpdateMember handles PATCH /groups/{id}/members/{memberId}
// @Summary      Update a group member
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        memberId path int true "Member ID"
// @Param        request body UpdateMemberRequest true "Fields to update"
// @Success      200 {object} response.APIResponse{data=Member}
// @Router       /groups/{id}/members/{memberId} [patch]
func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "memberId")
	if !ok {
		return
	}
	var req UpdateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.UnprocessableEntity(w, err.Error())
		return
	}

	m, err := h.service.UpdateMember(r.Context(), id, memberID, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, m)
}

// RemoveMember handles DELETE /groups/{id}/members/{memberId}
// @Summary      Remove a member from a group
// @Tags         groups
// @Param        id path int true "Group ID"
// @Param        memberId path int true "Member ID"
// @Success      204
// @Router       /groups/{id}/members/{memberId} [delete]
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	memberID, ok := pathID(w, r, "memberId")
	if !ok {
		return
	}
	if err := h.service.RemoveMember(r.Context(), id, memberID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateResource handles POST /groups/{id}/resources
// @Summary      Add a metered resource to a group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        request body CreateResourceRequest true "Resource"
// @Success      201 {object} response.APIResponse{data=Resource}
// @Router       /groups/{id}/resources [post]
func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req CreateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.UnprocessableEntity(w, err.Error())
		return
	}

	res, err := h.service.CreateResource(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, res)
}

// ListResources handles GET /groups/{id}/resources
// @Summary      List a group's resources
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]Resource}
// @Router       /groups/{id}/resources [get]
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	resources, err := h.service.ListResources(r.Context(), id)
	if err != nil {
		response.InternalError(w, "Failed to list resources")
		return
	}
	response.JSON(w, http.StatusOK, resources)
}

// GetResource handles GET /groups/{id}/resources/{resourceId}
// @Summary      Get one resource
// @Tags         groups
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        resourceId path int true "Resource ID"
// @Success      200 {object} response.APIResponse{data=Resource}
// @Router       /groups/{id}/resources/{resourceId} [get]
func (h *Handler) GetResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	resourceID, ok := pathID(w, r, "resourceId")
	if !ok {
		return
	}
	res, err := h.service.GetResource(r.Context(), id, resourceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

// UpdateResource handles PATCH /groups/{id}/resources/{resourceId}
// @Summary      Update a resource
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path int true "Group ID"
// @Param        resourceId path int true "Resource ID"
// @Param        request body UpdateResourceRequest true "Fields to update"
// @Success      200 {object} response.APIResponse{data=Resource}
// @Router       /groups/{id}/resources/{resourceId} [patch]
func (h *Handler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	resourceID, ok := pathID(w, r, "resourceId")
	if !ok {
		return
	}
	var req UpdateResourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		response.UnprocessableEntity(w, err.Error())
		return
	}

	res, err := h.service.UpdateResource(r.Context(), id, resourceID, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

// DeleteResource handles DELETE /groups/{id}/resources/{resourceId}
// @Summary      Delete a resource
// @Tags         groups
// @Param        id path int true "Group ID"
// @Param        resourceId path int true "Resource ID"
// @Success      204
// @Router       /groups/{id}/resources/{resourceId} [delete]
func (h *Handler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	resourceID, ok := pathID(w, r, "resourceId")
	if !ok {
		return
	}
	if err := h.service.DeleteResource(r.Context(), id, resourceID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses a chi URL parameter as an id, responding 400 on failure.
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
	case errors.Is(err, ErrGroupNotFound),
		errors.Is(err, ErrMemberNotFound),
		errors.Is(err, ErrWeightTypeNotFound),
		errors.Is(err, ErrResourceNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrUnknownWeightType):
		response.BadRequest(w, err.Error())
	default:
		response.InternalError(w, "Unexpected error")
	}
}

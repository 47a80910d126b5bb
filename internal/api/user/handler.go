package user

import (
	"net/http"
	"strings"

	"pfotencard-backend/internal/api/httperr"
	"pfotencard-backend/internal/middleware"
	"pfotencard-backend/internal/services"
	"pfotencard-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	levels *services.LevelService
	idp    services.IdentityProvider
	store  services.ObjectStore
}

func NewHandler(levels *services.LevelService, idp services.IdentityProvider, store services.ObjectStore) *Handler {
	if idp == nil {
		idp = services.NoopIdentityProvider{}
	}
	return &Handler{levels: levels, idp: idp, store: store}
}

// Me godoc
// @Summary Get current user
// @Description Get the authenticated user with dogs, transactions, achievements and documents
// @Tags users
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=UserResponse}
// @Failure 401 {object} utils.Response
// @Router /users/me [get]
func (h *Handler) Me(c *gin.Context) {
	actor, exists := middleware.CurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	// The middleware copy may come from the cache; reload with relations.
	u, err := services.GetUserDetails(actor.ID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("User information retrieved successfully", NewUserResponse(*u)))
}

// ListUsers godoc
// @Summary List all users
// @Description Get a paginated list of users ordered by name. Staff only.
// @Tags users
// @Produce json
// @Security Bearer
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} utils.Response{data=UserListResponse}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	page, limit, err := utils.ParsePagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}

	users, total, err := services.FindUsers(page, limit)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	items := make([]UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, NewUserResponse(u))
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Users retrieved successfully", UserListResponse{
		Users: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}))
}

// SearchUsers godoc
// @Summary Search users by name
// @Tags users
// @Produce json
// @Security Bearer
// @Param q query string true "Part of the name"
// @Success 200 {object} utils.Response{data=[]UserResponse}
// @Failure 400 {object} utils.Response
// @Router /users/search [get]
func (h *Handler) SearchUsers(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Query parameter q is required"))
		return
	}

	users, err := services.SearchUsers(term)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	items := make([]UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, NewUserResponse(u))
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Users retrieved successfully", items))
}

// CreateUser godoc
// @Summary Create a user
// @Description Creates an account with optional dogs and opening balance. A missing password is generated. Staff only.
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param body body CreateUserRequest true "User"
// @Success 201 {object} utils.Response{data=UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /users [post]
func (h *Handler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor, _ := middleware.CurrentUser(c)
	u, err := services.CreateUser(req.Input(), actor.ID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "User created successfully", NewUserResponse(*u)))
}

// GetUser godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Success 200 {object} utils.Response{data=UserResponse}
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	u, err := services.GetUserDetails(id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("User retrieved successfully", NewUserResponse(*u)))
}

// UpdateUser godoc
// @Summary Update a user
// @Description Staff may update anyone; customers only their own name, phone and password. Changing the email is reserved to admins.
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Param body body UpdateUserRequest true "Fields to update"
// @Success 200 {object} utils.Response{data=UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Router /users/{id} [put]
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	var req UpdateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor, _ := middleware.CurrentUser(c)
	u, err := services.UpdateUser(c.Request.Context(), id, req.Input(), actor, h.idp)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("User updated successfully", NewUserResponse(*u)))
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Removes the user with dogs, transactions, achievements and documents. Admin only.
// @Tags users
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /users/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	if err := services.DeleteUser(c.Request.Context(), id, h.idp, h.store); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("User deleted successfully", nil))
}

// PromoteUser godoc
// @Summary Change a user's level
// @Description Consumes the achievements required by the current level, oldest first, and sets the new level. Under the strict policy missing achievements return 422. Staff only.
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Param body body LevelRequest true "New level"
// @Success 200 {object} utils.Response{data=UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Failure 422 {object} utils.Response
// @Router /users/{id}/level [put]
func (h *Handler) PromoteUser(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	var req LevelRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if _, err := h.levels.Promote(id, req.LevelID); err != nil {
		httperr.Respond(c, err)
		return
	}

	h.respondDetails(c, id, "User level updated successfully")
}

// SetVIP godoc
// @Summary Set the VIP flag
// @Description Setting VIP clears the expert flag. Staff only.
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Param body body VIPRequest true "Flag"
// @Success 200 {object} utils.Response{data=UserResponse}
// @Router /users/{id}/vip [put]
func (h *Handler) SetVIP(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	var req VIPRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	u, err := services.SetVIPStatus(id, *req.IsVIP)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("VIP status updated successfully", NewUserResponse(*u)))
}

// SetExpert godoc
// @Summary Set the expert flag
// @Description Setting expert clears the VIP flag. Staff only.
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Param body body ExpertRequest true "Flag"
// @Success 200 {object} utils.Response{data=UserResponse}
// @Router /users/{id}/expert [put]
func (h *Handler) SetExpert(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	var req ExpertRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	u, err := services.SetExpertStatus(id, *req.IsExpert)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Expert status updated successfully", NewUserResponse(*u)))
}

// UpdateStatus godoc
// @Summary Update VIP, expert and active flags
// @Tags users
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Param body body StatusRequest true "Flags"
// @Success 200 {object} utils.Response{data=UserResponse}
// @Failure 400 {object} utils.Response
// @Router /users/{id}/status [put]
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	var req StatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	u, err := services.UpdateUserStatus(id, services.StatusUpdate{
		IsVIP:    req.IsVIP,
		IsExpert: req.IsExpert,
		IsActive: req.IsActive,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Status updated successfully", NewUserResponse(*u)))
}

// ListAchievements godoc
// @Summary List a user's achievements
// @Tags users
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Param unconsumed query bool false "Only unconsumed achievements"
// @Success 200 {object} utils.Response{data=[]AchievementResponse}
// @Router /users/{id}/achievements [get]
func (h *Handler) ListAchievements(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	if _, err := services.FindUserByID(id); err != nil {
		httperr.Respond(c, err)
		return
	}

	achievements, err := services.FindAchievements(id, c.Query("unconsumed") == "true")
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Achievements retrieved successfully", NewAchievementResponses(achievements)))
}

// GetProgress godoc
// @Summary Level progress
// @Description Available versus required achievements for the user's current level.
// @Tags users
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Success 200 {object} utils.Response{data=services.LevelProgress}
// @Failure 404 {object} utils.Response
// @Router /users/{id}/progress [get]
func (h *Handler) GetProgress(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	progress, err := h.levels.Progress(id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Progress retrieved successfully", progress))
}

// VerifyLedger godoc
// @Summary Verify a user's ledger
// @Description Replays the user's transactions and compares them with the stored balance. Admin only.
// @Tags users
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Success 200 {object} utils.Response{data=services.LedgerReport}
// @Failure 404 {object} utils.Response
// @Router /users/{id}/ledger/verify [get]
func (h *Handler) VerifyLedger(c *gin.Context) {
	id, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	report, err := services.VerifyLedger(id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse("Ledger verified", report))
}

func (h *Handler) respondDetails(c *gin.Context, id uint, message string) {
	u, err := services.GetUserDetails(id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.NewSuccessResponse(message, NewUserResponse(*u)))
}

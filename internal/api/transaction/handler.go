package transaction

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pfotencard-backend/internal/api/httperr"
	"pfotencard-backend/internal/middleware"
	"pfotencard-backend/internal/models"
	"pfotencard-backend/internal/services"
	"pfotencard-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

const exportLimit = 10000

// BookTransaction godoc
// @Summary Book a transaction
// @Description Applies the top-up bonus, updates the balance and optionally records an achievement. Staff only.
// @Tags transactions
// @Accept json
// @Produce json
// @Security Bearer
// @Param body body BookTransactionRequest true "Booking"
// @Success 201 {object} utils.Response{data=TransactionResponse}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /transactions [post]
func BookTransaction(c *gin.Context) {
	var req BookTransactionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor, _ := middleware.CurrentUser(c)
	t, err := services.BookTransaction(services.BookingRequest{
		UserID:        req.UserID,
		Type:          req.Type,
		Description:   req.Description,
		Amount:        *req.Amount,
		RequirementID: req.RequirementID,
		BookedByID:    actor.ID,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Transaction booked successfully", NewTransactionResponse(*t)))
}

// ListTransactions godoc
// @Summary List transactions
// @Description Customers see their own transactions, mitarbeiter those they booked, admins all with optional filters.
// @Tags transactions
// @Produce json
// @Security Bearer
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Param user_id query int false "Filter by user ID (admin)"
// @Param type query string false "Filter by transaction type (admin)"
// @Param start_time query string false "Filter by start time (RFC3339)"
// @Param end_time query string false "Filter by end time (RFC3339)"
// @Param min_amount query number false "Filter by minimum amount"
// @Param max_amount query number false "Filter by maximum amount"
// @Success 200 {object} utils.Response{data=TransactionListResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /transactions [get]
func ListTransactions(c *gin.Context) {
	page, limit, err := utils.ParsePagination(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}
	filter.Page = page
	filter.Limit = limit

	actor, _ := middleware.CurrentUser(c)
	switch actor.Role {
	case models.RoleAdmin:
	case models.RoleStaff:
		filter.UserID = nil
		filter.BookedByID = &actor.ID
	default:
		filter.UserID = &actor.ID
		filter.BookedByID = nil
	}

	transactions, total, err := services.FindTransactions(filter)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Transactions retrieved successfully", TransactionListResponse{
		Transactions: NewTransactionResponses(transactions),
		Total:        total,
		Page:         page,
		Limit:        limit,
	}))
}

// ExportTransactions godoc
// @Summary Export transactions
// @Description Export transactions to CSV. Admin only.
// @Tags transactions
// @Produce text/csv
// @Security Bearer
// @Param user_id query int false "Filter by user ID"
// @Param type query string false "Filter by transaction type"
// @Param start_time query string false "Filter by start time (RFC3339)"
// @Param end_time query string false "Filter by end time (RFC3339)"
// @Success 200 {string} string "CSV content"
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /transactions/export [get]
func ExportTransactions(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, err.Error()))
		return
	}
	filter.Page = 1
	filter.Limit = exportLimit

	transactions, _, err := services.FindTransactions(filter)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	csvContent, err := services.GenerateTransactionCSV(transactions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to generate CSV"))
		return
	}

	filename := fmt.Sprintf("transactions_%s.csv", time.Now().Format("20060102150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", csvContent)
}

func parseFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if userIDStr, exists := c.GetQuery("user_id"); exists {
		userID, err := strconv.ParseUint(userIDStr, 10, 64)
		if err != nil {
			return filter, errors.New("Invalid user_id")
		}
		uid := uint(userID)
		filter.UserID = &uid
	}

	if typeStr, exists := c.GetQuery("type"); exists && typeStr != "" {
		filter.Type = &typeStr
	}

	if startTimeStr, exists := c.GetQuery("start_time"); exists {
		startTime, err := time.Parse(time.RFC3339, startTimeStr)
		if err != nil {
			return filter, errors.New("Invalid start_time format")
		}
		filter.StartTime = &startTime
	}

	if endTimeStr, exists := c.GetQuery("end_time"); exists {
		endTime, err := time.Parse(time.RFC3339, endTimeStr)
		if err != nil {
			return filter, errors.New("Invalid end_time format")
		}
		filter.EndTime = &endTime
	}

	if minAmountStr, exists := c.GetQuery("min_amount"); exists {
		minAmount, err := strconv.ParseFloat(minAmountStr, 64)
		if err != nil {
			return filter, errors.New("Invalid min_amount")
		}
		filter.MinAmount = &minAmount
	}

	if maxAmountStr, exists := c.GetQuery("max_amount"); exists {
		maxAmount, err := strconv.ParseFloat(maxAmountStr, 64)
		if err != nil {
			return filter, errors.New("Invalid max_amount")
		}
		filter.MaxAmount = &maxAmount
	}

	return filter, nil
}

package dog

import (
	"net/http"

	"pfotencard-backend/internal/api/httperr"
	"pfotencard-backend/internal/middleware"
	"pfotencard-backend/internal/services"
	"pfotencard-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// ListDogs godoc
// @Summary List a user's dogs
// @Tags dogs
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Success 200 {object} utils.Response{data=[]DogResponse}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /users/{id}/dogs [get]
func ListDogs(c *gin.Context) {
	ownerID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	dogs, err := services.FindDogsByOwner(ownerID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Dogs retrieved successfully", NewDogResponses(dogs)))
}

// CreateDog godoc
// @Summary Add a dog to a user
// @Tags dogs
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Param body body DogRequest true "Dog"
// @Success 201 {object} utils.Response{data=DogResponse}
// @Failure 400 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /users/{id}/dogs [post]
func CreateDog(c *gin.Context) {
	ownerID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	var req DogRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	dog, err := services.CreateDog(ownerID, req.Input())
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Dog created successfully", NewDogResponse(*dog)))
}

// UpdateDog godoc
// @Summary Update a dog
// @Description Staff may update any dog, customers only their own.
// @Tags dogs
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Dog ID"
// @Param body body UpdateDogRequest true "Fields to update"
// @Success 200 {object} utils.Response{data=DogResponse}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /dogs/{id} [put]
func UpdateDog(c *gin.Context) {
	dogID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid dog ID"))
		return
	}

	var req UpdateDogRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	actor, _ := middleware.CurrentUser(c)
	existing, err := services.FindDogByID(dogID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}
	if !actor.Role.IsStaff() && existing.OwnerID != actor.ID {
		httperr.Respond(c, services.ErrForbidden)
		return
	}

	dog, err := services.UpdateDog(dogID, req.Input())
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Dog updated successfully", NewDogResponse(*dog)))
}

// DeleteDog godoc
// @Summary Delete a dog
// @Tags dogs
// @Produce json
// @Security Bearer
// @Param id path int true "Dog ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /dogs/{id} [delete]
func DeleteDog(c *gin.Context) {
	dogID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid dog ID"))
		return
	}

	if err := services.DeleteDog(dogID); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Dog deleted successfully", nil))
}

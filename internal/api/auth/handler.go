package auth

import (
	"net/http"
	"time"

	"pfotencard-backend/internal/api/httperr"
	"pfotencard-backend/internal/api/user"
	"pfotencard-backend/internal/middleware"
	"pfotencard-backend/internal/services"
	"pfotencard-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// maxTokenLifetime bounds how long an unparseable token stays deny-listed.
const maxTokenLifetime = 72 * time.Hour

type Handler struct {
	idp services.IdentityProvider
}

func NewHandler(idp services.IdentityProvider) *Handler {
	if idp == nil {
		idp = services.NoopIdentityProvider{}
	}
	return &Handler{idp: idp}
}

// Register godoc
// @Summary Register a new customer
// @Description Creates an active customer account and mirrors it to the identity provider
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input     body   RegisterRequest  true  "Register Input"
// @Success 201 {object} utils.Response{data=user.UserResponse}
// @Failure 400 {object} utils.Response
// @Failure 409 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /register [post]
func (h *Handler) Register(c *gin.Context) {
	var input RegisterRequest
	if !utils.BindAndValidate(c, &input) {
		return
	}

	u, err := services.RegisterUser(c.Request.Context(), services.RegisterInput{
		Email:    input.Email,
		Password: input.Password,
		Name:     input.Name,
		Phone:    input.Phone,
	}, h.idp)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "User registered successfully", user.NewUserResponse(*u)))
}

// Login godoc
// @Summary Log in a user
// @Description Log in with email and password, as JSON or as an OAuth2 password form
// @Tags auth
// @Accept  json,x-www-form-urlencoded
// @Produce  json
// @Param   input     body   LoginRequest  true  "Login Input"
// @Success 200 {object} utils.Response{data=LoginResponse}
// @Failure 400 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Router /login [post]
func Login(c *gin.Context) {
	var input LoginRequest
	if !utils.BindAndValidateWith(c, &input, nil) {
		return
	}

	token, u, err := services.LoginUser(input.Email, input.Password)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Logged in successfully", LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		User:        user.NewUserResponse(*u),
	}))
}

// Logout godoc
// @Summary Log out a user
// @Description Invalidate the user's current token
// @Tags auth
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.Response
// @Failure 401 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /logout [post]
func Logout(c *gin.Context) {
	tokenString := c.GetString(middleware.ContextTokenKey)
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
		return
	}

	remaining := maxTokenLifetime
	if val, ok := c.Get(middleware.ContextClaimsKey); ok {
		if claims, ok := val.(jwt.MapClaims); ok {
			remaining = utils.TokenExpiry(claims)
		}
	}

	if err := services.AddToDenylist(tokenString, remaining); err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to denylist token"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Logged out successfully", nil))
}

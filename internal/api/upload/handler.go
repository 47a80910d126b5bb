package upload

import (
	"net/http"
	"strings"

	"pfotencard-backend/internal/api/httperr"
	"pfotencard-backend/internal/services"
	"pfotencard-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

const maxImageSize = 10 << 20

type ImageResponse struct {
	URL string `json:"url"`
}

type Handler struct {
	store services.ObjectStore
}

func NewHandler(store services.ObjectStore) *Handler {
	return &Handler{store: store}
}

// UploadImage godoc
// @Summary Upload a public image
// @Description Stores an image in the public bucket and returns its URL. Staff only.
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param file formData file true "Image"
// @Success 201 {object} utils.Response{data=ImageResponse}
// @Failure 400 {object} utils.Response
// @Router /upload/image [post]
func (h *Handler) UploadImage(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, utils.NewErrorResponse(http.StatusServiceUnavailable, "Image storage is not configured"))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageSize)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "A file is required"))
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Only image uploads are allowed"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Could not read the uploaded file"))
		return
	}
	defer file.Close()

	url, err := services.UploadPublicImage(c.Request.Context(), h.store, fileHeader.Filename, contentType, file)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Image uploaded successfully", ImageResponse{URL: url}))
}

// GetOSSToken godoc
// @Summary Get OSS STS Token
// @Description Get STS credentials for uploading images directly to the public bucket
// @Tags upload
// @Produce json
// @Security Bearer
// @Success 200 {object} utils.Response{data=services.STSCredentials}
// @Router /upload/token [get]
func GetOSSToken(c *gin.Context) {
	token, err := services.GetOSSTSToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse(http.StatusInternalServerError, "Failed to get OSS token: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("OSS token retrieved successfully", token))
}

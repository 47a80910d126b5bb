package document

import (
	"net/http"

	"pfotencard-backend/internal/api/httperr"
	"pfotencard-backend/internal/middleware"
	"pfotencard-backend/internal/models"
	"pfotencard-backend/internal/services"
	"pfotencard-backend/internal/utils"

	"github.com/gin-gonic/gin"
)

// MaxUploadSize limits a single document upload.
const MaxUploadSize = 20 << 20

type Handler struct {
	store services.ObjectStore
}

func NewHandler(store services.ObjectStore) *Handler {
	return &Handler{store: store}
}

// Upload godoc
// @Summary Upload a document
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Param file formData file true "Document"
// @Success 201 {object} utils.Response{data=DocumentResponse}
// @Failure 400 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /users/{id}/documents [post]
func (h *Handler) Upload(c *gin.Context) {
	if !h.available(c) {
		return
	}
	userID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadSize)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "A file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Could not read the uploaded file"))
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc, err := services.UploadDocument(c.Request.Context(), h.store, userID, fileHeader.Filename, contentType, file)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewResponse(http.StatusCreated, "Document uploaded successfully", NewDocumentResponse(*doc)))
}

// List godoc
// @Summary List a user's documents
// @Tags documents
// @Produce json
// @Security Bearer
// @Param id path int true "User ID"
// @Success 200 {object} utils.Response{data=[]DocumentResponse}
// @Failure 403 {object} utils.Response
// @Router /users/{id}/documents [get]
func (h *Handler) List(c *gin.Context) {
	userID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid user ID"))
		return
	}

	docs, err := services.FindDocumentsByUser(userID)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Documents retrieved successfully", NewDocumentResponses(docs)))
}

// Get godoc
// @Summary Get a signed download URL
// @Description The URL expires after 60 seconds.
// @Tags documents
// @Produce json
// @Security Bearer
// @Param id path int true "Document ID"
// @Success 200 {object} utils.Response{data=DocumentURLResponse}
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /documents/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	if !h.available(c) {
		return
	}
	doc, ok := h.loadOwned(c)
	if !ok {
		return
	}

	url, err := services.DocumentURL(c.Request.Context(), h.store, doc)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Document URL created successfully", DocumentURLResponse{
		URL:       url,
		ExpiresIn: int(services.DocumentURLTTL.Seconds()),
	}))
}

// Delete godoc
// @Summary Delete a document
// @Tags documents
// @Produce json
// @Security Bearer
// @Param id path int true "Document ID"
// @Success 200 {object} utils.Response
// @Failure 403 {object} utils.Response
// @Failure 404 {object} utils.Response
// @Router /documents/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	doc, ok := h.loadOwned(c)
	if !ok {
		return
	}

	if err := services.DeleteDocument(c.Request.Context(), h.store, doc.ID); err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse("Document deleted successfully", nil))
}

func (h *Handler) available(c *gin.Context) bool {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, utils.NewErrorResponse(http.StatusServiceUnavailable, "Document storage is not configured"))
		return false
	}
	return true
}

// loadOwned loads the document in the path and checks that the caller is staff
// or its owner, writing the error response otherwise.
func (h *Handler) loadOwned(c *gin.Context) (*models.Document, bool) {
	docID, err := utils.ParseUintParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(http.StatusBadRequest, "Invalid document ID"))
		return nil, false
	}

	doc, err := services.FindDocumentByID(docID)
	if err != nil {
		httperr.Respond(c, err)
		return nil, false
	}

	actor, _ := middleware.CurrentUser(c)
	if !actor.Role.IsStaff() && doc.UserID != actor.ID {
		httperr.Respond(c, services.ErrForbidden)
		return nil, false
	}
	return doc, true
}

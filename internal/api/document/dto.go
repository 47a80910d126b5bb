package document

import (
	"time"

	"pfotencard-backend/internal/models"
)

type DocumentResponse struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	UploadDate time.Time `json:"upload_date"`
}

type DocumentURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

func NewDocumentResponse(d models.Document) DocumentResponse {
	return DocumentResponse{
		ID:         d.ID,
		UserID:     d.UserID,
		FileName:   d.FileName,
		FileType:   d.FileType,
		UploadDate: d.UploadDate,
	}
}

func NewDocumentResponses(docs []models.Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, NewDocumentResponse(d))
	}
	return out
}

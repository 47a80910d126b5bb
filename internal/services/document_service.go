package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"pfotencard-backend/internal/database"
	"pfotencard-backend/internal/models"
	"pfotencard-backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DocumentURLTTL is how long a signed download link stays valid.
const DocumentURLTTL = 60 * time.Second

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func safeFileName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = unsafeKeyChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "file"
	}
	return base
}

// UploadDocument stores the file under users/<id>/ and records it for the user.
func UploadDocument(ctx context.Context, store ObjectStore, userID uint, fileName, contentType string, r io.Reader) (*models.Document, error) {
	user, err := FindUserByID(userID)
	if err != nil {
		return nil, err
	}

	key := path.Join("users", fmt.Sprint(userID), uuid.NewString()[:8]+"_"+safeFileName(fileName))
	if err := store.Put(ctx, key, r, contentType); err != nil {
		return nil, fmt.Errorf("failed to store document: %w", err)
	}

	doc := &models.Document{
		UserID:   userID,
		TenantID: user.TenantID,
		FileName: fileName,
		FileType: contentType,
		FilePath: key,
	}
	if err := database.DB.Create(doc).Error; err != nil {
		if delErr := store.Delete(ctx, key); delErr != nil {
			logger.Log.Warn("orphaned document object", zap.String("path", key), zap.Error(delErr))
		}
		return nil, err
	}
	return doc, nil
}

func FindDocumentsByUser(userID uint) ([]models.Document, error) {
	var docs []models.Document
	if err := database.DB.Where("user_id = ?", userID).Order("upload_date desc, id desc").Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func FindDocumentByID(documentID uint) (*models.Document, error) {
	var doc models.Document
	if err := database.DB.First(&doc, documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func DocumentURL(ctx context.Context, store ObjectStore, doc *models.Document) (string, error) {
	return store.SignedURL(ctx, doc.FilePath, DocumentURLTTL)
}

// DeleteDocument removes the row; the stored object is removed best effort.
func DeleteDocument(ctx context.Context, store ObjectStore, documentID uint) error {
	doc, err := FindDocumentByID(documentID)
	if err != nil {
		return err
	}
	if store != nil {
		if err := store.Delete(ctx, doc.FilePath); err != nil {
			logger.Log.Warn("document object delete failed", zap.String("path", doc.FilePath), zap.Error(err))
		}
	}
	return database.DB.Delete(doc).Error
}

// UploadPublicImage stores an image in the public bucket and returns its URL.
func UploadPublicImage(ctx context.Context, store ObjectStore, fileName, contentType string, r io.Reader) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: only image uploads are allowed", ErrValidation)
	}
	now := time.Now()
	key := imagePrefix(now) + uuid.NewString() + strings.ToLower(filepath.Ext(safeFileName(fileName)))
	if err := store.Put(ctx, key, r, contentType); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return store.PublicURL(key), nil
}

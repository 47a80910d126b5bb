package document_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"pfotencard-backend/internal/api/document"
	"pfotencard-backend/internal/database"
	"pfotencard-backend/internal/middleware"
	"pfotencard-backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeStore struct {
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Put(_ context.Context, key string, r io.Reader, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[key] = b
	return nil
}

func (s *fakeStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://signed.example.com/%s?expires=%d", key, int(ttl.Seconds())), nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}

func (s *fakeStore) PublicURL(key string) string {
	return "https://public.example.com/" + key
}

func setupTestDB(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	db.Migrator().DropTable(models.All()...)
	require.NoError(t, database.Migrate(db))
	database.DB = db
	database.RedisClient = nil
}

func seedUser(t *testing.T, email string, role models.Role) models.User {
	u := models.User{TenantID: 1, Email: email, Name: email, HashedPassword: "x", Role: role, IsActive: true, LevelID: 1}
	require.NoError(t, database.DB.Create(&u).Error)
	return u
}

func newRouter(actor models.User, store *fakeStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api")
	g.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, actor)
		c.Next()
	})
	if store == nil {
		document.RegisterRoutes(g, document.NewHandler(nil))
	} else {
		document.RegisterRoutes(g, document.NewHandler(store))
	}
	return r
}

func uploadRequest(t *testing.T, path, fileName, contentType string, content []byte) *http.Request {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	part.Write(content)
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDocumentLifecycle(t *testing.T) {
	setupTestDB(t)
	store := newFakeStore()
	anna := seedUser(t, "anna@example.com", models.RoleCustomer)
	bert := seedUser(t, "bert@example.com", models.RoleCustomer)
	staff := seedUser(t, "staff@example.com", models.RoleStaff)

	w := serve(newRouter(anna, store), uploadRequest(t, fmt.Sprintf("/api/users/%d/documents", anna.ID), "Impfpass 2024.pdf", "application/pdf", []byte("%PDF-1.4")))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data document.DocumentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Impfpass 2024.pdf", created.Data.FileName)
	assert.Equal(t, "application/pdf", created.Data.FileType)
	require.Len(t, store.objects, 1)
	for key, content := range store.objects {
		assert.Regexp(t, fmt.Sprintf(`^users/%d/[0-9a-f]{8}_Impfpass_2024\.pdf$`, anna.ID), key)
		assert.Equal(t, []byte("%PDF-1.4"), content)
	}

	w = serve(newRouter(bert, store), uploadRequest(t, fmt.Sprintf("/api/users/%d/documents", anna.ID), "x.pdf", "application/pdf", []byte("x")))
	assert.Equal(t, http.StatusForbidden, w.Code)

	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("/api/users/%d/documents", anna.ID), nil)
	w = serve(newRouter(staff, store), req)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []document.DocumentResponse `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &list)
	assert.Len(t, list.Data, 1)

	docPath := fmt.Sprintf("/api/documents/%d", created.Data.ID)

	req, _ = http.NewRequest(http.MethodGet, docPath, nil)
	w = serve(newRouter(anna, store), req)
	require.Equal(t, http.StatusOK, w.Code)
	var link struct {
		Data document.DocumentURLResponse `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &link)
	assert.Equal(t, 60, link.Data.ExpiresIn)
	assert.Contains(t, link.Data.URL, "https://signed.example.com/users/")

	req, _ = http.NewRequest(http.MethodGet, docPath, nil)
	w = serve(newRouter(bert, store), req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req, _ = http.NewRequest(http.MethodDelete, docPath, nil)
	w = serve(newRouter(bert, store), req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req, _ = http.NewRequest(http.MethodDelete, docPath, nil)
	w = serve(newRouter(anna, store), req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.objects)

	req, _ = http.NewRequest(http.MethodGet, docPath, nil)
	w = serve(newRouter(anna, store), req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadRequiresFileAndStore(t *testing.T) {
	setupTestDB(t)
	anna := seedUser(t, "anna@example.com", models.RoleCustomer)
	path := fmt.Sprintf("/api/users/%d/documents", anna.ID)

	w := serve(newRouter(anna, nil), uploadRequest(t, path, "a.pdf", "application/pdf", []byte("x")))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	w = serve(newRouter(anna, newFakeStore()), req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	staff := seedUser(t, "staff@example.com", models.RoleStaff)
	w = serve(newRouter(staff, newFakeStore()), uploadRequest(t, "/api/users/999/documents", "a.pdf", "application/pdf", []byte("x")))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package user_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pfotencard-backend/internal/api/user"
	"pfotencard-backend/internal/database"
	"pfotencard-backend/internal/middleware"
	"pfotencard-backend/internal/models"
	"pfotencard-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB() {
	// Use in-memory SQLite for testing
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	// Drop tables if exist to ensure clean state and schema update
	db.Migrator().DropTable(models.All()...)
	if err := database.Migrate(db); err != nil {
		panic("failed to migrate database")
	}

	database.DB = db
	database.RedisClient = nil
}

func seed(email, name string, role models.Role) models.User {
	u := models.User{
		TenantID:       1,
		Email:          email,
		Name:           name,
		HashedPassword: "hashedpassword",
		Role:           role,
		IsActive:       true,
		LevelID:        1,
	}
	database.DB.Create(&u)
	return u
}

func newRouter(actor models.User, policy services.LevelPolicy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	g := r.Group("/api")
	g.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, actor)
		c.Next()
	})
	levels := services.NewLevelService(services.DefaultLevelSchedule(), policy)
	user.RegisterRoutes(g, user.NewHandler(levels, nil, nil))
	return r
}

func do(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type userEnvelope struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Data    user.UserResponse `json:"data"`
}

func TestListUsers(t *testing.T) {
	setupTestDB()
	staff := seed("staff@example.com", "Mia", models.RoleStaff)
	seed("b@example.com", "Bert", models.RoleCustomer)
	seed("a@example.com", "Anna", models.RoleCustomer)

	tests := []struct {
		name           string
		actor          models.User
		query          string
		expectedStatus int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name:           "Ordered By Name",
			actor:          staff,
			query:          "?page=1&limit=10",
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, body []byte) {
				var resp struct {
					Data user.UserListResponse `json:"data"`
				}
				json.Unmarshal(body, &resp)
				assert.Equal(t, int64(3), resp.Data.Total)
				require.Len(t, resp.Data.Users, 3)
				assert.Equal(t, "Anna", resp.Data.Users[0].Name)
				assert.Equal(t, "Mia", resp.Data.Users[2].Name)
			},
		},
		{
			name:           "Invalid Page",
			actor:          staff,
			query:          "?page=0",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Customer Forbidden",
			actor:          models.User{ID: 99, Role: models.RoleCustomer},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(tt.actor, services.LevelPolicyAdvisory), http.MethodGet, "/api/users"+tt.query, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.checkResponse != nil {
				tt.checkResponse(t, w.Body.Bytes())
			}
		})
	}
}

func TestSearchUsers(t *testing.T) {
	setupTestDB()
	staff := seed("staff@example.com", "Mia", models.RoleStaff)
	seed("a@example.com", "Anna Schmidt", models.RoleCustomer)
	seed("b@example.com", "Bert", models.RoleCustomer)
	r := newRouter(staff, services.LevelPolicyAdvisory)

	w := do(r, http.MethodGet, "/api/users/search?q=Schmi", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []user.UserResponse `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Anna Schmidt", resp.Data[0].Name)

	w = do(r, http.MethodGet, "/api/users/search", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateUser(t *testing.T) {
	setupTestDB()
	staff := seed("staff@example.com", "Mia", models.RoleStaff)
	r := newRouter(staff, services.LevelPolicyAdvisory)

	w := do(r, http.MethodPost, "/api/users", map[string]interface{}{
		"email":   "neu@example.com",
		"name":    "Neu",
		"balance": 40,
		"dogs":    []map[string]string{{"name": "Bello", "birth_date": "2022-02-01"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp userEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "neu@example.com", resp.Data.Email)
	assert.Equal(t, models.RoleCustomer, resp.Data.Role)
	assert.True(t, resp.Data.IsActive)
	assert.Equal(t, 40.0, resp.Data.Balance)
	require.Len(t, resp.Data.Dogs, 1)
	require.NotNil(t, resp.Data.Dogs[0].BirthDate)
	assert.Equal(t, "2022-02-01", *resp.Data.Dogs[0].BirthDate)
	require.Len(t, resp.Data.Transactions, 1)
	assert.Equal(t, staff.ID, resp.Data.Transactions[0].BookedByID)

	w = do(r, http.MethodPost, "/api/users", map[string]interface{}{"email": "neu@example.com", "name": "Again"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/api/users", map[string]interface{}{"email": "not-an-email", "name": "X"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/users", map[string]interface{}{
		"email": "dog@example.com", "name": "X", "dogs": []map[string]string{{"name": "Rex", "birth_date": "01.02.2022"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetUserAccess(t *testing.T) {
	setupTestDB()
	anna := seed("anna@example.com", "Anna", models.RoleCustomer)
	bert := seed("bert@example.com", "Bert", models.RoleCustomer)

	w := do(newRouter(anna, services.LevelPolicyAdvisory), http.MethodGet, fmt.Sprintf("/api/users/%d", anna.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(newRouter(anna, services.LevelPolicyAdvisory), http.MethodGet, fmt.Sprintf("/api/users/%d", bert.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(newRouter(anna, services.LevelPolicyAdvisory), http.MethodGet, "/api/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp userEnvelope
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, anna.ID, resp.Data.ID)

	staff := seed("staff@example.com", "Mia", models.RoleStaff)
	w = do(newRouter(staff, services.LevelPolicyAdvisory), http.MethodGet, "/api/users/4242", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateUser(t *testing.T) {
	setupTestDB()
	admin := seed("admin@example.com", "Admin", models.RoleAdmin)
	staff := seed("staff@example.com", "Mia", models.RoleStaff)
	anna := seed("anna@example.com", "Anna", models.RoleCustomer)
	path := fmt.Sprintf("/api/users/%d", anna.ID)

	w := do(newRouter(anna, services.LevelPolicyAdvisory), http.MethodPut, path, map[string]string{"phone": "0171"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp userEnvelope
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "0171", resp.Data.Phone)

	w = do(newRouter(anna, services.LevelPolicyAdvisory), http.MethodPut, path, map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(newRouter(staff, services.LevelPolicyAdvisory), http.MethodPut, path, map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(newRouter(anna, services.LevelPolicyAdvisory), http.MethodPut, path, map[string]string{"password": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(newRouter(admin, services.LevelPolicyAdvisory), http.MethodPut, path, map[string]string{"email": "x@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "x@example.com", resp.Data.Email)
}

func TestPromoteUser(t *testing.T) {
	setupTestDB()
	staff := seed("staff@example.com", "Mia", models.RoleStaff)
	anna := seed("anna@example.com", "Anna", models.RoleCustomer)
	path := fmt.Sprintf("/api/users/%d/level", anna.ID)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 6; i++ {
		database.DB.Create(&models.Achievement{UserID: anna.ID, RequirementID: "group_class", DateAchieved: base.Add(time.Duration(i) * time.Minute)})
	}

	w := do(newRouter(staff, services.LevelPolicyStrict), http.MethodPut, path, map[string]int{"level_id": 2})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(newRouter(anna, services.LevelPolicyAdvisory), http.MethodPut, path, map[string]int{"level_id": 2})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(newRouter(staff, services.LevelPolicyAdvisory), http.MethodPut, path, map[string]int{"level_id": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(newRouter(staff, services.LevelPolicyAdvisory), http.MethodPut, path, map[string]int{"level_id": 2})
	require.Equal(t, http.StatusOK, w.Code)
	var resp userEnvelope
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, 2, resp.Data.LevelID)
	require.Len(t, resp.Data.Achievements, 6)
	for _, a := range resp.Data.Achievements {
		assert.True(t, a.IsConsumed)
	}

	w = do(newRouter(staff, services.LevelPolicyAdvisory), http.MethodPut, "/api/users/999/level", map[string]int{"level_id": 2})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProgressAndAchievements(t *testing.T) {
	setupTestDB()
	anna := seed("anna@example.com", "Anna", models.RoleCustomer)
	database.DB.Create(&models.Achievement{UserID: anna.ID, RequirementID: "exam", DateAchieved: time.Now()})
	database.DB.Create(&models.Achievement{UserID: anna.ID, RequirementID: "group_class", DateAchieved: time.Now(), IsConsumed: true})
	r := newRouter(anna, services.LevelPolicyAdvisory)

	w := do(r, http.MethodGet, fmt.Sprintf("/api/users/%d/progress", anna.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var progress struct {
		Data services.LevelProgress `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &progress)
	assert.Equal(t, 1, progress.Data.LevelID)
	require.Len(t, progress.Data.Requirements, 2)
	assert.Equal(t, 0, progress.Data.Requirements[0].Available)
	assert.Equal(t, 1, progress.Data.Requirements[1].Available)

	w = do(r, http.MethodGet, fmt.Sprintf("/api/users/%d/achievements?unconsumed=true", anna.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Data []user.AchievementResponse `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "exam", list.Data[0].RequirementID)
}

func TestFlags(t *testing.T) {
	setupTestDB()
	staff := seed("staff@example.com", "Mia", models.RoleStaff)
	anna := seed("anna@example.com", "Anna", models.RoleCustomer)
	r := newRouter(staff, services.LevelPolicyAdvisory)

	w := do(r, http.MethodPut, fmt.Sprintf("/api/users/%d/vip", anna.ID), map[string]bool{"is_vip": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPut, fmt.Sprintf("/api/users/%d/expert", anna.ID), map[string]bool{"is_expert": true})
	require.Equal(t, http.StatusOK, w.Code)
	var resp userEnvelope
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.True(t, resp.Data.IsExpert)
	assert.False(t, resp.Data.IsVIP)

	w = do(r, http.MethodPut, fmt.Sprintf("/api/users/%d/vip", anna.ID), map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, fmt.Sprintf("/api/users/%d/status", anna.ID), map[string]bool{"is_vip": true, "is_expert": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, fmt.Sprintf("/api/users/%d/status", anna.ID), map[string]bool{"is_active": false})
	require.Equal(t, http.StatusOK, w.Code)
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.False(t, resp.Data.IsActive)
}

func TestDeleteUserAndVerifyLedgerAreAdminOnly(t *testing.T) {
	setupTestDB()
	admin := seed("admin@example.com", "Admin", models.RoleAdmin)
	staff := seed("staff@example.com", "Mia", models.RoleStaff)
	anna := seed("anna@example.com", "Anna", models.RoleCustomer)

	_, err := services.BookTransaction(services.BookingRequest{UserID: anna.ID, Type: "Aufladung", Amount: 100, BookedByID: staff.ID})
	require.NoError(t, err)

	w := do(newRouter(staff, services.LevelPolicyAdvisory), http.MethodGet, fmt.Sprintf("/api/users/%d/ledger/verify", anna.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(newRouter(admin, services.LevelPolicyAdvisory), http.MethodGet, fmt.Sprintf("/api/users/%d/ledger/verify", anna.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report struct {
		Data services.LedgerReport `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &report)
	assert.True(t, report.Data.Consistent)
	assert.Equal(t, 115.0, report.Data.LedgerBalance)

	w = do(newRouter(staff, services.LevelPolicyAdvisory), http.MethodDelete, fmt.Sprintf("/api/users/%d", anna.ID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(newRouter(admin, services.LevelPolicyAdvisory), http.MethodDelete, fmt.Sprintf("/api/users/%d", anna.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(newRouter(admin, services.LevelPolicyAdvisory), http.MethodDelete, fmt.Sprintf("/api/users/%d", anna.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

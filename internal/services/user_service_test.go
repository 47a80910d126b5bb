package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"pfotencard-backend/internal/database"
	"pfotencard-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateUser(t *testing.T) {
	setupTestDB()
	admin := seedUser("admin@example.com", models.RoleAdmin, 0)
	birth := time.Date(2021, 5, 4, 0, 0, 0, 0, time.UTC)

	user, err := CreateUser(CreateUserInput{
		Email:          " Anna@Example.com ",
		Name:           "Anna",
		Phone:          "0123",
		IsActive:       true,
		OpeningBalance: 25,
		Dogs:           []DogInput{{Name: "Bello", Breed: "Labrador", BirthDate: &birth, Chip: "276"}},
	}, admin.ID)
	require.NoError(t, err)

	assert.Equal(t, "anna@example.com", user.Email)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.Equal(t, 1, user.LevelID)
	assert.Equal(t, 25.0, user.Balance)
	require.Len(t, user.Dogs, 1)
	assert.Equal(t, "Bello", user.Dogs[0].Name)
	require.NotNil(t, user.Dogs[0].BirthDate)
	require.Len(t, user.Transactions, 1)
	assert.Equal(t, models.TransactionTypeOpeningBalance, user.Transactions[0].Type)
	assert.Equal(t, 0.0, user.Transactions[0].Bonus)
	assert.Equal(t, admin.ID, user.Transactions[0].BookedByID)

	report, err := VerifyLedger(user.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent, report.Problems)

	_, err = CreateUser(CreateUserInput{Email: "anna@example.com", Name: "Other"}, admin.ID)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestCreateUserRejectsSubCentOpeningBalance(t *testing.T) {
	setupTestDB()
	admin := seedUser("admin@example.com", models.RoleAdmin, 0)

	_, err := CreateUser(CreateUserInput{Email: "cent@example.com", Name: "Cent", OpeningBalance: 10.005}, admin.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = FindUserByEmail("cent@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreateUserGeneratesPassword(t *testing.T) {
	setupTestDB()

	user, err := CreateUser(CreateUserInput{Email: "nopass@example.com", Name: "No Pass"}, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, user.HashedPassword)
	assert.False(t, user.IsActive)
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte("")))
}

func TestFindAndSearchUsers(t *testing.T) {
	setupTestDB()
	for _, name := range []string{"Zora", "Anton", "Maja", "Antje"} {
		_, err := CreateUser(CreateUserInput{Email: name + "@example.com", Name: name, IsActive: true}, 0)
		require.NoError(t, err)
	}

	users, total, err := FindUsers(1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, users, 3)
	assert.Equal(t, []string{"Antje", "Anton", "Maja"}, []string{users[0].Name, users[1].Name, users[2].Name})

	found, err := SearchUsers("Ant")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	_, err = FindUserByID(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = GetUserDetails(999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateUser_Permissions(t *testing.T) {
	setupTestDB()
	admin := seedUser("admin@example.com", models.RoleAdmin, 0)
	staff := seedUser("staff@example.com", models.RoleStaff, 0)
	customer := seedUser("kunde@example.com", models.RoleCustomer, 0)
	other := seedUser("other@example.com", models.RoleCustomer, 0)
	idp := newRecordingIdentityProvider()
	ctx := context.Background()

	name := "Hacker"
	_, err := UpdateUser(ctx, other.ID, UpdateUserInput{Name: &name}, customer, idp)
	assert.ErrorIs(t, err, ErrForbidden)

	newEmail := "changed@example.com"
	_, err = UpdateUser(ctx, customer.ID, UpdateUserInput{Email: &newEmail}, staff, idp)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = UpdateUser(ctx, customer.ID, UpdateUserInput{Email: &newEmail}, customer, idp)
	assert.ErrorIs(t, err, ErrForbidden)

	short := "123"
	_, err = UpdateUser(ctx, customer.ID, UpdateUserInput{Password: &short}, customer, idp)
	assert.ErrorIs(t, err, ErrValidation)

	role := models.RoleAdmin
	inactive := false
	selfName := "Kunde Neu"
	updated, err := UpdateUser(ctx, customer.ID, UpdateUserInput{Name: &selfName, Role: &role, IsActive: &inactive}, customer, idp)
	require.NoError(t, err)
	assert.Equal(t, "Kunde Neu", updated.Name)
	assert.Equal(t, models.RoleCustomer, updated.Role, "customers cannot change their role")
	assert.True(t, updated.IsActive)

	taken := "other@example.com"
	_, err = UpdateUser(ctx, customer.ID, UpdateUserInput{Email: &taken}, admin, idp)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	updated, err = UpdateUser(ctx, customer.ID, UpdateUserInput{Email: &newEmail}, admin, idp)
	require.NoError(t, err)
	assert.Equal(t, newEmail, updated.Email)

	sync, ok := idp.updated["kunde@example.com"]
	require.True(t, ok, "identity provider is addressed by the previous email")
	require.NotNil(t, sync.Email)
	assert.Equal(t, newEmail, *sync.Email)
	assert.Nil(t, sync.Password)
}

func TestUpdateUser_IdentityFailureDoesNotBlock(t *testing.T) {
	setupTestDB()
	customer := seedUser("kunde@example.com", models.RoleCustomer, 0)
	idp := newRecordingIdentityProvider()
	idp.err = errors.New("provider down")

	password := "new-password"
	updated, err := UpdateUser(context.Background(), customer.ID, UpdateUserInput{Password: &password}, customer, idp)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.HashedPassword), []byte(password)))
}

func TestUpdateUserStatus_VIPAndExpertExclusive(t *testing.T) {
	setupTestDB()
	user := seedUser("kunde@example.com", models.RoleCustomer, 0)

	updated, err := SetVIPStatus(user.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsVIP)
	assert.False(t, updated.IsExpert)

	updated, err = SetExpertStatus(user.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsExpert)
	assert.False(t, updated.IsVIP)

	updated, err = SetExpertStatus(user.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsExpert)
	assert.False(t, updated.IsVIP)

	yes := true
	_, err = UpdateUserStatus(user.ID, StatusUpdate{IsVIP: &yes, IsExpert: &yes})
	assert.ErrorIs(t, err, ErrValidation)

	no := false
	updated, err = UpdateUserStatus(user.ID, StatusUpdate{IsActive: &no})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = SetVIPStatus(999, true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	setupTestDB()
	staff := seedUser("staff@example.com", models.RoleStaff, 0)
	customer := seedUser("kunde@example.com", models.RoleCustomer, 0)
	store := newMemoryStore()
	idp := newRecordingIdentityProvider()
	ctx := context.Background()

	req := "exam"
	_, err := BookTransaction(BookingRequest{UserID: customer.ID, Type: "Prüfung", Amount: 10, RequirementID: &req, BookedByID: staff.ID})
	require.NoError(t, err)
	_, err = CreateDog(customer.ID, DogInput{Name: "Bello"})
	require.NoError(t, err)
	doc, err := UploadDocument(ctx, store, customer.ID, "vertrag.pdf", "application/pdf", bytesReader("pdf"))
	require.NoError(t, err)

	require.NoError(t, DeleteUser(ctx, customer.ID, idp, store))

	for _, model := range []interface{}{&models.Transaction{}, &models.Achievement{}, &models.Document{}} {
		var count int64
		database.DB.Model(model).Where("user_id = ?", customer.ID).Count(&count)
		assert.Equal(t, int64(0), count)
	}
	var dogs int64
	database.DB.Model(&models.Dog{}).Where("owner_id = ?", customer.ID).Count(&dogs)
	assert.Equal(t, int64(0), dogs)

	assert.Equal(t, []string{"kunde@example.com"}, idp.deleted)
	assert.Equal(t, []string{doc.FilePath}, store.deleted)

	assert.ErrorIs(t, DeleteUser(ctx, customer.ID, idp, store), ErrUserNotFound)
}

package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"streamvault/internal/models"
)

func newCheckoutEnv() (*orderEnv, *CheckoutService, *fakeSessions) {
	env := newOrderEnv()
	env.plans.add(models.Plan{ID: 1, Name: "Premium", IsActive: true}, map[int]string{1: "10.00", 2: "18.00"})
	sessions := &fakeSessions{}
	checkout := NewCheckoutService(env.users, env.service, env.activity, sessions, zap.NewNop())
	return env, checkout, sessions
}

func TestCheckout_NewAccount(t *testing.T) {
	env, checkout, _ := newCheckoutEnv()

	result, err := checkout.Checkout(GuestCheckoutInput{
		Email:    "new@example.com",
		Password: "hunter2hunter2",
		Name:     "New Buyer",
		Order: CreateOrderInput{
			PlanID:          1,
			Connections:     1,
			CredentialsType: models.CredentialsTypeXtream,
		},
	})
	require.NoError(t, err)

	assert.True(t, result.IsNewUser)
	assert.NotZero(t, result.OrderID)
	assert.NotEmpty(t, result.OrderNo)
	assert.Equal(t, models.CredentialsTypeXtream, result.CredentialsType)
	assert.NotEmpty(t, result.SessionToken)

	user, err := env.users.FindByEmail("new@example.com")
	require.NoError(t, err)
	assert.Equal(t, result.UserID, user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.EmailVerified)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2hunter2")))

	assert.True(t, env.activity.has("guest_checkout"))
}

func TestCheckout_ExistingAccountMatchingPassword(t *testing.T) {
	env, checkout, _ := newCheckoutEnv()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	existing := env.users.add(models.User{Email: "repeat@example.com", PasswordHash: string(hash), Role: models.RoleUser})

	result, err := checkout.Checkout(GuestCheckoutInput{
		Email:    "repeat@example.com",
		Password: "correct-horse",
		Order:    CreateOrderInput{PlanID: 1, Connections: 2},
	})
	require.NoError(t, err)

	assert.False(t, result.IsNewUser)
	assert.Equal(t, existing.ID, result.UserID)
}

func TestCheckout_ExistingAccountWrongPassword(t *testing.T) {
	env, checkout, _ := newCheckoutEnv()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	env.users.add(models.User{Email: "repeat@example.com", PasswordHash: string(hash), Role: models.RoleUser})

	_, err := checkout.Checkout(GuestCheckoutInput{
		Email:    "repeat@example.com",
		Password: "wrong-password",
		Order:    CreateOrderInput{PlanID: 1, Connections: 1},
	})
	require.Error(t, err)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsExistingAccount(err))
	// no order was created
	orders, _ := env.orders.FindAll("")
	assert.Empty(t, orders)
}

func TestCheckout_InputValidation(t *testing.T) {
	_, checkout, _ := newCheckoutEnv()

	_, err := checkout.Checkout(GuestCheckoutInput{Password: "long-enough-pass"})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = checkout.Checkout(GuestCheckoutInput{Email: "a@b.com", Password: "short"})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCheckout_OrderFailureRemovesFreshAccount(t *testing.T) {
	env, checkout, _ := newCheckoutEnv()

	// connections with no pricing row -> order creation fails
	_, err := checkout.Checkout(GuestCheckoutInput{
		Email:    "rollback@example.com",
		Password: "hunter2hunter2",
		Order:    CreateOrderInput{PlanID: 1, Connections: 9},
	})
	require.Error(t, err)

	_, findErr := env.users.FindByEmail("rollback@example.com")
	assert.True(t, errors.Is(findErr, gorm.ErrRecordNotFound))
	assert.NotEmpty(t, env.users.deleted)
}

func TestCheckout_OrderFailureKeepsExistingAccount(t *testing.T) {
	env, checkout, _ := newCheckoutEnv()
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.DefaultCost)
	env.users.add(models.User{Email: "keep@example.com", PasswordHash: string(hash), Role: models.RoleUser})

	_, err := checkout.Checkout(GuestCheckoutInput{
		Email:    "keep@example.com",
		Password: "correct-horse",
		Order:    CreateOrderInput{PlanID: 1, Connections: 9},
	})
	require.Error(t, err)

	_, findErr := env.users.FindByEmail("keep@example.com")
	assert.NoError(t, findErr)
	assert.Empty(t, env.users.deleted)
}

func TestCheckout_SessionMintFailureIsNotFatal(t *testing.T) {
	env, checkout, sessions := newCheckoutEnv()
	sessions.err = errors.New("signing key unavailable")

	result, err := checkout.Checkout(GuestCheckoutInput{
		Email:    "new@example.com",
		Password: "hunter2hunter2",
		Order:    CreateOrderInput{PlanID: 1, Connections: 1},
	})
	require.NoError(t, err)
	assert.Empty(t, result.SessionToken)

	orders, _ := env.orders.FindAll("")
	assert.Len(t, orders, 1)
}

package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"streamvault/internal/models"
)

type credentialEnv struct {
	*orderEnv
	service *CredentialService
}

func newCredentialEnv() *credentialEnv {
	env := newOrderEnv()
	return &credentialEnv{
		orderEnv: env,
		service: NewCredentialService(
			env.creds, env.orders, env.users, env.activity, env.mailer, zap.NewNop(),
		),
	}
}

func (e *credentialEnv) seedVerifiedOrder(connections int) (*models.User, *models.Order) {
	user := e.users.add(models.User{Email: "buyer@example.com", Role: models.RoleUser})
	order := e.orders.add(models.Order{
		OrderNo:     "ord-1",
		UserID:      user.ID,
		PlanID:      1,
		Connections: connections,
		Status:      models.OrderStatusVerified,
	})
	return user, order
}

var adminCaller = Caller{UserID: 99, Role: models.RoleAdmin}

func TestCredentialService_Create(t *testing.T) {
	env := newCredentialEnv()
	user, order := env.seedVerifiedOrder(2)

	cred, err := env.service.Create(adminCaller, CreateCredentialInput{
		OrderID:          order.ID,
		ConnectionNumber: 1,
		CredentialType:   models.CredentialTypeXtream,
		ServerURL:        "http://stream.example.com:8080",
		Username:         "u123",
		Password:         "p456",
	})
	require.NoError(t, err)

	assert.Equal(t, user.ID, cred.UserID, "defaults to the order owner")
	assert.True(t, cred.IsActive)
	require.NotNil(t, cred.ExpiresAt)
	// default expiry is 30 days out
	expected := time.Now().Add(defaultCredentialTTL)
	assert.WithinDuration(t, expected, *cred.ExpiresAt, time.Minute)

	assert.True(t, env.activity.has("credential_created"))
	assert.True(t, env.mailer.has("credentials_delivered"))
}

func TestCredentialService_Create_GeneratesXtreamLogin(t *testing.T) {
	env := newCredentialEnv()
	_, order := env.seedVerifiedOrder(1)

	cred, err := env.service.Create(adminCaller, CreateCredentialInput{
		OrderID:          order.ID,
		ConnectionNumber: 1,
		CredentialType:   models.CredentialTypeXtream,
		ServerURL:        "http://stream.example.com:8080",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, cred.Username)
	assert.NotEmpty(t, cred.Password)
}

func TestCredentialService_Create_DropsFieldsForeignToType(t *testing.T) {
	env := newCredentialEnv()
	_, order := env.seedVerifiedOrder(3)

	// the full field set an over-eager admin form might submit
	input := func(slot int, credType string) CreateCredentialInput {
		return CreateCredentialInput{
			OrderID:          order.ID,
			ConnectionNumber: slot,
			CredentialType:   credType,
			ServerURL:        "http://stream.example.com:8080",
			Username:         "u123",
			Password:         "p456",
			M3UURL:           "http://stream.example.com/playlist.m3u",
			EPGURL:           "http://stream.example.com/epg.xml",
			PortalURL:        "http://portal.example.com/c",
			MacAddress:       "00:1A:79:AA:BB:CC",
		}
	}

	m3u, err := env.service.Create(adminCaller, input(1, models.CredentialTypeM3U))
	require.NoError(t, err)
	assert.Empty(t, m3u.ServerURL)
	assert.Empty(t, m3u.Username)
	assert.Empty(t, m3u.Password)
	assert.Empty(t, m3u.PortalURL)
	assert.Empty(t, m3u.MacAddress)
	assert.Equal(t, "http://stream.example.com/playlist.m3u", m3u.M3UURL)
	assert.Equal(t, "http://stream.example.com/epg.xml", m3u.EPGURL)

	portal, err := env.service.Create(adminCaller, input(2, models.CredentialTypePortal))
	require.NoError(t, err)
	assert.Empty(t, portal.Username)
	assert.Empty(t, portal.M3UURL)
	assert.Equal(t, "http://portal.example.com/c", portal.PortalURL)
	assert.Equal(t, "00:1A:79:AA:BB:CC", portal.MacAddress)

	xtream, err := env.service.Create(adminCaller, input(3, models.CredentialTypeXtream))
	require.NoError(t, err)
	assert.Empty(t, xtream.M3UURL)
	assert.Empty(t, xtream.PortalURL)
	assert.Equal(t, "u123", xtream.Username)
}

func TestCredentialService_Create_RequiresVerifiedOrder(t *testing.T) {
	env := newCredentialEnv()
	user := env.users.add(models.User{Email: "buyer@example.com"})
	pending := env.orders.add(models.Order{OrderNo: "ord-p", UserID: user.ID, Connections: 1, Status: models.OrderStatusPending})
	rejected := env.orders.add(models.Order{OrderNo: "ord-r", UserID: user.ID, Connections: 1, Status: models.OrderStatusRejected})

	for _, orderID := range []uint{pending.ID, rejected.ID} {
		_, err := env.service.Create(adminCaller, CreateCredentialInput{
			OrderID:          orderID,
			ConnectionNumber: 1,
			CredentialType:   models.CredentialTypeM3U,
		})
		require.Error(t, err)
		assert.Equal(t, KindValidation, KindOf(err))
	}
}

func TestCredentialService_Create_SlotRules(t *testing.T) {
	env := newCredentialEnv()
	_, order := env.seedVerifiedOrder(2)

	// slot beyond the order's connection count
	_, err := env.service.Create(adminCaller, CreateCredentialInput{
		OrderID: order.ID, ConnectionNumber: 3, CredentialType: models.CredentialTypeM3U,
	})
	assert.Equal(t, KindValidation, KindOf(err))

	// slot outside 1..10
	_, err = env.service.Create(adminCaller, CreateCredentialInput{
		OrderID: order.ID, ConnectionNumber: 0, CredentialType: models.CredentialTypeM3U,
	})
	assert.Equal(t, KindValidation, KindOf(err))

	// first issuance for slot 1 works, the second conflicts
	_, err = env.service.Create(adminCaller, CreateCredentialInput{
		OrderID: order.ID, ConnectionNumber: 1, CredentialType: models.CredentialTypeM3U, M3UURL: "http://example.com/a.m3u",
	})
	require.NoError(t, err)
	_, err = env.service.Create(adminCaller, CreateCredentialInput{
		OrderID: order.ID, ConnectionNumber: 1, CredentialType: models.CredentialTypeM3U, M3UURL: "http://example.com/b.m3u",
	})
	assert.Equal(t, KindConflict, KindOf(err))

	// slot 2 is still free
	_, err = env.service.Create(adminCaller, CreateCredentialInput{
		OrderID: order.ID, ConnectionNumber: 2, CredentialType: models.CredentialTypeM3U, M3UURL: "http://example.com/c.m3u",
	})
	require.NoError(t, err)
}

func TestCredentialService_Create_AdminOnly(t *testing.T) {
	env := newCredentialEnv()
	_, order := env.seedVerifiedOrder(1)

	for _, role := range []string{models.RoleUser, models.RoleAgent} {
		_, err := env.service.Create(Caller{UserID: 5, Role: role}, CreateCredentialInput{
			OrderID: order.ID, ConnectionNumber: 1, CredentialType: models.CredentialTypeXtream,
		})
		assert.Equal(t, KindForbidden, KindOf(err), "role %s", role)
	}

	_, err := env.service.Create(adminCaller, CreateCredentialInput{
		OrderID: order.ID, ConnectionNumber: 1, CredentialType: "telnet",
	})
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestCredentialService_ByOrderAccess(t *testing.T) {
	env := newCredentialEnv()
	user, order := env.seedVerifiedOrder(1)
	stranger := env.users.add(models.User{Email: "other@example.com", Role: models.RoleUser})

	_, err := env.service.Create(adminCaller, CreateCredentialInput{
		OrderID: order.ID, ConnectionNumber: 1, CredentialType: models.CredentialTypeXtream,
	})
	require.NoError(t, err)

	creds, err := env.service.ByOrder(Caller{UserID: user.ID, Role: user.Role}, order.ID)
	require.NoError(t, err)
	assert.Len(t, creds, 1)

	_, err = env.service.ByOrder(Caller{UserID: stranger.ID, Role: stranger.Role}, order.ID)
	assert.Equal(t, KindForbidden, KindOf(err))

	mine, err := env.service.MyCredentials(Caller{UserID: user.ID, Role: user.Role})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = env.service.MyCredentials(Anonymous)
	assert.Equal(t, KindForbidden, KindOf(err))
}

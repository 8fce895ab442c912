package provision_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-provision"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	service := provision.NewTokenService([]byte("test-signing-key"), 24, "test-issuer", nil)

	identity := testIdentity{
		id:       uuid.NewString(),
		username: "alice",
		email:    "alice@example.com",
		role:     provision.RoleAdmin,
	}

	token, err := service.Generate(identity)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	session, err := service.Validate(token)
	require.NoError(t, err)

	assert.Equal(t, identity.id, session.GetUserID())
	assert.Equal(t, provision.RoleAdmin, session.GetRole())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.NotNil(t, session.GetIssuedAt())

	id, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, identity.id, id.String())
}

func TestTokenServiceValidateRejects(t *testing.T) {
	service := provision.NewTokenService([]byte("test-signing-key"), 24, "test-issuer", nil)

	identity := testIdentity{id: uuid.NewString(), username: "alice", role: provision.RoleUser}

	valid, err := service.Generate(identity)
	require.NoError(t, err)

	otherKey := provision.NewTokenService([]byte("another-key"), 24, "test-issuer", nil)
	forged, err := otherKey.Generate(identity)
	require.NoError(t, err)

	otherIssuer := provision.NewTokenService([]byte("test-signing-key"), 24, "someone-else", nil)
	misissued, err := otherIssuer.Generate(identity)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"wrong signing key", forged},
		{"wrong issuer", misissued},
		{"tampered", valid + "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := service.Validate(tt.token)
			assert.Nil(t, session)
			require.Error(t, err)

			var richErr *goerrors.Error
			require.True(t, goerrors.As(err, &richErr))
			assert.Equal(t, provision.TextCodeSessionDecodeError, richErr.TextCode)
		})
	}
}

func TestTokenServiceRejectsExpired(t *testing.T) {
	now := time.Now()
	claims := &provision.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
		},
		Role: string(provision.RoleUser),
	}

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	service := provision.NewTokenService([]byte("test-signing-key"), 24, "test-issuer", nil)

	session, err := service.Validate(expired)
	assert.Nil(t, session)
	assert.Error(t, err)
}

func TestTokenServiceRejectsUnexpectedSigningMethod(t *testing.T) {
	claims := &provision.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "test-issuer",
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	service := provision.NewTokenService([]byte("test-signing-key"), 24, "test-issuer", nil)

	session, err := service.Validate(unsigned)
	assert.Nil(t, session)
	assert.Error(t, err)
}

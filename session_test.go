package provision_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-provision"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionObject(t *testing.T) {
	id := uuid.New()
	issued := time.Now()

	session := &provision.SessionObject{
		UserID:   id.String(),
		Role:     provision.RoleAdmin,
		Issuer:   "test-issuer",
		IssuedAt: &issued,
	}

	assert.Equal(t, id.String(), session.GetUserID())
	assert.Equal(t, provision.RoleAdmin, session.GetRole())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.Equal(t, &issued, session.GetIssuedAt())

	parsed, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestHasUserUUID(t *testing.T) {
	tests := []struct {
		name    string
		session provision.Session
		want    bool
	}{
		{"valid uuid", &provision.SessionObject{UserID: uuid.NewString()}, true},
		{"malformed uuid", &provision.SessionObject{UserID: "user-42"}, false},
		{"empty", &provision.SessionObject{}, false},
		{"nil session", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, provision.HasUserUUID(tt.session))
		})
	}
}

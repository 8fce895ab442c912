package provision

import (
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

type SessionObject struct {
	UserID         string     `json:"user_id,omitempty"`
	Role           Role       `json:"role,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetRole() Role {
	return s.Role
}

func (s *SessionObject) GetIssuer() string {
	return s.Issuer
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func sessionFromClaims(claims *SessionClaims) *SessionObject {
	session := &SessionObject{
		UserID: claims.UID,
		Issuer: claims.Issuer,
	}

	if session.UserID == "" {
		session.UserID = claims.Subject
	}

	if role, ok := ParseRole(claims.Role); ok {
		session.Role = role
	}

	if claims.IssuedAt != nil {
		session.IssuedAt = &claims.IssuedAt.Time
	}

	if claims.ExpiresAt != nil {
		session.ExpirationDate = &claims.ExpiresAt.Time
	}

	return session
}

// HasUserUUID reports whether Session.GetUserUUID will succeed.
func HasUserUUID(session Session) bool {
	if session == nil {
		return false
	}
	_, err := session.GetUserUUID()
	return err == nil
}

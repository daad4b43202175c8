package model

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/google/uuid"
)

// Rotating tokens are broadcast to everyone present; the only secret is the
// short TTL. Five uppercase letters, same alphabet the dashboard displays.
const (
	tokenCodeLength   = 5
	tokenCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// DefaultTokenPoints is the fallback award when no attendance schedule
	// is configured.
	DefaultTokenPoints = 10
)

// RotatingToken is a short-lived attendance code. Immutable once issued;
// after ExpiresAt it is inert and will be purged by the next minter cycle.
// Tokens are never consumed by a claim: any number of members may redeem the
// same token within its TTL, duplicate awards are prevented per member by
// WeeklyClaimRecord.
type RotatingToken struct {
	ID            string
	Code          string
	IssuedAt      time.Time
	ExpiresAt     time.Time
	WeekID        string
	PointsDefault int
}

func NewRotatingToken(now time.Time, validity time.Duration, weekID string) (*RotatingToken, error) {
	code, err := randomCode(tokenCodeAlphabet, tokenCodeLength)
	if err != nil {
		return nil, err
	}
	return &RotatingToken{
		ID:            uuid.NewString(),
		Code:          code,
		IssuedAt:      now,
		ExpiresAt:     now.Add(validity),
		WeekID:        weekID,
		PointsDefault: DefaultTokenPoints,
	}, nil
}

// Expired reports whether the token is inert at the given instant. The
// boundary is exclusive: a token is claimable strictly before ExpiresAt.
func (t *RotatingToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// IsTokenFormat reports whether code falls inside the rotating-token
// namespace (exactly five uppercase letters). Event codes are rejected at
// creation when they match, keeping the two namespaces disjoint.
func IsTokenFormat(code string) bool {
	if len(code) != tokenCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

func randomCode(alphabet string, length int) (string, error) {
	buf := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf), nil
}

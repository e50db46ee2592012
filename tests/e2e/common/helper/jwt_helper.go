//go:build e2e

package helper

import (
	"testing"
	"time"

	"support-center/internal/handler/middleware"
	"support-center/internal/pkg/config"
	"support-center/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Actors are external identities carried in the token; there is no user
// table, so tokens are minted directly with the app's signing secret.
type JWTTestHelper struct {
	cfg config.JWTConfig
}

func NewJWTTestHelper(cfg config.JWTConfig) *JWTTestHelper {
	return &JWTTestHelper{cfg: cfg}
}

func (h *JWTTestHelper) GenerateToken(t *testing.T, actorID uuid.UUID, role string) string {
	t.Helper()

	duration, err := time.ParseDuration(h.cfg.Duration)
	require.NoError(t, err)
	service := jwt.NewService(h.cfg.Secret, duration)
	token, err := service.GenerateToken(actorID, role)
	require.NoError(t, err)
	return token
}

func (h *JWTTestHelper) ManagerToken(t *testing.T) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	return id, h.GenerateToken(t, id, middleware.RoleManager)
}

func (h *JWTTestHelper) TechnicianToken(t *testing.T, technicianRef uuid.UUID) string {
	t.Helper()
	return h.GenerateToken(t, technicianRef, middleware.RoleTechnician)
}

func (h *JWTTestHelper) CreateExpiredToken(t *testing.T, actorID uuid.UUID, role string) string {
	t.Helper()

	service := jwt.NewService(h.cfg.Secret, 1*time.Millisecond)
	token, err := service.GenerateToken(actorID, role)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	return token
}

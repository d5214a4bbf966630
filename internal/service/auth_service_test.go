package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/smpn3pacet/database-siswa-api/internal/models"
	appErrors "github.com/smpn3pacet/database-siswa-api/pkg/errors"
)

type stubUserStore struct {
	users  map[string]*models.User
	tokens map[string]*models.RefreshToken
}

func newStubUserStore(users ...*models.User) *stubUserStore {
	store := &stubUserStore{users: map[string]*models.User{}, tokens: map[string]*models.RefreshToken{}}
	for _, u := range users {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		store.users[u.ID] = u
	}
	return store
}

func (s *stubUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserStore) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (s *stubUserStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	if u, ok := s.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

func (s *stubUserStore) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	clone := *token
	s.tokens[token.Token] = &clone
	return nil
}

func (s *stubUserStore) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := s.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *stored
	return &clone, nil
}

func (s *stubUserStore) RevokeRefreshToken(_ context.Context, id string) error {
	for _, t := range s.tokens {
		if t.ID == id {
			t.Revoked = true
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *stubUserStore) RevokeAllForUser(_ context.Context, userID string) error {
	for _, t := range s.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func authFixture(t *testing.T) (*AuthService, *stubUserStore, *models.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("rahasia-123"), bcrypt.MinCost)
	require.NoError(t, err)
	studentID := "student-1"
	user := &models.User{
		ID:           "user-1",
		Email:        "siti@smpn3pacet.sch.id",
		PasswordHash: string(hash),
		FullName:     "Siti Rahma",
		Role:         models.RoleStudent,
		StudentID:    &studentID,
		Active:       true,
	}
	users := newStubUserStore(user)
	svc := NewAuthService(users, &stubAudit{}, AuthConfig{JWTSecret: "test-secret"}, nil)
	return svc, users, user
}

func TestLoginAndValidateToken(t *testing.T) {
	svc, users, user := authFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    user.Email,
		Password: "rahasia-123",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, user.Email, resp.User.Email)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.UserID)
	require.Equal(t, models.RoleStudent, claims.Role)
	require.Equal(t, "student-1", claims.StudentID)

	require.NotNil(t, users.users[user.ID].LastLogin)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, user := authFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "salah"})
	require.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "tidak-ada@example.com", Password: "x"})
	require.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, users, user := authFixture(t)
	users.users[user.ID].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "rahasia-123"})
	require.ErrorIs(t, err, appErrors.ErrInactiveAccount)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, users, user := authFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "rahasia-123"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, rotated.RefreshToken)
	require.True(t, users.tokens[login.RefreshToken].Revoked)

	// The spent token cannot be replayed.
	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestLogoutRevokesAllTokens(t *testing.T) {
	svc, users, user := authFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "rahasia-123"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), user.ID))
	require.True(t, users.tokens[login.RefreshToken].Revoked)

	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _, user := authFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "rahasia-123"})
	require.NoError(t, err)

	other := NewAuthService(newStubUserStore(), nil, AuthConfig{JWTSecret: "different-secret"}, nil)
	_, err = other.ValidateToken(login.AccessToken)
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken(login.AccessToken + "x")
	require.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aerosense/aerosense-api/internal/application/auth"
	"github.com/aerosense/aerosense-api/internal/application/user"
	"github.com/aerosense/aerosense-api/internal/domain"
)

// --- mocks ---

type mockUserService struct{ mock.Mock }

func (m *mockUserService) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, *domain.Profile, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*domain.User)
	p, _ := args.Get(1).(*domain.Profile)
	return u, p, args.Error(2)
}
func (m *mockUserService) GetSelf(ctx context.Context, userID int64) (*user.SelfView, error) {
	args := m.Called(ctx, userID)
	if v, _ := args.Get(0).(*user.SelfView); v != nil {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserService) ChangePassword(ctx context.Context, userID int64, req domain.ChangePasswordRequest) error {
	return m.Called(ctx, userID, req).Error(0)
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Login(ctx context.Context, req domain.LoginRequest) (*auth.LoginResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*auth.LoginResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func postJSON(t *testing.T, h http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, target, buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

// --- Signup ---

func TestSignup_Created(t *testing.T) {
	us := &mockUserService{}
	us.On("Register", mock.Anything, domain.CreateUserRequest{
		FullName: "A B", Email: "a@x.com", Password: "pw1pw1pw1",
	}).Return(
		&domain.User{ID: 1, Email: "a@x.com", FullName: "A B"},
		&domain.Profile{ID: 10, UserID: 1, ProfileImage: domain.DefaultProfileImage},
		nil,
	)
	h := NewAuthHandler(&mockAuthService{}, us)

	rr := postJSON(t, h.Signup, "/api/auth/signup", map[string]string{
		"fullName": "A B", "email": "a@x.com", "password": "pw1pw1pw1",
	})

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp RegisterEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "User registered successfully with profile.", resp.Message)
	require.NotNil(t, resp.Profile)
	assert.Equal(t, domain.DefaultProfileImage, resp.Profile.ProfileImage)
	assert.Nil(t, resp.Profile.Bio)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	us := &mockUserService{}
	us.On("Register", mock.Anything, mock.Anything).
		Return(nil, nil, domain.ErrConflict)
	h := NewAuthHandler(&mockAuthService{}, us)

	rr := postJSON(t, h.Signup, "/api/auth/signup", map[string]string{
		"fullName": "A B", "email": "a@x.com", "password": "pw1pw1pw1",
	})

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestSignup_InvalidBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, &mockUserService{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	h.Signup(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- Login ---

func TestLogin_ReturnsToken(t *testing.T) {
	as := &mockAuthService{}
	as.On("Login", mock.Anything, domain.LoginRequest{Email: "a@x.com", Password: "pw1pw1pw1"}).
		Return(&auth.LoginResult{
			Token: "signed-token",
			User:  auth.LoginUser{ID: 1, FullName: "A B", Email: "a@x.com"},
		}, nil)
	h := NewAuthHandler(as, &mockUserService{})

	rr := postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email": "a@x.com", "password": "pw1pw1pw1",
	})

	require.Equal(t, http.StatusOK, rr.Code)
	var resp auth.LoginResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "signed-token", resp.Token)
	assert.Equal(t, "a@x.com", resp.User.Email)
}

func TestLogin_BadCredentials(t *testing.T) {
	as := &mockAuthService{}
	as.On("Login", mock.Anything, mock.Anything).
		Return(nil, domain.ErrUnauthorized)
	h := NewAuthHandler(as, &mockUserService{})

	rr := postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email": "a@x.com", "password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

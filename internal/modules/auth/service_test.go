package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tutorbook/internal/domain"
	"tutorbook/internal/middleware"
	"tutorbook/internal/pkg/jwt"
	"tutorbook/internal/pkg/logger"
	"tutorbook/internal/repository/repotest"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if args.Error(0) == nil {
		u.ID = 1
	}
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func newTestService(users UserRepository) (*Service, *jwt.Service) {
	tokens := jwt.New("test-secret", time.Hour)
	svc := NewService(users, tokens, logger.Discard())
	svc.cost = bcrypt.MinCost
	return svc, tokens
}

func TestRegister_Success(t *testing.T) {
	users := new(mockUserRepo)
	svc, _ := newTestService(users)

	users.On("GetByEmail", mock.Anything, "ann@example.com").Return(nil, domain.ErrNotFound)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "ann@example.com" && u.Role == domain.RoleTutor &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret123")) == nil
	})).Return(nil)

	u, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Ann", Email: "  Ann@Example.com ", Password: "secret123", Role: "tutor",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Empty(t, u.PasswordHash)
	users.AssertExpectations(t)
}

func TestRegister_EmailTaken(t *testing.T) {
	users := new(mockUserRepo)
	svc, _ := newTestService(users)

	users.On("GetByEmail", mock.Anything, "ann@example.com").Return(&domain.User{ID: 3}, nil)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Ann", Email: "ann@example.com", Password: "secret123", Role: "student",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_AdminRoleRejected(t *testing.T) {
	svc, _ := newTestService(new(mockUserRepo))

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name: "Root", Email: "root@example.com", Password: "secret123", Role: "admin",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogin(t *testing.T) {
	users := new(mockUserRepo)
	svc, tokens := newTestService(users)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	users.On("GetByEmail", mock.Anything, "ann@example.com").
		Return(&domain.User{ID: 9, Email: "ann@example.com", PasswordHash: string(hash), Role: domain.RoleStudent}, nil)
	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, domain.ErrNotFound)

	res, err := svc.Login(context.Background(), LoginRequest{Email: "ann@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Empty(t, res.User.PasswordHash)

	claims, err := tokens.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(9), claims.UserID)
	assert.Equal(t, "student", claims.Role)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "ann@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestHandler_RegisterLoginMe(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := repotest.NewStore(t)
	svc, tokens := newTestService(store.Users())

	r := gin.New()
	public := r.Group("/api/v1")
	protected := r.Group("/api/v1", middleware.JWTAuth(tokens))
	NewHandler(svc, logger.Discard()).RegisterRoutes(public, protected)

	send := func(method, path, body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	body := `{"name":"Bob","email":"bob@example.com","password":"longpassword","role":"student"}`
	w := send(http.MethodPost, "/api/v1/auth/register", body, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")

	w = send(http.MethodPost, "/api/v1/auth/register", body, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = send(http.MethodPost, "/api/v1/auth/register", `{"name":"Bob","email":"not-an-email","password":"longpassword","role":"student"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(http.MethodPost, "/api/v1/auth/login", `{"email":"bob@example.com","password":"nope"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = send(http.MethodPost, "/api/v1/auth/login", `{"email":"bob@example.com","password":"longpassword"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var login struct {
		Data LoginResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Data.AccessToken)

	w = send(http.MethodGet, "/api/v1/auth/me", "", login.Data.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bob@example.com")
}

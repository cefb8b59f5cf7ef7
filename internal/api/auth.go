package api

import (
	"errors"
	"net/http"
	"time"

	"aussieguide-backend/internal/auth"
	"aussieguide-backend/internal/database"
	"aussieguide-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type AuthService struct {
	db     *gorm.DB
	tokens *auth.TokenIssuer
}

func NewAuthService(db *gorm.DB, tokens *auth.TokenIssuer) *AuthService {
	return &AuthService{db: db, tokens: tokens}
}

func (s *AuthService) AddRoutes(r chi.Router) {
	r.Post("/register", RestHandler(s.Register))
	r.Post("/login", RestHandler(s.Login))
}

func (s *AuthService) Register(r *http.Request) (any, error) {
	req, err := ParseRequest[api.RegisterRequest](r)
	if err != nil {
		return nil, err
	}

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "username, email, and password are required")
	}

	taken, err := database.UserExists(s.db, req.Username, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, CodedErrorf(http.StatusBadRequest, "username or email already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := database.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hash,
		CreatedAt:      time.Now().UTC(),
	}
	if err := database.CreateUser(s.db, &user); err != nil {
		return nil, err
	}

	return api.RegisterResponse{Username: user.Username}, nil
}

func (s *AuthService) Login(r *http.Request) (any, error) {
	req, err := ParseFormRequest[api.LoginRequest](r)
	if err != nil {
		return nil, err
	}

	user, err := database.GetUserByUsername(s.db, req.Username)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, CodedErrorf(http.StatusUnauthorized, "incorrect username or password")
	}
	if err != nil {
		return nil, err
	}

	if !auth.CheckPassword(req.Password, user.HashedPassword) {
		return nil, CodedErrorf(http.StatusUnauthorized, "incorrect username or password")
	}

	token, err := s.tokens.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}

	return api.LoginResponse{AccessToken: token, TokenType: "bearer"}, nil
}

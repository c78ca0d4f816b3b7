package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"freightops/internal/model"
	"freightops/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	FullName string `json:"full_name"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required,oneof=admin manager staff"`
}

type LoginUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// UserListFilter is the typed query of the operator listing
type UserListFilter struct {
	Role   string
	Search string
	Page   int
	Limit  int
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt string    `json:"created_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error)
	EnsureAdmin(ctx context.Context, username, password string) (bool, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, filter UserListFilter) ([]UserResponse, int64, error)
}

type userService struct {
	repo      repository.UserRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	secret    []byte
	tokenTTL  time.Duration
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager, secret string, tokenTTL time.Duration) UserService {
	return &userService{repo: repo, auditRepo: auditRepo, txManager: txManager, secret: []byte(secret), tokenTTL: tokenTTL}
}

// Helper: check if role is allowed
func validateRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleManager || role == model.RoleStaff
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		FullName:  user.FullName,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func (s *userService) CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (*UserResponse, error) {
	if err := actor.validate(); err != nil {
		return nil, err
	}
	if !validateRole(req.Role) {
		return nil, Validation("invalid role: must be admin, manager or staff")
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, Validation("username is required")
	}
	if len(req.Password) < 6 {
		return nil, Validation("password must be at least 6 characters")
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, Conflict("username already exists")
	} else if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username: username,
		FullName: req.FullName,
		Password: string(hashedPassword),
		Role:     req.Role,
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			if repository.IsUniqueViolation(err, "users", "username") {
				return Conflict("username already exists")
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateUser, user.ID.String(), user.Username,
			map[string]interface{}{"role": user.Role})
	})
	if err != nil {
		return nil, err
	}

	return mapToResponse(user), nil
}

// EnsureAdmin creates the first admin account when the users table is empty.
// It reports whether an account was created.
func (s *userService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 || username == "" || password == "" {
		return false, nil
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &model.User{Username: username, FullName: "Administrator", Password: string(hashedPassword), Role: model.RoleAdmin}
	if err := s.repo.Create(ctx, user); err != nil {
		return false, fmt.Errorf("failed to create admin: %w", err)
	}
	return true, nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, Unauthorized("invalid username or password")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, Unauthorized("invalid username or password")
	}

	expiresAt := time.Now().Add(s.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      user.ID.String(),
		"username": user.Username,
		"role":     user.Role,
		"exp":      expiresAt.Unix(),
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &TokenResponse{Token: tokenString, ExpiresAt: expiresAt.UTC().Format(time.RFC3339)}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	userID, err := parseID(id, "user id")
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user not found")
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, filter UserListFilter) ([]UserResponse, int64, error) {
	if filter.Role != "" && !validateRole(filter.Role) {
		return nil, 0, Validation("unknown role %q", filter.Role)
	}
	page, limit := normalizePage(filter.Page, filter.Limit)

	users, total, err := s.repo.List(ctx, repository.UserFilter{
		Role:   filter.Role,
		Search: strings.TrimSpace(filter.Search),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}

	return responses, total, nil
}

package auth

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"coswo/pkg/apperr"
)

type UserService struct {
	repo *UserRepository
	log  *zap.Logger
}

func NewUserService(repo *UserRepository, log *zap.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

func validRole(role string) bool {
	switch role {
	case RoleDonor, RoleBatchStaff, RoleAdministrator:
		return true
	}
	return false
}

func (s *UserService) RegisterUser(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "name, email and password are required")
	}
	if !validRole(req.Role) {
		return nil, apperr.New(apperr.KindInvalidInput, "role must be Donor, Batch staff or Administrator")
	}

	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.New(apperr.KindConflict, "email already registered")
	}

	hashPassword, err := HashPassword(req.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnavailable, "password hashing failed", err)
	}

	now := time.Now()
	user := &User{
		ID:           primitive.NewObjectID(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashPassword,
		Role:         req.Role,
		PhoneNumber:  req.PhoneNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("User registered", zap.String("email", user.Email), zap.String("role", user.Role))
	return user, nil
}

func (s *UserService) AuthenticateUser(ctx context.Context, cred Credential) (string, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(strings.ToLower(cred.Email)))
	if err != nil {
		return "", err
	}
	if user == nil || !CheckPasswordHash(cred.Password, user.PasswordHash) {
		return "", apperr.New(apperr.KindForbidden, "invalid credentials")
	}

	token, err := GenerateJWT(user.ID.Hex(), user.Name, user.Email, user.Role, 24*time.Hour)
	if err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, "token not generated", err)
	}
	return token, nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*User, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperr.New(apperr.KindInvalidInput, "invalid user id")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	return user, nil
}

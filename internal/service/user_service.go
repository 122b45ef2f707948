package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("email address is not verified")
	ErrAlreadyVerified    = errors.New("email address is already verified")
	ErrInvalidResetToken  = errors.New("reset token is invalid or expired")
)

const resetTokenTTL = time.Hour

// UserStore is the persistence surface the user service needs
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	MarkUserVerified(ctx context.Context, id string) (bool, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
	UpdateUser(ctx context.Context, user *models.User) error
	PromoteUser(ctx context.Context, id string) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, query string, limit, offset int) ([]models.User, error)
	CountUsers(ctx context.Context, query string) (int, error)

	CreateAddress(ctx context.Context, a *models.UserAddress) error
	GetAddressByID(ctx context.Context, id string) (*models.UserAddress, error)
	ListAddresses(ctx context.Context, userID string) ([]models.UserAddress, error)
	UpdateAddress(ctx context.Context, a *models.UserAddress) error
	DeleteAddress(ctx context.Context, id string) error
}

// ResetTokenStore keeps single-use password reset tokens
type ResetTokenStore interface {
	SetResetToken(ctx context.Context, token, userID string, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (string, error)
}

// UserPublisher enqueues account-related notification emails
type UserPublisher interface {
	PublishVerificationEmail(ctx context.Context, event *models.VerificationEmailEvent) error
	PublishPasswordResetEmail(ctx context.Context, event *models.PasswordResetEmailEvent) error
}

type UserService struct {
	store     UserStore
	tokens    *auth.TokenService
	resets    ResetTokenStore
	publisher UserPublisher
	logger    *zap.Logger
}

func NewUserService(st UserStore, tokens *auth.TokenService, resets ResetTokenStore, publisher UserPublisher) *UserService {
	return &UserService{
		store:     st,
		tokens:    tokens,
		resets:    resets,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// RegisterRequest carries a new account signup
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	IsSeller bool   `json:"is_seller"`
}

// Register creates an unverified account and enqueues the verification
// email. The account cannot log in until the emailed token is redeemed.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Register")
	defer span.End()

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Email:    req.Email,
		Password: hash,
		IsSeller: req.IsSeller,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	verifyToken, err := s.tokens.IssueVerifyToken(user.ID)
	if err != nil {
		s.logger.Error("Failed to issue verification token",
			zap.String("user_id", user.ID),
			zap.Error(err))
		return user, nil
	}

	event := &models.VerificationEmailEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeVerificationEmail,
			Timestamp: time.Now(),
		},
		Email: user.Email,
		Name:  user.Name,
		Token: verifyToken,
	}
	if err := s.publisher.PublishVerificationEmail(ctx, event); err != nil {
		s.logger.Error("Failed to enqueue verification email",
			zap.String("user_id", user.ID),
			zap.Error(err))
	}

	return user, nil
}

// Login checks credentials and returns a fresh token pair. Unverified
// accounts are rejected even with the correct password.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, *auth.TokenPair, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Login")
	defer span.End()

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !auth.CheckPassword(password, user.Password) {
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, nil, ErrNotVerified
	}

	pair, err := s.tokens.IssueTokenPair(user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	ctx, span := util.StartSpan(ctx, "UserService.Refresh")
	defer span.End()

	userID, err := s.tokens.Verify(refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	// The account must still exist for the pair to be reissued
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, err
	}

	return s.tokens.IssueTokenPair(userID)
}

// VerifyEmail redeems an emailed verification token
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	ctx, span := util.StartSpan(ctx, "UserService.VerifyEmail")
	defer span.End()

	userID, err := s.tokens.Verify(token, auth.TokenTypeVerify)
	if err != nil {
		return err
	}

	updated, err := s.store.MarkUserVerified(ctx, userID)
	if err != nil {
		return err
	}
	if !updated {
		return ErrAlreadyVerified
	}

	s.logger.Info("User verified", zap.String("user_id", userID))
	return nil
}

// ForgotPassword issues a single-use reset token and enqueues the reset
// email. Unknown addresses return success so the endpoint cannot be used
// to probe which emails are registered.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := util.StartSpan(ctx, "UserService.ForgotPassword")
	defer span.End()

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Info("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := generateResetToken()
	if err != nil {
		return err
	}

	if err := s.resets.SetResetToken(ctx, token, user.ID, resetTokenTTL); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	event := &models.PasswordResetEmailEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypePasswordResetEmail,
			Timestamp: time.Now(),
		},
		Email: user.Email,
		Token: token,
	}
	if err := s.publisher.PublishPasswordResetEmail(ctx, event); err != nil {
		s.logger.Error("Failed to enqueue password reset email",
			zap.String("user_id", user.ID),
			zap.Error(err))
	}

	return nil
}

// ResetPassword consumes a reset token and replaces the password. The
// token is deleted on first use, so replaying it fails.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	ctx, span := util.StartSpan(ctx, "UserService.ResetPassword")
	defer span.End()

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}

	userID, err := s.resets.ConsumeResetToken(ctx, token)
	if err != nil {
		return ErrInvalidResetToken
	}

	if err := s.store.UpdateUserPassword(ctx, userID, hash); err != nil {
		return err
	}

	s.logger.Info("Password reset", zap.String("user_id", userID))
	return nil
}

// GetUser loads a user's profile
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// UpdateProfileRequest carries a profile edit. Empty fields keep their
// current value.
type UpdateProfileRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password"`
}

// UpdateProfile edits the account's name, email or password
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*models.User, error) {
	ctx, span := util.StartSpan(ctx, "UserService.UpdateProfile")
	defer span.End()

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return user, nil
}

// PromoteAdmin grants a user admin rights
func (s *UserService) PromoteAdmin(ctx context.Context, id string) error {
	ctx, span := util.StartSpan(ctx, "UserService.PromoteAdmin")
	defer span.End()

	if err := s.store.PromoteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("User promoted to admin", zap.String("user_id", id))
	return nil
}

// DeleteUser removes an account
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	ctx, span := util.StartSpan(ctx, "UserService.DeleteUser")
	defer span.End()

	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("User deleted", zap.String("user_id", id))
	return nil
}

// UserPage is one page of an admin user listing
type UserPage struct {
	Users []models.User `json:"users"`
	Count int           `json:"count"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
}

// ListUsers returns a paged admin listing, optionally filtered by name
func (s *UserService) ListUsers(ctx context.Context, query string, page, pageSize int) (*UserPage, error) {
	ctx, span := util.StartSpan(ctx, "UserService.ListUsers")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	users, err := s.store.ListUsers(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountUsers(ctx, query)
	if err != nil {
		return nil, err
	}

	pages := (count + pageSize - 1) / pageSize
	return &UserPage{Users: users, Count: count, Page: page, Pages: pages}, nil
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitebuddy-backend/internal/apperr"
	"bitebuddy-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserService handles authentication and profile business logic
type UserService struct {
	profiles  ProfileStore
	jwtSecret string
	jwtTTL    time.Duration
}

// NewUserService creates a new user service
func NewUserService(profiles ProfileStore, jwtSecret string, ttlDays int) *UserService {
	return &UserService{
		profiles:  profiles,
		jwtSecret: jwtSecret,
		jwtTTL:    time.Duration(ttlDays) * 24 * time.Hour,
	}
}

// Signup registers a new user. The profile is created as part of the
// first authentication event.
func (s *UserService) Signup(ctx context.Context, email, password, username, displayName string) (*models.Profile, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	username = strings.TrimSpace(username)

	if email == "" || password == "" || username == "" {
		return nil, "", apperr.Validation("email, password, and username are required")
	}
	if !strings.Contains(email, "@") {
		return nil, "", apperr.Validation("invalid email address")
	}
	if len(password) < minPasswordLength {
		return nil, "", apperr.Newf(apperr.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}
	if displayName == "" {
		displayName = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	profile := &models.Profile{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Username:     username,
		DisplayName:  displayName,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, "", err
	}

	token, err := s.GenerateJWT(profile.ID)
	if err != nil {
		return nil, "", err
	}
	return profile, token, nil
}

// Login authenticates an email/password pair and issues a token
func (s *UserService) Login(ctx context.Context, email, password string) (*models.Profile, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, "", apperr.Validation("email and password are required")
	}

	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if apperr.CodeOf(err) == apperr.CodeNotFound {
			return nil, "", apperr.Authentication("invalid email or password")
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, "", apperr.Authentication("invalid email or password")
	}

	token, err := s.GenerateJWT(profile.ID)
	if err != nil {
		return nil, "", err
	}
	return profile, token, nil
}

// GetProfile returns a profile by user ID
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return s.profiles.GetByID(ctx, userID)
}

// UpdateProfile mutates the caller's display name and avatar
func (s *UserService) UpdateProfile(ctx context.Context, userID string, displayName, avatarURL *string) (*models.Profile, error) {
	if displayName != nil && strings.TrimSpace(*displayName) == "" {
		return nil, apperr.Validation("display_name cannot be empty")
	}
	return s.profiles.Update(ctx, userID, displayName, avatarURL)
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(s.jwtTTL).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

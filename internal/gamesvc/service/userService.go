package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avvvet/pickup-services/internal/apperror"
	"github.com/avvvet/pickup-services/internal/gamesvc/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// Registration is the body of a sign-up request.
type Registration struct {
	Username     string `json:"username" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Phone        string `json:"phone"`
	ZipCode      string `json:"zipCode"`
	ReferralType string `json:"referralType"`
}

// UserService struct represents the user service layer
type UserService struct {
	userStore UserStore
}

// NewUserService creates a new UserService instance
func NewUserService(userStore UserStore) *UserService {
	return &UserService{
		userStore: userStore,
	}
}

// Register creates a user with a hashed password and default profile.
func (s *UserService) Register(ctx context.Context, reg Registration) (*models.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = normalizeEmail(reg.Email)

	if err := validateStruct(reg); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		Username:     reg.Username,
		Email:        reg.Email,
		Password:     string(hash),
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		Phone:        strings.TrimSpace(reg.Phone),
		ZipCode:      strings.TrimSpace(reg.ZipCode),
		ReferralType: reg.ReferralType,
		Role:         models.RoleRegular,
		Profile: models.Profile{
			EmailList: []string{},
			Notify:    true,
			Payments:  []models.ProfilePayment{},
		},
		Metrics: models.Metrics{JoinDate: time.Now().UTC()},
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		return nil, err
	}
	log.WithField("username", user.Username).Info("user registered")
	return user, nil
}

// Authenticate checks an e-mail/password pair and counts the login.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userStore.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if err := s.userStore.IncrementLoginCount(ctx, user.Username); err != nil {
		log.WithError(err).WithField("username", user.Username).Warn("Error [UserService.Authenticate] login count")
	} else {
		user.Metrics.LoginCount++
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userStore.GetByUsername(ctx, username)
}

// UpdateProfile applies patch to the user's profile and returns the stored profile.
func (s *UserService) UpdateProfile(ctx context.Context, username string, patch models.ProfilePatch) (*models.Profile, error) {
	user, err := s.userStore.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if patch.PayoutsEmail != nil {
		email := normalizeEmail(*patch.PayoutsEmail)
		if email != "" && !validEmail(email) {
			return nil, apperror.ValidationFailed("payoutsEmail", "payoutsEmail is invalid")
		}
		user.Profile.PayoutsEmail = email
	}
	if patch.EmailList != nil {
		if !validEmails(*patch.EmailList) {
			return nil, apperror.ValidationFailed("emailList", "emailList contains an invalid address")
		}
		user.Profile.EmailList = *patch.EmailList
	}
	if patch.Notify != nil {
		user.Profile.Notify = *patch.Notify
	}

	if err := s.userStore.Save(ctx, user); err != nil {
		return nil, err
	}
	return &user.Profile, nil
}

package services

import (
	"errors"
	"strings"

	"github.com/verto-app/verto/internal/errs"
	"github.com/verto-app/verto/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserProfile struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	JobTitle    string `json:"job_title"`
	Location    string `json:"location"`
	Bio         string `json:"bio"`
	PhoneNumber string `json:"phone_number"`
}

type ProfileUpdate struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	JobTitle    *string `json:"job_title"`
	Location    *string `json:"location"`
	Bio         *string `json:"bio"`
	PhoneNumber *string `json:"phone_number"`
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) FindByEmail(email string) (*models.User, error) {
	var user models.User

	err := s.db.Where("email = ?", email).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

func (s *UserService) FindByID(id uint) (*models.User, error) {
	var user models.User

	err := s.db.First(&user, id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &user, nil
}

// Create registers an account for an already-normalized email. The default
// display name is the local part of the address.
func (s *UserService) Create(email, passwordHash string) (*models.User, error) {
	displayName := email

	if at := strings.Index(email, "@"); at > 0 {
		displayName = email[:at]
	}

	user := models.User{
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
	}

	if err := s.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errs.ErrEmailTaken
		}
		return nil, err
	}

	return &user, nil
}

func (s *UserService) ProfileByID(userID uint) (*UserProfile, error) {
	user, err := s.FindByID(userID)

	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errs.ErrUserNotFound
	}

	profile := s.ToProfile(user)
	return &profile, nil
}

func (s *UserService) UpdateProfile(userID uint, update ProfileUpdate) (*UserProfile, error) {
	user, err := s.FindByID(userID)

	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errs.ErrUserNotFound
	}

	if update.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*update.DisplayName)
	}

	if update.AvatarURL != nil {
		user.AvatarURL = strings.TrimSpace(*update.AvatarURL)
	}

	if update.JobTitle != nil {
		user.JobTitle = strings.TrimSpace(*update.JobTitle)
	}

	if update.Location != nil {
		user.Location = strings.TrimSpace(*update.Location)
	}

	if update.Bio != nil {
		user.Bio = strings.TrimSpace(*update.Bio)
	}

	if update.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*update.PhoneNumber)
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}

	profile := s.ToProfile(user)
	return &profile, nil
}

func (s *UserService) UpdatePassword(userID uint, currentPassword, newPassword string) (*UserProfile, error) {
	user, err := s.FindByID(userID)

	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, errs.ErrUserNotFound
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return nil, errs.ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)

	if err != nil {
		return nil, err
	}

	user.PasswordHash = string(hash)

	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}

	profile := s.ToProfile(user)
	return &profile, nil
}

func (s *UserService) ToProfile(user *models.User) UserProfile {
	return UserProfile{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		JobTitle:    user.JobTitle,
		Location:    user.Location,
		Bio:         user.Bio,
		PhoneNumber: user.PhoneNumber,
	}
}

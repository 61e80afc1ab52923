package services

import (
	"errors"
	"strings"

	"github.com/forbiddenlink/finance-quest-sub016/database"
	"github.com/forbiddenlink/finance-quest-sub016/models"
	"github.com/forbiddenlink/finance-quest-sub016/utils"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type UserService struct {
	db        *database.Database
	validator *validator.Validate
}

type UserDTO struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type CreateUserRequest struct {
	FirstName string `json:"firstName" validate:"required,min=2,max=50"`
	LastName  string `json:"lastName" validate:"required,min=2,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
}

func NewUserService(db *database.Database) *UserService {
	return &UserService{db: db, validator: validator.New()}
}

// CreateUser registers a user with a bcrypt hashed password
func (h *UserService) CreateUser(req CreateUserRequest) (*models.User, error) {
	if err := h.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	email := strings.TrimSpace(req.Email)
	var existingUser models.User
	if err := h.db.DB.Where("LOWER(email) = LOWER(?)", email).First(&existingUser).Error; err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
		Password:  hashedPassword,
	}
	if err := h.db.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user if the password matches
func (h *UserService) Authenticate(email, password string) (*models.User, error) {
	user, err := h.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if !utils.VerifyPassword(password, user.Password) {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// FindByID looks a user up by primary key
func (h *UserService) FindByID(id uint) (*models.User, error) {
	user, err := h.db.GetUserByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// FindByEmail looks a user up by email ignoring case and surrounding spaces
func (h *UserService) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := h.db.DB.Where("LOWER(TRIM(email)) = LOWER(TRIM(?))", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ToDTO strips the password hash
func (h *UserService) ToDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}
}

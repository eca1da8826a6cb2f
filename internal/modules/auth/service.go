package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/models"
	sessionpkg "github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/pkg/session"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	errAuthUserNotFound   = errors.New("user not found")
	errAuthWrongPassword  = errors.New("wrong password")
	errUsernameTaken      = errors.New("username already taken")
	errUsernameOrPassword = errors.New("username and password are required")
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) Login(username, password, ip, ua string) (string, error) {
	var u models.UserModel
	if err := s.db.Select("id, password").
		Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			time.Sleep(3 * time.Second)
			return "", errAuthUserNotFound
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		time.Sleep(3 * time.Second)
		return "", errAuthWrongPassword
	}

	now := time.Now()
	_ = s.db.Model(&models.UserModel{}).Where("id = ?", u.ID).
		Updates(map[string]interface{}{"last_login_time": &now, "last_login_ip": ip}).Error

	token, _, err := sessionpkg.Issue(s.db, u.ID, ip, ua, sessionpkg.DefaultTTL)
	return token, err
}

func (s *Service) Register(dto *RegisterDTO) (*models.UserModel, error) {
	username := strings.TrimSpace(dto.Username)
	if username == "" || dto.Password == "" {
		return nil, errUsernameOrPassword
	}

	var count int64
	s.db.Model(&models.UserModel{}).Where("username = ?", username).Count(&count)
	if count > 0 {
		return nil, errUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(dto.Name)
	if name == "" {
		name = username
	}
	u := models.UserModel{Username: username, Password: string(hash), Name: name, Mail: strings.TrimSpace(dto.Mail)}
	return &u, s.db.Create(&u).Error
}

func (s *Service) Logout(userID, sessionID string) error {
	return sessionpkg.Revoke(s.db, userID, sessionID)
}

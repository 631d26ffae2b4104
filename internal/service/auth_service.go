package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"lumo.kr/auragram/internal/dto"
	"lumo.kr/auragram/internal/model"
	"lumo.kr/auragram/internal/repository"
	"lumo.kr/auragram/pkg/apperror"
)

const tokenTTL = 24 * time.Hour

type AuthService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
}

type authService struct {
	userRepo    repository.UserRepository
	auraService AuraService
	meili       MeiliSearchService
	secret      string
}

func NewAuthService(userRepo repository.UserRepository, auraService AuraService, meili MeiliSearchService, secret string) AuthService {
	return &authService{
		userRepo:    userRepo,
		auraService: auraService,
		meili:       meili,
		secret:      secret,
	}
}

func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.AuthResponse, error) {
	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.ErrBadRequest
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: string(hashed),
		Name:         req.Name,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.meili.IndexUser(user); err != nil {
		log.WithError(err).Warn("user index sync failed")
	}

	return s.issue(ctx, user, false)
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.ErrUnauthorized
	}

	return s.issue(ctx, user, true)
}

// issue signs the token and, for logins, credits the daily attendance quest.
func (s *authService) issue(ctx context.Context, user *model.User, countLogin bool) (*dto.AuthResponse, error) {
	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	if countLogin {
		if _, err := s.auraService.IncrementQuest(ctx, user.ID, model.QuestDailyLogin, nil, nil); err != nil {
			log.WithError(err).Warn("login quest credit failed")
		}
	}

	return &dto.AuthResponse{
		Token: token,
		User: dto.AuthUser{
			ID:              user.ID,
			Email:           user.Email,
			Name:            user.Name,
			Role:            user.Role,
			ProfileImageURL: user.ProfileImageURL,
			AuraBalance:     user.AuraBalance,
		},
	}, nil
}

func (s *authService) generateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(user.ID), 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

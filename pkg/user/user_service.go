package user

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"recipebook/domain"
	"recipebook/entities"
	"recipebook/internal/utils/mailing"
	"recipebook/pkg/jwt"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		Me(ctx context.Context, userID uint) (domain.UserResponse, error)
		GetUsers(ctx context.Context, page, limit int, callerID uint) ([]domain.UserResponse, int64, error)
		GetUserByID(ctx context.Context, id uint, callerID uint) (domain.UserResponse, error)
		SetPassword(ctx context.Context, req domain.SetPasswordRequest, userID uint) error
		Follow(ctx context.Context, authorID, followerID uint) (domain.SubscriptionResponse, error)
		Unfollow(ctx context.Context, authorID, followerID uint) error
		GetSubscriptions(ctx context.Context, page, limit, recipesLimit int, followerID uint) ([]domain.SubscriptionResponse, int64, error)
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
	}
)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
	}
}

func UserToResponse(user *entities.User, isSubscribed bool) domain.UserResponse {
	return domain.UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: isSubscribed,
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error) {
	if strings.ToLower(req.Username) == "me" {
		return domain.RegisterResponse{}, domain.ErrUsernameReserved
	}

	if _, err := s.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
		return domain.RegisterResponse{}, domain.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RegisterResponse{}, err
	}

	if _, err := s.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return domain.RegisterResponse{}, domain.ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RegisterResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.RegisterResponse{}, err
	}

	user := &entities.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hash),
		Role:      domain.RoleUser,
	}

	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		if IsUniqueViolation(err) {
			return domain.RegisterResponse{}, domain.ErrUsernameTaken
		}
		return domain.RegisterResponse{}, err
	}

	go func() {
		body := fmt.Sprintf(
			"<p>Hi %s, welcome! Your account is ready.</p>", user.FirstName,
		)
		if err := mailing.SendMail(user.Email, "Welcome", body); err != nil {
			log.Printf("send welcome mail: %v", err)
		}
	}()

	return domain.RegisterResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LoginResponse{}, domain.ErrCredentialsInvalid
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrCredentialsInvalid
	}

	token := s.jwtService.GenerateTokenUser(user.ID, user.Role)
	return domain.LoginResponse{Token: token}, nil
}

func (s *userService) Me(ctx context.Context, userID uint) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserResponse{}, domain.ErrUserNotFound
		}
		return domain.UserResponse{}, err
	}
	return UserToResponse(user, false), nil
}

func (s *userService) GetUsers(ctx context.Context, page, limit int, callerID uint) ([]domain.UserResponse, int64, error) {
	users, count, err := s.userRepository.GetUsers(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.UserResponse, 0, len(users))
	for _, user := range users {
		isSubscribed := false
		if callerID != 0 {
			isSubscribed, err = s.userRepository.IsFollowing(ctx, callerID, user.ID)
			if err != nil {
				return nil, 0, err
			}
		}
		res = append(res, UserToResponse(user, isSubscribed))
	}
	return res, count, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint, callerID uint) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserResponse{}, domain.ErrUserNotFound
		}
		return domain.UserResponse{}, err
	}

	isSubscribed := false
	if callerID != 0 {
		isSubscribed, err = s.userRepository.IsFollowing(ctx, callerID, user.ID)
		if err != nil {
			return domain.UserResponse{}, err
		}
	}
	return UserToResponse(user, isSubscribed), nil
}

func (s *userService) SetPassword(ctx context.Context, req domain.SetPasswordRequest, userID uint) error {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return domain.ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.userRepository.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	go func() {
		if err := mailing.SendMail(
			user.Email,
			"Password changed",
			"<p>Your password was changed. If this was not you, contact support.</p>",
		); err != nil {
			log.Printf("send password notice mail: %v", err)
		}
	}()

	return nil
}

func (s *userService) Follow(ctx context.Context, authorID, followerID uint) (domain.SubscriptionResponse, error) {
	if authorID == followerID {
		return domain.SubscriptionResponse{}, domain.ErrSelfFollow
	}

	author, err := s.userRepository.GetUserByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SubscriptionResponse{}, domain.ErrUserNotFound
		}
		return domain.SubscriptionResponse{}, err
	}

	following, err := s.userRepository.IsFollowing(ctx, followerID, authorID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if following {
		return domain.SubscriptionResponse{}, domain.ErrAlreadyFollowing
	}

	follow := &entities.Follow{
		FollowerID: followerID,
		AuthorID:   authorID,
	}
	if err := s.userRepository.CreateFollow(ctx, follow); err != nil {
		if IsUniqueViolation(err) {
			return domain.SubscriptionResponse{}, domain.ErrAlreadyFollowing
		}
		return domain.SubscriptionResponse{}, err
	}

	return s.subscriptionForAuthor(ctx, author, 0)
}

func (s *userService) Unfollow(ctx context.Context, authorID, followerID uint) error {
	if _, err := s.userRepository.GetUserByID(ctx, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	following, err := s.userRepository.IsFollowing(ctx, followerID, authorID)
	if err != nil {
		return err
	}
	if !following {
		return domain.ErrNotFollowing
	}

	return s.userRepository.DeleteFollow(ctx, followerID, authorID)
}

func (s *userService) GetSubscriptions(ctx context.Context, page, limit, recipesLimit int, followerID uint) ([]domain.SubscriptionResponse, int64, error) {
	authors, count, err := s.userRepository.GetFollowedAuthors(ctx, followerID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.SubscriptionResponse, 0, len(authors))
	for _, author := range authors {
		subscription, err := s.subscriptionForAuthor(ctx, author, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, subscription)
	}
	return res, count, nil
}

func (s *userService) subscriptionForAuthor(ctx context.Context, author *entities.User, recipesLimit int) (domain.SubscriptionResponse, error) {
	recipes, err := s.userRepository.GetRecipesByAuthor(ctx, author.ID, recipesLimit)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	recipesCount, err := s.userRepository.CountRecipesByAuthor(ctx, author.ID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	shortRecipes := make([]domain.RecipeShortResponse, 0, len(recipes))
	for _, recipe := range recipes {
		shortRecipes = append(shortRecipes, domain.RecipeShortResponse{
			ID:          recipe.ID,
			Name:        recipe.Name,
			Image:       recipe.Image,
			CookingTime: recipe.CookingTime,
		})
	}

	return domain.SubscriptionResponse{
		ID:           author.ID,
		Email:        author.Email,
		Username:     author.Username,
		FirstName:    author.FirstName,
		LastName:     author.LastName,
		IsSubscribed: true,
		Recipes:      shortRecipes,
		RecipesCount: recipesCount,
	}, nil
}

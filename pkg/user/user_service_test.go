package user

import (
	"context"
	"errors"
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"recipebook/domain"
	"recipebook/entities"
)

type mockUserRepository struct {
	createUserFn           func(ctx context.Context, user *entities.User) error
	getUserByIDFn          func(ctx context.Context, id uint) (*entities.User, error)
	getUserByEmailFn       func(ctx context.Context, email string) (*entities.User, error)
	getUserByUsernameFn    func(ctx context.Context, username string) (*entities.User, error)
	getUsersFn             func(ctx context.Context, page, limit int) ([]*entities.User, int64, error)
	updatePasswordFn       func(ctx context.Context, userID uint, passwordHash string) error
	createFollowFn         func(ctx context.Context, follow *entities.Follow) error
	deleteFollowFn         func(ctx context.Context, followerID, authorID uint) error
	isFollowingFn          func(ctx context.Context, followerID, authorID uint) (bool, error)
	getFollowedAuthorsFn   func(ctx context.Context, followerID uint, page, limit int) ([]*entities.User, int64, error)
	getRecipesByAuthorFn   func(ctx context.Context, authorID uint, limit int) ([]entities.Recipe, error)
	countRecipesByAuthorFn func(ctx context.Context, authorID uint) (int64, error)
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user *entities.User) error {
	if m.createUserFn != nil {
		return m.createUserFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepository) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepository) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	if m.getUserByUsernameFn != nil {
		return m.getUserByUsernameFn(ctx, username)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepository) GetUsers(ctx context.Context, page, limit int) ([]*entities.User, int64, error) {
	if m.getUsersFn != nil {
		return m.getUsersFn(ctx, page, limit)
	}
	return nil, 0, nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, userID uint, passwordHash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, userID, passwordHash)
	}
	return nil
}

func (m *mockUserRepository) CreateFollow(ctx context.Context, follow *entities.Follow) error {
	if m.createFollowFn != nil {
		return m.createFollowFn(ctx, follow)
	}
	return nil
}

func (m *mockUserRepository) DeleteFollow(ctx context.Context, followerID, authorID uint) error {
	if m.deleteFollowFn != nil {
		return m.deleteFollowFn(ctx, followerID, authorID)
	}
	return nil
}

func (m *mockUserRepository) IsFollowing(ctx context.Context, followerID, authorID uint) (bool, error) {
	if m.isFollowingFn != nil {
		return m.isFollowingFn(ctx, followerID, authorID)
	}
	return false, nil
}

func (m *mockUserRepository) GetFollowedAuthors(ctx context.Context, followerID uint, page, limit int) ([]*entities.User, int64, error) {
	if m.getFollowedAuthorsFn != nil {
		return m.getFollowedAuthorsFn(ctx, followerID, page, limit)
	}
	return nil, 0, nil
}

func (m *mockUserRepository) GetRecipesByAuthor(ctx context.Context, authorID uint, limit int) ([]entities.Recipe, error) {
	if m.getRecipesByAuthorFn != nil {
		return m.getRecipesByAuthorFn(ctx, authorID, limit)
	}
	return nil, nil
}

func (m *mockUserRepository) CountRecipesByAuthor(ctx context.Context, authorID uint) (int64, error) {
	if m.countRecipesByAuthorFn != nil {
		return m.countRecipesByAuthorFn(ctx, authorID)
	}
	return 0, nil
}

type mockJWTService struct {
	generateTokenFn func(userID uint, role string) string
}

func (m *mockJWTService) GenerateTokenUser(userID uint, role string) string {
	if m.generateTokenFn != nil {
		return m.generateTokenFn(userID, role)
	}
	return "token"
}

func (m *mockJWTService) ValidateTokenUser(token string) (*jwtlib.Token, error) {
	return nil, domain.ErrTokenInvalid
}

func (m *mockJWTService) GetUserIDByToken(token string) (uint, string, error) {
	return 0, "", domain.ErrTokenInvalid
}

func newTestUserService(repo *mockUserRepository) UserService {
	return NewUserService(repo, &mockJWTService{})
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(hash)
}

func TestRegisterReservedUsername(t *testing.T) {
	service := newTestUserService(&mockUserRepository{})

	req := domain.RegisterRequest{
		Username:  "Me",
		Email:     "me@example.com",
		FirstName: "M",
		LastName:  "E",
		Password:  "password123",
	}
	if _, err := service.Register(context.Background(), req); !errors.Is(err, domain.ErrUsernameReserved) {
		t.Errorf("expected ErrUsernameReserved, got %v", err)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := &mockUserRepository{
		getUserByUsernameFn: func(ctx context.Context, username string) (*entities.User, error) {
			return &entities.User{ID: 1, Username: username}, nil
		},
	}
	req := domain.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	}
	if _, err := newTestUserService(repo).Register(context.Background(), req); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &mockUserRepository{
		getUserByEmailFn: func(ctx context.Context, email string) (*entities.User, error) {
			return &entities.User{ID: 1, Email: email}, nil
		},
	}
	req := domain.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	}
	if _, err := newTestUserService(repo).Register(context.Background(), req); !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	var created *entities.User
	repo := &mockUserRepository{
		createUserFn: func(ctx context.Context, user *entities.User) error {
			user.ID = 42
			created = user
			return nil
		},
	}

	req := domain.RegisterRequest{
		Username:  "alice",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Smith",
		Password:  "password123",
	}
	res, err := newTestUserService(repo).Register(context.Background(), req)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if res.ID != 42 || res.Username != "alice" || res.Email != "alice@example.com" {
		t.Errorf("unexpected response: %+v", res)
	}
	if created == nil {
		t.Fatal("CreateUser was not called")
	}
	if created.Role != domain.RoleUser {
		t.Errorf("expected role %q, got %q", domain.RoleUser, created.Role)
	}
	if created.Password == req.Password {
		t.Error("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.Password), []byte(req.Password)); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &mockUserRepository{
		getUserByEmailFn: func(ctx context.Context, email string) (*entities.User, error) {
			return &entities.User{ID: 1, Email: email, Password: mustHash(t, "correct")}, nil
		},
	}
	req := domain.LoginRequest{Email: "alice@example.com", Password: "wrong"}
	if _, err := newTestUserService(repo).Login(context.Background(), req); !errors.Is(err, domain.ErrCredentialsInvalid) {
		t.Errorf("expected ErrCredentialsInvalid, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	req := domain.LoginRequest{Email: "ghost@example.com", Password: "whatever"}
	if _, err := newTestUserService(&mockUserRepository{}).Login(context.Background(), req); !errors.Is(err, domain.ErrCredentialsInvalid) {
		t.Errorf("expected ErrCredentialsInvalid, got %v", err)
	}
}

func TestLoginIssuesToken(t *testing.T) {
	repo := &mockUserRepository{
		getUserByEmailFn: func(ctx context.Context, email string) (*entities.User, error) {
			return &entities.User{ID: 5, Email: email, Role: domain.RoleUser, Password: mustHash(t, "correct")}, nil
		},
	}
	service := NewUserService(repo, &mockJWTService{
		generateTokenFn: func(userID uint, role string) string {
			if userID != 5 || role != domain.RoleUser {
				t.Errorf("token generated for wrong identity: %d %s", userID, role)
			}
			return "issued-token"
		},
	})

	res, err := service.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token != "issued-token" {
		t.Errorf("expected issued-token, got %q", res.Token)
	}
}

func TestSetPasswordWrongCurrent(t *testing.T) {
	repo := &mockUserRepository{
		getUserByIDFn: func(ctx context.Context, id uint) (*entities.User, error) {
			return &entities.User{ID: id, Password: mustHash(t, "old")}, nil
		},
	}
	req := domain.SetPasswordRequest{CurrentPassword: "not-old", NewPassword: "newpassword1"}
	if err := newTestUserService(repo).SetPassword(context.Background(), req, 1); !errors.Is(err, domain.ErrWrongPassword) {
		t.Errorf("expected ErrWrongPassword, got %v", err)
	}
}

func TestFollowSelf(t *testing.T) {
	if _, err := newTestUserService(&mockUserRepository{}).Follow(context.Background(), 1, 1); !errors.Is(err, domain.ErrSelfFollow) {
		t.Errorf("expected ErrSelfFollow, got %v", err)
	}
}

func TestFollowUnknownAuthor(t *testing.T) {
	if _, err := newTestUserService(&mockUserRepository{}).Follow(context.Background(), 2, 1); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFollowAlreadyFollowing(t *testing.T) {
	repo := &mockUserRepository{
		getUserByIDFn: func(ctx context.Context, id uint) (*entities.User, error) {
			return &entities.User{ID: id, Username: "bob"}, nil
		},
		isFollowingFn: func(ctx context.Context, followerID, authorID uint) (bool, error) {
			return true, nil
		},
	}
	if _, err := newTestUserService(repo).Follow(context.Background(), 2, 1); !errors.Is(err, domain.ErrAlreadyFollowing) {
		t.Errorf("expected ErrAlreadyFollowing, got %v", err)
	}
}

func TestFollowUniqueViolationRace(t *testing.T) {
	repo := &mockUserRepository{
		getUserByIDFn: func(ctx context.Context, id uint) (*entities.User, error) {
			return &entities.User{ID: id, Username: "bob"}, nil
		},
		createFollowFn: func(ctx context.Context, follow *entities.Follow) error {
			return gorm.ErrDuplicatedKey
		},
	}
	if _, err := newTestUserService(repo).Follow(context.Background(), 2, 1); !errors.Is(err, domain.ErrAlreadyFollowing) {
		t.Errorf("expected ErrAlreadyFollowing, got %v", err)
	}
}

func TestFollowReturnsSubscription(t *testing.T) {
	repo := &mockUserRepository{
		getUserByIDFn: func(ctx context.Context, id uint) (*entities.User, error) {
			return &entities.User{ID: id, Username: "bob", Email: "bob@example.com"}, nil
		},
		getRecipesByAuthorFn: func(ctx context.Context, authorID uint, limit int) ([]entities.Recipe, error) {
			return []entities.Recipe{
				{ID: 11, AuthorID: authorID, Name: "Soup", CookingTime: 10},
				{ID: 12, AuthorID: authorID, Name: "Stew", CookingTime: 40},
			}, nil
		},
		countRecipesByAuthorFn: func(ctx context.Context, authorID uint) (int64, error) {
			return 2, nil
		},
	}

	sub, err := newTestUserService(repo).Follow(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if !sub.IsSubscribed {
		t.Error("expected is_subscribed to be true after following")
	}
	if sub.RecipesCount != 2 || len(sub.Recipes) != 2 {
		t.Errorf("expected 2 recipes, got count=%d len=%d", sub.RecipesCount, len(sub.Recipes))
	}
	if sub.Recipes[0].Name != "Soup" {
		t.Errorf("unexpected first recipe: %+v", sub.Recipes[0])
	}
}

func TestUnfollowNotFollowing(t *testing.T) {
	repo := &mockUserRepository{
		getUserByIDFn: func(ctx context.Context, id uint) (*entities.User, error) {
			return &entities.User{ID: id, Username: "bob"}, nil
		},
	}
	if err := newTestUserService(repo).Unfollow(context.Background(), 2, 1); !errors.Is(err, domain.ErrNotFollowing) {
		t.Errorf("expected ErrNotFollowing, got %v", err)
	}
}

func TestGetUserByIDComputesSubscription(t *testing.T) {
	repo := &mockUserRepository{
		getUserByIDFn: func(ctx context.Context, id uint) (*entities.User, error) {
			return &entities.User{ID: id, Username: "bob"}, nil
		},
		isFollowingFn: func(ctx context.Context, followerID, authorID uint) (bool, error) {
			return followerID == 1 && authorID == 2, nil
		},
	}
	service := newTestUserService(repo)

	res, err := service.GetUserByID(context.Background(), 2, 1)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !res.IsSubscribed {
		t.Error("expected is_subscribed true for a followed author")
	}

	anon, err := service.GetUserByID(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if anon.IsSubscribed {
		t.Error("expected is_subscribed false for anonymous caller")
	}
}

package routes

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	jwtlib "github.com/golang-jwt/jwt/v4"
	"github.com/gofiber/fiber/v2"

	"recipebook/domain"
	"recipebook/internal/api/handlers"
	"recipebook/internal/middleware"
	"recipebook/internal/utils"
)

type stubJWTService struct{}

func (s *stubJWTService) GenerateTokenUser(userID uint, role string) string { return "stub" }

func (s *stubJWTService) ValidateTokenUser(token string) (*jwtlib.Token, error) {
	if token != "valid" {
		return nil, domain.ErrTokenInvalid
	}
	return &jwtlib.Token{Valid: true}, nil
}

func (s *stubJWTService) GetUserIDByToken(token string) (uint, string, error) {
	if token != "valid" {
		return 0, "", domain.ErrTokenInvalid
	}
	return 1, domain.RoleUser, nil
}

type stubUserService struct{}

func (s *stubUserService) Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error) {
	return domain.RegisterResponse{}, nil
}

func (s *stubUserService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	return domain.LoginResponse{}, nil
}

func (s *stubUserService) Me(ctx context.Context, userID uint) (domain.UserResponse, error) {
	return domain.UserResponse{ID: userID}, nil
}

func (s *stubUserService) GetUsers(ctx context.Context, page, limit int, callerID uint) ([]domain.UserResponse, int64, error) {
	return nil, 0, nil
}

func (s *stubUserService) GetUserByID(ctx context.Context, id uint, callerID uint) (domain.UserResponse, error) {
	return domain.UserResponse{ID: id}, nil
}

func (s *stubUserService) SetPassword(ctx context.Context, req domain.SetPasswordRequest, userID uint) error {
	return nil
}

func (s *stubUserService) Follow(ctx context.Context, authorID, followerID uint) (domain.SubscriptionResponse, error) {
	return domain.SubscriptionResponse{}, nil
}

func (s *stubUserService) Unfollow(ctx context.Context, authorID, followerID uint) error {
	return nil
}

func (s *stubUserService) GetSubscriptions(ctx context.Context, page, limit, recipesLimit int, followerID uint) ([]domain.SubscriptionResponse, int64, error) {
	return nil, 0, nil
}

type stubTagService struct{}

func (s *stubTagService) GetTags(ctx context.Context) ([]domain.TagResponse, error) {
	return nil, nil
}

func (s *stubTagService) GetTagByID(ctx context.Context, id uint) (domain.TagResponse, error) {
	return domain.TagResponse{ID: id}, nil
}

type stubIngredientService struct{}

func (s *stubIngredientService) GetIngredients(ctx context.Context, namePrefix string) ([]domain.IngredientResponse, error) {
	return nil, nil
}

func (s *stubIngredientService) GetIngredientByID(ctx context.Context, id uint) (domain.IngredientResponse, error) {
	return domain.IngredientResponse{ID: id}, nil
}

type stubRecipeService struct{}

func (s *stubRecipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int, callerID uint) ([]domain.RecipeResponse, int64, error) {
	return nil, 0, nil
}

func (s *stubRecipeService) GetRecipeDetail(ctx context.Context, id uint, callerID uint) (domain.RecipeResponse, error) {
	return domain.RecipeResponse{ID: id}, nil
}

func (s *stubRecipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID uint) (domain.RecipeResponse, error) {
	return domain.RecipeResponse{}, nil
}

func (s *stubRecipeService) UpdateRecipe(ctx context.Context, id uint, req domain.UpdateRecipeRequest, userID uint) (domain.RecipeResponse, error) {
	return domain.RecipeResponse{ID: id}, nil
}

func (s *stubRecipeService) DeleteRecipe(ctx context.Context, id uint, userID uint) error {
	return nil
}

func (s *stubRecipeService) AddFavorite(ctx context.Context, recipeID, userID uint) (domain.RecipeShortResponse, error) {
	return domain.RecipeShortResponse{ID: recipeID}, nil
}

func (s *stubRecipeService) RemoveFavorite(ctx context.Context, recipeID, userID uint) error {
	return nil
}

func (s *stubRecipeService) AddToCart(ctx context.Context, recipeID, userID uint) (domain.RecipeShortResponse, error) {
	return domain.RecipeShortResponse{ID: recipeID}, nil
}

func (s *stubRecipeService) RemoveFromCart(ctx context.Context, recipeID, userID uint) error {
	return nil
}

func (s *stubRecipeService) BuildShoppingList(ctx context.Context, userID uint) (string, error) {
	return "My shopping list:\n", nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	utils.InitValidator()

	app := fiber.New()
	config := Config{
		App:               app,
		UserHandler:       handlers.NewUserHandler(&stubUserService{}, utils.Validate),
		TagHandler:        handlers.NewTagHandler(&stubTagService{}),
		IngredientHandler: handlers.NewIngredientHandler(&stubIngredientService{}),
		RecipeHandler:     handlers.NewRecipeHandler(&stubRecipeService{}, utils.Validate),
		Middleware:        middleware.NewMiddleware(),
		JWTService:        &stubJWTService{},
	}
	config.Setup()
	return app
}

func TestAnonymousReadsAllowed(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{
		"/api/v1/recipes",
		"/api/v1/recipes/1",
		"/api/v1/tags",
		"/api/v1/ingredients",
		"/api/v1/users",
		"/api/v1/users/1",
	} {
		res, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("app.Test %s: %v", path, err)
		}
		if res.StatusCode != fiber.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, res.StatusCode)
		}
	}
}

func TestAnonymousWritesRejected(t *testing.T) {
	app := newTestApp(t)

	requests := []struct {
		method string
		path   string
	}{
		{"POST", "/api/v1/recipes"},
		{"DELETE", "/api/v1/recipes/1"},
		{"GET", "/api/v1/recipes/1/favorite"},
		{"GET", "/api/v1/recipes/download_shopping_cart"},
		{"GET", "/api/v1/users/me"},
		{"POST", "/api/v1/users/set_password"},
		{"GET", "/api/v1/users/1/subscribe"},
	}
	for _, r := range requests {
		res, err := app.Test(httptest.NewRequest(r.method, r.path, nil))
		if err != nil {
			t.Fatalf("app.Test %s %s: %v", r.method, r.path, err)
		}
		if res.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", r.method, r.path, res.StatusCode)
		}
	}
}

func TestDownloadShoppingCartRoute(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("GET", "/api/v1/recipes/download_shopping_cart", nil)
	req.Header.Set("Authorization", "Bearer valid")
	res, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if res.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}

	if disposition := res.Header.Get(fiber.HeaderContentDisposition); !strings.Contains(disposition, "shopping_list.txt") {
		t.Errorf("unexpected content disposition %q", disposition)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "My shopping list:\n" {
		t.Errorf("unexpected body %q", body)
	}
}

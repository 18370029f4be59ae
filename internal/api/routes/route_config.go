package routes

import (
	"github.com/gofiber/fiber/v2"

	"recipebook/internal/api/handlers"
	"recipebook/internal/middleware"
	"recipebook/pkg/jwt"
)

type Config struct {
	App               *fiber.App
	UserHandler       handlers.UserHandler
	TagHandler        handlers.TagHandler
	IngredientHandler handlers.IngredientHandler
	RecipeHandler     handlers.RecipeHandler
	Middleware        middleware.Middleware
	JWTService        jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.Users()
	c.Tags()
	c.Ingredients()
	c.Recipes()
}

func (c *Config) Users() {
	users := c.App.Group("/api/v1/users")
	auth := c.Middleware.AuthMiddleware(c.JWTService)
	optionalAuth := c.Middleware.OptionalAuthMiddleware(c.JWTService)
	{
		users.Post("", c.UserHandler.Register)
		users.Post("/login", c.UserHandler.Login)
		users.Get("", optionalAuth, c.UserHandler.GetUsers)
		users.Get("/me", auth, c.UserHandler.Me)
		users.Post("/set_password", auth, c.UserHandler.SetPassword)
		users.Get("/subscriptions", auth, c.UserHandler.GetSubscriptions)
		users.Get("/:id/subscribe", auth, c.UserHandler.Subscribe)
		users.Delete("/:id/subscribe", auth, c.UserHandler.Unsubscribe)
		users.Get("/:id", optionalAuth, c.UserHandler.GetUserDetail)
	}
}

func (c *Config) Tags() {
	tags := c.App.Group("/api/v1/tags")
	{
		tags.Get("", c.TagHandler.GetTags)
		tags.Get("/:id", c.TagHandler.GetTagDetail)
	}
}

func (c *Config) Ingredients() {
	ingredients := c.App.Group("/api/v1/ingredients")
	{
		ingredients.Get("", c.IngredientHandler.GetIngredients)
		ingredients.Get("/:id", c.IngredientHandler.GetIngredientDetail)
	}
}

func (c *Config) Recipes() {
	recipes := c.App.Group("/api/v1/recipes")
	auth := c.Middleware.AuthMiddleware(c.JWTService)
	optionalAuth := c.Middleware.OptionalAuthMiddleware(c.JWTService)
	{
		recipes.Get("", optionalAuth, c.RecipeHandler.GetRecipes)
		recipes.Post("", auth, c.RecipeHandler.CreateRecipe)
		recipes.Get("/download_shopping_cart", auth, c.RecipeHandler.DownloadShoppingCart)
		recipes.Get("/:id/favorite", auth, c.RecipeHandler.AddFavorite)
		recipes.Delete("/:id/favorite", auth, c.RecipeHandler.RemoveFavorite)
		recipes.Get("/:id/shopping_cart", auth, c.RecipeHandler.AddToCart)
		recipes.Delete("/:id/shopping_cart", auth, c.RecipeHandler.RemoveFromCart)
		recipes.Get("/:id", optionalAuth, c.RecipeHandler.GetRecipeDetail)
		recipes.Put("/:id", auth, c.RecipeHandler.UpdateRecipe)
		recipes.Patch("/:id", auth, c.RecipeHandler.UpdateRecipe)
		recipes.Delete("/:id", auth, c.RecipeHandler.DeleteRecipe)
	}
}

package domain

import (
	"errors"
)

var (
	MessageSuccessGetRecipes       = "success get recipes"
	MessageSuccessGetRecipeDetail  = "success get recipe detail"
	MessageSuccessCreateRecipe     = "recipe created successfully"
	MessageSuccessUpdateRecipe     = "recipe updated successfully"
	MessageSuccessDeleteRecipe     = "recipe deleted successfully"
	MessageSuccessAddFavorite      = "recipe added to favorites"
	MessageSuccessRemoveFavorite   = "recipe removed from favorites"
	MessageSuccessAddToCart        = "recipe added to shopping cart"
	MessageSuccessRemoveFromCart   = "recipe removed from shopping cart"
	MessageSuccessShoppingListFile = "shopping list generated"

	MessageFailedGetRecipes      = "failed to get recipes"
	MessageFailedGetRecipeDetail = "failed to get recipe detail"
	MessageFailedCreateRecipe    = "failed to create recipe"
	MessageFailedUpdateRecipe    = "failed to update recipe"
	MessageFailedDeleteRecipe    = "failed to delete recipe"
	MessageFailedAddFavorite     = "failed to add recipe to favorites"
	MessageFailedRemoveFavorite  = "failed to remove recipe from favorites"
	MessageFailedAddToCart       = "failed to add recipe to shopping cart"
	MessageFailedRemoveFromCart  = "failed to remove recipe from shopping cart"
	MessageFailedShoppingList    = "failed to generate shopping list"

	ErrRecipeNotFound      = errors.New("recipe not found")
	ErrCookingTimeTooShort = errors.New("cooking time can not be less than 1 minute")
	ErrAmountTooSmall      = errors.New("amount can not be less than 1")
	ErrDuplicateTag        = errors.New("a specific tag can not be added to a specific recipe more than once")
	ErrDuplicateIngredient = errors.New("a specific ingredient can not be added to a specific recipe more than once")
	ErrInvalidImage        = errors.New("invalid image payload")
	ErrAlreadyFavorited    = errors.New("you have already added this recipe in your favorites")
	ErrAlreadyInCart       = errors.New("you have already added this recipe in your cart")
	ErrNotInFavorites      = errors.New("there is no this recipe in favorites")
	ErrNotInCart           = errors.New("there is no this recipe in cart")
)

type (
	RecipePortionRequest struct {
		ID     uint `json:"id" validate:"required"`
		Amount int  `json:"amount" validate:"required,min=1"`
	}

	CreateRecipeRequest struct {
		Name        string                 `json:"name" validate:"required,max=200"`
		Text        string                 `json:"text" validate:"required,max=1000"`
		Image       string                 `json:"image" validate:"required"`
		CookingTime int                    `json:"cooking_time" validate:"required"`
		Tags        []uint                 `json:"tags" validate:"required,min=1"`
		Ingredients []RecipePortionRequest `json:"ingredients" validate:"required,min=1,dive"`
	}

	// UpdateRecipeRequest carries the complete new state: the tag set and
	// the ingredient set replace the stored ones wholesale.
	UpdateRecipeRequest struct {
		Name        string                 `json:"name" validate:"required,max=200"`
		Text        string                 `json:"text" validate:"required,max=1000"`
		Image       string                 `json:"image" validate:"omitempty"`
		CookingTime int                    `json:"cooking_time" validate:"required"`
		Tags        []uint                 `json:"tags" validate:"required,min=1"`
		Ingredients []RecipePortionRequest `json:"ingredients" validate:"required,min=1,dive"`
	}

	RecipeFilter struct {
		Tags             []string
		Author           uint
		IsFavorited      bool
		IsInShoppingCart bool
	}

	PortionResponse struct {
		ID              uint   `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeResponse struct {
		ID               uint              `json:"id"`
		Tags             []TagResponse     `json:"tags"`
		Author           UserResponse      `json:"author"`
		Ingredients      []PortionResponse `json:"ingredients"`
		IsFavorited      bool              `json:"is_favorited"`
		IsInShoppingCart bool              `json:"is_in_shopping_cart"`
		Name             string            `json:"name"`
		Image            string            `json:"image"`
		Text             string            `json:"text"`
		CookingTime      int               `json:"cooking_time"`
	}

	RecipeShortResponse struct {
		ID          uint   `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	// CartPortionRow is one ingredient portion of one recipe in a
	// user's cart, as read from storage before aggregation.
	CartPortionRow struct {
		IngredientName  string
		MeasurementUnit string
		Amount          int
	}

	ShoppingListItem struct {
		Name            string
		MeasurementUnit string
		Total           int
	}
)

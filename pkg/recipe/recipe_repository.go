package recipe

import (
	"context"

	"gorm.io/gorm"

	"recipebook/domain"
	"recipebook/entities"
)

type (
	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe, tags []entities.Tag, portions []entities.IngredientPortion) error
		ReplaceRecipe(ctx context.Context, recipe *entities.Recipe, tags []entities.Tag, portions []entities.IngredientPortion) error
		GetRecipeByID(ctx context.Context, id uint) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, callerID uint, page, limit int) ([]*entities.Recipe, int64, error)
		DeleteRecipe(ctx context.Context, id uint) error

		// Favorites
		AddFavorite(ctx context.Context, favorite *entities.Favorite) error
		RemoveFavorite(ctx context.Context, userID, recipeID uint) error
		IsFavorited(ctx context.Context, userID, recipeID uint) (bool, error)

		// Shopping cart
		AddCartItem(ctx context.Context, item *entities.CartItem) error
		RemoveCartItem(ctx context.Context, userID, recipeID uint) error
		IsInCart(ctx context.Context, userID, recipeID uint) (bool, error)
		GetCartPortions(ctx context.Context, userID uint) ([]domain.CartPortionRow, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe, tags []entities.Tag, portions []entities.IngredientPortion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Append(&tags); err != nil {
			return err
		}
		for i := range portions {
			portions[i].RecipeID = recipe.ID
		}
		return tx.Create(&portions).Error
	})
}

// ReplaceRecipe rewrites the scalar fields and rebuilds the tag and
// portion sets from scratch. The whole sequence runs in one transaction
// so a reader never observes cleared-but-not-recreated collections.
func (r *recipeRepository) ReplaceRecipe(ctx context.Context, recipe *entities.Recipe, tags []entities.Tag, portions []entities.IngredientPortion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).
			Delete(&entities.IngredientPortion{}).Error; err != nil {
			return err
		}

		updates := map[string]any{
			"author_id":    recipe.AuthorID,
			"name":         recipe.Name,
			"image":        recipe.Image,
			"text":         recipe.Text,
			"cooking_time": recipe.CookingTime,
		}
		if err := tx.Model(&entities.Recipe{}).
			Where("id = ?", recipe.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		if err := tx.Model(recipe).Association("Tags").Append(&tags); err != nil {
			return err
		}
		for i := range portions {
			portions[i].RecipeID = recipe.ID
		}
		return tx.Create(&portions).Error
	})
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id uint) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Portions.Ingredient").
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) filteredRecipes(ctx context.Context, filter domain.RecipeFilter, callerID uint) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entities.Recipe{})

	if len(filter.Tags) > 0 {
		// Any matching slug qualifies a recipe; grouping by id keeps
		// multi-tag matches from duplicating rows.
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.Tags)
	}
	if filter.Author != 0 {
		query = query.Where("recipes.author_id = ?", filter.Author)
	}
	if filter.IsFavorited && callerID != 0 {
		query = query.
			Joins("JOIN favorites ON favorites.recipe_id = recipes.id").
			Where("favorites.user_id = ?", callerID)
	}
	if filter.IsInShoppingCart && callerID != 0 {
		query = query.
			Joins("JOIN cart_items ON cart_items.recipe_id = recipes.id").
			Where("cart_items.user_id = ?", callerID)
	}

	return query
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeFilter, callerID uint, page, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (page - 1) * limit

	if err := r.filteredRecipes(ctx, filter, callerID).
		Distinct("recipes.id").
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.filteredRecipes(ctx, filter, callerID).
		Group("recipes.id").
		Preload("Author").
		Preload("Tags").
		Preload("Portions.Ingredient").
		Offset(offset).
		Limit(limit).
		Order("recipes.created_at DESC").
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Select("Tags", "Portions").
		Delete(&entities.Recipe{ID: id}).Error
}

func (r *recipeRepository) AddFavorite(ctx context.Context, favorite *entities.Favorite) error {
	return r.db.WithContext(ctx).Create(favorite).Error
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.Favorite{}).Error
}

func (r *recipeRepository) IsFavorited(ctx context.Context, userID, recipeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) AddCartItem(ctx context.Context, item *entities.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *recipeRepository) RemoveCartItem(ctx context.Context, userID, recipeID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.CartItem{}).Error
}

func (r *recipeRepository) IsInCart(ctx context.Context, userID, recipeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.CartItem{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) GetCartPortions(ctx context.Context, userID uint) ([]domain.CartPortionRow, error) {
	var rows []domain.CartPortionRow
	if err := r.db.WithContext(ctx).
		Model(&entities.IngredientPortion{}).
		Select("ingredients.name AS ingredient_name, ingredients.measurement_unit AS measurement_unit, ingredient_portions.amount AS amount").
		Joins("JOIN ingredients ON ingredients.id = ingredient_portions.ingredient_id").
		Joins("JOIN cart_items ON cart_items.recipe_id = ingredient_portions.recipe_id").
		Where("cart_items.user_id = ?", userID).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

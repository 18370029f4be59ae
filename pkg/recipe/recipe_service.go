package recipe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"recipebook/domain"
	"recipebook/entities"
	"recipebook/internal/utils/storage"
	"recipebook/pkg/ingredient"
	"recipebook/pkg/tag"
	"recipebook/pkg/user"
)

const shoppingListHeader = "My shopping list:"

type (
	RecipeService interface {
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int, callerID uint) ([]domain.RecipeResponse, int64, error)
		GetRecipeDetail(ctx context.Context, id uint, callerID uint) (domain.RecipeResponse, error)
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID uint) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, id uint, req domain.UpdateRecipeRequest, userID uint) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, id uint, userID uint) error

		AddFavorite(ctx context.Context, recipeID, userID uint) (domain.RecipeShortResponse, error)
		RemoveFavorite(ctx context.Context, recipeID, userID uint) error
		AddToCart(ctx context.Context, recipeID, userID uint) (domain.RecipeShortResponse, error)
		RemoveFromCart(ctx context.Context, recipeID, userID uint) error
		BuildShoppingList(ctx context.Context, userID uint) (string, error)
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		tagRepository        tag.TagRepository
		ingredientRepository ingredient.IngredientRepository
		userRepository       user.UserRepository
		s3                   storage.AwsS3
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	tagRepository tag.TagRepository,
	ingredientRepository ingredient.IngredientRepository,
	userRepository user.UserRepository,
	s3 storage.AwsS3,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		tagRepository:        tagRepository,
		ingredientRepository: ingredientRepository,
		userRepository:       userRepository,
		s3:                   s3,
	}
}

// canModify is the mutation gate for owner-scoped resources: admins,
// superusers and the owning author may write, everyone else may not.
func canModify(caller *entities.User, recipe *entities.Recipe) bool {
	return caller.Role == domain.RoleAdmin ||
		caller.IsSuperuser ||
		recipe.AuthorID == caller.ID
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int, callerID uint) ([]domain.RecipeResponse, int64, error) {
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, callerID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.RecipeResponse, 0, len(recipes))
	for _, r := range recipes {
		projection, err := s.toResponse(ctx, r, callerID)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, projection)
	}
	return res, count, nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, id uint, callerID uint) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}
	return s.toResponse(ctx, recipe, callerID)
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID uint) (domain.RecipeResponse, error) {
	tags, portions, err := s.validatePayload(ctx, req.CookingTime, req.Tags, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	imageURL, err := s.uploadImage(ctx, req.Image)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe := &entities.Recipe{
		AuthorID:    userID,
		Name:        req.Name,
		Image:       imageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	if err := s.recipeRepository.CreateRecipe(ctx, recipe, tags, portions); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipe.ID, userID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, id uint, req domain.UpdateRecipeRequest, userID uint) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	caller, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	if !canModify(caller, recipe) {
		return domain.RecipeResponse{}, domain.ErrUserNotAllowed
	}

	tags, portions, err := s.validatePayload(ctx, req.CookingTime, req.Tags, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	imageURL := recipe.Image
	if req.Image != "" {
		imageURL, err = s.uploadImage(ctx, req.Image)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
	}

	// The author never changes hands on update, no matter who edits.
	updated := &entities.Recipe{
		ID:          recipe.ID,
		AuthorID:    recipe.AuthorID,
		Name:        req.Name,
		Image:       imageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	if err := s.recipeRepository.ReplaceRecipe(ctx, updated, tags, portions); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipe.ID, userID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, id uint, userID uint) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	caller, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !canModify(caller, recipe) {
		return domain.ErrUserNotAllowed
	}

	return s.recipeRepository.DeleteRecipe(ctx, id)
}

func (s *recipeService) AddFavorite(ctx context.Context, recipeID, userID uint) (domain.RecipeShortResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeShortResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeShortResponse{}, err
	}

	favorited, err := s.recipeRepository.IsFavorited(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}
	if favorited {
		return domain.RecipeShortResponse{}, domain.ErrAlreadyFavorited
	}

	favorite := &entities.Favorite{UserID: userID, RecipeID: recipeID}
	if err := s.recipeRepository.AddFavorite(ctx, favorite); err != nil {
		if user.IsUniqueViolation(err) {
			return domain.RecipeShortResponse{}, domain.ErrAlreadyFavorited
		}
		return domain.RecipeShortResponse{}, err
	}

	return toShortResponse(recipe), nil
}

func (s *recipeService) RemoveFavorite(ctx context.Context, recipeID, userID uint) error {
	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	favorited, err := s.recipeRepository.IsFavorited(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if !favorited {
		return domain.ErrNotInFavorites
	}

	return s.recipeRepository.RemoveFavorite(ctx, userID, recipeID)
}

func (s *recipeService) AddToCart(ctx context.Context, recipeID, userID uint) (domain.RecipeShortResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeShortResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeShortResponse{}, err
	}

	inCart, err := s.recipeRepository.IsInCart(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}
	if inCart {
		return domain.RecipeShortResponse{}, domain.ErrAlreadyInCart
	}

	item := &entities.CartItem{UserID: userID, RecipeID: recipeID}
	if err := s.recipeRepository.AddCartItem(ctx, item); err != nil {
		if user.IsUniqueViolation(err) {
			return domain.RecipeShortResponse{}, domain.ErrAlreadyInCart
		}
		return domain.RecipeShortResponse{}, err
	}

	return toShortResponse(recipe), nil
}

func (s *recipeService) RemoveFromCart(ctx context.Context, recipeID, userID uint) error {
	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	inCart, err := s.recipeRepository.IsInCart(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if !inCart {
		return domain.ErrNotInCart
	}

	return s.recipeRepository.RemoveCartItem(ctx, userID, recipeID)
}

// BuildShoppingList aggregates every ingredient portion across the
// recipes in the user's cart, summing amounts per (name, unit) and
// ordering by name, and renders the plain-text document. Computed fresh
// on every call since cart contents mutate often.
func (s *recipeService) BuildShoppingList(ctx context.Context, userID uint) (string, error) {
	rows, err := s.recipeRepository.GetCartPortions(ctx, userID)
	if err != nil {
		return "", err
	}
	return renderShoppingList(aggregateCartPortions(rows)), nil
}

func aggregateCartPortions(rows []domain.CartPortionRow) []domain.ShoppingListItem {
	totals := make(map[string]*domain.ShoppingListItem)
	for _, row := range rows {
		key := row.IngredientName + "\x00" + row.MeasurementUnit
		if item, ok := totals[key]; ok {
			item.Total += row.Amount
			continue
		}
		totals[key] = &domain.ShoppingListItem{
			Name:            row.IngredientName,
			MeasurementUnit: row.MeasurementUnit,
			Total:           row.Amount,
		}
	}

	items := make([]domain.ShoppingListItem, 0, len(totals))
	for _, item := range totals {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items
}

func renderShoppingList(items []domain.ShoppingListItem) string {
	var b strings.Builder
	b.WriteString(shoppingListHeader)
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString(fmt.Sprintf(
			"%s - %d (%s)\n", item.Name, item.Total, item.MeasurementUnit,
		))
	}
	return b.String()
}

func (s *recipeService) validatePayload(ctx context.Context, cookingTime int, tagIDs []uint, portionReqs []domain.RecipePortionRequest) ([]entities.Tag, []entities.IngredientPortion, error) {
	if cookingTime < 1 {
		return nil, nil, domain.ErrCookingTimeTooShort
	}

	seenTags := make(map[uint]bool, len(tagIDs))
	for _, id := range tagIDs {
		if seenTags[id] {
			return nil, nil, domain.ErrDuplicateTag
		}
		seenTags[id] = true
	}

	seenIngredients := make(map[uint]bool, len(portionReqs))
	for _, portion := range portionReqs {
		if seenIngredients[portion.ID] {
			return nil, nil, domain.ErrDuplicateIngredient
		}
		seenIngredients[portion.ID] = true
		if portion.Amount < 1 {
			return nil, nil, domain.ErrAmountTooSmall
		}
	}

	tags, err := s.tagRepository.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, nil, domain.ErrTagNotFound
	}

	ingredientIDs := make([]uint, 0, len(portionReqs))
	for _, portion := range portionReqs {
		ingredientIDs = append(ingredientIDs, portion.ID)
	}
	ingredients, err := s.ingredientRepository.GetIngredientsByIDs(ctx, ingredientIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(ingredients) != len(ingredientIDs) {
		return nil, nil, domain.ErrIngredientNotFound
	}

	portions := make([]entities.IngredientPortion, 0, len(portionReqs))
	for _, portion := range portionReqs {
		portions = append(portions, entities.IngredientPortion{
			IngredientID: portion.ID,
			Amount:       portion.Amount,
		})
	}
	return tags, portions, nil
}

// uploadImage decodes a base64 data URI and stores it, returning the
// public URL.
func (s *recipeService) uploadImage(ctx context.Context, payload string) (string, error) {
	if !strings.HasPrefix(payload, "data:") {
		return "", domain.ErrInvalidImage
	}

	meta, encoded, found := strings.Cut(strings.TrimPrefix(payload, "data:"), ",")
	if !found {
		return "", domain.ErrInvalidImage
	}
	contentType := strings.TrimSuffix(meta, ";base64")

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", domain.ErrInvalidImage
	}

	ext := "bin"
	if _, sub, ok := strings.Cut(contentType, "/"); ok && sub != "" {
		ext = sub
	}
	key := fmt.Sprintf("recipes/%s.%s", uuid.New().String(), ext)

	return s.s3.UploadFile(ctx, key, contentType, data)
}

func toShortResponse(recipe *entities.Recipe) domain.RecipeShortResponse {
	return domain.RecipeShortResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	}
}

func (s *recipeService) toResponse(ctx context.Context, recipe *entities.Recipe, callerID uint) (domain.RecipeResponse, error) {
	tags := make([]domain.TagResponse, 0, len(recipe.Tags))
	for i := range recipe.Tags {
		tags = append(tags, tag.TagToResponse(&recipe.Tags[i]))
	}

	ingredients := make([]domain.PortionResponse, 0, len(recipe.Portions))
	for _, portion := range recipe.Portions {
		projection := domain.PortionResponse{
			ID:     portion.IngredientID,
			Amount: portion.Amount,
		}
		if portion.Ingredient != nil {
			projection.Name = portion.Ingredient.Name
			projection.MeasurementUnit = portion.Ingredient.MeasurementUnit
		}
		ingredients = append(ingredients, projection)
	}

	var author domain.UserResponse
	if recipe.Author != nil {
		isSubscribed := false
		if callerID != 0 && callerID != recipe.AuthorID {
			var err error
			isSubscribed, err = s.userRepository.IsFollowing(ctx, callerID, recipe.AuthorID)
			if err != nil {
				return domain.RecipeResponse{}, err
			}
		}
		author = user.UserToResponse(recipe.Author, isSubscribed)
	}

	isFavorited := false
	isInCart := false
	if callerID != 0 {
		var err error
		isFavorited, err = s.recipeRepository.IsFavorited(ctx, callerID, recipe.ID)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		isInCart, err = s.recipeRepository.IsInCart(ctx, callerID, recipe.ID)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
	}

	return domain.RecipeResponse{
		ID:               recipe.ID,
		Tags:             tags,
		Author:           author,
		Ingredients:      ingredients,
		IsFavorited:      isFavorited,
		IsInShoppingCart: isInCart,
		Name:             recipe.Name,
		Image:            recipe.Image,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}, nil
}

package entities

type Tag struct {
	ID    uint    `gorm:"primaryKey" json:"id"`
	Name  string  `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Color *string `gorm:"size:7;unique" json:"color"`
	Slug  *string `gorm:"size:200;unique" json:"slug"`
}

type Ingredient struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"size:200;index;not null" json:"name"`
	MeasurementUnit string `gorm:"size:200;not null" json:"measurement_unit"`
}

type Recipe struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	AuthorID    uint   `gorm:"index;not null" json:"author_id"`
	Name        string `gorm:"size:200;not null" json:"name"`
	Image       string `json:"image"`
	Text        string `gorm:"size:1000" json:"text"`
	CookingTime int    `gorm:"not null" json:"cooking_time"`

	Author   *User               `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Tags     []Tag               `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	Portions []IngredientPortion `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Timestamp
}

// IngredientPortion ties one ingredient with its amount to one recipe.
// A recipe owns its portions: they are dropped and rebuilt on every
// recipe update and cascade-deleted with the recipe.
type IngredientPortion struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	RecipeID     uint `gorm:"uniqueIndex:idx_portion_pair;not null" json:"recipe_id"`
	IngredientID uint `gorm:"uniqueIndex:idx_portion_pair;not null" json:"ingredient_id"`
	Amount       int  `gorm:"not null" json:"amount"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
}

type Favorite struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"uniqueIndex:idx_favorite_pair;not null" json:"user_id"`
	RecipeID uint `gorm:"uniqueIndex:idx_favorite_pair;not null" json:"recipe_id"`

	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Timestamp
}

type CartItem struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	UserID   uint `gorm:"uniqueIndex:idx_cart_pair;not null" json:"user_id"`
	RecipeID uint `gorm:"uniqueIndex:idx_cart_pair;not null" json:"recipe_id"`

	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Timestamp
}

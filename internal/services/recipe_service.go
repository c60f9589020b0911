package services

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/example/foodorder/internal/models"
)

// RecipeService resolves products into their ingredient requirements.
type RecipeService struct{}

func NewRecipeService() *RecipeService {
	return &RecipeService{}
}

// Ingredients returns the recipe lines of a product ordered by ingredient.
// A product without recipe lines consumes nothing.
func (s *RecipeService) Ingredients(tx *gorm.DB, productID uint) ([]models.ProductIngredient, error) {
	var lines []models.ProductIngredient
	if err := tx.Where("product_id = ?", productID).
		Order("ingredient_id").
		Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("load recipe for product %d: %w", productID, err)
	}
	return lines, nil
}

// IngredientName returns the display name of an ingredient, or "" when it is unknown.
func (s *RecipeService) IngredientName(tx *gorm.DB, ingredientID uint) string {
	var ingredient models.Ingredient
	if err := tx.Select("id", "name").First(&ingredient, ingredientID).Error; err != nil {
		return ""
	}
	return ingredient.Name
}

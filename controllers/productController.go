package controllers

import (
	"errors"

	"milkrun-backend/middlewares"
	"milkrun-backend/models"
	"milkrun-backend/services"
	"milkrun-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type createProductDTO struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description"`
	Unit        string  `json:"unit" validate:"required"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

type updateProductDTO struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Unit        *string  `json:"unit"`
	UnitPrice   *float64 `json:"unit_price"`
	Active      *bool    `json:"active"`
}

// GetProducts lists the active catalog. Public.
func GetProducts(c *fiber.Ctx) error {
	var products []models.Product
	if err := middlewares.RequestDB(c).
		Where("active = ?", true).
		Order("name asc").
		Find(&products).Error; err != nil {
		return err
	}
	return c.JSON(products)
}

func CreateProduct(c *fiber.Ctx) error {
	var dto createProductDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	product := models.Product{
		Name:        dto.Name,
		Description: dto.Description,
		Unit:        dto.Unit,
		UnitPrice:   utils.Round2(dto.UnitPrice),
		Active:      true,
	}
	if err := middlewares.RequestDB(c).Create(&product).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func UpdateProduct(c *fiber.Ctx) error {
	var dto updateProductDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	db := middlewares.RequestDB(c)
	var product models.Product
	if err := db.First(&product, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.ErrNotFound
		}
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&dto, nil)
	if len(updates) == 0 {
		return c.JSON(product)
	}
	if err := db.Model(&product).Updates(updates).Error; err != nil {
		return err
	}
	return c.JSON(product)
}

// DeleteProduct retires a product from the catalog. Soft delete: existing
// subscriptions and historical deliveries keep their references.
func DeleteProduct(c *fiber.Ctx) error {
	res := middlewares.RequestDB(c).Model(&models.Product{}).
		Where("id = ?", c.Params("id")).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return c.JSON(fiber.Map{"message": "product retired"})
}

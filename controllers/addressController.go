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

type createAddressDTO struct {
	Line1    string `json:"line1" validate:"required"`
	Locality string `json:"locality"`
	City     string `json:"city"`
	Zip      string `json:"zip"`
	// Coordinates come from the client's picker or a geocoding step; without
	// them the address is accepted but never routed.
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	IsDefault bool     `json:"is_default"`
}

type updateAddressDTO struct {
	Line1     *string  `json:"line1"`
	Locality  *string  `json:"locality"`
	City      *string  `json:"city"`
	Zip       *string  `json:"zip"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func CreateAddress(c *fiber.Ctx) error {
	var dto createAddressDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	address := models.Address{
		UserId:    currentUserID(c),
		Line1:     dto.Line1,
		Locality:  dto.Locality,
		City:      dto.City,
		Zip:       dto.Zip,
		Latitude:  dto.Latitude,
		Longitude: dto.Longitude,
		IsDefault: dto.IsDefault,
	}
	if err := middlewares.RequestDB(c).Create(&address).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(address)
}

func GetAddresses(c *fiber.Ctx) error {
	var addresses []models.Address
	if err := middlewares.RequestDB(c).
		Where("user_id = ?", currentUserID(c)).
		Find(&addresses).Error; err != nil {
		return err
	}
	return c.JSON(addresses)
}

func UpdateAddress(c *fiber.Ctx) error {
	var dto updateAddressDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)

	db := middlewares.RequestDB(c)
	var address models.Address
	if err := db.First(&address, "id = ? AND user_id = ?", c.Params("id"), currentUserID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.ErrNotFound
		}
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&dto, nil)
	if len(updates) == 0 {
		return c.JSON(address)
	}
	if err := db.Model(&address).Updates(updates).Error; err != nil {
		return err
	}
	return c.JSON(address)
}

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

type orderItemDTO struct {
	ProductId string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type createOrderDTO struct {
	AddressId    string         `json:"address_id" validate:"required,uuid4"`
	DeliveryDate string         `json:"delivery_date" validate:"required"`
	Items        []orderItemDTO `json:"items" validate:"required,min=1"`
}

// CreateOrder places a one-off order with catalog prices snapshotted at
// order time. The delivery itself materializes through the daily expansion
// job.
func CreateOrder(c *fiber.Ctx) error {
	var dto createOrderDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	for _, item := range dto.Items {
		if err := middlewares.ValidateStruct(item); err != nil {
			return err
		}
	}

	date, err := parseDate(dto.DeliveryDate)
	if err != nil {
		return err
	}

	db := middlewares.RequestDB(c)
	userID := currentUserID(c)

	var address models.Address
	if err := db.First(&address, "id = ? AND user_id = ?", dto.AddressId, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.ErrNotFound
		}
		return err
	}

	var items []models.OrderItem
	total := 0.0
	for _, item := range dto.Items {
		var product models.Product
		if err := db.First(&product, "id = ? AND active = ?", item.ProductId, true).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return services.ErrNotFound
			}
			return err
		}
		lineTotal := utils.Round2(product.UnitPrice * float64(item.Quantity))
		items = append(items, models.OrderItem{
			ProductId: product.Id,
			Quantity:  item.Quantity,
			UnitPrice: product.UnitPrice,
			LineTotal: lineTotal,
		})
		total += lineTotal
	}

	order := models.Order{
		UserId:       userID,
		AddressId:    address.Id,
		Items:        items,
		Total:        utils.Round2(total),
		Status:       models.OrderStatusPlaced,
		DeliveryDate: date,
	}
	if err := db.Create(&order).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

func GetOrders(c *fiber.Ctx) error {
	var orders []models.Order
	if err := middlewares.RequestDB(c).Preload("Items").
		Where("user_id = ?", currentUserID(c)).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		return err
	}
	return c.JSON(orders)
}

func GetOrder(c *fiber.Ctx) error {
	var order models.Order
	err := middlewares.RequestDB(c).Preload("Items").
		First(&order, "id = ? AND user_id = ?", c.Params("id"), currentUserID(c)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return services.ErrNotFound
	}
	if err != nil {
		return err
	}
	return c.JSON(order)
}

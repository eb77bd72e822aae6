package controllers

import (
	"errors"
	"time"

	"milkrun-backend/middlewares"
	"milkrun-backend/models"
	"milkrun-backend/services"
	"milkrun-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type createSubscriptionDTO struct {
	AddressId    string `json:"address_id" validate:"required,uuid4"`
	ProductId    string `json:"product_id" validate:"required,uuid4"`
	Quantity     int    `json:"quantity" validate:"required,gt=0"`
	Frequency    string `json:"frequency" validate:"required,oneof=daily alternate_days weekly"`
	Weekday      int    `json:"weekday" validate:"gte=0,lte=6"`
	BillingCycle string `json:"billing_cycle" validate:"required,oneof=weekly monthly"`
	StartDate    string `json:"start_date" validate:"required"`
}

type updateSubscriptionDTO struct {
	Quantity *int `json:"quantity"`
	Weekday  *int `json:"weekday"`
	// Frequency changes take effect from the next expansion run.
	Frequency *string `json:"frequency"`
}

func CreateSubscription(c *fiber.Ctx) error {
	var dto createSubscriptionDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}

	start, err := parseDate(dto.StartDate)
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
	var product models.Product
	if err := db.First(&product, "id = ? AND active = ?", dto.ProductId, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.ErrNotFound
		}
		return err
	}

	subscription := models.Subscription{
		UserId:       userID,
		AddressId:    address.Id,
		ProductId:    product.Id,
		Quantity:     dto.Quantity,
		Frequency:    dto.Frequency,
		Weekday:      dto.Weekday,
		BillingCycle: dto.BillingCycle,
		Status:       models.SubscriptionActive,
		StartDate:    start,
	}
	if err := db.Create(&subscription).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(subscription)
}

func GetSubscriptions(c *fiber.Ctx) error {
	var subscriptions []models.Subscription
	if err := middlewares.RequestDB(c).
		Where("user_id = ?", currentUserID(c)).
		Order("created_at desc").
		Find(&subscriptions).Error; err != nil {
		return err
	}
	return c.JSON(subscriptions)
}

func UpdateSubscription(c *fiber.Ctx) error {
	var dto updateSubscriptionDTO
	if err := middlewares.BindAndValidate(c, &dto); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&dto)
	if dto.Frequency != nil {
		switch *dto.Frequency {
		case models.FrequencyDaily, models.FrequencyAlternateDays, models.FrequencyWeekly:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "invalid frequency")
		}
	}

	db := middlewares.RequestDB(c)
	var subscription models.Subscription
	if err := db.First(&subscription, "id = ? AND user_id = ?", c.Params("id"), currentUserID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return services.ErrNotFound
		}
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&dto, nil)
	if len(updates) == 0 {
		return c.JSON(subscription)
	}
	if err := db.Model(&subscription).Updates(updates).Error; err != nil {
		return err
	}
	return c.JSON(subscription)
}

func PauseSubscription(c *fiber.Ctx) error {
	return setSubscriptionStatus(c, models.SubscriptionActive, models.SubscriptionPaused)
}

func ResumeSubscription(c *fiber.Ctx) error {
	return setSubscriptionStatus(c, models.SubscriptionPaused, models.SubscriptionActive)
}

// CancelSubscription is terminal; cancelled subscriptions never resume.
func CancelSubscription(c *fiber.Ctx) error {
	db := middlewares.RequestDB(c)
	res := db.Model(&models.Subscription{}).
		Where("id = ? AND user_id = ? AND status <> ?",
			c.Params("id"), currentUserID(c), models.SubscriptionCancelled).
		Updates(map[string]any{"status": models.SubscriptionCancelled, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return c.JSON(fiber.Map{"status": models.SubscriptionCancelled})
}

func setSubscriptionStatus(c *fiber.Ctx, from, to string) error {
	res := middlewares.RequestDB(c).Model(&models.Subscription{}).
		Where("id = ? AND user_id = ? AND status = ?", c.Params("id"), currentUserID(c), from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return services.ErrNotFound
	}
	return c.JSON(fiber.Map{"status": to})
}

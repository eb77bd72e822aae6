package services

import (
	"fmt"
	"time"

	"milkrun-backend/models"
	"milkrun-backend/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Expander materializes subscription and order deliveries for a date, and
// owns the housekeeping jobs (route cleanup).
type Expander struct {
	DB  *gorm.DB
	Log *zap.Logger
}

// ExpandDeliveries creates subscription_deliveries for every active
// subscription due on the given date, plus deliveries for placed one-off
// orders scheduled that day. Re-running for the same date creates nothing
// new; existing rows per source are detected and skipped.
func (e *Expander) ExpandDeliveries(date time.Time) (int, error) {
	day := date.Truncate(24 * time.Hour)
	created := 0

	var subscriptions []models.Subscription
	if err := e.DB.Where("status = ?", models.SubscriptionActive).Find(&subscriptions).Error; err != nil {
		return 0, err
	}

	productByID := make(map[string]models.Product)
	loadProduct := func(id string) (models.Product, error) {
		if p, ok := productByID[id]; ok {
			return p, nil
		}
		var p models.Product
		if err := e.DB.First(&p, "id = ?", id).Error; err != nil {
			return p, err
		}
		productByID[id] = p
		return p, nil
	}

	for _, sub := range subscriptions {
		if !sub.DueOn(day) {
			continue
		}

		var exists int64
		if err := e.DB.Model(&models.SubscriptionDelivery{}).
			Where("subscription_id = ? AND delivery_date = ?", sub.Id, day).
			Count(&exists).Error; err != nil {
			return created, err
		}
		if exists > 0 {
			continue
		}

		product, err := loadProduct(sub.ProductId)
		if err != nil {
			// Dangling product reference; skip this subscription, keep going.
			e.Log.Error("expansion: product lookup failed",
				zap.String("subscription_id", sub.Id), zap.Error(err))
			continue
		}

		subID := sub.Id
		delivery := models.SubscriptionDelivery{
			UserId:         sub.UserId,
			SubscriptionId: &subID,
			AddressId:      sub.AddressId,
			ProductId:      product.Id,
			ProductName:    product.Name,
			Quantity:       sub.Quantity,
			UnitPrice:      product.UnitPrice,
			LineTotal:      utils.Round2(product.UnitPrice * float64(sub.Quantity)),
			DeliveryDate:   day,
			Status:         models.DeliveryScheduled,
		}
		if err := e.DB.Create(&delivery).Error; err != nil {
			return created, fmt.Errorf("create delivery for subscription %s: %w", sub.Id, err)
		}
		created++
	}

	n, err := e.expandOrders(day, loadProduct)
	created += n
	if err != nil {
		return created, err
	}

	e.Log.Info("delivery expansion finished",
		zap.String("date", day.Format("2006-01-02")), zap.Int("created", created))
	return created, nil
}

func (e *Expander) expandOrders(day time.Time, loadProduct func(string) (models.Product, error)) (int, error) {
	var orders []models.Order
	if err := e.DB.Preload("Items").
		Where("delivery_date = ? AND status = ?", day, models.OrderStatusPlaced).
		Find(&orders).Error; err != nil {
		return 0, err
	}

	created := 0
	for _, order := range orders {
		var exists int64
		if err := e.DB.Model(&models.SubscriptionDelivery{}).
			Where("order_id = ?", order.Id).
			Count(&exists).Error; err != nil {
			return created, err
		}
		if exists > 0 {
			continue
		}

		for _, item := range order.Items {
			product, err := loadProduct(item.ProductId)
			if err != nil {
				e.Log.Error("expansion: product lookup failed",
					zap.String("order_id", order.Id), zap.Error(err))
				continue
			}
			orderID := order.Id
			delivery := models.SubscriptionDelivery{
				UserId:       order.UserId,
				OrderId:      &orderID,
				AddressId:    order.AddressId,
				ProductId:    product.Id,
				ProductName:  product.Name,
				Quantity:     item.Quantity,
				UnitPrice:    item.UnitPrice,
				LineTotal:    item.LineTotal,
				DeliveryDate: day,
				Status:       models.DeliveryScheduled,
			}
			if err := e.DB.Create(&delivery).Error; err != nil {
				return created, fmt.Errorf("create delivery for order %s: %w", order.Id, err)
			}
			created++
		}
	}
	return created, nil
}

// CleanupOldRoutes deletes completed routes older than the retention window.
// Stops cascade with the route; deliveries keep their history.
func (e *Expander) CleanupOldRoutes(asOf time.Time, retainDays int) (int64, error) {
	cutoff := asOf.AddDate(0, 0, -retainDays)

	var routes []models.Route
	if err := e.DB.Where("date < ? AND status = ?", cutoff, models.RouteCompleted).Find(&routes).Error; err != nil {
		return 0, err
	}
	if len(routes) == 0 {
		return 0, nil
	}

	ids := make([]string, len(routes))
	for i, r := range routes {
		ids[i] = r.Id
	}
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("route_id IN ?", ids).Delete(&models.RouteStop{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.Route{}).Error
	})
	if err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

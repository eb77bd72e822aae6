package services

import (
	"errors"
	"fmt"
	"time"

	"milkrun-backend/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Forward-only stop transitions. There is no path back to pending;
// re-delivery attempts are out of scope.
var stopTransitions = map[string][]string{
	models.StopPending:   {models.StopInTransit},
	models.StopInTransit: {models.StopDelivered, models.StopMissed},
}

// CanTransitionStop reports whether a stop may move from one status to
// another.
func CanTransitionStop(from, to string) bool {
	for _, allowed := range stopTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StatusUpdater applies stop status transitions and keeps the underlying
// delivery record and the owning route's status in sync.
type StatusUpdater struct {
	DB  *gorm.DB
	Log *zap.Logger
}

// UpdateStopStatus moves a stop to newStatus. in_transit stamps ArrivedAt,
// delivered stamps DeliveredAt. A delivered stop marks its delivery
// delivered; a missed stop marks it failed. Route roll-up: first transit
// puts the route in_progress, all stops terminal completes it.
func (s *StatusUpdater) UpdateStopStatus(stopID, newStatus string) (*models.RouteStop, error) {
	var stop models.RouteStop

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&stop, "id = ?", stopID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if !CanTransitionStop(stop.Status, newStatus) {
			return fmt.Errorf("%w: stop %s -> %s", ErrInvalidTransition, stop.Status, newStatus)
		}

		now := time.Now().UTC()
		stop.Status = newStatus
		switch newStatus {
		case models.StopInTransit:
			stop.ArrivedAt = &now
		case models.StopDelivered:
			stop.DeliveredAt = &now
		}
		if err := tx.Save(&stop).Error; err != nil {
			return err
		}

		// Keep the source delivery in sync with the stop outcome.
		switch newStatus {
		case models.StopDelivered:
			if err := tx.Model(&models.SubscriptionDelivery{}).
				Where("id = ?", stop.DeliveryId).
				Updates(map[string]any{"status": models.DeliveryDelivered, "delivered_at": &now}).Error; err != nil {
				return err
			}
		case models.StopMissed:
			if err := tx.Model(&models.SubscriptionDelivery{}).
				Where("id = ?", stop.DeliveryId).
				Update("status", models.DeliveryFailed).Error; err != nil {
				return err
			}
		}

		return s.rollUpRoute(tx, stop.RouteId)
	})
	if err != nil {
		return nil, err
	}
	return &stop, nil
}

func (s *StatusUpdater) rollUpRoute(tx *gorm.DB, routeID string) error {
	var stops []models.RouteStop
	if err := tx.Where("route_id = ?", routeID).Find(&stops).Error; err != nil {
		return err
	}

	allTerminal := true
	anyStarted := false
	for _, st := range stops {
		switch st.Status {
		case models.StopDelivered, models.StopMissed:
			anyStarted = true
		case models.StopInTransit:
			anyStarted = true
			allTerminal = false
		default:
			allTerminal = false
		}
	}

	status := models.RoutePlanned
	switch {
	case allTerminal && len(stops) > 0:
		status = models.RouteCompleted
	case anyStarted:
		status = models.RouteInProgress
	default:
		return nil
	}
	return tx.Model(&models.Route{}).Where("id = ?", routeID).Update("status", status).Error
}

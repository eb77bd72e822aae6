package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoutePlanned    = "planned"
	RouteInProgress = "in_progress"
	RouteCompleted  = "completed"
	RouteCancelled  = "cancelled"
)

const (
	StopPending   = "pending"
	StopInTransit = "in_transit"
	StopDelivered = "delivered"
	StopMissed    = "missed"
)

// Route is one agent's run for one date. The (agent, date) pair is unique;
// stops are owned and cascade-deleted with the route.
type Route struct {
	Id      string    `json:"id" gorm:"primaryKey"`
	AgentId string    `json:"agent_id" gorm:"not null;index:idx_routes_agent_date,unique,priority:1"`
	Date    time.Time `json:"date" gorm:"not null;index:idx_routes_agent_date,unique,priority:2;index"`

	Stops []RouteStop `json:"stops" gorm:"foreignKey:RouteId;constraint:OnDelete:CASCADE"`

	TotalDistanceKm          float64 `json:"total_distance_km"`
	EstimatedDurationMinutes int     `json:"estimated_duration_minutes"`
	Status                   string  `json:"status" gorm:"not null;default:planned"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RouteStop is one delivery location in tour order. Everything except Status
// and the arrival/delivery stamps is frozen when the route is generated.
// ProductLines is a jsonb snapshot of what gets dropped at the door.
type RouteStop struct {
	Id      string `json:"id" gorm:"primaryKey"`
	RouteId string `json:"-" gorm:"index"`

	DeliveryId   string  `json:"delivery_id" gorm:"not null;index"`
	UserId       string  `json:"user_id" gorm:"not null"`
	CustomerName string  `json:"customer_name"`
	AddressLine  string  `json:"address_line"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`

	ProductLines datatypes.JSON `json:"product_lines" gorm:"type:jsonb"`
	AmountDue    float64        `json:"amount_due" gorm:"type:numeric(12,2)"`

	SequenceIndex      int     `json:"sequence_index"`
	DistanceFromPrevKm float64 `json:"distance_from_prev_km"`

	Status      string     `json:"status" gorm:"not null;default:pending"`
	ArrivedAt   *time.Time `json:"arrived_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
}

func (route *Route) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if route.Id == "" {
		route.Id = uuid.NewString()
	}
	return
}

func (stop *RouteStop) BeforeCreate(tx *gorm.DB) (err error) {
	if stop.Id == "" {
		stop.Id = uuid.NewString()
	}
	return
}

package services

import (
	"encoding/json"
	"fmt"
	"time"

	"milkrun-backend/config"
	"milkrun-backend/models"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RouteGenerator turns a day's scheduled deliveries into per-agent routes:
// partition into locality zones, pair zones with active agents in order, and
// run the nearest-neighbor heuristic per pair from the depot.
type RouteGenerator struct {
	DB  *gorm.DB
	Cfg config.Config
	Log *zap.Logger
}

// GenerationResult reports what one generation run produced. Unrouted counts
// deliveries whose zone had no agent (zones beyond the agent count are
// dropped) plus deliveries in zones whose persistence failed; Ungeocoded
// counts deliveries excluded for missing coordinates (a data-quality
// problem, never silently retried).
type GenerationResult struct {
	Routes     []models.Route `json:"routes"`
	Unrouted   int            `json:"unrouted_deliveries"`
	Ungeocoded int            `json:"ungeocoded_deliveries"`
}

// routeCandidate is one geocoded delivery eligible for routing.
type routeCandidate struct {
	delivery     models.SubscriptionDelivery
	address      models.Address
	customerName string
}

// productLine is the jsonb snapshot stored on each stop.
type productLine struct {
	Product  string  `json:"product"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// GenerateRoutes builds routes for the given date. Regenerating a date that
// already has routes is rejected with ErrRoutesExist; delete the day's
// routes first to unbind its deliveries.
func (g *RouteGenerator) GenerateRoutes(date time.Time) (*GenerationResult, error) {
	day := date.Truncate(24 * time.Hour)

	var existing int64
	if err := g.DB.Model(&models.Route{}).Where("date = ?", day).Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrRoutesExist
	}

	var agents []models.User
	if err := g.DB.
		Where("role = ? AND active = ?", models.RoleDeliveryAgent, true).
		Order("created_at asc").
		Find(&agents).Error; err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		return nil, ErrNoAgentsAvailable
	}

	var deliveries []models.SubscriptionDelivery
	if err := g.DB.
		Where("delivery_date = ? AND status = ? AND route_id IS NULL", day, models.DeliveryScheduled).
		Order("created_at asc").
		Find(&deliveries).Error; err != nil {
		return nil, err
	}

	result := &GenerationResult{}
	if len(deliveries) == 0 {
		return result, nil
	}

	candidates, ungeocoded, err := g.resolveCandidates(deliveries)
	if err != nil {
		return nil, err
	}
	result.Ungeocoded = ungeocoded
	if len(candidates) == 0 {
		return result, nil
	}

	labels := make([]string, len(candidates))
	for i, c := range candidates {
		labels[i] = c.address.Locality
	}
	zones := RebalanceZones(PartitionZones(labels), g.Cfg.ZoneMinSize, g.Cfg.ZoneMaxCount)

	// Pair zones with agents in order; zones beyond the agent count stay
	// unrouted and are reported, not silently lost.
	paired := len(zones)
	if len(agents) < paired {
		paired = len(agents)
	}
	for _, z := range zones[paired:] {
		result.Unrouted += len(z.Members)
	}

	depot := Point{Lat: g.Cfg.DepotLat, Lon: g.Cfg.DepotLon}
	for i := 0; i < paired; i++ {
		route, err := g.persistZoneRoute(agents[i], day, zones[i], candidates, depot)
		if err != nil {
			// One agent's route rolls back alone; the run continues.
			g.Log.Error("route persistence failed",
				zap.String("agent_id", agents[i].Id),
				zap.String("zone", zones[i].Label),
				zap.Error(err))
			result.Unrouted += len(zones[i].Members)
			continue
		}
		result.Routes = append(result.Routes, *route)
	}

	g.Log.Info("route generation finished",
		zap.String("date", day.Format("2006-01-02")),
		zap.Int("routes", len(result.Routes)),
		zap.Int("unrouted", result.Unrouted),
		zap.Int("ungeocoded", result.Ungeocoded))
	return result, nil
}

// resolveCandidates joins deliveries with their addresses and customer
// names, dropping (and counting) deliveries whose address lacks coordinates.
func (g *RouteGenerator) resolveCandidates(deliveries []models.SubscriptionDelivery) ([]routeCandidate, int, error) {
	addrIDs := make([]string, 0, len(deliveries))
	userIDs := make([]string, 0, len(deliveries))
	for _, d := range deliveries {
		addrIDs = append(addrIDs, d.AddressId)
		userIDs = append(userIDs, d.UserId)
	}

	var addresses []models.Address
	if err := g.DB.Where("id IN ?", addrIDs).Find(&addresses).Error; err != nil {
		return nil, 0, err
	}
	addrByID := make(map[string]models.Address, len(addresses))
	for _, a := range addresses {
		addrByID[a.Id] = a
	}

	var users []models.User
	if err := g.DB.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	nameByID := make(map[string]string, len(users))
	for _, u := range users {
		nameByID[u.Id] = u.Name
	}

	var candidates []routeCandidate
	ungeocoded := 0
	for _, d := range deliveries {
		addr, ok := addrByID[d.AddressId]
		if !ok || !addr.Geocoded() {
			ungeocoded++
			continue
		}
		candidates = append(candidates, routeCandidate{
			delivery:     d,
			address:      addr,
			customerName: nameByID[d.UserId],
		})
	}
	return candidates, ungeocoded, nil
}

func (g *RouteGenerator) persistZoneRoute(agent models.User, day time.Time, zone Zone, candidates []routeCandidate, depot Point) (*models.Route, error) {
	points := make([]Point, len(zone.Members))
	for i, m := range zone.Members {
		points[i] = Point{
			Lat: *candidates[m].address.Latitude,
			Lon: *candidates[m].address.Longitude,
		}
	}
	tour := BuildTour(points, depot, g.Cfg.MinutesPerKm)

	route := models.Route{
		AgentId:                  agent.Id,
		Date:                     day,
		TotalDistanceKm:          tour.TotalKm,
		EstimatedDurationMinutes: tour.DurationMinutes,
		Status:                   models.RoutePlanned,
	}

	err := g.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&route).Error; err != nil {
			return fmt.Errorf("create route: %w", err)
		}

		for seq, ti := range tour.Order {
			c := candidates[zone.Members[ti]]
			lines, _ := json.Marshal([]productLine{{
				Product:  c.delivery.ProductName,
				Quantity: c.delivery.Quantity,
				Price:    c.delivery.UnitPrice,
			}})

			stop := models.RouteStop{
				RouteId:            route.Id,
				DeliveryId:         c.delivery.Id,
				UserId:             c.delivery.UserId,
				CustomerName:       c.customerName,
				AddressLine:        c.address.Line1,
				Latitude:           *c.address.Latitude,
				Longitude:          *c.address.Longitude,
				ProductLines:       datatypes.JSON(lines),
				AmountDue:          c.delivery.LineTotal,
				SequenceIndex:      seq,
				DistanceFromPrevKm: tour.Legs[seq],
				Status:             models.StopPending,
			}
			if err := tx.Create(&stop).Error; err != nil {
				return fmt.Errorf("create stop %d: %w", seq, err)
			}
			route.Stops = append(route.Stops, stop)

			if err := tx.Model(&models.SubscriptionDelivery{}).
				Where("id = ?", c.delivery.Id).
				Update("route_id", route.Id).Error; err != nil {
				return fmt.Errorf("bind delivery: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &route, nil
}

package http

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/lgatracker/internal/core/domain"
)

// ListRegionsHandler returns region summaries in registry order.
// ?visited=true|false filters by visit state, ?q matches names case-insensitively.
func ListRegionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		regions, err := deps.Tracker.Regions()
		if err != nil {
			return errFromDomain(c, err)
		}

		var visitedFilter *bool
		if raw := c.Query("visited"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return errBadRequest(c, "visited must be true or false")
			}
			visitedFilter = &v
		}
		q := strings.ToLower(strings.TrimSpace(c.Query("q")))

		out := make([]RegionSummary, 0, len(regions))
		for _, r := range regions {
			s := summaryOf(deps.Tracker, r)
			if visitedFilter != nil && s.Visited != *visitedFilter {
				continue
			}
			if q != "" && !strings.Contains(strings.ToLower(s.Name), q) {
				continue
			}
			out = append(out, s)
		}
		return c.JSON(paginate(c, out))
	}
}

// GetRegionHandler returns hover details for one region. ?geometry=true adds GeoJSON.
func GetRegionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := regionID(c)
		if err != nil {
			return errBadRequest(c, "region id must be an integer")
		}
		region, err := deps.Tracker.Region(id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(detailOf(deps.Tracker, region, c.QueryBool("geometry", false)))
	}
}

// LocateRegionHandler returns the region containing ?lat=&lon=.
func LocateRegionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
		lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
		if errLat != nil || errLon != nil {
			return errBadRequest(c, "lat and lon are required")
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return errBadRequest(c, "lat must be within ±90 and lon within ±180")
		}
		region, err := deps.Tracker.Locate(domain.GeoPoint{Lat: lat, Lon: lon})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(detailOf(deps.Tracker, region, false))
	}
}

// ToggleResponse is returned after a region was clicked.
type ToggleResponse struct {
	domain.VisitChange
	Fill     string       `json:"fill"`
	Style    RegionStyle  `json:"style"`
	Progress ProgressView `json:"progress"`
}

// ToggleRegionHandler flips the visited state of one region.
func ToggleRegionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := regionID(c)
		if err != nil {
			return errBadRequest(c, "region id must be an integer")
		}
		change, err := deps.Tracker.Toggle(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		if !change.Persisted {
			LoggerFromCtx(c.UserContext()).Warn("visit not persisted", "region_id", id)
		}
		fill := domain.FillFor(change.Visited)
		return c.JSON(ToggleResponse{
			VisitChange: change,
			Fill:        fill.String(),
			Style:       StyleFor(fill),
			Progress:    progressView(deps.Tracker),
		})
	}
}

// ListVisitsHandler returns the visited ids, sorted.
func ListVisitsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids := deps.Tracker.Visits().IDs()
		if ids == nil {
			ids = []int64{}
		}
		return c.JSON(fiber.Map{"ids": ids, "count": len(ids)})
	}
}

// ProgressHandler returns visited/total statistics and the display string.
func ProgressHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(progressView(deps.Tracker))
	}
}

// MapHandler returns the initial view, the legend and every region as GeoJSON.
func MapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		regions, err := deps.Tracker.Regions()
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(MapView{
			Center:   MapCenter,
			Zoom:     MapZoom,
			Progress: progressView(deps.Tracker),
			Legend: map[string]RegionStyle{
				domain.FillVisited.String():   StyleFor(domain.FillVisited),
				domain.FillUnvisited.String(): StyleFor(domain.FillUnvisited),
			},
			Regions: featureCollection(deps.Tracker, regions),
		})
	}
}

// ReloadRegistryHandler starts a registry load in the background.
// A load already in flight is superseded. ?refresh=true drops the cached payload first.
func ReloadRegistryHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := LoggerFromCtx(c.UserContext())
		if raw := c.Query("refresh"); raw != "" {
			refresh, err := strconv.ParseBool(raw)
			if err != nil {
				return errBadRequest(c, "refresh must be true or false")
			}
			if refresh {
				if err := deps.Tracker.Registry().DropCached(c.UserContext()); err != nil {
					log.Error("drop cached boundaries failed", "error", err)
					return errInternal(c, "could not drop cached boundaries")
				}
			}
		}
		done := deps.Tracker.ReloadAsync(context.WithoutCancel(c.UserContext()))
		go func() {
			if err := <-done; err != nil {
				log.Warn("registry reload failed", "error", err)
			}
		}()
		return c.Status(fiber.StatusAccepted).JSON(deps.Tracker.Registry().Status())
	}
}

// RegistryStatusHandler reports the registry holder state.
func RegistryStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(deps.Tracker.Registry().Status())
	}
}

func regionID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

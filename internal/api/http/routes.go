package httpapi

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/aurorawatch/aurora-forecast/internal/aurora"
	"github.com/aurorawatch/aurora-forecast/internal/cache"
)

var validate = validator.New()

// kpScale maps Kp ranges to the NOAA G-scale descriptions returned alongside
// the current reading.
var kpScale = map[string]string{
	"0-2": "Quiet",
	"3-4": "Unsettled",
	"5":   "Minor storm (G1)",
	"6":   "Moderate storm (G2)",
	"7":   "Strong storm (G3)",
	"8":   "Severe storm (G4)",
	"9":   "Extreme storm (G5)",
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, resolver *aurora.Resolver, service *aurora.Service, store *cache.Cache) {
	v1 := app.Group("/api/v1")

	v1.Get("/aurora/forecast", func(c *fiber.Ctx) error {
		q, err := parseCoordsQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, err := resolver.Resolve(c.UserContext(), q.Lat, q.Lon)
		if err != nil {
			return mapCoreError(err)
		}

		snapshot, err := service.Snapshot(c.UserContext(), loc.Coordinate)
		if err != nil {
			return mapCoreError(err)
		}

		return c.JSON(fiber.Map{
			"location":       loc,
			"probability":    snapshot.Probability,
			"kp":             snapshot.KpIndex,
			"recommendation": viewingRecommendation(snapshot.Probability),
			"notes":          forecastNotes(loc),
		})
	})

	v1.Get("/aurora/prediction", func(c *fiber.Ctx) error {
		var req predictionQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc, err := resolver.Resolve(c.UserContext(), req.Coords.Lat, req.Coords.Lon)
		if err != nil {
			return mapCoreError(err)
		}

		prediction, err := service.Prediction(c.UserContext(), loc.Coordinate, req.Hours)
		if err != nil {
			return mapCoreError(err)
		}

		return c.JSON(fiber.Map{
			"location":   loc,
			"prediction": prediction,
		})
	})

	v1.Get("/kp", func(c *fiber.Ctx) error {
		latest, err := service.LatestKp(c.UserContext())
		if err != nil {
			return mapCoreError(err)
		}

		return c.JSON(fiber.Map{
			"kp":    latest.Kp.String(),
			"time":  latest.TimeTag,
			"scale": kpScale,
		})
	})

	v1.Get("/location", func(c *fiber.Ctx) error {
		loc, err := resolver.DetectIP(c.UserContext())
		if err != nil {
			return mapCoreError(err)
		}
		return c.JSON(loc)
	})

	v1.Get("/cache/stats", func(c *fiber.Ctx) error {
		return c.JSON(store.Stats())
	})

	v1.Delete("/cache", func(c *fiber.Ctx) error {
		store.Clear()
		return c.JSON(fiber.Map{
			"message": "cache cleared; next requests will fetch fresh data from NOAA",
		})
	})
}

// coordsQuery holds the optional lat/lon query parameters. Range validation
// belongs to the resolver; this layer only parses.
type coordsQuery struct {
	Lat *float64
	Lon *float64
}

func parseCoordsQuery(c *fiber.Ctx) (coordsQuery, error) {
	var q coordsQuery

	if s := c.Query("lat"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, fmt.Errorf("invalid lat: %q", s)
		}
		q.Lat = &v
	}
	if s := c.Query("lon"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return q, fmt.Errorf("invalid lon: %q", s)
		}
		q.Lon = &v
	}

	return q, nil
}

// predictionQuery holds query parameters for the prediction endpoint.
type predictionQuery struct {
	Coords coordsQuery
	Hours  int `validate:"min=1,max=72"`
}

func (p *predictionQuery) bind(c *fiber.Ctx) error {
	coords, err := parseCoordsQuery(c)
	if err != nil {
		return err
	}
	p.Coords = coords

	p.Hours = 24
	if s := c.Query("hours"); s != "" {
		hours, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid hours: %q", s)
		}
		p.Hours = hours
	}

	return nil
}

// mapCoreError translates the core error taxonomy into HTTP statuses.
func mapCoreError(err error) error {
	var ve *aurora.ValidationError
	if errors.As(err, &ve) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	var lu *aurora.LocationUnavailableError
	if errors.As(err, &lu) {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	var ne *aurora.NetworkError
	if errors.As(err, &ne) {
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}

func viewingRecommendation(probability float64) string {
	switch {
	case probability > 50:
		return "HIGH - excellent aurora viewing conditions"
	case probability > 25:
		return "MODERATE - aurora may be visible with clear skies"
	default:
		return "LOW - aurora unlikely to be visible"
	}
}

func forecastNotes(loc aurora.ResolvedLocation) []string {
	var notes []string
	if lat := loc.Coordinate.Lat; lat > 0 && lat < 55 {
		notes = append(notes, "your latitude is quite far south; aurora is typically visible above 60°N")
	}
	if loc.Note != "" {
		notes = append(notes, loc.Note)
	}
	return notes
}

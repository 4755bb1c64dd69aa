package aurora

import (
	"encoding/json"
	"fmt"
	"time"
)

// Coordinate bounds in degrees.
const (
	MinLat = -90.0
	MaxLat = 90.0
	MinLon = -180.0
	MaxLon = 180.0
)

// Cache TTLs per dataset. The per-coordinate snapshot shares the grid policy
// since it derives from it.
const (
	TTLLocation           = time.Hour
	TTLAuroraGrid         = 5 * time.Minute
	TTLKpIndex            = 3 * time.Minute
	TTLSolarWind          = time.Hour
	TTLFlareProbabilities = time.Hour
	TTLSnapshot           = TTLAuroraGrid
)

// Source records how a location was resolved.
type Source string

const (
	SourceUser Source = "user"
	SourceIP   Source = "ip"
)

// Coordinate is a validated latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// NewCoordinate validates the bounds and returns the pair. Violations are
// reported as *ValidationError naming the failed bound.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	if lat < MinLat || lat > MaxLat {
		return Coordinate{}, &ValidationError{Field: "latitude", Value: lat, Min: MinLat, Max: MaxLat}
	}
	if lon < MinLon || lon > MaxLon {
		return Coordinate{}, &ValidationError{Field: "longitude", Value: lon, Min: MinLon, Max: MaxLon}
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}

// String renders the pair for display, e.g. "10.00°, 20.00°".
func (c Coordinate) String() string {
	return fmt.Sprintf("%.2f°, %.2f°", c.Lat, c.Lon)
}

// IPLocation is the result of a successful geolocation provider call.
// Absent fields are filled with "Unknown" by the provider.
type IPLocation struct {
	Coordinate Coordinate `json:"coordinate"`
	City       string     `json:"city"`
	Region     string     `json:"region"`
	Country    string     `json:"country"`
}

// DisplayName returns the human-readable place name.
func (l IPLocation) DisplayName() string {
	return fmt.Sprintf("%s, %s, %s", l.City, l.Region, l.Country)
}

// ResolvedLocation is the authoritative outcome of one resolution call.
type ResolvedLocation struct {
	Coordinate  Coordinate  `json:"coordinate"`
	DisplayName string      `json:"displayName"`
	Source      Source      `json:"source"`
	Note        string      `json:"note,omitempty"`
	IPRecord    *IPLocation `json:"ipLocation,omitempty"`
}

// GridPoint is one sample of the OVATION probability field, encoded upstream
// as a [longitude, latitude, probability] triple. Never mutated here.
type GridPoint struct {
	Lon         float64
	Lat         float64
	Probability float64
}

func (p *GridPoint) UnmarshalJSON(data []byte) error {
	var triple []float64
	if err := json.Unmarshal(data, &triple); err != nil {
		return err
	}
	if len(triple) != 3 {
		return fmt.Errorf("grid point: expected [lon, lat, probability], got %d elements", len(triple))
	}
	p.Lon, p.Lat, p.Probability = triple[0], triple[1], triple[2]
	return nil
}

func (p GridPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{p.Lon, p.Lat, p.Probability})
}

// OvationGrid is the sparse aurora probability grid. The point list has no
// guaranteed spatial structure or ordering.
type OvationGrid struct {
	Coordinates []GridPoint `json:"coordinates"`
}

// KpValue is a planetary K-index value as reported upstream, which encodes it
// inconsistently as either a JSON number or a quoted string.
type KpValue string

func (v *KpValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = KpValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = KpValue(n.String())
	return nil
}

func (v KpValue) String() string { return string(v) }

// KpReading is one element of the planetary K-index series. No time ordering
// is assumed on the upstream series.
type KpReading struct {
	Kp      KpValue `json:"kp"`
	TimeTag string  `json:"time_tag"`
}

// SolarWindSeries is the ENLIL solar-wind model output, passed through
// unparsed.
type SolarWindSeries []json.RawMessage

// Snapshot is the aggregated per-coordinate result. The coordinate is the
// exact input of whichever request populated the 0.5°-rounded cache cell.
type Snapshot struct {
	Probability float64    `json:"probability"`
	KpIndex     string     `json:"kp"`
	Coordinate  Coordinate `json:"coordinate"`
}

// Prediction is the simplified forward-looking summary: the solar-wind series
// and flare probabilities are surfaced without time-series parsing.
type Prediction struct {
	Coordinate      Coordinate `json:"coordinate"`
	HoursAhead      int        `json:"hoursAhead"`
	SolarWindPoints int        `json:"solarWindPoints"`
	FlaresLoaded    bool       `json:"flareProbabilitiesLoaded"`
}

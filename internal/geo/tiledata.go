package geo

import "time"

// Status tracks a tile's position in the fetch lifecycle.
type Status string

const (
	StatusNone    Status = "none"
	StatusPending Status = "pending"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusFailed  Status = "failed"
	StatusCached  Status = "cached"
	StatusStale   Status = "stale"
)

// TileData is the raw geographic payload of one map tile as returned by a
// provider, before any game-space processing.
type TileData struct {
	Tile   TileID      `json:"tile"`
	Bounds BoundingBox `json:"bounds"`
	Status Status      `json:"status"`
	Error  string      `json:"error,omitempty"`

	Roads       []Road         `json:"roads,omitempty"`
	Buildings   []Building     `json:"buildings,omitempty"`
	WaterBodies []WaterBody    `json:"waterBodies,omitempty"`
	POIs        []POI          `json:"pois,omitempty"`
	LandUse     []LandUse      `json:"landUse,omitempty"`
	Elevation   *ElevationGrid `json:"elevation,omitempty"`
	Biome       BiomeData      `json:"biome"`

	FetchedAt int64 `json:"fetchedAt"` // unix seconds
	ExpiresAt int64 `json:"expiresAt"` // unix seconds, 0 = never
}

// HasData reports whether the tile carries any features at all.
func (d *TileData) HasData() bool {
	return len(d.Roads) > 0 || len(d.Buildings) > 0 ||
		len(d.WaterBodies) > 0 || len(d.POIs) > 0 ||
		len(d.LandUse) > 0 || !d.Elevation.Empty()
}

// Expired reports whether the tile's expiry timestamp has passed. Tiles
// with no expiry never expire.
func (d *TileData) Expired() bool {
	if d.ExpiresAt <= 0 {
		return false
	}
	return time.Now().Unix() > d.ExpiresAt
}

func (d *TileData) RoadByID(id int64) *Road {
	for i := range d.Roads {
		if d.Roads[i].ID == id {
			return &d.Roads[i]
		}
	}
	return nil
}

func (d *TileData) BuildingByID(id int64) *Building {
	for i := range d.Buildings {
		if d.Buildings[i].ID == id {
			return &d.Buildings[i]
		}
	}
	return nil
}

func (d *TileData) POIByID(id int64) *POI {
	for i := range d.POIs {
		if d.POIs[i].ID == id {
			return &d.POIs[i]
		}
	}
	return nil
}

// Clear drops all features and resets the status.
func (d *TileData) Clear() {
	d.Roads = nil
	d.Buildings = nil
	d.WaterBodies = nil
	d.POIs = nil
	d.LandUse = nil
	d.Elevation = nil
	d.Biome = BiomeData{}
	d.Status = StatusNone
	d.Error = ""
}

// QueryOptions controls what a provider fetches and how caching behaves.
type QueryOptions struct {
	FetchRoads     bool `json:"fetchRoads"`
	FetchBuildings bool `json:"fetchBuildings"`
	FetchWater     bool `json:"fetchWater"`
	FetchPOIs      bool `json:"fetchPOIs"`
	FetchLandUse   bool `json:"fetchLandUse"`
	FetchElevation bool `json:"fetchElevation"`

	RoadTypes     []RoadType     `json:"roadTypes,omitempty"`
	BuildingTypes []BuildingType `json:"buildingTypes,omitempty"`
	POICategories []POICategory  `json:"poiCategories,omitempty"`

	UseCache     bool          `json:"useCache"`
	ForceRefresh bool          `json:"forceRefresh"`
	CacheExpiry  time.Duration `json:"cacheExpiry"`

	MaxFeatures     int     `json:"maxFeatures"`
	MinBuildingArea float64 `json:"minBuildingArea"` // square meters
	MinRoadLength   float64 `json:"minRoadLength"`   // meters
}

// DefaultQueryOptions fetches every layer with a week of cache validity.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		FetchRoads:     true,
		FetchBuildings: true,
		FetchWater:     true,
		FetchPOIs:      true,
		FetchLandUse:   true,
		FetchElevation: true,
		UseCache:       true,
		CacheExpiry:    168 * time.Hour,
		MaxFeatures:    10000,
	}
}

package world

import (
	"time"

	"github.com/vehement/geoworld/internal/buildings"
	"github.com/vehement/geoworld/internal/geo"
	"github.com/vehement/geoworld/internal/roadnet"
)

// TileData is one map tile fully processed into game space: roads and
// buildings transformed and indexed, the biome classified and the elevation
// grid rendered into texture-ready maps.
type TileData struct {
	Tile   geo.TileID      `json:"tile"`
	Bounds geo.BoundingBox `json:"bounds"`

	Roads     []roadnet.ProcessedRoad `json:"roads,omitempty"`
	RoadGraph *roadnet.Graph          `json:"-"`
	Buildings []buildings.Footprint   `json:"buildings,omitempty"`
	Biome     geo.BiomeData           `json:"biome"`

	Elevation *geo.ElevationGrid `json:"elevation,omitempty"`
	Heightmap []byte             `json:"heightmap,omitempty"` // one byte per sample, normalized
	NormalMap []byte             `json:"normalMap,omitempty"` // RGB, three bytes per sample

	Loaded   bool      `json:"loaded"`
	Err      string    `json:"err,omitempty"`
	LoadedAt time.Time `json:"loadedAt"`
}

// Failed reports whether the tile carries an error instead of data.
func (d *TileData) Failed() bool { return !d.Loaded && d.Err != "" }

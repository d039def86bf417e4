package geo

// BuildingType classifies a building footprint.
type BuildingType string

const (
	BuildingUnknown      BuildingType = "unknown"
	BuildingHouse        BuildingType = "house"
	BuildingDetached     BuildingType = "detached"
	BuildingSemidetached BuildingType = "semidetached"
	BuildingApartments   BuildingType = "apartments"
	BuildingCommercial   BuildingType = "commercial"
	BuildingIndustrial   BuildingType = "industrial"
	BuildingOffice       BuildingType = "office"
	BuildingRetail       BuildingType = "retail"
	BuildingWarehouse    BuildingType = "warehouse"
	BuildingHospital     BuildingType = "hospital"
	BuildingSchool       BuildingType = "school"
	BuildingChurch       BuildingType = "church"
	BuildingShed         BuildingType = "shed"
	BuildingGarage       BuildingType = "garage"
)

// BuildingTypeFromOSM maps an OSM building tag value to a BuildingType.
func BuildingTypeFromOSM(building string) BuildingType {
	switch building {
	case "house", "detached":
		return BuildingHouse
	case "apartments", "residential":
		return BuildingApartments
	case "commercial", "industrial", "office", "retail", "warehouse",
		"hospital", "school", "shed", "garage":
		return BuildingType(building)
	case "church", "chapel":
		return BuildingChurch
	default:
		return BuildingUnknown
	}
}

// Building is an OSM building footprint.
type Building struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name,omitempty"`
	Type     BuildingType      `json:"type"`
	Outline  []Coordinate      `json:"outline"`
	Holes    [][]Coordinate    `json:"holes,omitempty"`
	Height   float64           `json:"height,omitempty"`
	Levels   int               `json:"levels,omitempty"`
	Material string            `json:"material,omitempty"`
	RoofType string            `json:"roofType,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// EstimatedHeight returns the tagged height, or levels at ~3m per floor, or
// a per-type default.
func (b *Building) EstimatedHeight() float64 {
	if b.Height > 0 {
		return b.Height
	}
	if b.Levels > 0 {
		return float64(b.Levels) * 3.0
	}

	switch b.Type {
	case BuildingHouse, BuildingDetached, BuildingSemidetached:
		return 8.0
	case BuildingApartments:
		return 15.0
	case BuildingCommercial, BuildingOffice:
		return 20.0
	case BuildingIndustrial, BuildingWarehouse:
		return 10.0
	case BuildingShed, BuildingGarage:
		return 3.0
	default:
		return 10.0
	}
}

// EstimatedLevels returns the tagged level count, or one level per ~3m of
// estimated height.
func (b *Building) EstimatedLevels() int {
	if b.Levels > 0 {
		return b.Levels
	}
	return int(b.EstimatedHeight() / 3.0)
}

// Area returns the footprint area in square meters.
func (b *Building) Area() float64 {
	return PolygonAreaMeters(b.Outline)
}

func (b *Building) Centroid() Coordinate {
	return Centroid(b.Outline)
}

func (b *Building) Bounds() BoundingBox {
	if len(b.Outline) == 0 {
		return BoundingBox{}
	}
	bounds := BoundingBox{Min: b.Outline[0], Max: b.Outline[0]}
	for _, p := range b.Outline {
		bounds.Expand(p)
	}
	return bounds
}

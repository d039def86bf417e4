package geo

// RoadType classifies a road the way OSM highway values do.
type RoadType string

const (
	RoadUnknown       RoadType = "unknown"
	RoadMotorway      RoadType = "motorway"
	RoadTrunk         RoadType = "trunk"
	RoadPrimary       RoadType = "primary"
	RoadSecondary     RoadType = "secondary"
	RoadTertiary      RoadType = "tertiary"
	RoadResidential   RoadType = "residential"
	RoadService       RoadType = "service"
	RoadUnclassified  RoadType = "unclassified"
	RoadLivingStreet  RoadType = "living_street"
	RoadPedestrian    RoadType = "pedestrian"
	RoadFootway       RoadType = "footway"
	RoadCycleway      RoadType = "cycleway"
	RoadPath          RoadType = "path"
	RoadTrack         RoadType = "track"
	RoadSteps         RoadType = "steps"
	RoadMotorwayLink  RoadType = "motorway_link"
	RoadTrunkLink     RoadType = "trunk_link"
	RoadPrimaryLink   RoadType = "primary_link"
	RoadSecondaryLink RoadType = "secondary_link"
	RoadTertiaryLink  RoadType = "tertiary_link"
	RoadRail          RoadType = "rail"
	RoadLightRail     RoadType = "light_rail"
	RoadSubway        RoadType = "subway"
)

// RoadTypeFromOSM maps an OSM highway tag value to a RoadType.
func RoadTypeFromOSM(highway string) RoadType {
	switch highway {
	case "motorway", "trunk", "primary", "secondary", "tertiary",
		"residential", "service", "unclassified", "living_street",
		"pedestrian", "cycleway", "path", "track", "steps",
		"motorway_link", "trunk_link", "primary_link", "secondary_link",
		"tertiary_link":
		return RoadType(highway)
	case "footway", "footpath":
		return RoadFootway
	default:
		return RoadUnknown
	}
}

// DefaultWidth returns the assumed road width in meters when OSM has no
// width tag.
func (t RoadType) DefaultWidth() float64 {
	switch t {
	case RoadMotorway:
		return 15.0
	case RoadTrunk:
		return 12.0
	case RoadPrimary:
		return 10.0
	case RoadSecondary:
		return 8.0
	case RoadTertiary:
		return 7.0
	case RoadResidential:
		return 6.0
	case RoadService, RoadLivingStreet:
		return 4.0
	case RoadUnclassified:
		return 5.0
	case RoadPedestrian, RoadTrack, RoadLightRail:
		return 3.0
	case RoadFootway, RoadSteps:
		return 2.0
	case RoadCycleway:
		return 2.5
	case RoadPath:
		return 1.5
	case RoadRail, RoadSubway:
		return 4.0
	default:
		return 4.0
	}
}

// DefaultLanes returns the assumed lane count when OSM has no lanes tag.
func (t RoadType) DefaultLanes() int {
	switch t {
	case RoadMotorway, RoadTrunk:
		return 4
	case RoadPrimary, RoadSecondary, RoadTertiary, RoadResidential:
		return 2
	default:
		return 1
	}
}

// Drivable reports whether vehicles are allowed on this road type.
func (t RoadType) Drivable() bool {
	switch t {
	case RoadMotorway, RoadTrunk, RoadPrimary, RoadSecondary, RoadTertiary,
		RoadResidential, RoadService, RoadUnclassified, RoadLivingStreet,
		RoadMotorwayLink, RoadTrunkLink, RoadPrimaryLink, RoadSecondaryLink,
		RoadTertiaryLink:
		return true
	default:
		return false
	}
}

// Walkable reports whether pedestrians are allowed on this road type.
func (t RoadType) Walkable() bool {
	switch t {
	case RoadMotorway, RoadMotorwayLink:
		return false
	default:
		return true
	}
}

// RoadSurface is the OSM surface tag, kept verbatim.
type RoadSurface string

const (
	SurfaceUnknown RoadSurface = "unknown"
	SurfacePaved   RoadSurface = "paved"
	SurfaceAsphalt RoadSurface = "asphalt"
	SurfaceConcrete RoadSurface = "concrete"
	SurfaceGravel  RoadSurface = "gravel"
	SurfaceDirt    RoadSurface = "dirt"
	SurfaceGrass   RoadSurface = "grass"
	SurfaceSand    RoadSurface = "sand"
)

func RoadSurfaceFromOSM(surface string) RoadSurface {
	switch surface {
	case "paved", "asphalt", "concrete", "gravel", "dirt", "grass", "sand":
		return RoadSurface(surface)
	case "unpaved", "ground", "earth":
		return SurfaceDirt
	case "":
		return SurfaceUnknown
	default:
		return SurfaceUnknown
	}
}

// Road is a single OSM way tagged as a highway or railway.
type Road struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name,omitempty"`
	Ref      string            `json:"ref,omitempty"`
	Type     RoadType          `json:"type"`
	Surface  RoadSurface       `json:"surface,omitempty"`
	Points   []Coordinate      `json:"points"`
	Width    float64           `json:"width,omitempty"`
	Lanes    int               `json:"lanes,omitempty"`
	Oneway   bool              `json:"oneway,omitempty"`
	MaxSpeed float64           `json:"maxSpeed,omitempty"`
	Bridge   bool              `json:"bridge,omitempty"`
	Tunnel   bool              `json:"tunnel,omitempty"`
	Layer    int               `json:"layer,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// Length returns the road's polyline length in meters.
func (r *Road) Length() float64 {
	return PolylineLength(r.Points)
}

func (r *Road) Bounds() BoundingBox {
	if len(r.Points) == 0 {
		return BoundingBox{}
	}
	bounds := BoundingBox{Min: r.Points[0], Max: r.Points[0]}
	for _, p := range r.Points {
		bounds.Expand(p)
	}
	return bounds
}

// EffectiveWidth returns the tagged width, or the type default.
func (r *Road) EffectiveWidth() float64 {
	if r.Width > 0 {
		return r.Width
	}
	return r.Type.DefaultWidth()
}

// EffectiveLanes returns the tagged lane count, or the type default.
func (r *Road) EffectiveLanes() int {
	if r.Lanes > 0 {
		return r.Lanes
	}
	return r.Type.DefaultLanes()
}

func (r *Road) Drivable() bool { return r.Type.Drivable() }
func (r *Road) Walkable() bool { return r.Type.Walkable() }

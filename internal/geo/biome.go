package geo

// BiomeType classifies a tile's dominant environment.
type BiomeType string

const (
	BiomeUnknown         BiomeType = "unknown"
	BiomeDesert          BiomeType = "desert"
	BiomeGrassland       BiomeType = "grassland"
	BiomeSavanna         BiomeType = "savanna"
	BiomeShrubland       BiomeType = "shrubland"
	BiomeForest          BiomeType = "forest"
	BiomeTemperateForest BiomeType = "temperate_forest"
	BiomeBorealForest    BiomeType = "boreal_forest"
	BiomeTropicalForest  BiomeType = "tropical_forest"
	BiomeJungle          BiomeType = "jungle"
	BiomeTundra          BiomeType = "tundra"
	BiomeArctic          BiomeType = "arctic"
	BiomeWetland         BiomeType = "wetland"
	BiomeSwamp           BiomeType = "swamp"
	BiomeMangrove        BiomeType = "mangrove"
	BiomeOcean           BiomeType = "ocean"
	BiomeSea             BiomeType = "sea"
	BiomeLake            BiomeType = "lake"
	BiomeRiver           BiomeType = "river"
	BiomeCoastal         BiomeType = "coastal"
	BiomeFarmland        BiomeType = "farmland"
	BiomeOrchard         BiomeType = "orchard"
	BiomeVineyard        BiomeType = "vineyard"
	BiomeUrban           BiomeType = "urban"
	BiomeSuburban        BiomeType = "suburban"
	BiomeIndustrial      BiomeType = "industrial"
	BiomeCommercial      BiomeType = "commercial"
	BiomeResidential     BiomeType = "residential"
	BiomeMountain        BiomeType = "mountain"
	BiomeBeach           BiomeType = "beach"
	BiomeQuarry          BiomeType = "quarry"
	BiomeLandfill        BiomeType = "landfill"
	BiomeCemetery        BiomeType = "cemetery"
	BiomePark            BiomeType = "park"
)

// Color is a normalized RGB triple.
type Color struct {
	R float32 `json:"r"`
	G float32 `json:"g"`
	B float32 `json:"b"`
}

// BiomeData carries the environment parameters for a classified tile.
type BiomeData struct {
	Type           BiomeType `json:"type"`
	Temperature    float32   `json:"temperature"`   // average, Celsius
	Precipitation  float32   `json:"precipitation"` // annual, millimeters
	Humidity       float32   `json:"humidity"`      // 0..1
	FoliageDensity float32   `json:"foliageDensity"`
	GrassDensity   float32   `json:"grassDensity"`
	Elevation      float32   `json:"elevation"` // average, meters
	Slope          float32   `json:"slope"`     // average, degrees

	SpringMultiplier float32 `json:"springMultiplier"`
	SummerMultiplier float32 `json:"summerMultiplier"`
	AutumnMultiplier float32 `json:"autumnMultiplier"`
	WinterMultiplier float32 `json:"winterMultiplier"`

	GroundColor Color `json:"groundColor"`
}

// DefaultBiomeData returns a temperate-grassland baseline.
func DefaultBiomeData() BiomeData {
	return BiomeData{
		Type:             BiomeUnknown,
		Temperature:      15,
		Precipitation:    500,
		Humidity:         0.5,
		FoliageDensity:   0.5,
		GrassDensity:     0.5,
		SpringMultiplier: 1,
		SummerMultiplier: 1,
		AutumnMultiplier: 1,
		WinterMultiplier: 1,
		GroundColor:      Color{R: 0.3, G: 0.5, B: 0.2},
	}
}

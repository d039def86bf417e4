package biome

import (
	"fmt"
	"math"
	"sync"

	"github.com/vehement/geoworld/internal/geo"
	"github.com/vehement/geoworld/pkg/logger"
)

// Config tunes the classification heuristics.
type Config struct {
	// UrbanDensityThreshold is the building coverage fraction above which a
	// tile counts as built-up.
	UrbanDensityThreshold float64
	ForestCoverThreshold  float64
	TropicLatitude        float64
	ArcticLatitude        float64
}

func DefaultConfig() Config {
	return Config{
		UrbanDensityThreshold: 0.3,
		ForestCoverThreshold:  0.5,
		TropicLatitude:        23.5,
		ArcticLatitude:        66.5,
	}
}

// Climate is a rough annual climate estimate for a location.
type Climate struct {
	MeanTemperature     float32
	MinTemperature      float32
	MaxTemperature      float32
	AnnualPrecipitation float32
	Humidity            float32
}

// Classifier derives a tile's biome from its features: built-up density
// first, then dominant land use, then a latitude-based climate estimate.
// Safe for concurrent use.
type Classifier struct {
	cfg Config

	mu      sync.Mutex
	climate map[string]Climate

	logger logger.Logger
}

func NewClassifier(cfg Config, l logger.Logger) *Classifier {
	if l == nil {
		l = logger.NewNop()
	}
	if cfg.UrbanDensityThreshold <= 0 {
		cfg.UrbanDensityThreshold = DefaultConfig().UrbanDensityThreshold
	}
	if cfg.TropicLatitude <= 0 {
		cfg.TropicLatitude = DefaultConfig().TropicLatitude
	}
	if cfg.ArcticLatitude <= 0 {
		cfg.ArcticLatitude = DefaultConfig().ArcticLatitude
	}
	return &Classifier{
		cfg:     cfg,
		climate: make(map[string]Climate),
		logger:  l,
	}
}

// ClassifyTile picks the biome for a whole tile.
func (c *Classifier) ClassifyTile(data *geo.TileData) geo.BiomeData {
	buildingDensity := BuildingDensity(data.Buildings, data.Bounds)
	roadDensity := RoadDensity(data.Roads, data.Bounds)

	if buildingDensity > c.cfg.UrbanDensityThreshold {
		return DefaultBiomeData(ClassifyUrbanLevel(buildingDensity, roadDensity))
	}

	if dominant := dominantLandUse(data.LandUse); dominant != geo.LandUseUnknown {
		return c.classifyFromLandUse(dominant)
	}

	var avgElevation float32
	if !data.Elevation.Empty() {
		min, max := data.Elevation.MinMax()
		avgElevation = (min + max) / 2
	}
	return c.Classify(data.Bounds.Center(), nil, avgElevation)
}

// Classify picks a biome for a single location. An explicit land use area
// wins; otherwise the climate estimate decides.
func (c *Classifier) Classify(coord geo.Coordinate, landUse *geo.LandUse, elevation float32) geo.BiomeData {
	if landUse != nil {
		data := c.classifyFromLandUse(landUse.Type)
		data.Elevation = elevation
		return data
	}

	climate := c.climateAt(coord)
	data := DefaultBiomeData(c.ClassifyFromClimate(climate, coord.Lat))
	data.Temperature = climate.MeanTemperature
	data.Precipitation = climate.AnnualPrecipitation
	data.Humidity = climate.Humidity
	data.Elevation = elevation
	return data
}

// BiomeAt resolves the biome for a point using the surrounding features:
// containing land use area, then local building density, then climate.
func (c *Classifier) BiomeAt(coord geo.Coordinate, landUse []geo.LandUse, buildings []geo.Building, elevation float32) geo.BiomeType {
	for i := range landUse {
		if landUse[i].Contains(coord) {
			return c.classifyFromLandUse(landUse[i].Type).Type
		}
	}

	local := geo.BoundsFromCenterRadius(coord, 100)
	density := BuildingDensity(buildings, local)
	if density > c.cfg.UrbanDensityThreshold {
		if density > 0.6 {
			return geo.BiomeUrban
		}
		return geo.BiomeSuburban
	}

	return c.ClassifyFromClimate(c.climateAt(coord), coord.Lat)
}

func dominantLandUse(landUse []geo.LandUse) geo.LandUseType {
	if len(landUse) == 0 {
		return geo.LandUseUnknown
	}

	areaByType := make(map[geo.LandUseType]float64)
	for i := range landUse {
		areaByType[landUse[i].Type] += landUse[i].Area()
	}

	dominant := geo.LandUseUnknown
	maxArea := 0.0
	for t, area := range areaByType {
		if area > maxArea {
			maxArea = area
			dominant = t
		}
	}
	return dominant
}

func (c *Classifier) classifyFromLandUse(landUse geo.LandUseType) geo.BiomeData {
	var biome geo.BiomeType

	switch landUse {
	case geo.LandUseResidential:
		biome = geo.BiomeResidential
	case geo.LandUseCommercial:
		biome = geo.BiomeCommercial
	case geo.LandUseIndustrial, geo.LandUseBrownfield:
		biome = geo.BiomeIndustrial
	case geo.LandUseForest, geo.LandUseWood:
		biome = geo.BiomeForest
	case geo.LandUseGrassland, geo.LandUseMeadow:
		biome = geo.BiomeGrassland
	case geo.LandUseFarmland:
		biome = geo.BiomeFarmland
	case geo.LandUseOrchard:
		biome = geo.BiomeOrchard
	case geo.LandUseVineyard:
		biome = geo.BiomeVineyard
	case geo.LandUsePark, geo.LandUseRecreation, geo.LandUsePlayground, geo.LandUseGolf:
		biome = geo.BiomePark
	case geo.LandUseWetland:
		biome = geo.BiomeWetland
	case geo.LandUseBeach, geo.LandUseSand:
		biome = geo.BiomeBeach
	case geo.LandUseCemetery:
		biome = geo.BiomeCemetery
	case geo.LandUseQuarry:
		biome = geo.BiomeQuarry
	case geo.LandUseLandfill:
		biome = geo.BiomeLandfill
	case geo.LandUseHeath, geo.LandUseScrub:
		biome = geo.BiomeShrubland
	default:
		biome = geo.BiomeGrassland
	}

	return DefaultBiomeData(biome)
}

// climateAt caches latitude-band climate estimates per degree cell.
func (c *Classifier) climateAt(coord geo.Coordinate) Climate {
	key := fmt.Sprintf("%d_%d", int(coord.Lat), int(coord.Lon))

	c.mu.Lock()
	if climate, ok := c.climate[key]; ok {
		c.mu.Unlock()
		return climate
	}
	c.mu.Unlock()

	climate := EstimateClimate(coord.Lat)

	c.mu.Lock()
	c.climate[key] = climate
	c.mu.Unlock()

	return climate
}

// EstimateClimate is a crude latitude-band climate model: warm and wet at
// the equator, a dry belt near 30 degrees, cold and dry at the poles.
func EstimateClimate(latitude float64) Climate {
	absLat := math.Abs(latitude)

	var climate Climate
	climate.MeanTemperature = float32(27.0 - absLat*0.41)
	climate.MaxTemperature = climate.MeanTemperature + 10
	climate.MinTemperature = climate.MeanTemperature - 10

	switch {
	case absLat < 10:
		climate.AnnualPrecipitation = 2000
	case absLat < 30:
		climate.AnnualPrecipitation = 500
	case absLat < 60:
		climate.AnnualPrecipitation = 800
	default:
		climate.AnnualPrecipitation = 300
	}

	climate.Humidity = float32(math.Min(1, float64(climate.AnnualPrecipitation)/2000))
	return climate
}

// ClassifyFromClimate maps a climate estimate onto a biome band.
func (c *Classifier) ClassifyFromClimate(climate Climate, latitude float64) geo.BiomeType {
	temp := float64(climate.MeanTemperature)
	precip := float64(climate.AnnualPrecipitation)
	absLat := math.Abs(latitude)

	switch {
	case absLat > c.cfg.ArcticLatitude || temp < -10:
		return geo.BiomeArctic
	case temp < 0 || absLat > 60:
		return geo.BiomeTundra
	case precip < 250:
		return geo.BiomeDesert
	}

	if absLat < c.cfg.TropicLatitude {
		switch {
		case precip > 2000:
			return geo.BiomeTropicalForest
		case precip > 1000:
			return geo.BiomeSavanna
		default:
			return geo.BiomeGrassland
		}
	}

	switch {
	case precip > 1500:
		return geo.BiomeTemperateForest
	case precip > 750:
		if temp > 10 {
			return geo.BiomeForest
		}
		return geo.BiomeBorealForest
	case precip > 400:
		return geo.BiomeGrassland
	default:
		return geo.BiomeShrubland
	}
}

// ClassifyUrbanLevel grades built-up areas by a weighted density index.
func ClassifyUrbanLevel(buildingDensity, roadDensity float64) geo.BiomeType {
	urbanIndex := buildingDensity*0.7 + roadDensity*0.3

	switch {
	case urbanIndex > 0.6:
		return geo.BiomeUrban
	case urbanIndex > 0.4:
		return geo.BiomeCommercial
	case urbanIndex > 0.2:
		return geo.BiomeSuburban
	default:
		return geo.BiomeResidential
	}
}

// BuildingDensity is the fraction of the bounds covered by buildings,
// capped at 1.
func BuildingDensity(buildings []geo.Building, bounds geo.BoundingBox) float64 {
	totalArea := bounds.WidthMeters() * bounds.HeightMeters()
	if totalArea <= 0 {
		return 0
	}

	buildingArea := 0.0
	for i := range buildings {
		if bounds.Intersects(buildings[i].Bounds()) {
			buildingArea += buildings[i].Area()
		}
	}
	return math.Min(1, buildingArea/totalArea)
}

// RoadDensity approximates road surface coverage as length times effective
// width, capped at 1.
func RoadDensity(roads []geo.Road, bounds geo.BoundingBox) float64 {
	totalArea := bounds.WidthMeters() * bounds.HeightMeters()
	if totalArea <= 0 {
		return 0
	}

	roadArea := 0.0
	for i := range roads {
		if bounds.Intersects(roads[i].Bounds()) {
			roadArea += roads[i].Length() * roads[i].EffectiveWidth()
		}
	}
	return math.Min(1, roadArea/totalArea)
}

// VegetationDensity estimates ground vegetation cover from land use mix.
// With no data it assumes a neutral 0.5.
func VegetationDensity(landUse []geo.LandUse) float64 {
	if len(landUse) == 0 {
		return 0.5
	}

	totalArea := 0.0
	vegetationArea := 0.0

	for i := range landUse {
		area := landUse[i].Area()
		totalArea += area

		switch landUse[i].Type {
		case geo.LandUseForest, geo.LandUseWood:
			vegetationArea += area
		case geo.LandUseGrassland, geo.LandUseMeadow, geo.LandUsePark:
			vegetationArea += area * 0.7
		case geo.LandUseFarmland, geo.LandUseOrchard:
			vegetationArea += area * 0.5
		case geo.LandUseResidential:
			vegetationArea += area * 0.3
		}
	}

	if totalArea <= 0 {
		return 0.5
	}
	return vegetationArea / totalArea
}

// SeasonalVegetationMultiplier scales vegetation density by month, northern
// hemisphere seasons.
func SeasonalVegetationMultiplier(biome geo.BiomeType, month int) float32 {
	data := DefaultBiomeData(biome)
	switch {
	case month >= 3 && month <= 5:
		return data.SpringMultiplier
	case month >= 6 && month <= 8:
		return data.SummerMultiplier
	case month >= 9 && month <= 11:
		return data.AutumnMultiplier
	default:
		return data.WinterMultiplier
	}
}

// IsWinter reports whether the month falls in winter for the hemisphere.
func IsWinter(latitude float64, month int) bool {
	if latitude >= 0 {
		return month == 12 || month <= 2
	}
	return month >= 6 && month <= 8
}

// DefaultBiomeData returns the baseline environment parameters for a biome.
func DefaultBiomeData(biome geo.BiomeType) geo.BiomeData {
	data := geo.BiomeData{
		Type:             biome,
		SpringMultiplier: 1,
		SummerMultiplier: 1,
		AutumnMultiplier: 0.8,
		WinterMultiplier: 0.3,
	}

	switch biome {
	case geo.BiomeDesert:
		data.Temperature = 30
		data.Precipitation = 100
		data.Humidity = 0.1
		data.FoliageDensity = 0.05
		data.GrassDensity = 0.1
		data.GroundColor = geo.Color{R: 0.85, G: 0.75, B: 0.55}

	case geo.BiomeGrassland:
		data.Temperature = 18
		data.Precipitation = 500
		data.Humidity = 0.5
		data.FoliageDensity = 0.1
		data.GrassDensity = 0.9
		data.GroundColor = geo.Color{R: 0.4, G: 0.6, B: 0.2}

	case geo.BiomeForest, geo.BiomeTemperateForest:
		data.Temperature = 15
		data.Precipitation = 1000
		data.Humidity = 0.7
		data.FoliageDensity = 0.8
		data.GrassDensity = 0.4
		data.GroundColor = geo.Color{R: 0.3, G: 0.45, B: 0.2}

	case geo.BiomeTropicalForest, geo.BiomeJungle:
		data.Temperature = 27
		data.Precipitation = 2500
		data.Humidity = 0.9
		data.FoliageDensity = 0.95
		data.GrassDensity = 0.3
		data.GroundColor = geo.Color{R: 0.25, G: 0.4, B: 0.15}

	case geo.BiomeTundra:
		data.Temperature = -5
		data.Precipitation = 200
		data.Humidity = 0.6
		data.FoliageDensity = 0.05
		data.GrassDensity = 0.3
		data.GroundColor = geo.Color{R: 0.5, G: 0.55, B: 0.45}

	case geo.BiomeArctic:
		data.Temperature = -20
		data.Precipitation = 150
		data.Humidity = 0.4
		data.GroundColor = geo.Color{R: 0.95, G: 0.95, B: 0.98}

	case geo.BiomeUrban:
		data.Temperature = 20
		data.FoliageDensity = 0.05
		data.GrassDensity = 0.05
		data.GroundColor = geo.Color{R: 0.4, G: 0.4, B: 0.4}

	case geo.BiomeSuburban:
		data.Temperature = 18
		data.FoliageDensity = 0.3
		data.GrassDensity = 0.5
		data.GroundColor = geo.Color{R: 0.35, G: 0.5, B: 0.25}

	case geo.BiomeWetland, geo.BiomeSwamp:
		data.Temperature = 20
		data.Precipitation = 1500
		data.Humidity = 0.95
		data.FoliageDensity = 0.6
		data.GrassDensity = 0.4
		data.GroundColor = geo.Color{R: 0.3, G: 0.35, B: 0.2}

	case geo.BiomeBeach:
		data.FoliageDensity = 0.02
		data.GrassDensity = 0.02
		data.GroundColor = geo.Color{R: 0.9, G: 0.85, B: 0.7}

	case geo.BiomeFarmland:
		data.FoliageDensity = 0.1
		data.GrassDensity = 0.7
		data.GroundColor = geo.Color{R: 0.5, G: 0.45, B: 0.3}

	case geo.BiomePark:
		data.FoliageDensity = 0.4
		data.GrassDensity = 0.8
		data.GroundColor = geo.Color{R: 0.35, G: 0.55, B: 0.25}

	default:
		data.FoliageDensity = 0.3
		data.GrassDensity = 0.5
		data.GroundColor = geo.Color{R: 0.4, G: 0.5, B: 0.3}
	}

	return data
}

package geo

// WaterType classifies a water body.
type WaterType string

const (
	WaterUnknown   WaterType = "unknown"
	WaterOcean     WaterType = "ocean"
	WaterSea       WaterType = "sea"
	WaterLake      WaterType = "lake"
	WaterRiver     WaterType = "river"
	WaterStream    WaterType = "stream"
	WaterPond      WaterType = "pond"
	WaterReservoir WaterType = "reservoir"
	WaterCanal     WaterType = "canal"
	WaterDrain     WaterType = "drain"
	WaterWetland   WaterType = "wetland"
	WaterCoastline WaterType = "coastline"
)

// WaterTypeFromOSM maps the relevant OSM tags to a WaterType.
func WaterTypeFromOSM(natural, water, waterway string) WaterType {
	if natural == "water" {
		switch water {
		case "lake", "river", "pond", "reservoir":
			return WaterType(water)
		}
		return WaterLake
	}
	if natural == "coastline" {
		return WaterCoastline
	}
	if natural == "wetland" {
		return WaterWetland
	}

	switch waterway {
	case "river", "stream", "canal", "drain":
		return WaterType(waterway)
	}

	return WaterUnknown
}

// WaterBody is an OSM water feature, either an area (Outline) or a linear
// waterway (Path).
type WaterBody struct {
	ID      int64        `json:"id"`
	Name    string       `json:"name,omitempty"`
	Type    WaterType    `json:"type"`
	Outline []Coordinate `json:"outline,omitempty"`
	Path    []Coordinate `json:"path,omitempty"`
	Width   float64      `json:"width,omitempty"`
}

func (w *WaterBody) Area() float64 {
	return PolygonAreaMeters(w.Outline)
}

// POICategory classifies a point of interest.
type POICategory string

const (
	POIUnknown        POICategory = "unknown"
	POIRestaurant     POICategory = "restaurant"
	POIFastFood       POICategory = "fast_food"
	POICafe           POICategory = "cafe"
	POIBar            POICategory = "bar"
	POIPub            POICategory = "pub"
	POIBank           POICategory = "bank"
	POIATM            POICategory = "atm"
	POIHospital       POICategory = "hospital"
	POIClinic         POICategory = "clinic"
	POIPharmacy       POICategory = "pharmacy"
	POISchool         POICategory = "school"
	POIUniversity     POICategory = "university"
	POILibrary        POICategory = "library"
	POIPolice         POICategory = "police"
	POIFireStation    POICategory = "fire_station"
	POIFuelStation    POICategory = "fuel"
	POIParkingLot     POICategory = "parking"
	POIPlaceOfWorship POICategory = "place_of_worship"
	POICinema         POICategory = "cinema"
	POITheatre        POICategory = "theatre"
	POISupermarket    POICategory = "supermarket"
	POIConvenience    POICategory = "convenience"
	POIClothes        POICategory = "clothes"
	POIElectronics    POICategory = "electronics"
	POIMall           POICategory = "mall"
	POIHotel          POICategory = "hotel"
	POIHostel         POICategory = "hostel"
	POICampsite       POICategory = "camp_site"
	POIMuseum         POICategory = "museum"
	POIViewpoint      POICategory = "viewpoint"
	POIPeak           POICategory = "peak"
	POIBeach          POICategory = "beach"
	POISpring         POICategory = "spring"
)

// POICategoryFromOSM maps amenity, shop, tourism and natural tags (in that
// precedence order) to a POICategory.
func POICategoryFromOSM(amenity, shop, tourism, natural string) POICategory {
	switch amenity {
	case "restaurant", "fast_food", "cafe", "bar", "pub", "bank", "atm",
		"hospital", "clinic", "pharmacy", "school", "university", "library",
		"police", "fire_station", "fuel", "parking", "place_of_worship",
		"cinema", "theatre":
		return POICategory(amenity)
	}

	switch shop {
	case "supermarket", "convenience", "clothes", "electronics", "mall":
		return POICategory(shop)
	}

	switch tourism {
	case "hotel", "hostel", "camp_site", "museum", "viewpoint":
		return POICategory(tourism)
	}

	switch natural {
	case "peak", "beach", "spring":
		return POICategory(natural)
	}

	return POIUnknown
}

// POI is a point of interest.
type POI struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name,omitempty"`
	Category POICategory       `json:"category"`
	Position Coordinate        `json:"position"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// LandUseType classifies a land use area.
type LandUseType string

const (
	LandUseUnknown      LandUseType = "unknown"
	LandUseResidential  LandUseType = "residential"
	LandUseCommercial   LandUseType = "commercial"
	LandUseIndustrial   LandUseType = "industrial"
	LandUseForest       LandUseType = "forest"
	LandUseFarmland     LandUseType = "farmland"
	LandUseMeadow       LandUseType = "meadow"
	LandUseOrchard      LandUseType = "orchard"
	LandUseVineyard     LandUseType = "vineyard"
	LandUseCemetery     LandUseType = "cemetery"
	LandUseMilitary     LandUseType = "military"
	LandUseQuarry       LandUseType = "quarry"
	LandUseConstruction LandUseType = "construction"
	LandUseBrownfield   LandUseType = "brownfield"
	LandUseLandfill     LandUseType = "landfill"
	LandUseRecreation   LandUseType = "recreation_ground"
	LandUseRailway      LandUseType = "railway"
	LandUseWood         LandUseType = "wood"
	LandUseGrassland    LandUseType = "grassland"
	LandUseHeath        LandUseType = "heath"
	LandUseScrub        LandUseType = "scrub"
	LandUseWetland      LandUseType = "wetland"
	LandUseBeach        LandUseType = "beach"
	LandUseSand         LandUseType = "sand"
	LandUseRock         LandUseType = "rock"
	LandUsePark         LandUseType = "park"
	LandUsePlayground   LandUseType = "playground"
	LandUseSportsPitch  LandUseType = "pitch"
	LandUseGolf         LandUseType = "golf_course"
)

// LandUseTypeFromOSM maps landuse, natural and leisure tags (in that
// precedence order) to a LandUseType.
func LandUseTypeFromOSM(landuse, natural, leisure string) LandUseType {
	switch landuse {
	case "residential", "industrial", "forest", "farmland", "orchard",
		"vineyard", "cemetery", "military", "quarry", "construction",
		"brownfield", "landfill", "recreation_ground", "railway":
		return LandUseType(landuse)
	case "commercial", "retail":
		return LandUseCommercial
	case "farm":
		return LandUseFarmland
	case "meadow", "grass":
		return LandUseMeadow
	}

	switch natural {
	case "wood", "grassland", "heath", "scrub", "wetland", "beach", "sand":
		return LandUseType(natural)
	case "rock", "bare_rock":
		return LandUseRock
	}

	switch leisure {
	case "park", "playground", "pitch", "golf_course":
		return LandUseType(leisure)
	}

	return LandUseUnknown
}

// LandUse is an OSM land use area.
type LandUse struct {
	ID      int64        `json:"id"`
	Type    LandUseType  `json:"type"`
	Outline []Coordinate `json:"outline"`
}

func (l *LandUse) Area() float64 {
	return PolygonAreaMeters(l.Outline)
}

// Contains reports whether the coordinate lies inside the land use area.
func (l *LandUse) Contains(c Coordinate) bool {
	return PointInPolygon(c, l.Outline)
}

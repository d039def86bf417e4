package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		Logger    Logger    `envPrefix:"LOGGER_" json:"logger"`
		Cache     Cache     `envPrefix:"CACHE_" json:"cache"`
		OSM       OSM       `envPrefix:"OSM_" json:"osm"`
		Elevation Elevation `envPrefix:"ELEVATION_" json:"elevation"`
		World     World     `envPrefix:"WORLD_" json:"world"`
		Streamer  Streamer  `envPrefix:"STREAMER_" json:"streamer"`
		Debug     Debug     `envPrefix:"DEBUG_" json:"debug"`
	}

	Logger struct {
		Level string `env:"LEVEL" envDefault:"info" json:"level"`
	}

	Cache struct {
		Path          string        `env:"PATH" envDefault:"geocache" json:"path"`
		Backend       string        `env:"BACKEND" envDefault:"filesystem" validate:"oneof=filesystem sqlite none" json:"backend"`
		MaxMemoryMB   int           `env:"MAX_MEMORY_MB" envDefault:"64" validate:"gt=0" json:"maxMemoryMB"`
		MaxDiskMB     int           `env:"MAX_DISK_MB" envDefault:"512" validate:"gt=0" json:"maxDiskMB"`
		DefaultExpiry time.Duration `env:"DEFAULT_EXPIRY" envDefault:"168h" json:"defaultExpiry"`
		Compress      bool          `env:"COMPRESS" envDefault:"true" json:"compress"`
		Redis         Redis         `envPrefix:"REDIS_" json:"redis"`
	}

	Redis struct {
		Enabled  bool          `env:"ENABLED" envDefault:"false" json:"enabled"`
		Addr     string        `env:"ADDR" envDefault:"localhost:6379" json:"addr"`
		Password string        `env:"PASSWORD" envDefault:"" json:"-"`
		DB       int           `env:"DB" envDefault:"0" json:"db"`
		TTL      time.Duration `env:"TTL" envDefault:"24h" json:"ttl"`
	}

	OSM struct {
		OverpassEndpoint  string        `env:"OVERPASS_ENDPOINT" envDefault:"https://overpass-api.de/api/interpreter" validate:"url" json:"overpassEndpoint"`
		RequestsPerSecond float64       `env:"REQUESTS_PER_SECOND" envDefault:"1" validate:"gt=0" json:"requestsPerSecond"`
		BurstSize         int           `env:"BURST_SIZE" envDefault:"3" validate:"gt=0" json:"burstSize"`
		HTTPTimeout       time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s" json:"httpTimeout"`
		QueryTimeout      time.Duration `env:"QUERY_TIMEOUT" envDefault:"60s" json:"queryTimeout"`
		DefaultZoom       int           `env:"DEFAULT_ZOOM" envDefault:"15" validate:"gte=1,lte=19" json:"defaultZoom"`
		MaxFeatures       int           `env:"MAX_FEATURES" envDefault:"10000" json:"maxFeatures"`
	}

	Elevation struct {
		Endpoint          string        `env:"ENDPOINT" envDefault:"https://api.opentopodata.org/v1/srtm90m" validate:"url" json:"endpoint"`
		RequestsPerSecond float64       `env:"REQUESTS_PER_SECOND" envDefault:"1" validate:"gt=0" json:"requestsPerSecond"`
		BurstSize         int           `env:"BURST_SIZE" envDefault:"1" validate:"gt=0" json:"burstSize"`
		Resolution        int           `env:"RESOLUTION" envDefault:"32" validate:"gte=2" json:"resolution"`
		HTTPTimeout       time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s" json:"httpTimeout"`
	}

	World struct {
		OriginLat                 float64 `env:"ORIGIN_LAT" envDefault:"0" validate:"gte=-90,lte=90" json:"originLat"`
		OriginLon                 float64 `env:"ORIGIN_LON" envDefault:"0" validate:"gte=-180,lte=180" json:"originLon"`
		Scale                     float64 `env:"SCALE" envDefault:"1" validate:"gt=0" json:"scale"`
		DefaultZoom               int     `env:"DEFAULT_ZOOM" envDefault:"15" validate:"gte=1,lte=19" json:"defaultZoom"`
		ProcessRoads              bool    `env:"PROCESS_ROADS" envDefault:"true" json:"processRoads"`
		ProcessBuildings          bool    `env:"PROCESS_BUILDINGS" envDefault:"true" json:"processBuildings"`
		ProcessElevation          bool    `env:"PROCESS_ELEVATION" envDefault:"true" json:"processElevation"`
		ProcessBiomes             bool    `env:"PROCESS_BIOMES" envDefault:"true" json:"processBiomes"`
		RoadSimplifyTolerance     float64 `env:"ROAD_SIMPLIFY_TOLERANCE" envDefault:"2" validate:"gte=0" json:"roadSimplifyTolerance"`
		BuildingSimplifyTolerance float64 `env:"BUILDING_SIMPLIFY_TOLERANCE" envDefault:"1" validate:"gte=0" json:"buildingSimplifyTolerance"`
	}

	Streamer struct {
		LoadRadius         int           `env:"LOAD_RADIUS" envDefault:"2" validate:"gte=0" json:"loadRadius"`
		UnloadRadius       int           `env:"UNLOAD_RADIUS" envDefault:"3" validate:"gte=0" json:"unloadRadius"`
		MaxConcurrentLoads int           `env:"MAX_CONCURRENT_LOADS" envDefault:"4" validate:"gt=0" json:"maxConcurrentLoads"`
		UpdateInterval     time.Duration `env:"UPDATE_INTERVAL" envDefault:"1s" json:"updateInterval"`
		LoadTimeout        time.Duration `env:"LOAD_TIMEOUT" envDefault:"2m" json:"loadTimeout"`
	}

	Debug struct {
		Enabled bool   `env:"ENABLED" envDefault:"false" json:"enabled"`
		Port    string `env:"PORT" envDefault:"8090" json:"port"`
	}
)

func New() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("NOTICE: .env file not found or cannot be loaded: %v\n", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

package main

import (
	"flag"
	"log"

	"github.com/vehement/geoworld/internal/app"
	"github.com/vehement/geoworld/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "optional JSON config overlay")
	prefetch := flag.String("prefetch", "", `prefetch tiles for "south,west,north,east" and exit`)
	exportBundle := flag.String("export-bundle", "", "export cached tiles into a bundle directory and exit")
	importBundle := flag.String("import-bundle", "", "import a bundle directory into the cache and exit")
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		log.Fatalln("failed to load config: ", err)
	}

	if *configPath != "" {
		if err := cfg.LoadJSON(*configPath); err != nil {
			log.Fatalln("failed to load config file: ", err)
		}
	}

	err = app.Run(cfg, app.Options{
		PrefetchBBox: *prefetch,
		ExportBundle: *exportBundle,
		ImportBundle: *importBundle,
	})
	if err != nil {
		log.Fatalln("geoworld: ", err)
	}
}

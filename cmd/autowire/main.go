package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/deep-rent/nexus/app"
	"github.com/deep-rent/nexus/log"

	kernel "github.com/km-arc/go-autowire/framework/app"
	"github.com/km-arc/go-autowire/framework/cache"
	"github.com/km-arc/go-autowire/framework/config"
	"github.com/km-arc/go-autowire/framework/container"
)

func main() {
	version := flag.Bool("v", false, "print the version and exit")
	warm := flag.Bool("warm", false, "resolve every manifest service, persist the dependency cache and exit")
	envFile := flag.String("env", ".env", "path to the .env file")
	flag.Parse()

	if *version {
		fmt.Println("autowire", kernel.Version)
		return
	}

	cfg := config.Load(*envFile)
	logger := log.New(
		log.WithLevel(cfg.App.LogLevel),
	)

	application, err := kernel.New(
		kernel.WithConfig(cfg),
		kernel.WithCatalog(catalog()),
		kernel.WithLogger(logger),
	)
	if err != nil {
		logger.Error("Bootstrap failed", "error", err)
		os.Exit(1)
	}

	if *warm {
		err := application.Boot()
		if err == nil {
			err = application.Warm()
		}
		if cerr := application.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			logger.Error("Warming failed", "error", err)
			os.Exit(1)
		}
		return
	}

	runnable := func(ctx context.Context) error {
		return application.Run(ctx)
	}

	if err := app.Run(runnable, app.WithLogger(logger)); err != nil {
		logger.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// catalog defines the framework classes a manifest may name.
func catalog() *container.Catalog {
	cat := container.NewCatalog()
	cat.MustDefine(container.Class{Constructor: cache.NewMemory})
	cat.MustDefine(container.Class{
		Constructor: cache.NewFile,
		Params:      []container.Param{{Name: "path"}},
	})
	return cat
}

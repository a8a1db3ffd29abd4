// cmd/hwenumd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/tamzrod/hwenum/internal/busreg"
	"github.com/tamzrod/hwenum/internal/enum"
	"github.com/tamzrod/hwenum/internal/gateway"
	"github.com/tamzrod/hwenum/internal/hwtree"
	"github.com/tamzrod/hwenum/internal/watch"
)

type controllerConfig struct {
	Controller struct {
		Name      string `yaml:"name"`
		Endpoint  string `yaml:"endpoint"`
		UnitID    uint8  `yaml:"unit_id"`
		TimeoutMs int    `yaml:"timeout_ms"`
	} `yaml:"controller"`
}

func main() {
	if len(os.Args) < 3 {
		log.Fatal("usage: hwenumd <controller.yaml> <tree.yaml>")
	}

	ctrlPath := os.Args[1]
	treePath := os.Args[2]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := loadControllerConfig(ctrlPath)
	if err != nil {
		log.Fatalf("controller config load failed: %v", err)
	}

	spec, err := hwtree.LoadSpec(treePath)
	if err != nil {
		log.Fatalf("description tree load failed: %v", err)
	}
	if err := hwtree.ValidateSpec(spec); err != nil {
		log.Fatalf("description tree validation failed: %v", err)
	}

	tree := hwtree.Build(spec)

	// --------------------
	// Gateway + registry
	// --------------------

	adapter, err := gateway.New(gateway.Config{
		Endpoint: cfg.Controller.Endpoint,
		UnitID:   cfg.Controller.UnitID,
		Timeout:  time.Duration(cfg.Controller.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("gateway connect failed (endpoint=%s): %v", cfg.Controller.Endpoint, err)
	}

	reg := busreg.NewRegistry()

	ctrl, err := reg.AddController(cfg.Controller.Name, tree.Root(), adapter)
	if err != nil {
		log.Fatalf("controller registration failed: %v", err)
	}

	// --------------------
	// Enumerate + track changes
	// --------------------

	e := enum.New(reg)

	unsubscribe := tree.Subscribe(e.Notify)
	defer unsubscribe()

	e.RegisterDevices(ctrl)

	for _, d := range reg.Devices() {
		log.Printf("hwenumd: device up (ctrl=%s type=%s addr=0x%02x)", ctrl.Name(), d.Name(), d.Addr())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return watch.New(treePath, tree, spec).Run(ctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("hwenumd: watcher stopped: %v", err)
	}

	// --------------------
	// Teardown
	// --------------------

	reg.DelController(ctrl)
	if err := adapter.Close(); err != nil {
		log.Printf("hwenumd: gateway close failed: %v", err)
	}
}

func loadControllerConfig(path string) (*controllerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg controllerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Controller.Name == "" {
		return nil, errors.New("controller.name required")
	}
	if cfg.Controller.Endpoint == "" {
		return nil, errors.New("controller.endpoint required")
	}
	return &cfg, nil
}

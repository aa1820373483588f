package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anystubbs/zone-picker/internal/config"
	"github.com/anystubbs/zone-picker/internal/eventsink"
	"github.com/anystubbs/zone-picker/internal/httpapi"
	"github.com/anystubbs/zone-picker/internal/input"
	"github.com/anystubbs/zone-picker/internal/logger"
	"github.com/anystubbs/zone-picker/internal/model"
	"github.com/anystubbs/zone-picker/internal/observability"
	"github.com/anystubbs/zone-picker/internal/provider"
	"github.com/anystubbs/zone-picker/internal/provider/wsbridge"
	"github.com/anystubbs/zone-picker/internal/selector"
	"github.com/anystubbs/zone-picker/internal/zoneio"

	// Importing the backend registers it with the provider registry.
	"github.com/anystubbs/zone-picker/internal/provider/canvas"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	zonesFlag := flag.String("zones", "", "path to a GeoJSON zone catalog (overrides ZONES_FILE)")
	flag.Parse()

	cfg := config.FromEnv()
	if *zonesFlag != "" {
		cfg.ZonesFile = strings.TrimSpace(*zonesFlag)
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Component: "zoned",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting zoned",
		"addr", cfg.Addr,
		"version", Version,
		"backend", cfg.Backend,
		"drag_mode", cfg.DragMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zones, err := loadZones(ctx, cfg, appLog)
	if err != nil {
		appLog.Error("zone loading failed", "err", err)
		return 1
	}
	cats, err := loadCategories(cfg.CategoriesFile)
	if err != nil {
		appLog.Error("category config loading failed", "err", err)
		return 1
	}
	appLog.Info("zones loaded", "zones", len(zones), "categories", len(cats))

	mode, err := model.ParseDragMode(cfg.DragMode)
	if err != nil {
		appLog.Error("invalid drag mode", "err", err)
		return 1
	}

	backend, err := provider.New(cfg.Backend, provider.Settings{
		Width:          cfg.CanvasWidth,
		Height:         cfg.CanvasHeight,
		Viewport:       cfg.Viewport,
		MarkerRadiusPx: cfg.MarkerRadiusPx,
		ModifierToDrag: cfg.ModifierToDrag,
	}, appLog)
	if err != nil {
		appLog.Error("provider setup failed", "err", err)
		return 1
	}

	modifier := input.NewModifier()
	var bridge *wsbridge.Bridge
	prov := backend
	if cv, ok := backend.(*canvas.Provider); ok {
		bridge = wsbridge.New(backend, cv, modifier, appLog)
		prov = bridge
	}

	var sink selector.EventSink
	if cfg.Kafka.Enabled {
		ks, err := eventsink.NewKafka(eventsink.KafkaConfig{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.Topic,
			ClientID: cfg.Kafka.ClientID,
		}, appLog)
		if err != nil {
			appLog.Error("kafka sink setup failed", "err", err)
			return 1
		}
		defer func() { _ = ks.Close() }()
		sink = ks
	}

	sel, err := selector.New(prov, zones, cats, selector.Options{
		Mode:            mode,
		DragThresholdPx: cfg.DragThresholdPx,
		Logger:          appLog,
		Modifier:        modifier,
		Sink:            sink,
	})
	if err != nil {
		appLog.Error("selector setup failed", "err", err)
		return 1
	}
	defer func() { _ = sel.Close() }()

	sel.OnSelectionChange(func(selected []*model.Zone) {
		ids := make([]string, 0, len(selected))
		for _, z := range selected {
			ids = append(ids, z.ID)
		}
		appLog.Debug("selection changed", "count", len(ids))
		if bridge != nil {
			bridge.SendSelection(ids)
		}
	})
	sel.OnCategoryChange(func(cat, variant string) {
		appLog.Info("category changed", "category", cat, "variant", variant)
	})

	var wsHandler http.Handler
	if bridge != nil {
		wsHandler = bridge.Handler()
	}

	handler := httpapi.Routes(appLog, sel, wsHandler)
	if err := httpapi.Serve(ctx, cfg.Addr, appLog, handler); err != nil {
		appLog.Error("http server failed", "err", err)
		return 1
	}
	return 0
}

func loadZones(ctx context.Context, cfg config.Config, log *slog.Logger) ([]*model.Zone, error) {
	var zones []*model.Zone

	if cfg.ZonesRedisKey != "" {
		src, err := zoneio.NewRedisSource(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		defer func() { _ = src.Close() }()
		zs, err := src.Load(ctx, cfg.ZonesRedisKey)
		if err != nil {
			return nil, err
		}
		log.Info("zones loaded from redis", "key", cfg.ZonesRedisKey, "count", len(zs))
		zones = append(zones, zs...)
	}

	if cfg.ZonesFile != "" {
		f, err := os.Open(cfg.ZonesFile)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		zs, err := zoneio.FromGeoJSON(f)
		if err != nil {
			return nil, err
		}
		zones = append(zones, zs...)
	}

	if cfg.H3CellsFile != "" {
		data, err := os.ReadFile(cfg.H3CellsFile)
		if err != nil {
			return nil, err
		}
		var cells []zoneio.CellZone
		if err := json.Unmarshal(data, &cells); err != nil {
			return nil, fmt.Errorf("parse h3 cells file: %w", err)
		}
		zs, err := zoneio.FromH3Cells(cells)
		if err != nil {
			return nil, err
		}
		zones = append(zones, zs...)
	}

	if len(zones) == 0 {
		return nil, fmt.Errorf("no zones configured; set ZONES_FILE, H3_CELLS_FILE or ZONES_REDIS_KEY")
	}
	return zones, nil
}

func loadCategories(path string) ([]model.CategoryConfig, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cats []model.CategoryConfig
	if err := json.Unmarshal(data, &cats); err != nil {
		return nil, fmt.Errorf("parse categories file: %w", err)
	}
	return cats, nil
}

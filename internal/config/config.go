// Package config reads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/anystubbs/zone-picker/internal/model"
)

type KafkaCfg struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	ClientID string
}

type Config struct {
	Addr       string
	LogLevel   string
	LogConsole bool

	Backend        string
	CanvasWidth    float64
	CanvasHeight   float64
	Viewport       model.ViewportBounds
	MarkerRadiusPx float64
	ModifierToDrag bool

	DragMode        string
	DragThresholdPx float64

	ZonesFile      string
	H3CellsFile    string
	CategoriesFile string
	RedisAddr      string
	ZonesRedisKey  string

	Kafka KafkaCfg
}

func FromEnv() Config {
	return Config{
		Addr:       getenv("ADDR", ":8090"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),

		Backend:      getenv("RENDER_BACKEND", "canvas"),
		CanvasWidth:  getfloat("CANVAS_WIDTH", 800),
		CanvasHeight: getfloat("CANVAS_HEIGHT", 600),
		Viewport: model.ViewportBounds{
			MinX: getfloat("WORLD_MIN_X", -180),
			MinY: getfloat("WORLD_MIN_Y", -90),
			MaxX: getfloat("WORLD_MAX_X", 180),
			MaxY: getfloat("WORLD_MAX_Y", 90),
		},
		MarkerRadiusPx: getfloat("MARKER_RADIUS_PX", 5),
		ModifierToDrag: getbool("MODIFIER_TO_DRAG", false),

		DragMode:        getenv("DRAG_MODE", "lasso"),
		DragThresholdPx: getfloat("DRAG_THRESHOLD_PX", 0),

		ZonesFile:      getenv("ZONES_FILE", ""),
		H3CellsFile:    getenv("H3_CELLS_FILE", ""),
		CategoriesFile: getenv("CATEGORIES_FILE", ""),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		ZonesRedisKey:  getenv("ZONES_REDIS_KEY", ""),

		Kafka: KafkaCfg{
			Enabled:  getbool("KAFKA_ENABLED", false),
			Brokers:  splitList(getenv("KAFKA_BROKERS", "localhost:9092")),
			Topic:    getenv("KAFKA_TOPIC", "zone-selection-events"),
			ClientID: getenv("KAFKA_CLIENT_ID", "zone-picker"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

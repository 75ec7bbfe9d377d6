// Package config loads the yaml tuning shared by the relay and the
// editor clients.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"voxeledit.ai/internal/editor"
	"voxeledit.ai/internal/editor/actors"
	"voxeledit.ai/internal/editor/feature/axis"
	"voxeledit.ai/internal/editor/feature/outline"
	"voxeledit.ai/internal/editor/terrain"
	"voxeledit.ai/internal/protocol"
	"voxeledit.ai/internal/relay"
	"voxeledit.ai/internal/sim/grid"
)

type Config struct {
	ProtocolVersion  string     `yaml:"protocol_version"`
	TickRateHz       int        `yaml:"tick_rate_hz"`
	RepeatIntervalMS int        `yaml:"repeat_interval_ms"`
	SnapBiasRadians  float64    `yaml:"snap_bias_radians"`
	OutlineMaxMargin float64    `yaml:"outline_max_margin"`
	TileDimensions   [3]float64 `yaml:"tile_dimensions"`

	Map     MapSpec     `yaml:"map"`
	Relay   RelaySpec   `yaml:"relay"`
	Palette []ActorSpec `yaml:"palette,omitempty"`
}

type MapSpec struct {
	Radius       int `yaml:"radius"`
	MinY         int `yaml:"min_y"`
	MaxY         int `yaml:"max_y"`
	MaxFillCells int `yaml:"max_fill_cells"`
}

type RelaySpec struct {
	Addr      string `yaml:"addr"`
	DataDir   string `yaml:"data_dir"`
	DisableDB bool   `yaml:"disable_db"`
	MaxQueue  int    `yaml:"max_queue"`

	// SnapshotEveryTicks of zero snapshots only on shutdown.
	SnapshotEveryTicks int `yaml:"snapshot_every_ticks"`
}

type ActorSpec struct {
	ID     int64    `yaml:"id"`
	Name   string   `yaml:"name"`
	Bounds [3]int   `yaml:"bounds"`
	Root   PartSpec `yaml:"root"`
}

type PartSpec struct {
	Name     string     `yaml:"name"`
	Material string     `yaml:"material"`
	Offset   [3]float32 `yaml:"offset,omitempty"`
	Children []PartSpec `yaml:"children,omitempty"`
}

func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("editor.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("editor.yaml: %w", err)
	}
	return cfg, nil
}

func Defaults() Config {
	return Config{
		ProtocolVersion:  protocol.Version,
		TickRateHz:       20,
		RepeatIntervalMS: 250,
		SnapBiasRadians:  axis.DefaultBias,
		OutlineMaxMargin: outline.DefaultMaxMargin,
		TileDimensions:   [3]float64{1, 1, 1},
		Map: MapSpec{
			Radius:       1024,
			MinY:         -64,
			MaxY:         255,
			MaxFillCells: 32768,
		},
		Relay: RelaySpec{
			Addr:     ":8090",
			DataDir:  "data",
			MaxQueue: 64,

			SnapshotEveryTicks: 1200,
		},
	}
}

// Normalize fills zero values with defaults.
func (c *Config) Normalize() {
	d := Defaults()
	if strings.TrimSpace(c.ProtocolVersion) == "" {
		c.ProtocolVersion = d.ProtocolVersion
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = d.TickRateHz
	}
	if c.RepeatIntervalMS <= 0 {
		c.RepeatIntervalMS = d.RepeatIntervalMS
	}
	if c.SnapBiasRadians == 0 {
		c.SnapBiasRadians = d.SnapBiasRadians
	}
	if c.OutlineMaxMargin <= 0 {
		c.OutlineMaxMargin = d.OutlineMaxMargin
	}
	if c.TileDimensions == ([3]float64{}) {
		c.TileDimensions = d.TileDimensions
	}
	if c.Map.MaxY == 0 && c.Map.MinY == 0 {
		c.Map.MinY, c.Map.MaxY = d.Map.MinY, d.Map.MaxY
	}
	if strings.TrimSpace(c.Relay.Addr) == "" {
		c.Relay.Addr = d.Relay.Addr
	}
	if strings.TrimSpace(c.Relay.DataDir) == "" {
		c.Relay.DataDir = d.Relay.DataDir
	}
	if c.Relay.MaxQueue <= 0 {
		c.Relay.MaxQueue = d.Relay.MaxQueue
	}
}

func (c Config) Validate() error {
	if c.ProtocolVersion != protocol.Version {
		return fmt.Errorf("protocol_version %q not supported (want %q)", c.ProtocolVersion, protocol.Version)
	}
	if c.TickRateHz > 1000 {
		return fmt.Errorf("tick_rate_hz %d out of range", c.TickRateHz)
	}
	if c.SnapBiasRadians < 0 || c.SnapBiasRadians >= 0.785 {
		return fmt.Errorf("snap_bias_radians %.3f must be in [0, pi/4)", c.SnapBiasRadians)
	}
	for i, v := range c.TileDimensions {
		if v <= 0 {
			return fmt.Errorf("tile_dimensions[%d] must be > 0", i)
		}
	}
	if c.Map.MinY > c.Map.MaxY {
		return fmt.Errorf("map.min_y %d above map.max_y %d", c.Map.MinY, c.Map.MaxY)
	}
	if c.Relay.SnapshotEveryTicks < 0 {
		return fmt.Errorf("relay.snapshot_every_ticks %d must be >= 0", c.Relay.SnapshotEveryTicks)
	}
	if c.Relay.MaxQueue > 4096 {
		return fmt.Errorf("relay.max_queue %d out of range", c.Relay.MaxQueue)
	}
	seen := map[int64]bool{}
	for _, a := range c.Palette {
		if seen[a.ID] {
			return fmt.Errorf("palette: duplicate id %d", a.ID)
		}
		seen[a.ID] = true
		for i, d := range a.Bounds {
			if d == 0 {
				return fmt.Errorf("palette %d: bounds[%d] is zero", a.ID, i)
			}
		}
	}
	return nil
}

func (c Config) RepeatInterval() time.Duration {
	return time.Duration(c.RepeatIntervalMS) * time.Millisecond
}

func (c Config) Tile() mgl32.Vec3 {
	return mgl32.Vec3{float32(c.TileDimensions[0]), float32(c.TileDimensions[1]), float32(c.TileDimensions[2])}
}

func (c Config) EditorOptions(logger *log.Logger) editor.Options {
	return editor.Options{
		RepeatInterval: c.RepeatInterval(),
		SnapBias:       float32(c.SnapBiasRadians),
		MaxMargin:      float32(c.OutlineMaxMargin),
		Tile:           c.Tile(),
		Logger:         logger,
	}
}

func (c Config) MapBounds() terrain.Bounds {
	return terrain.Bounds{Radius: c.Map.Radius, MaxCells: c.Map.MaxFillCells}.WithHeight(c.Map.MinY, c.Map.MaxY)
}

func (c Config) RelayConfig() relay.Config {
	t := c.Tile()
	return relay.Config{
		TickRateHz:     c.TickRateHz,
		TileDimensions: [3]float32{t[0], t[1], t[2]},
		Map:            c.MapBounds(),
		SnapshotDir:    filepath.Join(c.Relay.DataDir, "snapshots"),
		SnapshotEvery:  uint64(c.Relay.SnapshotEveryTicks),
	}
}

// Registry builds the actor palette.
func (c Config) Registry() *actors.Registry {
	r := actors.NewRegistry()
	for _, a := range c.Palette {
		r.Register(actors.Prototype{
			ID:     a.ID,
			Name:   a.Name,
			Bounds: grid.FromArray(a.Bounds),
			Root:   a.Root.part(),
		})
	}
	return r
}

func (p PartSpec) part() actors.Part {
	out := actors.Part{Name: p.Name, Material: p.Material, Offset: mgl32.Vec3(p.Offset)}
	for _, c := range p.Children {
		out.Children = append(out.Children, c.part())
	}
	return out
}

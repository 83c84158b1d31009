package tetris

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Config is the static setup of a game. It doesn't change once a game starts.
type Config struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	// Gravity is the time between two automatic steps down.
	Gravity time.Duration `yaml:"gravity"`
	// Frame is how often the driver drains input and checks gravity.
	Frame time.Duration `yaml:"frame"`
	// RepetitionWindow is how many recent shapes can't be drawn again.
	RepetitionWindow int `yaml:"repetition_window"`
	// Seed makes the piece sequence reproducible. Zero picks a random seed.
	Seed uint64 `yaml:"seed"`
	// Shapes are written one string per row, '#' occupied and '.' empty.
	Shapes [][]string `yaml:"shapes"`
	// Palette entries are hex colours such as "#ff0000".
	Palette []string `yaml:"palette"`
}

func DefaultConfig() Config {
	c := DefaultCatalog()
	cfg := Config{
		Width:            10,
		Height:           20,
		Gravity:          1 * time.Second,
		Frame:            16 * time.Millisecond,
		RepetitionWindow: 3,
	}
	for _, s := range c.Shapes {
		cfg.Shapes = append(cfg.Shapes, s.Strings())
	}
	for _, p := range c.Palette {
		cfg.Palette = append(cfg.Palette, colorful.Color{
			R: float64(p.R) / 255,
			G: float64(p.G) / 255,
			B: float64(p.B) / 255,
		}.Hex())
	}
	return cfg
}

// LoadConfig reads a YAML document on top of DefaultConfig.
// Keys missing from the document keep their default.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Catalog parses the configured shapes and palette.
func (c Config) Catalog() (Catalog, error) {
	var cat Catalog
	for i, rows := range c.Shapes {
		m, err := ParseMatrix(rows...)
		if err != nil {
			return Catalog{}, fmt.Errorf("shape %d: %w", i, err)
		}
		cat.Shapes = append(cat.Shapes, m)
	}
	for _, hex := range c.Palette {
		col, err := colorful.Hex(hex)
		if err != nil {
			return Catalog{}, fmt.Errorf("palette colour %q: %w", hex, err)
		}
		r, g, b := col.RGB255()
		cat.Palette = append(cat.Palette, RGB{r, g, b})
	}
	return cat, nil
}

func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("field must be at least 1x1, got %dx%d", c.Width, c.Height)
	case c.Gravity <= 0:
		return fmt.Errorf("gravity interval must be positive, got %v", c.Gravity)
	case c.Frame <= 0:
		return fmt.Errorf("frame interval must be positive, got %v", c.Frame)
	case c.RepetitionWindow < 0:
		return fmt.Errorf("repetition window can't be negative, got %d", c.RepetitionWindow)
	case len(c.Palette) == 0:
		return errors.New("palette is empty")
	}
	cat, err := c.Catalog()
	if err != nil {
		return err
	}
	if c.RepetitionWindow >= len(cat.Shapes) {
		return fmt.Errorf("repetition window %d must be smaller than the %d shapes: %w", c.RepetitionWindow, len(cat.Shapes), ErrSpawnPoolExhausted)
	}
	for i, s := range cat.Shapes {
		if s.Cols() > c.Width {
			return fmt.Errorf("shape %d is wider than the field", i)
		}
	}
	return nil
}

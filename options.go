package lz78huff

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/klauspost/compress/zstd"
)

const (
	defaultSeparator = '|'
	defaultCacheSize = 64
)

// Config holds configuration shared by the compressors, Compare and Store.
type Config struct {
	Separator rune              // Index separator for the hybrid stream (0 = '|')
	ZstdLevel zstd.EncoderLevel // Baseline level used by Compare (0 = best compression)
	CacheSize int               // Archives kept by a Store (0 = 64)
}

// Option is a functional option for configuring the compressor.
type Option func(*Config)

// WithSeparator sets the symbol placed between indices in the hybrid index
// stream. It must be a valid rune and not a decimal digit.
func WithSeparator(r rune) Option {
	return func(c *Config) {
		c.Separator = r
	}
}

// WithZstdLevel sets the zstd level of the Compare baseline.
func WithZstdLevel(level zstd.EncoderLevel) Option {
	return func(c *Config) {
		c.ZstdLevel = level
	}
}

// WithCacheSize sets how many decoded archives a Store keeps.
func WithCacheSize(n int) Option {
	return func(c *Config) {
		c.CacheSize = n
	}
}

func resolveConfig(opts []Option) (Config, error) {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Separator == 0 {
		cfg.Separator = defaultSeparator
	}
	if !utf8.ValidRune(cfg.Separator) || isDigit(cfg.Separator) || unicode.IsDigit(cfg.Separator) {
		return Config{}, fmt.Errorf("%w: separator %q", ErrInvalidOption, cfg.Separator)
	}
	if cfg.ZstdLevel == 0 {
		cfg.ZstdLevel = zstd.SpeedBestCompression
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = defaultCacheSize
	}
	if cfg.CacheSize < 0 {
		return Config{}, fmt.Errorf("%w: cache size %d", ErrInvalidOption, cfg.CacheSize)
	}
	return cfg, nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

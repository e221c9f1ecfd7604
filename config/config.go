// Package config loads wire mode and container settings from YAML.
//
// A config file is optional everywhere it is accepted. Keys that are left
// out keep their Default value; unknown keys are rejected.
//
//	mode:
//	  dedup: true
//	  size_width: variable
//	  dedup_index_width: "16"
//	  fixed_ints_varint: false
//	container:
//	  compression: zstd
//	  checksum: true
package config

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"

	"github.com/wippyai/binserde"
	"github.com/wippyai/binserde/container"
	"github.com/wippyai/binserde/errors"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Mode      ModeConfig      `yaml:"mode"`
	Container ContainerConfig `yaml:"container"`
}

// ModeConfig mirrors binserde.Mode. Widths are written as "variable",
// "8", "16", "32" or "64".
type ModeConfig struct {
	SizeWidth       string `yaml:"size_width"`
	DedupIndexWidth string `yaml:"dedup_index_width"`
	FixedIntsVarint bool   `yaml:"fixed_ints_varint"`
	Dedup           bool   `yaml:"dedup"`
}

// ContainerConfig mirrors container.Options without the mode.
type ContainerConfig struct {
	// Compression is "none", "lz4" or "zstd".
	Compression string `yaml:"compression"`
	Checksum    bool   `yaml:"checksum"`
}

// Default returns the settings used when no file is given: dedup on,
// variable widths, uncompressed containers with a checksum.
func Default() *Config {
	return &Config{
		Mode: ModeConfig{
			SizeWidth:       binserde.WidthVariable.String(),
			DedupIndexWidth: binserde.WidthVariable.String(),
			Dedup:           true,
		},
		Container: ContainerConfig{
			Compression: container.CompressionNone.String(),
			Checksum:    true,
		},
	}
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "read "+path)
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse yaml")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that widths and the compression name are known.
func (c *Config) Validate() error {
	_, err := c.ContainerOptions()
	return err
}

// WireMode converts the mode section to a binserde.Mode.
func (c *Config) WireMode() (binserde.Mode, error) {
	size, err := binserde.ParseWidth(c.Mode.SizeWidth)
	if err != nil {
		return binserde.Mode{}, errors.WithPath(
			errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, ""), "mode.size_width")
	}
	index, err := binserde.ParseWidth(c.Mode.DedupIndexWidth)
	if err != nil {
		return binserde.Mode{}, errors.WithPath(
			errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, ""), "mode.dedup_index_width")
	}
	return binserde.Mode{
		SizeWidth:       size,
		DedupIndexWidth: index,
		FixedIntsVarint: c.Mode.FixedIntsVarint,
		Dedup:           c.Mode.Dedup,
	}, nil
}

// ContainerOptions converts the config to container.Options, including the
// wire mode.
func (c *Config) ContainerOptions() (container.Options, error) {
	mode, err := c.WireMode()
	if err != nil {
		return container.Options{}, err
	}
	comp, err := container.ParseCompression(c.Container.Compression)
	if err != nil {
		return container.Options{}, errors.WithPath(
			errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, ""), "container.compression")
	}
	return container.Options{
		Mode:        mode,
		Compression: comp,
		Checksum:    c.Container.Checksum,
	}, nil
}

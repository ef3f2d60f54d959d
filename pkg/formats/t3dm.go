package formats

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// T3DM format errors.
var (
	ErrInvalidT3DMMagic       = errors.New("invalid T3DM magic: expected 'T3DM'")
	ErrUnsupportedT3DMVersion = errors.New("unsupported T3DM version")
	ErrTruncatedT3DMData      = errors.New("truncated T3DM data")
)

// T3DM format constants.
const (
	t3dmMagic        = "T3DM"
	T3DMVersionMajor = 1
	T3DMVersionMinor = 0

	// MaxT3DMRegionSize bounds the per-region resolution accepted on read.
	MaxT3DMRegionSize = 4096
	// MaxT3DMRegions bounds the region count accepted on read.
	MaxT3DMRegions = 1024
)

// T3DMRegion is one region's persisted data. Heights holds RegionSize²
// elevation samples, Control holds RegionSize² packed RGBA8 attributes.
type T3DMRegion struct {
	OffsetX int32
	OffsetY int32
	Heights []float32
	Control []byte
}

// T3DM is the region map blob: offsets, elevation and control data of every
// region in index order.
type T3DM struct {
	RegionSize uint32
	Regions    []T3DMRegion
}

// Validate checks that every region carries exactly RegionSize² samples.
func (m *T3DM) Validate() error {
	if m.RegionSize == 0 || m.RegionSize > MaxT3DMRegionSize {
		return fmt.Errorf("invalid T3DM region size %d", m.RegionSize)
	}
	if len(m.Regions) > MaxT3DMRegions {
		return fmt.Errorf("too many T3DM regions: %d", len(m.Regions))
	}
	pixels := int(m.RegionSize * m.RegionSize)
	for i, r := range m.Regions {
		if len(r.Heights) != pixels {
			return fmt.Errorf("region %d: %d height samples, want %d", i, len(r.Heights), pixels)
		}
		if len(r.Control) != pixels*4 {
			return fmt.Errorf("region %d: %d control bytes, want %d", i, len(r.Control), pixels*4)
		}
	}
	return nil
}

// Encode serializes the blob.
func (m *T3DM) Encode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	buf.WriteString(t3dmMagic)
	buf.WriteByte(T3DMVersionMajor)
	buf.WriteByte(T3DMVersionMinor)

	// bytes.Buffer writes cannot fail
	_ = writeFields(buf, m.RegionSize, uint32(len(m.Regions)))
	for _, r := range m.Regions {
		_ = writeFields(buf, r.OffsetX, r.OffsetY, r.Heights)
		buf.Write(r.Control)
	}
	return buf.Bytes(), nil
}

// ParseT3DM parses a T3DM blob from raw bytes.
func ParseT3DM(data []byte) (*T3DM, error) {
	if len(data) < 14 {
		return nil, ErrTruncatedT3DMData
	}
	if string(data[0:4]) != t3dmMagic {
		return nil, ErrInvalidT3DMMagic
	}
	if data[4] != T3DMVersionMajor {
		return nil, fmt.Errorf("%w: %d.%d", ErrUnsupportedT3DMVersion, data[4], data[5])
	}

	r := bytes.NewReader(data[6:])
	truncated := func(what string) error {
		return fmt.Errorf("%w: reading %s", ErrTruncatedT3DMData, what)
	}

	m := &T3DM{}
	var count uint32
	if err := readFields(r, truncated,
		field{"region size", &m.RegionSize},
		field{"region count", &count},
	); err != nil {
		return nil, err
	}
	if m.RegionSize == 0 || m.RegionSize > MaxT3DMRegionSize {
		return nil, fmt.Errorf("invalid T3DM region size %d", m.RegionSize)
	}
	if count > MaxT3DMRegions {
		return nil, fmt.Errorf("too many T3DM regions: %d", count)
	}

	pixels := int(m.RegionSize * m.RegionSize)
	m.Regions = make([]T3DMRegion, count)
	for i := range m.Regions {
		reg := &m.Regions[i]
		reg.Heights = make([]float32, pixels)
		reg.Control = make([]byte, pixels*4)
		if err := readFields(r, truncated,
			field{fmt.Sprintf("region %d offset", i), &reg.OffsetX},
			field{fmt.Sprintf("region %d offset", i), &reg.OffsetY},
			field{fmt.Sprintf("region %d heights", i), reg.Heights},
			field{fmt.Sprintf("region %d control", i), reg.Control},
		); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ParseT3DMFile parses a T3DM file from disk.
func ParseT3DMFile(path string) (*T3DM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading T3DM file: %w", err)
	}
	return ParseT3DM(data)
}

// WriteT3DMFile encodes the blob and writes it to path, creating parent directories.
func WriteT3DMFile(path string, m *T3DM) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

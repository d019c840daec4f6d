package distfield

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/mcl/geom"
)

const (
	codecMagic   = "MCLF"
	codecVersion = uint32(1)
)

var ErrCorrupt = errors.New("distfield: corrupt encoded field")

type header struct {
	Version     uint32
	Fingerprint uint64
	Factor      float64
	OffsetX     float64
	OffsetY     float64
}

// MarshalBinary encodes the field as a fixed header followed by the gonum
// binary form of the grid.
func (f *Field) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(codecMagic)
	h := header{
		Version:     codecVersion,
		Fingerprint: f.Fingerprint,
		Factor:      f.Factor,
		OffsetX:     f.Offset.X,
		OffsetY:     f.Offset.Y,
	}
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	if _, err := f.grid.MarshalBinaryTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding grid: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses bytes produced by MarshalBinary.
func Decode(data []byte) (*Field, error) {
	if len(data) < len(codecMagic) || string(data[:len(codecMagic)]) != codecMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	r := bytes.NewReader(data[len(codecMagic):])
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if h.Version != codecVersion {
		return nil, fmt.Errorf("%w: version %d", ErrCorrupt, h.Version)
	}
	if !(h.Factor > 0) {
		return nil, fmt.Errorf("%w: factor %v", ErrCorrupt, h.Factor)
	}
	var grid mat.Dense
	if _, err := grid.UnmarshalBinaryFrom(r); err != nil {
		return nil, fmt.Errorf("%w: grid: %v", ErrCorrupt, err)
	}
	return newField(h.Factor, geom.Point{X: h.OffsetX, Y: h.OffsetY}, h.Fingerprint, &grid), nil
}

package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/mcl/geom"
)

func square(x, y, s float64) []geom.Point {
	return rectPoly(x, y, s, s)
}

func TestNewValidation(t *testing.T) {
	start := geom.Rect{X: 10, Y: 10, W: 20, H: 20}

	tests := []struct {
		name       string
		boundaries []Boundary
		start      geom.Rect
		wantErr    error
	}{
		{
			name:       "no outer",
			boundaries: []Boundary{{Points: square(0, 0, 100)}},
			start:      start,
			wantErr:    ErrNoOuterBoundary,
		},
		{
			name: "two outer",
			boundaries: []Boundary{
				{Points: square(0, 0, 100), Outer: true},
				{Points: square(0, 0, 50), Outer: true},
			},
			start:   start,
			wantErr: ErrMultipleOuter,
		},
		{
			name:       "too few vertices",
			boundaries: []Boundary{{Points: []geom.Point{{0, 0}, {1, 1}}, Outer: true}},
			start:      start,
			wantErr:    ErrTooFewVertices,
		},
		{
			name:       "bow tie",
			boundaries: []Boundary{{Points: []geom.Point{{0, 0}, {100, 100}, {100, 0}, {0, 100}}, Outer: true}},
			start:      start,
			wantErr:    ErrSelfIntersecting,
		},
		{
			name: "obstacle outside",
			boundaries: []Boundary{
				{Points: square(150, 150, 10)},
				{Points: square(0, 0, 100), Outer: true},
			},
			start:   start,
			wantErr: ErrBoundaryOutside,
		},
		{
			name: "obstacle edge leaves concave outer",
			boundaries: []Boundary{
				// every vertex is inside the L, the long edge cuts across the notch
				{Points: []geom.Point{{250, 600}, {250, 100}, {900, 100}}},
				{Points: []geom.Point{{0, 0}, {1000, 0}, {1000, 250}, {300, 250}, {300, 700}, {0, 700}}, Outer: true},
			},
			start:   start,
			wantErr: ErrBoundaryOutside,
		},
		{
			name: "outer revisits a vertex",
			boundaries: []Boundary{{
				Points: []geom.Point{{0, 0}, {10, 0}, {10, 10}, {20, 10}, {20, 20}, {10, 20}, {10, 10}, {0, 10}},
				Outer:  true,
			}},
			start:   geom.Rect{X: 1, Y: 1, W: 5, H: 5},
			wantErr: ErrSelfIntersecting,
		},
		{
			name: "outer folds back along itself",
			boundaries: []Boundary{{
				Points: []geom.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 20}, {0, 5}},
				Outer:  true,
			}},
			start:   geom.Rect{X: 1, Y: 1, W: 5, H: 5},
			wantErr: ErrSelfIntersecting,
		},
		{
			name: "outer vertex touches a far edge",
			boundaries: []Boundary{{
				Points: []geom.Point{{0, 0}, {20, 0}, {20, 20}, {10, 0}, {0, 20}},
				Outer:  true,
			}},
			start:   geom.Rect{X: 1, Y: 1, W: 2, H: 2},
			wantErr: ErrSelfIntersecting,
		},
		{
			name:       "empty start",
			boundaries: []Boundary{{Points: square(0, 0, 100), Outer: true}},
			start:      geom.Rect{X: 10, Y: 10},
			wantErr:    ErrInvalidStartRect,
		},
		{
			name:       "start outside",
			boundaries: []Boundary{{Points: square(0, 0, 100), Outer: true}},
			start:      geom.Rect{X: 90, Y: 90, W: 20, H: 20},
			wantErr:    ErrStartOutsideOuterRect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("test", tt.boundaries, tt.start)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewAcceptsConcaveOuterWithObstacleInside(t *testing.T) {
	outer := []geom.Point{{0, 0}, {1000, 0}, {1000, 250}, {300, 250}, {300, 700}, {0, 700}}
	_, err := New("ell", []Boundary{
		{Points: []geom.Point{{100, 600}, {100, 100}, {250, 100}}},
		{Points: outer, Outer: true},
	}, geom.Rect{X: 20, Y: 20, W: 50, H: 50})
	require.NoError(t, err)
}

func TestNewOrdersOuterLastAndTrimsClosingVertex(t *testing.T) {
	outer := append(square(0, 0, 100), geom.Point{X: 0, Y: 0})
	m, err := New("room", []Boundary{
		{Points: outer, Outer: true},
		{Points: square(40, 40, 10)},
	}, geom.Rect{X: 5, Y: 5, W: 10, H: 10})
	require.NoError(t, err)

	require.Len(t, m.Boundaries, 2)
	assert.False(t, m.Boundaries[0].Outer)
	assert.True(t, m.OuterBoundary().Outer)
	assert.Len(t, m.OuterBoundary().Points, 4)
	assert.Len(t, m.Walls(), 8)
	assert.Equal(t, geom.Rect{X: 0, Y: 0, W: 100, H: 100}, m.Outer)
}

func TestFreeAndBlocked(t *testing.T) {
	m, err := Obstacle()
	require.NoError(t, err)

	assert.True(t, m.Free(geom.Point{X: 100, Y: 100}))
	assert.False(t, m.Free(geom.Point{X: 500, Y: 250}), "inside obstacle")
	assert.False(t, m.Free(geom.Point{X: 900, Y: 100}), "outside room")

	assert.True(t, m.Blocked(geom.Point{X: 400, Y: 275}, geom.Point{X: 500, Y: 275}))
	assert.False(t, m.Blocked(geom.Point{X: 100, Y: 100}, geom.Point{X: 200, Y: 100}))
}

func TestFingerprint(t *testing.T) {
	a, err := Obstacle()
	require.NoError(t, err)
	b, err := Obstacle()
	require.NoError(t, err)
	c, err := Square()
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestBuiltins(t *testing.T) {
	for _, name := range BuiltinNames() {
		t.Run(name, func(t *testing.T) {
			m, err := Builtin(name)
			require.NoError(t, err)
			assert.Equal(t, name, m.Name)
			assert.True(t, m.Free(m.Start.Center()), "start centre should be free")
		})
	}

	_, err := Builtin("nope")
	assert.Error(t, err)
}

func TestLoadRoundTrip(t *testing.T) {
	m, err := Corridor()
	require.NoError(t, err)

	data, err := yaml.Marshal(ToFile(m))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "corridor.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := Resolve(path)
	require.NoError(t, err)

	if diff := cmp.Diff(m.Boundaries, loaded.Boundaries); diff != "" {
		t.Errorf("boundaries mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, m.Start, loaded.Start)
	assert.Equal(t, m.Fingerprint(), loaded.Fingerprint())
}

func TestParseRejectsInvalid(t *testing.T) {
	doc := `
name: broken
start: {x: 1, y: 1, w: 1, h: 1}
boundaries:
  - points: [[0, 0], [10, 0], [10, 10]]
`
	_, err := Parse([]byte(doc))
	require.ErrorIs(t, err, ErrNoOuterBoundary)
}

package distfield

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/pthm-cable/mcl/geom"
	"github.com/pthm-cable/mcl/world"
)

func obstacleMap(t *testing.T) *world.Map {
	t.Helper()
	m, err := world.New("box",
		[]world.Boundary{
			{Points: []geom.Point{{40, 40}, {60, 40}, {60, 60}, {40, 60}}},
			{Points: []geom.Point{{0, 0}, {100, 0}, {100, 100}, {0, 100}}, Outer: true},
		},
		geom.Rect{X: 5, Y: 5, W: 20, H: 20})
	require.NoError(t, err)
	return m
}

func bruteForce(p geom.Point, walls []geom.Segment) float64 {
	best := math.Inf(1)
	for _, w := range walls {
		best = math.Min(best, geom.PointSegmentDistance(p, w))
	}
	return best
}

func TestBuildMatchesBruteForce(t *testing.T) {
	m := obstacleMap(t)
	f, err := Build(m, 2.5)
	require.NoError(t, err)

	assert.Equal(t, geom.Point{X: -100, Y: -50}, f.Offset)
	rows, cols := f.Dims()
	assert.Equal(t, 121, rows)
	assert.Equal(t, 81, cols)

	for i := 0; i < rows; i += 7 {
		for j := 0; j < cols; j += 5 {
			p := geom.Point{X: f.Offset.X + float64(i)*f.Factor, Y: f.Offset.Y + float64(j)*f.Factor}
			want := bruteForce(p, m.Walls())
			if got := f.At(i, j); math.Abs(got-want) > 1e-9 {
				t.Fatalf("cell (%d,%d) at %v = %v, want %v", i, j, p, got, want)
			}
		}
	}
}

func TestBuildKnownDistances(t *testing.T) {
	m := obstacleMap(t)
	f, err := Build(m, 1)
	require.NoError(t, err)

	tests := []struct {
		p    geom.Point
		want float64
	}{
		{geom.Point{X: 20, Y: 50}, 20}, // left of obstacle, 20 from outer wall too
		{geom.Point{X: 50, Y: 20}, 20},
		{geom.Point{X: 30, Y: 50}, 10},
		{geom.Point{X: 50, Y: 50}, 10}, // centre of obstacle
		{geom.Point{X: 0, Y: 0}, 0},
		{geom.Point{X: -10, Y: 50}, 10}, // outside the room, inside the grid
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, f.Lookup(tt.p.X, tt.p.Y), 1e-9, "lookup %v", tt.p)
	}
}

func TestLookupOutsideGrid(t *testing.T) {
	f, err := Build(obstacleMap(t), 5)
	require.NoError(t, err)

	maxD := f.MaxDistance()
	assert.Greater(t, maxD, 0.0)
	for _, p := range []geom.Point{
		{X: -1000, Y: 0},
		{X: 0, Y: 1e6},
		{X: math.NaN(), Y: 0},
		{X: math.Inf(1), Y: 0},
		{X: 1e300, Y: 1e300},
	} {
		assert.Equal(t, maxD, f.Lookup(p.X, p.Y), "lookup %v", p)
	}
}

func TestBuildErrors(t *testing.T) {
	m := obstacleMap(t)
	for _, factor := range []float64{0, -1, math.NaN()} {
		_, err := Build(m, factor)
		assert.ErrorIs(t, err, ErrInvalidFactor)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	f, err := Build(obstacleMap(t), 4)
	require.NoError(t, err)

	data, err := f.MarshalBinary()
	require.NoError(t, err)

	g, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, f.Factor, g.Factor)
	assert.Equal(t, f.Offset, g.Offset)
	assert.Equal(t, f.Fingerprint, g.Fingerprint)
	assert.True(t, mat.Equal(f.Matrix(), g.Matrix()))
	assert.Equal(t, f.Lookup(12, 34), g.Lookup(12, 34))

	_, err = Decode([]byte("nope"))
	assert.ErrorIs(t, err, ErrCorrupt)
	_, err = Decode(data[:20])
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestEncodingIsPure(t *testing.T) {
	m := obstacleMap(t)
	a, err := Build(m, 3)
	require.NoError(t, err)
	b, err := Build(m, 3)
	require.NoError(t, err)

	da, err := a.MarshalBinary()
	require.NoError(t, err)
	db, err := b.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestStores(t *testing.T) {
	dir := t.TempDir()
	fileStore, err := NewFileStore(filepath.Join(dir, "cache"))
	require.NoError(t, err)
	sqliteStore, err := OpenSQLiteStore(filepath.Join(dir, "fields.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fileStore,
		"sqlite": sqliteStore,
	}

	m := obstacleMap(t)
	f, err := Build(m, 5)
	require.NoError(t, err)
	key := Key{MapName: m.Name, Factor: 5}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load(key)
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Save(key, f))
			got, err := s.Load(key)
			require.NoError(t, err)
			assert.True(t, mat.Equal(f.Matrix(), got.Matrix()))

			_, err = s.Load(Key{MapName: m.Name, Factor: 6})
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

type failingStore struct {
	loads, saves int
}

func (s *failingStore) Load(Key) (*Field, error) {
	s.loads++
	return nil, errors.New("disk on fire")
}

func (s *failingStore) Save(Key, *Field) error {
	s.saves++
	return errors.New("disk on fire")
}

func TestLoadOrBuild(t *testing.T) {
	m := obstacleMap(t)

	t.Run("miss then hit", func(t *testing.T) {
		s := NewMemoryStore()
		a, err := LoadOrBuild(s, m, 5)
		require.NoError(t, err)
		assert.Equal(t, 1, s.Len())

		b, err := LoadOrBuild(s, m, 5)
		require.NoError(t, err)
		assert.Same(t, a, b)
	})

	t.Run("stale geometry rebuilds", func(t *testing.T) {
		s := NewMemoryStore()
		other, err := world.SquareRoom(100)
		require.NoError(t, err)
		stale, err := Build(other, 5)
		require.NoError(t, err)
		require.NoError(t, s.Save(Key{MapName: m.Name, Factor: 5}, stale))

		f, err := LoadOrBuild(s, m, 5)
		require.NoError(t, err)
		assert.Equal(t, m.Fingerprint(), f.Fingerprint)
		assert.NotSame(t, stale, f)
	})

	t.Run("failing store degrades to build", func(t *testing.T) {
		s := &failingStore{}
		f, err := LoadOrBuild(s, m, 5)
		require.NoError(t, err)
		require.NotNil(t, f)
		assert.Equal(t, 1, s.loads)
		assert.Equal(t, 1, s.saves)
	})

	t.Run("nil store", func(t *testing.T) {
		f, err := LoadOrBuild(nil, m, 5)
		require.NoError(t, err)
		assert.NotNil(t, f)
	})

	t.Run("invalid factor", func(t *testing.T) {
		_, err := LoadOrBuild(NewMemoryStore(), m, 0)
		assert.ErrorIs(t, err, ErrInvalidFactor)
	})
}

func TestOpenStore(t *testing.T) {
	s, err := OpenStore("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	assert.NoError(t, CloseStore(s))

	s, err = OpenStore("none", "")
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = OpenStore("tape", "")
	assert.Error(t, err)
}

func BenchmarkLookup(b *testing.B) {
	m, _ := world.Obstacle()
	f, _ := Build(m, 2)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.Lookup(float64(i%800), float64(i%600))
	}
}

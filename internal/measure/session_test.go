package measure

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mowquote/internal/geo"
	"mowquote/internal/types"
)

// drawSquare runs a session through draw mode, clicking out a square of the
// given side length in meters at the given longitude offset, without
// finishing it.
func drawSquare(t *testing.T, s Session, lngOffsetDeg, sideMeters float64) Session {
	t.Helper()
	d := sideMeters / geo.EarthRadiusMeters * 180 / math.Pi
	points := []orb.Point{
		{lngOffsetDeg, 0},
		{lngOffsetDeg + d, 0},
		{lngOffsetDeg + d, d},
		{lngOffsetDeg, d},
	}
	var err error
	for _, p := range points {
		s, err = s.AppendPoint(p)
		require.NoError(t, err)
	}
	return s
}

func TestNewSessionIsEmptyViewMode(t *testing.T) {
	s := NewSession()
	assert.Equal(t, ModeView, s.Mode)
	assert.Empty(t, s.Finished)
	assert.Empty(t, s.Active)
	assert.Equal(t, int64(0), s.TotalArea())
}

func TestAppendPointRequiresDrawMode(t *testing.T) {
	s := NewSession()
	_, err := s.AppendPoint(orb.Point{-80.1373, 26.1224})
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationWrongMode, appErr.Code)
}

func TestFinishShapeTooFewPointsIsNoOp(t *testing.T) {
	s := NewSession()
	s, err := s.SetMode(ModeDraw)
	require.NoError(t, err)
	s, err = s.AppendPoint(orb.Point{0, 0})
	require.NoError(t, err)
	s, err = s.AppendPoint(orb.Point{0.001, 0})
	require.NoError(t, err)

	before := s
	after, err := s.FinishShape()
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeValidationPolygonTooSmall, appErr.Code)

	// State unchanged: same mode, same active path, nothing finished.
	assert.Equal(t, before.Mode, after.Mode)
	assert.Equal(t, before.Active, after.Active)
	assert.Empty(t, after.Finished)
}

func TestFinishShapeCommitsAndResetsActive(t *testing.T) {
	s := NewSession()
	s, err := s.SetMode(ModeDraw)
	require.NoError(t, err)
	s = drawSquare(t, s, 0, 30)

	s, err = s.FinishShape()
	require.NoError(t, err)

	require.Len(t, s.Finished, 1)
	assert.Len(t, s.Finished[0], 4)
	assert.Empty(t, s.Active)
	assert.Equal(t, ModeDraw, s.Mode, "finishing a shape keeps draw mode")
}

func TestActivePathSurvivesModeSwitches(t *testing.T) {
	s := NewSession()
	s, err := s.SetMode(ModeDraw)
	require.NoError(t, err)
	s = drawSquare(t, s, 0, 30)

	s, err = s.SetMode(ModeEdit)
	require.NoError(t, err)
	assert.Len(t, s.Active, 4, "in-progress path is retained across mode switches")

	s, err = s.SetMode(ModeDraw)
	require.NoError(t, err)
	s, err = s.FinishShape()
	require.NoError(t, err)
	assert.Len(t, s.Finished, 1)
}

func TestTotalAreaIncludesActivePath(t *testing.T) {
	s := NewSession()
	s, err := s.SetMode(ModeDraw)
	require.NoError(t, err)
	s = drawSquare(t, s, 0, 30)
	s, err = s.FinishShape()
	require.NoError(t, err)

	oneShape := s.TotalArea()
	assert.Greater(t, oneShape, int64(0))

	// A second, still-unfinished square contributes once it has 3+ vertices.
	s = drawSquare(t, s, 1, 30)
	assert.Equal(t, oneShape*2, s.TotalArea())
}

func TestTotalAreaMatchesPerShapeRounding(t *testing.T) {
	s := NewSession()
	s, err := s.SetMode(ModeDraw)
	require.NoError(t, err)

	s = drawSquare(t, s, 0, 30)
	s, err = s.FinishShape()
	require.NoError(t, err)
	s = drawSquare(t, s, 1, 50)
	s, err = s.FinishShape()
	require.NoError(t, err)

	want := geo.RingArea(s.Finished[0]) + geo.RingArea(s.Finished[1])
	assert.Equal(t, want, s.TotalArea())
}

func TestMovePointRequiresEditModeAndBounds(t *testing.T) {
	s := NewSession()
	s, err := s.SetMode(ModeDraw)
	require.NoError(t, err)
	s = drawSquare(t, s, 0, 30)
	s, err = s.FinishShape()
	require.NoError(t, err)

	_, err = s.MovePoint(0, 0, orb.Point{0, 0})
	assert.Error(t, err, "move outside edit mode rejected")

	s, err = s.SetMode(ModeEdit)
	require.NoError(t, err)

	_, err = s.MovePoint(5, 0, orb.Point{0, 0})
	assert.Error(t, err, "shape index out of range")
	_, err = s.MovePoint(0, 9, orb.Point{0, 0})
	assert.Error(t, err, "vertex index out of range")

	moved, err := s.MovePoint(0, 2, orb.Point{0.001, 0.001})
	require.NoError(t, err)
	assert.Equal(t, orb.Point{0.001, 0.001}, moved.Finished[0][2])
	assert.NotEqual(t, s.Finished[0][2], moved.Finished[0][2],
		"original session value is untouched")
}

func TestClearResetsEverything(t *testing.T) {
	s := NewSession()
	s, err := s.SetMode(ModeDraw)
	require.NoError(t, err)
	s = drawSquare(t, s, 0, 30)
	s, err = s.FinishShape()
	require.NoError(t, err)
	s = drawSquare(t, s, 1, 30)

	cleared := s.Clear()
	assert.Equal(t, ModeView, cleared.Mode)
	assert.Empty(t, cleared.Finished)
	assert.Empty(t, cleared.Active)
	assert.Equal(t, int64(0), cleared.TotalArea())
}

func TestTotalAreaIdempotent(t *testing.T) {
	s := NewSession()
	s, err := s.SetMode(ModeDraw)
	require.NoError(t, err)
	s = drawSquare(t, s, 0, 47.3)
	s, err = s.FinishShape()
	require.NoError(t, err)

	first := s.TotalArea()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, s.TotalArea())
	}
}

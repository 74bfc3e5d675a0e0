package capture_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailor-orders/internal/capture"
	"tailor-orders/internal/models"
)

type fakeRasterizer struct {
	renders int
}

func (r *fakeRasterizer) Render(paths []models.SketchPath) (string, error) {
	r.renders++
	return "data:image/png;base64,render", nil
}

func stroke(color string) models.SketchPath {
	return models.SketchPath{Color: color, Width: 2, Points: [][2]float64{{0, 0}, {10, 10}}}
}

func TestSketchpad_StrokeExportsSketch(t *testing.T) {
	var exported *models.SketchData
	pad := capture.NewSketchpad(&fakeRasterizer{}, func(s *models.SketchData) { exported = s })

	require.NoError(t, pad.EndStroke(stroke("#000")))

	require.NotNil(t, exported)
	assert.NotEmpty(t, exported.ImageData)
	require.Len(t, exported.Paths, 1)
	assert.Equal(t, "#000", exported.Paths[0].Color)
}

func TestSketchpad_UndoRedo(t *testing.T) {
	var exported *models.SketchData
	pad := capture.NewSketchpad(&fakeRasterizer{}, func(s *models.SketchData) { exported = s })

	require.NoError(t, pad.EndStroke(stroke("#000")))
	require.NoError(t, pad.EndStroke(stroke("#f00")))

	require.NoError(t, pad.Undo())
	require.NotNil(t, exported)
	assert.Len(t, exported.Paths, 1)

	require.NoError(t, pad.Redo())
	require.NotNil(t, exported)
	assert.Len(t, exported.Paths, 2)

	// New drawing discards the redo history
	require.NoError(t, pad.Undo())
	require.NoError(t, pad.EndStroke(stroke("#00f")))
	require.NoError(t, pad.Redo())
	assert.Len(t, exported.Paths, 2)
	assert.Equal(t, "#00f", exported.Paths[1].Color)
}

func TestSketchpad_UndoLastStrokeExportsNil(t *testing.T) {
	exported := &models.SketchData{ImageData: "sentinel"}
	pad := capture.NewSketchpad(&fakeRasterizer{}, func(s *models.SketchData) { exported = s })

	require.NoError(t, pad.EndStroke(stroke("#000")))
	require.NoError(t, pad.Undo())

	// An empty pad never leaves a stale raster behind
	assert.Nil(t, exported)
}

func TestSketchpad_ClearIsAtomic(t *testing.T) {
	exported := &models.SketchData{ImageData: "sentinel"}
	pad := capture.NewSketchpad(&fakeRasterizer{}, func(s *models.SketchData) { exported = s })

	require.NoError(t, pad.EndStroke(stroke("#000")))
	require.NoError(t, pad.EndStroke(stroke("#f00")))

	pad.Clear()

	assert.Nil(t, exported)
	assert.Empty(t, pad.Paths())

	// Redo after clear restores nothing
	require.NoError(t, pad.Redo())
	assert.Empty(t, pad.Paths())
}

func TestSketchpad_LoadSeedsStrokes(t *testing.T) {
	pad := capture.NewSketchpad(&fakeRasterizer{}, nil)
	pad.Load([]models.SketchPath{stroke("#000"), stroke("#f00")})

	assert.Len(t, pad.Paths(), 2)

	require.NoError(t, pad.Undo())
	assert.Len(t, pad.Paths(), 1)
}

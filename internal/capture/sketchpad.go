package capture

import (
	"sync"

	"tailor-orders/internal/errs"
	"tailor-orders/internal/models"
)

// Rasterizer renders stroke paths into a data-URL image for the flattened
// sketch representation.
type Rasterizer interface {
	Render(paths []models.SketchPath) (string, error)
}

// Sketchpad is the measurement drawing widget. Every stroke boundary and
// every undo/redo/clear re-exports the full sketch through onChange; an
// empty pad exports nil so a cleared sketch never leaves a stale raster
// behind.
type Sketchpad struct {
	mu         sync.Mutex
	rasterizer Rasterizer
	onChange   func(*models.SketchData)

	paths []models.SketchPath
	redo  []models.SketchPath
}

func NewSketchpad(rasterizer Rasterizer, onChange func(*models.SketchData)) *Sketchpad {
	return &Sketchpad{
		rasterizer: rasterizer,
		onChange:   onChange,
	}
}

// EndStroke commits a finished stroke. Any redoable strokes are discarded;
// redo history does not survive new drawing.
func (p *Sketchpad) EndStroke(stroke models.SketchPath) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	stroke.Points = append([][2]float64(nil), stroke.Points...)
	p.paths = append(p.paths, stroke)
	p.redo = nil
	return p.exportLocked()
}

// Undo moves the latest stroke onto the redo stack.
func (p *Sketchpad) Undo() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.paths) == 0 {
		return nil
	}
	last := p.paths[len(p.paths)-1]
	p.paths = p.paths[:len(p.paths)-1]
	p.redo = append(p.redo, last)
	return p.exportLocked()
}

// Redo restores the most recently undone stroke.
func (p *Sketchpad) Redo() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.redo) == 0 {
		return nil
	}
	last := p.redo[len(p.redo)-1]
	p.redo = p.redo[:len(p.redo)-1]
	p.paths = append(p.paths, last)
	return p.exportLocked()
}

// Clear drops all strokes and both histories in one step and exports nil.
// Paths and raster never diverge: there is no intermediate state where one
// is cleared and the other is not.
func (p *Sketchpad) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = nil
	p.redo = nil
	if p.onChange != nil {
		p.onChange(nil)
	}
}

// Load seeds the pad with previously saved strokes, e.g. when editing an
// order. Redo history starts empty.
func (p *Sketchpad) Load(paths []models.SketchPath) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = append([]models.SketchPath(nil), paths...)
	p.redo = nil
}

// Paths returns a copy of the committed strokes.
func (p *Sketchpad) Paths() []models.SketchPath {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.SketchPath(nil), p.paths...)
}

// exportLocked must be called with p.mu held. Zero strokes export as nil,
// never as a SketchData with an empty image.
func (p *Sketchpad) exportLocked() error {
	if p.onChange == nil {
		return nil
	}
	if len(p.paths) == 0 {
		p.onChange(nil)
		return nil
	}
	image, err := p.rasterizer.Render(p.paths)
	if err != nil {
		return errs.Wrap(errs.KindDevice, "failed to render sketch", err)
	}
	p.onChange(&models.SketchData{
		ImageData: image,
		Paths:     append([]models.SketchPath(nil), p.paths...),
	})
	return nil
}

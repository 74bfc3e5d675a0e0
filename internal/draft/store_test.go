package draft_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tailor-orders/internal/draft"
	"tailor-orders/internal/models"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestStore_PartialUpdatesMerge(t *testing.T) {
	s := draft.NewStore()

	s.SetCustomerData(draft.CustomerPatch{Name: strPtr("Amina"), Phone: strPtr("024")})
	s.SetCustomerData(draft.CustomerPatch{Address: strPtr("12 Ring Road")})

	snap := s.Snapshot()
	assert.Equal(t, "Amina", snap.Customer.Name)
	assert.Equal(t, "024", snap.Customer.Phone)
	assert.Equal(t, "12 Ring Road", snap.Customer.Address)

	s.SetMeasurements(draft.MeasurementsPatch{Waist: strPtr("30")})
	s.SetMeasurements(draft.MeasurementsPatch{Length: strPtr("42")})

	snap = s.Snapshot()
	assert.Equal(t, "30", snap.Measurements.Waist)
	assert.Equal(t, "42", snap.Measurements.Length)
}

func TestStore_SketchSetAndClear(t *testing.T) {
	s := draft.NewStore()

	sketch := &models.SketchData{ImageData: "data:...", Paths: []models.SketchPath{{Color: "#000"}}}
	s.SetMeasurements(draft.MeasurementsPatch{SketchSet: true, Sketch: sketch})
	require.NotNil(t, s.Snapshot().Measurements.Sketch)

	// Explicit nil clears; an untouched patch keeps the sketch
	s.SetMeasurements(draft.MeasurementsPatch{Waist: strPtr("30")})
	assert.NotNil(t, s.Snapshot().Measurements.Sketch)

	s.SetMeasurements(draft.MeasurementsPatch{SketchSet: true, Sketch: nil})
	assert.Nil(t, s.Snapshot().Measurements.Sketch)
}

func TestStore_DeliveryDateSetAndClear(t *testing.T) {
	s := draft.NewStore()

	delivery := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	s.SetCustomerData(draft.CustomerPatch{DeliveryDateSet: true, DeliveryDate: &delivery})
	require.NotNil(t, s.Snapshot().Customer.DeliveryDate)

	// An untouched patch keeps the date; explicit nil clears it
	s.SetCustomerData(draft.CustomerPatch{Name: strPtr("Amina")})
	assert.NotNil(t, s.Snapshot().Customer.DeliveryDate)

	s.SetCustomerData(draft.CustomerPatch{DeliveryDateSet: true, DeliveryDate: nil})
	assert.Nil(t, s.Snapshot().Customer.DeliveryDate)
}

func TestStore_AppendAndRemoveReferences(t *testing.T) {
	s := draft.NewStore()

	s.AppendCapturedImage(models.ImageRef{ID: "c1"})
	s.AppendCapturedImage(models.ImageRef{ID: "c2"})
	s.AppendUploadedFiles(models.ImageRef{ID: "u1"}, models.ImageRef{ID: "u2"})

	s.RemoveCapturedImage("c1")
	s.RemoveUploadedFile("u2")

	snap := s.Snapshot()
	require.Len(t, snap.Design.CapturedImages, 1)
	assert.Equal(t, "c2", snap.Design.CapturedImages[0].ID)
	require.Len(t, snap.Design.UploadedFiles, 1)
	assert.Equal(t, "u1", snap.Design.UploadedFiles[0].ID)
}

func TestStore_ResetIsIdempotent(t *testing.T) {
	s := draft.NewStore()
	s.SetCustomerData(draft.CustomerPatch{Name: strPtr("Amina"), TotalAmount: floatPtr(150)})
	s.AppendCapturedImage(models.ImageRef{ID: "c1"})

	s.Reset()
	s.Reset()

	snap := s.Snapshot()
	assert.Equal(t, models.EmptyCustomerData(), snap.Customer)
	assert.Empty(t, snap.Design.CapturedImages)
	assert.Empty(t, snap.Design.UploadedFiles)
	assert.Empty(t, s.EditingID())

	status, errMsg := s.SubmitState()
	assert.Equal(t, draft.SubmitIdle, status)
	assert.Empty(t, errMsg)
}

func TestHydrateForEdit_SketchRepresentations(t *testing.T) {
	s := draft.NewStore()

	// Full vector form wins
	s.HydrateForEdit(models.Order{
		ID:                "o1",
		MeasurementSketch: "raster-only",
		SketchData:        &models.SketchData{ImageData: "vector-raster", Paths: []models.SketchPath{{Color: "#000"}}},
	})
	sketch := s.Snapshot().Measurements.Sketch
	require.NotNil(t, sketch)
	assert.Equal(t, "vector-raster", sketch.ImageData)
	assert.Len(t, sketch.Paths, 1)

	// Flattened raster fallback hydrates with empty stroke history
	s.HydrateForEdit(models.Order{ID: "o2", MeasurementSketch: "raster-only"})
	sketch = s.Snapshot().Measurements.Sketch
	require.NotNil(t, sketch)
	assert.Equal(t, "raster-only", sketch.ImageData)
	assert.Empty(t, sketch.Paths)

	// No sketch at all
	s.HydrateForEdit(models.Order{ID: "o3"})
	assert.Nil(t, s.Snapshot().Measurements.Sketch)
}

func TestHydrateForEdit_MapsFieldsAndReferences(t *testing.T) {
	s := draft.NewStore()
	s.HydrateForEdit(models.Order{
		ID:           "o1",
		CustomerName: "Amina",
		PhoneNumber:  "024",
		Address:      "12 Ring Road",
		TotalAmount:  150,
		Measurements: models.MeasurementFields{Waist: "30"},
		DesignReference: []string{
			"https://img/1.jpg",
			"",
			"https://img/2.jpg",
		},
		SpecialNotes: "long sleeves",
	})

	snap := s.Snapshot()
	assert.Equal(t, "o1", s.EditingID())
	assert.Equal(t, "Amina", snap.Customer.Name)
	assert.Equal(t, 150.0, snap.Customer.TotalAmount)
	assert.Equal(t, "30", snap.Measurements.Waist)
	require.Len(t, snap.Design.UploadedFiles, 2)
	assert.Equal(t, "https://img/1.jpg", snap.Design.UploadedFiles[0].URL)
	assert.Equal(t, "long sleeves", snap.Design.DesignNotes)

	// Starting a new order discards the edit
	s.StartNew()
	assert.Empty(t, s.EditingID())
}

func TestStore_RejectsConcurrentSubmit(t *testing.T) {
	s := draft.NewStore()

	require.NoError(t, s.BeginSubmit())
	err := s.BeginSubmit()
	require.Error(t, err)

	s.FinishSubmit(nil)
	status, _ := s.SubmitState()
	assert.Equal(t, draft.SubmitSucceeded, status)

	// Settled lifecycle accepts a new attempt
	require.NoError(t, s.BeginSubmit())
}

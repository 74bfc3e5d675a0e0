// Package draft is the single source of truth for the order being authored
// or edited. At most one draft is live per session.
package draft

import (
	"sync"
	"time"

	"tailor-orders/internal/errs"
	"tailor-orders/internal/models"
)

// SubmitStatus is the submission lifecycle of the live draft:
// idle -> submitting -> succeeded|failed, returning to idle before any new
// attempt.
type SubmitStatus int

const (
	SubmitIdle SubmitStatus = iota
	Submitting
	SubmitSucceeded
	SubmitFailed
)

// CustomerPatch is a partial update; nil fields keep their prior value.
// DeliveryDateSet marks the delivery date as present so it can be cleared
// explicitly.
type CustomerPatch struct {
	Name            *string
	Phone           *string
	Address         *string
	TotalAmount     *float64
	DeliveryDateSet bool
	DeliveryDate    *time.Time
}

// MeasurementsPatch is a partial update. SketchSet marks the sketch field
// as present so it can be set to nil (cleared) explicitly.
type MeasurementsPatch struct {
	Length          *string
	Body            *string
	Waist           *string
	Hip             *string
	Leg             *string
	ArmLength       *string
	ArmWidth        *string
	BottomRound     *string
	AdditionalNotes *string
	SketchSet       bool
	Sketch          *models.SketchData
}

// DesignPatch is a partial update; nil slices keep their prior value.
type DesignPatch struct {
	CapturedImages *[]models.ImageRef
	UploadedFiles  *[]models.ImageRef
	DesignNotes    *string
}

// Store holds the draft. All mutations are synchronous shallow merges
// applied in call order.
type Store struct {
	mu           sync.Mutex
	customer     models.CustomerData
	measurements models.Measurements
	design       models.DesignReferenceSet
	editingID    string
	status       SubmitStatus
	lastError    string
}

func NewStore() *Store {
	return &Store{
		customer:     models.EmptyCustomerData(),
		measurements: models.EmptyMeasurements(),
		design:       models.EmptyDesignReferences(),
	}
}

func (s *Store) SetCustomerData(p CustomerPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Name != nil {
		s.customer.Name = *p.Name
	}
	if p.Phone != nil {
		s.customer.Phone = *p.Phone
	}
	if p.Address != nil {
		s.customer.Address = *p.Address
	}
	if p.TotalAmount != nil {
		s.customer.TotalAmount = *p.TotalAmount
	}
	if p.DeliveryDateSet {
		s.customer.DeliveryDate = p.DeliveryDate
	}
}

func (s *Store) SetMeasurements(p MeasurementsPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Length != nil {
		s.measurements.Length = *p.Length
	}
	if p.Body != nil {
		s.measurements.Body = *p.Body
	}
	if p.Waist != nil {
		s.measurements.Waist = *p.Waist
	}
	if p.Hip != nil {
		s.measurements.Hip = *p.Hip
	}
	if p.Leg != nil {
		s.measurements.Leg = *p.Leg
	}
	if p.ArmLength != nil {
		s.measurements.ArmLength = *p.ArmLength
	}
	if p.ArmWidth != nil {
		s.measurements.ArmWidth = *p.ArmWidth
	}
	if p.BottomRound != nil {
		s.measurements.BottomRound = *p.BottomRound
	}
	if p.AdditionalNotes != nil {
		s.measurements.AdditionalNotes = *p.AdditionalNotes
	}
	if p.SketchSet {
		s.measurements.Sketch = p.Sketch
	}
}

func (s *Store) SetDesignReferences(p DesignPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CapturedImages != nil {
		s.design.CapturedImages = append([]models.ImageRef(nil), (*p.CapturedImages)...)
	}
	if p.UploadedFiles != nil {
		s.design.UploadedFiles = append([]models.ImageRef(nil), (*p.UploadedFiles)...)
	}
	if p.DesignNotes != nil {
		s.design.DesignNotes = *p.DesignNotes
	}
}

// AppendCapturedImage appends in insertion order.
func (s *Store) AppendCapturedImage(ref models.ImageRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.design.CapturedImages = append(s.design.CapturedImages, ref)
}

func (s *Store) AppendUploadedFiles(refs ...models.ImageRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.design.UploadedFiles = append(s.design.UploadedFiles, refs...)
}

// RemoveCapturedImage filters by id; references are never mutated in place.
func (s *Store) RemoveCapturedImage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.design.CapturedImages = filterRefs(s.design.CapturedImages, id)
}

func (s *Store) RemoveUploadedFile(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.design.UploadedFiles = filterRefs(s.design.UploadedFiles, id)
}

func filterRefs(refs []models.ImageRef, id string) []models.ImageRef {
	out := make([]models.ImageRef, 0, len(refs))
	for _, ref := range refs {
		if ref.ID != id {
			out = append(out, ref)
		}
	}
	return out
}

// Reset restores all three sub-objects to their empty defaults and clears
// any in-flight submission status and error. Idempotent.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customer = models.EmptyCustomerData()
	s.measurements = models.EmptyMeasurements()
	s.design = models.EmptyDesignReferences()
	s.editingID = ""
	s.status = SubmitIdle
	s.lastError = ""
}

// StartNew begins a fresh order. Starting a new order mid-edit silently
// discards the edit draft.
func (s *Store) StartNew() {
	s.Reset()
}

// HydrateForEdit maps a persisted order back into draft shape, the reverse
// of the submission serialization. The mapping is total: any field absent
// on the source maps to its empty default.
func (s *Store) HydrateForEdit(order models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.customer = models.CustomerData{
		Name:         order.CustomerName,
		Phone:        order.PhoneNumber,
		Address:      order.Address,
		TotalAmount:  order.TotalAmount,
		DeliveryDate: copyTime(order.DeliveryDate),
	}

	s.measurements = models.Measurements{
		MeasurementFields: order.Measurements,
		AdditionalNotes:   "",
		Sketch:            hydrateSketch(order),
	}

	s.design = models.EmptyDesignReferences()
	for _, url := range order.DesignReference {
		if url == "" {
			continue
		}
		s.design.UploadedFiles = append(s.design.UploadedFiles, models.ImageRef{
			ID:           url,
			URL:          url,
			ThumbnailURL: url,
			Type:         models.RefUpload,
		})
	}
	s.design.DesignNotes = order.SpecialNotes

	s.editingID = order.ID
	s.status = SubmitIdle
	s.lastError = ""
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// hydrateSketch rebuilds sketch state from whichever representation the
// order carries: the full vector form wins, the flattened raster is the
// fallback, and a falsy raster means no sketch at all.
func hydrateSketch(order models.Order) *models.SketchData {
	if order.SketchData != nil && order.SketchData.ImageData != "" {
		sketch := *order.SketchData
		if sketch.Paths == nil {
			sketch.Paths = []models.SketchPath{}
		}
		return &sketch
	}
	if order.MeasurementSketch != "" {
		return &models.SketchData{
			ImageData: order.MeasurementSketch,
			Paths:     []models.SketchPath{},
		}
	}
	return nil
}

// EditingID returns the id of the order being edited, or "" for a new
// order draft.
func (s *Store) EditingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editingID
}

// Snapshot returns a copy of the draft for serialization.
func (s *Store) Snapshot() models.OrderDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	design := models.DesignReferenceSet{
		CapturedImages: append([]models.ImageRef(nil), s.design.CapturedImages...),
		UploadedFiles:  append([]models.ImageRef(nil), s.design.UploadedFiles...),
		DesignNotes:    s.design.DesignNotes,
	}
	measurements := s.measurements
	if measurements.Sketch != nil {
		sketch := *measurements.Sketch
		sketch.Paths = append([]models.SketchPath(nil), sketch.Paths...)
		measurements.Sketch = &sketch
	}
	customer := s.customer
	customer.DeliveryDate = copyTime(customer.DeliveryDate)
	return models.OrderDraft{
		Customer:     customer,
		Measurements: measurements,
		Design:       design,
	}
}

// BeginSubmit moves the lifecycle to submitting. A draft already mid-flight
// rejects the attempt: there are no queued concurrent submissions.
func (s *Store) BeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == Submitting {
		return errs.New(errs.KindValidation, "a submission is already in progress")
	}
	s.status = Submitting
	s.lastError = ""
	return nil
}

// FinishSubmit settles the lifecycle. The terminal states are transient:
// the next BeginSubmit passes through idle again.
func (s *Store) FinishSubmit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = SubmitFailed
		s.lastError = errs.MessageOf(err)
		return
	}
	s.status = SubmitSucceeded
}

func (s *Store) SubmitState() (SubmitStatus, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.lastError
}

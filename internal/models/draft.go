package models

import "time"

// CustomerData holds the first form step. Phone is the only required field;
// everything else may stay empty through submission.
type CustomerData struct {
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	Address      string     `json:"address"`
	TotalAmount  float64    `json:"totalAmount"`
	DeliveryDate *time.Time `json:"deliveryDate,omitempty"`
}

// MeasurementFields is the fixed set of named numeric-as-string measurement
// fields. Values are kept as strings because the form captures free-typed
// numbers and empty means "not taken".
type MeasurementFields struct {
	Length      string `json:"length"`
	Body        string `json:"body"`
	Waist       string `json:"waist"`
	Hip         string `json:"hip"`
	Leg         string `json:"leg"`
	ArmLength   string `json:"armLength"`
	ArmWidth    string `json:"armWidth"`
	BottomRound string `json:"bottomRound"`
}

// SketchPath is one vector stroke: the stroke history enables re-editing a
// sketch after hydration.
type SketchPath struct {
	Color  string       `json:"strokeColor"`
	Width  float64      `json:"strokeWidth"`
	Points [][2]float64 `json:"paths"`
}

// SketchData pairs the rendered raster snapshot with the vector stroke
// history. A sketch is either absent (nil pointer) or fully populated;
// partial state is never valid.
type SketchData struct {
	ImageData string       `json:"imageData"`
	Paths     []SketchPath `json:"paths"`
}

// Measurements is the second form step: the numeric fields plus free-text
// notes and the optional sketch.
type Measurements struct {
	MeasurementFields
	AdditionalNotes string
	Sketch          *SketchData
}

// RefType distinguishes how an image reference entered the order.
type RefType string

const (
	RefCamera RefType = "camera"
	RefUpload RefType = "upload"
)

// ImageRef is a normalized pointer to an uploaded image asset. References
// are immutable once created; removal is filtering by ID, never in-place
// mutation.
type ImageRef struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	CloudinaryID string    `json:"cloudinaryId"`
	Type         RefType   `json:"type"`
	Format       string    `json:"format"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Size         int64     `json:"size,omitempty"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// DesignReferenceSet holds the third form step. Ordering within each slice
// is insertion order.
type DesignReferenceSet struct {
	CapturedImages []ImageRef
	UploadedFiles  []ImageRef
	DesignNotes    string
}

// OrderDraft is the order being authored or edited, not yet persisted.
type OrderDraft struct {
	Customer     CustomerData
	Measurements Measurements
	Design       DesignReferenceSet
}

// EmptyCustomerData, EmptyMeasurements and EmptyDesignReferences are the
// documented empty defaults the draft store resets to.
func EmptyCustomerData() CustomerData { return CustomerData{} }

func EmptyMeasurements() Measurements { return Measurements{} }

func EmptyDesignReferences() DesignReferenceSet {
	return DesignReferenceSet{
		CapturedImages: []ImageRef{},
		UploadedFiles:  []ImageRef{},
	}
}

// ReferenceURLs flattens captured and uploaded references into URLs only,
// captured first, empty URLs filtered.
func (d DesignReferenceSet) ReferenceURLs() []string {
	urls := make([]string, 0, len(d.CapturedImages)+len(d.UploadedFiles))
	for _, ref := range d.CapturedImages {
		if ref.URL != "" {
			urls = append(urls, ref.URL)
		}
	}
	for _, ref := range d.UploadedFiles {
		if ref.URL != "" {
			urls = append(urls, ref.URL)
		}
	}
	return urls
}

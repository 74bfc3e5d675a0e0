package models

import "time"

// OrderPayload is the flattened wire shape for create (POST /api/orders)
// and update (PUT /api/orders/{id}).
type OrderPayload struct {
	CustomerName      string            `json:"customerName"`
	PhoneNumber       string            `json:"phoneNumber"`
	Address           string            `json:"address"`
	TotalAmount       float64           `json:"totalAmount"`
	DeliveryDate      *time.Time        `json:"deliveryDate,omitempty"`
	MeasurementSketch string            `json:"measurementSketch"`
	Measurements      MeasurementFields `json:"measurements"`
	SketchData        *SketchData       `json:"sketchData,omitempty"`
	DesignReference   []string          `json:"designReference"`
	SpecialNotes      string            `json:"specialNotes"`
}

// BuildOrderPayload serializes a draft into the wire shape: nested
// measurement and reference objects are flattened, design references become
// URLs only.
func BuildOrderPayload(d OrderDraft) OrderPayload {
	var sketchImage string
	if d.Measurements.Sketch != nil {
		sketchImage = d.Measurements.Sketch.ImageData
	}
	return OrderPayload{
		CustomerName:      d.Customer.Name,
		PhoneNumber:       d.Customer.Phone,
		Address:           d.Customer.Address,
		TotalAmount:       d.Customer.TotalAmount,
		DeliveryDate:      d.Customer.DeliveryDate,
		MeasurementSketch: sketchImage,
		Measurements:      d.Measurements.MeasurementFields,
		SketchData:        d.Measurements.Sketch,
		DesignReference:   d.Design.ReferenceURLs(),
		SpecialNotes:      d.Design.DesignNotes,
	}
}

type UpdateStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// ErrorResponse is the backend error body. Message is what clients surface;
// Error is a short machine tag.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

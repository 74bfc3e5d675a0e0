package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"tailor-orders/internal/models"
)

const orderColumns = `id, customer_name, phone_number, address, total_amount, status,
	measurement_sketch, measurements, sketch_data, design_reference, special_notes,
	delivery_date, created_at`

type Store struct {
	db *sql.DB
}

func NewStore(connectionString string) (*Store, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection, used by tests.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateOrder(orderID uuid.UUID, payload models.OrderPayload) (*models.Order, error) {
	measurementsJSON, _ := json.Marshal(payload.Measurements)
	sketchJSON := marshalNullable(payload.SketchData)
	referencesJSON, _ := json.Marshal(nonNil(payload.DesignReference))

	row := s.db.QueryRow(`
		INSERT INTO orders (id, customer_name, phone_number, address, total_amount, status,
			measurement_sketch, measurements, sketch_data, design_reference, special_notes, delivery_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+orderColumns+`
	`, orderID, payload.CustomerName, payload.PhoneNumber, payload.Address, payload.TotalAmount,
		models.StatusPending, payload.MeasurementSketch, measurementsJSON, sketchJSON,
		referencesJSON, payload.SpecialNotes, payload.DeliveryDate)

	return scanOrder(row)
}

func (s *Store) GetOrder(orderID uuid.UUID) (*models.Order, error) {
	row := s.db.QueryRow(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, orderID)

	return scanOrder(row)
}

func (s *Store) ListOrders() ([]models.Order, error) {
	rows, err := s.db.Query(`
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}

	return orders, rows.Err()
}

func (s *Store) UpdateOrder(orderID uuid.UUID, payload models.OrderPayload) (*models.Order, error) {
	measurementsJSON, _ := json.Marshal(payload.Measurements)
	sketchJSON := marshalNullable(payload.SketchData)
	referencesJSON, _ := json.Marshal(nonNil(payload.DesignReference))

	row := s.db.QueryRow(`
		UPDATE orders
		SET customer_name = $1, phone_number = $2, address = $3, total_amount = $4,
			measurement_sketch = $5, measurements = $6, sketch_data = $7,
			design_reference = $8, special_notes = $9, delivery_date = $10, updated_at = NOW()
		WHERE id = $11
		RETURNING `+orderColumns+`
	`, payload.CustomerName, payload.PhoneNumber, payload.Address, payload.TotalAmount,
		payload.MeasurementSketch, measurementsJSON, sketchJSON, referencesJSON,
		payload.SpecialNotes, payload.DeliveryDate, orderID)

	return scanOrder(row)
}

func (s *Store) UpdateOrderStatus(orderID uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	row := s.db.QueryRow(`
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+orderColumns+`
	`, status, orderID)

	return scanOrder(row)
}

func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		order        models.Order
		measurements []byte
		sketchData   []byte
		designRefs   []byte
		deliveryDate sql.NullTime
	)

	err := row.Scan(
		&order.ID, &order.CustomerName, &order.PhoneNumber, &order.Address,
		&order.TotalAmount, &order.Status, &order.MeasurementSketch,
		&measurements, &sketchData, &designRefs, &order.SpecialNotes,
		&deliveryDate, &order.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}

	if len(measurements) > 0 {
		if err := json.Unmarshal(measurements, &order.Measurements); err != nil {
			return nil, fmt.Errorf("failed to decode measurements: %w", err)
		}
	}
	if len(sketchData) > 0 {
		var sketch models.SketchData
		if err := json.Unmarshal(sketchData, &sketch); err != nil {
			return nil, fmt.Errorf("failed to decode sketch data: %w", err)
		}
		order.SketchData = &sketch
	}
	order.DesignReference = []string{}
	if len(designRefs) > 0 {
		if err := json.Unmarshal(designRefs, &order.DesignReference); err != nil {
			return nil, fmt.Errorf("failed to decode design references: %w", err)
		}
	}
	if deliveryDate.Valid {
		t := deliveryDate.Time
		order.DeliveryDate = &t
	}

	return &order, nil
}

// marshalNullable keeps an absent sketch as SQL NULL rather than the JSON
// string "null".
func marshalNullable(sketch *models.SketchData) interface{} {
	if sketch == nil {
		return nil
	}
	data, _ := json.Marshal(sketch)
	return data
}

func nonNil(refs []string) []string {
	if refs == nil {
		return []string{}
	}
	return refs
}

package orders

import (
	"context"

	"tailor-orders/internal/draft"
	"tailor-orders/internal/errs"
	"tailor-orders/internal/models"
)

// Pipeline wires the draft store, API client and order collection
// together: it validates and serializes the draft, performs create or
// update, and reconciles the result back into the collection.
type Pipeline struct {
	api        *Client
	drafts     *draft.Store
	collection *Store
}

func NewPipeline(api *Client, drafts *draft.Store, collection *Store) *Pipeline {
	return &Pipeline{api: api, drafts: drafts, collection: collection}
}

// Submit sends the live draft. A draft hydrated for edit goes out as an
// update against its order id; everything else is a create. On success the
// collection is reconciled and the draft reset.
func (p *Pipeline) Submit(ctx context.Context) (*models.Order, error) {
	if err := p.drafts.BeginSubmit(); err != nil {
		return nil, err
	}

	snapshot := p.drafts.Snapshot()
	editingID := p.drafts.EditingID()

	var (
		order *models.Order
		err   error
	)
	if editingID != "" {
		order, err = p.api.UpdateOrder(ctx, editingID, snapshot)
	} else {
		order, err = p.api.SubmitOrder(ctx, snapshot)
	}
	p.drafts.FinishSubmit(err)
	if err != nil {
		return nil, err
	}

	if editingID != "" {
		// An edit of an order that was never fetched still succeeds; the
		// collection just has nothing to patch.
		_ = p.collection.ApplyUpdate(*order)
	} else {
		p.collection.ApplyCreate(*order)
	}

	p.drafts.Reset()
	return order, nil
}

// FetchAll refreshes the collection from the backend, replacing it
// entirely.
func (p *Pipeline) FetchAll(ctx context.Context) error {
	p.collection.SetLoading()
	orders, err := p.api.FetchOrders(ctx)
	if err != nil {
		p.collection.SetFailed(errs.MessageOf(err))
		return err
	}
	p.collection.ReplaceAll(orders)
	return nil
}

// UpdateStatus validates the linear transition locally, sends the PATCH and
// patches only the matching order's status on success. Requests out of a
// terminal or unknown state are rejected before any network call.
func (p *Pipeline) UpdateStatus(ctx context.Context, orderID string, next models.OrderStatus) (*models.Order, error) {
	current, ok := p.collection.Get(orderID)
	if !ok {
		return nil, errs.New(errs.KindValidation, "order not found: "+orderID)
	}
	if current.Status == models.StatusCompleted {
		return nil, errs.New(errs.KindValidation, "order is already completed")
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, errs.New(errs.KindValidation, "invalid status transition: "+string(current.Status)+" -> "+string(next))
	}

	order, err := p.api.UpdateStatus(ctx, orderID, next)
	if err != nil {
		return nil, err
	}
	if err := p.collection.ApplyStatus(orderID, order.Status); err != nil {
		return nil, err
	}
	return order, nil
}

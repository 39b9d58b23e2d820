// Package vending implements the machine's place and buy actions.
package vending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/erazemk/vendart/internal/model"
	"github.com/erazemk/vendart/internal/receipt"
	"github.com/erazemk/vendart/internal/store"
)

var (
	// ErrNotPlaced is returned when buying an item not yet in the machine.
	ErrNotPlaced = errors.New("artwork must be placed in the vending machine first")
	// ErrAlreadySold is returned when buying an item that has been sold.
	ErrAlreadySold = errors.New("artwork already sold")
)

// Store is the part of the item store the machine works on.
type Store interface {
	Get(id string) (model.Item, bool)
	Patch(ctx context.Context, id string, p model.Patch) (model.Item, error)
}

// Machine places items into the vending machine and sells them.
type Machine struct {
	Store   Store
	Gateway PaymentGateway
	// Secret signs sale receipts.
	Secret string
	Now    func() time.Time

	flight singleflight.Group

	mu      sync.Mutex
	pending map[string]bool
}

// New returns a machine selling items from s through gw.
func New(s Store, gw PaymentGateway, secret string) *Machine {
	return &Machine{
		Store:   s,
		Gateway: gw,
		Secret:  secret,
	}
}

// Place marks the item as loaded into the machine. Placing an already placed
// item changes nothing.
func (m *Machine) Place(ctx context.Context, id string) (model.Item, error) {
	item, ok := m.Store.Get(id)
	if !ok {
		return model.Item{}, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if item.Placed {
		return item, nil
	}

	placed := true
	updated, err := m.Store.Patch(ctx, id, model.Patch{Placed: &placed})
	if err != nil {
		return updated, err
	}

	slog.Info("artwork placed", "id", id, "title", updated.Title)
	return updated, nil
}

// Buy checks that the item can be sold, charges the buyer and marks the item
// sold. A Buy for an item whose payment is still in flight joins that payment
// instead of starting another, so the sale is applied once.
func (m *Machine) Buy(ctx context.Context, id string) (*receipt.Receipt, error) {
	if _, err := m.check(id); err != nil {
		return nil, err
	}

	// The payment is not cancelled when the first caller goes away.
	payCtx := context.WithoutCancel(ctx)
	ch := m.flight.DoChan(id, func() (any, error) {
		return m.complete(payCtx, id)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*receipt.Receipt), nil
	}
}

// BuyAsync runs the precondition checks synchronously and completes the
// purchase in the background, reporting through done exactly once.
func (m *Machine) BuyAsync(id string, done func(*receipt.Receipt, error)) error {
	if _, err := m.check(id); err != nil {
		return err
	}
	go func() {
		done(m.Buy(context.Background(), id))
	}()
	return nil
}

// Pending reports whether a payment for the item is in flight.
func (m *Machine) Pending(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending[id]
}

func (m *Machine) check(id string) (model.Item, error) {
	item, ok := m.Store.Get(id)
	if !ok {
		return item, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	if item.Sold {
		return item, ErrAlreadySold
	}
	if !item.Placed {
		return item, ErrNotPlaced
	}
	return item, nil
}

func (m *Machine) complete(ctx context.Context, id string) (*receipt.Receipt, error) {
	// A previous flight may have sold the item since the caller checked.
	item, err := m.check(id)
	if err != nil {
		return nil, err
	}

	m.setPending(id, true)
	defer m.setPending(id, false)

	ref, err := m.Gateway.Charge(ctx, item)
	if err != nil {
		slog.Warn("payment failed", "id", id, "error", err)
		return nil, fmt.Errorf("charging for %s: %w", id, err)
	}

	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	soldAt := now().UTC().Truncate(time.Second)
	soldAtStr := soldAt.Format(model.TimeFormat)
	sold := true

	updated, err := m.Store.Patch(ctx, id, model.Patch{Sold: &sold, SoldAt: &soldAtStr})
	if errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		// The sale is applied in memory; only the write failed.
		slog.Error("sale not persisted", "id", id, "error", err)
	}

	r, err := receipt.Issue(m.Secret, id, updated.Title, updated.Price, ref, soldAt)
	if err != nil {
		return nil, err
	}

	slog.Info("artwork sold", "id", id, "price", updated.Price, "payment_ref", ref)
	return r, nil
}

func (m *Machine) setPending(id string, v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		m.pending = make(map[string]bool)
	}
	if v {
		m.pending[id] = true
	} else {
		delete(m.pending, id)
	}
}

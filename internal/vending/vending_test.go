package vending

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/vendart/internal/db"
	"github.com/erazemk/vendart/internal/model"
	"github.com/erazemk/vendart/internal/receipt"
	"github.com/erazemk/vendart/internal/store"
)

const testSecret = "test-secret"

type countingGateway struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
}

func (g *countingGateway) Charge(ctx context.Context, item model.Item) (string, error) {
	g.mu.Lock()
	g.calls++
	n := g.calls
	g.mu.Unlock()

	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.release != nil {
		<-g.release
	}
	return fmt.Sprintf("ref-%d", n), nil
}

func (g *countingGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func setup(t *testing.T, gw PaymentGateway) (*Machine, *store.Items) {
	t.Helper()
	items := store.NewItems(&store.SQLiteBackend{DB: db.NewTestDB(t)})
	ctx := context.Background()
	for _, id := range []string{"a1", "b1"} {
		if err := items.Append(ctx, model.Item{ID: id, Title: "Item " + id, Price: "₹700"}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return New(items, gw, testSecret), items
}

func TestPlaceIdempotent(t *testing.T) {
	m, items := setup(t, &countingGateway{})
	ctx := context.Background()

	first, err := m.Place(ctx, "a1")
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if !first.Placed || first.Status != model.ItemStatusReady {
		t.Errorf("expected placed/ready, got %+v", first)
	}
	afterOnce := items.List()

	if _, err := m.Place(ctx, "a1"); err != nil {
		t.Fatalf("second Place: %v", err)
	}
	if !reflect.DeepEqual(afterOnce, items.List()) {
		t.Error("placing twice changed state")
	}
}

func TestPlaceUnknown(t *testing.T) {
	m, _ := setup(t, &countingGateway{})
	if _, err := m.Place(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBuyBeforePlace(t *testing.T) {
	gw := &countingGateway{}
	m, items := setup(t, gw)
	before, _ := items.Get("b1")

	_, err := m.Buy(context.Background(), "b1")
	if !errors.Is(err, ErrNotPlaced) {
		t.Fatalf("expected ErrNotPlaced, got %v", err)
	}

	after, _ := items.Get("b1")
	if !reflect.DeepEqual(before, after) {
		t.Error("failed buy mutated the item")
	}
	if gw.Calls() != 0 {
		t.Errorf("gateway charged %d times", gw.Calls())
	}

	if err := m.BuyAsync("b1", func(*receipt.Receipt, error) { t.Error("callback ran") }); !errors.Is(err, ErrNotPlaced) {
		t.Errorf("BuyAsync: expected ErrNotPlaced, got %v", err)
	}
}

func TestBuy(t *testing.T) {
	gw := &countingGateway{}
	m, items := setup(t, gw)
	m.Now = func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC) }
	ctx := context.Background()

	m.Place(ctx, "a1")
	r, err := m.Buy(ctx, "a1")
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if r.ItemID != "a1" || r.Price != "₹700" || r.PaymentRef != "ref-1" {
		t.Errorf("unexpected receipt %+v", r)
	}
	if _, err := receipt.Verify(testSecret, r.Token); err != nil {
		t.Errorf("receipt does not verify: %v", err)
	}

	item, _ := items.Get("a1")
	if !item.Sold || item.Status != model.ItemStatusSold || item.SoldAt != "2026-10-15T09:30:00Z" {
		t.Errorf("unexpected item after buy: %+v", item)
	}
	unsold := items.Unsold()
	if len(unsold) != 1 || unsold[0].ID != "b1" {
		t.Errorf("expected unsold [b1], got %+v", unsold)
	}

	if _, err := m.Buy(ctx, "a1"); !errors.Is(err, ErrAlreadySold) {
		t.Errorf("expected ErrAlreadySold, got %v", err)
	}
	if gw.Calls() != 1 {
		t.Errorf("expected 1 charge, got %d", gw.Calls())
	}
}

func TestBuyWhilePending(t *testing.T) {
	gw := &countingGateway{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	m, items := setup(t, gw)
	ctx := context.Background()
	m.Place(ctx, "a1")

	type result struct {
		r   *receipt.Receipt
		err error
	}
	results := make(chan result, 2)
	buy := func() {
		r, err := m.Buy(ctx, "a1")
		results <- result{r, err}
	}

	go buy()
	<-gw.started
	if !m.Pending("a1") {
		t.Error("expected purchase to be pending")
	}
	go buy()
	time.Sleep(20 * time.Millisecond)
	close(gw.release)

	first, second := <-results, <-results
	if first.err != nil && second.err != nil {
		t.Fatalf("both buys failed: %v, %v", first.err, second.err)
	}
	for _, res := range []result{first, second} {
		if res.err != nil && !errors.Is(res.err, ErrAlreadySold) {
			t.Errorf("unexpected error %v", res.err)
		}
	}
	if first.err == nil && second.err == nil && first.r.Token != second.r.Token {
		t.Error("coalesced buys returned different receipts")
	}

	if gw.Calls() != 1 {
		t.Errorf("expected a single charge, got %d", gw.Calls())
	}
	if m.Pending("a1") {
		t.Error("purchase still pending after completion")
	}
	item, _ := items.Get("a1")
	if !item.Sold {
		t.Error("expected item sold")
	}
}

func TestBuyAsync(t *testing.T) {
	m, items := setup(t, &SimulatedGateway{Delay: 10 * time.Millisecond})
	m.Place(context.Background(), "a1")

	done := make(chan *receipt.Receipt, 1)
	err := m.BuyAsync("a1", func(r *receipt.Receipt, err error) {
		if err != nil {
			t.Errorf("async buy: %v", err)
		}
		done <- r
	})
	if err != nil {
		t.Fatalf("BuyAsync: %v", err)
	}

	select {
	case r := <-done:
		if r == nil || r.PaymentRef == "" {
			t.Errorf("unexpected receipt %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback not called")
	}

	item, _ := items.Get("a1")
	if !item.Sold {
		t.Error("expected item sold")
	}
}

func TestSimulatedGatewayCancel(t *testing.T) {
	gw := &SimulatedGateway{Delay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gw.Charge(ctx, model.Item{ID: "a1"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/erazemk/vendart/internal/db"
	"github.com/erazemk/vendart/internal/model"
)

func newTestItems(t *testing.T) (*Items, Backend) {
	t.Helper()
	backend := &SQLiteBackend{DB: db.NewTestDB(t)}
	return NewItems(backend), backend
}

func testItem(id string) model.Item {
	return model.Item{
		ID:      id,
		Title:   "Item " + id,
		Caption: "caption",
		Story:   "story",
		Translations: map[string]string{
			model.LangEnglish: "story",
			model.LangHindi:   "hi story",
			model.LangTelugu:  "te story",
		},
		Price:     "₹999",
		QR:        "https://vendart.demo/artwork/" + id,
		CreatedAt: "2026-10-15T10:00:00Z",
	}
}

func TestAppendNewestFirst(t *testing.T) {
	items, _ := newTestItems(t)
	ctx := context.Background()

	for _, id := range []string{"a1", "a2", "a3"} {
		if err := items.Append(ctx, testItem(id)); err != nil {
			t.Fatalf("Append(%s): %v", id, err)
		}
		if got := items.List()[0].ID; got != id {
			t.Errorf("expected %s first after append, got %s", id, got)
		}
	}

	var ids []string
	for _, it := range items.List() {
		ids = append(ids, it.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a3", "a2", "a1"}) {
		t.Errorf("unexpected order %v", ids)
	}
}

func TestAppendRejectsDuplicateID(t *testing.T) {
	items, _ := newTestItems(t)
	ctx := context.Background()

	if err := items.Append(ctx, testItem("a1")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	err := items.Append(ctx, testItem("a1"))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if n := len(items.List()); n != 1 {
		t.Errorf("expected 1 item, got %d", n)
	}
}

func TestAppendRejectsMalformedID(t *testing.T) {
	items, _ := newTestItems(t)
	for _, id := range []string{"", "has space", "slash/id"} {
		if err := items.Append(context.Background(), testItem(id)); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Append(%q): expected ErrInvalidID, got %v", id, err)
		}
	}
}

func TestAppendDerivesStatus(t *testing.T) {
	items, _ := newTestItems(t)
	it := testItem("a1")
	it.Status = model.ItemStatusSold

	items.Append(context.Background(), it)
	got, _ := items.Get("a1")
	if got.Status != model.ItemStatusDraft {
		t.Errorf("expected draft, got %q", got.Status)
	}
}

func TestPatchUnknownID(t *testing.T) {
	items, _ := newTestItems(t)
	placed := true
	_, err := items.Patch(context.Background(), "missing", model.Patch{Placed: &placed})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPatchSoldLeavesUnsoldView(t *testing.T) {
	items, _ := newTestItems(t)
	ctx := context.Background()
	items.Append(ctx, testItem("a1"))
	items.Append(ctx, testItem("b1"))

	sold := true
	updated, err := items.Patch(ctx, "a1", model.Patch{Sold: &sold})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if updated.Status != model.ItemStatusSold || !updated.Placed {
		t.Errorf("expected sold and placed, got status=%q placed=%v", updated.Status, updated.Placed)
	}

	for _, it := range items.Unsold() {
		if it.ID == "a1" {
			t.Fatal("sold item still in unsold view")
		}
	}
	if n := len(items.Unsold()); n != 1 {
		t.Errorf("expected 1 unsold item, got %d", n)
	}
}

func TestSaleIsFinal(t *testing.T) {
	items, backend := newTestItems(t)
	ctx := context.Background()
	items.Append(ctx, testItem("a1"))

	placed, sold, unsold := true, true, false
	soldAt := "2026-01-01T00:00:00Z"
	items.Patch(ctx, "a1", model.Patch{Placed: &placed})
	items.Patch(ctx, "a1", model.Patch{Sold: &sold, SoldAt: &soldAt})

	got, err := items.Patch(ctx, "a1", model.Patch{Sold: &unsold})
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if !got.Sold || got.Status != model.ItemStatusSold || got.SoldAt != soldAt {
		t.Errorf("sale was undone: sold=%v status=%q soldAt=%q", got.Sold, got.Status, got.SoldAt)
	}
	if n := len(items.Unsold()); n != 0 {
		t.Errorf("expected sold item to stay out of the unsold view, got %d unsold", n)
	}

	reloaded := LoadItems(ctx, backend)
	if it, _ := reloaded.Get("a1"); !it.Sold {
		t.Error("expected persisted item to stay sold")
	}
}

func TestRoundTrip(t *testing.T) {
	items, backend := newTestItems(t)
	ctx := context.Background()

	items.Append(ctx, testItem("a1"))
	withImage := testItem("a2")
	withImage.ImageDataURL = "data:image/jpeg;base64,AAAA"
	items.Append(ctx, withImage)

	placed := true
	items.Patch(ctx, "a1", model.Patch{Placed: &placed})
	sold := true
	soldAt := "2026-10-15T11:00:00Z"
	items.Patch(ctx, "a1", model.Patch{Sold: &sold, SoldAt: &soldAt})

	reloaded := LoadItems(ctx, backend)
	if !reflect.DeepEqual(items.List(), reloaded.List()) {
		t.Errorf("reloaded items differ:\n got  %+v\n want %+v", reloaded.List(), items.List())
	}
}

func TestLoadMalformedData(t *testing.T) {
	backend := &SQLiteBackend{DB: db.NewTestDB(t)}
	ctx := context.Background()

	if err := backend.Put(ctx, ItemsKey, []byte("{not json")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	items := LoadItems(ctx, backend)
	if n := len(items.List()); n != 0 {
		t.Errorf("expected empty store, got %d items", n)
	}
}

func TestLoadMissingData(t *testing.T) {
	backend := &SQLiteBackend{DB: db.NewTestDB(t)}
	items := LoadItems(context.Background(), backend)
	if n := len(items.List()); n != 0 {
		t.Errorf("expected empty store, got %d items", n)
	}
}

func TestLoadSkipsDuplicateIDs(t *testing.T) {
	backend := &SQLiteBackend{DB: db.NewTestDB(t)}
	ctx := context.Background()
	backend.Put(ctx, ItemsKey, []byte(`[{"id":"a1","title":"first"},{"id":"a1","title":"second"},{"id":""}]`))

	items := LoadItems(ctx, backend)
	list := items.List()
	if len(list) != 1 || list[0].Title != "first" {
		t.Errorf("expected only the first a1, got %+v", list)
	}
}

func TestSubscribeReceivesUnsoldView(t *testing.T) {
	items, _ := newTestItems(t)
	ctx := context.Background()

	var last []model.Item
	calls := 0
	items.Subscribe(func(unsold []model.Item) {
		calls++
		last = unsold
	})

	items.Append(ctx, testItem("a1"))
	items.Append(ctx, testItem("b1"))
	sold := true
	items.Patch(ctx, "b1", model.Patch{Sold: &sold})

	if calls != 3 {
		t.Errorf("expected 3 notifications, got %d", calls)
	}
	if len(last) != 1 || last[0].ID != "a1" {
		t.Errorf("expected unsold view [a1], got %+v", last)
	}
}

type failingBackend struct{}

func (failingBackend) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (failingBackend) Put(context.Context, string, []byte) error {
	return errors.New("disk on fire")
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	items := LoadItems(ctx, failingBackend{})

	if err := items.Append(ctx, testItem("a1")); err == nil {
		t.Fatal("expected persist error")
	}
	if !items.Has("a1") {
		t.Error("expected item to stay in memory after failed write")
	}
}

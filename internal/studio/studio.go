// Package studio turns an artist's upload into a gallery-ready item.
package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/vendart/internal/model"
)

// DefaultDelay is how long the simulated story generation takes.
const DefaultDelay = 2 * time.Second

// Item defaults.
const (
	UntitledTitle = "Untitled Masterpiece"
	DefaultArtist = "Local Artisan"
	QRBaseURL     = "https://vendart.demo/artwork/"
	MinPrice      = 500
	MaxPrice      = 2499
)

// maxIDAttempts bounds the search for an id not already in the store.
const maxIDAttempts = 100

// ErrEmptyInput is returned when neither an image nor a caption was given.
var ErrEmptyInput = errors.New("an image or a caption is required")

// Store is the part of the item store the studio writes to.
type Store interface {
	Has(id string) bool
	Append(ctx context.Context, item model.Item) error
}

// Input is what the artist submits.
type Input struct {
	ImageDataURL string
	Title        string
	Caption      string
}

// Validate checks that the input can produce an item.
func (in Input) Validate() error {
	if in.ImageDataURL == "" && strings.TrimSpace(in.Caption) == "" {
		return ErrEmptyInput
	}
	return nil
}

// Studio creates items and appends them to the store.
type Studio struct {
	Store Store
	IDs   *IDGenerator
	Delay time.Duration
	Now   func() time.Time
	// Price returns the price in rupees; defaults to a random demo price.
	Price func() int
}

// New returns a studio with the default delay writing to s.
func New(s Store) *Studio {
	return &Studio{
		Store: s,
		IDs:   &IDGenerator{},
		Delay: DefaultDelay,
	}
}

// Create waits out the simulated processing delay, builds the item and
// appends it to the store. Only the calling goroutine is blocked.
func (s *Studio) Create(ctx context.Context, in Input) (*model.Item, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	id, err := s.nextID()
	if err != nil {
		return nil, err
	}

	item := s.build(id, in)
	if err := s.Store.Append(ctx, item); err != nil {
		return nil, fmt.Errorf("adding item: %w", err)
	}

	slog.Info("artwork created", "id", item.ID, "title", item.Title, "price", item.Price)
	return &item, nil
}

func (s *Studio) nextID() (string, error) {
	for range maxIDAttempts {
		id := s.IDs.Next()
		if !s.Store.Has(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("no free item id after %d attempts", maxIDAttempts)
}

func (s *Studio) build(id string, in Input) model.Item {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	price := randomPrice
	if s.Price != nil {
		price = s.Price
	}

	story := Enhance(in.Caption)
	return model.Item{
		ID:           id,
		Title:        Title(in.Title, in.Caption),
		Caption:      in.Caption,
		ImageDataURL: in.ImageDataURL,
		Story:        story,
		Artist:       DefaultArtist,
		Translations: Translate(story),
		Price:        FormatPrice(price()),
		QR:           QRBaseURL + id,
		Status:       model.ItemStatusDraft,
		CreatedAt:    now().UTC().Format(model.TimeFormat),
	}
}

// FormatPrice renders a rupee amount as a price label.
func FormatPrice(rupees int) string {
	return "₹" + strconv.Itoa(rupees)
}

func randomPrice() int {
	return MinPrice + rand.IntN(MaxPrice-MinPrice+1)
}

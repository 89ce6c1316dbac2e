// Package service holds the cart store, the single owner of the cart line
// items.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/cart/domain"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/events"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/money"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/storage"
	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

type Deps struct {
	Storage   storage.Backend
	Scheduler storage.Scheduler
	Logger    *slog.Logger
}

// CartStore keeps at most one line per product id and never lets a quantity
// drop below 1. It does not check who is calling; routes gate that.
type CartStore struct {
	list     *storage.PersistentList[domain.LineItem]
	notifier *events.Notifier[events.Change]
	log      *slog.Logger

	mu    sync.Mutex
	items []domain.LineItem

	// commitMu is taken before mu is released so persistence and listeners
	// see commits in the order they were applied.
	commitMu sync.Mutex
}

func NewCartStore(ctx context.Context, deps Deps) *CartStore {
	log := logger.OrDefault(deps.Logger).With("store", events.StoreCart)

	s := &CartStore{
		list:     storage.NewPersistentList(storage.NewCollection[domain.LineItem](deps.Storage, storage.KeyCart, log), deps.Scheduler),
		notifier: events.NewNotifier[events.Change](log),
		log:      log,
	}
	s.items = s.hydrate(s.list.Load(ctx))
	s.log.Info("cart hydrated", slog.Int("lines", len(s.items)))
	return s
}

func (s *CartStore) Subscribe(fn func(events.Change)) func() {
	return s.notifier.Subscribe(fn)
}

// AddItem merges into an existing line for the same id or appends a new
// snapshot. Quantities below 1 are treated as 1; a line never exceeds
// domain.MaxQuantity.
func (s *CartStore) AddItem(p domain.Snapshot, quantity int) (domain.LineItem, error) {
	if p.ID <= 0 {
		return domain.LineItem{}, fmt.Errorf("%w: id %d", domain.ErrInvalidProduct, p.ID)
	}
	quantity = domain.ClampQuantity(quantity)

	s.mu.Lock()
	var line domain.LineItem
	if i := s.indexOf(p.ID); i >= 0 {
		s.items[i].Quantity = domain.AddQuantity(s.items[i].Quantity, quantity)
		line = s.items[i]
	} else {
		line = domain.LineItem{
			ID:       p.ID,
			Title:    p.Title,
			Price:    p.Price,
			Quantity: quantity,
			Image:    p.Image,
		}
		s.items = append(s.items, line)
	}
	s.commitLocked(events.OpAdd, p.ID)
	return line, nil
}

func (s *CartStore) Increment(id int) bool {
	return s.adjust(id, events.OpIncrement, func(q int) int { return domain.AddQuantity(q, 1) })
}

// Decrement floors at 1; removal only happens through Remove.
func (s *CartStore) Decrement(id int) bool {
	return s.adjust(id, events.OpDecrement, func(q int) int {
		if q <= 1 {
			return 1
		}
		return q - 1
	})
}

func (s *CartStore) adjust(id int, op string, next func(int) int) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.items[i].Quantity = next(s.items[i].Quantity)
	s.commitLocked(op, id)
	return true
}

// Remove reports whether a line was removed. An absent id is not an error.
func (s *CartStore) Remove(id int) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.commitLocked(events.OpRemove, id)
	return true
}

func (s *CartStore) Clear() {
	s.mu.Lock()
	s.items = nil
	s.commitLocked(events.OpClear, 0)
}

func (s *CartStore) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Count is the number of units, not lines.
func (s *CartStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Total is computed on every call.
func (s *CartStore) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (s *CartStore) Summary() domain.Summary {
	s.mu.Lock()
	items := cloneItems(s.items)
	s.mu.Unlock()

	sum := domain.Summary{Items: items}
	total := decimal.Zero
	for _, it := range items {
		sum.Count += it.Quantity
		total = total.Add(it.Subtotal())
	}
	sum.Total = money.New(total)
	return sum
}

// commitLocked must be called with s.mu held and releases it. Listeners may
// read the store but must not mutate it.
func (s *CartStore) commitLocked(op string, id int) {
	snapshot := cloneItems(s.items)
	s.commitMu.Lock()
	s.mu.Unlock()
	defer s.commitMu.Unlock()

	s.list.Enqueue(snapshot)
	s.notifier.Publish(events.NewChange(events.StoreCart, op, id))
}

// hydrate repairs stored lines: unusable ids are dropped, quantities are
// raised to 1 and duplicate ids are merged into the first line.
func (s *CartStore) hydrate(stored []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(stored))
	pos := make(map[int]int, len(stored))
	for _, it := range stored {
		if it.ID <= 0 {
			s.log.Warn("dropping stored cart line without id")
			continue
		}
		it.Quantity = domain.ClampQuantity(it.Quantity)
		if i, ok := pos[it.ID]; ok {
			out[i].Quantity = domain.AddQuantity(out[i].Quantity, it.Quantity)
			continue
		}
		pos[it.ID] = len(out)
		out = append(out, it)
	}
	return out
}

func (s *CartStore) indexOf(id int) int {
	for i, it := range s.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func cloneItems(in []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(in))
	copy(out, in)
	return out
}

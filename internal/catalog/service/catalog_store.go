// Package service holds the catalog store: the single owner of the product
// collection, reconciling remote CRUD results into local state.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/domain"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/events"
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/storage"
	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// Remote is the products API as seen by the store.
type Remote interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int) (*domain.Product, error)
	Create(ctx context.Context, d domain.Draft) (*domain.Product, error)
	Update(ctx context.Context, id int, d domain.Draft) (*domain.Product, error)
	Delete(ctx context.Context, id int) error
}

type Deps struct {
	Remote    Remote
	Storage   storage.Backend
	Scheduler storage.Scheduler
	Logger    *slog.Logger
}

// CatalogStore owns the product collection. Remote calls run without holding
// the lock; each response is applied on its own when it arrives, so for two
// overlapping updates of one id the later response wins.
type CatalogStore struct {
	remote   Remote
	list     *storage.PersistentList[domain.Product]
	notifier *events.Notifier[events.Change]
	log      *slog.Logger
	deletes  singleflight.Group

	mu       sync.Mutex
	products []domain.Product
	loading  bool
	lastErr  string

	// commitMu is taken before mu is released so persistence and listeners
	// see commits in the order they were applied.
	commitMu sync.Mutex
}

// NewCatalogStore hydrates the store from persisted storage. Stored records
// that break the schema are dropped.
func NewCatalogStore(ctx context.Context, deps Deps) *CatalogStore {
	log := logger.OrDefault(deps.Logger).With("store", events.StoreCatalog)

	s := &CatalogStore{
		remote:   deps.Remote,
		list:     storage.NewPersistentList(storage.NewCollection[domain.Product](deps.Storage, storage.KeyCatalog, log), deps.Scheduler),
		notifier: events.NewNotifier[events.Change](log),
		log:      log,
	}
	s.products = s.sanitize(s.list.Load(ctx), "storage")
	s.log.Info("catalog hydrated", slog.Int("products", len(s.products)))
	return s
}

func (s *CatalogStore) Subscribe(fn func(events.Change)) func() {
	return s.notifier.Subscribe(fn)
}

func (s *CatalogStore) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.State{
		Products: cloneProducts(s.products),
		Loading:  s.loading,
		Error:    s.lastErr,
	}
}

func (s *CatalogStore) Products() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProducts(s.products)
}

func (s *CatalogStore) Get(id int) (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.products[i], true
	}
	return domain.Product{}, false
}

// Search matches the query against title and category, ignoring case. A blank
// query returns every product.
func (s *CatalogStore) Search(query string) []domain.Product {
	q := strings.ToLower(strings.TrimSpace(query))
	products := s.Products()
	if q == "" {
		return products
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p)
		}
	}
	return out
}

// Categories lists distinct categories in catalog order.
func (s *CatalogStore) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]bool{}
	var out []string
	for _, p := range s.products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, p.Category)
	}
	return out
}

// LoadCatalog fetches the remote collection only when the local cache is
// empty. A cancelled load leaves state untouched and records no error.
func (s *CatalogStore) LoadCatalog(ctx context.Context) error {
	s.mu.Lock()
	if len(s.products) > 0 {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	return s.fetchAll(ctx)
}

// ResetToRemote drops the local cache and every local edit, then re-fetches.
func (s *CatalogStore) ResetToRemote(ctx context.Context) error {
	s.mu.Lock()
	s.products = nil
	s.lastErr = ""
	s.commitMu.Lock()
	s.mu.Unlock()

	s.list.Discard()
	s.notifier.Publish(events.NewChange(events.StoreCatalog, events.OpReset, 0))
	s.commitMu.Unlock()
	s.log.Info("catalog cache discarded")

	return s.fetchAll(ctx)
}

func (s *CatalogStore) fetchAll(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.lastErr = ""
	s.commitLocked(events.OpStatus, 0, false)

	fetched, err := s.remote.List(ctx)
	if err != nil {
		s.mu.Lock()
		s.loading = false
		if !errors.Is(err, context.Canceled) {
			s.lastErr = err.Error()
		}
		s.commitLocked(events.OpStatus, 0, false)

		if errors.Is(err, context.Canceled) {
			s.log.Info("catalog load cancelled")
		} else {
			s.log.Error("catalog load failed", slog.Any("err", err))
		}
		return fmt.Errorf("load catalog: %w", err)
	}

	products := s.sanitize(fetched, "remote")

	s.mu.Lock()
	s.products = products
	s.loading = false
	s.commitLocked(events.OpLoad, 0, true)
	s.log.Info("catalog loaded", slog.Int("products", len(products)))
	return nil
}

// FetchProduct asks the remote API for one product. It never mutates state.
func (s *CatalogStore) FetchProduct(ctx context.Context, id int) (*domain.Product, error) {
	p, err := s.remote.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Malformed() {
		return nil, fmt.Errorf("fetch product %d: %w", id, domain.ErrMalformedResponse)
	}
	return p, nil
}

// Create validates the draft, asks the remote API to create it and prepends
// the echoed record. Nothing changes locally unless the remote call succeeds.
func (s *CatalogStore) Create(ctx context.Context, draft domain.Draft) (domain.Result, error) {
	d := draft.Normalize()
	if err := d.Validate(); err != nil {
		return failed("please fix the errors in the form"), err
	}

	created, err := s.remote.Create(ctx, d)
	if err != nil {
		s.log.Warn("remote create failed", slog.Any("err", err))
		return failed(err.Error()), err
	}
	if created.Title == "" || !created.Price.Valid() || created.Price.Decimal().IsNegative() {
		err := fmt.Errorf("create product: %w", domain.ErrMalformedResponse)
		return failed(err.Error()), err
	}

	p := *created
	s.mu.Lock()
	if p.ID <= 0 || s.indexOf(p.ID) >= 0 {
		remoteID := p.ID
		p.ID = s.maxID() + 1
		s.log.Info("assigned local product id", slog.Int("remote_id", remoteID), slog.Int("id", p.ID))
	}
	s.products = append([]domain.Product{p}, s.products...)
	s.commitLocked(events.OpCreate, p.ID, true)
	return domain.Result{Success: true, Message: "product added successfully", Product: &p}, nil
}

// Update validates the draft and replaces the local record with the echoed
// one. An id that is not in the local catalog leaves the collection as is.
func (s *CatalogStore) Update(ctx context.Context, id int, draft domain.Draft) (domain.Result, error) {
	d := draft.Normalize()
	if err := d.Validate(); err != nil {
		return failed("please fix the errors in the form"), err
	}

	updated, err := s.remote.Update(ctx, id, d)
	if err != nil {
		s.log.Warn("remote update failed", slog.Int("id", id), slog.Any("err", err))
		return failed(err.Error()), err
	}

	p := *updated
	p.ID = id
	if p.Malformed() {
		err := fmt.Errorf("update product %d: %w", id, domain.ErrMalformedResponse)
		return failed(err.Error()), err
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.products[i] = p
		s.commitLocked(events.OpUpdate, id, true)
	} else {
		s.mu.Unlock()
		s.log.Warn("updated product is not in the local catalog", slog.Int("id", id))
	}
	return domain.Result{Success: true, Message: "product updated successfully", Product: &p}, nil
}

// Delete removes a product remotely, then locally. Deleting an id that is not
// in the catalog succeeds without a remote call, and concurrent deletes of
// the same id share one remote call. The shared call is detached from any
// single caller: a caller that gives up gets its ctx error while the delete
// still completes for the others.
func (s *CatalogStore) Delete(ctx context.Context, id int) (domain.Result, error) {
	ok := domain.Result{Success: true, Message: "product deleted successfully"}

	if _, exists := s.Get(id); !exists {
		return ok, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := s.deletes.DoChan(strconv.Itoa(id), func() (interface{}, error) {
		if err := s.remote.Delete(shared, id); err != nil {
			return nil, err
		}
		s.removeLocal(id)
		return nil, nil
	})

	select {
	case <-ctx.Done():
		return failed(ctx.Err().Error()), ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			s.log.Warn("remote delete failed", slog.Int("id", id), slog.Any("err", res.Err))
			return failed(res.Err.Error()), res.Err
		}
	}
	return ok, nil
}

func (s *CatalogStore) removeLocal(id int) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.products = append(s.products[:i:i], s.products[i+1:]...)
	s.commitLocked(events.OpDelete, id, true)
}

// commitLocked must be called with s.mu held and releases it. persist
// schedules a save of the current products. Listeners may read the store but
// must not mutate it.
func (s *CatalogStore) commitLocked(op string, id int, persist bool) {
	var snapshot []domain.Product
	if persist {
		snapshot = cloneProducts(s.products)
	}
	s.commitMu.Lock()
	s.mu.Unlock()
	defer s.commitMu.Unlock()

	if persist {
		s.list.Enqueue(snapshot)
	}
	s.notifier.Publish(events.NewChange(events.StoreCatalog, op, id))
}

// sanitize drops malformed records and keeps the first of any duplicate id.
func (s *CatalogStore) sanitize(in []domain.Product, source string) []domain.Product {
	out := make([]domain.Product, 0, len(in))
	seen := make(map[int]bool, len(in))
	for _, p := range in {
		if p.Malformed() {
			s.log.Warn("dropping malformed product", slog.String("source", source), slog.Int("id", p.ID))
			continue
		}
		if seen[p.ID] {
			s.log.Warn("dropping duplicate product", slog.String("source", source), slog.Int("id", p.ID))
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

func (s *CatalogStore) indexOf(id int) int {
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *CatalogStore) maxID() int {
	max := 0
	for _, p := range s.products {
		if p.ID > max {
			max = p.ID
		}
	}
	return max
}

func failed(msg string) domain.Result {
	return domain.Result{Success: false, Message: msg}
}

func cloneProducts(in []domain.Product) []domain.Product {
	out := make([]domain.Product, len(in))
	copy(out, in)
	return out
}

// Package reference loads the lookup data shown next to ticket forms and report
// filters: waste codes, operators, sectors and institutions.
package reference

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"waste-console/internal/auth"
	"waste-console/internal/models"
)

type Store interface {
	ListWasteCodes(ctx context.Context, token string) ([]models.WasteCode, error)
	ListOperators(ctx context.Context, token string) ([]models.Institution, error)
	ListSectors(ctx context.Context, token string) ([]models.Sector, error)
	ListInstitutions(ctx context.Context, token string) ([]models.Institution, error)
}

type Data struct {
	WasteCodes   []models.WasteCode   `json:"waste_codes"`
	Operators    []models.Institution `json:"operators"`
	Sectors      []models.Sector      `json:"sectors"`
	Institutions []models.Institution `json:"institutions"`
}

const DefaultTTL = 5 * time.Minute

// Loader caches the last complete load for ttl. Reference data is the same for every
// actor, so one cached copy serves all sessions.
type Loader struct {
	store Store
	ttl   time.Duration
	log   *zap.Logger
	now   func() time.Time

	mu       sync.Mutex
	cached   *Data
	loadedAt time.Time
}

func NewLoader(store Store, ttl time.Duration, log *zap.Logger) *Loader {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Loader{store: store, ttl: ttl, log: log.Named("reference"), now: time.Now}
}

// Load returns cached data when fresh, otherwise fetches all four lists in parallel.
// A failure of any list fails the load and leaves the previous cache in place.
func (l *Loader) Load(ctx context.Context, token string) (*Data, error) {
	l.mu.Lock()
	if l.cached != nil && l.now().Sub(l.loadedAt) < l.ttl {
		d := l.cached
		l.mu.Unlock()
		return d, nil
	}
	l.mu.Unlock()

	var d Data
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.WasteCodes, err = l.store.ListWasteCodes(gctx, token)
		return err
	})
	g.Go(func() (err error) {
		d.Operators, err = l.store.ListOperators(gctx, token)
		return err
	})
	g.Go(func() (err error) {
		d.Sectors, err = l.store.ListSectors(gctx, token)
		return err
	})
	g.Go(func() (err error) {
		d.Institutions, err = l.store.ListInstitutions(gctx, token)
		return err
	})
	if err := g.Wait(); err != nil {
		l.log.Warn("reference data load failed", zap.Error(err))
		return nil, err
	}

	l.mu.Lock()
	l.cached, l.loadedAt = &d, l.now()
	l.mu.Unlock()
	return &d, nil
}

// Sectors is Load narrowed to the sector list.
func (l *Loader) Sectors(ctx context.Context, token string) ([]models.Sector, error) {
	d, err := l.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	return d.Sectors, nil
}

// Invalidate drops the cache; the next Load goes to the store.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	l.cached = nil
	l.mu.Unlock()
}

// GET /api/reference
func Handler(l *Loader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := l.Load(c.UserContext(), auth.StoreToken(c))
		if err != nil {
			return err
		}
		return c.JSON(d)
	}
}

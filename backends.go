package dictionary

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jacoelho/dictionary/internal/notify"
	"github.com/jacoelho/dictionary/internal/store"
	"github.com/jacoelho/dictionary/internal/telemetry"
)

type (
	// Store persists model documents per tenant.
	Store = store.Store
	// StoreRecord is one stored model document.
	StoreRecord = store.Record
	// Notifier spreads registry invalidations between nodes.
	Notifier = notify.Notifier
	// Metrics records compilations and refreshes with OpenTelemetry.
	Metrics = telemetry.Metrics
)

// Store drivers accepted by OpenStore.
const (
	StoreMemory   = store.DriverMemory
	StoreSQLite   = store.DriverSQLite
	StorePostgres = store.DriverPostgres
)

// ErrRecordNotFound is returned by a Store for a missing record.
var ErrRecordNotFound = store.ErrNotFound

// NewMemoryStore returns a store that keeps documents in process.
func NewMemoryStore() Store {
	return store.NewMemory()
}

// OpenStore opens the store for driver, creating its schema when needed.
func OpenStore(ctx context.Context, driver, dsn string) (Store, error) {
	return store.Open(ctx, driver, dsn)
}

// NewLocalNotifier returns a notifier delivering to the services of this
// process that share it.
func NewLocalNotifier() Notifier {
	return notify.NewLocal()
}

// DialRedisNotifier connects a notifier using Redis pub/sub at addr.
func DialRedisNotifier(ctx context.Context, addr string, log *slog.Logger) (Notifier, error) {
	n, err := notify.DialRedis(ctx, addr, log)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// NewMetrics creates the instruments. Nil providers use the global ones.
func NewMetrics(mp metric.MeterProvider, tp trace.TracerProvider) (*Metrics, error) {
	return telemetry.New(mp, tp)
}

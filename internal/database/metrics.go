package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

// slowQueryThreshold: queries slower than this are counted separately.
const slowQueryThreshold = time.Second

var (
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storemaps_db_query_duration_seconds",
			Help:    "Database query execution time in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation", "table", "status"},
	)

	dbQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storemaps_db_query_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "table", "status"},
	)

	dbErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storemaps_db_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	dbSlowQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storemaps_db_slow_queries_total",
			Help: "Total number of queries slower than the slow-query threshold",
		},
		[]string{"operation", "table"},
	)

	dbPoolOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storemaps_db_connection_pool_size",
		Help: "Maximum number of database connections in the pool",
	})
	dbPoolIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storemaps_db_connection_pool_idle",
		Help: "Number of idle database connections in the pool",
	})
	dbPoolInUse = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storemaps_db_connection_pool_in_use",
		Help: "Number of database connections currently in use",
	})
)

// MetricsPlugin hooks GORM's callback chain to time every query and feed
// the Prometheus instruments above. ErrRecordNotFound is a normal lookup
// miss, not an error.
type MetricsPlugin struct{}

func (p *MetricsPlugin) Name() string { return "metricsPlugin" }

const startTimeKey = "metrics:start_time"

func (p *MetricsPlugin) Initialize(db *gorm.DB) error {
	_ = db.Callback().Create().Before("gorm:create").Register("metrics:before_create", recordStart)
	_ = db.Callback().Create().After("gorm:create").Register("metrics:after_create", recordDone)
	_ = db.Callback().Query().Before("gorm:query").Register("metrics:before_query", recordStart)
	_ = db.Callback().Query().After("gorm:query").Register("metrics:after_query", recordDone)
	_ = db.Callback().Update().Before("gorm:update").Register("metrics:before_update", recordStart)
	_ = db.Callback().Update().After("gorm:update").Register("metrics:after_update", recordDone)
	_ = db.Callback().Delete().Before("gorm:delete").Register("metrics:before_delete", recordStart)
	_ = db.Callback().Delete().After("gorm:delete").Register("metrics:after_delete", recordDone)
	_ = db.Callback().Row().Before("gorm:row").Register("metrics:before_row", recordStart)
	_ = db.Callback().Row().After("gorm:row").Register("metrics:after_row", recordDone)
	_ = db.Callback().Raw().Before("gorm:raw").Register("metrics:before_raw", recordStart)
	_ = db.Callback().Raw().After("gorm:raw").Register("metrics:after_raw", recordDone)
	return nil
}

func recordStart(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func recordDone(db *gorm.DB) {
	v, ok := db.InstanceGet(startTimeKey)
	if !ok {
		return
	}
	elapsed := time.Since(v.(time.Time))

	operation := operationFromStatement(db)
	table := db.Statement.Table
	if table == "" {
		table = "unknown"
	}

	failed := db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound)
	status := "success"
	if failed {
		status = "error"
	}

	dbQueryDuration.WithLabelValues(operation, table, status).Observe(elapsed.Seconds())
	dbQueryTotal.WithLabelValues(operation, table, status).Inc()

	if failed {
		dbErrorsTotal.WithLabelValues(operation, table, fmt.Sprintf("%T", db.Error)).Inc()
	}
	if elapsed > slowQueryThreshold {
		dbSlowQueriesTotal.WithLabelValues(operation, table).Inc()
	}
}

// operationFromStatement classifies the statement by its SQL verb.
func operationFromStatement(db *gorm.DB) string {
	sql := db.Statement.SQL.String()
	if len(sql) < 6 {
		return "UNKNOWN"
	}
	switch strings.ToUpper(sql[:6]) {
	case "SELECT":
		return "SELECT"
	case "INSERT":
		return "INSERT"
	case "UPDATE":
		return "UPDATE"
	case "DELETE":
		return "DELETE"
	default:
		return "RAW"
	}
}

// StartConnectionPoolMetricsCollector samples sql.DB pool stats on a fixed
// interval until ctx is done. Launched from main as a background goroutine.
func StartConnectionPoolMetricsCollector(ctx context.Context, db *gorm.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sqlDB, err := db.DB()
			if err != nil {
				continue
			}
			stats := sqlDB.Stats()
			dbPoolOpen.Set(float64(stats.MaxOpenConnections))
			dbPoolIdle.Set(float64(stats.Idle))
			dbPoolInUse.Set(float64(stats.InUse))
		}
	}
}

package stock

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/beveragedistro/ops-backend/pkg/db/models"
	"github.com/beveragedistro/ops-backend/pkg/enums"
	pkgerrors "github.com/beveragedistro/ops-backend/pkg/errors"
)

// Drift compares stored stock with the stock replayed from batches and order lines.
type Drift struct {
	ProductKey string `json:"product_key"`
	Stored     int64  `json:"stored"`
	Expected   int64  `json:"expected"`
}

// Delta is the correction that would bring stored stock to the expectation.
func (d Drift) Delta() int64 {
	return d.Expected - d.Stored
}

// InSync reports whether stored stock matches the replay.
func (d Drift) InSync() bool {
	return d.Stored == d.Expected
}

type driftRecorder interface {
	SetDrift(productKey string, drift int64)
}

// Reconciler recomputes expected stock for products.
type Reconciler struct {
	db      *gorm.DB
	metrics driftRecorder
}

// NewReconciler builds a reconciler over conn. metrics may be nil.
func NewReconciler(conn *gorm.DB, metrics driftRecorder) (*Reconciler, error) {
	if conn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reconciler requires a database")
	}
	return &Reconciler{db: conn, metrics: metrics}, nil
}

type keyTotal struct {
	ProductKey string
	Total      int64
}

type keyTypeTotal struct {
	ProductKey string
	Type       enums.OrderType
	Total      int64
}

// Check returns one drift entry per product, or only for productKey when set.
func (r *Reconciler) Check(ctx context.Context, productKey string) ([]Drift, error) {
	return check(ctx, r.db.WithContext(ctx), productKey, r.metrics)
}

// Fix rewrites stored stock to the replayed expectation inside one transaction
// and returns the drifts it corrected.
func (r *Reconciler) Fix(ctx context.Context, productKey string) ([]Drift, error) {
	var fixed []Drift
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		drifts, err := check(ctx, tx, productKey, r.metrics)
		if err != nil {
			return err
		}
		for _, d := range drifts {
			if d.InSync() {
				continue
			}
			if d.Expected < 0 {
				return pkgerrors.Newf(pkgerrors.CodeConflict, "replayed stock for %s is negative (%d)", d.ProductKey, d.Expected)
			}
			if err := tx.Model(&models.Product{}).Where(`"key" = ?`, d.ProductKey).Update("stock", d.Expected).Error; err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "rewrite stock")
			}
			fixed = append(fixed, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fixed, nil
}

func check(ctx context.Context, conn *gorm.DB, productKey string, metrics driftRecorder) ([]Drift, error) {
	var products []models.Product
	q := conn.WithContext(ctx).Model(&models.Product{})
	if productKey != "" {
		q = q.Where(`"key" = ?`, productKey)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "load products")
	}
	if productKey != "" && len(products) == 0 {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "Product not found: %s", productKey)
	}

	var received []keyTotal
	bq := conn.WithContext(ctx).Model(&models.Batch{}).
		Select("product_key, CAST(COALESCE(SUM(uom * packs + loose), 0) AS BIGINT) AS total").
		Group("product_key")
	if productKey != "" {
		bq = bq.Where("product_key = ?", productKey)
	}
	if err := bq.Scan(&received).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "sum batches")
	}

	var moved []keyTypeTotal
	lq := conn.WithContext(ctx).Table("order_has_products AS l").
		Select("l.product_key AS product_key, o.type AS type, CAST(COALESCE(SUM(l.quantity), 0) AS BIGINT) AS total").
		Joins("JOIN orders o ON o.id = l.order_id").
		Group("l.product_key, o.type")
	if productKey != "" {
		lq = lq.Where("l.product_key = ?", productKey)
	}
	if err := lq.Scan(&moved).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "sum order lines")
	}

	expected := make(map[string]int64, len(products))
	for _, row := range received {
		expected[row.ProductKey] += row.Total
	}
	for _, row := range moved {
		expected[row.ProductKey] += row.Type.StockSign() * row.Total
	}

	drifts := make([]Drift, 0, len(products))
	for _, p := range products {
		d := Drift{ProductKey: p.Key, Stored: p.Stock, Expected: expected[p.Key]}
		if metrics != nil {
			metrics.SetDrift(p.Key, d.Delta())
		}
		drifts = append(drifts, d)
	}
	sort.Slice(drifts, func(i, j int) bool { return drifts[i].ProductKey < drifts[j].ProductKey })
	return drifts, nil
}

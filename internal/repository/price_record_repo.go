package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fuelsurcharge/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNoData is the message returned for an empty upsert batch.
const ErrNoData = "no data to save"

// UpsertStats counts per-record outcomes of one batch.
type UpsertStats struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Errors   int `json:"errors"`
}

// UpsertResult is the outcome of a batch upsert. On failure Stats holds the
// counts reached before the rollback and Err the triggering error.
type UpsertResult struct {
	Success bool
	Stats   UpsertStats
	Message string
	Err     error
}

// PriceFilter narrows List. Zero values mean "no filter".
type PriceFilter struct {
	Region string
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

// PriceRecordRepository is the record store for normalized prices.
type PriceRecordRepository interface {
	// Upsert writes all candidates in one transaction: nothing is committed
	// unless every candidate is written.
	Upsert(ctx context.Context, candidates []model.PriceCandidate) UpsertResult

	Latest(ctx context.Context, region string) (*model.PriceRecord, error)
	List(ctx context.Context, filter PriceFilter) ([]model.PriceRecord, int64, error)
	Regions(ctx context.Context) ([]string, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type priceRecordRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewPriceRecordRepository(db *gorm.DB) PriceRecordRepository {
	return &priceRecordRepo{db: db, now: time.Now}
}

func (r *priceRecordRepo) Upsert(ctx context.Context, candidates []model.PriceCandidate) UpsertResult {
	if len(candidates) == 0 {
		return UpsertResult{Message: ErrNoData}
	}

	var stats UpsertStats
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range candidates {
			c := &candidates[i]
			if err := r.upsertOneTx(tx, c, &stats); err != nil {
				stats.Errors++
				return fmt.Errorf("record %s/%s: %w", c.Date.Format("2006-01-02"), c.Region, err)
			}
		}
		return nil
	})
	if err != nil {
		return UpsertResult{
			Stats:   stats,
			Message: "database error, all changes rolled back: " + err.Error(),
			Err:     err,
		}
	}
	return UpsertResult{Success: true, Stats: stats}
}

func (r *priceRecordRepo) upsertOneTx(tx *gorm.DB, c *model.PriceCandidate, stats *UpsertStats) error {
	date := truncateDate(c.Date)

	var existing model.PriceRecord
	err := tx.Where("date = ? AND region = ?", date, c.Region).Take(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec := &model.PriceRecord{
			ID:            uuid.New(),
			Date:          date,
			Region:        c.Region,
			Price:         c.Price,
			SurchargeRate: c.SurchargeRate,
			CreatedAt:     r.now().UTC(),
		}
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		stats.Inserted++
		return nil
	case err != nil:
		return err
	}

	if existing.Price.Equal(c.Price) && existing.SurchargeRate.Equal(c.SurchargeRate) {
		stats.Skipped++
		return nil
	}
	if err := tx.Model(&model.PriceRecord{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
		"price":          c.Price,
		"surcharge_rate": c.SurchargeRate,
	}).Error; err != nil {
		return err
	}
	stats.Updated++
	return nil
}

// Latest returns the newest record for region, or (nil, nil) when there is none.
func (r *priceRecordRepo) Latest(ctx context.Context, region string) (*model.PriceRecord, error) {
	var rec model.PriceRecord
	q := r.db.WithContext(ctx)
	if region != "" {
		q = q.Where("region = ?", region)
	}
	err := q.Order("date DESC").Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns a page of records, newest first.
func (r *priceRecordRepo) List(ctx context.Context, filter PriceFilter) ([]model.PriceRecord, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.PriceRecord{})
	if filter.Region != "" {
		q = q.Where("region = ?", filter.Region)
	}
	if filter.From != nil {
		q = q.Where("date >= ?", truncateDate(*filter.From))
	}
	if filter.To != nil {
		q = q.Where("date <= ?", truncateDate(*filter.To))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.PriceRecord
	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("date DESC").Order("region ASC").Limit(filter.Limit).Offset(offset).Find(&rows).Error
	return rows, total, err
}

func (r *priceRecordRepo) Regions(ctx context.Context) ([]string, error) {
	var regions []string
	err := r.db.WithContext(ctx).Model(&model.PriceRecord{}).
		Distinct("region").Order("region ASC").Pluck("region", &regions).Error
	return regions, err
}

// DeleteAll is the bulk clear used by maintenance tooling.
func (r *priceRecordRepo) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.PriceRecord{})
	return res.RowsAffected, res.Error
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

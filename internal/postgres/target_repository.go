package postgres

import (
	"context"
	"fmt"
	"log"

	"github.com/sourcegraph/conc/pool"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"obstarget/internal/model"
)

const (
	saveBatchSize = 1000
	saveWorkers   = 4
)

// TargetRepository persists targets in the targets table
type TargetRepository struct {
	db *gorm.DB
}

func NewTargetRepository(db *gorm.DB) *TargetRepository {
	return &TargetRepository{db: db}
}

// LoadAll loads every target that is not soft-deleted
func (r *TargetRepository) LoadAll(ctx context.Context) ([]*model.Target, error) {
	var rows []*model.TargetPG

	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load targets: %w", err)
	}

	targets := make([]*model.Target, len(rows))
	for i, row := range rows {
		targets[i] = model.FromPG(row)
	}

	return targets, nil
}

// SaveAll upserts targets in batches. Each batch runs in its own transaction.
func (r *TargetRepository) SaveAll(ctx context.Context, targets []*model.Target) error {
	rows := make([]*model.TargetPG, len(targets))
	for i, t := range targets {
		rows[i] = t.ToPG()
	}

	p := pool.New().WithMaxGoroutines(saveWorkers).WithErrors().WithContext(ctx).WithCancelOnError()
	for _, batch := range batches(rows, saveBatchSize) {
		p.Go(func(ctx context.Context) error {
			return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				return tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "target_id"}},
					UpdateAll: true,
				}).Create(&batch).Error
			})
		})
	}

	if err := p.Wait(); err != nil {
		return fmt.Errorf("save targets: %w", err)
	}

	log.Printf("Upserted %d targets in %d batches", len(rows), (len(rows)+saveBatchSize-1)/saveBatchSize)
	return nil
}

// Delete soft-deletes the targets with the given ids
func (r *TargetRepository) Delete(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&model.TargetPG{}, ids).Error
}

func batches[T any](items []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

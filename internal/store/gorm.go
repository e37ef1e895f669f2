package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/easystore/internal/models"
)

type GormCollection[T any] struct {
	DB *gorm.DB
}

func idEq(id string) clause.Eq {
	return clause.Eq{Column: clause.Column{Name: models.FieldID}, Value: id}
}

func translateGorm(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func (r *GormCollection[T]) Find(ctx context.Context, q Query) ([]T, error) {
	tx := r.DB.WithContext(ctx).Model(new(T))
	for col, v := range q.Where {
		tx = tx.Where(clause.Eq{Column: clause.Column{Name: col}, Value: v})
	}
	if q.SortBy != "" {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: q.SortBy}, Desc: q.Desc})
	}

	out := make([]T, 0)
	if err := tx.Find(&out).Error; err != nil {
		return nil, translateGorm(err)
	}
	return out, nil
}

func (r *GormCollection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	var rec T
	if err := r.DB.WithContext(ctx).Where(idEq(id)).First(&rec).Error; err != nil {
		return nil, translateGorm(err)
	}
	return &rec, nil
}

func (r *GormCollection[T]) Insert(ctx context.Context, rec *T) error {
	stamp(rec)
	return translateGorm(r.DB.WithContext(ctx).Create(rec).Error)
}

func (r *GormCollection[T]) UpdateFields(ctx context.Context, id string, fields Fields) (*T, error) {
	res := r.DB.WithContext(ctx).Model(new(T)).Where(idEq(id)).Updates(map[string]any(fields))
	if res.Error != nil {
		return nil, translateGorm(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *GormCollection[T]) Increment(ctx context.Context, id string, deltas map[string]int64) (*T, error) {
	updates := make(map[string]any, len(deltas))
	for col, d := range deltas {
		updates[col] = gorm.Expr("? + ?", clause.Column{Name: col}, d)
	}

	res := r.DB.WithContext(ctx).Model(new(T)).Where(idEq(id)).Updates(updates)
	if res.Error != nil {
		return nil, translateGorm(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *GormCollection[T]) Toggle(ctx context.Context, id string, field string) (*T, error) {
	res := r.DB.WithContext(ctx).Model(new(T)).Where(idEq(id)).
		Update(field, gorm.Expr("NOT ?", clause.Column{Name: field}))
	if res.Error != nil {
		return nil, translateGorm(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *GormCollection[T]) Delete(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Where(idEq(id)).Delete(new(T))
	if res.Error != nil {
		return translateGorm(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.ProductSeries{}, &models.Order{}, &models.User{}, &models.RefreshToken{})
}

func NewGormStores(db *gorm.DB) *Stores {
	return &Stores{
		Products: &GormCollection[models.ProductSeries]{DB: db},
		Orders:   &GormCollection[models.Order]{DB: db},
		Users:    &GormCollection[models.User]{DB: db},
		Tokens:   &GormCollection[models.RefreshToken]{DB: db},
		ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

package postgresadapter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainerrors "curio/contexts/marketplace/registry-service/domain/errors"
	"curio/contexts/marketplace/registry-service/ports"
)

type ownershipModel struct {
	TokenID      uint64 `gorm:"column:token_id;primaryKey"`
	Owner        string `gorm:"column:owner"`
	RegisteredAt time.Time
	UpdatedAt    time.Time
}

func (ownershipModel) TableName() string { return "registry_ownerships" }

func (m ownershipModel) toPort() ports.Ownership {
	return ports.Ownership{
		TokenID:      m.TokenID,
		Owner:        m.Owner,
		RegisteredAt: m.RegisteredAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// Repository is the Postgres ownership registry. The primary key on token_id
// carries the one-owner-per-token guarantee.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Register(ctx context.Context, tokenID uint64, owner string, now time.Time) error {
	now = now.UTC()
	row := ownershipModel{
		TokenID:      tokenID,
		Owner:        owner,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrTokenAlreadyBound
		}
		return err
	}
	return nil
}

func (r *Repository) Transfer(ctx context.Context, tokenID uint64, from string, to string, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row ownershipModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("token_id = ?", tokenID).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrTokenNotFound
			}
			return err
		}
		if row.Owner != from {
			return domainerrors.ErrNotOwner
		}
		row.Owner = to
		row.UpdatedAt = now.UTC()
		return tx.Save(&row).Error
	})
}

func (r *Repository) Burn(ctx context.Context, tokenID uint64, now time.Time) error {
	result := r.db.WithContext(ctx).Delete(&ownershipModel{}, "token_id = ?", tokenID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrTokenNotFound
	}
	return nil
}

func (r *Repository) OwnerOf(ctx context.Context, tokenID uint64) (string, error) {
	var row ownershipModel
	err := r.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domainerrors.ErrTokenNotFound
		}
		return "", err
	}
	return row.Owner, nil
}

func (r *Repository) Exists(ctx context.Context, tokenID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ownershipModel{}).
		Where("token_id = ?", tokenID).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ListByOwner(ctx context.Context, owner string) ([]ports.Ownership, error) {
	var rows []ownershipModel
	err := r.db.WithContext(ctx).
		Where("owner = ?", owner).
		Order("token_id ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]ports.Ownership, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) Now() time.Time {
	return time.Now().UTC()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

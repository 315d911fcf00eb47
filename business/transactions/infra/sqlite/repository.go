// Package sqlite persists tracked transactions with gorm on a pure-Go sqlite driver.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fd1az/whitelist-sync/business/transactions/app"
	"github.com/fd1az/whitelist-sync/business/transactions/domain"
	"github.com/fd1az/whitelist-sync/internal/apperror"
)

// ErrPathRequired is returned when no database path is configured.
var ErrPathRequired = errors.New("transactions db path must be configured")

// txRecord is the persisted row.
type txRecord struct {
	Hash        string `gorm:"primaryKey;size:66"`
	Address     string `gorm:"index;size:42"`
	Status      string `gorm:"index;size:16"`
	BlockNumber uint64
	SubmittedAt time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

func (txRecord) TableName() string {
	return "tracked_transactions"
}

func toRecord(tx domain.Transaction) txRecord {
	return txRecord{
		Hash:        tx.Hash.Hex(),
		Address:     tx.Address.Hex(),
		Status:      string(tx.Status),
		BlockNumber: tx.BlockNumber,
		SubmittedAt: tx.SubmittedAt.UTC(),
		UpdatedAt:   tx.UpdatedAt.UTC(),
	}
}

func (r txRecord) toDomain() domain.Transaction {
	return domain.Transaction{
		Hash:        common.HexToHash(r.Hash),
		Address:     common.HexToAddress(r.Address),
		Status:      domain.Status(r.Status),
		BlockNumber: r.BlockNumber,
		SubmittedAt: r.SubmittedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Repository implements app.Repository.
type Repository struct {
	db *gorm.DB
}

var _ app.Repository = (*Repository)(nil)

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string) (*Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrPathRequired
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeStorageError, apperror.WithCause(err), apperror.WithContext("open "+path))
	}

	if err := db.AutoMigrate(&txRecord{}); err != nil {
		return nil, apperror.New(apperror.CodeStorageError, apperror.WithCause(err), apperror.WithContext("migrate"))
	}

	return &Repository{db: db}, nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *Repository) Insert(ctx context.Context, tx domain.Transaction) (bool, error) {
	rec := toRecord(tx)
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "hash"}}, DoNothing: true}).
		Create(&rec)
	if res.Error != nil {
		return false, fmt.Errorf("insert transaction: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) Update(ctx context.Context, tx domain.Transaction) error {
	res := r.db.WithContext(ctx).
		Model(&txRecord{}).
		Where("hash = ?", tx.Hash.Hex()).
		Updates(map[string]any{
			"status":       string(tx.Status),
			"block_number": tx.BlockNumber,
			"updated_at":   tx.UpdatedAt.UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("update transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.New(apperror.CodeNotFound, apperror.WithContext(tx.Hash.Hex()))
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, hash common.Hash) (domain.Transaction, error) {
	var rec txRecord
	err := r.db.WithContext(ctx).First(&rec, "hash = ?", hash.Hex()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Transaction{}, apperror.New(apperror.CodeNotFound, apperror.WithContext(hash.Hex()))
	}
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *Repository) Pending(ctx context.Context) ([]domain.Transaction, error) {
	var recs []txRecord
	err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.StatusPending)).
		Order("submitted_at ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("load pending: %w", err)
	}
	return toDomainSlice(recs), nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Transaction, error) {
	var recs []txRecord
	if err := r.db.WithContext(ctx).Order("submitted_at DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return toDomainSlice(recs), nil
}

func toDomainSlice(recs []txRecord) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toDomain())
	}
	return out
}

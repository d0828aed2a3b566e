package merchantbalance

import (
	"context"
	stdErrors "errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/estatepay/estatepay-backend/pkg/db"
	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

// ErrDuplicateEvent signals the causing event has already been folded
// into this partition. Callers treat it as success.
var ErrDuplicateEvent = errors.New(errors.CodeConflict, "balance movement already recorded")

// Repository persists the balance snapshot and its history. Save is
// atomic across both: the history insert carries the duplicate check
// (unique event id), and a duplicate aborts the snapshot write too, so
// redelivery can never double-count.
type Repository interface {
	Load(ctx context.Context, estateID, merchantID uuid.UUID) (models.MerchantBalanceSnapshot, error)
	Save(ctx context.Context, snapshot models.MerchantBalanceSnapshot, entry models.BalanceHistoryEntry) error
	History(ctx context.Context, estateID, merchantID uuid.UUID, limit int) ([]models.BalanceHistoryEntry, error)
}

type gormRepository struct {
	client *db.Client
}

func NewRepository(client *db.Client) Repository {
	return &gormRepository{client: client}
}

// Load returns the partition snapshot, or a zero-valued one when the
// partition has never seen an event.
func (r *gormRepository) Load(ctx context.Context, estateID, merchantID uuid.UUID) (models.MerchantBalanceSnapshot, error) {
	var snapshot models.MerchantBalanceSnapshot
	err := r.client.DB().WithContext(ctx).
		Where("estate_id = ? AND merchant_id = ?", estateID, merchantID).
		First(&snapshot).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return zeroSnapshot(estateID, merchantID), nil
		}
		return models.MerchantBalanceSnapshot{}, errors.Wrap(errors.CodeDependency, err, "load balance snapshot")
	}
	return snapshot, nil
}

func (r *gormRepository) Save(ctx context.Context, snapshot models.MerchantBalanceSnapshot, entry models.BalanceHistoryEntry) error {
	err := r.client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			if db.IsUniqueViolation(err, "ux_balance_history_event_id") {
				return ErrDuplicateEvent
			}
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "estate_id"}, {Name: "merchant_id"}},
			UpdateAll: true,
		}).Create(&snapshot).Error
	})
	if err != nil {
		if stdErrors.Is(err, ErrDuplicateEvent) {
			return ErrDuplicateEvent
		}
		return errors.Wrap(errors.CodeDependency, err, "save balance snapshot")
	}
	return nil
}

func (r *gormRepository) History(ctx context.Context, estateID, merchantID uuid.UUID, limit int) ([]models.BalanceHistoryEntry, error) {
	var entries []models.BalanceHistoryEntry
	query := r.client.DB().WithContext(ctx).
		Where("estate_id = ? AND merchant_id = ?", estateID, merchantID).
		Order("entry_at DESC, created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, errors.Wrap(errors.CodeDependency, err, "load balance history")
	}
	return entries, nil
}

func zeroSnapshot(estateID, merchantID uuid.UUID) models.MerchantBalanceSnapshot {
	return models.MerchantBalanceSnapshot{
		EstateID:         estateID,
		MerchantID:       merchantID,
		Balance:          decimal.Zero,
		AvailableBalance: decimal.Zero,
	}
}

type partitionKey struct {
	estateID   uuid.UUID
	merchantID uuid.UUID
}

// MemoryRepository is the in-process Repository used by tests.
type MemoryRepository struct {
	mtx       sync.Mutex
	snapshots map[partitionKey]models.MerchantBalanceSnapshot
	history   []models.BalanceHistoryEntry
	eventIDs  map[uuid.UUID]struct{}
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		snapshots: make(map[partitionKey]models.MerchantBalanceSnapshot),
		eventIDs:  make(map[uuid.UUID]struct{}),
	}
}

func (r *MemoryRepository) Load(_ context.Context, estateID, merchantID uuid.UUID) (models.MerchantBalanceSnapshot, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if snapshot, ok := r.snapshots[partitionKey{estateID, merchantID}]; ok {
		return snapshot, nil
	}
	return zeroSnapshot(estateID, merchantID), nil
}

func (r *MemoryRepository) Save(_ context.Context, snapshot models.MerchantBalanceSnapshot, entry models.BalanceHistoryEntry) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, dup := r.eventIDs[entry.EventID]; dup {
		return ErrDuplicateEvent
	}
	r.eventIDs[entry.EventID] = struct{}{}
	r.history = append(r.history, entry)
	r.snapshots[partitionKey{snapshot.EstateID, snapshot.MerchantID}] = snapshot
	return nil
}

func (r *MemoryRepository) History(_ context.Context, estateID, merchantID uuid.UUID, limit int) ([]models.BalanceHistoryEntry, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	var out []models.BalanceHistoryEntry
	for i := len(r.history) - 1; i >= 0; i-- {
		entry := r.history[i]
		if entry.EstateID == estateID && entry.MerchantID == merchantID {
			out = append(out, entry)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// Package voucher folds voucher lifecycle events into a per-voucher
// projection row. Folding is naturally idempotent: reapplying a
// lifecycle event sets the same flags and timestamps again.
package voucher

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/db"
	"github.com/estatepay/estatepay-backend/pkg/db/models"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

// Repository persists voucher projection rows, keyed by voucher ID.
type Repository interface {
	Load(ctx context.Context, voucherID uuid.UUID) (models.VoucherProjection, bool, error)
	Save(ctx context.Context, projection models.VoucherProjection) error
	FindByCode(ctx context.Context, voucherCode string) (models.VoucherProjection, error)
}

type gormRepository struct {
	client *db.Client
}

func NewRepository(client *db.Client) Repository {
	return &gormRepository{client: client}
}

func (r *gormRepository) Load(ctx context.Context, voucherID uuid.UUID) (models.VoucherProjection, bool, error) {
	var projection models.VoucherProjection
	err := r.client.DB().WithContext(ctx).
		Where("voucher_id = ?", voucherID).
		First(&projection).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return models.VoucherProjection{VoucherID: voucherID}, false, nil
		}
		return models.VoucherProjection{}, false, errors.Wrap(errors.CodeDependency, err, "load voucher projection")
	}
	return projection, true, nil
}

func (r *gormRepository) Save(ctx context.Context, projection models.VoucherProjection) error {
	err := r.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "voucher_id"}},
			UpdateAll: true,
		}).
		Create(&projection).Error
	if err != nil {
		return errors.Wrap(errors.CodeDependency, err, "save voucher projection")
	}
	return nil
}

func (r *gormRepository) FindByCode(ctx context.Context, voucherCode string) (models.VoucherProjection, error) {
	var projection models.VoucherProjection
	err := r.client.DB().WithContext(ctx).
		Where("voucher_code = ?", voucherCode).
		First(&projection).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return models.VoucherProjection{}, errors.New(errors.CodeNotFound, fmt.Sprintf("voucher %q not found", voucherCode))
		}
		return models.VoucherProjection{}, errors.Wrap(errors.CodeDependency, err, "find voucher by code")
	}
	return projection, nil
}

// MemoryRepository is the in-process Repository used by tests.
type MemoryRepository struct {
	mtx         sync.Mutex
	projections map[uuid.UUID]models.VoucherProjection
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{projections: make(map[uuid.UUID]models.VoucherProjection)}
}

func (r *MemoryRepository) Load(_ context.Context, voucherID uuid.UUID) (models.VoucherProjection, bool, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if projection, ok := r.projections[voucherID]; ok {
		return projection, true, nil
	}
	return models.VoucherProjection{VoucherID: voucherID}, false, nil
}

func (r *MemoryRepository) Save(_ context.Context, projection models.VoucherProjection) error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.projections[projection.VoucherID] = projection
	return nil
}

func (r *MemoryRepository) FindByCode(_ context.Context, voucherCode string) (models.VoucherProjection, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	for _, projection := range r.projections {
		if projection.VoucherCode == voucherCode {
			return projection, nil
		}
	}
	return models.VoucherProjection{}, errors.New(errors.CodeNotFound, fmt.Sprintf("voucher %q not found", voucherCode))
}

// Projector folds voucher lifecycle events. Runs on the ordered
// pipeline so issue never lands before generate.
type Projector struct {
	repo Repository
}

func NewProjector(repo Repository) *Projector {
	return &Projector{repo: repo}
}

func (p *Projector) Name() string { return "voucher-state" }

// EventTypes lists the subset of events this projection folds.
func (p *Projector) EventTypes() []enums.EventType {
	return []enums.EventType{
		enums.EventVoucherGenerated,
		enums.EventVoucherIssued,
		enums.EventVoucherFullyRedeemed,
	}
}

func (p *Projector) Handle(ctx context.Context, envelope events.Envelope) error {
	switch payload := envelope.Payload.(type) {
	case events.VoucherGenerated:
		projection, _, err := p.repo.Load(ctx, payload.VoucherID)
		if err != nil {
			return err
		}
		projection.EstateID = payload.EstateID
		projection.MerchantID = payload.MerchantID
		projection.VoucherCode = payload.VoucherCode
		projection.Value = payload.Value
		projection.IsGenerated = true
		generatedAt := payload.GeneratedAt
		projection.GeneratedAt = &generatedAt
		return p.repo.Save(ctx, projection)
	case events.VoucherIssued:
		projection, _, err := p.repo.Load(ctx, payload.VoucherID)
		if err != nil {
			return err
		}
		projection.TransactionID = payload.TransactionID
		projection.IsIssued = true
		issuedAt := payload.IssuedAt
		projection.IssuedAt = &issuedAt
		return p.repo.Save(ctx, projection)
	case events.VoucherFullyRedeemed:
		projection, _, err := p.repo.Load(ctx, payload.VoucherID)
		if err != nil {
			return err
		}
		projection.IsRedeemed = true
		redeemedAt := payload.RedeemedAt
		projection.RedeemedAt = &redeemedAt
		return p.repo.Save(ctx, projection)
	default:
		return fmt.Errorf("voucher projector cannot fold %s", envelope.EventType)
	}
}

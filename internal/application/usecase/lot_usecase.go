package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
)

// StockTxRunner ejecuta fn en una transacción con repos de productos y lotes.
type StockTxRunner interface {
	RunStock(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		lotRepo repository.LotRepository,
	) error) error
}

// LotUseCase ingreso y edición de lotes.
type LotUseCase struct {
	txRunner    StockTxRunner
	productRepo repository.ProductRepository
	lotRepo     repository.LotRepository
	log         zerolog.Logger
}

// NewLotUseCase construye el caso de uso.
func NewLotUseCase(txRunner StockTxRunner, productRepo repository.ProductRepository, lotRepo repository.LotRepository, log zerolog.Logger) *LotUseCase {
	return &LotUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		lotRepo:     lotRepo,
		log:         log.With().Str("component", "lot").Logger(),
	}
}

// Add registra un ingreso: si el lote (producto, número) existe suma la cantidad, si no lo crea.
func (uc *LotUseCase) Add(ctx context.Context, in dto.AddLotRequest) (*dto.AddLotResponse, error) {
	lotNumber := strings.TrimSpace(in.LotNumber)
	if in.ProductID == "" {
		return nil, domain.Invalid("product_id", "es obligatorio")
	}
	if lotNumber == "" {
		return nil, domain.Invalid("lot_number", "es obligatorio")
	}
	if in.Quantity <= 0 || in.Quantity > entity.MaxQuantity {
		return nil, domain.Invalid("quantity", "debe ser mayor que cero y no superar el máximo")
	}
	if !entity.ValidID(in.ProductID) {
		return nil, domain.ErrNotFound
	}
	var expiry *time.Time
	if in.ExpiryDate != "" {
		t, err := time.Parse("2006-01-02", in.ExpiryDate)
		if err != nil {
			return nil, domain.Invalid("expiry_date", "formato esperado AAAA-MM-DD")
		}
		expiry = &t
	}

	out := &dto.AddLotResponse{}
	err := uc.txRunner.RunStock(ctx, func(productRepo repository.ProductRepository, lotRepo repository.LotRepository) error {
		product, err := productRepo.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		current, err := lotRepo.GetForUpdate(ctx, in.ProductID, lotNumber)
		if err != nil {
			return err
		}
		if current != nil && current.Quantity > entity.MaxQuantity-in.Quantity {
			return domain.Invalid("quantity", "el lote superaría la cantidad máxima")
		}
		existed, err := lotRepo.AddQuantity(ctx, in.ProductID, lotNumber, in.Quantity, expiry)
		if err != nil {
			return err
		}
		lot, err := lotRepo.GetForUpdate(ctx, in.ProductID, lotNumber)
		if err != nil {
			return err
		}
		if lot == nil {
			return domain.ErrNotFound
		}
		out.Lot, out.Existed = toLotResponse(lot), existed
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", in.ProductID).Str("lot", lotNumber).Int("quantity", in.Quantity).
		Bool("existed", out.Existed).Msg("ingreso de lote")
	return out, nil
}

// SetQuantity fija la cantidad de un lote (formulario de edición).
func (uc *LotUseCase) SetQuantity(ctx context.Context, id string, in dto.SetLotQuantityRequest) (*dto.LotResponse, error) {
	if in.Quantity == nil || *in.Quantity < 0 || *in.Quantity > entity.MaxQuantity {
		return nil, domain.Invalid("quantity", "es obligatoria, no negativa y no superior al máximo")
	}
	if !entity.ValidID(id) {
		return nil, domain.ErrNotFound
	}
	var out dto.LotResponse
	err := uc.txRunner.RunStock(ctx, func(_ repository.ProductRepository, lotRepo repository.LotRepository) error {
		lot, err := lotRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if lot == nil {
			return domain.ErrNotFound
		}
		if err := lotRepo.SetQuantity(ctx, id, *in.Quantity); err != nil {
			return err
		}
		lot.Quantity = *in.Quantity
		out = toLotResponse(lot)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete elimina un lote.
func (uc *LotUseCase) Delete(ctx context.Context, id string) error {
	if !entity.ValidID(id) {
		return domain.ErrNotFound
	}
	if err := uc.lotRepo.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Info().Str("lot_id", id).Msg("lote eliminado")
	return nil
}

// ListByProduct lotes del producto en el orden en que se consumen.
func (uc *LotUseCase) ListByProduct(ctx context.Context, productID string) ([]dto.LotResponse, error) {
	if !entity.ValidID(productID) {
		return nil, domain.ErrNotFound
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	lots, err := uc.lotRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LotResponse, 0, len(lots))
	for _, l := range lots {
		out = append(out, toLotResponse(l))
	}
	return out, nil
}

func toLotResponse(l *entity.Lot) dto.LotResponse {
	return dto.LotResponse{
		ID:         l.ID,
		ProductID:  l.ProductID,
		LotNumber:  l.LotNumber,
		Quantity:   l.Quantity,
		ExpiryDate: l.ExpiryDate,
		IngestedAt: l.IngestedAt,
	}
}

// Package remision implementa el carrito de remisión por operario y la gestión de remisiones:
// reserva FEFO de lotes, devolución al stock, confirmación y firmas.
package remision

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/application/ports"
	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/domain/inventory"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
)

// DefaultMaxUnsignedShipments remisiones sin firma de recibido que bloquean una nueva confirmación.
const DefaultMaxUnsignedShipments = 2

// CartUseCase reserva stock en el carrito del operario y lo convierte en remisión.
type CartUseCase struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	lotRepo      repository.LotRepository
	cartRepo     repository.CartRepository
	shipmentRepo repository.ShipmentRepository
	events       ports.EventPublisher
	metrics      ports.Metrics
	log          zerolog.Logger
	maxUnsigned  int
	now          func() time.Time
}

// NewCartUseCase construye el caso de uso. maxUnsigned <= 0 usa DefaultMaxUnsignedShipments.
func NewCartUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	lotRepo repository.LotRepository,
	cartRepo repository.CartRepository,
	shipmentRepo repository.ShipmentRepository,
	events ports.EventPublisher,
	metrics ports.Metrics,
	log zerolog.Logger,
	maxUnsigned int,
) *CartUseCase {
	if maxUnsigned <= 0 {
		maxUnsigned = DefaultMaxUnsignedShipments
	}
	if events == nil {
		events = ports.NopPublisher{}
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &CartUseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		lotRepo:      lotRepo,
		cartRepo:     cartRepo,
		shipmentRepo: shipmentRepo,
		events:       events,
		metrics:      metrics,
		log:          log.With().Str("component", "remision").Logger(),
		maxUnsigned:  maxUnsigned,
		now:          time.Now,
	}
}

// Allocate vista previa de la asignación FEFO; no reserva ni modifica nada.
func (uc *CartUseCase) Allocate(ctx context.Context, productID string, quantity int) (*dto.AllocationResponse, error) {
	if quantity <= 0 {
		return nil, domain.Invalid("quantity", "debe ser mayor que cero")
	}
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
	alloc := inventory.Allocate(toLotStock(lots), quantity)
	return &dto.AllocationResponse{
		ProductID: productID,
		Requested: alloc.Requested,
		Lines:     toAllocationLines(alloc.Lines),
		Shortfall: alloc.Shortfall,
	}, nil
}

// Reserve asigna quantity del producto a los lotes (FEFO), descuenta cada lote y crea una
// entrada de carrito por lote, todo en una transacción. Si el stock no alcanza no se toca nada
// y se devuelve *domain.InsufficientStockError.
func (uc *CartUseCase) Reserve(ctx context.Context, operatorID string, in dto.ReserveRequest) (*dto.ReserveResponse, error) {
	if in.ProductID == "" {
		return nil, domain.Invalid("product_id", "es obligatorio")
	}
	if in.Quantity <= 0 {
		return nil, domain.Invalid("quantity", "debe ser mayor que cero")
	}
	if in.Quantity > entity.MaxQuantity {
		return nil, domain.Invalid("quantity", "supera el máximo permitido")
	}
	if !entity.ValidID(in.ProductID) {
		return nil, domain.ErrNotFound
	}
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}

	out := &dto.ReserveResponse{}
	err = uc.txRunner.Run(ctx, func(
		lotRepo repository.LotRepository,
		cartRepo repository.CartRepository,
		_ repository.ShipmentRepository,
	) error {
		// Bloquea los lotes del producto (SELECT FOR UPDATE) hasta el commit
		lots, err := lotRepo.ListAvailableForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		alloc := inventory.Allocate(toLotStock(lots), in.Quantity)
		uc.metrics.ObserveAllocation(alloc.Complete())
		if !alloc.Complete() {
			return &domain.InsufficientStockError{ProductID: in.ProductID, Requested: in.Quantity, Shortfall: alloc.Shortfall}
		}
		for _, line := range alloc.Lines {
			if err := lotRepo.Decrement(ctx, in.ProductID, line.LotNumber, line.Quantity); err != nil {
				return err
			}
			entry := &entity.CartEntry{
				ID:         uuid.New().String(),
				OperatorID: operatorID,
				ProductID:  in.ProductID,
				LotNumber:  line.LotNumber,
				Quantity:   line.Quantity,
			}
			if err := cartRepo.Create(ctx, entry); err != nil {
				return err
			}
			out.EntryIDs = append(out.EntryIDs, entry.ID)
		}
		out.Lines = toAllocationLines(alloc.Lines)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("operator_id", operatorID).Str("product_id", in.ProductID).
		Int("quantity", in.Quantity).Int("lots", len(out.Lines)).Msg("stock reservado en carrito")
	return out, nil
}

// Release devuelve al lote la cantidad de una entrada del carrito y la elimina.
// Una entrada inexistente no es error (doble clic); una entrada de otro operario sí.
func (uc *CartUseCase) Release(ctx context.Context, operatorID, entryID string) error {
	if !entity.ValidID(entryID) {
		return nil
	}
	var released *entity.CartEntry
	err := uc.txRunner.Run(ctx, func(
		lotRepo repository.LotRepository,
		cartRepo repository.CartRepository,
		_ repository.ShipmentRepository,
	) error {
		entry, err := cartRepo.GetByIDForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		if entry.OperatorID != operatorID {
			return domain.ErrForbidden
		}
		// Si el lote se eliminó mientras tanto, AddQuantity lo vuelve a crear
		if _, err := lotRepo.AddQuantity(ctx, entry.ProductID, entry.LotNumber, entry.Quantity, nil); err != nil {
			return err
		}
		if err := cartRepo.Delete(ctx, entry.ID); err != nil {
			return err
		}
		released = entry
		return nil
	})
	if err != nil {
		return err
	}
	if released != nil {
		uc.log.Info().Str("operator_id", operatorID).Str("lot", released.LotNumber).
			Int("quantity", released.Quantity).Msg("entrada devuelta al stock")
	}
	return nil
}

// Confirm convierte el carrito del operario en una remisión con una línea por entrada.
// Bloquea si el operario ya tiene maxUnsigned remisiones sin firma de recibido.
func (uc *CartUseCase) Confirm(ctx context.Context, operatorID string) (*dto.ConfirmResponse, error) {
	pending, err := uc.shipmentRepo.CountPendingSignatures(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if pending >= uc.maxUnsigned {
		return nil, &domain.PendingSignaturesError{Pending: pending, Limit: uc.maxUnsigned}
	}

	shipment := &entity.Shipment{ID: uuid.New().String(), CreatedBy: operatorID, CreatedAt: uc.now()}
	var lines, quantity int
	err = uc.txRunner.Run(ctx, func(
		_ repository.LotRepository,
		cartRepo repository.CartRepository,
		shipmentRepo repository.ShipmentRepository,
	) error {
		entries, err := cartRepo.ListByOperatorForUpdate(ctx, operatorID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return domain.ErrEmptyCart
		}
		if err := shipmentRepo.Create(ctx, shipment); err != nil {
			return err
		}
		for _, e := range entries {
			line := &entity.ShipmentLine{
				ID:         uuid.New().String(),
				ShipmentID: shipment.ID,
				ProductID:  e.ProductID,
				LotNumber:  e.LotNumber,
				Quantity:   e.Quantity,
			}
			if err := shipmentRepo.AddLine(ctx, line); err != nil {
				return err
			}
			quantity += e.Quantity
		}
		deleted, err := cartRepo.DeleteByOperator(ctx, operatorID)
		if err != nil {
			return err
		}
		if int(deleted) != len(entries) {
			return fmt.Errorf("%w: el carrito cambió durante la confirmación", domain.ErrConflict)
		}
		lines = len(entries)
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.ShipmentConfirmed(lines)
	uc.log.Info().Str("operator_id", operatorID).Str("shipment_id", shipment.ID).
		Int64("number", shipment.Number).Int("lines", lines).Msg("remisión confirmada")
	uc.publish(ctx, ports.EventShipmentConfirmed, ports.ShipmentConfirmedEvent{
		ShipmentID: shipment.ID,
		Number:     shipment.Number,
		OperatorID: operatorID,
		Lines:      lines,
		Quantity:   quantity,
		OccurredAt: shipment.CreatedAt,
	})
	return &dto.ConfirmResponse{ShipmentID: shipment.ID, Number: shipment.Number, Lines: lines}, nil
}

// ListCart entradas del carrito del operario con nombre y código del producto.
func (uc *CartUseCase) ListCart(ctx context.Context, operatorID string) (*dto.CartResponse, error) {
	entries, err := uc.cartRepo.ListByOperator(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	out := &dto.CartResponse{Items: make([]dto.CartEntryResponse, 0, len(entries))}
	for _, e := range entries {
		out.Items = append(out.Items, dto.CartEntryResponse{
			ID:          e.ID,
			ProductID:   e.ProductID,
			ProductName: e.ProductName,
			Barcode:     e.Barcode,
			LotNumber:   e.LotNumber,
			Quantity:    e.Quantity,
		})
		out.TotalQuantity += e.Quantity
	}
	return out, nil
}

func (uc *CartUseCase) publish(ctx context.Context, key string, event any) {
	if err := uc.events.Publish(ctx, key, event); err != nil {
		uc.log.Warn().Err(err).Str("event", key).Msg("no se pudo publicar el evento")
	}
}

func toLotStock(lots []*entity.Lot) []inventory.LotStock {
	out := make([]inventory.LotStock, 0, len(lots))
	for _, l := range lots {
		out = append(out, inventory.LotStock{
			LotNumber:  l.LotNumber,
			Quantity:   l.Quantity,
			ExpiryDate: l.ExpiryDate,
			IngestedAt: l.IngestedAt,
		})
	}
	return out
}

func toAllocationLines(lines []inventory.AllocationLine) []dto.AllocationLineResponse {
	out := make([]dto.AllocationLineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.AllocationLineResponse{LotNumber: l.LotNumber, Quantity: l.Quantity})
	}
	return out
}

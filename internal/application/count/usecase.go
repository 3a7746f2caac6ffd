// Package count orquesta el conteo cíclico por escáner: acumula códigos por sesión,
// calcula diferencias contra los lotes y las aplica en una sola transacción.
package count

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/application/ports"
	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/count"
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

// UseCase conteo cíclico por sesión.
type UseCase struct {
	store    repository.TallyStore
	lotRepo  repository.LotRepository
	txRunner StockTxRunner
	events   ports.EventPublisher
	metrics  ports.Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	store repository.TallyStore,
	lotRepo repository.LotRepository,
	txRunner StockTxRunner,
	events ports.EventPublisher,
	metrics ports.Metrics,
	log zerolog.Logger,
) *UseCase {
	if events == nil {
		events = ports.NopPublisher{}
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &UseCase{
		store:    store,
		lotRepo:  lotRepo,
		txRunner: txRunner,
		events:   events,
		metrics:  metrics,
		log:      log.With().Str("component", "count").Logger(),
		now:      time.Now,
	}
}

// Start devuelve un identificador de sesión nuevo; la sesión nace vacía (Idle).
func (uc *UseCase) Start(_ context.Context, operatorID string) *dto.StartCountResponse {
	id := uuid.New().String()
	uc.log.Info().Str("operator_id", operatorID).Str("session_id", id).Msg("sesión de conteo iniciada")
	return &dto.StartCountResponse{SessionID: id}
}

// Tally decodifica todos los códigos y, solo si todos son válidos, los suma al conteo de la sesión.
func (uc *UseCase) Tally(ctx context.Context, sessionID string, codes []string) (*dto.CountStatusResponse, error) {
	if sessionID == "" {
		return nil, domain.Invalid("session", "es obligatoria")
	}
	if len(codes) == 0 {
		return nil, domain.Invalid("codes", "debe enviar al menos un código")
	}
	keys := make([]count.ScanKey, 0, len(codes))
	for _, c := range codes {
		k, err := count.DecodeScanKey(c)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	entries, err := uc.store.Add(ctx, sessionID, keys)
	if err != nil {
		return nil, err
	}
	return &dto.CountStatusResponse{
		SessionID: sessionID,
		State:     string(count.StateCounting),
		Keys:      len(entries),
		Tally:     toTallyResponse(entries),
	}, nil
}

// Status estado de la sesión y número de claves distintas.
func (uc *UseCase) Status(ctx context.Context, sessionID string) (*dto.CountStatusResponse, error) {
	state, keys, err := uc.store.State(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.CountStatusResponse{SessionID: sessionID, State: string(state), Keys: keys}, nil
}

// Discard descarta la sesión sin calcular diferencias.
func (uc *UseCase) Discard(ctx context.Context, sessionID string) error {
	return uc.store.Discard(ctx, sessionID)
}

// Finalize compara el conteo con las cantidades persistidas y vacía la sesión, todo con la
// sesión bloqueada. Si la lectura de lotes falla el conteo se conserva.
func (uc *UseCase) Finalize(ctx context.Context, sessionID string) (*dto.FinalizeResponse, error) {
	var diffs []count.Discrepancy
	err := uc.store.Drain(ctx, sessionID, func(entries []count.TallyEntry, lots repository.LotRepository) error {
		if len(entries) == 0 {
			return nil
		}
		if lots == nil {
			lots = uc.lotRepo
		}
		persisted, err := lots.QuantitiesByRefs(ctx, count.Refs(entries))
		if err != nil {
			return fmt.Errorf("leer cantidades persistidas: %w", err)
		}
		diffs = count.Diff(entries, persisted)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.CountFinalized(len(diffs))
	uc.log.Info().Str("session_id", sessionID).Int("discrepancies", len(diffs)).Msg("conteo finalizado")

	out := &dto.FinalizeResponse{SessionID: sessionID, Discrepancies: make([]dto.DiscrepancyDTO, 0, len(diffs))}
	for _, d := range diffs {
		out.Discrepancies = append(out.Discrepancies, dto.DiscrepancyDTO{
			Code:      d.Key.Encode(),
			Barcode:   d.Key.Barcode,
			LotNumber: d.Key.LotNumber,
			Expiry:    d.Key.Expiry,
			Persisted: d.Persisted,
			Scanned:   d.Scanned,
			Delta:     d.Delta,
		})
	}
	return out, nil
}

// Apply fija la cantidad de cada lote al valor escaneado (o crea el lote) en una sola
// transacción. Un código de barras desconocido se omite con advertencia; cualquier otro
// error revierte todo.
func (uc *UseCase) Apply(ctx context.Context, operatorID string, in dto.ApplyCountRequest) (*dto.ApplyCountResponse, error) {
	if len(in.Discrepancies) == 0 {
		return nil, domain.Invalid("discrepancies", "no hay diferencias para aplicar")
	}
	keys := make([]count.ScanKey, len(in.Discrepancies))
	for i, d := range in.Discrepancies {
		k, err := discrepancyKey(d)
		if err != nil {
			return nil, err
		}
		if d.Scanned < 0 || d.Scanned > entity.MaxQuantity {
			return nil, domain.Invalid("scanned", "fuera de rango: "+k.Encode())
		}
		keys[i] = k
	}

	var res dto.ApplyCountResponse
	var lowStock []ports.LowStockEvent
	err := uc.txRunner.RunStock(ctx, func(productRepo repository.ProductRepository, lotRepo repository.LotRepository) error {
		res = dto.ApplyCountResponse{Warnings: []string{}}
		lowStock = nil
		touched := map[string]*entity.Product{}
		for i, d := range in.Discrepancies {
			k := keys[i]
			product, err := productRepo.GetByBarcode(ctx, k.Barcode)
			if err != nil {
				return err
			}
			if product == nil {
				res.Skipped++
				res.Warnings = append(res.Warnings, fmt.Sprintf("producto con código %s no existe; se omite %s", k.Barcode, k.Encode()))
				uc.log.Warn().Str("barcode", k.Barcode).Msg("conteo: código de barras desconocido")
				continue
			}
			lot, err := lotRepo.GetForUpdate(ctx, product.ID, k.LotNumber)
			if err != nil {
				return err
			}
			if lot != nil {
				if err := lotRepo.SetQuantity(ctx, lot.ID, d.Scanned); err != nil {
					return err
				}
				res.Updated++
			} else {
				newLot := &entity.Lot{
					ID:         uuid.New().String(),
					ProductID:  product.ID,
					LotNumber:  k.LotNumber,
					Quantity:   d.Scanned,
					ExpiryDate: k.ExpiryDate(),
					IngestedAt: uc.now(),
				}
				if err := lotRepo.Create(ctx, newLot); err != nil {
					return err
				}
				res.Created++
			}
			touched[product.ID] = product
		}
		for _, p := range touched {
			total, err := lotRepo.TotalByProduct(ctx, p.ID)
			if err != nil {
				return err
			}
			if total < p.MinStock {
				lowStock = append(lowStock, ports.LowStockEvent{
					ProductID: p.ID, Barcode: p.Barcode, Total: total, MinStock: p.MinStock, OccurredAt: uc.now(),
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.metrics.CountApplied(res.Updated, res.Created, res.Skipped)
	uc.log.Info().Str("operator_id", operatorID).Int("updated", res.Updated).Int("created", res.Created).
		Int("skipped", res.Skipped).Msg("conteo aplicado")
	uc.publish(ctx, ports.EventCountApplied, ports.CountAppliedEvent{
		OperatorID: operatorID,
		Updated:    res.Updated,
		Created:    res.Created,
		Skipped:    res.Skipped,
		OccurredAt: uc.now(),
	})
	for _, ev := range lowStock {
		uc.publish(ctx, ports.EventLowStock, ev)
	}
	return &res, nil
}

func (uc *UseCase) publish(ctx context.Context, key string, event any) {
	if err := uc.events.Publish(ctx, key, event); err != nil {
		uc.log.Warn().Err(err).Str("event", key).Msg("no se pudo publicar el evento")
	}
}

// discrepancyKey usa Code si viene; si no, arma la clave con los campos sueltos.
func discrepancyKey(d dto.DiscrepancyDTO) (count.ScanKey, error) {
	if d.Code != "" {
		return count.DecodeScanKey(d.Code)
	}
	return count.DecodeScanKey(count.ScanKey{Barcode: d.Barcode, LotNumber: d.LotNumber, Expiry: d.Expiry}.Encode())
}

func toTallyResponse(entries []count.TallyEntry) []dto.TallyEntryResponse {
	out := make([]dto.TallyEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.TallyEntryResponse{
			Code:      e.Key.Encode(),
			Barcode:   e.Key.Barcode,
			LotNumber: e.Key.LotNumber,
			Expiry:    e.Key.Expiry,
			Count:     e.Count,
		})
	}
	return out
}

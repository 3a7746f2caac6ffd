package remision

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/application/ports"
	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
)

// Tipos de firma de una remisión.
const (
	SignatureDelivery = "delivery"
	SignatureReceipt  = "receipt"
)

// ShipmentUseCase consulta remisiones, registra firmas y genera el PDF.
type ShipmentUseCase struct {
	shipmentRepo repository.ShipmentRepository
	generator    ShipmentPDFGenerator
	events       ports.EventPublisher
	log          zerolog.Logger
	now          func() time.Time
}

// NewShipmentUseCase construye el caso de uso.
func NewShipmentUseCase(
	shipmentRepo repository.ShipmentRepository,
	generator ShipmentPDFGenerator,
	events ports.EventPublisher,
	log zerolog.Logger,
) *ShipmentUseCase {
	if events == nil {
		events = ports.NopPublisher{}
	}
	return &ShipmentUseCase{
		shipmentRepo: shipmentRepo,
		generator:    generator,
		events:       events,
		log:          log.With().Str("component", "remision").Logger(),
		now:          time.Now,
	}
}

// List remisiones más recientes primero. Los administradores ven todas; el resto solo las suyas.
func (uc *ShipmentUseCase) List(ctx context.Context, operatorID, role string, page dto.PageRequest) (*dto.ShipmentListResponse, error) {
	page = page.Normalize()
	createdBy := operatorID
	if role == entity.RoleAdmin {
		createdBy = ""
	}
	list, err := uc.shipmentRepo.List(ctx, createdBy, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := &dto.ShipmentListResponse{
		Items: make([]dto.ShipmentResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, HasMore: len(list) == page.Limit},
	}
	for _, s := range list {
		out.Items = append(out.Items, toShipmentResponse(s, nil))
	}
	return out, nil
}

// Get remisión con sus líneas. Un operario que no es admin solo puede ver las suyas.
func (uc *ShipmentUseCase) Get(ctx context.Context, operatorID, role, id string) (*dto.ShipmentResponse, error) {
	s, lines, err := uc.load(ctx, operatorID, role, id)
	if err != nil {
		return nil, err
	}
	resp := toShipmentResponse(s, lines)
	return &resp, nil
}

// SignDelivery registra la firma de entrega.
func (uc *ShipmentUseCase) SignDelivery(ctx context.Context, operatorID, id, signature string) error {
	return uc.sign(ctx, operatorID, id, signature, SignatureDelivery)
}

// SignReceipt registra la firma de recibido; libera el bloqueo de remisiones pendientes.
func (uc *ShipmentUseCase) SignReceipt(ctx context.Context, operatorID, id, signature string) error {
	return uc.sign(ctx, operatorID, id, signature, SignatureReceipt)
}

func (uc *ShipmentUseCase) sign(ctx context.Context, operatorID, id, signature, kind string) error {
	if !entity.ValidID(id) {
		return domain.ErrNotFound
	}
	img, err := DecodeSignature(signature)
	if err != nil {
		return err
	}
	switch kind {
	case SignatureDelivery:
		err = uc.shipmentRepo.SignDelivery(ctx, id, operatorID, img)
	default:
		err = uc.shipmentRepo.SignReceipt(ctx, id, operatorID, img)
	}
	if err != nil {
		return err
	}
	uc.log.Info().Str("shipment_id", id).Str("operator_id", operatorID).Str("kind", kind).Msg("remisión firmada")
	if err := uc.events.Publish(ctx, ports.EventShipmentSigned, ports.ShipmentSignedEvent{
		ShipmentID: id,
		Kind:       kind,
		OperatorID: operatorID,
		OccurredAt: uc.now(),
	}); err != nil {
		uc.log.Warn().Err(err).Str("event", ports.EventShipmentSigned).Msg("no se pudo publicar el evento")
	}
	return nil
}

// DownloadPDF genera el PDF de la remisión.
//
// Retorna:
//   - (pdfBytes, filename, nil) si todo sale bien.
//   - domain.ErrNotFound        si la remisión no existe.
//   - domain.ErrForbidden       si no es admin y la remisión es de otro operario.
func (uc *ShipmentUseCase) DownloadPDF(ctx context.Context, operatorID, role, id string) ([]byte, string, error) {
	s, lines, err := uc.load(ctx, operatorID, role, id)
	if err != nil {
		return nil, "", err
	}
	pdf, err := uc.generator.GenerateShipmentPDF(ctx, &ShipmentDocument{Shipment: s, Lines: lines})
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generar remisión: %w", err)
	}
	return pdf, fmt.Sprintf("remision-%d.pdf", s.Number), nil
}

func (uc *ShipmentUseCase) load(ctx context.Context, operatorID, role, id string) (*entity.Shipment, []*entity.ShipmentLine, error) {
	if !entity.ValidID(id) {
		return nil, nil, domain.ErrNotFound
	}
	s, err := uc.shipmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if s == nil {
		return nil, nil, domain.ErrNotFound
	}
	if role != entity.RoleAdmin && s.CreatedBy != operatorID {
		return nil, nil, domain.ErrForbidden
	}
	lines, err := uc.shipmentRepo.Lines(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return s, lines, nil
}

func toShipmentResponse(s *entity.Shipment, lines []*entity.ShipmentLine) dto.ShipmentResponse {
	out := dto.ShipmentResponse{
		ID:                   s.ID,
		Number:               s.Number,
		CreatedBy:            s.CreatedBy,
		CreatedByName:        s.CreatedByName,
		CreatedAt:            s.CreatedAt,
		DeliveredByName:      s.DeliveredByName,
		DeliveredAt:          s.DeliveredAt,
		ReceivedByName:       s.ReceivedByName,
		ReceivedAt:           s.ReceivedAt,
		HasDeliverySignature: s.HasDeliverySignature,
		HasReceiptSignature:  s.HasReceiptSignature,
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, dto.ShipmentLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Barcode:     l.Barcode,
			LotNumber:   l.LotNumber,
			Quantity:    l.Quantity,
		})
	}
	return out
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
)

var _ repository.ShipmentRepository = (*ShipmentRepo)(nil)

// ShipmentRepo remisiones y sus líneas sobre PostgreSQL.
type ShipmentRepo struct {
	q Querier
}

// NewShipmentRepository construye el adaptador de remisiones.
func NewShipmentRepository(q Querier) *ShipmentRepo {
	return &ShipmentRepo{q: q}
}

// Los nombres de operario son opcionales: si no hay fila en operators se muestra el id.
const shipmentSelect = `
	SELECT s.id, s.number, s.created_by, s.created_at,
		s.delivered_by, s.delivered_at, s.received_by, s.received_at,
		(s.delivery_signature IS NOT NULL), (s.receipt_signature IS NOT NULL),
		COALESCE(NULLIF(oc.full_name, ''), oc.username, s.created_by),
		COALESCE(NULLIF(od.full_name, ''), od.username, s.delivered_by, ''),
		COALESCE(NULLIF(orc.full_name, ''), orc.username, s.received_by, '')%s
	FROM shipments s
	LEFT JOIN operators oc ON oc.id = s.created_by
	LEFT JOIN operators od ON od.id = s.delivered_by
	LEFT JOIN operators orc ON orc.id = s.received_by`

func scanShipment(row pgx.Row, extra ...any) (*entity.Shipment, error) {
	var s entity.Shipment
	dest := []any{
		&s.ID, &s.Number, &s.CreatedBy, &s.CreatedAt,
		&s.DeliveredBy, &s.DeliveredAt, &s.ReceivedBy, &s.ReceivedAt,
		&s.HasDeliverySignature, &s.HasReceiptSignature,
		&s.CreatedByName, &s.DeliveredByName, &s.ReceivedByName,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserta la cabecera; el consecutivo y la fecha los asigna la BD.
func (r *ShipmentRepo) Create(ctx context.Context, s *entity.Shipment) error {
	query := `
		INSERT INTO shipments (id, number, created_by, created_at)
		VALUES ($1, nextval('shipment_number_seq'), $2, now())
		RETURNING number, created_at`
	if err := r.q.QueryRow(ctx, query, s.ID, s.CreatedBy).Scan(&s.Number, &s.CreatedAt); err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

// AddLine inserta una línea de detalle.
func (r *ShipmentRepo) AddLine(ctx context.Context, line *entity.ShipmentLine) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO shipment_lines (id, shipment_id, product_id, lot_number, quantity) VALUES ($1, $2, $3, $4, $5)`,
		line.ID, line.ShipmentID, line.ProductID, line.LotNumber, line.Quantity,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert shipment line: %w", err)
	}
	return nil
}

// GetByID obtiene la remisión con las imágenes de firma.
func (r *ShipmentRepo) GetByID(ctx context.Context, id string) (*entity.Shipment, error) {
	var delivery, receipt []byte
	query := fmt.Sprintf(shipmentSelect, `, s.delivery_signature, s.receipt_signature`) + ` WHERE s.id = $1`
	s, err := scanShipment(r.q.QueryRow(ctx, query, id), &delivery, &receipt)
	if err != nil {
		if noRow(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	s.DeliverySignature = delivery
	s.ReceiptSignature = receipt
	return s, nil
}

// Lines líneas de la remisión con nombre y código del producto.
func (r *ShipmentRepo) Lines(ctx context.Context, shipmentID string) ([]*entity.ShipmentLine, error) {
	query := `
		SELECT l.id, l.shipment_id, l.product_id, l.lot_number, l.quantity, p.name, p.barcode
		FROM shipment_lines l
		JOIN products p ON p.id = l.product_id
		WHERE l.shipment_id = $1
		ORDER BY p.name, l.lot_number`
	rows, err := r.q.Query(ctx, query, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("list shipment lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.ShipmentLine
	for rows.Next() {
		var l entity.ShipmentLine
		if err := rows.Scan(&l.ID, &l.ShipmentID, &l.ProductID, &l.LotNumber, &l.Quantity, &l.ProductName, &l.Barcode); err != nil {
			return nil, fmt.Errorf("scan shipment line: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// List remisiones más recientes primero, sin imágenes.
func (r *ShipmentRepo) List(ctx context.Context, createdBy string, limit, offset int) ([]*entity.Shipment, error) {
	query := fmt.Sprintf(shipmentSelect, "") + `
		WHERE ($1 = '' OR s.created_by = $1)
		ORDER BY s.created_at DESC, s.number DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, createdBy, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// CountPendingSignatures remisiones creadas por el operario sin firma de recibido.
func (r *ShipmentRepo) CountPendingSignatures(ctx context.Context, operatorID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT count(*) FROM shipments WHERE created_by = $1 AND (received_by IS NULL OR receipt_signature IS NULL)`,
		operatorID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending shipments: %w", err)
	}
	return n, nil
}

// SignDelivery guarda la firma de entrega y quién la hizo.
func (r *ShipmentRepo) SignDelivery(ctx context.Context, id, operatorID string, signature []byte) error {
	return r.sign(ctx,
		`UPDATE shipments SET delivery_signature = $3, delivered_by = $2, delivered_at = now() WHERE id = $1`,
		id, operatorID, signature,
	)
}

// SignReceipt guarda la firma de recibido y quién la hizo.
func (r *ShipmentRepo) SignReceipt(ctx context.Context, id, operatorID string, signature []byte) error {
	return r.sign(ctx,
		`UPDATE shipments SET receipt_signature = $3, received_by = $2, received_at = now() WHERE id = $1`,
		id, operatorID, signature,
	)
}

func (r *ShipmentRepo) sign(ctx context.Context, query, id, operatorID string, signature []byte) error {
	cmd, err := r.q.Exec(ctx, query, id, operatorID, signature)
	if err != nil {
		return fmt.Errorf("sign shipment: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

package ports

import (
	"context"
	"time"
)

// Claves de ruteo de los eventos de dominio.
const (
	EventShipmentConfirmed = "remision.confirmed"
	EventShipmentSigned    = "remision.signed"
	EventCountApplied      = "count.applied"
	EventLowStock          = "stock.low"
)

// EventPublisher define el puerto de salida para eventos de dominio.
// Se publica después del commit; un fallo al publicar no revierte la operación.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// ShipmentConfirmedEvent remisión creada desde el carrito.
type ShipmentConfirmedEvent struct {
	ShipmentID string    `json:"shipment_id"`
	Number     int64     `json:"number"`
	OperatorID string    `json:"operator_id"`
	Lines      int       `json:"lines"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ShipmentSignedEvent firma de entrega o de recibido registrada.
type ShipmentSignedEvent struct {
	ShipmentID string    `json:"shipment_id"`
	Kind       string    `json:"kind"` // delivery | receipt
	OperatorID string    `json:"operator_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// CountAppliedEvent resultado de aplicar un conteo cíclico.
type CountAppliedEvent struct {
	OperatorID string    `json:"operator_id"`
	Updated    int       `json:"updated"`
	Created    int       `json:"created"`
	Skipped    int       `json:"skipped"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LowStockEvent el total de un producto quedó por debajo de su mínimo.
type LowStockEvent struct {
	ProductID  string    `json:"product_id"`
	Barcode    string    `json:"barcode"`
	Total      int       `json:"total"`
	MinStock   int       `json:"min_stock"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NopPublisher descarta los eventos; se usa cuando no hay broker configurado.
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, string, any) error { return nil }

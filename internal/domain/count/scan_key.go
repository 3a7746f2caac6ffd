// Package count contiene la lógica pura del conteo cíclico por escáner:
// la clave compuesta de un código escaneado y el cálculo de diferencias.
package count

import (
	"regexp"
	"strings"
	"time"

	"github.com/jhoicas/lotes-remision/internal/domain"
)

// Separator separa los segmentos de un código escaneado: "barcode | lote | AAAA-MM-DD".
const Separator = " | "

var expiryPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ScanKey clave compuesta de un código escaneado. Expiry se conserva tal cual llegó;
// solo se interpreta como fecha al aplicar el conteo.
type ScanKey struct {
	Barcode   string
	LotNumber string
	Expiry    string
}

// LotRef identifica un lote por código de barras del producto y número de lote.
type LotRef struct {
	Barcode   string
	LotNumber string
}

// DecodeScanKey interpreta un código escaneado. Los espacios alrededor de "|" se ignoran.
func DecodeScanKey(code string) (ScanKey, error) {
	parts := strings.Split(code, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 || len(parts) > 3 {
		return ScanKey{}, domain.Invalid("codigo", "se espera \"codigo_barras | lote\" con vencimiento opcional: "+code)
	}
	k := ScanKey{Barcode: parts[0], LotNumber: parts[1]}
	if len(parts) == 3 {
		k.Expiry = parts[2]
	}
	if k.Barcode == "" || k.LotNumber == "" {
		return ScanKey{}, domain.Invalid("codigo", "código de barras y lote son obligatorios: "+code)
	}
	return k, nil
}

// Encode forma canónica de la clave; DecodeScanKey(k.Encode()) == k.
func (k ScanKey) Encode() string {
	s := k.Barcode + Separator + k.LotNumber
	if k.Expiry != "" {
		s += Separator + k.Expiry
	}
	return s
}

func (k ScanKey) String() string { return k.Encode() }

// Ref referencia al lote persistido que representa esta clave.
func (k ScanKey) Ref() LotRef {
	return LotRef{Barcode: k.Barcode, LotNumber: k.LotNumber}
}

// ExpiryDate devuelve el vencimiento solo si tiene la forma AAAA-MM-DD y es una fecha real.
func (k ScanKey) ExpiryDate() *time.Time {
	if !expiryPattern.MatchString(k.Expiry) {
		return nil
	}
	t, err := time.Parse("2006-01-02", k.Expiry)
	if err != nil {
		return nil
	}
	return &t
}

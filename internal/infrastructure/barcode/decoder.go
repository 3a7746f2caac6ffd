// Package barcode lee códigos de barras y QR con gozxing.
package barcode

import (
	"context"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/application/scan"
)

var _ scan.Decoder = (*Decoder)(nil)

// Decoder prueba cada simbología soportada sobre la imagen.
type Decoder struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

// NewDecoder construye el lector con Code128, EAN-13, EAN-8, UPC-A, Code39 y QR.
func NewDecoder() *Decoder {
	return &Decoder{
		readers: []gozxing.Reader{
			oned.NewCode128Reader(),
			oned.NewEAN13Reader(),
			oned.NewEAN8Reader(),
			oned.NewUPCAReader(),
			oned.NewCode39Reader(),
			qrcode.NewQRCodeReader(),
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode devuelve los códigos distintos encontrados. Un lector que no encuentra nada no es error.
func (d *Decoder) Decode(ctx context.Context, img *image.Gray) ([]dto.DecodedCode, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("preparar imagen: %w", err)
	}
	seen := map[string]struct{}{}
	codes := make([]dto.DecodedCode, 0)
	for _, r := range d.readers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := r.Decode(bmp, d.hints)
		if err != nil || res == nil {
			continue
		}
		text := res.GetText()
		if _, ok := seen[text]; ok || text == "" {
			continue
		}
		seen[text] = struct{}{}
		codes = append(codes, dto.DecodedCode{Text: text, Format: res.GetBarcodeFormat().String()})
	}
	return codes, nil
}

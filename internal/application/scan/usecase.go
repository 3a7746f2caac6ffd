// Package scan lee códigos de barras desde imágenes y registra ingresos unitarios por escáner.
package scan

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
)

const (
	// MaxUploadBytes tamaño máximo de una imagen para decodificar.
	MaxUploadBytes = 10 << 20
	// MaxPixels ancho por alto máximo; un archivo pequeño puede declarar dimensiones enormes.
	MaxPixels = 40_000_000
)

// Decoder puerto hacia la librería de lectura de códigos; recibe una imagen en escala de grises.
type Decoder interface {
	Decode(ctx context.Context, img *image.Gray) ([]dto.DecodedCode, error)
}

// StockTxRunner ejecuta fn en una transacción con repos de productos y lotes.
type StockTxRunner interface {
	RunStock(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		lotRepo repository.LotRepository,
	) error) error
}

// UseCase lectura de imágenes y suma unitaria por escáner.
type UseCase struct {
	decoder  Decoder
	txRunner StockTxRunner
	log      zerolog.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(decoder Decoder, txRunner StockTxRunner, log zerolog.Logger) *UseCase {
	return &UseCase{decoder: decoder, txRunner: txRunner, log: log.With().Str("component", "scan").Logger()}
}

// DecodeImage decodifica la imagen (PNG, JPEG, GIF, BMP o WebP), la pasa a escala de grises
// y devuelve los códigos leídos. Sin códigos devuelve domain.ErrNotFound.
func (uc *UseCase) DecodeImage(ctx context.Context, data []byte) (*dto.DecodeResponse, error) {
	if len(data) == 0 {
		return nil, domain.Invalid("image", "archivo vacío")
	}
	if len(data) > MaxUploadBytes {
		return nil, domain.Invalid("image", "la imagen supera 10 MB")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domain.Invalid("image", "formato de imagen no soportado")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, domain.Invalid("image", fmt.Sprintf("dimensiones no admitidas: %dx%d", cfg.Width, cfg.Height))
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domain.Invalid("image", "formato de imagen no soportado")
	}
	codes, err := uc.decoder.Decode(ctx, Grayscale(img))
	if err != nil {
		return nil, fmt.Errorf("decodificar código: %w", err)
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: no se detectó ningún código en la imagen", domain.ErrNotFound)
	}
	uc.log.Debug().Str("format", format).Int("codes", len(codes)).Msg("imagen decodificada")
	return &dto.DecodeResponse{Codes: codes}, nil
}

// Increment suma una unidad al lote de ingreso más reciente del producto con ese código.
func (uc *UseCase) Increment(ctx context.Context, operatorID string, in dto.IncrementRequest) (*dto.IncrementResponse, error) {
	barcode := strings.TrimSpace(in.Barcode)
	if barcode == "" {
		return nil, domain.Invalid("barcode", "es obligatorio")
	}
	var out dto.IncrementResponse
	err := uc.txRunner.RunStock(ctx, func(productRepo repository.ProductRepository, lotRepo repository.LotRepository) error {
		product, err := productRepo.GetByBarcode(ctx, barcode)
		if err != nil {
			return err
		}
		if product == nil {
			return fmt.Errorf("%w: producto con código %s", domain.ErrNotFound, barcode)
		}
		lot, err := lotRepo.LatestIngestedForUpdate(ctx, product.ID)
		if err != nil {
			return err
		}
		if lot == nil {
			return fmt.Errorf("%w: el producto %s no tiene lotes", domain.ErrNotFound, barcode)
		}
		if lot.Quantity >= entity.MaxQuantity {
			return domain.Invalid("quantity", "el lote "+lot.LotNumber+" alcanzó la cantidad máxima")
		}
		if err := lotRepo.SetQuantity(ctx, lot.ID, lot.Quantity+1); err != nil {
			return err
		}
		out = dto.IncrementResponse{
			ProductID:   product.ID,
			ProductName: product.Name,
			LotID:       lot.ID,
			LotNumber:   lot.LotNumber,
			Quantity:    lot.Quantity + 1,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("operator_id", operatorID).Str("barcode", barcode).Str("lot", out.LotNumber).
		Int("quantity", out.Quantity).Msg("unidad sumada por escáner")
	return &out, nil
}

// Grayscale copia la imagen a escala de grises.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)
	return gray
}


package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
)

// MaxImageBytes tamaño máximo de la imagen de un producto.
const MaxImageBytes = 5 << 20

// ProductUseCase casos de uso CRUD para productos. El stock se maneja en los lotes.
type ProductUseCase struct {
	repo repository.ProductRepository
	log  zerolog.Logger
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, log zerolog.Logger) *ProductUseCase {
	return &ProductUseCase{repo: repo, log: log.With().Str("component", "product").Logger()}
}

// Create crea un nuevo producto. El código de barras es único en el catálogo.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	required := []struct{ field, value string }{
		{"name", in.Name},
		{"barcode", in.Barcode},
		{"presentation", in.Presentation},
		{"size", in.Size},
		{"color", in.Color},
		{"registration", in.Registration},
		{"supplier", in.Supplier},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, domain.Invalid(r.field, "es obligatorio")
		}
	}
	if in.MinStock == nil || *in.MinStock < 0 {
		return nil, domain.Invalid("min_stock", "es obligatorio y no puede ser negativo")
	}
	existing, err := uc.repo.GetByBarcode(ctx, strings.TrimSpace(in.Barcode))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	product := &entity.Product{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Barcode:      strings.TrimSpace(in.Barcode),
		Presentation: in.Presentation,
		Size:         in.Size,
		Color:        in.Color,
		Supplier:     in.Supplier,
		Registration: in.Registration,
		Description:  in.Description,
		MinStock:     *in.MinStock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	uc.log.Info().Str("product_id", product.ID).Str("barcode", product.Barcode).Msg("producto creado")
	return toProductResponse(product, nil), nil
}

// GetByID obtiene un producto por ID. (nil, nil) si no existe.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	if !entity.ValidID(id) {
		return nil, nil
	}
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return toProductResponse(product, nil), nil
}

// Update actualiza solo los campos presentes en la solicitud. (nil, nil) si no existe.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if !entity.ValidID(id) {
		return nil, nil
	}
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	set := func(dst *string, src *string, field string) error {
		if src == nil {
			return nil
		}
		if strings.TrimSpace(*src) == "" {
			return domain.Invalid(field, "no puede quedar vacío")
		}
		*dst = strings.TrimSpace(*src)
		return nil
	}
	for _, f := range []struct {
		dst   *string
		src   *string
		field string
	}{
		{&product.Name, in.Name, "name"},
		{&product.Barcode, in.Barcode, "barcode"},
		{&product.Presentation, in.Presentation, "presentation"},
		{&product.Size, in.Size, "size"},
		{&product.Color, in.Color, "color"},
		{&product.Registration, in.Registration, "registration"},
		{&product.Supplier, in.Supplier, "supplier"},
	} {
		if err := set(f.dst, f.src, f.field); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.MinStock != nil {
		if *in.MinStock < 0 {
			return nil, domain.Invalid("min_stock", "no puede ser negativo")
		}
		product.MinStock = *in.MinStock
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product, nil), nil
}

// List lista productos con su stock total y la marca de stock bajo.
func (uc *ProductUseCase) List(ctx context.Context) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return toProductList(list), nil
}

// ListLowStock productos cuyo total está por debajo del mínimo.
func (uc *ProductUseCase) ListLowStock(ctx context.Context) (*dto.ProductListResponse, error) {
	list, err := uc.repo.ListBelowMinStock(ctx)
	if err != nil {
		return nil, err
	}
	return toProductList(list), nil
}

// Delete elimina un producto. Si tiene lotes o remisiones devuelve domain.ErrConflict.
func (uc *ProductUseCase) Delete(ctx context.Context, id string) error {
	if !entity.ValidID(id) {
		return domain.ErrNotFound
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Info().Str("product_id", id).Msg("producto eliminado")
	return nil
}

// UploadImage guarda la imagen del producto sin transformarla; solo se acepta image/*.
func (uc *ProductUseCase) UploadImage(ctx context.Context, id string, data []byte) error {
	if len(data) == 0 {
		return domain.Invalid("image", "archivo vacío")
	}
	if len(data) > MaxImageBytes {
		return domain.Invalid("image", "la imagen supera 5 MB")
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return domain.Invalid("image", "tipo no soportado: "+contentType)
	}
	if !entity.ValidID(id) {
		return domain.ErrNotFound
	}
	return uc.repo.UpdateImage(ctx, id, data, contentType)
}

// GetImage devuelve la imagen y su tipo. domain.ErrNotFound si el producto no tiene imagen.
func (uc *ProductUseCase) GetImage(ctx context.Context, id string) ([]byte, string, error) {
	if !entity.ValidID(id) {
		return nil, "", domain.ErrNotFound
	}
	data, contentType, err := uc.repo.GetImage(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", domain.ErrNotFound
	}
	return data, contentType, nil
}

func toProductList(list []*entity.ProductStock) *dto.ProductListResponse {
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(&p.Product, p))
	}
	return &dto.ProductListResponse{Items: items, Total: len(items)}
}

func toProductResponse(p *entity.Product, stock *entity.ProductStock) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	out := &dto.ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Barcode:      p.Barcode,
		Presentation: p.Presentation,
		Size:         p.Size,
		Color:        p.Color,
		Registration: p.Registration,
		Supplier:     p.Supplier,
		Description:  p.Description,
		MinStock:     p.MinStock,
		HasImage:     p.HasImage,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
	if stock != nil {
		total, below := stock.TotalQuantity, stock.BelowMinStock()
		out.TotalQuantity, out.BelowMinStock = &total, &below
	}
	return out
}

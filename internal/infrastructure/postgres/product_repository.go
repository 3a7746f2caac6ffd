package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `p.id, p.name, p.barcode, p.presentation, p.size, p.color, p.supplier, p.registration,
	p.description, p.min_stock, (p.image IS NOT NULL), p.created_at, p.updated_at`

func scanProduct(row pgx.Row, p *entity.Product, extra ...any) error {
	dest := []any{
		&p.ID, &p.Name, &p.Barcode, &p.Presentation, &p.Size, &p.Color, &p.Supplier, &p.Registration,
		&p.Description, &p.MinStock, &p.HasImage, &p.CreatedAt, &p.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (id, name, barcode, presentation, size, color, supplier, registration, description, min_stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.Name, p.Barcode, p.Presentation, p.Size, p.Color, p.Supplier, p.Registration,
		p.Description, p.MinStock, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id)
}

// GetByBarcode obtiene un producto por código de barras.
func (r *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products p WHERE p.barcode = $1`, barcode)
}

func (r *ProductRepo) getOne(ctx context.Context, query string, arg any) (*entity.Product, error) {
	var p entity.Product
	if err := scanProduct(r.q.QueryRow(ctx, query, arg), &p); err != nil {
		if noRow(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// Update actualiza los datos del producto (no la imagen).
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	query := `
		UPDATE products SET name = $2, barcode = $3, presentation = $4, size = $5, color = $6, supplier = $7,
			registration = $8, description = $9, min_stock = $10, updated_at = $11
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		p.ID, p.Name, p.Barcode, p.Presentation, p.Size, p.Color, p.Supplier, p.Registration,
		p.Description, p.MinStock, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateImage guarda la imagen del producto.
func (r *ProductRepo) UpdateImage(ctx context.Context, id string, data []byte, contentType string) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE products SET image = $2, image_content_type = $3, updated_at = now() WHERE id = $1`,
		id, data, contentType,
	)
	if err != nil {
		return fmt.Errorf("update product image: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetImage devuelve la imagen y su content type; (nil, "", nil) si no tiene.
func (r *ProductRepo) GetImage(ctx context.Context, id string) ([]byte, string, error) {
	var (
		data        []byte
		contentType *string
	)
	err := r.q.QueryRow(ctx, `SELECT image, image_content_type FROM products WHERE id = $1`, id).Scan(&data, &contentType)
	if err != nil {
		if noRow(err) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("get product image: %w", err)
	}
	if len(data) == 0 {
		return nil, "", nil
	}
	ct := "application/octet-stream"
	if contentType != nil && *contentType != "" {
		ct = *contentType
	}
	return data, ct, nil
}

// List productos con el total de sus lotes, ordenados por nombre.
func (r *ProductRepo) List(ctx context.Context) ([]*entity.ProductStock, error) {
	return r.listStock(ctx, "")
}

// ListBelowMinStock productos cuyo total está por debajo de min_stock.
func (r *ProductRepo) ListBelowMinStock(ctx context.Context) ([]*entity.ProductStock, error) {
	return r.listStock(ctx, `HAVING COALESCE(SUM(l.quantity), 0) < p.min_stock`)
}

func (r *ProductRepo) listStock(ctx context.Context, having string) ([]*entity.ProductStock, error) {
	query := `
		SELECT ` + productColumns + `, COALESCE(SUM(l.quantity), 0)
		FROM products p
		LEFT JOIN lots l ON l.product_id = p.id
		GROUP BY p.id
		` + having + `
		ORDER BY p.name, p.barcode`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductStock
	for rows.Next() {
		var ps entity.ProductStock
		if err := scanProduct(rows, &ps.Product, &ps.TotalQuantity); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &ps)
	}
	return list, rows.Err()
}

// Delete elimina un producto por ID. Si tiene lotes, carrito o remisiones devuelve ErrConflict.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: el producto tiene lotes o remisiones asociadas", domain.ErrConflict)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

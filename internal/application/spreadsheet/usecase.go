package spreadsheet

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
)

// Valores por defecto de la importación de productos.
const (
	DefaultRegistration = "N/A"
	DefaultDescription  = "Descripción"
	DefaultMinStock     = 3
)

// StockTxRunner ejecuta fn en una transacción con repos de productos y lotes.
type StockTxRunner interface {
	RunStock(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		lotRepo repository.LotRepository,
	) error) error
}

// UseCase importación y exportación de hojas de cálculo.
// Cada archivo se importa en una transacción: los problemas de una fila son advertencias,
// un error de la BD revierte el archivo completo.
type UseCase struct {
	workbook    Workbook
	txRunner    StockTxRunner
	productRepo repository.ProductRepository
	log         zerolog.Logger
	now         func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(workbook Workbook, txRunner StockTxRunner, productRepo repository.ProductRepository, log zerolog.Logger) *UseCase {
	return &UseCase{
		workbook:    workbook,
		txRunner:    txRunner,
		productRepo: productRepo,
		log:         log.With().Str("component", "spreadsheet").Logger(),
		now:         time.Now,
	}
}

func (uc *UseCase) readRecords(r io.Reader) ([]record, error) {
	rows, err := uc.workbook.ReadFirstSheet(r)
	if err != nil {
		return nil, fmt.Errorf("%w: no se pudo leer el archivo: %v", domain.ErrInvalidInput, err)
	}
	if len(rows) == 0 {
		return nil, domain.Invalid("file", "la hoja está vacía")
	}
	index := columnIndex(rows[0])
	records := make([]record, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		rec := record{cells: cells, index: index}
		if !rec.empty() {
			records = append(records, rec)
		}
	}
	return records, nil
}

// ImportProducts crea los productos de la primera hoja. Filas incompletas o con código de
// barras existente se omiten con advertencia.
func (uc *UseCase) ImportProducts(ctx context.Context, r io.Reader) (*dto.ImportResult, error) {
	records, err := uc.readRecords(r)
	if err != nil {
		return nil, err
	}
	var res dto.ImportResult
	err = uc.txRunner.RunStock(ctx, func(productRepo repository.ProductRepository, _ repository.LotRepository) error {
		res = dto.ImportResult{Warnings: []string{}}
		for i, rec := range records {
			row := i + 2
			res.Processed++
			p, warn := uc.productFromRecord(rec)
			if warn != "" {
				uc.skip(&res, row, warn)
				continue
			}
			existing, err := productRepo.GetByBarcode(ctx, p.Barcode)
			if err != nil {
				return err
			}
			if existing != nil {
				uc.skip(&res, row, "ya existe un producto con código de barras "+p.Barcode)
				continue
			}
			if err := productRepo.Create(ctx, p); err != nil {
				return err
			}
			res.Created++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int("processed", res.Processed).Int("created", res.Created).Int("skipped", res.Skipped).
		Msg("importación de productos")
	return &res, nil
}

func (uc *UseCase) productFromRecord(rec record) (*entity.Product, string) {
	now := uc.now()
	p := &entity.Product{
		ID:           uuid.New().String(),
		Name:         rec.get(colName),
		Barcode:      rec.get(colBarcode),
		Presentation: rec.get(colPresentation),
		Size:         rec.get(colSize),
		Color:        rec.get(colColor),
		Registration: orDefault(rec.get(colRegistration), DefaultRegistration),
		Supplier:     rec.get(colSupplier),
		Description:  orDefault(rec.get(colDescription), DefaultDescription),
		MinStock:     DefaultMinStock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	var missing []string
	for field, v := range map[string]string{
		"nombre": p.Name, "código de barras": p.Barcode, "presentación": p.Presentation,
		"tamaño": p.Size, "color": p.Color, "proveedor": p.Supplier,
	} {
		if v == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, fmt.Sprintf("faltan campos obligatorios (%s) para %s", strings.Join(missing, ", "), describe(p.Name, p.Barcode))
	}
	if raw := rec.get(colMinStock); raw != "" {
		n, err := parseQuantity(raw)
		if err != nil {
			return nil, fmt.Sprintf("stock mínimo inválido %q para %s", raw, describe(p.Name, p.Barcode))
		}
		p.MinStock = n
	}
	return p, ""
}

// ImportLots suma cantidades a lotes existentes o crea lotes nuevos. Productos desconocidos
// y filas incompletas se omiten con advertencia.
func (uc *UseCase) ImportLots(ctx context.Context, r io.Reader) (*dto.ImportResult, error) {
	records, err := uc.readRecords(r)
	if err != nil {
		return nil, err
	}
	var res dto.ImportResult
	err = uc.txRunner.RunStock(ctx, func(productRepo repository.ProductRepository, lotRepo repository.LotRepository) error {
		res = dto.ImportResult{Warnings: []string{}}
		for i, rec := range records {
			row := i + 2
			res.Processed++
			barcode, lotNumber, rawQty := rec.get(colBarcode), rec.get(colLotNumber), rec.get(colQuantity)
			if barcode == "" || lotNumber == "" || rawQty == "" {
				uc.skip(&res, row, fmt.Sprintf("faltan datos: código %q, lote %q, cantidad %q", barcode, lotNumber, rawQty))
				continue
			}
			qty, err := parseQuantity(rawQty)
			if err != nil || qty <= 0 {
				uc.skip(&res, row, fmt.Sprintf("cantidad inválida %q en lote %s", rawQty, lotNumber))
				continue
			}
			expiry, err := uc.parseExpiry(rec.get(colExpiry))
			if err != nil {
				uc.skip(&res, row, fmt.Sprintf("fecha de vencimiento inválida %q en lote %s", rec.get(colExpiry), lotNumber))
				continue
			}
			product, err := productRepo.GetByBarcode(ctx, barcode)
			if err != nil {
				return err
			}
			if product == nil {
				uc.skip(&res, row, "producto no encontrado: "+barcode)
				continue
			}
			current, err := lotRepo.GetForUpdate(ctx, product.ID, lotNumber)
			if err != nil {
				return err
			}
			if current != nil && current.Quantity > entity.MaxQuantity-qty {
				uc.skip(&res, row, fmt.Sprintf("el lote %s superaría la cantidad máxima", lotNumber))
				continue
			}
			existed, err := lotRepo.AddQuantity(ctx, product.ID, lotNumber, qty, expiry)
			if err != nil {
				return err
			}
			if existed {
				res.Updated++
			} else {
				res.Created++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int("processed", res.Processed).Int("created", res.Created).Int("updated", res.Updated).
		Int("skipped", res.Skipped).Msg("importación de lotes")
	return &res, nil
}

// ExportProducts escribe el catálogo con su stock total.
func (uc *UseCase) ExportProducts(ctx context.Context, w io.Writer) error {
	list, err := uc.productRepo.List(ctx)
	if err != nil {
		return err
	}
	columns := []Column{
		{Header: "ID", Width: 38},
		{Header: "Nombre", Width: 40},
		{Header: "Código de Barras", Width: 20},
		{Header: "Cantidad", Width: 10},
		{Header: "Tamaño", Width: 10},
		{Header: "Color", Width: 10},
		{Header: "Descripción", Width: 30},
		{Header: "Stock Mínimo", Width: 14},
	}
	rows := make([][]any, 0, len(list))
	for _, p := range list {
		rows = append(rows, []any{p.ID, p.Name, p.Barcode, p.TotalQuantity, p.Size, p.Color, p.Description, p.MinStock})
	}
	return uc.workbook.WriteTable(w, "Productos", columns, rows)
}

func (uc *UseCase) skip(res *dto.ImportResult, row int, msg string) {
	res.Skipped++
	res.Warnings = append(res.Warnings, fmt.Sprintf("fila %d: %s", row, msg))
	uc.log.Warn().Int("row", row).Msg(msg)
}

// parseExpiry acepta vacío, serial de Excel, AAAA-MM-DD y dd/mm/aaaa.
func (uc *UseCase) parseExpiry(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if serial, err := decimal.NewFromString(raw); err == nil {
		t, err := uc.workbook.SerialToTime(serial.InexactFloat64())
		if err != nil {
			return nil, err
		}
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d, nil
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", "2/1/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, domain.Invalid("expiry", raw)
}

var maxQuantity = decimal.NewFromInt(entity.MaxQuantity)

// parseQuantity entero entre 0 y entity.MaxQuantity; acepta "10" y "10.0" (Excel guarda
// números como flotantes).
func parseQuantity(raw string) (int, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) || d.IsNegative() || d.GreaterThan(maxQuantity) {
		return 0, domain.Invalid("quantity", raw)
	}
	return int(d.IntPart()), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func describe(name, barcode string) string {
	if name == "" {
		name = "sin nombre"
	}
	if barcode == "" {
		barcode = "sin código"
	}
	return fmt.Sprintf("%s (%s)", name, barcode)
}

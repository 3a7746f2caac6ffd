// Package memstore implementa los repositorios en memoria para tests de casos de uso.
// TxRunner restaura el estado completo si la función devuelve error.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/count"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
)

// Store estado compartido por todos los repositorios en memoria.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	products  map[string]*entity.Product
	images    map[string][]byte
	lots      map[string]*entity.Lot
	cart      map[string]*entity.CartEntry
	shipments map[string]*entity.Shipment
	lines     []*entity.ShipmentLine
	seq       int64

	// Fail errores inyectados por nombre de método ("LotRepo.Decrement").
	Fail map[string]error
	// Now reloj para IngestedAt y fechas de firma.
	Now func() time.Time
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		products:  map[string]*entity.Product{},
		images:    map[string][]byte{},
		lots:      map[string]*entity.Lot{},
		cart:      map[string]*entity.CartEntry{},
		shipments: map[string]*entity.Shipment{},
		Fail:      map[string]error{},
		Now:       time.Now,
	}
}

func (s *Store) fail(method string) error {
	if err, ok := s.Fail[method]; ok {
		return err
	}
	return nil
}

// Products repositorio de productos.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Lots repositorio de lotes.
func (s *Store) Lots() *LotRepo { return &LotRepo{s: s} }

// Cart repositorio del carrito.
func (s *Store) Cart() *CartRepo { return &CartRepo{s: s} }

// Shipments repositorio de remisiones.
func (s *Store) Shipments() *ShipmentRepo { return &ShipmentRepo{s: s} }

// ── Helpers de preparación ────────────────────────────────────────────────────

// AddProduct registra un producto y lo devuelve.
func (s *Store) AddProduct(p entity.Product) *entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	s.products[p.ID] = &p
	return &p
}

// AddLot registra un lote y lo devuelve.
func (s *Store) AddLot(l entity.Lot) *entity.Lot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.IngestedAt.IsZero() {
		l.IngestedAt = s.Now()
	}
	s.lots[l.ID] = &l
	return &l
}

// AddShipment registra una remisión ya existente (para pruebas de firmas pendientes).
func (s *Store) AddShipment(sh entity.Shipment) *entity.Shipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh.ID == "" {
		sh.ID = uuid.New().String()
	}
	s.seq++
	sh.Number = s.seq
	s.shipments[sh.ID] = &sh
	return &sh
}

// LotQuantity cantidad actual de (producto, lote); -1 si no existe.
func (s *Store) LotQuantity(productID, lotNumber string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l := s.findLot(productID, lotNumber); l != nil {
		return l.Quantity
	}
	return -1
}

// FindLot copia del lote (producto, lote) o nil.
func (s *Store) FindLot(productID, lotNumber string) *entity.Lot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l := s.findLot(productID, lotNumber); l != nil {
		c := *l
		return &c
	}
	return nil
}

// CartSize número de entradas de carrito del operario.
func (s *Store) CartSize(operatorID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.cart {
		if e.OperatorID == operatorID {
			n++
		}
	}
	return n
}

// ShipmentCount número de remisiones.
func (s *Store) ShipmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shipments)
}

// ProductCount número de productos.
func (s *Store) ProductCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products)
}

func (s *Store) findLot(productID, lotNumber string) *entity.Lot {
	for _, l := range s.lots {
		if l.ProductID == productID && l.LotNumber == lotNumber {
			return l
		}
	}
	return nil
}

func (s *Store) productByBarcode(barcode string) *entity.Product {
	for _, p := range s.products {
		if p.Barcode == barcode {
			return p
		}
	}
	return nil
}

// ── Transacciones ─────────────────────────────────────────────────────────────

type snapshot struct {
	products  map[string]entity.Product
	images    map[string][]byte
	lots      map[string]entity.Lot
	cart      map[string]entity.CartEntry
	shipments map[string]entity.Shipment
	lines     []*entity.ShipmentLine
	seq       int64
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		products:  map[string]entity.Product{},
		images:    maps.Clone(s.images),
		lots:      map[string]entity.Lot{},
		cart:      map[string]entity.CartEntry{},
		shipments: map[string]entity.Shipment{},
		lines:     slices.Clone(s.lines),
		seq:       s.seq,
	}
	for k, v := range s.products {
		snap.products[k] = *v
	}
	for k, v := range s.lots {
		snap.lots[k] = *v
	}
	for k, v := range s.cart {
		snap.cart[k] = *v
	}
	for k, v := range s.shipments {
		snap.shipments[k] = *v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = map[string]*entity.Product{}
	for k, v := range snap.products {
		v := v
		s.products[k] = &v
	}
	s.images = snap.images
	s.lots = map[string]*entity.Lot{}
	for k, v := range snap.lots {
		v := v
		s.lots[k] = &v
	}
	s.cart = map[string]*entity.CartEntry{}
	for k, v := range snap.cart {
		v := v
		s.cart[k] = &v
	}
	s.shipments = map[string]*entity.Shipment{}
	for k, v := range snap.shipments {
		v := v
		s.shipments[k] = &v
	}
	s.lines = snap.lines
	s.seq = snap.seq
}

// TxRunner serializa las transacciones y revierte el store si fn falla.
type TxRunner struct {
	s *Store
	// Runs número de transacciones iniciadas.
	Runs int
}

// TxRunner runner transaccional del store.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

func (r *TxRunner) begin(fn func() error) error {
	r.s.txMu.Lock()
	defer r.s.txMu.Unlock()
	r.Runs++
	if err := r.s.fail("TxRunner.Begin"); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransactionFailed, err)
	}
	snap := r.s.snapshot()
	if err := fn(); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}

// Run ejecuta fn con repos de lotes, carrito y remisiones.
func (r *TxRunner) Run(ctx context.Context, fn func(
	lotRepo repository.LotRepository,
	cartRepo repository.CartRepository,
	shipmentRepo repository.ShipmentRepository,
) error) error {
	return r.begin(func() error { return fn(r.s.Lots(), r.s.Cart(), r.s.Shipments()) })
}

// RunStock ejecuta fn con repos de productos y lotes.
func (r *TxRunner) RunStock(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	lotRepo repository.LotRepository,
) error) error {
	return r.begin(func() error { return fn(r.s.Products(), r.s.Lots()) })
}

// ── ProductRepo ───────────────────────────────────────────────────────────────

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo productos en memoria.
type ProductRepo struct{ s *Store }

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ProductRepo.Create"); err != nil {
		return err
	}
	if r.s.productByBarcode(p.Barcode) != nil {
		return domain.ErrDuplicate
	}
	c := *p
	r.s.products[p.ID] = &c
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, ok := r.s.products[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (r *ProductRepo) GetByBarcode(_ context.Context, barcode string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ProductRepo.GetByBarcode"); err != nil {
		return nil, err
	}
	if p := r.s.productByBarcode(barcode); p != nil {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	if other := r.s.productByBarcode(p.Barcode); other != nil && other.ID != p.ID {
		return domain.ErrDuplicate
	}
	c := *p
	r.s.products[p.ID] = &c
	return nil
}

func (r *ProductRepo) UpdateImage(_ context.Context, id string, data []byte, _ string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.s.images[id] = slices.Clone(data)
	p.HasImage = true
	return nil
}

func (r *ProductRepo) GetImage(_ context.Context, id string) ([]byte, string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return nil, "", domain.ErrNotFound
	}
	img, ok := r.s.images[id]
	if !ok {
		return nil, "", nil
	}
	return img, "image/png", nil
}

func (r *ProductRepo) List(_ context.Context) ([]*entity.ProductStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.productStocks(func(*entity.ProductStock) bool { return true }), nil
}

func (r *ProductRepo) ListBelowMinStock(_ context.Context) ([]*entity.ProductStock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.productStocks((*entity.ProductStock).BelowMinStock), nil
}

func (s *Store) productStocks(keep func(*entity.ProductStock) bool) []*entity.ProductStock {
	out := make([]*entity.ProductStock, 0, len(s.products))
	for _, p := range s.products {
		ps := &entity.ProductStock{Product: *p}
		for _, l := range s.lots {
			if l.ProductID == p.ID {
				ps.TotalQuantity += l.Quantity
			}
		}
		if keep(ps) {
			out = append(out, ps)
		}
	}
	slices.SortFunc(out, func(a, b *entity.ProductStock) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func (r *ProductRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return domain.ErrNotFound
	}
	for _, l := range r.s.lots {
		if l.ProductID == id {
			return fmt.Errorf("%w: el producto tiene lotes o remisiones", domain.ErrConflict)
		}
	}
	delete(r.s.products, id)
	delete(r.s.images, id)
	return nil
}

// ── LotRepo ───────────────────────────────────────────────────────────────────

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo lotes en memoria.
type LotRepo struct{ s *Store }

func (r *LotRepo) byProduct(productID string, keep func(*entity.Lot) bool) []*entity.Lot {
	var out []*entity.Lot
	for _, l := range r.s.lots {
		if l.ProductID == productID && keep(l) {
			c := *l
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, compareLots)
	return out
}

func compareLots(a, b *entity.Lot) int {
	switch {
	case a.ExpiryDate != nil && b.ExpiryDate == nil:
		return -1
	case a.ExpiryDate == nil && b.ExpiryDate != nil:
		return 1
	case a.ExpiryDate != nil && b.ExpiryDate != nil:
		if c := a.ExpiryDate.Compare(*b.ExpiryDate); c != 0 {
			return c
		}
	}
	if c := a.IngestedAt.Compare(b.IngestedAt); c != 0 {
		return c
	}
	return strings.Compare(a.LotNumber, b.LotNumber)
}

func (r *LotRepo) ListAvailableForUpdate(_ context.Context, productID string) ([]*entity.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("LotRepo.ListAvailableForUpdate"); err != nil {
		return nil, err
	}
	return r.byProduct(productID, func(l *entity.Lot) bool { return l.Quantity > 0 }), nil
}

func (r *LotRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.byProduct(productID, func(*entity.Lot) bool { return true }), nil
}

func (r *LotRepo) GetByID(_ context.Context, id string) (*entity.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l, ok := r.s.lots[id]; ok {
		c := *l
		return &c, nil
	}
	return nil, nil
}

func (r *LotRepo) GetForUpdate(_ context.Context, productID, lotNumber string) (*entity.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("LotRepo.GetForUpdate"); err != nil {
		return nil, err
	}
	if l := r.s.findLot(productID, lotNumber); l != nil {
		c := *l
		return &c, nil
	}
	return nil, nil
}

func (r *LotRepo) Create(_ context.Context, l *entity.Lot) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("LotRepo.Create"); err != nil {
		return err
	}
	if r.s.findLot(l.ProductID, l.LotNumber) != nil {
		return domain.ErrDuplicate
	}
	if l.IngestedAt.IsZero() {
		l.IngestedAt = r.s.Now()
	}
	c := *l
	r.s.lots[l.ID] = &c
	return nil
}

func (r *LotRepo) AddQuantity(_ context.Context, productID, lotNumber string, qty int, expiry *time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("LotRepo.AddQuantity"); err != nil {
		return false, err
	}
	if l := r.s.findLot(productID, lotNumber); l != nil {
		l.Quantity += qty
		return true, nil
	}
	id := uuid.New().String()
	r.s.lots[id] = &entity.Lot{
		ID: id, ProductID: productID, LotNumber: lotNumber,
		Quantity: qty, ExpiryDate: expiry, IngestedAt: r.s.Now(),
	}
	return false, nil
}

func (r *LotRepo) Decrement(_ context.Context, productID, lotNumber string, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("LotRepo.Decrement"); err != nil {
		return err
	}
	l := r.s.findLot(productID, lotNumber)
	if l == nil || l.Quantity < qty {
		return domain.ErrInsufficientStock
	}
	l.Quantity -= qty
	return nil
}

func (r *LotRepo) SetQuantity(_ context.Context, id string, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("LotRepo.SetQuantity"); err != nil {
		return err
	}
	l, ok := r.s.lots[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.Quantity = qty
	return nil
}

func (r *LotRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.lots[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.lots, id)
	return nil
}

func (r *LotRepo) QuantitiesByRefs(_ context.Context, refs []count.LotRef) (map[count.LotRef]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("LotRepo.QuantitiesByRefs"); err != nil {
		return nil, err
	}
	out := make(map[count.LotRef]int, len(refs))
	for _, ref := range refs {
		p := r.s.productByBarcode(ref.Barcode)
		if p == nil {
			continue
		}
		if l := r.s.findLot(p.ID, ref.LotNumber); l != nil {
			out[ref] = l.Quantity
		}
	}
	return out, nil
}

func (r *LotRepo) LatestIngestedForUpdate(_ context.Context, productID string) (*entity.Lot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var latest *entity.Lot
	for _, l := range r.s.lots {
		if l.ProductID == productID && (latest == nil || l.IngestedAt.After(latest.IngestedAt)) {
			latest = l
		}
	}
	if latest == nil {
		return nil, nil
	}
	c := *latest
	return &c, nil
}

func (r *LotRepo) TotalByProduct(_ context.Context, productID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total := 0
	for _, l := range r.s.lots {
		if l.ProductID == productID {
			total += l.Quantity
		}
	}
	return total, nil
}

// ── CartRepo ──────────────────────────────────────────────────────────────────

var _ repository.CartRepository = (*CartRepo)(nil)

// CartRepo carrito en memoria.
type CartRepo struct{ s *Store }

func (r *CartRepo) Create(_ context.Context, e *entity.CartEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("CartRepo.Create"); err != nil {
		return err
	}
	c := *e
	r.s.cart[e.ID] = &c
	return nil
}

func (r *CartRepo) GetByIDForUpdate(_ context.Context, id string) (*entity.CartEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e, ok := r.s.cart[id]; ok {
		c := *e
		return &c, nil
	}
	return nil, nil
}

func (r *CartRepo) ListByOperator(_ context.Context, operatorID string) ([]*entity.CartEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.CartEntry
	for _, e := range r.s.cart {
		if e.OperatorID == operatorID {
			c := *e
			if p, ok := r.s.products[e.ProductID]; ok {
				c.ProductName, c.Barcode = p.Name, p.Barcode
			}
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *entity.CartEntry) int { return strings.Compare(a.LotNumber, b.LotNumber) })
	return out, nil
}

func (r *CartRepo) ListByOperatorForUpdate(ctx context.Context, operatorID string) ([]*entity.CartEntry, error) {
	return r.ListByOperator(ctx, operatorID)
}

func (r *CartRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.cart, id)
	return nil
}

func (r *CartRepo) DeleteByOperator(_ context.Context, operatorID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, e := range r.s.cart {
		if e.OperatorID == operatorID {
			delete(r.s.cart, id)
			n++
		}
	}
	return n, nil
}

// ── ShipmentRepo ──────────────────────────────────────────────────────────────

var _ repository.ShipmentRepository = (*ShipmentRepo)(nil)

// ShipmentRepo remisiones en memoria.
type ShipmentRepo struct{ s *Store }

func (r *ShipmentRepo) Create(_ context.Context, sh *entity.Shipment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ShipmentRepo.Create"); err != nil {
		return err
	}
	r.s.seq++
	sh.Number = r.s.seq
	c := *sh
	r.s.shipments[sh.ID] = &c
	return nil
}

func (r *ShipmentRepo) AddLine(_ context.Context, l *entity.ShipmentLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("ShipmentRepo.AddLine"); err != nil {
		return err
	}
	c := *l
	r.s.lines = append(r.s.lines, &c)
	return nil
}

func (r *ShipmentRepo) GetByID(_ context.Context, id string) (*entity.Shipment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if sh, ok := r.s.shipments[id]; ok {
		c := *sh
		return &c, nil
	}
	return nil, nil
}

func (r *ShipmentRepo) Lines(_ context.Context, shipmentID string) ([]*entity.ShipmentLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.ShipmentLine
	for _, l := range r.s.lines {
		if l.ShipmentID == shipmentID {
			c := *l
			if p, ok := r.s.products[l.ProductID]; ok {
				c.ProductName, c.Barcode = p.Name, p.Barcode
			}
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *ShipmentRepo) List(_ context.Context, createdBy string, limit, offset int) ([]*entity.Shipment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Shipment
	for _, sh := range r.s.shipments {
		if createdBy == "" || sh.CreatedBy == createdBy {
			c := *sh
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *entity.Shipment) int { return int(b.Number - a.Number) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ShipmentRepo) CountPendingSignatures(_ context.Context, operatorID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, sh := range r.s.shipments {
		if sh.CreatedBy == operatorID && sh.PendingReceipt() {
			n++
		}
	}
	return n, nil
}

func (r *ShipmentRepo) SignDelivery(_ context.Context, id, operatorID string, signature []byte) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sh, ok := r.s.shipments[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := r.s.Now()
	sh.DeliveredBy, sh.DeliveredAt = &operatorID, &now
	sh.DeliverySignature, sh.HasDeliverySignature = signature, true
	return nil
}

func (r *ShipmentRepo) SignReceipt(_ context.Context, id, operatorID string, signature []byte) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sh, ok := r.s.shipments[id]
	if !ok {
		return domain.ErrNotFound
	}
	now := r.s.Now()
	sh.ReceivedBy, sh.ReceivedAt = &operatorID, &now
	sh.ReceiptSignature, sh.HasReceiptSignature = signature, true
	return nil
}

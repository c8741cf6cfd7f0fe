package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/widegest/printflow/internal/domain"
	"github.com/widegest/printflow/internal/repository/ports"
)

// memOrderRepo is the in-memory stand-in for the order repository, mirroring
// the persistence semantics the tests depend on: the (store, code) uniqueness
// constraint, first-completion timestamps and the reset transaction.
type memOrderRepo struct {
	mu          sync.Mutex
	nextOrderID int64
	nextItemID  int64
	orders      map[int64]*domain.Order
	items       map[int64]*domain.OrderItem
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{
		orders: map[int64]*domain.Order{},
		items:  map[int64]*domain.OrderItem{},
	}
}

func (m *memOrderRepo) CreateWithItems(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.orders {
		if existing.StoreID == order.StoreID && existing.Code == order.Code {
			return nil, &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "orders_store_id_code_key"}
		}
	}

	m.nextOrderID++
	created := *order
	created.ID = m.nextOrderID
	created.CreatedAt = time.Now()
	created.Items = nil

	stored := created
	m.orders[created.ID] = &stored

	for idx := range order.Items {
		m.nextItemID++
		item := order.Items[idx]
		item.ID = m.nextItemID
		item.OrderID = created.ID
		for a := range item.Assets {
			item.Assets[a].ID = uuid.New()
			item.Assets[a].ItemID = item.ID
		}
		held := item
		m.items[item.ID] = &held
		created.Items = append(created.Items, copyItem(&held))
	}
	return &created, nil
}

func (m *memOrderRepo) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *order
	return &clone, nil
}

func (m *memOrderRepo) FindByCode(ctx context.Context, code string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, order := range m.orders {
		if order.Code == code {
			clone := *order
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memOrderRepo) List(ctx context.Context, limit, offset int) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]int64, 0, len(m.orders))
	for id := range m.orders {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []domain.Order{}
	for i, id := range ids {
		if i < offset || len(out) >= limit {
			continue
		}
		out = append(out, *m.orders[id])
	}
	return out, nil
}

func (m *memOrderRepo) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return int64(len(m.orders)), nil
}

func (m *memOrderRepo) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return sql.ErrNoRows
	}
	order.Status = status
	return nil
}

func (m *memOrderRepo) FindItem(ctx context.Context, itemID int64) (*domain.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := copyItem(item)
	return &clone, nil
}

func (m *memOrderRepo) ItemsByOrder(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []domain.OrderItem{}
	for _, item := range m.items {
		if item.OrderID == orderID {
			out = append(out, copyItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *memOrderRepo) SetPreprintStatus(ctx context.Context, itemID int64, status domain.PreprintStatus, completedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return sql.ErrNoRows
	}
	item.PreprintStatus = status
	if status == domain.PreprintStatusCompleted && item.PreprintCompletedAt == nil {
		item.PreprintCompletedAt = completedAt
	}
	return nil
}

func (m *memOrderRepo) SetPrintStatus(ctx context.Context, itemID int64, status domain.PrintStatus, completedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return sql.ErrNoRows
	}
	item.PrintStatus = status
	if status == domain.PrintStatusCompleted && item.PrintCompletedAt == nil {
		item.PrintCompletedAt = completedAt
	}
	return nil
}

func (m *memOrderRepo) SetItemJobRecord(ctx context.Context, itemID int64, phase domain.Phase, jobRecordID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return sql.ErrNoRows
	}
	switch phase {
	case domain.PhasePreprint:
		item.PreprintJobID = &jobRecordID
	case domain.PhasePrint:
		item.PrintJobID = &jobRecordID
	}
	return nil
}

func (m *memOrderRepo) SetItemMachine(ctx context.Context, itemID int64, machineID *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return sql.ErrNoRows
	}
	item.MachineID = machineID
	return nil
}

func (m *memOrderRepo) SetItemFlow(ctx context.Context, itemID int64, flowID *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return sql.ErrNoRows
	}
	item.FlowID = flowID
	return nil
}

func (m *memOrderRepo) ResetItem(ctx context.Context, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return sql.ErrNoRows
	}
	item.PreprintStatus = domain.PreprintStatusPending
	item.PrintStatus = domain.PrintStatusPending
	item.PreprintJobID = nil
	item.PrintJobID = nil
	item.PreprintCompletedAt = nil
	item.PrintCompletedAt = nil

	kept := item.Assets[:0]
	for _, a := range item.Assets {
		if a.Role != domain.AssetRoleOutput && a.Role != domain.AssetRoleLabel {
			kept = append(kept, a)
		}
	}
	item.Assets = kept
	return nil
}

func copyItem(item *domain.OrderItem) domain.OrderItem {
	clone := *item
	clone.Assets = append([]domain.Asset(nil), item.Assets...)
	return clone
}

var _ ports.OrderRepository = (*memOrderRepo)(nil)

// memAssetRepo reads and mutates the assets held on memOrderRepo items, so
// both views stay consistent within one test fixture.
type memAssetRepo struct {
	orders *memOrderRepo
}

func (m *memAssetRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	m.orders.mu.Lock()
	defer m.orders.mu.Unlock()

	for _, item := range m.orders.items {
		for _, a := range item.Assets {
			if a.ID == id {
				clone := a
				return &clone, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memAssetRepo) ListByItem(ctx context.Context, itemID int64) ([]domain.Asset, error) {
	m.orders.mu.Lock()
	defer m.orders.mu.Unlock()

	item, ok := m.orders.items[itemID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return append([]domain.Asset(nil), item.Assets...), nil
}

func (m *memAssetRepo) SetObject(ctx context.Context, id uuid.UUID, objectKey string, sizeBytes int64) error {
	m.orders.mu.Lock()
	defer m.orders.mu.Unlock()

	for _, item := range m.orders.items {
		for i := range item.Assets {
			if item.Assets[i].ID == id {
				key := objectKey
				size := sizeBytes
				item.Assets[i].ObjectKey = &key
				item.Assets[i].SizeBytes = &size
				return nil
			}
		}
	}
	return sql.ErrNoRows
}

var _ ports.AssetRepository = (*memAssetRepo)(nil)

type memStoreRepo struct {
	stores []domain.Store
}

func (m *memStoreRepo) FindByCode(ctx context.Context, code string) (*domain.Store, error) {
	for _, s := range m.stores {
		if s.Code == code {
			clone := s
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStoreRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Store, error) {
	for _, s := range m.stores {
		if s.ID == id {
			clone := s
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStoreRepo) List(ctx context.Context) ([]domain.Store, error) {
	return append([]domain.Store(nil), m.stores...), nil
}

type memProductRepo struct {
	products []domain.Product
}

func (m *memProductRepo) FindBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	for _, p := range m.products {
		if p.SKU == sku {
			clone := p
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	return append([]domain.Product(nil), m.products...), nil
}

type memMachineRepo struct {
	machines []domain.Machine
}

func (m *memMachineRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Machine, error) {
	for _, machine := range m.machines {
		if machine.ID == id {
			clone := machine
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memMachineRepo) List(ctx context.Context) ([]domain.Machine, error) {
	return append([]domain.Machine(nil), m.machines...), nil
}

type memFlowRepo struct {
	flows []domain.Flow
}

func (m *memFlowRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Flow, error) {
	for _, f := range m.flows {
		if f.ID == id {
			clone := f
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memFlowRepo) List(ctx context.Context) ([]domain.Flow, error) {
	return append([]domain.Flow(nil), m.flows...), nil
}

type memEndpointRepo struct {
	endpoints []domain.Endpoint
}

func (m *memEndpointRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Endpoint, error) {
	for _, e := range m.endpoints {
		if e.ID == id {
			clone := e
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memEndpointRepo) List(ctx context.Context) ([]domain.Endpoint, error) {
	return append([]domain.Endpoint(nil), m.endpoints...), nil
}

// memSwitchJobRepo reproduces the upsert contract: one row per (item, phase),
// identifier kept unless the event carries a new one, log append-only.
type memSwitchJobRepo struct {
	mu   sync.Mutex
	jobs []*domain.SwitchJob
}

func (m *memSwitchJobRepo) Upsert(ctx context.Context, ev ports.SwitchJobUpsert) (*domain.SwitchJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range m.jobs {
		if job.ItemID != nil && ev.ItemID != nil && *job.ItemID == *ev.ItemID && job.Phase == ev.Phase {
			if ev.JobID != "" {
				job.JobID = ev.JobID
			}
			job.Status = ev.Status
			job.Log += ev.LogLine
			clone := *job
			return &clone, nil
		}
	}
	job := &domain.SwitchJob{
		ID:      uuid.New(),
		OrderID: ev.OrderID,
		ItemID:  ev.ItemID,
		Phase:   ev.Phase,
		JobID:   ev.JobID,
		Status:  ev.Status,
		Log:     ev.LogLine,
	}
	m.jobs = append(m.jobs, job)
	clone := *job
	return &clone, nil
}

func (m *memSwitchJobRepo) FindByItemAndPhase(ctx context.Context, itemID int64, phase domain.Phase) (*domain.SwitchJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range m.jobs {
		if job.ItemID != nil && *job.ItemID == itemID && job.Phase == phase {
			clone := *job
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

type memImportErrorRepo struct {
	records []domain.ImportError
}

func (m *memImportErrorRepo) Create(ctx context.Context, filename, reason string) error {
	m.records = append(m.records, domain.ImportError{
		ID:        uuid.New(),
		Filename:  filename,
		Reason:    reason,
		CreatedAt: time.Now(),
	})
	return nil
}

func (m *memImportErrorRepo) List(ctx context.Context, limit, offset int) ([]domain.ImportError, error) {
	return append([]domain.ImportError(nil), m.records...), nil
}

func (m *memImportErrorRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(m.records)), nil
}

type memAssetStorage struct {
	objects map[string][]byte
}

func newMemAssetStorage() *memAssetStorage {
	return &memAssetStorage{objects: map[string][]byte{}}
}

func (m *memAssetStorage) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memAssetStorage) Open(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, 0, sql.ErrNoRows
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (m *memAssetStorage) Exists(ctx context.Context, key string) (bool, int64, error) {
	data, ok := m.objects[key]
	return ok, int64(len(data)), nil
}

var _ ports.AssetStorage = (*memAssetStorage)(nil)

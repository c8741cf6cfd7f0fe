package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/widegest/printflow/internal/domain"
)

type assetFixture struct {
	orders  *memOrderRepo
	storage *memAssetStorage
	svc     *AssetService
	order   *domain.Order
	item    *domain.OrderItem
}

func newAssetFixture(t *testing.T, assets []domain.Asset) *assetFixture {
	t.Helper()

	orders := newMemOrderRepo()
	store := domain.Store{ID: uuid.New(), Code: "S1", Name: "Shop One", Active: true}
	stores := &memStoreRepo{stores: []domain.Store{store}}

	order, err := orders.CreateWithItems(context.Background(), &domain.Order{
		StoreID: store.ID,
		Code:    "ORD1",
		Status:  domain.OrderStatusNew,
		Items: []domain.OrderItem{{
			SKU:      "TSHIRT",
			Quantity: 1,
			Position: 1,
			Assets:   assets,
		}},
	})
	if err != nil {
		t.Fatalf("seeding order: %v", err)
	}

	storage := newMemAssetStorage()
	return &assetFixture{
		orders:  orders,
		storage: storage,
		svc:     NewAssetService(&memAssetRepo{orders: orders}, orders, stores, storage, time.Second),
		order:   order,
		item:    &order.Items[0],
	}
}

func TestFetchStoresObjectAndRecordsKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("front-side"))
	}))
	defer server.Close()

	f := newAssetFixture(t, []domain.Asset{
		{Role: domain.AssetRolePrint, SourceURL: server.URL + "/front.png", Position: 1},
	})
	assetID := f.item.Assets[0].ID

	if err := f.svc.Fetch(context.Background(), assetID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	item, err := f.orders.FindItem(context.Background(), f.item.ID)
	if err != nil {
		t.Fatalf("reloading line: %v", err)
	}
	asset := item.Assets[0]
	if !asset.Retrieved() {
		t.Fatal("asset not marked retrieved")
	}
	if !strings.HasPrefix(*asset.ObjectKey, "S1/ORD1/TSHIRT-") || !strings.HasSuffix(*asset.ObjectKey, ".png") {
		t.Fatalf("unexpected object key: %s", *asset.ObjectKey)
	}
	if asset.SizeBytes == nil || *asset.SizeBytes != int64(len("front-side")) {
		t.Fatalf("size not recorded: %v", asset.SizeBytes)
	}
	if string(f.storage.objects[*asset.ObjectKey]) != "front-side" {
		t.Fatal("stored bytes do not match the source")
	}
}

func TestFetchIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("same-bytes"))
	}))
	defer server.Close()

	f := newAssetFixture(t, []domain.Asset{
		{Role: domain.AssetRolePrint, SourceURL: server.URL + "/a.png", Position: 1},
	})
	assetID := f.item.Assets[0].ID

	if err := f.svc.Fetch(context.Background(), assetID); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	item, _ := f.orders.FindItem(context.Background(), f.item.ID)
	firstKey := *item.Assets[0].ObjectKey

	if err := f.svc.Fetch(context.Background(), assetID); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	item, _ = f.orders.FindItem(context.Background(), f.item.ID)
	if *item.Assets[0].ObjectKey != firstKey {
		t.Fatalf("object key changed on re-fetch: %s vs %s", firstKey, *item.Assets[0].ObjectKey)
	}
	if len(f.storage.objects) != 1 {
		t.Fatalf("re-fetch must overwrite, not duplicate: %d objects", len(f.storage.objects))
	}
}

func TestFetchUnknownAsset(t *testing.T) {
	f := newAssetFixture(t, nil)
	if err := f.svc.Fetch(context.Background(), uuid.New()); !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestFetchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	f := newAssetFixture(t, []domain.Asset{
		{Role: domain.AssetRolePrint, SourceURL: server.URL + "/gone.png", Position: 1},
	})
	if err := f.svc.Fetch(context.Background(), f.item.Assets[0].ID); err == nil {
		t.Fatal("expected error for upstream 410, got nil")
	}
	item, _ := f.orders.FindItem(context.Background(), f.item.ID)
	if item.Assets[0].Retrieved() {
		t.Fatal("asset must stay unretrieved after a failed download")
	}
}

func TestOpenBeforeFetch(t *testing.T) {
	f := newAssetFixture(t, []domain.Asset{
		{Role: domain.AssetRolePrint, SourceURL: "https://cdn/a.png", Position: 1},
	})
	_, _, _, err := f.svc.Open(context.Background(), f.item.Assets[0].ID)
	if !errors.Is(err, ErrAssetNotRetrieved) {
		t.Fatalf("expected ErrAssetNotRetrieved, got %v", err)
	}
}

func TestOpenSinglePrintAssetUsesFilenamePolicy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	f := newAssetFixture(t, []domain.Asset{
		{Role: domain.AssetRolePrint, SourceURL: server.URL + "/a.png", Position: 1},
	})
	assetID := f.item.Assets[0].ID
	if err := f.svc.Fetch(context.Background(), assetID); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	rc, size, name, err := f.svc.Open(context.Background(), assetID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()

	if name != "ORD1-1.png" {
		t.Fatalf("expected policy filename, got %q", name)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "png-bytes" || size != int64(len(data)) {
		t.Fatalf("stream mismatch: %q (%d)", data, size)
	}
}

func TestOpenPairedPrintAssetsGetFrontRearSuffixes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("side"))
	}))
	defer server.Close()

	f := newAssetFixture(t, []domain.Asset{
		{Role: domain.AssetRolePrint, SourceURL: server.URL + "/front.png", Position: 1},
		{Role: domain.AssetRolePrint, SourceURL: server.URL + "/rear.png", Position: 2},
	})

	want := []string{"ORD1-1_F.png", "ORD1-1_R.png"}
	for i, asset := range f.item.Assets {
		if err := f.svc.Fetch(context.Background(), asset.ID); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		rc, _, name, err := f.svc.Open(context.Background(), asset.ID)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		rc.Close()
		if name != want[i] {
			t.Fatalf("asset %d: expected %q, got %q", i, want[i], name)
		}
	}
}

func TestOpenScreenshotFallsBackToObjectName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("jpg"))
	}))
	defer server.Close()

	f := newAssetFixture(t, []domain.Asset{
		{Role: domain.AssetRoleScreenshot, SourceURL: server.URL + "/shot.jpg", Position: 1},
	})
	assetID := f.item.Assets[0].ID
	if err := f.svc.Fetch(context.Background(), assetID); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	rc, _, name, err := f.svc.Open(context.Background(), assetID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rc.Close()
	if !strings.HasPrefix(name, "TSHIRT-") || !strings.HasSuffix(name, ".jpg") {
		t.Fatalf("expected object-derived name, got %q", name)
	}
}

func TestFetchAllReportsPerAssetFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "bad") {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := newAssetFixture(t, []domain.Asset{
		{Role: domain.AssetRolePrint, SourceURL: server.URL + "/good.png", Position: 1},
		{Role: domain.AssetRolePrint, SourceURL: server.URL + "/bad.png", Position: 2},
	})

	item, _ := f.orders.FindItem(context.Background(), f.item.ID)
	failures := f.svc.FetchAll(context.Background(), item.Assets)
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}

	item, _ = f.orders.FindItem(context.Background(), f.item.ID)
	if !item.Assets[0].Retrieved() {
		t.Fatal("good asset should be retrieved")
	}
	if item.Assets[1].Retrieved() {
		t.Fatal("bad asset must stay unretrieved")
	}
	if _, reported := failures[item.Assets[1].ID]; !reported {
		t.Fatalf("failure map misses the bad asset: %v", failures)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/widegest/printflow/internal/domain"
	"github.com/widegest/printflow/internal/repository/ports"
)

var (
	ErrAssetNotFound     = errors.New("asset not found")
	ErrAssetNotRetrieved = errors.New("asset not retrieved yet")
)

// AssetService maps remote file references to locally retrievable objects.
// Retrieval is on demand and idempotent: the object key is derived from
// store, order and SKU, so fetching twice overwrites identically.
type AssetService struct {
	assets  ports.AssetRepository
	orders  ports.OrderRepository
	stores  ports.StoreRepository
	storage ports.AssetStorage
	client  *resty.Client
}

func NewAssetService(assets ports.AssetRepository, orders ports.OrderRepository, stores ports.StoreRepository, storage ports.AssetStorage, downloadTimeout time.Duration) *AssetService {
	if downloadTimeout <= 0 {
		downloadTimeout = 30 * time.Second
	}
	return &AssetService{
		assets:  assets,
		orders:  orders,
		stores:  stores,
		storage: storage,
		client:  resty.New().SetTimeout(downloadTimeout),
	}
}

// Fetch downloads the asset's source file into the asset store and records
// the object key and size.
func (s *AssetService) Fetch(ctx context.Context, assetID uuid.UUID) error {
	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		if isNotFound(err) {
			return ErrAssetNotFound
		}
		return err
	}

	item, err := s.orders.FindItem(ctx, asset.ItemID)
	if err != nil {
		return err
	}
	order, err := s.orders.FindByID(ctx, item.OrderID)
	if err != nil {
		return err
	}
	store, err := s.stores.FindByID(ctx, order.StoreID)
	if err != nil {
		return err
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(asset.SourceURL)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", asset.SourceURL, err)
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.StatusCode() != 200 {
		return fmt.Errorf("downloading %s: unexpected status %d", asset.SourceURL, resp.StatusCode())
	}

	key := objectKey(store.Code, order.Code, item.SKU, asset)
	contentType := resp.Header().Get("Content-Type")
	size := resp.RawResponse.ContentLength

	if err := s.storage.Put(ctx, key, contentType, body, size); err != nil {
		return err
	}

	stored := size
	if stored < 0 {
		if ok, n, err := s.storage.Exists(ctx, key); err == nil && ok {
			stored = n
		} else {
			stored = 0
		}
	}
	return s.assets.SetObject(ctx, asset.ID, key, stored)
}

// FetchAll retrieves every asset in the list, best-effort. Each failure is
// reported through the returned map and leaves that asset unretrieved.
func (s *AssetService) FetchAll(ctx context.Context, assets []domain.Asset) map[uuid.UUID]error {
	failures := map[uuid.UUID]error{}
	for _, asset := range assets {
		if err := s.Fetch(ctx, asset.ID); err != nil {
			failures[asset.ID] = err
		}
	}
	return failures
}

// Open streams a retrieved asset and computes its outbound filename per the
// filename policy. Returns ErrAssetNotRetrieved until Fetch has succeeded.
func (s *AssetService) Open(ctx context.Context, assetID uuid.UUID) (io.ReadCloser, int64, string, error) {
	asset, err := s.assets.FindByID(ctx, assetID)
	if err != nil {
		if isNotFound(err) {
			return nil, 0, "", ErrAssetNotFound
		}
		return nil, 0, "", err
	}
	if !asset.Retrieved() {
		return nil, 0, "", ErrAssetNotRetrieved
	}

	name, err := s.downloadName(ctx, asset)
	if err != nil {
		return nil, 0, "", err
	}

	rc, size, err := s.storage.Open(ctx, *asset.ObjectKey)
	if err != nil {
		return nil, 0, "", err
	}
	return rc, size, name, nil
}

func (s *AssetService) downloadName(ctx context.Context, asset *domain.Asset) (string, error) {
	fallback := path.Base(*asset.ObjectKey)
	if asset.Role != domain.AssetRolePrint {
		return fallback, nil
	}

	item, err := s.orders.FindItem(ctx, asset.ItemID)
	if err != nil {
		return "", err
	}
	order, err := s.orders.FindByID(ctx, item.OrderID)
	if err != nil {
		return "", err
	}

	prints := item.PrintAssets()
	index := -1
	for i, a := range prints {
		if a.ID == asset.ID {
			index = i
			break
		}
	}
	if index < 0 {
		return fallback, nil
	}
	if name := OutputFilename(order.Code, item.Position, index, len(prints)); name != nil {
		return *name, nil
	}
	return fallback, nil
}

// objectKey builds the shared-namespace key for a retrieved file. The order
// code keeps concurrent imports of different orders apart.
func objectKey(storeCode, orderCode, sku string, asset *domain.Asset) string {
	ext := ""
	if u, err := url.Parse(asset.SourceURL); err == nil {
		ext = path.Ext(u.Path)
	}
	return fmt.Sprintf("%s/%s/%s-%s%s", storeCode, orderCode, sku, asset.ID, ext)
}

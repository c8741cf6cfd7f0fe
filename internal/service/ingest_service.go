package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx/types"

	"github.com/widegest/printflow/internal/domain"
	"github.com/widegest/printflow/internal/ingest"
	"github.com/widegest/printflow/internal/repository/ports"
)

// ErrFileRejected marks a feed file that was rejected and recorded as an
// import error, as opposed to failing on infrastructure.
var ErrFileRejected = errors.New("feed file rejected")

// IngestService turns normalized feed files into orders. Rejection is total:
// an unknown store or a single unknown SKU aborts the whole file with no
// partial import.
type IngestService struct {
	orders       ports.OrderRepository
	stores       ports.StoreRepository
	products     ports.ProductRepository
	importErrors ports.ImportErrorRepository
	assets       *AssetService
}

func NewIngestService(
	orders ports.OrderRepository,
	stores ports.StoreRepository,
	products ports.ProductRepository,
	importErrors ports.ImportErrorRepository,
	assets *AssetService,
) *IngestService {
	return &IngestService{
		orders:       orders,
		stores:       stores,
		products:     products,
		importErrors: importErrors,
		assets:       assets,
	}
}

// ImportFile runs the per-file pipeline: parse, normalize, validate
// referential integrity, import atomically, then trigger best-effort asset
// retrieval. Every rejection is recorded against the filename for operator
// triage.
func (s *IngestService) ImportFile(ctx context.Context, filename string, data []byte) (*domain.Order, error) {
	src, err := ingest.Normalize(data)
	if err != nil {
		return nil, s.reject(ctx, filename, err.Error())
	}

	store, err := s.stores.FindByCode(ctx, src.StoreCode)
	if err != nil {
		if isNotFound(err) {
			return nil, s.reject(ctx, filename, fmt.Sprintf("unknown store %q", src.StoreCode))
		}
		return nil, err
	}
	if !store.Active {
		return nil, s.reject(ctx, filename, fmt.Sprintf("store %q is not active", src.StoreCode))
	}

	products, missing, err := s.resolveProducts(ctx, src.Items)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, s.reject(ctx, filename, "unknown SKU(s): "+strings.Join(missing, ", "))
	}

	order := buildOrder(store, src, products)
	created, err := s.orders.CreateWithItems(ctx, order)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, s.reject(ctx, filename,
				fmt.Sprintf("order %q already imported for store %q", src.Code, src.StoreCode))
		}
		return nil, err
	}

	// Retrieval is best-effort: a failed download leaves the asset without a
	// local path and the line gated until an operator retries.
	for _, item := range created.Items {
		for id, fetchErr := range s.assets.FetchAll(ctx, item.Assets) {
			log.Printf("ingest: retrieving asset %s for order %s: %v", id, created.Code, fetchErr)
		}
	}
	return created, nil
}

func (s *IngestService) resolveProducts(ctx context.Context, items []ingest.SourceItem) (map[string]*domain.Product, []string, error) {
	products := map[string]*domain.Product{}
	missingSet := map[string]struct{}{}
	for _, item := range items {
		if _, seen := products[item.SKU]; seen {
			continue
		}
		if _, seen := missingSet[item.SKU]; seen {
			continue
		}
		product, err := s.products.FindBySKU(ctx, item.SKU)
		if err != nil {
			if isNotFound(err) {
				missingSet[item.SKU] = struct{}{}
				continue
			}
			return nil, nil, err
		}
		products[item.SKU] = product
	}

	missing := make([]string, 0, len(missingSet))
	for sku := range missingSet {
		missing = append(missing, sku)
	}
	sort.Strings(missing)
	return products, missing, nil
}

func (s *IngestService) reject(ctx context.Context, filename, reason string) error {
	if err := s.importErrors.Create(ctx, filename, reason); err != nil {
		log.Printf("ingest: recording import error for %s: %v", filename, err)
	}
	return fmt.Errorf("%w: %s", ErrFileRejected, reason)
}

func buildOrder(store *domain.Store, src *ingest.SourceOrder, products map[string]*domain.Product) *domain.Order {
	order := &domain.Order{
		StoreID:       store.ID,
		Code:          src.Code,
		Status:        domain.OrderStatusNew,
		CustomerName:  src.CustomerName,
		CustomerEmail: src.CustomerEmail,
	}

	for idx, srcItem := range src.Items {
		product := products[srcItem.SKU]
		item := domain.OrderItem{
			SKU:            srcItem.SKU,
			ProductName:    product.Name,
			Quantity:       srcItem.Quantity,
			Position:       idx + 1,
			Raw:            types.JSONText(append([]byte(nil), srcItem.Raw...)),
			PreprintStatus: domain.PreprintStatusPending,
			PrintStatus:    domain.PrintStatusPending,
			FlowID:         product.DefaultFlowID,
		}
		item.CustomFields, item.WebhookFields, item.Scale = passThroughFields(srcItem.Raw)

		for pos, u := range srcItem.PrintURLs {
			item.Assets = append(item.Assets, domain.Asset{
				Role:      domain.AssetRolePrint,
				SourceURL: u,
				Position:  pos + 1,
			})
		}
		for pos, u := range srcItem.PreviewURLs {
			item.Assets = append(item.Assets, domain.Asset{
				Role:      domain.AssetRoleScreenshot,
				SourceURL: u,
				Position:  pos + 1,
			})
		}
		order.Items = append(order.Items, item)
	}
	return order
}

// passThroughFields lifts the custom/webhook blocks and scale factor out of
// the raw line payload. Both the generic and the cart-export shapes use
// these keys when present; absence means empty pass-through.
func passThroughFields(raw json.RawMessage) (custom, webhook domain.JSONMap, scale *float64) {
	custom, webhook = domain.JSONMap{}, domain.JSONMap{}
	if len(raw) == 0 {
		return custom, webhook, nil
	}
	var envelope struct {
		CustomFields  domain.JSONMap `json:"custom_fields"`
		CampiCustom   domain.JSONMap `json:"campi_custom"`
		WebhookFields domain.JSONMap `json:"webhook_fields"`
		CampiWebhook  domain.JSONMap `json:"campi_webhook"`
		Scale         *float64       `json:"scale"`
		Scala         *float64       `json:"scala"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return custom, webhook, nil
	}
	if envelope.CustomFields != nil {
		custom = envelope.CustomFields
	} else if envelope.CampiCustom != nil {
		custom = envelope.CampiCustom
	}
	if envelope.WebhookFields != nil {
		webhook = envelope.WebhookFields
	} else if envelope.CampiWebhook != nil {
		webhook = envelope.CampiWebhook
	}
	scale = envelope.Scale
	if scale == nil {
		scale = envelope.Scala
	}
	return custom, webhook, scale
}

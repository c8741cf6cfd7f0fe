package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/widegest/printflow/internal/domain"
	"github.com/widegest/printflow/internal/repository/ports"
)

var ErrDispatchRejected = errors.New("finishing system rejected the job")

// DispatchJob is the outbound job description posted to a phase endpoint.
type DispatchJob struct {
	IDRiga         int            `json:"id_riga"`
	CodiceOrdine   string         `json:"codice_ordine"`
	Product        string         `json:"product"`
	OperationID    int            `json:"operation_id"`
	JobOperationID string         `json:"job_operation_id"`
	URL            string         `json:"url"`
	WidegestURL    string         `json:"widegest_url"`
	Filename       *string        `json:"filename"`
	Quantita       int            `json:"quantita"`
	Materiale      *string        `json:"materiale"`
	CampiCustom    domain.JSONMap `json:"campi_custom"`
	OpzioniStampa  domain.JSONMap `json:"opzioni_stampa"`
	CampiWebhook   domain.JSONMap `json:"campi_webhook"`
	Scala          *float64       `json:"scala,omitempty"`
	NomeMacchina   *string        `json:"nome_macchina,omitempty"`
}

// DispatchResult reports the immediate accept outcome of one send.
type DispatchResult struct {
	JobID     string `json:"job_id"`
	Simulated bool   `json:"simulated"`
}

type DispatchConfig struct {
	// PublicBaseURL is this system's externally reachable base; the asset
	// retrieval URL and the widegest callback target are built from it.
	PublicBaseURL string
	Timeout       time.Duration
	// Simulate skips the network call and reports success with the
	// generated identifier. Used in tests and dry deployments.
	Simulate bool
}

// DispatchService builds outbound job descriptions and sends them to the
// external finishing system. Status changes normally arrive back through
// callbacks; the one exception is the eager flip to processing right after a
// successful send so the line reads as in flight.
type DispatchService struct {
	orders   ports.OrderRepository
	stores   ports.StoreRepository
	products ports.ProductRepository
	machines ports.MachineRepository
	jobs     ports.SwitchJobRepository
	lines    *LineService

	client        *resty.Client
	publicBaseURL string
	simulate      bool
	now           func() time.Time
}

func NewDispatchService(
	orders ports.OrderRepository,
	stores ports.StoreRepository,
	products ports.ProductRepository,
	machines ports.MachineRepository,
	jobs ports.SwitchJobRepository,
	lines *LineService,
	cfg DispatchConfig,
) *DispatchService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DispatchService{
		orders:        orders,
		stores:        stores,
		products:      products,
		machines:      machines,
		jobs:          jobs,
		lines:         lines,
		client:        resty.New().SetTimeout(timeout),
		publicBaseURL: cfg.PublicBaseURL,
		simulate:      cfg.Simulate,
		now:           time.Now,
	}
}

// Dispatch gates, builds and sends one phase job for an item. On HTTP or
// transport failure the phase flips to failed and the error is returned; the
// triggering request still completes.
func (s *DispatchService) Dispatch(ctx context.Context, itemID int64, phase domain.Phase) (*DispatchResult, error) {
	item, err := s.lines.Item(ctx, itemID)
	if err != nil {
		return nil, err
	}
	order, err := s.orders.FindByID(ctx, item.OrderID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if err := s.lines.CheckDispatchable(ctx, item, phase); err != nil {
		return nil, err
	}
	endpoint, err := s.lines.ResolveEndpoint(ctx, item, phase)
	if err != nil {
		return nil, err
	}

	job, err := s.buildJob(ctx, order, item, phase)
	if err != nil {
		return nil, err
	}

	if s.simulate {
		if err := s.recordAccepted(ctx, order, item, phase, job.JobOperationID,
			fmt.Sprintf("simulated dispatch of %s", job.JobOperationID)); err != nil {
			return nil, err
		}
		return &DispatchResult{JobID: job.JobOperationID, Simulated: true}, nil
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(job).
		Post(endpoint.URL)
	if err != nil {
		s.recordFailure(ctx, order, item, phase, job.JobOperationID,
			fmt.Sprintf("dispatch to %s failed: %v", endpoint.URL, err))
		return nil, fmt.Errorf("sending job to %s: %w", endpoint.URL, err)
	}
	if resp.IsError() {
		s.recordFailure(ctx, order, item, phase, job.JobOperationID,
			fmt.Sprintf("dispatch to %s rejected: %s %s", endpoint.URL, resp.Status(), resp.String()))
		return nil, fmt.Errorf("%w: %s", ErrDispatchRejected, resp.Status())
	}

	if err := s.recordAccepted(ctx, order, item, phase, job.JobOperationID,
		fmt.Sprintf("dispatched %s to %s", job.JobOperationID, endpoint.URL)); err != nil {
		return nil, err
	}
	return &DispatchResult{JobID: job.JobOperationID}, nil
}

func (s *DispatchService) buildJob(ctx context.Context, order *domain.Order, item *domain.OrderItem, phase domain.Phase) (*DispatchJob, error) {
	store, err := s.stores.FindByID(ctx, order.StoreID)
	if err != nil {
		return nil, fmt.Errorf("loading store: %w", err)
	}

	productName := item.ProductName
	var material *string
	options := domain.JSONMap{}
	if product, err := s.products.FindBySKU(ctx, item.SKU); err == nil {
		productName = product.Name
		material = product.Material
		options = product.PrintOptions
	} else if !isNotFound(err) {
		return nil, err
	}

	var machineName *string
	if item.MachineID != nil {
		machine, err := s.machines.FindByID(ctx, *item.MachineID)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
		if err == nil {
			machineName = &machine.Name
		}
	}

	prints := item.PrintAssets()
	var assetURL string
	if len(prints) > 0 {
		assetURL = fmt.Sprintf("%s/api/v1/assets/%s/file", s.publicBaseURL, prints[0].ID)
	}

	widegestURL := s.publicBaseURL + "/api/v1/callbacks/widegest"
	if store.WidegestBaseURL != nil && *store.WidegestBaseURL != "" {
		widegestURL = *store.WidegestBaseURL
	}

	return &DispatchJob{
		IDRiga:         item.Position,
		CodiceOrdine:   order.Code,
		Product:        productName,
		OperationID:    int(phase),
		JobOperationID: BuildJobRef(phase, order.ID, item.ID, s.now()),
		URL:            assetURL,
		WidegestURL:    widegestURL,
		Filename:       OutputFilename(order.Code, item.Position, 0, len(prints)),
		Quantita:       item.Quantity,
		Materiale:      material,
		CampiCustom:    item.CustomFields,
		OpzioniStampa:  options,
		CampiWebhook:   item.WebhookFields,
		Scala:          item.Scale,
		NomeMacchina:   machineName,
	}, nil
}

func (s *DispatchService) recordAccepted(ctx context.Context, order *domain.Order, item *domain.OrderItem, phase domain.Phase, jobID, logLine string) error {
	record, err := s.jobs.Upsert(ctx, ports.SwitchJobUpsert{
		OrderID: &order.ID,
		ItemID:  &item.ID,
		Phase:   phase,
		JobID:   jobID,
		Status:  domain.SwitchJobStatusSent,
		LogLine: s.logLine(logLine),
	})
	if err != nil {
		return err
	}
	if err := s.orders.SetItemJobRecord(ctx, item.ID, phase, record.ID); err != nil {
		return err
	}
	// In flight as far as operators are concerned.
	return s.lines.ApplyPhaseStatus(ctx, item, phase, "processing")
}

// recordFailure is best-effort bookkeeping on the error path; its own
// failures are swallowed so the original dispatch error wins.
func (s *DispatchService) recordFailure(ctx context.Context, order *domain.Order, item *domain.OrderItem, phase domain.Phase, jobID, logLine string) {
	_, _ = s.jobs.Upsert(ctx, ports.SwitchJobUpsert{
		OrderID: &order.ID,
		ItemID:  &item.ID,
		Phase:   phase,
		JobID:   jobID,
		Status:  domain.SwitchJobStatusFailed,
		LogLine: s.logLine(logLine),
	})
	_ = s.lines.ApplyPhaseStatus(ctx, item, phase, "failed")
}

func (s *DispatchService) logLine(msg string) string {
	return fmt.Sprintf("[%s] %s\n", s.now().UTC().Format(time.RFC3339), msg)
}

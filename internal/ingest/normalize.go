package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownShape = errors.New("unrecognized feed file shape")
	ErrMissingStore = errors.New("feed file has no store key")
	ErrMissingCode  = errors.New("feed file has no order code")
)

// SourceOrder is the canonical order shape every accepted feed file
// normalizes into before validation and import.
type SourceOrder struct {
	StoreCode     string
	StoreName     string
	Code          string
	CustomerName  *string
	CustomerEmail *string
	Items         []SourceItem
}

// SourceItem is one line descriptor. Raw holds the source line verbatim.
type SourceItem struct {
	SKU         string
	Quantity    int
	PrintURLs   []string
	PreviewURLs []string
	Raw         json.RawMessage
}

// flexID tolerates cart identifiers and order numbers arriving as either a
// JSON string or a JSON number.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*f = ""
		return nil
	}
	if len(s) > 0 && s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// Normalize parses one feed file into the canonical order shape. Two shapes
// are accepted: the generic pre-normalized shape and the cart-export shape
// where print files live in sibling arrays joined to line items by cart_id.
func Normalize(data []byte) (*SourceOrder, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing feed file: %w", err)
	}
	if _, ok := probe["line_items"]; ok {
		return normalizeCartExport(data)
	}
	if _, ok := probe["items"]; ok {
		return normalizeCanonical(data)
	}
	return nil, ErrUnknownShape
}

type canonicalFile struct {
	StoreID           string            `json:"store_id"`
	StoreName         string            `json:"store_name"`
	ExternalOrderCode flexID            `json:"external_order_code"`
	CustomerName      string            `json:"customer_name"`
	CustomerEmail     string            `json:"customer_email"`
	Items             []json.RawMessage `json:"items"`
}

type canonicalItem struct {
	SKU            string   `json:"sku"`
	Quantity       int      `json:"quantity"`
	ImageURLs      []string `json:"image_urls"`
	ScreenshotURLs []string `json:"screenshot_urls"`
}

func normalizeCanonical(data []byte) (*SourceOrder, error) {
	var file canonicalFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing feed file: %w", err)
	}
	if strings.TrimSpace(file.StoreID) == "" {
		return nil, ErrMissingStore
	}
	if file.ExternalOrderCode == "" {
		return nil, ErrMissingCode
	}

	order := &SourceOrder{
		StoreCode:     file.StoreID,
		StoreName:     file.StoreName,
		Code:          string(file.ExternalOrderCode),
		CustomerName:  optional(file.CustomerName),
		CustomerEmail: optional(file.CustomerEmail),
	}
	for idx, raw := range file.Items {
		var item canonicalItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("parsing item %d: %w", idx+1, err)
		}
		order.Items = append(order.Items, SourceItem{
			SKU:         item.SKU,
			Quantity:    quantityOrOne(item.Quantity),
			PrintURLs:   item.ImageURLs,
			PreviewURLs: item.ScreenshotURLs,
			Raw:         raw,
		})
	}
	return order, nil
}

type cartExportFile struct {
	SiteName    string            `json:"site_name"`
	Number      flexID            `json:"number"`
	ID          flexID            `json:"id"`
	LineItems   []json.RawMessage `json:"line_items"`
	PrintFiles  []cartPrintFiles  `json:"print_files_with_cart_id"`
	Screenshots []cartScreenshots `json:"screenshots_with_cart_id"`
	Billing     *cartBilling      `json:"billing"`
}

type cartBilling struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type cartPrintFiles struct {
	CartID flexID   `json:"cart_id"`
	Files  []string `json:"print_files"`
}

type cartScreenshots struct {
	CartID flexID   `json:"cart_id"`
	Shots  []string `json:"screenshots"`
}

type cartLineItem struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	MetaData struct {
		Lumise struct {
			CartID flexID `json:"cart_id"`
		} `json:"lumise_data"`
	} `json:"meta_data"`
}

func normalizeCartExport(data []byte) (*SourceOrder, error) {
	var file cartExportFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing feed file: %w", err)
	}
	if strings.TrimSpace(file.SiteName) == "" {
		return nil, ErrMissingStore
	}
	code := string(file.Number)
	if code == "" {
		code = string(file.ID)
	}
	if code == "" {
		return nil, ErrMissingCode
	}

	prints := make(map[string][]string, len(file.PrintFiles))
	for _, pf := range file.PrintFiles {
		if pf.CartID != "" {
			prints[string(pf.CartID)] = append(prints[string(pf.CartID)], pf.Files...)
		}
	}
	shots := make(map[string][]string, len(file.Screenshots))
	for _, sc := range file.Screenshots {
		if sc.CartID != "" {
			shots[string(sc.CartID)] = append(shots[string(sc.CartID)], sc.Shots...)
		}
	}

	order := &SourceOrder{
		StoreCode: file.SiteName,
		StoreName: file.SiteName,
		Code:      code,
	}
	if file.Billing != nil {
		name := strings.TrimSpace(file.Billing.FirstName + " " + file.Billing.LastName)
		order.CustomerName = optional(name)
		order.CustomerEmail = optional(file.Billing.Email)
	}

	for idx, raw := range file.LineItems {
		var item cartLineItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, fmt.Errorf("parsing line item %d: %w", idx+1, err)
		}
		src := SourceItem{
			SKU:      item.SKU,
			Quantity: quantityOrOne(item.Quantity),
			Raw:      raw,
		}
		// A line without a resolvable cart id simply carries no files.
		if cartID := string(item.MetaData.Lumise.CartID); cartID != "" {
			src.PrintURLs = prints[cartID]
			src.PreviewURLs = shots[cartID]
		}
		order.Items = append(order.Items, src)
	}
	return order, nil
}

func quantityOrOne(q int) int {
	if q <= 0 {
		return 1
	}
	return q
}

func optional(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

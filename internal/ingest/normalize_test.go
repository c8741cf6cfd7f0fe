package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeCanonicalShape(t *testing.T) {
	payload := `{
		"store_id": "S1",
		"store_name": "Shop One",
		"external_order_code": "ORD1",
		"customer_name": "Mario Rossi",
		"customer_email": "mario@example.com",
		"items": [
			{"sku": "X1", "quantity": 2, "image_urls": ["https://cdn/x1-front.png", "https://cdn/x1-back.png"], "screenshot_urls": ["https://cdn/x1-preview.jpg"]},
			{"sku": "X2", "image_urls": ["https://cdn/x2.png"]}
		]
	}`

	order, err := Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.StoreCode != "S1" || order.Code != "ORD1" {
		t.Fatalf("got store %q code %q", order.StoreCode, order.Code)
	}
	if order.CustomerName == nil || *order.CustomerName != "Mario Rossi" {
		t.Fatalf("customer name not carried: %v", order.CustomerName)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}

	first := order.Items[0]
	if first.SKU != "X1" || first.Quantity != 2 {
		t.Fatalf("first item: %+v", first)
	}
	if len(first.PrintURLs) != 2 || len(first.PreviewURLs) != 1 {
		t.Fatalf("first item urls: %v / %v", first.PrintURLs, first.PreviewURLs)
	}
	if !strings.Contains(string(first.Raw), `"sku": "X1"`) {
		t.Fatalf("raw line not kept verbatim: %s", first.Raw)
	}

	// Missing quantity defaults to one.
	if order.Items[1].Quantity != 1 {
		t.Fatalf("expected quantity fallback 1, got %d", order.Items[1].Quantity)
	}
}

func TestNormalizeCanonicalNumericOrderCode(t *testing.T) {
	payload := `{"store_id": "S1", "external_order_code": 4711, "items": []}`
	order, err := Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Code != "4711" {
		t.Fatalf("expected code 4711, got %q", order.Code)
	}
}

func TestNormalizeCartExportJoinsByCartID(t *testing.T) {
	payload := `{
		"site_name": "shop.example.it",
		"number": "1043",
		"billing": {"first_name": "Anna", "last_name": "Bianchi", "email": "anna@example.com"},
		"line_items": [
			{"sku": "TSHIRT", "quantity": 3, "meta_data": {"lumise_data": {"cart_id": "abc123"}}},
			{"sku": "MUG", "quantity": 1, "meta_data": {"lumise_data": {"cart_id": 998}}},
			{"sku": "PLAIN", "quantity": 1, "meta_data": {}}
		],
		"print_files_with_cart_id": [
			{"cart_id": "abc123", "print_files": ["https://cdn/tshirt-f.png", "https://cdn/tshirt-r.png"]},
			{"cart_id": 998, "print_files": ["https://cdn/mug.png"]}
		],
		"screenshots_with_cart_id": [
			{"cart_id": "abc123", "screenshots": ["https://cdn/tshirt-shot.jpg"]}
		]
	}`

	order, err := Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.StoreCode != "shop.example.it" || order.Code != "1043" {
		t.Fatalf("got store %q code %q", order.StoreCode, order.Code)
	}
	if order.CustomerName == nil || *order.CustomerName != "Anna Bianchi" {
		t.Fatalf("billing name not joined: %v", order.CustomerName)
	}
	if len(order.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(order.Items))
	}

	if got := order.Items[0].PrintURLs; len(got) != 2 {
		t.Fatalf("string cart_id join failed: %v", got)
	}
	if len(order.Items[0].PreviewURLs) != 1 {
		t.Fatalf("screenshot join failed: %v", order.Items[0].PreviewURLs)
	}
	// Numeric cart ids join against numeric keys in the sibling arrays.
	if got := order.Items[1].PrintURLs; len(got) != 1 || got[0] != "https://cdn/mug.png" {
		t.Fatalf("numeric cart_id join failed: %v", got)
	}
	// No resolvable cart id means the line simply has no files.
	if len(order.Items[2].PrintURLs) != 0 || len(order.Items[2].PreviewURLs) != 0 {
		t.Fatalf("line without cart_id should carry no files: %+v", order.Items[2])
	}
}

func TestNormalizeCartExportFallsBackToID(t *testing.T) {
	payload := `{"site_name": "shop.example.it", "id": 77, "line_items": []}`
	order, err := Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.Code != "77" {
		t.Fatalf("expected id fallback, got %q", order.Code)
	}
}

func TestNormalizeRejections(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    error
	}{
		{"unknown shape", `{"orders": []}`, ErrUnknownShape},
		{"canonical without store", `{"store_id": " ", "external_order_code": "A", "items": []}`, ErrMissingStore},
		{"canonical without code", `{"store_id": "S1", "items": []}`, ErrMissingCode},
		{"cart export without store", `{"site_name": "", "number": "1", "line_items": []}`, ErrMissingStore},
		{"cart export without code", `{"site_name": "shop", "line_items": []}`, ErrMissingCode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize([]byte(tc.payload))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNormalizeMalformedJSON(t *testing.T) {
	if _, err := Normalize([]byte(`{"items": [`)); err == nil {
		t.Fatal("expected parse error, got nil")
	}
	if _, err := Normalize([]byte(`not json at all`)); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

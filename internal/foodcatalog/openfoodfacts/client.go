// Package openfoodfacts searches the Open Food Facts catalog.
package openfoodfacts

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/nutrisync/internal/model"
)

const (
	defaultBaseURL = "https://world.openfoodfacts.org"
	defaultTimeout = 5 * time.Second
	userAgent      = "nutrisync/1.0 (+https://github.com/and161185/nutrisync)"
	searchPageSize = 20
	minQueryLen    = 2
	productFields  = "id,code,product_name,brands,nutriments,quantity,serving_size,serving_quantity"
)

// Client talks to the Open Food Facts HTTP API. Lookups never fail: errors
// are logged and reported as no results.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Log        *zap.Logger
}

func (c *Client) base() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	return base
}

func (c *Client) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

func (c *Client) get(ctx context.Context, u string, out any) (int, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("create openfoodfacts request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("execute openfoodfacts request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read openfoodfacts response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("openfoodfacts request failed with status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode openfoodfacts response: %w", err)
	}
	return resp.StatusCode, nil
}

// SearchByText returns products matching query, exact name matches first,
// then prefix matches, then shorter names. Queries under two characters
// return nothing without a request.
func (c *Client) SearchByText(ctx context.Context, query string) []model.FoodItem {
	if utf8.RuneCountInString(query) < minQueryLen {
		return []model.FoodItem{}
	}
	u := fmt.Sprintf("%s/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=%d&fields=%s",
		c.base(), url.QueryEscape(query), searchPageSize, productFields)

	var parsed offSearchResponse
	if _, err := c.get(ctx, u, &parsed); err != nil {
		c.logger().Warn("food search failed", zap.String("query", query), zap.Error(err))
		return []model.FoodItem{}
	}

	out := make([]model.FoodItem, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		if item, ok := toFoodItem(p); ok {
			out = append(out, item)
		}
	}
	Rank(out, query)
	return out
}

// SearchByBarcode looks up one product by barcode.
func (c *Client) SearchByBarcode(ctx context.Context, barcode string) (model.FoodItem, bool) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return model.FoodItem{}, false
	}
	u := fmt.Sprintf("%s/api/v2/product/%s.json?fields=%s", c.base(), url.PathEscape(barcode), productFields)

	var parsed offResponse
	status, err := c.get(ctx, u, &parsed)
	if err != nil {
		if status != http.StatusNotFound {
			c.logger().Warn("barcode lookup failed", zap.String("barcode", barcode), zap.Error(err))
		}
		return model.FoodItem{}, false
	}
	if parsed.Status != 1 || parsed.Product == nil {
		return model.FoodItem{}, false
	}
	return toFoodItem(*parsed.Product)
}

// Rank orders items in place for query: exact (case-insensitive) name, then
// names starting with query, then shorter names. Ties keep their order.
func Rank(items []model.FoodItem, query string) {
	q := strings.ToLower(strings.TrimSpace(query))
	score := func(name string) int {
		switch {
		case name == q:
			return 0
		case strings.HasPrefix(name, q):
			return 1
		default:
			return 2
		}
	}
	slices.SortStableFunc(items, func(a, b model.FoodItem) int {
		na, nb := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if c := cmp.Compare(score(na), score(nb)); c != 0 {
			return c
		}
		return cmp.Compare(utf8.RuneCountInString(na), utf8.RuneCountInString(nb))
	})
}

// toFoodItem normalizes a product; products without a name are dropped.
func toFoodItem(p offProduct) (model.FoodItem, bool) {
	name := strings.TrimSpace(p.ProductName)
	if name == "" {
		return model.FoodItem{}, false
	}
	id := strings.TrimSpace(p.ID)
	if id == "" {
		id = strings.TrimSpace(p.Code)
	}
	if id == "" {
		id = uuid.Must(uuid.NewV4()).String()
	}
	item := model.FoodItem{
		ID:          id,
		Name:        name,
		Brand:       strings.TrimSpace(p.Brands),
		Calories:    per100(p.Nutriments, "energy-kcal"),
		Protein:     per100(p.Nutriments, "proteins"),
		Carbs:       per100(p.Nutriments, "carbohydrates"),
		Fat:         per100(p.Nutriments, "fat"),
		Unit:        "g",
		ServingSize: strings.TrimSpace(p.ServingSize),
	}
	if isFluid(p.Quantity) {
		item.Unit = "ml"
	}
	if q, ok := parseFloatAny(p.ServingQuantity); ok && q > 0 {
		item.ServingQuantity = q
	}
	return item, true
}

// isFluid reports whether a package quantity label is a volume.
func isFluid(quantity string) bool {
	q := strings.ToLower(quantity)
	return strings.Contains(q, "ml") ||
		(strings.Contains(q, "l") && !strings.Contains(q, "dl") && !strings.Contains(q, "lb"))
}

func per100(n map[string]any, base string) float64 {
	if v, ok := parseFloatAny(n[base+"_100g"]); ok {
		return v
	}
	return 0
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

type offResponse struct {
	Status  int         `json:"status"`
	Product *offProduct `json:"product"`
}

type offProduct struct {
	ID              string         `json:"id"`
	Code            string         `json:"code"`
	ProductName     string         `json:"product_name"`
	Brands          string         `json:"brands"`
	Quantity        string         `json:"quantity"`
	ServingSize     string         `json:"serving_size"`
	ServingQuantity any            `json:"serving_quantity"`
	Nutriments      map[string]any `json:"nutriments"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}

package odoo

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/kolo/xmlrpc"

	"github.com/swagops/po-ingest/internal/entity"
	"github.com/swagops/po-ingest/internal/gateway"
)

// Client implements gateway.Gateway over Odoo's external XML-RPC API
// (/xmlrpc/2/common for authentication, /xmlrpc/2/object for model
// calls). All calls run under the scope's company context.
type Client struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	object *xmlrpc.Client
	uid    int64
}

var _ gateway.Gateway = (*Client)(nil)

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg.withDefaults(), logger: logger}
}

func (c *Client) transport() http.RoundTripper {
	return &http.Transport{
		DialContext:           (&net.Dialer{Timeout: c.cfg.Timeout}).DialContext,
		ResponseHeaderTimeout: c.cfg.Timeout,
	}
}

// Authenticate logs in against /xmlrpc/2/common and caches the uid.
// Safe to call repeatedly; only the first call hits the wire.
func (c *Client) Authenticate(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticateLocked(ctx)
}

func (c *Client) authenticateLocked(_ context.Context) (int64, error) {
	if c.uid != 0 {
		return c.uid, nil
	}

	common, err := xmlrpc.NewClient(c.cfg.URL+"/xmlrpc/2/common", c.transport())
	if err != nil {
		return 0, fmt.Errorf("dial common endpoint: %w", err)
	}
	defer func() { _ = common.Close() }()

	var reply any
	args := []any{c.cfg.Database, c.cfg.Username, c.cfg.APIKey, map[string]any{}}
	if err := common.Call("authenticate", args, &reply); err != nil {
		return 0, fmt.Errorf("authenticate: %w", err)
	}
	uid, ok := asInt64(reply)
	// Odoo returns boolean false instead of a uid on bad credentials.
	if !ok || uid == 0 {
		return 0, fmt.Errorf("authentication failed for %q on %q", c.cfg.Username, c.cfg.Database)
	}

	object, err := xmlrpc.NewClient(c.cfg.URL+"/xmlrpc/2/object", c.transport())
	if err != nil {
		return 0, fmt.Errorf("dial object endpoint: %w", err)
	}

	c.uid = uid
	c.object = object
	c.logger.Info("gateway.authenticated", "url", c.cfg.URL, "db", c.cfg.Database, "uid", uid)
	return uid, nil
}

// executeKw issues one execute_kw call and decodes the reply into a
// generic value; callers coerce the shape they expect.
func (c *Client) executeKw(ctx context.Context, model, method string, args []any, kwargs map[string]any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.authenticateLocked(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	var reply any
	call := []any{c.cfg.Database, c.uid, c.cfg.APIKey, model, method, args, kwargs}
	err := c.object.Call("execute_kw", call, &reply)
	if err != nil {
		c.logger.Error("gateway.call.failed",
			"model", model, "method", method,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return nil, fmt.Errorf("%s.%s: %w", model, method, err)
	}
	c.logger.Debug("gateway.call.ok",
		"model", model, "method", method,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return reply, nil
}

func (c *Client) LookupByCode(ctx context.Context, code string, scope gateway.Scope) (*entity.CatalogReference, error) {
	domain := []any{[]any{"default_code", "=", code}}
	kwargs := map[string]any{"limit": 1, "context": scopeContext(scope)}
	reply, err := c.executeKw(ctx, "product.product", "search", []any{domain}, kwargs)
	if err != nil {
		return nil, err
	}
	ids := asInt64Slice(reply)
	if len(ids) == 0 {
		return nil, nil
	}
	return &entity.CatalogReference{ID: ids[0], Code: code}, nil
}

func (c *Client) CatalogSchemaFields(ctx context.Context, scope gateway.Scope) (map[string]struct{}, error) {
	kwargs := map[string]any{
		"attributes": []string{"string"},
		"context":    scopeContext(scope),
	}
	reply, err := c.executeKw(ctx, "product.product", "fields_get", []any{}, kwargs)
	if err != nil {
		return nil, err
	}
	m, ok := reply.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("fields_get: unexpected reply shape %T", reply)
	}
	fields := make(map[string]struct{}, len(m))
	for name := range m {
		fields[name] = struct{}{}
	}
	return fields, nil
}

func (c *Client) CreateCatalogEntry(ctx context.Context, attrs map[string]any, scope gateway.Scope) (entity.CatalogReference, error) {
	kwargs := map[string]any{"context": scopeContext(scope)}
	reply, err := c.executeKw(ctx, "product.product", "create", []any{attrs}, kwargs)
	if err != nil {
		return entity.CatalogReference{}, err
	}
	id, ok := asInt64(reply)
	if !ok {
		return entity.CatalogReference{}, fmt.Errorf("create: unexpected reply shape %T", reply)
	}
	code, _ := attrs["default_code"].(string)
	return entity.CatalogReference{ID: id, Code: code}, nil
}

func (c *Client) CreateOrder(ctx context.Context, req gateway.OrderRequest, scope gateway.Scope) (int64, error) {
	vals := buildOrderValues(req)
	kwargs := map[string]any{"context": scopeContext(scope)}
	reply, err := c.executeKw(ctx, "purchase.order", "create", []any{vals}, kwargs)
	if err != nil {
		return 0, err
	}
	id, ok := asInt64(reply)
	if !ok {
		return 0, fmt.Errorf("create order: unexpected reply shape %T", reply)
	}
	return id, nil
}

func (c *Client) ListCompanies(ctx context.Context) ([]entity.Company, error) {
	kwargs := map[string]any{"fields": []string{"name"}, "limit": 50}
	reply, err := c.executeKw(ctx, "res.company", "search_read", []any{[]any{}}, kwargs)
	if err != nil {
		return nil, err
	}
	rows, ok := reply.([]any)
	if !ok {
		return nil, fmt.Errorf("search_read: unexpected reply shape %T", reply)
	}
	out := make([]entity.Company, 0, len(rows))
	for _, r := range rows {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		id, _ := asInt64(m["id"])
		name, _ := m["name"].(string)
		out = append(out, entity.Company{ID: id, Name: name})
	}
	return out, nil
}

// scopeContext builds the company context every model call runs under.
func scopeContext(scope gateway.Scope) map[string]any {
	return map[string]any{
		"allowed_company_ids": []int64{scope.CompanyID},
		"company_id":          scope.CompanyID,
	}
}

// buildOrderValues maps an order request onto purchase.order create
// values. Lines use the (0, 0, {...}) one2many create triple; a line
// without a catalog reference stays header-only (description, quantity
// and price, no product_id).
func buildOrderValues(req gateway.OrderRequest) map[string]any {
	lines := make([]any, 0, len(req.Lines))
	for _, l := range req.Lines {
		vals := map[string]any{
			"name":        l.Description,
			"product_qty": l.Quantity,
			"price_unit":  l.UnitPrice,
		}
		if l.CatalogID != nil {
			vals["product_id"] = *l.CatalogID
		}
		lines = append(lines, []any{0, 0, vals})
	}
	return map[string]any{
		"partner_id": req.SupplierID,
		"date_order": req.DateIssued,
		"company_id": req.CompanyID,
		"order_line": lines,
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func asInt64Slice(v any) []int64 {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(arr))
	for _, e := range arr {
		if n, ok := asInt64(e); ok {
			out = append(out, n)
		}
	}
	return out
}

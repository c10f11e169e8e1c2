package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

var productFields = []string{"id", "name", "default_code", "list_price", "qty_available", "categ_id", "uom_id"}

// OdooConfig holds the connection settings of an Odoo instance.
type OdooConfig struct {
	URL      string
	DB       string
	Username string
	APIKey   string
	Timeout  time.Duration
}

// OdooCatalog reads products from Odoo over JSON-RPC. The session cookie obtained
// at authentication is kept in the client's cookie jar.
type OdooCatalog struct {
	cfg    OdooConfig
	client *http.Client
	nextID atomic.Int64

	mu            sync.Mutex
	authenticated bool
}

// NewOdooCatalog returns a catalog bound to cfg. No request is made until first use.
func NewOdooCatalog(cfg OdooConfig) (*OdooCatalog, error) {
	if cfg.URL == "" {
		return nil, errors.New("odoo URL is empty")
	}
	cfg.URL = strings.TrimRight(cfg.URL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &OdooCatalog{
		cfg:    cfg,
		client: &http.Client{Jar: jar, Timeout: cfg.Timeout},
	}, nil
}

type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int64       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"data"`
}

func (e *rpcError) Error() string {
	if e.Data.Message != "" {
		return fmt.Sprintf("odoo: %s: %s", e.Message, e.Data.Message)
	}
	return "odoo: " + e.Message
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *OdooCatalog) call(ctx context.Context, path string, params, out interface{}) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: "call", Params: params, ID: c.nextID.Add(1)})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "odoo request %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("odoo %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var rpc rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return errors.Wrapf(err, "decode odoo response %s", path)
	}
	if rpc.Error != nil {
		return rpc.Error
	}
	if out == nil || len(rpc.Result) == 0 {
		return nil
	}
	return json.Unmarshal(rpc.Result, out)
}

func (c *OdooCatalog) authenticate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authenticated {
		return nil
	}

	var result struct {
		UID json.RawMessage `json:"uid"`
	}
	params := map[string]string{"db": c.cfg.DB, "login": c.cfg.Username, "password": c.cfg.APIKey}
	if err := c.call(ctx, "/web/session/authenticate", params, &result); err != nil {
		return errors.Wrap(err, "odoo authenticate")
	}
	if len(result.UID) == 0 || string(result.UID) == "false" || string(result.UID) == "null" {
		return errors.New("odoo authenticate: invalid credentials")
	}
	c.authenticated = true
	return nil
}

func (c *OdooCatalog) searchRead(ctx context.Context, model string, domain []interface{}, fields []string, limit int, out interface{}) error {
	if err := c.authenticate(ctx); err != nil {
		return err
	}
	params := map[string]interface{}{
		"model":  model,
		"method": "search_read",
		"args":   []interface{}{domain},
		"kwargs": map[string]interface{}{"fields": fields, "limit": limit},
	}
	err := c.call(ctx, "/web/dataset/call_kw/"+model+"/search_read", params, out)
	var rpcErr *rpcError
	if errors.As(err, &rpcErr) {
		// A server-side error usually means the session expired.
		c.mu.Lock()
		c.authenticated = false
		c.mu.Unlock()
	}
	return err
}

// odooString decodes Odoo's false-for-empty strings.
type odooString string

func (s *odooString) UnmarshalJSON(b []byte) error {
	if string(b) == "false" || string(b) == "null" {
		*s = ""
		return nil
	}
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*s = odooString(v)
	return nil
}

// many2one decodes Odoo's [id, "display name"] pairs, or false.
type many2one struct {
	ID   int64
	Name string
}

func (m *many2one) UnmarshalJSON(b []byte) error {
	if string(b) == "false" || string(b) == "null" {
		*m = many2one{}
		return nil
	}
	var pair []interface{}
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("unexpected many2one value %s", b)
	}
	if id, ok := pair[0].(float64); ok {
		m.ID = int64(id)
	}
	m.Name, _ = pair[1].(string)
	return nil
}

type odooProduct struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	DefaultCode  odooString `json:"default_code"`
	ListPrice    float64    `json:"list_price"`
	QtyAvailable float64    `json:"qty_available"`
	Category     many2one   `json:"categ_id"`
	UoM          many2one   `json:"uom_id"`
}

func (p odooProduct) toPart() Part {
	part := Part{
		PartNumber: string(p.DefaultCode),
		Name:       p.Name,
		Category:   p.Category.Name,
		Price:      p.ListPrice,
		Stock:      int(p.QtyAvailable),
		Unit:       strings.ToLower(p.UoM.Name),
	}
	if part.PartNumber == "" {
		part.PartNumber = fmt.Sprintf("ODOO-%d", p.ID)
	}
	if part.Category == "" {
		part.Category = "Other"
	}
	if part.Unit == "" {
		part.Unit = "piece"
	}
	if part.Stock < 0 {
		part.Stock = 0
	}
	return part
}

func (c *OdooCatalog) products(ctx context.Context, domain []interface{}, limit int) ([]Part, error) {
	var records []odooProduct
	if err := c.searchRead(ctx, "product.product", domain, productFields, limit, &records); err != nil {
		return nil, err
	}
	parts := make([]Part, 0, len(records))
	for _, r := range records {
		parts = append(parts, r.toPart())
	}
	return parts, nil
}

// Search matches product name, internal reference or category.
func (c *OdooCatalog) Search(ctx context.Context, query string) ([]Part, error) {
	domain := []interface{}{
		"|", "|",
		[]interface{}{"name", "ilike", query},
		[]interface{}{"default_code", "ilike", query},
		[]interface{}{"categ_id", "ilike", query},
	}
	return c.products(ctx, domain, 20)
}

// Part finds a product by internal reference, ignoring case.
func (c *OdooCatalog) Part(ctx context.Context, partNumber string) (*Part, error) {
	domain := []interface{}{[]interface{}{"default_code", "=ilike", strings.TrimSpace(partNumber)}}
	parts, err := c.products(ctx, domain, 1)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, ErrPartNotFound
	}
	return &parts[0], nil
}

// Categories lists product category names, sorted.
func (c *OdooCatalog) Categories(ctx context.Context) ([]string, error) {
	var records []struct {
		Name string `json:"name"`
	}
	if err := c.searchRead(ctx, "product.category", []interface{}{}, []string{"name"}, 100, &records); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Name)
	}
	sort.Strings(out)
	return out, nil
}

// PartsByCategory lists products whose category name matches, ignoring case.
func (c *OdooCatalog) PartsByCategory(ctx context.Context, category string) ([]Part, error) {
	domain := []interface{}{[]interface{}{"categ_id.name", "=ilike", category}}
	return c.products(ctx, domain, 100)
}

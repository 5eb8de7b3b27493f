package shoper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"tg_auction/internal/config"
	"tg_auction/internal/domain"
	service "tg_auction/internal/domain/service/auction"
	"tg_auction/pkg/errcodes"
	"tg_auction/pkg/httpx"
	"tg_auction/pkg/logx"
)

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

// staticToken satisfies the httpx authenticator with a preconfigured API
// token: Shoper REST tokens are long-lived, there is nothing to refresh.
type staticToken struct {
	token string
}

func (s staticToken) Authenticate(context.Context) error { return nil }
func (s staticToken) BearerToken() string                { return s.token }

// Client is a minimal wrapper for the Shoper REST API. All failures stay on
// this side of the port: the auction core only ever sees an error value,
// never a panic or a hung call (the HTTP client enforces the timeout).
type Client struct {
	baseURL    string
	httpClient *http.Client

	importPollInterval time.Duration
	importTimeout      time.Duration
}

func NewClient(cfg config.Shoper) (*Client, error) {
	if !cfg.Enabled() {
		return nil, domain.NewError(errcodes.ShopDisabled, "shoper API URL or token not set")
	}

	baseURL := strings.TrimRight(cfg.APIURL, "/")
	if !strings.HasSuffix(baseURL, "/webapi/rest") {
		baseURL += "/webapi/rest"
	}

	transport := httpx.NewAuthBearerRoundTripper(
		httpx.NewLoggingRoundTripper(
			http.DefaultTransport,
			httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
		),
		staticToken{token: cfg.APIToken},
	)

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		importPollInterval: cfg.ImportPollInterval,
		importTimeout:      cfg.ImportTimeout,
	}, nil
}

// CreateAuctionProduct implements the commerce port: it lists the won lot in
// the shop and returns the product URL the winner can pay at.
func (c *Client) CreateAuctionProduct(ctx context.Context, v service.OrderView) (string, error) {
	payload := map[string]any{
		"name":     v.Title,
		"price":    json.Number(v.Price.String()),
		"category": "Licytacja",
		"stock":    1,
		"active":   1,
		"vat":      "23%",
		"unit":     "szt.",
	}
	if v.ImageURL != "" {
		payload["images"] = v.ImageURL
	}

	var resp productResponse
	if err := c.request(ctx, http.MethodPost, "products", nil, payload, &resp); err != nil {
		return "", fmt.Errorf("add product: %w", err)
	}

	return resp.resolveURL(c.baseURL), nil
}

type productResponse struct {
	URL        string      `json:"url"`
	ProductURL string      `json:"product_url"`
	ProductID  json.Number `json:"product_id"`
	Product    struct {
		ProductID json.Number `json:"product_id"`
	} `json:"product"`
}

// resolveURL tries the fields Shoper variants return, falling back to a URL
// built from the product id and the shop root.
func (r productResponse) resolveURL(baseURL string) string {
	if r.URL != "" {
		return r.URL
	}
	if r.ProductURL != "" {
		return r.ProductURL
	}

	id := r.ProductID.String()
	if id == "" {
		id = r.Product.ProductID.String()
	}
	if id == "" {
		return ""
	}

	root, _, _ := strings.Cut(baseURL, "/webapi")
	return root + "/product/" + id
}

// ImportCSV uploads a product CSV and waits for the asynchronous import job,
// bounded by the configured poll interval and timeout. Exceeding the timeout
// or a job error state is a terminal failure surfaced to the caller only.
func (c *Client) ImportCSV(ctx context.Context, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("multipart write: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("multipart close: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/products/import", &body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var job importJob
	if err := c.do(req, &job); err != nil {
		return fmt.Errorf("upload csv: %w", err)
	}

	jobID := job.id()
	if jobID == "" {
		// Synchronous import, nothing to poll.
		return nil
	}

	return c.pollImportJob(ctx, jobID)
}

type importJob struct {
	JobID  json.Number `json:"job_id"`
	ID     json.Number `json:"id"`
	Status string      `json:"status"`
	State  string      `json:"state"`
	Errors []string    `json:"errors"`
}

func (j importJob) id() string {
	if j.JobID.String() != "" {
		return j.JobID.String()
	}
	return j.ID.String()
}

func (j importJob) state() string {
	if j.Status != "" {
		return j.Status
	}
	return j.State
}

func (c *Client) pollImportJob(ctx context.Context, jobID string) error {
	deadline := time.Now().Add(c.importTimeout)

	for time.Now().Before(deadline) {
		var job importJob
		if err := c.request(ctx, http.MethodGet, "products/import/"+jobID, nil, nil, &job); err != nil {
			return fmt.Errorf("poll import job: %w", err)
		}

		switch job.state() {
		case "completed", "finished", "done", "success":
			if len(job.Errors) > 0 {
				return domain.NewError(errcodes.ImportJobFailed,
					fmt.Sprintf("import completed with errors: %v", job.Errors))
			}
			return nil
		case "failed", "error":
			return domain.NewError(errcodes.ImportJobFailed, "import job reported failure")
		}

		select {
		case <-time.After(c.importPollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return domain.NewError(errcodes.TimeoutExceeded, "import job timed out")
}

// request performs a JSON call. A 404 decodes as an empty result instead of
// an error, matching Shoper's habit of 404-ing lookups on fresh shops.
func (c *Client) request(ctx context.Context, method, endpoint string, query url.Values, payload, out any) error {
	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := jsonIter.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpClient.Do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("api request failed: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(data) == 0 || out == nil {
		return nil
	}

	if err := jsonIter.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

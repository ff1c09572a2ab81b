package datagov

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"hawker-closures/config"
	"hawker-closures/models"
	"hawker-closures/utils"
)

const searchPath = "/api/action/datastore_search"

// searchResponse is the datastore_search envelope.
type searchResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Records []map[string]any `json:"records"`
		Total   int              `json:"total"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client pages through a data.gov.sg datastore resource.
type Client struct {
	baseURL    string
	resourceID string
	pageSize   int
	httpClient *http.Client
	logger     *utils.Logger
	retry      *utils.RetryConfig

	concurrency int
	rateLimitMs int
}

// New creates a ready-to-use data.gov.sg Client.
func New(cfg *config.Config, logger *utils.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.DataGovBaseURL, "/"),
		resourceID: cfg.DataGovResourceID,
		pageSize:   max(cfg.PageSize, 1),
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout()},
		logger:     logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
		concurrency: cfg.MaxConcurrency,
		rateLimitMs: cfg.RateLimitMs,
	}
}

// Fetch returns every record of the resource. The first page reports the total and how many
// rows the datastore serves per request; the remaining ranges are fetched concurrently, each
// range continuing until it is covered or the datastore runs dry. Records are returned ordered
// by their datastore _id.
func (c *Client) Fetch(ctx context.Context) ([]models.RawRecord, error) {
	c.logger.Info("[datagov] Fetching resource %s (page size %d)", c.resourceID, c.pageSize)

	first, err := c.fetchPageWithRetry(ctx, 0)
	if err != nil {
		return nil, err
	}
	total := first.Result.Total

	seen := utils.NewKeySet()
	var mu sync.Mutex
	records := make([]models.RawRecord, 0, total)
	collect := func(page *searchResponse) {
		mu.Lock()
		defer mu.Unlock()
		for _, raw := range page.Result.Records {
			rec := toRawRecord(raw)
			if id, ok := rec["_id"]; ok && !seen.Add(id) {
				c.logger.Debug("[datagov] Duplicate record _id %s skipped", id)
				continue
			}
			records = append(records, rec)
		}
	}
	collect(first)

	step := len(first.Result.Records)
	if total > step {
		if step == 0 {
			return nil, fmt.Errorf("datagov: first page is empty but total is %d", total)
		}
		if step < c.pageSize {
			c.logger.Warn("[datagov] Datastore capped page size at %d (requested %d)", step, c.pageSize)
		}

		pool := utils.NewWorkerPool(c.concurrency, c.rateLimitMs)
		for offset := step; offset < total; offset += step {
			pool.Submit(ctx, func() error {
				return c.fetchRange(ctx, offset, min(offset+step, total), collect)
			})
		}
		if err := pool.Wait(); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return recordID(records[i]) < recordID(records[j])
	})

	if len(records) < total {
		c.logger.Warn("[datagov] Fetched %d records but the datastore reported %d", len(records), total)
	} else {
		c.logger.Info("[datagov] Fetched %d records (reported total %d)", len(records), total)
	}
	return records, nil
}

// fetchRange pages through [from, to), advancing by however many rows each response held.
func (c *Client) fetchRange(ctx context.Context, from, to int, collect func(*searchResponse)) error {
	for offset := from; offset < to; {
		page, err := c.fetchPageWithRetry(ctx, offset)
		if err != nil {
			return err
		}
		n := len(page.Result.Records)
		if n == 0 {
			c.logger.Warn("[datagov] offset %d returned no records before reaching %d", offset, to)
			return nil
		}
		collect(page)
		offset += n
	}
	return nil
}

func (c *Client) fetchPageWithRetry(ctx context.Context, offset int) (*searchResponse, error) {
	var page *searchResponse
	err := c.retry.Do(ctx, fmt.Sprintf("datastore-search offset=%d", offset), func() error {
		var err error
		page, err = c.fetchPage(ctx, offset)
		return err
	})
	return page, err
}

func (c *Client) fetchPage(ctx context.Context, offset int) (*searchResponse, error) {
	q := url.Values{}
	q.Set("resource_id", c.resourceID)
	q.Set("limit", strconv.Itoa(c.pageSize))
	q.Set("offset", strconv.Itoa(offset))
	endpoint := c.baseURL + searchPath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("datagov: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("datagov: request offset %d: %w", offset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("datagov: offset %d: unexpected status %d: %s",
			offset, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("datagov: decode offset %d: %w", offset, err)
	}
	if !page.Success {
		msg := "success=false"
		if page.Error != nil && page.Error.Message != "" {
			msg = page.Error.Message
		}
		return nil, fmt.Errorf("datagov: offset %d: %s", offset, msg)
	}
	if page.Result.Total < 0 {
		return nil, fmt.Errorf("datagov: decode offset %d: negative total %d", offset, page.Result.Total)
	}

	c.logger.Debug("[datagov] offset %d returned %d records", offset, len(page.Result.Records))
	return &page, nil
}

// toRawRecord converts decoded JSON values to their text form. Null values become empty strings.
func toRawRecord(raw map[string]any) models.RawRecord {
	rec := make(models.RawRecord, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			rec[k] = ""
		case string:
			rec[k] = val
		case float64:
			rec[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			rec[k] = strconv.FormatBool(val)
		default:
			rec[k] = fmt.Sprint(val)
		}
	}
	return rec
}

func recordID(rec models.RawRecord) int {
	id, err := strconv.Atoi(rec["_id"])
	if err != nil {
		return 0
	}
	return id
}

package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stitchhire/candidate-directory/backend/internal/apperr"
	"github.com/stitchhire/candidate-directory/backend/internal/domain"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithCache(cache Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		cache:      NoopCache{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type postcodeResponse struct {
	Status int `json:"status"`
	Result *struct {
		Postcode  string   `json:"postcode"`
		Outcode   string   `json:"outcode"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"result"`
}

// Resolve 查询一个邮编。邮编不存在时返回 (nil, nil)，网络或上游错误返回 UPSTREAM_UNAVAILABLE。
func (c *Client) Resolve(ctx context.Context, postcode string) (*domain.GeoResult, error) {
	key := domain.NormalizePostcode(postcode)
	if key == "" {
		return nil, nil
	}

	if geo, ok := c.cache.Get(ctx, key); ok {
		return geo, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/postcodes/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUpstreamUnavailable, "geocoding request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, apperr.New(apperr.CodeUpstreamUnavailable, fmt.Sprintf("geocoding returned status %d", resp.StatusCode))
	}

	var body postcodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, apperr.Wrap(apperr.CodeUpstreamUnavailable, "decode geocoding response", err)
	}

	// 部分邮编（例如海外属地）没有坐标，视为查无结果
	if body.Result == nil || body.Result.Latitude == nil || body.Result.Longitude == nil {
		return nil, nil
	}

	geo := &domain.GeoResult{
		Latitude:     *body.Result.Latitude,
		Longitude:    *body.Result.Longitude,
		DistrictCode: body.Result.Outcode,
	}
	c.cache.Set(ctx, key, geo)

	return geo, nil
}

// Lookup 是 Resolve 的容错版本，任何错误都降级为没有结果
func (c *Client) Lookup(ctx context.Context, postcode string) *domain.GeoResult {
	geo, err := c.Resolve(ctx, postcode)
	if err != nil {
		slog.Debug("邮编查询失败", "error", err)
		return nil
	}
	return geo
}

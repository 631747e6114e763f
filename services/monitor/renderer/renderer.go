// Package renderer abstracts the external page-rendering collaborator. The
// core only ever sees its output: rendered HTML for the search-results and
// detail views, or an explicit no-results signal. Navigation mechanics,
// selector fallback and retries all live behind the render service.
package renderer

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	"registrywatch-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

type Pages struct {
	Found       bool   `json:"found"`
	ResultsHTML string `json:"results_html"`
	DetailHTML  string `json:"detail_html"`
}

type Renderer interface {
	Render(ctx context.Context, identifier string) (Pages, error)
}

type ClientOptions struct {
	BaseUrl string `json:"base_url"`
	Token   string `json:"token"`
}

// Client talks to the render service over HTTP.
type Client struct {
	http *resty.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	// headless rendering of the registry portal is slow
	client.SetTimeout(time.Second * 90)
	if opts.Token != "" {
		client.SetAuthToken(opts.Token)
	}

	telemetry.InstrumentResty(client, "services/monitor/renderer/http")

	return &Client{http: client}, nil
}

func (c *Client) Render(ctx context.Context, identifier string) (Pages, error) {
	var pages Pages
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"identifier": identifier}).
		SetResult(&pages).
		Post("/render")
	if err != nil {
		return Pages{}, err
	}
	if res.IsError() {
		return Pages{}, fmt.Errorf("render service returned %s", res.Status())
	}
	return pages, nil
}

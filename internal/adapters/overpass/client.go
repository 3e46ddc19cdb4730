package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/lgatracker/internal/core/domain"
	"github.com/samirrijal/lgatracker/internal/pkg/telemetry"
)

// DefaultEndpoint is the public Overpass interpreter.
const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

// Client implements ports.BoundaryProvider against an Overpass API interpreter.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates an Overpass client. An empty endpoint uses DefaultEndpoint.
func New(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{endpoint: endpoint, http: &http.Client{Timeout: timeout}}
}

// Query builds the Overpass QL query selecting every administrative boundary relation of the
// filter's level inside the country, followed by all member ways and nodes.
func Query(filter domain.BoundaryFilter) string {
	return fmt.Sprintf(`[out:json][timeout:25];
area["ISO3166-1"="%s"][admin_level=2]->.country;
(
  rel(area.country)["admin_level"="%d"]["boundary"="administrative"];
);
out body;
>;
out skel qt;`, filter.Country, filter.AdminLevel)
}

// Fetch posts the boundary query and decodes the element payload.
func (c *Client) Fetch(ctx context.Context, filter domain.BoundaryFilter) (*domain.RawPayload, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanBoundaryFetch)
	defer span.End()
	span.SetAttributes(attribute.String("endpoint", c.endpoint))

	payload, err := c.fetch(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("elements", len(payload.Elements)))
	return payload, nil
}

func (c *Client) fetch(ctx context.Context, filter domain.BoundaryFilter) (*domain.RawPayload, error) {
	form := url.Values{"data": {Query(filter)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &domain.FetchError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &domain.FetchError{
			Op:  "request",
			Err: fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
		}
	}

	return Decode(resp.Body)
}

// Decode parses an Overpass JSON document.
func Decode(r io.Reader) (*domain.RawPayload, error) {
	var payload struct {
		Elements *[]domain.RawElement `json:"elements"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, &domain.FetchError{Op: "decode", Err: err}
	}
	if payload.Elements == nil {
		return nil, &domain.FetchError{Op: "decode", Err: fmt.Errorf("missing elements array")}
	}
	return &domain.RawPayload{Elements: *payload.Elements}, nil
}

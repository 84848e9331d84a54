// Package nominatim reverse-geocodes coordinates with an OpenStreetMap
// Nominatim server.
package nominatim

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/ports"
	"github.com/encinapp/encinapp/internal/pkg/metrics"
)

var json = jsoniter.ConfigFastest

// Geocoder implements ports.Geocoder.
type Geocoder struct {
	baseURL   string
	userAgent string
	language  string
	timeout   time.Duration
	http      *fasthttp.Client
}

// New creates a Geocoder. Nominatim's usage policy requires a descriptive User-Agent.
func New(baseURL, userAgent, language string, timeout time.Duration) *Geocoder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Geocoder{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		language:  language,
		timeout:   timeout,
		http:      &fasthttp.Client{Name: userAgent, ReadTimeout: timeout, WriteTimeout: timeout},
	}
}

type reverseResponse struct {
	Error   string `json:"error"`
	Address struct {
		Road        string `json:"road"`
		Pedestrian  string `json:"pedestrian"`
		HouseNumber string `json:"house_number"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
	} `json:"address"`
}

// Reverse looks up the street address of c.
func (g *Geocoder) Reverse(ctx context.Context, c domain.Coordinate) (addr *ports.Address, err error) {
	start := time.Now()
	defer func() { metrics.ObserveBackend("reverse_geocode", start, err) }()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.SetRequestURI(g.baseURL + "/reverse")
	args := req.URI().QueryArgs()
	args.Add("lat", strconv.FormatFloat(c.Latitude, 'f', 6, 64))
	args.Add("lon", strconv.FormatFloat(c.Longitude, 'f', 6, 64))
	args.Add("format", "jsonv2")
	args.Add("addressdetails", "1")
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(g.userAgent)
	if g.language != "" {
		req.Header.Set("Accept-Language", g.language)
	}

	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < g.timeout {
		err = g.http.DoDeadline(req, resp, deadline)
	} else {
		err = g.http.DoTimeout(req, resp, g.timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("reverse geocode: status %d", resp.StatusCode())
	}

	var out reverseResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode reverse geocode: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("reverse geocode: %s", out.Error)
	}

	a := out.Address
	return &ports.Address{
		Street: firstNonEmpty(a.Road, a.Pedestrian),
		Number: a.HouseNumber,
		City:   firstNonEmpty(a.City, a.Town, a.Village),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

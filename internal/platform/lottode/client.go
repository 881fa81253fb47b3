package lottode

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

// DefaultBaseURL is the public lotto.de host serving the draw archive.
const DefaultBaseURL = "https://www.lotto.de"

// rateLimitKey is shared by every archive client so that concurrent
// ingesters draw from one request budget.
const rateLimitKey = "archive:lotto.de"

// ClientConfig configures the archive client.
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client reads draw days and draw results from the lotto.de JSON archive
// for one game variant.
type Client struct {
	baseURL    string
	userAgent  string
	variant    domain.Variant
	limiter    domain.RateLimiter
	httpClient *http.Client
}

// NewClient creates an archive client. limiter may be nil.
func NewClient(cfg ClientConfig, variant domain.Variant, limiter domain.RateLimiter) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   base,
		userAgent: cfg.UserAgent,
		variant:   variant,
		limiter:   limiter,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Variant returns the game this client reads.
func (c *Client) Variant() domain.Variant { return c.variant }

// DrawDays returns the draw dates of year in ascending order.
//
// The archive answers with {"<year>": [{"date": "YYYY-MM-DD", ...}, ...]}.
func (c *Client) DrawDays(ctx context.Context, year int) ([]time.Time, error) {
	body, err := c.get(ctx, url.Values{"year": {strconv.Itoa(year)}})
	if err != nil {
		return nil, fmt.Errorf("lottode: draw days %d: %w", year, err)
	}

	list := gjson.GetBytes(body, strconv.Itoa(year))
	if !list.IsArray() {
		return nil, fmt.Errorf("lottode: draw days %d: missing year list", year)
	}

	var days []time.Time
	for _, item := range list.Array() {
		raw := item.Get("date").String()
		day, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, fmt.Errorf("lottode: draw days %d: bad date %q: %w", year, raw, err)
		}
		days = append(days, day)
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })
	return days, nil
}

// Draw fetches the result and prize table of one draw day. It returns
// domain.ErrIncompleteDraw when the numbers are out but the stake or the
// prize table is not yet published.
func (c *Client) Draw(ctx context.Context, day time.Time) (domain.Draw, error) {
	date := day.Format(time.DateOnly)
	body, err := c.get(ctx, url.Values{"drawday": {date}})
	if err != nil {
		return domain.Draw{}, fmt.Errorf("lottode: draw %s: %w", date, err)
	}

	game := gjson.GetBytes(body, date+"."+c.variant.ArchiveKey)
	if !game.Exists() {
		return domain.Draw{}, fmt.Errorf("lottode: draw %s: %w: no %s payload", date, domain.ErrNotFound, c.variant.ArchiveKey)
	}
	draw, err := c.decodeDraw(game, day)
	if err != nil {
		return domain.Draw{}, fmt.Errorf("lottode: draw %s: %w", date, err)
	}
	return draw, nil
}

func (c *Client) decodeDraw(game gjson.Result, day time.Time) (domain.Draw, error) {
	draw := domain.Draw{Variant: c.variant.Name, Date: day}

	numbers, err := intList(game.Get("gewinnzahlen"))
	if err != nil {
		return draw, fmt.Errorf("gewinnzahlen: %w", err)
	}
	if len(numbers) != c.variant.MainCount {
		return draw, fmt.Errorf("%w: %d numbers, want %d", domain.ErrInvalidDraw, len(numbers), c.variant.MainCount)
	}
	draw.Numbers = numbers

	stake := game.Get("spieleinsatz")
	if isNull(stake) {
		return draw, domain.ErrIncompleteDraw
	}
	draw.Stake.V, draw.Stake.Valid = int64(stake.Float()), true

	switch c.variant.Name {
	case domain.VariantEurojackpot:
		euro, err := intList(game.Get("zwei_aus_acht"))
		if err != nil {
			return draw, fmt.Errorf("zwei_aus_acht: %w", err)
		}
		draw.Bonus = euro
	default:
		if sz := game.Get("superzahl"); !isNull(sz) {
			draw.Bonus = []int{int(sz.Int())}
		}
		if zz := game.Get("zusatzzahl"); !isNull(zz) {
			draw.Extra.V, draw.Extra.Valid = zz.Int(), true
		}
	}

	quotes := game.Get("quoten")
	if !quotes.IsArray() {
		return draw, domain.ErrIncompleteDraw
	}
	for _, q := range quotes.Array() {
		draw.Payouts = append(draw.Payouts, domain.PayoutRow{
			Description: strings.TrimSpace(q.Get("beschreibung").String()),
			Winners:     int64(q.Get("anzahl").Float()),
			Amount:      q.Get("quote").Float(),
		})
	}
	return draw, nil
}

func (c *Client) get(ctx context.Context, query url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, rateLimitKey); err != nil {
			return nil, err
		}
	}

	endpoint := c.baseURL + c.variant.ArchivePath + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(body, 200))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON response")
	}
	return body, nil
}

// intList reads an array whose elements are numbers or numeric strings.
func intList(r gjson.Result) ([]int, error) {
	if !r.IsArray() {
		return nil, fmt.Errorf("%w: not a list", domain.ErrInvalidDraw)
	}
	items := r.Array()
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(strings.TrimSpace(item.String()))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDraw, item.String())
		}
		out = append(out, n)
	}
	return out, nil
}

func isNull(r gjson.Result) bool {
	return !r.Exists() || r.Type == gjson.Null || (r.Type == gjson.String && strings.TrimSpace(r.Str) == "")
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

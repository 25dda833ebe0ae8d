package broker

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"CoinPilot/internal/model"
)

// Upbit implements Broker against the Upbit REST API. Authenticated
// requests carry a JWT signed with the secret key; requests with
// parameters additionally embed a SHA512 hash of the query string.
type Upbit struct {
	BaseURL   string
	AccessKey string
	SecretKey string
	Client    *http.Client
}

// NewUpbit creates an Upbit broker. baseURL may be empty for the
// public endpoint.
func NewUpbit(baseURL, accessKey, secretKey string) *Upbit {
	if baseURL == "" {
		baseURL = "https://api.upbit.com"
	}
	return &Upbit{
		BaseURL:   baseURL,
		AccessKey: accessKey,
		SecretKey: secretKey,
		Client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (u *Upbit) Name() string { return "upbit" }

// upbitAccount is one entry of GET /v1/accounts. Numeric fields arrive
// as strings.
type upbitAccount struct {
	Currency     string `json:"currency"`
	Balance      string `json:"balance"`
	Locked       string `json:"locked"`
	AvgBuyPrice  string `json:"avg_buy_price"`
	UnitCurrency string `json:"unit_currency"`
}

func (u *Upbit) accounts() ([]upbitAccount, error) {
	var accounts []upbitAccount
	if err := u.get("/v1/accounts", nil, &accounts); err != nil {
		return nil, fmt.Errorf("fetch accounts: %w", err)
	}
	return accounts, nil
}

func (u *Upbit) balanceOf(currency string) (balance, avgBuy decimal.Decimal, err error) {
	accounts, err := u.accounts()
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	for _, a := range accounts {
		if a.Currency != currency {
			continue
		}
		balance, err = decimal.NewFromString(a.Balance)
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("parse balance %q: %w", a.Balance, err)
		}
		avgBuy, err = decimal.NewFromString(a.AvgBuyPrice)
		if err != nil {
			return decimal.Zero, decimal.Zero, fmt.Errorf("parse avg buy price %q: %w", a.AvgBuyPrice, err)
		}
		return balance, avgBuy, nil
	}
	// Holding nothing of this currency is not an error.
	return decimal.Zero, decimal.Zero, nil
}

func (u *Upbit) CashBalance() (decimal.Decimal, error) {
	balance, _, err := u.balanceOf("KRW")
	return balance, err
}

func (u *Upbit) AssetBalance(symbol string) (decimal.Decimal, error) {
	balance, _, err := u.balanceOf(symbol)
	return balance, err
}

func (u *Upbit) AvgBuyPrice(symbol string) (decimal.Decimal, error) {
	_, avgBuy, err := u.balanceOf(symbol)
	return avgBuy, err
}

func (u *Upbit) CurrentPrice(market string) (decimal.Decimal, error) {
	var tickers []struct {
		TradePrice float64 `json:"trade_price"`
	}
	params := url.Values{"markets": {market}}
	if err := u.get("/v1/ticker", params, &tickers); err != nil {
		return decimal.Zero, fmt.Errorf("fetch ticker %s: %w", market, err)
	}
	if len(tickers) == 0 {
		return decimal.Zero, fmt.Errorf("fetch ticker %s: empty response", market)
	}
	return decimal.NewFromFloat(tickers[0].TradePrice), nil
}

// upbitCandle is one bar of the candle endpoints, newest first.
type upbitCandle struct {
	Market       string  `json:"market"`
	TimestampKST string  `json:"candle_date_time_kst"`
	Opening      float64 `json:"opening_price"`
	High         float64 `json:"high_price"`
	Low          float64 `json:"low_price"`
	Trade        float64 `json:"trade_price"`
	TimestampMs  int64   `json:"timestamp"`
	Volume       float64 `json:"candle_acc_trade_volume"`
}

func (u *Upbit) Candles(market, interval string, count int) ([]model.OHLCV, error) {
	path, err := candlePath(interval)
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"market": {market},
		"count":  {fmt.Sprintf("%d", count)},
	}
	var candles []upbitCandle
	if err := u.get(path, params, &candles); err != nil {
		return nil, fmt.Errorf("fetch candles %s %s: %w", market, interval, err)
	}

	bars := make([]model.OHLCV, len(candles))
	for i, c := range candles {
		bars[i] = model.OHLCV{
			Time:   time.UnixMilli(c.TimestampMs),
			Open:   c.Opening,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Trade,
			Volume: c.Volume,
		}
	}
	// API returns newest first; callers expect chronological order.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// candlePath maps an interval name like "minute5" or "day" to its
// endpoint.
func candlePath(interval string) (string, error) {
	if interval == "day" {
		return "/v1/candles/days", nil
	}
	if unit, ok := strings.CutPrefix(interval, "minute"); ok && unit != "" {
		return "/v1/candles/minutes/" + unit, nil
	}
	return "", fmt.Errorf("unsupported candle interval %q", interval)
}

func (u *Upbit) Orderbook(market string) (*model.Orderbook, error) {
	var books []model.Orderbook
	params := url.Values{"markets": {market}}
	if err := u.get("/v1/orderbook", params, &books); err != nil {
		return nil, fmt.Errorf("fetch orderbook %s: %w", market, err)
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("fetch orderbook %s: empty response", market)
	}
	return &books[0], nil
}

func (u *Upbit) MarketBuy(market string, cashAmount decimal.Decimal) (*Order, error) {
	params := url.Values{
		"market":   {market},
		"side":     {"bid"},
		"price":    {cashAmount.String()},
		"ord_type": {"price"},
	}
	return u.placeOrder(params)
}

func (u *Upbit) MarketSell(market string, volume decimal.Decimal) (*Order, error) {
	params := url.Values{
		"market":   {market},
		"side":     {"ask"},
		"volume":   {volume.String()},
		"ord_type": {"market"},
	}
	return u.placeOrder(params)
}

func (u *Upbit) placeOrder(params url.Values) (*Order, error) {
	var order Order
	if err := u.do(http.MethodPost, "/v1/orders", params, &order); err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	return &order, nil
}

func (u *Upbit) get(path string, params url.Values, out interface{}) error {
	return u.do(http.MethodGet, path, params, out)
}

func (u *Upbit) do(method, path string, params url.Values, out interface{}) error {
	endpoint := u.BaseURL + path
	var body io.Reader
	query := params.Encode()

	if method == http.MethodGet {
		if query != "" {
			endpoint += "?" + query
		}
	} else {
		body = strings.NewReader(query)
	}

	req, err := http.NewRequest(method, endpoint, body)
	if err != nil {
		return err
	}
	if method != http.MethodGet {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	token, err := u.authToken(query)
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := u.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s: status %d, body: %s", method, path, resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

// authToken builds the signed JWT Upbit expects. The query hash is
// only included when the request carries parameters.
func (u *Upbit) authToken(query string) (string, error) {
	claims := jwt.MapClaims{
		"access_key": u.AccessKey,
		"nonce":      uuid.NewString(),
	}
	if query != "" {
		sum := sha512.Sum512([]byte(query))
		claims["query_hash"] = hex.EncodeToString(sum[:])
		claims["query_hash_alg"] = "SHA512"
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(u.SecretKey))
}

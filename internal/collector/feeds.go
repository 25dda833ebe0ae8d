package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"CoinPilot/internal/model"
)

const defaultFearGreedURL = "https://api.alternative.me/fng/"

// Feeds fetches the auxiliary market-sentiment sources. Either source
// can be disabled by leaving its configuration empty.
type Feeds struct {
	FearGreedURL string
	SerpAPIKey   string
	Client       *http.Client
}

// NewFeeds creates the auxiliary feed client.
func NewFeeds(fearGreedURL, serpAPIKey string) *Feeds {
	if fearGreedURL == "" {
		fearGreedURL = defaultFearGreedURL
	}
	return &Feeds{
		FearGreedURL: fearGreedURL,
		SerpAPIKey:   serpAPIKey,
		Client:       &http.Client{Timeout: 10 * time.Second},
	}
}

// FearGreed fetches the latest crypto fear & greed index reading.
func (f *Feeds) FearGreed() (*model.FearGreed, error) {
	resp, err := f.Client.Get(f.FearGreedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch fear & greed index: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fear & greed index: status %d", resp.StatusCode)
	}
	var parsed struct {
		Data []model.FearGreed `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode fear & greed index: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("fear & greed index: empty data")
	}
	return &parsed.Data[0], nil
}

// News fetches up to five recent headlines for the symbol via SerpAPI
// Google News. Returns an empty list when no key is configured.
func (f *Feeds) News(symbol string) ([]model.Headline, error) {
	if f.SerpAPIKey == "" {
		return nil, nil
	}
	params := url.Values{
		"engine":  {"google_news"},
		"q":       {fmt.Sprintf("crypto OR %s", symbol)},
		"api_key": {f.SerpAPIKey},
	}
	resp, err := f.Client.Get("https://serpapi.com/search.json?" + params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("news: status %d, body: %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		NewsResults []struct {
			Title string `json:"title"`
			Date  string `json:"date"`
		} `json:"news_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}

	headlines := make([]model.Headline, 0, 5)
	for _, item := range parsed.NewsResults {
		headlines = append(headlines, model.Headline{Title: item.Title, Date: item.Date})
		if len(headlines) == 5 {
			break
		}
	}
	return headlines, nil
}

package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PontusDahlberg/Semesterappen/pkg/dateutil"
	"go.uber.org/zap"
)

const (
	// DefaultHolidayAPIURL is the public Nager.Date endpoint
	DefaultHolidayAPIURL = "https://date.nager.at"
	defaultTimeout       = 10 * time.Second
	defaultCacheTTL      = 24 * time.Hour
)

// HTTPSource implements HolidaySource using the Nager.Date public holiday API
type HTTPSource struct {
	apiURL     string
	country    string
	cacheTTL   time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	cache      map[int]*cachedYear
	cacheMu    sync.RWMutex
}

type cachedYear struct {
	data      HolidayTable
	fetchedAt time.Time
}

// publicHoliday represents one element of the API response
type publicHoliday struct {
	Date        string `json:"date"`
	LocalName   string `json:"localName"`
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
	Global      bool   `json:"global"`
}

// NewHTTPSource creates a new HTTPSource instance
func NewHTTPSource(apiURL, country string, cacheTTL time.Duration, logger *zap.Logger) *HTTPSource {
	if apiURL == "" {
		apiURL = DefaultHolidayAPIURL
	}
	if cacheTTL == 0 {
		cacheTTL = defaultCacheTTL
	}

	return &HTTPSource{
		apiURL:   strings.TrimRight(apiURL, "/"),
		country:  strings.ToUpper(country),
		cacheTTL: cacheTTL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
		cache:  make(map[int]*cachedYear),
	}
}

// Holidays returns the nationwide public holidays of year
func (hs *HTTPSource) Holidays(ctx context.Context, year int) (HolidayTable, error) {
	hs.cacheMu.RLock()
	if cached, ok := hs.cache[year]; ok {
		if time.Since(cached.fetchedAt) < hs.cacheTTL {
			hs.cacheMu.RUnlock()
			hs.logger.Debug("Using cached holidays", zap.Int("year", year))
			return copyTable(cached.data), nil
		}
	}
	hs.cacheMu.RUnlock()

	table, err := hs.fetchYear(ctx, year)
	if err != nil {
		return nil, err
	}

	hs.cacheMu.Lock()
	hs.cache[year] = &cachedYear{
		data:      table,
		fetchedAt: time.Now(),
	}
	hs.cacheMu.Unlock()

	hs.logger.Info("Holidays fetched and cached",
		zap.Int("year", year),
		zap.String("country", hs.country),
		zap.Int("count", len(table)))

	return copyTable(table), nil
}

// fetchYear fetches one year from the API
func (hs *HTTPSource) fetchYear(ctx context.Context, year int) (HolidayTable, error) {
	// Build URL: https://date.nager.at/api/v3/PublicHolidays/{year}/{country}
	url := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", hs.apiURL, year, hs.country)

	hs.logger.Debug("Fetching holiday data",
		zap.String("url", url),
		zap.Int("year", year))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build holiday request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hs.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holiday data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("holiday API returned status %d", resp.StatusCode)
	}

	var holidays []publicHoliday
	if err := json.NewDecoder(resp.Body).Decode(&holidays); err != nil {
		return nil, fmt.Errorf("failed to parse holiday response: %w", err)
	}

	table := HolidayTable{}
	for _, h := range holidays {
		// Regional holidays do not restrict the whole country
		if !h.Global {
			continue
		}
		date, err := dateutil.ParseDate(h.Date)
		if err != nil {
			hs.logger.Warn("Failed to parse date",
				zap.String("date", h.Date),
				zap.Error(err))
			continue
		}
		label := h.LocalName
		if label == "" {
			label = h.Name
		}
		table.Add(date, label)
	}

	return table, nil
}

// ClearCache clears the cache
func (hs *HTTPSource) ClearCache() {
	hs.cacheMu.Lock()
	defer hs.cacheMu.Unlock()

	hs.cache = make(map[int]*cachedYear)
	hs.logger.Info("Holiday cache cleared")
}

func copyTable(src HolidayTable) HolidayTable {
	out := make(HolidayTable, len(src))
	out.Merge(src)
	return out
}

package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Column layout of the roster sheet.
const (
	colFirstName = 0
	colLastName  = 1
	colBalance   = 7
)

const defaultSheetsBase = "https://sheets.googleapis.com"

// SheetsConfig configures the Google Sheets roster source.
type SheetsConfig struct {
	// SpreadsheetID identifies the spreadsheet document.
	SpreadsheetID string

	// SheetName is the tab holding the roster (quoted in the values range).
	SheetName string

	// APIKey authenticates read-only access.
	APIKey string

	// BaseURL overrides the API endpoint. Defaults to sheets.googleapis.com.
	BaseURL string

	// Timeout is the HTTP request timeout. Defaults to 30 s.
	Timeout time.Duration
}

// sheetsSource implements Source against the Sheets values API.
type sheetsSource struct {
	cfg    SheetsConfig
	client *http.Client
}

// NewSheets returns a Source reading player balances from Google Sheets.
// The returned source is safe for concurrent use.
func NewSheets(cfg SheetsConfig) Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultSheetsBase
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &sheetsSource{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// valuesResponse is the subset of the values.get reply this source reads.
// Cells arrive as formatted strings.
type valuesResponse struct {
	Values [][]string `json:"values"`
}

// Players fetches the sheet and parses one Player per data row. Rows without
// a first name are skipped; the first row is the header.
func (s *sheetsSource) Players(ctx context.Context) ([]Player, error) {
	rangeRef := url.PathEscape(fmt.Sprintf("'%s'", s.cfg.SheetName))
	reqURL := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?key=%s",
		s.cfg.BaseURL, url.PathEscape(s.cfg.SpreadsheetID), rangeRef, url.QueryEscape(s.cfg.APIKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("roster: create http request: %w", err)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("roster: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("roster: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("roster: sheets API returned HTTP %d: %.200s", resp.StatusCode, body)
	}

	var values valuesResponse
	if err := json.Unmarshal(body, &values); err != nil {
		return nil, fmt.Errorf("roster: decode sheets response: %w", err)
	}

	var players []Player
	for i, row := range values.Values {
		if i == 0 {
			continue // header
		}
		if len(row) <= colBalance {
			continue
		}
		first := strings.TrimSpace(row[colFirstName])
		if first == "" {
			continue
		}
		last := ""
		if len(row) > colLastName {
			last = strings.TrimSpace(row[colLastName])
		}

		players = append(players, Player{
			Name:    strings.TrimSpace(first + " " + last),
			Balance: parseBalance(row[colBalance]),
		})
	}

	return players, nil
}

// parseBalance strips currency formatting and parses the cell as a decimal.
// Unparseable cells count as zero, matching how the sheet treats blanks.
func parseBalance(cell string) decimal.Decimal {
	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(cell, "$", ""), ",", ""))
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

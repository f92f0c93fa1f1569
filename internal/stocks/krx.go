package stocks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stocknote/stocknote/internal/store"
)

const krxListingPath = "/comm/bldAttendant/getJsonData.cmd"

// KRXSource fetches the full KOSPI/KOSDAQ listing from the KRX data portal.
type KRXSource struct {
	baseURL string
	client  *http.Client
}

func NewKRXSource(baseURL string) *KRXSource {
	return &KRXSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// krxRow mirrors the fields of the portal's listing response we keep.
type krxRow struct {
	Code   string `json:"ISU_SRT_CD"`
	Name   string `json:"ISU_ABBRV"`
	Market string `json:"MKT_NM"`
}

// List posts the standard listing query and maps the response to directory
// rows. Rows without a code are dropped.
func (k *KRXSource) List(ctx context.Context) ([]store.Stock, error) {
	form := url.Values{
		"bld":         {"dbms/MDC/STAT/standard/MDCSTAT01901"},
		"mktId":       {"ALL"},
		"share":       {"1"},
		"csvxls_isNo": {"false"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		k.baseURL+krxListingPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("stocks: building KRX request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stocks: calling KRX: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("stocks: KRX returned %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		OutBlock []krxRow `json:"OutBlock_1"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("stocks: decoding KRX response: %w", err)
	}

	listing := make([]store.Stock, 0, len(payload.OutBlock))
	for _, row := range payload.OutBlock {
		code := strings.TrimSpace(row.Code)
		if code == "" {
			continue
		}
		listing = append(listing, store.Stock{
			Code:   code,
			Name:   strings.TrimSpace(row.Name),
			Market: strings.TrimSpace(row.Market),
		})
	}

	return listing, nil
}

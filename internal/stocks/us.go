package stocks

import (
	"context"
	"embed"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/stocknote/stocknote/internal/store"
)

//go:embed data/nasdaq.csv data/nyse.csv
var usSnapshots embed.FS

// USSource reads the bundled NASDAQ/NYSE listing snapshots. The snapshots are
// refreshed by replacing the CSV files at build time; there is no live US
// listing API in this product.
type USSource struct{}

func NewUSSource() *USSource {
	return &USSource{}
}

// List parses both exchange snapshots into directory rows.
func (u *USSource) List(ctx context.Context) ([]store.Stock, error) {
	var listing []store.Stock

	for _, snapshot := range []struct {
		file   string
		market string
	}{
		{"data/nasdaq.csv", "NASDAQ"},
		{"data/nyse.csv", "NYSE"},
	} {
		rows, err := parseSnapshot(snapshot.file, snapshot.market)
		if err != nil {
			return nil, err
		}
		listing = append(listing, rows...)
	}

	return listing, nil
}

func parseSnapshot(file, market string) ([]store.Stock, error) {
	f, err := usSnapshots.Open(file)
	if err != nil {
		return nil, fmt.Errorf("stocks: opening snapshot %s: %w", file, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("stocks: parsing snapshot %s: %w", file, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Header row: Symbol,Name,...
	var listing []store.Stock
	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		symbol := strings.TrimSpace(record[0])
		if symbol == "" {
			continue
		}
		listing = append(listing, store.Stock{
			Code:   symbol,
			Name:   strings.TrimSpace(record[1]),
			Market: market,
		})
	}

	return listing, nil
}

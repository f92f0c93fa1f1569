package main

import (
	"context"
	"flag"
	"time"

	"github.com/stocknote/stocknote/internal/config"
	"github.com/stocknote/stocknote/internal/logger"
	"github.com/stocknote/stocknote/internal/stocks"
	"github.com/stocknote/stocknote/internal/store"
)

// syncstocks refreshes the stock directory once and exits. It is meant to run
// from cron; the API server can also trigger the same sync as a background
// job.
func main() {
	market := flag.String("market", "all", "market to sync: krx, us, or all")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	syncer := stocks.NewSyncer(store.NewStocks(pool), store.NewSyncMeta(pool))

	type target struct {
		metaKey string
		src     stocks.Source
	}

	var targets []target
	switch *market {
	case "krx":
		targets = []target{{stocks.MetaKeyKRX, stocks.NewKRXSource(cfg.KRXBaseURL)}}
	case "us":
		targets = []target{{stocks.MetaKeyUS, stocks.NewUSSource()}}
	case "all":
		targets = []target{
			{stocks.MetaKeyKRX, stocks.NewKRXSource(cfg.KRXBaseURL)},
			{stocks.MetaKeyUS, stocks.NewUSSource()},
		}
	default:
		log.Fatal().Str("market", *market).Msg("Unknown market, expected krx, us, or all")
	}

	failed := false
	for _, tg := range targets {
		start := time.Now()
		count, err := syncer.Sync(ctx, tg.metaKey, tg.src)
		if err != nil {
			log.Error().Err(err).Str("market", tg.metaKey).Msg("Sync failed")
			failed = true
			continue
		}
		log.Info().
			Str("market", tg.metaKey).
			Int("count", count).
			Dur("duration", time.Since(start)).
			Msg("Sync completed")
	}

	if failed {
		log.Fatal().Msg("One or more markets failed to sync")
	}
}

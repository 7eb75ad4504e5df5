package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/ragline/ragline/internal/config"
	"github.com/ragline/ragline/pkg/orderbook"
)

func runOrderbook(ctx context.Context, cfg *config.Config, log *logrus.Logger, args []string) error {
	fs := flag.NewFlagSet("orderbook", flag.ExitOnError)
	url := fs.String("url", cfg.Feed.URL, "websocket depth feed URL")
	symbol := fs.String("symbol", cfg.Feed.Symbol, "symbol to track")
	depth := fs.Int("depth", cfg.Feed.Depth, "levels to keep per side")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *url == "" {
		return errors.New("-url or FEED_URL is required")
	}

	book := orderbook.NewBook(*symbol)
	pipe, err := orderbook.NewPipeline(book, *depth)
	if err != nil {
		return err
	}

	feed := orderbook.NewFeed(orderbook.DefaultFeedConfig(*url), log)

	err = feed.Run(ctx, func(update orderbook.Update) {
		outputs, err := pipe.Run(ctx, orderbook.UpdateInputs(update))
		if err != nil {
			log.WithError(err).Warn("depth message dropped")
			return
		}

		top, err := orderbook.TopOf(outputs)
		if err != nil {
			log.WithError(err).Warn("unable to read aggregated top")
			return
		}

		printTop(top)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func printTop(top orderbook.Top) {
	if len(top.Bids) == 0 || len(top.Asks) == 0 {
		return
	}

	bid, ask := top.Bids[0], top.Asks[0]
	fmt.Printf("%s seq=%d bid %s x %g | ask %s x %g\n",
		top.Symbol, top.Sequence, bid.Price, bid.Quantity, ask.Price, ask.Quantity)
}

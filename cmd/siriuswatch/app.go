package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"siriuswatch/internal/api"
	"siriuswatch/internal/config"
	"siriuswatch/internal/discord"
	"siriuswatch/internal/notify"
	"siriuswatch/internal/poller"
	"siriuswatch/internal/state"
)

// app wires the components together once at startup. Everything hangs
// off this struct instead of package globals.
type app struct {
	state  *state.State
	store  *state.Store
	poller *poller.Poller
}

func buildApp(cfg *config.Config, logger *zap.Logger) (*app, error) {
	store := state.NewStore(cfg.State.Path, logger)
	st, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}

	apiTimeout := time.Duration(cfg.API.TimeoutSec) * time.Second

	eventsAuth := api.NewAuth(cfg.API.TokenURL, cfg.API.ClientID, cfg.API.ClientSecret,
		api.ScopeSiriusRead, apiTimeout, logger)
	events := api.NewClient(cfg.API.BaseURL, eventsAuth, cfg.API.RatePerSecond, apiTimeout, logger)

	var news api.NewsSource
	if cfg.Poll.News {
		newsAuth := api.NewAuth(cfg.API.TokenURL, cfg.API.ClientID, cfg.API.ClientSecret,
			api.ScopeCpagesRead, apiTimeout, logger)
		news = api.NewNewsClient(cfg.API.NewsURL, newsAuth, cfg.API.RatePerSecond, apiTimeout, logger)
	}

	sender := discord.NewClient(cfg.Discord.BaseURL, cfg.Discord.Token,
		time.Duration(cfg.Discord.TimeoutSec)*time.Second, logger)
	notifier := notify.New(sender, logger)

	return &app{
		state:  st,
		store:  store,
		poller: poller.New(events, news, notifier, store, st, logger),
	}, nil
}

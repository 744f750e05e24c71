package main

import (
	"context"
	"errors"

	"evcal/internal/config"
	"evcal/internal/ics"
	appLog "evcal/internal/log"
	"evcal/internal/model"
	"evcal/internal/snapshot"
)

var demoReference = model.MustParseDate("2024-11-15")

func demoEvents() []model.Event {
	return []model.Event{
		{ID: "1", Title: "Vacation", Start: model.MustParseDate("2024-11-05"), End: model.MustParseDate("2024-11-10"), Color: model.ColorPeacock},
		{ID: "2", Title: "Conference", Start: model.MustParseDate("2024-11-15"), End: model.MustParseDate("2024-11-17"), Color: model.ColorSage},
		{ID: "3", Title: "Team Building", Start: model.MustParseDate("2024-11-20"), End: model.MustParseDate("2024-11-20"), Color: model.ColorLavender},
	}
}

// loadEvents picks the initial collection. The first source that yields
// events wins: snapshot, seed file, ICS subscriptions, then demo data.
func loadEvents(ctx context.Context, conf *config.Config, demo bool) ([]model.Event, string) {
	if conf.SnapshotFile != "" {
		events, err := snapshot.Load(conf.SnapshotFile)
		switch {
		case err == nil:
			return events, "snapshot"
		case errors.Is(err, snapshot.ErrNotExist):
			appLog.Debug("no snapshot yet", "path", conf.SnapshotFile)
		default:
			appLog.Error("snapshot unreadable, trying other sources", err, "path", conf.SnapshotFile)
		}
	}

	if conf.SeedFile != "" {
		events, err := snapshot.Load(conf.SeedFile)
		if err == nil {
			return events, "seed_file"
		}
		appLog.Error("seed file unreadable", err, "path", conf.SeedFile)
	}

	if len(conf.ICS) > 0 {
		if events := importICS(ctx, conf); len(events) > 0 {
			return events, "ics"
		}
	}

	if demo {
		return demoEvents(), "demo"
	}
	return nil, "empty"
}

func importICS(ctx context.Context, conf *config.Config) []model.Event {
	sources := make([]ics.Source, 0, len(conf.ICS))
	for _, c := range conf.ICS {
		id := c.ID
		if id == "" {
			id = c.Name
		}
		sources = append(sources, ics.Source{ID: id, URL: c.URL})
	}

	// Failed sources are logged by the fetcher; import whatever arrived.
	events, _ := ics.NewFetcher(conf.ICSCacheDir, nil).Import(ctx, sources)
	return events
}

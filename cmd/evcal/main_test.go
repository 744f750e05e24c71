package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"evcal/internal/config"
	"evcal/internal/model"
	"evcal/internal/snapshot"
	"evcal/internal/store"
)

func TestLoadEventsPriority(t *testing.T) {
	dir := t.TempDir()
	conf := config.DefaultConfig()
	conf.SnapshotFile = filepath.Join(dir, "events.yaml")
	conf.SeedFile = filepath.Join(dir, "seed.yaml")
	conf.ICS = nil

	events, origin := loadEvents(context.Background(), conf, false)
	require.Equal(t, "empty", origin)
	require.Empty(t, events)

	events, origin = loadEvents(context.Background(), conf, true)
	require.Equal(t, "demo", origin)
	require.Len(t, events, 3)

	seed := []model.Event{{ID: "9", Title: "Seeded", Start: demoReference, End: demoReference, Color: model.ColorBasil}}
	require.NoError(t, snapshot.Save(conf.SeedFile, seed))
	events, origin = loadEvents(context.Background(), conf, true)
	require.Equal(t, "seed_file", origin)
	require.Equal(t, seed, events)

	require.NoError(t, snapshot.Save(conf.SnapshotFile, demoEvents()[:1]))
	events, origin = loadEvents(context.Background(), conf, true)
	require.Equal(t, "snapshot", origin)
	require.Len(t, events, 1)
}

func TestSnapshotSaverWritesOnlyOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.yaml")
	st := store.New()
	st.Initialize(demoEvents())

	s := newSnapshotSaver(path, st)
	s.saveIfChanged()
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))

	st.Delete("2")
	s.saveIfChanged()
	saved, err := snapshot.Load(path)
	require.NoError(t, err)
	require.Len(t, saved, 2)

	require.Nil(t, newSnapshotSaver("", st))
}

func TestInitialView(t *testing.T) {
	conf := config.DefaultConfig()
	conf.DefaultView = "week"

	v := initialView(conf, true)
	require.Equal(t, model.Week, v.Granularity)
	require.Equal(t, demoReference, v.Reference)

	conf.Timezone = "Not/AZone"
	v = initialView(conf, false)
	require.Equal(t, model.Today(time.UTC), v.Reference)
}

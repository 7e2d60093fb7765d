// loopd serves the loop activation API over HTTP.
package main

import (
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/api"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/engine"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/ladder"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/obstore"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/registry"
	"github.com/Abbraik/radiant-zone-nexus-flow-sub005/internal/tasks"
)

// #region main
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbPath := envOr("LOOPCORE_DB", "loopcore.db")
	addr := envOr("LOOPCORE_ADDR", ":8084")

	reg := registry.Default()
	if path := os.Getenv("LOOPCORE_REGISTRY"); path != "" {
		reg, err = registry.LoadOverrides(path)
		if err != nil {
			logger.Fatal("load registry overrides", zap.Error(err))
		}
	}

	store, err := obstore.NewStore(dbPath)
	if err != nil {
		logger.Fatal("open observation store", zap.Error(err))
	}
	defer store.Close()

	taskStore, err := tasks.NewStoreWithDB(store.DB())
	if err != nil {
		logger.Fatal("open task store", zap.Error(err))
	}

	l := ladder.New(ladder.DefaultConfig(), reg)
	eng, err := engine.New(store, taskStore, l, engine.DefaultConfig(), logger)
	if err != nil {
		logger.Fatal("build engine", zap.Error(err))
	}

	server := api.New(eng, l, logger)
	logger.Info("loopd ready", zap.String("addr", addr), zap.String("db", dbPath))
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers

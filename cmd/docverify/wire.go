package main

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/custodia-labs/docverify/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docverify/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docverify/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docverify/internal/adapters/driving/cli"
	"github.com/custodia-labs/docverify/internal/connectors/docapi"
	"github.com/custodia-labs/docverify/internal/core/ports/driven"
	"github.com/custodia-labs/docverify/internal/core/services"
	"github.com/custodia-labs/docverify/internal/logger"
)

// wire builds the service graph. Settings are wired first so a broken
// configuration can still be fixed with "docverify config set".
func wire(opts cli.Options) (*cli.Services, func(), error) {
	configStore, err := openConfigStore(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	svcs := &cli.Services{Settings: settingsService}

	settings, err := settingsService.Get()
	if err != nil {
		return svcs, nil, fmt.Errorf("load settings from %s: %w", configStore.Path(), err)
	}

	credentials, closeStore, err := openCredentialStore(opts)
	if err != nil {
		return svcs, nil, fmt.Errorf("open credential store: %w", err)
	}

	client, err := docapi.NewClient(settings.API.BaseURL, credentials,
		docapi.WithHTTPClient(&http.Client{Timeout: settings.API.Timeout}),
		docapi.WithRateLimiter(docapi.NewRateLimiter(settings.API.RatePerSecond, settings.API.Burst)),
	)
	if err != nil {
		closeStore()
		return svcs, nil, err
	}

	auth := docapi.NewAuthClient(client)
	client.SetRefresher(services.NewSessionRefresher(credentials, auth, settings.Session.RenewTimeout))
	documents := docapi.NewDocuments(client)

	svcs.Session = services.NewSessionService(credentials, auth, docapi.NewClaimsInspector())
	svcs.Documents = documents
	svcs.Reconciler = services.NewPollingReconciler(documents, settings.Poll)

	logger.Debug("wired client for %s", client.BaseURL())
	return svcs, closeStore, nil
}

func openConfigStore(opts cli.Options) (driven.ConfigStore, error) {
	if opts.Ephemeral {
		return memory.NewConfigStore(), nil
	}
	return file.NewConfigStore(opts.ConfigDir)
}

// openCredentialStore returns the store and a function that closes it.
func openCredentialStore(opts cli.Options) (driven.CredentialStore, func(), error) {
	if opts.Ephemeral {
		return memory.NewCredentialStore(), func() {}, nil
	}

	dataDir := ""
	if opts.ConfigDir != "" {
		dataDir = filepath.Join(opts.ConfigDir, "data")
	}
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, nil, err
	}
	return store.CredentialStore(), func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing credential store: %v", err)
		}
	}, nil
}

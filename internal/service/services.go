package service

import (
	"github.com/MKhiriev/go-session-keeper/internal/adapter"
	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/store"
	"github.com/MKhiriev/go-session-keeper/models"
)

type Services struct {
	Events    EventBroadcaster
	Lifecycle LifecycleManager
	Restore   RestoreService
	Messages  MessageDispatcher
	AppInfo   AppInfoService
}

func NewServices(
	storages *store.Storages,
	factory adapter.ConnectorFactory,
	fetcher adapter.ArchiveFetcher,
	cfg config.StructuredConfig,
	build models.AppBuildInfo,
	logger *logger.Logger,
) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg.App, build, logger)
	if err != nil {
		return nil, err
	}

	events := NewEventBroadcaster(logger)
	info := NewInfoFetcher(events, cfg.App, logger)
	lifecycle := NewLifecycleManager(factory, storages.Sessions, info, events, storages.History, cfg.App, logger)
	ingester := NewArchiveIngester(storages.Sessions, fetcher, cfg.Storage.Sessions, logger)

	return &Services{
		Events:    events,
		Lifecycle: lifecycle,
		Restore:   NewRestoreService(ingester, lifecycle, events, storages.History, logger),
		Messages:  NewMessageDispatcher(lifecycle, events, logger),
		AppInfo:   appInfo,
	}, nil
}

package service

import (
	"context"

	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/models"
)

type appInfoService struct {
	version models.VersionInfo

	logger *logger.Logger
}

// NewAppInfoService reports cfg.Version when set and the linker-injected
// build version otherwise.
func NewAppInfoService(cfg config.App, build models.AppBuildInfo, logger *logger.Logger) (AppInfoService, error) {
	version := cfg.Version
	if version == "" {
		version = build.BuildVersion()
	}
	if version == "" {
		return nil, ErrVersionIsNotSpecified
	}

	return &appInfoService{
		version: models.VersionInfo{
			Version: version,
			Date:    build.BuildDate(),
			Commit:  build.BuildCommit(),
		},
		logger: logger,
	}, nil
}

func (s *appInfoService) GetAppVersion(ctx context.Context) models.VersionInfo {
	return s.version
}

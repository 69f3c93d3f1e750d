package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-session-keeper/internal/adapter"
	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/models"
)

const (
	unknownAccountName   = "No name"
	unknownAccountNumber = "Unknown"

	defaultInfoPollInterval = 500 * time.Millisecond
	defaultInfoTimeout      = 20 * time.Second
)

type infoFetcher struct {
	events EventBroadcaster

	pollInterval time.Duration
	timeout      time.Duration

	logger *logger.Logger
}

func NewInfoFetcher(events EventBroadcaster, cfg config.App, logger *logger.Logger) InfoFetcher {
	f := &infoFetcher{
		events:       events,
		pollInterval: cfg.InfoPollInterval,
		timeout:      cfg.InfoTimeout,
		logger:       logger,
	}
	if f.pollInterval <= 0 {
		f.pollInterval = defaultInfoPollInterval
	}
	if f.timeout <= 0 {
		f.timeout = defaultInfoTimeout
	}

	return f
}

// Fetch waits for the account descriptor, lists the chats and emits exactly
// one of session-info (at least one group) or no-groups. A failed chat
// listing is reported as a warning and counts as zero groups.
func (f *infoFetcher) Fetch(ctx context.Context, slot string, conn adapter.Connector) error {
	emitLog(f.events, slot, models.SeverityInfo, "Fetching account info...")

	descriptor, err := f.waitForDescriptor(ctx, conn)
	if err != nil {
		emitLog(f.events, slot, models.SeverityError, "Could not read account info: "+err.Error())
		return err
	}

	account := accountInfo(descriptor)
	emitLog(f.events, slot, models.SeverityInfo, fmt.Sprintf("Account: %s (%s)", account.Name, account.Number))

	chats, err := conn.GetChats(ctx)
	if err != nil {
		f.logger.Warn().Err(err).Str("slot", slot).Msg("error listing chats")
		emitLog(f.events, slot, models.SeverityWarn, "Could not list chats, reporting no groups")
		chats = nil
	}

	groups := groupSummaries(chats)
	emitLog(f.events, slot, models.SeverityInfo, fmt.Sprintf("Groups found: %d", len(groups)))

	if len(groups) == 0 {
		f.events.Emit(slot, models.Event{
			Type:    models.EventNoGroups,
			Message: "account is not a member of any group",
			Account: &account,
		})
		return nil
	}

	f.events.Emit(slot, models.Event{
		Type:     models.EventSessionInfo,
		Severity: models.SeveritySuccess,
		SessionInfo: &models.SessionInfo{
			AccountName:   account.Name,
			AccountNumber: account.Number,
			Groups:        groups,
		},
	})
	return nil
}

// waitForDescriptor polls conn.Info until it is populated or the info
// timeout elapses.
func (f *infoFetcher) waitForDescriptor(ctx context.Context, conn adapter.Connector) (*models.AccountDescriptor, error) {
	if d := conn.Info(); d != nil {
		return d, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	ticker := time.NewTicker(f.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: account info not available after %s", ErrConnectionTimeout, f.timeout)
			}
			return nil, waitCtx.Err()
		case <-ticker.C:
			if d := conn.Info(); d != nil {
				return d, nil
			}
		}
	}
}

func accountInfo(d *models.AccountDescriptor) models.AccountInfo {
	info := models.AccountInfo{Name: d.PushName, Number: d.User}
	if info.Name == "" {
		info.Name = unknownAccountName
	}
	if info.Number == "" {
		info.Number = unknownAccountNumber
	}
	return info
}

func groupSummaries(chats []models.Chat) []models.GroupSummary {
	var groups []models.GroupSummary
	for _, chat := range chats {
		if !chat.IsGroup {
			continue
		}
		groups = append(groups, models.GroupSummary{
			Name:        chat.Name,
			MemberCount: max(chat.Participants, 0),
		})
	}
	return groups
}

package application

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// SettingsRepository captures the persistence operations needed by the settings service.
type SettingsRepository interface {
	GetSettings(ctx context.Context) (AppSettings, error)
	SaveSettings(ctx context.Context, settings AppSettings) error
}

// SettingsService exposes the workspace configuration document.
type SettingsService struct {
	settings SettingsRepository
}

// NewSettingsService wires dependencies for the settings service.
func NewSettingsService(settings SettingsRepository) *SettingsService {
	return &SettingsService{settings: settings}
}

// GetSettings returns the current workspace configuration for any
// authenticated user.
func (s *SettingsService) GetSettings(ctx context.Context, principal Principal) (AppSettings, error) {
	if s == nil {
		return AppSettings{}, fmt.Errorf("SettingsService is nil")
	}
	if principal.UserID == "" {
		return AppSettings{}, ErrUnauthorized
	}
	if s.settings == nil {
		return AppSettings{}, fmt.Errorf("settings repository not configured")
	}
	return s.settings.GetSettings(ctx)
}

// SaveSettings replaces the workspace configuration for administrators.
func (s *SettingsService) SaveSettings(ctx context.Context, principal Principal, settings AppSettings) (AppSettings, error) {
	if s == nil {
		return AppSettings{}, fmt.Errorf("SettingsService is nil")
	}
	if !principal.IsAdmin {
		return AppSettings{}, ErrUnauthorized
	}
	if s.settings == nil {
		return AppSettings{}, fmt.Errorf("settings repository not configured")
	}

	normalized := AppSettings{
		OrganizationName:         strings.TrimSpace(settings.OrganizationName),
		GoogleCalendarID:         strings.TrimSpace(settings.GoogleCalendarID),
		GoogleClientID:           strings.TrimSpace(settings.GoogleClientID),
		EmailWebhookURL:          strings.TrimSpace(settings.EmailWebhookURL),
		EnableEmailNotifications: settings.EnableEmailNotifications,
	}

	vErr := &ValidationError{}
	if normalized.OrganizationName == "" {
		vErr.add("organization_name", "organization name is required")
	}
	if normalized.EmailWebhookURL != "" {
		parsed, err := url.Parse(normalized.EmailWebhookURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			vErr.add("email_webhook_url", "webhook url must be an http or https url")
		}
	}
	if vErr.HasErrors() {
		return AppSettings{}, vErr
	}

	if err := s.settings.SaveSettings(ctx, normalized); err != nil {
		return AppSettings{}, err
	}

	return normalized, nil
}

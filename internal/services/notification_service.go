package services

import (
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"regexp"
	"strings"

	"github.com/containrrr/shoutrrr"
	"gorm.io/gorm"

	"github.com/transparencity/backend/internal/logger"
	"github.com/transparencity/backend/internal/models"
	"github.com/transparencity/backend/internal/util"
)

// Event types understood by SendExternal.
const (
	EventStatus         = "status"
	EventResponse       = "response"
	EventImplementation = "implementation"
	EventTest           = "test"
)

// Notifier delivers platform events to external destinations.
type Notifier interface {
	SendExternal(eventType, title, message string)
}

type NotificationService struct {
	DB   *gorm.DB
	send func(url, message string) error
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		DB: db,
		send: func(url, message string) error {
			return shoutrrr.Send(url, message)
		},
	}
}

var discordWebhookRegex = regexp.MustCompile(`^https://discord(?:app)?\.com/api/webhooks/(\d+)/([a-zA-Z0-9_-]+)`)

func normalizeURL(serviceType, rawURL string) string {
	if serviceType == "discord" {
		matches := discordWebhookRegex.FindStringSubmatch(rawURL)
		if len(matches) == 3 {
			id := matches[1]
			token := matches[2]
			return fmt.Sprintf("discord://%s@%s", token, id)
		}
	}
	return rawURL
}

func wantsEvent(p models.NotificationProvider, eventType string) bool {
	switch eventType {
	case EventStatus:
		return p.NotifyStatus
	case EventResponse:
		return p.NotifyResponses
	case EventImplementation:
		return p.NotifyImplementation
	default:
		return true
	}
}

// SendExternal fans the event out to every enabled provider that subscribed to it.
// Delivery is asynchronous and best-effort; failures are logged.
func (s *NotificationService) SendExternal(eventType, title, message string) {
	providers := []models.NotificationProvider{}
	if err := s.DB.Where("enabled = ?", true).Find(&providers).Error; err != nil {
		logger.Log().WithError(err).Error("Failed to fetch notification providers")
		return
	}

	msg := fmt.Sprintf("%s\n\n%s", title, message)
	for _, provider := range providers {
		if !wantsEvent(provider, eventType) {
			continue
		}
		go func(p models.NotificationProvider) {
			if err := s.deliver(p, msg); err != nil {
				logger.Log().WithError(err).
					WithField("provider", util.SanitizeForLog(p.Name)).
					WithField("event", eventType).
					Warn("Failed to send notification")
			}
		}(provider)
	}
}

func (s *NotificationService) deliver(p models.NotificationProvider, msg string) error {
	url := normalizeURL(p.Type, p.URL)
	// Validate HTTP/HTTPS destinations used by shoutrrr to reduce SSRF risk
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		if _, err := validateWebhookURL(url); err != nil {
			return fmt.Errorf("invalid destination: %w", err)
		}
	}
	return s.send(url, msg)
}

// isPrivateIP returns true for RFC1918, loopback and link-local addresses.
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	return ip.IsPrivate()
}

// validateWebhookURL parses and validates webhook URLs and ensures
// the resolved addresses are not private/local.
func validateWebhookURL(raw string) (*neturl.URL, error) {
	u, err := neturl.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("missing host")
	}

	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return nil, fmt.Errorf("private address not allowed: %s", host)
		}
		return u, nil
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, fmt.Errorf("dns lookup failed: %w", err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return nil, fmt.Errorf("host resolves to private address: %s", host)
		}
	}
	return u, nil
}

// TestProvider sends a synchronous test message through provider.
func (s *NotificationService) TestProvider(provider models.NotificationProvider) error {
	return s.deliver(provider, "TransparenCity test notification\n\nIf you can read this, the provider works.")
}

func validateProvider(p *models.NotificationProvider) error {
	if strings.TrimSpace(p.Name) == "" {
		return validationError("provider name is required")
	}
	if strings.TrimSpace(p.URL) == "" {
		return validationError("provider url is required")
	}
	return nil
}

func (s *NotificationService) ListProviders() ([]models.NotificationProvider, error) {
	providers := []models.NotificationProvider{}
	result := s.DB.Order("created_at asc").Find(&providers)
	return providers, result.Error
}

func (s *NotificationService) CreateProvider(provider *models.NotificationProvider) error {
	if err := validateProvider(provider); err != nil {
		return err
	}
	return s.DB.Create(provider).Error
}

func (s *NotificationService) UpdateProvider(provider *models.NotificationProvider) error {
	if err := validateProvider(provider); err != nil {
		return err
	}
	var existing models.NotificationProvider
	if err := s.DB.Where("id = ?", provider.ID).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProviderNotFound
		}
		return err
	}
	provider.CreatedAt = existing.CreatedAt
	return s.DB.Save(provider).Error
}

func (s *NotificationService) DeleteProvider(id string) error {
	result := s.DB.Delete(&models.NotificationProvider{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProviderNotFound
	}
	return nil
}

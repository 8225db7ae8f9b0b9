package service

import (
	"strconv"

	"pgnest/internal/domain"
	"pgnest/internal/models"
)

// SettingsReader is the typed view over system_settings used by the workflows.
type SettingsReader interface {
	GetString(key, fallback string) string
	GetInt64(key string, fallback int64) int64
	GetFloat(key string, fallback float64) float64
}

// SettingsWriter persists admin edits.
type SettingsWriter interface {
	Set(key, value string, by uint) error
	GetAll() ([]models.SystemSetting, error)
}

func defaultInt64(key string) int64 {
	n, _ := strconv.ParseInt(domain.DefaultSettings[key], 10, 64)
	return n
}

func defaultFloat(key string) float64 {
	f, _ := strconv.ParseFloat(domain.DefaultSettings[key], 64)
	return f
}

// depositPolicy resolves deposit terms: the room's override, then the listing's
// terms, then the platform default. room may be nil.
func depositPolicy(s SettingsReader, l *models.Listing, room *models.RoomConfiguration) domain.DepositPolicy {
	if room != nil && room.DepositType != "" {
		return domain.DepositPolicy{Type: room.DepositType, Value: room.DepositValue}
	}
	if l != nil && l.DepositType != "" {
		return domain.DepositPolicy{Type: l.DepositType, Value: l.DepositValue}
	}
	return domain.DepositPolicy{
		Type:  s.GetString(domain.SettingSecurityDepositType, domain.DefaultSettings[domain.SettingSecurityDepositType]),
		Value: s.GetInt64(domain.SettingSecurityDepositValue, defaultInt64(domain.SettingSecurityDepositValue)),
	}
}

func gstPercent(s SettingsReader) float64 {
	return s.GetFloat(domain.SettingGSTPercent, defaultFloat(domain.SettingGSTPercent))
}

// SettingsService backs the admin settings screen.
type SettingsService struct {
	store SettingsWriter
}

func NewSettingsService(store SettingsWriter) *SettingsService {
	return &SettingsService{store: store}
}

// All returns every known key, filling in defaults for keys never saved.
func (s *SettingsService) All() (map[string]string, error) {
	rows, err := s.store.GetAll()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(domain.DefaultSettings))
	for k, v := range domain.DefaultSettings {
		out[k] = v
	}
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// Update validates and stores a batch of settings. Unknown keys are rejected.
func (s *SettingsService) Update(values map[string]string, adminID uint) error {
	verr := &ValidationError{}
	for k, v := range values {
		if _, ok := domain.DefaultSettings[k]; !ok {
			verr.add(k, "unknown setting")
			continue
		}
		switch k {
		case domain.SettingSecurityDepositType:
			if v != domain.DepositTypeFixed && v != domain.DepositTypeMonths {
				verr.add(k, "must be fixed or months")
			}
		case domain.SettingSecurityDepositValue, domain.SettingReferralRewardPaise:
			if n, err := strconv.ParseInt(v, 10, 64); err != nil || n < 0 {
				verr.add(k, "must be a non-negative integer")
			}
		case domain.SettingGSTPercent:
			if f, err := strconv.ParseFloat(v, 64); err != nil || f < 0 || f > 100 {
				verr.add(k, "must be between 0 and 100")
			}
		case domain.SettingInvoicePrefix, domain.SettingSupportEmail:
			if v == "" {
				verr.add(k, "is required")
			}
		}
	}
	if err := verr.orNil(); err != nil {
		return err
	}
	for k, v := range values {
		if err := s.store.Set(k, v, adminID); err != nil {
			return err
		}
	}
	return nil
}

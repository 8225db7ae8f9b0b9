package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"pgnest/internal/domain"
	"pgnest/internal/models"

	"gorm.io/gorm"
)

var ErrInvalidReferralCode = errors.New("referral code not found")

type ReferralStore interface {
	Create(ref *models.Referral) error
	GetByReferredUser(userID uint) (*models.Referral, error)
	Credit(id uint, rewardPaise int64, bookingID uint) (bool, error)
	ListByReferrer(referrerID uint, limit, offset int) ([]models.Referral, error)
	EarnedByReferrer(referrerID uint) (int64, error)
}

type ReferrerLookup interface {
	GetByReferralCode(code string) (*models.User, error)
}

type ConfirmedBookingCounter interface {
	CountConfirmedExcept(userID, exceptID uint) (int64, error)
}

type ReferralNotifier interface {
	ReferralCredited(ctx context.Context, ref *models.Referral)
}

// ReferralService links new users to their referrer and pays the referrer once the
// referred user's first booking is confirmed.
type ReferralService struct {
	referrals ReferralStore
	users     ReferrerLookup
	bookings  ConfirmedBookingCounter
	settings  SettingsReader
	notifier  ReferralNotifier
}

func NewReferralService(
	referrals ReferralStore,
	users ReferrerLookup,
	bookings ConfirmedBookingCounter,
	settings SettingsReader,
	notifier ReferralNotifier,
) *ReferralService {
	return &ReferralService{
		referrals: referrals,
		users:     users,
		bookings:  bookings,
		settings:  settings,
		notifier:  notifier,
	}
}

// Referrer resolves a submitted code to its owner.
func (s *ReferralService) Referrer(code string) (*models.User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInvalidReferralCode
	}
	u, err := s.users.GetByReferralCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidReferralCode
		}
		return nil, err
	}
	return u, nil
}

// Attach records a pending referral for a freshly registered user.
func (s *ReferralService) Attach(referrer, newUser *models.User) error {
	if referrer == nil || referrer.ID == newUser.ID {
		return ErrInvalidReferralCode
	}
	return s.referrals.Create(&models.Referral{
		ReferrerID:     referrer.ID,
		ReferredUserID: newUser.ID,
		Status:         domain.ReferralStatusPending,
	})
}

// CreditFirstBooking pays the referrer when b is the referred user's first confirmed
// booking. Later bookings and users without a referral are ignored.
func (s *ReferralService) CreditFirstBooking(ctx context.Context, b *models.Booking) {
	ref, err := s.referrals.GetByReferredUser(b.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[referral] lookup for user=%d: %v", b.UserID, err)
		}
		return
	}
	if ref == nil || ref.Status != domain.ReferralStatusPending {
		return
	}
	n, err := s.bookings.CountConfirmedExcept(b.UserID, b.ID)
	if err != nil {
		log.Printf("[referral] count bookings for user=%d: %v", b.UserID, err)
		return
	}
	if n > 0 {
		return
	}
	reward := s.settings.GetInt64(domain.SettingReferralRewardPaise, defaultInt64(domain.SettingReferralRewardPaise))
	ok, err := s.referrals.Credit(ref.ID, reward, b.ID)
	if err != nil {
		log.Printf("[referral] credit referral=%d: %v", ref.ID, err)
		return
	}
	if !ok {
		return
	}
	ref.Status = domain.ReferralStatusCredited
	ref.RewardPaise = reward
	bookingID := b.ID
	ref.BookingID = &bookingID
	log.Printf("[referral] referral=%d credited %d to user=%d", ref.ID, reward, ref.ReferrerID)
	if s.notifier != nil {
		s.notifier.ReferralCredited(ctx, ref)
	}
}

type ReferralSummary struct {
	Code        string            `json:"referral_code"`
	EarnedPaise int64             `json:"earned_paise"`
	Earned      string            `json:"earned"`
	RewardPaise int64             `json:"reward_per_referral_paise"`
	Referrals   []models.Referral `json:"referrals"`
}

func (s *ReferralService) Summary(u *models.User, limit, offset int) (*ReferralSummary, error) {
	list, err := s.referrals.ListByReferrer(u.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	earned, err := s.referrals.EarnedByReferrer(u.ID)
	if err != nil {
		return nil, err
	}
	return &ReferralSummary{
		Code:        u.ReferralCode,
		EarnedPaise: earned,
		Earned:      domain.FormatINR(earned),
		RewardPaise: s.settings.GetInt64(domain.SettingReferralRewardPaise, defaultInt64(domain.SettingReferralRewardPaise)),
		Referrals:   list,
	}, nil
}

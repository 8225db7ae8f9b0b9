package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"pgnest/internal/domain"
	"pgnest/internal/models"
	"pgnest/internal/repository"
	"pgnest/internal/ws"
	"pgnest/pkg/events"
	"pgnest/pkg/mailer"
)

// Pusher delivers realtime messages to connected dashboards.
type Pusher interface {
	SendToUser(userID uint, msg ws.Message)
	SendToRole(role string, msg ws.Message)
}

// NotificationService fans a domain event out to the in-app inbox, WebSocket
// dashboards, FCM, email and the event bus. Every channel is best effort: failures
// are logged and never returned to the request that triggered them.
type NotificationService struct {
	repo      *repository.NotificationRepository
	userRepo  *repository.UserRepository
	settings  *repository.SettingRepository
	push      DevicePusher
	hub       Pusher
	mail      mailer.Sender
	events    events.Publisher
	publicURL string
}

func NewNotificationService(
	repo *repository.NotificationRepository,
	userRepo *repository.UserRepository,
	settings *repository.SettingRepository,
	push DevicePusher,
	hub Pusher,
	mail mailer.Sender,
	pub events.Publisher,
	publicURL string,
) *NotificationService {
	if pub == nil {
		pub = events.Noop{}
	}
	return &NotificationService{
		repo:      repo,
		userRepo:  userRepo,
		settings:  settings,
		push:      push,
		hub:       hub,
		mail:      mail,
		events:    pub,
		publicURL: publicURL,
	}
}

// Notify stores an in-app notification and pushes it over WebSocket and FCM.
func (s *NotificationService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	n := &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	}
	if err := s.repo.Create(n); err != nil {
		return err
	}
	if s.hub != nil {
		s.hub.SendToUser(userID, ws.Message{Type: "notification", Data: n})
	}
	s.sendPush(n, data)
	return nil
}

func (s *NotificationService) sendPush(n *models.Notification, data map[string]interface{}) {
	if s.push == nil || s.userRepo == nil {
		return
	}
	u, err := s.userRepo.GetByID(n.UserID)
	if err != nil || u == nil || u.FCMToken == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = s.push.Push(ctx, u.FCMToken, n, data)
	switch {
	case errors.Is(err, ErrStaleDeviceToken):
		if err := s.userRepo.UpdateFields(u.ID, map[string]interface{}{"fcm_token": ""}); err != nil {
			log.Printf("[fcm] clear token user=%d: %v", u.ID, err)
		}
	case err != nil:
		log.Printf("[fcm] %s user=%d: %v", n.Type, u.ID, err)
	}
}

func (s *NotificationService) notify(userID uint, notifType, title, body string, data map[string]interface{}) {
	if err := s.Notify(userID, notifType, title, body, data); err != nil {
		log.Printf("[notify] %s user=%d: %v", notifType, userID, err)
	}
}

func (s *NotificationService) email(to *models.User, m mailer.Email) {
	if s.mail == nil || to == nil || to.Email == "" {
		return
	}
	go func() {
		if err := s.mail.Send(to.Email, to.DisplayName(), m.Subject, m.Text, m.HTML); err != nil {
			log.Printf("[mail] %q to %s failed: %v", m.Subject, to.Email, err)
		}
	}()
}

func (s *NotificationService) publish(ctx context.Context, subject string, data interface{}) {
	if err := s.events.Publish(ctx, subject, data); err != nil {
		log.Printf("[events] publish %s failed: %v", subject, err)
	}
}

func (s *NotificationService) dashboard(msgType string, data interface{}) {
	if s.hub != nil {
		s.hub.SendToRole(domain.RoleAdmin, ws.Message{Type: msgType, Data: data})
	}
}

func (s *NotificationService) user(id uint) *models.User {
	u, err := s.userRepo.GetByID(id)
	if err != nil {
		log.Printf("[notify] load user %d: %v", id, err)
		return nil
	}
	return u
}

func bookingEmail(b *models.Booking, u *models.User) mailer.BookingEmail {
	name := ""
	if u != nil {
		name = u.DisplayName()
	}
	return mailer.BookingEmail{
		Name:         name,
		BookingID:    b.ID,
		ListingTitle: b.Listing.Title,
		RoomType:     b.Room.RoomType,
		StartMonth:   domain.FormatMonth(b.StartDate),
		EndDate:      domain.FormatDate(b.EndDate),
		Months:       b.DurationMonths,
		Rent:         domain.FormatINR(b.RentTotalPaise),
		Deposit:      domain.FormatINR(b.DepositPaise),
		GST:          domain.FormatINR(b.GSTPaise),
		Total:        domain.FormatINR(b.TotalAmountPaise),
	}
}

func bookingEvent(b *models.Booking) events.BookingEvent {
	return events.BookingEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		ListingID:   b.ListingID,
		RoomID:      b.RoomConfigurationID,
		Status:      b.Status,
		StartDate:   b.StartDate.Format("2006-01-02"),
		EndDate:     b.EndDate.Format("2006-01-02"),
		AmountPaise: b.TotalAmountPaise,
		At:          time.Now(),
	}
}

// BookingCreated expects b.Listing and b.Room to be populated.
func (s *NotificationService) BookingCreated(ctx context.Context, b *models.Booking) {
	u := s.user(b.UserID)
	s.email(u, mailer.BookingCreated(bookingEmail(b, u)))
	s.notify(b.UserID, domain.NotifBookingCreated, "Booking received",
		fmt.Sprintf("Complete the payment of %s to confirm your bed at %s.", domain.FormatINR(b.TotalAmountPaise), b.Listing.Title),
		map[string]interface{}{"booking_id": b.ID})
	if b.Listing.OwnerID != 0 {
		s.notify(b.Listing.OwnerID, domain.NotifBookingCreated, "New booking",
			fmt.Sprintf("A bed in %s was reserved for %s.", b.Room.RoomType, domain.FormatMonth(b.StartDate)),
			map[string]interface{}{"booking_id": b.ID, "listing_id": b.ListingID})
	}
	s.dashboard("booking.created", summary(b))
	s.publish(ctx, events.BookingCreated, bookingEvent(b))
}

func (s *NotificationService) BookingConfirmed(ctx context.Context, b *models.Booking, p *models.Payment) {
	u := s.user(b.UserID)
	s.email(u, mailer.BookingConfirmed(bookingEmail(b, u)))
	s.notify(b.UserID, domain.NotifBookingConfirmed, "Booking confirmed",
		fmt.Sprintf("Your bed at %s is confirmed from %s.", b.Listing.Title, domain.FormatMonth(b.StartDate)),
		map[string]interface{}{"booking_id": b.ID})
	if b.Listing.OwnerID != 0 {
		s.notify(b.Listing.OwnerID, domain.NotifBookingConfirmed, "Booking paid",
			fmt.Sprintf("Booking #%d for %s was paid.", b.ID, b.Listing.Title),
			map[string]interface{}{"booking_id": b.ID, "listing_id": b.ListingID})
	}
	s.dashboard("booking.confirmed", summary(b))
	s.publish(ctx, events.PaymentSucceeded, events.PaymentEvent{
		PaymentID:         p.ID,
		BookingID:         p.BookingID,
		ProviderOrderID:   p.ProviderOrderID,
		ProviderPaymentID: deref(p.ProviderPaymentID),
		AmountPaise:       p.AmountPaise,
		At:                time.Now(),
	})
	s.publish(ctx, events.BookingConfirmed, bookingEvent(b))
}

func (s *NotificationService) BookingStatusChanged(ctx context.Context, b *models.Booking) {
	u := s.user(b.UserID)
	s.email(u, mailer.BookingStatus(bookingEmail(b, u), b.Status))
	s.notify(b.UserID, domain.NotifBookingStatus, "Booking "+b.Status,
		fmt.Sprintf("Your booking at %s is now %s.", b.Listing.Title, b.Status),
		map[string]interface{}{"booking_id": b.ID, "status": b.Status})
	s.dashboard("booking."+b.Status, summary(b))
	subject := events.BookingCancelled
	switch b.Status {
	case domain.BookingStatusCompleted:
		subject = events.BookingCompleted
	case domain.BookingStatusConfirmed:
		subject = events.BookingConfirmed
	}
	s.publish(ctx, subject, bookingEvent(b))
}

func (s *NotificationService) PaymentFailed(ctx context.Context, p *models.Payment, reason string) {
	s.notify(p.UserID, domain.NotifPaymentFailed, "Payment failed",
		"Your payment did not go through. Your booking is still pending; you can try again.",
		map[string]interface{}{"booking_id": p.BookingID, "payment_id": p.ID})
	s.publish(ctx, events.PaymentFailed, events.PaymentEvent{
		PaymentID:         p.ID,
		BookingID:         p.BookingID,
		ProviderOrderID:   p.ProviderOrderID,
		ProviderPaymentID: deref(p.ProviderPaymentID),
		AmountPaise:       p.AmountPaise,
		Reason:            reason,
		At:                time.Now(),
	})
}

func (s *NotificationService) InvoiceIssued(ctx context.Context, inv *models.Invoice, listingTitle string) {
	u := s.user(inv.UserID)
	name := ""
	if u != nil {
		name = u.DisplayName()
	}
	s.email(u, mailer.InvoiceIssued(mailer.InvoiceEmail{
		Name:          name,
		InvoiceNumber: inv.InvoiceNumber,
		ListingTitle:  listingTitle,
		Total:         domain.FormatINR(inv.TotalPaise),
		IssuedOn:      domain.FormatDate(inv.IssuedAt),
		Link:          fmt.Sprintf("%s/api/v1/invoices/%d", s.publicURL, inv.ID),
	}))
	s.notify(inv.UserID, domain.NotifInvoiceReady, "Invoice ready",
		"Invoice "+inv.InvoiceNumber+" is available.",
		map[string]interface{}{"invoice_id": inv.ID, "booking_id": inv.BookingID})
	s.publish(ctx, events.InvoiceIssued, events.InvoiceEvent{
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		BookingID:     inv.BookingID,
		TotalPaise:    inv.TotalPaise,
		At:            time.Now(),
	})
}

// VisitRequested expects v.Listing and v.User to be populated.
func (s *NotificationService) VisitRequested(ctx context.Context, v *models.VisitBooking) {
	owner := s.user(v.Listing.OwnerID)
	if owner != nil {
		s.email(owner, mailer.VisitRequested(mailer.VisitEmail{
			Name:         owner.DisplayName(),
			VisitorName:  v.User.DisplayName(),
			ListingTitle: v.Listing.Title,
			Date:         domain.FormatDate(time.Time(v.VisitDate)),
			Time:         v.VisitTime,
			Message:      v.Message,
		}))
		s.notify(owner.ID, domain.NotifVisitRequested, "New visit request",
			fmt.Sprintf("%s wants to visit %s on %s at %s.", v.User.DisplayName(), v.Listing.Title, domain.FormatDate(time.Time(v.VisitDate)), v.VisitTime),
			map[string]interface{}{"visit_id": v.ID, "listing_id": v.ListingID})
	}
	s.dashboard("visit.requested", summary(v))
	s.publish(ctx, events.VisitRequested, map[string]interface{}{"visit_id": v.ID, "listing_id": v.ListingID, "user_id": v.UserID})
}

func (s *NotificationService) VisitStatusChanged(ctx context.Context, v *models.VisitBooking) {
	s.email(&v.User, mailer.VisitStatus(mailer.VisitEmail{
		Name:         v.User.DisplayName(),
		ListingTitle: v.Listing.Title,
		Date:         domain.FormatDate(time.Time(v.VisitDate)),
		Time:         v.VisitTime,
		Status:       v.Status,
	}))
	s.notify(v.UserID, domain.NotifVisitStatus, "Visit "+v.Status,
		fmt.Sprintf("Your visit to %s is %s.", v.Listing.Title, v.Status),
		map[string]interface{}{"visit_id": v.ID, "status": v.Status})
}

func (s *NotificationService) KYCReviewed(ctx context.Context, k *models.UserKYC) {
	u := s.user(k.UserID)
	if u != nil {
		s.email(u, mailer.KYCReviewed(u.DisplayName(), k.Status, k.Notes))
	}
	s.notify(k.UserID, domain.NotifKYCReviewed, "KYC "+k.Status,
		"Your identity verification is "+k.Status+".",
		map[string]interface{}{"kyc_id": k.ID, "status": k.Status})
}

func (s *NotificationService) ReferralCredited(ctx context.Context, ref *models.Referral) {
	referrer := s.user(ref.ReferrerID)
	referred := s.user(ref.ReferredUserID)
	referredName := "Your friend"
	if referred != nil {
		referredName = referred.DisplayName()
	}
	if referrer != nil {
		s.email(referrer, mailer.ReferralCredited(referrer.DisplayName(), referredName, domain.FormatINR(ref.RewardPaise)))
	}
	s.notify(ref.ReferrerID, domain.NotifReferralCredited, "Referral reward",
		fmt.Sprintf("%s made their first booking. You earned %s.", referredName, domain.FormatINR(ref.RewardPaise)),
		map[string]interface{}{"referral_id": ref.ID})
	s.publish(ctx, events.ReferralCredited, map[string]interface{}{"referral_id": ref.ID, "referrer_id": ref.ReferrerID, "reward_paise": ref.RewardPaise})
}

func (s *NotificationService) Welcome(u *models.User) {
	s.email(u, mailer.Welcome(u.DisplayName(), u.ReferralCode))
}

// ContactReceived mails the support inbox configured in settings.
func (s *NotificationService) ContactReceived(c *models.Contact, fallbackSupport string) {
	to := fallbackSupport
	if s.settings != nil {
		to = s.settings.GetString(domain.SettingSupportEmail, fallbackSupport)
	}
	s.email(&models.User{Name: "Support", Email: to}, mailer.ContactReceived(mailer.ContactEmail{
		Name:    c.Name,
		Email:   c.Email,
		Phone:   c.Phone,
		Subject: c.Subject,
		Message: c.Message,
	}))
	s.dashboard("contact.received", summary(c))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// summary is the dashboard payload; clients refetch details over HTTP.
func summary(v interface{}) map[string]interface{} {
	switch x := v.(type) {
	case *models.Booking:
		return map[string]interface{}{"id": x.ID, "listing_id": x.ListingID, "user_id": x.UserID, "status": x.Status, "total_amount_paise": x.TotalAmountPaise}
	case *models.VisitBooking:
		return map[string]interface{}{"id": x.ID, "listing_id": x.ListingID, "user_id": x.UserID, "status": x.Status}
	case *models.Contact:
		return map[string]interface{}{"id": x.ID, "subject": x.Subject}
	}
	return nil
}

package mailer

import (
	"fmt"
	"html"
)

// Email is a rendered message ready for Sender.Send.
type Email struct {
	Subject string
	Text    string
	HTML    string
}

// BookingEmail carries pre-formatted booking values.
type BookingEmail struct {
	Name         string
	BookingID    uint
	ListingTitle string
	RoomType     string
	StartMonth   string
	EndDate      string
	Months       int
	Rent         string
	Deposit      string
	GST          string
	Total        string
}

type InvoiceEmail struct {
	Name          string
	InvoiceNumber string
	ListingTitle  string
	Total         string
	IssuedOn      string
	Link          string
}

type VisitEmail struct {
	Name         string
	VisitorName  string
	ListingTitle string
	Date         string
	Time         string
	Status       string
	Message      string
}

type ContactEmail struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

const htmlWrap = `<div style="font-family:Arial,sans-serif;max-width:560px;margin:auto">%s<p style="color:#888;font-size:12px">PG Nest</p></div>`

func wrap(body string) string { return fmt.Sprintf(htmlWrap, body) }

var e = html.EscapeString

func Welcome(name, referralCode string) Email {
	return Email{
		Subject: "Welcome to PG Nest",
		Text:    fmt.Sprintf("Hi %s,\n\nYour account is ready. Share your referral code %s with friends.", name, referralCode),
		HTML: wrap(fmt.Sprintf(`<h2>Welcome, %s!</h2><p>Your account is ready.</p><p>Your referral code: <strong>%s</strong></p>`,
			e(name), e(referralCode))),
	}
}

func bookingTable(b BookingEmail) string {
	return fmt.Sprintf(`<table cellpadding="6">
<tr><td>Property</td><td>%s</td></tr>
<tr><td>Room</td><td>%s</td></tr>
<tr><td>Move in</td><td>%s</td></tr>
<tr><td>Duration</td><td>%d month(s), until %s</td></tr>
<tr><td>Rent</td><td>%s</td></tr>
<tr><td>Security deposit</td><td>%s</td></tr>
<tr><td>GST</td><td>%s</td></tr>
<tr><td><strong>Total</strong></td><td><strong>%s</strong></td></tr>
</table>`, e(b.ListingTitle), e(b.RoomType), e(b.StartMonth), b.Months, e(b.EndDate), e(b.Rent), e(b.Deposit), e(b.GST), e(b.Total))
}

func bookingText(b BookingEmail) string {
	return fmt.Sprintf("Property: %s\nRoom: %s\nMove in: %s\nDuration: %d month(s), until %s\nRent: %s\nSecurity deposit: %s\nGST: %s\nTotal: %s",
		b.ListingTitle, b.RoomType, b.StartMonth, b.Months, b.EndDate, b.Rent, b.Deposit, b.GST, b.Total)
}

func BookingCreated(b BookingEmail) Email {
	return Email{
		Subject: fmt.Sprintf("Booking #%d received, complete your payment", b.BookingID),
		Text:    fmt.Sprintf("Hi %s,\n\nWe have reserved your bed. Complete the payment to confirm it.\n\n%s", b.Name, bookingText(b)),
		HTML:    wrap(fmt.Sprintf(`<h2>Booking received</h2><p>Hi %s, we have reserved your bed. Complete the payment to confirm it.</p>%s`, e(b.Name), bookingTable(b))),
	}
}

func BookingConfirmed(b BookingEmail) Email {
	return Email{
		Subject: fmt.Sprintf("Booking #%d confirmed", b.BookingID),
		Text:    fmt.Sprintf("Hi %s,\n\nYour payment was received and your booking is confirmed.\n\n%s", b.Name, bookingText(b)),
		HTML:    wrap(fmt.Sprintf(`<h2>Booking confirmed</h2><p>Hi %s, your payment was received and your booking is confirmed.</p>%s`, e(b.Name), bookingTable(b))),
	}
}

func BookingStatus(b BookingEmail, status string) Email {
	return Email{
		Subject: fmt.Sprintf("Booking #%d is now %s", b.BookingID, status),
		Text:    fmt.Sprintf("Hi %s,\n\nYour booking at %s is now %s.", b.Name, b.ListingTitle, status),
		HTML:    wrap(fmt.Sprintf(`<p>Hi %s,</p><p>Your booking at <strong>%s</strong> is now <strong>%s</strong>.</p>`, e(b.Name), e(b.ListingTitle), e(status))),
	}
}

func InvoiceIssued(inv InvoiceEmail) Email {
	return Email{
		Subject: fmt.Sprintf("Invoice %s", inv.InvoiceNumber),
		Text: fmt.Sprintf("Hi %s,\n\nInvoice %s for %s was issued on %s.\nAmount paid: %s\n%s",
			inv.Name, inv.InvoiceNumber, inv.ListingTitle, inv.IssuedOn, inv.Total, inv.Link),
		HTML: wrap(fmt.Sprintf(`<h2>Invoice %s</h2><p>Hi %s,</p><p>Your invoice for <strong>%s</strong> was issued on %s.</p><p>Amount paid: <strong>%s</strong></p><p><a href="%s">View invoice</a></p>`,
			e(inv.InvoiceNumber), e(inv.Name), e(inv.ListingTitle), e(inv.IssuedOn), e(inv.Total), e(inv.Link))),
	}
}

// VisitRequested goes to the listing owner.
func VisitRequested(v VisitEmail) Email {
	return Email{
		Subject: "New visit request for " + v.ListingTitle,
		Text: fmt.Sprintf("Hi %s,\n\n%s wants to visit %s on %s at %s.\n\n%s",
			v.Name, v.VisitorName, v.ListingTitle, v.Date, v.Time, v.Message),
		HTML: wrap(fmt.Sprintf(`<p>Hi %s,</p><p><strong>%s</strong> wants to visit <strong>%s</strong> on %s at %s.</p><blockquote>%s</blockquote>`,
			e(v.Name), e(v.VisitorName), e(v.ListingTitle), e(v.Date), e(v.Time), e(v.Message))),
	}
}

// VisitStatus goes to the visitor.
func VisitStatus(v VisitEmail) Email {
	return Email{
		Subject: fmt.Sprintf("Your visit to %s is %s", v.ListingTitle, v.Status),
		Text:    fmt.Sprintf("Hi %s,\n\nYour visit to %s on %s at %s is now %s.", v.Name, v.ListingTitle, v.Date, v.Time, v.Status),
		HTML: wrap(fmt.Sprintf(`<p>Hi %s,</p><p>Your visit to <strong>%s</strong> on %s at %s is now <strong>%s</strong>.</p>`,
			e(v.Name), e(v.ListingTitle), e(v.Date), e(v.Time), e(v.Status))),
	}
}

func KYCReviewed(name, status, notes string) Email {
	text := fmt.Sprintf("Hi %s,\n\nYour KYC verification is %s.", name, status)
	body := fmt.Sprintf(`<p>Hi %s,</p><p>Your KYC verification is <strong>%s</strong>.</p>`, e(name), e(status))
	if notes != "" {
		text += "\nNotes: " + notes
		body += fmt.Sprintf(`<p>Notes: %s</p>`, e(notes))
	}
	return Email{Subject: "KYC " + status, Text: text, HTML: wrap(body)}
}

func ReferralCredited(name, referredName, reward string) Email {
	return Email{
		Subject: "You earned a referral reward",
		Text:    fmt.Sprintf("Hi %s,\n\n%s completed their first booking. You earned %s.", name, referredName, reward),
		HTML:    wrap(fmt.Sprintf(`<p>Hi %s,</p><p>%s completed their first booking. You earned <strong>%s</strong>.</p>`, e(name), e(referredName), e(reward))),
	}
}

// ContactReceived goes to the support inbox.
func ContactReceived(c ContactEmail) Email {
	return Email{
		Subject: "Contact form: " + c.Subject,
		Text:    fmt.Sprintf("From: %s <%s> %s\n\n%s", c.Name, c.Email, c.Phone, c.Message),
		HTML: wrap(fmt.Sprintf(`<p>From: %s &lt;%s&gt; %s</p><p>%s</p>`,
			e(c.Name), e(c.Email), e(c.Phone), e(c.Message))),
	}
}

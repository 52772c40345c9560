package stripe

import (
	"time"

	stripelib "github.com/stripe/stripe-go/v75"
)

// Subscription is the provider-side view of a subscription that the billing
// code needs. The provider is the source of truth for these fields.
type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	PriceID            string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	Metadata           map[string]string
}

// Invoice is the subset of a provider invoice used by payment events.
type Invoice struct {
	ID             string
	SubscriptionID string
	CustomerID     string
	AmountPaid     int64
	Currency       string
	HostedURL      string
	PeriodStart    time.Time
	PeriodEnd      time.Time
}

// CheckoutSession is the subset of a completed checkout used to create the
// local subscription row.
type CheckoutSession struct {
	ID                string
	CustomerID        string
	SubscriptionID    string
	ClientReferenceID string
	Metadata          map[string]string
}

// Price is a provider price object.
type Price struct {
	ID       string
	Active   bool
	Amount   int64
	Currency string
	Interval string
}

func unix(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

func SubscriptionFrom(s *stripelib.Subscription) *Subscription {
	if s == nil {
		return nil
	}
	out := &Subscription{
		ID:                 s.ID,
		Status:             string(s.Status),
		CurrentPeriodStart: unix(s.CurrentPeriodStart),
		CurrentPeriodEnd:   unix(s.CurrentPeriodEnd),
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		Metadata:           s.Metadata,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		out.PriceID = s.Items.Data[0].Price.ID
	}
	return out
}

// InvoiceFrom converts a provider invoice. The billed period comes from the
// first line item when present, as the invoice's own period only covers
// pending items.
func InvoiceFrom(inv *stripelib.Invoice) *Invoice {
	if inv == nil {
		return nil
	}
	out := &Invoice{
		ID:          inv.ID,
		AmountPaid:  inv.AmountPaid,
		Currency:    string(inv.Currency),
		HostedURL:   inv.HostedInvoiceURL,
		PeriodStart: unix(inv.PeriodStart),
		PeriodEnd:   unix(inv.PeriodEnd),
	}
	if inv.Subscription != nil {
		out.SubscriptionID = inv.Subscription.ID
	}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}
	if inv.Lines != nil {
		for _, line := range inv.Lines.Data {
			if line != nil && line.Period != nil && line.Period.End > 0 {
				out.PeriodStart = unix(line.Period.Start)
				out.PeriodEnd = unix(line.Period.End)
				break
			}
		}
	}
	return out
}

func CheckoutSessionFrom(s *stripelib.CheckoutSession) *CheckoutSession {
	if s == nil {
		return nil
	}
	out := &CheckoutSession{
		ID:                s.ID,
		ClientReferenceID: s.ClientReferenceID,
		Metadata:          s.Metadata,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
	}
	return out
}

func PriceFrom(p *stripelib.Price) *Price {
	if p == nil {
		return nil
	}
	out := &Price{
		ID:       p.ID,
		Active:   p.Active,
		Amount:   p.UnitAmount,
		Currency: string(p.Currency),
	}
	if p.Recurring != nil {
		out.Interval = string(p.Recurring.Interval)
		if p.Recurring.Interval == stripelib.PriceRecurringIntervalMonth && p.Recurring.IntervalCount == 3 {
			out.Interval = "quarter"
		}
	}
	return out
}

package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"arcana-app/internal/domain/billing"
	"arcana-app/internal/domain/plans"
	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/domain/users"
	"arcana-app/internal/pkg/apperr"

	"gorm.io/gorm"
)

type AdminUser struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	AuthProvider       string     `json:"authProvider"`
	PlanID             *string    `json:"planId,omitempty"`
	SubscriptionStatus *string    `json:"subscriptionStatus,omitempty"`
	StripeCustomerID   *string    `json:"stripeCustomerId,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"currentPeriodEnd,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

type AdminPayment struct {
	ID         string  `json:"id"`
	UserID     string  `json:"userId"`
	Email      string  `json:"email"`
	PlanID     string  `json:"planId"`
	Amount     int64   `json:"amount"`
	Currency   string  `json:"currency"`
	Formatted  string  `json:"formatted"`
	Status     string  `json:"status"`
	InvoiceID  string  `json:"invoiceId"`
	ReceiptURL *string `json:"receiptUrl,omitempty"`
	CreatedAt  string  `json:"createdAt"`
}

// Revenue is a per-currency total in minor units.
type Revenue struct {
	Currency  string `json:"currency"`
	Amount    int64  `json:"amount"`
	Formatted string `json:"formatted"`
}

type Stats struct {
	TotalUsers            int64            `json:"totalUsers"`
	SubscriptionsByStatus map[string]int64 `json:"subscriptionsByStatus"`
	SubscriptionsByPlan   map[string]int64 `json:"subscriptionsByPlan"`
	TotalRevenue          []Revenue        `json:"totalRevenue"`
	RecentRevenue         []Revenue        `json:"recentRevenue"`
}

type UserDetails struct {
	User          AdminUser                    `json:"user"`
	Subscriptions []subscriptions.Subscription `json:"subscriptions"`
	Payments      []billing.Payment            `json:"payments"`
}

// Service serves the back-office read views.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

func adminUser(u *users.User, latest *subscriptions.Subscription) AdminUser {
	out := AdminUser{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		AuthProvider: u.AuthProvider,
		CreatedAt:    u.CreatedAt,
	}
	if latest != nil {
		planID := latest.PlanID
		status := string(latest.Status)
		end := latest.CurrentPeriodEnd
		out.PlanID = &planID
		out.SubscriptionStatus = &status
		out.CurrentPeriodEnd = &end
		if latest.StripeCustomerID != "" {
			customer := latest.StripeCustomerID
			out.StripeCustomerID = &customer
		}
	}
	return out
}

// ListUsers returns every account with its most recent subscription.
func (s *Service) ListUsers(ctx context.Context) ([]AdminUser, error) {
	db := s.db.WithContext(ctx)

	var all []users.User
	if err := db.Order("created_at DESC").Find(&all).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to load users", err)
	}

	var subs []subscriptions.Subscription
	if err := db.Order("created_at ASC").Find(&subs).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to load subscriptions", err)
	}
	latest := make(map[string]*subscriptions.Subscription, len(subs))
	for i := range subs {
		latest[subs[i].UserID] = &subs[i]
	}

	result := make([]AdminUser, 0, len(all))
	for i := range all {
		result = append(result, adminUser(&all[i], latest[all[i].ID]))
	}
	return result, nil
}

// ListPayments returns every recorded payment, newest first.
func (s *Service) ListPayments(ctx context.Context) ([]AdminPayment, error) {
	type row struct {
		billing.Payment
		Email string
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Table("payments").
		Select("payments.*, users.email AS email").
		Joins("LEFT JOIN users ON users.id = payments.user_id").
		Order("payments.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to load payments", err)
	}

	result := make([]AdminPayment, 0, len(rows))
	for _, p := range rows {
		result = append(result, AdminPayment{
			ID:         p.ID,
			UserID:     p.UserID,
			Email:      p.Email,
			PlanID:     p.PlanID,
			Amount:     p.Amount,
			Currency:   p.Currency,
			Formatted:  plans.FormatAmount(p.Amount, p.Currency),
			Status:     p.Status,
			InvoiceID:  p.StripeInvoiceID,
			ReceiptURL: p.ReceiptURL,
			CreatedAt:  p.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return result, nil
}

func (s *Service) revenue(db *gorm.DB, since *time.Time) ([]Revenue, error) {
	type total struct {
		Currency string
		Amount   int64
	}
	var totals []total

	q := db.Model(&billing.Payment{}).
		Select("currency, COALESCE(SUM(amount), 0) AS amount").
		Where("status = ?", "paid")
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	if err := q.Group("currency").Order("currency").Scan(&totals).Error; err != nil {
		return nil, err
	}

	out := make([]Revenue, 0, len(totals))
	for _, t := range totals {
		out = append(out, Revenue{
			Currency:  strings.ToUpper(t.Currency),
			Amount:    t.Amount,
			Formatted: plans.FormatAmount(t.Amount, t.Currency),
		})
	}
	return out, nil
}

func countBy(db *gorm.DB, column string) (map[string]int64, error) {
	type count struct {
		GroupKey string
		Count    int64
	}
	var counts []count
	err := db.Model(&subscriptions.Subscription{}).
		Select(column + " AS group_key, COUNT(*) AS count").
		Group(column).
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(counts))
	for _, c := range counts {
		out[c.GroupKey] = c.Count
	}
	return out, nil
}

// Stats summarizes accounts, subscriptions and revenue. Recent revenue covers
// the last 30 days.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	stats := &Stats{}

	if err := db.Model(&users.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "count users", err)
	}

	var err error
	if stats.SubscriptionsByStatus, err = countBy(db, "status"); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "count subscriptions", err)
	}
	if stats.SubscriptionsByPlan, err = countBy(db, "plan_id"); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "count subscriptions", err)
	}

	if stats.TotalRevenue, err = s.revenue(db, nil); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "sum revenue", err)
	}
	since := s.now().AddDate(0, 0, -30)
	if stats.RecentRevenue, err = s.revenue(db, &since); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "sum revenue", err)
	}
	return stats, nil
}

// UserDetails returns one account with its full subscription and payment
// history.
func (s *Service) UserDetails(ctx context.Context, userID string) (*UserDetails, error) {
	db := s.db.WithContext(ctx)

	var user users.User
	err := db.First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "load user", err)
	}

	details := &UserDetails{
		Subscriptions: []subscriptions.Subscription{},
		Payments:      []billing.Payment{},
	}
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&details.Subscriptions).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to fetch subscriptions", err)
	}
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&details.Payments).Error; err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to fetch payments", err)
	}

	var latest *subscriptions.Subscription
	if len(details.Subscriptions) > 0 {
		latest = &details.Subscriptions[0]
	}
	details.User = adminUser(&user, latest)
	return details, nil
}

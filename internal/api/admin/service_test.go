package admin

import (
	"context"
	"testing"
	"time"

	"arcana-app/internal/domain/billing"
	"arcana-app/internal/domain/subscriptions"
	"arcana-app/internal/domain/users"
	"arcana-app/internal/pkg/apperr"
	"arcana-app/internal/testdb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedAccounts(t *testing.T, db *gorm.DB) (ada, bob *users.User) {
	t.Helper()
	now := time.Now()

	ada = &users.User{Name: "Ada", Email: "ada@example.com"}
	bob = &users.User{Name: "Bob", Email: "bob@example.com"}
	require.NoError(t, db.Create(ada).Error)
	require.NoError(t, db.Create(bob).Error)

	require.NoError(t, db.Create(&subscriptions.Subscription{
		UserID: ada.ID, PlanID: "basic", Status: subscriptions.StatusCanceled,
		CreatedAt: now.Add(-48 * time.Hour),
	}).Error)
	require.NoError(t, db.Create(&subscriptions.Subscription{
		UserID: ada.ID, PlanID: "premium", Status: subscriptions.StatusActive,
		StripeCustomerID: "cus_ada", CreatedAt: now.Add(-time.Hour),
	}).Error)

	require.NoError(t, db.Create(&billing.Payment{
		UserID: ada.ID, PlanID: "premium", StripeInvoiceID: "in_1",
		Amount: 2990, Currency: "brl", Status: "paid", CreatedAt: now.AddDate(0, 0, -60),
	}).Error)
	require.NoError(t, db.Create(&billing.Payment{
		UserID: ada.ID, PlanID: "premium", StripeInvoiceID: "in_2",
		Amount: 2990, Currency: "brl", Status: "paid", CreatedAt: now.AddDate(0, 0, -2),
	}).Error)
	require.NoError(t, db.Create(&billing.Payment{
		UserID: bob.ID, PlanID: "basic", StripeInvoiceID: "in_3",
		Amount: 499, Currency: "usd", Status: "paid", CreatedAt: now.AddDate(0, 0, -1),
	}).Error)
	return ada, bob
}

func TestListUsersCarriesLatestSubscription(t *testing.T) {
	db := testdb.New(t)
	ada, bob := seedAccounts(t, db)

	list, err := NewService(db).ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	byID := map[string]AdminUser{}
	for _, u := range list {
		byID[u.ID] = u
	}
	require.NotNil(t, byID[ada.ID].PlanID)
	assert.Equal(t, "premium", *byID[ada.ID].PlanID)
	assert.Equal(t, "active", *byID[ada.ID].SubscriptionStatus)
	assert.Equal(t, "cus_ada", *byID[ada.ID].StripeCustomerID)
	assert.Nil(t, byID[bob.ID].PlanID)
}

func TestListPaymentsJoinsEmail(t *testing.T) {
	db := testdb.New(t)
	seedAccounts(t, db)

	list, err := NewService(db).ListPayments(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, "in_3", list[0].InvoiceID)
	assert.Equal(t, "bob@example.com", list[0].Email)
	assert.Equal(t, "$4.99", list[0].Formatted)
	assert.Equal(t, "ada@example.com", list[1].Email)
	assert.Equal(t, "R$ 29,90", list[1].Formatted)
}

func TestStats(t *testing.T) {
	db := testdb.New(t)
	seedAccounts(t, db)

	stats, err := NewService(db).Stats(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 1, stats.SubscriptionsByStatus["active"])
	assert.EqualValues(t, 1, stats.SubscriptionsByStatus["canceled"])
	assert.EqualValues(t, 1, stats.SubscriptionsByPlan["premium"])

	require.Len(t, stats.TotalRevenue, 2)
	assert.Equal(t, Revenue{Currency: "BRL", Amount: 5980, Formatted: "R$ 59,80"}, stats.TotalRevenue[0])
	assert.Equal(t, Revenue{Currency: "USD", Amount: 499, Formatted: "$4.99"}, stats.TotalRevenue[1])

	require.Len(t, stats.RecentRevenue, 2)
	assert.EqualValues(t, 2990, stats.RecentRevenue[0].Amount)
}

func TestUserDetails(t *testing.T) {
	db := testdb.New(t)
	ada, _ := seedAccounts(t, db)
	svc := NewService(db)

	details, err := svc.UserDetails(context.Background(), ada.ID)
	require.NoError(t, err)
	assert.Len(t, details.Subscriptions, 2)
	assert.Len(t, details.Payments, 2)
	assert.Equal(t, "premium", *details.User.PlanID)

	_, err = svc.UserDetails(context.Background(), "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

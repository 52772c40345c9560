package stripe

import (
	"context"
	"errors"

	stripelib "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

var ErrNotConfigured = errors.New("stripe secret key not configured")

// CheckoutParams describes a subscription checkout.
type CheckoutParams struct {
	CustomerID string
	PriceID    string
	UserID     string
	PlanID     string
	SuccessURL string
	CancelURL  string
}

// Client talks to the Stripe API with a per-client key.
type Client struct {
	api *client.API
}

func NewClient(secretKey string) *Client {
	if secretKey == "" {
		return &Client{}
	}
	return &Client{api: client.New(secretKey, nil)}
}

func (c *Client) ready() error {
	if c == nil || c.api == nil {
		return ErrNotConfigured
	}
	return nil
}

func (c *Client) CreateCustomer(ctx context.Context, email, name, userID string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	params := &stripelib.CustomerParams{
		Email: stripelib.String(email),
		Name:  stripelib.String(name),
		Metadata: map[string]string{
			"userId": userID,
		},
	}
	params.Context = ctx

	cus, err := c.api.Customers.New(params)
	if err != nil {
		return "", err
	}
	return cus.ID, nil
}

func (c *Client) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	params := &stripelib.SubscriptionParams{}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, err
	}
	return SubscriptionFrom(sub), nil
}

func (c *Client) SetCancelAtPeriodEnd(ctx context.Context, id string, cancel bool) (*Subscription, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	params := &stripelib.SubscriptionParams{
		CancelAtPeriodEnd: stripelib.Bool(cancel),
	}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Update(id, params)
	if err != nil {
		return nil, err
	}
	return SubscriptionFrom(sub), nil
}

func (c *Client) CancelNow(ctx context.Context, id string) (*Subscription, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	params := &stripelib.SubscriptionCancelParams{}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Cancel(id, params)
	if err != nil {
		return nil, err
	}
	return SubscriptionFrom(sub), nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	metadata := map[string]string{
		"userId": p.UserID,
		"planId": p.PlanID,
	}
	params := &stripelib.CheckoutSessionParams{
		SuccessURL: stripelib.String(p.SuccessURL),
		CancelURL:  stripelib.String(p.CancelURL),
		Mode:       stripelib.String(string(stripelib.CheckoutSessionModeSubscription)),
		LineItems: []*stripelib.CheckoutSessionLineItemParams{
			{Price: stripelib.String(p.PriceID), Quantity: stripelib.Int64(1)},
		},
		ClientReferenceID: stripelib.String(p.UserID),
		Metadata:          metadata,
		SubscriptionData: &stripelib.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	if p.CustomerID != "" {
		params.Customer = stripelib.String(p.CustomerID)
	}
	params.Context = ctx

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if err := c.ready(); err != nil {
		return "", err
	}
	params := &stripelib.BillingPortalSessionParams{
		Customer:  stripelib.String(customerID),
		ReturnURL: stripelib.String(returnURL),
	}
	params.Context = ctx

	portal, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", err
	}
	return portal.URL, nil
}

func (c *Client) GetPrice(ctx context.Context, id string) (*Price, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	params := &stripelib.PriceParams{}
	params.Context = ctx

	p, err := c.api.Prices.Get(id, params)
	if err != nil {
		return nil, err
	}
	return PriceFrom(p), nil
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlans(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/plans", r.URL.Path)
		assert.Equal(t, "EU", r.URL.Query().Get("regionId"))
		assert.Equal(t, "premium", r.URL.Query().Get("planId"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{
			"region":{"id":"EU","name":"Europe","currencyCode":"EUR","locale":"en-GB"},
			"plans":[{"id":"premium","type":"premium","title":"Premium","features":["a"],
				"prices":[{"id":"premium-eu","amount":1399,"currency":"EUR","interval":"month","formatted":"13,99 €"}]}],
			"price":1399}}`))
	}))
	defer srv.Close()

	catalog, err := New(srv.URL+"/").GetPlans(context.Background(), PlansQuery{RegionID: "EU", PlanID: "premium"})
	require.NoError(t, err)
	assert.Equal(t, "EUR", catalog.Region.CurrencyCode)
	require.Len(t, catalog.Plans, 1)
	assert.Equal(t, "13,99 €", catalog.Plans[0].Prices[0].Formatted)
	require.NotNil(t, catalog.Price)
	assert.EqualValues(t, 1399, *catalog.Price)
}

func TestAPIErrorCarriesEnvelopeMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"Region not found"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetPlans(context.Background(), PlansQuery{RegionID: "XX"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Region not found", apiErr.Message)
}

func TestAPIErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetPlans(context.Background(), PlansQuery{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestGetSubscriptionNone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "u-1", r.URL.Query().Get("userId"))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	sub, err := New(srv.URL).GetSubscription(context.Background(), "tok", "u-1")
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestUpdateSubscription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body UpdateSubscriptionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, UpdateSubscriptionRequest{Action: ActionCancelImmediately, SubscriptionID: "s-1", UserID: "u-1"}, body)

		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"s-1","userId":"u-1","planId":"basic","status":"canceled","stripeSubscriptionId":"stripe_abc"}}`))
	}))
	defer srv.Close()

	sub, err := New(srv.URL).UpdateSubscription(context.Background(), "tok", UpdateSubscriptionRequest{
		Action: ActionCancelImmediately, SubscriptionID: "s-1", UserID: "u-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "canceled", sub.Status)
	require.NotNil(t, sub.StripeSubscriptionID)
	assert.Equal(t, "stripe_abc", *sub.StripeSubscriptionID)
}

package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlansCommandPrintsCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BR", r.URL.Query().Get("regionId"))
		_, _ = w.Write([]byte(`{"success":true,"data":{
			"region":{"id":"BR","name":"Brasil","currencyCode":"BRL","locale":"pt-BR"},
			"plans":[
				{"id":"basic","title":"Básico","features":["Tiragem diária"],
				 "prices":[{"id":"basic-br","amount":990,"currency":"BRL","interval":"month","formatted":"R$ 9,90"}]},
				{"id":"intermediate","title":"Intermediário","popular":true,"features":[],"prices":[]}
			]}}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"plans", "--api", srv.URL, "--region", "BR"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Region: BR (Brasil, BRL)")
	assert.Contains(t, out.String(), "R$ 9,90")
	assert.Contains(t, out.String(), "Intermediário *")
}

func TestPlansCommandSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"regionId is required when planId is given"}`))
	}))
	defer srv.Close()

	cmd := NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"plans", "--api", srv.URL, "--plan", "premium"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regionId is required")
}

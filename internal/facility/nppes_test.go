package facility

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mercyJSON = `{
  "result_count": 1,
  "results": [{
    "number": 1234567890,
    "enumeration_type": "NPI-2",
    "basic": {
      "organization_name": "MERCY MEDICAL CENTER",
      "legal_business_name": "MERCY MEDICAL CENTER",
      "parent_organization_legal_business_name": "MERCY HEALTH SERVICES",
      "organizational_subpart": "NO",
      "status": "A"
    },
    "addresses": [
      {"address_purpose": "LOCATION", "address_1": "345 ST PAUL PL", "city": "BALTIMORE", "state": "MD", "postal_code": "212022001"},
      {"address_purpose": "MAILING", "address_1": "PO BOX 1", "city": "TOWSON", "state": "MD", "postal_code": "21204"}
    ],
    "taxonomies": [
      {"code": "282N00000X", "desc": "General Acute Care Hospital", "primary": true, "state": "MD"}
    ]
  }]
}`

func TestNPPESByNPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2.1", q.Get("version"))
		assert.Equal(t, "1234567890", q.Get("number"))
		assert.Contains(t, r.Header.Get("User-Agent"), "agentchat/")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(mercyJSON))
	}))
	defer srv.Close()

	c := NewNPPESClient(srv.URL, time.Second)
	res, err := c.ByNPI(context.Background(), "1234567890")
	require.NoError(t, err)
	require.Len(t, res.Results, 1)

	p := res.Results[0]
	assert.Equal(t, FlexString("1234567890"), p.Number)
	assert.Equal(t, "MERCY MEDICAL CENTER", p.DisplayName())
	assert.Equal(t, "MERCY HEALTH SERVICES", p.Basic.ParentOrganizationLBN)
	assert.Equal(t, "BALTIMORE", p.FirstAddress().City)
	assert.True(t, p.Taxonomies[0].Primary)
}

func TestNPPESByName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "NPI-2", q.Get("enumeration_type"))
		assert.Equal(t, "MERCY MEDICAL CENTER", q.Get("organization_name"))
		assert.Equal(t, "200", q.Get("limit"))
		assert.Equal(t, "MD", q.Get("state"))
		_, _ = w.Write([]byte(`{"result_count":0,"results":[]}`))
	}))
	defer srv.Close()

	res, err := NewNPPESClient(srv.URL, 0).ByName(context.Background(), "MERCY MEDICAL CENTER", "MD")
	require.NoError(t, err)
	assert.Empty(t, res.Results)
}

func TestNPPESErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewNPPESClient(srv.URL, time.Second).ByNPI(context.Background(), "1234567890")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 503")
		assert.Contains(t, err.Error(), "maintenance")
	})

	t.Run("registry", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Errors":[{"description":"Invalid NPI","field":"number"}]}`))
		}))
		defer srv.Close()

		_, err := NewNPPESClient(srv.URL, time.Second).ByNPI(context.Background(), "0000000000")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "registry error: Invalid NPI")
	})

	t.Run("decode", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}))
		defer srv.Close()

		_, err := NewNPPESClient(srv.URL, time.Second).ByNPI(context.Background(), "1234567890")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decoding response")
	})
}

func TestFlexString(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"0123456789","b":1234567890,"c":null}`), &v))
	assert.Equal(t, FlexString("0123456789"), v.A)
	assert.Equal(t, FlexString("1234567890"), v.B)
	assert.Equal(t, FlexString(""), v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":true}`), &v))
}

func TestProviderDefaults(t *testing.T) {
	var p Provider
	assert.Equal(t, Address{}, p.FirstAddress())

	p.Basic.OrganizationName = "MERCY"
	assert.Equal(t, "MERCY", p.DisplayName())
}

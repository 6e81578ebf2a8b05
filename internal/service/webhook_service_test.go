package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junes231/funnel-editor/internal/model"
)

func TestWebhookService_Send(t *testing.T) {
	var gotName, gotEmail, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		gotType = r.Header.Get("Content-Type")
		gotName = r.PostForm.Get("name")
		gotEmail = r.PostForm.Get("email")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	svc := NewWebhookService(time.Second, newTestLogger())
	err := svc.Send(context.Background(), srv.URL, &model.Lead{Name: "Ann Lee", Email: "ann+quiz@example.com"})
	require.NoError(t, err)

	assert.Equal(t, "application/x-www-form-urlencoded", gotType)
	assert.Equal(t, "Ann Lee", gotName)
	assert.Equal(t, "ann+quiz@example.com", gotEmail)
}

func TestWebhookService_Send_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := NewWebhookService(time.Second, newTestLogger())
	err := svc.Send(context.Background(), srv.URL, &model.Lead{Name: "Ann", Email: "ann@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookService_Deliver(t *testing.T) {
	received := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- r.FormValue("email")
	}))
	defer srv.Close()

	svc := NewWebhookService(time.Second, newTestLogger())
	svc.Deliver(srv.URL, &model.Lead{Name: "Ann", Email: "ann@example.com"})

	select {
	case email := <-received:
		assert.Equal(t, "ann@example.com", email)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not called")
	}
}

func TestWebhookService_Deliver_NoURL(t *testing.T) {
	svc := NewWebhookService(time.Second, newTestLogger())
	// returns without starting a request
	svc.Deliver("", &model.Lead{Name: "Ann", Email: "ann@example.com"})
}

package reviewhub_test

import (
	"testing"
	"time"

	"privacyreport/backend/internal/models"
	"privacyreport/backend/internal/reviewhub"

	"github.com/stretchr/testify/assert"
)

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := reviewhub.NewHub()
	go hub.Run()

	client := reviewhub.NewClient(hub, nil)
	hub.RegisterCh <- client
	time.Sleep(50 * time.Millisecond)

	hub.Notify(models.Report{ID: "r-1", Status: models.StatusSubmitted})

	select {
	case report := <-client.Send:
		assert.Equal(t, "r-1", report.ID)
	case <-time.After(time.Second):
		t.Fatal("client did not receive broadcast")
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := reviewhub.NewHub()
	go hub.Run()

	client := reviewhub.NewClient(hub, nil)
	hub.RegisterCh <- client
	time.Sleep(50 * time.Millisecond)

	hub.UnregisterCh <- client
	time.Sleep(50 * time.Millisecond)

	_, open := <-client.Send
	assert.False(t, open, "send channel should be closed after unregister")
}

func TestHub_NotifyWithoutClientsDoesNotBlock(t *testing.T) {
	hub := reviewhub.NewHub()
	go hub.Run()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Notify(models.Report{ID: "r"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked with no connected clients")
	}
}

package service

import (
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/audiary/audiary/internal/pkg/persistence"
)

type statusEvent struct {
	ID                  string    `json:"id"`
	TranscriptionStatus string    `json:"transcription_status"`
	SummaryStatus       string    `json:"summary_status"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// StatusNotifier pushes entry status snapshots to subscribed websockets
type StatusNotifier struct {
	WSHandler WSConnHandler
}

// NewStatusNotifier creates notifier instance
func NewStatusNotifier(wsHandler WSConnHandler) *StatusNotifier {
	return &StatusNotifier{WSHandler: wsHandler}
}

// EntryChanged sends the new status to every connection following the entry
func (n *StatusNotifier) EntryChanged(entry *persistence.Entry) {
	conns, found := n.WSHandler.GetConnections(entry.ID)
	if !found {
		return
	}
	res := &statusEvent{ID: entry.ID, TranscriptionStatus: entry.TranscriptionStatus,
		SummaryStatus: entry.SummaryStatus, UpdatedAt: entry.Updated}
	for _, c := range conns {
		if err := c.WriteJSON(res); err != nil {
			goapp.Log.Error().Err(err).Send()
		}
	}
}

package webconsole

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/rmacdonaldsmith/railconsole/internal/metrics"
	consolenotify "github.com/rmacdonaldsmith/railconsole/internal/notify"
	"github.com/rmacdonaldsmith/railconsole/pkg/notify"
)

// handleNotifications is the long-lived SSE endpoint feeding the page's
// toast container. It first replays the visible notifications, then
// appends and removes toasts as the session's broadcaster changes.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	b := s.hub.Session(sessionID(r))
	events, unsubscribe := b.Subscribe()
	defer unsubscribe()

	if s.config.Metrics {
		metrics.NotificationStreams.Inc()
		defer metrics.NotificationStreams.Dec()
	}

	sse := datastar.NewSSE(w, r)

	shown := make(map[string]bool)
	for _, n := range b.Visible() {
		if err := s.showToast(sse, n); err != nil {
			return
		}
		shown[n.ID] = true
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			var err error
			switch ev.Kind {
			case consolenotify.EventShow:
				if shown[ev.Notification.ID] {
					continue
				}
				shown[ev.Notification.ID] = true
				err = s.showToast(sse, ev.Notification)
			case consolenotify.EventDismiss:
				delete(shown, ev.Notification.ID)
				err = sse.ExecuteScript(fmt.Sprintf("document.getElementById('toast-%s')?.remove()", ev.Notification.ID))
			}
			if err != nil {
				s.logger.Debug("notification stream closed", "error", err)
				return
			}
		}
	}
}

func (s *Server) showToast(sse *datastar.ServerSentEventGenerator, n notify.Notification) error {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "toast", n); err != nil {
		_ = sse.ConsoleError(err)
		return nil
	}
	return sse.PatchElements(buf.String(),
		datastar.WithSelectorID("toasts"),
		datastar.WithModeAppend(),
	)
}

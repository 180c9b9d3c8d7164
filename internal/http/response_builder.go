package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
)

// Client-side events carried in the HX-Trigger header. app.js listens for
// both on document.body.
const (
	eventShowNotification = "show-notification"
	eventSheetsExported   = "sheets-exported"
)

// NotificationType selects the styling of a toast in #notifications.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

const (
	successToastMs = 3000
	errorToastMs   = 5000
)

// response accumulates the status, headers, HX-Trigger events and body of
// one dashboard response before anything reaches the ResponseWriter, so a
// failure while building it can still become a clean 500.
type response struct {
	status   int
	headers  http.Header
	triggers map[string]any
	body     []byte
}

func newResponse(status int) *response {
	return &response{
		status:   status,
		headers:  make(http.Header),
		triggers: make(map[string]any),
	}
}

// dashboardResponse wraps a rendered page or dashboard partial.
func dashboardResponse(html []byte) *response {
	r := newResponse(http.StatusOK)
	r.headers.Set("Content-Type", "text/html; charset=utf-8")
	r.body = html
	return r
}

// csvAttachment serves body as a download named filename.
func csvAttachment(filename string, body []byte) *response {
	r := newResponse(http.StatusOK)
	r.headers.Set("Content-Type", "text/csv; charset=utf-8")
	r.headers.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	r.body = body
	return r
}

// sheetsExported reports a finished sheet push: the status fragment for
// #export-status, a toast, and a sheets-exported event carrying the count.
func sheetsExported(rows int) *response {
	msg := fmt.Sprintf("Exported %d transactions to Google Sheets", rows)
	r := fragment(http.StatusOK, "success", msg).
		notify(NotificationSuccess, msg)
	r.triggers[eventSheetsExported] = map[string]int{"rows": rows}
	return r
}

// updateRejected answers a /update form that could not be turned into a
// trigger. The dashboard is left in place; the toast explains why.
func updateRejected(reason string) *response {
	msg := "Update rejected: " + reason
	return errorFragment(http.StatusBadRequest, msg).notify(NotificationError, msg)
}

// errorFragment is the alert markup every failed route returns. message is
// escaped.
func errorFragment(status int, message string) *response {
	return fragment(status, "error", message)
}

func fragment(status int, class, message string) *response {
	r := newResponse(status)
	r.headers.Set("Content-Type", "text/html; charset=utf-8")
	role := "status"
	if class == "error" {
		role = "alert"
	}
	r.body = []byte(`<div class="` + class + `" role="` + role + `">` + template.HTMLEscapeString(message) + `</div>`)
	return r
}

// notify queues a show-notification toast.
func (r *response) notify(kind NotificationType, message string) *response {
	duration := successToastMs
	if kind == NotificationError {
		duration = errorToastMs
	}
	r.triggers[eventShowNotification] = map[string]any{
		"type":     string(kind),
		"message":  message,
		"duration": duration,
	}
	return r
}

func (r *response) write(w http.ResponseWriter) {
	for name, values := range r.headers {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	if len(r.triggers) > 0 {
		if b, err := json.Marshal(r.triggers); err == nil {
			w.Header().Set("HX-Trigger", string(b))
		}
	}
	w.WriteHeader(r.status)
	if len(r.body) > 0 {
		_, _ = w.Write(r.body)
	}
}

package generalize

import (
	"fmt"
	"strings"

	"generalize-service/model"
)

// Notification is a warning about one feature that did not fail the request.
type Notification struct {
	Ref     model.FeatureRef `json:"ref"`
	Message string           `json:"message"`
}

// Notifications collects the warnings of a request.
type Notifications []Notification

func (n *Notifications) Add(ref model.FeatureRef, format string, args ...interface{}) {
	*n = append(*n, Notification{Ref: ref, Message: fmt.Sprintf(format, args...)})
}

// Summary joins all notifications into one user facing message.
func (n Notifications) Summary() string {
	if len(n) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d notification(s):", len(n))
	for _, item := range n {
		fmt.Fprintf(&b, "\n  %s: %s", item.Ref, item.Message)
	}
	return b.String()
}

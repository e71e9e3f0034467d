package log

import (
	"context"
)

type requestId struct{}

// RequestIDFromContext returns the request id attached to c, or an empty
// string when none was attached yet.
func RequestIDFromContext(c context.Context) string {
	id, ok := c.Value(requestId{}).(string)
	if !ok {
		return ""
	}
	return id
}

func AttachRequestIDToContext(c context.Context, id string) context.Context {
	return context.WithValue(c, requestId{}, id)
}

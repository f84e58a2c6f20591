package commsutil

import (
	"fmt"
	"strings"
)

// Default COMMS subjects.
const (
	SubjectConnectionEvent = "cadence.connection"
	SubjectControl         = "cadence.control"
	DefaultService         = "cadence-client"
)

// BuildConnectionSubject builds the granular subject for a lifecycle event,
// e.g. "cadence.connection.billing.open".
func BuildConnectionSubject(base, service, state string) string {
	return fmt.Sprintf("%s.%s.%s", base, subjectToken(service), subjectToken(state))
}

// subjectToken lowercases s and replaces characters NATS treats specially.
func subjectToken(s string) string {
	if s == "" {
		return "_"
	}
	r := strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")
	return strings.ToLower(r.Replace(s))
}

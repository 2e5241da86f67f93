package notify

// Transport is how a notification reaches its recipients.
type Transport int

// Transport kinds. None means there is nobody to message and the dispatch
// is skipped (a reported condition, not an error).
const (
	TransportNone Transport = iota
	TransportDirect
	TransportGroup
)

func (t Transport) String() string {
	switch t {
	case TransportDirect:
		return "direct message"
	case TransportGroup:
		return "group conversation"
	default:
		return "none"
	}
}

// BuildRecipients assembles the recipient set for one notification: the
// webadmin first, then the resolved usernames, deduplicated with insertion
// order preserved. Empty usernames are dropped. The webadmin is part of
// every set so it is never silently left out of a notification.
func BuildRecipients(admin string, usernames ...string) []string {
	out := make([]string, 0, len(usernames)+1)
	seen := make(map[string]struct{}, len(usernames)+1)
	add := func(name string) {
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	add(admin)
	for _, name := range usernames {
		add(name)
	}
	return out
}

// SelectTransport picks the messaging strategy for a recipient set: one
// recipient gets a direct message, two or more a group conversation.
func SelectTransport(recipients []string) Transport {
	switch len(recipients) {
	case 0:
		return TransportNone
	case 1:
		return TransportDirect
	default:
		return TransportGroup
	}
}

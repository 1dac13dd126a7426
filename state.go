package mongos

// ReadyState is the lifecycle state of a Connection.
// The numeric values match the driver-agnostic convention used by
// document-database ODMs: 0=disconnected, 1=connected, 2=connecting, 3=disconnecting.
type ReadyState int32

const (
	Disconnected  ReadyState = 0
	Connected     ReadyState = 1
	Connecting    ReadyState = 2
	Disconnecting ReadyState = 3
)

func (s ReadyState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Connecting:
		return "connecting"
	case Disconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// Transitional reports whether an operation is in flight in this state.
func (s ReadyState) Transitional() bool {
	return s == Connecting || s == Disconnecting
}

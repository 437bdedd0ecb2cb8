// Package wire defines the property channels, message framing, status codes,
// and hook categories shared by every process that speaks the remote-control
// protocol.
package wire

// Channel names one property slot on an endpoint window.
type Channel int

const (
	ChannelNone Channel = iota
	ClientWrite
	ServerWrite
	Hook
	Bind
	StatusSlot
	FocusID
)

// ClientRead is the client's view of the server reply slot.
const ClientRead = ServerWrite

var channelAtoms = [...]string{
	ChannelNone: "",
	ClientWrite: "__DWB_IPC_SERVER_READ",
	ServerWrite: "__DWB_IPC_SERVER_WRITE",
	Hook:        "__DWB_IPC_HOOK",
	Bind:        "__DWB_IPC_BIND",
	StatusSlot:  "__DWB_IPC_SERVER_STATUS",
	FocusID:     "__DWB_IPC_FOCUS_ID",
}

var channelNames = [...]string{
	ChannelNone: "none",
	ClientWrite: "client-write",
	ServerWrite: "server-write",
	Hook:        "hook",
	Bind:        "bind",
	StatusSlot:  "status",
	FocusID:     "focus-id",
}

// Channels lists every protocol channel in declaration order.
func Channels() []Channel {
	return []Channel{ClientWrite, ServerWrite, Hook, Bind, StatusSlot, FocusID}
}

// Atom returns the property name the channel is stored under.
func (c Channel) Atom() string {
	if c < 0 || int(c) >= len(channelAtoms) {
		return ""
	}
	return channelAtoms[c]
}

func (c Channel) String() string {
	if c < 0 || int(c) >= len(channelNames) {
		return "unknown"
	}
	return channelNames[c]
}

// ChannelForAtom maps a property name back to its channel, or ChannelNone.
func ChannelForAtom(name string) Channel {
	for _, ch := range Channels() {
		if channelAtoms[ch] == name {
			return ch
		}
	}
	return ChannelNone
}

package messages

// InitializeRequest tells the proxy where the library listens for inbound requests.
type InitializeRequest struct{ ProxyRequest }

func NewInitializeRequest() *InitializeRequest {
	return &InitializeRequest{newProxyRequest(TypeInitializeRequest, TypeInitializeReply)}
}

func (m *InitializeRequest) LibraryAddress() string     { return m.str("LibraryAddress") }
func (m *InitializeRequest) SetLibraryAddress(v string) { m.setStr("LibraryAddress", v) }
func (m *InitializeRequest) LibraryPort() int32         { return m.int32("LibraryPort") }
func (m *InitializeRequest) SetLibraryPort(v int32)     { m.Properties().SetInt32("LibraryPort", v) }
func (m *InitializeRequest) LibraryVersion() string     { return m.str("LibraryVersion") }
func (m *InitializeRequest) SetLibraryVersion(v string) { m.setStr("LibraryVersion", v) }

type InitializeReply struct{ ProxyReply }

func NewInitializeReply() *InitializeReply {
	return &InitializeReply{newProxyReply(TypeInitializeReply)}
}

func (m *InitializeReply) ProxyVersion() string     { return m.str("ProxyVersion") }
func (m *InitializeReply) SetProxyVersion(v string) { m.setStr("ProxyVersion", v) }

// ConnectRequest asks the proxy to open its cluster client.
type ConnectRequest struct{ ProxyRequest }

func NewConnectRequest() *ConnectRequest {
	return &ConnectRequest{newProxyRequest(TypeConnectRequest, TypeConnectReply)}
}

// Endpoints is a comma separated list of cluster frontends.
func (m *ConnectRequest) Endpoints() string     { return m.str("Endpoints") }
func (m *ConnectRequest) SetEndpoints(v string) { m.setStr("Endpoints", v) }
func (m *ConnectRequest) Domain() string        { return m.str("Domain") }
func (m *ConnectRequest) SetDomain(v string)    { m.setStr("Domain", v) }
func (m *ConnectRequest) Identity() string      { return m.str("Identity") }
func (m *ConnectRequest) SetIdentity(v string)  { m.setStr("Identity", v) }

type ConnectReply struct{ ProxyReply }

func NewConnectReply() *ConnectReply {
	return &ConnectReply{newProxyReply(TypeConnectReply)}
}

// HeartbeatRequest is a liveness probe. Either side may send it.
type HeartbeatRequest struct{ ProxyRequest }

func NewHeartbeatRequest() *HeartbeatRequest {
	return &HeartbeatRequest{newProxyRequest(TypeHeartbeatRequest, TypeHeartbeatReply)}
}

type HeartbeatReply struct{ ProxyReply }

func NewHeartbeatReply() *HeartbeatReply {
	return &HeartbeatReply{newProxyReply(TypeHeartbeatReply)}
}

// TerminateRequest announces that the sender is shutting the session down.
type TerminateRequest struct{ ProxyRequest }

func NewTerminateRequest() *TerminateRequest {
	return &TerminateRequest{newProxyRequest(TypeTerminateRequest, TypeTerminateReply)}
}

func (m *TerminateRequest) Reason() string     { return m.str("Reason") }
func (m *TerminateRequest) SetReason(v string) { m.setStr("Reason", v) }

type TerminateReply struct{ ProxyReply }

func NewTerminateReply() *TerminateReply {
	return &TerminateReply{newProxyReply(TypeTerminateReply)}
}

// CancelRequest asks the proxy to abandon an earlier request.
type CancelRequest struct{ ProxyRequest }

func NewCancelRequest() *CancelRequest {
	return &CancelRequest{newProxyRequest(TypeCancelRequest, TypeCancelReply)}
}

func (m *CancelRequest) TargetRequestID() int64 { return m.int64("TargetRequestId") }
func (m *CancelRequest) SetTargetRequestID(v int64) {
	m.Properties().SetInt64("TargetRequestId", v)
}

type CancelReply struct{ ProxyReply }

func NewCancelReply() *CancelReply {
	return &CancelReply{newProxyReply(TypeCancelReply)}
}

func (m *CancelReply) WasCancelled() bool     { return m.bool("WasCancelled") }
func (m *CancelReply) SetWasCancelled(v bool) { m.Properties().SetBool("WasCancelled", v) }

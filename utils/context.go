package utils

type contextKey string

// Request scoped values placed on handler contexts
const (
	RequestIDKey contextKey = "request_id"
	UserAgentKey contextKey = "user_agent"
	IPAddressKey contextKey = "ip_address"
	EndpointKey  contextKey = "endpoint"
	OwnerIDKey   contextKey = "owner_id"
)

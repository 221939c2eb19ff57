package handler

type ContextKey string

var (
	RequestIDCtxKey ContextKey = "requestID"
	IdentityCtxKey  ContextKey = "identity"
	TenantCtxKey    ContextKey = "tenant"
)

package constants

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXSignature    = "X-Signature"

	ContextKeyRequestID = "request_id"
	ContextKeySubject   = "subject"
	ContextKeyRole      = "role"

	RoleAdmin  = "admin"
	RoleIngest = "ingest"
)

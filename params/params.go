package params

import "time"

const (
	ServerBodyLimit    = 1048576
	ServerIdleTimeout  = 30 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 10 * time.Second
)

const (
	OTPCodeLength          = 6
	OTPResendCountdown     = 60 // seconds
	OTPCountdownInterval   = time.Second
	OTPSimulatedLatency    = 1500 * time.Millisecond
	FlowIdleTimeout        = 30 * time.Minute
	FlowJanitorInterval    = time.Minute
	CSRFTokenExpiration    = time.Hour
	OAuthStateExpiration   = 10 * time.Minute
	SessionStoreKeyPrefix  = "session:"
	DefaultIdentityName    = "User"
	DefaultSiteName        = "HD"
	DefaultSessionCookie   = "signup_session"
	DefaultSessionMaxAge   = 24 * time.Hour
	DefaultListenAddr      = ":3000"
	DefaultStaticDir       = "./static"
	DefaultGoogleClientEnv = "GOOGLE_CLIENT_ID"
	DefaultGoogleSecretEnv = "GOOGLE_CLIENT_SECRET"
)

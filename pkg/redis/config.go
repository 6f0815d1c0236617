package redis

import "time"

// Config describes the connection to the counter store.
// Managed providers (e.g. Upstash) expose a rediss:// URL; the access token can
// be embedded in the URL or supplied separately through Token.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required"`                     // redis[s]://[user:password@]host:port/db
	Token          string        `env:"REDIS_TOKEN"`                            // overrides the password from the URL when set
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`    // connection attempts at startup
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`   // pause between attempts
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"15s"` // upper bound for the whole connect phase
}

package clickhouse

import "time"

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig carries connection, pool, and insert-path settings.
// AsyncInsert matters for beat-rate sample writes; the raw table is
// append-only so waiting for the insert is optional.
type ClientConfig struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
    WriteTimeout    time.Duration
    UseHTTP         bool
    AsyncInsert     bool
    WaitForAsync    bool
    MaxExecTime     time.Duration
}

// WithHost sets the server host.
func WithHost(host string) ClientOption {
	return func(c *ClientConfig) {
		c.Host = host
	}
}

// WithPort sets the server port.
func WithPort(port int) ClientOption {
	return func(c *ClientConfig) {
		c.Port = port
	}
}

// WithDatabase selects the working database.
func WithDatabase(database string) ClientOption {
	return func(c *ClientConfig) {
		c.Database = database
	}
}

// WithCredentials sets the user and password.
func WithCredentials(user, password string) ClientOption {
	return func(c *ClientConfig) {
		c.User = user
		c.Password = password
	}
}

// WithMaxConnections bounds the pool.
func WithMaxConnections(maxOpen, maxIdle int) ClientOption {
	return func(c *ClientConfig) {
		c.MaxOpenConns = maxOpen
		c.MaxIdleConns = maxIdle
	}
}

// WithTimeouts sets the dial, read, and write deadlines.
func WithTimeouts(dial, read, write time.Duration) ClientOption {
    return func(c *ClientConfig) {
        c.DialTimeout = dial
        c.ReadTimeout = read
        c.WriteTimeout = write
    }
}

// WithHTTP switches from the native protocol to HTTP.
func WithHTTP(useHTTP bool) ClientOption {
    return func(c *ClientConfig) {
        c.UseHTTP = useHTTP
    }
}

// WithAsyncInsert toggles server-side async inserts and whether writes
// wait for the flush.
func WithAsyncInsert(enabled, wait bool) ClientOption {
    return func(c *ClientConfig) {
        c.AsyncInsert = enabled
        c.WaitForAsync = wait
    }
}

// WithMaxExecutionTime caps per-query execution time server side.
func WithMaxExecutionTime(d time.Duration) ClientOption {
    return func(c *ClientConfig) {
        c.MaxExecTime = d
    }
}

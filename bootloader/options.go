package bootloader

import "time"

// Config holds the client configuration.
type Config struct {
	// ProgressCallback is called during flashing operations to report
	// progress (optional).
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional).
	Logger Logger

	// ReadTimeout is stored for callers but not applied by Client; response
	// reads are bounded by the Device's own read timeout.
	ReadTimeout time.Duration

	// WriteTimeout is stored for callers but not applied by Client; command
	// writes block for as long as the Device's Write does.
	WriteTimeout time.Duration

	// PingAttempts is the number of ping rounds Enter tries before giving
	// up with a NoPongError.
	PingAttempts int

	// VerifyAfterWrite enables CRC verification of each page after it is
	// written, in addition to whatever whole-range verification the caller
	// performs once flashing completes. Off by default: ops.Flash/Append
	// already verify the full range's CRC after the last page, so leaving
	// this on doubles the round trips per page for no extra safety.
	VerifyAfterWrite bool
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ReadTimeout:      5 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingAttempts:     maxPingAttempts,
		VerifyAfterWrite: false,
	}
}

// Option is a functional option for configuring a Client.
type Option func(*Config)

// WithProgressCallback sets a callback function to track flashing progress.
//
// Example:
//
//	client := bootloader.New(device,
//	    bootloader.WithProgressCallback(func(p bootloader.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for client operations.
//
// Example:
//
//	client := bootloader.New(device, bootloader.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithTimeout sets both read and write timeouts.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = timeout
		c.WriteTimeout = timeout
	}
}

// WithReadTimeout sets the read timeout.
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.ReadTimeout = timeout
	}
}

// WithWriteTimeout sets the write timeout.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.WriteTimeout = timeout
	}
}

// WithPingAttempts sets how many ping rounds Enter tries before giving up.
// Default is 30.
func WithPingAttempts(attempts int) Option {
	return func(c *Config) {
		if attempts > 0 {
			c.PingAttempts = attempts
		}
	}
}

// WithVerifyAfterWrite enables or disables CRC verification of each page
// after it is written, on top of the whole-range verification ops.Flash
// already performs once. Default is false.
func WithVerifyAfterWrite(verify bool) Option {
	return func(c *Config) {
		c.VerifyAfterWrite = verify
	}
}

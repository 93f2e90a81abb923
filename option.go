package wire

// ErrorAction defines the action to take when an error occurs.
type ErrorAction int

const (
	// Disconnect closes the connection when an error occurs.
	Disconnect ErrorAction = iota
	// Continue suppresses the error and continues processing.
	Continue
)

// options holds the configuration for a connection.
type options struct {
	registry *Registry
	logger   Logger

	// format is the default tag used by Send and Write.
	format byte

	onMessage func(v any) error
	// onError is called when a recoverable (codec-level) error occurs during Run.
	// Returns Disconnect to close the connection, Continue to suppress the error.
	onError func(error) ErrorAction

	sendQueueSize int // capacity of the buffered send channel used by Run
	bufferSize    int // initial capacity of the send and receive buffers
	maxFrameSize  int // largest incoming frame accepted
}

// Default configuration values.
const (
	// defaultSendQueueSize is the default capacity of the Run send channel.
	defaultSendQueueSize = 1
	// defaultBufferSize is the default initial capacity of a connection buffer.
	defaultBufferSize = 8 * 1024
	// defaultMaxFrameSize is the default maximum size of a single frame (1MB).
	defaultMaxFrameSize = 1024 * 1024
)

// Option is a function that configures connection options.
type Option func(*options)

// RegistryOption returns an Option that sets the codec registry. When not
// set, DefaultRegistry is used.
func RegistryOption(reg *Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// FormatOption returns an Option that sets the default format tag used by
// Send and Write. Defaults to FormatJSON.
func FormatOption(format byte) Option {
	return func(o *options) {
		o.format = format
	}
}

// SendQueueSizeOption returns an Option that sets the capacity of the send
// channel used by Run. A larger queue allows more messages to be queued
// before Write reports backpressure.
func SendQueueSizeOption(size int) Option {
	return func(o *options) {
		o.sendQueueSize = size
	}
}

// BufferSizeOption returns an Option that sets the initial capacity of the
// connection's send and receive buffers. Buffers grow on demand, so this is
// a starting point, not a cap.
func BufferSizeOption(size int) Option {
	return func(o *options) {
		o.bufferSize = size
	}
}

// MaxFrameSizeOption returns an Option that sets the largest incoming frame
// the connection will accept. A header declaring more is a protocol
// violation and closes the connection with ErrFrameTooLarge.
func MaxFrameSizeOption(size int) Option {
	return func(o *options) {
		o.maxFrameSize = size
	}
}

// OnErrorOption returns an Option that sets the error callback invoked by
// Run when a codec-level error occurs. Return Disconnect to close the
// connection, or Continue to skip the offending frame.
func OnErrorOption(cb func(error) ErrorAction) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// OnMessageOption returns an Option that sets the message handler callback.
// Required by Run; it is invoked for each received value.
func OnMessageOption(cb func(v any) error) Option {
	return func(o *options) {
		o.onMessage = cb
	}
}

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// checkOptions validates and sets default values for connection options.
func checkOptions(opts *options) error {
	if opts.registry == nil {
		opts.registry = DefaultRegistry()
	}

	if opts.format == 0 {
		opts.format = FormatJSON
	}

	if opts.sendQueueSize <= 0 {
		opts.sendQueueSize = defaultSendQueueSize
	}

	if opts.bufferSize < HeaderSize {
		opts.bufferSize = defaultBufferSize
	}

	if opts.maxFrameSize < HeaderSize {
		opts.maxFrameSize = defaultMaxFrameSize
	}

	if opts.onError == nil {
		opts.onError = func(err error) ErrorAction { return Disconnect }
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	return nil
}

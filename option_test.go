package wire

import (
	"errors"
	"testing"
)

func TestRegistryOption(t *testing.T) {
	reg := NewRegistry()
	opt := RegistryOption(reg)

	var opts options
	opt(&opts)

	if opts.registry != reg {
		t.Error("registry not set correctly")
	}
}

func TestFormatOption(t *testing.T) {
	opt := FormatOption(FormatMsgpack)

	var opts options
	opt(&opts)

	if opts.format != FormatMsgpack {
		t.Errorf("format = %d, want %d", opts.format, FormatMsgpack)
	}
}

func TestSendQueueSizeOption(t *testing.T) {
	opt := SendQueueSizeOption(100)

	var opts options
	opt(&opts)

	if opts.sendQueueSize != 100 {
		t.Errorf("sendQueueSize = %d, want 100", opts.sendQueueSize)
	}
}

func TestBufferSizeOption(t *testing.T) {
	opt := BufferSizeOption(4096)

	var opts options
	opt(&opts)

	if opts.bufferSize != 4096 {
		t.Errorf("bufferSize = %d, want 4096", opts.bufferSize)
	}
}

func TestMaxFrameSizeOption(t *testing.T) {
	opt := MaxFrameSizeOption(1 << 20)

	var opts options
	opt(&opts)

	if opts.maxFrameSize != 1<<20 {
		t.Errorf("maxFrameSize = %d, want %d", opts.maxFrameSize, 1<<20)
	}
}

func TestOnErrorOption(t *testing.T) {
	called := false
	onError := func(err error) ErrorAction {
		called = true
		return Disconnect
	}
	opt := OnErrorOption(onError)

	var opts options
	opt(&opts)

	if opts.onError == nil {
		t.Fatal("onError is nil")
	}

	// Call to verify it's the right function
	opts.onError(nil)
	if !called {
		t.Error("onError callback not called")
	}
}

func TestOnMessageOption(t *testing.T) {
	called := false
	onMessage := func(v any) error {
		called = true
		return nil
	}
	opt := OnMessageOption(onMessage)

	var opts options
	opt(&opts)

	if opts.onMessage == nil {
		t.Fatal("onMessage is nil")
	}

	// Call to verify it's the right function
	opts.onMessage(nil)
	if !called {
		t.Error("onMessage callback not called")
	}
}

func TestLoggerOption(t *testing.T) {
	logger := &mockLogger{}
	opt := LoggerOption(logger)

	var opts options
	opt(&opts)

	if opts.logger != logger {
		t.Error("logger not set correctly")
	}
}

func TestOptions_MultipleOptions(t *testing.T) {
	reg := NewRegistry()
	logger := &mockLogger{}
	onMessage := func(v any) error { return nil }
	onError := func(err error) ErrorAction { return Continue }

	var opts options
	all := []Option{
		RegistryOption(reg),
		FormatOption(FormatMsgpack),
		OnMessageOption(onMessage),
		OnErrorOption(onError),
		SendQueueSizeOption(50),
		BufferSizeOption(8192),
		MaxFrameSizeOption(1 << 16),
		LoggerOption(logger),
	}

	for _, opt := range all {
		opt(&opts)
	}

	if opts.registry != reg {
		t.Error("registry not set")
	}
	if opts.format != FormatMsgpack {
		t.Error("format not set")
	}
	if opts.onMessage == nil {
		t.Error("onMessage not set")
	}
	if opts.onError == nil {
		t.Error("onError not set")
	}
	if opts.sendQueueSize != 50 {
		t.Errorf("sendQueueSize = %d, want 50", opts.sendQueueSize)
	}
	if opts.bufferSize != 8192 {
		t.Errorf("bufferSize = %d, want 8192", opts.bufferSize)
	}
	if opts.maxFrameSize != 1<<16 {
		t.Errorf("maxFrameSize = %d, want %d", opts.maxFrameSize, 1<<16)
	}
	if opts.logger != logger {
		t.Error("logger not set")
	}
}

func TestCheckOptions_DefaultValues(t *testing.T) {
	opts := &options{}

	err := checkOptions(opts)
	if err != nil {
		t.Fatalf("checkOptions failed: %v", err)
	}

	if opts.registry != DefaultRegistry() {
		t.Error("registry should default to DefaultRegistry")
	}
	if opts.format != FormatJSON {
		t.Errorf("format = %d, want %d", opts.format, FormatJSON)
	}
	if opts.sendQueueSize != defaultSendQueueSize {
		t.Errorf("sendQueueSize = %d, want %d", opts.sendQueueSize, defaultSendQueueSize)
	}
	if opts.bufferSize != defaultBufferSize {
		t.Errorf("bufferSize = %d, want %d", opts.bufferSize, defaultBufferSize)
	}
	if opts.maxFrameSize != defaultMaxFrameSize {
		t.Errorf("maxFrameSize = %d, want %d", opts.maxFrameSize, defaultMaxFrameSize)
	}
	if opts.onError == nil {
		t.Error("onError should have default value")
	}
	if opts.logger == nil {
		t.Error("logger should have default value")
	}
}

func TestCheckOptions_DefaultOnError(t *testing.T) {
	opts := &options{}

	err := checkOptions(opts)
	if err != nil {
		t.Fatalf("checkOptions failed: %v", err)
	}

	// Default onError should return Disconnect
	if opts.onError(errors.New("test")) != Disconnect {
		t.Error("default onError should return Disconnect")
	}
}

func TestErrorAction(t *testing.T) {
	// Test Disconnect constant
	if Disconnect != 0 {
		t.Errorf("Disconnect = %d, want 0", Disconnect)
	}

	// Test Continue constant
	if Continue != 1 {
		t.Errorf("Continue = %d, want 1", Continue)
	}
}

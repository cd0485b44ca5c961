// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package event

import (
	"context"
	"os"
	"testing"

	"github.com/hashicorp/eventlogger"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

// TestConfig defines a test eventer config along with its test sink files
type TestConfig struct {
	EventerConfig     EventerConfig
	AllEvents         *os.File
	ErrorEvents       *os.File
	ObservationEvents *os.File
	SysEvents         *os.File
}

// TestEventerConfig creates a test config for an eventer with an every-type
// file sink and an error file sink.  Supports the test options:
// TestWithStderrSink, TestWithObservationSink, TestWithSysSink and
// testWithSinkFormat
func TestEventerConfig(t *testing.T, testName string, opt ...TestOption) TestConfig {
	t.Helper()
	require := require.New(t)
	opts := getTestOpts(opt...)

	tmpAllFile, err := os.CreateTemp("./", "tmp-all-events-"+testName)
	require.NoError(err)
	t.Cleanup(func() {
		os.Remove(tmpAllFile.Name())
	})

	tmpErrFile, err := os.CreateTemp("./", "tmp-errors-"+testName)
	require.NoError(err)
	t.Cleanup(func() {
		os.Remove(tmpErrFile.Name())
	})

	c := TestConfig{
		EventerConfig: EventerConfig{
			ObservationsEnabled: true,
			SysEventsEnabled:    true,
			Sinks: []*SinkConfig{
				{
					Name:       "every-type-file-sink",
					Type:       FileSink,
					EventTypes: []Type{EveryType},
					Format:     opts.withSinkFormat,
					FileConfig: &FileSinkTypeConfig{
						Path:     "./",
						FileName: tmpAllFile.Name(),
					},
				},
				{
					Name:       "err-file-sink",
					Type:       FileSink,
					EventTypes: []Type{ErrorType},
					Format:     opts.withSinkFormat,
					FileConfig: &FileSinkTypeConfig{
						Path:     "./",
						FileName: tmpErrFile.Name(),
					},
				},
			},
		},
		AllEvents:   tmpAllFile,
		ErrorEvents: tmpErrFile,
	}
	if opts.withStderrSink {
		c.EventerConfig.Sinks = append(c.EventerConfig.Sinks, &SinkConfig{
			Name:       "stderr-sink",
			Type:       StderrSink,
			EventTypes: []Type{EveryType},
			Format:     opts.withSinkFormat,
		})
	}
	if opts.withObservationSink {
		tmpFile, err := os.CreateTemp("./", "tmp-observations-"+testName)
		require.NoError(err)
		t.Cleanup(func() {
			os.Remove(tmpFile.Name())
		})
		c.EventerConfig.Sinks = append(c.EventerConfig.Sinks, &SinkConfig{
			Name:       "observation-file-sink",
			Type:       FileSink,
			EventTypes: []Type{ObservationType},
			Format:     opts.withSinkFormat,
			FileConfig: &FileSinkTypeConfig{
				Path:     "./",
				FileName: tmpFile.Name(),
			},
		})
		c.ObservationEvents = tmpFile
	}
	if opts.withSysSink {
		tmpFile, err := os.CreateTemp("./", "tmp-sysevents-"+testName)
		require.NoError(err)
		t.Cleanup(func() {
			os.Remove(tmpFile.Name())
		})
		c.EventerConfig.Sinks = append(c.EventerConfig.Sinks, &SinkConfig{
			Name:       "sys-file-sink",
			Type:       FileSink,
			EventTypes: []Type{SystemType},
			Format:     opts.withSinkFormat,
			FileConfig: &FileSinkTypeConfig{
				Path:     "./",
				FileName: tmpFile.Name(),
			},
		})
		c.SysEvents = tmpFile
	}
	return c
}

// TestResetSysEventer will reset event.syseventer to an uninitialized state.
func TestResetSysEventer(t *testing.T) {
	t.Helper()
	sysEventerLock.Lock()
	defer sysEventerLock.Unlock()
	sysEventer = nil
}

// TestGetEventerConfig is a test accessor for the eventer's config
func TestGetEventerConfig(t *testing.T, e *Eventer) EventerConfig {
	t.Helper()
	return e.conf
}

// TestWithBroker is an unexported and a test option for passing in an option
// broker
func TestWithBroker(t *testing.T, b broker) Option {
	t.Helper()
	return func(o *options) {
		o.withBroker = b
	}
}

func testLogger(t *testing.T, testLock hclog.Locker) hclog.Logger {
	t.Helper()
	return hclog.New(&hclog.LoggerOptions{
		Mutex:      testLock,
		Name:       "test",
		JSONFormat: true,
	})
}

// getTestOpts - iterate the inbound TestOptions and return a struct
func getTestOpts(opt ...TestOption) testOptions {
	opts := getDefaultTestOptions()
	for _, o := range opt {
		if o != nil {
			o(&opts)
		}
	}
	return opts
}

// TestOption - how TestOptions are passed as arguments
type TestOption func(*testOptions)

// testOptions = how options are represented
type testOptions struct {
	withStderrSink      bool
	withObservationSink bool
	withSysSink         bool
	withSinkFormat      SinkFormat
}

func getDefaultTestOptions() testOptions {
	return testOptions{
		withSinkFormat: JSONSinkFormat,
	}
}

// TestWithStderrSink is a test option which will add a stderr sink to the
// test config
func TestWithStderrSink(t *testing.T) TestOption {
	t.Helper()
	return func(o *testOptions) {
		o.withStderrSink = true
	}
}

// TestWithObservationSink is a test option which will add an observation
// file sink to the test config
func TestWithObservationSink(t *testing.T) TestOption {
	t.Helper()
	return func(o *testOptions) {
		o.withObservationSink = true
	}
}

// TestWithSysSink is a test option which will add a sysevents file sink to
// the test config
func TestWithSysSink(t *testing.T) TestOption {
	t.Helper()
	return func(o *testOptions) {
		o.withSysSink = true
	}
}

// testWithSinkFormat defines the format for the test config's sinks
func testWithSinkFormat(t *testing.T, f SinkFormat) TestOption {
	t.Helper()
	return func(o *testOptions) {
		o.withSinkFormat = f
	}
}

// testMockBroker is a mock broker for testing the eventer's node/pipeline
// registration and send retries
type testMockBroker struct {
	reopened          bool
	registeredNodeIds []eventlogger.NodeID
	pipelines         []eventlogger.Pipeline
	successThresholds map[eventlogger.EventType]int

	errorOnSend error
}

func (b *testMockBroker) Send(ctx context.Context, t eventlogger.EventType, payload any) (eventlogger.Status, error) {
	if b.errorOnSend != nil {
		return eventlogger.Status{}, b.errorOnSend
	}
	return eventlogger.Status{}, nil
}

func (b *testMockBroker) Reopen(ctx context.Context) error {
	b.reopened = true
	return nil
}

func (b *testMockBroker) RegisterPipeline(def eventlogger.Pipeline, _ ...eventlogger.Option) error {
	b.pipelines = append(b.pipelines, def)
	return nil
}

func (b *testMockBroker) SetSuccessThreshold(t eventlogger.EventType, successThreshold int) error {
	if b.successThresholds == nil {
		b.successThresholds = map[eventlogger.EventType]int{}
	}
	b.successThresholds[t] = successThreshold
	return nil
}

func (b *testMockBroker) RegisterNode(id eventlogger.NodeID, node eventlogger.Node, _ ...eventlogger.Option) error {
	b.registeredNodeIds = append(b.registeredNodeIds, id)
	return nil
}

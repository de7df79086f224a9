package logging

import (
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerSetupParams struct {
	LogFileName string // empty disables the log file
	LogToStdout bool
	// UILogChan receives every log line for the terminal UI; may be nil
	UILogChan chan<- string
}

// Setup builds the application logger. The returned closer flushes and
// closes the log file.
func Setup(params LoggerSetupParams) (*log.Logger, io.Closer) {
	var writers []io.Writer
	var closer io.Closer = nopCloser{}

	if params.LogFileName != "" {
		if !strings.HasSuffix(params.LogFileName, ".log") {
			params.LogFileName += ".log"
		}
		lumberJackLogger := &lumberjack.Logger{
			Filename:   params.LogFileName,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			LocalTime:  true,
			Compress:   true,
		}
		writers = append(writers, lumberJackLogger)
		closer = lumberJackLogger
	}
	if params.LogToStdout {
		writers = append(writers, os.Stdout)
	}
	if params.UILogChan != nil {
		writers = append(writers, NewChannelWriter(params.UILogChan))
	}

	var out io.Writer
	switch len(writers) {
	case 0:
		out = io.Discard
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	logger := log.New(out, "", log.LstdFlags)
	if params.LogFileName == "" {
		logger.Println("Logging: no log file configured")
	} else {
		logger.Printf("Logging: writing to %s", params.LogFileName)
	}
	return logger, closer
}

// ChannelWriter forwards each write as one string to a channel. Writes never
// block; lines are dropped while the channel is full.
type ChannelWriter struct {
	ch      chan<- string
	dropped atomic.Uint64
}

func NewChannelWriter(ch chan<- string) *ChannelWriter {
	if ch == nil {
		panic("ChannelWriter: channel cannot be nil")
	}
	return &ChannelWriter{ch: ch}
}

func (w *ChannelWriter) Write(p []byte) (int, error) {
	select {
	case w.ch <- string(p):
	default:
		w.dropped.Add(1)
	}
	return len(p), nil
}

// Dropped returns how many lines were lost to a full channel
func (w *ChannelWriter) Dropped() uint64 {
	return w.dropped.Load()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

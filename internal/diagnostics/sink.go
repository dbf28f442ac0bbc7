// Package diagnostics records every remote call for forensic debugging.
// Sinks are fire-and-forget: nothing they do affects control flow.
package diagnostics

import (
	"context"
	"time"

	"gembrowse/internal/gci"
	"gembrowse/internal/logging"
	"gembrowse/internal/store"
)

type Sink interface {
	LogQuery(label, code string)
	LogResult(label, result string)
	LogError(label string, err error)
	LogGciCall(call string, args ...logging.Field)
	LogGciResult(call string, result any, err error)
}

type Options struct {
	// StoreBodies journals full source and result text; otherwise only sizes.
	StoreBodies bool
	Timeout     time.Duration
}

type sink struct {
	logger  logging.Logger
	journal store.Journal
	opts    Options
}

func NewSink(logger logging.Logger, journal store.Journal, opts Options) Sink {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second
	}
	return &sink{logger: logger, journal: journal, opts: opts}
}

func Nop() Sink {
	return nopSink{}
}

func (s *sink) LogQuery(label, code string) {
	s.logger.Debug("remote query", logging.F("label", label), logging.Body("code", code))
	s.append(store.CallKindQuery, label, code, 0)
}

func (s *sink) LogResult(label, result string) {
	s.logger.Debug("remote result", logging.F("label", label), logging.F("bytes", len(result)), logging.Body("result", result))
	s.append(store.CallKindResult, label, result, 0)
}

func (s *sink) LogError(label string, err error) {
	number := errorNumber(err)
	s.logger.Warn("remote error", logging.F("label", label), logging.F("error", err), logging.F("number", number))
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	s.append(store.CallKindError, label, msg, number)
}

func (s *sink) LogGciCall(call string, args ...logging.Field) {
	fields := append([]logging.Field{logging.F("call", call)}, args...)
	s.logger.Debug("gci call", fields...)
	s.append(store.CallKindGciCall, call, "", 0)
}

func (s *sink) LogGciResult(call string, result any, err error) {
	if err != nil {
		number := errorNumber(err)
		s.logger.Warn("gci result", logging.F("call", call), logging.F("error", err))
		s.append(store.CallKindGciResult, call, err.Error(), number)
		return
	}
	s.logger.Debug("gci result", logging.F("call", call), logging.F("result", result))
	s.append(store.CallKindGciResult, call, "", 0)
}

func (s *sink) append(kind store.CallKind, label, body string, errorNumber int) {
	if s.journal == nil {
		return
	}
	record := &store.CallRecord{
		Kind:        kind,
		Label:       label,
		BodyBytes:   len(body),
		ErrorNumber: errorNumber,
	}
	if s.opts.StoreBodies || kind == store.CallKindError {
		record.Body = body
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()
	if err := s.journal.Append(ctx, record); err != nil {
		s.logger.Warn("journal append failed", logging.F("kind", string(kind)), logging.F("error", err))
	}
}

type nopSink struct{}

func (nopSink) LogQuery(string, string)             {}
func (nopSink) LogResult(string, string)            {}
func (nopSink) LogError(string, error)              {}
func (nopSink) LogGciCall(string, ...logging.Field) {}
func (nopSink) LogGciResult(string, any, error)     {}

func errorNumber(err error) int {
	if gerr, ok := gci.AsError(err); ok {
		return gerr.Number
	}
	return 0
}

package store

import (
	"context"
	"time"
)

type CallKind string

const (
	CallKindQuery     CallKind = "query"
	CallKindResult    CallKind = "result"
	CallKindError     CallKind = "error"
	CallKindGciCall   CallKind = "gci_call"
	CallKindGciResult CallKind = "gci_result"
)

// CallRecord is one journaled remote interaction.
type CallRecord struct {
	ID          string    `json:"id"`
	Seq         uint64    `json:"seq"`
	Time        time.Time `json:"time"`
	Kind        CallKind  `json:"kind"`
	Label       string    `json:"label"`
	Body        string    `json:"body,omitempty"`
	BodyBytes   int       `json:"body_bytes"`
	ErrorNumber int       `json:"error_number,omitempty"`
}

type Journal interface {
	Append(ctx context.Context, record *CallRecord) error
	Recent(ctx context.Context, limit int) ([]*CallRecord, error)
	Close() error
}

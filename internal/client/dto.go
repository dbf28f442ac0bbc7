package client

import "gembrowse/internal/gci"

type SessionInfo struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	User        string `json:"user,omitempty"`
	Stone       string `json:"stone,omitempty"`
}

type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version,omitempty"`
}

// ErrorPayload carries a remote failure inside a successful HTTP response.
type ErrorPayload struct {
	Number   int    `json:"number"`
	Message  string `json:"message,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Category uint64 `json:"category,omitempty"`
	Context  uint64 `json:"context,omitempty"`
	Fatal    bool   `json:"fatal,omitempty"`
}

func (p *ErrorPayload) toError() error {
	if p == nil || p.Number == 0 {
		return nil
	}
	return &gci.Error{
		Number:   p.Number,
		Message:  p.Message,
		Reason:   p.Reason,
		Category: gci.OOP(p.Category),
		Context:  gci.OOP(p.Context),
		Fatal:    p.Fatal,
	}
}

type CallInProgressResponse struct {
	InProgress bool          `json:"in_progress"`
	Error      *ErrorPayload `json:"error,omitempty"`
}

type OOPResponse struct {
	OOP   uint64        `json:"oop"`
	Error *ErrorPayload `json:"error,omitempty"`
}

type StatusResponse struct {
	Error *ErrorPayload `json:"error,omitempty"`
}

type ResolveSymbolRequest struct {
	Name       string `json:"name"`
	SymbolList uint64 `json:"symbol_list"`
}

type ExecuteRequest struct {
	Source        string `json:"source"`
	SourceSize    int    `json:"source_size"`
	SourceClass   uint64 `json:"source_class"`
	Context       uint64 `json:"context"`
	SymbolList    uint64 `json:"symbol_list"`
	MaxResultSize int    `json:"max_result_size"`
}

// ExecuteResponse holds the fetched bytes, base64 encoded on the wire.
type ExecuteResponse struct {
	Data  []byte        `json:"data"`
	Error *ErrorPayload `json:"error,omitempty"`
}

type ValueRequest struct {
	Value string `json:"value"`
}

type PerformRequest struct {
	Receiver uint64   `json:"receiver"`
	Selector string   `json:"selector"`
	Args     []uint64 `json:"args,omitempty"`
}

type CompileRequest struct {
	Source           uint64 `json:"source"`
	Class            uint64 `json:"class"`
	Category         uint64 `json:"category"`
	SymbolList       uint64 `json:"symbol_list"`
	OverrideSelector uint64 `json:"override_selector"`
	Flags            uint32 `json:"flags"`
	Environment      int    `json:"environment"`
}

type ClearStackRequest struct {
	Process uint64 `json:"process"`
}

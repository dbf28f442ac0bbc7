package client

import (
	"context"
	"net/http"
	"strconv"

	"gembrowse/internal/gci"
)

// Session is a gci.Session backed by one gateway session. Remote failures
// arrive as an error object in a 200 response and are returned as *gci.Error.
type Session struct {
	client *Client
	id     int
}

func (c *Client) Session(id int) *Session {
	return &Session{client: c, id: id}
}

func (s *Session) ID() int {
	return s.id
}

func (s *Session) path(call string) string {
	return "/v1/sessions/" + strconv.Itoa(s.id) + "/" + call
}

func (s *Session) callOOP(ctx context.Context, call string, body any) (gci.OOP, error) {
	var resp OOPResponse
	if err := s.client.doJSON(ctx, http.MethodPost, s.path(call), body, true, &resp); err != nil {
		return gci.OOPIllegal, err
	}
	if err := resp.Error.toError(); err != nil {
		return gci.OOPIllegal, err
	}
	return gci.OOP(resp.OOP), nil
}

func (s *Session) CallInProgress(ctx context.Context) (bool, error) {
	var resp CallInProgressResponse
	if err := s.client.doJSON(ctx, http.MethodGet, s.path("call-in-progress"), nil, true, &resp); err != nil {
		return false, err
	}
	if err := resp.Error.toError(); err != nil {
		return false, err
	}
	return resp.InProgress, nil
}

func (s *Session) ResolveSymbol(ctx context.Context, name string, symbolList gci.OOP) (gci.OOP, error) {
	return s.callOOP(ctx, "resolve-symbol", ResolveSymbolRequest{Name: name, SymbolList: uint64(symbolList)})
}

func (s *Session) ExecuteFetchBytes(ctx context.Context, req gci.ExecuteRequest) ([]byte, error) {
	body := ExecuteRequest{
		Source:        req.Source,
		SourceSize:    req.SourceSize,
		SourceClass:   uint64(req.SourceClass),
		Context:       uint64(req.Context),
		SymbolList:    uint64(req.SymbolList),
		MaxResultSize: req.MaxResultSize,
	}
	var resp ExecuteResponse
	if err := s.client.doJSON(ctx, http.MethodPost, s.path("execute-fetch-bytes"), body, true, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.toError(); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (s *Session) NewString(ctx context.Context, value string) (gci.OOP, error) {
	return s.callOOP(ctx, "new-string", ValueRequest{Value: value})
}

func (s *Session) NewSymbol(ctx context.Context, value string) (gci.OOP, error) {
	return s.callOOP(ctx, "new-symbol", ValueRequest{Value: value})
}

func (s *Session) Perform(ctx context.Context, receiver gci.OOP, selector string, args ...gci.OOP) (gci.OOP, error) {
	body := PerformRequest{Receiver: uint64(receiver), Selector: selector}
	for _, arg := range args {
		body.Args = append(body.Args, uint64(arg))
	}
	return s.callOOP(ctx, "perform", body)
}

func (s *Session) CompileMethod(ctx context.Context, req gci.CompileRequest) (gci.OOP, error) {
	return s.callOOP(ctx, "compile-method", CompileRequest{
		Source:           uint64(req.Source),
		Class:            uint64(req.Class),
		Category:         uint64(req.Category),
		SymbolList:       uint64(req.SymbolList),
		OverrideSelector: uint64(req.OverrideSelector),
		Flags:            req.Flags,
		Environment:      req.Environment,
	})
}

func (s *Session) ClearStack(ctx context.Context, process gci.OOP) error {
	var resp StatusResponse
	body := ClearStackRequest{Process: uint64(process)}
	if err := s.client.doJSON(ctx, http.MethodPost, s.path("clear-stack"), body, true, &resp); err != nil {
		return err
	}
	return resp.Error.toError()
}

var _ gci.Session = (*Session)(nil)

package query

import (
	"context"

	"gembrowse/internal/diagnostics"
	"gembrowse/internal/gci"
	"gembrowse/internal/logging"
)

// Service exposes browsing and mutation operations over a session.
type Service struct {
	exec   *Executor
	diag   diagnostics.Sink
	logger logging.Logger
}

func NewService(exec *Executor, diag diagnostics.Sink, logger logging.Logger) *Service {
	if diag == nil {
		diag = diagnostics.Nop()
	}
	if exec == nil {
		exec = NewExecutor(diag)
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Service{exec: exec, diag: diag, logger: logger}
}

func (s *Service) Executor() *Executor {
	return s.exec
}

func (s *Service) noteDropped(label string, stats decodeStats) {
	if stats.Dropped > 0 {
		s.logger.Debug("dropped malformed result lines", logging.F("label", label), logging.F("dropped", stats.Dropped))
	}
}

// DictionaryNames returns the symbol list dictionary names in remote order.
// Position i (0-based) is dictionary index i+1.
func (s *Service) DictionaryNames(ctx context.Context, sess gci.Session) ([]string, error) {
	text, err := s.exec.FetchString(ctx, sess, "dictionary names", DictionaryNamesCode())
	if err != nil {
		return nil, err
	}
	return decodeNames(text), nil
}

func (s *Service) DictionaryEntries(ctx context.Context, sess gci.Session, dictIndex int) ([]DictionaryEntry, error) {
	const label = "dictionary entries"
	text, err := s.exec.FetchString(ctx, sess, label, DictionaryEntriesCode(dictIndex))
	if err != nil {
		return nil, err
	}
	var stats decodeStats
	entries := decodeDictionaryEntries(text, &stats)
	s.noteDropped(label, stats)
	return entries, nil
}

func (s *Service) ClassEnvironments(ctx context.Context, sess gci.Session, dictIndex int, className string, maxEnv int) ([]EnvironmentEntry, error) {
	const label = "class environments"
	text, err := s.exec.FetchString(ctx, sess, label, ClassEnvironmentsCode(dictIndex, className, maxEnv))
	if err != nil {
		return nil, err
	}
	var stats decodeStats
	entries := decodeEnvironmentEntries(text, &stats)
	s.noteDropped(label, stats)
	return entries, nil
}

func (s *Service) ClassDefinition(ctx context.Context, sess gci.Session, dictIndex int, className string) (string, error) {
	return s.exec.FetchString(ctx, sess, "class definition", ClassDefinitionCode(dictIndex, className))
}

func (s *Service) ClassComment(ctx context.Context, sess gci.Session, dictIndex int, className string) (string, error) {
	return s.exec.FetchString(ctx, sess, "class comment", ClassCommentCode(dictIndex, className))
}

func (s *Service) MethodSource(ctx context.Context, sess gci.Session, dictIndex int, className string, isMeta bool, selector string, env int) (string, error) {
	return s.exec.FetchString(ctx, sess, "method source", MethodSourceCode(dictIndex, className, isMeta, selector, env))
}

func (s *Service) GlobalPrintString(ctx context.Context, sess gci.Session, dictIndex int, name string) (string, error) {
	return s.exec.FetchString(ctx, sess, "global value", GlobalPrintStringCode(dictIndex, name))
}

func (s *Service) methodList(ctx context.Context, sess gci.Session, label, code string) (MethodList, error) {
	text, err := s.exec.FetchString(ctx, sess, label, code)
	if err != nil {
		return MethodList{}, err
	}
	var stats decodeStats
	list := decodeMethodList(text, &stats)
	s.noteDropped(label, stats)
	if list.Truncated {
		s.logger.Info("method list truncated", logging.F("label", label), logging.F("shown", len(list.Methods)), logging.F("total", list.Total))
	}
	return list, nil
}

func (s *Service) Implementors(ctx context.Context, sess gci.Session, selector string) (MethodList, error) {
	return s.methodList(ctx, sess, "implementors", ImplementorsCode(selector))
}

func (s *Service) Senders(ctx context.Context, sess gci.Session, selector string) (MethodList, error) {
	return s.methodList(ctx, sess, "senders", SendersCode(selector))
}

func (s *Service) References(ctx context.Context, sess gci.Session, className string) (MethodList, error) {
	return s.methodList(ctx, sess, "references", ReferencesCode(className))
}

func (s *Service) MethodsContaining(ctx context.Context, sess gci.Session, term string) (MethodList, error) {
	return s.methodList(ctx, sess, "methods containing", MethodsContainingCode(term))
}

func (s *Service) ClassHierarchy(ctx context.Context, sess gci.Session, dictIndex int, className string) ([]HierarchyEntry, error) {
	const label = "class hierarchy"
	text, err := s.exec.FetchString(ctx, sess, label, ClassHierarchyCode(dictIndex, className))
	if err != nil {
		return nil, err
	}
	var stats decodeStats
	entries := decodeHierarchy(text, &stats)
	s.noteDropped(label, stats)
	return entries, nil
}

// FindClass lists the dictionaries that define className, in symbol list order.
func (s *Service) FindClass(ctx context.Context, sess gci.Session, className string) ([]DictionaryRef, error) {
	const label = "find class"
	text, err := s.exec.FetchString(ctx, sess, label, FindClassCode(className))
	if err != nil {
		return nil, err
	}
	var stats decodeStats
	refs := decodeDictionaryRefs(text, &stats)
	s.noteDropped(label, stats)
	return refs, nil
}

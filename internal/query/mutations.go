package query

import (
	"context"
	"strings"

	"gembrowse/internal/gci"
)

// Every mutation here changes dictionary, category or selector membership
// remotely. Nothing pushes that change back, so callers must refresh any
// browser caches afterwards.

func (s *Service) mutate(ctx context.Context, sess gci.Session, label, code string) error {
	text, err := s.exec.FetchString(ctx, sess, label, code)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) != ack {
		return protocolError(label, "unexpected acknowledgement "+Quote(truncateForMessage(text)))
	}
	return nil
}

func truncateForMessage(text string) string {
	const limit = 80
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}

func (s *Service) DeleteMethod(ctx context.Context, sess gci.Session, dictIndex int, className string, isMeta bool, selector string, env int) error {
	return s.mutate(ctx, sess, "delete method", DeleteMethodCode(dictIndex, className, isMeta, selector, env))
}

func (s *Service) RecategorizeMethod(ctx context.Context, sess gci.Session, dictIndex int, className string, isMeta bool, selector, category string) error {
	if strings.TrimSpace(category) == "" {
		return invalidError("recategorize method", "category is required")
	}
	return s.mutate(ctx, sess, "recategorize method", RecategorizeMethodCode(dictIndex, className, isMeta, selector, category))
}

func (s *Service) RenameCategory(ctx context.Context, sess gci.Session, dictIndex int, className string, isMeta bool, oldName, newName string) error {
	if strings.TrimSpace(newName) == "" {
		return invalidError("rename category", "new category name is required")
	}
	return s.mutate(ctx, sess, "rename category", RenameCategoryCode(dictIndex, className, isMeta, oldName, newName))
}

func (s *Service) DeleteClass(ctx context.Context, sess gci.Session, dictIndex int, className string) error {
	return s.mutate(ctx, sess, "delete class", DeleteClassCode(dictIndex, className))
}

func (s *Service) MoveClass(ctx context.Context, sess gci.Session, fromIndex, toIndex int, className string) error {
	if fromIndex == toIndex {
		return invalidError("move class", "source and target dictionary are the same")
	}
	return s.mutate(ctx, sess, "move class", MoveClassCode(fromIndex, toIndex, className))
}

func (s *Service) AddDictionary(ctx context.Context, sess gci.Session, name string) error {
	if strings.TrimSpace(name) == "" {
		return invalidError("add dictionary", "dictionary name is required")
	}
	return s.mutate(ctx, sess, "add dictionary", AddDictionaryCode(name))
}

func (s *Service) RemoveDictionary(ctx context.Context, sess gci.Session, dictIndex int) error {
	return s.mutate(ctx, sess, "remove dictionary", RemoveDictionaryCode(dictIndex))
}

// MoveDictionaryUp rejects index 1 locally; there is nothing above it.
func (s *Service) MoveDictionaryUp(ctx context.Context, sess gci.Session, dictIndex int) error {
	if dictIndex <= 1 {
		return invalidError("move dictionary up", "dictionary is already first")
	}
	return s.mutate(ctx, sess, "move dictionary up", MoveDictionaryCode(dictIndex, -1))
}

// MoveDictionaryDown relies on the remote range check for the last index.
func (s *Service) MoveDictionaryDown(ctx context.Context, sess gci.Session, dictIndex int) error {
	if dictIndex < 1 {
		return invalidError("move dictionary down", "dictionary index must be positive")
	}
	return s.mutate(ctx, sess, "move dictionary down", MoveDictionaryCode(dictIndex, 1))
}

func (s *Service) SetClassComment(ctx context.Context, sess gci.Session, dictIndex int, className, comment string) error {
	return s.mutate(ctx, sess, "set class comment", SetClassCommentCode(dictIndex, className, comment))
}

func (s *Service) Commit(ctx context.Context, sess gci.Session) error {
	const label = "commit"
	text, err := s.exec.FetchString(ctx, sess, label, CommitCode())
	if err != nil {
		return err
	}
	switch strings.TrimSpace(text) {
	case ack:
		return nil
	case "conflict":
		return &Error{Kind: ErrorRemote, Op: label, Message: "commit failed: transaction conflicts"}
	default:
		return protocolError(label, "unexpected acknowledgement "+Quote(truncateForMessage(text)))
	}
}

// Abort discards uncommitted work and refreshes the session's view, so
// callers must treat it like any other mutation.
func (s *Service) Abort(ctx context.Context, sess gci.Session) error {
	return s.mutate(ctx, sess, "abort", AbortCode())
}

package session

import (
	"errors"

	"github.com/debreselam/schoolbot/internal/authz"
	"github.com/debreselam/schoolbot/internal/directory"
	"github.com/debreselam/schoolbot/internal/lang"
	"github.com/debreselam/schoolbot/internal/quiz"
)

// Rejection reasons. Every one is recoverable; none ends the session.
var (
	ErrUnknownIdentifier       = directory.ErrUnknownIdentifier
	ErrIncorrectCredential     = errors.New("incorrect credential")
	ErrCredentialTooShort      = errors.New("credential too short")
	ErrSessionExpiredOrMissing = errors.New("session expired or missing")
	ErrNoQuizInProgress        = quiz.ErrNoQuizInProgress
	ErrSubjectHasNoQuestions   = quiz.ErrSubjectHasNoQuestions
	ErrUnauthorized            = authz.ErrUnauthorized
	ErrUnrecognizedAction      = errors.New("unrecognized action")
	ErrUnknownLanguage         = lang.ErrUnknownLanguage
	ErrEmptyContact            = errors.New("empty phone number")
	ErrAlreadyAnswered         = quiz.ErrAlreadyAnswered
	ErrNotQuizOwner            = quiz.ErrNotOwner
	ErrInternal                = errors.New("internal error")
)

func reject(err error) []Response {
	return []Response{Rejected{Reason: err}}
}

package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/debreselam/schoolbot/internal/quiz"
	"github.com/debreselam/schoolbot/internal/store"
)

func (m *Machine) logout(s *Session, log logrus.FieldLogger) []Response {
	if s.HasQuiz() {
		m.quizzes.Discard(s.ActiveQuiz)
	}
	if s.LoggedIn() {
		log.WithField("account_id", s.Identity.AccountID).Info("logged out")
	}
	s.clear()
	return []Response{Notice{Kind: NoticeLoggedOut}}
}

// startQuiz issues the first question of a new attempt. A previously active
// quiz is discarded once the new one exists.
func (m *Machine) startQuiz(ctx context.Context, s *Session, subject string, log logrus.FieldLogger) []Response {
	id, err := m.quizzes.Start(s.ID, subject)
	if err != nil {
		return reject(err)
	}
	if s.HasQuiz() {
		m.quizzes.Discard(s.ActiveQuiz)
	}
	s.ActiveQuiz = id
	log.WithFields(logrus.Fields{"quiz_id": id, "subject": subject}).Debug("quiz started")
	return m.advance(ctx, s, log)
}

func (m *Machine) submitAnswer(ctx context.Context, s *Session, answer string, log logrus.FieldLogger) []Response {
	if !s.HasQuiz() {
		return reject(ErrNoQuizInProgress)
	}
	correct, err := m.quizzes.SubmitAnswer(s.ID, s.ActiveQuiz, answer)
	switch {
	case errors.Is(err, quiz.ErrNoQuizInProgress):
		// Expired or discarded behind our back.
		s.ActiveQuiz = uuid.Nil
		return reject(ErrNoQuizInProgress)
	case err != nil:
		return reject(err)
	}
	graded := AnswerGraded{Correct: correct}
	if res, err := m.quizzes.Result(s.ID, s.ActiveQuiz); err == nil && len(res.Answers) > 0 {
		graded.Expected = res.Answers[len(res.Answers)-1].Correct
	}
	return append([]Response{graded}, m.advance(ctx, s, log)...)
}

// advance issues the next question, or finishes the attempt when none is
// left.
func (m *Machine) advance(ctx context.Context, s *Session, log logrus.FieldLogger) []Response {
	iss, ok, err := m.quizzes.NextQuestion(s.ID, s.ActiveQuiz)
	if err != nil {
		s.ActiveQuiz = uuid.Nil
		return reject(ErrNoQuizInProgress)
	}
	if ok {
		q := iss.Question
		return []Response{QuestionReady{
			Subject: iss.Subject,
			Text:    q.Prompt,
			Options: q.Options,
			Ordinal: iss.Ordinal,
			Total:   iss.Total,
		}}
	}
	return []Response{m.finishQuiz(ctx, s, log)}
}

func (m *Machine) finishQuiz(ctx context.Context, s *Session, log logrus.FieldLogger) Response {
	id := s.ActiveQuiz
	res, err := m.quizzes.Result(s.ID, id)
	m.quizzes.Discard(id)
	s.ActiveQuiz = uuid.Nil
	if err != nil {
		return Rejected{Reason: ErrNoQuizInProgress}
	}

	if m.attempts != nil {
		var account string
		if s.LoggedIn() {
			account = s.Identity.AccountID
		}
		err := m.attempts.AppendAttempt(ctx, store.Attempt{
			ID:         id,
			AccountID:  account,
			Subject:    res.Subject,
			Score:      res.Score,
			Total:      res.Total,
			Percentage: res.Percentage,
			Elapsed:    res.Elapsed,
			FinishedAt: m.now(),
		})
		if err != nil {
			log.WithError(err).Warn("append quiz attempt")
		}
	}
	log.WithFields(logrus.Fields{
		"quiz_id": id,
		"subject": res.Subject,
		"score":   res.Score,
		"total":   res.Total,
	}).Info("quiz finished")

	return QuizResult{
		Subject:    res.Subject,
		Score:      res.Score,
		Total:      res.Total,
		Percentage: res.Percentage,
		Elapsed:    res.Elapsed,
		Answers:    res.Answers,
	}
}

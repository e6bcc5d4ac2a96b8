package questiongen

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/debreselam/schoolbot/internal/quiz"
)

// TopUp generates n questions for every subject of bank and adds the valid
// ones. A subject that fails is logged and skipped; the returned map holds
// how many questions each subject gained. Context cancellation stops the
// loop and is returned.
func TopUp(ctx context.Context, gen *Generator, bank *quiz.Bank, n int, log logrus.FieldLogger) (map[string]int, error) {
	added := make(map[string]int)
	for _, subject := range bank.Subjects() {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		existing := lo.Map(bank.Questions(subject), func(q quiz.Question, _ int) string { return q.Prompt })

		qs, err := gen.Generate(ctx, subject, n, existing)
		if err != nil {
			if ctx.Err() != nil {
				return added, ctx.Err()
			}
			log.WithError(err).WithField("subject", subject).Warn("question top-up failed")
			continue
		}
		count, err := bank.Add(subject, qs...)
		if err != nil {
			return added, fmt.Errorf("add generated %s questions: %w", subject, err)
		}
		added[subject] = count
		log.WithFields(logrus.Fields{"subject": subject, "added": count}).Info("question bank topped up")
	}
	return added, nil
}

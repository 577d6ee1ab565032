package adaptive

import (
	"fmt"
	"strings"

	"snapstudy/internal/domain"
)

// Directives renders the prompt fragment spliced into the quiz-generation
// instruction. It names the learner's weak topics (to be re-tested) and
// mastered topics (to be made harder); an empty string means no steering.
func Directives(profile *domain.PerformanceProfile) string {
	if profile == nil {
		return ""
	}

	var b strings.Builder
	weak := profile.WeakTopics()
	mastered := profile.MasteredTopics()

	if len(weak) > 0 {
		b.WriteString("The learner struggled with these topics; include questions that re-test them:\n")
		for _, key := range weak {
			perf := profile.QuestionPerformance[key]
			b.WriteString(fmt.Sprintf("- %s (%d of %d correct)\n",
				strings.ReplaceAll(key, "_", " "), perf.Correct, perf.Attempts))
		}
	}
	if len(mastered) > 0 {
		b.WriteString("The learner has mastered these topics; ask noticeably harder questions about them:\n")
		for _, key := range mastered {
			b.WriteString(fmt.Sprintf("- %s\n", strings.ReplaceAll(key, "_", " ")))
		}
	}
	if len(profile.IncorrectQuestions) > 0 {
		b.WriteString("Previously missed questions worth revisiting with fresh phrasing:\n")
		limit := len(profile.IncorrectQuestions)
		if limit > 5 {
			limit = 5
		}
		for _, iq := range profile.IncorrectQuestions[:limit] {
			b.WriteString(fmt.Sprintf("- %s\n", iq.Question))
		}
	}
	return b.String()
}

// Package normalize coerces loosely-shaped parsed question data into the
// canonical Question model. The external model has drifted through several
// field-naming conventions over time (answer vs correctAnswer, sample_answer
// vs sampleAnswer, three different option encodings); each variant maps
// through one input-adapter record here instead of ad hoc fallbacks spread
// through the transform logic.
package normalize

import (
	"fmt"
	"sort"
	"strings"

	"snapstudy/internal/domain"
	"snapstudy/internal/logger"
	"snapstudy/internal/util"

	"go.uber.org/zap"
)

// rawQuestion is the single internal record every tolerated input shape is
// adapted into before canonicalization.
type rawQuestion struct {
	id            string
	qtype         string
	question      string
	options       []domain.Option
	correctAnswer string
	explanation   string
	sampleAnswer  string
	topic         string
}

// Result carries the normalized questions plus a count of elements that
// were dropped as unrecognizable, for the caller to log or surface.
type Result struct {
	Questions []domain.Question
	Dropped   int
}

// Normalize accepts a bare array, a {quiz: [...]} object, or a
// {quizQuestions: [...]} object and returns well-formed questions. It is
// total: unrecognized shapes are dropped, never raised.
func Normalize(v interface{}) Result {
	l := logger.Get()
	items := topLevelItems(v)

	res := Result{Questions: []domain.Question{}}
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			res.Dropped++
			continue
		}
		raw := adapt(obj)
		if strings.TrimSpace(raw.question) == "" {
			res.Dropped++
			continue
		}
		res.Questions = append(res.Questions, canonicalize(raw))
	}

	if res.Dropped > 0 {
		l.Warn("normalize: dropped unrecognizable elements",
			zap.Int("dropped", res.Dropped),
			zap.Int("kept", len(res.Questions)))
	}
	return res
}

func topLevelItems(v interface{}) []interface{} {
	switch t := v.(type) {
	case []interface{}:
		return t
	case map[string]interface{}:
		for _, key := range []string{"quiz", "quizQuestions", "questions"} {
			if arr, ok := t[key].([]interface{}); ok {
				return arr
			}
		}
		// A lone question object is tolerated as a one-element quiz.
		if _, ok := t["question"]; ok {
			return []interface{}{t}
		}
	}
	return nil
}

// adapt maps every historical field spelling onto the internal record.
func adapt(obj map[string]interface{}) rawQuestion {
	raw := rawQuestion{
		id:            stringField(obj, "id"),
		qtype:         strings.ToLower(stringField(obj, "type")),
		question:      stringField(obj, "question", "text", "question_text"),
		correctAnswer: stringField(obj, "correctAnswer", "correct_answer", "answer"),
		explanation:   stringField(obj, "explanation"),
		sampleAnswer:  stringField(obj, "sampleAnswer", "sample_answer", "modelAnswer", "model_answer"),
		topic:         stringField(obj, "topic"),
	}
	if v, ok := obj["options"]; ok {
		raw.options = adaptOptions(v)
	}
	return raw
}

func stringField(obj map[string]interface{}, names ...string) string {
	for _, name := range names {
		if v, ok := obj[name]; ok {
			switch s := v.(type) {
			case string:
				return s
			case float64:
				return strings.TrimSuffix(fmt.Sprintf("%v", s), ".0")
			}
		}
	}
	return ""
}

// adaptOptions tolerates the three option encodings seen in the wild:
// array of {id, text} objects, array of bare strings (ids assigned
// a, b, c, ...), and an {id: text} map.
func adaptOptions(v interface{}) []domain.Option {
	switch t := v.(type) {
	case []interface{}:
		options := make([]domain.Option, 0, len(t))
		for i, el := range t {
			switch opt := el.(type) {
			case map[string]interface{}:
				id := stringField(opt, "id", "key")
				if id == "" {
					id = optionID(i)
				}
				options = append(options, domain.Option{
					ID:   id,
					Text: stringField(opt, "text", "option", "value"),
				})
			case string:
				options = append(options, domain.Option{ID: optionID(i), Text: opt})
			}
		}
		return options
	case map[string]interface{}:
		// Map form loses source ordering; sort ids so rendering is stable.
		ids := make([]string, 0, len(t))
		for id := range t {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		options := make([]domain.Option, 0, len(ids))
		for _, id := range ids {
			if text, ok := t[id].(string); ok {
				options = append(options, domain.Option{ID: id, Text: text})
			}
		}
		return options
	}
	return nil
}

func optionID(i int) string {
	return string(rune('a' + i%26))
}

// canonicalize fills every defaulted field so downstream rendering never
// sees a malformed question.
func canonicalize(raw rawQuestion) domain.Question {
	q := domain.Question{
		ID:          raw.id,
		Question:    raw.question,
		Explanation: raw.explanation,
		Topic:       raw.topic,
	}
	if q.ID == "" {
		q.ID = util.NewShortID()
	}

	switch raw.qtype {
	case string(domain.QuestionTypeMCQ):
		q.Type = domain.QuestionTypeMCQ
	case string(domain.QuestionTypeSubjective):
		q.Type = domain.QuestionTypeSubjective
	default:
		// Type tag absent: an explicit sample answer implies subjective;
		// everything else renders as mcq, fabricating options when needed.
		if raw.sampleAnswer != "" {
			q.Type = domain.QuestionTypeSubjective
		} else {
			q.Type = domain.QuestionTypeMCQ
		}
	}

	if q.Type == domain.QuestionTypeMCQ {
		q.Options = raw.options
		if len(q.Options) == 0 {
			// Placeholder options keep the renderer alive when generation
			// produced an optionless mcq.
			q.Options = placeholderOptions()
			q.CorrectAnswer = q.Options[0].ID
		} else {
			q.CorrectAnswer = matchAnswer(raw.correctAnswer, q.Options)
		}
		return q
	}

	q.SampleAnswer = raw.sampleAnswer
	if q.SampleAnswer == "" {
		q.SampleAnswer = domain.DefaultSampleAnswer
	}
	return q
}

func placeholderOptions() []domain.Option {
	return []domain.Option{
		{ID: "a", Text: "Option A"},
		{ID: "b", Text: "Option B"},
		{ID: "c", Text: "Option C"},
		{ID: "d", Text: "Option D"},
	}
}

// matchAnswer resolves the declared answer against the option list. The
// model sometimes answers with the option text instead of its id; failing
// both, the first option wins.
func matchAnswer(answer string, options []domain.Option) string {
	for _, opt := range options {
		if opt.ID == answer {
			return opt.ID
		}
	}
	for _, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt.Text), strings.TrimSpace(answer)) && answer != "" {
			return opt.ID
		}
	}
	return options[0].ID
}

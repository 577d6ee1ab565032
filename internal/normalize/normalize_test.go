package normalize

import (
	"encoding/json"
	"testing"

	"snapstudy/internal/domain"
	"snapstudy/internal/repair"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestNormalizeWellFormedMCQ(t *testing.T) {
	v := parse(t, `[{
		"id": "q1",
		"type": "mcq",
		"question": "What is 2+2?",
		"options": [{"id":"a","text":"3"},{"id":"b","text":"4"}],
		"correctAnswer": "b",
		"explanation": "basic arithmetic",
		"topic": "arithmetic"
	}]`)

	res := Normalize(v)
	require.Len(t, res.Questions, 1)
	assert.Zero(t, res.Dropped)

	q := res.Questions[0]
	assert.Equal(t, "q1", q.ID)
	assert.Equal(t, domain.QuestionTypeMCQ, q.Type)
	assert.Equal(t, "b", q.CorrectAnswer)
	assert.Len(t, q.Options, 2)
	assert.NoError(t, q.Validate())
}

func TestNormalizeQuizWrapperObject(t *testing.T) {
	v := parse(t, `{"quiz": [{"question": "Q1"}]}`)
	res := Normalize(v)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, "Q1", res.Questions[0].Question)
}

func TestNormalizeLoneQuestionObject(t *testing.T) {
	v := parse(t, `{"question": "Q1", "type": "subjective"}`)
	res := Normalize(v)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, domain.QuestionTypeSubjective, res.Questions[0].Type)
}

func TestNormalizeFieldSpellingVariants(t *testing.T) {
	v := parse(t, `[
		{"question": "Q1", "options": ["x","y"], "answer": "y"},
		{"question": "Q2", "type": "subjective", "sample_answer": "S"},
		{"question": "Q3", "type": "subjective", "modelAnswer": "M"}
	]`)
	res := Normalize(v)
	require.Len(t, res.Questions, 3)

	// answer matched by text since string options got generated ids.
	assert.Equal(t, "b", res.Questions[0].CorrectAnswer)
	assert.Equal(t, "S", res.Questions[1].SampleAnswer)
	assert.Equal(t, "M", res.Questions[2].SampleAnswer)
}

func TestNormalizeOptionEncodings(t *testing.T) {
	v := parse(t, `[
		{"question": "objects", "options": [{"id":"a","text":"A"},{"id":"b","text":"B"}], "correctAnswer": "a"},
		{"question": "strings", "options": ["first","second","third"], "correctAnswer": "second"},
		{"question": "map", "options": {"b":"Bee","a":"Ay"}, "correctAnswer": "b"}
	]`)
	res := Normalize(v)
	require.Len(t, res.Questions, 3)

	strOpts := res.Questions[1].Options
	require.Len(t, strOpts, 3)
	assert.Equal(t, domain.Option{ID: "a", Text: "first"}, strOpts[0])
	assert.Equal(t, "b", res.Questions[1].CorrectAnswer)

	mapOpts := res.Questions[2].Options
	require.Len(t, mapOpts, 2)
	assert.Equal(t, "a", mapOpts[0].ID)
	assert.Equal(t, "b", res.Questions[2].CorrectAnswer)
}

func TestNormalizeOptionlessMCQGetsPlaceholders(t *testing.T) {
	v := parse(t, `[{"question": "Pick one", "type": "mcq"}]`)
	res := Normalize(v)
	require.Len(t, res.Questions, 1)

	q := res.Questions[0]
	require.Len(t, q.Options, 4)
	assert.Equal(t, "a", q.CorrectAnswer)
	assert.NoError(t, q.Validate())
}

func TestNormalizeAnswerFallsBackToFirstOption(t *testing.T) {
	v := parse(t, `[{"question": "Q", "options": [{"id":"a","text":"A"},{"id":"b","text":"B"}], "correctAnswer": "nonsense"}]`)
	res := Normalize(v)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, "a", res.Questions[0].CorrectAnswer)
}

func TestNormalizeTypeInference(t *testing.T) {
	v := parse(t, `[
		{"question": "has options", "options": ["x","y"]},
		{"question": "has answer", "correctAnswer": "x"},
		{"question": "has sample", "sample_answer": "S"},
		{"question": "bare"}
	]`)
	res := Normalize(v)
	require.Len(t, res.Questions, 4)
	assert.Equal(t, domain.QuestionTypeMCQ, res.Questions[0].Type)
	assert.Equal(t, domain.QuestionTypeMCQ, res.Questions[1].Type)
	assert.Equal(t, domain.QuestionTypeSubjective, res.Questions[2].Type)
	assert.Equal(t, "S", res.Questions[2].SampleAnswer)

	// A bare question defaults to mcq with fabricated options, not to a
	// subjective question with the default sample answer.
	bare := res.Questions[3]
	assert.Equal(t, domain.QuestionTypeMCQ, bare.Type)
	require.Len(t, bare.Options, 4)
	assert.Equal(t, bare.Options[0].ID, bare.CorrectAnswer)
}

func TestNormalizeRepairedLoneQuestion(t *testing.T) {
	// The classic single broken object: over-escaped key quote, no type,
	// no options. It must come out as one renderable mcq.
	arr := repair.ToArray(`{"id\":"q1","question":"2+2?"}`)
	res := Normalize(arr)
	require.Len(t, res.Questions, 1)

	q := res.Questions[0]
	assert.Equal(t, "q1", q.ID)
	assert.Equal(t, "2+2?", q.Question)
	assert.Equal(t, domain.QuestionTypeMCQ, q.Type)
	require.Len(t, q.Options, 4)
	assert.Equal(t, q.Options[0].ID, q.CorrectAnswer)
	assert.NoError(t, q.Validate())
}

func TestNormalizeDropsUnrecognizable(t *testing.T) {
	v := parse(t, `[{"question": "keep"}, "just a string", 42, {"no_question_field": true}]`)
	res := Normalize(v)
	assert.Len(t, res.Questions, 1)
	assert.Equal(t, 3, res.Dropped)
}

func TestNormalizeMissingIDGenerated(t *testing.T) {
	v := parse(t, `[{"question": "Q"}]`)
	res := Normalize(v)
	require.Len(t, res.Questions, 1)
	assert.NotEmpty(t, res.Questions[0].ID)
}

func TestNormalizeTotality(t *testing.T) {
	for _, v := range []interface{}{nil, "string", 3.14, map[string]interface{}{}, []interface{}{}} {
		res := Normalize(v)
		assert.NotNil(t, res.Questions)
		assert.Empty(t, res.Questions)
	}
}

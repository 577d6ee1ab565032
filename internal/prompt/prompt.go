// Package prompt holds the instruction texts sent to the external model.
// Keeping them in one place makes the contracts between pipeline stages
// and the model reviewable without digging through the orchestrator.
package prompt

import (
	"fmt"
	"strings"
)

// PageSeparator joins per-image extraction outputs before the single
// structuring call, so multi-page notes yield one coherent tree.
func PageSeparator(page int) string {
	return fmt.Sprintf("--- PAGE %d ---", page)
}

// JoinPages concatenates per-page extraction texts with page separators.
func JoinPages(pages []string) string {
	var b strings.Builder
	for i, page := range pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(PageSeparator(i + 1))
		b.WriteString("\n")
		b.WriteString(page)
	}
	return b.String()
}

// Extraction is the image-to-text transcription instruction.
const Extraction = `You are a precise transcription assistant. Transcribe ALL text visible in this photograph of handwritten or printed study notes.

Rules:
1. Preserve the original structure: headings, bullet points, numbered lists.
2. Transcribe formulas in LaTeX notation.
3. Do not summarize, interpret, or omit anything; transcribe faithfully.
4. If a word is illegible, write [illegible] in its place.

Return only the transcribed text.`

// Structuring asks the model to reorganize extracted text into the
// canonical topic tree. The response must be a single JSON object.
const Structuring = `You are a study-notes organizer. Restructure the following extracted notes into a hierarchy of topics, subtopics, and concepts.

Respond with ONLY a JSON object in exactly this shape:
{
  "topics": [
    {
      "name": "Topic name",
      "subtopics": [
        {
          "name": "Subtopic name",
          "concepts": [
            {
              "name": "Concept name",
              "definition": "Concise definition",
              "formulae": ["LaTeX formula"],
              "examples": ["Worked example"]
            }
          ]
        }
      ]
    }
  ]
}

Rules:
1. Every concept needs a name and a definition.
2. Keep formulae in LaTeX. Use double backslashes inside JSON strings.
3. Do not invent content that is not present in the notes.
4. No markdown fences, no prose outside the JSON object.

Notes to restructure:

%s`

// QuizGeneration asks for a JSON question array over the supplied notes.
// The adaptive directives fragment is spliced in when past attempts exist;
// it is empty for a first quiz.
const QuizGeneration = `You are an expert quiz generator. Create %d quiz questions from the study notes below: %d multiple-choice and %d subjective.

Respond with ONLY a JSON array. Each element is one question object:

Multiple-choice:
{
  "id": "q1",
  "type": "mcq",
  "question": "Question text",
  "options": [{"id": "a", "text": "First option"}, {"id": "b", "text": "Second option"}, {"id": "c", "text": "Third option"}, {"id": "d", "text": "Fourth option"}],
  "correctAnswer": "a",
  "explanation": "Why the answer is correct",
  "topic": "Topic this question tests"
}

Subjective:
{
  "id": "q2",
  "type": "subjective",
  "question": "Question text",
  "sampleAnswer": "A model answer",
  "topic": "Topic this question tests"
}

Rules:
1. Questions must be answerable from the notes alone.
2. Exactly four options per multiple-choice question, ids a-d.
3. correctAnswer must be one of the option ids.
4. Keep formulas in LaTeX with double backslashes inside JSON strings.
5. No markdown fences, no prose outside the JSON array.
%s
Study notes:

%s`

// ForStructuring fills the structuring instruction with extraction text.
func ForStructuring(extractedText string) string {
	return fmt.Sprintf(Structuring, extractedText)
}

// ForQuiz fills the quiz-generation instruction. directives may be empty.
func ForQuiz(total, mcq, subjective int, directives, notes string) string {
	fragment := ""
	if directives != "" {
		fragment = "\nAdapt to the learner's history:\n" + directives
	}
	return fmt.Sprintf(QuizGeneration, total, mcq, subjective, fragment, notes)
}

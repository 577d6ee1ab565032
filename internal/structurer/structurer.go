// Package structurer turns the extraction model's free text into the
// canonical Topic -> Subtopic -> Concept tree. The structuring model has
// returned half a dozen different top-level shapes across versions; each
// is detected in a fixed priority order and transformed into the same
// three-level tree. When no JSON can be found at all the structurer
// returns nil, which is the expected degraded mode: the caller keeps the
// raw text and the notes render as plain markdown.
package structurer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"snapstudy/internal/domain"
	"snapstudy/internal/logger"

	"go.uber.org/zap"
)

// Structure parses raw extraction text and returns the canonical tree, or
// nil when no structured data could be recovered. nil is not an error.
func Structure(raw string) domain.NotesTree {
	l := logger.Get()

	obj, ok := extractJSON(raw)
	if !ok {
		l.Info("structurer: no parseable JSON found, falling back to raw text")
		return nil
	}

	// Shape detection in priority order.
	if arr, ok := obj["notes_structure"].([]interface{}); ok {
		return buildFromNotesStructure(arr)
	}
	if arr, ok := obj["topics"].([]interface{}); ok {
		return buildFromTopics(arr)
	}
	if content, ok := obj["content"].(map[string]interface{}); ok {
		if arr, ok := content["topics"].([]interface{}); ok {
			return buildFromTopics(arr)
		}
	}
	if arr, ok := obj["chapters"].([]interface{}); ok {
		return buildFromTopics(arr)
	}
	if arr, ok := obj["sections"].([]interface{}); ok {
		return buildFromTopics(arr)
	}
	if arr, ok := obj["concepts"].([]interface{}); ok {
		return buildFromLooseConcepts(arr)
	}

	l.Info("structurer: JSON found but no recognized shape",
		zap.Int("keys", len(obj)))
	return nil
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// extractJSON pulls a JSON object out of the raw text, preferring a fenced
// code block, else the first balanced-looking {...} span. A payload that
// opens with a bracket is a bare topics array and gets wrapped before the
// object-span fallback, which would otherwise grab the first topic alone.
func extractJSON(raw string) (map[string]interface{}, bool) {
	body := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		body = strings.TrimSpace(m[1])
	}

	candidates := []string{body}
	if strings.HasPrefix(body, "[") {
		if end := strings.LastIndex(body, "]"); end > 0 {
			candidates = append(candidates, `{"topics":`+body[:end+1]+`}`)
		}
	}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			candidates = append(candidates, raw[start:end+1])
		}
	}
	if start := strings.Index(raw, "["); start >= 0 {
		if end := strings.LastIndex(raw, "]"); end > start {
			candidates = append(candidates, `{"topics":`+raw[start:end+1]+`}`)
		}
	}

	for _, c := range candidates {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(c), &obj); err == nil {
			return obj, true
		}
	}
	return nil, false
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonWordRe    = regexp.MustCompile(`[^\w]`)
)

// Slugify derives a stable id from a display name: lowercased, whitespace
// to underscores, everything else non-word stripped.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = whitespaceRe.ReplaceAllString(s, "_")
	s = nonWordRe.ReplaceAllString(s, "")
	if s == "" {
		s = "unnamed"
	}
	return s
}

// idAllocator hands out slug-derived ids unique within one sibling list.
type idAllocator map[string]int

func (a idAllocator) next(name string) string {
	slug := Slugify(name)
	a[slug]++
	if a[slug] > 1 {
		return fmt.Sprintf("%s_%d", slug, a[slug])
	}
	return slug
}

// buildFromNotesStructure handles the {notes_structure: [...]} shape, with
// nested sub_items at up to three levels.
func buildFromNotesStructure(items []interface{}) domain.NotesTree {
	tree := domain.NotesTree{}
	topicIDs := idAllocator{}

	for _, item := range items {
		node, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		title := nodeName(node, domain.UnnamedTopic)
		topic := domain.Topic{
			ID:        topicIDs.next(title),
			Title:     title,
			Subtopics: []domain.Subtopic{},
		}

		subIDs := idAllocator{}
		looseIDs := idAllocator{}
		var looseConcepts []domain.Concept
		for _, sub := range childItems(node) {
			subNode, ok := sub.(map[string]interface{})
			if !ok {
				continue
			}
			// A sub_item with its own children is a subtopic; one without
			// is a concept attached directly to the topic.
			children := childItems(subNode)
			if len(children) > 0 {
				subTitle := nodeName(subNode, domain.UnnamedSubtopic)
				subtopic := domain.Subtopic{
					ID:       subIDs.next(subTitle),
					Title:    subTitle,
					Concepts: []domain.Concept{},
				}
				conceptIDs := idAllocator{}
				for _, c := range children {
					if cNode, ok := c.(map[string]interface{}); ok {
						subtopic.Concepts = append(subtopic.Concepts, buildConcept(cNode, conceptIDs))
					}
				}
				topic.Subtopics = append(topic.Subtopics, subtopic)
			} else {
				looseConcepts = append(looseConcepts, buildConcept(subNode, looseIDs))
			}
		}

		attachLooseConcepts(&topic, looseConcepts, subIDs)
		tree = append(tree, topic)
	}
	return tree
}

// buildFromTopics handles the bare topics array and its aliases (chapters,
// sections, content.topics).
func buildFromTopics(items []interface{}) domain.NotesTree {
	tree := domain.NotesTree{}
	topicIDs := idAllocator{}

	for _, item := range items {
		node, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		title := nodeName(node, domain.UnnamedTopic)
		topic := domain.Topic{
			ID:        topicIDs.next(title),
			Title:     title,
			Subtopics: []domain.Subtopic{},
		}

		subIDs := idAllocator{}
		if subs, ok := node["subtopics"].([]interface{}); ok {
			for _, sub := range subs {
				subNode, ok := sub.(map[string]interface{})
				if !ok {
					continue
				}
				subTitle := nodeName(subNode, domain.UnnamedSubtopic)
				subtopic := domain.Subtopic{
					ID:       subIDs.next(subTitle),
					Title:    subTitle,
					Concepts: []domain.Concept{},
				}
				conceptIDs := idAllocator{}
				if concepts, ok := subNode["concepts"].([]interface{}); ok {
					for _, c := range concepts {
						if cNode, ok := c.(map[string]interface{}); ok {
							subtopic.Concepts = append(subtopic.Concepts, buildConcept(cNode, conceptIDs))
						}
					}
				}
				topic.Subtopics = append(topic.Subtopics, subtopic)
			}
		}

		// Concepts attached directly to the topic violate the renderer's
		// traversal contract; wrap them in a synthetic subtopic.
		var loose []domain.Concept
		conceptIDs := idAllocator{}
		if concepts, ok := node["concepts"].([]interface{}); ok {
			for _, c := range concepts {
				if cNode, ok := c.(map[string]interface{}); ok {
					loose = append(loose, buildConcept(cNode, conceptIDs))
				}
			}
		}
		attachLooseConcepts(&topic, loose, subIDs)
		tree = append(tree, topic)
	}
	return tree
}

// buildFromLooseConcepts wraps a flat top-level concepts array into one
// synthetic topic and subtopic.
func buildFromLooseConcepts(items []interface{}) domain.NotesTree {
	conceptIDs := idAllocator{}
	concepts := []domain.Concept{}
	for _, item := range items {
		if node, ok := item.(map[string]interface{}); ok {
			concepts = append(concepts, buildConcept(node, conceptIDs))
		}
	}
	if len(concepts) == 0 {
		return nil
	}
	return domain.NotesTree{
		{
			ID:    "notes",
			Title: "Notes",
			Subtopics: []domain.Subtopic{
				{ID: "notes_concepts", Title: "Notes Concepts", Concepts: concepts},
			},
		},
	}
}

func attachLooseConcepts(topic *domain.Topic, loose []domain.Concept, subIDs idAllocator) {
	if len(loose) == 0 {
		return
	}
	title := topic.Title + " Concepts"
	topic.Subtopics = append(topic.Subtopics, domain.Subtopic{
		ID:       subIDs.next(title),
		Title:    title,
		Concepts: loose,
	})
}

func buildConcept(node map[string]interface{}, ids idAllocator) domain.Concept {
	name := nodeName(node, domain.UnnamedConcept)
	return domain.Concept{
		ID:         ids.next(name),
		Name:       name,
		Definition: stringValue(node, "definition", "description", "text", "content"),
		Formulae:   stringSlice(node, "formulae", "formulas"),
		Examples:   stringSlice(node, "examples"),
	}
}

func nodeName(node map[string]interface{}, fallback string) string {
	name := stringValue(node, "name", "title", "topic", "heading")
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

func stringValue(node map[string]interface{}, names ...string) string {
	for _, n := range names {
		if s, ok := node[n].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func stringSlice(node map[string]interface{}, names ...string) []string {
	for _, n := range names {
		if arr, ok := node[n].([]interface{}); ok {
			out := make([]string, 0, len(arr))
			for _, v := range arr {
				if s, ok := v.(string); ok {
					out = append(out, s)
				}
			}
			return out
		}
	}
	return []string{}
}

// childItems returns a node's nested sub_items under any of its historical
// spellings.
func childItems(node map[string]interface{}) []interface{} {
	for _, key := range []string{"sub_items", "subItems", "children", "items"} {
		if arr, ok := node[key].([]interface{}); ok {
			return arr
		}
	}
	return nil
}

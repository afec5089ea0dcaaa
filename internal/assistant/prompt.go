package assistant

import (
	"fmt"
	"strings"

	"waypoint/internal/assistant/archetype"
)

// personaPreamble is the fixed style material every generated answer starts from.
const personaPreamble = `You are Waypoint, the Meridian Motorcycles assistant.
Answer from the provided references only. Be concrete and friendly, keep
answers short, and never invent model names, specifications, or availability.
If the references do not cover the question, say so plainly.`

// toneGuidance biases response tone per effective archetype. Empty key means
// the decision was mixed and no bias is applied.
var toneGuidance = map[string]string{
	"commuter":   "The rider commutes daily: emphasize practicality, fuel range, comfort in traffic, and low upkeep.",
	"tourer":     "The rider does long distances: emphasize wind protection, luggage, two-up comfort, and touring range.",
	"adventurer": "The rider goes off pavement: emphasize suspension travel, durability, and mixed-terrain capability.",
	"racer":      "The rider chases performance: emphasize power delivery, handling, braking, and track pedigree.",
	"collector":  "The rider values heritage: emphasize lineage, design details, and limited editions.",
}

// BuildInstructions assembles the generation instruction set: persona/style
// preamble, retrieved references, archetype tone guidance, and any response
// template hints carried by the chunks.
func BuildInstructions(chunks []RetrievedChunk, effectiveArchetype, mode string) string {
	var b strings.Builder
	b.WriteString(personaPreamble)

	if tone, ok := toneGuidance[effectiveArchetype]; ok {
		b.WriteString("\n\nTone: ")
		b.WriteString(tone)
	}
	if mode != "" {
		b.WriteString(fmt.Sprintf("\nThe visitor is in %q mode.", mode))
	}

	if len(chunks) > 0 {
		b.WriteString("\n\nReferences:")
		for i, c := range chunks {
			title := c.Title
			if title == "" {
				title = c.ID
			}
			b.WriteString(fmt.Sprintf("\n[%d] %s\n%s", i+1, title, strings.TrimSpace(c.Content)))
		}
	}

	if templates := CollectTemplates(chunks); len(templates) > 0 {
		b.WriteString("\n\nWhen it fits, shape the answer like one of: ")
		b.WriteString(strings.Join(templates, "; "))
	}
	return b.String()
}

// CollectTemplates returns the deduplicated template hints across chunks,
// preserving first-seen order.
func CollectTemplates(chunks []RetrievedChunk) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range chunks {
		for _, t := range c.Templates {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// CollectTopics returns the deduplicated chunk topics in first-seen order.
func CollectTopics(chunks []RetrievedChunk) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range chunks {
		t := strings.TrimSpace(c.Topic)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// CitationsFor projects chunks into the client-facing citation list.
func CitationsFor(chunks []RetrievedChunk) []Citation {
	out := make([]Citation, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, Citation{ID: c.ID, Title: c.Title, Score: c.Score})
	}
	return out
}

// InvalidOverrideAnswer lists the canonical archetypes when a developer
// override names an unknown one.
func InvalidOverrideAnswer(requested string) string {
	return fmt.Sprintf("%q isn't an archetype I know. The available archetypes are: %s.",
		requested, strings.Join(archetype.Keys, ", "))
}

// OverrideAck acknowledges a pinned archetype.
func OverrideAck(name string) string {
	return fmt.Sprintf("Got it — I'll treat you as a %s from here on.", name)
}

// Package prompt builds the system/user message pair sent to the generation service.
package prompt

import (
	"strings"

	"github.com/yungbote/traitdial/internal/traits"
)

// NoGrounding marks an empty reference excerpt in the user prompt.
const NoGrounding = "(none)"

type Prompt struct {
	System string
	User   string
}

// Build is pure: identical inputs give identical prompts.
func Build(scenario, grounding string, keys []traits.Key) Prompt {
	return Prompt{
		System: systemPrompt(keys),
		User:   userPrompt(scenario, grounding),
	}
}

func systemPrompt(keys []traits.Key) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = string(k)
	}
	list := strings.Join(names, ", ")

	var b strings.Builder
	b.WriteString("You calibrate behavioral trait dials for a described scenario.\n")
	b.WriteString("Return ONLY a JSON object with exactly three top-level fields:\n")
	b.WriteString("- \"levels\": an object mapping EVERY trait key to an integer from 0 to 10.\n")
	b.WriteString("- \"rationales\": an object mapping trait keys to one short sentence justifying the level. ")
	b.WriteString("Reference the scenario and, when a reference excerpt is provided, quote short fragments of it.\n")
	b.WriteString("- \"summary\": two or three sentences giving an overview of the recommended profile.\n")
	b.WriteString("Trait keys (use exactly these, no others): ")
	b.WriteString(list)
	b.WriteString(".\n")
	b.WriteString("Do not include markdown, code fences or commentary.")
	return b.String()
}

func userPrompt(scenario, grounding string) string {
	if strings.TrimSpace(grounding) == "" {
		grounding = NoGrounding
	}
	var b strings.Builder
	b.WriteString("SCENARIO:\n")
	b.WriteString(scenario)
	b.WriteString("\n\nREFERENCE EXCERPT:\n")
	b.WriteString(grounding)
	return b.String()
}

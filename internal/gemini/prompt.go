package gemini

import (
	"fmt"
	"strings"

	"mlimi/internal/search"
)

const promptTemplate = `You are an expert agricultural advisor specializing in farming practices in Lilongwe, Malawi. Your task is to provide practical, actionable advice to farmers based on their questions, considering the local climate, soil conditions, and common farming practices in the area.

First, carefully read and analyze the following context information:

<context>
{{CONTEXT}}
</context>

Use this context as the primary source for your advice. Pay close attention to specific details about Lilongwe's climate, soil conditions, and local farming practices mentioned in the context.

When formulating your response:
1. Use simple, easy-to-understand language suitable for local farmers.
2. Include specific timing for agricultural activities when relevant.
3. Describe techniques in a step-by-step manner when appropriate.
4. Consider and mention local considerations that may affect farming practices.
5. Format your response using bullet points for clarity.
6. Use relevant emojis at the beginning of each bullet point to make the advice more engaging and easier to remember.

If the context does not provide sufficient information to answer the question confidently, state that the information is limited and provide a general response based on common agricultural practices, clearly indicating that it's not specific to Lilongwe.

Here is the farmer's question:

<question>
{{QUESTION}}
</question>

Please provide your expert advice in response to this question, following the guidelines above. Begin your response with "Here's my advice for farming in Lilongwe, Malawi:" and enclose your entire answer within <answer> tags.`

const answerPrefix = "here's my advice for farming in lilongwe, malawi:"

// PreprocessQuery collapses whitespace and pins the query to the region
// when the farmer didn't mention it.
func PreprocessQuery(query string) string {
	query = strings.Join(strings.Fields(query), " ")
	lower := strings.ToLower(query)
	if !strings.Contains(lower, "malawi") && !strings.Contains(lower, "lilongwe") {
		query = query + " (for Lilongwe, Malawi context)"
	}
	return query
}

// BuildPrompt fills the advisor template with the search snippets as
// context and the farmer's question.
func BuildPrompt(query string, snippets []search.Result) string {
	context := formatContext(snippets)
	prompt := strings.Replace(promptTemplate, "{{CONTEXT}}", context, 1)
	return strings.Replace(prompt, "{{QUESTION}}", PreprocessQuery(query), 1)
}

func formatContext(snippets []search.Result) string {
	if len(snippets) == 0 {
		return "No context information was available."
	}

	parts := make([]string, 0, len(snippets))
	for _, s := range snippets {
		text := fmt.Sprintf("**%s**\n%s", s.Title, s.Snippet)
		if s.Source != "" {
			text += "\nSource: " + s.Source
		}
		parts = append(parts, text)
	}
	return "Online Search Context:\n" + strings.Join(parts, "\n---\n")
}

// ParseAnswer extracts the content between <answer> tags, stripping the
// boilerplate opener the template asks for. Falls back to the raw text
// when the model skipped the tags.
func ParseAnswer(raw string) string {
	start := strings.Index(raw, "<answer>")
	end := strings.Index(raw, "</answer>")
	if start < 0 || end < 0 || end < start {
		return strings.TrimSpace(raw)
	}

	answer := strings.TrimSpace(raw[start+len("<answer>") : end])
	if strings.HasPrefix(strings.ToLower(answer), answerPrefix) {
		answer = strings.TrimSpace(answer[len(answerPrefix):])
	}
	return answer
}

package intent

import (
	"fmt"
	"strings"
	"time"
)

// BuildSystemPrompt renders the extraction instruction block. It enumerates
// the vocabulary with per-action parameter schemas, states the current date
// so relative dates can be resolved to absolute YYYY-MM-DD values, and pins
// the output to a single JSON object with exactly the keys "action" and
// "params".
func BuildSystemPrompt(now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are the intent classifier for a project-management assistant.\n")
	fmt.Fprintf(&b, "Today's date is %s.\n\n", now.Format("2006-01-02"))

	b.WriteString("Classify the user's message into exactly one of these actions:\n\n")
	for _, action := range Actions() {
		specs := Vocabulary[action]
		if len(specs) == 0 {
			fmt.Fprintf(&b, "- %s (no parameters)\n", action)
			continue
		}
		keys := make([]string, 0, len(specs))
		for _, spec := range specs {
			if spec.Required {
				keys = append(keys, spec.Key+" (required)")
			} else {
				keys = append(keys, spec.Key+" (optional)")
			}
		}
		fmt.Fprintf(&b, "- %s: %s\n", action, strings.Join(keys, ", "))
	}

	b.WriteString(`
Rules:
1. Respond with ONLY a single JSON object, no prose, no code fences.
2. The object must have exactly two top-level keys: "action" and "params".
3. "params" must always be present, even if empty: {}.
4. Every parameter not explicitly present in the message must be null. Never
   invent or guess values.
5. Resolve all relative date expressions ("tomorrow", "next Friday") to an
   absolute YYYY-MM-DD date using today's date.
6. If the message matches no action, use "general_chat" with empty params.

Examples:

Message: Create a task 'Fix Bug' in project 'Test' for @Apoorav due tomorrow
{"action": "create_task", "params": {"name": "Fix Bug", "description": null, "project_name": "Test", "assignee": "@Apoorav", "deadline": "` + now.AddDate(0, 0, 1).Format("2006-01-02") + `"}}

Message: show me my tasks
{"action": "list_tasks", "params": {}}

Message: what's the plan for Mobile App Refactor?
{"action": "ask_project", "params": {"project_name": "Mobile App Refactor", "question": "what's the plan for Mobile App Refactor?"}}

Message: mark 'Fix Bug' as done
{"action": "completed_task", "params": {"task_name": "Fix Bug"}}
`)

	return b.String()
}

// BuildUserPrompt renders the user-facing portion of the request. A reply
// back-reference, when present, is appended as auxiliary context so the
// model can resolve utterances like "assign this to @x".
func BuildUserPrompt(input, replyRef string) string {
	if replyRef == "" {
		return input
	}
	return fmt.Sprintf("%s\n\n(The user is replying to: %s)", input, replyRef)
}

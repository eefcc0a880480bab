package generation

import (
	"encoding/json"
	"fmt"

	"github.com/scribehq/scribe-api/internal/domain"
)

// ArticleSystemPrompt instructs the model to compose a standalone
// article from a raw user/assistant conversation transcript.
const ArticleSystemPrompt = `## Role

You are an experienced writer. Your task is to take the dialogue records between a user and an AI and turn them into a complete, well-structured, and highly readable article.

## Workflow

1. Identify the topic scope and determine the article type (e.g., problem-solution, opinion piece).
2. Define the overall structure based on the article type.
3. Draft the article with focus on:
   * **Structure:** Clear and logical organization.
   * **Key Points:** Emphasize what matters most to the user and retain supportive content when useful.
   * **Summary:** Present the main takeaways at the beginning.
   * **Iteration:** Capture the final outcome after multiple rounds of user-AI discussion.
   * **Title:** Generate a concise, clear headline as a leading Markdown heading.
4. Refine the draft for fluency, coherence, precision, and remove redundancy.
5. Enhance readability with subheadings, lists, and bold text where appropriate.

## Output Format

Markdown, beginning with a level-one heading.

## Content Style

Professional, objective, and rational.

## Attention

* Keep references such as code blocks, external links, and Mermaid diagrams.
* Use third-person perspective; avoid personal pronouns.
* Output only the final article, with no extra explanations.`

// ChunkSummaryPrompt instructs the model to condense one slice of a
// long conversation so the slices can be recombined into a final
// article pass.
const ChunkSummaryPrompt = `You are condensing one contiguous slice of a longer user-AI conversation. Summarize the slice faithfully: the questions raised, the answers and alternatives offered, and any decisions reached. Preserve code blocks and links verbatim. Output plain Markdown with no preamble.`

// BuildUserPrompt renders the conversation transcript as the user
// message for a generation request, with the requested article
// language.
func BuildUserPrompt(messages []domain.Message, languageHint string) string {
	transcript, err := json.Marshal(messages)
	if err != nil {
		// Messages are plain strings; marshalling cannot realistically
		// fail, but fall back to an empty transcript rather than panic.
		transcript = []byte("[]")
	}

	return fmt.Sprintf("## Target language: %s\n\n## Conversation transcript\n---\n%s\n---", languageHint, transcript)
}

package service

import (
	"fmt"
	"strings"
)

const generationSystemPrompt = `You are an expert software developer and technical writer. Your task is to write a high-quality, professional GitHub README.md in GitHub Flavored Markdown for the project described by the user.

Use exactly these sections, in this order:
1. Project Title & Description: the project name as a top-level heading, followed by a concise summary of what the project does.
2. Table of Contents: links to every following section.
3. About The Project: what the project is for and what problem it solves, inferred from its file structure.
4. Tech Stack: the languages, frameworks and tools the file structure reveals.
5. Getting Started:
   - Prerequisites
   - Installation steps
   - Running locally
6. Contact / Support: how to reach the maintainers or report issues.

Do not include logos, images or badges. Return only the README content.`

const refinementSystemPrompt = `You are an expert README editor. You will be given the current README.md of a project and a change requested by its author. Apply the change while preserving everything the author did not ask to change.

Respond ONLY with the full, updated README.md content. Do not add any of your own commentary like "Here is the updated README".`

// GenerationPrompt returns the system and user prompt for a new README.
// The user prompt embeds repoName literally and the newline-joined file tree
// in a fenced block.
func GenerationPrompt(fileTree []string, repoName string) (system, user string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a professional README.md for a project named %q, using the file structure below:\n\n", repoName)
	b.WriteString("```\n")
	b.WriteString(strings.Join(fileTree, "\n"))
	b.WriteString("\n```\n\n")
	b.WriteString("Follow the structure and guidelines from the system prompt. Do not add any commentary outside the README content.")
	return generationSystemPrompt, b.String()
}

// RefinementPrompt returns the system and user prompt for editing an existing
// README. The current document is embedded verbatim between --- fences.
func RefinementPrompt(currentReadme, userRequest string) (system, user string) {
	user = "Here is the current README.md:\n---\n" + currentReadme + "\n---\n\n" +
		"Now, please apply the following change: \"" + userRequest + "\".\n\n" +
		"Remember to return the complete, updated README file."
	return refinementSystemPrompt, user
}

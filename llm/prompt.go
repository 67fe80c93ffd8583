package llm

import (
	"fmt"
	"strings"
)

const solutionSchema = `{"approach": "...", "code": "...", "timeComplexity": "...", "spaceComplexity": "..."}`

// buildSolvePrompt returns the system and user prompts for a screenshot job.
func buildSolvePrompt(language, interviewType string, images int) (system, user string) {
	if language == "" {
		language = "python"
	}
	if interviewType == "" {
		interviewType = "coding"
	}

	system = fmt.Sprintf(`You are an expert software engineer helping with a %s interview.
Read the problem from the screenshots and solve it in %s.
Respond with a single JSON object and nothing else:
%s
- approach: a short explanation of the idea
- code: complete, runnable %s code
- timeComplexity and spaceComplexity: Big-O with a one-line reason`,
		interviewType, language, solutionSchema, language)

	var b strings.Builder
	if images == 1 {
		b.WriteString("The problem is shown in the attached screenshot.")
	} else {
		fmt.Fprintf(&b, "The problem spans %d screenshots, in order.", images)
	}
	b.WriteString(" Return only the JSON object.")
	return system, b.String()
}

// buildAudioPrompt returns the instruction sent with a recorded question.
func buildAudioPrompt(language string) string {
	if language == "" {
		language = "python"
	}
	return fmt.Sprintf(`The audio is an interviewer asking a question.
Answer it directly and concisely as the candidate would.
If the question needs code, write it in %s inside a fenced block.`, language)
}

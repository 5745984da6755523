package qa

import (
	"encoding/json"
	"fmt"
	"strings"
)

const promptTemplate = `You are an Annual Report Assistant analyzing financial documents.
Use the following context to answer the question.

Context:
%s

Question: %s

Answer the question based only on the provided context. If the context doesn't contain 
the information needed to answer the question, just say "I don't have enough information 
in this report to answer that question." Be specific and include relevant financial data 
when available.

If the context contains tables, analyze them carefully to extract relevant data. Pay special 
attention to column headers and row labels when interpreting table data. Tables are often 
indicated by structured text with tabs or consistent spacing.

End your answer with a confidence score from 1-5 where:
1: Very uncertain, mostly guessing
2: Low confidence, limited evidence
3: Moderate confidence, some supporting data
4: High confidence, well supported by data
5: Very high confidence, directly stated in report

Format your confidence score like this: [Confidence: X/5]

Also include the sources of your information like this: [Sources: section names]
`

const (
	sourcesTag        = "[Sources:"
	confidenceTag     = "[Confidence:"
	defaultConfidence = "\n\n[Confidence: 3/5]"
)

// Turn is one earlier question and its answer
type Turn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ParseHistory decodes turns given as a JSON array of question/answer objects
func ParseHistory(raw string) ([]Turn, error) {
	var history []Turn
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, fmt.Errorf("invalid history: %w", err)
	}
	return history, nil
}

// BuildPrompt fills the report assistant template
func BuildPrompt(context, question string) string {
	return fmt.Sprintf(promptTemplate, context, question)
}

// EnhanceQuery prefixes the question with the most recent turns of the
// conversation, at most maxTurns of them
func EnhanceQuery(question string, history []Turn, maxTurns int) string {
	if len(history) == 0 || maxTurns <= 0 {
		return question
	}
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}

	turns := make([]string, len(history))
	for i, t := range history {
		turns[i] = fmt.Sprintf("Human: %s\nAssistant: %s", t.Question, t.Answer)
	}

	return fmt.Sprintf("Given this conversation history:\n%s\n\nCurrent question: %s", strings.Join(turns, "\n"), question)
}

// AppendTags adds the source list and a moderate confidence score when the
// model left them out
func AppendTags(answer string, sources []string) string {
	if len(sources) > 0 && !strings.Contains(answer, sourcesTag) {
		answer += fmt.Sprintf("\n\n[Sources: %s]", strings.Join(sources, ", "))
	}
	if !strings.Contains(answer, confidenceTag) {
		answer += defaultConfidence
	}
	return answer
}

// Apology is the answer returned when a question could not be processed
func Apology(err error) string {
	return fmt.Sprintf("I encountered an error processing your question: %v. Please try uploading a smaller "+
		"document or asking a more specific question about a particular section of the report.", err)
}

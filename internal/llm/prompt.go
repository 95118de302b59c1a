package llm

import (
	"fmt"
	"strings"
)

const (
	analysisSystemPrompt = "You are a helpful assistant that outputs JSON only."
	chatSystemPrompt     = "You are a helpful assistant."

	analysisTemperature = 0.3
	analysisMaxTokens   = 2000
	chatMaxTokens       = 300
)

const analysisSchema = `{
    "summary": "The executive summary...",
    "action_items": ["Action 1", "Action 2"],
    "deadlines": ["Deadline 1", "Deadline 2"],
    "subject": "The email subject...",
    "priority": "High/Medium/Low",
    "sentiment": "Positive/Neutral/Negative/Urgent/Angry",
    "suggested_replies": {
        "option_1": { "label": "Direct Reply", "text": "Draft of reply 1..." },
        "option_2": { "label": "Alternative Strategy", "text": "Draft of reply 2..." }
    },
    "intent": "Request/Inquiry/Complaint/Update",
    "urgency_score": 8,
    "confidence_score": 95,
    "spam_analysis": {
        "is_spam": false,
        "reason": "Legitimate business correspondence."
    },
    "decision_helper": {
        "pros": ["Benefit 1", "Benefit 2"],
        "cons": ["Drawback 1", "Drawback 2"],
        "risks": ["Risk 1", "Risk 2"]
    }
}`

func buildAnalysisPrompt(content string, opts Options) string {
	var b strings.Builder
	b.WriteString("You are an elite executive assistant and strategic data analyst. Analyze the following email thread and any attachments.\n\n")
	b.WriteString("Configuration:\n")
	fmt.Fprintf(&b, "- Summary Style: %s (detailed=bullet points, quick=1-2 sentences, brief=executive brief)\n", opts.SummaryStyle)
	fmt.Fprintf(&b, "- Output Language: %s\n", opts.OutputLanguage)
	fmt.Fprintf(&b, "- Reply Tone: %s\n\n", opts.ReplyTone)
	b.WriteString("Output Requirements:\n")
	b.WriteString("Return a strictly valid JSON object that matches the structure below exactly. Do not include markdown formatting (like ```json).\n\n")
	b.WriteString("JSON Structure:\n")
	b.WriteString(analysisSchema)
	b.WriteString("\n\nAnalysis Guidelines:\n")
	b.WriteString("1. Summary: Adapt length based on 'Summary Style'.\n")
	b.WriteString("2. Replies: Generate TWO distinct reply options based on 'Reply Tone'.\n")
	b.WriteString("3. Urgency: rate 1-10 based on deadlines and tone.\n")
	fmt.Fprintf(&b, "4. Output Language: Ensure ALL text values in the JSON are translated to %s, except for specific proper nouns.\n\n", opts.OutputLanguage)
	b.WriteString("Email Content:\n")
	b.WriteString(content)
	return b.String()
}

func buildChatPrompt(content, query string) string {
	var b strings.Builder
	b.WriteString("Context: The user is asking a question about the following email.\n")
	b.WriteString("Email Content:\n")
	b.WriteString(content)
	b.WriteString("\n\nUser Question: ")
	b.WriteString(query)
	b.WriteString("\n\nAnswer strictly based on the email provided. Be concise and helpful.")
	return b.String()
}

package prompt

import "strings"

const transcriptPlaceholder = "{transcript}"

const huddleTemplate = `
You are an AI assistant for a fine dining restaurant. Analyze the following transcribed morning huddle meeting and extract key information and action items.

Transcription:
{transcript}

Your task is to:
1. Create a concise summary of the morning huddle discussion (max 3 paragraphs)
2. Extract specific items that need attention today (VIP guests, special dietary needs, special occasions)
3. List specific action items for the staff

Format your response as a JSON object with the following structure:
{"summary": "Summary of the meeting",
"action_items": ["List of action items that need attention (VIP guests, special dietary needs, special occasions)"],}

Respond ONLY with the JSON. Do not include any explanatory text.
`

func BuildHuddle(transcript string) string {
	return strings.Replace(huddleTemplate, transcriptPlaceholder, transcript, 1)
}

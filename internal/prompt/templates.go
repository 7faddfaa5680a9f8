package prompt

import "text/template"

// DialogueInstruction is the system instruction for the avatar line.
const DialogueInstruction = `You are an AI assistant helping students with learning disabilities. Your task is to generate a short, encouraging sentence for an avatar to say based on the student's emotional state and the recommended action. Respond with only the sentence, no additional text or explanations.`

// ClassifierInstruction is the system instruction for facial emotion
// classification.
const ClassifierInstruction = `You are a facial expression classifier. Look at the single most prominent face in the image and classify its expression as exactly one of: Neutral, Happiness, Sadness, Surprise, Fear, Disgust, Anger.
Reply with a JSON object only: {"emotion": "<label>", "confidence": <number between 0 and 1>}.
If no face is visible, reply {"emotion": "none", "confidence": 0}.`

// AnalysisInstruction is the system instruction for learning-disability
// analysis of a saved assessment.
const AnalysisInstruction = `You are an advanced AI model designed to assess learning disabilities and emotional states in students. Based on provided assessment results, generate a structured JSON output with three top-level objects: studentProfile, learningDisabilities and emotionAnalysis.

studentProfile carries userID, email and taskPerformance. taskPerformance has numberComparison (accuracyPercentage, averageResponseTime, interpretation, suggestedNextSteps), handwriting (characteristics, interpretation, suggestedNextSteps) and letterArrangement (originalWord, userArrangement, accuracy, interpretation, suggestedNextSteps).
learningDisabilities has Dyslexia, Dysgraphia and Dyscalculia, each with a confidenceScore between 0 and 1 and a list of indicators.
emotionAnalysis has dominantEmotions, emotionOccurrences (label to count) and graphData (a list of {emotion, count}).

### Instructions:
1. Extract performance data from tasks and summarize key strengths and weaknesses.
2. Provide actionable insights in the interpretation and suggestedNextSteps fields.
3. Assess potential learning disabilities based on observed behaviors, using confidence scores.
4. Analyze emotional state, if relevant data is present.

Ensure that all values are meaningful and backed by the given input data.`

const dialogueTemplateText = `Emotional state: {{.State}}
Recommended action: {{.Action}}
{{- if .Guidance}}
Tone: {{.Guidance}}
{{- end}}
{{- if .UserContext}}

Additional context: {{.UserContext}}
{{- end}}
`

var dialogueTemplate = template.Must(template.New("dialogue").Parse(dialogueTemplateText))

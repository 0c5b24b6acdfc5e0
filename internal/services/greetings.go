package services

import "fmt"

const newCallerGreeting = `Hey there, I'm Momsen, your health companion.
I can help you track your symptoms, and answer medical questions you may have.
To start, may I have your name?`

func vitalsGreeting(name string) string {
	return fmt.Sprintf("Hey %s, My name is Juni, I'm here to help you track your symptoms and infection after your knee surgery. "+
		"To start, can you tell me how much pain you're in on a scale of 1 to 10, and your current body temperature?", name)
}

func plainGreeting(name string) string {
	return "Hey " + name
}

// Escalation is what the agent is told when a symptom keyword persists
// across two consecutive reports.
type Escalation struct {
	Keyword      string
	Prompt       string
	FirstMessage string
}

// DefaultEscalations maps persistent symptom keywords to agent overrides.
var DefaultEscalations = []Escalation{
	{
		Keyword:      "cough",
		Prompt:       "The patient has a bad cough. Recommend seeing a doctor.",
		FirstMessage: "Since your cough has been lingering, what do you think about setting up a doctors appointment. Shall we go ahead and set that up?",
	},
}

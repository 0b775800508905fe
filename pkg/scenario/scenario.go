// Package scenario holds the canned test prompts shared by the test and
// compare commands.
package scenario

// Case is one predefined input/context pair.
type Case struct {
	Input   string
	Context string
}

// Suite is the full comparison suite. The test command runs the first three;
// compare runs all of them.
var Suite = []Case{
	{
		Input:   "I'm feeling anxious about my first ketamine therapy session. What should I expect?",
		Context: "Pre-session preparation",
	},
	{
		Input:   "What is ketamine therapy used for?",
		Context: "General information",
	},
	{
		Input:   "How many sessions will I need?",
		Context: "Treatment planning",
	},
	{
		Input:   "Are there any side effects I should be aware of?",
		Context: "Safety and side effects",
	},
}

// TestCases returns the subset run by the test command.
func TestCases() []Case {
	return Suite[:3]
}

package survey

import "fmt"

// Instructions is the text shown between the nickname prompt and the first
// trial.
func Instructions(total int) []string {
	return []string{
		fmt.Sprintf("You'll see %d images of verification codes (2 from each group).", total),
		`For each image, press "I Recognized It" once you recognize the code.`,
		"After that, a text box will appear. Type what you saw.",
		"There are no confusing characters like 0 (zero) or O (letter O).",
		"All answers are 4 characters long. Be as accurate as you can.",
	}
}

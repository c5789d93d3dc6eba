package transcription

// DefaultInitialPrompt primes the first segment of every asset.
const DefaultInitialPrompt = "Hello, welcome to my lecture."

// Prompter is the fold state that carries context between consecutive
// segments of one asset. Segment 0 gets the initial prompt; every later
// segment gets the full plain text of the segment before it, or an empty
// prompt when that segment failed.
type Prompter struct {
	prompt string
}

// NewPrompter starts a fold with the given initial prompt.
func NewPrompter(initial string) Prompter {
	return Prompter{prompt: initial}
}

// Prompt returns the prompt for the next segment.
func (p Prompter) Prompt() string {
	return p.prompt
}

// Advance returns the state for the following segment after observing the
// current one's transcript text. No truncation or trimming is applied.
func (p Prompter) Advance(text string, failed bool) Prompter {
	if failed {
		return Prompter{}
	}
	return Prompter{prompt: text}
}

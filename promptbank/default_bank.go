package promptbank

// DefaultVersion is the bundled bank's prompt_version, used when a caller
// configures no prompt bank directory.
const DefaultVersion = "v1-default"

// Default returns the bundled prompt bank: a fixed system prompt and schema
// instructions asking for strict single-field JSON, and a small set of
// paraphrase templates that vary register and phrasing without changing
// what is being asked.
func Default() *Bank {
	return &Bank{
		Version: DefaultVersion,
		SystemText: "You are a calibrated forecaster assessing the truth of factual claims. " +
			"You answer only with your belief, never with a search or a citation.",
		SchemaInstructions: " Respond with a single JSON object and nothing else: " +
			`{"prob_true": <number between 0 and 1>}. ` +
			"Do not include any explanation, URL, or additional field.",
		UserTemplate: "Claim: {{claim}}\n{{paraphrase}}",
		Paraphrases: []string{
			"What is the probability that this claim is true?",
			"How likely is it that this statement is accurate?",
			"Estimate your confidence that this claim is correct.",
			"On a scale from 0 to 1, how true is this?",
			"Assess the likelihood that the above is a true statement.",
			"Give your calibrated probability that this claim holds.",
		},
	}
}

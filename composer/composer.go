// Package composer builds the exact text sent to a provider and computes the
// prompt_sha256 fingerprint over it. The fingerprint is the prompt template's
// identity: two compositions with the same fingerprint are, by construction,
// byte-identical.
package composer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/AltairaLabs/beliefbench/errs"
	"github.com/AltairaLabs/beliefbench/promptbank"
	"github.com/AltairaLabs/beliefbench/template"
)

// Composed is the result of composing one template occurrence for one claim.
type Composed struct {
	// Instructions is system_text + schema_instructions, in that fixed order.
	Instructions string

	// UserText is the rendered user_template with the paraphrase substituted.
	UserText string

	// PromptSHA256 is the hex-encoded SHA-256 over Instructions + UserText,
	// concatenated in that fixed canonical order.
	PromptSHA256 string
}

// Composer renders prompt text from a bank and enforces the configured
// character cap.
type Composer struct {
	renderer      *template.Renderer
	maxPromptChars int
}

// New creates a Composer that rejects compositions longer than maxPromptChars.
// A maxPromptChars of 0 disables the cap.
func New(maxPromptChars int) *Composer {
	return &Composer{
		renderer:       template.NewRenderer(),
		maxPromptChars: maxPromptChars,
	}
}

// Compose renders the instructions and user text for one (claim, paraphrase)
// occurrence and computes its fingerprint.
func (c *Composer) Compose(bank *promptbank.Bank, claim string, paraphraseIdx int) (Composed, error) {
	if paraphraseIdx < 0 || paraphraseIdx >= len(bank.Paraphrases) {
		return Composed{}, fmt.Errorf("composer: paraphrase index %d out of range [0,%d)", paraphraseIdx, len(bank.Paraphrases))
	}

	vars := map[string]string{
		"claim": claim,
	}
	if err := c.renderer.ValidateRequiredVars([]string{"claim"}, vars); err != nil {
		return Composed{}, fmt.Errorf("composer: %w", err)
	}

	paraphrase, err := c.renderer.Render(bank.Paraphrases[paraphraseIdx], vars)
	if err != nil {
		return Composed{}, fmt.Errorf("composer: rendering paraphrase: %w", err)
	}

	userVars := c.renderer.MergeVars(vars, map[string]string{"paraphrase": paraphrase})
	if err := c.renderer.ValidateRequiredVars([]string{"claim", "paraphrase"}, userVars); err != nil {
		return Composed{}, fmt.Errorf("composer: %w", err)
	}

	userText, err := c.renderer.Render(bank.UserTemplate, userVars)
	if err != nil {
		return Composed{}, fmt.Errorf("composer: rendering user template: %w", err)
	}

	instructions := bank.SystemText + bank.SchemaInstructions

	if c.maxPromptChars > 0 {
		total := len(instructions) + len(userText)
		if total > c.maxPromptChars {
			return Composed{}, fmt.Errorf("%w: composed prompt is %d chars, max is %d",
				errs.ErrPromptTooLong, total, c.maxPromptChars)
		}
	}

	sum := sha256.Sum256([]byte(instructions + userText))

	return Composed{
		Instructions: instructions,
		UserText:     userText,
		PromptSHA256: hex.EncodeToString(sum[:]),
	}, nil
}

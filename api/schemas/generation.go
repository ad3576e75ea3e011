package schemas

import (
	"fmt"
	"strings"
)

// DefaultModel is the generator model requested when the caller does not
// override it. It matches the driver name the upstream library routes image
// generation through.
const DefaultModel = "gpt-image-1"

// GenerationRequest describes a single end-to-end image generation: one
// prompt, one destination file, one browser session. It is built once per
// invocation and never mutated afterwards.
type GenerationRequest struct {
	// Prompt is the text description forwarded to the in-page generator.
	Prompt string `json:"prompt"`
	// OutputPath is the destination file for the decoded image bytes.
	OutputPath string `json:"output_path"`
	// Model selects the upstream generator model.
	Model string `json:"model"`
	// Visible runs the browser with a window, captures the page console and
	// switches the poller to its verbose discipline.
	Visible bool `json:"visible"`
}

// Validate checks the request invariants before any browser work starts.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("prompt must not be empty")
	}
	if r.OutputPath == "" {
		return fmt.Errorf("output path must not be empty")
	}
	if r.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	return nil
}

// PollSnapshot is the host-side projection of the page's generation state,
// read through an evaluation call on every poll tick. The page owns the
// state; the host only ever observes it. Field names follow the page
// object's casing.
type PollSnapshot struct {
	// Ready reports that the in-page generation chain reached a terminal
	// state, successful or not.
	Ready bool `json:"ready"`
	// HasData reports that the result slot holds a non-empty value.
	HasData bool `json:"hasData"`
	// Error carries the page's error slot, empty when no error was recorded.
	Error string `json:"error"`
}

// ResultClass identifies how the page reported the generated image.
type ResultClass string

const (
	// ResultClassDataURL means the image arrived inline as a base64 data URL.
	ResultClassDataURL ResultClass = "data_url"
	// ResultClassRemoteURL means the page handed back an http(s) URL whose
	// body was fetched inside the same page context.
	ResultClassRemoteURL ResultClass = "remote_url"
)

// GenerationResult carries the decoded image bytes of a successful run. It is
// produced by the result extractor and consumed exactly once by the output
// writer.
type GenerationResult struct {
	Bytes []byte      `json:"-"`
	Class ResultClass `json:"class"`
}

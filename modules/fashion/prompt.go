package fashion

import (
	"fmt"
	"strings"
)

// StudioTitles - the four studio prompts the QA response must contain
var StudioTitles = []string{
	"Studio Prompt - Front View",
	"Studio Prompt - Back View",
	"Studio Prompt - Detail Shot",
	"Studio Prompt - Full Outfit",
}

// LifestyleTitles - the four lifestyle prompts the QA response must contain
var LifestyleTitles = []string{
	"Lifestyle Prompt - Street Style",
	"Lifestyle Prompt - Cafe Scene",
	"Lifestyle Prompt - Urban Night",
	"Lifestyle Prompt - Golden Hour",
}

// QATitles - the full closed title set, studio then lifestyle
func QATitles() []string {
	titles := make([]string, 0, len(StudioTitles)+len(LifestyleTitles))
	titles = append(titles, StudioTitles...)
	titles = append(titles, LifestyleTitles...)
	return titles
}

// analysisInstruction - built-in system instruction for the garment analysis stage
func analysisInstruction() string {
	return `You are an expert fashion product analyst and prompt engineer for AI image generation.
You are given 1-2 garment product images, optionally accompanied by background reference images and model reference images.
Analyze the garment(s) in meticulous, factual detail: fabric and weave, color (be precise: e.g., "washed charcoal grey", not just "grey"), silhouette and cut, stitching, closures (zippers, buttons), prints and patterns, logos or labels, hardware, trims, and any distinctive construction details. If two garments are provided, analyze both and how they combine as an outfit.
Then derive a QA checklist: the specific, visually verifiable attributes a generated image of this garment MUST reproduce correctly (e.g., "exactly four buttons on the placket", "ribbed crew neckline", "tonal topstitching on the shoulder seams").
Finally, write one complete, ready-to-use generation prompt that would produce a professional e-commerce photo of this exact garment worn by a model, incorporating any provided background or model references.

Respond with ONLY a JSON object of the form:
{"garmentAnalysis": "...", "qaChecklist": "...", "initialJsonPrompt": "..."}
All three fields are plain text and must be non-empty. No markdown, no commentary, no additional fields.`
}

// qaInstruction - built-in system instruction for the QA stage
// The original garment images are the ground truth; the generated preview
// is the subject of review.
func qaInstruction() string {
	var titleLines strings.Builder
	for _, title := range QATitles() {
		titleLines.WriteString(fmt.Sprintf("- \"%s\"\n", title))
	}

	return fmt.Sprintf(`You are an expert fashion QA reviewer and prompt engineer for AI image generation.
You are given, in order: the ORIGINAL garment product image(s) (the ground truth), followed by one GENERATED preview image (the subject of review), followed by the prior garment analysis and QA checklist.
First, compare the generated image against the original garment image(s) attribute by attribute using the checklist. Report every discrepancy precisely: wrong color tone, missing or altered details, incorrect silhouette, fabric texture mismatch, added artifacts. If the garment is reproduced faithfully, say so explicitly.
Then, produce a refined prompt set that corrects every discrepancy you found while keeping everything that was reproduced correctly. Generate exactly 8 prompts, one for each of the following titles:
%s
Each studio prompt must describe a clean professional studio shot of the exact garment; each lifestyle prompt must place the exact garment in the named real-world scene. Every prompt must carry the full corrected garment description so it can be used standalone.

Respond with ONLY a JSON object of the form:
{"qaFindings": "...", "prompts": [{"title": "...", "prompt": "..."}, ...]}
with exactly 8 prompt objects using the titles above verbatim. No markdown, no commentary, no additional fields.`, titleLines.String())
}

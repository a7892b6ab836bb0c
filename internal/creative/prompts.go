package creative

import (
	"fmt"
	"strings"

	"creativelab/internal/domain"
)

// DefaultBrand is the brand voice baked into every prompt unless the caller
// overrides it.
const DefaultBrand = "MegaTech Solutions"

// PromptBuilder deterministically renders the natural-language prompts sent
// to the generative models. Same inputs always yield byte-identical output.
type PromptBuilder struct {
	brand string
}

// NewPromptBuilder returns a builder for the given brand name, defaulting to
// DefaultBrand when blank.
func NewPromptBuilder(brand string) PromptBuilder {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		brand = DefaultBrand
	}
	return PromptBuilder{brand: brand}
}

// CopyPrompt renders the structured-copy prompt. The conditional phrasing for
// reference images and occasions drives generation quality and must not be
// simplified: with an image the art-direction field asks for concrete
// photo-edit instructions, without one it asks for a from-scratch scene brief.
func (b PromptBuilder) CopyPrompt(productText, occasion string, format domain.CreativeFormat, imagePresent bool) string {
	imageInstruction := "No reference image was provided. You must conceive the entire visual from scratch."
	layoutInstruction := "A rich, detailed art direction brief for an AI image generator. Describe the scene's composition (e.g., rule of thirds, leading lines), lighting (e.g., 'dramatic cinematic lighting', 'soft morning light'), color palette, mood, and subject. The goal is a visually stunning, photorealistic image."
	if imagePresent {
		imageInstruction = "An image has been provided as a reference. Analyze it meticulously—it could be a product photo, a sketch, or even handwritten notes. Your concept must be directly inspired by or enhance this image."
		layoutInstruction = "A concise, actionable instruction for a professional photo editor. Describe the exact edits needed for the provided image. Be specific. Example: 'Add a subtle lens flare in the top-left corner, enhance the product's metallic sheen, and change the background to a blurred, festive street scene at night.'"
	}

	occasionInstruction := "This is a standard product/service promotion. The focus should be on creating desire and a clear value proposition."
	if occasion != "" {
		occasionInstruction = fmt.Sprintf("The creative is for a specific occasion: %q. This is the primary theme. The concept must be a clever, culturally authentic celebration of this event, with the product integrated naturally, not just placed in the scene.", occasion)
	}

	return fmt.Sprintf(`You are a world-class Creative Director at a top-tier advertising agency. Your task is to brainstorm a winning creative concept for %q, a modern, trustworthy, and innovative tech brand. The final output will be a %q.

**Your Goal:**
Go beyond the obvious. I need a "Big Idea"—a clever, unexpected concept that is emotionally resonant and visually arresting. Avoid generic marketing-speak.

**Context & User Input:**
- **Product/Service Information:** %q
- **Occasion/Theme:** %s
- **Reference Material:** %s

**Mandatory Requirements:**
1. **Concept First:** Develop a single, strong, creative concept before writing anything else.
2. **Compelling Copy:** Write copy that is sharp, persuasive, and aligns with the %q brand voice. The headline should be a powerful hook. The CTA should be compelling (e.g., "Secure Your Peace of Mind" instead of just "Buy Now").
3. **Art Direction:** The layout description must be incredibly detailed, providing a clear vision for the final image.
4. **Error-Free:** All text must be proofread for spelling and grammatical errors.
5. **Strict JSON Output:** The final output must be only the JSON object, adhering strictly to the defined schema.

**JSON Structure:**
- "headline": The attention-grabbing main text. Should be clever and concise.
- "subtext": Supporting text. Details, features, or a warm message.
- "CTA": The call-to-action. Must be a compelling verb phrase. Empty string ("") for pure greetings.
- "layout_description": %s
- "festival_theme": If an occasion is specified, describe the visual theme in detail (e.g., for "Diwali": "Vibrant and warm, using a palette of saffron, gold, and deep indigo. Incorporate motifs of diya lamps and intricate rangoli patterns, with a focus on light overcoming darkness."). Empty string ("") if no occasion.`,
		b.brand, format.Label(), productText, occasionInstruction, imageInstruction, b.brand, layoutInstruction)
}

// ImagePrompt renders the from-scratch image-generation prompt from the
// produced art direction. The no-text constraint is a hard requirement passed
// verbatim to the image model. Output is collapsed to single spaces.
func (b PromptBuilder) ImagePrompt(copy domain.CreativeCopy, format domain.CreativeFormat) string {
	theme := ""
	if copy.FestivalTheme != "" {
		theme = fmt.Sprintf("Thematic Elements: %s.", copy.FestivalTheme)
	}
	prompt := fmt.Sprintf(`Create a photorealistic, hyper-detailed, visually stunning marketing image for %s, formatted as a %s.
Art Direction: %s.
%s
Visual Style: Cinematic lighting, professional color grading, sharp focus, 8K resolution, shot on a high-end camera. Resembles an Unreal Engine 5 render for its realism and detail.
CRITICALLY IMPORTANT: The image must contain absolutely NO text, letters, words, or numbers. It must be a pure visual with ample negative space for text overlays later. This is a strict requirement.`,
		b.brand, format.Label(), copy.LayoutDescription, theme)
	return strings.Join(strings.Fields(prompt), " ")
}

// EditPrompt renders the photo-editor instruction for the image-edit call.
// It uses the layout description alone; the reference image travels alongside.
func (b PromptBuilder) EditPrompt(copy domain.CreativeCopy) string {
	return fmt.Sprintf(`Act as a professional photo editor. Your task is to modify the provided image based on the following instructions.
Make the edits seamless, subtle, and photorealistic.
Instructions: %q`, copy.LayoutDescription)
}

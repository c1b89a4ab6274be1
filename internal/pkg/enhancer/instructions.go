package enhancer

import (
	"path/filepath"
	"strings"
)

// Photo types for instruction composition.
const (
	PhotoTypeInterior = "interior"
	PhotoTypeExterior = "exterior"
)

// DefaultInstructions is the directive used when the caller selected nothing.
const DefaultInstructions = "Make this image look more modern, more attractive, more appealing to a greater range of prospective buyers. Do not change the structure in any way. Do not change the size, position or orientation of any walls, floors or ceilings."

const exteriorBase = "This is a real estate exterior photo. Enhance it to make it more attractive to potential buyers while maintaining the exact structure, dimensions, and architectural features. "

const interiorBase = "This is a real estate interior photo. Enhance it to make it more attractive to potential buyers while maintaining the exact structure, dimensions, walls, ceilings, and windows. "

const structureSafetyClause = " Do not change the structure, dimensions, or architectural features of the building. Maintain the original perspective and composition of the photo."

// EnhancementOption is one selectable directive in the catalog.
type EnhancementOption struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Instructions string `json:"instructions"`
}

// EnhancementOptions is the full catalog keyed by photo type and option id.
var EnhancementOptions = map[string]map[string]EnhancementOption{
	PhotoTypeExterior: {
		"landscaping": {
			Name:         "Landscaping Improvements",
			Description:  "Enhance grass, plants, and outdoor features",
			Instructions: "Make the grass greener and more lush, add colorful flowers to flower beds and planters, trim and enhance existing bushes and trees, add seasonal flowers where appropriate, ensure all plants look healthy and well-maintained.",
		},
		"sky_weather": {
			Name:         "Sky & Weather Enhancement",
			Description:  "Improve sky appearance and weather conditions",
			Instructions: "Make the sky a beautiful blue with some white clouds, ensure good lighting conditions, remove any dark or stormy weather, add a pleasant sunny day atmosphere.",
		},
		"exterior_cleaning": {
			Name:         "Exterior Cleaning",
			Description:  "Clean and brighten exterior surfaces",
			Instructions: "Clean the exterior walls, windows, and doors, remove any dirt or stains, brighten the paint colors, clean the roof and gutters, ensure all exterior surfaces look fresh and well-maintained.",
		},
		"outdoor_furniture": {
			Name:         "Outdoor Furniture",
			Description:  "Add or improve outdoor furniture",
			Instructions: "Add attractive outdoor furniture like patio sets, chairs, or decorative elements where appropriate, ensure any existing outdoor furniture looks clean and modern.",
		},
		"lighting": {
			Name:         "Exterior Lighting",
			Description:  "Enhance outdoor lighting",
			Instructions: "Improve exterior lighting to show the property at its best, add warm lighting to highlight architectural features, ensure good visibility of the property entrance.",
		},
	},
	PhotoTypeInterior: {
		"furniture_modernization": {
			Name:         "Furniture Modernization",
			Description:  "Replace old furniture with modern pieces",
			Instructions: "Replace any old, worn, or outdated furniture with modern, stylish pieces that appeal to contemporary buyers. Use neutral, elegant furniture that complements the space. Remove any furniture that makes the space look cluttered or dated.",
		},
		"cleaning_decluttering": {
			Name:         "Cleaning & Decluttering",
			Description:  "Remove clutter and clean surfaces",
			Instructions: "Remove all personal items, clutter, and unnecessary objects. Clean all surfaces including walls, floors, and fixtures. Remove any dirt, stains, or marks. Make the space look spotless and move-in ready.",
		},
		"lighting_enhancement": {
			Name:         "Lighting Enhancement",
			Description:  "Improve interior lighting",
			Instructions: "Enhance the lighting to make the space bright and welcoming. Add warm, inviting light that highlights the best features of the room. Ensure all areas are well-lit and the space feels open and airy.",
		},
		"color_scheme": {
			Name:         "Color Scheme Update",
			Description:  "Modernize color schemes",
			Instructions: "Update wall colors to modern, neutral tones that appeal to a wide range of buyers. Use colors like soft grays, whites, or light beiges. Ensure the color scheme is cohesive throughout the space.",
		},
		"decorative_touches": {
			Name:         "Decorative Touches",
			Description:  "Add tasteful decorative elements",
			Instructions: "Add tasteful, modern decorative elements like plants, artwork, or accessories that enhance the space without cluttering it. Use neutral, elegant pieces that appeal to contemporary buyers.",
		},
	},
}

// GenerateInstructions composes the final directive text for one photo from
// the selected catalog options, the photo type and any free-form additions.
func GenerateInstructions(selectedOptions []string, photoType, customInstructions string) string {
	base := exteriorBase
	if photoType == PhotoTypeInterior {
		base = interiorBase
	}

	var parts []string
	if catalog, ok := EnhancementOptions[photoType]; ok {
		for _, option := range selectedOptions {
			if entry, ok := catalog[option]; ok {
				parts = append(parts, entry.Instructions)
			}
		}
	}
	if custom := strings.TrimSpace(customInstructions); custom != "" {
		parts = append(parts, custom)
	}

	full := base
	if len(parts) > 0 {
		full += strings.Join(parts, " ")
	}
	return full + structureSafetyClause
}

// DefaultOptions returns the catalog entries preselected for a photo type.
func DefaultOptions(photoType string) []string {
	switch photoType {
	case PhotoTypeInterior:
		return []string{"furniture_modernization", "cleaning_decluttering", "lighting_enhancement"}
	case PhotoTypeExterior:
		return []string{"landscaping", "sky_weather", "exterior_cleaning"}
	default:
		return nil
	}
}

var interiorKeywords = []string{"interior", "inside", "room", "kitchen", "bathroom", "bedroom", "living", "dining"}
var exteriorKeywords = []string{"exterior", "outside", "front", "back", "yard", "garden", "patio", "deck", "facade"}

// AnalyzeImageType guesses interior vs. exterior from the original filename.
// A simple heuristic; callers can always override the result explicitly.
func AnalyzeImageType(originalName string) string {
	filename := strings.ToLower(filepath.Base(originalName))

	for _, keyword := range interiorKeywords {
		if strings.Contains(filename, keyword) {
			return PhotoTypeInterior
		}
	}
	for _, keyword := range exteriorKeywords {
		if strings.Contains(filename, keyword) {
			return PhotoTypeExterior
		}
	}
	return PhotoTypeExterior
}

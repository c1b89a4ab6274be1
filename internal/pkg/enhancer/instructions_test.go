package enhancer

import (
	"strings"
	"testing"
)

func TestGenerateInstructionsComposition(t *testing.T) {
	t.Parallel()

	got := GenerateInstructions([]string{"landscaping", "sky_weather"}, PhotoTypeExterior, "")
	if !strings.HasPrefix(got, exteriorBase) {
		t.Fatalf("expected exterior base prefix")
	}
	if !strings.Contains(got, EnhancementOptions[PhotoTypeExterior]["landscaping"].Instructions) {
		t.Fatalf("expected landscaping instructions in %q", got)
	}
	if !strings.Contains(got, EnhancementOptions[PhotoTypeExterior]["sky_weather"].Instructions) {
		t.Fatalf("expected sky instructions in %q", got)
	}
	if !strings.HasSuffix(got, structureSafetyClause) {
		t.Fatalf("expected structure safety clause suffix")
	}
}

func TestGenerateInstructionsInteriorBase(t *testing.T) {
	t.Parallel()

	got := GenerateInstructions(nil, PhotoTypeInterior, "")
	if !strings.HasPrefix(got, interiorBase) {
		t.Fatalf("expected interior base prefix, got %q", got)
	}
}

func TestGenerateInstructionsCustomText(t *testing.T) {
	t.Parallel()

	got := GenerateInstructions(nil, PhotoTypeExterior, "  add a red door  ")
	if !strings.Contains(got, "add a red door") {
		t.Fatalf("expected trimmed custom text in %q", got)
	}
}

func TestGenerateInstructionsIgnoresUnknownOptions(t *testing.T) {
	t.Parallel()

	plain := GenerateInstructions(nil, PhotoTypeExterior, "")
	withUnknown := GenerateInstructions([]string{"does_not_exist"}, PhotoTypeExterior, "")
	if plain != withUnknown {
		t.Fatalf("unknown options must not change the directive")
	}
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	for _, photoType := range []string{PhotoTypeInterior, PhotoTypeExterior} {
		defaults := DefaultOptions(photoType)
		if len(defaults) == 0 {
			t.Fatalf("expected defaults for %s", photoType)
		}
		for _, id := range defaults {
			if _, ok := EnhancementOptions[photoType][id]; !ok {
				t.Fatalf("default %q missing from %s catalog", id, photoType)
			}
		}
	}

	if DefaultOptions("garage") != nil {
		t.Fatalf("expected nil defaults for unknown photo type")
	}
}

func TestAnalyzeImageType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{name: "kitchen_south.jpg", want: PhotoTypeInterior},
		{name: "Master-Bedroom.png", want: PhotoTypeInterior},
		{name: "front_yard.webp", want: PhotoTypeExterior},
		{name: "facade-2024.jpeg", want: PhotoTypeExterior},
		{name: "IMG_0001.jpg", want: PhotoTypeExterior},
	}

	for _, tt := range tests {
		if got := AnalyzeImageType(tt.name); got != tt.want {
			t.Fatalf("AnalyzeImageType(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

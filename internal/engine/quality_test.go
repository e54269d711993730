package engine

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"
)

// uniformFrame builds a frame filled with a single grayscale value.
func uniformFrame(w, h int, value uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = value
	}
	return img
}

// noisyFrame builds a frame with strong per-pixel noise, which produces a
// high Laplacian variance (sharp edges everywhere).
func noisyFrame(w, h int, seed int64) *image.Gray {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

func containsIssue(issues []string, want string) bool {
	for _, s := range issues {
		if s == want {
			return true
		}
	}
	return false
}

func TestQuality_EmptyRegion(t *testing.T) {
	q := NewQualityAssessor(DefaultQualityConfig())
	frame := uniformFrame(200, 200, 128)

	boxes := []struct {
		name string
		box  Box
	}{
		{"zero width", Box{Top: 10, Right: 10, Bottom: 50, Left: 10}},
		{"zero height", Box{Top: 10, Right: 50, Bottom: 10, Left: 10}},
		{"inverted", Box{Top: 50, Right: 10, Bottom: 10, Left: 50}},
		{"outside frame", Box{Top: 500, Right: 600, Bottom: 550, Left: 520}},
	}

	for _, tc := range boxes {
		t.Run(tc.name, func(t *testing.T) {
			report := q.Assess(frame, tc.box)
			if report.OverallScore != 0 {
				t.Errorf("expected overall score 0, got %f", report.OverallScore)
			}
			if !containsIssue(report.Issues, "empty region") {
				t.Errorf("expected \"empty region\" issue, got %v", report.Issues)
			}
		})
	}
}

func TestQuality_NilFrame(t *testing.T) {
	q := NewQualityAssessor(DefaultQualityConfig())
	report := q.Assess(nil, Box{Top: 0, Right: 100, Bottom: 100, Left: 0})
	if report.OverallScore != 0 || !containsIssue(report.Issues, "empty region") {
		t.Errorf("expected empty-region report for nil frame, got %+v", report)
	}
}

func TestQuality_FaceTooSmall(t *testing.T) {
	q := NewQualityAssessor(DefaultQualityConfig())
	frame := noisyFrame(200, 200, 1)

	report := q.Assess(frame, Box{Top: 10, Right: 40, Bottom: 40, Left: 10})
	if report.Metrics.SizeScore != 0.3 {
		t.Errorf("expected size score 0.3, got %f", report.Metrics.SizeScore)
	}
	if !containsIssue(report.Issues, "face too small") {
		t.Errorf("expected \"face too small\", got %v", report.Issues)
	}
}

func TestQuality_FaceTooLarge(t *testing.T) {
	q := NewQualityAssessor(DefaultQualityConfig())
	frame := noisyFrame(700, 700, 2)

	report := q.Assess(frame, Box{Top: 0, Right: 600, Bottom: 600, Left: 0})
	if report.Metrics.SizeScore != 0.7 {
		t.Errorf("expected the asymmetric 0.7 penalty, got %f", report.Metrics.SizeScore)
	}
	if !containsIssue(report.Issues, "face too large") {
		t.Errorf("expected \"face too large\", got %v", report.Issues)
	}
}

func TestQuality_BlurryRegion(t *testing.T) {
	q := NewQualityAssessor(DefaultQualityConfig())
	// A perfectly uniform region has zero Laplacian variance.
	frame := uniformFrame(200, 200, 128)

	report := q.Assess(frame, Box{Top: 20, Right: 120, Bottom: 120, Left: 20})
	if report.Metrics.BlurScore != 0 {
		t.Errorf("expected blur score 0 for a flat region, got %f", report.Metrics.BlurScore)
	}
	if !containsIssue(report.Issues, "image too blurry") {
		t.Errorf("expected \"image too blurry\", got %v", report.Issues)
	}
}

func TestQuality_SharpRegionCapsAtOne(t *testing.T) {
	q := NewQualityAssessor(DefaultQualityConfig())
	frame := noisyFrame(200, 200, 3)

	report := q.Assess(frame, Box{Top: 20, Right: 120, Bottom: 120, Left: 20})
	if report.Metrics.BlurScore != 1.0 {
		t.Errorf("expected blur score capped at 1.0 for noise, got %f", report.Metrics.BlurScore)
	}
	if containsIssue(report.Issues, "image too blurry") {
		t.Error("sharp region flagged as blurry")
	}
}

func TestQuality_Brightness(t *testing.T) {
	q := NewQualityAssessor(DefaultQualityConfig())
	box := Box{Top: 20, Right: 120, Bottom: 120, Left: 20}

	cases := []struct {
		name  string
		value uint8
		score float64
		issue string
	}{
		{"too dark", 20, 0.4, "image too dark"},
		{"too bright", 240, 0.6, "image too bright"},
		{"in range", 128, 1.0, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := q.Assess(uniformFrame(200, 200, tc.value), box)
			if report.Metrics.BrightnessScore != tc.score {
				t.Errorf("expected brightness score %f, got %f", tc.score, report.Metrics.BrightnessScore)
			}
			if tc.issue != "" && !containsIssue(report.Issues, tc.issue) {
				t.Errorf("expected issue %q, got %v", tc.issue, report.Issues)
			}
		})
	}
}

func TestQuality_OverallWeighting(t *testing.T) {
	q := NewQualityAssessor(DefaultQualityConfig())
	// Noisy, well-lit, well-sized region: size 1.0, blur 1.0, orientation
	// 1.0; brightness of uniform noise averages near 127.5 so lands in
	// range, score 1.0. Overall should be 1.0.
	frame := noisyFrame(300, 300, 4)

	report := q.Assess(frame, Box{Top: 50, Right: 250, Bottom: 250, Left: 50})
	if math.Abs(report.OverallScore-1.0) > 1e-9 {
		t.Errorf("expected overall score 1.0, got %f", report.OverallScore)
	}
	if report.Metrics.OrientationScore != 1.0 {
		t.Errorf("orientation score is fixed at 1.0, got %f", report.Metrics.OrientationScore)
	}
}

func TestQuality_ColorFrameConversion(t *testing.T) {
	q := NewQualityAssessor(DefaultQualityConfig())
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 130, B: 125, A: 255})
		}
	}

	report := q.Assess(img, Box{Top: 20, Right: 120, Bottom: 120, Left: 20})
	if report.Metrics.BrightnessScore != 1.0 {
		t.Errorf("expected mid-gray conversion in brightness range, got %f", report.Metrics.BrightnessScore)
	}
}

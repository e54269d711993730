package engine

import (
	"image"

	"golang.org/x/image/draw"
)

// Quality assessment parameters. Sizes are in pixels of the cropped face
// region, the blur threshold is a Laplacian-variance value on 8-bit
// grayscale, and the brightness range is in grayscale intensity.
type QualityConfig struct {
	MinFaceSize      int
	MaxFaceSize      int
	BlurThreshold    float64
	BrightnessMin    float64
	BrightnessMax    float64
	SizeWeight       float64
	BlurWeight       float64
	BrightnessWeight float64
	OrientWeight     float64
}

// DefaultQualityConfig returns the tuned defaults.
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		MinFaceSize:      50,
		MaxFaceSize:      500,
		BlurThreshold:    100,
		BrightnessMin:    50,
		BrightnessMax:    200,
		SizeWeight:       0.3,
		BlurWeight:       0.4,
		BrightnessWeight: 0.2,
		OrientWeight:     0.1,
	}
}

// QualityAssessor scores a cropped face region on size, sharpness and
// brightness. Scores are informational; low quality flags a capture but
// never rejects it.
type QualityAssessor struct {
	cfg QualityConfig
}

// NewQualityAssessor creates an assessor with the given parameters.
func NewQualityAssessor(cfg QualityConfig) *QualityAssessor {
	return &QualityAssessor{cfg: cfg}
}

// Assess crops the box out of the frame and computes the quality report.
// A zero-area crop (or one entirely outside the frame) scores 0.0 with the
// "empty region" issue and no further metrics.
func (q *QualityAssessor) Assess(frame image.Image, box Box) QualityReport {
	if frame == nil || box.Empty() {
		return QualityReport{OverallScore: 0, Issues: []string{"empty region"}}
	}

	crop := image.Rect(box.Left, box.Top, box.Right, box.Bottom).Intersect(frame.Bounds())
	if crop.Empty() {
		return QualityReport{OverallScore: 0, Issues: []string{"empty region"}}
	}

	var issues []string
	m := QualityMetrics{OrientationScore: 1.0} // orientation is an extension point

	// Size uses the original crop dimensions. The penalty is asymmetric:
	// too-small faces carry less embedding signal than too-large ones.
	width, height := crop.Dx(), crop.Dy()
	switch {
	case width < q.cfg.MinFaceSize || height < q.cfg.MinFaceSize:
		m.SizeScore = 0.3
		issues = append(issues, "face too small")
	case width > q.cfg.MaxFaceSize || height > q.cfg.MaxFaceSize:
		m.SizeScore = 0.7
		issues = append(issues, "face too large")
	default:
		m.SizeScore = 1.0
	}

	gray := grayscaleRegion(frame, crop, q.cfg.MaxFaceSize)

	sharpness := laplacianVariance(gray)
	m.BlurScore = sharpness / q.cfg.BlurThreshold
	if m.BlurScore > 1.0 {
		m.BlurScore = 1.0
	}
	if sharpness < q.cfg.BlurThreshold*0.5 {
		issues = append(issues, "image too blurry")
	}

	brightness := meanIntensity(gray)
	switch {
	case brightness < q.cfg.BrightnessMin:
		m.BrightnessScore = 0.4
		issues = append(issues, "image too dark")
	case brightness > q.cfg.BrightnessMax:
		m.BrightnessScore = 0.6
		issues = append(issues, "image too bright")
	default:
		m.BrightnessScore = 1.0
	}

	overall := m.SizeScore*q.cfg.SizeWeight +
		m.BlurScore*q.cfg.BlurWeight +
		m.BrightnessScore*q.cfg.BrightnessWeight +
		m.OrientationScore*q.cfg.OrientWeight

	return QualityReport{OverallScore: overall, Metrics: m, Issues: issues}
}

// grayscaleRegion converts the crop to 8-bit grayscale, downscaling crops
// larger than maxSide on either axis so the Laplacian pass stays cheap on
// oversized detections.
func grayscaleRegion(frame image.Image, crop image.Rectangle, maxSide int) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(gray, gray.Bounds(), frame, crop.Min, draw.Src)

	if maxSide <= 0 || (gray.Bounds().Dx() <= maxSide && gray.Bounds().Dy() <= maxSide) {
		return gray
	}

	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	var nw, nh int
	if w > h {
		nw = maxSide
		nh = h * maxSide / w
	} else {
		nh = maxSide
		nw = w * maxSide / h
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	small := image.NewGray(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(small, small.Bounds(), gray, gray.Bounds(), draw.Src, nil)
	return small
}

// laplacianVariance measures local contrast as the variance of the
// 4-neighbor Laplacian response over the interior pixels. Sharp images
// produce strong edge responses; a flat or blurred crop tends toward zero.
func laplacianVariance(img *image.Gray) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	responses := make([]float64, 0, (w-2)*(h-2))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			center := float64(img.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			up := float64(img.GrayAt(b.Min.X+x, b.Min.Y+y-1).Y)
			down := float64(img.GrayAt(b.Min.X+x, b.Min.Y+y+1).Y)
			left := float64(img.GrayAt(b.Min.X+x-1, b.Min.Y+y).Y)
			right := float64(img.GrayAt(b.Min.X+x+1, b.Min.Y+y).Y)
			responses = append(responses, up+down+left+right-4*center)
		}
	}

	m := mean(responses)
	var sum float64
	for _, r := range responses {
		d := r - m
		sum += d * d
	}
	return sum / float64(len(responses))
}

// meanIntensity returns the average grayscale value of the image.
func meanIntensity(img *image.Gray) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += float64(img.GrayAt(x, y).Y)
		}
	}
	return sum / float64(n)
}

// Package voice classifies submitted audio as AI-generated or human.
//
// The classifier is simulated: no acoustic model runs, and the verdict and
// confidence are drawn from an injected random source.
package voice

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

// MaxAudioBytes is the default limit on decoded audio.
const MaxAudioBytes = 10 * 1024 * 1024

// Predictions.
const (
	PredictionAI    = "AI_GENERATED"
	PredictionHuman = "HUMAN"
)

// Supported audio formats.
var Formats = []string{"mp3", "wav", "m4a"}

var (
	ErrEmptyAudio    = errors.New("empty audio data")
	ErrInvalidBase64 = errors.New("invalid base64 audio")
	ErrAudioTooLarge = errors.New("audio too large")
)

// Request is one detection request.
type Request struct {
	Language    string
	AudioFormat string
	AudioBase64 string
}

// Metadata describes the simulated analysis.
type Metadata struct {
	Duration          float64  `json:"duration"`
	SampleRate        int      `json:"sampleRate"`
	SpectralAnomalies int      `json:"spectralAnomalies"`
	TopIndicators     []string `json:"topIndicators"`
}

// Result is the detection verdict.
type Result struct {
	Prediction     string
	Confidence     float64
	Language       string
	AudioFormat    string
	ProcessingTime string
	Metadata       Metadata
}

var indicators = map[string][]string{
	PredictionAI:    {"Unnatural prosody", "Spectral flatness anomaly", "Pitch consistency"},
	PredictionHuman: {"Natural breathing", "Environmental noise", "Vocal fry"},
}

// Options configures a Detector.
type Options struct {
	// Rand is the random source. Nil seeds a fresh PCG.
	Rand *rand.Rand
	// MaxBytes caps decoded audio. Zero uses MaxAudioBytes.
	MaxBytes int
	// Now is the clock used for processing time.
	Now func() time.Time
}

// Detector runs simulated voice detection. It is safe for concurrent use.
type Detector struct {
	mu       sync.Mutex
	rng      *rand.Rand
	maxBytes int
	now      func() time.Time
}

// NewDetector creates a Detector.
func NewDetector(opts Options) *Detector {
	d := &Detector{rng: opts.Rand, maxBytes: opts.MaxBytes, now: opts.Now}
	if d.rng == nil {
		d.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if d.maxBytes <= 0 {
		d.maxBytes = MaxAudioBytes
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

// Detect decodes the audio and returns a verdict.
func (d *Detector) Detect(req Request) (Result, error) {
	start := d.now()

	audio, err := d.decode(req.AudioBase64)
	if err != nil {
		return Result{}, err
	}

	d.mu.Lock()
	anomalies := d.rng.IntN(4)
	flatness := uniform(d.rng, 0.01, 0.5)
	raw := uniform(d.rng, 0.70, 0.99)
	prediction := PredictionAI
	if d.rng.IntN(2) == 1 {
		prediction = PredictionHuman
	}
	confidence := d.calibrate(raw)
	d.mu.Unlock()

	elapsed := d.now().Sub(start).Seconds()
	slog.Info("Voice detection processed",
		"language", req.Language,
		"format", req.AudioFormat,
		"bytes", len(audio),
		"spectral_flatness", flatness,
		"prediction", prediction,
		"confidence", confidence,
		"elapsed_s", elapsed)

	return Result{
		Prediction:     prediction,
		Confidence:     confidence,
		Language:       req.Language,
		AudioFormat:    req.AudioFormat,
		ProcessingTime: fmt.Sprintf("%.3fs", elapsed),
		Metadata: Metadata{
			Duration:          4.5,
			SampleRate:        44100,
			SpectralAnomalies: anomalies,
			TopIndicators:     append([]string(nil), indicators[prediction]...),
		},
	}, nil
}

func (d *Detector) decode(s string) ([]byte, error) {
	if s == "" {
		return nil, ErrEmptyAudio
	}
	audio, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// Some clients strip padding.
		audio, err = base64.RawStdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBase64, err)
		}
	}
	if len(audio) > d.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrAudioTooLarge, len(audio))
	}
	return audio, nil
}

// calibrate maps a raw ensemble score onto the reported range.
// Caller holds d.mu.
func (d *Detector) calibrate(raw float64) float64 {
	var c float64
	switch {
	case raw > 0.95:
		c = uniform(d.rng, 0.92, 0.98)
	case raw > 0.85:
		c = uniform(d.rng, 0.80, 0.90)
	default:
		c = uniform(d.rng, 0.60, 0.75)
	}
	return math.Round(c*100) / 100
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}

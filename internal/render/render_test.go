package render

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestStateOscillator(t *testing.T) {
	o := NewStateOscillator()

	assert.Equal(t, OscillatorState{Frequency: 440}, o.State())
	assert.False(t, o.Started())

	o.SetFrequency(880)
	o.SetAmplitude(1.5)
	o.Start()
	o.Start()

	assert.Equal(t, OscillatorState{Frequency: 880, Amplitude: 1, Started: true}, o.State())

	o.SetAmplitude(-1)
	assert.Zero(t, o.State().Amplitude)
}

func TestStateOscillator_NonFinite(t *testing.T) {
	o := NewStateOscillator()
	o.SetAmplitude(0.4)

	o.SetAmplitude(math.NaN())
	o.SetFrequency(math.NaN())
	o.SetFrequency(math.Inf(1))

	assert.Equal(t, OscillatorState{Frequency: 440}, o.State())
}

func TestMatCanvas_DrawImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(100, 100, gocv.MatTypeCV8UC3)
	defer frame.Close()

	white := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 10, 10, gocv.MatTypeCV8UC3)
	defer white.Close()

	img, err := NewImageFromMat(white)
	require.NoError(t, err)
	defer img.Close()

	w, h := img.Size()
	assert.Equal(t, 10, w)
	assert.Equal(t, 10, h)

	c := NewMatCanvas(&frame)
	assert.Equal(t, image.Rect(0, 0, 100, 100), c.Bounds())

	// partly outside the frame
	c.DrawImage(img, image.Rect(80, 80, 120, 120))

	assert.Equal(t, uint8(255), frame.GetVecbAt(90, 90)[0])
	assert.Equal(t, uint8(0), frame.GetVecbAt(10, 10)[0])

	// fully outside is a no-op
	c.DrawImage(img, image.Rect(200, 200, 220, 220))
}

func TestMatCanvas_Shapes(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := gocv.NewMatWithSize(50, 50, gocv.MatTypeCV8UC3)
	defer frame.Close()

	c := NewMatCanvas(&frame)
	c.Ellipse(image.Pt(10, 10), 5, 5, Green)
	c.Circle(image.Pt(40, 40), 5, Green)

	// BGR order
	assert.Equal(t, uint8(255), frame.GetVecbAt(10, 10)[1])
	assert.Equal(t, uint8(255), frame.GetVecbAt(40, 40)[1])
	assert.Equal(t, uint8(0), frame.GetVecbAt(25, 25)[1])
}

func TestLoadImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	for _, name := range []string{"smile.png", "shock.png"} {
		t.Run(name, func(t *testing.T) {
			img, err := LoadImage("../../assets/" + name)
			require.NoError(t, err)
			defer img.Close()

			w, h := img.Size()
			assert.Equal(t, 128, w)
			assert.Equal(t, 128, h)

			// corners are transparent, the centre is opaque
			assert.Equal(t, uint8(0), img.alpha.GetUCharAt(0, 0))
			assert.Equal(t, uint8(255), img.alpha.GetUCharAt(64, 64))
		})
	}

	_, err := LoadImage("../../assets/missing.png")
	assert.Error(t, err)
}

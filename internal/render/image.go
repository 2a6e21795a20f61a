package render

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Image is an overlay image split into colour and mask planes.
type Image struct {
	bgr   gocv.Mat
	alpha gocv.Mat
}

// LoadImage reads a PNG (or any format OpenCV reads). Images without an alpha
// channel get a fully opaque mask.
func LoadImage(path string) (*Image, error) {
	src := gocv.IMRead(path, gocv.IMReadUnchanged)
	if src.Empty() {
		src.Close()
		return nil, fmt.Errorf("load image %s: unreadable or missing", path)
	}
	defer src.Close()

	return newImage(src)
}

// NewImageFromMat builds an Image from a BGR or BGRA Mat. src is not retained.
func NewImageFromMat(src gocv.Mat) (*Image, error) {
	return newImage(src)
}

func newImage(src gocv.Mat) (*Image, error) {
	img := &Image{bgr: gocv.NewMat(), alpha: gocv.NewMat()}

	switch src.Channels() {
	case 4:
		planes := gocv.Split(src)
		defer func() {
			for _, p := range planes {
				p.Close()
			}
		}()
		gocv.Merge(planes[:3], &img.bgr)
		// a binary mask; partially transparent edges count as opaque
		gocv.Threshold(planes[3], &img.alpha, 0, 255, gocv.ThresholdBinary)
	case 3:
		src.CopyTo(&img.bgr)
		img.alpha.Close()
		img.alpha = gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), src.Rows(), src.Cols(), gocv.MatTypeCV8UC1)
	default:
		img.Close()
		return nil, fmt.Errorf("unsupported image with %d channels", src.Channels())
	}

	return img, nil
}

// Size returns the image width and height.
func (img *Image) Size() (int, int) {
	return img.bgr.Cols(), img.bgr.Rows()
}

// Close releases the image planes.
func (img *Image) Close() {
	img.bgr.Close()
	img.alpha.Close()
}

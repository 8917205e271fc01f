// Package optics converts camera parameters into the ground area one photograph covers.
package optics

import (
	"fmt"
	"math"

	"github.com/samirrijal/surveyplan/internal/core/domain"
)

// GroundFootprint returns the ground rectangle seen by a nadir-pointing camera.
// The sensor diagonal is projected to the ground by altitude/focal length and
// split back into height and width by the sensor aspect ratio.
func GroundFootprint(c domain.Camera) (domain.Dimensions, error) {
	if err := validate(c); err != nil {
		return domain.Dimensions{}, err
	}

	sensorDiag := math.Hypot(c.SensorHeight, c.SensorWidth)
	groundDiag := sensorDiag * c.Altitude / c.FocalLength
	aspect := c.SensorWidth / c.SensorHeight

	return domain.Dimensions{
		Height: groundDiag / math.Sqrt(aspect*aspect+1),
		Width:  groundDiag / math.Sqrt(1/(aspect*aspect)+1),
	}, nil
}

// FieldOfView returns the horizontal and vertical angles of view in degrees.
// Formula: FOV = 2 × arctan(sensor / (2 × focal_length))
func FieldOfView(c domain.Camera) (horizontal, vertical float64) {
	horizontal = 2 * math.Atan(c.SensorWidth/(2*c.FocalLength)) * 180 / math.Pi
	vertical = 2 * math.Atan(c.SensorHeight/(2*c.FocalLength)) * 180 / math.Pi
	return horizontal, vertical
}

func validate(c domain.Camera) error {
	fields := []struct {
		name  string
		value float64
	}{
		{"focal_length", c.FocalLength},
		{"sensor_height", c.SensorHeight},
		{"sensor_width", c.SensorWidth},
		{"altitude", c.Altitude},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value <= 0 {
			return fmt.Errorf("camera %s must be a positive finite number, got %v", f.name, f.value)
		}
	}
	return nil
}

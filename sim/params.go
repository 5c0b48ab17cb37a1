package sim

import (
	"fmt"
	"math"
	"strconv"

	"github.com/npillmayer/schuko"
)

// Params are the numeric parameters of a simulation.
type Params struct {
	Width, Height     float64 // canvas size
	Margin            float64 // distance of the frame from the canvas border
	LinkLength        float64 // target distance of neighbouring chain points
	MinWidth          float64 // minimal width of a blob
	SecondaryDistance float64 // minimal distance of points a few links apart
	AreaStep          float64 // cap of the area equalization offset per frame
	Blobs             int     // number of inner blobs a driver aims for
	Seed              uint64  // seed for random spawn locations
}

// DefaultParams returns the parameters for a 1280×720 canvas.
func DefaultParams() Params {
	return derive(baseParams())
}

func baseParams() Params {
	return Params{
		Width:    1280,
		Height:   720,
		Margin:   10,
		AreaStep: 10,
		Blobs:    3,
		Seed:     1,
	}
}

// derive fills in the lengths which follow from the canvas size.
func derive(p Params) Params {
	short := math.Min(p.Width, p.Height)
	if p.LinkLength <= 0 {
		p.LinkLength = short / 100
	}
	if p.MinWidth <= 0 {
		p.MinWidth = short / 10
	}
	if p.SecondaryDistance <= 0 {
		p.SecondaryDistance = p.MinWidth
	}
	return p
}

// Configuration keys.
const (
	KeyWidth             = "blobsim.width"
	KeyHeight            = "blobsim.height"
	KeyMargin            = "blobsim.margin"
	KeyLinkLength        = "blobsim.linklength"
	KeyMinWidth          = "blobsim.minwidth"
	KeySecondaryDistance = "blobsim.secondarydistance"
	KeyAreaStep          = "blobsim.areastep"
	KeyBlobs             = "blobsim.blobs"
	KeySeed              = "blobsim.seed"
)

// ParamsFromConfig reads parameters from conf. Keys not set keep their
// defaults; lengths derived from the canvas size follow a configured canvas
// unless they are configured themselves. schuko has no float getter, so
// lengths are parsed from their string values.
func ParamsFromConfig(conf schuko.Configuration) (Params, error) {
	p := baseParams()
	floats := []struct {
		key string
		v   *float64
	}{
		{KeyWidth, &p.Width},
		{KeyHeight, &p.Height},
		{KeyMargin, &p.Margin},
		{KeyLinkLength, &p.LinkLength},
		{KeyMinWidth, &p.MinWidth},
		{KeySecondaryDistance, &p.SecondaryDistance},
		{KeyAreaStep, &p.AreaStep},
	}
	for _, f := range floats {
		if !conf.IsSet(f.key) {
			continue
		}
		v, err := strconv.ParseFloat(conf.GetString(f.key), 64)
		if err != nil || v < 0 {
			return p, fmt.Errorf("%w: %s = %q", ErrConfig, f.key, conf.GetString(f.key))
		}
		*f.v = v
	}
	if conf.IsSet(KeyBlobs) {
		n := conf.GetInt(KeyBlobs)
		if n < 1 {
			return p, fmt.Errorf("%w: %s = %q", ErrConfig, KeyBlobs, conf.GetString(KeyBlobs))
		}
		p.Blobs = n
	}
	if conf.IsSet(KeySeed) {
		s, err := strconv.ParseUint(conf.GetString(KeySeed), 10, 64)
		if err != nil {
			return p, fmt.Errorf("%w: %s = %q", ErrConfig, KeySeed, conf.GetString(KeySeed))
		}
		p.Seed = s
	}
	if p.Width <= 2*p.Margin || p.Height <= 2*p.Margin {
		return p, fmt.Errorf("%w: canvas %g×%g leaves no room inside margin %g",
			ErrConfig, p.Width, p.Height, p.Margin)
	}
	p = derive(p)
	tracer().Debugf("parameters: %+v", p)
	return p, nil
}

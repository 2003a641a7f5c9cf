// Package colmap implements the reconstruction exchange entities
// (cameras, posed images, 3-D points) and their binary and text codecs.
//
// The binary layouts are byte-exact little-endian records so files can be
// exchanged with the reconstruction tool directly; the text layouts are
// whitespace-delimited lines. Readers and writers are mutually inverse up
// to floating-point formatting.
package colmap

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownModel reports a camera model id or name outside the fixed
	// model set.
	ErrUnknownModel = errors.New("colmap: unknown camera model")
	// ErrParamCount reports a camera whose parameter vector length does
	// not match its model.
	ErrParamCount = errors.New("colmap: parameter count does not match camera model")
	// ErrTrackMismatch reports a 3-D point whose image id and 2-D index
	// sequences differ in length.
	ErrTrackMismatch = errors.New("colmap: track image ids and point2D indexes differ in length")
)

// CameraModel identifies one of the fixed camera models by stable id,
// name, and parameter count.
type CameraModel struct {
	ID        int32
	Name      string
	NumParams int
}

// The fixed camera model set.
var CameraModels = []CameraModel{
	{ID: 0, Name: "SIMPLE_PINHOLE", NumParams: 3},
	{ID: 1, Name: "PINHOLE", NumParams: 4},
	{ID: 2, Name: "SIMPLE_RADIAL", NumParams: 4},
	{ID: 3, Name: "RADIAL", NumParams: 5},
	{ID: 4, Name: "OPENCV", NumParams: 8},
	{ID: 5, Name: "OPENCV_FISHEYE", NumParams: 8},
	{ID: 6, Name: "FULL_OPENCV", NumParams: 12},
	{ID: 7, Name: "FOV", NumParams: 5},
	{ID: 8, Name: "SIMPLE_RADIAL_FISHEYE", NumParams: 4},
	{ID: 9, Name: "RADIAL_FISHEYE", NumParams: 5},
	{ID: 10, Name: "THIN_PRISM_FISHEYE", NumParams: 12},
}

// ModelByID resolves a camera model from its stable integer id.
func ModelByID(id int32) (CameraModel, error) {
	for _, m := range CameraModels {
		if m.ID == id {
			return m, nil
		}
	}
	return CameraModel{}, fmt.Errorf("%w: id %d", ErrUnknownModel, id)
}

// ModelByName resolves a camera model from its name.
func ModelByName(name string) (CameraModel, error) {
	for _, m := range CameraModels {
		if m.Name == name {
			return m, nil
		}
	}
	return CameraModel{}, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// Camera is a calibrated camera. Params must have exactly
// Model.NumParams entries.
type Camera struct {
	ID     uint32
	Model  CameraModel
	Width  uint64
	Height uint64
	Params []float64
}

// Validate checks the parameter vector against the model.
func (c Camera) Validate() error {
	if len(c.Params) != c.Model.NumParams {
		return fmt.Errorf("%w: camera %d has %d params, model %s wants %d",
			ErrParamCount, c.ID, len(c.Params), c.Model.Name, c.Model.NumParams)
	}
	return nil
}

// InvalidPoint3D marks a 2-D observation that is not associated with any
// 3-D point.
const InvalidPoint3D = ^uint64(0)

// Point2D is a pixel observation and the id of the 3-D point it observes
// (InvalidPoint3D when unobserved).
type Point2D struct {
	X         float64
	Y         float64
	Point3DID uint64
}

// Image is a posed image: orientation as a (w, x, y, z) quaternion,
// translation, owning camera, file name, and its ordered 2-D
// observations.
type Image struct {
	ID       uint32
	Quat     [4]float64 // w, x, y, z
	Trans    [3]float64
	CameraID uint32
	Name     string
	Points2D []Point2D
}

// Point3D is a reconstructed 3-D point with color, reprojection error and
// its observation track. ImageIDs and Point2DIdxs run in parallel: entry i
// means image ImageIDs[i] observes this point at local index
// Point2DIdxs[i].
type Point3D struct {
	ID          uint64
	XYZ         [3]float64
	RGB         [3]uint8
	Error       float64
	ImageIDs    []uint32
	Point2DIdxs []uint32
}

// Validate checks the observation track's parallel sequences.
func (p Point3D) Validate() error {
	if len(p.ImageIDs) != len(p.Point2DIdxs) {
		return fmt.Errorf("%w: point %d has %d image ids and %d indexes",
			ErrTrackMismatch, p.ID, len(p.ImageIDs), len(p.Point2DIdxs))
	}
	return nil
}

// Package nerfstudio converts COLMAP reconstructions into the
// transforms.json format consumed by Nerfstudio trainers.
package nerfstudio

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/mat"

	"github.com/bambi-eco/RARF/internal/colmap"
	"github.com/bambi-eco/RARF/internal/geo"
)

// ErrMultipleCameras reports a reconstruction with more than one camera;
// the transforms format shares a single intrinsic block across all
// frames.
var ErrMultipleCameras = errors.New("nerfstudio: only a single shared camera is supported")

// ErrUnsupportedModel reports a camera model other than OPENCV.
var ErrUnsupportedModel = errors.New("nerfstudio: only OPENCV camera models are supported")

// TransformFrame is one posed image in a transforms document.
type TransformFrame struct {
	FilePath        string         `json:"file_path"`
	TransformMatrix [4][4]float64  `json:"transform_matrix"`
}

// Transforms is the root transforms.json document: shared OPENCV
// intrinsics plus one camera-to-world matrix per image.
type Transforms struct {
	W           uint64           `json:"w"`
	H           uint64           `json:"h"`
	FlX         float64          `json:"fl_x"`
	FlY         float64          `json:"fl_y"`
	Cx          float64          `json:"cx"`
	Cy          float64          `json:"cy"`
	K1          float64          `json:"k1"`
	K2          float64          `json:"k2"`
	P1          float64          `json:"p1"`
	P2          float64          `json:"p2"`
	CameraModel string           `json:"camera_model"`
	Frames      []TransformFrame `json:"frames"`
}

// Build assembles a transforms document from a reconstruction. Image
// file paths are joined onto imagesRoot with forward slashes.
func Build(cameras []colmap.Camera, images []colmap.Image, imagesRoot string) (*Transforms, error) {
	if len(cameras) != 1 {
		return nil, fmt.Errorf("%w: got %d cameras", ErrMultipleCameras, len(cameras))
	}
	camera := cameras[0]
	if camera.Model.Name != "OPENCV" {
		return nil, fmt.Errorf("%w: got %q", ErrUnsupportedModel, camera.Model.Name)
	}
	if err := camera.Validate(); err != nil {
		return nil, err
	}

	out := &Transforms{
		W:           camera.Width,
		H:           camera.Height,
		FlX:         camera.Params[0],
		FlY:         camera.Params[1],
		Cx:          camera.Params[2],
		Cy:          camera.Params[3],
		K1:          camera.Params[4],
		K2:          camera.Params[5],
		P1:          camera.Params[6],
		P2:          camera.Params[7],
		CameraModel: "OPENCV",
	}

	convert, err := geo.Colmap.ConvertFunc(geo.NerfstudioWorld)
	if err != nil {
		return nil, fmt.Errorf("nerfstudio: build conversion: %w", err)
	}

	out.Frames = make([]TransformFrame, 0, len(images))
	for _, image := range images {
		q := geo.Quaternion{W: image.Quat[0], X: image.Quat[1], Y: image.Quat[2], Z: image.Quat[3]}
		rMat := convert(q.Mat())
		tVec := convert(mat.NewDense(3, 1, []float64{image.Trans[0], image.Trans[1], image.Trans[2]}))

		var c2w [4][4]float64
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				c2w[i][j] = rMat.At(i, j)
			}
			c2w[i][3] = tVec.At(i, 0)
		}
		c2w[3][3] = 1

		out.Frames = append(out.Frames, TransformFrame{
			FilePath:        path.Join(filepath.ToSlash(imagesRoot), image.Name),
			TransformMatrix: c2w,
		})
	}
	return out, nil
}

// Convert reads a COLMAP camera and image file, in binary or text
// format, and writes transforms.json into outputDir.
func Convert(cameraFile, imageFile, outputDir, imagesRoot string) error {
	cameras, err := colmap.ReadCameras(cameraFile)
	if err != nil {
		return fmt.Errorf("nerfstudio: read cameras: %w", err)
	}
	images, err := colmap.ReadImages(imageFile)
	if err != nil {
		return fmt.Errorf("nerfstudio: read images: %w", err)
	}

	out, err := Build(cameras, images, imagesRoot)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return fmt.Errorf("nerfstudio: marshal transforms: %w", err)
	}
	target := filepath.Join(outputDir, "transforms.json")
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("nerfstudio: write %s: %w", target, err)
	}
	return nil
}

package colmap

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// The text formats are whitespace-delimited lines:
//
//	cameras:  "id model_name width height params..."
//	images:   two lines per image: "id qw qx qy qz tx ty tz camera_id name"
//	          followed by the observation line of repeated "x y point3D_id"
//	          triples (blank when the image has no observations)
//	points3D: "id x y z r g b error imageID point2DIdx ..."
//
// Lines starting with '#' are comments. The observation and track
// orderings above are this implementation's convention; both reader and
// writer use it, making the pair mutually inverse.

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// EncodeCamerasText writes cameras in the text camera layout.
func EncodeCamerasText(w io.Writer, cameras []Camera) error {
	bw := bufio.NewWriter(w)
	for _, c := range cameras {
		if err := c.Validate(); err != nil {
			return err
		}
		fields := []string{
			strconv.FormatUint(uint64(c.ID), 10),
			c.Model.Name,
			strconv.FormatUint(c.Width, 10),
			strconv.FormatUint(c.Height, 10),
		}
		for _, p := range c.Params {
			fields = append(fields, formatFloat(p))
		}
		if _, err := fmt.Fprintln(bw, strings.Join(fields, " ")); err != nil {
			return fmt.Errorf("encode cameras text: %w", err)
		}
	}
	return bw.Flush()
}

// DecodeCamerasText reads all cameras from a text camera stream.
func DecodeCamerasText(r io.Reader) ([]Camera, error) {
	var cameras []Camera
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return nil, fmt.Errorf("colmap: malformed camera line %q", line)
		}
		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("colmap: camera id %q: %w", fields[0], err)
		}
		model, err := ModelByName(fields[1])
		if err != nil {
			return nil, err
		}
		width, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("colmap: camera width %q: %w", fields[2], err)
		}
		height, err := strconv.ParseUint(fields[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("colmap: camera height %q: %w", fields[3], err)
		}
		params := make([]float64, 0, len(fields)-4)
		for _, s := range fields[4:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("colmap: camera param %q: %w", s, err)
			}
			params = append(params, v)
		}
		c := Camera{ID: uint32(id), Model: model, Width: width, Height: height, Params: params}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		cameras = append(cameras, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("decode cameras text: %w", err)
	}
	return cameras, nil
}

// EncodeImagesText writes posed images in the two-line text layout.
func EncodeImagesText(w io.Writer, images []Image) error {
	bw := bufio.NewWriter(w)
	for _, img := range images {
		fields := []string{strconv.FormatUint(uint64(img.ID), 10)}
		for _, q := range img.Quat {
			fields = append(fields, formatFloat(q))
		}
		for _, t := range img.Trans {
			fields = append(fields, formatFloat(t))
		}
		fields = append(fields, strconv.FormatUint(uint64(img.CameraID), 10), img.Name)
		if _, err := fmt.Fprintln(bw, strings.Join(fields, " ")); err != nil {
			return fmt.Errorf("encode images text: %w", err)
		}

		obs := make([]string, 0, 3*len(img.Points2D))
		for _, p := range img.Points2D {
			obs = append(obs, formatFloat(p.X), formatFloat(p.Y), strconv.FormatUint(p.Point3DID, 10))
		}
		if _, err := fmt.Fprintln(bw, strings.Join(obs, " ")); err != nil {
			return fmt.Errorf("encode images text: %w", err)
		}
	}
	return bw.Flush()
}

// DecodeImagesText reads all posed images from a text image stream. The
// observation line directly follows each pose line and may be blank.
func DecodeImagesText(r io.Reader) ([]Image, error) {
	var images []Image
	br := bufio.NewReader(r)
	for {
		poseLine, err := readPoseLine(br)
		if err == io.EOF {
			return images, nil
		}
		if err != nil {
			return nil, err
		}

		fields := strings.Fields(poseLine)
		if len(fields) < 10 {
			return nil, fmt.Errorf("colmap: malformed image line %q", poseLine)
		}
		var img Image
		id, err := strconv.ParseUint(fields[0], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("colmap: image id %q: %w", fields[0], err)
		}
		img.ID = uint32(id)
		for i := 0; i < 4; i++ {
			if img.Quat[i], err = strconv.ParseFloat(fields[1+i], 64); err != nil {
				return nil, fmt.Errorf("colmap: image quaternion %q: %w", fields[1+i], err)
			}
		}
		for i := 0; i < 3; i++ {
			if img.Trans[i], err = strconv.ParseFloat(fields[5+i], 64); err != nil {
				return nil, fmt.Errorf("colmap: image translation %q: %w", fields[5+i], err)
			}
		}
		camID, err := strconv.ParseUint(fields[8], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("colmap: image camera id %q: %w", fields[8], err)
		}
		img.CameraID = uint32(camID)
		img.Name = strings.Join(fields[9:], " ")

		obsLine, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode images text: %w", err)
		}
		obsFields := strings.Fields(obsLine)
		if len(obsFields)%3 != 0 {
			return nil, fmt.Errorf("colmap: observation line of image %d is not a sequence of x y point3D triples", img.ID)
		}
		for i := 0; i < len(obsFields); i += 3 {
			var p Point2D
			if p.X, err = strconv.ParseFloat(obsFields[i], 64); err != nil {
				return nil, fmt.Errorf("colmap: observation x %q: %w", obsFields[i], err)
			}
			if p.Y, err = strconv.ParseFloat(obsFields[i+1], 64); err != nil {
				return nil, fmt.Errorf("colmap: observation y %q: %w", obsFields[i+1], err)
			}
			if p.Point3DID, err = strconv.ParseUint(obsFields[i+2], 10, 64); err != nil {
				return nil, fmt.Errorf("colmap: observation point3D id %q: %w", obsFields[i+2], err)
			}
			img.Points2D = append(img.Points2D, p)
		}
		images = append(images, img)
	}
}

// readPoseLine skips blank and comment lines and returns the next pose
// line, or io.EOF when the stream is exhausted.
func readPoseLine(br *bufio.Reader) (string, error) {
	for {
		line, err := br.ReadString('\n')
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			return trimmed, nil
		}
		if err != nil {
			if err == io.EOF {
				return "", io.EOF
			}
			return "", fmt.Errorf("decode images text: %w", err)
		}
	}
}

// EncodePoints3DText writes 3-D points in the text point layout.
func EncodePoints3DText(w io.Writer, points []Point3D) error {
	bw := bufio.NewWriter(w)
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return err
		}
		fields := []string{strconv.FormatUint(p.ID, 10)}
		for _, v := range p.XYZ {
			fields = append(fields, formatFloat(v))
		}
		for _, v := range p.RGB {
			fields = append(fields, strconv.Itoa(int(v)))
		}
		fields = append(fields, formatFloat(p.Error))
		for i := range p.ImageIDs {
			fields = append(fields,
				strconv.FormatUint(uint64(p.ImageIDs[i]), 10),
				strconv.FormatUint(uint64(p.Point2DIdxs[i]), 10))
		}
		if _, err := fmt.Fprintln(bw, strings.Join(fields, " ")); err != nil {
			return fmt.Errorf("encode points3D text: %w", err)
		}
	}
	return bw.Flush()
}

// DecodePoints3DText reads all 3-D points from a text point stream.
func DecodePoints3DText(r io.Reader) ([]Point3D, error) {
	var points []Point3D
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 8 || (len(fields)-8)%2 != 0 {
			return nil, fmt.Errorf("colmap: malformed point3D line %q", line)
		}
		var p Point3D
		var err error
		if p.ID, err = strconv.ParseUint(fields[0], 10, 64); err != nil {
			return nil, fmt.Errorf("colmap: point3D id %q: %w", fields[0], err)
		}
		for i := 0; i < 3; i++ {
			if p.XYZ[i], err = strconv.ParseFloat(fields[1+i], 64); err != nil {
				return nil, fmt.Errorf("colmap: point3D position %q: %w", fields[1+i], err)
			}
		}
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(fields[4+i], 10, 8)
			if err != nil {
				return nil, fmt.Errorf("colmap: point3D color %q: %w", fields[4+i], err)
			}
			p.RGB[i] = uint8(v)
		}
		if p.Error, err = strconv.ParseFloat(fields[7], 64); err != nil {
			return nil, fmt.Errorf("colmap: point3D error %q: %w", fields[7], err)
		}
		for i := 8; i < len(fields); i += 2 {
			imgID, err := strconv.ParseUint(fields[i], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("colmap: track image id %q: %w", fields[i], err)
			}
			idx, err := strconv.ParseUint(fields[i+1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("colmap: track point2D index %q: %w", fields[i+1], err)
			}
			p.ImageIDs = append(p.ImageIDs, uint32(imgID))
			p.Point2DIdxs = append(p.Point2DIdxs, uint32(idx))
		}
		points = append(points, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("decode points3D text: %w", err)
	}
	return points, nil
}

// File-level text helpers, mirroring the binary entry points.

// WriteCamerasText writes cameras to a file in the text layout.
func WriteCamerasText(path string, cameras []Camera) error {
	return writeFile(path, func(f *os.File) error { return EncodeCamerasText(f, cameras) })
}

// ReadCamerasText reads all cameras from a text camera file.
func ReadCamerasText(path string) ([]Camera, error) {
	var cameras []Camera
	err := readFile(path, func(f *os.File) error {
		var err error
		cameras, err = DecodeCamerasText(f)
		return err
	})
	return cameras, err
}

// WriteImagesText writes posed images to a file in the text layout.
func WriteImagesText(path string, images []Image) error {
	return writeFile(path, func(f *os.File) error { return EncodeImagesText(f, images) })
}

// ReadImagesText reads all posed images from a text image file.
func ReadImagesText(path string) ([]Image, error) {
	var images []Image
	err := readFile(path, func(f *os.File) error {
		var err error
		images, err = DecodeImagesText(f)
		return err
	})
	return images, err
}

// WritePoints3DText writes 3-D points to a file in the text layout.
func WritePoints3DText(path string, points []Point3D) error {
	return writeFile(path, func(f *os.File) error { return EncodePoints3DText(f, points) })
}

// ReadPoints3DText reads all 3-D points from a text point file.
func ReadPoints3DText(path string) ([]Point3D, error) {
	var points []Point3D
	err := readFile(path, func(f *os.File) error {
		var err error
		points, err = DecodePoints3DText(f)
		return err
	})
	return points, err
}

// ReadCameras reads a camera file, choosing the binary codec for the
// ".bin" extension and the text codec otherwise.
func ReadCameras(path string) ([]Camera, error) {
	if strings.HasSuffix(path, ".bin") {
		return ReadCamerasBinary(path)
	}
	return ReadCamerasText(path)
}

// ReadImages reads an image file, choosing the binary codec for the
// ".bin" extension and the text codec otherwise.
func ReadImages(path string) ([]Image, error) {
	if strings.HasSuffix(path, ".bin") {
		return ReadImagesBinary(path)
	}
	return ReadImagesText(path)
}

// ReadPoints3D reads a point file, choosing the binary codec for the
// ".bin" extension and the text codec otherwise.
func ReadPoints3D(path string) ([]Point3D, error) {
	if strings.HasSuffix(path, ".bin") {
		return ReadPoints3DBinary(path)
	}
	return ReadPoints3DText(path)
}

package colmap

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// The binary formats are sequences of little-endian fixed-width records:
//
//	cameras:  u64 count | per camera: u32 id, i32 model, u64 w, u64 h, f64 params[numParams]
//	images:   u64 count | per image:  u32 id, f64 quat[4], f64 trans[3], u32 camera,
//	          name NUL-terminated, u64 numObs, per obs: f64 x, f64 y, u64 point3D
//	points3D: u64 count | per point:  u64 id, f64 xyz[3], u8 rgb[3], f64 error,
//	          u64 trackLen, per entry: u32 imageID, u32 point2DIdx

var byteOrder = binary.LittleEndian

type binaryWriter struct {
	w   *bufio.Writer
	err error
}

func (bw *binaryWriter) write(v any) {
	if bw.err != nil {
		return
	}
	bw.err = binary.Write(bw.w, byteOrder, v)
}

func (bw *binaryWriter) writeString(s string) {
	if bw.err != nil {
		return
	}
	if _, err := bw.w.WriteString(s); err != nil {
		bw.err = err
		return
	}
	bw.err = bw.w.WriteByte(0)
}

type binaryReader struct {
	r   *bufio.Reader
	err error
}

func (br *binaryReader) read(v any) {
	if br.err != nil {
		return
	}
	br.err = binary.Read(br.r, byteOrder, v)
}

func (br *binaryReader) readU32() uint32 {
	var v uint32
	br.read(&v)
	return v
}

func (br *binaryReader) readU64() uint64 {
	var v uint64
	br.read(&v)
	return v
}

func (br *binaryReader) readF64() float64 {
	var v uint64
	br.read(&v)
	return math.Float64frombits(v)
}

func (br *binaryReader) readString() string {
	if br.err != nil {
		return ""
	}
	s, err := br.r.ReadBytes(0)
	if err != nil {
		br.err = err
		return ""
	}
	return string(s[:len(s)-1])
}

// EncodeCameras writes cameras in the binary camera layout.
func EncodeCameras(w io.Writer, cameras []Camera) error {
	for _, c := range cameras {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	bw := &binaryWriter{w: bufio.NewWriter(w)}
	bw.write(uint64(len(cameras)))
	for _, c := range cameras {
		bw.write(c.ID)
		bw.write(c.Model.ID)
		bw.write(c.Width)
		bw.write(c.Height)
		for _, p := range c.Params {
			bw.write(p)
		}
	}
	if bw.err != nil {
		return fmt.Errorf("encode cameras: %w", bw.err)
	}
	return bw.w.Flush()
}

// CameraDecoder streams cameras from a binary camera file.
type CameraDecoder struct {
	br        *binaryReader
	remaining uint64
}

// NewCameraDecoder reads the record count and prepares the stream.
func NewCameraDecoder(r io.Reader) (*CameraDecoder, error) {
	br := &binaryReader{r: bufio.NewReader(r)}
	n := br.readU64()
	if br.err != nil {
		return nil, fmt.Errorf("decode camera count: %w", br.err)
	}
	return &CameraDecoder{br: br, remaining: n}, nil
}

// Len returns the number of records not yet decoded.
func (d *CameraDecoder) Len() uint64 { return d.remaining }

// Next decodes the next camera, returning io.EOF after the last record.
func (d *CameraDecoder) Next() (Camera, error) {
	if d.remaining == 0 {
		return Camera{}, io.EOF
	}
	var c Camera
	c.ID = d.br.readU32()
	var modelID int32
	d.br.read(&modelID)
	c.Width = d.br.readU64()
	c.Height = d.br.readU64()
	if d.br.err != nil {
		return Camera{}, fmt.Errorf("decode camera: %w", d.br.err)
	}
	model, err := ModelByID(modelID)
	if err != nil {
		return Camera{}, err
	}
	c.Model = model
	c.Params = make([]float64, model.NumParams)
	for i := range c.Params {
		c.Params[i] = d.br.readF64()
	}
	if d.br.err != nil {
		return Camera{}, fmt.Errorf("decode camera params: %w", d.br.err)
	}
	d.remaining--
	return c, nil
}

// EncodeImages writes posed images in the binary image layout.
func EncodeImages(w io.Writer, images []Image) error {
	bw := &binaryWriter{w: bufio.NewWriter(w)}
	bw.write(uint64(len(images)))
	for _, img := range images {
		bw.write(img.ID)
		for _, q := range img.Quat {
			bw.write(q)
		}
		for _, t := range img.Trans {
			bw.write(t)
		}
		bw.write(img.CameraID)
		bw.writeString(img.Name)
		bw.write(uint64(len(img.Points2D)))
		for _, p := range img.Points2D {
			bw.write(p.X)
			bw.write(p.Y)
			bw.write(p.Point3DID)
		}
	}
	if bw.err != nil {
		return fmt.Errorf("encode images: %w", bw.err)
	}
	return bw.w.Flush()
}

// ImageDecoder streams posed images from a binary image file.
type ImageDecoder struct {
	br        *binaryReader
	remaining uint64
}

// NewImageDecoder reads the record count and prepares the stream.
func NewImageDecoder(r io.Reader) (*ImageDecoder, error) {
	br := &binaryReader{r: bufio.NewReader(r)}
	n := br.readU64()
	if br.err != nil {
		return nil, fmt.Errorf("decode image count: %w", br.err)
	}
	return &ImageDecoder{br: br, remaining: n}, nil
}

// Len returns the number of records not yet decoded.
func (d *ImageDecoder) Len() uint64 { return d.remaining }

// Next decodes the next image, returning io.EOF after the last record.
func (d *ImageDecoder) Next() (Image, error) {
	if d.remaining == 0 {
		return Image{}, io.EOF
	}
	var img Image
	img.ID = d.br.readU32()
	for i := range img.Quat {
		img.Quat[i] = d.br.readF64()
	}
	for i := range img.Trans {
		img.Trans[i] = d.br.readF64()
	}
	img.CameraID = d.br.readU32()
	img.Name = d.br.readString()
	numObs := d.br.readU64()
	if d.br.err != nil {
		return Image{}, fmt.Errorf("decode image: %w", d.br.err)
	}
	img.Points2D = make([]Point2D, 0, numObs)
	for i := uint64(0); i < numObs; i++ {
		var p Point2D
		p.X = d.br.readF64()
		p.Y = d.br.readF64()
		p.Point3DID = d.br.readU64()
		img.Points2D = append(img.Points2D, p)
	}
	if d.br.err != nil {
		return Image{}, fmt.Errorf("decode image observations: %w", d.br.err)
	}
	d.remaining--
	return img, nil
}

// EncodePoints3D writes 3-D points in the binary point layout.
func EncodePoints3D(w io.Writer, points []Point3D) error {
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	bw := &binaryWriter{w: bufio.NewWriter(w)}
	bw.write(uint64(len(points)))
	for _, p := range points {
		bw.write(p.ID)
		for _, v := range p.XYZ {
			bw.write(v)
		}
		for _, v := range p.RGB {
			bw.write(v)
		}
		bw.write(p.Error)
		bw.write(uint64(len(p.ImageIDs)))
		for i := range p.ImageIDs {
			bw.write(p.ImageIDs[i])
			bw.write(p.Point2DIdxs[i])
		}
	}
	if bw.err != nil {
		return fmt.Errorf("encode points3D: %w", bw.err)
	}
	return bw.w.Flush()
}

// Point3DDecoder streams 3-D points from a binary point file.
type Point3DDecoder struct {
	br        *binaryReader
	remaining uint64
}

// NewPoint3DDecoder reads the record count and prepares the stream.
func NewPoint3DDecoder(r io.Reader) (*Point3DDecoder, error) {
	br := &binaryReader{r: bufio.NewReader(r)}
	n := br.readU64()
	if br.err != nil {
		return nil, fmt.Errorf("decode point3D count: %w", br.err)
	}
	return &Point3DDecoder{br: br, remaining: n}, nil
}

// Len returns the number of records not yet decoded.
func (d *Point3DDecoder) Len() uint64 { return d.remaining }

// Next decodes the next 3-D point, returning io.EOF after the last record.
func (d *Point3DDecoder) Next() (Point3D, error) {
	if d.remaining == 0 {
		return Point3D{}, io.EOF
	}
	var p Point3D
	p.ID = d.br.readU64()
	for i := range p.XYZ {
		p.XYZ[i] = d.br.readF64()
	}
	d.br.read(&p.RGB)
	p.Error = d.br.readF64()
	trackLen := d.br.readU64()
	if d.br.err != nil {
		return Point3D{}, fmt.Errorf("decode point3D: %w", d.br.err)
	}
	p.ImageIDs = make([]uint32, 0, trackLen)
	p.Point2DIdxs = make([]uint32, 0, trackLen)
	for i := uint64(0); i < trackLen; i++ {
		p.ImageIDs = append(p.ImageIDs, d.br.readU32())
		p.Point2DIdxs = append(p.Point2DIdxs, d.br.readU32())
	}
	if d.br.err != nil {
		return Point3D{}, fmt.Errorf("decode point3D track: %w", d.br.err)
	}
	d.remaining--
	return p, nil
}

// WriteCamerasBinary writes cameras to a file in the binary layout.
func WriteCamerasBinary(path string, cameras []Camera) error {
	return writeFile(path, func(f *os.File) error { return EncodeCameras(f, cameras) })
}

// ReadCamerasBinary reads all cameras from a binary camera file.
func ReadCamerasBinary(path string) ([]Camera, error) {
	var cameras []Camera
	err := readFile(path, func(f *os.File) error {
		d, err := NewCameraDecoder(f)
		if err != nil {
			return err
		}
		cameras = make([]Camera, 0, d.Len())
		for {
			c, err := d.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			cameras = append(cameras, c)
		}
	})
	return cameras, err
}

// WriteImagesBinary writes posed images to a file in the binary layout.
func WriteImagesBinary(path string, images []Image) error {
	return writeFile(path, func(f *os.File) error { return EncodeImages(f, images) })
}

// ReadImagesBinary reads all posed images from a binary image file.
func ReadImagesBinary(path string) ([]Image, error) {
	var images []Image
	err := readFile(path, func(f *os.File) error {
		d, err := NewImageDecoder(f)
		if err != nil {
			return err
		}
		images = make([]Image, 0, d.Len())
		for {
			img, err := d.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			images = append(images, img)
		}
	})
	return images, err
}

// WritePoints3DBinary writes 3-D points to a file in the binary layout.
func WritePoints3DBinary(path string, points []Point3D) error {
	return writeFile(path, func(f *os.File) error { return EncodePoints3D(f, points) })
}

// ReadPoints3DBinary reads all 3-D points from a binary point file.
func ReadPoints3DBinary(path string) ([]Point3D, error) {
	var points []Point3D
	err := readFile(path, func(f *os.File) error {
		d, err := NewPoint3DDecoder(f)
		if err != nil {
			return err
		}
		points = make([]Point3D, 0, d.Len())
		for {
			p, err := d.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			points = append(points, p)
		}
	})
	return points, err
}

// writeFile creates path and runs fn against the handle, closing it on
// every exit path.
func writeFile(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// readFile opens path and runs fn against the handle.
func readFile(path string, fn func(*os.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return fn(f)
}

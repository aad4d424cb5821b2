// Package stl writes triangle meshes as binary STL, the common
// interchange format for slicers and printing services.
package stl

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Boceto3D/Weave-B3D/pkg/kernel"
)

// Meshes is a set of meshes written into one STL body, typically the
// rope meshes of a single weave run.
type Meshes []*kernel.Mesh

// headerSize is the fixed binary STL header length.
const headerSize = 80

// Write encodes m as binary STL onto w: an 80-byte header, a uint32
// triangle count, then 50 bytes per triangle (normal, three vertices,
// attribute byte count). Per-triangle normals are recomputed from the
// winding so downstream tools never see stale vertex normals.
func Write(w io.Writer, m Meshes) error {
	total := 0
	for _, mesh := range m {
		if mesh != nil {
			total += mesh.TriangleCount()
		}
	}
	if total == 0 {
		return fmt.Errorf("stl: nothing to write, all meshes empty")
	}

	bw := bufio.NewWriter(w)

	var header [headerSize]byte
	copy(header[:], "binary stl")
	if _, err := bw.Write(header[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(total)); err != nil {
		return err
	}

	var buf [50]byte
	for _, mesh := range m {
		if mesh == nil {
			continue
		}
		for t := 0; t < mesh.TriangleCount(); t++ {
			i0 := mesh.Indices[3*t] * 3
			i1 := mesh.Indices[3*t+1] * 3
			i2 := mesh.Indices[3*t+2] * 3

			var v0, v1, v2 [3]float32
			copy(v0[:], mesh.Vertices[i0:i0+3])
			copy(v1[:], mesh.Vertices[i1:i1+3])
			copy(v2[:], mesh.Vertices[i2:i2+3])

			n := faceNormal(v0, v1, v2)
			off := 0
			for _, vec := range [][3]float32{n, v0, v1, v2} {
				for _, f := range vec {
					binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
					off += 4
				}
			}
			buf[48] = 0 // attribute byte count
			buf[49] = 0
			if _, err := bw.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteFile writes m to path, creating or truncating the file.
func WriteFile(path string, m Meshes) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// faceNormal returns the unit normal of a counter-clockwise triangle.
// Degenerate triangles get a zero normal, which STL consumers accept.
func faceNormal(v0, v1, v2 [3]float32) [3]float32 {
	ax := float64(v1[0] - v0[0])
	ay := float64(v1[1] - v0[1])
	az := float64(v1[2] - v0[2])
	bx := float64(v2[0] - v0[0])
	by := float64(v2[1] - v0[1])
	bz := float64(v2[2] - v0[2])

	nx := ay*bz - az*by
	ny := az*bx - ax*bz
	nz := ax*by - ay*bx
	l := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if l == 0 {
		return [3]float32{}
	}
	return [3]float32{float32(nx / l), float32(ny / l), float32(nz / l)}
}

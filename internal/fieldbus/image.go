// internal/fieldbus/image.go
package fieldbus

import "encoding/binary"

// Image is the shared process image. All multi-byte accessors are
// little-endian, matching the wire representation of the drives.
// Offsets come from Register and are only valid after Activate.
type Image []byte

func (im Image) U8(off uint32) uint8 {
	return im[off]
}

func (im Image) PutU8(off uint32, v uint8) {
	im[off] = v
}

func (im Image) S8(off uint32) int8 {
	return int8(im[off])
}

func (im Image) PutS8(off uint32, v int8) {
	im[off] = uint8(v)
}

func (im Image) U16(off uint32) uint16 {
	return binary.LittleEndian.Uint16(im[off:])
}

func (im Image) PutU16(off uint32, v uint16) {
	binary.LittleEndian.PutUint16(im[off:], v)
}

func (im Image) U32(off uint32) uint32 {
	return binary.LittleEndian.Uint32(im[off:])
}

func (im Image) PutU32(off uint32, v uint32) {
	binary.LittleEndian.PutUint32(im[off:], v)
}

func (im Image) S32(off uint32) int32 {
	return int32(binary.LittleEndian.Uint32(im[off:]))
}

func (im Image) PutS32(off uint32, v int32) {
	binary.LittleEndian.PutUint32(im[off:], uint32(v))
}

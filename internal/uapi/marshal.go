package uapi

import "encoding/binary"

// MarshalError reports a wire-format problem encountered while
// marshaling or unmarshaling a descriptor.
type MarshalError string

func (e MarshalError) Error() string { return string(e) }

const (
	ErrInsufficientData MarshalError = "insufficient data for descriptor"
)

// MarshalDescriptor writes d into buf in wire order. buf must be at
// least DescriptorSize bytes.
func MarshalDescriptor(d *Descriptor, buf []byte) error {
	if len(buf) < DescriptorSize {
		return ErrInsufficientData
	}

	binary.LittleEndian.PutUint32(buf[0:4], d.Control)
	binary.LittleEndian.PutUint32(buf[4:8], d.ByteCount)
	binary.LittleEndian.PutUint64(buf[8:16], d.SystemAddress)
	binary.LittleEndian.PutUint64(buf[16:24], d.CardAddress)
	binary.LittleEndian.PutUint64(buf[24:32], d.NextAddress)

	return nil
}

// UnmarshalDescriptor reads a Descriptor out of buf.
func UnmarshalDescriptor(buf []byte, d *Descriptor) error {
	if len(buf) < DescriptorSize {
		return ErrInsufficientData
	}

	d.Control = binary.LittleEndian.Uint32(buf[0:4])
	d.ByteCount = binary.LittleEndian.Uint32(buf[4:8])
	d.SystemAddress = binary.LittleEndian.Uint64(buf[8:16])
	d.CardAddress = binary.LittleEndian.Uint64(buf[16:24])
	d.NextAddress = binary.LittleEndian.Uint64(buf[24:32])

	return nil
}

// PutDescriptorAt marshals d directly into the descriptor slot at
// index idx within a coherent byte buffer holding a packed array of
// descriptors.
func PutDescriptorAt(buf []byte, idx int, d *Descriptor) error {
	off := idx * DescriptorSize
	if off+DescriptorSize > len(buf) {
		return ErrInsufficientData
	}
	return MarshalDescriptor(d, buf[off:off+DescriptorSize])
}

// DescriptorAt unmarshals the descriptor at index idx within a packed
// descriptor array.
func DescriptorAt(buf []byte, idx int) (Descriptor, error) {
	var d Descriptor
	off := idx * DescriptorSize
	if off+DescriptorSize > len(buf) {
		return d, ErrInsufficientData
	}
	err := UnmarshalDescriptor(buf[off:off+DescriptorSize], &d)
	return d, err
}

package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/duskraft/mrstate-go/internal/core/domain"
)

// Encode serializes an OperationPayload to an opaque byte buffer:
// a one-byte variant tag followed by the variant's fields. Strings are
// length-prefixed UTF-8 (uint32 length, then bytes); a key list is a
// uint32 count followed by that many length-prefixed strings; integers
// are signed 32-bit.
//
// All multi-byte fields use the host's native byte order
// (binary.NativeEndian). This makes the wire format unsuitable for
// exchange between hosts of differing endianness — an accepted,
// documented limitation rather than a portable wire protocol.
func Encode(p domain.OperationPayload) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(p.Kind))

	switch p.Kind {
	case domain.OpInsertValue, domain.OpDeleteValue:
		writeString(&buf, p.Key)
		writeInt32(&buf, p.Value)
	case domain.OpDeleteKey:
		writeString(&buf, p.Key)
	case domain.OpMapReduce:
		writeString(&buf, p.MapOp)
		writeString(&buf, p.ReduceOp)
		writeStringList(&buf, p.Keys)
	}

	return buf.Bytes()
}

// Decode parses the byte buffer produced by Encode back into an
// OperationPayload. It returns domain.ErrCorruptPayload if the buffer is
// truncated, and domain.ErrUnknownPayloadType if the variant tag is not
// recognized.
func Decode(data []byte) (domain.OperationPayload, error) {
	r := bytes.NewReader(data)

	tagByte, err := r.ReadByte()
	if err != nil {
		return domain.OperationPayload{}, domain.ErrCorruptPayload.WithCause(err)
	}
	kind := domain.OperationKind(tagByte)

	var p domain.OperationPayload
	p.Kind = kind

	switch kind {
	case domain.OpInsertValue, domain.OpDeleteValue:
		key, err := readString(r)
		if err != nil {
			return domain.OperationPayload{}, domain.ErrCorruptPayload.WithCause(err)
		}
		value, err := readInt32(r)
		if err != nil {
			return domain.OperationPayload{}, domain.ErrCorruptPayload.WithCause(err)
		}
		p.Key = key
		p.Value = value
	case domain.OpDeleteKey:
		key, err := readString(r)
		if err != nil {
			return domain.OperationPayload{}, domain.ErrCorruptPayload.WithCause(err)
		}
		p.Key = key
	case domain.OpMapReduce:
		mapOp, err := readString(r)
		if err != nil {
			return domain.OperationPayload{}, domain.ErrCorruptPayload.WithCause(err)
		}
		reduceOp, err := readString(r)
		if err != nil {
			return domain.OperationPayload{}, domain.ErrCorruptPayload.WithCause(err)
		}
		keys, err := readStringList(r)
		if err != nil {
			return domain.OperationPayload{}, domain.ErrCorruptPayload.WithCause(err)
		}
		p.MapOp = mapOp
		p.ReduceOp = reduceOp
		p.Keys = keys
	default:
		return domain.OperationPayload{}, domain.ErrUnknownPayloadType.WithDetails(fmt.Sprintf("tag=%d", tagByte))
	}

	return p, nil
}

func writeString(buf *bytes.Buffer, s string) {
	var lenBuf [4]byte
	binary.NativeEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func writeInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func writeStringList(buf *bytes.Buffer, items []string) {
	var countBuf [4]byte
	binary.NativeEndian.PutUint32(countBuf[:], uint32(len(items)))
	buf.Write(countBuf[:])
	for _, s := range items {
		writeString(buf, s)
	}
}

func readString(r *bytes.Reader) (string, error) {
	var lenBuf [4]byte
	if _, err := readFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.NativeEndian.Uint32(lenBuf[:])
	strBuf := make([]byte, n)
	if _, err := readFull(r, strBuf); err != nil {
		return "", err
	}
	return string(strBuf), nil
}

func readInt32(r *bytes.Reader) (int32, error) {
	var b [4]byte
	if _, err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return int32(binary.NativeEndian.Uint32(b[:])), nil
}

func readStringList(r *bytes.Reader) ([]string, error) {
	var countBuf [4]byte
	if _, err := readFull(r, countBuf[:]); err != nil {
		return nil, err
	}
	n := binary.NativeEndian.Uint32(countBuf[:])
	out := make([]string, 0, n)
	for i := uint32(0); i < n; i++ {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func readFull(r *bytes.Reader, buf []byte) (int, error) {
	return io.ReadFull(r, buf)
}

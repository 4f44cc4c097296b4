package parser

import (
	"encoding/binary"
)

// Tag is the type of a tape entry, stored in its top byte.
type Tag byte

const (
	TagRoot        Tag = 'r'
	TagObjectStart Tag = '{'
	TagObjectEnd   Tag = '}'
	TagArrayStart  Tag = '['
	TagArrayEnd    Tag = ']'
	TagString      Tag = '"'
	TagInt64       Tag = 'l'
	TagUint64      Tag = 'u'
	TagFloat64     Tag = 'd'
	TagTrue        Tag = 't'
	TagFalse       Tag = 'f'
	TagNull        Tag = 'n'
)

const (
	tagShift = 56

	// PayloadMask selects the low 56 bits of an entry.
	PayloadMask = 1<<tagShift - 1

	// MaxCount is the largest element count a container start entry records;
	// larger containers saturate at it.
	MaxCount = 0xFFFFFF
)

func (t Tag) String() string {
	switch t {
	case TagRoot:
		return "root"
	case TagObjectStart:
		return "object"
	case TagObjectEnd:
		return "object end"
	case TagArrayStart:
		return "array"
	case TagArrayEnd:
		return "array end"
	case TagString:
		return "string"
	case TagInt64:
		return "int64"
	case TagUint64:
		return "uint64"
	case TagFloat64:
		return "float64"
	case TagTrue, TagFalse:
		return "bool"
	case TagNull:
		return "null"
	}
	return "invalid"
}

// HasValueWord reports whether entries of this tag are followed by a raw
// 64-bit value.
func (t Tag) HasValueWord() bool {
	return t == TagInt64 || t == TagUint64 || t == TagFloat64
}

// Entry packs a tag and a payload.
func Entry(t Tag, payload uint64) uint64 {
	return uint64(t)<<tagShift | payload&PayloadMask
}

// EntryTag returns the tag of a tape entry.
func EntryTag(e uint64) Tag {
	return Tag(e >> tagShift)
}

// EntryPayload returns the payload of a tape entry.
func EntryPayload(e uint64) uint64 {
	return e & PayloadMask
}

// ContainerPayload packs the element count and matching end index of a start
// entry.
func ContainerPayload(count, end int) uint64 {
	if count > MaxCount {
		count = MaxCount
	}
	return uint64(count)<<32 | uint64(uint32(end))
}

// ContainerEnd returns the tape index of the end entry of a start entry.
func ContainerEnd(e uint64) int {
	return int(uint32(e))
}

// ContainerCount returns the element count recorded in a start entry.
func ContainerCount(e uint64) int {
	return int(EntryPayload(e) >> 32)
}

// StringAt returns the string whose length prefix starts at off in the
// string buffer.
func StringAt(strs []byte, off uint64) []byte {
	n := binary.LittleEndian.Uint32(strs[off:])
	start := off + 4
	return strs[start : start+uint64(n) : start+uint64(n)]
}

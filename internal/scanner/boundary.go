package scanner

// documentBoundary walks the index backwards and returns how many leading
// structurals belong to complete documents. A document starts at a value
// structural that does not follow an opening bracket, a colon or a comma.
func documentBoundary(data []byte, idx []uint32) int {
	arrays, objects := 0, 0
	for i := len(idx) - 1; i > 0; i-- {
		switch data[idx[i]] {
		case ':', ',':
			continue
		case '}':
			objects--
			continue
		case ']':
			arrays--
			continue
		case '{':
			objects++
		case '[':
			arrays++
		}
		switch data[idx[i-1]] {
		case '{', '[', ':', ',':
			continue
		}
		if arrays == 0 && objects == 0 {
			return len(idx)
		}
		return i
	}

	switch data[idx[0]] {
	case '}':
		objects--
	case ']':
		arrays--
	case '{':
		objects++
	case '[':
		arrays++
	}
	if arrays == 0 && objects == 0 {
		return len(idx)
	}
	return 0
}

// scalarTouches reports whether the number or literal starting at off runs
// into the end of the window, where more of it may follow.
func scalarTouches(data []byte, off, to int) bool {
	switch data[off] {
	case '{', '}', '[', ']', ':', ',', '"':
		return false
	}
	for off < to && !IsDelimiter(data[off]) {
		off++
	}
	return off == to
}

package mmap

var pageSize = osPageSize()

// PageSize returns the system page size in bytes.
func PageSize() int {
	return pageSize
}

// PageAlignedSize rounds size up to the next multiple of the page size.
func PageAlignedSize(size int) int {
	mask := pageSize - 1
	return (size + mask) &^ mask
}

package widget

// nextStart advances a page offset by one page. Once the offset passes the
// last page of the window it wraps back to zero, so the offset never exceeds
// maxPages*size.
func nextStart(start, size, maxPages int) int {
	start += size
	if start > maxPages*size {
		start = 0
	}
	return start
}

package detection

// TraceContours finds connected regions of strong edge pixels.
//
// Pixels are scanned in row-major order. Each unvisited pixel whose edge
// value exceeds threshold seeds a flood fill over its 8-connected
// neighborhood, producing one Contour per blob. Contours with minPoints
// points or fewer are dropped.
//
// visited must hold width×height entries and is shared by every fill in
// the call, so no pixel is traced twice. Passing a fresh slice is the
// normal case; a nil slice allocates one.
func TraceContours(edges EdgeMap, width, height, threshold, minPoints int, visited []bool) []Contour {
	if visited == nil {
		visited = make([]bool, width*height)
	}

	contours := make([]Contour, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if visited[i] || int(edges[i]) <= threshold {
				continue
			}
			contour := floodFill(edges, visited, x, y, width, height, threshold)
			if len(contour) > minPoints {
				contours = append(contours, contour)
			}
		}
	}
	return contours
}

// floodFill collects the blob containing (startX, startY).
//
// It uses an explicit stack rather than recursion so large blobs cannot
// overflow the goroutine stack. Neighbors are pushed when they look
// acceptable at push time; each popped pixel is checked again because a
// pixel may be pushed more than once before it is first visited.
func floodFill(edges EdgeMap, visited []bool, startX, startY, width, height, threshold int) Contour {
	contour := make(Contour, 0)
	stack := []Point{{X: startX, Y: startY}}

	accept := func(x, y int) bool {
		if x < 0 || x >= width || y < 0 || y >= height {
			return false
		}
		i := y*width + x
		return !visited[i] && int(edges[i]) > threshold
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !accept(p.X, p.Y) {
			continue
		}
		visited[p.Y*width+p.X] = true
		contour = append(contour, p)

		// 8-connected neighbors
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				if accept(p.X+dx, p.Y+dy) {
					stack = append(stack, Point{X: p.X + dx, Y: p.Y + dy})
				}
			}
		}
	}
	return contour
}

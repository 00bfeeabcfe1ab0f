package tmap

import "fmt"

// defaultPalette returns the filter colors cycled over split label tile
// sources. Values are 0-100 per channel, the scale the viewer's Color
// filter expects.
func defaultPalette() [][3]int {
	return [][3]int{
		{100, 0, 0},     // red
		{0, 100, 0},     // green
		{0, 0, 100},     // blue
		{100, 100, 0},   // yellow
		{0, 100, 100},   // cyan
		{100, 0, 100},   // magenta
		{100, 100, 100}, // gray
	}
}

// filterColor renders a palette entry as the "r,g,b" filter value string.
func filterColor(c [3]int) string {
	return fmt.Sprintf("%d,%d,%d", c[0], c[1], c[2])
}

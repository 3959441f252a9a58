package collision

import "image"

// NumActions is the number of keypad actions.
const NumActions = 9

// ActionDelta returns the acceleration chosen by keypad action a. The
// actions are laid out like a numeric keypad read from the top left:
// 0 accelerates up and to the left, 4 keeps the velocity and 8
// accelerates down and to the right. It reports false for unknown
// actions.
func ActionDelta(a int) (image.Point, bool) {
	if a < 0 || a >= NumActions {
		return image.Point{}, false
	}
	return image.Pt(a%3-1, 1-a/3), true
}

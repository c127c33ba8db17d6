package rotary

// decoder turns quadrature edges into detent steps. A rising CLK edge with DT
// low is one step clockwise, with DT high one step counterclockwise.
type decoder struct {
	clk, dt int
}

// edge records a new level on one of the lines and returns the step it
// produces: +1, -1 or 0.
func (d *decoder) edge(isCLK bool, level int) int {
	if !isCLK {
		d.dt = level
		return 0
	}
	rising := d.clk == 0 && level == 1
	d.clk = level
	if !rising {
		return 0
	}
	if d.dt == 0 {
		return 1
	}
	return -1
}

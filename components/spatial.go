package components

// Position represents an entity's map position.
type Position struct {
	X, Y float64
}

// Rotation represents an entity's heading.
type Rotation struct {
	Heading float64 // radians
}

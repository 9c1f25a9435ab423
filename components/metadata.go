package components

// FieldDescriptor describes a component field for UI display.
type FieldDescriptor struct {
	ID           string  // Unique identifier
	Label        string  // Display name
	Format       string  // Printf format (e.g., "%.2f")
	Min          float64 // Minimum value (for bars)
	Max          float64 // Maximum value (for bars)
	IsCentered   bool    // True for centered bar display
	IsBar        bool    // True to render as progress bar
	ShowWhenZero bool    // Show even when value is zero
	Group        string  // Logical grouping
}

// String returns the config name for a Script.
func (s Script) String() string {
	names := ScriptNames()
	if int(s) < len(names) {
		return names[s]
	}
	return "unknown"
}

// ScriptNames returns the config names for all scripts.
// The order matches the Script constants.
func ScriptNames() []string {
	return []string{"wander", "stationary", "flee", "loop"}
}

// ActorFieldDescriptors returns metadata for target actor fields.
func ActorFieldDescriptors() []FieldDescriptor {
	return []FieldDescriptor{
		{ID: "speed", Label: "Speed", Format: "%.2f", Min: 0, Max: 0.5, IsBar: true, ShowWhenZero: true, Group: "motion"},
		{ID: "heading", Label: "Heading", Format: "%+.2f", Min: -3.14159, Max: 3.14159, IsCentered: true, IsBar: true, Group: "motion"},
		{ID: "sprinting", Label: "Sprinting", Format: "%.0f", Group: "state"},
		{ID: "idle", Label: "Idle", Format: "%.0f", Group: "state"},
	}
}

// BodyFieldDescriptors returns metadata for physical body fields.
func BodyFieldDescriptors() []FieldDescriptor {
	return []FieldDescriptor{
		{ID: "speed", Label: "Speed", Format: "%.2f", Min: 0, Max: 0.5, IsBar: true, ShowWhenZero: true, Group: "motion"},
		{ID: "vertical", Label: "Vert Vel", Format: "%+.2f", Min: -0.5, Max: 0.5, IsCentered: true, IsBar: true, Group: "motion"},
		{ID: "grounded", Label: "Grounded", Format: "%.0f", ShowWhenZero: true, Group: "contact"},
		{ID: "in_liquid", Label: "In Liquid", Format: "%.0f", Group: "contact"},
	}
}

// GetActorValue extracts an actor field value by ID.
func GetActorValue(actor *Actor, fieldID string) float64 {
	switch fieldID {
	case "speed":
		return actor.Motion.Len()
	case "heading":
		return actor.Heading
	case "sprinting":
		return boolValue(actor.Sprinting)
	case "idle":
		return boolValue(actor.Idle)
	default:
		return 0
	}
}

// GetBodyValue extracts a body field value by ID.
func GetBodyValue(body *Body, vel *Velocity, fieldID string) float64 {
	switch fieldID {
	case "speed":
		return vel.Horizontal()
	case "vertical":
		return vel.Y
	case "grounded":
		return boolValue(body.Grounded)
	case "in_liquid":
		return boolValue(body.InLiquid)
	default:
		return 0
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

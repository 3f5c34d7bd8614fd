package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyA     = 65  // A key (ASCII), orbit camera left
	KeyD     = 68  // D key (ASCII), orbit camera right
	KeyQ     = 81  // Q key (ASCII), roll highlighted bone
	KeyE     = 69  // E key (ASCII), roll highlighted bone
	KeyR     = 82  // R key (ASCII), reset pose
	KeyF     = 70  // F key (ASCII), clear highlight
	KeySpace = 32  // Spacebar (ASCII), print hierarchy
	KeyEsc   = 256 // Escape key (GLFW)

	KeyRight = 262 // Right arrow (GLFW)
	KeyLeft  = 263 // Left arrow (GLFW)
	KeyDown  = 264 // Down arrow (GLFW)
	KeyUp    = 265 // Up arrow (GLFW)
)

// Additional non-printable keys
const (
	KeyLeftShift  = 340 // Left Shift (GLFW)
	KeyRightShift = 344 // Right Shift (GLFW)
)

// Mouse button codes, matching GLFW's mouse button numbering.
const (
	MouseButtonLeft   = 0
	MouseButtonRight  = 1
	MouseButtonMiddle = 2
)

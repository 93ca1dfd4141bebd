// Package transform talks to the external GAN image service.
package transform

import "context"

// Commands understood by the image service. Single-photo commands apply an
// aging or gender transform; Fusion merges the faces of two or more photos.
const (
	CommandYoung  = "Young"
	CommandOld    = "Old"
	CommandMan    = "Man"
	CommandWoman  = "Woman"
	CommandFusion = "Fusion"
)

// SinglePhotoCommands lists the commands applicable to exactly one photo.
func SinglePhotoCommands() []string {
	return []string{CommandYoung, CommandOld, CommandMan, CommandWoman}
}

// ValidCommand reports whether command applies to the given number of photos.
func ValidCommand(command string, photoCount int) bool {
	if photoCount >= 2 {
		return command == CommandFusion
	}
	if photoCount == 1 {
		for _, c := range SinglePhotoCommands() {
			if c == command {
				return true
			}
		}
	}
	return false
}

// Service computes a transformed image from ordered input images.
type Service interface {
	Transform(ctx context.Context, inputs [][]byte, command string) ([]byte, error)
}

// Error wraps the service's own failure message, which is surfaced verbatim
// to the requester.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

package embedding

import "context"

// Modes a provider can run in. Selected once per session and fixed for its
// lifetime; a collection built with one mode cannot be queried with another.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// Provider converts text into a fixed-dimension vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Mode() string
}

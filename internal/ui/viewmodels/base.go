// internal/ui/viewmodels/base.go

package viewmodels

type BaseVM struct {
	Title   string
	Version string
	Debug   bool
}

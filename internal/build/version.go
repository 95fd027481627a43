// Package build carries values stamped in at link time, e.g.
//
//	go build -ldflags "-X github.com/drummonds/pdfpages/internal/build.Version=v1.2.0"
package build

// Version is the release of this binary, "dev" for local builds
var Version = "dev"

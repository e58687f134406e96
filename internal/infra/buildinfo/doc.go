// Package buildinfo exposes build-time version information.
//
// Values are injected with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/busstate-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Anything not injected falls back to what the Go toolchain recorded in
// the binary (module version, VCS revision and time).
package buildinfo

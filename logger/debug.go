//go:build debug

package logger

// debugBuild keeps the console logger active under go test when the debug
// tag is set.
const debugBuild = true

// Package testsupport holds helpers shared by package tests: temp-rooted
// configs, stub executables on PATH, filler files and history stores.
package testsupport

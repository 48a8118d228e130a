// Package textutil holds small string helpers for naming files derived from
// user-supplied paths.
package textutil

//go:build debug

package sntp

const debug = true
